package events

import (
	"encoding/json"
	"time"

	"github.com/mcdev12/refbox/go/internal/tournament"
)

// Event types published on refbox.events.<type>.
const (
	TypeGameStarted  = "game_started"
	TypeGoal         = "goal"
	TypePenalty      = "penalty"
	TypeGameEnded    = "game_ended"
	TypeClockRunning = "clock_running"
)

// Envelope is the JetStream message body wrapping every payload.
type Envelope struct {
	EventID    string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	GameNumber uint32          `json:"gameNumber"`
	Timestamp  time.Time       `json:"timestamp"`
	Payload    json.RawMessage `json:"payload"`
}

// GameStartedPayload is the payload for a game_started event
type GameStartedPayload struct {
	GameNumber uint32    `json:"game_number"`
	StartedAt  time.Time `json:"started_at"`
}

// StatsEventPayload is the payload for goal and penalty events
type StatsEventPayload struct {
	GameNumber uint32                `json:"game_number"`
	Event      tournament.StatsEvent `json:"event"`
}

// GameEndedPayload is the payload for a game_ended event. It carries the
// complete stats log of the game.
type GameEndedPayload struct {
	Stats tournament.GameStats `json:"stats"`
}

// ClockRunningPayload is the payload for a clock_running event
type ClockRunningPayload struct {
	Running   bool      `json:"running"`
	ChangedAt time.Time `json:"changed_at"`
}

// TypeFor maps a stats log entry to its event type.
func TypeFor(ev tournament.StatsEvent) string {
	if ev.Type == tournament.StatsEventPenalty {
		return TypePenalty
	}
	return TypeGoal
}

// Known reports whether t is one of the published event types.
func Known(t string) bool {
	switch t {
	case TypeGameStarted, TypeGoal, TypePenalty, TypeGameEnded, TypeClockRunning:
		return true
	}
	return false
}
