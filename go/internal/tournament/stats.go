package tournament

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// StatsEventType tags an entry in the game stats log.
type StatsEventType string

const (
	StatsEventGoal    StatsEventType = "goal"
	StatsEventPenalty StatsEventType = "penalty"
)

// StatsEvent is a goal or a penalty as reported to the results portal. Sides are
// "dark" for black and "light" for white.
type StatsEvent struct {
	Type             StatsEventType    `json:"$type"`
	PlayerCapNumber  uint8             `json:"playerCapNumber"`
	Side             string            `json:"side"`
	GamePeriod       models.GamePeriod `json:"gamePeriod"`
	PeriodTime       float64           `json:"periodTime"`
	OccurredOn       time.Time         `json:"occurredOn"`
	Duration         *uint64           `json:"duration,omitempty"`
	IsTotalDismissal *bool             `json:"isTotalDismissal,omitempty"`
}

// GameStats is the event log of one game.
type GameStats struct {
	GameNumber uint32       `json:"game_number"`
	StartTime  *time.Time   `json:"start_time,omitempty"`
	EndTime    *time.Time   `json:"end_time,omitempty"`
	Events     []StatsEvent `json:"events"`
}

// StatsRecorder receives every stats mutation as it happens. Implementations
// must not block: they are called with the manager lock held.
type StatsRecorder interface {
	GameStarted(gameNumber uint32, at time.Time)
	EventRecorded(gameNumber uint32, event StatsEvent)
	GameEnded(stats GameStats)
}

func newGameStats(gameNumber uint32) GameStats {
	return GameStats{GameNumber: gameNumber, Events: []StatsEvent{}}
}

func side(c models.Color) string {
	if c == models.White {
		return "light"
	}
	return "dark"
}

func goalEvent(period models.GamePeriod, clock time.Duration, c models.Color, player uint8, at time.Time) StatsEvent {
	return StatsEvent{
		Type:            StatsEventGoal,
		PlayerCapNumber: player,
		Side:            side(c),
		GamePeriod:      period,
		PeriodTime:      clock.Seconds(),
		OccurredOn:      at.UTC(),
	}
}

func penaltyEvent(p Penalty, c models.Color) StatsEvent {
	td := p.Kind == PenaltyTotalDismissal
	ev := StatsEvent{
		Type:             StatsEventPenalty,
		PlayerCapNumber:  p.PlayerNumber,
		Side:             side(c),
		GamePeriod:       p.StartPeriod,
		PeriodTime:       p.StartTime.Seconds(),
		OccurredOn:       p.StartInstant.UTC(),
		IsTotalDismissal: &td,
	}
	if d, ok := p.Kind.Duration(); ok {
		secs := uint64(d / time.Second)
		ev.Duration = &secs
	}
	return ev
}

// Clone returns a deep copy safe to hand to another goroutine.
func (s GameStats) Clone() GameStats {
	out := s
	out.Events = append([]StatsEvent(nil), s.Events...)
	if s.StartTime != nil {
		t := *s.StartTime
		out.StartTime = &t
	}
	if s.EndTime != nil {
		t := *s.EndTime
		out.EndTime = &t
	}
	return out
}

// JSON encodes the events ordered by occurrence.
func (s GameStats) JSON() ([]byte, error) {
	events := append([]StatsEvent(nil), s.Events...)
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].OccurredOn.Before(events[j].OccurredOn)
	})
	if events == nil {
		events = []StatsEvent{}
	}
	return json.Marshal(events)
}
