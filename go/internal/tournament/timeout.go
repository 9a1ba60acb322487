package tournament

import (
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// TimeoutKind identifies the active stoppage, if any.
type TimeoutKind string

const (
	TimeoutNone             TimeoutKind = "NONE"
	TimeoutTeam             TimeoutKind = "TEAM"
	TimeoutRef              TimeoutKind = "REF"
	TimeoutPenaltyShot      TimeoutKind = "PENALTY_SHOT"
	TimeoutRugbyPenaltyShot TimeoutKind = "RUGBY_PENALTY_SHOT"
)

// TimeoutState is the active stoppage and its own clock. Color is only set for
// team timeouts.
type TimeoutState struct {
	Kind  TimeoutKind
	Color models.Color
	Clock ClockState
}

var noTimeout = TimeoutState{Kind: TimeoutNone}

func (t TimeoutState) Active() bool {
	return t.Kind != TimeoutNone && t.Kind != ""
}

// Snapshot renders the timeout for display. Both penalty shot forms show as a
// penalty shot.
func (t TimeoutState) Snapshot(now time.Time) models.TimeoutSnapshot {
	switch t.Kind {
	case TimeoutTeam:
		return models.TeamTimeout(t.Color, t.Clock.secs(now))
	case TimeoutRef:
		return models.TimeoutSnapshot{Kind: models.TimeoutRef, Secs: t.Clock.secs(now)}
	case TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		return models.TimeoutSnapshot{Kind: models.TimeoutPenaltyShot, Secs: t.Clock.secs(now)}
	default:
		return models.TimeoutSnapshot{Kind: models.TimeoutNone}
	}
}
