package tournament

import (
	"fmt"
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// InfractionDetails records a warning or a foul. A nil PlayerNumber means the
// whole team was called.
type InfractionDetails struct {
	PlayerNumber *uint8            `json:"player_number,omitempty"`
	StartPeriod  models.GamePeriod `json:"start_period"`
	StartTime    time.Duration     `json:"start_time"`
	StartInstant time.Time         `json:"start_instant"`
	Infraction   models.Infraction `json:"infraction"`
}

func (d InfractionDetails) Snapshot() models.InfractionSnapshot {
	return models.InfractionSnapshot{PlayerNumber: d.PlayerNumber, Infraction: d.Infraction}
}

func warnPlayerLabel(num *uint8) string {
	if num == nil {
		return "team's"
	}
	return fmt.Sprintf("player #%d's", *num)
}

func foulPlayerLabel(num *uint8) string {
	if num == nil {
		return ""
	}
	return fmt.Sprintf(" player #%d's", *num)
}
