package tournament

import (
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// PenaltyKind is the length tier of a penalty.
type PenaltyKind string

const (
	PenaltyThirtySecond   PenaltyKind = "THIRTY_SECOND"
	PenaltyOneMinute      PenaltyKind = "ONE_MINUTE"
	PenaltyTwoMinute      PenaltyKind = "TWO_MINUTE"
	PenaltyFourMinute     PenaltyKind = "FOUR_MINUTE"
	PenaltyFiveMinute     PenaltyKind = "FIVE_MINUTE"
	PenaltyTotalDismissal PenaltyKind = "TOTAL_DISMISSAL"
)

// DefaultPenaltyKind is preselected when a penalty is entered.
const DefaultPenaltyKind = PenaltyOneMinute

// Duration returns the time to serve. Total dismissals have none.
func (k PenaltyKind) Duration() (time.Duration, bool) {
	switch k {
	case PenaltyThirtySecond:
		return 30 * time.Second, true
	case PenaltyOneMinute:
		return time.Minute, true
	case PenaltyTwoMinute:
		return 2 * time.Minute, true
	case PenaltyFourMinute:
		return 4 * time.Minute, true
	case PenaltyFiveMinute:
		return 5 * time.Minute, true
	default:
		return 0, false
	}
}

// Fluent is the translation key of the kind.
func (k PenaltyKind) Fluent() string {
	switch k {
	case PenaltyThirtySecond:
		return "thirty-seconds"
	case PenaltyOneMinute:
		return "one-minute"
	case PenaltyTwoMinute:
		return "two-minutes"
	case PenaltyFourMinute:
		return "four-minutes"
	case PenaltyFiveMinute:
		return "five-minutes"
	default:
		return "total-dismissal"
	}
}

// Short is the abbreviation used in list lines.
func (k PenaltyKind) Short() string {
	switch k {
	case PenaltyThirtySecond:
		return "30s"
	case PenaltyOneMinute:
		return "1m"
	case PenaltyTwoMinute:
		return "2m"
	case PenaltyFourMinute:
		return "4m"
	case PenaltyFiveMinute:
		return "5m"
	default:
		return "DSMS"
	}
}

// Valid reports whether k is a known kind.
func (k PenaltyKind) Valid() bool {
	switch k {
	case PenaltyThirtySecond, PenaltyOneMinute, PenaltyTwoMinute,
		PenaltyFourMinute, PenaltyFiveMinute, PenaltyTotalDismissal:
		return true
	default:
		return false
	}
}

// Penalty is a timed exclusion of one player. StartTime is the game clock
// reading when it was given.
type Penalty struct {
	Kind         PenaltyKind       `json:"kind"`
	PlayerNumber uint8             `json:"player_number"`
	StartPeriod  models.GamePeriod `json:"start_period"`
	StartTime    time.Duration     `json:"start_time"`
	StartInstant time.Time         `json:"start_instant"`
	Infraction   models.Infraction `json:"infraction"`
}

// TimeElapsed returns the penalty time served by the given game clock reading.
// It is negative when the reading is earlier than the start of the penalty.
func (p Penalty) TimeElapsed(curPeriod models.GamePeriod, curTime time.Duration, cfg models.GameConfig) (time.Duration, error) {
	switch {
	case curPeriod == p.StartPeriod:
		if !curPeriod.PenaltiesRun(cfg) {
			return 0, nil
		}
		return curPeriod.TimeBetween(p.StartTime, curTime), nil
	case p.StartPeriod.Before(curPeriod):
		return playTimeBetween(p.StartPeriod, p.StartTime, curPeriod, curTime, cfg)
	default:
		d, err := playTimeBetween(curPeriod, curTime, p.StartPeriod, p.StartTime, cfg)
		return -d, err
	}
}

// playTimeBetween sums the penalty time served from a reading in an earlier
// period to a reading in a later one.
func playTimeBetween(earlier models.GamePeriod, earlierTime time.Duration, later models.GamePeriod, laterTime time.Duration, cfg models.GameConfig) (time.Duration, error) {
	var elapsed time.Duration
	if earlier.PenaltiesRun(cfg) {
		elapsed = earlierTime
	}

	period, ok := earlier.Next()
	for ok && period.Before(later) {
		if period.PenaltiesRun(cfg) {
			d, has := period.Duration(cfg)
			if !has {
				return 0, PenaltyConversionFailed
			}
			elapsed += d
		}
		period, ok = period.Next()
	}

	if later.PenaltiesRun(cfg) {
		d, has := later.TimeElapsedAt(laterTime, cfg)
		if !has {
			return 0, PenaltyConversionFailed
		}
		elapsed += d
	}
	return elapsed, nil
}

// TimeRemaining returns the time left to serve, negative once served. Every
// penalty counts as served once the game it was given in has ended.
func (p Penalty) TimeRemaining(curPeriod models.GamePeriod, curTime time.Duration, cfg models.GameConfig) (time.Duration, error) {
	if curPeriod == models.BetweenGames && p.StartPeriod != models.BetweenGames {
		return 0, nil
	}
	total, ok := p.Kind.Duration()
	if !ok {
		return 0, PenaltyNoDuration
	}
	elapsed, err := p.TimeElapsed(curPeriod, curTime, cfg)
	if err != nil {
		return 0, err
	}
	return total - elapsed, nil
}

// IsComplete reports whether the penalty has been served. Total dismissals never are.
func (p Penalty) IsComplete(curPeriod models.GamePeriod, curTime time.Duration, cfg models.GameConfig) (bool, error) {
	if p.Kind == PenaltyTotalDismissal {
		return false, nil
	}
	rem, err := p.TimeRemaining(curPeriod, curTime, cfg)
	if err != nil {
		return false, err
	}
	return rem <= 0, nil
}

func (p Penalty) Snapshot(curPeriod models.GamePeriod, curTime time.Duration, cfg models.GameConfig) (models.PenaltySnapshot, error) {
	snap := models.PenaltySnapshot{PlayerNumber: p.PlayerNumber, Infraction: p.Infraction}

	rem, err := p.TimeRemaining(curPeriod, curTime, cfg)
	switch {
	case err == PenaltyNoDuration:
		snap.Time = models.PenaltyTime{TotalDismissal: true}
	case err != nil:
		return snap, err
	case rem < 0:
		snap.Time = models.PenaltyTime{Seconds: 0}
	default:
		secs := int64(rem / time.Second)
		if secs > int64(models.UndefinedSecs) {
			return snap, PenaltySnapshotOverflow
		}
		snap.Time = models.PenaltyTime{Seconds: uint16(secs)}
	}
	return snap, nil
}
