package models

import "time"

// GamePeriod is one phase of the match timeline.
type GamePeriod string

const (
	BetweenGames       GamePeriod = "BETWEEN_GAMES"
	FirstHalf          GamePeriod = "FIRST_HALF"
	HalfTime           GamePeriod = "HALF_TIME"
	SecondHalf         GamePeriod = "SECOND_HALF"
	PreOvertime        GamePeriod = "PRE_OVERTIME"
	OvertimeFirstHalf  GamePeriod = "OVERTIME_FIRST_HALF"
	OvertimeHalfTime   GamePeriod = "OVERTIME_HALF_TIME"
	OvertimeSecondHalf GamePeriod = "OVERTIME_SECOND_HALF"
	PreSuddenDeath     GamePeriod = "PRE_SUDDEN_DEATH"
	SuddenDeath        GamePeriod = "SUDDEN_DEATH"
)

var periodOrder = []GamePeriod{
	BetweenGames,
	FirstHalf,
	HalfTime,
	SecondHalf,
	PreOvertime,
	OvertimeFirstHalf,
	OvertimeHalfTime,
	OvertimeSecondHalf,
	PreSuddenDeath,
	SuddenDeath,
}

var periodNames = map[GamePeriod]string{
	BetweenGames:       "Between Games",
	FirstHalf:          "First Half",
	HalfTime:           "Half Time",
	SecondHalf:         "Second Half",
	PreOvertime:        "Pre-Overtime Break",
	OvertimeFirstHalf:  "Overtime First Half",
	OvertimeHalfTime:   "Overtime Half Time",
	OvertimeSecondHalf: "Overtime Second Half",
	PreSuddenDeath:     "Pre-Sudden Death Break",
	SuddenDeath:        "Sudden Death",
}

// Fixed width codes used in log status strings.
var periodCodes = map[GamePeriod]string{
	BetweenGames:       "BTWNGMS",
	FirstHalf:          "FRSTHLF",
	HalfTime:           "HLFTIME",
	SecondHalf:         "SCNDHLF",
	PreOvertime:        "PREOVTM",
	OvertimeFirstHalf:  "OTFRSTH",
	OvertimeHalfTime:   "OTHLFTM",
	OvertimeSecondHalf: "OTSCNDH",
	PreSuddenDeath:     "PRESDND",
	SuddenDeath:        "SUDNDTH",
}

func (p GamePeriod) String() string {
	if name, ok := periodNames[p]; ok {
		return name
	}
	return string(p)
}

// Code returns the seven character log code for the period.
func (p GamePeriod) Code() string {
	if code, ok := periodCodes[p]; ok {
		return code
	}
	return "???????"
}

// Index is the position of the period on the match timeline, -1 if unknown.
func (p GamePeriod) Index() int {
	for i, q := range periodOrder {
		if q == p {
			return i
		}
	}
	return -1
}

// Before reports whether p comes earlier on the match timeline than q.
func (p GamePeriod) Before(q GamePeriod) bool {
	return p.Index() < q.Index()
}

// Next returns the following period on the timeline; SuddenDeath has none.
func (p GamePeriod) Next() (GamePeriod, bool) {
	i := p.Index()
	if i < 0 || i+1 >= len(periodOrder) {
		return "", false
	}
	return periodOrder[i+1], true
}

// IsPlayPeriod reports whether the puck is in play during p.
func (p GamePeriod) IsPlayPeriod() bool {
	switch p {
	case FirstHalf, SecondHalf, OvertimeFirstHalf, OvertimeSecondHalf, SuddenDeath:
		return true
	default:
		return false
	}
}

// Duration returns the configured length of the period. BetweenGames and SuddenDeath
// have no fixed length.
func (p GamePeriod) Duration(cfg GameConfig) (time.Duration, bool) {
	switch p {
	case FirstHalf, SecondHalf:
		return cfg.HalfPlayDuration, true
	case HalfTime:
		return cfg.HalfTimeDuration, true
	case PreOvertime:
		return cfg.PreOvertimeBreak, true
	case OvertimeFirstHalf, OvertimeSecondHalf:
		return cfg.OTHalfPlayDuration, true
	case OvertimeHalfTime:
		return cfg.OTHalfTimeDuration, true
	case PreSuddenDeath:
		return cfg.PreSuddenDeathDuration, true
	default:
		return 0, false
	}
}

// PenaltiesRun reports whether penalty time is served during p. A single half
// game never plays SecondHalf.
func (p GamePeriod) PenaltiesRun(cfg GameConfig) bool {
	switch p {
	case FirstHalf:
		return true
	case SecondHalf:
		return !cfg.SingleHalf
	case OvertimeFirstHalf, OvertimeSecondHalf:
		return cfg.OvertimeAllowed
	case SuddenDeath:
		return cfg.SuddenDeathAllowed
	default:
		return false
	}
}

// TimeElapsedAt converts a clock reading during p into time played in p.
func (p GamePeriod) TimeElapsedAt(clock time.Duration, cfg GameConfig) (time.Duration, bool) {
	if p == SuddenDeath {
		return clock, true
	}
	d, ok := p.Duration(cfg)
	if !ok || clock > d {
		return 0, false
	}
	return d - clock, true
}

// TimeBetween returns the signed play time between two clock readings in p.
func (p GamePeriod) TimeBetween(start, end time.Duration) time.Duration {
	if p == SuddenDeath {
		return end - start
	}
	return start - end
}

// NextPeriodDuration is the length of the period that will follow p if the match
// continues, which the scoreboard shows during breaks.
func (p GamePeriod) NextPeriodDuration(cfg GameConfig) (time.Duration, bool) {
	switch p {
	case BetweenGames:
		return cfg.HalfPlayDuration, true
	case FirstHalf:
		if cfg.SingleHalf {
			return regulationEndBreak(cfg)
		}
		return cfg.HalfTimeDuration, true
	case HalfTime:
		return cfg.HalfPlayDuration, true
	case SecondHalf:
		return regulationEndBreak(cfg)
	case PreOvertime, OvertimeHalfTime:
		return cfg.OTHalfPlayDuration, true
	case OvertimeFirstHalf:
		return cfg.OTHalfTimeDuration, true
	case OvertimeSecondHalf:
		if cfg.SuddenDeathAllowed {
			return cfg.PreSuddenDeathDuration, true
		}
		return 0, false
	default:
		return 0, false
	}
}

func regulationEndBreak(cfg GameConfig) (time.Duration, bool) {
	switch {
	case cfg.OvertimeAllowed:
		return cfg.PreOvertimeBreak, true
	case cfg.SuddenDeathAllowed:
		return cfg.PreSuddenDeathDuration, true
	default:
		return 0, false
	}
}
