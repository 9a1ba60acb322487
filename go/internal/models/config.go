package models

import "time"

// GameConfig holds the timing rules of a match.
type GameConfig struct {
	TeamTimeoutsPerHalf    uint16        `json:"team_timeouts_per_half" yaml:"team_timeouts_per_half"`
	TimeoutsCountedPerHalf bool          `json:"timeouts_counted_per_half" yaml:"timeouts_counted_per_half"`
	OvertimeAllowed        bool          `json:"overtime_allowed" yaml:"overtime_allowed"`
	SuddenDeathAllowed     bool          `json:"sudden_death_allowed" yaml:"sudden_death_allowed"`
	SingleHalf             bool          `json:"single_half" yaml:"single_half"`
	HalfPlayDuration       time.Duration `json:"half_play_duration" yaml:"half_play_duration"`
	HalfTimeDuration       time.Duration `json:"half_time_duration" yaml:"half_time_duration"`
	TeamTimeoutDuration    time.Duration `json:"team_timeout_duration" yaml:"team_timeout_duration"`
	PenaltyShotDuration    time.Duration `json:"penalty_shot_duration" yaml:"penalty_shot_duration"`
	OTHalfPlayDuration     time.Duration `json:"ot_half_play_duration" yaml:"ot_half_play_duration"`
	OTHalfTimeDuration     time.Duration `json:"ot_half_time_duration" yaml:"ot_half_time_duration"`
	PreOvertimeBreak       time.Duration `json:"pre_overtime_break" yaml:"pre_overtime_break"`
	PreSuddenDeathDuration time.Duration `json:"pre_sudden_death_duration" yaml:"pre_sudden_death_duration"`
	PostGameDuration       time.Duration `json:"post_game_duration" yaml:"post_game_duration"`
	NominalBreak           time.Duration `json:"nominal_break" yaml:"nominal_break"`
	MinimumBreak           time.Duration `json:"minimum_break" yaml:"minimum_break"`
}

// DefaultGameConfig returns the standard tournament timing.
func DefaultGameConfig() GameConfig {
	return GameConfig{
		TeamTimeoutsPerHalf:    1,
		TimeoutsCountedPerHalf: true,
		OvertimeAllowed:        true,
		SuddenDeathAllowed:     true,
		SingleHalf:             false,
		HalfPlayDuration:       15 * time.Minute,
		HalfTimeDuration:       3 * time.Minute,
		TeamTimeoutDuration:    time.Minute,
		PenaltyShotDuration:    45 * time.Second,
		OTHalfPlayDuration:     5 * time.Minute,
		OTHalfTimeDuration:     3 * time.Minute,
		PreOvertimeBreak:       3 * time.Minute,
		PreSuddenDeathDuration: time.Minute,
		PostGameDuration:       2 * time.Minute,
		NominalBreak:           15 * time.Minute,
		MinimumBreak:           4 * time.Minute,
	}
}

// GameTimeouts is the timeout allowance published with a schedule.
type GameTimeouts struct {
	Allowed  uint16        `json:"allowed"`
	Duration time.Duration `json:"duration"`
	PerHalf  bool          `json:"per_half"`
}

// TimingRules overrides the configured timing for a scheduled game.
type TimingRules struct {
	GameTimeouts        GameTimeouts   `json:"game_timeouts"`
	HalfDuration        time.Duration  `json:"half_duration"`
	HalfTimeDuration    time.Duration  `json:"half_time_duration"`
	MinGameBreak        time.Duration  `json:"min_game_break"`
	OvertimeAllowed     bool           `json:"overtime_allowed"`
	SuddenDeathAllowed  bool           `json:"sudden_death_allowed"`
	PreSuddenDeathBreak *time.Duration `json:"pre_sudden_death_break,omitempty"`
}

// GameConfig maps the rules onto the default configuration. A zero half time
// means the game is played as a single half.
func (r TimingRules) GameConfig() GameConfig {
	cfg := DefaultGameConfig()
	cfg.TeamTimeoutsPerHalf = r.GameTimeouts.Allowed
	cfg.TeamTimeoutDuration = r.GameTimeouts.Duration
	cfg.TimeoutsCountedPerHalf = r.GameTimeouts.PerHalf
	cfg.HalfPlayDuration = r.HalfDuration
	cfg.HalfTimeDuration = r.HalfTimeDuration
	cfg.MinimumBreak = r.MinGameBreak
	cfg.OvertimeAllowed = r.OvertimeAllowed
	cfg.SuddenDeathAllowed = r.SuddenDeathAllowed
	if r.PreSuddenDeathBreak != nil {
		cfg.PreSuddenDeathDuration = *r.PreSuddenDeathBreak
	}
	cfg.SingleHalf = r.HalfTimeDuration == 0
	return cfg
}
