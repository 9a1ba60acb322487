package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTimingRules_GameConfig(t *testing.T) {
	psd := 30 * time.Second
	rules := TimingRules{
		GameTimeouts:        GameTimeouts{Allowed: 2, Duration: 45 * time.Second, PerHalf: true},
		HalfDuration:        10 * time.Minute,
		HalfTimeDuration:    2 * time.Minute,
		MinGameBreak:        3 * time.Minute,
		OvertimeAllowed:     false,
		SuddenDeathAllowed:  true,
		PreSuddenDeathBreak: &psd,
	}

	cfg := rules.GameConfig()
	def := DefaultGameConfig()

	assert.Equal(t, uint16(2), cfg.TeamTimeoutsPerHalf)
	assert.Equal(t, 45*time.Second, cfg.TeamTimeoutDuration)
	assert.Equal(t, 10*time.Minute, cfg.HalfPlayDuration)
	assert.Equal(t, 2*time.Minute, cfg.HalfTimeDuration)
	assert.Equal(t, 3*time.Minute, cfg.MinimumBreak)
	assert.False(t, cfg.OvertimeAllowed)
	assert.True(t, cfg.SuddenDeathAllowed)
	assert.Equal(t, psd, cfg.PreSuddenDeathDuration)
	assert.False(t, cfg.SingleHalf)

	// untouched fields keep their defaults
	assert.Equal(t, def.NominalBreak, cfg.NominalBreak)
	assert.Equal(t, def.PenaltyShotDuration, cfg.PenaltyShotDuration)
	assert.Equal(t, def.PostGameDuration, cfg.PostGameDuration)
}

func TestTimingRules_GameConfigDefaults(t *testing.T) {
	rules := TimingRules{HalfDuration: 20 * time.Minute}
	cfg := rules.GameConfig()

	assert.Equal(t, DefaultGameConfig().PreSuddenDeathDuration, cfg.PreSuddenDeathDuration)
	assert.True(t, cfg.SingleHalf)
}

func TestScoresDiffer(t *testing.T) {
	assert.False(t, ScoresDiffer(Scores{}))
	assert.True(t, ScoresDiffer(Scores{Black: 1}))

	var s Scores
	s.Set(White, 3)
	*s.Ptr(Black)++
	assert.Equal(t, uint8(3), s.Get(White))
	assert.Equal(t, uint8(1), s.Get(Black))
	assert.Equal(t, "Black: 1, White: 3", FormatScores(s))
}
