package tournament

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

// GenerateSnapshot renders the state at now. It fails when the game clock has
// no value at now, which means Update is due.
func (m *Manager) GenerateSnapshot(now time.Time) (*models.GameSnapshot, bool) {
	clock, ok := m.GameClockTime(now)
	if !ok {
		return nil, false
	}
	secs := int64(clock / time.Second)
	if secs > int64(^uint32(0)) {
		return nil, false
	}

	snap := &models.GameSnapshot{
		CurrentPeriod:    m.currentPeriod,
		SecsInPeriod:     uint32(secs),
		Timeout:          m.timeoutState.Snapshot(now),
		Scores:           m.scores,
		IsOldGame:        !m.hasReset,
		GameNumber:       m.gameNumber,
		NextGameNumber:   m.NextGameNumber(),
		ConfirmingScores: m.pause != nil,
	}

	for _, c := range models.Colors() {
		pens := m.penalties.Get(c)
		out := make([]models.PenaltySnapshot, 0, len(pens))
		for _, p := range pens {
			ps, err := p.Snapshot(m.currentPeriod, clock, m.config)
			if err != nil {
				log.Debug().Err(err).Msg("Could not snapshot penalty")
				return nil, false
			}
			out = append(out, ps)
		}
		snap.Penalties.Set(c, out)
		snap.Warnings.Set(c, infractionSnapshots(m.warnings.Get(c)))
	}
	for _, o := range models.OptColors() {
		*snap.Fouls.Ptr(o) = infractionSnapshots(m.fouls.Get(o))
	}

	if g := m.recentGoal; g != nil {
		if g.period != m.currentPeriod || m.currentPeriod.TimeBetween(g.clock, clock) > recentGoalWindow {
			m.recentGoal = nil
		} else {
			snap.RecentGoal = &models.RecentGoal{Color: g.color, PlayerNumber: g.player}
		}
	}

	if d, ok := m.currentPeriod.NextPeriodDuration(m.config); ok {
		var n uint32
		if s := int64(d / time.Second); s <= int64(^uint32(0)) {
			n = uint32(s)
		}
		snap.NextPeriodLenSecs = &n
	}

	return snap, true
}

func infractionSnapshots(items []InfractionDetails) []models.InfractionSnapshot {
	out := make([]models.InfractionSnapshot, 0, len(items))
	for _, it := range items {
		out = append(out, it.Snapshot())
	}
	return out
}

// NextUpdateTime returns the next instant a displayed second changes. While
// paused for confirmation it is the pause deadline.
func (m *Manager) NextUpdateTime(now time.Time) (time.Time, bool) {
	if m.pause != nil {
		return m.pause.deadline, true
	}

	ts := m.timeoutState
	switch ts.Kind {
	case TimeoutRef, TimeoutPenaltyShot:
		return nextCountUpTick(ts.Clock, now)
	case TimeoutTeam:
		return nextCountDownTick(ts.Clock, now)
	case TimeoutRugbyPenaltyShot:
		shot, shotOK := nextCountDownTick(ts.Clock, now)
		if ts.Clock.IsRunning() && !m.clockState.IsRunning() {
			return shot, shotOK
		}
		var game time.Time
		var gameOK bool
		if m.currentPeriod == models.SuddenDeath {
			game, gameOK = nextCountUpTick(m.clockState, now)
		} else {
			game, gameOK = nextCountDownTick(m.clockState, now)
		}
		if gameOK {
			return game, true
		}
		return shot, shotOK
	}

	if m.currentPeriod == models.SuddenDeath {
		return nextCountUpTick(m.clockState, now)
	}
	return nextCountDownTick(m.clockState, now)
}

func nextCountUpTick(cs ClockState, now time.Time) (time.Time, bool) {
	ct, ok := cs.ClockTime(now)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(time.Second - ct%time.Second), true
}

func nextCountDownTick(cs ClockState, now time.Time) (time.Time, bool) {
	ct, ok := cs.ClockTime(now)
	if !ok {
		return time.Time{}, false
	}
	rem := ct % time.Second
	if rem == 0 && ct > 0 {
		rem = time.Second
	}
	return now.Add(rem), true
}

// StatusString is the "[MM:SS.mmm CODE]" prefix of manager log lines.
func (m *Manager) StatusString(now time.Time) string {
	clock := "XX:XX.XXX"
	if d, ok := m.GameClockTime(now); ok {
		clock = formatClock(d)
	}
	return fmt.Sprintf("[%s %s]", clock, m.currentPeriod.Code())
}

func formatClock(d time.Duration) string {
	mins := int64(d / time.Minute)
	secs := (d % time.Minute).Seconds()
	return fmt.Sprintf("%02d:%06.3f", mins, secs)
}
