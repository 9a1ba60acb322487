package tournament

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/refbox/go/internal/models"
)

func at(d time.Duration) time.Time {
	return base.Add(d)
}

// startedManager returns a manager whose first half started at base.
func startedManager(t *testing.T, cfg models.GameConfig) *Manager {
	t.Helper()
	m := NewManager(cfg)
	require.NoError(t, m.StartPlayNow(base))
	require.Equal(t, models.FirstHalf, m.CurrentPeriod())
	return m
}

func assertClock(t *testing.T, m *Manager, now time.Time, want time.Duration) {
	t.Helper()
	got, ok := m.GameClockTime(now)
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestManager_BetweenGamesToFirstHalf(t *testing.T) {
	m := NewManager(models.DefaultGameConfig())
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())
	assert.False(t, m.ClockIsRunning())

	require.NoError(t, m.SetGameClockTime(10*time.Second))
	require.NoError(t, m.StartClock(base))
	assert.True(t, m.ClockIsRunning())

	require.NoError(t, m.Update(at(5*time.Second)))
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())
	assertClock(t, m, at(5*time.Second), 5*time.Second)

	require.NoError(t, m.Update(at(10*time.Second)))
	assert.Equal(t, models.FirstHalf, m.CurrentPeriod())
	assert.Equal(t, uint32(1), m.GameNumber())
	assert.Equal(t, at(10*time.Second), m.GameStartTime())
	assertClock(t, m, at(10*time.Second), 15*time.Minute)
	assertClock(t, m, at(70*time.Second), 14*time.Minute)
}

func TestManager_ShortHalfStartsFull(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.HalfPlayDuration = 10 * time.Second
	m := NewManager(cfg)

	require.NoError(t, m.SetGameClockTime(time.Second))
	require.NoError(t, m.StartClock(base))
	require.NoError(t, m.Update(at(time.Second)))

	assert.Equal(t, models.FirstHalf, m.CurrentPeriod())
	assertClock(t, m, at(time.Second), 10*time.Second)
}

func TestManager_LateUpdateKeepsPeriodBoundary(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	// the half time countdown starts when the first half ran out, not at the update
	require.NoError(t, m.Update(at(15*time.Minute+2*time.Second)))
	assert.Equal(t, models.HalfTime, m.CurrentPeriod())
	assertClock(t, m, at(15*time.Minute+2*time.Second), 3*time.Minute-2*time.Second)
}

func TestManager_NoOvertimeGoesToSuddenDeath(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.OvertimeAllowed = false
	m := startedManager(t, cfg)

	require.NoError(t, m.Update(at(15*time.Minute)))
	assert.Equal(t, models.HalfTime, m.CurrentPeriod())
	require.NoError(t, m.Update(at(18*time.Minute)))
	assert.Equal(t, models.SecondHalf, m.CurrentPeriod())
	require.NoError(t, m.Update(at(33*time.Minute)))
	assert.Equal(t, models.PreSuddenDeath, m.CurrentPeriod())
	assertClock(t, m, at(33*time.Minute), time.Minute)

	require.NoError(t, m.Update(at(34*time.Minute)))
	assert.Equal(t, models.SuddenDeath, m.CurrentPeriod())
	assertClock(t, m, at(34*time.Minute+5*time.Second), 5*time.Second)

	could, err := m.CouldEndGame(at(34*time.Minute + 5*time.Second))
	require.NoError(t, err)
	assert.False(t, could)

	m.AddScore(models.Black, 3, at(34*time.Minute+5*time.Second))
	assert.Equal(t, models.SuddenDeath, m.CurrentPeriod(), "scoring alone never ends the game")

	could, err = m.CouldEndGame(at(34*time.Minute + 5*time.Second))
	require.NoError(t, err)
	assert.True(t, could)

	require.NoError(t, m.Update(at(34*time.Minute+6*time.Second)))
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())

	stats, ok := m.LastGameStats()
	require.True(t, ok)
	assert.Equal(t, uint32(1), stats.GameNumber)
	require.Len(t, stats.Events, 1)
	assert.Equal(t, StatsEventGoal, stats.Events[0].Type)
	assert.Equal(t, "dark", stats.Events[0].Side)
	assert.NotNil(t, stats.EndTime)
}

func TestManager_ScoresDifferEndsRegulation(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	require.NoError(t, m.Update(at(15*time.Minute)))
	require.NoError(t, m.Update(at(18*time.Minute)))
	m.AddScore(models.White, 2, at(20*time.Minute))

	require.NoError(t, m.Update(at(33*time.Minute)))
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())
	// next game is scheduled a nominal break after the regulation game length
	assertClock(t, m, at(33*time.Minute), 15*time.Minute)
	assert.True(t, m.ClockIsRunning())
}

func TestManager_SingleHalf(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.SingleHalf = true
	cfg.OvertimeAllowed = false
	cfg.SuddenDeathAllowed = false
	m := startedManager(t, cfg)

	require.NoError(t, m.Update(at(15*time.Minute)))
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())
}

func TestManager_TeamTimeout(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	require.NoError(t, m.StartTeamTimeout(models.Black, at(time.Minute)))
	assert.Equal(t, TimeoutTeam, m.Timeout().Kind)
	assert.Equal(t, uint16(1), m.TimeoutsUsed().Black)
	assert.True(t, m.ClockIsRunning())
	assertClock(t, m, at(90*time.Second), 14*time.Minute)

	rem, ok := m.TimeoutClockTime(at(90 * time.Second))
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, rem)

	require.NoError(t, m.Update(at(90*time.Second)))
	assert.Equal(t, TimeoutTeam, m.Timeout().Kind)

	// the game clock resumes when the timeout ran out, so no game time is lost
	require.NoError(t, m.Update(at(2*time.Minute+500*time.Millisecond)))
	assert.False(t, m.Timeout().Active())
	assertClock(t, m, at(3*time.Minute), 13*time.Minute)

	err := m.StartTeamTimeout(models.Black, at(4*time.Minute))
	assert.ErrorIs(t, err, ErrTooManyTeamTimeouts)

	require.NoError(t, m.StartTeamTimeout(models.White, at(4*time.Minute)))
	require.NoError(t, m.EndTimeout(at(4*time.Minute+10*time.Second)))
	assertClock(t, m, at(4*time.Minute+10*time.Second), 12*time.Minute)
}

func TestManager_TeamTimeoutWrongPeriod(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	require.NoError(t, m.Update(at(15*time.Minute)))

	err := m.StartTeamTimeout(models.White, at(15*time.Minute+time.Second))
	require.ErrorIs(t, err, ErrWrongGamePeriod)
	assert.Contains(t, err.Error(), "White Timeout")
	assert.Contains(t, err.Error(), "Half Time")
}

func TestManager_SwitchTeamTimeout(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	require.NoError(t, m.StartTeamTimeout(models.Black, at(time.Minute)))

	assert.ErrorIs(t, m.SwitchToTeamTimeout(models.Black), ErrNotInTeamTimeout)
	require.NoError(t, m.SwitchToTeamTimeout(models.White))
	assert.Equal(t, models.White, m.Timeout().Color)
	assert.Equal(t, uint16(0), m.TimeoutsUsed().Black)
	assert.Equal(t, uint16(1), m.TimeoutsUsed().White)
}

func TestManager_RefTimeoutAndPenaltyShot(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	assert.ErrorIs(t, m.SwitchToPenaltyShot(at(time.Minute)), ErrNotInRefTimeout)

	require.NoError(t, m.StartRefTimeout(at(time.Minute)))
	assert.ErrorIs(t, m.StartRefTimeout(at(time.Minute)), ErrAlreadyInTimeout)

	d, ok := m.TimeoutClockTime(at(time.Minute + 20*time.Second))
	require.True(t, ok)
	assert.Equal(t, 20*time.Second, d)
	assertClock(t, m, at(time.Minute+20*time.Second), 14*time.Minute)

	require.NoError(t, m.SwitchToPenaltyShot(at(time.Minute+20*time.Second)))
	assert.Equal(t, TimeoutPenaltyShot, m.Timeout().Kind)
	d, ok = m.TimeoutClockTime(at(time.Minute + 30*time.Second))
	require.True(t, ok)
	assert.Equal(t, 30*time.Second, d, "switching keeps the elapsed timeout time")

	assert.ErrorIs(t, m.StartTeamTimeout(models.Black, at(time.Minute+30*time.Second)), ErrAlreadyInTimeout)

	require.NoError(t, m.SwitchToRefTimeout(at(time.Minute+40*time.Second)))
	require.NoError(t, m.EndTimeout(at(2*time.Minute)))
	assert.False(t, m.Timeout().Active())
	assertClock(t, m, at(2*time.Minute+time.Second), 14*time.Minute-time.Second)

	assert.ErrorIs(t, m.EndTimeout(at(2*time.Minute)), ErrNotInTimeout)
}

func TestManager_SwitchBetweenStoppages(t *testing.T) {
	const (
		up      = "up"
		down    = "down"
		stopped = "stopped"
	)
	start := map[TimeoutKind]func(m *Manager, now time.Time) error{
		TimeoutNone: func(*Manager, time.Time) error { return nil },
		TimeoutTeam: func(m *Manager, now time.Time) error {
			return m.StartTeamTimeout(models.Black, now)
		},
		TimeoutRef:              (*Manager).StartRefTimeout,
		TimeoutPenaltyShot:      (*Manager).StartPenaltyShot,
		TimeoutRugbyPenaltyShot: (*Manager).StartRugbyPenaltyShot,
	}
	switchTo := map[TimeoutKind]func(m *Manager, now time.Time) error{
		TimeoutRef:              (*Manager).SwitchToRefTimeout,
		TimeoutPenaltyShot:      (*Manager).SwitchToPenaltyShot,
		TimeoutRugbyPenaltyShot: (*Manager).SwitchToRugbyPenaltyShot,
	}

	// the stoppage starts at 1:00, the switch is at 1:20 and the clocks are read at 1:30
	tests := []struct {
		name        string
		from, to    TimeoutKind
		clockHalted bool
		wantErr     error
		wantDir     string
		wantTimeout time.Duration
		gameRunning bool
		wantGame    time.Duration
	}{
		{name: "ref to shot keeps counting up", from: TimeoutRef, to: TimeoutPenaltyShot,
			wantDir: up, wantTimeout: 30 * time.Second, wantGame: 14 * time.Minute},
		{name: "shot to ref keeps counting up", from: TimeoutPenaltyShot, to: TimeoutRef,
			wantDir: up, wantTimeout: 30 * time.Second, wantGame: 14 * time.Minute},
		{name: "ref to rugby counts down and runs the game clock", from: TimeoutRef, to: TimeoutRugbyPenaltyShot,
			wantDir: down, wantTimeout: 35 * time.Second, gameRunning: true, wantGame: 13*time.Minute + 50*time.Second},
		{name: "shot to rugby counts down and runs the game clock", from: TimeoutPenaltyShot, to: TimeoutRugbyPenaltyShot,
			wantDir: down, wantTimeout: 35 * time.Second, gameRunning: true, wantGame: 13*time.Minute + 50*time.Second},
		{name: "rugby to ref counts up from zero and stops the game clock", from: TimeoutRugbyPenaltyShot, to: TimeoutRef,
			wantDir: up, wantTimeout: 10 * time.Second, wantGame: 13*time.Minute + 40*time.Second},
		{name: "rugby to shot counts up from zero and stops the game clock", from: TimeoutRugbyPenaltyShot, to: TimeoutPenaltyShot,
			wantDir: up, wantTimeout: 10 * time.Second, wantGame: 13*time.Minute + 40*time.Second},
		{name: "halted ref to rugby stays stopped", from: TimeoutRef, to: TimeoutRugbyPenaltyShot, clockHalted: true,
			wantDir: stopped, wantTimeout: 45 * time.Second, wantGame: 14*time.Minute + 30*time.Second},
		{name: "halted rugby to ref stays stopped", from: TimeoutRugbyPenaltyShot, to: TimeoutRef, clockHalted: true,
			wantDir: stopped, wantTimeout: 0, wantGame: 14*time.Minute + 30*time.Second},
		{name: "ref to ref", from: TimeoutRef, to: TimeoutRef, wantErr: ErrNotInPenaltyShot},
		{name: "shot to shot", from: TimeoutPenaltyShot, to: TimeoutPenaltyShot, wantErr: ErrNotInRefTimeout},
		{name: "rugby to rugby", from: TimeoutRugbyPenaltyShot, to: TimeoutRugbyPenaltyShot, wantErr: ErrNotInRefTimeout},
		{name: "team to ref", from: TimeoutTeam, to: TimeoutRef, wantErr: ErrNotInPenaltyShot},
		{name: "team to shot", from: TimeoutTeam, to: TimeoutPenaltyShot, wantErr: ErrNotInRefTimeout},
		{name: "team to rugby", from: TimeoutTeam, to: TimeoutRugbyPenaltyShot, wantErr: ErrNotInRefTimeout},
		{name: "no stoppage to ref", from: TimeoutNone, to: TimeoutRef, wantErr: ErrNotInPenaltyShot},
		{name: "no stoppage to rugby", from: TimeoutNone, to: TimeoutRugbyPenaltyShot, wantErr: ErrNotInRefTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := startedManager(t, models.DefaultGameConfig())
			if tt.clockHalted {
				require.NoError(t, m.StopClock(at(30*time.Second)))
			}
			require.NoError(t, start[tt.from](m, at(time.Minute)))

			err := switchTo[tt.to](m, at(time.Minute+20*time.Second))
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, tt.from, m.Timeout().Kind)
				return
			}
			require.NoError(t, err)

			now := at(time.Minute + 30*time.Second)
			ts := m.Timeout()
			assert.Equal(t, tt.to, ts.Kind)
			switch tt.wantDir {
			case up:
				assert.True(t, ts.Clock.IsCountingUp())
			case down:
				assert.True(t, ts.Clock.IsCountingDown())
			default:
				assert.True(t, ts.Clock.IsStopped())
			}
			got, ok := m.TimeoutClockTime(now)
			require.True(t, ok)
			assert.Equal(t, tt.wantTimeout, got)

			assert.Equal(t, tt.gameRunning, m.clockState.IsRunning())
			assertClock(t, m, now, tt.wantGame)
		})
	}
}

func TestManager_RugbyShotHoldsPeriodOpen(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	require.NoError(t, m.StartRugbyPenaltyShot(at(14*time.Minute+50*time.Second)))
	assert.Equal(t, TimeoutRugbyPenaltyShot, m.Timeout().Kind)
	assertClock(t, m, at(14*time.Minute+55*time.Second), 5*time.Second)

	require.NoError(t, m.Update(at(15*time.Minute)))
	assert.Equal(t, models.FirstHalf, m.CurrentPeriod())
	assertClock(t, m, at(15*time.Minute), 0)

	require.NoError(t, m.Update(at(15*time.Minute+35*time.Second)))
	assert.Equal(t, models.HalfTime, m.CurrentPeriod())
	assert.False(t, m.Timeout().Active())
	assertClock(t, m, at(15*time.Minute+35*time.Second), 3*time.Minute)
}

func TestManager_RugbyShotEndedWhileStopped(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	require.NoError(t, m.StartRugbyPenaltyShot(at(time.Minute)))
	require.NoError(t, m.StopClock(at(time.Minute+10*time.Second)))
	assert.False(t, m.ClockIsRunning())
	assertClock(t, m, at(time.Minute+20*time.Second), 13*time.Minute+50*time.Second)

	require.NoError(t, m.EndTimeout(at(time.Minute+20*time.Second)))
	assert.False(t, m.Timeout().Active())
	assertClock(t, m, at(time.Minute+20*time.Second), 13*time.Minute+50*time.Second)
}

func TestManager_StartStopSignals(t *testing.T) {
	m := NewManager(models.DefaultGameConfig())
	sub := m.RunningSignal().Subscribe()

	require.NoError(t, m.StartPlayNow(base))
	assert.True(t, <-sub)

	require.NoError(t, m.StopClock(at(time.Minute)))
	assert.False(t, <-sub)
	assertClock(t, m, at(5*time.Minute), 14*time.Minute)

	require.NoError(t, m.StartClock(at(5*time.Minute)))
	assert.True(t, <-sub)
	assert.True(t, m.RunningSignal().Last())
}

func TestManager_StartPlayNow(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	assert.ErrorIs(t, m.StartPlayNow(at(time.Minute)), ErrAlreadyInPlayPeriod)

	require.NoError(t, m.Update(at(15*time.Minute)))
	require.NoError(t, m.StartPlayNow(at(16*time.Minute)))
	assert.Equal(t, models.SecondHalf, m.CurrentPeriod())
	assertClock(t, m, at(16*time.Minute), 15*time.Minute)

	require.NoError(t, m.StartRefTimeout(at(17*time.Minute)))
	assert.ErrorIs(t, m.StartPlayNow(at(17*time.Minute)), ErrAlreadyInTimeout)
}

func TestManager_HaltClock(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())

	require.NoError(t, m.HaltClock(at(15*time.Minute+5*time.Second), false))
	assert.Equal(t, models.FirstHalf, m.CurrentPeriod())
	assert.False(t, m.ClockIsRunning())
	assertClock(t, m, at(20*time.Minute), time.Nanosecond)

	assert.ErrorIs(t, m.HaltClock(at(20*time.Minute), false), ErrInvalidState)

	require.NoError(t, m.StartClock(at(20*time.Minute)))
	require.NoError(t, m.Update(at(20*time.Minute+time.Millisecond)))
	assert.Equal(t, models.HalfTime, m.CurrentPeriod())
}

func TestManager_SetGameClockTime(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	assert.ErrorIs(t, m.SetGameClockTime(time.Minute), ErrClockIsRunning)

	require.NoError(t, m.StopClock(at(5*time.Minute)))
	require.NoError(t, m.StartPenalty(models.Black, 7, PenaltyOneMinute, at(5*time.Minute), models.InfractionFreeArm))
	require.NoError(t, m.StartPenalty(models.Black, 8, PenaltyTotalDismissal, at(5*time.Minute), models.InfractionUnknown))

	require.NoError(t, m.SetGameClockTime(12*time.Minute))
	pens := m.Penalties().Black
	require.Len(t, pens, 2)
	assert.Equal(t, 12*time.Minute, pens[0].StartTime)
	assert.Equal(t, 10*time.Minute, pens[1].StartTime, "dismissals keep their start")

	assert.ErrorIs(t, m.SetTimeoutClockTime(time.Second), ErrNotInTimeout)
}

func TestManager_ApplyNextGameStart(t *testing.T) {
	m := NewManager(models.DefaultGameConfig())
	assert.ErrorIs(t, m.ApplyNextGameStart(base), ErrNoNextGameInfo)

	start := at(20 * time.Minute)
	rules := models.TimingRules{
		HalfDuration:     10 * time.Minute,
		HalfTimeDuration: 2 * time.Minute,
		MinGameBreak:     3 * time.Minute,
	}
	m.SetNextGame(NextGameInfo{Number: 42, Timing: &rules, StartTime: &start})
	assert.Equal(t, uint32(42), m.NextGameNumber())

	require.NoError(t, m.ApplyNextGameStart(base))
	assertClock(t, m, base, 20*time.Minute)
	assert.Equal(t, 10*time.Minute, m.Config().HalfPlayDuration)

	require.NoError(t, m.Update(at(20*time.Minute)))
	assert.Equal(t, models.FirstHalf, m.CurrentPeriod())
	assert.Equal(t, uint32(42), m.GameNumber())
	assert.Equal(t, uint32(43), m.NextGameNumber())
	assertClock(t, m, at(20*time.Minute), 10*time.Minute)

	assert.ErrorIs(t, m.ApplyNextGameStart(at(21*time.Minute)), ErrGameInProgress)
	assert.ErrorIs(t, m.SetConfig(models.DefaultGameConfig()), ErrGameInProgress)
}

func TestManager_CalcTimeToNextGame(t *testing.T) {
	m := NewManager(models.DefaultGameConfig())
	assert.Equal(t, 15*time.Minute, m.calcTimeToNextGame(base, base))

	soon := at(time.Minute)
	m.SetNextGame(NextGameInfo{Number: 2, StartTime: &soon})
	assert.Equal(t, 4*time.Minute, m.calcTimeToNextGame(base, base), "never shorter than the minimum break")

	far := base.Add(10 * MaxTimeValue)
	m.SetNextGame(NextGameInfo{Number: 2, StartTime: &far})
	assert.Equal(t, MaxTimeValue, m.calcTimeToNextGame(base, base))
}

func TestManager_ResetGame(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	m.AddScore(models.Black, 1, at(time.Minute))
	require.NoError(t, m.AddWarning(models.White, nil, models.InfractionDelayOfGame, at(time.Minute)))

	m.ResetGame(at(2 * time.Minute))
	assert.Equal(t, models.BetweenGames, m.CurrentPeriod())
	assert.Equal(t, models.Scores{}, m.Scores())
	assert.Empty(t, m.Warnings().White)
	assert.True(t, m.ClockIsRunning())
	assertClock(t, m, at(2*time.Minute), 4*time.Minute)
}

func TestManager_AutoResetAfterPostGame(t *testing.T) {
	cfg := models.DefaultGameConfig()
	cfg.SingleHalf = true
	cfg.OvertimeAllowed = false
	cfg.SuddenDeathAllowed = false
	m := startedManager(t, cfg)
	m.AddScore(models.Black, 1, at(time.Minute))

	require.NoError(t, m.Update(at(15*time.Minute)))
	require.Equal(t, models.BetweenGames, m.CurrentPeriod())
	assertClock(t, m, at(15*time.Minute), 15*time.Minute)

	snap, ok := m.GenerateSnapshot(at(16 * time.Minute))
	require.True(t, ok)
	assert.True(t, snap.IsOldGame)
	assert.Equal(t, uint8(1), snap.Scores.Black)

	require.NoError(t, m.Update(at(17*time.Minute)))
	snap, ok = m.GenerateSnapshot(at(17 * time.Minute))
	require.True(t, ok)
	assert.False(t, snap.IsOldGame)
	assert.Equal(t, uint8(0), snap.Scores.Black)
}

func TestManager_InvalidNow(t *testing.T) {
	m := startedManager(t, models.DefaultGameConfig())
	assert.ErrorIs(t, m.Update(base.Add(-time.Second)), ErrInvalidNowValue)
}
