package tournament

import (
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// confirmPause freezes the game at a possible end so the referees can check the
// scores before the result is committed.
type confirmPause struct {
	started   time.Time
	deadline  time.Time
	periodEnd time.Time
	period    models.GamePeriod
	dummy     time.Duration

	// sudden death resumes from these if the game goes on
	clock   ClockState
	timeout TimeoutState
}

// CouldEndGame reports whether the game is at a point where it would end with
// the current scores.
func (m *Manager) CouldEndGame(now time.Time) (bool, error) {
	if m.currentPeriod == models.SuddenDeath && models.ScoresDiffer(m.scores) {
		return true, nil
	}
	return m.wouldEndGame(now)
}

// breakAfter is the length of the break the game enters if the current period
// ends now.
func (m *Manager) breakAfter() time.Duration {
	if m.currentPeriod == models.SuddenDeath || m.periodEndWouldEndGame() {
		return m.config.MinimumBreak
	}
	if m.currentPeriod == models.OvertimeSecondHalf || !m.config.OvertimeAllowed {
		return m.config.PreSuddenDeathDuration
	}
	return m.config.PreOvertimeBreak
}

// Advance brings the game up to now. At a point where the game could end it
// pauses for score confirmation instead of updating.
func (m *Manager) Advance(now time.Time) error {
	if m.pause != nil {
		return m.Update(now)
	}
	could, err := m.CouldEndGame(now)
	if err != nil {
		return err
	}
	if could {
		return m.PauseForConfirm(now)
	}
	return m.Update(now)
}

// PauseForConfirm stops the clock at a possible game end. The pause ends on its
// own at the deadline, half of the break that would follow.
func (m *Manager) PauseForConfirm(now time.Time) error {
	if m.pause != nil {
		return newError(CodeAlreadyPaused)
	}
	could, err := m.CouldEndGame(now)
	if err != nil {
		return err
	}
	if !could {
		return newError(CodeInvalidState)
	}

	wasRunning := m.ClockIsRunning()
	p := &confirmPause{
		started:  now,
		deadline: now.Add(m.breakAfter() / 2),
		period:   m.currentPeriod,
	}

	switch {
	case m.currentPeriod == models.SuddenDeath:
		clock, ok := m.GameClockTime(now)
		if !ok {
			return newError(CodeNeedsUpdate)
		}
		p.periodEnd = now
		p.dummy = clock
		p.clock = m.clockState
		p.timeout = m.timeoutState
	case m.clockState.IsCountingDown():
		p.periodEnd = m.clockState.end()
	default:
		// a rugby shot held the period open past zero
		p.periodEnd = now
		if ts := m.timeoutState; ts.Kind == TimeoutRugbyPenaltyShot && ts.Clock.IsCountingDown() && ts.Clock.end().Before(now) {
			p.periodEnd = ts.Clock.end()
		}
	}

	m.timeoutState = noTimeout
	m.clockState = Stopped(p.dummy)
	m.pause = p
	m.logInfo(now).Time("deadline", p.deadline).Msg("Paused for score confirmation")

	if wasRunning {
		m.running.Send(false)
	}
	return nil
}

// EndConfirmPause commits the transition the pause held back, using the scores
// as they are now. Time spent paused counts against the following break. A
// sudden death that goes on resumes its clocks as they were, without the
// paused time.
func (m *Manager) EndConfirmPause(now time.Time) error {
	p := m.pause
	if p == nil {
		return newError(CodeNotPaused)
	}
	m.pause = nil
	m.logInfo(now).Dur("paused_for", now.Sub(p.started)).Msg("Ending score confirmation pause")

	if p.period == models.SuddenDeath {
		if models.ScoresDiffer(m.scores) {
			m.endGameAt(now, p.periodEnd)
			m.running.Send(true)
			return nil
		}
		held := now.Sub(p.started)
		m.clockState = p.clock.shifted(held)
		m.timeoutState = p.timeout
		m.timeoutState.Clock = p.timeout.Clock.shifted(held)
		if m.ClockIsRunning() {
			m.running.Send(true)
		}
		return nil
	}

	m.clockState = CountingDown(p.periodEnd, 0)
	if err := m.periodExpired(now, p.periodEnd); err != nil {
		return err
	}
	m.running.Send(true)
	return nil
}
