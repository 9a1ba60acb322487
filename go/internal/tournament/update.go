package tournament

import (
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

// Update advances the period, game clock and timeout clocks to now. It makes
// at most one period transition per call; instants must not go backwards.
func (m *Manager) Update(now time.Time) error {
	if m.pause != nil {
		if !now.Before(m.pause.deadline) {
			return m.EndConfirmPause(m.pause.deadline)
		}
		return nil
	}

	switch {
	case m.clockState.IsCountingDown():
		return m.updateCountdown(now)
	case m.clockState.IsCountingUp() && m.currentPeriod == models.SuddenDeath:
		if now.Before(m.clockState.start) {
			return newError(CodeInvalidNowValue)
		}
		if models.ScoresDiffer(m.scores) {
			m.endGame(now)
			return nil
		}
	}
	return m.updateTimeout(now)
}

func (m *Manager) updateCountdown(now time.Time) error {
	cs := m.clockState
	if now.Before(cs.start) {
		return newError(CodeInvalidNowValue)
	}
	elapsed := now.Sub(cs.start)

	if !m.hasReset && m.currentPeriod == models.BetweenGames {
		if clock, _ := m.GameClockTime(now); clock <= m.resetGameTime {
			m.logInfo(now).Msg("Resetting game")
			m.reset()
		}
	}

	unfinishedShot := false
	if ts := m.timeoutState; ts.Kind == TimeoutRugbyPenaltyShot && ts.Clock.IsCountingDown() {
		if now.Before(ts.Clock.start) {
			return newError(CodeInvalidNowValue)
		}
		if now.Sub(ts.Clock.start) < ts.Clock.base {
			unfinishedShot = true
		} else if err := m.handleRugbyShotEnd(now, ts.Clock); err != nil {
			return err
		}
	}

	if elapsed < cs.base {
		return nil
	}
	if unfinishedShot && m.currentPeriod.IsPlayPeriod() && m.currentPeriod != models.SuddenDeath {
		m.logInfo(now).Str("period", m.currentPeriod.String()).Msg("Extending period for unfinished penalty shot")
		m.clockState = Stopped(0)
		return nil
	}
	return m.periodExpired(now, cs.end())
}

// periodExpired runs the transition out of the current period, whose countdown
// reached zero at periodEnd. The next period's clock starts at periodEnd.
func (m *Manager) periodExpired(now, periodEnd time.Time) error {
	needCull := false
	switch m.currentPeriod {
	case models.BetweenGames:
		m.startGame(periodEnd)
	case models.FirstHalf:
		m.endFirstHalf(now)
	case models.HalfTime:
		m.enterSecondHalf(now)
		needCull = true
	case models.SecondHalf:
		m.endRegulation(now)
	case models.PreOvertime:
		m.logInfo(now).Msg("Entering overtime first half")
		m.currentPeriod = models.OvertimeFirstHalf
		needCull = true
	case models.OvertimeFirstHalf:
		m.logInfo(now).Msg("Entering overtime half time")
		m.currentPeriod = models.OvertimeHalfTime
	case models.OvertimeHalfTime:
		m.logInfo(now).Msg("Entering overtime second half")
		m.currentPeriod = models.OvertimeSecondHalf
		needCull = true
	case models.OvertimeSecondHalf:
		m.endOvertime(now)
	case models.PreSuddenDeath:
		m.logInfo(now).Msg("Entering sudden death")
		m.currentPeriod = models.SuddenDeath
		needCull = true
	case models.SuddenDeath:
		m.logError(now).Msg("Impossible state: in sudden death with clock counting down")
		return newError(CodeInvalidState)
	}

	if m.currentPeriod == models.BetweenGames {
		return nil
	}
	m.armPeriodClock(periodEnd)
	if needCull {
		return m.cullPenalties(now)
	}
	return nil
}

// armPeriodClock starts the current period's clock at start.
func (m *Manager) armPeriodClock(start time.Time) {
	if m.currentPeriod == models.SuddenDeath {
		m.clockState = CountingUp(start, 0)
		return
	}
	d, _ := m.currentPeriod.Duration(m.config)
	m.clockState = CountingDown(start, d)
}

func (m *Manager) enterSecondHalf(now time.Time) {
	m.logInfo(now).Msg("Entering second half")
	m.currentPeriod = models.SecondHalf
	if m.config.TimeoutsCountedPerHalf {
		m.timeoutsUsed = models.BlackWhiteBundle[uint16]{}
	}
}

func (m *Manager) endFirstHalf(now time.Time) {
	if m.config.SingleHalf {
		m.endRegulation(now)
		return
	}
	m.logInfo(now).Msg("Entering half time")
	m.currentPeriod = models.HalfTime
}

func (m *Manager) endRegulation(now time.Time) {
	switch {
	case models.ScoresDiffer(m.scores) || (!m.config.OvertimeAllowed && !m.config.SuddenDeathAllowed):
		m.endGame(now)
	case m.config.OvertimeAllowed:
		m.logInfo(now).Str("scores", models.FormatScores(m.scores)).Msg("Entering pre-overtime")
		m.currentPeriod = models.PreOvertime
	default:
		m.logInfo(now).Str("scores", models.FormatScores(m.scores)).Msg("Entering pre-sudden death")
		m.currentPeriod = models.PreSuddenDeath
	}
}

func (m *Manager) endOvertime(now time.Time) {
	if models.ScoresDiffer(m.scores) || !m.config.SuddenDeathAllowed {
		m.endGame(now)
		return
	}
	m.logInfo(now).Str("scores", models.FormatScores(m.scores)).Msg("Entering pre-sudden death")
	m.currentPeriod = models.PreSuddenDeath
}

// isFinalHalf reports whether the game can end when p runs out.
func (m *Manager) isFinalHalf(p models.GamePeriod) bool {
	switch p {
	case models.SecondHalf, models.OvertimeSecondHalf:
		return true
	case models.FirstHalf:
		return m.config.SingleHalf
	default:
		return false
	}
}

// periodEndWouldEndGame reports whether the current period running out with
// the current scores finishes the game.
func (m *Manager) periodEndWouldEndGame() bool {
	if !m.isFinalHalf(m.currentPeriod) {
		return false
	}
	if models.ScoresDiffer(m.scores) {
		return true
	}
	if m.currentPeriod == models.OvertimeSecondHalf {
		return !m.config.SuddenDeathAllowed
	}
	return !m.config.OvertimeAllowed && !m.config.SuddenDeathAllowed
}

func (m *Manager) checkTimeRemaining(now time.Time, cs ClockState) (bool, error) {
	if now.Before(cs.start) {
		return false, newError(CodeInvalidNowValue)
	}
	return now.Sub(cs.start) >= cs.base && m.periodEndWouldEndGame(), nil
}

// wouldEndGame reports whether the game clock has run out in a period whose end
// finishes the game, including a finished rugby shot holding a zeroed clock.
func (m *Manager) wouldEndGame(now time.Time) (bool, error) {
	if ts := m.timeoutState; ts.Kind == TimeoutRugbyPenaltyShot && ts.Clock.IsCountingDown() {
		done, err := m.checkTimeRemaining(now, ts.Clock)
		if err != nil {
			return false, err
		}
		if !done {
			return false, nil
		}
		if m.clockState.IsStopped() && m.clockState.base == 0 {
			return true, nil
		}
	}

	if m.clockState.IsCountingDown() {
		return m.checkTimeRemaining(now, m.clockState)
	}
	return false, nil
}

func (m *Manager) updateTimeout(now time.Time) error {
	ts := m.timeoutState
	if !ts.Clock.IsCountingDown() || now.Sub(ts.Clock.start) < ts.Clock.base {
		return nil
	}

	switch ts.Kind {
	case TimeoutTeam:
		if !m.clockState.IsStopped() {
			m.logError(now).Str("color", ts.Color.String()).Msg("Cannot end team timeout because the game clock isn't stopped")
			return newError(CodeInvalidState)
		}
		m.logInfo(now).Str("color", ts.Color.String()).Msg("Ending team timeout")
		m.clockState = CountingDown(ts.Clock.end(), m.clockState.base)
		m.timeoutState = noTimeout
	case TimeoutRugbyPenaltyShot:
		return m.handleRugbyShotEnd(now, ts.Clock)
	}
	return nil
}

// handleRugbyShotEnd clears a rugby shot whose countdown shot is over. A period
// held open for the shot ends now, and a stopped game clock resumes from when
// the shot finished.
func (m *Manager) handleRugbyShotEnd(now time.Time, shot ClockState) error {
	m.logInfo(now).Msg("Handling end of rugby penalty shot")

	if m.clockState.IsStopped() {
		resumeAt := shot.end()
		if now.Before(resumeAt) {
			resumeAt = now
		}

		if m.clockState.base == 0 {
			switch m.currentPeriod {
			case models.FirstHalf:
				m.endFirstHalf(now)
			case models.SecondHalf:
				m.endRegulation(now)
			case models.OvertimeFirstHalf:
				m.logInfo(now).Msg("Entering overtime half time")
				m.currentPeriod = models.OvertimeHalfTime
			case models.OvertimeSecondHalf:
				m.endOvertime(now)
			case models.SuddenDeath:
				m.logError(now).Msg("Penalty shot ended during sudden death with clock stopped")
				return newError(CodeInvalidState)
			default:
				m.logError(now).Msg("Impossible state: penalty shot ended during non-play period")
				return newError(CodeInvalidState)
			}
			if m.currentPeriod != models.BetweenGames {
				m.armPeriodClock(resumeAt)
			}
		} else if m.currentPeriod == models.SuddenDeath {
			m.clockState = CountingUp(resumeAt, m.clockState.base)
		} else {
			m.clockState = CountingDown(resumeAt, m.clockState.base)
		}
	}

	m.timeoutState = noTimeout
	return nil
}
