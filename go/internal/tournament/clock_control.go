package tournament

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

// startGameClock starts a stopped game clock, counting up in sudden death. It
// reports whether the clock was stopped.
func (m *Manager) startGameClock(now time.Time) bool {
	if !m.clockState.IsStopped() {
		return false
	}
	m.logInfo(now).Msg("Starting the game clock")
	if m.currentPeriod == models.SuddenDeath {
		m.clockState = CountingUp(now, m.clockState.base)
	} else {
		m.clockState = CountingDown(now, m.clockState.base)
	}
	return true
}

// stopGameClock freezes a running game clock at its value at now. It reports
// whether the clock was running.
func (m *Manager) stopGameClock(now time.Time) (bool, error) {
	if m.clockState.IsStopped() {
		return false, nil
	}
	clock, ok := m.clockState.ClockTime(now)
	if !ok {
		return false, newError(CodeNeedsUpdate)
	}
	m.logInfo(now).Msg("Stopping the game clock")
	m.clockState = Stopped(clock)
	return true, nil
}

// StartClock starts whichever clock is on display. A pending score
// confirmation is committed first.
func (m *Manager) StartClock(now time.Time) error {
	if m.pause != nil {
		return m.EndConfirmPause(now)
	}

	started := false
	ts := &m.timeoutState
	switch ts.Kind {
	case TimeoutNone:
		started = m.startGameClock(now)
	case TimeoutTeam:
		if ts.Clock.IsStopped() {
			m.logInfo(now).Msg("Starting the timeout clock")
			ts.Clock = CountingDown(now, ts.Clock.base)
			started = true
		}
	case TimeoutRugbyPenaltyShot:
		if ts.Clock.IsStopped() {
			m.logInfo(now).Msg("Starting the penalty shot clock")
			ts.Clock = CountingDown(now, ts.Clock.base)
			if !m.startGameClock(now) {
				log.Warn().Msg("Starting the penalty shot clock, but the game clock was already running")
			}
			started = true
		}
	case TimeoutRef, TimeoutPenaltyShot:
		if ts.Clock.IsStopped() {
			m.logInfo(now).Msg("Starting the timeout clock")
			ts.Clock = CountingUp(now, ts.Clock.base)
			started = true
		}
	}

	if started {
		m.running.Send(true)
	}
	return nil
}

// StopClock stops whichever clock is on display.
func (m *Manager) StopClock(now time.Time) error {
	stopped := false
	ts := &m.timeoutState
	switch ts.Kind {
	case TimeoutNone:
		var err error
		if stopped, err = m.stopGameClock(now); err != nil {
			return err
		}
	case TimeoutTeam, TimeoutRef, TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		if ts.Clock.IsRunning() {
			clock, ok := ts.Clock.ClockTime(now)
			if !ok {
				return newError(CodeNeedsUpdate)
			}
			m.logInfo(now).Msg("Stopping the timeout clock")
			ts.Clock = Stopped(clock)
			if ts.Kind == TimeoutRugbyPenaltyShot {
				wasRunning, err := m.stopGameClock(now)
				if err != nil {
					return err
				}
				if !wasRunning {
					log.Warn().Msg("Stopping the penalty shot clock, but the game clock was not running")
				}
			}
			stopped = true
		}
	}

	if stopped {
		m.running.Send(false)
	}
	return nil
}

// HaltClock stops the game clock where it is, even past zero, so the period
// cannot end. An expired clock is held at 1ns. Rugby shots are always ended.
func (m *Manager) HaltClock(now time.Time, endTimeout bool) error {
	switch m.timeoutState.Kind {
	case TimeoutNone:
	case TimeoutRugbyPenaltyShot:
		endTimeout = true
		m.timeoutState = noTimeout
	default:
		if !endTimeout {
			return alreadyInTimeoutError(m.timeoutState.Snapshot(now))
		}
		m.timeoutState = noTimeout
	}

	switch {
	case m.clockState.IsCountingDown():
		clock, ok := m.clockState.ClockTime(now)
		if ok {
			m.logInfo(now).Msg("Halting the game clock")
		} else {
			if now.Before(m.clockState.start) {
				return newError(CodeInvalidNowValue)
			}
			lost := now.Sub(m.clockState.start) - m.clockState.base
			m.logInfo(now).Dur("lost_time", lost).Msg("Halting the game clock")
			clock = time.Nanosecond
		}
		m.clockState = Stopped(clock)
		m.running.Send(false)
		return nil
	case endTimeout && m.clockState.IsStopped():
		m.clockState = Stopped(time.Nanosecond)
		m.running.Send(false)
		return nil
	default:
		return newError(CodeInvalidState)
	}
}

// StartPlayNow skips the rest of a break and starts the next play period.
func (m *Manager) StartPlayNow(now time.Time) error {
	if m.timeoutState.Active() {
		return alreadyInTimeoutError(m.timeoutState.Snapshot(now))
	}
	wasRunning := m.ClockIsRunning()

	needCull := true
	switch m.currentPeriod {
	case models.FirstHalf, models.SecondHalf, models.OvertimeFirstHalf,
		models.OvertimeSecondHalf, models.SuddenDeath:
		return newError(CodeAlreadyInPlayPeriod)
	case models.BetweenGames:
		m.pause = nil
		m.startGame(now)
		needCull = false
	case models.HalfTime:
		m.enterSecondHalf(now)
	case models.PreOvertime:
		m.logInfo(now).Msg("Entering overtime first half")
		m.currentPeriod = models.OvertimeFirstHalf
	case models.OvertimeHalfTime:
		m.logInfo(now).Msg("Entering overtime second half")
		m.currentPeriod = models.OvertimeSecondHalf
	case models.PreSuddenDeath:
		m.logInfo(now).Msg("Entering sudden death")
		m.currentPeriod = models.SuddenDeath
	}

	m.armPeriodClock(now)
	if needCull {
		if err := m.cullPenalties(now); err != nil {
			return err
		}
	}
	m.logInfo(now).Str("period", m.currentPeriod.String()).Msg("Period manually started by refs")

	if !wasRunning {
		m.running.Send(true)
	}
	return nil
}

// SetGameClockTime sets a stopped game clock. Penalties that would have more
// than their full length left restart at the new clock reading.
func (m *Manager) SetGameClockTime(clock time.Duration) error {
	if m.ClockIsRunning() {
		return newError(CodeClockIsRunning)
	}
	log.Info().Str("clock", formatClock(clock)).Msg("Setting game clock")

	for _, c := range models.Colors() {
		pens := m.penalties.Get(c)
		for i := range pens {
			pen := &pens[i]
			full, ok := pen.Kind.Duration()
			if !ok {
				continue
			}
			rem, err := pen.TimeRemaining(m.currentPeriod, clock, m.config)
			if err != nil {
				return penaltyError(err)
			}
			if rem > full {
				pen.StartPeriod = m.currentPeriod
				pen.StartTime = clock
			}
		}
	}

	m.clockState = Stopped(clock)
	return nil
}

// SetTimeoutClockTime sets the stopped clock of the active timeout.
func (m *Manager) SetTimeoutClockTime(clock time.Duration) error {
	if m.ClockIsRunning() {
		return newError(CodeClockIsRunning)
	}
	if !m.timeoutState.Active() {
		return newError(CodeNotInTimeout)
	}
	log.Info().Str("clock", formatClock(clock)).Msg("Setting timeout clock")
	m.timeoutState.Clock = Stopped(clock)
	return nil
}
