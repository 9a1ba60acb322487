package tournament

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

// Error details produced without an instant show a timeout clock as it was when
// it last started.
func (t TimeoutState) detail() models.TimeoutSnapshot {
	return t.Snapshot(t.Clock.start)
}

func (m *Manager) penaltyShotSecs() uint16 {
	return uint16(m.config.PenaltyShotDuration / time.Second)
}

func (m *Manager) CanStartTeamTimeout(c models.Color) error {
	switch m.timeoutState.Kind {
	case TimeoutTeam:
		if m.timeoutState.Color == c {
			return alreadyInTimeoutError(m.timeoutState.detail())
		}
	case TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		return alreadyInTimeoutError(m.timeoutState.detail())
	}

	switch m.currentPeriod {
	case models.FirstHalf, models.SecondHalf:
		if m.timeoutsUsed.Get(c) < m.config.TeamTimeoutsPerHalf {
			return nil
		}
		return colorError(CodeTooManyTeamTimeouts, c)
	default:
		return wrongPeriodError(models.TeamTimeout(c, 0), m.currentPeriod)
	}
}

func (m *Manager) CanStartRefTimeout() error {
	if m.timeoutState.Kind == TimeoutRef {
		return alreadyInTimeoutError(m.timeoutState.detail())
	}
	return nil
}

func (m *Manager) CanStartPenaltyShot() error {
	return m.canStartShot(models.TimeoutSnapshot{Kind: models.TimeoutPenaltyShot})
}

func (m *Manager) CanStartRugbyPenaltyShot() error {
	return m.canStartShot(models.TimeoutSnapshot{Kind: models.TimeoutPenaltyShot, Secs: m.penaltyShotSecs()})
}

func (m *Manager) canStartShot(ts models.TimeoutSnapshot) error {
	switch m.timeoutState.Kind {
	case TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		return alreadyInTimeoutError(m.timeoutState.detail())
	}
	if !m.currentPeriod.IsPlayPeriod() {
		return wrongPeriodError(ts, m.currentPeriod)
	}
	return nil
}

func (m *Manager) CanSwitchToTeamTimeout(c models.Color) error {
	if m.timeoutState.Kind != TimeoutTeam || m.timeoutState.Color == c {
		return colorError(CodeNotInTeamTimeout, c)
	}
	if m.timeoutsUsed.Get(c) >= m.config.TeamTimeoutsPerHalf {
		return colorError(CodeTooManyTeamTimeouts, c)
	}
	return nil
}

func (m *Manager) CanSwitchToRefTimeout() error {
	switch m.timeoutState.Kind {
	case TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		return nil
	default:
		return newError(CodeNotInPenaltyShot)
	}
}

func (m *Manager) CanSwitchToPenaltyShot() error {
	return m.canSwitchToShot(TimeoutPenaltyShot, models.TimeoutSnapshot{Kind: models.TimeoutPenaltyShot})
}

func (m *Manager) CanSwitchToRugbyPenaltyShot() error {
	return m.canSwitchToShot(TimeoutRugbyPenaltyShot, models.TimeoutSnapshot{Kind: models.TimeoutPenaltyShot, Secs: m.penaltyShotSecs()})
}

// Both shot forms can be reached from a ref timeout and from each other.
func (m *Manager) canSwitchToShot(target TimeoutKind, ts models.TimeoutSnapshot) error {
	if !m.currentPeriod.IsPlayPeriod() {
		return wrongPeriodError(ts, m.currentPeriod)
	}
	switch m.timeoutState.Kind {
	case TimeoutRef:
		return nil
	case TimeoutPenaltyShot, TimeoutRugbyPenaltyShot:
		if m.timeoutState.Kind != target {
			return nil
		}
	}
	return newError(CodeNotInRefTimeout)
}

// StartTeamTimeout stops the game clock and starts the team's countdown.
func (m *Manager) StartTeamTimeout(c models.Color, now time.Time) error {
	if err := m.CanStartTeamTimeout(c); err != nil {
		return err
	}
	m.logInfo(now).Str("color", c.String()).Msg("Starting a team timeout")

	cs := Stopped(m.config.TeamTimeoutDuration)
	if m.ClockIsRunning() {
		if _, err := m.stopGameClock(now); err != nil {
			return err
		}
		cs = CountingDown(now, m.config.TeamTimeoutDuration)
	}
	m.timeoutState = TimeoutState{Kind: TimeoutTeam, Color: c, Clock: cs}
	*m.timeoutsUsed.Ptr(c)++
	return nil
}

func (m *Manager) StartRefTimeout(now time.Time) error {
	if err := m.CanStartRefTimeout(); err != nil {
		return err
	}
	m.logInfo(now).Msg("Starting a ref timeout")
	return m.startCountUpTimeout(TimeoutRef, now)
}

func (m *Manager) StartPenaltyShot(now time.Time) error {
	if err := m.CanStartPenaltyShot(); err != nil {
		return err
	}
	m.logInfo(now).Msg("Starting a penalty shot")
	return m.startCountUpTimeout(TimeoutPenaltyShot, now)
}

func (m *Manager) startCountUpTimeout(kind TimeoutKind, now time.Time) error {
	cs := Stopped(0)
	if m.ClockIsRunning() {
		if _, err := m.stopGameClock(now); err != nil {
			return err
		}
		cs = CountingUp(now, 0)
	}
	m.timeoutState = TimeoutState{Kind: kind, Clock: cs}
	return nil
}

// StartRugbyPenaltyShot starts the shot countdown and leaves the game clock running.
func (m *Manager) StartRugbyPenaltyShot(now time.Time) error {
	if err := m.CanStartRugbyPenaltyShot(); err != nil {
		return err
	}
	m.logInfo(now).Msg("Starting a rugby penalty shot")

	cs := Stopped(m.config.PenaltyShotDuration)
	if m.ClockIsRunning() {
		cs = CountingDown(now, m.config.PenaltyShotDuration)
		m.startGameClock(now)
	}
	m.timeoutState = TimeoutState{Kind: TimeoutRugbyPenaltyShot, Clock: cs}
	return nil
}

// SwitchToTeamTimeout hands the running team timeout to the other team.
func (m *Manager) SwitchToTeamTimeout(c models.Color) error {
	if err := m.CanSwitchToTeamTimeout(c); err != nil {
		return err
	}
	log.Info().Str("color", c.String()).Msg("Switching to a team timeout")

	m.timeoutState.Color = c
	*m.timeoutsUsed.Ptr(c)++
	if other := m.timeoutsUsed.Ptr(c.Other()); *other > 0 {
		*other--
	}
	return nil
}

func (m *Manager) SwitchToRefTimeout(now time.Time) error {
	if err := m.CanSwitchToRefTimeout(); err != nil {
		return err
	}
	log.Info().Msg("Switching to a ref timeout")
	return m.switchToCountUp(TimeoutRef, now)
}

func (m *Manager) SwitchToPenaltyShot(now time.Time) error {
	if err := m.CanSwitchToPenaltyShot(); err != nil {
		return err
	}
	log.Info().Msg("Switching to a penalty shot")
	return m.switchToCountUp(TimeoutPenaltyShot, now)
}

// switchToCountUp keeps the elapsed time of a count-up clock. Leaving a rugby
// shot restarts the timeout clock from zero and stops the game clock it was
// running alongside.
func (m *Manager) switchToCountUp(kind TimeoutKind, now time.Time) error {
	cs := m.timeoutState.Clock
	if m.timeoutState.Kind == TimeoutRugbyPenaltyShot {
		if _, err := m.stopGameClock(now); err != nil {
			return err
		}
		cs = rebaseToCountUp(cs, now)
	}
	m.timeoutState = TimeoutState{Kind: kind, Clock: cs}
	return nil
}

// SwitchToRugbyPenaltyShot restarts the timeout clock as a shot countdown. A
// running shot runs alongside the game clock.
func (m *Manager) SwitchToRugbyPenaltyShot(now time.Time) error {
	if err := m.CanSwitchToRugbyPenaltyShot(); err != nil {
		return err
	}
	log.Info().Msg("Switching to a rugby penalty shot")

	cs := Stopped(m.config.PenaltyShotDuration)
	if m.timeoutState.Clock.IsRunning() {
		cs = CountingDown(now, m.config.PenaltyShotDuration)
		m.startGameClock(now)
	}
	m.timeoutState = TimeoutState{Kind: TimeoutRugbyPenaltyShot, Clock: cs}
	return nil
}

// rebaseToCountUp restarts a countdown shot clock as a count-up from zero.
func rebaseToCountUp(cs ClockState, now time.Time) ClockState {
	if cs.IsRunning() {
		return CountingUp(now, 0)
	}
	return Stopped(0)
}

// EndTimeout ends the active timeout and resumes the game clock where the
// timeout stopped it.
func (m *Manager) EndTimeout(now time.Time) error {
	ts := m.timeoutState
	switch ts.Kind {
	case TimeoutTeam:
		m.logInfo(now).Str("color", ts.Color.String()).Msg("Ending team timeout")
		switch {
		case ts.Clock.IsCountingDown():
			m.startGameClock(now)
		case ts.Clock.IsCountingUp():
			m.logError(now).Msg("Invalid timeout state: team timeout counting up")
			return newError(CodeInvalidState)
		}
		m.timeoutState = noTimeout
		return nil

	case TimeoutRef, TimeoutPenaltyShot:
		ev := m.logInfo(now)
		switch {
		case ts.Clock.IsCountingUp():
			m.startGameClock(now)
			if d, ok := ts.Clock.ClockTime(now); ok {
				ev = ev.Dur("duration", d)
			}
		case ts.Clock.IsStopped():
			ev = ev.Dur("duration", ts.Clock.base)
		default:
			m.logError(now).Msg("Invalid timeout state: ref timeout counting down")
			return newError(CodeInvalidState)
		}
		m.timeoutState = noTimeout
		ev.Msg("Ending ref timeout or penalty shot")
		return nil

	case TimeoutRugbyPenaltyShot:
		m.logInfo(now).Msg("Ending rugby penalty shot")
		switch {
		case ts.Clock.IsCountingDown():
			return m.handleRugbyShotEnd(now, ts.Clock)
		case ts.Clock.IsStopped():
			m.timeoutState = noTimeout
			return nil
		default:
			m.logError(now).Msg("Invalid timeout state: rugby penalty shot counting up")
			return newError(CodeInvalidState)
		}

	default:
		return newError(CodeNotInTimeout)
	}
}

// TimeoutEndWouldEndGame reports whether ending the active timeout now would
// finish the game.
func (m *Manager) TimeoutEndWouldEndGame(now time.Time) (bool, error) {
	ends, err := m.wouldEndGame(now)
	if err != nil || ends {
		return ends, err
	}

	if m.timeoutState.Kind != TimeoutRugbyPenaltyShot || !m.timeoutState.Clock.IsCountingDown() {
		return false, nil
	}
	switch {
	case m.clockState.IsStopped():
		return m.clockState.base == 0 && m.periodEndWouldEndGame(), nil
	case m.clockState.IsCountingDown():
		return m.checkTimeRemaining(now, m.clockState)
	default:
		return false, nil
	}
}
