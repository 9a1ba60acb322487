package tournament

import (
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

func (m *Manager) NextGame() (NextGameInfo, bool) {
	if m.nextGame == nil {
		return NextGameInfo{}, false
	}
	return *m.nextGame, true
}

func (m *Manager) SetNextGame(info NextGameInfo) {
	ev := log.Info().Uint32("number", info.Number).Bool("has_timing", info.Timing != nil)
	if info.StartTime != nil {
		ev = ev.Time("start_time", *info.StartTime)
	}
	ev.Msg("Next game info set")
	m.nextGame = &info
}

// ClearScheduledGameStart forgets the start time derived from the previous game.
func (m *Manager) ClearScheduledGameStart() {
	m.nextScheduledStart = nil
}

// NextGameNumber is the scheduled number while waiting for a game that has
// schedule info, and the current number plus one otherwise.
func (m *Manager) NextGameNumber() uint32 {
	if m.currentPeriod == models.BetweenGames && m.nextGame != nil {
		return m.nextGame.Number
	}
	return m.gameNumber + 1
}

// calcTimeToNextGame returns the break to count down from the instant from. The
// scheduled start comes from the next game info, then from the running
// schedule, then falls back to the nominal break after now.
func (m *Manager) calcTimeToNextGame(now, from time.Time) time.Duration {
	var scheduled time.Time
	switch {
	case m.nextGame != nil && m.nextGame.StartTime != nil:
		scheduled = *m.nextGame.StartTime
	case m.nextScheduledStart != nil:
		scheduled = *m.nextScheduledStart
	default:
		scheduled = now.Add(m.config.NominalBreak)
	}

	remaining := m.config.MinimumBreak
	if untilStart := scheduled.Sub(from); untilStart > remaining {
		remaining = untilStart
	}
	return min(remaining, MaxTimeValue)
}

// ApplyNextGameStart takes the timing of the next game and re-arms the break
// countdown against its scheduled start.
func (m *Manager) ApplyNextGameStart(now time.Time) error {
	if m.currentPeriod != models.BetweenGames {
		return newError(CodeGameInProgress)
	}
	if m.nextGame == nil {
		return newError(CodeNoNextGameInfo)
	}
	if m.nextGame.Timing != nil {
		m.config = m.nextGame.Timing.GameConfig()
	}

	remaining := m.calcTimeToNextGame(now, now)
	m.logInfo(now).Dur("time_to_start", remaining).Msg("Setting between games time from schedule info")
	m.clockState = CountingDown(now, remaining)
	return nil
}

// endGame finishes the game at the instant the game clock ran out, or at now
// when it was not counting down.
func (m *Manager) endGame(now time.Time) {
	gameEnd := now
	if m.clockState.IsCountingDown() {
		gameEnd = m.clockState.end()
	}
	m.endGameAt(now, gameEnd)
}

func (m *Manager) endGameAt(now, gameEnd time.Time) {
	wasRunning := m.ClockIsRunning()

	m.currentPeriod = models.BetweenGames
	m.logInfo(now).
		Uint32("game_number", m.gameNumber).
		Str("scores", models.FormatScores(m.scores)).
		Msg("Ending game")

	for _, c := range models.Colors() {
		for _, p := range m.penalties.Get(c) {
			m.recordPenalty(p, c)
		}
	}

	end := now.UTC()
	m.currentStats.EndTime = &end
	last := m.currentStats.Clone()
	m.lastStats = &last
	if m.recorder != nil {
		m.recorder.GameEnded(last.Clone())
	}

	remaining := m.calcTimeToNextGame(now, gameEnd)
	m.logInfo(now).Dur("time_to_next_game", remaining).Msg("Entering between games")
	m.clockState = CountingDown(gameEnd, remaining)

	if !wasRunning {
		m.running.Send(true)
	}

	m.resetGameTime = max(remaining-m.config.PostGameDuration, 0)
	m.logInfo(now).Dur("reset_at", m.resetGameTime).Msg("Will reset game")
}

func (m *Manager) startGame(at time.Time) {
	if !m.hasReset {
		log.Info().Msg("Resetting game")
		m.reset()
	}

	m.gameNumber = m.NextGameNumber()
	if m.nextGame != nil {
		if m.nextGame.Timing != nil {
			m.config = m.nextGame.Timing.GameConfig()
		}
		m.nextGame = nil
	}

	m.currentStats.GameNumber = m.gameNumber
	start := at.UTC()
	m.currentStats.StartTime = &start
	if m.recorder != nil {
		m.recorder.GameStarted(m.gameNumber, start)
	}

	m.currentPeriod = models.FirstHalf
	m.gameStartTime = at
	m.timeoutsUsed = models.BlackWhiteBundle[uint16]{}
	m.hasReset = false
	m.logInfo(at).Uint32("game_number", m.gameNumber).Msg("Entering first half")

	sched := at
	if m.nextScheduledStart != nil {
		sched = *m.nextScheduledStart
	}
	next := sched.Add(m.gameLength() + m.config.NominalBreak)
	m.nextScheduledStart = &next
}

// gameLength is the nominal regulation length including half time.
func (m *Manager) gameLength() time.Duration {
	if m.config.SingleHalf {
		return m.config.HalfPlayDuration
	}
	return 2*m.config.HalfPlayDuration + m.config.HalfTimeDuration
}
