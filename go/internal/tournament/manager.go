package tournament

import (
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

// MaxTimeValue is the longest countdown the scoreboard can render.
const MaxTimeValue = 5_999_999 * time.Second

// recentGoalWindow is how much game time a goal stays highlighted for.
const recentGoalWindow = 10 * time.Second

type recentGoal struct {
	color  models.Color
	player uint8
	period models.GamePeriod
	clock  time.Duration
}

// NextGameInfo is the schedule entry for the upcoming game.
type NextGameInfo struct {
	Number    uint32              `json:"number"`
	Timing    *models.TimingRules `json:"timing,omitempty"`
	StartTime *time.Time          `json:"start_time,omitempty"`
}

// Manager is the game, clock and timeout state machine of one pool. It is not
// safe for concurrent use; share it through Shared.
type Manager struct {
	config        models.GameConfig
	gameNumber    uint32
	gameStartTime time.Time
	currentPeriod models.GamePeriod
	clockState    ClockState
	timeoutState  TimeoutState
	timeoutsUsed  models.BlackWhiteBundle[uint16]
	scores        models.Scores
	penalties     models.BlackWhiteBundle[[]Penalty]
	warnings      models.BlackWhiteBundle[[]InfractionDetails]
	fouls         models.OptColorBundle[[]InfractionDetails]
	hasReset      bool
	running       *RunningSignal

	nextGame           *NextGameInfo
	nextScheduledStart *time.Time
	resetGameTime      time.Duration
	recentGoal         *recentGoal
	pause              *confirmPause

	currentStats GameStats
	lastStats    *GameStats
	recorder     StatsRecorder
}

// NewManager returns a manager between games with the break clock stopped at
// the nominal break.
func NewManager(cfg models.GameConfig) *Manager {
	return &Manager{
		config:        cfg,
		currentPeriod: models.BetweenGames,
		clockState:    Stopped(cfg.NominalBreak),
		timeoutState:  noTimeout,
		hasReset:      true,
		running:       NewRunningSignal(),
		resetGameTime: cfg.NominalBreak,
		currentStats:  newGameStats(0),
	}
}

// SetStatsRecorder installs the sink notified of every stats mutation.
func (m *Manager) SetStatsRecorder(r StatsRecorder) {
	m.recorder = r
}

func (m *Manager) RunningSignal() *RunningSignal {
	return m.running
}

func (m *Manager) Config() models.GameConfig {
	return m.config
}

// SetConfig replaces the timing rules; only allowed between games.
func (m *Manager) SetConfig(cfg models.GameConfig) error {
	if m.currentPeriod != models.BetweenGames {
		return newError(CodeGameInProgress)
	}
	m.config = cfg
	return nil
}

func (m *Manager) CurrentPeriod() models.GamePeriod {
	return m.currentPeriod
}

func (m *Manager) GameNumber() uint32 {
	return m.gameNumber
}

func (m *Manager) SetGameNumber(n uint32) {
	log.Info().Uint32("game_number", n).Msg("Game number set")
	m.gameNumber = n
}

func (m *Manager) GameStartTime() time.Time {
	return m.gameStartTime
}

// Timeout returns the active timeout, with Kind TimeoutNone when there is none.
func (m *Manager) Timeout() TimeoutState {
	return m.timeoutState
}

func (m *Manager) TimeoutsUsed() models.BlackWhiteBundle[uint16] {
	return m.timeoutsUsed
}

// ClockIsRunning reports the state of the clock on display: the timeout clock
// during a timeout, the game clock otherwise.
func (m *Manager) ClockIsRunning() bool {
	if m.timeoutState.Active() {
		return m.timeoutState.Clock.IsRunning()
	}
	return m.clockState.IsRunning()
}

// GameClockTime is undefined when now precedes the clock's start or the
// countdown has passed zero.
func (m *Manager) GameClockTime(now time.Time) (time.Duration, bool) {
	return m.clockState.ClockTime(now)
}

func (m *Manager) TimeoutClockTime(now time.Time) (time.Duration, bool) {
	if !m.timeoutState.Active() {
		return 0, false
	}
	return m.timeoutState.Clock.ClockTime(now)
}

func (m *Manager) Scores() models.Scores {
	return m.scores
}

func (m *Manager) Penalties() models.BlackWhiteBundle[[]Penalty] {
	return models.BlackWhiteBundle[[]Penalty]{
		Black: slices.Clone(m.penalties.Black),
		White: slices.Clone(m.penalties.White),
	}
}

func (m *Manager) Warnings() models.BlackWhiteBundle[[]InfractionDetails] {
	return models.BlackWhiteBundle[[]InfractionDetails]{
		Black: slices.Clone(m.warnings.Black),
		White: slices.Clone(m.warnings.White),
	}
}

func (m *Manager) Fouls() models.OptColorBundle[[]InfractionDetails] {
	return models.OptColorBundle[[]InfractionDetails]{
		Black: slices.Clone(m.fouls.Black),
		White: slices.Clone(m.fouls.White),
		Equal: slices.Clone(m.fouls.Equal),
	}
}

// CurrentGameStats returns a copy of the stats being collected.
func (m *Manager) CurrentGameStats() GameStats {
	return m.currentStats.Clone()
}

// LastGameStats returns the stats of the most recently finished game.
func (m *Manager) LastGameStats() (GameStats, bool) {
	if m.lastStats == nil {
		return GameStats{}, false
	}
	return m.lastStats.Clone(), true
}

// IsPaused reports whether the manager is waiting for score confirmation.
func (m *Manager) IsPaused() bool {
	return m.pause != nil
}

// AddScore credits a goal. Scoring never ends a game by itself.
func (m *Manager) AddScore(c models.Color, player uint8, now time.Time) {
	m.logInfo(now).Str("color", c.String()).Uint8("player", player).Msg("Score")

	clock, ok := m.GameClockTime(now)
	ev := goalEvent(m.currentPeriod, clock, c, player, now)
	m.recordEvent(ev)

	if ok {
		m.recentGoal = &recentGoal{color: c, player: player, period: m.currentPeriod, clock: clock}
	} else {
		m.recentGoal = nil
	}

	scores := m.scores
	*scores.Ptr(c)++
	m.SetScores(scores, now)
}

func (m *Manager) SetScores(scores models.Scores, now time.Time) {
	m.scores = scores
	m.logInfo(now).Str("scores", models.FormatScores(scores)).Msg("Scores set")
}

// ResetGame abandons the current game and returns to the between-games break.
func (m *Manager) ResetGame(now time.Time) {
	m.logInfo(now).Msg("Resetting game")
	wasRunning := m.ClockIsRunning()

	m.currentPeriod = models.BetweenGames
	m.clockState = Stopped(m.config.MinimumBreak)
	m.timeoutState = noTimeout
	m.pause = nil
	m.reset()

	if wasRunning {
		m.startGameClock(now)
	}
}

func (m *Manager) reset() {
	m.scores = models.Scores{}
	m.penalties = models.BlackWhiteBundle[[]Penalty]{}
	m.warnings = models.BlackWhiteBundle[[]InfractionDetails]{}
	m.fouls = models.OptColorBundle[[]InfractionDetails]{}
	m.recentGoal = nil
	m.currentStats = newGameStats(m.NextGameNumber())
	m.hasReset = true
}

func (m *Manager) logInfo(now time.Time) *zerolog.Event {
	return log.Info().Str("status", m.StatusString(now))
}

func (m *Manager) logError(now time.Time) *zerolog.Event {
	return log.Error().Str("status", m.StatusString(now))
}

func (m *Manager) recordEvent(ev StatsEvent) {
	m.currentStats.Events = append(m.currentStats.Events, ev)
	if m.recorder != nil {
		m.recorder.EventRecorded(m.currentStats.GameNumber, ev)
	}
}

func (m *Manager) recordPenalty(p Penalty, c models.Color) {
	m.recordEvent(penaltyEvent(p, c))
}
