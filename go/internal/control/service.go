package control

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

const ControlServiceName = "refbox.v1.ControlService"

const (
	GetSnapshotProcedure      = "/refbox.v1.ControlService/GetSnapshot"
	AddScoreProcedure         = "/refbox.v1.ControlService/AddScore"
	SetScoresProcedure        = "/refbox.v1.ControlService/SetScores"
	StartTimeoutProcedure     = "/refbox.v1.ControlService/StartTimeout"
	SwitchTimeoutProcedure    = "/refbox.v1.ControlService/SwitchTimeout"
	EndTimeoutProcedure       = "/refbox.v1.ControlService/EndTimeout"
	StartClockProcedure       = "/refbox.v1.ControlService/StartClock"
	StopClockProcedure        = "/refbox.v1.ControlService/StopClock"
	StartPlayNowProcedure     = "/refbox.v1.ControlService/StartPlayNow"
	ResetGameProcedure        = "/refbox.v1.ControlService/ResetGame"
	ConfirmScoresProcedure    = "/refbox.v1.ControlService/ConfirmScores"
	SetGameClockProcedure     = "/refbox.v1.ControlService/SetGameClock"
	SetConfigProcedure        = "/refbox.v1.ControlService/SetConfig"
	SetNextGameProcedure      = "/refbox.v1.ControlService/SetNextGame"
	GetLastGameStatsProcedure = "/refbox.v1.ControlService/GetLastGameStats"
	GetGameStatsProcedure     = "/refbox.v1.ControlService/GetGameStats"
)

// Clock is the time source of the API. Production uses clockwork's real clock.
type Clock interface {
	Now() time.Time
}

// Waker is told about every change so the next snapshot goes out at once.
type Waker interface {
	Wake()
}

// StatsStore looks up archived games.
type StatsStore interface {
	LatestGameStats(ctx context.Context, gameNumber uint32) (tournament.GameStats, error)
}

// ControlService is the timekeeper's API over the shared manager.
type ControlService struct {
	shared *tournament.Shared
	clock  Clock
	waker  Waker
	stats  StatsStore
}

// NewControlService creates the control API. stats may be nil when the stats
// pipeline is disabled.
func NewControlService(shared *tournament.Shared, clock Clock, waker Waker, stats StatsStore) *ControlService {
	return &ControlService{
		shared: shared,
		clock:  clock,
		waker:  waker,
		stats:  stats,
	}
}

// Handler returns the mount path and handler of the service.
func (s *ControlService) Handler(opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{}), connect.WithInterceptors(logInterceptor())}, opts...)

	mux := http.NewServeMux()
	mux.Handle(GetSnapshotProcedure, connect.NewUnaryHandler(GetSnapshotProcedure, s.GetSnapshot, opts...))
	mux.Handle(AddScoreProcedure, connect.NewUnaryHandler(AddScoreProcedure, s.AddScore, opts...))
	mux.Handle(SetScoresProcedure, connect.NewUnaryHandler(SetScoresProcedure, s.SetScores, opts...))
	mux.Handle(StartTimeoutProcedure, connect.NewUnaryHandler(StartTimeoutProcedure, s.StartTimeout, opts...))
	mux.Handle(SwitchTimeoutProcedure, connect.NewUnaryHandler(SwitchTimeoutProcedure, s.SwitchTimeout, opts...))
	mux.Handle(EndTimeoutProcedure, connect.NewUnaryHandler(EndTimeoutProcedure, s.EndTimeout, opts...))
	mux.Handle(StartClockProcedure, connect.NewUnaryHandler(StartClockProcedure, s.StartClock, opts...))
	mux.Handle(StopClockProcedure, connect.NewUnaryHandler(StopClockProcedure, s.StopClock, opts...))
	mux.Handle(StartPlayNowProcedure, connect.NewUnaryHandler(StartPlayNowProcedure, s.StartPlayNow, opts...))
	mux.Handle(ResetGameProcedure, connect.NewUnaryHandler(ResetGameProcedure, s.ResetGame, opts...))
	mux.Handle(ConfirmScoresProcedure, connect.NewUnaryHandler(ConfirmScoresProcedure, s.ConfirmScores, opts...))
	mux.Handle(SetGameClockProcedure, connect.NewUnaryHandler(SetGameClockProcedure, s.SetGameClock, opts...))
	mux.Handle(SetConfigProcedure, connect.NewUnaryHandler(SetConfigProcedure, s.SetConfig, opts...))
	mux.Handle(SetNextGameProcedure, connect.NewUnaryHandler(SetNextGameProcedure, s.SetNextGame, opts...))
	mux.Handle(GetLastGameStatsProcedure, connect.NewUnaryHandler(GetLastGameStatsProcedure, s.GetLastGameStats, opts...))
	mux.Handle(GetGameStatsProcedure, connect.NewUnaryHandler(GetGameStatsProcedure, s.GetGameStats, opts...))
	return "/" + ControlServiceName + "/", mux
}

// mutate brings the game up to now, applies fn and returns the resulting
// snapshot. The orchestrator is woken only when fn succeeds.
func (s *ControlService) mutate(fn func(m *tournament.Manager, now time.Time) error) (*connect.Response[SnapshotResponse], error) {
	now := s.clock.Now()

	var snap *models.GameSnapshot
	err := s.shared.With(func(m *tournament.Manager) error {
		if err := m.Advance(now); err != nil {
			return err
		}
		if err := fn(m, now); err != nil {
			return err
		}
		var ok bool
		if snap, ok = m.GenerateSnapshot(now); !ok {
			return errors.New("failed to generate snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, toConnectError(err)
	}

	s.waker.Wake()
	return connect.NewResponse(&SnapshotResponse{Snapshot: snap}), nil
}

func (s *ControlService) GetSnapshot(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	now := s.clock.Now()

	var snap *models.GameSnapshot
	err := s.shared.With(func(m *tournament.Manager) error {
		var ok bool
		if snap, ok = m.GenerateSnapshot(now); !ok {
			return errors.New("failed to generate snapshot")
		}
		return nil
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&SnapshotResponse{Snapshot: snap}), nil
}

func (s *ControlService) AddScore(ctx context.Context, req *connect.Request[AddScoreRequest]) (*connect.Response[SnapshotResponse], error) {
	c, err := parseColor(string(req.Msg.Color))
	if err != nil {
		return nil, toConnectError(err)
	}
	return s.mutate(func(m *tournament.Manager, now time.Time) error {
		m.AddScore(c, req.Msg.Player, now)
		return nil
	})
}

func (s *ControlService) SetScores(ctx context.Context, req *connect.Request[SetScoresRequest]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate(func(m *tournament.Manager, now time.Time) error {
		m.SetScores(req.Msg.Scores, now)
		return nil
	})
}

func (s *ControlService) StartTimeout(ctx context.Context, req *connect.Request[TimeoutRequest]) (*connect.Response[SnapshotResponse], error) {
	kind := req.Msg.Kind
	if c, ok := kind.color(); ok {
		return s.mutate(func(m *tournament.Manager, now time.Time) error {
			return m.StartTeamTimeout(c, now)
		})
	}

	var start func(m *tournament.Manager, now time.Time) error
	switch kind {
	case TimeoutRef:
		start = (*tournament.Manager).StartRefTimeout
	case TimeoutPenaltyShot:
		start = (*tournament.Manager).StartPenaltyShot
	case TimeoutRugbyPenaltyShot:
		start = (*tournament.Manager).StartRugbyPenaltyShot
	default:
		return nil, toConnectError(badRequest("unknown timeout kind %q", kind))
	}
	return s.mutate(start)
}

func (s *ControlService) SwitchTimeout(ctx context.Context, req *connect.Request[TimeoutRequest]) (*connect.Response[SnapshotResponse], error) {
	kind := req.Msg.Kind
	if c, ok := kind.color(); ok {
		return s.mutate(func(m *tournament.Manager, _ time.Time) error {
			return m.SwitchToTeamTimeout(c)
		})
	}

	var switchTo func(m *tournament.Manager, now time.Time) error
	switch kind {
	case TimeoutRef:
		switchTo = (*tournament.Manager).SwitchToRefTimeout
	case TimeoutPenaltyShot:
		switchTo = (*tournament.Manager).SwitchToPenaltyShot
	case TimeoutRugbyPenaltyShot:
		switchTo = (*tournament.Manager).SwitchToRugbyPenaltyShot
	default:
		return nil, toConnectError(badRequest("unknown timeout kind %q", kind))
	}
	return s.mutate(switchTo)
}

func (s *ControlService) EndTimeout(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate((*tournament.Manager).EndTimeout)
}

func (s *ControlService) StartClock(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate((*tournament.Manager).StartClock)
}

func (s *ControlService) StopClock(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate((*tournament.Manager).StopClock)
}

func (s *ControlService) StartPlayNow(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate((*tournament.Manager).StartPlayNow)
}

func (s *ControlService) ResetGame(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate(func(m *tournament.Manager, now time.Time) error {
		m.ResetGame(now)
		return nil
	})
}

// ConfirmScores records the scores the referees agreed on and ends the
// confirmation pause.
func (s *ControlService) ConfirmScores(ctx context.Context, req *connect.Request[SetScoresRequest]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate(func(m *tournament.Manager, now time.Time) error {
		if !m.IsPaused() {
			return tournament.ErrNotPaused
		}
		m.SetScores(req.Msg.Scores, now)
		return m.EndConfirmPause(now)
	})
}

func (s *ControlService) SetGameClock(ctx context.Context, req *connect.Request[SetGameClockRequest]) (*connect.Response[SnapshotResponse], error) {
	if req.Msg.Secs > maxClockSecs {
		return nil, toConnectError(badRequest("clock time %d is over the maximum of %d", req.Msg.Secs, maxClockSecs))
	}
	return s.mutate(func(m *tournament.Manager, _ time.Time) error {
		return m.SetGameClockTime(time.Duration(req.Msg.Secs) * time.Second)
	})
}

func (s *ControlService) SetConfig(ctx context.Context, req *connect.Request[SetConfigRequest]) (*connect.Response[SnapshotResponse], error) {
	if err := validateConfig(req.Msg.Config); err != nil {
		return nil, toConnectError(err)
	}
	return s.mutate(func(m *tournament.Manager, _ time.Time) error {
		return m.SetConfig(req.Msg.Config)
	})
}

// SetNextGame stores the schedule info of the next game. Between games the
// break countdown is re-armed against its start time.
func (s *ControlService) SetNextGame(ctx context.Context, req *connect.Request[SetNextGameRequest]) (*connect.Response[SnapshotResponse], error) {
	return s.mutate(func(m *tournament.Manager, now time.Time) error {
		m.SetNextGame(req.Msg.Info)
		if m.CurrentPeriod() != models.BetweenGames {
			return nil
		}
		return m.ApplyNextGameStart(now)
	})
}

func (s *ControlService) GetLastGameStats(ctx context.Context, req *connect.Request[Empty]) (*connect.Response[GameStatsResponse], error) {
	var (
		last tournament.GameStats
		ok   bool
	)
	_ = s.shared.With(func(m *tournament.Manager) error {
		last, ok = m.LastGameStats()
		return nil
	})
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("no game has ended yet"))
	}
	return connect.NewResponse(&GameStatsResponse{Stats: last}), nil
}

func (s *ControlService) GetGameStats(ctx context.Context, req *connect.Request[GameStatsRequest]) (*connect.Response[GameStatsResponse], error) {
	if s.stats == nil {
		return nil, connect.NewError(connect.CodeUnavailable, errors.New("stats storage is disabled"))
	}
	st, err := s.stats.LatestGameStats(ctx, req.Msg.GameNumber)
	if err != nil {
		return nil, toConnectError(fmt.Errorf("failed to get stats of game %d: %w", req.Msg.GameNumber, err))
	}
	return connect.NewResponse(&GameStatsResponse{Stats: st}), nil
}

func logInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			start := time.Now()
			res, err := next(ctx, req)
			ev := log.Debug()
			if err != nil {
				ev = log.Warn().Err(err).Str("code", connect.CodeOf(err).String())
			}
			ev.Str("procedure", req.Spec().Procedure).Dur("took", time.Since(start)).Msg("control call")
			return res, err
		}
	}
}
