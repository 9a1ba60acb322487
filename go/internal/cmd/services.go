package main

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/control"
	"github.com/mcdev12/refbox/go/internal/dbconfig"
	"github.com/mcdev12/refbox/go/internal/editor"
	"github.com/mcdev12/refbox/go/internal/gateway"
	"github.com/mcdev12/refbox/go/internal/orchestrator"
	"github.com/mcdev12/refbox/go/internal/outbox"
	"github.com/mcdev12/refbox/go/internal/outbox/worker"
	"github.com/mcdev12/refbox/go/internal/stats"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

type Services struct {
	Shared       *tournament.Shared
	Orchestrator *orchestrator.Orchestrator
	Connections  *gateway.ConnectionManager
	WebSockets   *gateway.WebSocketHandler
	Control      *control.ControlService
	Editors      *control.EditorService

	// nil unless the stats pipeline is enabled
	pipeline *statsPipeline
}

// statsPipeline is the manager -> outbox -> JetStream chain and its readers.
type statsPipeline struct {
	db        *sql.DB
	pool      *pgxpool.Pool
	recorder  *outbox.Recorder
	listener  *outbox.Listener
	publisher *worker.JetStreamPublisher
	health    *outbox.HealthChecker
	stats     *stats.Repository
	consumer  *gateway.EventConsumer
	consumerN *nats.Conn
}

func setupServices(ctx context.Context, cfg *Config) (*Services, error) {
	// Wire up dependency injection chain
	// Manager -> Shared -> (Orchestrator, Editors, Control) -> Gateway

	manager := tournament.NewManager(cfg.Game)

	connCfg := gateway.DefaultConnectionConfig()
	connCfg.PingInterval = cfg.Gateway.PingInterval
	connCfg.WriteTimeout = cfg.Gateway.WriteTimeout
	connCfg.ReadTimeout = cfg.Gateway.ReadTimeout
	connections := gateway.NewConnectionManager(connCfg)

	var pipeline *statsPipeline
	if cfg.Stats.Enabled {
		var err error
		if pipeline, err = setupStatsPipeline(ctx, cfg, connections); err != nil {
			return nil, err
		}
		manager.SetStatsRecorder(pipeline.recorder)
	}

	shared := tournament.NewShared(manager)
	orch := orchestrator.NewOrchestrator(shared, connections)
	clock := clockwork.NewRealClock()

	var statsStore control.StatsStore
	if pipeline != nil {
		statsStore = pipeline.stats
	}

	editors := control.NewEditorService(
		editor.NewPenaltyEditor(shared, cfg.PenaltyListLimit),
		editor.NewWarningEditor(shared),
		editor.NewFoulEditor(shared),
		clock, orch,
	)

	return &Services{
		Shared:       shared,
		Orchestrator: orch,
		Connections:  connections,
		WebSockets:   gateway.NewWebSocketHandler(connections),
		Control:      control.NewControlService(shared, clock, orch, statsStore),
		Editors:      editors,
		pipeline:     pipeline,
	}, nil
}

func setupStatsPipeline(ctx context.Context, cfg *Config, connections *gateway.ConnectionManager) (*statsPipeline, error) {
	dbCfg := dbconfig.NewConfigFromEnv()

	db, err := setupDatabase(ctx, dbCfg)
	if err != nil {
		return nil, err
	}
	pool, err := setupPool(ctx, dbCfg)
	if err != nil {
		db.Close()
		return nil, err
	}

	p := &statsPipeline{db: db, pool: pool, stats: stats.NewRepository(pool)}

	jsCfg := worker.DefaultJetStreamConfig()
	jsCfg.URL = cfg.Stats.NATSURL
	if p.publisher, err = worker.NewJetStreamPublisher(ctx, jsCfg); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create JetStream publisher: %w", err)
	}

	ltCfg := outbox.DefaultListenerConfig()
	ltCfg.DatabaseURL = dbCfg.DSN()
	ltCfg.FallbackInterval = cfg.Stats.FallbackInterval

	repo := outbox.NewRepository(db, ltCfg.NotifyChannel)
	if p.listener, err = outbox.NewListener(repo, p.publisher, ltCfg); err != nil {
		p.Close()
		return nil, fmt.Errorf("failed to create outbox listener: %w", err)
	}

	p.recorder = outbox.NewRecorder(repo, p.stats)
	p.health = outbox.NewHealthChecker(p.listener, db, repo, p.publisher, cfg.Stats.HealthThreshold)

	if cfg.Gateway.ForwardEvents {
		nc, js, err := worker.Connect(jsCfg.URL, jsCfg.MaxReconnects, jsCfg.ReconnectWait)
		if err != nil {
			p.Close()
			return nil, fmt.Errorf("failed to connect event consumer: %w", err)
		}
		p.consumerN = nc

		consumerCfg := gateway.DefaultJetStreamConsumerConfig()
		consumerCfg.StreamName = jsCfg.StreamName
		consumerCfg.SubjectFilter = jsCfg.SubjectPrefix + ".>"
		consumerCfg.ConsumerName = cfg.Gateway.EventsConsumer
		if p.consumer, err = gateway.NewEventConsumer(ctx, connections, js, consumerCfg); err != nil {
			p.Close()
			return nil, err
		}
	}

	log.Info().
		Str("nats_url", jsCfg.URL).
		Str("stream", jsCfg.StreamName).
		Bool("forward_events", p.consumer != nil).
		Msg("stats pipeline ready")
	return p, nil
}

// Start runs every background loop until ctx is done. The returned function
// waits for them to exit.
func (s *Services) Start(ctx context.Context) (wait func()) {
	var wg sync.WaitGroup
	run := func(name string, fn func(ctx context.Context) error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(ctx); err != nil {
				log.Error().Err(err).Str("component", name).Msg("component stopped with error")
			}
		}()
	}

	run("connections", func(ctx context.Context) error {
		s.Connections.Start(ctx)
		return nil
	})
	run("orchestrator", s.Orchestrator.Run)

	if p := s.pipeline; p != nil {
		run("recorder", func(ctx context.Context) error {
			p.recorder.Run(ctx)
			return nil
		})
		run("clock watcher", func(ctx context.Context) error {
			p.recorder.WatchRunning(ctx, s.Shared.RunningSignal().Subscribe(), s.gameNumber)
			return nil
		})
		run("outbox listener", p.listener.Start)
		if p.consumer != nil {
			run("event consumer", p.consumer.Start)
		}
	}

	return wg.Wait
}

func (s *Services) gameNumber() uint32 {
	var n uint32
	_ = s.Shared.With(func(m *tournament.Manager) error {
		n = m.GameNumber()
		return nil
	})
	return n
}

func (s *Services) Close() {
	if s.pipeline != nil {
		s.pipeline.Close()
	}
}

func (p *statsPipeline) Close() {
	if p.listener != nil {
		if err := p.listener.Stop(); err != nil {
			log.Error().Err(err).Msg("failed to stop outbox listener")
		}
	}
	if p.consumerN != nil {
		p.consumerN.Close()
	}
	if p.publisher != nil {
		if err := p.publisher.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close publisher")
		}
	}
	p.pool.Close()
	if err := p.db.Close(); err != nil {
		log.Error().Err(err).Msg("failed to close database")
	}
}
