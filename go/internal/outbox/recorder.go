package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/events"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

const (
	recorderQueueSize = 256
	drainTimeout      = 5 * time.Second
)

// EventStore persists one outbox event.
type EventStore interface {
	InsertEvent(ctx context.Context, gameNumber uint32, eventType string, payload []byte) (uuid.UUID, error)
}

// StatsStore keeps the final stats of every finished game.
type StatsStore interface {
	SaveGameStats(ctx context.Context, stats tournament.GameStats) error
}

type recorded struct {
	gameNumber uint32
	eventType  string
	payload    any
	final      *tournament.GameStats
}

// Recorder turns manager stats callbacks into outbox rows. The callbacks run
// under the manager lock, so they only queue; Run does the writes.
type Recorder struct {
	store EventStore
	stats StatsStore
	queue chan recorded
	now   func() time.Time
}

// NewRecorder creates a recorder. stats may be nil when final game stats are
// not kept.
func NewRecorder(store EventStore, stats StatsStore) *Recorder {
	return &Recorder{
		store: store,
		stats: stats,
		queue: make(chan recorded, recorderQueueSize),
		now:   time.Now,
	}
}

var _ tournament.StatsRecorder = (*Recorder)(nil)

func (r *Recorder) GameStarted(gameNumber uint32, at time.Time) {
	r.enqueue(recorded{
		gameNumber: gameNumber,
		eventType:  events.TypeGameStarted,
		payload:    events.GameStartedPayload{GameNumber: gameNumber, StartedAt: at.UTC()},
	})
}

func (r *Recorder) EventRecorded(gameNumber uint32, ev tournament.StatsEvent) {
	r.enqueue(recorded{
		gameNumber: gameNumber,
		eventType:  events.TypeFor(ev),
		payload:    events.StatsEventPayload{GameNumber: gameNumber, Event: ev},
	})
}

func (r *Recorder) GameEnded(stats tournament.GameStats) {
	final := stats.Clone()
	r.enqueue(recorded{
		gameNumber: stats.GameNumber,
		eventType:  events.TypeGameEnded,
		payload:    events.GameEndedPayload{Stats: final},
		final:      &final,
	})
}

// ClockRunning records a start or stop of the game clock.
func (r *Recorder) ClockRunning(gameNumber uint32, running bool) {
	r.enqueue(recorded{
		gameNumber: gameNumber,
		eventType:  events.TypeClockRunning,
		payload:    events.ClockRunningPayload{Running: running, ChangedAt: r.now().UTC()},
	})
}

// WatchRunning records every value from a running signal subscription until
// ctx is done. gameNumber is read for each change.
func (r *Recorder) WatchRunning(ctx context.Context, running <-chan bool, gameNumber func() uint32) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-running:
			r.ClockRunning(gameNumber(), v)
		}
	}
}

func (r *Recorder) enqueue(item recorded) {
	select {
	case r.queue <- item:
	default:
		log.Warn().
			Str("event_type", item.eventType).
			Uint32("game_number", item.gameNumber).
			Msg("stats queue full, dropping event")
	}
}

// Run writes queued events until ctx is done, then flushes what is left.
func (r *Recorder) Run(ctx context.Context) {
	log.Info().Int("queue_size", cap(r.queue)).Msg("stats recorder started")
	for {
		select {
		case <-ctx.Done():
			r.drain()
			log.Info().Msg("stats recorder stopped")
			return
		case item := <-r.queue:
			r.persist(ctx, item)
		}
	}
}

func (r *Recorder) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case item := <-r.queue:
			r.persist(ctx, item)
		default:
			return
		}
	}
}

func (r *Recorder) persist(ctx context.Context, item recorded) {
	if err := r.write(ctx, item); err != nil {
		log.Error().
			Err(err).
			Str("event_type", item.eventType).
			Uint32("game_number", item.gameNumber).
			Msg("failed to record event")
	}
}

func (r *Recorder) write(ctx context.Context, item recorded) error {
	payload, err := json.Marshal(item.payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", item.eventType, err)
	}

	id, err := r.store.InsertEvent(ctx, item.gameNumber, item.eventType, payload)
	if err != nil {
		return err
	}
	log.Debug().Str("event_id", id.String()).Str("event_type", item.eventType).Msg("outbox event inserted")

	if item.final != nil && r.stats != nil {
		if err := r.stats.SaveGameStats(ctx, *item.final); err != nil {
			return fmt.Errorf("failed to save game stats: %w", err)
		}
	}
	return nil
}
