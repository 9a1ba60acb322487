package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) clockwork.Timer
}

// Broadcaster receives every snapshot the orchestrator generates.
type Broadcaster interface {
	Broadcast(snapshot *models.GameSnapshot)
}

const (
	defaultIdlePoll = time.Second
	// minWait keeps a clock sitting on its own deadline from spinning the loop.
	minWait = time.Millisecond
)

var errNoSnapshot = errors.New("game clock is undefined")

// Orchestrator drives the tournament manager forward in time and publishes a
// snapshot after every update.
type Orchestrator struct {
	shared      *tournament.Shared
	broadcaster Broadcaster
	clock       Clock
	wakeCh      chan struct{}
	running     <-chan bool
	instanceID  string
	idlePoll    time.Duration
}

// NewOrchestrator creates a tick orchestrator using the real clock.
func NewOrchestrator(shared *tournament.Shared, broadcaster Broadcaster) *Orchestrator {
	return NewOrchestratorWithClock(shared, broadcaster, clockwork.NewRealClock())
}

func NewOrchestratorWithClock(shared *tournament.Shared, broadcaster Broadcaster, clock Clock) *Orchestrator {
	return &Orchestrator{
		shared:      shared,
		broadcaster: broadcaster,
		clock:       clock,
		wakeCh:      make(chan struct{}, 1),
		running:     shared.RunningSignal().Subscribe(),
		instanceID:  uuid.New().String()[:8], // short ID for logging
		idlePoll:    defaultIdlePoll,
	}
}

// Wake makes the loop tick now. Callers that change the game outside the clock,
// like a score or a penalty, use it to get a fresh snapshot out.
func (o *Orchestrator) Wake() {
	select {
	case o.wakeCh <- struct{}{}:
	default:
	}
}

// tickResult is what one tick leaves for the wait that follows it.
type tickResult struct {
	snapshot *models.GameSnapshot
	next     time.Time
	hasNext  bool
}

// tick advances the manager to now and snapshots it.
func (o *Orchestrator) tick(now time.Time) (tickResult, error) {
	var res tickResult
	err := o.shared.With(func(m *tournament.Manager) error {
		if err := m.Advance(now); err != nil {
			return fmt.Errorf("failed to advance manager: %w", err)
		}

		snap, ok := m.GenerateSnapshot(now)
		if !ok {
			return errNoSnapshot
		}
		res.snapshot = snap

		if m.ClockIsRunning() || m.IsPaused() {
			res.next, res.hasNext = m.NextUpdateTime(now)
		}

		// running changes made so far, including our own, are in this snapshot
		select {
		case <-o.running:
		default:
		}
		return nil
	})
	return res, err
}

// Run loops until ctx is done, sleeping until the next displayed change of the
// clock or until the clock is started or stopped.
func (o *Orchestrator) Run(ctx context.Context) error {
	log.Info().Str("instance", o.instanceID).Msg("tick orchestrator started")

	timer := o.clock.NewTimer(o.idlePoll)
	stopAndDrainTimer(timer)
	defer timer.Stop()

	for {
		select {
		case <-o.wakeCh:
		default:
		}

		now := o.clock.Now()
		wait := o.idlePoll

		res, err := o.tick(now)
		if err != nil {
			log.Error().Err(err).Str("instance", o.instanceID).Msg("tick failed")
		} else {
			o.broadcaster.Broadcast(res.snapshot)
			if res.hasNext {
				wait = res.next.Sub(o.clock.Now())
			}
		}
		if wait < minWait {
			wait = minWait
		}

		timer.Reset(wait)
		select {
		case <-timer.Chan():
		case r := <-o.running:
			stopAndDrainTimer(timer)
			log.Debug().Str("instance", o.instanceID).Bool("running", r).Msg("clock running changed")
		case <-o.wakeCh:
			stopAndDrainTimer(timer)
		case <-ctx.Done():
			log.Info().Str("instance", o.instanceID).Msg("tick orchestrator shutting down")
			return nil
		}
	}
}

// stopAndDrainTimer safely stops a timer and drains its channel so the next
// Reset starts clean.
func stopAndDrainTimer(timer clockwork.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.Chan():
		default:
		}
	}
}
