package outbox

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"

	"github.com/mcdev12/refbox/go/internal/outbox/worker"
	"github.com/mcdev12/refbox/go/internal/sqlutil"
)

// ErrEventNotFound is returned for an unknown or already sent outbox event.
var ErrEventNotFound = errors.New("outbox event not found or already sent")

type Repository struct {
	db            *sql.DB
	queries       *Queries
	notifyChannel string
}

func NewRepository(db *sql.DB, notifyChannel string) *Repository {
	return &Repository{
		db:            db,
		queries:       New(db),
		notifyChannel: notifyChannel,
	}
}

// InsertEvent stores an event and notifies the listener in one transaction, so
// the notification is only delivered once the row is visible.
func (r *Repository) InsertEvent(ctx context.Context, gameNumber uint32, eventType string, payload []byte) (uuid.UUID, error) {
	id := uuid.New()
	err := sqlutil.Run(ctx, r.db, r.queries.WithTx, func(q *Queries) error {
		if err := q.InsertOutboxEvent(ctx, InsertOutboxEventParams{
			ID:         id,
			GameNumber: int64(gameNumber),
			EventType:  eventType,
			Payload:    pqtype.NullRawMessage{RawMessage: payload, Valid: len(payload) > 0},
		}); err != nil {
			return err
		}
		return q.NotifyOutbox(ctx, r.notifyChannel, id.String())
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to insert %s outbox event: %w", eventType, err)
	}
	return id, nil
}

func (r *Repository) FetchUnsent(ctx context.Context, limit int32) ([]worker.OutboxEvent, error) {
	rows, err := r.queries.FetchUnsentOutbox(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch unsent outbox events: %w", err)
	}

	events := make([]worker.OutboxEvent, len(rows))
	for i, row := range rows {
		events[i] = toOutboxEvent(row)
	}
	return events, nil
}

func (r *Repository) FetchByID(ctx context.Context, id uuid.UUID) (*worker.OutboxEvent, error) {
	row, err := r.queries.FetchOutboxByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrEventNotFound
		}
		return nil, fmt.Errorf("failed to fetch outbox event by ID: %w", err)
	}
	ev := toOutboxEvent(row)
	return &ev, nil
}

func (r *Repository) MarkSent(ctx context.Context, id uuid.UUID) error {
	if err := r.queries.MarkOutboxSent(ctx, id); err != nil {
		return fmt.Errorf("failed to mark outbox event as sent: %w", err)
	}
	return nil
}

func (r *Repository) CountPending(ctx context.Context) (int64, error) {
	n, err := r.queries.CountPendingOutbox(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to count pending outbox events: %w", err)
	}
	return n, nil
}

func toOutboxEvent(row RefboxOutbox) worker.OutboxEvent {
	ev := worker.OutboxEvent{
		ID:         row.ID,
		GameNumber: uint32(row.GameNumber),
		EventType:  row.EventType,
		CreatedAt:  row.CreatedAt,
	}
	if row.Payload.Valid {
		ev.Payload = []byte(row.Payload.RawMessage)
	}
	if row.SentAt.Valid {
		t := row.SentAt.Time
		ev.SentAt = &t
	}
	return ev
}
