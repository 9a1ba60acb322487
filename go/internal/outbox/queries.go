package outbox

import (
	"context"
	"database/sql"
	_ "embed"
	"time"

	"github.com/google/uuid"
	"github.com/sqlc-dev/pqtype"
)

// Schema creates the refbox_outbox table.
//
//go:embed schema.sql
var Schema string

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type RefboxOutbox struct {
	ID         uuid.UUID
	GameNumber int64
	EventType  string
	Payload    pqtype.NullRawMessage
	CreatedAt  time.Time
	SentAt     sql.NullTime
}

const insertOutboxEvent = `INSERT INTO refbox_outbox (id, game_number, event_type, payload)
VALUES ($1, $2, $3, $4)`

type InsertOutboxEventParams struct {
	ID         uuid.UUID
	GameNumber int64
	EventType  string
	Payload    pqtype.NullRawMessage
}

func (q *Queries) InsertOutboxEvent(ctx context.Context, arg InsertOutboxEventParams) error {
	_, err := q.db.ExecContext(ctx, insertOutboxEvent, arg.ID, arg.GameNumber, arg.EventType, arg.Payload)
	return err
}

const notifyOutbox = `SELECT pg_notify($1, $2)`

func (q *Queries) NotifyOutbox(ctx context.Context, channel, payload string) error {
	_, err := q.db.ExecContext(ctx, notifyOutbox, channel, payload)
	return err
}

const fetchOutboxByID = `SELECT id, game_number, event_type, payload, created_at, sent_at
FROM refbox_outbox
WHERE id = $1 AND sent_at IS NULL`

func (q *Queries) FetchOutboxByID(ctx context.Context, id uuid.UUID) (RefboxOutbox, error) {
	row := q.db.QueryRowContext(ctx, fetchOutboxByID, id)
	var i RefboxOutbox
	err := row.Scan(&i.ID, &i.GameNumber, &i.EventType, &i.Payload, &i.CreatedAt, &i.SentAt)
	return i, err
}

const fetchUnsentOutbox = `SELECT id, game_number, event_type, payload, created_at, sent_at
FROM refbox_outbox
WHERE sent_at IS NULL
ORDER BY created_at
LIMIT $1`

func (q *Queries) FetchUnsentOutbox(ctx context.Context, limit int32) ([]RefboxOutbox, error) {
	rows, err := q.db.QueryContext(ctx, fetchUnsentOutbox, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []RefboxOutbox
	for rows.Next() {
		var i RefboxOutbox
		if err := rows.Scan(&i.ID, &i.GameNumber, &i.EventType, &i.Payload, &i.CreatedAt, &i.SentAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const markOutboxSent = `UPDATE refbox_outbox SET sent_at = now() WHERE id = $1 AND sent_at IS NULL`

func (q *Queries) MarkOutboxSent(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.ExecContext(ctx, markOutboxSent, id)
	return err
}

const countPendingOutbox = `SELECT COUNT(*) FROM refbox_outbox WHERE sent_at IS NULL`

func (q *Queries) CountPendingOutbox(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countPendingOutbox)
	var count int64
	err := row.Scan(&count)
	return count, err
}
