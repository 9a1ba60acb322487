package stats

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/tournament"
)

// Schema creates the game_stats table.
//
//go:embed schema.sql
var Schema string

var (
	ErrNotFound   = errors.New("game stats not found")
	ErrNotStarted = errors.New("game stats have no start time")
)

// querier is satisfied by *pgxpool.Pool and pgx.Tx.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository stores the final stats log of every game.
type Repository struct {
	db querier
}

func NewRepository(db querier) *Repository {
	return &Repository{db: db}
}

const upsertGameStats = `
	INSERT INTO game_stats (game_number, start_time, end_time, events, updated_at)
	VALUES ($1, $2, $3, $4, now())
	ON CONFLICT (game_number, start_time) DO UPDATE
	SET end_time = EXCLUDED.end_time,
	    events = EXCLUDED.events,
	    updated_at = now()`

// SaveGameStats upserts a game keyed by its number and start time, so a game
// number reused on another day does not overwrite an older game.
func (r *Repository) SaveGameStats(ctx context.Context, s tournament.GameStats) error {
	if s.StartTime == nil {
		return ErrNotStarted
	}

	body, err := s.JSON()
	if err != nil {
		return fmt.Errorf("failed to encode game stats: %w", err)
	}

	tag, err := r.db.Exec(ctx, upsertGameStats, int64(s.GameNumber), s.StartTime.UTC(), s.EndTime, body)
	if err != nil {
		return fmt.Errorf("failed to save game stats: %w", err)
	}

	log.Info().
		Uint32("game_number", s.GameNumber).
		Int("events", len(s.Events)).
		Int64("rows", tag.RowsAffected()).
		Msg("game stats saved")
	return nil
}

const latestGameStats = `
	SELECT game_number, start_time, end_time, events
	FROM game_stats
	WHERE game_number = $1
	ORDER BY start_time DESC
	LIMIT 1`

// LatestGameStats returns the most recent game played under a number.
func (r *Repository) LatestGameStats(ctx context.Context, gameNumber uint32) (tournament.GameStats, error) {
	var (
		number int64
		start  time.Time
		end    *time.Time
		body   []byte
	)
	err := r.db.QueryRow(ctx, latestGameStats, int64(gameNumber)).Scan(&number, &start, &end, &body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return tournament.GameStats{}, ErrNotFound
		}
		return tournament.GameStats{}, fmt.Errorf("failed to load game stats: %w", err)
	}

	out := tournament.GameStats{
		GameNumber: uint32(number),
		StartTime:  &start,
		EndTime:    end,
		Events:     []tournament.StatsEvent{},
	}
	if err := json.Unmarshal(body, &out.Events); err != nil {
		return tournament.GameStats{}, fmt.Errorf("failed to decode game stats: %w", err)
	}
	return out, nil
}
