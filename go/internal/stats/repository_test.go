package stats

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

type mockQuerier struct {
	mock.Mock
}

func (m *mockQuerier) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	a := m.Called(append([]any{ctx, sql}, args...)...)
	return a.Get(0).(pgconn.CommandTag), a.Error(1)
}

func (m *mockQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(append([]any{ctx, sql}, args...)...)
	return a.Get(0).(pgx.Row)
}

type rowFunc func(dest ...any) error

func (f rowFunc) Scan(dest ...any) error { return f(dest...) }

func TestRepository_SaveGameStats(t *testing.T) {
	db := &mockQuerier{}
	repo := NewRepository(db)

	start := base
	end := base.Add(40 * time.Minute)
	s := tournament.GameStats{
		GameNumber: 12,
		StartTime:  &start,
		EndTime:    &end,
		Events: []tournament.StatsEvent{
			{Type: tournament.StatsEventGoal, Side: "light", GamePeriod: models.SecondHalf, OccurredOn: base.Add(30 * time.Minute)},
			{Type: tournament.StatsEventGoal, Side: "dark", GamePeriod: models.FirstHalf, OccurredOn: base.Add(5 * time.Minute)},
		},
	}

	db.On("Exec", mock.Anything, upsertGameStats, int64(12), start, &end, mock.MatchedBy(func(body []byte) bool {
		var evs []tournament.StatsEvent
		if err := json.Unmarshal(body, &evs); err != nil || len(evs) != 2 {
			return false
		}
		return evs[0].Side == "dark"
	})).Return(pgconn.NewCommandTag("INSERT 0 1"), nil).Once()

	require.NoError(t, repo.SaveGameStats(context.Background(), s))
	db.AssertExpectations(t)
}

func TestRepository_SaveGameStatsNotStarted(t *testing.T) {
	repo := NewRepository(&mockQuerier{})
	assert.ErrorIs(t, repo.SaveGameStats(context.Background(), tournament.GameStats{GameNumber: 1}), ErrNotStarted)
}

func TestRepository_LatestGameStats(t *testing.T) {
	db := &mockQuerier{}
	repo := NewRepository(db)

	db.On("QueryRow", mock.Anything, latestGameStats, int64(7)).Return(rowFunc(func(dest ...any) error {
		*dest[0].(*int64) = 7
		*dest[1].(*time.Time) = base
		*dest[3].(*[]byte) = []byte(`[{"$type":"goal","playerCapNumber":4,"side":"dark","gamePeriod":"FIRST_HALF","periodTime":300,"occurredOn":"2024-06-01T09:10:00Z"}]`)
		return nil
	})).Once()

	s, err := repo.LatestGameStats(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint32(7), s.GameNumber)
	assert.Nil(t, s.EndTime)
	require.Len(t, s.Events, 1)
	assert.Equal(t, uint8(4), s.Events[0].PlayerCapNumber)
}

func TestRepository_LatestGameStatsMissing(t *testing.T) {
	db := &mockQuerier{}
	repo := NewRepository(db)

	db.On("QueryRow", mock.Anything, latestGameStats, int64(99)).Return(rowFunc(func(...any) error {
		return pgx.ErrNoRows
	})).Once()

	_, err := repo.LatestGameStats(context.Background(), 99)
	assert.ErrorIs(t, err, ErrNotFound)
}
