package editor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

var base = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func at(d time.Duration) time.Time {
	return base.Add(d)
}

func newShared(t *testing.T) *tournament.Shared {
	t.Helper()
	m := tournament.NewManager(models.DefaultGameConfig())
	require.NoError(t, m.StartPlayNow(base))
	return tournament.NewShared(m)
}

func penalty(player uint8, kind tournament.PenaltyKind) tournament.Penalty {
	return tournament.Penalty{PlayerNumber: player, Kind: kind, Infraction: models.InfractionUnknown}
}

func committedPenalties(t *testing.T, sh *tournament.Shared) models.BlackWhiteBundle[[]tournament.Penalty] {
	t.Helper()
	var pens models.BlackWhiteBundle[[]tournament.Penalty]
	require.NoError(t, sh.With(func(m *tournament.Manager) error {
		pens = m.Penalties()
		return nil
	}))
	return pens
}

func addCommitted(t *testing.T, sh *tournament.Shared, c models.Color, player uint8, kind tournament.PenaltyKind, now time.Time) {
	t.Helper()
	require.NoError(t, sh.With(func(m *tournament.Manager) error {
		return m.StartPenalty(c, player, kind, now, models.InfractionUnknown)
	}))
}

func TestEditor_Session(t *testing.T) {
	ed := NewPenaltyEditor(newShared(t), 0)

	assert.ErrorIs(t, ed.AddItem(models.Black, penalty(4, tournament.PenaltyOneMinute)), ErrNotInSession)
	_, err := ed.GetItem(models.Black, 0)
	assert.ErrorIs(t, err, ErrNotInSession)
	assert.ErrorIs(t, ed.ApplyChanges(base), ErrNotInSession)

	require.NoError(t, ed.StartSession())
	assert.True(t, ed.InSession())
	assert.ErrorIs(t, ed.StartSession(), ErrExistingSession)

	ed.AbortSession()
	assert.False(t, ed.InSession())
	require.NoError(t, ed.StartSession())
}

func TestEditor_AddAndApply(t *testing.T) {
	sh := newShared(t)
	ed := NewPenaltyEditor(sh, 0)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.AddItem(models.Black, penalty(3, tournament.PenaltyOneMinute)))
	require.NoError(t, ed.AddItem(models.White, penalty(13, tournament.PenaltyTwoMinute)))

	d, err := ed.GetItem(models.White, 0)
	require.NoError(t, err)
	assert.Equal(t, uint8(13), d.Item.PlayerNumber)
	assert.Equal(t, HintNew, d.Hint)

	_, err = ed.GetItem(models.White, 1)
	var idxErr *InvalidIndexError
	require.ErrorAs(t, err, &idxErr)
	assert.Equal(t, "No White penalty exists at the index 1", err.Error())

	assert.Empty(t, committedPenalties(t, sh).Black, "staging does not touch the manager")

	require.NoError(t, ed.ApplyChanges(at(20*time.Second)))
	assert.False(t, ed.InSession())

	pens := committedPenalties(t, sh)
	require.Len(t, pens.Black, 1)
	require.Len(t, pens.White, 1)
	assert.Equal(t, uint8(3), pens.Black[0].PlayerNumber)
	assert.Equal(t, 14*time.Minute+40*time.Second, pens.Black[0].StartTime)
	assert.Equal(t, tournament.PenaltyTwoMinute, pens.White[0].Kind)
}

func TestEditor_DeleteIsIdempotent(t *testing.T) {
	sh := newShared(t)
	addCommitted(t, sh, models.Black, 1, tournament.PenaltyOneMinute, base)
	addCommitted(t, sh, models.Black, 2, tournament.PenaltyOneMinute, base)
	ed := NewPenaltyEditor(sh, 0)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.DeleteItem(models.Black, 0))
	require.NoError(t, ed.DeleteItem(models.Black, 0))

	d, err := ed.GetItem(models.Black, 0)
	require.NoError(t, err)
	assert.Equal(t, HintDeleted, d.Hint)

	require.NoError(t, ed.AddItem(models.Black, penalty(9, tournament.PenaltyFiveMinute)))
	require.NoError(t, ed.DeleteItem(models.Black, 2))
	_, err = ed.GetItem(models.Black, 2)
	assert.Error(t, err, "new entries are removed outright")

	require.NoError(t, ed.ApplyChanges(at(time.Second)))
	pens := committedPenalties(t, sh).Black
	require.Len(t, pens, 1)
	assert.Equal(t, uint8(2), pens[0].PlayerNumber)
}

func TestEditor_EditRevivesDeleted(t *testing.T) {
	sh := newShared(t)
	addCommitted(t, sh, models.Black, 1, tournament.PenaltyOneMinute, base)
	ed := NewPenaltyEditor(sh, 0)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.DeleteItem(models.Black, 0))
	require.NoError(t, ed.EditItem(models.Black, 0, models.Black, penalty(5, tournament.PenaltyTwoMinute)))

	d, err := ed.GetItem(models.Black, 0)
	require.NoError(t, err)
	assert.Equal(t, HintEdited, d.Hint)
	assert.Equal(t, uint8(5), d.Item.PlayerNumber)
	assert.Equal(t, 15*time.Minute, d.Item.StartTime, "editing keeps the committed start")

	require.NoError(t, ed.ApplyChanges(at(time.Second)))
	pens := committedPenalties(t, sh).Black
	require.Len(t, pens, 1)
	assert.Equal(t, uint8(5), pens[0].PlayerNumber)
	assert.Equal(t, tournament.PenaltyTwoMinute, pens[0].Kind)
}

func TestEditor_ApplyMatchesStagedView(t *testing.T) {
	sh := newShared(t)
	for i := uint8(0); i < 4; i++ {
		addCommitted(t, sh, models.Black, 10+i, tournament.PenaltyFiveMinute, base)
	}
	addCommitted(t, sh, models.White, 20, tournament.PenaltyFiveMinute, base)
	ed := NewPenaltyEditor(sh, 0)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.DeleteItem(models.Black, 0))
	require.NoError(t, ed.EditItem(models.Black, 2, models.Black, penalty(32, tournament.PenaltyFiveMinute)))
	require.NoError(t, ed.DeleteItem(models.Black, 3))
	// black #11 moves to the end of the white list
	require.NoError(t, ed.EditItem(models.Black, 1, models.White, penalty(11, tournament.PenaltyFiveMinute)))
	require.NoError(t, ed.AddItem(models.White, penalty(21, tournament.PenaltyOneMinute)))

	require.NoError(t, ed.ApplyChanges(at(time.Minute)))

	pens := committedPenalties(t, sh)
	var black, white []uint8
	for _, p := range pens.Black {
		black = append(black, p.PlayerNumber)
	}
	for _, p := range pens.White {
		white = append(white, p.PlayerNumber)
	}
	assert.Equal(t, []uint8{32}, black)
	assert.Equal(t, []uint8{20, 11, 21}, white)
}

func TestEditor_ListTooLong(t *testing.T) {
	sh := newShared(t)
	ed := NewPenaltyEditor(sh, 2)

	require.NoError(t, ed.StartSession())
	for i := uint8(1); i <= 3; i++ {
		require.NoError(t, ed.AddItem(models.White, penalty(i, tournament.PenaltyTotalDismissal)))
	}
	require.NoError(t, ed.AddItem(models.Black, penalty(7, tournament.PenaltyOneMinute)))

	err := ed.ApplyChanges(at(time.Second))
	var tooLong *ListTooLongError
	require.ErrorAs(t, err, &tooLong)
	assert.Equal(t, []string{"White"}, tooLong.Buckets)
	assert.Equal(t, "The White penalty list(s) are too long", err.Error())
	assert.False(t, ed.InSession(), "the session ends even when limiting fails")

	pens := committedPenalties(t, sh)
	assert.Len(t, pens.White, 3, "nothing is rolled back")
	assert.Len(t, pens.Black, 1)
}

func TestEditor_LimitRemovesServedPenalties(t *testing.T) {
	sh := newShared(t)
	addCommitted(t, sh, models.Black, 1, tournament.PenaltyThirtySecond, base)
	addCommitted(t, sh, models.Black, 2, tournament.PenaltyFiveMinute, base)
	ed := NewPenaltyEditor(sh, 2)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.AddItem(models.Black, penalty(3, tournament.PenaltyOneMinute)))
	require.NoError(t, ed.ApplyChanges(at(time.Minute)))

	pens := committedPenalties(t, sh).Black
	require.Len(t, pens, 2)
	assert.Equal(t, uint8(2), pens[0].PlayerNumber)
	assert.Equal(t, uint8(3), pens[1].PlayerNumber)
}

func TestEditor_PrintableLists(t *testing.T) {
	sh := newShared(t)
	addCommitted(t, sh, models.Black, 3, tournament.PenaltyOneMinute, base)
	addCommitted(t, sh, models.Black, 4, tournament.PenaltyTotalDismissal, base)
	ed := NewPenaltyEditor(sh, 0)

	_, err := ed.PrintableLists(at(2 * time.Second))
	assert.ErrorIs(t, err, ErrNotInSession)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.DeleteItem(models.Black, 1))
	require.NoError(t, ed.AddItem(models.White, penalty(8, tournament.PenaltyTwoMinute)))

	lists, err := ed.PrintableLists(at(2 * time.Second))
	require.NoError(t, err)
	assert.Equal(t, []Line{
		{Text: "Player 3 - 0:58 (1m)", Hint: HintNoChange},
		{Text: "Player 4 - DSMS (DSMS)", Hint: HintDeleted},
	}, lists[models.Black])
	assert.Equal(t, []Line{{Text: "Player 8 - Pending (2m)", Hint: HintNew}}, lists[models.White])

	_, err = ed.PrintableLists(base.Add(-time.Second))
	assert.ErrorIs(t, err, ErrInvalidNowValue)
}

func TestWarningEditor(t *testing.T) {
	sh := newShared(t)
	ed := NewWarningEditor(sh)
	player := uint8(6)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.AddItem(models.White, tournament.InfractionDetails{PlayerNumber: &player, Infraction: models.InfractionFreeArm}))
	require.NoError(t, ed.AddItem(models.Black, tournament.InfractionDetails{Infraction: models.InfractionDelayOfGame}))

	lists, err := ed.PrintableLists(at(time.Second))
	require.NoError(t, err)
	assert.Equal(t, []Line{{Text: "Team - Delay of Game", Hint: HintNew}}, lists[models.Black])

	require.NoError(t, ed.ApplyChanges(at(time.Second)))
	require.NoError(t, sh.With(func(m *tournament.Manager) error {
		warns := m.Warnings()
		require.Len(t, warns.White, 1)
		require.Len(t, warns.Black, 1)
		assert.Nil(t, warns.Black[0].PlayerNumber)
		return nil
	}))
}

func TestFoulEditor(t *testing.T) {
	sh := newShared(t)
	require.NoError(t, sh.With(func(m *tournament.Manager) error {
		return m.AddFoul(models.Equal, nil, models.InfractionFalseStart, base)
	}))
	ed := NewFoulEditor(sh)
	player := uint8(2)

	require.NoError(t, ed.StartSession())
	require.NoError(t, ed.EditItem(models.Equal, 0, models.OptBlack, tournament.InfractionDetails{PlayerNumber: &player, Infraction: models.InfractionFalseStart}))
	require.NoError(t, ed.ApplyChanges(at(time.Second)))

	require.NoError(t, sh.With(func(m *tournament.Manager) error {
		fouls := m.Fouls()
		assert.Empty(t, fouls.Equal)
		require.Len(t, fouls.Black, 1)
		assert.Equal(t, uint8(2), *fouls.Black[0].PlayerNumber)
		return nil
	}))
}
