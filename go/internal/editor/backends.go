package editor

import (
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

// DefaultPenaltyListLimit is the most penalties a team list keeps.
const DefaultPenaltyListLimit = 8

type (
	PenaltyEditor = Editor[tournament.Penalty, models.Color]
	WarningEditor = Editor[tournament.InfractionDetails, models.Color]
	FoulEditor    = Editor[tournament.InfractionDetails, models.OptColor]
)

// NewPenaltyEditor edits penalties by team. A limit of zero or less uses
// DefaultPenaltyListLimit.
func NewPenaltyEditor(shared *tournament.Shared, limit int) *PenaltyEditor {
	if limit <= 0 {
		limit = DefaultPenaltyListLimit
	}
	return New[tournament.Penalty, models.Color](shared, penaltyBackend{limit: limit})
}

func NewWarningEditor(shared *tournament.Shared) *WarningEditor {
	return New[tournament.InfractionDetails, models.Color](shared, warningBackend{})
}

func NewFoulEditor(shared *tournament.Shared) *FoulEditor {
	return New[tournament.InfractionDetails, models.OptColor](shared, foulBackend{})
}

type penaltyBackend struct {
	limit int
}

func (penaltyBackend) List() string { return "penalty" }
func (penaltyBackend) Buckets() []models.Color { return models.Colors() }
func (penaltyBackend) BucketName(c models.Color) string { return c.String() }

func (penaltyBackend) Items(m *tournament.Manager, c models.Color) []tournament.Penalty {
	return m.Penalties().Get(c)
}

func (penaltyBackend) Merge(committed, fields tournament.Penalty) tournament.Penalty {
	committed.PlayerNumber = fields.PlayerNumber
	committed.Kind = fields.Kind
	committed.Infraction = fields.Infraction
	return committed
}

func (penaltyBackend) Add(m *tournament.Manager, c models.Color, p tournament.Penalty, now time.Time) error {
	return m.StartPenalty(c, p.PlayerNumber, p.Kind, now, p.Infraction)
}

func (penaltyBackend) Edit(m *tournament.Manager, oldColor models.Color, index int, newColor models.Color, p tournament.Penalty) error {
	return m.EditPenalty(oldColor, index, newColor, p.PlayerNumber, p.Kind, p.Infraction)
}

func (penaltyBackend) Delete(m *tournament.Manager, c models.Color, index int) error {
	return m.DeletePenalty(c, index)
}

func (b penaltyBackend) Limit(m *tournament.Manager, c models.Color, now time.Time) (bool, error) {
	err := m.LimitPenListLen(c, b.limit, now)
	if errors.Is(err, tournament.ErrTooManyPenalties) {
		return true, nil
	}
	return false, err
}

func (penaltyBackend) Line(m *tournament.Manager, p tournament.Penalty, now time.Time) (string, bool) {
	remaining, ok := m.PrintablePenaltyTime(p, now)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("Player %d - %s (%s)", p.PlayerNumber, remaining, p.Kind.Short()), true
}

func (penaltyBackend) PendingLine(p tournament.Penalty) string {
	return fmt.Sprintf("Player %d - Pending (%s)", p.PlayerNumber, p.Kind.Short())
}

func infractionLine(d tournament.InfractionDetails) string {
	if d.PlayerNumber == nil {
		return fmt.Sprintf("Team - %s", d.Infraction)
	}
	return fmt.Sprintf("Player %d - %s", *d.PlayerNumber, d.Infraction)
}

func mergeInfraction(committed, fields tournament.InfractionDetails) tournament.InfractionDetails {
	committed.PlayerNumber = nil
	if fields.PlayerNumber != nil {
		n := *fields.PlayerNumber
		committed.PlayerNumber = &n
	}
	committed.Infraction = fields.Infraction
	return committed
}

type warningBackend struct{}

func (warningBackend) List() string { return "warning" }
func (warningBackend) Buckets() []models.Color { return models.Colors() }
func (warningBackend) BucketName(c models.Color) string { return c.String() }

func (warningBackend) Items(m *tournament.Manager, c models.Color) []tournament.InfractionDetails {
	return m.Warnings().Get(c)
}

func (warningBackend) Merge(committed, fields tournament.InfractionDetails) tournament.InfractionDetails {
	return mergeInfraction(committed, fields)
}

func (warningBackend) Add(m *tournament.Manager, c models.Color, d tournament.InfractionDetails, now time.Time) error {
	return m.AddWarning(c, d.PlayerNumber, d.Infraction, now)
}

func (warningBackend) Edit(m *tournament.Manager, oldColor models.Color, index int, newColor models.Color, d tournament.InfractionDetails) error {
	return m.EditWarning(oldColor, index, newColor, d.PlayerNumber, d.Infraction)
}

func (warningBackend) Delete(m *tournament.Manager, c models.Color, index int) error {
	return m.DeleteWarning(c, index)
}

func (warningBackend) Limit(*tournament.Manager, models.Color, time.Time) (bool, error) {
	return false, nil
}

func (warningBackend) Line(_ *tournament.Manager, d tournament.InfractionDetails, _ time.Time) (string, bool) {
	return infractionLine(d), true
}

func (warningBackend) PendingLine(d tournament.InfractionDetails) string {
	return infractionLine(d)
}

type foulBackend struct{}

func (foulBackend) List() string { return "foul" }
func (foulBackend) Buckets() []models.OptColor { return models.OptColors() }
func (foulBackend) BucketName(o models.OptColor) string { return o.String() }

func (foulBackend) Items(m *tournament.Manager, o models.OptColor) []tournament.InfractionDetails {
	return m.Fouls().Get(o)
}

func (foulBackend) Merge(committed, fields tournament.InfractionDetails) tournament.InfractionDetails {
	return mergeInfraction(committed, fields)
}

func (foulBackend) Add(m *tournament.Manager, o models.OptColor, d tournament.InfractionDetails, now time.Time) error {
	return m.AddFoul(o, d.PlayerNumber, d.Infraction, now)
}

func (foulBackend) Edit(m *tournament.Manager, oldBucket models.OptColor, index int, newBucket models.OptColor, d tournament.InfractionDetails) error {
	return m.EditFoul(oldBucket, index, newBucket, d.PlayerNumber, d.Infraction)
}

func (foulBackend) Delete(m *tournament.Manager, o models.OptColor, index int) error {
	return m.DeleteFoul(o, index)
}

func (foulBackend) Limit(*tournament.Manager, models.OptColor, time.Time) (bool, error) {
	return false, nil
}

func (foulBackend) Line(_ *tournament.Manager, d tournament.InfractionDetails, _ time.Time) (string, bool) {
	return infractionLine(d), true
}

func (foulBackend) PendingLine(d tournament.InfractionDetails) string {
	return infractionLine(d)
}
