package tournament

import (
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/models"
)

// StartPenalty stamps a new penalty with the current period and game clock.
func (m *Manager) StartPenalty(c models.Color, player uint8, kind PenaltyKind, now time.Time, infraction models.Infraction) error {
	m.logInfo(now).
		Str("color", c.String()).
		Uint8("player", player).
		Str("kind", string(kind)).
		Msg("Starting a penalty")

	clock, ok := m.GameClockTime(now)
	if !ok {
		return newError(CodeInvalidNowValue)
	}
	p := m.penalties.Ptr(c)
	*p = append(*p, Penalty{
		Kind:         kind,
		PlayerNumber: player,
		StartPeriod:  m.currentPeriod,
		StartTime:    clock,
		StartInstant: now,
		Infraction:   infraction,
	})
	return nil
}

func (m *Manager) DeletePenalty(c models.Color, index int) error {
	p := m.penalties.Ptr(c)
	if index < 0 || index >= len(*p) {
		return indexError(CodeInvalidPenIndex, models.ColorOpt(c), index)
	}
	pen := (*p)[index]
	*p = slices.Delete(*p, index, index+1)

	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("color", c.String()).
		Uint8("player", pen.PlayerNumber).
		Str("kind", string(pen.Kind)).
		Msg("Deleted penalty")
	return nil
}

// EditPenalty rewrites a penalty in place. Changing the color moves it to the
// end of the other team's list.
func (m *Manager) EditPenalty(oldColor models.Color, index int, newColor models.Color, player uint8, kind PenaltyKind, infraction models.Infraction) error {
	p := m.penalties.Ptr(oldColor)
	if index < 0 || index >= len(*p) {
		return indexError(CodeInvalidPenIndex, models.ColorOpt(oldColor), index)
	}
	pen := &(*p)[index]
	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("old", fmt.Sprintf("%s player #%d's %s penalty", oldColor, pen.PlayerNumber, pen.Kind)).
		Str("new", fmt.Sprintf("%s player #%d's %s penalty", newColor, player, kind)).
		Msg("Editing penalty")

	pen.PlayerNumber = player
	pen.Kind = kind
	pen.Infraction = infraction

	if oldColor != newColor {
		moved := *pen
		*p = slices.Delete(*p, index, index+1)
		dst := m.penalties.Ptr(newColor)
		*dst = append(*dst, moved)
	}
	return nil
}

// LimitPenListLen removes completed penalties, oldest first, until the list
// fits. Removals made before a TooManyPenalties failure are kept.
func (m *Manager) LimitPenListLen(c models.Color, limit int, now time.Time) error {
	clock, ok := m.GameClockTime(now)
	if !ok {
		return newError(CodeInvalidNowValue)
	}

	p := m.penalties.Ptr(c)
	for len(*p) > limit {
		idx := -1
		for i, pen := range *p {
			done, err := pen.IsComplete(m.currentPeriod, clock, m.config)
			if err != nil {
				return penaltyError(err)
			}
			if done {
				idx = i
				break
			}
		}
		if idx < 0 {
			return &Error{Code: CodeTooManyPenalties, Limit: limit}
		}
		m.recordPenalty((*p)[idx], c)
		*p = slices.Delete(*p, idx, idx+1)
	}
	return nil
}

// cullPenalties drops every served penalty into the stats log.
func (m *Manager) cullPenalties(now time.Time) error {
	clock, ok := m.GameClockTime(now)
	if !ok {
		return newError(CodeInvalidNowValue)
	}
	m.logInfo(now).Msg("Culling penalties")

	for _, c := range models.Colors() {
		p := m.penalties.Ptr(c)
		keep := make([]bool, len(*p))
		for i, pen := range *p {
			done, err := pen.IsComplete(m.currentPeriod, clock, m.config)
			if err != nil {
				return penaltyError(err)
			}
			keep[i] = !done
		}

		kept := (*p)[:0]
		for i, pen := range *p {
			if keep[i] {
				kept = append(kept, pen)
			} else {
				m.recordPenalty(pen, c)
			}
		}
		*p = kept
	}
	return nil
}

func (m *Manager) AddWarning(c models.Color, player *uint8, infraction models.Infraction, now time.Time) error {
	m.logInfo(now).
		Str("color", c.String()).
		Str("who", warnPlayerLabel(player)).
		Str("infraction", infraction.String()).
		Msg("Adding warning")

	clock, ok := m.GameClockTime(now)
	if !ok {
		return newError(CodeInvalidNowValue)
	}
	w := m.warnings.Ptr(c)
	*w = append(*w, m.newInfraction(player, clock, now, infraction))
	return nil
}

func (m *Manager) AddFoul(bucket models.OptColor, player *uint8, infraction models.Infraction, now time.Time) error {
	m.logInfo(now).
		Str("foul", bucket.String()+foulPlayerLabel(player)).
		Str("infraction", infraction.String()).
		Msg("Adding foul")

	clock, ok := m.GameClockTime(now)
	if !ok {
		return newError(CodeInvalidNowValue)
	}
	f := m.fouls.Ptr(bucket)
	*f = append(*f, m.newInfraction(player, clock, now, infraction))
	return nil
}

func (m *Manager) newInfraction(player *uint8, clock time.Duration, now time.Time, infraction models.Infraction) InfractionDetails {
	return InfractionDetails{
		PlayerNumber: copyPlayer(player),
		StartPeriod:  m.currentPeriod,
		StartTime:    clock,
		StartInstant: now,
		Infraction:   infraction,
	}
}

func copyPlayer(p *uint8) *uint8 {
	if p == nil {
		return nil
	}
	n := *p
	return &n
}

func (m *Manager) EditWarning(oldColor models.Color, index int, newColor models.Color, player *uint8, infraction models.Infraction) error {
	w := m.warnings.Ptr(oldColor)
	if index < 0 || index >= len(*w) {
		return indexError(CodeInvalidWarnIndex, models.ColorOpt(oldColor), index)
	}
	warn := &(*w)[index]
	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("old", fmt.Sprintf("%s %s warning for %s", oldColor, warnPlayerLabel(warn.PlayerNumber), warn.Infraction)).
		Str("new", fmt.Sprintf("%s %s warning for %s", newColor, warnPlayerLabel(player), infraction)).
		Msg("Editing warning")

	warn.PlayerNumber = copyPlayer(player)
	warn.Infraction = infraction

	if oldColor != newColor {
		moved := *warn
		*w = slices.Delete(*w, index, index+1)
		dst := m.warnings.Ptr(newColor)
		*dst = append(*dst, moved)
	}
	return nil
}

func (m *Manager) EditFoul(oldBucket models.OptColor, index int, newBucket models.OptColor, player *uint8, infraction models.Infraction) error {
	f := m.fouls.Ptr(oldBucket)
	if index < 0 || index >= len(*f) {
		return indexError(CodeInvalidFoulIndex, oldBucket, index)
	}
	foul := &(*f)[index]
	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("old", fmt.Sprintf("%s%s foul for %s", oldBucket, foulPlayerLabel(foul.PlayerNumber), foul.Infraction)).
		Str("new", fmt.Sprintf("%s%s foul for %s", newBucket, foulPlayerLabel(player), infraction)).
		Msg("Editing foul")

	foul.PlayerNumber = copyPlayer(player)
	foul.Infraction = infraction

	if oldBucket != newBucket {
		moved := *foul
		*f = slices.Delete(*f, index, index+1)
		dst := m.fouls.Ptr(newBucket)
		*dst = append(*dst, moved)
	}
	return nil
}

func (m *Manager) DeleteWarning(c models.Color, index int) error {
	w := m.warnings.Ptr(c)
	if index < 0 || index >= len(*w) {
		return indexError(CodeInvalidWarnIndex, models.ColorOpt(c), index)
	}
	warn := (*w)[index]
	*w = slices.Delete(*w, index, index+1)

	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("warning", fmt.Sprintf("%s %s warning for %s", c, warnPlayerLabel(warn.PlayerNumber), warn.Infraction)).
		Msg("Deleted warning")
	return nil
}

func (m *Manager) DeleteFoul(bucket models.OptColor, index int) error {
	f := m.fouls.Ptr(bucket)
	if index < 0 || index >= len(*f) {
		return indexError(CodeInvalidFoulIndex, bucket, index)
	}
	foul := (*f)[index]
	*f = slices.Delete(*f, index, index+1)

	log.Info().
		Str("period", m.currentPeriod.Code()).
		Str("foul", fmt.Sprintf("%s%s foul for %s", bucket, foulPlayerLabel(foul.PlayerNumber), foul.Infraction)).
		Msg("Deleted foul")
	return nil
}

// PrintablePenaltyTime renders what is left of a penalty: "Served", "M:SS" or
// "DSMS" for a total dismissal.
func (m *Manager) PrintablePenaltyTime(p Penalty, now time.Time) (string, bool) {
	clock, ok := m.GameClockTime(now)
	if !ok {
		return "", false
	}
	done, err := p.IsComplete(m.currentPeriod, clock, m.config)
	if err != nil {
		return "", false
	}
	if done {
		return "Served", true
	}
	rem, err := p.TimeRemaining(m.currentPeriod, clock, m.config)
	if err != nil {
		return "DSMS", true
	}
	secs := int64(rem / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60), true
}
