package control

import (
	"fmt"
	"time"

	"github.com/mcdev12/refbox/go/internal/editor"
	"github.com/mcdev12/refbox/go/internal/models"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

type Empty struct{}

// SnapshotResponse is returned by every control call. It reflects the game
// right after the call was applied.
type SnapshotResponse struct {
	Snapshot *models.GameSnapshot `json:"snapshot"`
}

type AddScoreRequest struct {
	Color  models.Color `json:"color"`
	Player uint8        `json:"player"`
}

type SetScoresRequest struct {
	Scores models.Scores `json:"scores"`
}

// TimeoutKind names a timeout in StartTimeout and SwitchTimeout.
type TimeoutKind string

const (
	TimeoutTeamBlack        TimeoutKind = "team_black"
	TimeoutTeamWhite        TimeoutKind = "team_white"
	TimeoutRef              TimeoutKind = "ref"
	TimeoutPenaltyShot      TimeoutKind = "penalty_shot"
	TimeoutRugbyPenaltyShot TimeoutKind = "rugby_penalty_shot"
)

type TimeoutRequest struct {
	Kind TimeoutKind `json:"kind"`
}

type SetGameClockRequest struct {
	Secs uint32 `json:"secs"`
}

type SetConfigRequest struct {
	Config models.GameConfig `json:"config"`
}

type SetNextGameRequest struct {
	Info tournament.NextGameInfo `json:"info"`
}

type GameStatsRequest struct {
	GameNumber uint32 `json:"game_number"`
}

type GameStatsResponse struct {
	Stats tournament.GameStats `json:"stats"`
}

// EditorRequest addresses one staged entry of the list named by List, which
// is one of "penalties", "warnings" or "fouls". Buckets are team colors, plus
// EQUAL for fouls.
type EditorRequest struct {
	List      string      `json:"list"`
	Bucket    string      `json:"bucket,omitempty"`
	NewBucket string      `json:"new_bucket,omitempty"`
	Index     int         `json:"index,omitempty"`
	Item      *ItemFields `json:"item,omitempty"`
}

// ItemFields are the editable fields of an entry. Kind is only used by
// penalties.
type ItemFields struct {
	PlayerNumber *uint8                 `json:"player_number,omitempty"`
	Kind         tournament.PenaltyKind `json:"kind,omitempty"`
	Infraction   models.Infraction      `json:"infraction,omitempty"`
}

type ItemResponse struct {
	Bucket string            `json:"bucket"`
	Item   any               `json:"item"`
	Hint   editor.FormatHint `json:"hint"`
}

type PrintableListsResponse struct {
	Lists map[string][]editor.Line `json:"lists"`
}

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

func (k TimeoutKind) color() (models.Color, bool) {
	switch k {
	case TimeoutTeamBlack:
		return models.Black, true
	case TimeoutTeamWhite:
		return models.White, true
	default:
		return "", false
	}
}

func parseColor(s string) (models.Color, error) {
	c := models.Color(s)
	if !c.Valid() {
		return "", badRequest("unknown color %q", s)
	}
	return c, nil
}

func parseOptColor(s string) (models.OptColor, error) {
	o := models.OptColor(s)
	if !o.Valid() {
		return "", badRequest("unknown foul bucket %q", s)
	}
	return o, nil
}

func (f *ItemFields) infraction() (models.Infraction, error) {
	if f.Infraction == "" {
		return models.InfractionUnknown, nil
	}
	if !f.Infraction.Valid() {
		return "", badRequest("unknown infraction %q", f.Infraction)
	}
	return f.Infraction, nil
}

func penaltyFields(f *ItemFields) (tournament.Penalty, error) {
	if f == nil || f.PlayerNumber == nil {
		return tournament.Penalty{}, badRequest("a penalty needs a player number")
	}
	kind := f.Kind
	if kind == "" {
		kind = tournament.DefaultPenaltyKind
	}
	if !kind.Valid() {
		return tournament.Penalty{}, badRequest("unknown penalty kind %q", f.Kind)
	}
	infraction, err := f.infraction()
	if err != nil {
		return tournament.Penalty{}, err
	}
	return tournament.Penalty{PlayerNumber: *f.PlayerNumber, Kind: kind, Infraction: infraction}, nil
}

func infractionFields(f *ItemFields) (tournament.InfractionDetails, error) {
	if f == nil {
		return tournament.InfractionDetails{}, badRequest("missing item")
	}
	infraction, err := f.infraction()
	if err != nil {
		return tournament.InfractionDetails{}, err
	}
	d := tournament.InfractionDetails{Infraction: infraction}
	if f.PlayerNumber != nil {
		n := *f.PlayerNumber
		d.PlayerNumber = &n
	}
	return d, nil
}

func validateConfig(cfg models.GameConfig) error {
	if cfg.HalfPlayDuration <= 0 {
		return badRequest("half_play_duration must be positive")
	}
	if cfg.MinimumBreak < 0 || cfg.NominalBreak < 0 {
		return badRequest("breaks must not be negative")
	}
	return nil
}

const maxClockSecs = uint32(tournament.MaxTimeValue / time.Second)
