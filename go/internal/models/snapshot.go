package models

import "fmt"

// TimeoutKind identifies which timeout, if any, a snapshot shows.
type TimeoutKind string

const (
	TimeoutNone        TimeoutKind = "NONE"
	TimeoutBlack       TimeoutKind = "BLACK"
	TimeoutWhite       TimeoutKind = "WHITE"
	TimeoutRef         TimeoutKind = "REF"
	TimeoutPenaltyShot TimeoutKind = "PENALTY_SHOT"
)

// UndefinedSecs marks a clock value that could not be computed.
const UndefinedSecs uint16 = 65535

// TimeoutSnapshot is the displayed state of the timeout clock.
type TimeoutSnapshot struct {
	Kind TimeoutKind `json:"kind"`
	Secs uint16      `json:"secs"`
}

// TeamTimeout builds the snapshot of a team timeout for the given color.
func TeamTimeout(c Color, secs uint16) TimeoutSnapshot {
	if c == White {
		return TimeoutSnapshot{Kind: TimeoutWhite, Secs: secs}
	}
	return TimeoutSnapshot{Kind: TimeoutBlack, Secs: secs}
}

func (t TimeoutSnapshot) String() string {
	switch t.Kind {
	case TimeoutBlack:
		return "Black Timeout"
	case TimeoutWhite:
		return "White Timeout"
	case TimeoutRef:
		return "Ref Timeout"
	case TimeoutPenaltyShot:
		return "Penalty Shot"
	default:
		return "No Timeout"
	}
}

// PenaltyTime is either the seconds left to serve or a total dismissal.
type PenaltyTime struct {
	Seconds        uint16 `json:"seconds"`
	TotalDismissal bool   `json:"total_dismissal"`
}

func (t PenaltyTime) String() string {
	if t.TotalDismissal {
		return "DSMS"
	}
	return fmt.Sprintf("%d:%02d", t.Seconds/60, t.Seconds%60)
}

// PenaltySnapshot is one displayed penalty.
type PenaltySnapshot struct {
	PlayerNumber uint8       `json:"player_number"`
	Time         PenaltyTime `json:"time"`
	Infraction   Infraction  `json:"infraction"`
}

// InfractionSnapshot is one displayed warning or foul.
type InfractionSnapshot struct {
	PlayerNumber *uint8     `json:"player_number,omitempty"`
	Infraction   Infraction `json:"infraction"`
}

// RecentGoal identifies the scorer of a goal that is still being shown.
type RecentGoal struct {
	Color        Color `json:"color"`
	PlayerNumber uint8 `json:"player_number"`
}

// GameSnapshot is everything a scoreboard needs to render one frame.
type GameSnapshot struct {
	CurrentPeriod     GamePeriod                             `json:"current_period"`
	SecsInPeriod      uint32                                 `json:"secs_in_period"`
	Timeout           TimeoutSnapshot                        `json:"timeout"`
	Scores            Scores                                 `json:"scores"`
	Penalties         BlackWhiteBundle[[]PenaltySnapshot]    `json:"penalties"`
	Warnings          BlackWhiteBundle[[]InfractionSnapshot] `json:"warnings"`
	Fouls             OptColorBundle[[]InfractionSnapshot]   `json:"fouls"`
	IsOldGame         bool                                   `json:"is_old_game"`
	GameNumber        uint32                                 `json:"game_number"`
	NextGameNumber    uint32                                 `json:"next_game_number"`
	RecentGoal        *RecentGoal                            `json:"recent_goal,omitempty"`
	NextPeriodLenSecs *uint32                                `json:"next_period_len_secs,omitempty"`
	ConfirmingScores  bool                                   `json:"confirming_scores"`
}
