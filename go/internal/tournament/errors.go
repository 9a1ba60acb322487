package tournament

import (
	"errors"
	"fmt"

	"github.com/mcdev12/refbox/go/internal/models"
)

// ErrorCode classifies a manager error.
type ErrorCode string

const (
	CodeClockIsRunning      ErrorCode = "CLOCK_IS_RUNNING"
	CodeWrongGamePeriod     ErrorCode = "WRONG_GAME_PERIOD"
	CodeTooManyTeamTimeouts ErrorCode = "TOO_MANY_TEAM_TIMEOUTS"
	CodeAlreadyInTimeout    ErrorCode = "ALREADY_IN_TIMEOUT"
	CodeNotInRefTimeout     ErrorCode = "NOT_IN_REF_TIMEOUT"
	CodeNotInPenaltyShot    ErrorCode = "NOT_IN_PENALTY_SHOT"
	CodeNotInTeamTimeout    ErrorCode = "NOT_IN_TEAM_TIMEOUT"
	CodeNotInTimeout        ErrorCode = "NOT_IN_TIMEOUT"
	CodeNeedsUpdate         ErrorCode = "NEEDS_UPDATE"
	CodeInvalidNowValue     ErrorCode = "INVALID_NOW_VALUE"
	CodeAlreadyInPlayPeriod ErrorCode = "ALREADY_IN_PLAY_PERIOD"
	CodeGameInProgress      ErrorCode = "GAME_IN_PROGRESS"
	CodeTooManyPenalties    ErrorCode = "TOO_MANY_PENALTIES"
	CodeInvalidPenIndex     ErrorCode = "INVALID_PEN_INDEX"
	CodeInvalidWarnIndex    ErrorCode = "INVALID_WARN_INDEX"
	CodeInvalidFoulIndex    ErrorCode = "INVALID_FOUL_INDEX"
	CodeInvalidState        ErrorCode = "INVALID_STATE"
	CodeNoNextGameInfo      ErrorCode = "NO_NEXT_GAME_INFO"
	CodePenaltyError        ErrorCode = "PENALTY_ERROR"
	CodeNotPaused           ErrorCode = "NOT_PAUSED"
	CodeAlreadyPaused       ErrorCode = "ALREADY_PAUSED"
)

// Error is returned by every failing Manager operation. Only the context fields
// relevant to the Code are set.
type Error struct {
	Code    ErrorCode
	Color   models.OptColor
	Period  models.GamePeriod
	Timeout models.TimeoutSnapshot
	Index   int
	Limit   int
	Err     error
}

// Sentinels for errors.Is; matching compares codes only.
var (
	ErrClockIsRunning      = &Error{Code: CodeClockIsRunning}
	ErrWrongGamePeriod     = &Error{Code: CodeWrongGamePeriod}
	ErrTooManyTeamTimeouts = &Error{Code: CodeTooManyTeamTimeouts}
	ErrAlreadyInTimeout    = &Error{Code: CodeAlreadyInTimeout}
	ErrNotInRefTimeout     = &Error{Code: CodeNotInRefTimeout}
	ErrNotInPenaltyShot    = &Error{Code: CodeNotInPenaltyShot}
	ErrNotInTeamTimeout    = &Error{Code: CodeNotInTeamTimeout}
	ErrNotInTimeout        = &Error{Code: CodeNotInTimeout}
	ErrNeedsUpdate         = &Error{Code: CodeNeedsUpdate}
	ErrInvalidNowValue     = &Error{Code: CodeInvalidNowValue}
	ErrAlreadyInPlayPeriod = &Error{Code: CodeAlreadyInPlayPeriod}
	ErrGameInProgress      = &Error{Code: CodeGameInProgress}
	ErrTooManyPenalties    = &Error{Code: CodeTooManyPenalties}
	ErrInvalidPenIndex     = &Error{Code: CodeInvalidPenIndex}
	ErrInvalidWarnIndex    = &Error{Code: CodeInvalidWarnIndex}
	ErrInvalidFoulIndex    = &Error{Code: CodeInvalidFoulIndex}
	ErrInvalidState        = &Error{Code: CodeInvalidState}
	ErrNoNextGameInfo      = &Error{Code: CodeNoNextGameInfo}
	ErrPenalty             = &Error{Code: CodePenaltyError}
	ErrNotPaused           = &Error{Code: CodeNotPaused}
	ErrAlreadyPaused       = &Error{Code: CodeAlreadyPaused}
)

func (e *Error) Error() string {
	switch e.Code {
	case CodeClockIsRunning:
		return "Can't edit clock time while clock is running"
	case CodeWrongGamePeriod:
		return fmt.Sprintf("Can't start a %s during %s", e.Timeout, e.Period)
	case CodeTooManyTeamTimeouts:
		return fmt.Sprintf("The %s team has no more timeouts to use", e.Color)
	case CodeAlreadyInTimeout:
		return fmt.Sprintf("Already in a %s", e.Timeout)
	case CodeNotInRefTimeout:
		return "Can only switch to Penalty Shot from Ref Timeout"
	case CodeNotInPenaltyShot:
		return "Can only switch to Ref Timeout from Penalty Shot"
	case CodeNotInTeamTimeout:
		return fmt.Sprintf("Can only switch to %s Timeout from another team Timeout", e.Color)
	case CodeNotInTimeout:
		return "Need to be in a timeout to end it"
	case CodeNeedsUpdate:
		return "Update needs to be called before this action can be performed"
	case CodeInvalidNowValue:
		return "The now value passed is not valid"
	case CodeAlreadyInPlayPeriod:
		return "Can't 'start now' when in a play period"
	case CodeGameInProgress:
		return "Action impossible unless in BetweenGames period"
	case CodeTooManyPenalties:
		return fmt.Sprintf("Too many active penalties, can't limit list to %d values", e.Limit)
	case CodeInvalidPenIndex:
		return fmt.Sprintf("No %s penalty exists at the index %d", e.Color, e.Index)
	case CodeInvalidWarnIndex:
		return fmt.Sprintf("No %s warning exists at the index %d", e.Color, e.Index)
	case CodeInvalidFoulIndex:
		return fmt.Sprintf("No %s foul exists at the index %d", e.Color, e.Index)
	case CodeInvalidState:
		return "Can't perform this action from the current state"
	case CodeNoNextGameInfo:
		return "Next Game Info is needed to perform this action"
	case CodePenaltyError:
		return fmt.Sprintf("Penalty error: %v", e.Err)
	case CodeNotPaused:
		return "Not paused for score confirmation"
	case CodeAlreadyPaused:
		return "Already paused for score confirmation"
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode) *Error {
	return &Error{Code: code}
}

func wrongPeriodError(ts models.TimeoutSnapshot, period models.GamePeriod) *Error {
	return &Error{Code: CodeWrongGamePeriod, Timeout: ts, Period: period}
}

func alreadyInTimeoutError(ts models.TimeoutSnapshot) *Error {
	return &Error{Code: CodeAlreadyInTimeout, Timeout: ts}
}

func colorError(code ErrorCode, c models.Color) *Error {
	return &Error{Code: code, Color: models.ColorOpt(c)}
}

func indexError(code ErrorCode, bucket models.OptColor, index int) *Error {
	return &Error{Code: code, Color: bucket, Index: index}
}

func penaltyError(err error) *Error {
	return &Error{Code: CodePenaltyError, Err: err}
}

// PenaltyError describes a failure in penalty time arithmetic.
type PenaltyError string

const (
	PenaltyConversionFailed PenaltyError = "a duration could not be converted"
	PenaltyDurationOverflow PenaltyError = "duration overflow"
	PenaltySnapshotOverflow PenaltyError = "a penalty snapshot overflowed the maximum value of a u16"
	PenaltyNoDuration       PenaltyError = "a total dismissal penalty does not have a duration"
)

func (e PenaltyError) Error() string {
	return string(e)
}
