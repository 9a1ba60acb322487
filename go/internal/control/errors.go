package control

import (
	"errors"

	"connectrpc.com/connect"

	"github.com/mcdev12/refbox/go/internal/editor"
	"github.com/mcdev12/refbox/go/internal/stats"
	"github.com/mcdev12/refbox/go/internal/tournament"
)

// errBadRequest marks request validation failures.
var errBadRequest = errors.New("bad request")

// toConnectError maps domain errors onto Connect codes. Errors that already
// carry a code pass through.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}

	var cerr *connect.Error
	if errors.As(err, &cerr) {
		return err
	}
	return connect.NewError(codeFor(err), err)
}

func codeFor(err error) connect.Code {
	var terr *tournament.Error
	if errors.As(err, &terr) {
		switch terr.Code {
		case tournament.CodeInvalidPenIndex, tournament.CodeInvalidWarnIndex,
			tournament.CodeInvalidFoulIndex, tournament.CodeNoNextGameInfo:
			return connect.CodeNotFound
		case tournament.CodeTooManyTeamTimeouts, tournament.CodeTooManyPenalties:
			return connect.CodeResourceExhausted
		case tournament.CodeInvalidNowValue:
			return connect.CodeInvalidArgument
		case tournament.CodePenaltyError:
			return connect.CodeInternal
		default:
			return connect.CodeFailedPrecondition
		}
	}

	var indexErr *editor.InvalidIndexError
	var tooLong *editor.ListTooLongError
	switch {
	case errors.As(err, &indexErr), errors.Is(err, stats.ErrNotFound):
		return connect.CodeNotFound
	case errors.As(err, &tooLong):
		return connect.CodeResourceExhausted
	case errors.Is(err, editor.ErrExistingSession), errors.Is(err, editor.ErrNotInSession):
		return connect.CodeFailedPrecondition
	case errors.Is(err, errBadRequest), errors.Is(err, editor.ErrUnknownBucket), errors.Is(err, editor.ErrInvalidNowValue):
		return connect.CodeInvalidArgument
	default:
		return connect.CodeInternal
	}
}
