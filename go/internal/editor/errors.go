package editor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExistingSession = errors.New("there is already a session in progress")
	ErrNotInSession    = errors.New("there is no session in progress")
	ErrInvalidNowValue = errors.New("the now value passed is not valid")
)

// InvalidIndexError is returned when no staged entry exists at an index.
type InvalidIndexError struct {
	List   string
	Bucket string
	Index  int
}

func (e *InvalidIndexError) Error() string {
	return fmt.Sprintf("No %s %s exists at the index %d", e.Bucket, e.List, e.Index)
}

// ListTooLongError reports the buckets still over their limit after a commit.
// Everything else in the batch has already been applied.
type ListTooLongError struct {
	List    string
	Buckets []string
}

func (e *ListTooLongError) Error() string {
	return fmt.Sprintf("The %s %s list(s) are too long", strings.Join(e.Buckets, " and "), e.List)
}
