package editor

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mcdev12/refbox/go/internal/tournament"
)

var ErrUnknownBucket = errors.New("unknown bucket")

// Backend binds an Editor to one of the manager's lists.
type Backend[I any, K comparable] interface {
	// List names the item kind in errors and logs, e.g. "penalty".
	List() string
	Buckets() []K
	BucketName(bucket K) string
	Items(m *tournament.Manager, bucket K) []I
	// Merge copies the editable fields of fields onto a committed item.
	Merge(committed, fields I) I
	Add(m *tournament.Manager, bucket K, item I, now time.Time) error
	Edit(m *tournament.Manager, oldBucket K, index int, newBucket K, item I) error
	Delete(m *tournament.Manager, bucket K, index int) error
	// Limit trims the committed bucket, reporting whether it is still too long.
	Limit(m *tournament.Manager, bucket K, now time.Time) (bool, error)
	Line(m *tournament.Manager, item I, now time.Time) (string, bool)
	PendingLine(item I) string
}

// Editor stages changes to one manager list so an operator can edit it without
// holding the manager lock. Only StartSession, PrintableLists and ApplyChanges
// take the lock.
type Editor[I any, K comparable] struct {
	mu      sync.Mutex
	shared  *tournament.Shared
	backend Backend[I, K]
	lists   map[K][]entry[I, K]
	session bool
}

func New[I any, K comparable](shared *tournament.Shared, backend Backend[I, K]) *Editor[I, K] {
	return &Editor[I, K]{
		shared:  shared,
		backend: backend,
		lists:   make(map[K][]entry[I, K]),
	}
}

func (e *Editor[I, K]) InSession() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session
}

// StartSession snapshots the committed lists.
func (e *Editor[I, K]) StartSession() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session {
		return ErrExistingSession
	}

	lists := make(map[K][]entry[I, K])
	err := e.shared.With(func(m *tournament.Manager) error {
		for _, b := range e.backend.Buckets() {
			items := e.backend.Items(m, b)
			staged := make([]entry[I, K], 0, len(items))
			for i, it := range items {
				staged = append(staged, entry[I, K]{tag: tagOriginal, origin: origin[K]{bucket: b, index: i}, item: it})
			}
			lists[b] = staged
		}
		return nil
	})
	if err != nil {
		return err
	}

	e.lists = lists
	e.session = true
	log.Debug().Str("list", e.backend.List()).Msg("Edit session started")
	return nil
}

func (e *Editor[I, K]) AddItem(bucket K, item I) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session {
		return ErrNotInSession
	}
	staged, ok := e.lists[bucket]
	if !ok {
		return ErrUnknownBucket
	}
	e.lists[bucket] = append(staged, entry[I, K]{tag: tagNew, item: item})
	return nil
}

func (e *Editor[I, K]) GetItem(bucket K, index int) (Details[I, K], error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, err := e.entryAt(bucket, index)
	if err != nil {
		return Details[I, K]{}, err
	}
	return Details[I, K]{Bucket: bucket, Item: en.item, Hint: en.tag.hint()}, nil
}

// DeleteItem marks a committed entry deleted and drops a new one outright.
func (e *Editor[I, K]) DeleteItem(bucket K, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, err := e.entryAt(bucket, index)
	if err != nil {
		return err
	}
	if !en.hasOrigin() {
		e.lists[bucket] = slices.Delete(e.lists[bucket], index, index+1)
		return nil
	}
	en.tag = tagDeleted
	return nil
}

// EditItem replaces the editable fields of an entry. Editing a deleted entry
// revives it. A bucket change moves the entry to the end of the new bucket.
func (e *Editor[I, K]) EditItem(oldBucket K, index int, newBucket K, fields I) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	en, err := e.entryAt(oldBucket, index)
	if err != nil {
		return err
	}
	if _, ok := e.lists[newBucket]; !ok {
		return ErrUnknownBucket
	}

	if en.hasOrigin() {
		en.item = e.backend.Merge(en.item, fields)
		en.tag = tagEdited
	} else {
		en.item = fields
	}

	if oldBucket != newBucket {
		moved := *en
		e.lists[oldBucket] = slices.Delete(e.lists[oldBucket], index, index+1)
		e.lists[newBucket] = append(e.lists[newBucket], moved)
	}
	return nil
}

// PrintableLists renders the staged lists with committed times computed at now.
func (e *Editor[I, K]) PrintableLists(now time.Time) (map[K][]Line, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session {
		return nil, ErrNotInSession
	}

	out := make(map[K][]Line, len(e.lists))
	err := e.shared.With(func(m *tournament.Manager) error {
		for _, b := range e.backend.Buckets() {
			lines := make([]Line, 0, len(e.lists[b]))
			for _, en := range e.lists[b] {
				text := e.backend.PendingLine(en.item)
				if en.hasOrigin() {
					var ok bool
					if text, ok = e.backend.Line(m, en.item, now); !ok {
						return ErrInvalidNowValue
					}
				}
				lines = append(lines, Line{Text: text, Hint: en.tag.hint()})
			}
			out[b] = lines
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

type stagedChange[I any, K comparable] struct {
	entry[I, K]
	bucket K
}

// ApplyChanges commits the session in one lock acquisition: edits and deletes
// in descending original index order, then additions, then list limiting. The
// session ends whatever the outcome and nothing applied is rolled back.
func (e *Editor[I, K]) ApplyChanges(now time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.session {
		return ErrNotInSession
	}
	defer e.reset()

	var modified, added []stagedChange[I, K]
	for _, b := range e.backend.Buckets() {
		for _, en := range e.lists[b] {
			switch en.tag {
			case tagEdited, tagDeleted:
				modified = append(modified, stagedChange[I, K]{entry: en, bucket: b})
			case tagNew:
				added = append(added, stagedChange[I, K]{entry: en, bucket: b})
			}
		}
	}
	sort.SliceStable(modified, func(i, j int) bool {
		return modified[i].origin.index > modified[j].origin.index
	})

	var tooLong []string
	err := e.shared.With(func(m *tournament.Manager) error {
		for _, c := range modified {
			var err error
			if c.tag == tagDeleted {
				err = e.backend.Delete(m, c.origin.bucket, c.origin.index)
			} else {
				err = e.backend.Edit(m, c.origin.bucket, c.origin.index, c.bucket, c.item)
			}
			if err != nil {
				return fmt.Errorf("failed to apply %s change: %w", e.backend.List(), err)
			}
		}

		for _, c := range added {
			if err := e.backend.Add(m, c.bucket, c.item, now); err != nil {
				return fmt.Errorf("failed to add %s: %w", e.backend.List(), err)
			}
		}

		for _, b := range e.backend.Buckets() {
			over, err := e.backend.Limit(m, b, now)
			if err != nil {
				return fmt.Errorf("failed to limit %s list: %w", e.backend.List(), err)
			}
			if over {
				tooLong = append(tooLong, e.backend.BucketName(b))
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("list", e.backend.List()).
		Int("changed", len(modified)).
		Int("added", len(added)).
		Msg("Applied list changes")

	if len(tooLong) > 0 {
		return &ListTooLongError{List: e.backend.List(), Buckets: tooLong}
	}
	return nil
}

// AbortSession drops all staged changes.
func (e *Editor[I, K]) AbortSession() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.reset()
}

func (e *Editor[I, K]) reset() {
	e.lists = make(map[K][]entry[I, K])
	e.session = false
}

func (e *Editor[I, K]) entryAt(bucket K, index int) (*entry[I, K], error) {
	if !e.session {
		return nil, ErrNotInSession
	}
	staged := e.lists[bucket]
	if index < 0 || index >= len(staged) {
		return nil, &InvalidIndexError{List: e.backend.List(), Bucket: e.backend.BucketName(bucket), Index: index}
	}
	return &staged[index], nil
}
