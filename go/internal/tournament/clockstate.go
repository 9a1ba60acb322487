package tournament

import (
	"fmt"
	"time"

	"github.com/mcdev12/refbox/go/internal/models"
)

type clockMode int

const (
	clockStopped clockMode = iota
	clockCountingDown
	clockCountingUp
)

// ClockState is a game or timeout clock. A running clock is anchored to the
// instant it started and the value it showed then.
type ClockState struct {
	mode  clockMode
	start time.Time
	base  time.Duration
}

// Stopped returns a clock frozen at clockTime.
func Stopped(clockTime time.Duration) ClockState {
	return ClockState{mode: clockStopped, base: clockTime}
}

// CountingDown returns a clock that started at start showing remaining.
func CountingDown(start time.Time, remaining time.Duration) ClockState {
	return ClockState{mode: clockCountingDown, start: start, base: remaining}
}

// CountingUp returns a clock that started at start showing atStart.
func CountingUp(start time.Time, atStart time.Duration) ClockState {
	return ClockState{mode: clockCountingUp, start: start, base: atStart}
}

func (c ClockState) IsRunning() bool {
	return c.mode != clockStopped
}

func (c ClockState) IsStopped() bool {
	return c.mode == clockStopped
}

func (c ClockState) IsCountingDown() bool {
	return c.mode == clockCountingDown
}

func (c ClockState) IsCountingUp() bool {
	return c.mode == clockCountingUp
}

// Start is the anchor instant of a running clock.
func (c ClockState) Start() time.Time {
	return c.start
}

// Base is the stopped value, the remaining time at start, or the value at start.
func (c ClockState) Base() time.Duration {
	return c.base
}

// ClockTime returns the displayed value at now. It is undefined before the start
// of a running clock and after a countdown passes zero.
func (c ClockState) ClockTime(now time.Time) (time.Duration, bool) {
	switch c.mode {
	case clockCountingDown:
		if now.Before(c.start) {
			return 0, false
		}
		elapsed := now.Sub(c.start)
		if elapsed > c.base {
			return 0, false
		}
		return c.base - elapsed, true
	case clockCountingUp:
		if now.Before(c.start) {
			return 0, false
		}
		return now.Sub(c.start) + c.base, true
	default:
		return c.base, true
	}
}

// shifted moves a running clock's anchor d later, so the span it skips is not
// counted. A stopped clock is unchanged.
func (c ClockState) shifted(d time.Duration) ClockState {
	if c.IsRunning() {
		c.start = c.start.Add(d)
	}
	return c
}

// end is the instant a countdown reaches zero.
func (c ClockState) end() time.Time {
	return c.start.Add(c.base)
}

func (c ClockState) secs(now time.Time) uint16 {
	d, ok := c.ClockTime(now)
	if !ok {
		return models.UndefinedSecs
	}
	s := int64(d / time.Second)
	if s > int64(models.UndefinedSecs) {
		return models.UndefinedSecs
	}
	return uint16(s)
}

func (c ClockState) String() string {
	switch c.mode {
	case clockCountingDown:
		return fmt.Sprintf("CountingDown{start: %s, remaining: %s}", c.start.Format(time.RFC3339Nano), c.base)
	case clockCountingUp:
		return fmt.Sprintf("CountingUp{start: %s, at_start: %s}", c.start.Format(time.RFC3339Nano), c.base)
	default:
		return fmt.Sprintf("Stopped{%s}", c.base)
	}
}
