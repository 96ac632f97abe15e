// Package clock supplies the display timestamps stamped on history events.
//
// Timestamps are opaque strings to the rest of the system; the ledger never
// parses or orders by them. Tests inject Fixed or Step so that history and
// exports are byte-for-byte reproducible.
package clock

import (
	"sync"
	"time"
)

// DefaultLayout matches the "%Y-%m-%d %H:%M:%S" history format.
const DefaultLayout = "2006-01-02 15:04:05"

// Clock produces the timestamp for a new event.
type Clock interface {
	Now() string
}

// System formats the wall clock.
type System struct {
	Layout   string
	Location *time.Location
}

// NewSystem returns a wall clock using layout in local time, or UTC when
// utc is set. An empty layout means DefaultLayout.
func NewSystem(layout string, utc bool) System {
	if layout == "" {
		layout = DefaultLayout
	}
	loc := time.Local
	if utc {
		loc = time.UTC
	}
	return System{Layout: layout, Location: loc}
}

// Now implements Clock.
func (c System) Now() string {
	loc := c.Location
	if loc == nil {
		loc = time.Local
	}
	layout := c.Layout
	if layout == "" {
		layout = DefaultLayout
	}
	return time.Now().In(loc).Format(layout)
}

// Fixed always returns the same timestamp.
type Fixed string

// Now implements Clock.
func (c Fixed) Now() string {
	return string(c)
}

// Step is a deterministic clock: the n-th call to Now returns start + n*step.
//
// Thread-safety: all methods are safe for concurrent use.
type Step struct {
	mu     sync.Mutex
	start  time.Time
	step   time.Duration
	layout string
	n      int64
}

// NewStep creates a deterministic clock. The first call to Now returns start.
func NewStep(start time.Time, step time.Duration, layout string) *Step {
	if layout == "" {
		layout = DefaultLayout
	}
	return &Step{start: start, step: step, layout: layout}
}

// Now implements Clock.
func (c *Step) Now() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.start.Add(time.Duration(c.n) * c.step)
	c.n++
	return t.Format(c.layout)
}

// Calls returns how many timestamps have been issued.
func (c *Step) Calls() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// Reset rewinds the clock so the next Now returns start again.
func (c *Step) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
