package timectrl

import (
	"sync"
	"time"
)

// Clock is the time source the scheduler polls. It lets producer timing
// depend on an abstraction rather than the wall clock directly, so tests can
// drive the whole engine with a manual clock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time
}

// WallClock is the real time source used in normal runs.
type WallClock struct{}

// Now returns the current wall-clock time.
func (WallClock) Now() time.Time { return time.Now() }

// ManualClock is a Clock whose time only moves when told to. Tests advance
// it in fixed steps to make cadence behaviour deterministic.
type ManualClock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManualClock constructs a manual clock starting at the given time.
func NewManualClock(start time.Time) *ManualClock {
	return &ManualClock{now: start}
}

// Now returns the current manual time.
func (c *ManualClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time.
func (c *ManualClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// Set jumps the clock to the given time.
func (c *ManualClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
