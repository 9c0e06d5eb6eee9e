package testutil

import (
	"sync"
	"time"
)

// Clock yields strictly increasing logical timestamps from a fixed epoch,
// so the same test scenario replays with identical record ordering every
// run.
//
// Thread-safety: all methods are safe for concurrent use via internal
// mutex.
type Clock struct {
	mu   sync.Mutex
	base time.Time
	step time.Duration
	n    int
}

// NewClock creates a clock starting at 2026-01-02T00:00:00Z advancing one
// minute per call.
func NewClock() *Clock {
	return &Clock{
		base: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		step: time.Minute,
	}
}

// Now returns the next timestamp and advances the clock.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.base.Add(time.Duration(c.n) * c.step)
	c.n++
	return t
}

// At returns the timestamp of tick i without advancing.
func (c *Clock) At(i int) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.base.Add(time.Duration(i) * c.step)
}

// Reset rewinds the clock for test reuse.
func (c *Clock) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n = 0
}
