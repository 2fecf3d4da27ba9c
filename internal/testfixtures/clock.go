package testfixtures

import (
	"sync"
	"time"
)

// Clock is a manually driven time source. Services take its Now method in
// place of time.Now so session expiry and renewal can be stepped through.
type Clock struct {
	mu  sync.RWMutex
	now time.Time
}

// NewClock starts at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new instant.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

// At returns hour:minute on the clock's current day in loc. The clock itself
// is not moved.
func (c *Clock) At(loc *time.Location, hour, minute int) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	day := c.Now().In(loc)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, loc)
}
