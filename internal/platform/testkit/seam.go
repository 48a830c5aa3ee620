package testkit

import (
	"sync"
	"testing"
	"time"
)

var seamMu sync.Mutex

// Swap replaces a package-level seam (pg.newPool, swaggerkit mutators and the like)
// for the duration of the test and restores it on cleanup
func Swap[T any](t *testing.T, target *T, replacement T) {
	t.Helper()
	orig := *target
	*target = replacement
	t.Cleanup(func() { *target = orig })
}

// Serial holds a global lock for the rest of the test. Tests that Swap a
// seam or touch the default prometheus registry take it
func Serial(t *testing.T) {
	t.Helper()
	seamMu.Lock()
	t.Cleanup(func() { seamMu.Unlock() })
}

// Clock is a settable clock for expiry tests. It satisfies the services'
// Clock interface so one instance can drive both the sweeper and the
// listings service across an expiry boundary
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a Clock at at, normalized to UTC
func NewClock(at time.Time) *Clock { return &Clock{now: at.UTC()} }

// Now reports the current setting
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d and returns the new time
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}
