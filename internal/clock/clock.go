// Package clock provides the time source for the control loop.
// Use Real for production and Mock for testing.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Clock is the single source of "now" for the control loop.
type Clock interface {
	Now() time.Time
}

// Real reads the system clock plus a calibration offset. The offset is kept in
// an atomic because the minute ticker reads it from the cron goroutine.
type Real struct {
	offset atomic.Int64
}

// NewReal creates a Real clock with no offset.
func NewReal() *Real {
	return &Real{}
}

// Now returns the calibrated current time.
func (c *Real) Now() time.Time {
	return time.Now().Add(time.Duration(c.offset.Load()))
}

// Adjust adds d to the calibration offset and returns the new offset.
func (c *Real) Adjust(d time.Duration) time.Duration {
	return time.Duration(c.offset.Add(int64(d)))
}

// Offset returns the calibration offset.
func (c *Real) Offset() time.Duration {
	return time.Duration(c.offset.Load())
}

// Mock is a Clock whose time only moves when told to.
type Mock struct {
	mu      sync.Mutex
	current time.Time
}

// NewMock creates a Mock starting at start.
func NewMock(start time.Time) *Mock {
	return &Mock{current: start}
}

// Now returns the mock current time.
func (c *Mock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Advance moves the mock clock forward by d.
func (c *Mock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	c.mu.Unlock()
}

// Set sets the mock clock to t.
func (c *Mock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}
