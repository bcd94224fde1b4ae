// Package led drives the heartbeat LED blink pattern.
package led

import "time"

// Heartbeat toggles a state at a fixed interval. The next deadline advances by
// exactly one interval per toggle so the blink rate does not drift with a
// late poll.
type Heartbeat struct {
	interval   time.Duration
	lastChange time.Time
	state      bool
}

// NewHeartbeat creates a blinker that starts lit at start.
// An interval <= 0 disables blinking.
func NewHeartbeat(interval time.Duration, start time.Time) *Heartbeat {
	return &Heartbeat{
		interval:   interval,
		lastChange: start,
		state:      true,
	}
}

// Run returns whether the state changed at now, and the current state.
func (h *Heartbeat) Run(now time.Time) (changed bool, state bool) {
	if h.interval <= 0 {
		return false, h.state
	}
	if now.Sub(h.lastChange) >= h.interval {
		h.lastChange = h.lastChange.Add(h.interval)
		h.state = !h.state
		return true, h.state
	}
	return false, h.state
}

// State returns the current state.
func (h *Heartbeat) State() bool { return h.state }
