package button

import "time"

// Detector turns raw button samples into debounced presses.
type Detector struct {
	debounceDuration time.Duration
	override         channelState
	mode             channelState
	baselined        bool
	counts           Counts
}

// NewDetector creates a detector with the given debounce duration.
func NewDetector(debounceDuration time.Duration) *Detector {
	return &Detector{debounceDuration: debounceDuration}
}

// Process takes a new input sample and returns any presses that completed.
// Nothing is returned until both buttons have a baseline, so a button held
// during startup does not count as a press.
func (d *Detector) Process(input Input) []Press {
	overridePressed := d.processChannel(&d.override, toState(input.Override), input.Time)
	modePressed := d.processChannel(&d.mode, toState(input.Mode), input.Time)

	if !d.baselined {
		if d.override.baselined && d.mode.baselined {
			d.baselined = true
		}
		return nil
	}

	// Order: override first, then mode if both complete on the same sample
	var presses []Press
	if overridePressed {
		d.counts.Override++
		presses = append(presses, Press{Timestamp: input.Time, Button: Override})
	}
	if modePressed {
		d.counts.Mode++
		presses = append(presses, Press{Timestamp: input.Time, Button: Mode})
	}
	return presses
}

// processChannel handles debounce logic for a single button.
// Returns true when a debounced press completed on this sample.
func (d *Detector) processChannel(ch *channelState, newState State, now time.Time) bool {
	if !ch.baselined {
		if ch.pending != newState {
			// first sample, or state changed during baseline: restart
			ch.pending = newState
			ch.pendingSince = now
			return false
		}
		if now.Sub(ch.pendingSince) >= d.debounceDuration {
			ch.stable = newState
			ch.baselined = true
			ch.pending = ""
		}
		return false
	}

	if newState == ch.stable {
		ch.pending = ""
		return false
	}

	if ch.pending != newState {
		ch.pending = newState
		ch.pendingSince = now
		return false
	}

	if now.Sub(ch.pendingSince) >= d.debounceDuration {
		ch.stable = newState
		ch.pending = ""
		return newState == StatePressed
	}
	return false
}

func toState(pressed bool) State {
	if pressed {
		return StatePressed
	}
	return StateReleased
}

// IsBaselined returns whether both buttons have a baseline.
func (d *Detector) IsBaselined() bool {
	return d.baselined
}

// CurrentState returns the debounced button states.
func (d *Detector) CurrentState() (override State, mode State) {
	return d.override.stable, d.mode.stable
}

// Counts returns the number of presses seen since startup.
func (d *Detector) Counts() Counts {
	return d.counts
}
