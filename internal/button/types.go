// Package button debounces the two front-panel pushbuttons.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package button

import "time"

// State represents the debounced state of a button.
type State string

const (
	StatePressed  State = "PRESSED"
	StateReleased State = "RELEASED"
)

// Button identifies a physical button.
type Button string

const (
	Override Button = "OVERRIDE"
	Mode     Button = "MODE"
)

// Press is emitted once for each debounced released-to-pressed transition.
type Press struct {
	Timestamp time.Time
	Button    Button
}

// channelState tracks debounce state for a single button.
type channelState struct {
	// Current stable (debounced) state
	stable State
	// Pending state during debounce
	pending State
	// Time when pending state was first observed
	pendingSince time.Time
	// Whether we have established a baseline
	baselined bool
}

// Input represents a single sample of both buttons.
type Input struct {
	Override bool // true = pressed (already inverted from raw GPIO)
	Mode     bool
	Time     time.Time
}

// Counts tracks the number of presses since startup.
type Counts struct {
	Override int
	Mode     int
}
