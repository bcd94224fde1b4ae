// Package gpio provides button inputs and relay/LED outputs with hardware abstraction.
// The real implementation uses Linux GPIO character device.
// The fake implementation allows testing without hardware.
package gpio

// Reader reads the front-panel buttons.
type Reader interface {
	// Read returns the logical states of the override and mode buttons.
	// Buttons are wired active-low: raw 0 = logical pressed.
	// Returns (overridePressed, modePressed, error).
	Read() (bool, bool, error)

	// Close releases GPIO resources.
	Close() error
}

// Output identifies a driven line.
type Output int

const (
	Relay Output = iota
	StateLED
	ModeLED
	HeartbeatLED
)

// Outputs lists every output in a stable order.
var Outputs = []Output{Relay, StateLED, ModeLED, HeartbeatLED}

func (o Output) String() string {
	switch o {
	case Relay:
		return "relay"
	case StateLED:
		return "state-led"
	case ModeLED:
		return "mode-led"
	case HeartbeatLED:
		return "heartbeat-led"
	default:
		return "unknown"
	}
}

// Writer drives the relay and indicator LEDs.
type Writer interface {
	// Set drives out to on (high) or off (low).
	Set(out Output, on bool) error

	// Close drives all outputs low and releases GPIO resources.
	Close() error
}

// Unused marks a pin that is not wired.
const Unused = -1

// Pins holds BCM line offsets.
type Pins struct {
	Chip           string
	OverrideButton int
	ModeButton     int
	Relay          int
	StateLED       int
	ModeLED        int
	HeartbeatLED   int
}

// DefaultPins returns the wiring of the reference board.
func DefaultPins() Pins {
	return Pins{
		Chip:           "gpiochip0",
		OverrideButton: 17,
		ModeButton:     27,
		Relay:          22,
		StateLED:       23,
		ModeLED:        24,
		HeartbeatLED:   25,
	}
}

// Offset returns the line offset wired to out.
func (p Pins) Offset(out Output) int {
	switch out {
	case Relay:
		return p.Relay
	case StateLED:
		return p.StateLED
	case ModeLED:
		return p.ModeLED
	case HeartbeatLED:
		return p.HeartbeatLED
	default:
		return Unused
	}
}
