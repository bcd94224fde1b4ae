// Package control drives the relay from the schedule engine. It converts wall
// clock time to local time of day, turns engine callbacks into output writes,
// and reports every delivered state as an Event for publishing.
package control

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sweeney/appliance-timer/internal/schedule"
)

// State represents the logical state of the appliance output.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateOf converts an output value to a State.
func StateOf(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// Cause says which operation delivered a state.
type Cause string

const (
	CauseSchedule Cause = "SCHEDULE"
	CauseOverride Cause = "OVERRIDE"
	CauseMode     Cause = "MODE"
)

// Event represents a delivered output state to be published.
type Event struct {
	Timestamp time.Time
	Cause     Cause
	State     State
	Mode      schedule.Mode
	// Index of the active schedule entry, or -1 before the first evaluation
	// and after returning to automatic mode.
	Index int
	Entry schedule.Entry
}

// Counts tracks delivered states and user actions since startup.
type Counts struct {
	On          int
	Off         int
	Overrides   int
	ModeChanges int
}

// Command is a request to the control loop from a button, MQTT or HTTP.
type Command string

const (
	CommandOverride Command = "OVERRIDE"
	CommandMode     Command = "MODE"
	CommandEvaluate Command = "EVALUATE"
)

// ErrUnknownCommand is returned by ParseCommand.
var ErrUnknownCommand = errors.New("unknown command")

// ParseCommand parses a command name, case-insensitively.
func ParseCommand(s string) (Command, error) {
	switch c := Command(strings.ToUpper(strings.TrimSpace(s))); c {
	case CommandOverride, CommandMode, CommandEvaluate:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, s)
	}
}
