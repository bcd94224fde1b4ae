// Package mqtt provides MQTT publishing and command subscription with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/sweeney/appliance-timer/internal/control"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "home/appliance/timer"

// Topics holds the topic names derived from a prefix.
type Topics struct {
	Events  string // output state changes
	System  string // lifecycle events
	Command string // inbound commands
}

// TopicsFor derives the topic set from prefix.
func TopicsFor(prefix string) Topics {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{
		Events:  prefix + "/events",
		System:  prefix + "/system",
		Command: prefix + "/command",
	}
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends an output event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event control.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandSource delivers commands received on the command topic.
type CommandSource interface {
	Commands() <-chan control.Command
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Timer TimerPayload `json:"timer"`
}

// TimerPayload contains the output event details.
type TimerPayload struct {
	Timestamp string        `json:"timestamp"`
	Event     string        `json:"event"`
	Cause     string        `json:"cause"`
	State     string        `json:"state"`
	Mode      string        `json:"mode"`
	Entry     *EntryPayload `json:"entry,omitempty"`
}

// EntryPayload describes the schedule entry in effect.
type EntryPayload struct {
	Index int    `json:"index"`
	Time  string `json:"time"`
	State string `json:"state"`
}

// EventName returns the event name for a delivered state, e.g. "OUTPUT_ON".
func EventName(state control.State) string {
	return "OUTPUT_" + string(state)
}

// FormatPayload creates the JSON payload for an output event.
func FormatPayload(event control.Event) ([]byte, error) {
	payload := Payload{
		Timer: TimerPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     EventName(event.State),
			Cause:     string(event.Cause),
			State:     string(event.State),
			Mode:      event.Mode.String(),
		},
	}
	if event.Index >= 0 {
		payload.Timer.Entry = &EntryPayload{
			Index: event.Index,
			Time:  event.Entry.Time.String(),
			State: string(control.StateOf(event.Entry.On)),
		}
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp,omitempty"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// FormatWillPayload creates the last-will payload the broker publishes if the
// connection drops without a clean disconnect.
func FormatWillPayload() []byte {
	data, _ := json.Marshal(SystemPayload{
		System: SystemPayloadInner{Event: "OFFLINE", Reason: "LWT"},
	})
	return data
}
