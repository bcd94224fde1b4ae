package mqtt

import (
	"github.com/sweeney/appliance-timer/internal/control"
)

// FakePublisher is an in-memory Publisher. Each accepted event is kept
// next to the payload the real publisher would have sent for it.
type FakePublisher struct {
	Events   []control.Event
	Payloads [][]byte

	SystemEvents   []SystemEvent
	SystemPayloads [][]byte

	// Set to make the matching call fail without recording.
	PublishError       error
	PublishSystemError error

	Connected bool
	Closed    bool

	// CommandCh backs Commands.
	CommandCh chan control.Command
}

func NewFakePublisher() *FakePublisher {
	return &FakePublisher{CommandCh: make(chan control.Command)}
}

func (f *FakePublisher) Publish(event control.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	payload, err := FormatPayload(event)
	if err != nil {
		return err
	}
	f.Events = append(f.Events, event)
	f.Payloads = append(f.Payloads, payload)
	return nil
}

func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishSystemError != nil {
		return f.PublishSystemError
	}
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.SystemEvents = append(f.SystemEvents, event)
	f.SystemPayloads = append(f.SystemPayloads, payload)
	return nil
}

func (f *FakePublisher) Commands() <-chan control.Command { return f.CommandCh }

func (f *FakePublisher) IsConnected() bool { return f.Connected }

func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// Reset returns f to its freshly constructed state, keeping CommandCh.
func (f *FakePublisher) Reset() {
	*f = FakePublisher{CommandCh: f.CommandCh}
}
