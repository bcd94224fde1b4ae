package gpio

import "errors"

// FakeReader is a test double that returns scripted button values.
type FakeReader struct {
	// Samples contains scripted button values to return.
	// Each call to Read() consumes the next sample.
	Samples []Sample

	// index tracks current position in Samples
	index int

	// Closed tracks if Close was called
	Closed bool

	// ReadError, if set, will be returned by Read()
	ReadError error
}

// Sample represents a single button reading (already in logical form).
type Sample struct {
	Override bool // true = pressed
	Mode     bool // true = pressed
}

// NewFakeReader creates a FakeReader with the given samples.
func NewFakeReader(samples []Sample) *FakeReader {
	return &FakeReader{Samples: samples}
}

// Read returns the next scripted sample.
// If samples are exhausted, returns the last sample repeatedly.
func (f *FakeReader) Read() (bool, bool, error) {
	if f.ReadError != nil {
		return false, false, f.ReadError
	}

	if len(f.Samples) == 0 {
		return false, false, errors.New("no samples configured")
	}

	sample := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	return sample.Override, sample.Mode, nil
}

// Close marks the reader as closed.
func (f *FakeReader) Close() error {
	f.Closed = true
	return nil
}

// Reset resets the reader to the beginning of samples.
func (f *FakeReader) Reset() {
	f.index = 0
	f.Closed = false
}

// Write records a single Set call.
type Write struct {
	Output Output
	On     bool
}

// FakeWriter records output writes for test assertions.
type FakeWriter struct {
	// Writes contains every successful Set call in order.
	Writes []Write

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool

	state map[Output]bool
}

// NewFakeWriter creates a FakeWriter with all outputs low.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{state: make(map[Output]bool)}
}

// Set records the write.
func (f *FakeWriter) Set(out Output, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Writes = append(f.Writes, Write{Output: out, On: on})
	f.state[out] = on
	return nil
}

// State returns the last value written to out.
func (f *FakeWriter) State(out Output) bool {
	return f.state[out]
}

// WritesTo returns the values written to out, in order.
func (f *FakeWriter) WritesTo(out Output) []bool {
	var vals []bool
	for _, w := range f.Writes {
		if w.Output == out {
			vals = append(vals, w.On)
		}
	}
	return vals
}

// Close drives all outputs low and marks the writer closed.
func (f *FakeWriter) Close() error {
	for out := range f.state {
		f.state[out] = false
	}
	f.Closed = true
	return nil
}

// Reset clears recorded writes.
func (f *FakeWriter) Reset() {
	f.Writes = nil
	f.SetError = nil
	f.Closed = false
	f.state = make(map[Output]bool)
}
