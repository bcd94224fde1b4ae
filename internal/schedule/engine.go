package schedule

import "fmt"

// Engine decides the output state for a time of day from a fixed daily schedule.
// The callback fires only when a different entry takes effect, on manual
// override, and on entry into Manual mode.
//
// Engine is not safe for concurrent use.
type Engine struct {
	entries  []Entry
	callback Callback
	active   int
	resolved int
	output   bool
	mode     Mode
}

// New creates an Engine in Automatic mode. The entries are copied.
func New(entries []Entry, cb Callback) (*Engine, error) {
	if err := Validate(entries); err != nil {
		return nil, err
	}
	if cb == nil {
		return nil, fmt.Errorf("%w: nil callback", ErrInvalidSchedule)
	}
	own := make([]Entry, len(entries))
	copy(own, entries)
	return &Engine{
		entries:  own,
		callback: cb,
		active:   none,
		resolved: none,
		mode:     Automatic,
	}, nil
}

// Resolve returns the index of the entry in effect at t: the last entry whose
// time is <= t, or the last entry overall when t is before the first one
// (yesterday's last entry carries past midnight).
func (e *Engine) Resolve(t TimeOfDay) int {
	last := len(e.entries) - 1
	if t < e.entries[0].Time || t >= e.entries[last].Time {
		return last
	}
	for i := last - 1; i >= 0; i-- {
		if t >= e.entries[i].Time {
			return i
		}
	}
	return last
}

// Evaluate resolves t against the schedule. In Automatic mode a change of
// entry updates the output and fires the callback; in Manual mode the result
// is only recorded. Returns the current output.
func (e *Engine) Evaluate(t TimeOfDay) (bool, error) {
	if !t.Valid() {
		return e.output, fmt.Errorf("%w: %d", ErrInvalidTimeOfDay, int(t))
	}
	i := e.Resolve(t)
	e.resolved = i
	if e.mode == Manual {
		return e.output, nil
	}
	if i != e.active {
		e.active = i
		e.output = e.entries[i].On
		e.callback(e.output)
	}
	return e.output, nil
}

// ToggleOverride inverts the output until the next entry takes effect.
func (e *Engine) ToggleOverride() bool {
	e.output = !e.output
	e.callback(e.output)
	return e.output
}

// ToggleMode switches between Automatic and Manual and runs the entry action
// of the new mode. After entering Automatic the caller must Evaluate the
// current time before relying on Output.
func (e *Engine) ToggleMode() Mode {
	if e.mode == Automatic {
		e.enter(Manual)
	} else {
		e.enter(Automatic)
	}
	return e.mode
}

func (e *Engine) enter(m Mode) {
	e.mode = m
	switch m {
	case Manual:
		e.output = false
		e.callback(false)
	case Automatic:
		// forget the active entry so the next Evaluate re-delivers the schedule
		e.active = none
	}
}

// Mode returns the current mode.
func (e *Engine) Mode() Mode { return e.mode }

// Output returns the last delivered output state.
func (e *Engine) Output() bool { return e.output }

// Active returns the index of the entry in effect, if any has been applied.
func (e *Engine) Active() (int, bool) {
	return e.active, e.active != none
}

// LastResolved returns the index found by the most recent Evaluate, or -1.
func (e *Engine) LastResolved() int { return e.resolved }

// Entries returns a copy of the schedule.
func (e *Engine) Entries() []Entry {
	out := make([]Entry, len(e.entries))
	copy(out, e.entries)
	return out
}

// Entry returns the entry at index i.
func (e *Engine) Entry(i int) Entry { return e.entries[i] }

// Len returns the number of entries.
func (e *Engine) Len() int { return len(e.entries) }
