//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealReader reads buttons from actual hardware using Linux GPIO character device.
type RealReader struct {
	chip        *gpiocdev.Chip
	overridePin *gpiocdev.Line
	modePin     *gpiocdev.Line
}

// NewRealReader requests the button lines as inputs with pull-up.
func NewRealReader(pins Pins) (*RealReader, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	// Buttons short the line to ground when pressed.
	overrideLine, err := chip.RequestLine(pins.OverrideButton, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request override button pin %d: %w", pins.OverrideButton, err)
	}

	modeLine, err := chip.RequestLine(pins.ModeButton, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		overrideLine.Close()
		chip.Close()
		return nil, fmt.Errorf("request mode button pin %d: %w", pins.ModeButton, err)
	}

	return &RealReader{
		chip:        chip,
		overridePin: overrideLine,
		modePin:     modeLine,
	}, nil
}

// Read returns the logical button states.
// Inverts raw GPIO: raw 0 = pressed, raw 1 = released.
func (r *RealReader) Read() (bool, bool, error) {
	overrideRaw, err := r.overridePin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read override button: %w", err)
	}

	modeRaw, err := r.modePin.Value()
	if err != nil {
		return false, false, fmt.Errorf("read mode button: %w", err)
	}

	return overrideRaw == 0, modeRaw == 0, nil
}

// Close releases GPIO resources.
// Reconfigures pins to input with pull-down (matching Pi boot defaults) before
// closing to ensure clean state for system shutdown/reboot.
func (r *RealReader) Close() error {
	var errs []error
	for name, line := range map[string]*gpiocdev.Line{"override": r.overridePin, "mode": r.modePin} {
		if line == nil {
			continue
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s pin: %w", name, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", name, err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// RealWriter drives the relay and LEDs.
type RealWriter struct {
	chip  *gpiocdev.Chip
	lines map[Output]*gpiocdev.Line
}

// NewRealWriter requests every wired output line, initially low.
// Outputs with pin Unused are skipped and Set on them is a no-op.
func NewRealWriter(pins Pins) (*RealWriter, error) {
	chip, err := gpiocdev.NewChip(pins.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	w := &RealWriter{chip: chip, lines: make(map[Output]*gpiocdev.Line)}
	for _, out := range Outputs {
		offset := pins.Offset(out)
		if offset == Unused {
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0))
		if err != nil {
			w.Close()
			return nil, fmt.Errorf("request %s pin %d: %w", out, offset, err)
		}
		w.lines[out] = line
	}
	return w, nil
}

// Set drives out high when on.
func (w *RealWriter) Set(out Output, on bool) error {
	line, ok := w.lines[out]
	if !ok {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("set %s: %w", out, err)
	}
	return nil
}

// Close drives every output low (relay open) and returns the lines to inputs
// with pull-down before releasing them.
func (w *RealWriter) Close() error {
	var errs []error
	for _, out := range Outputs {
		line, ok := w.lines[out]
		if !ok {
			continue
		}
		if err := line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear %s: %w", out, err))
		}
		if err := line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure %s: %w", out, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", out, err))
		}
		delete(w.lines, out)
	}
	if w.chip != nil {
		if err := w.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		w.chip = nil
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
