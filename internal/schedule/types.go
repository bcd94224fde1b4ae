// Package schedule contains the daily schedule evaluation engine.
// This package has NO external dependencies (no GPIO, MQTT, OS, or clock reads).
// Time of day is always passed in by the caller.
package schedule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidSchedule is returned by New for empty or unsorted schedules.
	ErrInvalidSchedule = errors.New("invalid schedule")

	// ErrInvalidTimeOfDay is returned for values outside 00:00–23:59.
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)

// TimeOfDay is a local wall-clock time packed as HH*100+MM.
type TimeOfDay int

// TimeOfDayOf returns the time of day of t in t's location.
func TimeOfDayOf(t time.Time) TimeOfDay {
	return TimeOfDay(t.Hour()*100 + t.Minute())
}

// ParseTimeOfDay accepts "HH:MM", "H:MM" or "HHMM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.TrimSpace(s)
	var hh, mm string
	if i := strings.IndexByte(s, ':'); i >= 0 {
		hh, mm = s[:i], s[i+1:]
	} else if len(s) == 4 {
		hh, mm = s[:2], s[2:]
	} else {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	if len(hh) < 1 || len(hh) > 2 || len(mm) != 2 || !digits(hh) || !digits(mm) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	t := TimeOfDay(h*100 + m)
	if !t.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return t, nil
}

func digits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Valid reports whether t is within 00:00–23:59 with minutes below 60.
func (t TimeOfDay) Valid() bool {
	return t >= 0 && t <= 2359 && t%100 < 60
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 100 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 100 }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Entry is one schedule point: from Time onwards the output should be On.
type Entry struct {
	Time TimeOfDay
	On   bool
}

func (e Entry) String() string {
	if e.On {
		return e.Time.String() + " ON"
	}
	return e.Time.String() + " OFF"
}

// Mode selects whether the schedule drives the output.
type Mode uint8

const (
	Automatic Mode = iota
	Manual
)

func (m Mode) String() string {
	switch m {
	case Automatic:
		return "AUTOMATIC"
	case Manual:
		return "MANUAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText renders the mode for JSON payloads.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Callback receives the new output state. It runs synchronously and must not
// call back into the Engine.
type Callback func(on bool)

// none marks that no entry has been made active yet.
const none = -1

// Validate checks that entries is non-empty, every time is valid and the
// times are non-decreasing.
func Validate(entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalidSchedule)
	}
	for i, e := range entries {
		if !e.Time.Valid() {
			return fmt.Errorf("%w: entry %d: %w", ErrInvalidSchedule, i, ErrInvalidTimeOfDay)
		}
		if i > 0 && e.Time < entries[i-1].Time {
			return fmt.Errorf("%w: entry %d (%s) is earlier than entry %d (%s)",
				ErrInvalidSchedule, i, e.Time, i-1, entries[i-1].Time)
		}
	}
	return nil
}
