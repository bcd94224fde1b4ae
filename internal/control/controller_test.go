package control

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/schedule"
)

func referenceEntries() []schedule.Entry {
	return []schedule.Entry{
		{Time: 1400, On: false},
		{Time: 1900, On: true},
	}
}

// local returns a wall-clock time in loc on a fixed date.
func local(loc *time.Location, hour, min int) time.Time {
	return time.Date(2026, 6, 1, hour, min, 0, 0, loc)
}

func newController(t *testing.T) (*Controller, *gpio.FakeWriter) {
	t.Helper()
	w := gpio.NewFakeWriter()
	c, err := New(referenceEntries(), time.UTC, w, zap.NewNop())
	require.NoError(t, err)
	return c, w
}

func TestNewRejectsInvalidSchedule(t *testing.T) {
	_, err := New(nil, time.UTC, gpio.NewFakeWriter(), zap.NewNop())
	assert.True(t, errors.Is(err, schedule.ErrInvalidSchedule), "got %v", err)

	_, err = New([]schedule.Entry{{Time: 1900, On: true}, {Time: 1400}}, time.UTC, gpio.NewFakeWriter(), nil)
	assert.True(t, errors.Is(err, schedule.ErrInvalidSchedule), "got %v", err)
}

func TestNewClearsModeLED(t *testing.T) {
	c, w := newController(t)
	assert.Equal(t, []bool{false}, w.WritesTo(gpio.ModeLED))
	assert.False(t, c.Evaluated())
	assert.Equal(t, time.UTC, c.Location())
}

func TestFirstEvaluateDrivesOutputs(t *testing.T) {
	c, w := newController(t)
	now := local(time.UTC, 20, 0)

	events, err := c.Evaluate(now)
	require.NoError(t, err)
	require.Len(t, events, 1)

	e := events[0]
	assert.Equal(t, CauseSchedule, e.Cause)
	assert.Equal(t, StateOn, e.State)
	assert.Equal(t, schedule.Automatic, e.Mode)
	assert.Equal(t, 1, e.Index)
	assert.Equal(t, schedule.Entry{Time: 1900, On: true}, e.Entry)
	assert.True(t, e.Timestamp.Equal(now))

	assert.True(t, w.State(gpio.Relay))
	assert.True(t, w.State(gpio.StateLED))
	assert.True(t, c.Evaluated())
	assert.Equal(t, StateOn, c.Output())
}

func TestEvaluateUsesLocation(t *testing.T) {
	loc := time.FixedZone("EST", -5*3600)
	w := gpio.NewFakeWriter()
	c, err := New(referenceEntries(), loc, w, zap.NewNop())
	require.NoError(t, err)

	// 23:30 UTC is 18:30 EST: entry 0 (off)
	events, err := c.Evaluate(time.Date(2026, 6, 1, 23, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 0, events[0].Index)
	assert.Equal(t, StateOff, events[0].State)
}

func TestEvaluateNoEventWithoutChange(t *testing.T) {
	c, w := newController(t)
	c.Evaluate(local(time.UTC, 15, 0))
	w.Reset()

	events, err := c.Evaluate(local(time.UTC, 15, 1))
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, w.Writes)
}

func TestOverrideHoldsUntilNextEntry(t *testing.T) {
	c, w := newController(t)
	c.Evaluate(local(time.UTC, 15, 0))

	events := c.Override(local(time.UTC, 15, 0))
	require.Len(t, events, 1)
	assert.Equal(t, CauseOverride, events[0].Cause)
	assert.Equal(t, StateOn, events[0].State)
	assert.Equal(t, 0, events[0].Index)
	assert.True(t, w.State(gpio.Relay))

	events, _ = c.Evaluate(local(time.UTC, 16, 0))
	assert.Empty(t, events, "override must survive evaluations inside the same entry")
	assert.True(t, w.State(gpio.Relay))

	events, _ = c.Evaluate(local(time.UTC, 19, 0))
	require.Len(t, events, 1)
	assert.Equal(t, 1, events[0].Index)
	assert.Equal(t, StateOn, events[0].State)
}

func TestToggleModeManualForcesOff(t *testing.T) {
	c, w := newController(t)
	c.Evaluate(local(time.UTC, 20, 0))

	events, err := c.ToggleMode(local(time.UTC, 20, 5))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CauseMode, events[0].Cause)
	assert.Equal(t, StateOff, events[0].State)
	assert.Equal(t, schedule.Manual, events[0].Mode)

	assert.False(t, w.State(gpio.Relay))
	assert.True(t, w.State(gpio.ModeLED))
	assert.Equal(t, schedule.Manual, c.Mode())

	// schedule suppressed
	events, err = c.Evaluate(local(time.UTC, 14, 0))
	require.NoError(t, err)
	assert.Empty(t, events)
}

func TestToggleModeBackToAutomaticResumesSchedule(t *testing.T) {
	c, w := newController(t)
	c.Evaluate(local(time.UTC, 20, 0))
	c.ToggleMode(local(time.UTC, 20, 1))

	events, err := c.ToggleMode(local(time.UTC, 20, 2))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CauseMode, events[0].Cause)
	assert.Equal(t, StateOn, events[0].State)
	assert.Equal(t, schedule.Automatic, events[0].Mode)
	assert.Equal(t, 1, events[0].Index)

	assert.True(t, w.State(gpio.Relay))
	assert.False(t, w.State(gpio.ModeLED))
}

func TestHandleDispatch(t *testing.T) {
	c, _ := newController(t)
	now := local(time.UTC, 15, 0)

	events, err := c.Handle(CommandEvaluate, now)
	require.NoError(t, err)
	assert.Len(t, events, 1)

	events, err = c.Handle(CommandOverride, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CauseOverride, events[0].Cause)

	events, err = c.Handle(CommandMode, now)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, CauseMode, events[0].Cause)

	_, err = c.Handle(Command("REBOOT"), now)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestCounts(t *testing.T) {
	c, _ := newController(t)
	now := local(time.UTC, 15, 0)

	c.Evaluate(now)   // off
	c.Override(now)   // on
	c.ToggleMode(now) // off
	c.ToggleMode(now) // automatic: off again (entry 0)
	c.Override(now)   // on

	assert.Equal(t, Counts{On: 2, Off: 3, Overrides: 2, ModeChanges: 2}, c.Counts())
}

func TestGPIOWriteFailureDoesNotStopEngine(t *testing.T) {
	c, w := newController(t)
	w.SetError = errors.New("line busy")

	events, err := c.Evaluate(local(time.UTC, 20, 0))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, StateOn, c.Output())
}

func TestActive(t *testing.T) {
	c, _ := newController(t)

	_, _, ok := c.Active()
	assert.False(t, ok)

	c.Evaluate(local(time.UTC, 3, 0))
	idx, entry, ok := c.Active()
	assert.True(t, ok)
	assert.Equal(t, 1, idx)
	assert.Equal(t, schedule.TimeOfDay(1900), entry.Time)
}

func TestParseCommand(t *testing.T) {
	for in, want := range map[string]Command{
		"override":   CommandOverride,
		" MODE ":     CommandMode,
		"Evaluate":   CommandEvaluate,
		"OVERRIDE\n": CommandOverride,
	} {
		got, err := ParseCommand(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := ParseCommand("reboot")
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestDescribe(t *testing.T) {
	lines, err := Describe(referenceEntries(), time.UTC, local(time.UTC, 9, 30))
	require.NoError(t, err)
	require.Len(t, lines, 3)

	assert.Contains(t, lines[0], "There are 2 schedules")
	assert.True(t, strings.HasPrefix(lines[1], " "), "entry 0 not in effect: %q", lines[1])
	assert.True(t, strings.HasPrefix(lines[2], "*"), "entry 1 in effect at 09:30: %q", lines[2])
	assert.Contains(t, lines[2], "19:00 ON")
}

func TestDescribeRejectsInvalid(t *testing.T) {
	_, err := Describe(nil, time.UTC, time.Now())
	assert.Error(t, err)
}

func TestStateOf(t *testing.T) {
	assert.Equal(t, StateOn, StateOf(true))
	assert.Equal(t, StateOff, StateOf(false))
}
