package control

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/appliance-timer/internal/gpio"
	"github.com/sweeney/appliance-timer/internal/schedule"
)

// Controller owns the schedule engine. It must only be used from the control
// loop goroutine.
type Controller struct {
	engine    *schedule.Engine
	loc       *time.Location
	out       gpio.Writer
	log       *zap.Logger
	delivered []bool
	counts    Counts
	evaluated bool
}

// New builds a Controller for entries evaluated in loc. A nil loc means UTC.
func New(entries []schedule.Entry, loc *time.Location, out gpio.Writer, log *zap.Logger) (*Controller, error) {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	c := &Controller{loc: loc, out: out, log: log}
	eng, err := schedule.New(entries, c.deliver)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}
	c.engine = eng
	c.set(gpio.ModeLED, false)
	return c, nil
}

// deliver is the engine callback.
func (c *Controller) deliver(on bool) {
	c.delivered = append(c.delivered, on)
	c.set(gpio.Relay, on)
	c.set(gpio.StateLED, on)
}

func (c *Controller) set(out gpio.Output, on bool) {
	if err := c.out.Set(out, on); err != nil {
		// Don't stop the loop on a write failure; the next delivery retries.
		c.log.Error("gpio write failed", zap.Stringer("output", out), zap.Bool("on", on), zap.Error(err))
	}
}

// flush turns states delivered during one operation into events.
func (c *Controller) flush(now time.Time, cause Cause) []Event {
	if len(c.delivered) == 0 {
		return nil
	}
	idx, ok := c.engine.Active()
	events := make([]Event, 0, len(c.delivered))
	for _, on := range c.delivered {
		e := Event{
			Timestamp: now,
			Cause:     cause,
			State:     StateOf(on),
			Mode:      c.engine.Mode(),
			Index:     -1,
		}
		if ok {
			e.Index = idx
			e.Entry = c.engine.Entry(idx)
		}
		if on {
			c.counts.On++
		} else {
			c.counts.Off++
		}
		events = append(events, e)
	}
	c.delivered = c.delivered[:0]
	return events
}

// Evaluate applies the schedule for now in the controller's location.
func (c *Controller) Evaluate(now time.Time) ([]Event, error) {
	tod := schedule.TimeOfDayOf(now.In(c.loc))
	out, err := c.engine.Evaluate(tod)
	if err != nil {
		return nil, fmt.Errorf("evaluate %d: %w", int(tod), err)
	}
	c.evaluated = true

	resolved := c.engine.LastResolved()
	c.log.Debug("schedule evaluated",
		zap.Stringer("time_of_day", tod),
		zap.Int("resolved", resolved),
		zap.Stringer("entry", c.engine.Entry(resolved)),
		zap.Stringer("mode", c.engine.Mode()),
		zap.Bool("output", out))

	events := c.flush(now, CauseSchedule)
	for _, e := range events {
		c.log.Info("schedule entry in effect",
			zap.Int("index", e.Index),
			zap.Stringer("entry", e.Entry),
			zap.String("state", string(e.State)))
	}
	return events, nil
}

// Override inverts the output until the next schedule entry takes effect.
func (c *Controller) Override(now time.Time) []Event {
	on := c.engine.ToggleOverride()
	c.counts.Overrides++
	c.log.Info("override", zap.String("state", string(StateOf(on))), zap.Stringer("mode", c.engine.Mode()))
	return c.flush(now, CauseOverride)
}

// ToggleMode switches between automatic and manual. Entering manual forces
// the output off; entering automatic re-applies the schedule for now.
func (c *Controller) ToggleMode(now time.Time) ([]Event, error) {
	mode := c.engine.ToggleMode()
	c.counts.ModeChanges++
	c.set(gpio.ModeLED, mode == schedule.Manual)
	c.log.Info("mode changed", zap.Stringer("mode", mode))

	events := c.flush(now, CauseMode)
	if mode != schedule.Automatic {
		return events, nil
	}
	resumed, err := c.Evaluate(now)
	if err != nil {
		return events, err
	}
	for i := range resumed {
		resumed[i].Cause = CauseMode
	}
	return append(events, resumed...), nil
}

// Handle dispatches a command.
func (c *Controller) Handle(cmd Command, now time.Time) ([]Event, error) {
	switch cmd {
	case CommandOverride:
		return c.Override(now), nil
	case CommandMode:
		return c.ToggleMode(now)
	case CommandEvaluate:
		return c.Evaluate(now)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, string(cmd))
	}
}

// Output returns the current output state.
func (c *Controller) Output() State { return StateOf(c.engine.Output()) }

// Mode returns the current mode.
func (c *Controller) Mode() schedule.Mode { return c.engine.Mode() }

// Active returns the active schedule entry, if any.
func (c *Controller) Active() (int, schedule.Entry, bool) {
	idx, ok := c.engine.Active()
	if !ok {
		return -1, schedule.Entry{}, false
	}
	return idx, c.engine.Entry(idx), true
}

// Evaluated reports whether the schedule has been evaluated at least once.
func (c *Controller) Evaluated() bool { return c.evaluated }

// Entries returns a copy of the schedule.
func (c *Controller) Entries() []schedule.Entry { return c.engine.Entries() }

// Counts returns a copy of the counters.
func (c *Controller) Counts() Counts { return c.counts }

// Location returns the zone the schedule is evaluated in.
func (c *Controller) Location() *time.Location { return c.loc }

// Describe lists the schedule, marking the entry in effect at now.
func Describe(entries []schedule.Entry, loc *time.Location, now time.Time) ([]string, error) {
	eng, err := schedule.New(entries, func(bool) {})
	if err != nil {
		return nil, err
	}
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	current := eng.Resolve(schedule.TimeOfDayOf(local))

	lines := []string{fmt.Sprintf("There are %d schedules (%s, now %s)", len(entries), loc, local.Format("15:04"))}
	for i, e := range entries {
		marker := " "
		if i == current {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %2d  %s", marker, i, e))
	}
	return lines, nil
}
