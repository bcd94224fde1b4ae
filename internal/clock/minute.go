package clock

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// everySecond polls the clock once a second; a tick is sent only when the
// minute read from the clock changes.
const everySecond = "* * * * * *"

// MinuteTicker delivers a tick at the start of every minute of its Clock, so
// a calibration offset on a Real clock moves the boundaries with it.
// Ticks are dropped, not queued, when the receiver is busy.
type MinuteTicker struct {
	C <-chan time.Time

	c    chan time.Time
	clk  Clock
	last time.Time
	cr   *cron.Cron
}

// NewMinuteTicker starts a ticker aligned to minute boundaries of clk.
func NewMinuteTicker(clk Clock) (*MinuteTicker, error) {
	t := newMinuteTicker(clk)
	t.cr = cron.New(cron.WithSeconds())
	if _, err := t.cr.AddFunc(everySecond, t.fire); err != nil {
		return nil, fmt.Errorf("schedule minute tick: %w", err)
	}
	t.cr.Start()
	return t, nil
}

func newMinuteTicker(clk Clock) *MinuteTicker {
	ch := make(chan time.Time, 1)
	return &MinuteTicker{
		C:    ch,
		c:    ch,
		clk:  clk,
		last: clk.Now().Truncate(time.Minute),
	}
}

// fire runs from the cron goroutine only.
func (t *MinuteTicker) fire() {
	now := t.clk.Now()
	minute := now.Truncate(time.Minute)
	if minute.Equal(t.last) {
		return
	}
	t.last = minute
	select {
	case t.c <- now:
	default:
	}
}

// Next returns when the next tick is due, in clock time.
func (t *MinuteTicker) Next() time.Time {
	return t.clk.Now().Truncate(time.Minute).Add(time.Minute)
}

// Stop stops the ticker and waits for a running tick to finish.
func (t *MinuteTicker) Stop() {
	if t.cr != nil {
		<-t.cr.Stop().Done()
	}
}
