// Package status provides a thread-safe status tracker for the appliance-timer
// daemon. The control loop writes it; HTTP handlers and MQTT heartbeats read it.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/appliance-timer/internal/button"
	"github.com/sweeney/appliance-timer/internal/control"
	"github.com/sweeney/appliance-timer/internal/schedule"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	BlinkMs     int64
	Broker      string
	Prefix      string
	HTTPAddr    string
	Timezone    string
	Calibration string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Output    control.State
	Mode      schedule.Mode
	Evaluated bool
	// Index of the active entry, or -1 when none is active.
	Index         int
	Entry         schedule.Entry
	Schedule      []schedule.Entry
	Counts        control.Counts
	Presses       button.Counts
	Baselined     bool
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Active reports whether a schedule entry is currently in effect.
func (s Snapshot) Active() bool {
	return s.Index >= 0
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time, schedule and config.
func NewTracker(startTime time.Time, entries []schedule.Entry, cfg Config) *Tracker {
	sched := make([]schedule.Entry, len(entries))
	copy(sched, entries)
	return &Tracker{
		snap: Snapshot{
			Index:     -1,
			Schedule:  sched,
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// SetClock replaces the function used to stamp snapshots.
func (t *Tracker) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Update records the controller state. Called from the control loop after
// every operation.
func (t *Tracker) Update(c *control.Controller) {
	idx, entry, _ := c.Active()
	t.mu.Lock()
	t.snap.Output = c.Output()
	t.snap.Mode = c.Mode()
	t.snap.Evaluated = c.Evaluated()
	t.snap.Index = idx
	t.snap.Entry = entry
	t.snap.Counts = c.Counts()
	t.mu.Unlock()
}

// UpdateButtons records the button detector state.
func (t *Tracker) UpdateButtons(baselined bool, presses button.Counts) {
	t.mu.Lock()
	t.snap.Baselined = baselined
	t.snap.Presses = presses
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Schedule = make([]schedule.Entry, len(t.snap.Schedule))
	copy(s.Schedule, t.snap.Schedule)
	now := t.now
	t.mu.RUnlock()
	s.Now = now()
	return s
}
