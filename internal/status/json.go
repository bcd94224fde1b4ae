package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string       `json:"event,omitempty"`
	Reason        string       `json:"reason,omitempty"`
	Output        string       `json:"output"`
	Mode          string       `json:"mode"`
	Ready         bool         `json:"ready"`
	Active        *EntryJSON   `json:"active,omitempty"`
	Schedule      []EntryJSON  `json:"schedule"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Buttons       ButtonsJSON  `json:"button_presses"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// EntryJSON is the JSON representation of a schedule entry.
type EntryJSON struct {
	Index int    `json:"index"`
	Time  string `json:"time"`
	State string `json:"state"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	On          int `json:"on"`
	Off         int `json:"off"`
	Overrides   int `json:"overrides"`
	ModeChanges int `json:"mode_changes"`
}

// ButtonsJSON is the JSON representation of button press counts.
type ButtonsJSON struct {
	Override int `json:"override"`
	Mode     int `json:"mode"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	DebounceMs  int64  `json:"debounce_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	BlinkMs     int64  `json:"blink_ms"`
	Broker      string `json:"broker"`
	Prefix      string `json:"prefix"`
	HTTPAddr    string `json:"http_addr"`
	Timezone    string `json:"timezone"`
	Calibration string `json:"calibration"`
}

func stateName(on bool) string {
	if on {
		return "ON"
	}
	return "OFF"
}

func buildInner(snap Snapshot) StatusInner {
	output := string(snap.Output)
	if !snap.Evaluated || output == "" {
		output = "UNKNOWN"
	}

	sched := make([]EntryJSON, 0, len(snap.Schedule))
	for i, e := range snap.Schedule {
		sched = append(sched, EntryJSON{Index: i, Time: e.Time.String(), State: stateName(e.On)})
	}

	inner := StatusInner{
		Output:        output,
		Mode:          snap.Mode.String(),
		Ready:         snap.Evaluated && snap.Baselined,
		Schedule:      sched,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			On:          snap.Counts.On,
			Off:         snap.Counts.Off,
			Overrides:   snap.Counts.Overrides,
			ModeChanges: snap.Counts.ModeChanges,
		},
		Buttons: ButtonsJSON{
			Override: snap.Presses.Override,
			Mode:     snap.Presses.Mode,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			DebounceMs:  snap.Config.DebounceMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			BlinkMs:     snap.Config.BlinkMs,
			Broker:      snap.Config.Broker,
			Prefix:      snap.Config.Prefix,
			HTTPAddr:    snap.Config.HTTPAddr,
			Timezone:    snap.Config.Timezone,
			Calibration: snap.Config.Calibration,
		},
	}
	if snap.Active() {
		inner.Active = &EntryJSON{Index: snap.Index, Time: snap.Entry.Time.String(), State: stateName(snap.Entry.On)}
	}
	return inner
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
