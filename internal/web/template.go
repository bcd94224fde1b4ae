package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/appliance-timer/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"onOff": func(on bool) string {
		if on {
			return "ON"
		}
		return "OFF"
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON":
			return "on"
		case "OFF":
			return "off"
		default:
			return "unknown"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Appliance Timer</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
tr.active { background: #eef; }
button { font-family: monospace; margin-right: 1em; }
</style>
</head>
<body>
<h1>Appliance Timer</h1>

<h2>State</h2>
<table>
<tr><th>Output</th><td id="output" class="{{stateClass .Output}}">{{.Output}}</td></tr>
<tr><th>Mode</th><td id="mode">{{.Mode}}</td></tr>
<tr><th>Ready</th><td>{{if .Ready}}yes{{else}}no{{end}}</td></tr>
</table>
<p>
<button onclick="send('/api/override')">Override</button>
<button onclick="send('/api/mode')">Toggle mode</button>
</p>

<h2>Schedule ({{.Config.Timezone}})</h2>
<table>
<tr><th>Time</th><td><b>State</b></td></tr>
{{range $i, $e := .Schedule}}<tr{{if eq $i $.Index}} class="active"{{end}}><th>{{if eq $i $.Index}}* {{end}}{{$e.Time}}</th><td class="{{stateClass (onOff $e.On)}}">{{onOff $e.On}}</td></tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>
<tr><th>Topic prefix</th><td>{{.Config.Prefix}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>ON</th><td>{{.Counts.On}}</td></tr>
<tr><th>OFF</th><td>{{.Counts.Off}}</td></tr>
<tr><th>Overrides</th><td>{{.Counts.Overrides}}</td></tr>
<tr><th>Mode changes</th><td>{{.Counts.ModeChanges}}</td></tr>
<tr><th>Button presses</th><td>{{.Presses.Override}} override, {{.Presses.Mode}} mode</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
function send(path) {
  fetch(path, { method: "POST" }).then(function() {
    setTimeout(function() { location.reload(); }, 300);
  });
}
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) error {
	output := string(snap.Output)
	if !snap.Evaluated || output == "" {
		output = "UNKNOWN"
	}
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Output string
		Mode   string
		Ready  bool
		Uptime time.Duration
	}{
		Snapshot: snap,
		Output:   output,
		Mode:     snap.Mode.String(),
		Ready:    snap.Evaluated && snap.Baselined,
		Uptime:   snap.Uptime(),
	}
	return indexTmpl.Execute(w, data)
}
