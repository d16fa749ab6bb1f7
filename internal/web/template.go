package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/sweeney/switchnode/internal/status"
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
	"onoff": func(b bool) string {
		if b {
			return "ON"
		}
		return "OFF"
	},
	"inc": func(i int) int { return i + 1 },
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Switchnode</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.on { color: green; font-weight: bold; }
.off { color: #888; }
.connected { color: green; }
.disconnected { color: red; }
button { font-family: monospace; padding: 2px 10px; }
</style>
</head>
<body>
<h1>Switchnode</h1>

<h2>Relays</h2>
<table>
{{range $i, $on := .Relays}}<tr>
<th>Relay {{inc $i}}</th>
<td class="{{if $on}}on{{else}}off{{end}}">{{onoff $on}}</td>
<td><form method="post" action="/api/relay" style="margin:0">
<input type="hidden" name="relay" value="{{inc $i}}">
<input type="hidden" name="state" value="TOGGLE">
<button>toggle</button>
</form></td>
</tr>
{{end}}</table>

<h2>Inputs</h2>
<table>
{{range $i, $closed := .InputsClosed}}<tr>
<th>Input {{inc $i}}</th>
<td class="{{if $closed}}on{{else}}off{{end}}">{{if $closed}}CLOSED{{else}}OPEN{{end}}</td>
</tr>
{{end}}</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTT.Connected}}connected{{else}}disconnected{{end}}">{{if not .MQTT.Enabled}}disabled{{else if .MQTT.Connected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Base topic</th><td>{{.MQTT.BaseTopic}}</td></tr>
{{if .IP}}<tr><th>IP</th><td>{{.IP}}</td></tr>{{end}}
{{if .MDNSHost}}<tr><th>mDNS</th><td>{{.MDNSHost}}.local</td></tr>{{end}}
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Debounce</th><td>{{.Config.DebounceMs}}ms</td></tr>
</table>

<p><a href="/api/status">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	_ = indexTmpl.Execute(w, snap)
}
