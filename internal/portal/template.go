package portal

import (
	"html/template"
	"io"

	"github.com/sweeney/switchnode/internal/logging"

	"go.uber.org/zap"
)

var setupTmpl = template.Must(template.New("setup").Parse(setupHTML))

const setupHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.DeviceID}} setup</title>
<style>
body { font-family: monospace; max-width: 400px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
label { display: block; margin: 1em 0 0.2em; }
input { font-family: monospace; width: 100%; padding: 4px; box-sizing: border-box; }
button { font-family: monospace; margin-top: 1em; padding: 4px 16px; }
p.note { color: #888; }
</style>
</head>
<body>
<h1>{{.DeviceID}}</h1>
<p>Connect this node to your network. It will restart and join the
network you enter below.</p>
<form method="POST" action="/api/wifi">
<label for="ssid">Network name</label>
<input id="ssid" name="ssid" required>
<label for="pass">Password</label>
<input id="pass" name="pass" type="password">
<button type="submit">Save &amp; restart</button>
</form>
<p class="note">Leave the password empty for an open network.</p>
</body>
</html>
`

func renderSetupPage(w io.Writer, deviceID string) {
	data := struct{ DeviceID string }{DeviceID: deviceID}
	if err := setupTmpl.Execute(w, data); err != nil {
		logging.Error("rendering setup page failed", zap.Error(err))
	}
}
