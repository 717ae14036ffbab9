package web

import (
	"fmt"
	"html/template"
	"io"
	"log"
	"time"

	"github.com/sweeney/smarthome-panel/internal/status"
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
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>SmartHome Panel</title>
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
.live-dot { display: inline-block; width: 8px; height: 8px; border-radius: 50%; margin-left: 6px; vertical-align: middle; }
.live-dot.ok { background: green; }
.live-dot.err { background: red; }
.live-dot.pending { background: orange; }
</style>
</head>
<body>
<h1>SmartHome Panel<span id="live-dot" class="live-dot pending" title="connecting"></span></h1>

<h2>Light</h2>
<table>
<tr><th>Power</th><td id="light-on" class="{{if .Light.On}}on{{else}}off{{end}}">{{onOff .Light.On}}</td></tr>
<tr><th>Brightness</th><td id="light-tier">{{.Light.Tier}}</td></tr>
<tr><th>Policy</th><td>{{.Config.LightPolicy}}</td></tr>
</table>

<h2>Music</h2>
<table>
<tr><th>Playing</th><td id="music-on" class="{{if .Music.Playing}}on{{else}}off{{end}}">{{onOff .Music.Playing}}</td></tr>
<tr><th>Volume</th><td id="music-volume">{{.Music.Volume}}</td></tr>
<tr><th>Note</th><td id="music-note">{{.Music.NoteIndex}}</td></tr>
<tr><th>Melody</th><td><a href="/melody.mid">melody.mid</a></td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>MQTT</th><td class="{{if .MQTTConnected}}connected{{else}}disconnected{{end}}">{{if .MQTTConnected}}connected{{else}}disconnected{{end}}</td></tr>
<tr><th>Broker</th><td>{{if .Config.Broker}}{{.Config.Broker}}{{else}}disabled{{end}}</td></tr>
{{if .Network}}<tr><th>Network</th><td>{{.Network.Status}} ({{.Network.Type}}{{if .Network.SSID}}, {{.Network.SSID}}{{end}})</td></tr>
<tr><th>IP</th><td>{{.Network.IP}}</td></tr>{{end}}
</table>

<h2>Event Counts</h2>
<table>
<tr><th>Light ON</th><td>{{.Counts.LightOn}}</td></tr>
<tr><th>Light OFF</th><td>{{.Counts.LightOff}}</td></tr>
<tr><th>Brightness</th><td>{{.Counts.Brightness}}</td></tr>
<tr><th>Volume</th><td>{{.Counts.Volume}}</td></tr>
<tr><th>Music ON</th><td>{{.Counts.MusicOn}}</td></tr>
<tr><th>Music OFF</th><td>{{.Counts.MusicOff}}</td></tr>
</table>

<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Tick</th><td>{{.Config.TickMs}}ms</td></tr>
<tr><th>Heartbeat</th><td>{{if eq .Config.HeartbeatMs 0}}disabled{{else}}{{.Config.HeartbeatMs}}ms{{end}}</td></tr>
<tr><th>Control</th><td>{{.Config.ListenAddr}}</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
<script>
(function() {
  var dot = document.getElementById("live-dot");

  function setOnOff(id, on) {
    var el = document.getElementById(id);
    el.textContent = on ? "ON" : "OFF";
    el.className = on ? "on" : "off";
  }

  function setText(id, text) {
    document.getElementById(id).textContent = text;
  }

  function setDot(cls, title) {
    dot.className = "live-dot " + cls;
    dot.title = title;
  }

  function connect() {
    var proto = location.protocol === "https:" ? "wss://" : "ws://";
    var ws = new WebSocket(proto + location.host + "/ws");

    ws.onopen = function() { setDot("ok", "live"); };
    ws.onerror = function() { setDot("err", "error"); };
    ws.onclose = function() {
      setDot("pending", "reconnecting");
      setTimeout(connect, 5000);
    };
    ws.onmessage = function(e) {
      try {
        var s = JSON.parse(e.data).status;
        setOnOff("light-on", s.light.on);
        setText("light-tier", s.light.brightness);
        setOnOff("music-on", s.music.playing);
        setText("music-volume", s.music.volume);
        setText("music-note", s.music.note);
      } catch (err) {}
    };
  }
  connect();
})();
</script>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime() method but template needs a Duration field.
	data := struct {
		status.Snapshot
		Uptime time.Duration
	}{
		Snapshot: snap,
		Uptime:   snap.Uptime(),
	}
	if err := indexTmpl.Execute(w, data); err != nil {
		log.Printf("web: render index: %v", err)
	}
}
