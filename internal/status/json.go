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
	Light         LightJSON    `json:"light"`
	Music         MusicJSON    `json:"music"`
	UptimeSeconds int64        `json:"uptime_seconds"`
	StartTime     string       `json:"start_time"`
	Timestamp     string       `json:"timestamp"`
	MQTT          MQTTStatus   `json:"mqtt"`
	Counts        CountsJSON   `json:"event_counts"`
	Network       *NetworkJSON `json:"network,omitempty"`
	Config        ConfigJSON   `json:"config"`
}

// LightJSON is the JSON representation of the light state.
type LightJSON struct {
	On         bool   `json:"on"`
	Brightness string `json:"brightness"`
}

// MusicJSON is the JSON representation of the music state.
type MusicJSON struct {
	Playing bool   `json:"playing"`
	Volume  string `json:"volume"`
	Note    int    `json:"note"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	LightOn    int `json:"light_on"`
	LightOff   int `json:"light_off"`
	Brightness int `json:"brightness"`
	Volume     int `json:"volume"`
	MusicOn    int `json:"music_on"`
	MusicOff   int `json:"music_off"`
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
	TickMs      int64  `json:"tick_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	ListenAddr  string `json:"listen_addr"`
	HTTPAddr    string `json:"http_addr"`
	LightPolicy string `json:"light_policy"`
}

func buildInner(snap Snapshot) StatusInner {
	return StatusInner{
		Light: LightJSON{
			On:         snap.Light.On,
			Brightness: snap.Light.Tier.String(),
		},
		Music: MusicJSON{
			Playing: snap.Music.Playing,
			Volume:  snap.Music.Volume.String(),
			Note:    snap.Music.NoteIndex,
		},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			LightOn:    snap.Counts.LightOn,
			LightOff:   snap.Counts.LightOff,
			Brightness: snap.Counts.Brightness,
			Volume:     snap.Counts.Volume,
			MusicOn:    snap.Counts.MusicOn,
			MusicOff:   snap.Counts.MusicOff,
		},
		Config: ConfigJSON{
			TickMs:      snap.Config.TickMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			ListenAddr:  snap.Config.ListenAddr,
			HTTPAddr:    snap.Config.HTTPAddr,
			LightPolicy: snap.Config.LightPolicy,
		},
	}
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
