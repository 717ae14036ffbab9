package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	cfg := Config{TickMs: 10, Broker: "tcp://localhost:1883", ListenAddr: ":80", HTTPAddr: ":8080"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.TickMs != 10 {
		t.Errorf("Config.TickMs: got %d, want 10", snap.Config.TickMs)
	}
	if snap.Config.HTTPAddr != ":8080" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":8080")
	}
	if snap.Light.On || snap.Music.Playing {
		t.Error("expected light off and music stopped initially")
	}
	if snap.Music.Volume != logic.VolumeMedium {
		t.Errorf("Music.Volume: got %s, want MEDIUM", snap.Music.Volume)
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	home := logic.Home{
		Light: logic.LightState{On: true, Tier: logic.TierHigh},
		Music: logic.MusicState{Playing: true, Volume: logic.VolumeLow, NoteIndex: 4},
	}
	tr.Update(home, logic.EventCounts{LightOn: 3, MusicOff: 1})

	snap := tr.Snapshot()
	if snap.Light != home.Light {
		t.Errorf("Light: got %+v, want %+v", snap.Light, home.Light)
	}
	if snap.Music != home.Music {
		t.Errorf("Music: got %+v, want %+v", snap.Music, home.Music)
	}
	if snap.Counts.LightOn != 3 {
		t.Errorf("Counts.LightOn: got %d, want 3", snap.Counts.LightOn)
	}
	if snap.Counts.MusicOff != 1 {
		t.Errorf("Counts.MusicOff: got %d, want 1", snap.Counts.MusicOff)
	}
}

func TestSetMQTTConnected(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	tr.SetMQTTConnected(true)
	if !tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}

	tr.SetMQTTConnected(false)
	if tr.Snapshot().MQTTConnected {
		t.Error("expected MQTTConnected=false")
	}
}

func TestSetNetwork(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	if tr.Snapshot().Network != nil {
		t.Error("expected nil Network initially")
	}

	net := &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected"}
	tr.SetNetwork(net)

	snap := tr.Snapshot()
	if snap.Network == nil {
		t.Fatal("expected non-nil Network")
	}
	if snap.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want %q", snap.Network.IP, "192.168.1.42")
	}
}

func TestSnapshotUptime(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(15 * time.Minute),
	}

	if snap.Uptime() != 15*time.Minute {
		t.Errorf("Uptime: got %v, want 15m", snap.Uptime())
	}
}

func TestSnapshotNowIsSet(t *testing.T) {
	tr := NewTracker(start, Config{})

	before := time.Now()
	snap := tr.Snapshot()
	after := time.Now()

	if snap.Now.Before(before) || snap.Now.After(after) {
		t.Errorf("Now (%v) not between %v and %v", snap.Now, before, after)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	tr.Update(logic.Home{Light: logic.LightState{On: true, Tier: logic.TierMedium}}, logic.EventCounts{LightOn: 1})

	snap1 := tr.Snapshot()
	tr.Update(logic.Home{}, logic.EventCounts{LightOn: 1, LightOff: 1})

	// snap1 should still reflect old state
	if !snap1.Light.On || snap1.Light.Tier != logic.TierMedium {
		t.Error("snapshot should be a copy; Light was modified")
	}
	if snap1.Counts.LightOff != 0 {
		t.Error("snapshot should be a copy; Counts was modified")
	}
}

func TestFormatJSON(t *testing.T) {
	snap := Snapshot{
		Light:         logic.LightState{On: true, Tier: logic.TierLow},
		Music:         logic.MusicState{Playing: true, Volume: logic.VolumeHigh, NoteIndex: 7},
		Counts:        logic.EventCounts{LightOn: 5, LightOff: 2, Brightness: 1},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 10, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", ListenAddr: ":80", LightPolicy: "pwm"},
	}

	data := FormatJSON(snap)

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Light != (LightJSON{On: true, Brightness: "LOW"}) {
		t.Errorf("Light: got %+v", parsed.Status.Light)
	}
	if parsed.Status.Music != (MusicJSON{Playing: true, Volume: "HIGH", Note: 7}) {
		t.Errorf("Music: got %+v", parsed.Status.Music)
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
	if !parsed.Status.MQTT.Connected {
		t.Error("expected MQTT.Connected=true")
	}
	if parsed.Status.Counts.LightOn != 5 {
		t.Errorf("Counts.LightOn: got %d, want 5", parsed.Status.Counts.LightOn)
	}
	if parsed.Status.Config.LightPolicy != "pwm" {
		t.Errorf("Config.LightPolicy: got %q", parsed.Status.Config.LightPolicy)
	}
	// Event and Reason should be omitted
	if parsed.Status.Event != "" {
		t.Errorf("expected empty Event for web format, got %q", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("expected empty Reason for web format, got %q", parsed.Status.Reason)
	}
}

func TestFormatJSONLightOff(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Light.Brightness != "OFF" {
		t.Errorf("Brightness: got %q, want OFF", parsed.Status.Light.Brightness)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	snap := Snapshot{
		Light:         logic.LightState{On: true, Tier: logic.TierMedium},
		Counts:        logic.EventCounts{LightOn: 3},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{TickMs: 10, Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "HEARTBEAT", "")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "HEARTBEAT" {
		t.Errorf("Event: got %q, want HEARTBEAT", parsed.Status.Event)
	}
	if parsed.Status.Reason != "" {
		t.Errorf("Reason: got %q, want empty", parsed.Status.Reason)
	}
	if !parsed.Status.Light.On {
		t.Error("expected Light.On")
	}
	if parsed.Status.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", parsed.Status.UptimeSeconds)
	}
}

func TestFormatStatusEventShutdown(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(30 * time.Minute),
		Config:    Config{Broker: "tcp://localhost:1883"},
	}

	data := FormatStatusEvent(snap, "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	if parsed.Status.Event != "SHUTDOWN" {
		t.Errorf("Event: got %q, want SHUTDOWN", parsed.Status.Event)
	}
	if parsed.Status.Reason != "SIGTERM" {
		t.Errorf("Reason: got %q, want SIGTERM", parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	snap := Snapshot{StartTime: start, Now: start.Add(time.Second)}

	data := FormatStatusEvent(snap, "STARTUP", "")

	// Verify "reason" is not in the raw JSON output
	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := Snapshot{
		StartTime: start,
		Now:       start.Add(time.Minute),
		Network:   &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"},
	}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.IP != "192.168.1.42" {
		t.Errorf("Network.IP: got %q, want 192.168.1.42", parsed.Status.Network.IP)
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})
	var wg sync.WaitGroup

	// Writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update(logic.Home{Light: logic.LightState{On: i%2 == 0}}, logic.EventCounts{LightOn: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	// Reader
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}
