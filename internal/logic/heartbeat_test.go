package logic

import (
	"testing"
	"time"
)

func TestHeartbeatDisabled(t *testing.T) {
	h := NewHeartbeat(t0)
	if hb := h.Check(t0.Add(time.Hour), 0, EventCounts{}); hb != nil {
		t.Errorf("expected nil with interval 0, got %+v", hb)
	}
	if hb := h.Check(t0.Add(time.Hour), -time.Second, EventCounts{}); hb != nil {
		t.Errorf("expected nil with negative interval, got %+v", hb)
	}
}

func TestHeartbeatInterval(t *testing.T) {
	h := NewHeartbeat(t0)
	interval := 15 * time.Minute

	if hb := h.Check(t0.Add(interval-time.Second), interval, EventCounts{}); hb != nil {
		t.Error("heartbeat fired early")
	}

	counts := EventCounts{LightOn: 2, MusicOff: 1}
	hb := h.Check(t0.Add(interval), interval, counts)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if hb.Uptime != interval {
		t.Errorf("uptime: got %v, want %v", hb.Uptime, interval)
	}
	if hb.Counts != counts {
		t.Errorf("counts: got %+v, want %+v", hb.Counts, counts)
	}

	// Next one is measured from the last heartbeat.
	if hb := h.Check(t0.Add(interval+time.Minute), interval, counts); hb != nil {
		t.Error("heartbeat fired twice within one interval")
	}
	if hb := h.Check(t0.Add(2*interval), interval, counts); hb == nil {
		t.Error("expected second heartbeat")
	}
}

func TestEventCountsAdd(t *testing.T) {
	var c EventCounts
	for _, e := range []EventType{EventLightOn, EventLightOff, EventLightOn, EventBrightness, EventVolume, EventMusicOn, EventMusicOff, "BOGUS"} {
		c.Add(e)
	}
	want := EventCounts{LightOn: 2, LightOff: 1, Brightness: 1, Volume: 1, MusicOn: 1, MusicOff: 1}
	if c != want {
		t.Errorf("got %+v, want %+v", c, want)
	}
}
