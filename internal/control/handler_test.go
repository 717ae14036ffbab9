package control

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/smarthome-panel/internal/gpio"
	"github.com/sweeney/smarthome-panel/internal/logic"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

// fakeConn records writes and Close calls.
type fakeConn struct {
	bytes.Buffer
	closed   int
	writeErr error
}

func (c *fakeConn) Write(p []byte) (int, error) {
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	return c.Buffer.Write(p)
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

func newTestHandler() (*Handler, *logic.Home, *gpio.FakeDriver) {
	home := logic.NewHome()
	drv := gpio.NewFakeDriver()
	light := logic.NewLightController(&home.Light, logic.NewDirectPolicy(drv))
	music := logic.NewSequencer(&home.Music, drv)
	return NewHandler(logic.NewRouter(light, music)), home, drv
}

func TestHandleEmptyPayloadClosesConnection(t *testing.T) {
	h, home, _ := newTestHandler()
	c := &fakeConn{}
	before := *home

	_, ok := h.Handle(c, nil, t0)
	if ok {
		t.Error("empty payload reported a change")
	}
	if c.closed != 1 {
		t.Errorf("expected 1 close, got %d", c.closed)
	}
	if c.Len() != 0 {
		t.Errorf("expected no response for a closed peer, got %d bytes", c.Len())
	}
	if *home != before {
		t.Error("state changed on empty payload")
	}
}

func TestHandleWritesStaticResponse(t *testing.T) {
	h, home, _ := newTestHandler()
	c := &fakeConn{}

	ev, ok := h.Handle(c, []byte("GET /light_toggle HTTP/1.1\r\nHost: panel\r\n\r\n"), t0)
	if !ok || ev.Type != logic.EventLightOn {
		t.Fatalf("expected LIGHT_ON, got %+v ok=%v", ev, ok)
	}
	if !home.Light.On {
		t.Error("expected light on")
	}

	resp := c.String()
	if resp != Response() {
		t.Error("response differs from the static document")
	}
	if !strings.HasPrefix(resp, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("status line: %q", strings.SplitN(resp, "\r\n", 2)[0])
	}
	if !strings.Contains(resp, "Content-Type: text/html; charset=UTF-8\r\n") {
		t.Error("missing content type")
	}
	if c.closed != 1 {
		t.Errorf("expected 1 close, got %d", c.closed)
	}
}

func TestHandleUnknownCommandStillResponds(t *testing.T) {
	h, home, drv := newTestHandler()
	c := &fakeConn{}
	before := *home

	_, ok := h.Handle(c, []byte("GET /nonexistent HTTP/1.1\r\n\r\n"), t0)
	if ok {
		t.Error("unknown command reported a change")
	}
	if *home != before {
		t.Error("state changed on unknown command")
	}
	if len(drv.Levels)+len(drv.Tones)+len(drv.EnabledWrites) != 0 {
		t.Error("unknown command touched the outputs")
	}
	if c.String() != Response() {
		t.Error("expected the static document")
	}
}

func TestHandleWriteFailureIsNonFatal(t *testing.T) {
	h, home, _ := newTestHandler()
	c := &fakeConn{writeErr: errors.New("connection reset")}

	ev, ok := h.Handle(c, []byte("GET /music_toggle HTTP/1.1\r\n"), t0)
	if !ok || ev.Type != logic.EventMusicOn {
		t.Errorf("state change should be reported despite the write failure, got %+v ok=%v", ev, ok)
	}
	if !home.Music.Playing {
		t.Error("expected music playing")
	}
	if c.closed != 1 {
		t.Errorf("expected the connection to be closed once, got %d", c.closed)
	}
}

func TestRequestLine(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"GET /a HTTP/1.1\r\nHost: x\r\n\r\n", "GET /a HTTP/1.1"},
		{"GET /a HTTP/1.1\nHost: x", "GET /a HTTP/1.1"},
		{"GET /a", "GET /a"},
		{"\r\n", ""},
	}
	for _, tt := range tests {
		if got := RequestLine([]byte(tt.in)); got != tt.want {
			t.Errorf("RequestLine(%q): got %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResponseHasOneFormPerCommand(t *testing.T) {
	resp := Response()
	for _, cmd := range logic.Commands {
		form := "<form action='./" + cmd + "'>"
		if strings.Count(resp, form) != 1 {
			t.Errorf("expected exactly one form for %s", cmd)
		}
	}
	if !strings.HasSuffix(resp, "</html>") {
		t.Error("document is not complete")
	}
}
