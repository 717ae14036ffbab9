package control

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

// Conn is the part of a connection the handler needs.
type Conn interface {
	io.Writer
	Close() error
}

// Handler turns one raw request into a state change and a response.
// It runs on the scheduler goroutine.
type Handler struct {
	router *logic.Router
}

// NewHandler creates a Handler routing requests through router.
func NewHandler(router *logic.Router) *Handler {
	return &Handler{router: router}
}

// Handle processes one request payload. An empty payload means the peer
// closed the connection. The returned event is valid when ok is true; it is
// reported even if writing the response fails afterwards.
func (h *Handler) Handle(c Conn, payload []byte, now time.Time) (ev logic.Event, ok bool) {
	if len(payload) == 0 {
		c.Close()
		return logic.Event{}, false
	}

	line := RequestLine(payload)
	log.Printf("control: request %q", line)

	ev, ok, err := h.router.Route(string(payload), now)
	if err != nil {
		log.Printf("control: apply %s: %v", ev.Command, err)
	}
	if ok {
		log.Printf("control: %s (light=%v/%s music=%v/%s)", ev.Type, ev.Light.On, ev.Light.Tier, ev.Music.Playing, ev.Music.Volume)
	}

	if err := writeResponse(c); err != nil {
		log.Printf("control: write response: %v", err)
	}
	if err := c.Close(); err != nil {
		log.Printf("control: close: %v", err)
	}
	return ev, ok
}

// writeResponse sends the page in two parts and flushes.
func writeResponse(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 1024)
	if _, err := bw.WriteString(responseHead); err != nil {
		return fmt.Errorf("write head: %w", err)
	}
	if _, err := bw.WriteString(responseBody); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// RequestLine returns the first line of a request without its line ending.
func RequestLine(payload []byte) string {
	if i := bytes.IndexByte(payload, '\n'); i >= 0 {
		payload = payload[:i]
	}
	return string(bytes.TrimRight(payload, "\r"))
}
