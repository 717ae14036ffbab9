package web

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sweeney/smarthome-panel/internal/logic"
	"github.com/sweeney/smarthome-panel/internal/status"
)

// DefaultSampleInterval is how often live clients are checked for changes.
const DefaultSampleInterval = 250 * time.Millisecond

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsPingPeriod = 50 * time.Second
	wsReadLimit  = 512
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// liveKey is the part of a snapshot whose change triggers a push.
type liveKey struct {
	light logic.LightState
	music logic.MusicState
	mqtt  bool
}

func keyOf(snap status.Snapshot) liveKey {
	return liveKey{light: snap.Light, music: snap.Music, mqtt: snap.MQTTConnected}
}

// handleWS streams the JSON status: once on connect, then whenever the
// appliance state changes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("web: websocket upgrade: %v", err)
		return
	}

	closed := make(chan struct{})
	go readPump(conn, closed)
	s.writePump(conn, closed)
}

// readPump discards client messages and notices when the client goes away.
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(wsReadLimit)
	conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("web: websocket read: %v", err)
			}
			return
		}
	}
}

func (s *Server) writePump(conn *websocket.Conn, closed <-chan struct{}) {
	sample := time.NewTicker(s.sample)
	ping := time.NewTicker(wsPingPeriod)
	defer func() {
		sample.Stop()
		ping.Stop()
		conn.Close()
	}()

	snap := s.tracker.Snapshot()
	last := keyOf(snap)
	if err := writeStatus(conn, snap); err != nil {
		return
	}

	for {
		select {
		case <-closed:
			return
		case <-s.quit:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
			return
		case <-sample.C:
			snap := s.tracker.Snapshot()
			key := keyOf(snap)
			if key == last {
				continue
			}
			last = key
			if err := writeStatus(conn, snap); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func writeStatus(conn *websocket.Conn, snap status.Snapshot) error {
	conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return conn.WriteMessage(websocket.TextMessage, status.FormatJSON(snap))
}
