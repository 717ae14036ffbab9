// Package control serves the appliance control page over raw TCP.
//
// Connections are accepted and read on background goroutines, which only
// queue the received bytes. The scheduler drains the queue with Poll, so all
// routing and state mutation happens on the scheduler goroutine.
package control

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"time"
)

// Defaults for the control listener.
const (
	DefaultAttempts = 5
	DefaultBackoff  = time.Second

	bufSize      = 1024
	queueSize    = 8
	readTimeout  = 5 * time.Second
	writeTimeout = 2 * time.Second
)

// request is one received payload waiting for the scheduler.
type request struct {
	conn net.Conn
	buf  *[]byte
	n    int
}

// Server accepts control connections and queues their requests.
type Server struct {
	ln      net.Listener
	pending chan request
	bufs    sync.Pool
	done    chan struct{}
	once    sync.Once
}

// Listen binds addr, retrying up to attempts times with backoff between tries.
func Listen(addr string, attempts int, backoff time.Duration) (*Server, error) {
	if attempts < 1 {
		attempts = 1
	}
	var (
		ln  net.Listener
		err error
	)
	for i := 1; i <= attempts; i++ {
		ln, err = net.Listen("tcp", addr)
		if err == nil {
			break
		}
		log.Printf("control: listen %s failed, attempt %d/%d: %v", addr, i, attempts, err)
		if i < attempts {
			time.Sleep(backoff)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("listen %s: %w", addr, err)
	}
	return NewServer(ln), nil
}

// NewServer wraps an existing listener.
func NewServer(ln net.Listener) *Server {
	s := &Server{
		ln:      ln,
		pending: make(chan request, queueSize),
		done:    make(chan struct{}),
	}
	s.bufs.New = func() any {
		b := make([]byte, bufSize)
		return &b
	}
	return s
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.ln.Addr()
}

// Serve accepts connections until the server is closed.
func (s *Server) Serve() error {
	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			log.Printf("control: accept: %v", err)
			continue
		}
		go s.receive(conn)
	}
}

// receive reads one request from conn and queues it. A closed or empty
// connection is queued with no payload so the handler can close it.
func (s *Server) receive(conn net.Conn) {
	buf := s.bufs.Get().(*[]byte)

	conn.SetReadDeadline(time.Now().Add(readTimeout))
	n, err := conn.Read(*buf)
	if err != nil && !errors.Is(err, io.EOF) {
		log.Printf("control: read from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		s.bufs.Put(buf)
		return
	}

	select {
	case s.pending <- request{conn: conn, buf: buf, n: n}:
	default:
		log.Printf("control: busy, dropping connection from %s", conn.RemoteAddr())
		conn.Close()
		s.bufs.Put(buf)
	}
}

// Poll hands every queued request to fn and returns how many it handled.
// It never blocks. Buffers are released after fn returns.
func (s *Server) Poll(fn func(c Conn, payload []byte)) int {
	handled := 0
	for {
		select {
		case req := <-s.pending:
			s.dispatch(req, fn)
			handled++
		default:
			return handled
		}
	}
}

func (s *Server) dispatch(req request, fn func(c Conn, payload []byte)) {
	defer s.bufs.Put(req.buf)
	req.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	fn(req.conn, (*req.buf)[:req.n])
}

// Close stops accepting and drops any queued requests.
func (s *Server) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ln.Close()
		s.Poll(func(c Conn, _ []byte) { c.Close() })
	})
	return err
}
