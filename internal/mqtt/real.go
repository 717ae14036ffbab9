package mqtt

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

// ClientID identifies the panel to the broker.
const ClientID = "smarthome-panel"

const (
	bufferCapacity = 256
	publishTimeout = 5 * time.Second
	retryInterval  = 5 * time.Second
)

// ErrClosed is returned when publishing on a closed publisher.
var ErrClosed = errors.New("mqtt: publisher closed")

// RealPublisher publishes to an actual MQTT broker. Publishing never blocks
// the caller: while the connection is down messages are buffered and replayed
// once it comes back, and delivery results are awaited in the background.
type RealPublisher struct {
	client paho.Client

	mu        sync.Mutex
	buf       *ringBuffer
	connected bool // at least one connection has been made
	closed    bool
}

// NewRealPublisher creates a publisher for the given broker. The connection is
// made in the background by Connect.
func NewRealPublisher(broker string) *RealPublisher {
	p := newPublisher(nil)

	will, _ := FormatSystemPayload(SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	})

	opts := paho.NewClientOptions().
		AddBroker(broker).
		SetClientID(ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(retryInterval).
		SetWill(TopicSystem, string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(p.onConnectionLost)

	p.client = paho.NewClient(opts)
	return p
}

func newPublisher(client paho.Client) *RealPublisher {
	return &RealPublisher{
		client: client,
		buf:    newRingBuffer(bufferCapacity),
	}
}

// Connect starts connecting to the broker and returns immediately.
func (p *RealPublisher) Connect() {
	p.client.Connect()
}

// IsConnected reports whether the broker connection is currently up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Publish sends a state change to the MQTT broker.
func (p *RealPublisher) Publish(event logic.Event) error {
	payload, err := FormatPayload(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	// QoS 0 (at-most-once), not retained
	return p.send(bufferedMsg{topic: Topic, payload: payload})
}

// PublishSystem sends a system lifecycle event to the MQTT broker.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	// QoS 1 (at-least-once) for lifecycle events
	return p.send(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1, retained: event.Retained})
}

func (p *RealPublisher) send(msg bufferedMsg) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrClosed
	}
	if !p.client.IsConnectionOpen() {
		p.buf.push(msg)
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	p.publish(msg)
	return nil
}

func (p *RealPublisher) publish(msg bufferedMsg) {
	token := p.client.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go awaitToken(token, msg.topic)
}

func awaitToken(token paho.Token, topic string) {
	if !token.WaitTimeout(publishTimeout) {
		log.Printf("mqtt: publish to %s: timeout", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.Printf("mqtt: publish to %s: %v", topic, err)
	}
}

// onConnect replays buffered messages, oldest first, then announces a
// reconnect. paho marks the connection open before calling it, so nothing is
// buffered after the drain.
func (p *RealPublisher) onConnect(_ paho.Client) {
	p.mu.Lock()
	reconnect := p.connected
	p.connected = true
	msgs, dropped := p.buf.drainAll()
	p.mu.Unlock()

	if reconnect {
		log.Printf("mqtt: reconnected")
	} else {
		log.Printf("mqtt: connected")
	}

	if len(msgs) > 0 || dropped > 0 {
		log.Printf("mqtt: replaying %d buffered messages (%d dropped)", len(msgs), dropped)
	}
	for _, m := range msgs {
		p.publish(m)
	}

	if reconnect {
		payload, _ := FormatSystemPayload(SystemEvent{Timestamp: time.Now(), Event: "RECONNECTED"})
		p.publish(bufferedMsg{topic: TopicSystem, payload: payload, qos: 1})
	}
}

func (p *RealPublisher) onConnectionLost(_ paho.Client, err error) {
	log.Printf("mqtt: connection lost: %v", err)
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.buf.len()
}

// Close disconnects from the broker. Buffered messages are discarded.
func (p *RealPublisher) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	if n := p.buf.len(); n > 0 {
		log.Printf("mqtt: discarding %d buffered messages", n)
	}
	p.mu.Unlock()

	p.client.Disconnect(1000) // 1 second quiesce
	return nil
}
