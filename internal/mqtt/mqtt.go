// Package mqtt publishes panel state changes and lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

// Topic is the MQTT topic for appliance state changes.
const Topic = "home/panel/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "home/panel/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a state change to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Home HomePayload `json:"home"`
}

// HomePayload contains the state change details.
type HomePayload struct {
	Timestamp string       `json:"timestamp"`
	Event     string       `json:"event"`
	Command   string       `json:"command"`
	Light     LightPayload `json:"light"`
	Music     MusicPayload `json:"music"`
}

// LightPayload is the light state after the change.
type LightPayload struct {
	On         bool   `json:"on"`
	Brightness string `json:"brightness"`
}

// MusicPayload is the music state after the change.
type MusicPayload struct {
	Playing bool   `json:"playing"`
	Volume  string `json:"volume"`
}

// FormatPayload creates the JSON payload for a state change.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Home: HomePayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			Command:   event.Command,
			Light: LightPayload{
				On:         event.Light.On,
				Brightness: event.Light.Tier.String(),
			},
			Music: MusicPayload{
				Playing: event.Music.Playing,
				Volume:  event.Music.Volume.String(),
			},
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// Nop is a Publisher that discards everything. Used when no broker is configured.
type Nop struct{}

func (Nop) Publish(logic.Event) error       { return nil }
func (Nop) PublishSystem(SystemEvent) error { return nil }
func (Nop) Close() error                    { return nil }
