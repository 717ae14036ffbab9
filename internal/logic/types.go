// Package logic contains the appliance state machines driven by the scheduler.
// This package has NO external dependencies (no GPIO, network, OS, or time.Sleep).
// Time is always injectable via time.Time parameters, and hardware is reached
// only through the small output interfaces declared here.
package logic

import "time"

// Tier is the brightness level of the light.
type Tier int

const (
	TierOff Tier = iota
	TierLow
	TierMedium
	TierHigh
)

func (t Tier) String() string {
	switch t {
	case TierOff:
		return "OFF"
	case TierLow:
		return "LOW"
	case TierMedium:
		return "MEDIUM"
	case TierHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// Volume is the buzzer loudness level.
type Volume int

const (
	VolumeLow Volume = iota + 1
	VolumeMedium
	VolumeHigh
)

func (v Volume) String() string {
	switch v {
	case VolumeLow:
		return "LOW"
	case VolumeMedium:
		return "MEDIUM"
	case VolumeHigh:
		return "HIGH"
	}
	return "UNKNOWN"
}

// LightState is the logical state of the light.
// Tier is TierOff exactly when On is false.
type LightState struct {
	On   bool
	Tier Tier
}

// PseudoPhase tracks the software duty cycle of a digital-only light.
// Active is the length of the current half-period, latched at LastToggle.
type PseudoPhase struct {
	On         bool
	LastToggle time.Time
	Active     time.Duration
}

// MusicState is the melody playback state.
type MusicState struct {
	Playing   bool
	Volume    Volume
	NoteIndex int       // always a valid index into Melody
	NextNote  time.Time // absolute deadline of the next note; zero = none
}

// Home is the process-wide appliance state. It is owned by the scheduler
// loop and mutated only from it.
type Home struct {
	Light LightState
	Music MusicState
}

// NewHome returns the boot state: light off, music stopped at medium volume.
func NewHome() *Home {
	return &Home{
		Light: LightState{On: false, Tier: TierOff},
		Music: MusicState{Volume: VolumeMedium},
	}
}

// EventType names an applied state change.
type EventType string

const (
	EventLightOn    EventType = "LIGHT_ON"
	EventLightOff   EventType = "LIGHT_OFF"
	EventBrightness EventType = "BRIGHTNESS"
	EventVolume     EventType = "VOLUME"
	EventMusicOn    EventType = "MUSIC_ON"
	EventMusicOff   EventType = "MUSIC_OFF"
)

// Event describes a state change applied by the router, with the resulting state.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Command   string
	Light     LightState
	Music     MusicState
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	LightOn    int
	LightOff   int
	Brightness int
	Volume     int
	MusicOn    int
	MusicOff   int
}

// Add counts one event of the given type.
func (c *EventCounts) Add(t EventType) {
	switch t {
	case EventLightOn:
		c.LightOn++
	case EventLightOff:
		c.LightOff++
	case EventBrightness:
		c.Brightness++
	case EventVolume:
		c.Volume++
	case EventMusicOn:
		c.MusicOn++
	case EventMusicOff:
		c.MusicOff++
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

// PWMOutput drives the three light channels with a 16-bit duty value each.
type PWMOutput interface {
	SetLevels(red, green, blue uint16) error
}

// DigitalOutput drives the three light channels together as one binary output.
type DigitalOutput interface {
	SetOn(on bool) error
}

// ToneOutput programs both tone generators identically.
type ToneOutput interface {
	// SetClockDivider sets the generator clock divider; larger is quieter.
	SetClockDivider(div float64) error
	// SetTone sets the counter period (wrap) and the compare level.
	SetTone(wrap, level uint32) error
	// SetEnabled starts or silences both generators.
	SetEnabled(on bool) error
}
