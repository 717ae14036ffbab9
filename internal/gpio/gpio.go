// Package gpio provides the light and buzzer outputs with hardware abstraction.
// The real implementation uses the Linux GPIO character device for digital
// light pins and periph.io hardware PWM for dimmable light pins and buzzers.
// The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/smarthome-panel/internal/logic"

// Driver drives every appliance output.
type Driver interface {
	logic.PWMOutput
	logic.DigitalOutput
	logic.ToneOutput

	// Close drives all outputs low and releases hardware resources.
	Close() error
}

// Default pin assignments (BCM numbering).
const (
	DefaultPinRed     = 13
	DefaultPinGreen   = 11
	DefaultPinBlue    = 12
	DefaultPinBuzzer1 = 10
	DefaultPinBuzzer2 = 21
)

// DefaultClockHz is the generator source clock emulated for the buzzers.
const DefaultClockHz = 125_000_000

// ToneFrequency returns the output frequency in Hz of a generator running
// from clockHz with the given divider and wrap.
func ToneFrequency(clockHz, div float64, wrap uint32) float64 {
	if div <= 0 {
		return 0
	}
	return clockHz / div / float64(wrap+1)
}

// ToneDuty returns the duty fraction in [0, 1] of a generator's compare level.
func ToneDuty(wrap, level uint32) float64 {
	if level > wrap {
		return 1
	}
	return float64(level) / float64(wrap+1)
}

// Options selects pins and light mode for the real driver.
type Options struct {
	Chip    string // gpio character device, e.g. "gpiochip0"
	Red     int
	Green   int
	Blue    int
	Buzzer1 int
	Buzzer2 int

	// DigitalLight drives the light pins as plain outputs instead of PWM.
	DigitalLight bool

	ClockHz float64 // emulated generator source clock
	LightHz float64 // PWM frequency of the light channels
}

// DefaultOptions returns the stock board wiring.
func DefaultOptions() Options {
	return Options{
		Chip:    "gpiochip0",
		Red:     DefaultPinRed,
		Green:   DefaultPinGreen,
		Blue:    DefaultPinBlue,
		Buzzer1: DefaultPinBuzzer1,
		Buzzer2: DefaultPinBuzzer2,
		ClockHz: DefaultClockHz,
		LightHz: 2000,
	}
}
