// Package config loads the board description: which pins drive the light and
// buzzers, and how the light is driven. The board is fixed at startup.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/sweeney/smarthome-panel/internal/gpio"
)

// Light policies.
const (
	PolicyPWM    = "pwm"
	PolicyPseudo = "pseudo"
)

// Pins holds the BCM pin numbers of every output.
type Pins struct {
	Red     int `yaml:"red"`
	Green   int `yaml:"green"`
	Blue    int `yaml:"blue"`
	Buzzer1 int `yaml:"buzzer1"`
	Buzzer2 int `yaml:"buzzer2"`
}

// Board describes the appliance wiring.
type Board struct {
	Chip        string  `yaml:"chip"`
	LightPolicy string  `yaml:"light_policy"`
	Pins        Pins    `yaml:"pins"`
	PWMClockHz  float64 `yaml:"pwm_clock_hz"`
	LightHz     float64 `yaml:"light_hz"`
}

// Default returns the stock board.
func Default() Board {
	opts := gpio.DefaultOptions()
	return Board{
		Chip:        opts.Chip,
		LightPolicy: PolicyPWM,
		Pins: Pins{
			Red:     opts.Red,
			Green:   opts.Green,
			Blue:    opts.Blue,
			Buzzer1: opts.Buzzer1,
			Buzzer2: opts.Buzzer2,
		},
		PWMClockHz: opts.ClockHz,
		LightHz:    opts.LightHz,
	}
}

// Load reads a board file. Fields missing from the file keep their defaults.
func Load(path string) (Board, error) {
	b := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return b, fmt.Errorf("read board: %w", err)
	}
	if err := yaml.Unmarshal(data, &b); err != nil {
		return b, fmt.Errorf("parse board %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return b, fmt.Errorf("board %s: %w", path, err)
	}
	return b, nil
}

// Validate checks the board for impossible wiring.
func (b Board) Validate() error {
	var errs []error

	if b.Chip == "" {
		errs = append(errs, errors.New("chip is required"))
	}
	switch b.LightPolicy {
	case PolicyPWM, PolicyPseudo:
	default:
		errs = append(errs, fmt.Errorf("light_policy %q: must be %q or %q", b.LightPolicy, PolicyPWM, PolicyPseudo))
	}

	pins := []struct {
		name string
		pin  int
	}{
		{"red", b.Pins.Red},
		{"green", b.Pins.Green},
		{"blue", b.Pins.Blue},
		{"buzzer1", b.Pins.Buzzer1},
		{"buzzer2", b.Pins.Buzzer2},
	}
	seen := make(map[int]string, len(pins))
	for _, p := range pins {
		if p.pin < 0 {
			errs = append(errs, fmt.Errorf("pin %s: %d is negative", p.name, p.pin))
			continue
		}
		if other, ok := seen[p.pin]; ok {
			errs = append(errs, fmt.Errorf("pin %s: %d already used by %s", p.name, p.pin, other))
			continue
		}
		seen[p.pin] = p.name
	}

	if b.PWMClockHz <= 0 {
		errs = append(errs, fmt.Errorf("pwm_clock_hz %v: must be positive", b.PWMClockHz))
	}
	if b.LightHz <= 0 {
		errs = append(errs, fmt.Errorf("light_hz %v: must be positive", b.LightHz))
	}

	return errors.Join(errs...)
}

// Digital reports whether the light is driven as a plain on/off output.
func (b Board) Digital() bool {
	return b.LightPolicy == PolicyPseudo
}

// Options converts the board into driver options.
func (b Board) Options() gpio.Options {
	return gpio.Options{
		Chip:         b.Chip,
		Red:          b.Pins.Red,
		Green:        b.Pins.Green,
		Blue:         b.Pins.Blue,
		Buzzer1:      b.Pins.Buzzer1,
		Buzzer2:      b.Pins.Buzzer2,
		DigitalLight: b.Digital(),
		ClockHz:      b.PWMClockHz,
		LightHz:      b.LightHz,
	}
}

// Marshal renders the board as YAML.
func (b Board) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshal board: %w", err)
	}
	return data, nil
}
