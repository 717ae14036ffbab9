//go:build linux

package gpio

import (
	"fmt"
	"strconv"

	"github.com/warthog618/go-gpiocdev"
	pgpio "periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/host"
)

// RealDriver drives actual hardware. Digital light pins go through the Linux
// GPIO character device; PWM light pins and buzzers through periph.io.
type RealDriver struct {
	opts Options

	chip  *gpiocdev.Chip
	lines *gpiocdev.Lines // digital light mode only

	lightPins [3]pgpio.PinIO // PWM light mode only
	buzzers   [2]pgpio.PinIO

	levels    [3]uint16
	levelsSet bool
	digital   bool
	digSet    bool

	div     float64
	tone    Tone
	enabled bool
}

// NewRealDriver opens the pins described by opts.
func NewRealDriver(opts Options) (*RealDriver, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init periph host: %w", err)
	}

	r := &RealDriver{opts: opts}

	var err error
	if r.buzzers[0], err = pwmPin(opts.Buzzer1); err != nil {
		return nil, fmt.Errorf("buzzer1: %w", err)
	}
	if r.buzzers[1], err = pwmPin(opts.Buzzer2); err != nil {
		return nil, fmt.Errorf("buzzer2: %w", err)
	}

	if opts.DigitalLight {
		chip, err := gpiocdev.NewChip(opts.Chip)
		if err != nil {
			return nil, fmt.Errorf("open gpio chip: %w", err)
		}
		lines, err := chip.RequestLines([]int{opts.Red, opts.Green, opts.Blue}, gpiocdev.AsOutput(0, 0, 0))
		if err != nil {
			chip.Close()
			return nil, fmt.Errorf("request light pins %d/%d/%d: %w", opts.Red, opts.Green, opts.Blue, err)
		}
		r.chip = chip
		r.lines = lines
		return r, nil
	}

	for i, pin := range []int{opts.Red, opts.Green, opts.Blue} {
		if r.lightPins[i], err = pwmPin(pin); err != nil {
			return nil, fmt.Errorf("light channel %d: %w", i, err)
		}
	}
	return r, nil
}

func pwmPin(n int) (pgpio.PinIO, error) {
	p := gpioreg.ByName(strconv.Itoa(n))
	if p == nil {
		return nil, fmt.Errorf("pin %d not found", n)
	}
	if err := p.Out(pgpio.Low); err != nil {
		return nil, fmt.Errorf("pin %d out: %w", n, err)
	}
	return p, nil
}

// SetLevels writes 16-bit duty values to the light channels.
// Identical consecutive writes are not forwarded to the hardware.
func (r *RealDriver) SetLevels(red, green, blue uint16) error {
	if r.lines != nil {
		return fmt.Errorf("light pins are digital")
	}
	levels := [3]uint16{red, green, blue}
	if r.levelsSet && levels == r.levels {
		return nil
	}
	for i, p := range r.lightPins {
		if levels[i] == 0 {
			if err := p.Out(pgpio.Low); err != nil {
				return fmt.Errorf("light channel %d: %w", i, err)
			}
			continue
		}
		duty := pgpio.Duty(uint64(levels[i]) * uint64(pgpio.DutyMax) / 65535)
		if err := p.PWM(duty, hertz(r.opts.LightHz)); err != nil {
			return fmt.Errorf("light channel %d: %w", i, err)
		}
	}
	r.levels = levels
	r.levelsSet = true
	return nil
}

// SetOn drives all three digital light pins to the same value.
func (r *RealDriver) SetOn(on bool) error {
	if r.lines == nil {
		return fmt.Errorf("light pins are PWM")
	}
	if r.digSet && on == r.digital {
		return nil
	}
	v := 0
	if on {
		v = 1
	}
	if err := r.lines.SetValues([]int{v, v, v}); err != nil {
		return fmt.Errorf("set light pins: %w", err)
	}
	r.digital = on
	r.digSet = true
	return nil
}

// SetClockDivider sets the emulated generator clock divider.
func (r *RealDriver) SetClockDivider(div float64) error {
	r.div = div
	return r.applyTone()
}

// SetTone sets the emulated generator wrap and compare level.
func (r *RealDriver) SetTone(wrap, level uint32) error {
	r.tone = Tone{Wrap: wrap, Level: level}
	return r.applyTone()
}

// SetEnabled starts or silences both buzzers.
func (r *RealDriver) SetEnabled(on bool) error {
	r.enabled = on
	return r.applyTone()
}

func (r *RealDriver) applyTone() error {
	for i, p := range r.buzzers {
		if !r.enabled || r.tone.Wrap == 0 || r.div <= 0 {
			if err := p.Out(pgpio.Low); err != nil {
				return fmt.Errorf("buzzer%d: %w", i+1, err)
			}
			continue
		}
		hz := ToneFrequency(r.opts.ClockHz, r.div, r.tone.Wrap)
		duty := pgpio.Duty(ToneDuty(r.tone.Wrap, r.tone.Level) * float64(pgpio.DutyMax))
		if err := p.PWM(duty, hertz(hz)); err != nil {
			return fmt.Errorf("buzzer%d: %w", i+1, err)
		}
	}
	return nil
}

func hertz(hz float64) physic.Frequency {
	return physic.Frequency(hz * float64(physic.Hertz))
}

// Close silences the buzzers, turns the light off and releases the pins.
func (r *RealDriver) Close() error {
	var errs []error

	for i, p := range r.buzzers {
		if p == nil {
			continue
		}
		if err := p.Out(pgpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("silence buzzer%d: %w", i+1, err))
		}
	}
	for i, p := range r.lightPins {
		if p == nil {
			continue
		}
		if err := p.Out(pgpio.Low); err != nil {
			errs = append(errs, fmt.Errorf("clear light channel %d: %w", i, err))
		}
	}
	if r.lines != nil {
		if err := r.lines.SetValues([]int{0, 0, 0}); err != nil {
			errs = append(errs, fmt.Errorf("clear light pins: %w", err))
		}
		if err := r.lines.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pins: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
