package gpio

// Tone is a recorded generator programming.
type Tone struct {
	Wrap  uint32
	Level uint32
}

// FakeDriver is a test double that records every output write.
type FakeDriver struct {
	// Levels contains every (red, green, blue) duty write, in order.
	Levels [][3]uint16

	// Digital contains every digital light write, in order.
	Digital []bool

	// Divider is the last clock divider programmed.
	Divider float64

	// Dividers contains every divider write, in order.
	Dividers []float64

	// Tones contains every generator period write, in order.
	Tones []Tone

	// Enabled is the current generator enable state.
	Enabled bool

	// EnabledWrites contains every enable write, in order.
	EnabledWrites []bool

	// Closed tracks if Close was called.
	Closed bool

	// WriteError, if set, will be returned by every write.
	WriteError error
}

// NewFakeDriver creates an empty FakeDriver.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

// SetLevels records a PWM light write.
func (f *FakeDriver) SetLevels(red, green, blue uint16) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Levels = append(f.Levels, [3]uint16{red, green, blue})
	return nil
}

// SetOn records a digital light write.
func (f *FakeDriver) SetOn(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Digital = append(f.Digital, on)
	return nil
}

// SetClockDivider records a divider write.
func (f *FakeDriver) SetClockDivider(div float64) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Divider = div
	f.Dividers = append(f.Dividers, div)
	return nil
}

// SetTone records a generator period write.
func (f *FakeDriver) SetTone(wrap, level uint32) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Tones = append(f.Tones, Tone{Wrap: wrap, Level: level})
	return nil
}

// SetEnabled records a generator enable write.
func (f *FakeDriver) SetEnabled(on bool) error {
	if f.WriteError != nil {
		return f.WriteError
	}
	f.Enabled = on
	f.EnabledWrites = append(f.EnabledWrites, on)
	return nil
}

// Close marks the driver as closed and silences it.
func (f *FakeDriver) Close() error {
	f.Closed = true
	f.Enabled = false
	return nil
}

// LightOn reports the last digital write (false if none).
func (f *FakeDriver) LightOn() bool {
	if len(f.Digital) == 0 {
		return false
	}
	return f.Digital[len(f.Digital)-1]
}

// LastLevels returns the last PWM light write (zero if none).
func (f *FakeDriver) LastLevels() [3]uint16 {
	if len(f.Levels) == 0 {
		return [3]uint16{}
	}
	return f.Levels[len(f.Levels)-1]
}

// LastTone returns the last generator period write (zero if none).
func (f *FakeDriver) LastTone() Tone {
	if len(f.Tones) == 0 {
		return Tone{}
	}
	return f.Tones[len(f.Tones)-1]
}

// Reset clears recorded writes.
func (f *FakeDriver) Reset() {
	f.Levels = nil
	f.Digital = nil
	f.Divider = 0
	f.Dividers = nil
	f.Tones = nil
	f.Enabled = false
	f.EnabledWrites = nil
	f.Closed = false
	f.WriteError = nil
}
