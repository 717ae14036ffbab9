package gpio

import (
	"errors"
	"math"
	"testing"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

// Compile-time checks that both drivers satisfy the interfaces the
// controllers consume.
var (
	_ Driver = (*FakeDriver)(nil)
	_ Driver = (*RealDriver)(nil)
)

func TestFakeDriverRecordsWrites(t *testing.T) {
	f := NewFakeDriver()

	f.SetLevels(1, 2, 3)
	f.SetLevels(4, 5, 6)
	f.SetOn(true)
	f.SetOn(false)

	if len(f.Levels) != 2 {
		t.Fatalf("expected 2 level writes, got %d", len(f.Levels))
	}
	if f.LastLevels() != [3]uint16{4, 5, 6} {
		t.Errorf("last levels: got %v, want [4 5 6]", f.LastLevels())
	}
	if len(f.Digital) != 2 {
		t.Fatalf("expected 2 digital writes, got %d", len(f.Digital))
	}
	if f.LightOn() {
		t.Error("expected light off after last write")
	}
}

func TestFakeDriverTone(t *testing.T) {
	f := NewFakeDriver()

	f.SetClockDivider(80)
	f.SetTone(1197, 598)
	f.SetEnabled(true)

	if f.Divider != 80 {
		t.Errorf("divider: got %v, want 80", f.Divider)
	}
	if f.LastTone() != (Tone{Wrap: 1197, Level: 598}) {
		t.Errorf("tone: got %+v", f.LastTone())
	}
	if !f.Enabled {
		t.Error("expected enabled")
	}
}

func TestFakeDriverError(t *testing.T) {
	f := NewFakeDriver()
	f.WriteError = errors.New("simulated error")

	if err := f.SetLevels(1, 1, 1); err == nil {
		t.Error("expected SetLevels error")
	}
	if err := f.SetOn(true); err == nil {
		t.Error("expected SetOn error")
	}
	if err := f.SetEnabled(true); err == nil {
		t.Error("expected SetEnabled error")
	}
	if len(f.Levels) != 0 || len(f.Digital) != 0 || f.Enabled {
		t.Error("failed writes must not be recorded")
	}
}

func TestFakeDriverCloseSilences(t *testing.T) {
	f := NewFakeDriver()
	f.SetEnabled(true)

	if err := f.Close(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if !f.Closed {
		t.Error("should be closed after Close()")
	}
	if f.Enabled {
		t.Error("generators should be disabled after Close()")
	}
}

func TestFakeDriverReset(t *testing.T) {
	f := NewFakeDriver()
	f.SetLevels(1, 1, 1)
	f.SetEnabled(true)
	f.Close()

	f.Reset()

	if len(f.Levels) != 0 || f.Enabled || f.Closed {
		t.Errorf("after reset: %+v", f)
	}
}

func TestToneFrequencyMatchesGenerator(t *testing.T) {
	// Middle C shifted up three octaves at the default divider.
	wrap, level := logic.ToneFor(261)
	hz := ToneFrequency(DefaultClockHz, logic.InitialDivider, wrap)
	want := 125_000_000.0 / 80 / float64(wrap+1)
	if math.Abs(hz-want) > 1e-9 {
		t.Errorf("frequency: got %v, want %v", hz, want)
	}
	duty := ToneDuty(wrap, level)
	if duty < 0.49 || duty > 0.51 {
		t.Errorf("duty: got %v, want ~0.5", duty)
	}
}

func TestToneFrequencyZeroDivider(t *testing.T) {
	if hz := ToneFrequency(DefaultClockHz, 0, 100); hz != 0 {
		t.Errorf("expected 0 Hz for zero divider, got %v", hz)
	}
}

func TestDefaultOptions(t *testing.T) {
	o := DefaultOptions()
	if o.Red != 13 || o.Green != 11 || o.Blue != 12 {
		t.Errorf("light pins: got %d/%d/%d, want 13/11/12", o.Red, o.Green, o.Blue)
	}
	if o.Buzzer1 != 10 || o.Buzzer2 != 21 {
		t.Errorf("buzzer pins: got %d/%d, want 10/21", o.Buzzer1, o.Buzzer2)
	}
	if o.DigitalLight {
		t.Error("expected PWM light by default")
	}
}
