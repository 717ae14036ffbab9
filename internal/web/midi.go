package web

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/sweeney/smarthome-panel/internal/logic"
)

const (
	midiTempoBPM  = 120
	midiTicksPerQ = 960
	midiVelocity  = 100
)

// MIDIKey returns the MIDI key nearest to freqHz, clamped to 0..127.
func MIDIKey(freqHz int) uint8 {
	if freqHz <= 0 {
		return 0
	}
	k := math.Round(69 + 12*math.Log2(float64(freqHz)/440))
	switch {
	case k < 0:
		return 0
	case k > 127:
		return 127
	}
	return uint8(k)
}

// WriteMelodyMIDI writes the melody, as the buzzers sound it, as a
// single-track Standard MIDI File.
func WriteMelodyMIDI(w io.Writer) error {
	ticks := smf.MetricTicks(midiTicksPerQ)

	var tr smf.Track
	tr.Add(0, smf.MetaTempo(midiTempoBPM))
	for _, n := range logic.Melody {
		key := MIDIKey(logic.SoundingHz(n.FreqHz))
		tr.Add(0, midi.NoteOn(0, key, midiVelocity))
		tr.Add(ticks.Ticks(midiTempoBPM, n.Duration()), midi.NoteOff(0, key))
	}
	tr.Close(0)

	s := smf.New()
	s.TimeFormat = ticks
	if err := s.Add(tr); err != nil {
		return fmt.Errorf("add track: %w", err)
	}
	if _, err := s.WriteTo(w); err != nil {
		return fmt.Errorf("write smf: %w", err)
	}
	return nil
}
