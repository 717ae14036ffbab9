package logic

import "time"

// Note is one melody step.
type Note struct {
	FreqHz     int
	DurationMs int
}

// Duration returns the note length.
func (n Note) Duration() time.Duration {
	return time.Duration(n.DurationMs) * time.Millisecond
}

// Melody is the buzzer tune, played cyclically.
var Melody = [...]Note{
	{261, 400}, {261, 400}, {293, 800}, {261, 800}, {349, 800}, {330, 800},
	{261, 400}, {261, 400}, {293, 800}, {261, 800}, {392, 800}, {349, 800},
	{261, 400}, {261, 400}, {523, 800}, {440, 800}, {349, 800}, {330, 800},
	{261, 400}, {261, 400}, {523, 800}, {440, 800}, {392, 800}, {349, 800},
}

// Tone generator constants.
const (
	// ToneTickRate is the generator counter rate the wrap is derived from.
	ToneTickRate = 2_500_000
	// octaveShiftBelow marks table frequencies stored in a lower register.
	octaveShiftBelow = 2000
	octaveShift      = 8

	// Boot programming of the generators.
	InitialDivider = 80.0
	InitialWrap    = 833
)

// Divider returns the generator clock divider for a volume.
func (v Volume) Divider() float64 {
	switch v {
	case VolumeLow:
		return 300
	case VolumeHigh:
		return 50
	}
	return 80
}

// SoundingHz returns the pitch the buzzers produce for a table frequency.
func SoundingHz(freqHz int) int {
	if freqHz > 0 && freqHz < octaveShiftBelow {
		return freqHz * octaveShift
	}
	return freqHz
}

// ToneFor returns the generator wrap and compare level for a table frequency.
func ToneFor(freqHz int) (wrap, level uint32) {
	if freqHz <= 0 {
		return 0, 0
	}
	wrap = uint32(ToneTickRate / SoundingHz(freqHz))
	return wrap, wrap / 2
}

// Sequencer plays Melody on the tone generators.
type Sequencer struct {
	state *MusicState
	out   ToneOutput
}

// NewSequencer creates a sequencer mutating state and driving out.
func NewSequencer(state *MusicState, out ToneOutput) *Sequencer {
	if state.Volume == 0 {
		state.Volume = VolumeMedium
	}
	return &Sequencer{state: state, out: out}
}

// Init programs the idle generators: default divider and period, disabled.
func (s *Sequencer) Init() error {
	if err := s.out.SetClockDivider(InitialDivider); err != nil {
		return err
	}
	if err := s.out.SetTone(InitialWrap, 0); err != nil {
		return err
	}
	return s.out.SetEnabled(false)
}

// State returns a copy of the music state.
func (s *Sequencer) State() MusicState {
	return *s.state
}

// Start resumes playback from the current note.
func (s *Sequencer) Start() {
	s.state.Playing = true
}

// Stop halts playback and silences the generators before returning.
func (s *Sequencer) Stop() error {
	s.state.Playing = false
	return s.out.SetEnabled(false)
}

// SetVolume stores v and reprograms the divider. The generators are enabled
// only while playing, so a volume change never starts sound on its own.
func (s *Sequencer) SetVolume(v Volume) error {
	s.state.Volume = v
	if err := s.out.SetClockDivider(v.Divider()); err != nil {
		return err
	}
	return s.out.SetEnabled(s.state.Playing)
}

// Tick plays the next note once its deadline has passed.
func (s *Sequencer) Tick(now time.Time) error {
	st := s.state
	if !st.Playing || now.Before(st.NextNote) {
		return nil
	}

	note := Melody[st.NoteIndex]
	wrap, level := ToneFor(note.FreqHz)

	// Deadlines chain from the previous deadline so tick jitter does not
	// accumulate. Rebase on now for the first note or when more than a
	// whole note behind (resume after stop).
	base := st.NextNote
	if base.IsZero() || elapsedSince(base, now) >= note.Duration() {
		base = now
	}
	st.NextNote = base.Add(note.Duration())
	st.NoteIndex = (st.NoteIndex + 1) % len(Melody)

	if err := s.out.SetTone(wrap, level); err != nil {
		return err
	}
	return s.out.SetEnabled(true)
}
