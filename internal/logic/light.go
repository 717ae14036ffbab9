package logic

import "time"

// Duty values for the hardware PWM policy (16-bit counter).
const (
	PWMMax       = 65535
	PWMLowLevel  = 327  // ~0.5%
	PWMMedLevel  = 6553 // ~10%
	PWMHighLevel = PWMMax
)

// Per-channel multipliers used to approximate white light.
const (
	redMultiplier   = 1.0
	greenMultiplier = 1.0
	blueMultiplier  = 1.0
)

// Window is an (on, off) pair for the software duty cycle.
type Window struct {
	On  time.Duration
	Off time.Duration
}

var pseudoWindows = map[Tier]Window{
	TierOff:    {On: 0, Off: 500 * time.Millisecond},
	TierLow:    {On: 5 * time.Millisecond, Off: 495 * time.Millisecond},
	TierMedium: {On: 250 * time.Millisecond, Off: 250 * time.Millisecond},
	TierHigh:   {On: 500 * time.Millisecond, Off: 0},
}

// WindowFor returns the software duty-cycle window for a tier.
func WindowFor(t Tier) Window {
	return pseudoWindows[t]
}

// LevelFor returns the hardware duty value for a tier.
func LevelFor(t Tier) uint16 {
	switch t {
	case TierLow:
		return PWMLowLevel
	case TierMedium:
		return PWMMedLevel
	case TierHigh:
		return PWMHighLevel
	}
	return 0
}

// LightPolicy derives the physical light output from the logical state.
type LightPolicy interface {
	Apply(light LightState, now time.Time) error
}

// DirectPolicy writes a fixed duty value per tier to hardware PWM channels.
type DirectPolicy struct {
	out PWMOutput
}

// NewDirectPolicy creates a DirectPolicy writing to out.
func NewDirectPolicy(out PWMOutput) *DirectPolicy {
	return &DirectPolicy{out: out}
}

// Apply writes the tier's duty to all three channels. Called every tick.
func (p *DirectPolicy) Apply(light LightState, _ time.Time) error {
	var base uint16
	if light.On {
		base = LevelFor(light.Tier)
	}
	return p.out.SetLevels(
		uint16(float64(base)*redMultiplier),
		uint16(float64(base)*greenMultiplier),
		uint16(float64(base)*blueMultiplier),
	)
}

// PseudoPolicy fakes brightness on digital pins by toggling them at the
// scheduler's own cadence.
type PseudoPolicy struct {
	out   DigitalOutput
	phase PseudoPhase
}

// NewPseudoPolicy creates a PseudoPolicy writing to out.
func NewPseudoPolicy(out DigitalOutput) *PseudoPolicy {
	return &PseudoPolicy{out: out}
}

// Phase returns the current software duty-cycle phase.
func (p *PseudoPolicy) Phase() PseudoPhase {
	return p.phase
}

// Apply advances the duty-cycle phase and writes phase && light.On.
// The half-period is latched when the phase flips, so a tier change only
// takes effect at the next toggle boundary.
func (p *PseudoPolicy) Apply(light LightState, now time.Time) error {
	if elapsedSince(p.phase.LastToggle, now) >= p.phase.Active {
		w := WindowFor(light.Tier)
		p.phase.On = !p.phase.On
		p.phase.LastToggle = now
		p.phase.Active = w.Off
		if p.phase.On {
			p.phase.Active = w.On
		}
	}
	return p.out.SetOn(p.phase.On && light.On)
}

// elapsedSince returns now-since, clamped at zero when the clock reads earlier.
func elapsedSince(since, now time.Time) time.Duration {
	d := now.Sub(since)
	if d < 0 {
		return 0
	}
	return d
}

// LightController owns the light's logical state transitions.
type LightController struct {
	state  *LightState
	policy LightPolicy
}

// NewLightController creates a controller mutating state and rendering
// it through policy.
func NewLightController(state *LightState, policy LightPolicy) *LightController {
	return &LightController{state: state, policy: policy}
}

// Toggle flips the light. Turning on selects TierMedium.
func (c *LightController) Toggle() {
	if c.state.On {
		c.state.On = false
		c.state.Tier = TierOff
		return
	}
	c.state.On = true
	c.state.Tier = TierMedium
}

// SetBrightness changes the tier of a lit light. It reports whether the
// state changed; a dark light or TierOff is ignored.
func (c *LightController) SetBrightness(t Tier) bool {
	if !c.state.On || t == TierOff {
		return false
	}
	c.state.Tier = t
	return true
}

// State returns a copy of the light state.
func (c *LightController) State() LightState {
	return *c.state
}

// Tick renders the current state to the outputs.
func (c *LightController) Tick(now time.Time) error {
	return c.policy.Apply(*c.state, now)
}
