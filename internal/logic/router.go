package logic

import (
	"strings"
	"time"
)

// Control page commands.
const (
	CmdLightToggle      = "light_toggle"
	CmdVolumeLow        = "volume_low"
	CmdVolumeHigh       = "volume_high"
	CmdMusicToggle      = "music_toggle"
	CmdBrightnessLow    = "brightness_low"
	CmdBrightnessMedium = "brightness_medium"
	CmdBrightnessHigh   = "brightness_high"
)

// Commands lists the recognized commands in match order.
var Commands = []string{
	CmdLightToggle,
	CmdVolumeLow,
	CmdVolumeHigh,
	CmdMusicToggle,
	CmdBrightnessLow,
	CmdBrightnessMedium,
	CmdBrightnessHigh,
}

// Router maps request text to exactly one state mutation.
type Router struct {
	light *LightController
	music *Sequencer
}

// NewRouter creates a Router over the given controllers.
func NewRouter(light *LightController, music *Sequencer) *Router {
	return &Router{light: light, music: music}
}

// Match returns the first recognized command in request, or "" if none.
// Anything from the first '?' on is ignored. Matching is case-sensitive and
// looks for "GET /<command>" anywhere in the text.
func Match(request string) string {
	if i := strings.IndexByte(request, '?'); i >= 0 {
		request = request[:i]
	}
	for _, cmd := range Commands {
		if strings.Contains(request, "GET /"+cmd) {
			return cmd
		}
	}
	return ""
}

// Route applies the command found in request. It returns the resulting
// event and true when state changed. Output errors are returned alongside;
// the logical state change stands and is rendered again on the next tick.
func (r *Router) Route(request string, now time.Time) (Event, bool, error) {
	cmd := Match(request)
	if cmd == "" {
		return Event{}, false, nil
	}

	var (
		typ EventType
		err error
	)
	switch cmd {
	case CmdLightToggle:
		r.light.Toggle()
		typ = EventLightOff
		if r.light.State().On {
			typ = EventLightOn
		}
	case CmdBrightnessLow, CmdBrightnessMedium, CmdBrightnessHigh:
		if !r.light.SetBrightness(tierForCommand(cmd)) {
			return Event{}, false, nil
		}
		typ = EventBrightness
	case CmdVolumeLow:
		err = r.music.SetVolume(VolumeLow)
		typ = EventVolume
	case CmdVolumeHigh:
		err = r.music.SetVolume(VolumeHigh)
		typ = EventVolume
	case CmdMusicToggle:
		if r.music.State().Playing {
			err = r.music.Stop()
			typ = EventMusicOff
		} else {
			r.music.Start()
			err = r.music.SetVolume(VolumeMedium)
			typ = EventMusicOn
		}
	}

	return Event{
		Timestamp: now,
		Type:      typ,
		Command:   cmd,
		Light:     r.light.State(),
		Music:     r.music.State(),
	}, true, err
}

func tierForCommand(cmd string) Tier {
	switch cmd {
	case CmdBrightnessLow:
		return TierLow
	case CmdBrightnessMedium:
		return TierMedium
	case CmdBrightnessHigh:
		return TierHigh
	}
	return TierOff
}
