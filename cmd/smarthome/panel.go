package main

import (
	"log"
	"time"

	"github.com/sweeney/smarthome-panel/internal/control"
	"github.com/sweeney/smarthome-panel/internal/gpio"
	"github.com/sweeney/smarthome-panel/internal/logic"
)

// panel owns the appliance state and the controllers that mutate it.
// Every method runs on the scheduler goroutine.
type panel struct {
	home    *logic.Home
	light   *logic.LightController
	music   *logic.Sequencer
	handler *control.Handler
	counts  logic.EventCounts
}

func newPanel(drv gpio.Driver, digital bool) *panel {
	home := logic.NewHome()

	var policy logic.LightPolicy = logic.NewDirectPolicy(drv)
	if digital {
		policy = logic.NewPseudoPolicy(drv)
	}
	light := logic.NewLightController(&home.Light, policy)
	music := logic.NewSequencer(&home.Music, drv)

	return &panel{
		home:    home,
		light:   light,
		music:   music,
		handler: control.NewHandler(logic.NewRouter(light, music)),
	}
}

// init programs the idle buzzers and renders the dark light.
func (p *panel) init(now time.Time) error {
	if err := p.music.Init(); err != nil {
		return err
	}
	return p.light.Tick(now)
}

// handle processes one control request and counts the applied change.
func (p *panel) handle(c control.Conn, payload []byte, now time.Time) (logic.Event, bool) {
	ev, ok := p.handler.Handle(c, payload, now)
	if ok {
		p.counts.Add(ev.Type)
	}
	return ev, ok
}

// tick advances the light and the melody. Output errors are logged; the
// next tick writes the outputs again.
func (p *panel) tick(now time.Time) {
	if err := p.light.Tick(now); err != nil {
		log.Printf("light output error: %v", err)
	}
	if err := p.music.Tick(now); err != nil {
		log.Printf("buzzer output error: %v", err)
	}
}

// silence stops the melody and turns the light off.
func (p *panel) silence(now time.Time) error {
	err := p.music.Stop()
	if p.home.Light.On {
		p.light.Toggle()
	}
	if lerr := p.light.Tick(now); err == nil {
		err = lerr
	}
	return err
}
