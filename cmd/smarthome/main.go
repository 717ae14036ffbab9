// Command smarthome runs the appliance panel: a light and a melody buzzer
// driven from a control page, with status over HTTP and MQTT.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/smarthome-panel/internal/config"
	"github.com/sweeney/smarthome-panel/internal/control"
	"github.com/sweeney/smarthome-panel/internal/gpio"
	"github.com/sweeney/smarthome-panel/internal/logic"
	"github.com/sweeney/smarthome-panel/internal/mqtt"
	"github.com/sweeney/smarthome-panel/internal/status"
	"github.com/sweeney/smarthome-panel/internal/web"
)

// options holds the command line.
type options struct {
	board       string
	listen      string
	httpAddr    string
	broker      string
	heartbeat   time.Duration
	tick        time.Duration
	lightPolicy string
	printConfig bool
}

func main() {
	var o options
	flag.StringVar(&o.board, "board", "", "Board config file (YAML, empty for the stock board)")
	flag.StringVar(&o.listen, "listen", ":80", "Control page address")
	flag.StringVar(&o.httpAddr, "http", ":8080", "HTTP status address (empty to disable)")
	flag.StringVar(&o.broker, "broker", "", "MQTT broker address (empty to disable)")
	flag.DurationVar(&o.heartbeat, "heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	flag.DurationVar(&o.tick, "tick", 10*time.Millisecond, "Scheduler tick interval")
	flag.StringVar(&o.lightPolicy, "light-policy", "", `Light policy override ("pwm" or "pseudo")`)
	flag.BoolVar(&o.printConfig, "print-config", false, "Print the resolved board config and exit")

	flag.Parse()

	if err := run(o); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// loadBoard resolves the board file and the policy override.
func loadBoard(path, policy string) (config.Board, error) {
	board := config.Default()
	if path != "" {
		b, err := config.Load(path)
		if err != nil {
			return board, err
		}
		board = b
	}
	if policy != "" {
		board.LightPolicy = policy
	}
	if err := board.Validate(); err != nil {
		return board, fmt.Errorf("board: %w", err)
	}
	return board, nil
}

func run(o options) error {
	if o.tick <= 0 {
		return fmt.Errorf("tick must be positive, got %v", o.tick)
	}

	board, err := loadBoard(o.board, o.lightPolicy)
	if err != nil {
		return err
	}

	// Print config mode
	if o.printConfig {
		data, err := board.Marshal()
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	}

	// Initialize outputs
	drv, err := gpio.NewRealDriver(board.Options())
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer drv.Close()

	p := newPanel(drv, board.Digital())
	if err := p.init(time.Now()); err != nil {
		return fmt.Errorf("init outputs: %w", err)
	}

	// Control page
	srv, err := control.Listen(o.listen, control.DefaultAttempts, control.DefaultBackoff)
	if err != nil {
		return fmt.Errorf("init control: %w", err)
	}
	defer srv.Close()
	go func() {
		if err := srv.Serve(); err != nil {
			log.Printf("control server error: %v", err)
		}
	}()
	log.Printf("control page listening on %s", srv.Addr())

	// Initialize MQTT
	var (
		publisher  mqtt.Publisher = mqtt.Nop{}
		mqttStatus mqtt.ConnectionStatus
	)
	if o.broker != "" {
		rp := mqtt.NewRealPublisher(o.broker)
		rp.Connect()
		defer rp.Close()
		publisher, mqttStatus = rp, rp
	} else {
		log.Printf("mqtt disabled")
	}

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		TickMs:      o.tick.Milliseconds(),
		HeartbeatMs: o.heartbeat.Milliseconds(),
		Broker:      o.broker,
		ListenAddr:  o.listen,
		HTTPAddr:    o.httpAddr,
		LightPolicy: board.LightPolicy,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	}

	// Start HTTP status server
	if o.httpAddr != "" {
		hs := web.New(o.httpAddr, tracker)
		go func() {
			if err := hs.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer hs.Shutdown(context.Background())
		log.Printf("http status server listening on %s", o.httpAddr)
	}

	log.Printf("started: tick=%v light=%s broker=%q heartbeat=%v", o.tick, board.LightPolicy, o.broker, o.heartbeat)

	ticker := time.NewTicker(o.tick)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(p, srv, publisher, mqttStatus, tracker, o.heartbeat, time.Now, ticker.C, sigCh)
}

// requestSource hands queued control requests to the scheduler without blocking.
type requestSource interface {
	Poll(fn func(c control.Conn, payload []byte)) int
}

func runLoop(p *panel, requests requestSource, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	startTime := now()
	hb := logic.NewHeartbeat(startTime)

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			t := now()
			if err := p.silence(t); err != nil {
				log.Printf("silence outputs: %v", err)
			}

			reason := signalName(s)
			event := mqtt.SystemEvent{
				Timestamp: t,
				Event:     "SHUTDOWN",
				Reason:    reason,
				Retained:  true,
			}
			if tracker != nil {
				refreshTracker(tracker, p, mqttStatus)
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", reason)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()

			requests.Poll(func(c control.Conn, payload []byte) {
				event, ok := p.handle(c, payload, t)
				if !ok {
					return
				}
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			})

			p.tick(t)

			// Check for heartbeat
			if hbData := hb.Check(t, heartbeat, p.counts); hbData != nil {
				log.Printf("heartbeat: uptime=%v light_on=%d light_off=%d music_on=%d music_off=%d",
					hbData.Uptime, hbData.Counts.LightOn, hbData.Counts.LightOff, hbData.Counts.MusicOn, hbData.Counts.MusicOff)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					refreshTracker(tracker, p, mqttStatus)
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP/MQTT readers
			if tracker != nil {
				refreshTracker(tracker, p, mqttStatus)
			}
		}
	}
}

func refreshTracker(tracker *status.Tracker, p *panel, mqttStatus mqtt.ConnectionStatus) {
	tracker.Update(*p.home, p.counts)
	if mqttStatus != nil {
		tracker.SetMQTTConnected(mqttStatus.IsConnected())
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
