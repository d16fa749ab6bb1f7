// Command switchnode drives a four-relay, four-input switching node: it
// debounces the physical inputs, actuates the relays, and exposes the node
// over MQTT and HTTP. With no stored network credential it boots into an
// open setup hotspot instead.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/discovery"
	"github.com/sweeney/switchnode/internal/gpio"
	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
	"github.com/sweeney/switchnode/internal/mqtt"
	"github.com/sweeney/switchnode/internal/netmode"
	"github.com/sweeney/switchnode/internal/portal"
	"github.com/sweeney/switchnode/internal/relay"
	"github.com/sweeney/switchnode/internal/status"
	"github.com/sweeney/switchnode/internal/web"
)

const commandQueueSize = 16

func main() {
	configPath := flag.String("config", config.DefaultPath, "configuration file path")
	poll := flag.Duration("poll", 20*time.Millisecond, "input polling interval")
	iface := flag.String("iface", "wlan0", "wireless interface name")
	logLevel := flag.String("log-level", "", "log level (debug, info, warn, error)")
	flag.Parse()

	if err := logging.Initialize(*logLevel); err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(2)
	}
	defer logging.Sync()

	if err := run(*configPath, *poll, *iface); err != nil {
		logging.Fatal("fatal", zap.Error(err))
	}
}

func run(configPath string, poll time.Duration, iface string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	store := config.NewStore(configPath, cfg)

	id, err := deviceID()
	if err != nil {
		return fmt.Errorf("device id: %w", err)
	}
	logging.Info("starting", zap.String("id", id), zap.String("config", configPath))

	station := netmode.NewNMStation(iface)
	mode := netmode.Decide(context.Background(), station, netmode.Credential{
		SSID:     cfg.WiFi.SSID,
		Password: cfg.WiFi.Password,
	})

	if mode == netmode.ModeProvisioning {
		return runProvisioning(station, store, id)
	}
	return runOperational(station, store, id, poll)
}

// runProvisioning serves the setup hotspot until a credential arrives, then
// exits so the supervisor restarts the process into station mode.
func runProvisioning(station netmode.Station, store *config.Store, id string) error {
	apIP, err := station.StartAccessPoint(id)
	if err != nil {
		return fmt.Errorf("start hotspot: %w", err)
	}
	logging.Info("setup hotspot up", zap.String("ssid", id), zap.String("ip", apIP))

	dnsSrv, err := portal.NewDNSServer(":53", apIP)
	if err != nil {
		return err
	}
	go func() {
		if err := dnsSrv.ListenAndServe(); err != nil {
			logging.Error("captive dns server failed", zap.Error(err))
		}
	}()
	defer dnsSrv.Shutdown()

	restart := make(chan struct{}, 1)
	srv := portal.New(":80", store, id, restart)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("portal server failed", zap.Error(err))
		}
	}()
	defer srv.Shutdown(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-restart:
		logging.Info("credential received, exiting for restart")
		return nil
	case s := <-sigCh:
		logging.Info("shutting down", zap.String("signal", s.String()))
		return nil
	}
}

func runOperational(station netmode.Station, store *config.Store, id string, poll time.Duration) error {
	cfg := store.Current()

	bank, err := gpio.NewRealBank(cfg.GPIO.RelayPins, cfg.GPIO.InputPins, cfg.GPIO.ActiveLow)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer bank.Close()

	bridge := mqtt.New(cfg.MQTT, id)
	defer bridge.Disconnect()

	actuator := relay.NewActuator(bank, bridge)
	router := relay.NewRouter(actuator)
	queue := relay.NewQueue(commandQueueSize)

	tracker := status.NewTracker(time.Now(), string(netmode.ModeOperational), status.Config{
		PollMs:     poll.Milliseconds(),
		DebounceMs: logic.DebounceWindow.Milliseconds(),
		HTTPAddr:   cfg.HTTP.Addr,
	})
	ip, err := station.Address()
	if err != nil {
		logging.Warn("no station address", zap.Error(err))
	}
	tracker.SetNetwork(ip, id+".local")

	mqttUpdates := make(chan struct{}, 1)
	srv := web.New(cfg.HTTP.Addr, tracker, queue, store, mqttUpdates)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("http server failed", zap.Error(err))
		}
	}()
	defer srv.Shutdown(context.Background())
	logging.Info("http server listening", zap.String("addr", cfg.HTTP.Addr))

	adv, err := discovery.Advertise(id, httpPort(cfg.HTTP.Addr))
	if err != nil {
		logging.Warn("mdns registration failed", zap.Error(err))
	} else {
		defer adv.Close()
	}

	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(bank, bridge, actuator, router, queue, store, mqttUpdates, tracker, ticker.C, time.Now, sigCh)
}

// broker is the slice of the MQTT bridge the loop drives each tick.
type broker interface {
	EnsureConnected()
	Inbound() <-chan mqtt.Message
	Topics() mqtt.TopicSet
	IsConnected() bool
	UpdateConfig(config.MQTTConfig)
	PublishInputState(idx int, closed bool)
	SetStateSource(mqtt.StateSource)
	Disconnect()
}

// runLoop is the cooperative core. All relay, input, and broker state is
// owned by this goroutine; HTTP handlers and the MQTT client reach it only
// through the queue, the inbound channel, and the update signal.
func runLoop(bank gpio.Bank, bridge broker, actuator *relay.Actuator, router *relay.Router,
	queue relay.Queue, store *config.Store, mqttUpdates <-chan struct{},
	tracker *status.Tracker, tick <-chan time.Time, now func() time.Time, sig <-chan os.Signal) error {

	initial, err := bank.ReadInputs()
	if err != nil {
		return fmt.Errorf("initial input read: %w", err)
	}
	debouncer := logic.NewDebouncer(logic.DebounceWindow, initial, now())

	bridge.SetStateSource(func() ([logic.NumRelays]bool, [logic.NumInputs]bool) {
		return actuator.States(), debouncer.StableAll()
	})
	dispatcher := mqtt.NewDispatcher(bridge.Topics(), router)

	for {
		select {
		case s := <-sig:
			logging.Info("shutting down", zap.String("signal", s.String()))
			bridge.Disconnect()
			return nil

		case <-tick:
			t := now()

			bridge.EnsureConnected()

			// Drain what was queued at tick start; anything arriving during
			// the drain waits for the next tick.
			for n := len(bridge.Inbound()); n > 0; n-- {
				dispatcher.Dispatch(<-bridge.Inbound())
			}
			for n := len(queue); n > 0; n-- {
				router.Apply(<-queue)
			}

			select {
			case <-mqttUpdates:
				m := store.Current().MQTT
				logging.Info("broker config changed, reconnecting",
					zap.String("host", m.Host), zap.String("base", m.NormalizedBase()))
				bridge.UpdateConfig(m)
				dispatcher = mqtt.NewDispatcher(bridge.Topics(), router)
			default:
			}

			raw, err := bank.ReadInputs()
			if err != nil {
				logging.Warn("input read failed", zap.Error(err))
			} else {
				for i := 0; i < logic.NumInputs; i++ {
					tr := debouncer.Sample(i, raw[i], t)
					if tr == nil {
						continue
					}
					logging.Info("input changed",
						zap.Int("input", tr.Channel+1), zap.Bool("closed", tr.Closed))
					bridge.PublishInputState(tr.Channel, tr.Closed)
					if tr.Closed {
						router.Apply(relay.Command{
							Index:  tr.Channel,
							Kind:   logic.KindToggle,
							Origin: relay.OriginInput,
						})
					}
				}
			}

			tracker.Update(actuator.States(), debouncer.StableAll())
			m := store.Current().MQTT
			tracker.SetMQTT(status.MQTT{
				Enabled:      m.Enabled,
				Connected:    bridge.IsConnected(),
				BaseTopic:    m.NormalizedBase(),
				Availability: bridge.Topics().Availability(),
			})
		}
	}
}

// deviceID derives a stable identity from the first physical interface's
// MAC, e.g. "switchnode-a1b2c3".
func deviceID() (string, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return "", err
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || len(iface.HardwareAddr) < 6 {
			continue
		}
		return deviceIDFrom(iface.HardwareAddr), nil
	}
	return "", fmt.Errorf("no interface with a hardware address")
}

func deviceIDFrom(hw net.HardwareAddr) string {
	tail := hw[len(hw)-3:]
	return fmt.Sprintf("switchnode-%02x%02x%02x", tail[0], tail[1], tail[2])
}

// httpPort extracts the numeric port from a listen address for the mDNS
// registration, defaulting to 80.
func httpPort(addr string) int {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 80
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 {
		return 80
	}
	return port
}
