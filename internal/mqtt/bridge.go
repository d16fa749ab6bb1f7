// Package mqtt owns the broker connection lifecycle, topic layout, inbound
// command dispatch, and retained outbound state publication.
package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
)

// ConnState is the bridge connection lifecycle state.
type ConnState int

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	}
	return "unknown"
}

const (
	connectTimeout    = 10 * time.Second
	keepAlive         = 30 * time.Second
	disconnectQuiesce = 250 // milliseconds
	inboundQueueSize  = 64
)

// StateSource supplies current relay and input state for the reconnect
// resync. Wired after construction to break the cycle with the actuator.
type StateSource func() (relays [logic.NumRelays]bool, inputs [logic.NumInputs]bool)

// Bridge drives the broker connection one step per cooperative tick.
// All methods must be called from the loop goroutine; only the inbound
// queue is fed from paho's handler goroutines.
type Bridge struct {
	cfg      config.MQTTConfig
	topics   TopicSet
	clientID string

	state   ConnState
	client  paho.Client
	pending paho.Token // in-flight connect

	inbound chan Message
	source  StateSource

	// newClient is a test seam; defaults to paho.NewClient.
	newClient func(*paho.ClientOptions) paho.Client
}

// New creates a bridge for the given broker config. No connection is
// attempted until EnsureConnected runs with a ready config.
func New(cfg config.MQTTConfig, clientID string) *Bridge {
	return &Bridge{
		cfg:       cfg,
		topics:    NewTopicSet(cfg.BaseTopic),
		clientID:  clientID,
		inbound:   make(chan Message, inboundQueueSize),
		newClient: paho.NewClient,
	}
}

// SetStateSource wires the resync callback.
func (b *Bridge) SetStateSource(source StateSource) {
	b.source = source
}

// Topics returns the current derived topic set.
func (b *Bridge) Topics() TopicSet {
	return b.topics
}

// State returns the lifecycle state.
func (b *Bridge) State() ConnState {
	return b.state
}

// IsConnected reports whether the broker link is currently usable.
func (b *Bridge) IsConnected() bool {
	return b.state == StateConnected && b.client != nil && b.client.IsConnected()
}

// Inbound returns the queue of received messages. The loop drains it once
// per tick and feeds the dispatcher.
func (b *Bridge) Inbound() <-chan Message {
	return b.inbound
}

// EnsureConnected advances the connection state machine by at most one
// transition. It never blocks: connect attempts are started here and their
// tokens polled on later ticks.
func (b *Bridge) EnsureConnected() {
	switch b.state {
	case StateDisconnected:
		if !b.cfg.Ready() {
			return
		}
		b.startConnect()

	case StateConnecting:
		select {
		case <-b.pending.Done():
			if err := b.pending.Error(); err != nil {
				logging.Warn("broker connect failed", zap.Error(err))
				b.teardown()
				return
			}
			b.onConnected()
		default:
			// Still handshaking; check again next tick.
		}

	case StateConnected:
		if !b.cfg.Ready() {
			// Explicit disable via config update.
			b.Disconnect()
			return
		}
		if !b.client.IsConnected() {
			logging.Warn("broker link lost")
			b.teardown()
		}
	}
}

func (b *Bridge) startConnect() {
	opts := b.buildOptions()
	b.client = b.newClient(opts)
	b.pending = b.client.Connect()
	b.state = StateConnecting
	logging.Info("connecting to broker",
		zap.String("host", b.cfg.Host), zap.Int("port", b.cfg.Port),
		zap.String("base", b.topics.Base()))
}

func (b *Bridge) buildOptions() *paho.ClientOptions {
	opts := paho.NewClientOptions().
		AddBroker(fmt.Sprintf("tcp://%s:%d", b.cfg.Host, b.cfg.Port)).
		SetClientID(b.clientID).
		SetCleanSession(true).
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(keepAlive).
		// The loop retries every tick; paho must not race it with its own
		// reconnect machinery.
		SetAutoReconnect(false).
		SetConnectRetry(false)

	if b.cfg.Username != "" {
		opts.SetUsername(b.cfg.Username)
		opts.SetPassword(b.cfg.Password)
	}

	// The broker announces our death if we vanish without a clean
	// disconnect.
	opts.SetWill(b.topics.Availability(), "offline", 1, true)
	return opts
}

// onConnected runs the Connected entry side effects: availability online,
// command subscriptions, full retained state resync.
func (b *Bridge) onConnected() {
	b.state = StateConnected
	logging.Info("broker connected", zap.String("availability", b.topics.Availability()))

	b.publish(b.topics.Availability(), "online", 1)

	b.subscribe(b.topics.RelaySetWildcard())
	b.subscribe(b.topics.BatchSet())

	// Resynchronize any observer that joined or reconnected while we were
	// away, whether or not anything changed.
	if b.source != nil {
		relays, inputs := b.source()
		for i, on := range relays {
			b.PublishRelayState(i, on)
		}
		for i, closed := range inputs {
			b.PublishInputState(i, closed)
		}
	}
}

func (b *Bridge) subscribe(topic string) {
	token := b.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		// Runs on a paho goroutine: queue for the loop, never touch state.
		select {
		case b.inbound <- Message{Topic: m.Topic(), Payload: m.Payload()}:
		default:
			logging.Warn("inbound queue full, dropping message",
				zap.String("topic", m.Topic()))
		}
	})
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logging.Error("subscribe failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
	logging.Info("subscribed", zap.String("topic", topic))
}

// PublishRelayState publishes one relay's state, retained. Dropped silently
// while disconnected; the reconnect resync re-asserts it.
func (b *Bridge) PublishRelayState(idx int, on bool) {
	if idx < 0 || idx >= logic.NumRelays {
		return
	}
	b.publish(b.topics.RelayState(idx), string(logic.StateFor(on)), 0)
}

// PublishInputState publishes one input's state (ON = closed), retained.
func (b *Bridge) PublishInputState(idx int, closed bool) {
	if idx < 0 || idx >= logic.NumInputs {
		return
	}
	b.publish(b.topics.InputState(idx), string(logic.StateFor(closed)), 0)
}

func (b *Bridge) publish(topic, payload string, qos byte) {
	if !b.IsConnected() {
		return
	}
	// Retained, fire-and-forget: the loop must not wait on broker acks.
	token := b.client.Publish(topic, qos, true, payload)
	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			logging.Warn("publish failed", zap.String("topic", topic), zap.Error(err))
		}
	}()
}

// UpdateConfig swaps in a new broker config and recomputes the topic set.
// Any existing connection is torn down cleanly; the next tick reconnects if
// the new config is ready.
func (b *Bridge) UpdateConfig(cfg config.MQTTConfig) {
	b.Disconnect()
	b.cfg = cfg
	b.topics = NewTopicSet(cfg.BaseTopic)
	logging.Info("broker config updated",
		zap.Bool("enabled", cfg.Enabled), zap.String("host", cfg.Host),
		zap.String("base", b.topics.Base()))
}

// Disconnect publishes availability offline and closes the connection, so
// the broker does not fire the LWT for a clean shutdown.
func (b *Bridge) Disconnect() {
	if b.client != nil {
		if b.state == StateConnected && b.client.IsConnected() {
			token := b.client.Publish(b.topics.Availability(), 1, true, "offline")
			token.WaitTimeout(time.Second)
		}
		// Also kills an in-flight connect attempt.
		b.client.Disconnect(disconnectQuiesce)
	}
	b.teardown()
}

func (b *Bridge) teardown() {
	b.client = nil
	b.pending = nil
	b.state = StateDisconnected
}
