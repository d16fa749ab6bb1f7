package mqtt

import (
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/switchnode/internal/config"
	"github.com/sweeney/switchnode/internal/logic"
)

// fakeToken is a paho.Token double that resolves when its channel closes.
type fakeToken struct {
	done chan struct{}
	err  error
}

func newPendingToken() *fakeToken {
	return &fakeToken{done: make(chan struct{})}
}

func newResolvedToken(err error) *fakeToken {
	t := newPendingToken()
	t.resolve(err)
	return t
}

func (t *fakeToken) resolve(err error) {
	t.err = err
	close(t.done)
}

func (t *fakeToken) Wait() bool {
	<-t.done
	return true
}

func (t *fakeToken) WaitTimeout(d time.Duration) bool {
	select {
	case <-t.done:
		return true
	case <-time.After(d):
		return false
	}
}

func (t *fakeToken) Done() <-chan struct{} { return t.done }
func (t *fakeToken) Error() error          { return t.err }

type fakePub struct {
	topic    string
	qos      byte
	retained bool
	payload  string
}

// fakeClient is a paho.Client double driven explicitly by the tests.
type fakeClient struct {
	connected    bool
	connectToken *fakeToken
	published    []fakePub
	subs         map[string]paho.MessageHandler
	disconnects  int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		connectToken: newPendingToken(),
		subs:         make(map[string]paho.MessageHandler),
	}
}

func (c *fakeClient) IsConnected() bool      { return c.connected }
func (c *fakeClient) IsConnectionOpen() bool { return c.connected }
func (c *fakeClient) Connect() paho.Token    { return c.connectToken }

func (c *fakeClient) Disconnect(quiesce uint) {
	c.connected = false
	c.disconnects++
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.published = append(c.published, fakePub{
		topic: topic, qos: qos, retained: retained, payload: payload.(string),
	})
	return newResolvedToken(nil)
}

func (c *fakeClient) Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token {
	c.subs[topic] = callback
	return newResolvedToken(nil)
}

func (c *fakeClient) SubscribeMultiple(filters map[string]byte, callback paho.MessageHandler) paho.Token {
	for topic := range filters {
		c.subs[topic] = callback
	}
	return newResolvedToken(nil)
}

func (c *fakeClient) Unsubscribe(topics ...string) paho.Token {
	return newResolvedToken(nil)
}

func (c *fakeClient) AddRoute(topic string, callback paho.MessageHandler) {}

func (c *fakeClient) OptionsReader() paho.ClientOptionsReader {
	return paho.ClientOptionsReader{}
}

// fakeInbound is a paho.Message double.
type fakeInbound struct {
	topic   string
	payload []byte
}

func (m *fakeInbound) Duplicate() bool   { return false }
func (m *fakeInbound) Qos() byte         { return 0 }
func (m *fakeInbound) Retained() bool    { return false }
func (m *fakeInbound) Topic() string     { return m.topic }
func (m *fakeInbound) MessageID() uint16 { return 0 }
func (m *fakeInbound) Payload() []byte   { return m.payload }
func (m *fakeInbound) Ack()              {}

func readyConfig() config.MQTTConfig {
	return config.MQTTConfig{
		Enabled:   true,
		Host:      "broker.local",
		Port:      1883,
		BaseTopic: "home/sw",
	}
}

// newTestBridge returns a bridge whose paho clients are fakes, plus a
// pointer to the most recently created fake.
func newTestBridge(cfg config.MQTTConfig) (*Bridge, **fakeClient) {
	b := New(cfg, "switchnode-A1B2C3")
	last := new(*fakeClient)
	b.newClient = func(_ *paho.ClientOptions) paho.Client {
		c := newFakeClient()
		*last = c
		return c
	}
	return b, last
}

func (c *fakeClient) find(t *testing.T, topic string) fakePub {
	t.Helper()
	for _, p := range c.published {
		if p.topic == topic {
			return p
		}
	}
	t.Fatalf("no publish on %q (got %+v)", topic, c.published)
	return fakePub{}
}

func TestBridgeNotReadyStaysDisconnected(t *testing.T) {
	cfg := readyConfig()
	cfg.Enabled = false
	b, last := newTestBridge(cfg)

	for i := 0; i < 5; i++ {
		b.EnsureConnected()
	}

	if b.State() != StateDisconnected {
		t.Errorf("state: got %v, want disconnected", b.State())
	}
	if *last != nil {
		t.Error("no client should have been created")
	}
}

func TestBridgeConnectLifecycle(t *testing.T) {
	b, last := newTestBridge(readyConfig())
	b.SetStateSource(func() ([logic.NumRelays]bool, [logic.NumInputs]bool) {
		return [4]bool{true, false, false, true}, [4]bool{false, true, false, false}
	})

	b.EnsureConnected()
	if b.State() != StateConnecting {
		t.Fatalf("state after start: got %v, want connecting", b.State())
	}

	// Handshake still in flight: stay in Connecting without blocking.
	b.EnsureConnected()
	if b.State() != StateConnecting {
		t.Fatalf("state while pending: got %v, want connecting", b.State())
	}

	c := *last
	c.connected = true
	c.connectToken.resolve(nil)
	b.EnsureConnected()

	if b.State() != StateConnected {
		t.Fatalf("state after handshake: got %v, want connected", b.State())
	}

	// Entry side effects: availability online (retained, qos 1).
	avail := c.find(t, "home/sw/status")
	if avail.payload != "online" || !avail.retained || avail.qos != 1 {
		t.Errorf("availability publish: got %+v", avail)
	}

	// Command subscriptions.
	if _, ok := c.subs["home/sw/relay/+/set"]; !ok {
		t.Error("missing per-relay wildcard subscription")
	}
	if _, ok := c.subs["home/sw/relay/set"]; !ok {
		t.Error("missing batch subscription")
	}

	// Full retained resync: 4 relay + 4 input states.
	wantStates := map[string]string{
		"home/sw/relay/1/state": "ON",
		"home/sw/relay/2/state": "OFF",
		"home/sw/relay/3/state": "OFF",
		"home/sw/relay/4/state": "ON",
		"home/sw/input/1/state": "OFF",
		"home/sw/input/2/state": "ON",
		"home/sw/input/3/state": "OFF",
		"home/sw/input/4/state": "OFF",
	}
	for topic, want := range wantStates {
		p := c.find(t, topic)
		if p.payload != want || !p.retained {
			t.Errorf("%s: got payload=%q retained=%v, want %q retained", topic, p.payload, p.retained, want)
		}
	}
}

func TestBridgeConnectFailureRetriesNextTick(t *testing.T) {
	b, last := newTestBridge(readyConfig())

	b.EnsureConnected()
	first := *last
	first.connectToken.resolve(errors.New("connection refused"))

	b.EnsureConnected()
	if b.State() != StateDisconnected {
		t.Fatalf("state after failure: got %v, want disconnected", b.State())
	}

	// Next tick starts a fresh attempt with a new client.
	b.EnsureConnected()
	if b.State() != StateConnecting {
		t.Fatalf("state on retry: got %v, want connecting", b.State())
	}
	if *last == first {
		t.Error("retry should build a new client")
	}
}

func TestBridgeLinkLossDetected(t *testing.T) {
	b, last := newTestBridge(readyConfig())
	connectBridge(t, b, last)

	(*last).connected = false
	b.EnsureConnected()

	if b.State() != StateDisconnected {
		t.Errorf("state after link loss: got %v, want disconnected", b.State())
	}
}

func TestBridgeInboundQueued(t *testing.T) {
	b, last := newTestBridge(readyConfig())
	connectBridge(t, b, last)

	handler := (*last).subs["home/sw/relay/+/set"]
	if handler == nil {
		t.Fatal("no wildcard handler registered")
	}
	handler(*last, &fakeInbound{topic: "home/sw/relay/3/set", payload: []byte("ON")})

	select {
	case msg := <-b.Inbound():
		if msg.Topic != "home/sw/relay/3/set" || string(msg.Payload) != "ON" {
			t.Errorf("inbound: got %+v", msg)
		}
	default:
		t.Fatal("no message queued")
	}
}

func TestBridgePublishWhileDisconnectedDropped(t *testing.T) {
	b, last := newTestBridge(readyConfig())

	b.PublishRelayState(0, true)
	b.PublishInputState(0, true)

	if *last != nil {
		t.Error("publishing while disconnected must not touch a client")
	}
}

func TestBridgeUpdateConfigForcesReconnect(t *testing.T) {
	b, last := newTestBridge(readyConfig())
	connectBridge(t, b, last)
	c := *last

	cfg := readyConfig()
	cfg.BaseTopic = "new/base"
	b.UpdateConfig(cfg)

	if b.State() != StateDisconnected {
		t.Errorf("state after update: got %v, want disconnected", b.State())
	}
	if c.disconnects != 1 {
		t.Errorf("disconnects: got %d, want 1", c.disconnects)
	}
	// Clean shutdown publishes offline itself instead of leaving it to
	// the LWT.
	found := false
	for _, p := range c.published {
		if p.topic == "home/sw/status" && p.payload == "offline" && p.retained {
			found = true
		}
	}
	if !found {
		t.Error("offline availability not published on clean disconnect")
	}

	if got := b.Topics().Base(); got != "new/base" {
		t.Errorf("topics base: got %q, want new/base", got)
	}

	// Next tick reconnects with the new config.
	b.EnsureConnected()
	if b.State() != StateConnecting {
		t.Errorf("state: got %v, want connecting", b.State())
	}
}

func TestBridgeDisableDisconnects(t *testing.T) {
	b, last := newTestBridge(readyConfig())
	connectBridge(t, b, last)

	cfg := readyConfig()
	cfg.Enabled = false
	b.UpdateConfig(cfg)

	if b.State() != StateDisconnected {
		t.Fatalf("state: got %v, want disconnected", b.State())
	}
	b.EnsureConnected()
	if b.State() != StateDisconnected {
		t.Errorf("disabled bridge reconnected: %v", b.State())
	}
}

// connectBridge drives a test bridge into the Connected state.
func connectBridge(t *testing.T, b *Bridge, last **fakeClient) {
	t.Helper()
	b.EnsureConnected()
	if *last == nil {
		t.Fatal("connect not started")
	}
	(*last).connected = true
	(*last).connectToken.resolve(nil)
	b.EnsureConnected()
	if b.State() != StateConnected {
		t.Fatalf("state: got %v, want connected", b.State())
	}
}
