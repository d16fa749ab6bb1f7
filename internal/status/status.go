// Package status provides a thread-safe snapshot of device state for the
// HTTP layer. The cooperative loop writes it every tick; handlers read it
// without touching loop-owned state.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/switchnode/internal/logic"
)

// MQTT is the broker-facing part of a snapshot.
type MQTT struct {
	Enabled      bool
	Connected    bool
	BaseTopic    string
	Availability string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs     int64
	DebounceMs int64
	HTTPAddr   string
}

// Snapshot is a point-in-time view of device state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Mode         string // "sta" or "ap"
	Relays       [logic.NumRelays]bool
	InputsClosed [logic.NumInputs]bool
	MQTT         MQTT
	IP           string
	MDNSHost     string
	StartTime    time.Time
	Now          time.Time
	Config       Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable device state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker. Mode is fixed for the process lifetime.
func NewTracker(startTime time.Time, mode string, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Mode:      mode,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the relay and input vectors. Called from the loop each tick.
func (t *Tracker) Update(relays [logic.NumRelays]bool, inputsClosed [logic.NumInputs]bool) {
	t.mu.Lock()
	t.snap.Relays = relays
	t.snap.InputsClosed = inputsClosed
	t.mu.Unlock()
}

// SetMQTT sets the broker-facing fields.
func (t *Tracker) SetMQTT(m MQTT) {
	t.mu.Lock()
	t.snap.MQTT = m
	t.mu.Unlock()
}

// SetNetwork sets the station address and mDNS hostname.
func (t *Tracker) SetNetwork(ip, mdnsHost string) {
	t.mu.Lock()
	t.snap.IP = ip
	t.snap.MDNSHost = mdnsHost
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the device state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
