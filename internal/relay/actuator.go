// Package relay owns the relay state vector and the single command path
// through which every origin (physical input, MQTT, HTTP) mutates it.
package relay

import (
	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
)

// Outputs drives the physical relay lines. Satisfied by gpio.Bank.
type Outputs interface {
	SetRelay(idx int, on bool) error
}

// Publisher receives retained state publications. Satisfied by the MQTT
// bridge; publishes while disconnected are dropped there, the reconnect
// resync re-asserts them.
type Publisher interface {
	PublishRelayState(idx int, on bool)
}

// Actuator is the single source of truth for relay state. All access goes
// through Set/Toggle; the state vector is never handed out by reference.
// Methods must be called only from the cooperative loop.
type Actuator struct {
	outputs Outputs
	pub     Publisher
	states  [logic.NumRelays]bool
}

// NewActuator creates an actuator with all relays off. The caller is
// expected to have parked the outputs at their inactive level already.
func NewActuator(outputs Outputs, pub Publisher) *Actuator {
	return &Actuator{outputs: outputs, pub: pub}
}

// Set drives relay idx to the given state, then publishes it retained.
// Indices outside the relay range are rejected with a log and no effect.
// Setting the value already in effect still re-drives the output and
// re-publishes, so observers never miss an explicit re-assertion.
func (a *Actuator) Set(idx int, on bool) {
	if idx < 0 || idx >= logic.NumRelays {
		logging.Warn("relay index out of range", zap.Int("index", idx))
		return
	}

	a.states[idx] = on
	if err := a.outputs.SetRelay(idx, on); err != nil {
		// Keep the logical state; the next drive re-asserts the line.
		logging.Error("drive relay", zap.Int("relay", idx+1), zap.Error(err))
	}
	logging.Info("relay set", zap.Int("relay", idx+1), zap.String("state", string(logic.StateFor(on))))

	a.pub.PublishRelayState(idx, on)
}

// Toggle inverts relay idx.
func (a *Actuator) Toggle(idx int) {
	if idx < 0 || idx >= logic.NumRelays {
		logging.Warn("relay index out of range", zap.Int("index", idx))
		return
	}
	a.Set(idx, !a.states[idx])
}

// States returns a copy of the relay state vector.
func (a *Actuator) States() [logic.NumRelays]bool {
	return a.states
}
