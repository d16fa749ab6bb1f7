package relay

import (
	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
)

// Origin labels where a command came from. Side effects are identical for
// every origin; the label only appears in logs.
type Origin string

const (
	OriginInput Origin = "input"
	OriginMQTT  Origin = "mqtt"
	OriginHTTP  Origin = "http"
)

// Command is a relay-change request after origin-specific parsing.
type Command struct {
	Index  int // 0-based relay index
	Kind   logic.CommandKind
	Origin Origin
}

// Router is the single choke point for relay mutations. Each Apply causes
// at most one actuation, and the actuation's publish, regardless of origin.
type Router struct {
	actuator *Actuator
}

// NewRouter creates a router over the given actuator.
func NewRouter(actuator *Actuator) *Router {
	return &Router{actuator: actuator}
}

// Apply executes one command. Out-of-range indices are rejected inside the
// actuator; unknown kinds are dropped with a log.
func (r *Router) Apply(cmd Command) {
	logging.Debug("apply command",
		zap.Int("relay", cmd.Index+1),
		zap.String("kind", string(cmd.Kind)),
		zap.String("origin", string(cmd.Origin)))

	switch cmd.Kind {
	case logic.KindTurnOn:
		r.actuator.Set(cmd.Index, true)
	case logic.KindTurnOff:
		r.actuator.Set(cmd.Index, false)
	case logic.KindToggle:
		r.actuator.Toggle(cmd.Index)
	default:
		logging.Warn("unknown command kind", zap.String("kind", string(cmd.Kind)))
	}
}

// Queue carries commands from HTTP handler goroutines into the cooperative
// loop, which drains it once per tick.
type Queue chan Command

// NewQueue creates a queue with the given capacity.
func NewQueue(capacity int) Queue {
	return make(Queue, capacity)
}

// Push enqueues without blocking. A full queue drops the command and
// reports false; the caller surfaces the overload to its client.
func (q Queue) Push(cmd Command) bool {
	select {
	case q <- cmd:
		return true
	default:
		logging.Warn("command queue full, dropping",
			zap.Int("relay", cmd.Index+1), zap.String("origin", string(cmd.Origin)))
		return false
	}
}
