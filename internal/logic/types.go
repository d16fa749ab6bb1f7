// Package logic contains pure business logic for the relay controller.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import "time"

// Channel counts for the fixed-function board.
const (
	NumRelays = 4
	NumInputs = 4
)

// State represents the externally visible state of a relay or input.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// StateFor converts a boolean (relay on, or input closed) to its wire form.
func StateFor(on bool) State {
	if on {
		return StateOn
	}
	return StateOff
}

// CommandKind is a relay-change request, independent of its origin.
type CommandKind string

const (
	KindTurnOn  CommandKind = "TURN_ON"
	KindTurnOff CommandKind = "TURN_OFF"
	KindToggle  CommandKind = "TOGGLE"
)

// Transition is a debounced input edge.
type Transition struct {
	Channel int // 0-based input index
	Closed  bool
	Time    time.Time
}
