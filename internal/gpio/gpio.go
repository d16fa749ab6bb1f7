// Package gpio provides relay output and dry-contact input access with
// hardware abstraction. The real implementation uses the Linux GPIO
// character device. The fake implementation allows testing without hardware.
package gpio

import "github.com/sweeney/switchnode/internal/logic"

// Bank drives the four relay outputs and samples the four inputs.
type Bank interface {
	// ReadInputs returns the logical input states, true = contact closed.
	// Inputs are pulled up and switch to ground, so the raw low level is
	// inverted here.
	ReadInputs() ([logic.NumInputs]bool, error)

	// SetRelay drives relay idx (0-based) to the given logical state.
	// The configured polarity (active-high or active-low) is applied at
	// this layer.
	SetRelay(idx int, on bool) error

	// Close releases GPIO resources, leaving all relays inactive.
	Close() error
}

// Default pin assignments (BCM numbering) matching the stock board wiring.
var (
	DefaultRelayPins = [logic.NumRelays]int{16, 17, 18, 19}
	DefaultInputPins = [logic.NumInputs]int{25, 26, 27, 14}
)
