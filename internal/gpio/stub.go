//go:build !linux

package gpio

import (
	"errors"

	"github.com/sweeney/switchnode/internal/logic"
)

// RealBank is not available on non-Linux platforms.
type RealBank struct{}

// NewRealBank returns an error on non-Linux platforms.
func NewRealBank(relayPins [logic.NumRelays]int, inputPins [logic.NumInputs]int, activeLow bool) (*RealBank, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// ReadInputs is not implemented on non-Linux platforms.
func (b *RealBank) ReadInputs() ([logic.NumInputs]bool, error) {
	return [logic.NumInputs]bool{}, errors.New("gpio: not supported")
}

// SetRelay is not implemented on non-Linux platforms.
func (b *RealBank) SetRelay(idx int, on bool) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (b *RealBank) Close() error {
	return nil
}
