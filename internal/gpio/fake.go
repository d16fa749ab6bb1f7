package gpio

import (
	"fmt"

	"github.com/sweeney/switchnode/internal/logic"
)

// SetCall records a single SetRelay invocation.
type SetCall struct {
	Index int
	On    bool
}

// FakeBank is a test double with settable input levels and recorded relay
// drives.
type FakeBank struct {
	// Inputs holds the logical input levels returned by ReadInputs.
	// Tests mutate this between ticks to simulate contacts.
	Inputs [logic.NumInputs]bool

	// Relays holds the last driven state per relay.
	Relays [logic.NumRelays]bool

	// SetCalls records every SetRelay call, including re-assertions of the
	// current state.
	SetCalls []SetCall

	// ReadError, if set, is returned by ReadInputs.
	ReadError error

	// SetError, if set, is returned by SetRelay.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeBank creates a FakeBank with all inputs open and all relays off.
func NewFakeBank() *FakeBank {
	return &FakeBank{}
}

// ReadInputs returns the current scripted input levels.
func (f *FakeBank) ReadInputs() ([logic.NumInputs]bool, error) {
	if f.ReadError != nil {
		return [logic.NumInputs]bool{}, f.ReadError
	}
	return f.Inputs, nil
}

// SetRelay records the drive and updates the relay state.
func (f *FakeBank) SetRelay(idx int, on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	if idx < 0 || idx >= logic.NumRelays {
		return fmt.Errorf("relay index %d out of range", idx)
	}
	f.Relays[idx] = on
	f.SetCalls = append(f.SetCalls, SetCall{Index: idx, On: on})
	return nil
}

// Close marks the bank as closed.
func (f *FakeBank) Close() error {
	f.Closed = true
	return nil
}
