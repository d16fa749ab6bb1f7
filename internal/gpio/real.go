//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sweeney/switchnode/internal/logic"
)

// RealBank drives actual hardware through the Linux GPIO character device.
type RealBank struct {
	chip      *gpiocdev.Chip
	relays    [logic.NumRelays]*gpiocdev.Line
	inputs    [logic.NumInputs]*gpiocdev.Line
	activeLow bool
}

// NewRealBank opens gpiochip0 and claims the relay and input lines.
// Relay lines start at their inactive level; input lines are requested with
// pull-up to suit dry contacts switched to ground.
func NewRealBank(relayPins [logic.NumRelays]int, inputPins [logic.NumInputs]int, activeLow bool) (*RealBank, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	b := &RealBank{chip: chip, activeLow: activeLow}

	inactive := 0
	if activeLow {
		inactive = 1
	}
	for i, pin := range relayPins {
		line, err := chip.RequestLine(pin, gpiocdev.AsOutput(inactive))
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request relay pin %d: %w", pin, err)
		}
		b.relays[i] = line
	}

	for i, pin := range inputPins {
		line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
		if err != nil {
			b.Close()
			return nil, fmt.Errorf("request input pin %d: %w", pin, err)
		}
		b.inputs[i] = line
	}

	return b, nil
}

// ReadInputs samples all input lines.
// Inverts raw levels: raw low (contact to ground) = closed.
func (b *RealBank) ReadInputs() ([logic.NumInputs]bool, error) {
	var out [logic.NumInputs]bool
	for i, line := range b.inputs {
		raw, err := line.Value()
		if err != nil {
			return out, fmt.Errorf("read input %d: %w", i+1, err)
		}
		out[i] = raw == 0
	}
	return out, nil
}

// SetRelay drives one relay line, applying the configured polarity.
func (b *RealBank) SetRelay(idx int, on bool) error {
	if idx < 0 || idx >= logic.NumRelays {
		return fmt.Errorf("relay index %d out of range", idx)
	}
	level := 0
	if on != b.activeLow {
		level = 1
	}
	if err := b.relays[idx].SetValue(level); err != nil {
		return fmt.Errorf("set relay %d: %w", idx+1, err)
	}
	return nil
}

// Close drives all relays inactive, then releases lines and the chip.
func (b *RealBank) Close() error {
	var errs []error

	inactive := 0
	if b.activeLow {
		inactive = 1
	}
	for i, line := range b.relays {
		if line == nil {
			continue
		}
		if err := line.SetValue(inactive); err != nil {
			errs = append(errs, fmt.Errorf("park relay %d: %w", i+1, err))
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close relay %d: %w", i+1, err))
		}
	}
	for i, line := range b.inputs {
		if line == nil {
			continue
		}
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input %d: %w", i+1, err))
		}
	}
	if b.chip != nil {
		if err := b.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
