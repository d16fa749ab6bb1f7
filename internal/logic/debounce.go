package logic

import "time"

// DebounceWindow is how long a raw input level must hold before it is
// treated as stable.
const DebounceWindow = 50 * time.Millisecond

// channelState tracks debounce state for a single input.
type channelState struct {
	// raw is the last sampled level. Updated on every change so the start
	// of a transition window is never missed, even for a single-sample blip.
	raw bool
	// stable is the debounced level.
	stable bool
	// lastChange is when raw last changed.
	lastChange time.Time
}

// Debouncer converts raw, bouncy input samples into stable transitions.
// It is a level filter, not an edge counter: any number of bounces inside
// the window collapse into one transition once the line settles.
type Debouncer struct {
	window   time.Duration
	channels [NumInputs]channelState
}

// NewDebouncer seeds all channels with their boot-time levels. The initial
// levels are immediately stable; no transition fires for them.
func NewDebouncer(window time.Duration, initial [NumInputs]bool, now time.Time) *Debouncer {
	d := &Debouncer{window: window}
	for i := range d.channels {
		d.channels[i] = channelState{
			raw:        initial[i],
			stable:     initial[i],
			lastChange: now,
		}
	}
	return d
}

// Sample feeds one raw reading for a channel and returns a transition if the
// level has settled on a new stable value, nil otherwise.
func (d *Debouncer) Sample(channel int, raw bool, now time.Time) *Transition {
	if channel < 0 || channel >= NumInputs {
		return nil
	}
	ch := &d.channels[channel]

	if raw != ch.raw {
		ch.raw = raw
		ch.lastChange = now
	}

	if now.Sub(ch.lastChange) > d.window && ch.stable != ch.raw {
		ch.stable = ch.raw
		return &Transition{Channel: channel, Closed: ch.stable, Time: now}
	}
	return nil
}

// Stable returns the debounced level of one channel.
func (d *Debouncer) Stable(channel int) bool {
	if channel < 0 || channel >= NumInputs {
		return false
	}
	return d.channels[channel].stable
}

// StableAll returns the debounced levels of all channels.
func (d *Debouncer) StableAll() [NumInputs]bool {
	var out [NumInputs]bool
	for i := range d.channels {
		out[i] = d.channels[i].stable
	}
	return out
}
