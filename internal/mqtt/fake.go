package mqtt

import "github.com/sweeney/switchnode/internal/logic"

// StatePublish records one retained state publication.
type StatePublish struct {
	Index int
	State logic.State
}

// FakePublisher records state publications for test assertions. It stands
// in for the bridge anywhere only the publish side is needed.
type FakePublisher struct {
	// Relays contains every relay-state publish, in order.
	Relays []StatePublish

	// Inputs contains every input-state publish, in order.
	Inputs []StatePublish
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishRelayState records a relay-state publish.
func (f *FakePublisher) PublishRelayState(idx int, on bool) {
	f.Relays = append(f.Relays, StatePublish{Index: idx, State: logic.StateFor(on)})
}

// PublishInputState records an input-state publish.
func (f *FakePublisher) PublishInputState(idx int, closed bool) {
	f.Inputs = append(f.Inputs, StatePublish{Index: idx, State: logic.StateFor(closed)})
}
