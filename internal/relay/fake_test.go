package relay

import "errors"

// fakeOutputs records relay drives for assertions.
type fakeOutputs struct {
	states [4]bool
	calls  []int // relay index per call
	err    error
}

func (f *fakeOutputs) SetRelay(idx int, on bool) error {
	if f.err != nil {
		return f.err
	}
	if idx < 0 || idx >= len(f.states) {
		return errors.New("out of range")
	}
	f.states[idx] = on
	f.calls = append(f.calls, idx)
	return nil
}

// fakePublisher records retained publishes.
type fakePublisher struct {
	published []publishedState
}

type publishedState struct {
	idx int
	on  bool
}

func (f *fakePublisher) PublishRelayState(idx int, on bool) {
	f.published = append(f.published, publishedState{idx: idx, on: on})
}
