package mqtt

import (
	"go.uber.org/zap"

	"github.com/sweeney/switchnode/internal/logging"
	"github.com/sweeney/switchnode/internal/logic"
	"github.com/sweeney/switchnode/internal/relay"
)

// Message is an inbound broker message, queued for the cooperative loop.
type Message struct {
	Topic   string
	Payload []byte
}

// Applier is the command sink for inbound messages. Satisfied by
// relay.Router.
type Applier interface {
	Apply(relay.Command)
}

// matcher is one entry in the ordered dispatch table. try reports whether
// it claimed the message.
type matcher struct {
	name string
	try  func(Message) bool
}

// Dispatcher routes inbound messages through an ordered matcher list:
// per-relay command first, then batch, then logged-unhandled. Registration
// order is the precedence.
type Dispatcher struct {
	matchers []matcher
}

// NewDispatcher builds the dispatch table for a topic set.
func NewDispatcher(topics TopicSet, router Applier) *Dispatcher {
	d := &Dispatcher{}
	d.matchers = []matcher{
		{name: "relay-set", try: func(m Message) bool {
			idx, ok := topics.MatchRelaySet(m.Topic)
			if !ok {
				return false
			}
			kind, ok := logic.ParseCommand(string(m.Payload))
			if !ok {
				// Topic matched: claim the message, actuate nothing.
				logging.Warn("invalid relay command payload",
					zap.Int("relay", idx+1), zap.ByteString("payload", m.Payload))
				return true
			}
			router.Apply(relay.Command{Index: idx, Kind: kind, Origin: relay.OriginMQTT})
			return true
		}},
		{name: "relay-batch", try: func(m Message) bool {
			if m.Topic != topics.BatchSet() {
				return false
			}
			batch, err := logic.ParseBatch(m.Payload)
			if err != nil {
				logging.Warn("invalid batch payload", zap.Error(err))
				return true
			}
			for idx := 0; idx < logic.NumRelays; idx++ {
				kind, ok := batch[idx]
				if !ok {
					continue
				}
				router.Apply(relay.Command{Index: idx, Kind: kind, Origin: relay.OriginMQTT})
			}
			return true
		}},
	}
	return d
}

// Dispatch runs the message down the matcher list. Messages claimed by no
// matcher are logged and discarded.
func (d *Dispatcher) Dispatch(msg Message) {
	for _, m := range d.matchers {
		if m.try(msg) {
			return
		}
	}
	logging.Warn("unhandled topic", zap.String("topic", msg.Topic))
}
