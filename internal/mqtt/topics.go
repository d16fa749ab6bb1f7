package mqtt

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sweeney/switchnode/internal/logic"
)

// TopicSet is a read-only projection of the configured base topic. It is
// rebuilt whenever the broker config changes and never mutated in place.
//
// Layout (relays and inputs are 1-indexed on the wire):
//
//	<base>/status            availability, online/offline, retained
//	<base>/relay/<n>/set     inbound per-relay command
//	<base>/relay/<n>/state   outbound relay state, retained
//	<base>/relay/set         inbound batch command (JSON object)
//	<base>/input/<n>/state   outbound input state, retained
type TopicSet struct {
	base string
}

// NewTopicSet derives topics from a base, stripping surrounding whitespace
// and trailing slashes.
func NewTopicSet(base string) TopicSet {
	return TopicSet{base: strings.TrimRight(strings.TrimSpace(base), "/")}
}

// Base returns the normalized base topic.
func (ts TopicSet) Base() string { return ts.base }

// Availability returns the availability topic.
func (ts TopicSet) Availability() string {
	return ts.base + "/status"
}

// RelaySetWildcard returns the subscription pattern covering all per-relay
// command topics.
func (ts TopicSet) RelaySetWildcard() string {
	return ts.base + "/relay/+/set"
}

// BatchSet returns the batch command topic.
func (ts TopicSet) BatchSet() string {
	return ts.base + "/relay/set"
}

// RelaySet returns the command topic for relay idx (0-based).
func (ts TopicSet) RelaySet(idx int) string {
	return fmt.Sprintf("%s/relay/%d/set", ts.base, idx+1)
}

// RelayState returns the state topic for relay idx (0-based).
func (ts TopicSet) RelayState(idx int) string {
	return fmt.Sprintf("%s/relay/%d/state", ts.base, idx+1)
}

// InputState returns the state topic for input idx (0-based).
func (ts TopicSet) InputState(idx int) string {
	return fmt.Sprintf("%s/input/%d/state", ts.base, idx+1)
}

// MatchRelaySet parses a per-relay command topic. It returns the 0-based
// relay index and true when topic is exactly <base>/relay/<n>/set with n in
// range. Parsing is structural, no substring scans over the whole topic.
func (ts TopicSet) MatchRelaySet(topic string) (int, bool) {
	rest, ok := strings.CutPrefix(topic, ts.base+"/relay/")
	if !ok {
		return 0, false
	}
	numStr, suffix, ok := strings.Cut(rest, "/")
	if !ok || suffix != "set" {
		return 0, false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n < 1 || n > logic.NumRelays {
		return 0, false
	}
	return n - 1, true
}
