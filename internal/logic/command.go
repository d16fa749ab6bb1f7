package logic

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseCommand maps a text payload to a command kind. Accepted synonyms:
// ON/1/TRUE, OFF/0/FALSE, and the literal TOGGLE. Comparison is
// case-insensitive and surrounding whitespace is ignored.
func ParseCommand(s string) (CommandKind, bool) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TOGGLE":
		return KindToggle, true
	case "ON", "1", "TRUE":
		return KindTurnOn, true
	case "OFF", "0", "FALSE":
		return KindTurnOff, true
	}
	return "", false
}

// ParseBatch decodes a batch command payload: a JSON object whose keys are
// relay numbers "1".."4" and whose values are command synonyms. Malformed
// JSON fails the whole batch; malformed or out-of-range entries inside a
// valid object are skipped individually. The returned map is keyed by
// 0-based relay index, iterate it in index order for deterministic effects.
func ParseBatch(payload []byte) (map[int]CommandKind, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("parse batch: %w", err)
	}

	out := make(map[int]CommandKind)
	for key, val := range raw {
		n, err := strconv.Atoi(key)
		if err != nil || n < 1 || n > NumRelays {
			continue
		}
		kind, ok := ParseCommand(coerceString(val))
		if !ok {
			continue
		}
		out[n-1] = kind
	}
	return out, nil
}

// coerceString renders JSON scalars the way a text payload would look, so
// {"1":1} and {"1":"1"} behave the same.
func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	}
	return ""
}
