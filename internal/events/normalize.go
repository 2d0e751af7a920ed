package events

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"screensync/internal/model"
)

var errNoUsableFields = errors.New("record has no usable timestamp or kind")

// FromMap maps a loose JSON object to a NormalizedEvent. Records that already
// carry the canonical field names pass through; otherwise a best-effort
// mapping over common aliases applies. Structurally invalid records (no
// timestamp, no kind, negative timestamp) are rejected.
func FromMap(obj map[string]any) (model.NormalizedEvent, error) {
	t, ok := pickInt(obj, "t_event_ms", "timestamp_ms", "ts")
	if !ok {
		return model.NormalizedEvent{}, errNoUsableFields
	}
	kind, ok := pickString(obj, "kind", "type", "event")
	if !ok || kind == "" {
		return model.NormalizedEvent{}, errNoUsableFields
	}
	sessionKey, _ := pickString(obj, "session_key")
	deviceKey, _ := pickString(obj, "device_key")
	metadata := map[string]any{}
	if md, ok := obj["metadata"].(map[string]any); ok {
		metadata = md
	}
	ev := model.NormalizedEvent{
		TEventMS:   t,
		Kind:       kind,
		SessionKey: sessionKey,
		DeviceKey:  deviceKey,
		Metadata:   metadata,
		Raw:        obj,
	}
	if err := ev.Validate(); err != nil {
		return model.NormalizedEvent{}, fmt.Errorf("invalid event: %w", err)
	}
	return ev, nil
}

// FromJSONLine decodes one JSONL record.
func FromJSONLine(line []byte) (model.NormalizedEvent, error) {
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		return model.NormalizedEvent{}, fmt.Errorf("decode event line: %w", err)
	}
	return FromMap(obj)
}

func pickInt(obj map[string]any, keys ...string) (int64, bool) {
	for _, key := range keys {
		v, ok := obj[key]
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int64(n), true
		case int64:
			return n, true
		case int:
			return int64(n), true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return i, true
			}
		case string:
			if i, err := strconv.ParseInt(n, 10, 64); err == nil {
				return i, true
			}
		}
	}
	return 0, false
}

func pickString(obj map[string]any, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key]; ok {
			if s, ok := v.(string); ok {
				return s, true
			}
		}
	}
	return "", false
}
