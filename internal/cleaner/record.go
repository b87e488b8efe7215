package cleaner

import "encoding/json"

// Kind says what a stored value turned out to contain.
type Kind int

const (
	// Untimed is valid JSON without a numeric timestamp field.
	Untimed Kind = iota
	// Timestamped is a JSON object carrying a numeric timestamp (epoch ms).
	Timestamped
	// Corrupt is a value that is not valid JSON.
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case Timestamped:
		return "timestamped"
	case Corrupt:
		return "corrupt"
	default:
		return "untimed"
	}
}

// Record is the parsed view of a stored signaling value.
type Record struct {
	Kind      Kind
	Timestamp float64
}

// Stale reports whether a timestamped record is older than MaxAge at nowMs.
func (r Record) Stale(nowMs int64) bool {
	return r.Kind == Timestamped && float64(nowMs)-r.Timestamp > float64(MaxAge.Milliseconds())
}

// Classify parses raw without ever failing.
func Classify(raw string) Record {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return Record{Kind: Corrupt}
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return Record{Kind: Untimed}
	}
	ts, ok := obj["timestamp"].(float64)
	if !ok {
		return Record{Kind: Untimed}
	}
	return Record{Kind: Timestamped, Timestamp: ts}
}
