package model

import (
	"bytes"
	"fmt"
	"time"
)

// ServerTimeLayout is the layout the API uses for every timestamp field.
const ServerTimeLayout = "2006-01-02 15:04:05"

// Timestamp is a time.Time that reads and writes the API's
// "YYYY-MM-DD HH:MM:SS" format. RFC 3339 and plain dates are accepted on
// input as well. A JSON null decodes to the zero time.
type Timestamp struct {
	time.Time
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		t.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp: expected string, got %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ParseTimestamp parses raw in any of the accepted layouts. An empty
// string yields the zero Timestamp.
func ParseTimestamp(raw string) (Timestamp, error) {
	if raw == "" {
		return Timestamp{}, nil
	}
	for _, layout := range []string{ServerTimeLayout, time.RFC3339Nano, "2006-01-02"} {
		parsed, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return Timestamp{Time: parsed}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("timestamp: unrecognized format %q", raw)
}

// ServerString returns the timestamp in the server layout, or "" when zero.
func (t Timestamp) ServerString() string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(ServerTimeLayout)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(ServerTimeLayout) + `"`), nil
}
