package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// timestampLayout matches what browsers produce with Date.toISOString.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// zoneless layouts are produced by the mobile client; they are read in the
// local zone.
var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp is an instant stored as an ISO-8601 string inside record payloads.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to milliseconds, the precision kept on the wire.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t.Truncate(time.Millisecond).UTC()}
}

// TimestampPtr is NewTimestamp returning a pointer, handy for optional fields.
func TimestampPtr(t time.Time) *Timestamp {
	ts := NewTimestamp(t)
	return &ts
}

// ParseTimestamp accepts RFC 3339 with any fractional precision and the
// zone-less forms listed in zonelessLayouts. The result is always UTC.
func ParseTimestamp(s string) (Timestamp, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t.UTC()}, nil
	}
	for _, layout := range zonelessLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t.UTC()}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unsupported timestamp %q", s)
}

// String renders the browser form. Instants parsed from other clients with
// sub-millisecond digits keep them, so re-saving a record does not move it.
func (t Timestamp) String() string {
	u := t.UTC()
	if u.Nanosecond()%int(time.Millisecond) != 0 {
		return u.Format(time.RFC3339Nano)
	}
	return u.Format(timestampLayout)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
