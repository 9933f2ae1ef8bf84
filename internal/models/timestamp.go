package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is the persisted form of every timestamp (YYYY-MM-DD HH:mm:ss)
const TimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a local wall-clock time with one-second resolution.
// It serializes as a formatted string rather than a native date.
type Timestamp struct {
	time.Time
}

// NewTimestamp truncates t to the second in local time
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.In(time.Local).Truncate(time.Second)}
}

// ParseTimestamp parses the persisted layout in local time
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return Timestamp{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return Timestamp{t}, nil
}

// String returns the persisted layout
func (t Timestamp) String() string {
	return t.Format(TimestampLayout)
}

// Before reports whether t is strictly before u
func (t Timestamp) Before(u Timestamp) bool {
	return t.Time.Before(u.Time)
}

// Equal reports whether t and u are the same instant
func (t Timestamp) Equal(u Timestamp) bool {
	return t.Time.Equal(u.Time)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
