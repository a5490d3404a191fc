package date

import (
	"encoding/json"
	"fmt"
	"time"
)

// MarshalJSON writes the date as an ISO-8601 calendar date. The zero Date is
// written as null.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD" as well as full RFC 3339 timestamps, of
// which only the UTC calendar date is kept.
func (d *Date) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("Date must be a string: %w", err)
	}
	parsed, err := ParseISO(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseISO parses a date or timestamp string. Empty strings yield the zero Date.
func ParseISO(s string) (Date, error) {
	if s == "" {
		return Date{}, nil
	}
	if d, err := Parse(DefaultFormat, s); err == nil {
		return d, nil
	}
	tm, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("Invalid date %q: %w", s, err)
	}
	return NewFromTime(tm.UTC()), nil
}
