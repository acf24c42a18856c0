package data

import (
	"bytes"
	"encoding/json"
	"time"
)

// Time is an optional timestamp from the backend. Records carry both zoned
// and zone-less values, so decoding goes through ParseTimestamp. A value
// that cannot be parsed decodes to the zero time and shows as N/A.
type Time struct {
	time.Time
}

// NewTime returns t as an optional backend timestamp
func NewTime(t time.Time) *Time {
	return &Time{Time: t}
}

// UnmarshalJSON accepts any of the backend timestamp formats
func (t *Time) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		t.Time = time.Time{}
		return nil
	}
	t.Time, _ = ParseTimestamp(s)
	return nil
}
