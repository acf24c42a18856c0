package data

import (
	"strconv"
	"time"
)

// placeholders shown for missing optional fields
const (
	NotAvailable = "N/A"
	Never        = "Never"
)

// OrNA returns s, or N/A when s is empty
func OrNA(s string) string {
	if s == "" {
		return NotAvailable
	}
	return s
}

// FormatTime formats an optional time, or N/A when missing
func FormatTime(t *Time) string {
	if t == nil || t.IsZero() {
		return NotAvailable
	}
	return t.Local().Format("2006-01-02 15:04")
}

// LastSeen formats an optional last-seen time relative to now, or Never
func LastSeen(t *Time, now time.Time) string {
	if t == nil || t.IsZero() {
		return Never
	}
	d := now.Sub(t.Time)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return strconv.Itoa(int(d/time.Minute)) + "m ago"
	case d < 24*time.Hour:
		return strconv.Itoa(int(d/time.Hour)) + "h ago"
	default:
		return strconv.Itoa(int(d/(24*time.Hour))) + "d ago"
	}
}
