package data

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseBackendLine(t *testing.T) {
	e := ParseBackendLine("2024-01-01 12:00:00.000 [main] ERROR org.App - disk full")
	if e.Level != LevelError {
		t.Error("expected ERROR, got: ", e.Level)
	}
	if e.Timestamp != "2024-01-01 12:00:00.000" {
		t.Error("timestamp not extracted: ", e.Timestamp)
	}
	if e.Source != SourceBackend {
		t.Error("wrong source: ", e.Source)
	}

	e = ParseBackendLine("short [TRACE] line")
	if e.Level != LevelDebug {
		t.Error("TRACE should map to DEBUG, got: ", e.Level)
	}
}

func TestParseMosquittoLine(t *testing.T) {
	e := ParseMosquittoLine("1700000000 : warning : client timed out")
	if e.Level != LevelWarn {
		t.Error("expected WARN, got: ", e.Level)
	}
	if e.Message != "client timed out" {
		t.Error("wrong message: ", e.Message)
	}
	if e.Timestamp != "1700000000" {
		t.Error("wrong timestamp: ", e.Timestamp)
	}
}

func TestParsePostgresLine(t *testing.T) {
	e := ParsePostgresLine("2024-01-01 12:00:00.000 UTC [42] FATAL:  role does not exist")
	if e.Level != LevelError {
		t.Error("expected ERROR, got: ", e.Level)
	}
	if e.Timestamp != "2024-01-01 12:00:00.000" {
		t.Error("wrong timestamp: ", e.Timestamp)
	}
}

func TestDisplayTimeMalformed(t *testing.T) {
	e := LogEntry{Timestamp: "not-a-timestamp-at-all-really"}
	if got := e.DisplayTime(); got != "not-a-timestamp-at-" {
		t.Error("unexpected fallback: ", got)
	}

	e = LogEntry{Timestamp: "garbage"}
	if got := e.DisplayTime(); got != "garbage" {
		t.Error("short malformed timestamp should be returned as is: ", got)
	}
}

func TestParseInterval(t *testing.T) {
	tests := map[string]time.Duration{
		"":    time.Hour,
		"5m":  5 * time.Minute,
		"1h":  time.Hour,
		"2d":  48 * time.Hour,
		"30s": 30 * time.Second,
		"h":   time.Hour,
		"7x":  time.Hour,
	}

	for in, exp := range tests {
		if got := ParseInterval(in); got != exp {
			t.Errorf("ParseInterval(%q) = %v, expected %v", in, got, exp)
		}
	}
}

func TestLastSeen(t *testing.T) {
	now := time.Now()
	if LastSeen(nil, now) != Never {
		t.Error("nil last seen should be Never")
	}
	if got := LastSeen(NewTime(now.Add(-90*time.Minute)), now); got != "1h ago" {
		t.Error("unexpected: ", got)
	}
}

func TestSmsOverThreshold(t *testing.T) {
	s := DefaultSmsSettings()
	s.CurrentMonthCost = 40
	if !s.OverThreshold() {
		t.Error("80% of budget spent should trip threshold")
	}
	s.AlertOnBudgetThreshold = false
	if s.OverThreshold() {
		t.Error("threshold alerts disabled")
	}
}

func TestDecodeZonelessTimes(t *testing.T) {
	var devices []Device
	err := json.Unmarshal([]byte(`[{"id":"d1","name":"pump","active":true,
		"createdAt":"2025-01-01T10:00:00.123456","updatedAt":"2025-01-02T08:30:00",
		"lastSeenAt":null}]`), &devices)
	if err != nil {
		t.Fatal("decoding devices: ", err)
	}
	if len(devices) != 1 {
		t.Fatal("expected 1 device, got: ", len(devices))
	}
	exp := time.Date(2025, 1, 1, 10, 0, 0, 123456000, time.UTC)
	if d := devices[0]; d.CreatedAt == nil || !d.CreatedAt.Equal(exp) {
		t.Error("wrong created time: ", d.CreatedAt)
	}
	if devices[0].LastSeenAt != nil {
		t.Error("null last seen should stay nil")
	}

	var orgs []Organization
	err = json.Unmarshal([]byte(`[{"id":1,"name":"acme","enabled":true,"createdAt":"2025-01-01T10:00:00"},
		{"id":2,"name":"beta","createdAt":"yesterday"}]`), &orgs)
	if err != nil {
		t.Fatal("decoding organizations: ", err)
	}
	if got := orgs[0].CreatedAt.UTC(); !got.Equal(time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)) {
		t.Error("wrong org created time: ", got)
	}
	if got := FormatTime(orgs[1].CreatedAt); got != NotAvailable {
		t.Error("malformed time should show N/A, got: ", got)
	}
}

func TestDeviceHealth(t *testing.T) {
	var d Device
	if d.Health() != NotAvailable {
		t.Error("missing score should be N/A, got: ", d.Health())
	}
	score := 87
	d.HealthScore = &score
	if d.Health() != "87%" {
		t.Error("unexpected health: ", d.Health())
	}
}
