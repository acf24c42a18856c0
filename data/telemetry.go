package data

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Aggregation is a reducer applied to telemetry over a time bucket
type Aggregation string

// supported aggregations
const (
	AggAvg   Aggregation = "AVG"
	AggMin   Aggregation = "MIN"
	AggMax   Aggregation = "MAX"
	AggSum   Aggregation = "SUM"
	AggCount Aggregation = "COUNT"
)

// AllAggregations lists the supported aggregations
var AllAggregations = []Aggregation{AggAvg, AggMin, AggMax, AggSum, AggCount}

// ParseAggregation converts a string to an Aggregation, ignoring case
func ParseAggregation(s string) (Aggregation, error) {
	a := Aggregation(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range AllAggregations {
		if a == known {
			return a, nil
		}
	}
	return "", fmt.Errorf("invalid aggregation type: %q", s)
}

// AggregateQuery selects one aggregated series
type AggregateQuery struct {
	DeviceID    string
	Variable    string
	Aggregation Aggregation
	Interval    string
	From        time.Time
	To          time.Time
}

// Validate checks the query the same way the backend does
func (q AggregateQuery) Validate() error {
	if strings.TrimSpace(q.DeviceID) == "" {
		return fmt.Errorf("device ID is required")
	}
	if strings.TrimSpace(q.Variable) == "" {
		return fmt.Errorf("variable name is required")
	}
	if q.From.IsZero() || q.To.IsZero() {
		return fmt.Errorf("time range (from and to) is required")
	}
	if q.To.Before(q.From) {
		return fmt.Errorf("end time must be after start time")
	}
	if _, err := ParseAggregation(string(q.Aggregation)); err != nil {
		return err
	}
	return nil
}

// AggregatePoint is one bucket of an aggregated series
type AggregatePoint struct {
	DeviceID    string      `json:"deviceId"`
	Variable    string      `json:"variable"`
	Aggregation Aggregation `json:"aggregation"`
	Timestamp   time.Time   `json:"timestamp"`
	Value       *float64    `json:"value"`
	Count       int64       `json:"count"`
}

// TelemetryPoint is a raw telemetry record as exported by the backend
type TelemetryPoint struct {
	DeviceID  string             `json:"deviceId"`
	Timestamp time.Time          `json:"timestamp"`
	Variables map[string]float64 `json:"variables"`
}

// Reading is a live device reading pushed on the telemetry channel
type Reading struct {
	DeviceID  string             `json:"deviceId"`
	Timestamp time.Time          `json:"timestamp"`
	Variables map[string]float64 `json:"variables"`
}

// ParseInterval parses bucket intervals like "30s", "5m", "1h" and "1d". An
// empty or unknown interval means one hour.
func ParseInterval(interval string) time.Duration {
	interval = strings.TrimSpace(interval)
	if interval == "" {
		return time.Hour
	}

	i := strings.IndexFunc(interval, func(r rune) bool { return r < '0' || r > '9' })
	num := int64(1)
	unit := ""
	if i < 0 {
		unit = ""
		if n, err := strconv.ParseInt(interval, 10, 64); err == nil {
			num = n
		}
	} else {
		if i > 0 {
			if n, err := strconv.ParseInt(interval[:i], 10, 64); err == nil {
				num = n
			}
		}
		unit = strings.ToLower(interval[i:])
	}

	switch unit {
	case "s":
		return time.Duration(num) * time.Second
	case "m":
		return time.Duration(num) * time.Minute
	case "h":
		return time.Duration(num) * time.Hour
	case "d":
		return time.Duration(num) * 24 * time.Hour
	}
	return time.Hour
}
