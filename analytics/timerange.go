package analytics

import (
	"fmt"
	"strings"
	"time"

	"github.com/indcloud/console/data"
)

// TimeRange is a dashboard time range preset
type TimeRange struct {
	Name     string
	Duration time.Duration
	// Interval is the aggregation bucket used for the range
	Interval string
}

// time range presets, shortest first
var (
	LastHour  = TimeRange{"1h", time.Hour, "5m"}
	Last6h    = TimeRange{"6h", 6 * time.Hour, "15m"}
	Last24h   = TimeRange{"24h", 24 * time.Hour, "1h"}
	Last7d    = TimeRange{"7d", 7 * 24 * time.Hour, "6h"}
	Last30d   = TimeRange{"30d", 30 * 24 * time.Hour, "1d"}
	AllRanges = []TimeRange{LastHour, Last6h, Last24h, Last7d, Last30d}
)

// ParseTimeRange finds a preset by name
func ParseTimeRange(name string) (TimeRange, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, r := range AllRanges {
		if r.Name == name {
			return r, nil
		}
	}
	return TimeRange{}, fmt.Errorf("unknown time range %q", name)
}

// Window returns the [from, to) window of the range ending at now
func (r TimeRange) Window(now time.Time) (time.Time, time.Time) {
	to := now.UTC().Truncate(time.Minute)
	return to.Add(-r.Duration), to
}

// Next returns the next longer preset, wrapping to the shortest
func (r TimeRange) Next() TimeRange {
	for i, p := range AllRanges {
		if p.Name == r.Name {
			return AllRanges[(i+1)%len(AllRanges)]
		}
	}
	return AllRanges[0]
}

func (r TimeRange) String() string {
	return "last " + r.Name
}

// Query is an aggregate query without a device
type Query struct {
	Variable    string
	Aggregation data.Aggregation
	Interval    string
	From        time.Time
	To          time.Time
}

// NewQuery creates a query for variable over the range ending at now
func NewQuery(variable string, agg data.Aggregation, r TimeRange, now time.Time) Query {
	from, to := r.Window(now)
	return Query{
		Variable:    variable,
		Aggregation: agg,
		Interval:    r.Interval,
		From:        from,
		To:          to,
	}
}

// For returns the query for one device
func (q Query) For(deviceID string) data.AggregateQuery {
	return data.AggregateQuery{
		DeviceID:    deviceID,
		Variable:    q.Variable,
		Aggregation: q.Aggregation,
		Interval:    q.Interval,
		From:        q.From,
		To:          q.To,
	}
}
