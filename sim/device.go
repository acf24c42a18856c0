package sim

import (
	"hash/fnv"
	"sort"
	"time"

	"github.com/indcloud/console/data"
)

// Variables are the telemetry variables every simulated device reports
var Variables = []string{"temperature", "voltage", "humidity"}

// SampleInterval is the spacing of simulated telemetry samples
const SampleInterval = time.Minute

// DeviceSim generates telemetry for a device
type DeviceSim struct {
	deviceID string
	waves    map[string]Wave
}

// NewDeviceSim creates a generator. Each device gets its own phase so devices
// do not report identical values.
func NewDeviceSim(deviceID string) *DeviceSim {
	h := fnv.New32a()
	_, _ = h.Write([]byte(deviceID))
	offset := float64(h.Sum32()%100) / 100

	return &DeviceSim{
		deviceID: deviceID,
		waves: map[string]Wave{
			"temperature": NewWave(70+5*offset, 0.2, 70, 75, SampleInterval),
			"voltage":     NewWave(1+4*offset, 0.1, 1, 5, SampleInterval),
			"humidity":    NewWave(30+40*offset, 0.5, 30, 70, SampleInterval),
		},
	}
}

// Reading returns the device reading at t
func (d *DeviceSim) Reading(t time.Time) data.Reading {
	r := data.Reading{
		DeviceID:  d.deviceID,
		Timestamp: t.UTC(),
		Variables: make(map[string]float64, len(d.waves)),
	}
	for name, w := range d.waves {
		r.Variables[name] = w.At(t)
	}
	return r
}

// Samples returns the sample times in [from, to)
func Samples(from, to time.Time) []time.Time {
	var ret []time.Time
	start := from.Truncate(SampleInterval)
	if start.Before(from) {
		start = start.Add(SampleInterval)
	}
	for t := start; t.Before(to); t = t.Add(SampleInterval) {
		ret = append(ret, t)
	}
	return ret
}

// Points returns the raw telemetry of the device in [from, to)
func (d *DeviceSim) Points(from, to time.Time) []data.TelemetryPoint {
	var ret []data.TelemetryPoint
	for _, t := range Samples(from, to) {
		r := d.Reading(t)
		ret = append(ret, data.TelemetryPoint(r))
	}
	return ret
}

// Has reports whether the device reports variable
func (d *DeviceSim) Has(variable string) bool {
	_, ok := d.waves[variable]
	return ok
}

// Aggregate reduces variable over [from, to) in buckets of interval. An empty
// interval yields a single bucket covering the whole range.
func (d *DeviceSim) Aggregate(variable string, agg data.Aggregation, interval string,
	from, to time.Time) []data.AggregatePoint {
	w, ok := d.waves[variable]
	if !ok {
		return []data.AggregatePoint{}
	}

	bucket := to.Sub(from)
	if interval != "" {
		bucket = data.ParseInterval(interval)
	}
	if bucket <= 0 {
		return []data.AggregatePoint{}
	}

	buckets := map[time.Time][]float64{}
	for _, t := range Samples(from, to) {
		start := from.Add(t.Sub(from) / bucket * bucket)
		buckets[start] = append(buckets[start], w.At(t))
	}

	keys := make([]time.Time, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Before(keys[j]) })

	ret := make([]data.AggregatePoint, 0, len(keys))
	for _, k := range keys {
		v := reduce(agg, buckets[k])
		ret = append(ret, data.AggregatePoint{
			DeviceID:    d.deviceID,
			Variable:    variable,
			Aggregation: agg,
			Timestamp:   k.UTC(),
			Value:       &v,
			Count:       int64(len(buckets[k])),
		})
	}
	return ret
}

func reduce(agg data.Aggregation, values []float64) float64 {
	var ret float64
	switch agg {
	case data.AggMin:
		ret = values[0]
		for _, v := range values[1:] {
			if v < ret {
				ret = v
			}
		}
	case data.AggMax:
		ret = values[0]
		for _, v := range values[1:] {
			if v > ret {
				ret = v
			}
		}
	case data.AggCount:
		ret = float64(len(values))
	default:
		for _, v := range values {
			ret += v
		}
		if agg == data.AggAvg {
			ret /= float64(len(values))
		}
	}
	return ret
}
