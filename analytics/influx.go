package analytics

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	api "github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

// InfluxConfig represents an influxdb config
type InfluxConfig struct {
	URL         string `yaml:"url"`
	Token       string `yaml:"token"`
	Org         string `yaml:"org"`
	Bucket      string `yaml:"bucket"`
	Measurement string `yaml:"measurement"`
}

// Validate checks that every field needed for a query is set
func (c InfluxConfig) Validate() error {
	switch {
	case c.URL == "":
		return errors.New("URL must be set for InfluxDb")
	case c.Token == "":
		return errors.New("Auth token must be set for InfluxDb")
	case c.Org == "":
		return errors.New("Org must be set for InfluxDb")
	case c.Bucket == "":
		return errors.New("Bucket must be set for InfluxDb")
	}
	return nil
}

// DefaultMeasurement is the measurement telemetry is stored under
const DefaultMeasurement = "telemetry"

// InfluxSource answers aggregate queries straight from the InfluxDB the
// backend writes telemetry to, and can record live readings into it.
type InfluxSource struct {
	config   InfluxConfig
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	queryAPI api.QueryAPI
}

// NewInfluxSource creates an influx backed source
func NewInfluxSource(config InfluxConfig) (*InfluxSource, error) {
	ret := &InfluxSource{}
	if err := ret.CheckConfig(config); err != nil {
		return nil, err
	}
	return ret, nil
}

// CheckConfig checks influx config and re-init if necessary
func (i *InfluxSource) CheckConfig(config InfluxConfig) error {
	if err := config.Validate(); err != nil {
		return err
	}
	if config.Measurement == "" {
		config.Measurement = DefaultMeasurement
	}
	if i.client != nil && i.config == config {
		return nil
	}

	log.WithFields(log.Fields{
		"url":    config.URL,
		"org":    config.Org,
		"bucket": config.Bucket,
	}).Info("Setting up new influxdb client")
	if i.client != nil {
		i.client.Close()
	}

	i.client = influxdb2.NewClient(config.URL, config.Token)
	i.writeAPI = i.client.WriteAPIBlocking(config.Org, config.Bucket)
	i.queryAPI = i.client.QueryAPI(config.Org)
	i.config = config
	return nil
}

var fluxFunctions = map[data.Aggregation]string{
	data.AggAvg:   "mean",
	data.AggMin:   "min",
	data.AggMax:   "max",
	data.AggSum:   "sum",
	data.AggCount: "count",
}

func fluxString(s string) string {
	return strconv.Quote(s)
}

// fluxQuery builds the Flux query for q
func (i *InfluxSource) fluxQuery(q data.AggregateQuery) (string, error) {
	fn, ok := fluxFunctions[q.Aggregation]
	if !ok {
		return "", fmt.Errorf("invalid aggregation type: %q", q.Aggregation)
	}

	every := q.To.Sub(q.From)
	if q.Interval != "" {
		every = data.ParseInterval(q.Interval)
	}
	if every < time.Second {
		every = time.Second
	}

	var b strings.Builder
	fmt.Fprintf(&b, "from(bucket: %v)\n", fluxString(i.config.Bucket))
	fmt.Fprintf(&b, "  |> range(start: %v, stop: %v)\n",
		q.From.UTC().Format(time.RFC3339), q.To.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "  |> filter(fn: (r) => r._measurement == %v and r.deviceId == %v and r._field == %v)\n",
		fluxString(i.config.Measurement), fluxString(q.DeviceID), fluxString(q.Variable))
	fmt.Fprintf(&b, "  |> aggregateWindow(every: %ds, fn: %v, createEmpty: false, timeSrc: \"_start\")\n",
		int64(every/time.Second), fn)
	return b.String(), nil
}

// Aggregate runs q against InfluxDB
func (i *InfluxSource) Aggregate(ctx context.Context, q data.AggregateQuery) ([]data.AggregatePoint, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	flux, err := i.fluxQuery(q)
	if err != nil {
		return nil, err
	}

	result, err := i.queryAPI.Query(ctx, flux)
	if err != nil {
		return nil, fmt.Errorf("influx query failed: %w", err)
	}
	defer result.Close()

	ret := []data.AggregatePoint{}
	for result.Next() {
		rec := result.Record()
		v, ok := toFloat(rec.Value())
		if !ok {
			continue
		}
		p := data.AggregatePoint{
			DeviceID:    q.DeviceID,
			Variable:    q.Variable,
			Aggregation: q.Aggregation,
			Timestamp:   rec.Time().UTC(),
			Value:       &v,
		}
		if q.Aggregation == data.AggCount {
			p.Count = int64(v)
		}
		ret = append(ret, p)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("influx query failed: %w", err)
	}
	return ret, nil
}

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	}
	return 0, false
}

// WriteReadings stores live readings, one point per reading
func (i *InfluxSource) WriteReadings(ctx context.Context, readings ...data.Reading) error {
	for _, r := range readings {
		fields := make(map[string]interface{}, len(r.Variables))
		for k, v := range r.Variables {
			fields[k] = v
		}
		p := influxdb2.NewPoint(i.config.Measurement,
			map[string]string{"deviceId": r.DeviceID},
			fields,
			r.Timestamp)
		if err := i.writeAPI.WritePoint(ctx, p); err != nil {
			return fmt.Errorf("influx write failed: %w", err)
		}
	}
	return nil
}

// Close influx client
func (i *InfluxSource) Close() {
	if i.client != nil {
		i.client.Close()
	}
}
