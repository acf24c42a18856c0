package client_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/testutil"
	"github.com/stretchr/testify/require"
)

func TestAggregate(t *testing.T) {
	_, c := testutil.Backend(t, sim.Options{})
	ctx := context.Background()

	devices, err := c.Devices(ctx)
	require.NoError(t, err)

	to := time.Now().UTC().Truncate(time.Hour)
	from := to.Add(-6 * time.Hour)

	pts, err := c.Aggregate(ctx, data.AggregateQuery{
		DeviceID:    devices[0].ID,
		Variable:    "temperature",
		Aggregation: data.AggAvg,
		Interval:    "1h",
		From:        from,
		To:          to,
	})
	require.NoError(t, err)
	require.Len(t, pts, 6)
	for _, p := range pts {
		require.NotNil(t, p.Value)
		require.InDelta(t, 72.5, *p.Value, 2.5)
	}

	pts, err = c.Aggregate(ctx, data.AggregateQuery{
		DeviceID:    "unknown",
		Variable:    "temperature",
		Aggregation: data.AggMax,
		From:        from,
		To:          to,
	})
	require.NoError(t, err)
	require.Empty(t, pts)

	_, err = c.Aggregate(ctx, data.AggregateQuery{DeviceID: devices[0].ID})
	require.Error(t, err)
}

func TestExport(t *testing.T) {
	_, c := testutil.Backend(t, sim.Options{})
	ctx := context.Background()

	devices, err := c.Devices(ctx)
	require.NoError(t, err)
	id := devices[0].ID

	to := time.Date(2024, 3, 1, 1, 0, 0, 0, time.UTC)
	from := to.Add(-10 * time.Minute)

	pts, err := c.ExportJSON(ctx, id, from, to)
	require.NoError(t, err)
	require.Len(t, pts, 10)
	require.Len(t, pts[0].Variables, len(sim.Variables))

	var buf bytes.Buffer
	n, err := c.ExportCSV(ctx, id, from, to, &buf)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 11)
	require.Equal(t, []string{"timestamp", "deviceId", "humidity", "temperature", "voltage"}, rows[0])

	dir := t.TempDir()
	var calls int
	path, err := c.DownloadExport(ctx, client.ExportJSON, id, from, to, dir,
		func(fraction, _ float64) { calls++ })
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, client.ExportFileName(client.ExportJSON, id)), path)
	require.NotZero(t, calls)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	var fromFile []data.TelemetryPoint
	require.NoError(t, json.Unmarshal(b, &fromFile))
	require.Len(t, fromFile, 10)

	_, err = c.DownloadExport(ctx, "xml", id, from, to, dir, nil)
	require.Error(t, err)

	_, err = c.DownloadExport(ctx, client.ExportCSV, "missing", from, to, dir, nil)
	require.Error(t, err)
}

func TestTelemetryStream(t *testing.T) {
	s, c := testutil.Backend(t, sim.Options{TelemetryInterval: 20 * time.Millisecond})

	readings := make(chan data.Reading, 100)
	ts, err := client.NewTelemetryStream(c.BaseURL(), c.Token(), func(r data.Reading) {
		select {
		case readings <- r:
		default:
		}
	})
	require.NoError(t, err)

	done := make(chan error)
	go func() { done <- ts.Run() }()

	select {
	case r := <-readings:
		_, err := s.Store().Device(r.DeviceID)
		require.NoError(t, err)
		require.Contains(t, r.Variables, "temperature")
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reading")
	}

	ts.Stop(nil)
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("telemetry stream did not stop")
	}
}

func TestExpBackoff(t *testing.T) {
	max := 30 * time.Second
	for _, tc := range []struct {
		attempts int
		min      time.Duration
	}{
		{0, time.Second},
		{3, 8 * time.Second},
		{10, max},
		{40, max},
		{100, max},
	} {
		d := client.ExpBackoff(tc.attempts, max)
		require.GreaterOrEqual(t, d, tc.min)
		require.Less(t, d, tc.min+time.Second)
	}
}
