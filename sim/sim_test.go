package sim

import (
	"testing"
	"time"

	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

func TestWaveBounds(t *testing.T) {
	w := NewWave(72, 0.2, 70, 75, time.Minute)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var sawLow, sawHigh bool
	for i := 0; i < 200; i++ {
		v := w.At(start.Add(time.Duration(i) * time.Minute))
		require.GreaterOrEqual(t, v, 70.0)
		require.LessOrEqual(t, v, 75.0)
		if v < 70.5 {
			sawLow = true
		}
		if v > 74.5 {
			sawHigh = true
		}
	}
	require.True(t, sawLow, "wave never reached the bottom")
	require.True(t, sawHigh, "wave never reached the top")
}

func TestWaveDeterministic(t *testing.T) {
	a := NewDeviceSim("dev-1")
	b := NewDeviceSim("dev-1")
	now := time.Now()
	require.Equal(t, a.Reading(now), b.Reading(now))
}

func TestDeviceAggregate(t *testing.T) {
	d := NewDeviceSim("dev-1")
	from := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.Add(3 * time.Hour)

	avg := d.Aggregate("temperature", data.AggAvg, "1h", from, to)
	require.Len(t, avg, 3)
	for i, p := range avg {
		require.Equal(t, from.Add(time.Duration(i)*time.Hour), p.Timestamp)
		require.Equal(t, int64(60), p.Count)
		require.NotNil(t, p.Value)
	}

	minPts := d.Aggregate("temperature", data.AggMin, "", from, to)
	maxPts := d.Aggregate("temperature", data.AggMax, "", from, to)
	require.Len(t, minPts, 1)
	require.Len(t, maxPts, 1)
	require.LessOrEqual(t, *minPts[0].Value, *maxPts[0].Value)

	count := d.Aggregate("humidity", data.AggCount, "", from, to)
	require.Equal(t, 180.0, *count[0].Value)

	require.Empty(t, d.Aggregate("pressure", data.AggAvg, "1h", from, to))
}

func TestSamples(t *testing.T) {
	from := time.Date(2024, 1, 1, 0, 0, 30, 0, time.UTC)
	s := Samples(from, from.Add(3*time.Minute))
	require.Len(t, s, 3)
	require.Equal(t, time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC), s[0])
}

func TestFeedHistoryCap(t *testing.T) {
	f := NewLogFeed(0, 1)

	var got []data.LogEntry
	cancel := f.Listen(func(e data.LogEntry) { got = append(got, e) })

	now := time.Now()
	for i := 0; i < MaxHistory+50; i++ {
		f.PublishRaw(data.SourceBackend, f.Line(data.SourceBackend, now))
	}
	f.PublishRaw(data.SourcePostgres, f.Line(data.SourcePostgres, now))

	require.Len(t, got, MaxHistory+51)
	require.Len(t, f.History(5000), MaxHistory)
	require.Len(t, f.History(0), 100)
	require.Len(t, f.History(10), 10)
	for _, e := range f.History(MaxHistory) {
		require.Equal(t, data.SourceBackend, e.Source)
	}

	cancel()
	f.PublishRaw(data.SourceMosquitto, f.Line(data.SourceMosquitto, now))
	require.Len(t, got, MaxHistory+51)
}

func TestFeedLinesParse(t *testing.T) {
	f := NewLogFeed(0, 7)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for _, src := range data.AllSources {
		for i := 0; i < 20; i++ {
			e := data.ParseLine(src, f.Line(src, now))
			require.Equal(t, src, e.Source)
			require.Contains(t, e.Timestamp, "2024-05-01")
		}
	}
}
