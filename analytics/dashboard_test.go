package analytics_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/testutil"
	"github.com/stretchr/testify/require"
)

func TestDashboardLoad(t *testing.T) {
	s, c := testutil.Backend(t, sim.Options{})

	devices, err := c.Devices(context.Background())
	require.NoError(t, err)
	failing := map[string]bool{devices[0].ID: true, devices[1].ID: true}
	s.SetAggregateFailure(func(q data.AggregateQuery) bool {
		return failing[q.DeviceID] && q.Variable == "temperature"
	})

	var published []analytics.Snapshot
	d := analytics.NewDashboard(c, c, []string{"temperature", "humidity"},
		analytics.WithParallelism(4),
		analytics.OnUpdate(func(s analytics.Snapshot) { published = append(published, s) }))

	snap, err := d.Load(context.Background(), analytics.LastHour)
	require.NoError(t, err)
	require.Len(t, published, 1)
	require.Equal(t, 12, snap.TotalDevices)
	require.Less(t, snap.ActiveDevices, snap.TotalDevices)

	temp, ok := snap.Metric("temperature")
	require.True(t, ok)
	require.Equal(t, 10, temp.Devices)
	require.Len(t, temp.Failed, 2)
	require.NotNil(t, temp.Min)
	require.GreaterOrEqual(t, *temp.Min, 70.0)
	require.LessOrEqual(t, *temp.Max, 75.0)
	require.LessOrEqual(t, *temp.Min, *temp.Avg)
	require.LessOrEqual(t, *temp.Avg, *temp.Max)

	hum, ok := snap.Metric("humidity")
	require.True(t, ok)
	require.Equal(t, 12, hum.Devices)
	require.Empty(t, hum.Failed)
}

func TestDashboardRangeChangeCancels(t *testing.T) {
	s, c := testutil.Backend(t, sim.Options{})

	slowStarted := make(chan struct{})
	var once sync.Once
	s.SetAggregateDelay(func(q data.AggregateQuery) time.Duration {
		if q.To.Sub(q.From) == analytics.Last24h.Duration {
			once.Do(func() { close(slowStarted) })
			return 10 * time.Second
		}
		return 0
	})

	d := analytics.NewDashboard(c, c, []string{"temperature"})

	slowErr := make(chan error, 1)
	go func() {
		_, err := d.Load(context.Background(), analytics.Last24h)
		slowErr <- err
	}()

	select {
	case <-slowStarted:
	case <-time.After(5 * time.Second):
		t.Fatal("slow load never started")
	}

	start := time.Now()
	snap, err := d.Load(context.Background(), analytics.LastHour)
	require.NoError(t, err)
	require.Equal(t, analytics.LastHour, snap.Range)

	select {
	case err := <-slowErr:
		require.True(t, errors.Is(err, analytics.ErrSuperseded))
	case <-time.After(5 * time.Second):
		t.Fatal("superseded load was not cancelled")
	}
	require.Less(t, time.Since(start), 5*time.Second)
	require.Equal(t, analytics.LastHour, d.Current().Range)
}

// stubborn ignores cancellation and answers after the delay of its range
type stubborn struct {
	started chan time.Duration
	release map[time.Duration]chan struct{}
}

func (s *stubborn) Aggregate(_ context.Context, q data.AggregateQuery) ([]data.AggregatePoint, error) {
	s.started <- q.To.Sub(q.From)
	<-s.release[q.To.Sub(q.From)]
	v := float64(q.To.Sub(q.From) / time.Hour)
	return []data.AggregatePoint{{DeviceID: q.DeviceID, Value: &v}}, nil
}

type oneDevice struct{}

func (oneDevice) Devices(context.Context) ([]data.Device, error) {
	return []data.Device{{ID: "dev", Active: true}}, nil
}

func TestDashboardLastWriterWins(t *testing.T) {
	src := &stubborn{started: make(chan time.Duration, 2), release: map[time.Duration]chan struct{}{
		analytics.Last7d.Duration:   make(chan struct{}),
		analytics.LastHour.Duration: make(chan struct{}),
	}}

	var lock sync.Mutex
	var published []analytics.TimeRange
	d := analytics.NewDashboard(oneDevice{}, src, []string{"temperature"},
		analytics.OnUpdate(func(s analytics.Snapshot) {
			lock.Lock()
			published = append(published, s.Range)
			lock.Unlock()
		}))

	first := make(chan error, 1)
	go func() {
		_, err := d.Load(context.Background(), analytics.Last7d)
		first <- err
	}()

	require.Equal(t, analytics.Last7d.Duration, <-src.started)

	second := make(chan error, 1)
	go func() {
		_, err := d.Load(context.Background(), analytics.LastHour)
		second <- err
	}()
	require.Equal(t, analytics.LastHour.Duration, <-src.started)

	// the newer query answers first, the older one arrives late
	close(src.release[analytics.LastHour.Duration])
	require.NoError(t, <-second)
	close(src.release[analytics.Last7d.Duration])
	require.ErrorIs(t, <-first, analytics.ErrSuperseded)

	lock.Lock()
	defer lock.Unlock()
	require.Equal(t, []analytics.TimeRange{analytics.LastHour}, published)

	m, ok := d.Current().Metric("temperature")
	require.True(t, ok)
	require.Equal(t, 1.0, *m.Avg)
}

func TestTimeRanges(t *testing.T) {
	r, err := analytics.ParseTimeRange("7D")
	require.NoError(t, err)
	require.Equal(t, analytics.Last7d, r)
	require.Equal(t, analytics.Last30d, r.Next())
	require.Equal(t, analytics.LastHour, analytics.Last30d.Next())

	_, err = analytics.ParseTimeRange("1y")
	require.Error(t, err)

	now := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	from, to := analytics.Last24h.Window(now)
	require.Equal(t, time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC), to)
	require.Equal(t, 24*time.Hour, to.Sub(from))
}
