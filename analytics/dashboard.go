package analytics

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

// ErrSuperseded is returned by Load when a newer load started before this
// one finished. Its results are discarded.
var ErrSuperseded = errors.New("dashboard load superseded")

// Metric is one variable summarized across every device
type Metric struct {
	Variable string
	Summary
	// Failed lists the devices whose fetch failed, sorted
	Failed []string
}

// Snapshot is a published dashboard state
type Snapshot struct {
	Generation    uint64
	Range         TimeRange
	From          time.Time
	To            time.Time
	TotalDevices  int
	ActiveDevices int
	Metrics       []Metric
	LoadedAt      time.Time
}

// Metric returns the summary of variable
func (s Snapshot) Metric(variable string) (Metric, bool) {
	for _, m := range s.Metrics {
		if m.Variable == variable {
			return m, true
		}
	}
	return Metric{}, false
}

// Dashboard loads aggregated metrics for all devices. Changing the time range
// cancels the in-flight load, and only the most recently started load is
// ever published.
type Dashboard struct {
	devices     DeviceLister
	src         Source
	variables   []string
	parallelism int
	now         func() time.Time

	lock     sync.Mutex
	gen      uint64
	cancel   context.CancelFunc
	current  Snapshot
	onUpdate func(Snapshot)
}

// DashboardOption configures a dashboard
type DashboardOption func(*Dashboard)

// WithParallelism sets the number of concurrent aggregate requests
func WithParallelism(n int) DashboardOption {
	return func(d *Dashboard) {
		d.parallelism = n
	}
}

// WithClock replaces the time source
func WithClock(now func() time.Time) DashboardOption {
	return func(d *Dashboard) {
		d.now = now
	}
}

// OnUpdate sets a function called with every published snapshot. It is
// called with the dashboard lock held and must not call back into the
// dashboard.
func OnUpdate(fn func(Snapshot)) DashboardOption {
	return func(d *Dashboard) {
		d.onUpdate = fn
	}
}

// NewDashboard creates a dashboard for variables
func NewDashboard(devices DeviceLister, src Source, variables []string, opts ...DashboardOption) *Dashboard {
	d := &Dashboard{
		devices:     devices,
		src:         src,
		variables:   variables,
		parallelism: DefaultParallelism,
		now:         time.Now,
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Current returns the last published snapshot
func (d *Dashboard) Current() Snapshot {
	d.lock.Lock()
	defer d.lock.Unlock()
	return d.current
}

// Cancel aborts the in-flight load, if any
func (d *Dashboard) Cancel() {
	d.lock.Lock()
	defer d.lock.Unlock()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}

// Load cancels any in-flight load and loads r. The snapshot is published
// only if no newer load started meanwhile; otherwise ErrSuperseded is
// returned.
func (d *Dashboard) Load(ctx context.Context, r TimeRange) (Snapshot, error) {
	d.lock.Lock()
	if d.cancel != nil {
		d.cancel()
	}
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	now := d.now()
	d.lock.Unlock()

	defer cancel()

	snap, err := d.load(ctx, gen, r, now)

	d.lock.Lock()
	defer d.lock.Unlock()

	if gen != d.gen {
		return Snapshot{}, ErrSuperseded
	}
	d.cancel = nil
	if err != nil {
		return Snapshot{}, err
	}

	d.current = snap
	if d.onUpdate != nil {
		d.onUpdate(snap)
	}
	return snap, nil
}

// Start loads r in the background. Results are delivered through OnUpdate.
func (d *Dashboard) Start(r TimeRange) {
	go func() {
		_, err := d.Load(context.Background(), r)
		if err != nil && !errors.Is(err, ErrSuperseded) && !errors.Is(err, context.Canceled) {
			log.WithError(err).WithField("range", r.Name).Warn("dashboard load failed")
		}
	}()
}

func (d *Dashboard) load(ctx context.Context, gen uint64, r TimeRange, now time.Time) (Snapshot, error) {
	devices, err := d.devices.Devices(ctx)
	if err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		Generation:   gen,
		Range:        r,
		TotalDevices: len(devices),
		LoadedAt:     now,
	}
	snap.From, snap.To = r.Window(now)

	ids := make([]string, 0, len(devices))
	for _, dev := range devices {
		if dev.Active {
			snap.ActiveDevices++
		}
		ids = append(ids, dev.ID)
	}

	for _, v := range d.variables {
		q := NewQuery(v, data.AggAvg, r, now)
		res, err := FetchAll(ctx, d.src, ids, q, d.parallelism)
		if err != nil {
			return Snapshot{}, err
		}

		m := Metric{Variable: v, Summary: res.Summary}
		for id, err := range res.Errors {
			m.Failed = append(m.Failed, id)
			log.WithError(err).WithFields(log.Fields{
				"device":   id,
				"variable": v,
			}).Debug("aggregate failed")
		}
		sort.Strings(m.Failed)
		snap.Metrics = append(snap.Metrics, m)
	}

	return snap, nil
}
