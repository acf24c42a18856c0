package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/client"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/tui"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// rangeFlags select a time window either by preset or explicitly
type rangeFlags struct {
	rng  string
	from string
	to   string
}

func (f *rangeFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.rng, "range", analytics.Last24h.Name, "time range preset: 1h, 6h, 24h, 7d or 30d")
	cmd.Flags().StringVar(&f.from, "from", "", "start time (RFC 3339), overrides --range")
	cmd.Flags().StringVar(&f.to, "to", "", "end time (RFC 3339), defaults to now")
}

// window returns the selected window and the bucket interval of the preset
func (f rangeFlags) window(now time.Time) (time.Time, time.Time, string, error) {
	r, err := analytics.ParseTimeRange(f.rng)
	if err != nil {
		return time.Time{}, time.Time{}, "", err
	}
	if f.from == "" {
		from, to := r.Window(now)
		return from, to, r.Interval, nil
	}

	from, err := time.Parse(time.RFC3339, f.from)
	if err != nil {
		return time.Time{}, time.Time{}, "", fmt.Errorf("invalid --from: %w", err)
	}
	to := now.UTC()
	if f.to != "" {
		if to, err = time.Parse(time.RFC3339, f.to); err != nil {
			return time.Time{}, time.Time{}, "", fmt.Errorf("invalid --to: %w", err)
		}
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, "", fmt.Errorf("end time must be after start time")
	}
	return from, to, r.Interval, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return data.NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

func (c *cli) aggregateCmd() *cobra.Command {
	var rf rangeFlags
	var device, variable, agg, interval string
	cmd := &cobra.Command{
		Use:   "aggregate",
		Short: "Print an aggregated telemetry series for one device",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, to, defInterval, err := rf.window(time.Now())
			if err != nil {
				return err
			}
			a, err := data.ParseAggregation(agg)
			if err != nil {
				return err
			}
			if interval == "" {
				interval = defInterval
			}
			q := data.AggregateQuery{
				DeviceID:    device,
				Variable:    variable,
				Aggregation: a,
				Interval:    interval,
				From:        from,
				To:          to,
			}
			if err := q.Validate(); err != nil {
				return err
			}

			cl, err := c.client()
			if err != nil {
				return err
			}
			ctx, cancel := c.context(cmd)
			defer cancel()
			pts, err := cl.Aggregate(ctx, q)
			if err != nil {
				return err
			}

			acc := analytics.NewAccumulator()
			acc.AddPoints(pts)

			w := c.table("TIMESTAMP", string(a), "COUNT")
			for _, p := range pts {
				row(w, p.Timestamp.Local().Format(time.DateTime), formatValue(p.Value), p.Count)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			s := acc.Summary()
			c.printf("\n%v buckets, min %v, max %v, avg %v\n",
				s.Samples, formatValue(s.Min), formatValue(s.Max), formatValue(s.Avg))
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&device, "device", "", "device ID")
	cmd.Flags().StringVar(&variable, "variable", "temperature", "telemetry variable")
	cmd.Flags().StringVar(&agg, "agg", string(data.AggAvg), "aggregation: avg, min, max, sum or count")
	cmd.Flags().StringVar(&interval, "interval", "", "bucket interval, e.g. 5m, 1h, 1d (default from --range)")
	_ = cmd.MarkFlagRequired("device")
	return cmd
}

func (c *cli) printSnapshot(s analytics.Snapshot) {
	c.printf("%v: %v to %v, devices %v total, %v active\n", s.Range,
		s.From.Local().Format(time.DateTime), s.To.Local().Format(time.DateTime),
		s.TotalDevices, s.ActiveDevices)
	w := c.table("VARIABLE", "MIN", "MAX", "AVG", "SAMPLES", "DEVICES", "FAILED")
	for _, m := range s.Metrics {
		row(w, m.Variable, formatValue(m.Min), formatValue(m.Max), formatValue(m.Avg),
			m.Samples, m.Devices, len(m.Failed))
	}
	w.Flush()
	for _, m := range s.Metrics {
		if len(m.Failed) > 0 {
			c.printf("%v failed for: %v\n", m.Variable, strings.Join(m.Failed, ", "))
		}
	}
}

func (c *cli) dashboardCmd() *cobra.Command {
	var rng string
	var interactive bool
	var watch time.Duration
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Summarize telemetry across every device",
		Long: `Summarize telemetry across every device. The profile variables are
reduced to min, max and average over the range. Devices whose fetch fails are
reported and left out of the summary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := analytics.ParseTimeRange(rng)
			if err != nil {
				return err
			}
			if interactive {
				return c.runTUI(cmd, logsFlags{rng: rng}, tui.ScreenDashboard)
			}

			cl, err := c.client()
			if err != nil {
				return err
			}

			if watch <= 0 {
				dash, closeSrc, err := c.dashboard(cl)
				if err != nil {
					return err
				}
				defer closeSrc()
				ctx, cancel := c.context(cmd)
				defer cancel()
				s, err := dash.Load(ctx, r)
				if err != nil {
					return err
				}
				c.printSnapshot(s)
				return nil
			}

			dash, closeSrc, err := c.dashboard(cl, analytics.OnUpdate(func(s analytics.Snapshot) {
				c.printSnapshot(s)
				c.printf("\n")
			}))
			if err != nil {
				return err
			}
			defer closeSrc()

			stop := make(chan struct{})
			var stopOnce sync.Once
			g := client.NewRunGroup("dashboard")
			g.AddFunc(func() error {
				t := time.NewTicker(watch)
				defer t.Stop()
				for {
					dash.Start(r)
					select {
					case <-stop:
						return nil
					case <-t.C:
					}
				}
			}, func(error) {
				stopOnce.Do(func() { close(stop) })
				dash.Cancel()
			})
			g.AddSignals(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			return g.Run()
		},
	}
	cmd.Flags().StringVar(&rng, "range", analytics.Last24h.Name, "time range preset: 1h, 6h, 24h, 7d or 30d")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "open the dashboard screen")
	cmd.Flags().DurationVar(&watch, "watch", 0, "reload and print at this interval until interrupted")
	return cmd
}

func (c *cli) exportCmd() *cobra.Command {
	var rf rangeFlags
	var format, out string
	cmd := &cobra.Command{
		Use:   "export <device id>",
		Short: "Download raw telemetry as CSV or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, _, err := rf.window(time.Now())
			if err != nil {
				return err
			}
			cl, err := c.client()
			if err != nil {
				return err
			}

			last := time.Time{}
			progress := func(fraction, bps float64) {
				if time.Since(last) < time.Second && fraction < 1 {
					return
				}
				last = time.Now()
				log.Debugf("export %.0f%% at %.1f KiB/s", fraction*100, bps/1024)
			}

			path, err := cl.DownloadExport(cmd.Context(), strings.ToLower(format), args[0], from, to, out, progress)
			if err != nil {
				return err
			}
			c.printf("wrote %v\n", path)
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVar(&format, "format", client.ExportCSV, "csv or json")
	cmd.Flags().StringVarP(&out, "out", "o", ".", "output file or directory")
	return cmd
}

func (c *cli) telemetryCmd() *cobra.Command {
	var devices []string
	var persist bool
	cmd := &cobra.Command{
		Use:   "telemetry",
		Short: "Follow live device readings",
		Long: `Follow live device readings until interrupted. With --influx readings are
also written to the InfluxDB bucket of the profile.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			only := map[string]bool{}
			for _, d := range devices {
				only[d] = true
			}

			var influx *analytics.InfluxSource
			if persist {
				if c.cfg.Influx == nil {
					return fmt.Errorf("--influx needs an influx section in the profile")
				}
				var err error
				influx, err = analytics.NewInfluxSource(*c.cfg.Influx)
				if err != nil {
					return err
				}
				defer influx.Close()
			}

			var lock sync.Mutex
			ts, err := client.NewTelemetryStream(c.cfg.URL, c.cfg.Token, func(r data.Reading) {
				if len(only) > 0 && !only[r.DeviceID] {
					return
				}
				lock.Lock()
				c.printf("%v\n", formatReading(r))
				lock.Unlock()
				if influx != nil {
					ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := influx.WriteReadings(ctx, r); err != nil {
						log.WithError(err).Warn("error storing reading")
					}
				}
			})
			if err != nil {
				return err
			}

			g := client.NewRunGroup("telemetry")
			g.Add(ts)
			g.AddSignals(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			return g.Run()
		},
	}
	cmd.Flags().StringSliceVar(&devices, "device", nil, "only show these device IDs")
	cmd.Flags().BoolVar(&persist, "influx", false, "write readings to InfluxDB")
	return cmd
}

func formatReading(r data.Reading) string {
	names := make([]string, 0, len(r.Variables))
	for k := range r.Variables {
		names = append(names, k)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(r.Timestamp.Local().Format("15:04:05.000"))
	sb.WriteString(" ")
	sb.WriteString(r.DeviceID)
	for _, k := range names {
		fmt.Fprintf(&sb, " %v=%.2f", k, r.Variables[k])
	}
	return sb.String()
}
