package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/client"
	"github.com/indcloud/console/config"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/indcloud/console/store"
	"github.com/indcloud/console/tui"
	"github.com/indcloud/console/undo"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// logsFlags are the flags shared by the console and the logs command
type logsFlags struct {
	tail    bool
	nats    bool
	archive string
	sources []string
	levels  []string
	search  string
	history int
	rng     string
}

func (f *logsFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.nats, "nats", false, "read logs from NATS instead of the WebSocket channel")
	cmd.Flags().StringVar(&f.archive, "archive", "", "record received logs into this sqlite archive")
	cmd.Flags().StringSliceVar(&f.sources, "source", nil, "sources to stream (default from profile, all when empty)")
}

func (c *cli) runConsole(cmd *cobra.Command, _ []string) error {
	return c.runTUI(cmd, c.rootLogs, tui.ScreenLogs, tui.ScreenDevices, tui.ScreenDashboard)
}

func (c *cli) logsCmd() *cobra.Command {
	var f logsFlags
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the backend log channels",
		Long: `View the backend, mosquitto and postgres log channels.

By default the log viewer opens full screen. With --tail entries are printed
as export lines until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.tail {
				return c.runTail(cmd, f)
			}
			return c.runTUI(cmd, f, tui.ScreenLogs)
		},
	}
	f.register(cmd)
	cmd.Flags().BoolVar(&f.tail, "tail", false, "print entries instead of opening the viewer")
	cmd.Flags().StringSliceVar(&f.levels, "level", nil, "with --tail, only print these levels")
	cmd.Flags().StringVar(&f.search, "search", "", "with --tail, only print messages containing this text")
	cmd.Flags().IntVar(&f.history, "history", 0, "with --tail, first print this many history lines per source")
	return cmd
}

// logSources resolves the sources to stream from flags and profile
func (c *cli) logSources(f logsFlags) ([]data.LogSource, error) {
	if len(f.sources) == 0 {
		return c.cfg.LogSources()
	}
	ret := make([]data.LogSource, 0, len(f.sources))
	for _, s := range f.sources {
		src, err := data.ParseLogSource(s)
		if err != nil {
			return nil, err
		}
		ret = append(ret, src)
	}
	return ret, nil
}

func (c *cli) transport(useNats bool) (logview.Transport, error) {
	if useNats || c.cfg.Transport == "nats" {
		return client.NewNatsLogStream(c.cfg.NatsServer, c.cfg.Token), nil
	}
	return client.NewLogStream(c.cfg.URL, c.cfg.Token)
}

func (c *cli) session(f logsFlags) (*logview.Session, []data.LogSource, error) {
	sources, err := c.logSources(f)
	if err != nil {
		return nil, nil, err
	}
	t, err := c.transport(f.nats)
	if err != nil {
		return nil, nil, err
	}
	return logview.NewSession(t, sources), sources, nil
}

// recorder opens the archive and starts a recording session. The returned
// function closes the archive once the recorder stopped.
func (c *cli) recorder(f logsFlags, sources []data.LogSource) (*store.Recorder, func(), error) {
	path := f.archive
	if path == "" {
		path = c.cfg.Archive
	}
	if path == "" {
		return nil, func() {}, nil
	}

	a, err := store.OpenArchive(path)
	if err != nil {
		return nil, nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), client.DefaultTimeout)
	defer cancel()
	id, err := a.StartSession(ctx, c.cfg.URL, sources)
	if err != nil {
		a.Close()
		return nil, nil, err
	}
	log.WithFields(log.Fields{"archive": path, "session": id}).Info("recording logs")
	return store.NewRecorder(a, id, time.Second), func() { a.Close() }, nil
}

// dashboard creates the dashboard, reading aggregates from InfluxDB when the
// profile configures it
func (c *cli) dashboard(cl *client.Client, opts ...analytics.DashboardOption) (*analytics.Dashboard, func(), error) {
	var src analytics.Source = cl
	closeSrc := func() {}
	if c.cfg.Influx != nil {
		is, err := analytics.NewInfluxSource(*c.cfg.Influx)
		if err != nil {
			return nil, nil, err
		}
		src = is
		closeSrc = is.Close
	}
	opts = append([]analytics.DashboardOption{analytics.WithParallelism(c.cfg.Parallelism)}, opts...)
	return analytics.NewDashboard(cl, src, c.cfg.Variables, opts...), closeSrc, nil
}

func (c *cli) runTUI(cmd *cobra.Command, f logsFlags, screens ...tui.Screen) error {
	cl, err := c.client()
	if err != nil {
		return err
	}

	g := client.NewRunGroup("console")
	var opts []tui.Option

	for _, s := range screens {
		switch s {
		case tui.ScreenLogs:
			session, sources, err := c.session(f)
			if err != nil {
				return err
			}
			defer session.Close()

			rec, closeArchive, err := c.recorder(f, sources)
			if err != nil {
				return err
			}
			defer closeArchive()

			lo := tui.LogsOptions{
				Capacity:     c.cfg.BufferCapacity,
				HistoryLines: c.cfg.HistoryLines,
				ExportDir:    c.cfg.ExportDir,
			}
			if rec != nil {
				g.Add(rec)
				lo.Archiver = rec
			}
			opts = append(opts, tui.WithLogs(tui.NewLogsModel(session, lo)))

		case tui.ScreenDevices:
			opts = append(opts, tui.WithDevices(tui.NewDevicesModel(cl, undo.NewManager(cl))))

		case tui.ScreenDashboard:
			dash, closeSrc, err := c.dashboard(cl)
			if err != nil {
				return err
			}
			defer closeSrc()
			rng := analytics.Last24h
			if f.rng != "" {
				if rng, err = analytics.ParseTimeRange(f.rng); err != nil {
					return err
				}
			}
			opts = append(opts, tui.WithDashboard(tui.NewDashboardModel(dash, rng)))
		}
	}

	// a token refreshed in the profile is used by later REST requests
	if c.token == "" {
		w, err := config.NewWatcher(c.configPath, c.getenv, func(cfg config.Config) {
			if cfg.Token != cl.Token() {
				log.Info("profile token changed")
				cl.SetToken(cfg.Token)
			}
		})
		if err != nil {
			log.WithError(err).Warn("not watching profile")
		} else {
			g.Add(w)
		}
	}

	g.Add(tui.NewProgram(tui.NewApp(opts...)))
	g.AddSignals(cmd.Context(), syscall.SIGTERM)
	return g.Run()
}

func (c *cli) runTail(cmd *cobra.Command, f logsFlags) error {
	session, sources, err := c.session(f)
	if err != nil {
		return err
	}

	// the session already limits the sources
	filter, err := tailFilter(f, data.AllSources)
	if err != nil {
		return err
	}

	g := client.NewRunGroup("tail")

	rec, closeArchive, err := c.recorder(f, sources)
	if err != nil {
		return err
	}
	defer closeArchive()

	t := newTailer(session, filter, c.out)
	t.history = f.history
	if rec != nil {
		g.Add(rec)
		t.archive = rec
	}

	g.Add(t)
	g.AddSignals(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	return g.Run()
}

func tailFilter(f logsFlags, sources []data.LogSource) (logview.Filter, error) {
	levels := data.AllLevels
	if len(f.levels) > 0 {
		levels = nil
		for _, l := range f.levels {
			lvl, err := data.ParseLogLevel(l)
			if err != nil {
				return logview.Filter{}, err
			}
			levels = append(levels, lvl)
		}
	}
	return logview.NewFilterFor(sources, levels, f.search), nil
}

// tailer prints a log session as export lines
type tailer struct {
	session *logview.Session
	filter  logview.Filter
	buffer  *logview.Buffer
	out     io.Writer
	history int
	archive tui.Archiver

	stop     chan struct{}
	stopOnce sync.Once
}

func newTailer(session *logview.Session, filter logview.Filter, out io.Writer) *tailer {
	return &tailer{
		session: session,
		filter:  filter,
		buffer:  logview.NewBuffer(logview.DefaultCapacity),
		out:     out,
		stop:    make(chan struct{}),
	}
}

// Run connects and prints until the channel closes or Stop is called
func (t *tailer) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), tui.ConnectTimeout)
	events, err := t.session.Connect(ctx)
	cancel()
	if err != nil {
		return err
	}
	defer t.session.Close()

	if t.history > 0 {
		for _, src := range t.session.Subscribed() {
			if err := t.session.History(src, t.history); err != nil {
				return err
			}
		}
	}

	for {
		select {
		case <-t.stop:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			t.session.Handle(ev)
			switch ev.Type {
			case logview.EventLog:
				t.print(ev.Entry)
			case logview.EventHistory:
				t.print(ev.Logs...)
			case logview.EventError:
				log.WithField("message", ev.Message).Warn("log channel error")
			case logview.EventClosed:
				return ev.Err
			}
		}
	}
}

func (t *tailer) print(entries ...data.LogEntry) {
	stamped := t.buffer.Append(entries...)
	if t.archive != nil {
		t.archive.Add(stamped...)
	}
	for _, e := range t.filter.Apply(stamped) {
		fmt.Fprintln(t.out, logview.ExportLine(e))
	}
}

// Stop the tailer
func (t *tailer) Stop(_ error) {
	t.stopOnce.Do(func() { close(t.stop) })
}
