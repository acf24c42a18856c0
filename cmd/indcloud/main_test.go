package main

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/config"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/store"
	"github.com/indcloud/console/testutil"
	"github.com/stretchr/testify/require"
)

type console struct {
	t      *testing.T
	url    string
	token  string
	config string
}

func newConsole(t *testing.T) (*console, *client.Client) {
	_, cl := testutil.Backend(t, sim.Options{})
	return &console{
		t:      t,
		url:    cl.BaseURL(),
		token:  cl.Token(),
		config: filepath.Join(t.TempDir(), "console.yaml"),
	}, cl
}

// run executes the command line with stdin as input
func (c *console) run(stdin string, args ...string) (string, error) {
	root := newRootCmd(func(string) string { return "" })
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.config, "--url", c.url, "--token", c.token}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *console) mustRun(args ...string) string {
	c.t.Helper()
	out, err := c.run("", args...)
	require.NoError(c.t, err, out)
	return out
}

func TestVersion(t *testing.T) {
	c, _ := newConsole(t)
	out := c.mustRun("version", "--server")
	require.Contains(t, out, "console: Development")
	require.Contains(t, out, "backend: "+sim.Version)
}

func TestDevicesCommands(t *testing.T) {
	c, cl := newConsole(t)
	ctx := context.Background()

	out := c.mustRun("devices", "list")
	require.Contains(t, out, "EXTERNAL ID")
	require.Contains(t, out, "Sensor 01")
	require.Equal(t, 13, strings.Count(out, "\n"))

	devices, err := cl.Devices(ctx)
	require.NoError(t, err)
	d := devices[0]

	out = c.mustRun("devices", "show", d.ID)
	require.Contains(t, out, d.ExternalID)

	out = c.mustRun("devices", "disable", d.ID)
	require.Contains(t, out, "disabled, active: no")

	out = c.mustRun("devices", "update", d.ID, "--location", "Roof")
	require.Contains(t, out, "updated "+d.Label())
	got, err := cl.Device(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, "Roof", got.Location)
	require.Equal(t, d.Name, got.Name)
	require.Equal(t, d.FirmwareVersion, got.FirmwareVersion)
}

func TestDeviceDeleteRestore(t *testing.T) {
	c, cl := newConsole(t)
	ctx := context.Background()

	devices, err := cl.Devices(ctx)
	require.NoError(t, err)
	d := devices[0]

	// answering no keeps the device
	out, err := c.run("n\n", "devices", "delete", d.ID)
	require.NoError(t, err)
	require.Contains(t, out, "cancelled")
	_, err = cl.Device(ctx, d.ID)
	require.NoError(t, err)

	out = c.mustRun("devices", "delete", d.ID, "--yes", "--reason", "retired")
	require.Contains(t, out, "moved device")
	_, err = cl.Device(ctx, d.ID)
	require.ErrorIs(t, err, data.ErrNotFound)

	trash, err := cl.Trash(ctx)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	require.Equal(t, "retired", trash[0].DeletionReason)

	out = c.mustRun("trash", "list")
	require.Contains(t, out, "retired")

	c.mustRun("trash", "restore", strconv.FormatInt(trash[0].ID, 10))
	got, err := cl.Device(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, d.ExternalID, got.ExternalID)
}

func TestOrgsCommands(t *testing.T) {
	c, cl := newConsole(t)

	out := c.mustRun("orgs", "list")
	require.Contains(t, out, "Greenfield Farms")

	out = c.mustRun("orgs", "enable", "3")
	require.Contains(t, out, "Harbor Logistics enabled, enabled: yes")

	c.mustRun("orgs", "update", "3", "--description", "Port sensors")
	o, err := cl.Organization(context.Background(), 3)
	require.NoError(t, err)
	require.Equal(t, "Port sensors", o.Description)
	require.Equal(t, "Harbor Logistics", o.Name)

	_, err = c.run("", "orgs", "show", "abc")
	require.Error(t, err)
}

func TestIssuesCommands(t *testing.T) {
	c, cl := newConsole(t)

	out := c.mustRun("issues", "list", "--status", "in_review")
	require.Contains(t, out, "Add CSV export for alerts")
	require.NotContains(t, out, "Dashboard does not load")

	out = c.mustRun("issues", "status", "1", "resolved")
	require.Contains(t, out, "issue 1 is now RESOLVED")

	c.mustRun("issues", "comment", "1", "fixed", "in", "2.1", "--internal")
	out = c.mustRun("issues", "show", "1")
	require.Contains(t, out, "Can you share a screenshot?")
	require.Contains(t, out, "(internal):\nfixed in 2.1")

	_, err := c.run("", "issues", "status", "1", "done")
	require.Error(t, err)

	comments, err := cl.IssueComments(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, comments, 2)
}

func TestSmsCommands(t *testing.T) {
	c, cl := newConsole(t)
	ctx := context.Background()

	before, err := cl.SmsSettings(ctx)
	require.NoError(t, err)

	c.mustRun("sms", "set", "--daily-limit", "5", "--enabled")
	after, err := cl.SmsSettings(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, after.DailyLimit)
	require.True(t, after.Enabled)
	require.Equal(t, before.MonthlyBudget, after.MonthlyBudget)
	require.Equal(t, before.BudgetThresholdPercentage, after.BudgetThresholdPercentage)

	_, err = c.run("", "sms", "set", "--threshold", "120")
	require.Error(t, err)

	out := c.mustRun("sms", "reset", "--yes")
	require.Contains(t, out, "SMS counters reset")
	after, err = cl.SmsSettings(ctx)
	require.NoError(t, err)
	require.Zero(t, after.CurrentMonthCount)
}

func TestWebhookHeaders(t *testing.T) {
	c, _ := newConsole(t)
	_, err := c.run("", "webhook", "test", "http://127.0.0.1:1/hook", "-H", "broken")
	require.ErrorContains(t, err, "invalid header")

	_, err = c.run("", "webhook", "test", "http://127.0.0.1:1/hook", "-X", "TRACE")
	require.ErrorContains(t, err, "unsupported method")
}

func TestTelemetryCommands(t *testing.T) {
	c, cl := newConsole(t)
	devices, err := cl.Devices(context.Background())
	require.NoError(t, err)

	out := c.mustRun("aggregate", "--device", devices[0].ID, "--range", "6h", "--agg", "max")
	require.Contains(t, out, "TIMESTAMP")
	require.Contains(t, out, "buckets")

	_, err = c.run("", "aggregate", "--device", devices[0].ID, "--agg", "median")
	require.Error(t, err)

	out = c.mustRun("dashboard", "--range", "1h")
	require.Contains(t, out, "last 1h")
	require.Contains(t, out, "temperature")
	require.Contains(t, out, "humidity")
}

func TestLogin(t *testing.T) {
	c, _ := newConsole(t)
	c.token = ""

	out := c.mustRun("login", "--email", "admin@indcloud.local", "--password", "admin")
	require.Contains(t, out, "logged in as admin@indcloud.local")

	profile, err := config.Load(c.config)
	require.NoError(t, err)
	require.NotEmpty(t, profile.Token)
	require.Equal(t, c.url, profile.URL)

	_, err = c.run("", "login", "--email", "admin@indcloud.local", "--password", "wrong")
	require.Error(t, err)
}

func TestArchiveCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs.db")
	a, err := store.OpenArchive(path)
	require.NoError(t, err)
	ctx := context.Background()
	id, err := a.StartSession(ctx, "http://backend", data.AllSources)
	require.NoError(t, err)
	require.NoError(t, a.Record(ctx, id,
		data.LogEntry{Seq: 1, Timestamp: "2024-05-01T10:00:00.000Z", Source: data.SourceBackend, Level: data.LevelInfo, Message: "started"},
		data.LogEntry{Seq: 2, Timestamp: "2024-05-01T10:00:01.000Z", Source: data.SourcePostgres, Level: data.LevelError, Message: "disk\nfull"},
		data.LogEntry{Seq: 3, Timestamp: "2024-05-01T10:00:02.000Z", Source: data.SourceBackend, Level: data.LevelError, Message: "timeout"},
	))
	require.NoError(t, a.Close())

	c := &console{t: t, config: filepath.Join(t.TempDir(), "console.yaml")}

	out := c.mustRun("archive", "--file", path, "list")
	require.Contains(t, out, "http://backend")

	out = c.mustRun("archive", "--file", path, "replay", strconv.FormatInt(id, 10), "--level", "error", "--source", "postgres")
	require.Equal(t, "2024-05-01T10:00:01.000Z [postgres] [ERROR] disk\\nfull\n", out)

	c.mustRun("archive", "--file", path, "delete", strconv.FormatInt(id, 10))
	_, err = c.run("", "archive", "--file", path, "delete", strconv.FormatInt(id, 10))
	require.ErrorIs(t, err, data.ErrNotFound)
}

// scripted is a transport that plays back events and closes
type scripted struct {
	events []logview.Event
	subs   [][]data.LogSource
}

func (s *scripted) Connect(context.Context) (<-chan logview.Event, error) {
	ch := make(chan logview.Event, len(s.events)+1)
	for _, ev := range s.events {
		ch <- ev
	}
	ch <- logview.Event{Type: logview.EventClosed}
	close(ch)
	return ch, nil
}

func (s *scripted) Subscribe(sources []data.LogSource) error {
	s.subs = append(s.subs, sources)
	return nil
}

func (s *scripted) Unsubscribe([]data.LogSource) error { return nil }

func (s *scripted) History(data.LogSource, int) error { return nil }

func (s *scripted) Close() error { return nil }

type collected struct {
	entries []data.LogEntry
}

func (c *collected) Add(entries ...data.LogEntry) {
	c.entries = append(c.entries, entries...)
}

func TestTailer(t *testing.T) {
	tr := &scripted{events: []logview.Event{
		{Type: logview.EventConnected},
		{Type: logview.EventLog, Entry: data.LogEntry{Timestamp: "t1", Source: data.SourceBackend, Level: data.LevelInfo, Message: "ok"}},
		{Type: logview.EventHistory, Logs: []data.LogEntry{
			{Timestamp: "t0", Source: data.SourceBackend, Level: data.LevelError, Message: "fail\ndisk"},
		}},
	}}
	session := logview.NewSession(tr, []data.LogSource{data.SourceBackend})

	filter, err := tailFilter(logsFlags{levels: []string{"error"}}, data.AllSources)
	require.NoError(t, err)

	var out bytes.Buffer
	arch := &collected{}
	tl := newTailer(session, filter, &out)
	tl.archive = arch

	done := make(chan error, 1)
	go func() { done <- tl.Run() }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("tailer did not stop when the channel closed")
	}

	require.Equal(t, "t0 [backend] [ERROR] fail\\ndisk\n", out.String())
	require.Len(t, arch.entries, 2)
	require.Equal(t, uint64(2), arch.entries[1].Seq)
	require.Equal(t, [][]data.LogSource{{data.SourceBackend}}, tr.subs)
	require.Equal(t, logview.Disconnected, session.State())
}
