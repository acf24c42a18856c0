package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/stretchr/testify/require"
)

// connectedLogs returns a log screen connected to a fake transport
func connectedLogs(t *testing.T, opts LogsOptions) (LogsModel, *fakeTransport) {
	t.Helper()
	ft := &fakeTransport{}
	m := NewLogsModel(logview.NewSession(ft, data.AllSources), opts)
	m.SetSize(120, 20)

	msg := m.Init()()
	connected, ok := msg.(connectedMsg)
	require.True(t, ok, "expected connectedMsg, got %T", msg)
	require.NoError(t, connected.err)

	m, _ = m.Update(connected)
	require.Equal(t, logview.Open, m.session.State())
	return m, ft
}

// deliver pushes events through the transport and applies them
func deliver(t *testing.T, m LogsModel, ft *fakeTransport, events ...logview.Event) LogsModel {
	t.Helper()
	for _, ev := range events {
		ft.events <- ev
	}
	msg := waitForEvents(m.conn, m.events)()
	m, _ = m.Update(msg)
	return m
}

func TestLogsIngest(t *testing.T) {
	rec := &archiver{}
	m, ft := connectedLogs(t, LogsOptions{Archiver: rec})

	m = deliver(t, m, ft,
		logview.Event{Type: logview.EventHistory, Logs: []data.LogEntry{
			{Timestamp: "2024-05-01T09:00:00Z", Source: data.SourceBackend, Level: data.LevelInfo, Message: "old"},
		}},
		logEvent(data.SourceBackend, data.LevelInfo, "started"),
		logEvent(data.SourcePostgres, data.LevelWarn, "slow query"),
	)

	filtered := m.Viewer().Filtered()
	require.Len(t, filtered, 3)
	require.Equal(t, "old", filtered[0].Message)
	require.Equal(t, "slow query", filtered[2].Message)

	require.Len(t, rec.entries, 3)
	for i, e := range rec.entries {
		require.Equal(t, uint64(i+1), e.Seq)
	}

	require.Equal(t, []string{"connect", "subscribe [backend mosquitto postgres]"}, ft.Calls())
}

func TestLogsIgnoresStaleConnection(t *testing.T) {
	m, _ := connectedLogs(t, LogsOptions{})

	m, _ = m.Update(logEventsMsg{
		conn:   m.conn - 1,
		events: []logview.Event{logEvent(data.SourceBackend, data.LevelInfo, "stale")},
	})
	require.Empty(t, m.Viewer().Filtered())
}

func TestLogsPauseResume(t *testing.T) {
	m, ft := connectedLogs(t, LogsOptions{})

	m, _ = m.Update(keyMsg(" "))
	require.Equal(t, logview.Paused, m.session.State())

	m, _ = m.Update(keyMsg(" "))
	require.Equal(t, logview.Open, m.session.State())

	require.Equal(t, []string{
		"connect",
		"subscribe [backend mosquitto postgres]",
		"unsubscribe []",
		"subscribe [backend mosquitto postgres]",
	}, ft.Calls())
}

func TestLogsFilterKeys(t *testing.T) {
	m, ft := connectedLogs(t, LogsOptions{})
	m = deliver(t, m, ft,
		logEvent(data.SourceBackend, data.LevelInfo, "boot complete"),
		logEvent(data.SourceMosquitto, data.LevelInfo, "client connected"),
		logEvent(data.SourceBackend, data.LevelError, "Boot failed"),
	)

	// source and level toggles only change the filter
	m, _ = m.Update(keyMsg("2"))
	require.Len(t, m.Viewer().Filtered(), 2)
	m, _ = m.Update(keyMsg("E"))
	require.Len(t, m.Viewer().Filtered(), 1)
	m, _ = m.Update(keyMsg("E"))
	require.Len(t, m.Viewer().Filtered(), 2)
	require.Len(t, ft.Calls(), 2)

	// s streams only the shown sources
	m, _ = m.Update(keyMsg("s"))
	require.Equal(t, "unsubscribe [mosquitto]", ft.Calls()[2])

	// search
	m, _ = m.Update(keyMsg("/"))
	require.True(t, m.Capturing())
	for _, r := range "boot" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	m, _ = m.Update(keyMsg("enter"))
	require.False(t, m.Capturing())
	require.Equal(t, "boot", m.Viewer().Filter().Search())
	require.Len(t, m.Viewer().Filtered(), 2)

	// esc clears the term
	m, _ = m.Update(keyMsg("/"))
	m, _ = m.Update(keyMsg("esc"))
	require.Equal(t, "", m.Viewer().Filter().Search())
}

func TestLogsHistory(t *testing.T) {
	m, ft := connectedLogs(t, LogsOptions{HistoryLines: 250})
	m, _ = m.Update(keyMsg("h"))
	require.Equal(t, "history backend 250", ft.Calls()[2])
}

func TestLogsExport(t *testing.T) {
	dir := t.TempDir()
	m, ft := connectedLogs(t, LogsOptions{ExportDir: dir})
	now := time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m = deliver(t, m, ft,
		logEvent(data.SourceBackend, data.LevelInfo, "one"),
		logEvent(data.SourcePostgres, data.LevelError, "two\nlines"),
	)

	_, cmd := m.Update(keyMsg("x"))
	msgs := toasts(runCmd(cmd))
	require.Len(t, msgs, 1)
	require.Equal(t, ToastSuccess, msgs[0].Level, msgs[0].Text)

	buf, err := os.ReadFile(filepath.Join(dir, logview.ExportFileName(now)))
	require.NoError(t, err)
	require.Equal(t, logview.ExportString(m.Viewer().Filtered()), string(buf))
	require.Equal(t,
		"2024-05-01T10:00:00.000Z [backend] [INFO] one\n2024-05-01T10:00:00.000Z [postgres] [ERROR] two\\nlines",
		string(buf))

	m.opts.ExportDir = filepath.Join(dir, "missing")
	_, cmd = m.Update(keyMsg("x"))
	msgs = toasts(runCmd(cmd))
	require.Len(t, msgs, 1)
	require.Equal(t, ToastError, msgs[0].Level)
}

func TestLogsExpandSelected(t *testing.T) {
	m, ft := connectedLogs(t, LogsOptions{})
	m = deliver(t, m, ft,
		logEvent(data.SourceBackend, data.LevelInfo, "first"),
		logEvent(data.SourceBackend, data.LevelError, "NullPointerException\n\tat App.run"),
	)

	require.NotContains(t, m.View(), "at App.run")

	// the first cursor move selects the bottom row
	m, _ = m.Update(keyMsg("k"))
	m, _ = m.Update(keyMsg("enter"))
	require.True(t, m.Viewer().Expanded(1))
	require.Contains(t, m.View(), "at App.run")

	m, _ = m.Update(keyMsg("k"))
	m, _ = m.Update(keyMsg("enter"))
	require.True(t, m.Viewer().Expanded(0))
}

func TestLogsDisconnectAndReload(t *testing.T) {
	m, ft := connectedLogs(t, LogsOptions{})

	ft.events <- logview.Event{Type: logview.EventClosed, Err: errors.New("connection reset")}
	msg := waitForEvents(m.conn, m.events)()
	require.True(t, msg.(logEventsMsg).closed)

	m, cmd := m.Update(msg)
	require.Equal(t, logview.Disconnected, m.session.State())
	require.Error(t, m.session.Err())
	require.True(t, strings.Contains(m.View(), "connection reset"))

	msgs := toasts(runCmd(cmd))
	require.Len(t, msgs, 1)
	require.Equal(t, ToastError, msgs[0].Level)

	_, cmd = m.Update(keyMsg("r"))
	var connected []connectedMsg
	for _, msg := range runCmd(cmd) {
		if c, ok := msg.(connectedMsg); ok {
			connected = append(connected, c)
		}
	}
	require.Len(t, connected, 1)
	require.NoError(t, connected[0].err)
	require.Equal(t, logview.Open, m.session.State())
}
