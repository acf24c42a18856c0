package client_test

import (
	"context"
	"encoding/json"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/indcloud/console/client"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/indcloud/console/sim"
	"github.com/indcloud/console/testutil"
	"github.com/stretchr/testify/require"
)

func TestNatsLogStream(t *testing.T) {
	ns := testutil.NatsTest(t)

	nc, err := ns.Connect("")
	require.NoError(t, err)
	defer nc.Close()

	feed := sim.NewLogFeed(0, 1)
	pub, err := sim.NewNatsPublisher(nc, feed)
	require.NoError(t, err)
	defer pub.Close()

	feed.PublishRaw(data.SourceBackend, "2024-01-01 00:00:00.000 [main] INFO App - booted")

	stream := client.NewNatsLogStream(ns.URL(), "")
	session := logview.NewSession(stream, []data.LogSource{data.SourceMosquitto})
	events, err := session.Connect(context.Background())
	require.NoError(t, err)

	nextEvent(t, events, logview.EventConnected)
	ev := nextEvent(t, events, logview.EventSubscribed)
	require.Equal(t, []data.LogSource{data.SourceMosquitto}, ev.Sources)

	feed.PublishRaw(data.SourceBackend, "2024-01-01 00:00:01.000 [main] INFO App - skipped")
	feed.PublishRaw(data.SourceMosquitto, "2024-01-01T00:00:01 : error : Socket error on client sensor-001")

	ev = nextEvent(t, events, logview.EventLog)
	require.Equal(t, data.SourceMosquitto, ev.Entry.Source)
	require.Equal(t, data.LevelError, ev.Entry.Level)

	require.NoError(t, session.History(data.SourceBackend, 10))
	ev = nextEvent(t, events, logview.EventHistory)
	require.Len(t, ev.Logs, 2)

	require.NoError(t, session.SetSources(nil))
	ev = nextEvent(t, events, logview.EventUnsubscribed)
	require.Empty(t, ev.Sources)
	require.Empty(t, session.Subscribed())

	require.NoError(t, session.Close())
	ev = nextEvent(t, events, logview.EventClosed)
	require.NoError(t, ev.Err)
}

func TestNatsLogStreamDrop(t *testing.T) {
	ns, err := testutil.StartNatsServer(testutil.NatsOptions{})
	require.NoError(t, err)

	stream := client.NewNatsLogStream(ns.URL(), "")
	session := logview.NewSession(stream, data.AllSources)
	events, err := session.Connect(context.Background())
	require.NoError(t, err)
	nextEvent(t, events, logview.EventSubscribed)

	ns.Shutdown()

	ev := nextEvent(t, events, logview.EventClosed)
	session.Handle(ev)
	require.Equal(t, logview.Disconnected, session.State())
	require.Error(t, session.Err())
}

func TestNatsLogStreamCloseUnread(t *testing.T) {
	ns := testutil.NatsTest(t)

	nc, err := ns.Connect("")
	require.NoError(t, err)
	defer nc.Close()

	stream := client.NewNatsLogStream(ns.URL(), "")
	events, err := stream.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, stream.Subscribe([]data.LogSource{data.SourceBackend}))

	entry, err := json.Marshal(data.LogEntry{Source: data.SourceBackend, Level: data.LevelInfo, Message: "line"})
	require.NoError(t, err)
	for i := 0; i < 400; i++ {
		require.NoError(t, nc.Publish(data.SubjectLogs(data.SourceBackend), entry))
	}
	require.NoError(t, nc.Flush())

	pumping := func() bool {
		buf := make([]byte, 1<<20)
		n := runtime.Stack(buf, true)
		return strings.Contains(string(buf[:n]), "(*NatsLogStream).pump")
	}

	require.Eventually(t, func() bool { return len(events) == cap(events) },
		5*time.Second, 10*time.Millisecond)

	require.NoError(t, stream.Close())
	require.Eventually(t, func() bool { return !pumping() },
		5*time.Second, 10*time.Millisecond, "pump still running after Close")
}
