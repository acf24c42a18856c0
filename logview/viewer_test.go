package logview

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"
	"testing"

	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

func fill(v *Viewer, n int) {
	for i := 0; i < n; i++ {
		src := data.AllSources[i%len(data.AllSources)]
		lvl := data.AllLevels[i%len(data.AllLevels)]
		v.Append(entry(src, lvl, fmt.Sprintf("message %v", i)))
	}
}

func TestViewerIncrementalMatchesFull(t *testing.T) {
	v := NewViewer(50)
	v.SetFilter(NewFilter().ToggleSource(data.SourceMosquitto).WithSearch("1"))
	fill(v, 200)

	want := v.Filter().Apply(v.Buffer().Entries())
	require.Equal(t, want, v.Filtered())
}

func TestViewerAutoScrollPins(t *testing.T) {
	v := NewViewer(1000)
	v.SetHeight(10)
	fill(v, 100)

	w := v.Window()
	require.Equal(t, 90, w.Offset)
	require.True(t, w.AtBottom(len(v.Filtered())))

	v.ScrollBy(-20)
	fill(v, 10)
	require.Equal(t, 70, v.Window().Offset, "user scroll suspends pinning")

	v.ScrollToBottom()
	fill(v, 10)
	require.Equal(t, 110, v.Window().Offset)
}

func TestViewerDisableAutoScrollDoesNotMove(t *testing.T) {
	v := NewViewer(1000)
	v.SetHeight(10)
	fill(v, 50)
	before := v.Window().Offset

	v.ToggleAutoScroll()
	require.Equal(t, before, v.Window().Offset)

	fill(v, 10)
	require.Equal(t, before, v.Window().Offset)
}

func TestViewerTrimKeepsViewportRows(t *testing.T) {
	v := NewViewer(20)
	v.SetHeight(5)
	fill(v, 20)

	v.ScrollBy(-10)
	top := v.Filtered()[v.Window().Offset].Seq

	fill(v, 3)
	require.Equal(t, top, v.Filtered()[v.Window().Offset].Seq)
}

func TestViewerRowStateByIdentity(t *testing.T) {
	v := NewViewer(10)
	v.SetHeight(10)
	fill(v, 10)

	require.True(t, v.ToggleExpanded(5))
	seq := v.Filtered()[5].Seq

	// dropping two entries from the head shifts indexes, not identity
	fill(v, 2)
	require.Equal(t, seq, v.Filtered()[3].Seq)
	require.True(t, v.Expanded(3))
	require.False(t, v.Expanded(5))

	rows := v.Visible()
	expanded := 0
	for _, r := range rows {
		if r.Expanded {
			expanded++
			require.Equal(t, seq, r.Entry.Seq)
		}
	}
	require.Equal(t, 1, expanded)
}

func TestViewerRowStateResetOnFilterChange(t *testing.T) {
	v := NewViewer(10)
	fill(v, 10)
	v.ToggleExpanded(0)
	v.ToggleExpanded(1)

	v.SetSearch("message")
	require.False(t, v.Expanded(0))
	require.False(t, v.Expanded(1))

	v.ToggleExpanded(2)
	v.SetFilter(v.Filter())
	require.True(t, v.Expanded(2), "an equal filter is not a change")
}

func TestViewerToggleSourceRestores(t *testing.T) {
	v := NewViewer(100)
	fill(v, 30)
	before := append([]data.LogEntry(nil), v.Filtered()...)

	v.ToggleSource(data.SourcePostgres)
	require.Less(t, len(v.Filtered()), len(before))
	v.ToggleSource(data.SourcePostgres)
	require.Equal(t, before, v.Filtered())
}

func TestViewerVisibleHighlights(t *testing.T) {
	v := NewViewer(100)
	v.SetHeight(3)
	fill(v, 20)
	v.SetSearch("MESSAGE 1")

	for _, r := range v.Visible() {
		require.True(t, r.Segments[0].Match)
		require.Equal(t, "message 1", r.Segments[0].Text)
	}
}

var exportLine = regexp.MustCompile(`^\S+ \[(backend|mosquitto|postgres)\] \[(DEBUG|INFO|WARN|ERROR|FATAL)\] .*$`)

func TestViewerExport(t *testing.T) {
	v := NewViewer(100)
	fill(v, 25)
	v.Append(entry(data.SourceBackend, data.LevelError, "stack\n\tat line 1\n\tat line 2"))
	v.ToggleLevel(data.LevelDebug)

	var buf bytes.Buffer
	require.NoError(t, v.Export(&buf))

	lines := strings.Split(buf.String(), "\n")
	require.Len(t, lines, len(v.Filtered()))
	for _, l := range lines {
		require.Regexp(t, exportLine, l)
	}
	require.Equal(t, "2024-01-01T12:00:00.000Z [backend] [ERROR] stack\\n\tat line 1\\n\tat line 2", lines[len(lines)-1])
}

func TestViewerClear(t *testing.T) {
	v := NewViewer(100)
	v.SetHeight(5)
	fill(v, 25)
	v.Clear()
	require.Empty(t, v.Filtered())
	require.Empty(t, v.Visible())
	require.Equal(t, 0, v.Window().Offset)
}
