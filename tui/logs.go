package tui

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
)

// ConnectTimeout bounds the dial of a log transport
const ConnectTimeout = 10 * time.Second

// maxEventBatch is the most transport events applied in one update
const maxEventBatch = 512

// Archiver receives every entry the log screen ingests. *store.Recorder
// implements it.
type Archiver interface {
	Add(entries ...data.LogEntry)
}

// LogsOptions configures the log screen
type LogsOptions struct {
	Capacity     int
	HistoryLines int
	ExportDir    string
	Archiver     Archiver
}

type connectedMsg struct {
	conn   int
	events <-chan logview.Event
	err    error
}

type logEventsMsg struct {
	conn   int
	events []logview.Event
	closed bool
}

// LogsModel is the streaming log screen
type LogsModel struct {
	session *logview.Session
	viewer  *logview.Viewer
	opts    LogsOptions
	now     func() time.Time

	// conn identifies the current connection; events from an earlier one
	// are ignored
	conn   int
	events <-chan logview.Event

	search    textinput.Model
	searching bool

	// selected is the Seq of the cursor row, 0 when nothing is selected
	selected uint64

	width  int
	height int
}

// NewLogsModel creates the log screen for session
func NewLogsModel(session *logview.Session, opts LogsOptions) LogsModel {
	if opts.HistoryLines <= 0 {
		opts.HistoryLines = 100
	}

	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "search messages"
	ti.CharLimit = 200

	return LogsModel{
		session: session,
		viewer:  logview.NewViewer(opts.Capacity),
		opts:    opts,
		now:     time.Now,
		search:  ti,
	}
}

// Viewer returns the view state of the screen
func (m LogsModel) Viewer() *logview.Viewer {
	return m.viewer
}

// Init connects the session
func (m *LogsModel) Init() tea.Cmd {
	return m.connect(false)
}

func (m *LogsModel) connect(reload bool) tea.Cmd {
	m.conn++
	conn := m.conn
	session := m.session

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()

		var events <-chan logview.Event
		var err error
		if reload {
			events, err = session.Reload(ctx)
		} else {
			events, err = session.Connect(ctx)
		}
		return connectedMsg{conn: conn, events: events, err: err}
	}
}

// waitForEvents reads the next event and any others already queued
func waitForEvents(conn int, ch <-chan logview.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return logEventsMsg{conn: conn, closed: true}
		}

		batch := []logview.Event{ev}
		for len(batch) < maxEventBatch && ev.Type != logview.EventClosed {
			select {
			case ev, ok = <-ch:
				if !ok {
					return logEventsMsg{conn: conn, events: batch, closed: true}
				}
				batch = append(batch, ev)
			default:
				return logEventsMsg{conn: conn, events: batch}
			}
		}

		return logEventsMsg{conn: conn, events: batch, closed: ev.Type == logview.EventClosed}
	}
}

// SetSize sets the screen dimensions
func (m *LogsModel) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.search.Width = width - 2
	m.viewer.SetHeight(m.rowsHeight())
}

// rowsHeight is the height left for log rows below the two header lines
func (m LogsModel) rowsHeight() int {
	h := m.height - 2
	if m.searching {
		h--
	}
	if h < 1 {
		h = 1
	}
	return h
}

// Capturing reports whether the screen takes every key, for example while
// typing a search term
func (m LogsModel) Capturing() bool {
	return m.searching
}

// Update handles messages for the log screen
func (m LogsModel) Update(msg tea.Msg) (LogsModel, tea.Cmd) {
	switch msg := msg.(type) {
	case connectedMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		if msg.err != nil {
			return m, errorToast("log stream", msg.err)
		}
		m.events = msg.events
		return m, tea.Batch(
			waitForEvents(msg.conn, msg.events),
			toast(ToastSuccess, "log stream connected"),
		)

	case logEventsMsg:
		if msg.conn != m.conn {
			return m, nil
		}
		cmd := m.apply(msg.events)
		if msg.closed {
			return m, cmd
		}
		return m, tea.Batch(cmd, waitForEvents(msg.conn, m.events))

	case tea.KeyMsg:
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.handleKey(msg)
	}

	if m.searching {
		// cursor blink
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}
	return m, nil
}

// apply feeds transport events to the session and the viewer
func (m *LogsModel) apply(events []logview.Event) tea.Cmd {
	var entries []data.LogEntry
	var cmds []tea.Cmd

	for _, ev := range events {
		m.session.Handle(ev)

		switch ev.Type {
		case logview.EventLog:
			entries = append(entries, ev.Entry)
		case logview.EventHistory:
			entries = append(entries, ev.Logs...)
		case logview.EventError:
			cmds = append(cmds, toast(ToastError, "log stream: "+ev.Message))
		case logview.EventClosed:
			if ev.Err != nil {
				cmds = append(cmds, errorToast("log stream disconnected", ev.Err))
			} else {
				cmds = append(cmds, toast(ToastWarn, "log stream closed"))
			}
		}
	}

	if len(entries) > 0 {
		stamped := m.viewer.Append(entries...)
		if m.opts.Archiver != nil {
			m.opts.Archiver.Add(stamped...)
		}
	}

	return tea.Batch(cmds...)
}

func (m LogsModel) updateSearch(msg tea.KeyMsg) (LogsModel, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEnter:
		m.searching = false
		m.search.Blur()
		m.viewer.SetHeight(m.rowsHeight())
		return m, nil
	case tea.KeyEsc:
		m.searching = false
		m.search.Blur()
		m.search.SetValue("")
		m.viewer.SetSearch("")
		m.viewer.SetHeight(m.rowsHeight())
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != m.viewer.Filter().Search() {
		m.viewer.SetSearch(m.search.Value())
	}
	return m, cmd
}

var levelKeys = map[string]data.LogLevel{
	"D": data.LevelDebug,
	"I": data.LevelInfo,
	"W": data.LevelWarn,
	"E": data.LevelError,
	"F": data.LevelFatal,
}

func (m LogsModel) handleKey(msg tea.KeyMsg) (LogsModel, tea.Cmd) {
	k := logKeyMap

	switch {
	case key.Matches(msg, k.Pause):
		return m, m.togglePause()

	case key.Matches(msg, k.Sources):
		i := int(msg.Runes[0] - '1')
		if i >= 0 && i < len(data.AllSources) {
			m.viewer.ToggleSource(data.AllSources[i])
		}

	case key.Matches(msg, k.Levels):
		m.viewer.ToggleLevel(levelKeys[msg.String()])

	case key.Matches(msg, k.Subscribe):
		sources := m.viewer.Filter().Sources()
		if err := m.session.SetSources(sources); err != nil {
			return m, errorToast("subscribe", err)
		}
		return m, toast(ToastInfo, "streaming "+joinSources(sources))

	case key.Matches(msg, k.Search):
		m.searching = true
		m.search.SetValue(m.viewer.Filter().Search())
		m.viewer.SetHeight(m.rowsHeight())
		return m, m.search.Focus()

	case key.Matches(msg, k.AutoScroll):
		m.viewer.ToggleAutoScroll()

	case key.Matches(msg, k.Up):
		m.moveCursor(-1)
	case key.Matches(msg, k.Down):
		m.moveCursor(1)
	case key.Matches(msg, k.PageUp):
		m.viewer.ScrollBy(-m.rowsHeight())
	case key.Matches(msg, k.PageDown):
		m.viewer.ScrollBy(m.rowsHeight())
	case key.Matches(msg, k.Top):
		m.viewer.ScrollToTop()
	case key.Matches(msg, k.Bottom):
		m.viewer.ScrollToBottom()

	case key.Matches(msg, k.Expand):
		if i := m.cursorIndex(); i >= 0 {
			m.viewer.ToggleExpanded(i)
		}

	case key.Matches(msg, k.History):
		if err := m.session.History(data.SourceBackend, m.opts.HistoryLines); err != nil {
			return m, errorToast("history", err)
		}

	case key.Matches(msg, k.Export):
		return m, m.export()

	case key.Matches(msg, k.Clear):
		m.viewer.Clear()
		m.selected = 0

	case key.Matches(msg, k.Reload):
		return m, tea.Batch(toast(ToastInfo, "reconnecting log stream"), m.connect(true))
	}

	return m, nil
}

func (m *LogsModel) togglePause() tea.Cmd {
	switch m.session.State() {
	case logview.Paused:
		if err := m.session.Resume(); err != nil {
			return errorToast("resume", err)
		}
		return toast(ToastInfo, "resumed")
	case logview.Open:
		if err := m.session.Pause(); err != nil {
			return errorToast("pause", err)
		}
		return toast(ToastInfo, "paused, buffered entries are kept")
	}
	return toast(ToastWarn, "log stream is "+m.session.State().String())
}

// export writes the filtered entries to a file. The filtered list is copied
// so the write can run outside the update loop.
func (m LogsModel) export() tea.Cmd {
	entries := append([]data.LogEntry(nil), m.viewer.Filtered()...)
	dir := m.opts.ExportDir
	t := m.now()

	return func() tea.Msg {
		path, err := logview.ExportFile(dir, entries, t)
		if err != nil {
			return ToastMsg{Level: ToastError, Text: "export failed: " + err.Error()}
		}
		return ToastMsg{Level: ToastSuccess, Text: fmt.Sprintf("exported %v entries to %v", len(entries), path)}
	}
}

// cursorIndex returns the filtered index of the selected row, or -1
func (m LogsModel) cursorIndex() int {
	if m.selected == 0 {
		return -1
	}
	filtered := m.viewer.Filtered()
	i := sort.Search(len(filtered), func(i int) bool {
		return filtered[i].Seq >= m.selected
	})
	if i < len(filtered) && filtered[i].Seq == m.selected {
		return i
	}
	return -1
}

// moveCursor moves the selection and scrolls to keep it in view
func (m *LogsModel) moveCursor(delta int) {
	filtered := m.viewer.Filtered()
	if len(filtered) == 0 {
		return
	}

	w := m.viewer.Window()
	i := m.cursorIndex()
	if i < 0 {
		// start from the bottom row of the viewport
		i = w.Offset + w.Height - 1
		if i >= len(filtered) {
			i = len(filtered) - 1
		}
	} else {
		i += delta
	}
	if i < 0 {
		i = 0
	}
	if i >= len(filtered) {
		i = len(filtered) - 1
	}
	m.selected = filtered[i].Seq

	switch {
	case i < w.Offset:
		m.viewer.ScrollBy(i - w.Offset)
	case w.Height > 0 && i >= w.Offset+w.Height:
		m.viewer.ScrollBy(i - (w.Offset + w.Height - 1))
	}
}

func joinSources(sources []data.LogSource) string {
	if len(sources) == 0 {
		return "nothing"
	}
	s := make([]string, len(sources))
	for i, src := range sources {
		s[i] = string(src)
	}
	return strings.Join(s, ", ")
}

func (m LogsModel) statusLine() string {
	f := m.viewer.Filter()

	var sb strings.Builder
	sb.WriteString(m.session.State().String())
	if err := m.session.Err(); err != nil {
		sb.WriteString(" (" + err.Error() + ")")
	}
	sb.WriteString("  ")

	for i, src := range data.AllSources {
		fmt.Fprintf(&sb, "%v%v %v ", i+1, check(f.HasSource(src)), sourceStyle(src).Render(string(src)))
	}
	sb.WriteString(" ")
	for _, lvl := range data.AllLevels {
		fmt.Fprintf(&sb, "%v%v ", check(f.HasLevel(lvl)), levelStyle(lvl).Render(string(lvl)))
	}

	fmt.Fprintf(&sb, " %v/%v", len(m.viewer.Filtered()), m.viewer.Buffer().Len())
	if m.viewer.AutoScroll().Enabled() {
		sb.WriteString("  auto")
		if !m.viewer.AutoScroll().Following() {
			sb.WriteString(" (held)")
		}
	}
	if term := f.Search(); term != "" && !m.searching {
		fmt.Fprintf(&sb, "  /%v", term)
	}
	return sb.String()
}

func renderSegments(segs []logview.Segment) string {
	var sb strings.Builder
	for _, s := range segs {
		if s.Match {
			sb.WriteString(matchStyle.Render(s.Text))
		} else {
			sb.WriteString(s.Text)
		}
	}
	return sb.String()
}

// renderRow renders one entry. Collapsed rows show the first message line;
// expanded rows show the whole message and the logger name.
func (m LogsModel) renderRow(r logview.Row) []string {
	e := r.Entry
	prefix := fmt.Sprintf("%v %-9v %-5v ",
		dimStyle.Render(e.DisplayTime()),
		sourceStyle(e.Source).Render(string(e.Source)),
		levelStyle(e.Level).Render(string(e.Level)))

	msg := renderSegments(r.Segments)
	lines := strings.Split(msg, "\n")

	var ret []string
	if !r.Expanded {
		line := prefix + lines[0]
		if len(lines) > 1 {
			line += dimStyle.Render(fmt.Sprintf(" (+%v lines)", len(lines)-1))
		}
		ret = append(ret, line)
	} else {
		ret = append(ret, prefix+lines[0])
		for _, l := range lines[1:] {
			ret = append(ret, "    "+l)
		}
		if e.Logger != "" {
			ret = append(ret, "    "+dimStyle.Render("logger: "+e.Logger))
		}
	}

	if e.Seq == m.selected {
		for i := range ret {
			ret[i] = cursorStyle.Render(ret[i])
		}
	}
	return ret
}

// View renders the log screen
func (m LogsModel) View() string {
	lines := []string{m.statusLine()}
	if m.searching {
		lines = append(lines, m.search.View())
	}

	height := m.rowsHeight()
	w := m.viewer.Window()

	var rows []string
	for _, r := range m.viewer.Visible() {
		// overscan rows are computed but not drawn in a terminal
		if r.Index < w.Offset || r.Index >= w.Offset+height {
			continue
		}
		rows = append(rows, m.renderRow(r)...)
	}
	if len(rows) > height {
		rows = rows[:height]
	}
	if len(m.viewer.Filtered()) == 0 {
		rows = append(rows, dimStyle.Render("no log entries"))
	}

	lines = append(lines, strings.Repeat("─", max(m.width, 1)))
	lines = append(lines, rows...)
	return strings.Join(lines, "\n")
}
