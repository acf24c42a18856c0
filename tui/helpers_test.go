package tui

import (
	"context"
	"fmt"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
)

type fakeTransport struct {
	lock   sync.Mutex
	calls  []string
	events chan logview.Event
}

func (f *fakeTransport) record(s string) {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.calls = append(f.calls, s)
}

func (f *fakeTransport) Calls() []string {
	f.lock.Lock()
	defer f.lock.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeTransport) Connect(context.Context) (<-chan logview.Event, error) {
	f.record("connect")
	f.events = make(chan logview.Event, 100)
	return f.events, nil
}

func (f *fakeTransport) Subscribe(sources []data.LogSource) error {
	f.record(fmt.Sprintf("subscribe %v", sources))
	return nil
}

func (f *fakeTransport) Unsubscribe(sources []data.LogSource) error {
	f.record(fmt.Sprintf("unsubscribe %v", sources))
	return nil
}

func (f *fakeTransport) History(source data.LogSource, lines int) error {
	f.record(fmt.Sprintf("history %v %v", source, lines))
	return nil
}

func (f *fakeTransport) Close() error {
	f.record("close")
	return nil
}

type archiver struct {
	entries []data.LogEntry
}

func (a *archiver) Add(entries ...data.LogEntry) {
	a.entries = append(a.entries, entries...)
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// runCmd executes cmd and any batch it expands to. Only use it on commands
// known not to block, such as toasts and requests to a test backend.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var ret []tea.Msg
		for _, c := range batch {
			ret = append(ret, runCmd(c)...)
		}
		return ret
	}
	return []tea.Msg{msg}
}

func toasts(msgs []tea.Msg) []ToastMsg {
	var ret []ToastMsg
	for _, m := range msgs {
		if t, ok := m.(ToastMsg); ok {
			ret = append(ret, t)
		}
	}
	return ret
}

func logEvent(src data.LogSource, lvl data.LogLevel, msg string) logview.Event {
	return logview.Event{
		Type: logview.EventLog,
		Entry: data.LogEntry{
			Timestamp: "2024-05-01T10:00:00.000Z",
			Source:    src,
			Level:     lvl,
			Message:   msg,
		},
	}
}
