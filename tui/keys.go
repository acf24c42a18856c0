package tui

import "github.com/charmbracelet/bubbles/key"

type globalKeys struct {
	Quit key.Binding
	Next key.Binding
	Help key.Binding
}

var appKeys = globalKeys{
	Quit: key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Next: key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next screen")),
	Help: key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

type logKeys struct {
	Pause      key.Binding
	Sources    key.Binding
	Levels     key.Binding
	Subscribe  key.Binding
	Search     key.Binding
	AutoScroll key.Binding
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Top        key.Binding
	Bottom     key.Binding
	Expand     key.Binding
	History    key.Binding
	Export     key.Binding
	Clear      key.Binding
	Reload     key.Binding
}

var logKeyMap = logKeys{
	Pause:      key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause/resume")),
	Sources:    key.NewBinding(key.WithKeys("1", "2", "3"), key.WithHelp("1-3", "toggle source")),
	Levels:     key.NewBinding(key.WithKeys("D", "I", "W", "E", "F"), key.WithHelp("D/I/W/E/F", "toggle level")),
	Subscribe:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "stream shown sources")),
	Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
	AutoScroll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "auto-scroll")),
	Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	PageUp:     key.NewBinding(key.WithKeys("pgup", "b"), key.WithHelp("pgup", "page up")),
	PageDown:   key.NewBinding(key.WithKeys("pgdown", "f"), key.WithHelp("pgdn", "page down")),
	Top:        key.NewBinding(key.WithKeys("home", "g"), key.WithHelp("g", "top")),
	Bottom:     key.NewBinding(key.WithKeys("end", "G"), key.WithHelp("G", "bottom")),
	Expand:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "expand")),
	History:    key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "load history")),
	Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export")),
	Clear:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "clear")),
	Reload:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reconnect")),
}

func (k logKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.Sources, k.Levels, k.Search, k.Export, appKeys.Next, appKeys.Quit}
}

func (k logKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Pause, k.Subscribe, k.Reload, k.History},
		{k.Sources, k.Levels, k.Search, k.AutoScroll},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
		{k.Expand, k.Export, k.Clear, appKeys.Next, appKeys.Quit},
	}
}

type deviceKeys struct {
	Enable  key.Binding
	Disable key.Binding
	Delete  key.Binding
	Undo    key.Binding
	Refresh key.Binding
	Confirm key.Binding
	Cancel  key.Binding
}

var deviceKeyMap = deviceKeys{
	Enable:  key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "enable")),
	Disable: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "disable")),
	Delete:  key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
	Undo:    key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "undo delete")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Confirm: key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "confirm")),
	Cancel:  key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "cancel")),
}

func (k deviceKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Enable, k.Disable, k.Delete, k.Undo, k.Refresh, appKeys.Next, appKeys.Quit}
}

func (k deviceKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

type dashboardKeys struct {
	Range   key.Binding
	Refresh key.Binding
	Cancel  key.Binding
}

var dashboardKeyMap = dashboardKeys{
	Range:   key.NewBinding(key.WithKeys("1", "2", "3", "4", "5"), key.WithHelp("1-5", "time range")),
	Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
	Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel load")),
}

func (k dashboardKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Range, k.Refresh, k.Cancel, appKeys.Next, appKeys.Quit}
}

func (k dashboardKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
