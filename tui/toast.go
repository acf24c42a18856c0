package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/indcloud/console/client"
)

// ToastLevel is the severity of a toast
type ToastLevel int

// toast levels
const (
	ToastInfo ToastLevel = iota
	ToastSuccess
	ToastWarn
	ToastError
)

// ToastDuration is how long a toast stays in the status line
const ToastDuration = 5 * time.Second

// ToastMsg shows a message in the status line
type ToastMsg struct {
	Level ToastLevel
	Text  string
}

type toastExpiredMsg struct {
	id int
}

// Toast is the status line. A newer toast replaces the current one.
type Toast struct {
	current ToastMsg
	id      int
	visible bool
}

func toast(level ToastLevel, text string) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Level: level, Text: text}
	}
}

// errorToast shows err using the server message when there is one
func errorToast(prefix string, err error) tea.Cmd {
	return toast(ToastError, prefix+": "+client.Message(err))
}

// Update handles toast messages
func (t Toast) Update(msg tea.Msg) (Toast, tea.Cmd) {
	switch msg := msg.(type) {
	case ToastMsg:
		t.id++
		t.current = msg
		t.visible = true
		id := t.id
		return t, tea.Tick(ToastDuration, func(time.Time) tea.Msg {
			return toastExpiredMsg{id: id}
		})
	case toastExpiredMsg:
		if msg.id == t.id {
			t.visible = false
		}
	}
	return t, nil
}

// Current returns the visible toast
func (t Toast) Current() (ToastMsg, bool) {
	return t.current, t.visible
}

// View renders the toast or an empty line
func (t Toast) View() string {
	if !t.visible {
		return ""
	}
	return toastStyles[t.current.Level].Render(t.current.Text)
}
