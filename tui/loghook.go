package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	log "github.com/sirupsen/logrus"
)

// logHook forwards console log messages to the status line while the TUI
// owns the terminal
type logHook struct {
	ch chan<- ToastMsg
}

func (h *logHook) Levels() []log.Level {
	return []log.Level{log.PanicLevel, log.FatalLevel, log.ErrorLevel, log.WarnLevel, log.InfoLevel}
}

func (h *logHook) Fire(entry *log.Entry) error {
	level := ToastInfo
	switch entry.Level {
	case log.WarnLevel:
		level = ToastWarn
	case log.ErrorLevel, log.FatalLevel, log.PanicLevel:
		level = ToastError
	}

	text := entry.Message
	if err, ok := entry.Data[log.ErrorKey].(error); ok {
		text += ": " + err.Error()
	}

	select {
	case h.ch <- ToastMsg{Level: level, Text: text}:
	default:
		// drop, the status line only shows the latest anyway
	}
	return nil
}

// listenToasts waits for the next forwarded log message
func listenToasts(ch <-chan ToastMsg) tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-ch
		if !ok {
			return nil
		}
		return logToastMsg{msg}
	}
}

type logToastMsg struct {
	ToastMsg
}
