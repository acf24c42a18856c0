package tui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/indcloud/console/data"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))

	activeTabStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231")).Background(lipgloss.Color("25")).Padding(0, 1)
	inactiveTabStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Padding(0, 1)

	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	matchStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("220"))
	cursorStyle = lipgloss.NewStyle().Background(lipgloss.Color("236"))

	toastStyles = map[ToastLevel]lipgloss.Style{
		ToastInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		ToastSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		ToastWarn:    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		ToastError:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}

	levelStyles = map[data.LogLevel]lipgloss.Style{
		data.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
		data.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		data.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		data.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		data.LevelFatal: lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("160")),
	}

	sourceStyles = map[data.LogSource]lipgloss.Style{
		data.SourceBackend:   lipgloss.NewStyle().Foreground(lipgloss.Color("111")),
		data.SourceMosquitto: lipgloss.NewStyle().Foreground(lipgloss.Color("141")),
		data.SourcePostgres:  lipgloss.NewStyle().Foreground(lipgloss.Color("79")),
	}
)

func levelStyle(l data.LogLevel) lipgloss.Style {
	if s, ok := levelStyles[l]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

func sourceStyle(s data.LogSource) lipgloss.Style {
	if st, ok := sourceStyles[s]; ok {
		return st
	}
	return lipgloss.NewStyle()
}

// check renders a toggle indicator
func check(on bool) string {
	if on {
		return "●"
	}
	return "○"
}
