package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/data"
)

// DashboardRefresh is how often the dashboard reloads its range
const DashboardRefresh = time.Minute

type dashboardLoadedMsg struct {
	snapshot analytics.Snapshot
	err      error
}

type dashboardTickMsg struct{}

// DashboardModel is the metrics screen
type DashboardModel struct {
	dash     *analytics.Dashboard
	rng      analytics.TimeRange
	loading  bool
	spinner  spinner.Model
	snapshot analytics.Snapshot
	loaded   bool
	width    int
}

// NewDashboardModel creates the metrics screen showing r first
func NewDashboardModel(dash *analytics.Dashboard, r analytics.TimeRange) DashboardModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	return DashboardModel{
		dash:    dash,
		rng:     r,
		spinner: s,
	}
}

// Init starts the first load and the refresh timer
func (m *DashboardModel) Init() tea.Cmd {
	return tea.Batch(m.load(m.rng), m.spinner.Tick, dashboardTick())
}

func dashboardTick() tea.Cmd {
	return tea.Tick(DashboardRefresh, func(time.Time) tea.Msg {
		return dashboardTickMsg{}
	})
}

// load starts loading r. A load still in flight is cancelled by the
// dashboard and its result dropped.
func (m *DashboardModel) load(r analytics.TimeRange) tea.Cmd {
	m.rng = r
	m.loading = true
	dash := m.dash
	return func() tea.Msg {
		snap, err := dash.Load(context.Background(), r)
		return dashboardLoadedMsg{snapshot: snap, err: err}
	}
}

// SetSize sets the screen dimensions
func (m *DashboardModel) SetSize(width, _ int) {
	m.width = width
}

// Range returns the selected time range
func (m DashboardModel) Range() analytics.TimeRange {
	return m.rng
}

// Snapshot returns the snapshot on screen
func (m DashboardModel) Snapshot() analytics.Snapshot {
	return m.snapshot
}

// Update handles messages for the dashboard
func (m DashboardModel) Update(msg tea.Msg) (DashboardModel, tea.Cmd) {
	switch msg := msg.(type) {
	case dashboardLoadedMsg:
		switch {
		case errors.Is(msg.err, analytics.ErrSuperseded):
			// a newer load owns the screen
			return m, nil
		case errors.Is(msg.err, context.Canceled):
			m.loading = false
			return m, toast(ToastInfo, "dashboard load cancelled")
		case msg.err != nil:
			m.loading = false
			return m, errorToast("dashboard", msg.err)
		}
		m.loading = false
		m.loaded = true
		m.snapshot = msg.snapshot
		return m, nil

	case dashboardTickMsg:
		if m.loading {
			return m, dashboardTick()
		}
		return m, tea.Batch(m.load(m.rng), dashboardTick())

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		k := dashboardKeyMap
		switch {
		case key.Matches(msg, k.Range):
			i := int(msg.Runes[0] - '1')
			if i >= 0 && i < len(analytics.AllRanges) {
				return m, m.load(analytics.AllRanges[i])
			}
		case key.Matches(msg, k.Refresh):
			return m, m.load(m.rng)
		case key.Matches(msg, k.Cancel):
			if m.loading {
				m.dash.Cancel()
			}
		}
	}

	return m, nil
}

func formatValue(v *float64) string {
	if v == nil {
		return data.NotAvailable
	}
	return fmt.Sprintf("%.2f", *v)
}

// View renders the dashboard
func (m DashboardModel) View() string {
	var sb strings.Builder

	var ranges []string
	for i, r := range analytics.AllRanges {
		label := fmt.Sprintf("%v:%v", i+1, r.Name)
		if r.Name == m.rng.Name {
			ranges = append(ranges, activeTabStyle.Render(label))
		} else {
			ranges = append(ranges, inactiveTabStyle.Render(label))
		}
	}
	sb.WriteString(titleStyle.Render("Dashboard") + "  " + lipgloss.JoinHorizontal(lipgloss.Top, ranges...))
	if m.loading {
		sb.WriteString("  " + m.spinner.View() + dimStyle.Render(" loading "+m.rng.Name))
	}
	sb.WriteString("\n\n")

	if !m.loaded {
		sb.WriteString(dimStyle.Render("no data loaded yet"))
		return sb.String()
	}

	s := m.snapshot
	fmt.Fprintf(&sb, "devices: %v total, %v active    window: %v to %v (%v buckets)\n\n",
		s.TotalDevices, s.ActiveDevices,
		s.From.Local().Format("2006-01-02 15:04"), s.To.Local().Format("2006-01-02 15:04"),
		s.Range.Interval)

	fmt.Fprintf(&sb, "%-16v %10v %10v %10v %8v %8v\n", "variable", "min", "max", "avg", "samples", "devices")
	for _, metric := range s.Metrics {
		fmt.Fprintf(&sb, "%-16v %10v %10v %10v %8v %8v\n",
			metric.Variable,
			formatValue(metric.Min), formatValue(metric.Max), formatValue(metric.Avg),
			metric.Samples, metric.Devices)
		if len(metric.Failed) > 0 {
			sb.WriteString(toastStyles[ToastWarn].Render(
				fmt.Sprintf("  %v device(s) failed: %v", len(metric.Failed), strings.Join(metric.Failed, ", "))))
			sb.WriteString("\n")
		}
	}

	sb.WriteString("\n" + dimStyle.Render("loaded "+s.LoadedAt.Local().Format("15:04:05")))
	return sb.String()
}
