package tui

import (
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	log "github.com/sirupsen/logrus"
)

// Screen identifies one of the screens of the app
type Screen int

// screens, in tab order
const (
	ScreenLogs Screen = iota
	ScreenDevices
	ScreenDashboard
)

var screenNames = []string{"Logs", "Devices", "Dashboard"}

func (s Screen) String() string {
	if int(s) < len(screenNames) {
		return screenNames[s]
	}
	return "?"
}

type screen interface {
	Capturing() bool
}

// App is the root model. A nil screen is left out of the tab bar.
type App struct {
	logs      *LogsModel
	devices   *DevicesModel
	dashboard *DashboardModel

	screens []Screen
	current int

	toast    Toast
	help     help.Model
	logToast <-chan ToastMsg

	width  int
	height int
}

// Option adds a screen to the app
type Option func(*App)

// WithLogs adds the log screen
func WithLogs(m LogsModel) Option {
	return func(a *App) {
		a.logs = &m
		a.screens = append(a.screens, ScreenLogs)
	}
}

// WithDevices adds the device screen
func WithDevices(m DevicesModel) Option {
	return func(a *App) {
		a.devices = &m
		a.screens = append(a.screens, ScreenDevices)
	}
}

// WithDashboard adds the dashboard screen
func WithDashboard(m DashboardModel) Option {
	return func(a *App) {
		a.dashboard = &m
		a.screens = append(a.screens, ScreenDashboard)
	}
}

// NewApp creates the root model
func NewApp(opts ...Option) App {
	a := App{help: help.New()}
	for _, o := range opts {
		o(&a)
	}
	return a
}

// Screen returns the visible screen
func (a App) Screen() Screen {
	if len(a.screens) == 0 {
		return ScreenLogs
	}
	return a.screens[a.current]
}

// Init starts every screen
func (a App) Init() tea.Cmd {
	var cmds []tea.Cmd
	if a.logs != nil {
		cmds = append(cmds, a.logs.Init())
	}
	if a.devices != nil {
		cmds = append(cmds, a.devices.Init())
	}
	if a.dashboard != nil {
		cmds = append(cmds, a.dashboard.Init())
	}
	if a.logToast != nil {
		cmds = append(cmds, listenToasts(a.logToast))
	}
	return tea.Batch(cmds...)
}

func (a App) active() screen {
	switch a.Screen() {
	case ScreenLogs:
		if a.logs != nil {
			return a.logs
		}
	case ScreenDevices:
		if a.devices != nil {
			return a.devices
		}
	case ScreenDashboard:
		if a.dashboard != nil {
			return a.dashboard
		}
	}
	return nil
}

// Update routes messages. Async results go to the screen that started them;
// keys go to the visible screen.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		a.resize()
		return a, nil

	case ToastMsg:
		a.toast, cmd = a.toast.Update(msg)
		return a, cmd
	case toastExpiredMsg:
		a.toast, cmd = a.toast.Update(msg)
		return a, cmd
	case logToastMsg:
		a.toast, cmd = a.toast.Update(msg.ToastMsg)
		return a, tea.Batch(cmd, listenToasts(a.logToast))

	case connectedMsg, logEventsMsg:
		if a.logs != nil {
			*a.logs, cmd = a.logs.Update(msg)
		}
		return a, cmd
	case devicesLoadedMsg, deviceChangedMsg, deviceDeletedMsg, deviceRestoredMsg:
		if a.devices != nil {
			*a.devices, cmd = a.devices.Update(msg)
		}
		return a, cmd

	case tea.KeyMsg:
		capturing := false
		if s := a.active(); s != nil {
			capturing = s.Capturing()
		}
		if msg.Type == tea.KeyCtrlC {
			return a, tea.Quit
		}
		if !capturing {
			switch {
			case key.Matches(msg, appKeys.Quit):
				return a, tea.Quit
			case key.Matches(msg, appKeys.Next):
				if len(a.screens) > 0 {
					a.current = (a.current + 1) % len(a.screens)
				}
				return a, nil
			case key.Matches(msg, appKeys.Help):
				a.help.ShowAll = !a.help.ShowAll
				a.resize()
				return a, nil
			}
		}
		return a.routeKey(msg)
	}

	// everything else is a timer: dashboard refresh, spinner or cursor blink
	var cmds []tea.Cmd
	if a.logs != nil {
		*a.logs, cmd = a.logs.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.dashboard != nil {
		*a.dashboard, cmd = a.dashboard.Update(msg)
		cmds = append(cmds, cmd)
	}
	return a, tea.Batch(cmds...)
}

func (a App) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.Screen() {
	case ScreenLogs:
		if a.logs != nil {
			*a.logs, cmd = a.logs.Update(msg)
		}
	case ScreenDevices:
		if a.devices != nil {
			*a.devices, cmd = a.devices.Update(msg)
		}
	case ScreenDashboard:
		if a.dashboard != nil {
			*a.dashboard, cmd = a.dashboard.Update(msg)
		}
	}
	return a, cmd
}

// resize gives each screen the space left by the tab bar, status line and
// help
func (a *App) resize() {
	h := a.height - 2 - lipgloss.Height(a.helpView())
	if h < 1 {
		h = 1
	}
	if a.logs != nil {
		a.logs.SetSize(a.width, h)
	}
	if a.devices != nil {
		a.devices.SetSize(a.width, h)
	}
	if a.dashboard != nil {
		a.dashboard.SetSize(a.width, h)
	}
}

func (a App) helpView() string {
	switch a.Screen() {
	case ScreenLogs:
		return a.help.View(logKeyMap)
	case ScreenDevices:
		return a.help.View(deviceKeyMap)
	case ScreenDashboard:
		return a.help.View(dashboardKeyMap)
	}
	return ""
}

// View renders the tab bar, the visible screen, the status line and help
func (a App) View() string {
	var tabs []string
	for i, s := range a.screens {
		if i == a.current {
			tabs = append(tabs, activeTabStyle.Render(s.String()))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(s.String()))
		}
	}

	var body string
	switch a.Screen() {
	case ScreenLogs:
		if a.logs != nil {
			body = a.logs.View()
		}
	case ScreenDevices:
		if a.devices != nil {
			body = a.devices.View()
		}
	case ScreenDashboard:
		if a.dashboard != nil {
			body = a.dashboard.View()
		}
	}

	content := lipgloss.NewStyle().Height(a.height - 2 - lipgloss.Height(a.helpView())).Render(body)

	return strings.Join([]string{
		lipgloss.JoinHorizontal(lipgloss.Top, tabs...),
		content,
		a.toast.View(),
		a.helpView(),
	}, "\n")
}

// Program runs an App in the terminal. It implements client.RunStop so it
// can join a run group with the streams it displays.
type Program struct {
	program *tea.Program
	toasts  chan ToastMsg
}

// NewProgram prepares app to run full screen unless other options are
// given. While it runs, console log messages are shown in the status line
// instead of the terminal.
func NewProgram(app App, opts ...tea.ProgramOption) *Program {
	if len(opts) == 0 {
		opts = []tea.ProgramOption{tea.WithAltScreen()}
	}
	ch := make(chan ToastMsg, 16)
	app.logToast = ch
	return &Program{
		program: tea.NewProgram(app, opts...),
		toasts:  ch,
	}
}

// Run blocks until the user quits or Stop is called
func (p *Program) Run() error {
	out := log.StandardLogger().Out
	log.SetOutput(io.Discard)
	hooks := log.StandardLogger().ReplaceHooks(make(log.LevelHooks))
	log.AddHook(&logHook{ch: p.toasts})
	defer func() {
		log.StandardLogger().ReplaceHooks(hooks)
		log.SetOutput(out)
	}()

	_, err := p.program.Run()
	return err
}

// Stop quits the program. Quit waits for the event loop, so it is sent from
// a goroutine.
func (p *Program) Stop(_ error) {
	go p.program.Quit()
}
