package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/indcloud/console/undo"
	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestToast(t *testing.T) {
	var tm Toast
	_, visible := tm.Current()
	require.False(t, visible)
	require.Equal(t, "", tm.View())

	tm, cmd := tm.Update(ToastMsg{Level: ToastError, Text: "first"})
	require.NotNil(t, cmd)
	first := tm.id
	tm, _ = tm.Update(ToastMsg{Level: ToastInfo, Text: "second"})

	// the timer of a replaced toast does not hide the newer one
	tm, _ = tm.Update(toastExpiredMsg{id: first})
	cur, visible := tm.Current()
	require.True(t, visible)
	require.Equal(t, "second", cur.Text)

	tm, _ = tm.Update(toastExpiredMsg{id: tm.id})
	_, visible = tm.Current()
	require.False(t, visible)
}

func TestAppTabsAndQuit(t *testing.T) {
	ft := &fakeTransport{}
	logs := NewLogsModel(logview.NewSession(ft, data.AllSources), LogsOptions{})
	devices := NewDevicesModel(nil, undo.NewManager(nil))

	var model tea.Model = NewApp(WithLogs(logs), WithDevices(devices))
	model, _ = model.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	require.Equal(t, ScreenLogs, model.(App).Screen())
	require.Positive(t, model.(App).logs.viewer.Window().Height)

	model, _ = model.Update(keyMsg("tab"))
	require.Equal(t, ScreenDevices, model.(App).Screen())
	require.Contains(t, model.View(), "Devices (0)")

	model, _ = model.Update(keyMsg("tab"))
	require.Equal(t, ScreenLogs, model.(App).Screen())

	// while searching, q is typed rather than quitting
	model, _ = model.Update(keyMsg("/"))
	model, _ = model.Update(keyMsg("q"))
	require.Equal(t, "q", model.(App).logs.search.Value())

	model, _ = model.Update(keyMsg("esc"))
	_, cmd := model.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	require.Equal(t, tea.QuitMsg{}, cmd())
}

func TestAppToastRouting(t *testing.T) {
	var model tea.Model = NewApp()
	model, cmd := model.Update(ToastMsg{Level: ToastSuccess, Text: "saved"})
	require.NotNil(t, cmd)
	require.Contains(t, model.View(), "saved")
}

func TestLogHook(t *testing.T) {
	ch := make(chan ToastMsg, 1)
	logger := log.New()
	logger.AddHook(&logHook{ch: ch})

	logger.WithError(errors.New("boom")).Warn("dashboard load failed")
	msg := <-ch
	require.Equal(t, ToastWarn, msg.Level)
	require.Equal(t, "dashboard load failed: boom", msg.Text)

	// a full channel drops instead of blocking the logger
	logger.Error("one")
	logger.Error("two")
	msg = <-ch
	require.Equal(t, "one", msg.Text)

	logger.Debug("hidden")
	select {
	case msg := <-ch:
		t.Fatal("debug forwarded: ", msg)
	default:
	}

	cmd := listenToasts(ch)
	ch <- ToastMsg{Text: "queued"}
	require.Equal(t, logToastMsg{ToastMsg{Text: "queued"}}, cmd())
}
