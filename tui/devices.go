package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/undo"
)

// RequestTimeout bounds every admin request made from the TUI
const RequestTimeout = 15 * time.Second

// DeviceAdmin is the part of the REST client the device screen needs.
// *client.Client implements it.
type DeviceAdmin interface {
	Devices(ctx context.Context) ([]data.Device, error)
	EnableDevice(ctx context.Context, id string) (data.Device, error)
	DisableDevice(ctx context.Context, id string) (data.Device, error)
	DeleteDevice(ctx context.Context, id, reason string) (data.SoftDeleteResponse, error)
}

type devicesLoadedMsg struct {
	devices []data.Device
	err     error
}

type deviceChangedMsg struct {
	device data.Device
	action string
	err    error
}

type deviceDeletedMsg struct {
	entry undo.Entry
	err   error
}

type deviceRestoredMsg struct {
	entry undo.Entry
	err   error
}

// DevicesModel is the device admin screen
type DevicesModel struct {
	admin   DeviceAdmin
	undo    *undo.Manager
	now     func() time.Time
	table   table.Model
	devices []data.Device
	loading bool

	// confirm is the device waiting for a y/n answer before deletion
	confirm *data.Device
}

var deviceColumns = []table.Column{
	{Title: "Name", Width: 24},
	{Title: "External ID", Width: 16},
	{Title: "Status", Width: 10},
	{Title: "Active", Width: 6},
	{Title: "Organization", Width: 18},
	{Title: "Health", Width: 6},
	{Title: "Last seen", Width: 10},
}

// NewDevicesModel creates the device screen. Deletions are registered with
// undos.
func NewDevicesModel(admin DeviceAdmin, undos *undo.Manager) DevicesModel {
	t := table.New(
		table.WithColumns(deviceColumns),
		table.WithFocused(true),
		table.WithHeight(10),
	)
	return DevicesModel{
		admin: admin,
		undo:  undos,
		now:   time.Now,
		table: t,
	}
}

// Init loads the device list
func (m *DevicesModel) Init() tea.Cmd {
	return m.refresh()
}

func (m *DevicesModel) refresh() tea.Cmd {
	m.loading = true
	admin := m.admin
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		devices, err := admin.Devices(ctx)
		return devicesLoadedMsg{devices: devices, err: err}
	}
}

// SetSize sets the screen dimensions
func (m *DevicesModel) SetSize(width, height int) {
	m.table.SetWidth(width)
	h := height - 2
	if h < 3 {
		h = 3
	}
	m.table.SetHeight(h)
}

// Capturing reports whether the screen waits for a confirmation
func (m DevicesModel) Capturing() bool {
	return m.confirm != nil
}

// Devices returns the devices shown in the table
func (m DevicesModel) Devices() []data.Device {
	return m.devices
}

// Selected returns the device under the cursor
func (m DevicesModel) Selected() (data.Device, bool) {
	i := m.table.Cursor()
	if i < 0 || i >= len(m.devices) {
		return data.Device{}, false
	}
	return m.devices[i], true
}

func (m *DevicesModel) setDevices(devices []data.Device) {
	m.devices = devices
	now := m.now()
	rows := make([]table.Row, len(devices))
	for i, d := range devices {
		active := "no"
		if d.Active {
			active = "yes"
		}
		rows[i] = table.Row{
			d.Label(),
			data.OrNA(d.ExternalID),
			data.OrNA(d.Status),
			active,
			data.OrNA(d.OrganizationName),
			d.Health(),
			data.LastSeen(d.LastSeenAt, now),
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) && len(rows) > 0 {
		m.table.SetCursor(len(rows) - 1)
	}
}

func (m *DevicesModel) replace(d data.Device) {
	devices := append([]data.Device(nil), m.devices...)
	for i := range devices {
		if devices[i].ID == d.ID {
			devices[i] = d
		}
	}
	m.setDevices(devices)
}

// Update handles messages for the device screen
func (m DevicesModel) Update(msg tea.Msg) (DevicesModel, tea.Cmd) {
	switch msg := msg.(type) {
	case devicesLoadedMsg:
		m.loading = false
		if msg.err != nil {
			return m, errorToast("loading devices", msg.err)
		}
		m.setDevices(msg.devices)
		return m, nil

	case deviceChangedMsg:
		if msg.err != nil {
			return m, errorToast(msg.action+" failed", msg.err)
		}
		m.replace(msg.device)
		return m, toast(ToastSuccess, fmt.Sprintf("%v %v", msg.device.Label(), msg.action+"d"))

	case deviceDeletedMsg:
		if msg.err != nil {
			return m, errorToast("delete failed", msg.err)
		}
		days := int(time.Until(msg.entry.Deadline).Hours() / 24)
		return m, tea.Batch(
			toast(ToastSuccess, fmt.Sprintf("deleted %v, press u to undo (restorable for %v days)",
				msg.entry.EntityName, days)),
			m.refresh(),
		)

	case deviceRestoredMsg:
		switch {
		case errors.Is(msg.err, data.ErrUndoExpired):
			return m, toast(ToastWarn, "undo window expired for "+msg.entry.EntityName)
		case msg.err != nil:
			return m, errorToast("undo failed", msg.err)
		}
		return m, tea.Batch(toast(ToastSuccess, "restored "+msg.entry.EntityName), m.refresh())

	case tea.KeyMsg:
		if m.confirm != nil {
			return m.handleConfirm(msg)
		}
		return m.handleKey(msg)
	}

	return m, nil
}

func (m DevicesModel) handleConfirm(msg tea.KeyMsg) (DevicesModel, tea.Cmd) {
	switch {
	case key.Matches(msg, deviceKeyMap.Confirm):
		d := *m.confirm
		m.confirm = nil
		return m, m.delete(d)
	case key.Matches(msg, deviceKeyMap.Cancel):
		m.confirm = nil
		return m, toast(ToastInfo, "delete cancelled")
	}
	return m, nil
}

func (m DevicesModel) handleKey(msg tea.KeyMsg) (DevicesModel, tea.Cmd) {
	k := deviceKeyMap

	switch {
	case key.Matches(msg, k.Refresh):
		return m, m.refresh()

	case key.Matches(msg, k.Enable), key.Matches(msg, k.Disable):
		d, ok := m.Selected()
		if !ok {
			return m, nil
		}
		enable := key.Matches(msg, k.Enable)
		return m, m.setActive(d, enable)

	case key.Matches(msg, k.Delete):
		d, ok := m.Selected()
		if !ok {
			return m, nil
		}
		m.confirm = &d
		return m, nil

	case key.Matches(msg, k.Undo):
		e, ok := m.undo.Last()
		if !ok {
			return m, toast(ToastInfo, "nothing to undo")
		}
		return m, m.restore(e)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m DevicesModel) setActive(d data.Device, enable bool) tea.Cmd {
	admin := m.admin
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		if enable {
			dev, err := admin.EnableDevice(ctx, d.ID)
			return deviceChangedMsg{device: dev, action: "enable", err: err}
		}
		dev, err := admin.DisableDevice(ctx, d.ID)
		return deviceChangedMsg{device: dev, action: "disable", err: err}
	}
}

func (m DevicesModel) delete(d data.Device) tea.Cmd {
	admin := m.admin
	undos := m.undo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()

		e, err := undos.Do(ctx, func(ctx context.Context) (data.SoftDeleteResponse, error) {
			return admin.DeleteDevice(ctx, d.ID, "deleted from console")
		})
		return deviceDeletedMsg{entry: e, err: err}
	}
}

func (m DevicesModel) restore(e undo.Entry) tea.Cmd {
	undos := m.undo
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), RequestTimeout)
		defer cancel()
		return deviceRestoredMsg{entry: e, err: undos.Undo(ctx, e.Token)}
	}
}

// View renders the device screen
func (m DevicesModel) View() string {
	header := titleStyle.Render(fmt.Sprintf("Devices (%v)", len(m.devices)))
	if m.loading {
		header += dimStyle.Render("  loading…")
	}
	if n := len(m.undo.Pending()); n > 0 {
		header += dimStyle.Render(fmt.Sprintf("  %v undoable", n))
	}
	if m.confirm != nil {
		header = toastStyles[ToastWarn].Render(
			fmt.Sprintf("Delete device %q? It can be restored from the trash. y/n", m.confirm.Label()))
	}
	return header + "\n" + m.table.View()
}
