package logview

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	calls      []string
	connectErr error
	sendErr    error
	closed     int
	events     chan Event
}

func (f *fakeTransport) Connect(ctx context.Context) (<-chan Event, error) {
	f.calls = append(f.calls, "connect")
	if f.connectErr != nil {
		return nil, f.connectErr
	}
	f.events = make(chan Event, 10)
	return f.events, nil
}

func (f *fakeTransport) Subscribe(sources []data.LogSource) error {
	f.calls = append(f.calls, fmt.Sprintf("subscribe %v", sources))
	return f.sendErr
}

func (f *fakeTransport) Unsubscribe(sources []data.LogSource) error {
	f.calls = append(f.calls, fmt.Sprintf("unsubscribe %v", sources))
	return f.sendErr
}

func (f *fakeTransport) History(source data.LogSource, lines int) error {
	f.calls = append(f.calls, fmt.Sprintf("history %v %v", source, lines))
	return f.sendErr
}

func (f *fakeTransport) Close() error {
	f.closed++
	return nil
}

var backendPostgres = []data.LogSource{data.SourceBackend, data.SourcePostgres}

func TestSessionLifecycle(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	require.Equal(t, Disconnected, s.State())

	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.Equal(t, Open, s.State())
	require.Equal(t, backendPostgres, s.Subscribed())

	require.NoError(t, s.Pause())
	require.Equal(t, Paused, s.State())
	require.Empty(t, s.Subscribed())
	require.NoError(t, s.Pause())

	require.NoError(t, s.Resume())
	require.Equal(t, Open, s.State())
	require.NoError(t, s.Resume())

	require.Equal(t, []string{
		"connect",
		"subscribe [backend postgres]",
		"unsubscribe []",
		"subscribe [backend postgres]",
	}, ft.calls)
}

func TestSessionSetSourcesSendsDelta(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	ft.calls = nil

	// same set, nothing sent
	require.NoError(t, s.SetSources([]data.LogSource{data.SourcePostgres, data.SourceBackend}))
	require.Empty(t, ft.calls)

	require.NoError(t, s.SetSources([]data.LogSource{data.SourceBackend}))
	require.NoError(t, s.SetSources([]data.LogSource{data.SourceBackend, data.SourceMosquitto}))
	require.NoError(t, s.SetSources(nil))

	require.Equal(t, []string{
		"unsubscribe [postgres]",
		"subscribe [backend mosquitto]",
		"unsubscribe []",
	}, ft.calls)
	require.Equal(t, Open, s.State())
}

func TestSessionSourcesWhilePaused(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Pause())
	ft.calls = nil

	require.NoError(t, s.SetSources([]data.LogSource{data.SourceMosquitto}))
	require.Empty(t, ft.calls)
	require.Equal(t, Paused, s.State())

	require.NoError(t, s.Resume())
	require.Equal(t, []string{"subscribe [mosquitto]"}, ft.calls)
}

func TestSessionDropKeepsError(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	cause := errors.New("connection reset")
	s.Handle(Event{Type: EventLog})
	require.Equal(t, Open, s.State())

	s.Handle(Event{Type: EventClosed, Err: cause})
	require.Equal(t, Disconnected, s.State())
	require.Equal(t, cause, s.Err())
	require.Equal(t, 1, ft.closed)

	require.ErrorIs(t, s.Pause(), data.ErrNotConnected)
	require.ErrorIs(t, s.Resume(), data.ErrNotConnected)
	require.ErrorIs(t, s.History(data.SourceBackend, 10), data.ErrNotConnected)

	// no automatic retry
	require.Equal(t, []string{"connect", "subscribe [backend postgres]"}, ft.calls)

	_, err = s.Reload(context.Background())
	require.NoError(t, err)
	require.Equal(t, Open, s.State())
	require.NoError(t, s.Err())
}

func TestSessionConnectError(t *testing.T) {
	ft := &fakeTransport{connectErr: errors.New("refused")}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.Error(t, err)
	require.Equal(t, Disconnected, s.State())
	require.EqualError(t, s.Err(), "refused")
}

func TestSessionHistoryCapped(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	require.NoError(t, s.History(data.SourceBackend, 5000))
	require.Equal(t, "history backend 1000", ft.calls[len(ft.calls)-1])
}

func TestSessionSendError(t *testing.T) {
	ft := &fakeTransport{}
	s := NewSession(ft, backendPostgres)
	_, err := s.Connect(context.Background())
	require.NoError(t, err)

	ft.sendErr = errors.New("broken pipe")
	require.Error(t, s.SetSources([]data.LogSource{data.SourceMosquitto}))
	require.Equal(t, Disconnected, s.State())
}
