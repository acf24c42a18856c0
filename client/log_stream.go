package client

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// WebsocketURL converts the backend base URL into the URL of a WebSocket
// endpoint. The token is passed as a query parameter because browsers cannot
// set headers on a WebSocket handshake and the backend accepts both.
func WebsocketURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", errors.Errorf("unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	if token != "" {
		u.RawQuery = url.Values{"token": {token}}.Encode()
	}
	return u.String(), nil
}

// LogStream is a logview.Transport over the /ws/logs WebSocket
type LogStream struct {
	url    string
	token  string
	dialer *websocket.Dialer

	lock sync.Mutex
	conn *websocket.Conn
	// done is closed by Close so the reader of conn stops sending
	done chan struct{}
}

// NewLogStream creates a log stream for the backend at baseURL
func NewLogStream(baseURL, token string) (*LogStream, error) {
	u, err := WebsocketURL(baseURL, "/ws/logs", token)
	if err != nil {
		return nil, errors.Wrap(err, "invalid backend URL")
	}
	return &LogStream{
		url:    u,
		token:  token,
		dialer: &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}, nil
}

// LogStream returns a log stream using the client's URL and token
func (c *Client) LogStream() (*LogStream, error) {
	return NewLogStream(c.BaseURL(), c.Token())
}

// Connect dials the server and starts reading messages
func (s *LogStream) Connect(ctx context.Context) (<-chan logview.Event, error) {
	header := http.Header{}
	if s.token != "" {
		header.Set("Authorization", "Bearer "+s.token)
	}

	conn, resp, err := s.dialer.DialContext(ctx, s.url, header)
	if err != nil {
		if resp != nil {
			return nil, errors.Wrapf(err, "log stream handshake failed: %v", resp.Status)
		}
		return nil, errors.Wrap(err, "error connecting log stream")
	}

	done := make(chan struct{})
	s.lock.Lock()
	_ = s.closeLocked()
	s.conn = conn
	s.done = done
	s.lock.Unlock()

	events := make(chan logview.Event, 256)
	go s.read(conn, done, events)
	return events, nil
}

// deliver queues ev. When the buffer is full it waits for the consumer
// until done is closed, so a consumer that stopped reading does not keep
// the reader alive after Close.
func deliver(events chan<- logview.Event, done <-chan struct{}, ev logview.Event) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	select {
	case events <- ev:
		return true
	case <-done:
		return false
	}
}

func (s *LogStream) read(conn *websocket.Conn, done <-chan struct{}, events chan<- logview.Event) {
	defer close(events)

	for {
		var msg data.LogMessage
		err := conn.ReadJSON(&msg)
		if err != nil {
			// a connection replaced or cleared by Close was closed on purpose
			s.lock.Lock()
			closing := s.conn != conn
			s.lock.Unlock()

			if closing || websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				err = nil
			} else {
				log.WithError(err).Debug("log stream read error")
			}
			deliver(events, done, logview.Event{Type: logview.EventClosed, Err: err})
			return
		}

		if !deliver(events, done, toEvent(msg)) {
			return
		}
	}
}

func toEvent(msg data.LogMessage) logview.Event {
	ev := logview.Event{
		Type:    logview.EventType(msg.Type),
		Message: msg.Message,
		Logs:    msg.Logs,
		Sources: msg.Sources,
	}
	if msg.Entry != nil {
		ev.Entry = *msg.Entry
	}
	if msg.Type == data.MsgConnected && len(msg.AvailableSources) > 0 {
		ev.Sources = msg.AvailableSources
	}
	return ev
}

func (s *LogStream) send(action data.LogAction) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.conn == nil {
		return data.ErrNotConnected
	}
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := s.conn.WriteJSON(action); err != nil {
		return errors.Wrapf(err, "error sending %v", action.Action)
	}
	return nil
}

// Subscribe replaces the set of streamed sources
func (s *LogStream) Subscribe(sources []data.LogSource) error {
	return s.send(data.LogAction{Action: data.ActionSubscribe, Sources: sources})
}

// Unsubscribe stops sources, or every source when the list is empty
func (s *LogStream) Unsubscribe(sources []data.LogSource) error {
	return s.send(data.LogAction{Action: data.ActionUnsubscribe, Sources: sources})
}

// History asks for the last lines of a source
func (s *LogStream) History(source data.LogSource, lines int) error {
	return s.send(data.LogAction{Action: data.ActionHistory, Source: source, Lines: lines})
}

// Ping asks the server for a pong
func (s *LogStream) Ping() error {
	return s.send(data.LogAction{Action: data.ActionPing})
}

// Close closes the connection. A reader still consumed reports a clean
// EventClosed; either way the event channel is closed.
func (s *LogStream) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closeLocked()
}

func (s *LogStream) closeLocked() error {
	if s.conn == nil {
		return nil
	}
	close(s.done)
	_ = s.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	err := s.conn.Close()
	s.conn = nil
	s.done = nil
	return err
}
