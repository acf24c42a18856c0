package client

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/indcloud/console/data"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TelemetryStream follows live readings pushed on /ws/telemetry. Unlike the
// log channel it reconnects with exponential backoff until stopped, since the
// dashboard has no manual reload.
type TelemetryStream struct {
	url        string
	token      string
	handler    func(data.Reading)
	maxBackoff time.Duration

	ctx    context.Context
	cancel context.CancelFunc

	lock sync.Mutex
	conn *websocket.Conn
}

// NewTelemetryStream creates a stream that calls handler for every reading.
// handler is called from the stream goroutine.
func NewTelemetryStream(baseURL, token string, handler func(data.Reading)) (*TelemetryStream, error) {
	u, err := WebsocketURL(baseURL, "/ws/telemetry", token)
	if err != nil {
		return nil, errors.Wrap(err, "invalid backend URL")
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TelemetryStream{
		url:        u,
		token:      token,
		handler:    handler,
		maxBackoff: 30 * time.Second,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Run reads readings until Stop is called
func (ts *TelemetryStream) Run() error {
	attempts := 0
	for {
		err := ts.runOnce()
		if ts.ctx.Err() != nil {
			return nil
		}

		if err == nil {
			attempts = 0
		} else {
			attempts++
		}
		delay := ExpBackoff(attempts, ts.maxBackoff)
		log.WithError(err).WithField("retry", delay).Debug("telemetry stream disconnected")

		select {
		case <-time.After(delay):
		case <-ts.ctx.Done():
			return nil
		}
	}
}

func (ts *TelemetryStream) runOnce() error {
	header := http.Header{}
	if ts.token != "" {
		header.Set("Authorization", "Bearer "+ts.token)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ts.ctx, ts.url, header)
	if err != nil {
		return err
	}

	ts.lock.Lock()
	ts.conn = conn
	ts.lock.Unlock()

	defer func() {
		ts.lock.Lock()
		ts.conn = nil
		ts.lock.Unlock()
		conn.Close()
	}()

	for {
		var r data.Reading
		if err := conn.ReadJSON(&r); err != nil {
			return err
		}
		if ts.handler != nil {
			ts.handler(r)
		}
	}
}

// Stop the stream
func (ts *TelemetryStream) Stop(_ error) {
	ts.cancel()
	ts.lock.Lock()
	defer ts.lock.Unlock()
	if ts.conn != nil {
		ts.conn.Close()
	}
}
