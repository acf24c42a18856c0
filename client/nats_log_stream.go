package client

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	"github.com/indcloud/console/logview"
	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NatsLogStream is a logview.Transport over NATS. Each source is a subject
// carrying JSON log entries; subscribing to a source is a NATS subscription.
type NatsLogStream struct {
	server  string
	token   string
	timeout time.Duration

	lock    sync.Mutex
	nc      *nats.Conn
	subs    map[data.LogSource]*nats.Subscription
	msgs    chan *nats.Msg
	replies chan logview.Event
	done    chan struct{}
}

// NewNatsLogStream creates a log stream for the NATS server at server
func NewNatsLogStream(server, token string) *NatsLogStream {
	return &NatsLogStream{
		server:  server,
		token:   token,
		timeout: 10 * time.Second,
	}
}

// Connect connects to the NATS server. The connection is not re-established
// automatically; a drop ends the event channel.
func (s *NatsLogStream) Connect(ctx context.Context) (<-chan logview.Event, error) {
	closed := make(chan error, 1)
	var disconnectErr error
	var errLock sync.Mutex

	opts := []nats.Option{
		nats.Timeout(s.timeout),
		nats.PingInterval(60 * time.Second),
		nats.MaxPingsOutstanding(5),
		nats.NoReconnect(),
		nats.SetCustomDialer(&net.Dialer{
			KeepAlive: -1,
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			var subject string
			if sub != nil {
				subject = sub.Subject
			}
			log.WithField("subject", subject).WithError(err).Warn("NATS log stream error")
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			errLock.Lock()
			disconnectErr = err
			errLock.Unlock()
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			errLock.Lock()
			closed <- disconnectErr
			errLock.Unlock()
		}),
	}
	if s.token != "" {
		opts = append(opts, nats.Token(s.token))
	}

	type result struct {
		nc  *nats.Conn
		err error
	}
	done := make(chan result, 1)
	go func() {
		nc, err := nats.Connect(s.server, opts...)
		done <- result{nc, err}
	}()

	var nc *nats.Conn
	select {
	case r := <-done:
		if r.err != nil {
			return nil, errors.Wrap(r.err, "error connecting to NATS")
		}
		nc = r.nc
	case <-ctx.Done():
		go func() {
			if r := <-done; r.nc != nil {
				r.nc.Close()
			}
		}()
		return nil, ctx.Err()
	}

	msgs := make(chan *nats.Msg, 1024)
	replies := make(chan logview.Event, 16)
	events := make(chan logview.Event, 256)
	stop := make(chan struct{})

	s.lock.Lock()
	s.nc = nc
	s.done = stop
	s.subs = make(map[data.LogSource]*nats.Subscription)
	s.msgs = msgs
	s.replies = replies
	s.lock.Unlock()

	events <- logview.Event{Type: logview.EventConnected, Sources: data.AllSources}
	go s.pump(msgs, replies, closed, stop, events)
	return events, nil
}

func (s *NatsLogStream) pump(msgs <-chan *nats.Msg, replies <-chan logview.Event,
	closed <-chan error, stop <-chan struct{}, events chan<- logview.Event) {
	defer close(events)
	for {
		select {
		case m := <-msgs:
			var e data.LogEntry
			if err := json.Unmarshal(m.Data, &e); err != nil {
				log.WithField("subject", m.Subject).WithError(err).Debug("bad log entry")
				continue
			}
			if !deliver(events, stop, logview.Event{Type: logview.EventLog, Entry: e}) {
				return
			}
		case ev := <-replies:
			if !deliver(events, stop, ev) {
				return
			}
		case err := <-closed:
			deliver(events, stop, logview.Event{Type: logview.EventClosed, Err: err})
			return
		}
	}
}

// Subscribe replaces the set of subscribed sources
func (s *NatsLogStream) Subscribe(sources []data.LogSource) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.nc == nil {
		return data.ErrNotConnected
	}

	want := make(map[data.LogSource]bool)
	for _, src := range sources {
		want[src] = true
	}

	for src, sub := range s.subs {
		if !want[src] {
			if err := sub.Unsubscribe(); err != nil {
				return errors.Wrapf(err, "error unsubscribing %v", src)
			}
			delete(s.subs, src)
		}
	}

	for src := range want {
		if s.subs[src] != nil {
			continue
		}
		sub, err := s.nc.ChanSubscribe(data.SubjectLogs(src), s.msgs)
		if err != nil {
			return errors.Wrapf(err, "error subscribing %v", src)
		}
		s.subs[src] = sub
	}

	// the server must know the subscriptions before the caller relies on them
	if err := s.nc.FlushTimeout(s.timeout); err != nil {
		return errors.Wrap(err, "error flushing subscriptions")
	}

	s.reply(logview.Event{Type: logview.EventSubscribed, Sources: sources})
	return nil
}

// Unsubscribe stops sources, or every source when the list is empty
func (s *NatsLogStream) Unsubscribe(sources []data.LogSource) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.nc == nil {
		return data.ErrNotConnected
	}

	if len(sources) == 0 {
		for src := range s.subs {
			sources = append(sources, src)
		}
	}

	for _, src := range sources {
		sub := s.subs[src]
		if sub == nil {
			continue
		}
		if err := sub.Unsubscribe(); err != nil {
			return errors.Wrapf(err, "error unsubscribing %v", src)
		}
		delete(s.subs, src)
	}

	var remaining []data.LogSource
	for src := range s.subs {
		remaining = append(remaining, src)
	}
	s.reply(logview.Event{Type: logview.EventUnsubscribed, Sources: remaining})
	return nil
}

// History requests the last lines of a source. The reply is delivered on the
// event channel.
func (s *NatsLogStream) History(source data.LogSource, lines int) error {
	s.lock.Lock()
	nc := s.nc
	s.lock.Unlock()

	if nc == nil {
		return data.ErrNotConnected
	}

	req, err := json.Marshal(data.LogAction{Action: data.ActionHistory, Source: source, Lines: lines})
	if err != nil {
		return err
	}

	go func() {
		msg, err := nc.Request(data.SubjectLogHistory, req, s.timeout)
		if err != nil {
			s.lock.Lock()
			s.reply(logview.Event{Type: logview.EventError, Message: "history request failed: " + err.Error()})
			s.lock.Unlock()
			return
		}
		var resp data.LogMessage
		if err := json.Unmarshal(msg.Data, &resp); err != nil {
			resp = data.LogMessage{Type: data.MsgError, Message: "bad history reply: " + err.Error()}
		}
		s.lock.Lock()
		s.reply(toEvent(resp))
		s.lock.Unlock()
	}()

	return nil
}

// reply queues a synthesized event. Must be called with the lock held.
func (s *NatsLogStream) reply(ev logview.Event) {
	if s.replies == nil {
		return
	}
	select {
	case s.replies <- ev:
	default:
		log.WithField("type", ev.Type).Debug("NATS log stream reply dropped")
	}
}

// Close closes the NATS connection
func (s *NatsLogStream) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.nc == nil {
		return nil
	}
	close(s.done)
	s.nc.Close()
	s.nc = nil
	s.subs = nil
	s.replies = nil
	s.done = nil
	return nil
}
