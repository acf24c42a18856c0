package logview

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/indcloud/console/data"
)

// State is the connection state of a log session
type State int

// session states
const (
	Disconnected State = iota
	Connecting
	Open
	Paused
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "disconnected"
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// EventType identifies a message received on a log transport
type EventType string

// event types, named after the server message types
const (
	EventConnected    EventType = "connected"
	EventSubscribed   EventType = "subscribed"
	EventUnsubscribed EventType = "unsubscribed"
	EventLog          EventType = "log"
	EventHistory      EventType = "history"
	EventPong         EventType = "pong"
	EventError        EventType = "error"
	// EventClosed is synthesized by the transport when the connection drops.
	// Err carries the cause, nil for a clean close.
	EventClosed EventType = "closed"
)

// Event is a message received from a transport
type Event struct {
	Type    EventType
	Entry   data.LogEntry
	Logs    []data.LogEntry
	Sources []data.LogSource
	Message string
	Err     error
}

// Transport is a log channel. Implementations exist for WebSocket and NATS.
type Transport interface {
	// Connect opens the channel. Events are delivered on the returned
	// channel, which is closed after an EventClosed event.
	Connect(ctx context.Context) (<-chan Event, error)
	// Subscribe replaces the set of sources streamed to this client
	Subscribe(sources []data.LogSource) error
	// Unsubscribe stops the given sources; an empty list stops all of them
	Unsubscribe(sources []data.LogSource) error
	// History requests the last lines of a source
	History(source data.LogSource, lines int) error
	Close() error
}

// MaxHistoryLines is the most history lines the backend returns per request
const MaxHistoryLines = 1000

// Session drives a Transport through the Disconnected, Connecting, Open and
// Paused states. It tracks what the server has been asked to stream so that
// subscribe and unsubscribe calls are idempotent and only deltas are sent.
// A dropped connection is not retried; Reload reconnects.
type Session struct {
	lock       sync.Mutex
	transport  Transport
	state      State
	wanted     map[data.LogSource]bool
	subscribed map[data.LogSource]bool
	err        error
}

// NewSession creates a disconnected session that will stream sources once open
func NewSession(t Transport, sources []data.LogSource) *Session {
	return &Session{
		transport:  t,
		wanted:     toSet(sources),
		subscribed: map[data.LogSource]bool{},
	}
}

// State returns the current state
func (s *Session) State() State {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.state
}

// Err returns the error that caused the last disconnect, if any
func (s *Session) Err() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.err
}

// Subscribed returns the sources the server is currently streaming
func (s *Session) Subscribed() []data.LogSource {
	s.lock.Lock()
	defer s.lock.Unlock()
	return fromSet(s.subscribed)
}

// Connect opens the transport and subscribes to the wanted sources. The
// returned channel carries transport events; callers pass each one to Handle.
func (s *Session) Connect(ctx context.Context) (<-chan Event, error) {
	s.lock.Lock()
	if s.state != Disconnected {
		s.lock.Unlock()
		return nil, fmt.Errorf("session is %v", s.state)
	}
	s.state = Connecting
	s.err = nil
	s.lock.Unlock()

	events, err := s.transport.Connect(ctx)

	s.lock.Lock()
	defer s.lock.Unlock()

	if err != nil {
		s.state = Disconnected
		s.err = err
		return nil, err
	}

	if s.state != Connecting {
		// closed while connecting
		s.transport.Close()
		return nil, data.ErrNotConnected
	}

	s.state = Open
	if err := s.syncLocked(); err != nil {
		s.dropLocked(err)
		return nil, err
	}

	return events, nil
}

// Handle updates the session from a transport event
func (s *Session) Handle(ev Event) {
	if ev.Type != EventClosed {
		return
	}
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state == Disconnected {
		return
	}
	if ev.Err == nil {
		ev.Err = data.ErrNotConnected
	}
	s.dropLocked(ev.Err)
}

// Pause unsubscribes from every source. Buffered entries are kept.
func (s *Session) Pause() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.state {
	case Paused:
		return nil
	case Open:
	default:
		return data.ErrNotConnected
	}

	if len(s.subscribed) > 0 {
		if err := s.transport.Unsubscribe(nil); err != nil {
			s.dropLocked(err)
			return err
		}
		s.subscribed = map[data.LogSource]bool{}
	}
	s.state = Paused
	return nil
}

// Resume resubscribes to the current source selection
func (s *Session) Resume() error {
	s.lock.Lock()
	defer s.lock.Unlock()

	switch s.state {
	case Open:
		return nil
	case Paused:
	default:
		return data.ErrNotConnected
	}

	s.state = Open
	if err := s.syncLocked(); err != nil {
		s.dropLocked(err)
		return err
	}
	return nil
}

// SetSources changes the source selection. While open only the difference
// from the current subscription is sent; otherwise it is applied on the next
// Connect or Resume.
func (s *Session) SetSources(sources []data.LogSource) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.wanted = toSet(sources)
	if s.state != Open {
		return nil
	}
	if err := s.syncLocked(); err != nil {
		s.dropLocked(err)
		return err
	}
	return nil
}

// History requests the last lines of a source, capped at MaxHistoryLines
func (s *Session) History(source data.LogSource, lines int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.state != Open && s.state != Paused {
		return data.ErrNotConnected
	}
	if lines > MaxHistoryLines {
		lines = MaxHistoryLines
	}
	if lines <= 0 {
		lines = 100
	}
	return s.transport.History(source, lines)
}

// Reload closes any current connection and connects again
func (s *Session) Reload(ctx context.Context) (<-chan Event, error) {
	s.Close()
	return s.Connect(ctx)
}

// Close disconnects without recording an error
func (s *Session) Close() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.state == Disconnected {
		return nil
	}
	s.state = Disconnected
	s.err = nil
	s.subscribed = map[data.LogSource]bool{}
	return s.transport.Close()
}

// syncLocked brings the server subscription in line with the wanted set.
// Subscribe replaces the server side set, so any addition sends the full
// wanted set; pure removals send only the removed sources.
func (s *Session) syncLocked() error {
	var added, removed []data.LogSource
	for src := range s.wanted {
		if !s.subscribed[src] {
			added = append(added, src)
		}
	}
	for src := range s.subscribed {
		if !s.wanted[src] {
			removed = append(removed, src)
		}
	}

	switch {
	case len(added) > 0:
		if err := s.transport.Subscribe(fromSet(s.wanted)); err != nil {
			return err
		}
	case len(removed) > 0:
		var unsub []data.LogSource
		if len(s.wanted) > 0 {
			unsub = sortSources(removed)
		}
		if err := s.transport.Unsubscribe(unsub); err != nil {
			return err
		}
	default:
		return nil
	}

	s.subscribed = toSet(fromSet(s.wanted))
	return nil
}

func (s *Session) dropLocked(err error) {
	s.state = Disconnected
	s.err = err
	s.subscribed = map[data.LogSource]bool{}
	s.transport.Close()
}

func toSet(sources []data.LogSource) map[data.LogSource]bool {
	ret := make(map[data.LogSource]bool, len(sources))
	for _, src := range sources {
		ret[src] = true
	}
	return ret
}

func fromSet(set map[data.LogSource]bool) []data.LogSource {
	ret := make([]data.LogSource, 0, len(set))
	for src, on := range set {
		if on {
			ret = append(ret, src)
		}
	}
	return sortSources(ret)
}

func sortSources(sources []data.LogSource) []data.LogSource {
	sort.Slice(sources, func(i, j int) bool { return sources[i] < sources[j] })
	return sources
}
