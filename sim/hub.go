package sim

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// LogsHandler serves the /ws/logs channel. Each connection has its own set
// of subscribed sources; subscribe replaces the set and unsubscribe removes
// sources from it.
type LogsHandler struct {
	feed *LogFeed
	key  Key

	lock    sync.RWMutex
	clients map[*logsConn]bool
}

type logsConn struct {
	ws   *websocket.Conn
	send chan data.LogMessage

	lock sync.Mutex
	subs map[data.LogSource]bool
}

// NewLogsHandler returns a new websocket handler for the log feed
func NewLogsHandler(feed *LogFeed, key Key) *LogsHandler {
	h := &LogsHandler{
		feed:    feed,
		key:     key,
		clients: make(map[*logsConn]bool),
	}
	feed.Listen(h.broadcast)
	return h
}

// Clients returns the number of connected clients
func (h *LogsHandler) Clients() int {
	h.lock.RLock()
	defer h.lock.RUnlock()
	return len(h.clients)
}

func (h *LogsHandler) broadcast(e data.LogEntry) {
	h.lock.RLock()
	defer h.lock.RUnlock()
	for c := range h.clients {
		c.lock.Lock()
		subscribed := c.subs[e.Source]
		c.lock.Unlock()
		if !subscribed {
			continue
		}
		entry := e
		c.queue(data.LogMessage{Type: data.MsgLog, Entry: &entry})
	}
}

func (h *LogsHandler) ServeHTTP(rw http.ResponseWriter, req *http.Request) {
	claims, ok := h.key.RequestClaims(req)
	if !ok {
		http.Error(rw, "Unauthorized", http.StatusUnauthorized)
		return
	}
	if !claims.HasRole(RoleDeveloper) {
		http.Error(rw, "ROLE_DEVELOPER required", http.StatusForbidden)
		return
	}

	ws, err := upgrader.Upgrade(rw, req, nil)
	if err != nil {
		if _, ok := err.(websocket.HandshakeError); !ok {
			log.Println(err)
		}
		return
	}

	c := &logsConn{
		ws:   ws,
		send: make(chan data.LogMessage, 256),
		subs: make(map[data.LogSource]bool),
	}

	h.lock.Lock()
	h.clients[c] = true
	h.lock.Unlock()

	done := make(chan struct{})
	go c.writer(done)

	c.queue(data.LogMessage{
		Type:             data.MsgConnected,
		Message:          "Connected to logs stream. Send subscribe command to start receiving logs.",
		AvailableSources: data.AllSources,
	})

	// handle reading
	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("logs websocket read error")
			}
			break
		}
		h.handle(c, msg)
	}

	h.lock.Lock()
	delete(h.clients, c)
	h.lock.Unlock()
	close(done)
	ws.Close()
}

func (c *logsConn) writer(done <-chan struct{}) {
	for {
		select {
		case m := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.ws.WriteJSON(m); err != nil {
				log.WithError(err).Debug("error writing to websocket")
				c.ws.Close()
				return
			}
		case <-done:
			return
		}
	}
}

// queue drops the message when the client is not keeping up
func (c *logsConn) queue(m data.LogMessage) {
	select {
	case c.send <- m:
	default:
	}
}

func errorMessage(msg string) data.LogMessage {
	return data.LogMessage{Type: data.MsgError, Message: msg}
}

func validSources(sources []data.LogSource) map[data.LogSource]bool {
	ret := make(map[data.LogSource]bool)
	for _, s := range sources {
		src, err := data.ParseLogSource(string(s))
		if err != nil {
			log.WithField("source", s).Warn("invalid log source requested")
			continue
		}
		ret[src] = true
	}
	return ret
}

func setToList(set map[data.LogSource]bool) []data.LogSource {
	ret := []data.LogSource{}
	for _, s := range data.AllSources {
		if set[s] {
			ret = append(ret, s)
		}
	}
	return ret
}

func (h *LogsHandler) handle(c *logsConn, msg []byte) {
	var a data.LogAction
	if err := json.Unmarshal(msg, &a); err != nil {
		c.queue(errorMessage("Invalid message format: " + err.Error()))
		return
	}

	switch a.Action {
	case data.ActionSubscribe:
		if len(a.Sources) == 0 {
			c.queue(errorMessage("No sources specified for subscription"))
			return
		}
		subs := validSources(a.Sources)
		if len(subs) == 0 {
			c.queue(errorMessage("No valid sources specified"))
			return
		}
		c.lock.Lock()
		c.subs = subs
		c.lock.Unlock()
		c.queue(data.LogMessage{Type: data.MsgSubscribed, Sources: setToList(subs)})

	case data.ActionUnsubscribe:
		c.lock.Lock()
		if len(a.Sources) == 0 {
			c.subs = make(map[data.LogSource]bool)
		} else {
			for s := range validSources(a.Sources) {
				delete(c.subs, s)
			}
		}
		remaining := setToList(c.subs)
		c.lock.Unlock()
		c.queue(data.LogMessage{Type: data.MsgUnsubscribed, Sources: remaining})

	case data.ActionHistory:
		if a.Source != data.SourceBackend {
			c.queue(errorMessage("History only available for backend logs"))
			return
		}
		c.queue(data.LogMessage{
			Type:   data.MsgHistory,
			Source: a.Source,
			Logs:   h.feed.History(a.Lines),
		})

	case data.ActionPing:
		c.queue(data.LogMessage{Type: data.MsgPong})

	default:
		c.queue(errorMessage("Unknown action: " + a.Action))
	}
}
