package sim

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/indcloud/console/data"
)

// MaxHistory is the number of backend lines kept for history requests
const MaxHistory = 1000

type lineTemplate struct {
	level string
	text  string
}

var backendLines = []lineTemplate{
	{"INFO", "io.indcloud.service.TelemetryService - Stored %d readings for device sensor-%03d"},
	{"INFO", "io.indcloud.mqtt.MqttMessageHandler - Message received on indcloud/devices/sensor-%03d/telemetry (%d bytes)"},
	{"DEBUG", "io.indcloud.security.JwtFilter - Token validated for request %d to /api/v1/devices/%d"},
	{"WARN", "io.indcloud.service.AlertService - Threshold exceeded on %d readings for sensor-%03d"},
	{"ERROR", "io.indcloud.service.WebhookService - Delivery failed after %d attempts to hook %d: Connection refused"},
}

var mosquittoLines = []lineTemplate{
	{"notice", "New client connected from 172.18.0.%d as sensor-%03d (p2, c1, k60)."},
	{"notice", "Client sensor-%03d disconnected after %d seconds."},
	{"warning", "Client sensor-%03d has exceeded timeout %d, disconnecting."},
	{"error", "Socket error on client sensor-%03d, code %d."},
}

var postgresLines = []lineTemplate{
	{"LOG", "checkpoint complete: wrote %d buffers (%d.0%%)"},
	{"LOG", "duration: %d.%03d ms  statement: SELECT * FROM telemetry_records"},
	{"WARNING", "there are %d idle connections, %d expected"},
	{"ERROR", "duplicate key value violates unique constraint \"devices_external_id_key\" (%d, %d)"},
}

// LogFeed generates log lines for every source and fans them out to
// listeners. It keeps the newest backend lines for history requests.
type LogFeed struct {
	interval time.Duration

	lock      sync.Mutex
	rnd       *rand.Rand
	history   []data.LogEntry
	listeners map[int]func(data.LogEntry)
	nextID    int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewLogFeed creates a feed that emits a line every interval. A zero
// interval disables generation; lines can still be published directly.
func NewLogFeed(interval time.Duration, seed int64) *LogFeed {
	return &LogFeed{
		interval:  interval,
		rnd:       rand.New(rand.NewSource(seed)),
		listeners: make(map[int]func(data.LogEntry)),
		stop:      make(chan struct{}),
	}
}

// Listen registers fn for every published entry. The returned function
// removes the listener. fn must not block.
func (f *LogFeed) Listen(fn func(data.LogEntry)) func() {
	f.lock.Lock()
	defer f.lock.Unlock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.lock.Lock()
		defer f.lock.Unlock()
		delete(f.listeners, id)
	}
}

// Publish records an entry and sends it to every listener
func (f *LogFeed) Publish(e data.LogEntry) {
	f.lock.Lock()
	if e.Source == data.SourceBackend {
		f.history = append(f.history, e)
		if len(f.history) > MaxHistory {
			f.history = f.history[len(f.history)-MaxHistory:]
		}
	}
	listeners := make([]func(data.LogEntry), 0, len(f.listeners))
	for _, l := range f.listeners {
		listeners = append(listeners, l)
	}
	f.lock.Unlock()

	for _, l := range listeners {
		l(e)
	}
}

// PublishRaw parses a raw line for source and publishes it
func (f *LogFeed) PublishRaw(source data.LogSource, raw string) data.LogEntry {
	e := data.ParseLine(source, raw)
	f.Publish(e)
	return e
}

// History returns up to lines of the newest backend entries, oldest first
func (f *LogFeed) History(lines int) []data.LogEntry {
	if lines <= 0 {
		lines = 100
	}
	if lines > MaxHistory {
		lines = MaxHistory
	}
	f.lock.Lock()
	defer f.lock.Unlock()
	start := 0
	if len(f.history) > lines {
		start = len(f.history) - lines
	}
	return append([]data.LogEntry{}, f.history[start:]...)
}

// Line generates a raw line for source at t
func (f *LogFeed) Line(source data.LogSource, t time.Time) string {
	f.lock.Lock()
	defer f.lock.Unlock()

	a, b := f.rnd.Intn(200), f.rnd.Intn(200)
	switch source {
	case data.SourceMosquitto:
		l := mosquittoLines[f.rnd.Intn(len(mosquittoLines))]
		return fmt.Sprintf("%v : %v : %v", t.UTC().Format("2006-01-02T15:04:05"), l.level,
			fmt.Sprintf(l.text, a, b))
	case data.SourcePostgres:
		l := postgresLines[f.rnd.Intn(len(postgresLines))]
		return fmt.Sprintf("%v UTC [%d] %v:  %v", t.UTC().Format("2006-01-02 15:04:05.000"),
			100+f.rnd.Intn(900), l.level, fmt.Sprintf(l.text, a, b))
	default:
		l := backendLines[f.rnd.Intn(len(backendLines))]
		return fmt.Sprintf("%v [http-nio-8080-exec-%d] %-5s %v", t.UTC().Format("2006-01-02 15:04:05.000"),
			1+f.rnd.Intn(10), l.level, fmt.Sprintf(l.text, a, b))
	}
}

func (f *LogFeed) randomSource() data.LogSource {
	f.lock.Lock()
	defer f.lock.Unlock()
	// the backend is the chattiest service
	n := f.rnd.Intn(10)
	switch {
	case n < 6:
		return data.SourceBackend
	case n < 8:
		return data.SourceMosquitto
	default:
		return data.SourcePostgres
	}
}

// Run generates lines until stopped
func (f *LogFeed) Run() error {
	if f.interval <= 0 {
		<-f.stop
		return nil
	}

	t := time.NewTicker(f.interval)
	defer t.Stop()

	for {
		select {
		case now := <-t.C:
			src := f.randomSource()
			f.PublishRaw(src, f.Line(src, now))
		case <-f.stop:
			return nil
		}
	}
}

// Stop generation
func (f *LogFeed) Stop(_ error) {
	f.stopOnce.Do(func() { close(f.stop) })
}
