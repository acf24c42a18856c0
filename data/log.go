package data

import (
	"fmt"
	"strings"
	"time"
)

// LogSource identifies the service a log line came from
type LogSource string

// log sources streamed by the backend
const (
	SourceBackend   LogSource = "backend"
	SourceMosquitto LogSource = "mosquitto"
	SourcePostgres  LogSource = "postgres"
)

// AllSources lists every source in display order
var AllSources = []LogSource{SourceBackend, SourceMosquitto, SourcePostgres}

// ParseLogSource converts a string to a LogSource, ignoring case
func ParseLogSource(s string) (LogSource, error) {
	src := LogSource(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range AllSources {
		if src == known {
			return src, nil
		}
	}
	return "", fmt.Errorf("unknown log source: %q", s)
}

// LogLevel is the severity of a log line
type LogLevel string

// log levels, lowest to highest severity
const (
	LevelDebug LogLevel = "DEBUG"
	LevelInfo  LogLevel = "INFO"
	LevelWarn  LogLevel = "WARN"
	LevelError LogLevel = "ERROR"
	LevelFatal LogLevel = "FATAL"
)

// AllLevels lists every level in severity order
var AllLevels = []LogLevel{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal}

// ParseLogLevel converts a string to a LogLevel, ignoring case. WARNING and
// TRACE are folded into WARN and DEBUG.
func ParseLogLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG", "TRACE":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL", "PANIC":
		return LevelFatal, nil
	}
	return "", fmt.Errorf("unknown log level: %q", s)
}

// LogEntry is a single line received on the logs channel. Entries are
// immutable once received.
type LogEntry struct {
	// Seq is assigned by the ingestion buffer in arrival order and is the
	// entry's identity for the rest of its life. It is never sent by the server.
	Seq       uint64    `json:"-"`
	Timestamp string    `json:"timestamp"`
	Source    LogSource `json:"source"`
	Level     LogLevel  `json:"level"`
	Message   string    `json:"message"`
	Logger    string    `json:"logger,omitempty"`
}

// String renders the entry as one export line
func (e LogEntry) String() string {
	return fmt.Sprintf("%v [%v] [%v] %v", e.Timestamp, e.Source, e.Level, e.Message)
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.000",
	"2006-01-02 15:04:05.000",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// ParseTimestamp tries the timestamp formats the backend emits
func ParseTimestamp(ts string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, strings.TrimSpace(ts))
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DisplayTime formats an entry timestamp as a local wall clock time.
// Malformed timestamps fall back to the first 19 characters of the raw value.
func (e LogEntry) DisplayTime() string {
	t, ok := ParseTimestamp(e.Timestamp)
	if !ok {
		if len(e.Timestamp) > 19 {
			return e.Timestamp[:19]
		}
		return e.Timestamp
	}
	return t.Local().Format("15:04:05.000")
}
