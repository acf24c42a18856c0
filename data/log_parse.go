package data

import (
	"regexp"
	"strings"
	"time"
)

var leadingTimestamp = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}:\d{2}`)

func now() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

// ParseBackendLine converts a raw application log line such as
// "2024-01-01 12:00:00.000 [main] INFO org.App - Starting" into an entry.
func ParseBackendLine(raw string) LogEntry {
	e := LogEntry{
		Source:    SourceBackend,
		Level:     LevelInfo,
		Timestamp: now(),
		Message:   raw,
	}

	markers := []struct {
		level LogLevel
		tags  []string
	}{
		{LevelError, []string{" ERROR ", "[ERROR]"}},
		{LevelWarn, []string{" WARN ", "[WARN]", "[WARNING]"}},
		{LevelDebug, []string{" DEBUG ", "[DEBUG]"}},
		{LevelFatal, []string{" FATAL ", "[FATAL]"}},
		{LevelInfo, []string{" INFO ", "[INFO]"}},
		{LevelDebug, []string{" TRACE ", "[TRACE]"}},
	}

found:
	for _, m := range markers {
		for _, tag := range m.tags {
			if strings.Contains(raw, tag) {
				e.Level = m.level
				break found
			}
		}
	}

	if len(raw) > 19 && leadingTimestamp.MatchString(raw) {
		end := 23
		if len(raw) < end {
			end = len(raw)
		}
		e.Timestamp = strings.TrimSpace(raw[:end])
	}

	return e
}

// ParseMosquittoLine converts a "timestamp : level : message" broker line
func ParseMosquittoLine(raw string) LogEntry {
	e := LogEntry{
		Source:    SourceMosquitto,
		Level:     LevelInfo,
		Timestamp: now(),
		Message:   raw,
	}

	if !strings.Contains(raw, " : ") {
		return e
	}

	parts := strings.SplitN(raw, " : ", 3)
	e.Timestamp = strings.TrimSpace(parts[0])
	if len(parts) < 3 {
		e.Message = parts[1]
		return e
	}

	lvl := strings.ToUpper(strings.TrimSpace(parts[1]))
	switch {
	case strings.Contains(lvl, "ERROR"):
		e.Level = LevelError
	case strings.Contains(lvl, "WARN"):
		e.Level = LevelWarn
	case strings.Contains(lvl, "DEBUG"):
		e.Level = LevelDebug
	}
	e.Message = parts[2]
	return e
}

// ParsePostgresLine converts a "timestamp [pid] LEVEL: message" database line
func ParsePostgresLine(raw string) LogEntry {
	e := LogEntry{
		Source:    SourcePostgres,
		Level:     LevelInfo,
		Timestamp: now(),
		Message:   raw,
	}

	switch {
	case strings.Contains(raw, "ERROR:"), strings.Contains(raw, "FATAL:"),
		strings.Contains(raw, "PANIC:"):
		e.Level = LevelError
	case strings.Contains(raw, "WARNING:"):
		e.Level = LevelWarn
	case strings.Contains(raw, "DEBUG:"):
		e.Level = LevelDebug
	}

	if len(raw) > 23 && leadingTimestamp.MatchString(raw) {
		e.Timestamp = strings.TrimSpace(raw[:23])
	}

	return e
}

// ParseLine dispatches a raw line to the parser for its source
func ParseLine(src LogSource, raw string) LogEntry {
	switch src {
	case SourceMosquitto:
		return ParseMosquittoLine(raw)
	case SourcePostgres:
		return ParsePostgresLine(raw)
	default:
		return ParseBackendLine(raw)
	}
}
