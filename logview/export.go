package logview

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/indcloud/console/data"
)

var lineEscaper = strings.NewReplacer("\r\n", `\n`, "\n", `\n`, "\r", `\r`)

// ExportLine formats one entry as "timestamp [source] [level] message". Line
// breaks inside the message are escaped so every entry is exactly one line.
func ExportLine(e data.LogEntry) string {
	e.Message = lineEscaper.Replace(e.Message)
	return e.String()
}

// WriteExport writes the entries newline separated, without a trailing newline
func WriteExport(w io.Writer, entries []data.LogEntry) error {
	bw := bufio.NewWriter(w)
	for i, e := range entries {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		if _, err := bw.WriteString(ExportLine(e)); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ExportString returns the export text for entries
func ExportString(entries []data.LogEntry) string {
	var sb strings.Builder
	// strings.Builder never returns a write error
	_ = WriteExport(&sb, entries)
	return sb.String()
}

// ExportFileName returns the file name used for an export taken at t
func ExportFileName(t time.Time) string {
	return fmt.Sprintf("logs-%v.txt", t.UTC().Format("2006-01-02T15-04-05Z"))
}

// ExportFile writes entries to a new file in dir and returns its path
func ExportFile(dir string, entries []data.LogEntry, t time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, ExportFileName(t))

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("error creating export file: %w", err)
	}

	err = WriteExport(f, entries)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("error writing export file: %w", err)
	}

	return path, nil
}
