package logview

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

func TestExportString(t *testing.T) {
	entries := []data.LogEntry{
		{Timestamp: "t1", Source: data.SourceBackend, Level: data.LevelInfo, Message: "ok"},
		{Timestamp: "t2", Source: data.SourcePostgres, Level: data.LevelError, Message: "fail disk"},
	}
	require.Equal(t, "t1 [backend] [INFO] ok\nt2 [postgres] [ERROR] fail disk", ExportString(entries))
	require.Equal(t, "", ExportString(nil))
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2024, 3, 5, 10, 20, 30, 0, time.UTC)

	path, err := ExportFile(dir, testEntries(), ts)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(dir, "logs-2024-03-05T10-20-30Z.txt"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, ExportString(testEntries()), string(b))
}

func TestExportFileBadDir(t *testing.T) {
	_, err := ExportFile(filepath.Join(t.TempDir(), "missing"), testEntries(), time.Now())
	require.Error(t, err)
}
