package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/data"
	"github.com/stretchr/testify/require"
)

const testYAML = `
url: https://cloud.example.com
token: abc
transport: nats
sources: [backend, postgres]
historyLines: 500
influx:
  url: http://influx:8086
  token: secret
  org: indcloud
  bucket: telemetry
`

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	writeFile(t, path, testYAML)

	c, err := Load(path)
	require.NoError(t, err)

	exp := Default()
	exp.URL = "https://cloud.example.com"
	exp.Token = "abc"
	exp.Transport = "nats"
	exp.Sources = []string{"backend", "postgres"}
	exp.HistoryLines = 500
	exp.Influx = &analytics.InfluxConfig{
		URL:    "http://influx:8086",
		Token:  "secret",
		Org:    "indcloud",
		Bucket: "telemetry",
	}

	if diff := cmp.Diff(exp, c); diff != "" {
		t.Fatal("loaded config is not correct: ", diff)
	}

	sources, err := c.LogSources()
	require.NoError(t, err)
	require.Equal(t, []data.LogSource{data.SourceBackend, data.SourcePostgres}, sources)
}

func TestLoadMissing(t *testing.T) {
	c, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	require.Equal(t, Default(), c)

	sources, err := c.LogSources()
	require.NoError(t, err)
	require.Equal(t, data.AllSources, sources)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"transport": "transport: carrier-pigeon\n",
		"history":   "historyLines: 5000\n",
		"source":    "sources: [kafka]\n",
		"influx":    "influx:\n  url: http://influx:8086\n",
		"yaml":      "url: [\n",
	}

	for name, contents := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".yaml")
			writeFile(t, path, contents)
			_, err := Load(path)
			require.Error(t, err)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"INDCLOUD_URL":           "http://10.0.0.5:8080",
		"INDCLOUD_TOKEN":         "from-env",
		"INDCLOUD_SOURCES":       "mosquitto",
		"INDCLOUD_HISTORY_LINES": "250",
		"INDCLOUD_ARCHIVE":       "/tmp/logs.db",
	}

	c := Default()
	c.Token = "from-file"
	require.NoError(t, c.ApplyEnv(func(k string) string { return env[k] }))

	require.Equal(t, "http://10.0.0.5:8080", c.URL)
	require.Equal(t, "from-env", c.Token)
	require.Equal(t, []string{"mosquitto"}, c.Sources)
	require.Equal(t, 250, c.HistoryLines)
	require.Equal(t, "/tmp/logs.db", c.Archive)
	require.Equal(t, DefaultNatsServer, c.NatsServer)

	env["INDCLOUD_HISTORY_LINES"] = "lots"
	require.Error(t, c.ApplyEnv(func(k string) string { return env[k] }))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "console.yaml")

	c := Default()
	c.Token = "saved"
	c.Archive = "archive.db"
	require.NoError(t, Save(path, c))

	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, os.FileMode(0600), info.Mode().Perm())

	back, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(c, back, cmpopts.EquateEmpty()); diff != "" {
		t.Fatal("saved config changed: ", diff)
	}
}

func TestWatcher(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console.yaml")
	writeFile(t, path, "token: first\n")

	changes := make(chan Config, 10)
	w, err := NewWatcher(path, nil, func(c Config) { changes <- c })
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() { done <- w.Run() }()
	defer func() {
		w.Stop(nil)
		require.NoError(t, <-done)
	}()

	writeFile(t, path, "token: second\n")

	select {
	case c := <-changes:
		require.Equal(t, "second", c.Token)
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for reload")
	}

	// an invalid profile is ignored
	writeFile(t, path, "transport: carrier-pigeon\n")
	select {
	case c := <-changes:
		t.Fatal("invalid profile delivered: ", c)
	case <-time.After(500 * time.Millisecond):
	}
}
