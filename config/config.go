// Package config loads the console profile. Values come from a YAML file,
// then INDCLOUD_* environment variables, then command line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/indcloud/console/analytics"
	"github.com/indcloud/console/data"
	"github.com/pkg/errors"
)

// defaults
const (
	DefaultURL            = "http://localhost:8080"
	DefaultNatsServer     = "nats://127.0.0.1:4222"
	DefaultHistoryLines   = 100
	DefaultBufferCapacity = 10000
)

// Config is the console profile
type Config struct {
	URL        string `yaml:"url"`
	Token      string `yaml:"token"`
	NatsServer string `yaml:"natsServer"`

	// Transport selects the log channel: "ws" or "nats"
	Transport      string   `yaml:"transport"`
	Sources        []string `yaml:"sources"`
	HistoryLines   int      `yaml:"historyLines"`
	BufferCapacity int      `yaml:"bufferCapacity"`

	// Archive is the sqlite file log sessions are recorded to. Empty
	// disables recording.
	Archive   string `yaml:"archive"`
	ExportDir string `yaml:"exportDir"`

	Parallelism int                     `yaml:"parallelism"`
	Variables   []string                `yaml:"variables"`
	Influx      *analytics.InfluxConfig `yaml:"influx,omitempty"`
}

// Default returns a profile with every default filled in
func Default() Config {
	return Config{
		URL:            DefaultURL,
		NatsServer:     DefaultNatsServer,
		Transport:      "ws",
		HistoryLines:   DefaultHistoryLines,
		BufferCapacity: DefaultBufferCapacity,
		ExportDir:      ".",
		Parallelism:    analytics.DefaultParallelism,
		Variables:      []string{"temperature", "humidity"},
	}
}

// DefaultPath returns $HOME/.config/indcloud/console.yaml
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "console.yaml"
	}
	return filepath.Join(dir, "indcloud", "console.yaml")
}

// Load reads the profile at path over the defaults. A missing file is not an
// error.
func Load(path string) (Config, error) {
	c := Default()

	buf, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return c, errors.Wrap(err, "reading config")
	}

	if err := yaml.Unmarshal(buf, &c); err != nil {
		return c, errors.Wrapf(err, "parsing config %v", path)
	}

	return c, c.Validate()
}

// Save writes the profile to path, creating the directory if needed. The
// file holds a token so it is only readable by the owner.
func Save(path string, c Config) error {
	buf, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.Wrap(err, "creating config dir")
	}

	return os.WriteFile(path, buf, 0600)
}

// ApplyEnv overrides the profile from INDCLOUD_* variables. getenv is
// normally os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("INDCLOUD_URL"); v != "" {
		c.URL = v
	}
	if v := getenv("INDCLOUD_TOKEN"); v != "" {
		c.Token = v
	}
	if v := getenv("INDCLOUD_NATS_SERVER"); v != "" {
		c.NatsServer = v
	}
	if v := getenv("INDCLOUD_TRANSPORT"); v != "" {
		c.Transport = v
	}
	if v := getenv("INDCLOUD_ARCHIVE"); v != "" {
		c.Archive = v
	}
	if v := getenv("INDCLOUD_EXPORT_DIR"); v != "" {
		c.ExportDir = v
	}
	if v := getenv("INDCLOUD_SOURCES"); v != "" {
		c.Sources = strings.Split(v, ",")
	}
	if v := getenv("INDCLOUD_HISTORY_LINES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("error parsing INDCLOUD_HISTORY_LINES: %w", err)
		}
		c.HistoryLines = n
	}
	if v := getenv("INDCLOUD_INFLUX_URL"); v != "" {
		if c.Influx == nil {
			c.Influx = &analytics.InfluxConfig{}
		}
		c.Influx.URL = v
	}
	if v := getenv("INDCLOUD_INFLUX_TOKEN"); v != "" && c.Influx != nil {
		c.Influx.Token = v
	}

	return c.Validate()
}

// Validate checks the profile for values the console cannot use
func (c Config) Validate() error {
	if c.Transport != "ws" && c.Transport != "nats" {
		return fmt.Errorf("invalid transport %q, must be ws or nats", c.Transport)
	}
	if c.HistoryLines < 1 || c.HistoryLines > 1000 {
		return fmt.Errorf("historyLines must be between 1 and 1000, got %v", c.HistoryLines)
	}
	if c.BufferCapacity < 1 {
		return fmt.Errorf("bufferCapacity must be positive, got %v", c.BufferCapacity)
	}
	if _, err := c.LogSources(); err != nil {
		return err
	}
	if c.Influx != nil {
		if err := c.Influx.Validate(); err != nil {
			return errors.Wrap(err, "influx")
		}
	}
	return nil
}

// LogSources returns the configured sources, or every source when none are
// listed.
func (c Config) LogSources() ([]data.LogSource, error) {
	if len(c.Sources) == 0 {
		return data.AllSources, nil
	}

	var ret []data.LogSource
	for _, s := range c.Sources {
		src, err := data.ParseLogSource(s)
		if err != nil {
			return nil, err
		}
		ret = append(ret, src)
	}
	return ret, nil
}
