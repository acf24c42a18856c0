package config

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// Watcher reloads the profile when the file changes and passes the new
// values to a callback. It watches the directory rather than the file so
// editors that replace the file on save are seen too.
type Watcher struct {
	path     string
	env      func(string) string
	onChange func(Config)
	watcher  *fsnotify.Watcher

	stop     chan struct{}
	stopOnce sync.Once
}

// debounce collapses the burst of events a single save produces
const debounce = 100 * time.Millisecond

// NewWatcher creates a watcher for the profile at path. env is applied after
// each reload so environment overrides keep winning; it may be nil.
func NewWatcher(path string, env func(string) string, onChange func(Config)) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating config watcher")
	}

	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, errors.Wrap(err, "watching config dir")
	}

	return &Watcher{
		path:     filepath.Clean(path),
		env:      env,
		onChange: onChange,
		watcher:  w,
		stop:     make(chan struct{}),
	}, nil
}

// Run delivers reloads until Stop is called
func (w *Watcher) Run() error {
	defer w.watcher.Close()

	var pending <-chan time.Time

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(debounce)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			log.WithError(err).Warn("config watcher error")
		case <-pending:
			pending = nil
			w.reload()
		case <-w.stop:
			return nil
		}
	}
}

func (w *Watcher) reload() {
	c, err := Load(w.path)
	if err == nil && w.env != nil {
		err = c.ApplyEnv(w.env)
	}
	if err != nil {
		log.WithError(err).Warn("config reload ignored")
		return
	}
	log.WithField("path", w.path).Info("config reloaded")
	w.onChange(c)
}

// Stop the watcher
func (w *Watcher) Stop(_ error) {
	w.stopOnce.Do(func() { close(w.stop) })
}
