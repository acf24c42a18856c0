package store

import (
	"context"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

// Recorder batches entries into an archive session. Add never blocks the
// caller; Run writes the pending batch every interval and once more when
// stopped.
type Recorder struct {
	archive  *Archive
	session  int64
	interval time.Duration

	lock    sync.Mutex
	pending []data.LogEntry
	written int

	stop     chan struct{}
	stopOnce sync.Once
}

// NewRecorder creates a recorder for session
func NewRecorder(a *Archive, session int64, interval time.Duration) *Recorder {
	if interval <= 0 {
		interval = time.Second
	}
	return &Recorder{
		archive:  a,
		session:  session,
		interval: interval,
		stop:     make(chan struct{}),
	}
}

// Add queues entries for the next write
func (r *Recorder) Add(entries ...data.LogEntry) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.pending = append(r.pending, entries...)
}

// Written returns the number of entries stored so far
func (r *Recorder) Written() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.written
}

// Flush writes the pending entries now
func (r *Recorder) Flush(ctx context.Context) error {
	r.lock.Lock()
	batch := r.pending
	r.pending = nil
	r.lock.Unlock()

	if len(batch) == 0 {
		return nil
	}

	if err := r.archive.Record(ctx, r.session, batch...); err != nil {
		// put the batch back so the next flush retries it
		r.lock.Lock()
		r.pending = append(batch, r.pending...)
		r.lock.Unlock()
		return err
	}

	r.lock.Lock()
	r.written += len(batch)
	r.lock.Unlock()
	return nil
}

// Run writes batches until Stop is called
func (r *Recorder) Run() error {
	t := time.NewTicker(r.interval)
	defer t.Stop()

	for {
		select {
		case <-t.C:
			if err := r.Flush(context.Background()); err != nil {
				log.WithError(err).Warn("archive: error recording entries")
			}
		case <-r.stop:
			return r.Flush(context.Background())
		}
	}
}

// Stop the recorder after a final flush
func (r *Recorder) Stop(_ error) {
	r.stopOnce.Do(func() { close(r.stop) })
}
