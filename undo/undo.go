// Package undo pairs destructive actions with their compensating action.
// A soft delete returns a trash entry that can be restored until the deadline
// the server reported; the Manager hands out a token for each such entry.
package undo

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/indcloud/console/data"
	log "github.com/sirupsen/logrus"
)

// Restorer performs the compensating action. *client.Client implements it.
type Restorer interface {
	Restore(ctx context.Context, trashID int64) error
}

// Entry is an undoable action
type Entry struct {
	Token      string
	TrashID    int64
	EntityType string
	EntityName string
	Deadline   time.Time
	created    time.Time
}

func (e Entry) String() string {
	return fmt.Sprintf("%v %q", e.EntityType, e.EntityName)
}

// Manager tracks undoable actions. It is safe for concurrent use.
type Manager struct {
	restorer Restorer
	now      func() time.Time

	lock    sync.Mutex
	entries map[string]Entry
}

// NewManager creates a manager that undoes through r
func NewManager(r Restorer) *Manager {
	return &Manager{
		restorer: r,
		now:      time.Now,
		entries:  make(map[string]Entry),
	}
}

// SetClock replaces the time source, used by tests
func (m *Manager) SetClock(now func() time.Time) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.now = now
}

// Register records a soft delete and returns its undo entry
func (m *Manager) Register(resp data.SoftDeleteResponse) Entry {
	m.lock.Lock()
	defer m.lock.Unlock()

	e := Entry{
		Token:      uuid.NewString(),
		TrashID:    resp.TrashID,
		EntityType: resp.EntityType,
		EntityName: resp.EntityName,
		Deadline:   resp.Deadline(),
		created:    m.now(),
	}
	m.entries[e.Token] = e
	return e
}

// Do runs a destructive action and registers its undo when it succeeds
func (m *Manager) Do(ctx context.Context, action func(context.Context) (data.SoftDeleteResponse, error)) (Entry, error) {
	resp, err := action(ctx)
	if err != nil {
		return Entry{}, err
	}
	return m.Register(resp), nil
}

// Undo runs the compensating action of token. A token past its deadline is
// dropped with ErrUndoExpired without contacting the server. A failed
// restore keeps the entry so it can be retried.
func (m *Manager) Undo(ctx context.Context, token string) error {
	m.lock.Lock()
	e, ok := m.entries[token]
	if !ok {
		m.lock.Unlock()
		return data.ErrUnknownUndo
	}
	if !m.now().Before(e.Deadline) {
		delete(m.entries, token)
		m.lock.Unlock()
		return data.ErrUndoExpired
	}
	// claim the entry so a concurrent Undo cannot restore twice
	delete(m.entries, token)
	m.lock.Unlock()

	if err := m.restorer.Restore(ctx, e.TrashID); err != nil {
		m.lock.Lock()
		m.entries[token] = e
		m.lock.Unlock()
		return err
	}

	log.WithFields(log.Fields{
		"type": e.EntityType,
		"name": e.EntityName,
	}).Debug("undo: restored")
	return nil
}

// Pending returns the entries that can still be undone, newest first
func (m *Manager) Pending() []Entry {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	ret := make([]Entry, 0, len(m.entries))
	for _, e := range m.entries {
		if now.Before(e.Deadline) {
			ret = append(ret, e)
		}
	}
	sort.Slice(ret, func(i, j int) bool {
		if !ret[i].created.Equal(ret[j].created) {
			return ret[i].created.After(ret[j].created)
		}
		return ret[i].TrashID > ret[j].TrashID
	})
	return ret
}

// Last returns the most recent entry that can still be undone
func (m *Manager) Last() (Entry, bool) {
	p := m.Pending()
	if len(p) == 0 {
		return Entry{}, false
	}
	return p[0], true
}

// Prune drops expired entries and returns how many were dropped
func (m *Manager) Prune() int {
	m.lock.Lock()
	defer m.lock.Unlock()

	now := m.now()
	n := 0
	for token, e := range m.entries {
		if !now.Before(e.Deadline) {
			delete(m.entries, token)
			n++
		}
	}
	return n
}
