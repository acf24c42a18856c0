package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/indcloud/console/data"
	"github.com/jmoiron/sqlx"
	log "github.com/sirupsen/logrus"

	// tell sql to use sqlite
	_ "modernc.org/sqlite"
)

// ErrReplayCancelled is returned when a replay is stopped by its context
var ErrReplayCancelled = errors.New("replay cancelled")

// Session describes a recorded stream
type Session struct {
	ID      int64
	Started time.Time
	Backend string
	Sources []data.LogSource
	Entries int64
}

type sessionRow struct {
	ID      int64  `db:"id"`
	Started int64  `db:"started"`
	Backend string `db:"backend"`
	Sources string `db:"sources"`
	Entries int64  `db:"entries"`
}

func (r sessionRow) session() Session {
	s := Session{
		ID:      r.ID,
		Started: time.UnixMilli(r.Started),
		Backend: r.Backend,
		Entries: r.Entries,
	}
	for _, src := range strings.Split(r.Sources, ",") {
		if src != "" {
			s.Sources = append(s.Sources, data.LogSource(src))
		}
	}
	return s
}

type entryRow struct {
	ID        int64  `db:"id"`
	SessionID int64  `db:"session_id"`
	Seq       uint64 `db:"seq"`
	Received  int64  `db:"received"`
	Timestamp string `db:"ts"`
	Source    string `db:"source"`
	Level     string `db:"level"`
	Message   string `db:"message"`
	Logger    string `db:"logger"`
}

func (r entryRow) entry() data.LogEntry {
	return data.LogEntry{
		Seq:       r.Seq,
		Timestamp: r.Timestamp,
		Source:    data.LogSource(r.Source),
		Level:     data.LogLevel(r.Level),
		Message:   r.Message,
		Logger:    r.Logger,
	}
}

// Archive is a SQLite log archive
type Archive struct {
	lock sync.RWMutex
	db   *sqlx.DB
	now  func() time.Time
}

// OpenArchive opens or creates the archive at dbSpec, a file path or
// ":memory:"
func OpenArchive(dbSpec string) (*Archive, error) {
	db, err := sqlx.Open("sqlite", dbSpec)
	if err != nil {
		return nil, fmt.Errorf("unable to open archive: %w", err)
	}
	// pragmas apply per connection and an in-memory database exists once
	// per connection, so keep a single one
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping archive: %w", err)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("error while executing pragma [%s]: %w", pragma, err)
		}
	}

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to create schema: %w", err)
	}

	log.WithField("db", dbSpec).Debug("archive opened")
	return &Archive{db: db, now: time.Now}, nil
}

// Close the archive
func (a *Archive) Close() error {
	return a.db.Close()
}

// StartSession creates a session for a stream from backend
func (a *Archive) StartSession(ctx context.Context, backend string, sources []data.LogSource) (int64, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	srcs := make([]string, len(sources))
	for i, s := range sources {
		srcs[i] = string(s)
	}

	res, err := a.db.NamedExecContext(ctx,
		"INSERT INTO sessions (started, backend, sources) VALUES (:started, :backend, :sources)",
		sessionRow{
			Started: a.now().UnixMilli(),
			Backend: backend,
			Sources: strings.Join(srcs, ","),
		})
	if err != nil {
		return 0, fmt.Errorf("error creating session: %w", err)
	}
	return res.LastInsertId()
}

// Record appends entries to a session in one transaction
func (a *Archive) Record(ctx context.Context, session int64, entries ...data.LogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareNamedContext(ctx, `INSERT INTO entries
		(session_id, seq, received, ts, source, level, message, logger)
		VALUES (:session_id, :seq, :received, :ts, :source, :level, :message, :logger)`)
	if err != nil {
		_ = tx.Rollback()
		return err
	}
	defer stmt.Close()

	received := a.now().UnixMilli()
	for _, e := range entries {
		_, err := stmt.ExecContext(ctx, entryRow{
			SessionID: session,
			Seq:       e.Seq,
			Received:  received,
			Timestamp: e.Timestamp,
			Source:    string(e.Source),
			Level:     string(e.Level),
			Message:   e.Message,
			Logger:    e.Logger,
		})
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("error recording entry %v: %w", e.Seq, err)
		}
	}

	return tx.Commit()
}

// Sessions lists the recorded sessions, newest first
func (a *Archive) Sessions(ctx context.Context) ([]Session, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	var rows []sessionRow
	err := a.db.SelectContext(ctx, &rows, `SELECT s.id, s.started, s.backend, s.sources,
		(SELECT COUNT(*) FROM entries e WHERE e.session_id = s.id) AS entries
		FROM sessions s ORDER BY s.id DESC`)
	if err != nil {
		return nil, err
	}

	ret := make([]Session, len(rows))
	for i, r := range rows {
		ret[i] = r.session()
	}
	return ret, nil
}

// Replay sends the entries of a session to ch in arrival order, then closes
// ch. Only entries accepted by keep are sent; keep may be nil.
func (a *Archive) Replay(ctx context.Context, session int64, keep func(data.LogEntry) bool,
	ch chan<- data.LogEntry) error {
	defer close(ch)

	select {
	case <-ctx.Done():
		return ErrReplayCancelled
	default:
	}

	a.lock.RLock()
	defer a.lock.RUnlock()

	rows, err := a.db.QueryxContext(ctx,
		"SELECT * FROM entries WHERE session_id = ? ORDER BY seq, id", session)
	if err != nil {
		if ctx.Err() != nil {
			return ErrReplayCancelled
		}
		return err
	}
	defer rows.Close()

	var r entryRow
	for rows.Next() {
		if err := rows.StructScan(&r); err != nil {
			return err
		}
		e := r.entry()
		if keep != nil && !keep(e) {
			continue
		}
		select {
		case <-ctx.Done():
			return ErrReplayCancelled
		case ch <- e:
		}
	}
	if err := rows.Err(); err != nil {
		if ctx.Err() != nil {
			return ErrReplayCancelled
		}
		return err
	}
	return nil
}

// Entries returns up to limit entries of a session, oldest first. A limit of
// zero returns every entry.
func (a *Archive) Entries(ctx context.Context, session int64, limit int) ([]data.LogEntry, error) {
	a.lock.RLock()
	defer a.lock.RUnlock()

	q := "SELECT * FROM entries WHERE session_id = ? ORDER BY seq, id"
	args := []interface{}{session}
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}

	var rows []entryRow
	if err := a.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	ret := make([]data.LogEntry, len(rows))
	for i, r := range rows {
		ret[i] = r.entry()
	}
	return ret, nil
}

// DeleteSession removes a session and its entries
func (a *Archive) DeleteSession(ctx context.Context, session int64) error {
	a.lock.Lock()
	defer a.lock.Unlock()

	n, err := a.deleteSessions(ctx, "id = ?", session)
	if err != nil {
		return err
	}
	if n == 0 {
		return data.ErrNotFound
	}
	return nil
}

// deleteSessions removes the sessions matching where and their entries
func (a *Archive) deleteSessions(ctx context.Context, where string, args ...interface{}) (int64, error) {
	tx, err := a.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx,
		"DELETE FROM entries WHERE session_id IN (SELECT id FROM sessions WHERE "+where+")", args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE "+where, args...)
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}

	n, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return 0, err
	}
	return n, tx.Commit()
}

// Prune removes sessions started before t and returns how many were removed
func (a *Archive) Prune(ctx context.Context, before time.Time) (int64, error) {
	a.lock.Lock()
	defer a.lock.Unlock()

	return a.deleteSessions(ctx, "started < ?", before.UnixMilli())
}
