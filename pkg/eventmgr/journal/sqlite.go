package journal

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore persists incidents to SQLite.
// It is suitable for single-process production use.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore creates a new SQLite incident store.
// The path should be a file path (e.g., "./incidents.db") or ":memory:" for testing.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			id TEXT PRIMARY KEY,
			dispatch_id TEXT NOT NULL,
			listener TEXT NOT NULL,
			event_type TEXT NOT NULL,
			kind TEXT NOT NULL,
			error TEXT NOT NULL,
			elapsed_ns INTEGER NOT NULL,
			limit_ns INTEGER NOT NULL,
			occurred_at INTEGER NOT NULL
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	for _, stmt := range []string{
		`CREATE INDEX IF NOT EXISTS idx_incidents_listener ON incidents(listener, occurred_at)`,
		`CREATE INDEX IF NOT EXISTS idx_incidents_occurred_at ON incidents(occurred_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("create index: %w", err)
		}
	}

	return &SQLiteStore{db: db}, nil
}

// Record implements Store.
func (s *SQLiteStore) Record(inc Incident) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	inc = normalize(inc)
	_, err := s.db.Exec(`
		INSERT INTO incidents
			(id, dispatch_id, listener, event_type, kind, error, elapsed_ns, limit_ns, occurred_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inc.ID, inc.DispatchID, inc.Listener, inc.EventType, string(inc.Kind), inc.Error,
		int64(inc.Elapsed), int64(inc.Limit), inc.OccurredAt.UnixNano())
	if err != nil {
		return fmt.Errorf("record incident: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(limit int) ([]Incident, error) {
	return s.query(`
		SELECT id, dispatch_id, listener, event_type, kind, error, elapsed_ns, limit_ns, occurred_at
		FROM incidents
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, sqlLimit(limit))
}

// ListByListener implements Store.
func (s *SQLiteStore) ListByListener(listener string, limit int) ([]Incident, error) {
	return s.query(`
		SELECT id, dispatch_id, listener, event_type, kind, error, elapsed_ns, limit_ns, occurred_at
		FROM incidents
		WHERE listener = ?
		ORDER BY occurred_at DESC, rowid DESC
		LIMIT ?
	`, listener, sqlLimit(limit))
}

func (s *SQLiteStore) query(q string, args ...any) ([]Incident, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list incidents: %w", err)
	}
	defer rows.Close()

	incidents := make([]Incident, 0)
	for rows.Next() {
		var (
			inc                 Incident
			kind                string
			elapsed, limit, occ int64
		)
		if err := rows.Scan(&inc.ID, &inc.DispatchID, &inc.Listener, &inc.EventType,
			&kind, &inc.Error, &elapsed, &limit, &occ); err != nil {
			return nil, fmt.Errorf("scan incident: %w", err)
		}
		inc.Kind = Kind(kind)
		inc.Elapsed = time.Duration(elapsed)
		inc.Limit = time.Duration(limit)
		inc.OccurredAt = time.Unix(0, occ).UTC()
		incidents = append(incidents, inc)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incidents: %w", err)
	}
	return incidents, nil
}

// Count implements Store.
func (s *SQLiteStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM incidents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count incidents: %w", err)
	}
	return n, nil
}

// Purge implements Store.
func (s *SQLiteStore) Purge(before time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, ErrStoreClosed
	}

	res, err := s.db.Exec(`DELETE FROM incidents WHERE occurred_at < ?`, before.UnixNano())
	if err != nil {
		return 0, fmt.Errorf("purge incidents: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("purge incidents: %w", err)
	}
	return int(n), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}

// sqlLimit maps a non-positive limit to SQLite's "no limit".
func sqlLimit(limit int) int {
	if limit <= 0 {
		return -1
	}
	return limit
}
