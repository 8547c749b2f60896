package checkpoint

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DefaultNamespace is used when a SQLite location names no namespace.
const DefaultNamespace = "default"

// SQLiteBackend keeps entries as rows in a SQLite database.
// Each namespace behaves like a separate directory, so several series
// locations can share one database file.
type SQLiteBackend struct {
	db        *sql.DB
	path      string
	namespace string
	mu        sync.RWMutex
	closed    bool
}

// Compile-time interface check.
var _ Backend = (*SQLiteBackend)(nil)

// NewSQLiteBackend opens a SQLite backend.
// The path should be a file path (e.g., "./checkpoints.db") or ":memory:" for testing.
func NewSQLiteBackend(path, namespace string) (*SQLiteBackend, error) {
	if namespace == "" {
		namespace = DefaultNamespace
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A :memory: database lives per connection.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS checkpoint_entries (
			namespace TEXT NOT NULL,
			name TEXT NOT NULL,
			sequence INTEGER NOT NULL,
			updated_at TEXT NOT NULL,
			data BLOB NOT NULL,
			PRIMARY KEY (namespace, name)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	return &SQLiteBackend{db: db, path: path, namespace: namespace}, nil
}

// Names implements Backend. Names are returned in first-write order.
func (s *SQLiteBackend) Names() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrBackendClosed
	}

	rows, err := s.db.Query(`
		SELECT name FROM checkpoint_entries
		WHERE namespace = ?
		ORDER BY sequence
	`, s.namespace)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan entry name: %w", err)
		}
		names = append(names, name)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return names, nil
}

// WriteAtomic implements Backend.
// The upsert is a single statement, so readers never see partial data.
func (s *SQLiteBackend) WriteAtomic(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBackendClosed
	}

	// Replacing an entry keeps its original sequence.
	_, err := s.db.Exec(`
		INSERT INTO checkpoint_entries (namespace, name, sequence, updated_at, data)
		VALUES (
			?, ?,
			COALESCE((SELECT MAX(sequence) FROM checkpoint_entries WHERE namespace = ?), 0) + 1,
			?, ?
		)
		ON CONFLICT(namespace, name) DO UPDATE SET
			updated_at = excluded.updated_at,
			data = excluded.data
	`, s.namespace, name, s.namespace, time.Now().UTC().Format(time.RFC3339Nano), data)
	if err != nil {
		return fmt.Errorf("write entry: %w", err)
	}
	return nil
}

// Read implements Backend.
func (s *SQLiteBackend) Read(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrBackendClosed
	}

	var data []byte
	err := s.db.QueryRow(`
		SELECT data FROM checkpoint_entries
		WHERE namespace = ? AND name = ?
	`, s.namespace, name).Scan(&data)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read entry: %w", err)
	}
	return data, nil
}

// Remove implements Backend.
func (s *SQLiteBackend) Remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrBackendClosed
	}

	_, err := s.db.Exec(`
		DELETE FROM checkpoint_entries
		WHERE namespace = ? AND name = ?
	`, s.namespace, name)
	if err != nil {
		return fmt.Errorf("remove entry: %w", err)
	}
	return nil
}

// Location implements Backend.
func (s *SQLiteBackend) Location() string {
	return s.path + "#" + s.namespace
}

// Path implements Backend.
func (s *SQLiteBackend) Path(name string) string {
	return s.Location() + "/" + name
}

// Close implements Backend.
func (s *SQLiteBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	return s.db.Close()
}
