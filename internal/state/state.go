// Package state persists small workspace-scoped values, such as the active
// note, across restarts.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// ActiveNoteKey holds the content file path of the note last opened in the
// editor.
const ActiveNoteKey = "ActiveNoteFilePath"

// Store is a workspace-scoped key/value store.
// Get returns "" and no error for a missing key.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Close() error
}

// Verify implementations satisfy Store at compile time.
var (
	_ Store = (*DB)(nil)
	_ Store = (*Memory)(nil)
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL DEFAULT '',
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// DB is a SQLite-backed Store.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the SQLite database at dsn and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("state: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("state: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Get returns the value stored under key.
func (db *DB) Get(ctx context.Context, key string) (string, error) {
	var v string
	err := db.conn.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("state: get %q: %w", key, err)
	}
	return v, nil
}

// Set stores value under key. An empty value deletes the key.
func (db *DB) Set(ctx context.Context, key, value string) error {
	if value == "" {
		if _, err := db.conn.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("state: delete %q: %w", key, err)
		}
		return nil
	}
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at
	`, key, value)
	if err != nil {
		return fmt.Errorf("state: set %q: %w", key, err)
	}
	return nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Memory is an in-process Store, used when no database path is configured.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory returns an empty Memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.m[key], nil
}

func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if value == "" {
		delete(s.m, key)
		return nil
	}
	s.m[key] = value
	return nil
}

func (s *Memory) Close() error { return nil }
