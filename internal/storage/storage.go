// Package storage implements the embedded relational engine capability over
// SQLite. One DB is exclusively owned by one synthesis session; all writes go
// through a single logical writer and Export happens exactly once.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"

	_ "modernc.org/sqlite" // Registers the sqlite driver
)

// ErrClosed is returned when the engine is used after Export or Close.
var ErrClosed = errors.New("storage: engine closed")

// DB wraps a file-backed SQLite connection. The file is the export medium:
// Export closes the connection and reads the snapshot back.
type DB struct {
	conn   *sql.DB
	path   string
	temp   bool
	closed bool
}

// Open creates an engine over the database file at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{conn: conn, path: path}, nil
}

// OpenTemp creates an engine over a fresh temporary file, removed on Close.
func OpenTemp() (*DB, error) {
	f, err := os.CreateTemp("", "apkg-*.anki2")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp database: %w", err)
	}
	path := f.Name()
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp database file: %w", err)
	}
	db, err := Open(path)
	if err != nil {
		os.Remove(path)
		return nil, err
	}
	db.temp = true
	return db, nil
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(query string, args ...any) error {
	if db.closed {
		return ErrClosed
	}
	if _, err := db.conn.Exec(query, args...); err != nil {
		return fmt.Errorf("exec failed: %w", err)
	}
	return nil
}

// QueryInt64 returns the first column of the first row as an integer.
// The second return is false when the query matched no rows.
func (db *DB) QueryInt64(query string, args ...any) (int64, bool, error) {
	if db.closed {
		return 0, false, ErrClosed
	}
	var v int64
	err := db.conn.QueryRow(query, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query failed: %w", err)
	}
	return v, true, nil
}

// QueryString returns the first column of the first row as text.
// The second return is false when the query matched no rows.
func (db *DB) QueryString(query string, args ...any) (string, bool, error) {
	if db.closed {
		return "", false, ErrClosed
	}
	var v string
	err := db.conn.QueryRow(query, args...).Scan(&v)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query failed: %w", err)
	}
	return v, true, nil
}

// Export closes the connection and returns the database file bytes. The
// engine is unusable afterwards; a session performs exactly one export.
func (db *DB) Export() ([]byte, error) {
	if db.closed {
		return nil, ErrClosed
	}
	db.closed = true
	if err := db.conn.Close(); err != nil {
		return nil, fmt.Errorf("failed to close database for export: %w", err)
	}
	data, err := os.ReadFile(db.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read database snapshot: %w", err)
	}
	if db.temp {
		os.Remove(db.path)
		db.temp = false
	}
	return data, nil
}

// Close releases the connection and removes the backing file if temporary.
// Safe to call after Export.
func (db *DB) Close() error {
	if !db.closed {
		db.closed = true
		if err := db.conn.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}
	if db.temp {
		db.temp = false
		if err := os.Remove(db.path); err != nil {
			return fmt.Errorf("failed to remove temp database: %w", err)
		}
	}
	return nil
}
