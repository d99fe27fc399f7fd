package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSlot implements Slot on a one-table sqlite database (pure Go driver modernc.org/sqlite)
type SQLiteSlot struct {
	db  *sql.DB
	key string
}

// NewSQLite opens (or creates) the database at path and applies the schema
func NewSQLite(ctx context.Context, path, key string) (*SQLiteSlot, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		slog.Warn("could not set WAL mode", "path", path, "error", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS kv (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );`

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteSlot{db: db, key: key}, nil
}

// Load returns the stored value, or "" if the key has no row yet
func (s *SQLiteSlot) Load(ctx context.Context) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, s.key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("loading %q: %w", s.key, err)
	}
	return value, nil
}

// Save upserts the value under the slot key
func (s *SQLiteSlot) Save(ctx context.Context, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO kv(key, value, updated_at) VALUES(?,?,?)`,
		s.key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving %q: %w", s.key, err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteSlot) Close() error {
	return s.db.Close()
}
