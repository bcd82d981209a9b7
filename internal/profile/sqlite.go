// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package profile

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteBackend stores slots in a single SQLite table.
type SQLiteBackend struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens or creates the profile database at path and creates the
// schema if it does not exist.
func OpenSQLite(path string) (*SQLiteBackend, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating profile directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	b := &SQLiteBackend{db: db, path: path}
	if err := b.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return b, nil
}

// Path returns the database file path.
func (b *SQLiteBackend) Path() string { return b.path }

func (b *SQLiteBackend) createSchema() error {
	_, err := b.db.Exec(`CREATE TABLE IF NOT EXISTS slots (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("executing schema statement: %w", err)
	}
	return nil
}

// Load reads every slot.
func (b *SQLiteBackend) Load(ctx context.Context) (map[string][]byte, error) {
	rows, err := b.db.QueryContext(ctx, `SELECT key, value FROM slots`)
	if err != nil {
		return nil, fmt.Errorf("querying slots: %w", err)
	}
	defer rows.Close()

	out := make(map[string][]byte)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scanning slot: %w", err)
		}
		out[key] = []byte(value)
	}
	return out, rows.Err()
}

// Save writes one slot.
func (b *SQLiteBackend) Save(ctx context.Context, key string, value []byte) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT INTO slots (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving slot %s: %w", key, err)
	}
	return nil
}

// Delete removes one slot.
func (b *SQLiteBackend) Delete(ctx context.Context, key string) error {
	if _, err := b.db.ExecContext(ctx, `DELETE FROM slots WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting slot %s: %w", key, err)
	}
	return nil
}

// Close releases the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
