package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS insight_kv (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
)`

type sqlQuerier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// SQLiteKV is a file-backed KV for single-node deployments.
type SQLiteKV struct {
	db *sql.DB
	// q is db, or the open transaction inside Atomically.
	q    sqlQuerier
	inTx bool
}

// OpenSQLiteKV opens (or creates) the database at path. ":memory:" gives a private in-memory
// database, which is what the tests use.
func OpenSQLiteKV(path string) (*SQLiteKV, error) {
	dsn := path
	if path != ":memory:" {
		// Immediate transactions take the write lock up front, so a read inside Atomically
		// cannot be overtaken by another process before the write.
		dsn = "file:" + path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared and serializes writers.
	conn.SetMaxOpenConns(1)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}
	return &SQLiteKV{db: conn, q: conn}, nil
}

func (s *SQLiteKV) Close() error {
	return s.db.Close()
}

func (s *SQLiteKV) Atomically(ctx context.Context, fn func(tx KV) error) error {
	if s.inTx {
		return fn(s)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning sqlite transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(&SQLiteKV{db: s.db, q: tx, inTx: true}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing sqlite transaction: %w", err)
	}
	return nil
}

func (s *SQLiteKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.Atomically(ctx, func(tx KV) error {
		return getAndPut(ctx, tx, key, fn)
	})
}

func (s *SQLiteKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.q.QueryRowContext(ctx, `SELECT value FROM insight_kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, nil
}

func (s *SQLiteKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.q.ExecContext(ctx, `
		INSERT INTO insight_kv (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`,
		key, value)
	if err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Delete(ctx context.Context, key string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM insight_kv WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteKV) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	query := `SELECT key, value FROM insight_kv WHERE key >= ? ORDER BY key`
	args := []any{prefix}
	if end := prefixEnd(prefix); end != "" {
		query = `SELECT key, value FROM insight_kv WHERE key >= ? AND key < ? ORDER BY key`
		args = append(args, end)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("scanning prefix %s: %w", prefix, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Key, &e.Value); err != nil {
			return nil, fmt.Errorf("reading row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}
	return entries, nil
}
