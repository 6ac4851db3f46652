package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"basegraph.app/insight/core/db"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS insight_kv (
    key        TEXT PRIMARY KEY,
    value      BYTEA NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

type postgresKV struct {
	conn db.DBTX
	// withTx is nil when conn is already a transaction.
	withTx func(ctx context.Context, fn func(tx db.DBTX) error) error
}

// NewPostgresKV stores entries in the insight_kv table. conn may be the pool or a transaction.
func NewPostgresKV(conn db.DBTX) KV {
	return &postgresKV{conn: conn}
}

// NewPostgresDatabaseKV is NewPostgresKV over a pool that also supports Atomically.
func NewPostgresDatabaseKV(database *db.DB) KV {
	return &postgresKV{conn: database.Conn(), withTx: database.WithTx}
}

func (s *postgresKV) Atomically(ctx context.Context, fn func(tx KV) error) error {
	if s.withTx == nil {
		return fn(s)
	}
	return s.withTx(ctx, func(tx db.DBTX) error {
		return fn(&postgresKV{conn: tx})
	})
}

// Update serializes writers of key with a transaction-scoped advisory lock. Over a bare pool
// from NewPostgresKV the lock is released as soon as it is taken, so callers that need
// cross-process safety use NewPostgresDatabaseKV or pass a transaction.
func (s *postgresKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	return s.Atomically(ctx, func(tx KV) error {
		pg := tx.(*postgresKV)
		if _, err := pg.conn.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
			return fmt.Errorf("locking key %s: %w", key, err)
		}
		return getAndPut(ctx, pg, key, fn)
	})
}

// EnsurePostgresSchema creates the insight_kv table if it does not exist.
func EnsurePostgresSchema(ctx context.Context, conn db.DBTX) error {
	if _, err := conn.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("creating insight_kv table: %w", err)
	}
	return nil
}

func (s *postgresKV) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.conn.QueryRow(ctx, `SELECT value FROM insight_kv WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, nil
}

func (s *postgresKV) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO insight_kv (key, value, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value)
	if err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *postgresKV) Delete(ctx context.Context, key string) error {
	if _, err := s.conn.Exec(ctx, `DELETE FROM insight_kv WHERE key = $1`, key); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

func (s *postgresKV) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	rows, err := s.conn.Query(ctx,
		`SELECT key, value FROM insight_kv WHERE starts_with(key, $1) ORDER BY key COLLATE "C"`, prefix)
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
