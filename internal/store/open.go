package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"basegraph.app/insight/core/config"
	"basegraph.app/insight/core/db"
)

// Open builds the KV backend selected by cfg.Storage. The returned close func releases
// whatever connections were opened and is never nil.
func Open(ctx context.Context, cfg config.Config) (KV, func(), error) {
	switch cfg.Storage.Backend {
	case "memory":
		return NewMemoryKV(), func() {}, nil

	case "postgres":
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		if err := EnsurePostgresSchema(ctx, database.Conn()); err != nil {
			database.Close()
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage backend ready", "backend", "postgres")
		return NewPostgresDatabaseKV(database), database.Close, nil

	case "sqlite":
		kv, err := OpenSQLiteKV(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		slog.InfoContext(ctx, "storage backend ready", "backend", "sqlite", "path", cfg.Storage.SQLitePath)
		return kv, func() { _ = kv.Close() }, nil

	case "redis":
		opts, err := redis.ParseURL(cfg.Storage.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing storage redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connecting to storage redis: %w", err)
		}
		slog.InfoContext(ctx, "storage backend ready", "backend", "redis", "key_prefix", cfg.Storage.KeyPrefix)
		return NewRedisKV(client, cfg.Storage.KeyPrefix), func() { _ = client.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
