package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"
)

const (
	redisScanCount = 500
	redisMGetBatch = 200

	// redisUpdateAttempts bounds optimistic retries when a watched key changes under Update.
	redisUpdateAttempts = 16
)

type redisKV struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisKV stores entries as plain string keys under keyPrefix.
func NewRedisKV(client redis.UniversalClient, keyPrefix string) KV {
	return &redisKV{client: client, prefix: keyPrefix}
}

func (s *redisKV) Get(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("getting key %s: %w", key, err)
	}
	return value, nil
}

func (s *redisKV) Put(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("putting key %s: %w", key, err)
	}
	return nil
}

func (s *redisKV) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("deleting key %s: %w", key, err)
	}
	return nil
}

// Update runs fn under WATCH and commits with MULTI/EXEC, retrying when another client
// changed the key in between.
func (s *redisKV) Update(ctx context.Context, key string, fn UpdateFunc) error {
	full := s.prefix + key
	txf := func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, full).Bytes()
		found := true
		if errors.Is(err, redis.Nil) {
			found, err = false, nil
		}
		if err != nil {
			return err
		}
		next, err := fn(current, found)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, full, next, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < redisUpdateAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, full)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return fmt.Errorf("updating key %s: %w", key, err)
		}
		return nil
	}
	return fmt.Errorf("updating key %s: %w", key, redis.TxFailedErr)
}

func (s *redisKV) Scan(ctx context.Context, prefix string) ([]Entry, error) {
	match := escapeGlob(s.prefix+prefix) + "*"

	var keys []string
	var cursor uint64
	for {
		batch, next, err := s.client.Scan(ctx, cursor, match, redisScanCount).Result()
		if err != nil {
			return nil, fmt.Errorf("scanning prefix %s: %w", prefix, err)
		}
		keys = append(keys, batch...)
		if next == 0 {
			break
		}
		cursor = next
	}

	// SCAN may return a key more than once.
	sort.Strings(keys)
	keys = dedupeSorted(keys)

	entries := make([]Entry, 0, len(keys))
	for start := 0; start < len(keys); start += redisMGetBatch {
		end := min(start+redisMGetBatch, len(keys))
		values, err := s.client.MGet(ctx, keys[start:end]...).Result()
		if err != nil {
			return nil, fmt.Errorf("loading scanned keys: %w", err)
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				// deleted between SCAN and MGET
				continue
			}
			entries = append(entries, Entry{
				Key:   strings.TrimPrefix(keys[start+i], s.prefix),
				Value: []byte(str),
			})
		}
	}
	return entries, nil
}

func escapeGlob(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\', '^':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func dedupeSorted(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	out := keys[:1]
	for _, k := range keys[1:] {
		if k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}
