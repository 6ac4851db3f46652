package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a requested key or entity does not exist
var ErrNotFound = errors.New("not found")

// Entry is one key/value pair returned by Scan.
type Entry struct {
	Key   string
	Value []byte
}

// KV is the storage contract every backend satisfies. Scan returns entries whose key starts
// with prefix, ordered by key.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Scan(ctx context.Context, prefix string) ([]Entry, error)
}

// Atomic is implemented by backends that can apply several writes as one unit.
type Atomic interface {
	Atomically(ctx context.Context, fn func(tx KV) error) error
}

// UpdateFunc maps the current value of a key to its replacement. found is false when the key
// does not exist yet.
type UpdateFunc func(current []byte, found bool) ([]byte, error)

// Updater is implemented by backends that can read-modify-write one key without losing a
// concurrent writer from another process.
type Updater interface {
	Update(ctx context.Context, key string, fn UpdateFunc) error
}

// update applies fn to key through the backend's Updater, falling back to a get and put
// inside atomically.
func update(ctx context.Context, kv KV, key string, fn UpdateFunc) error {
	if u, ok := kv.(Updater); ok {
		return u.Update(ctx, key, fn)
	}
	return atomically(ctx, kv, func(tx KV) error {
		return getAndPut(ctx, tx, key, fn)
	})
}

func getAndPut(ctx context.Context, kv KV, key string, fn UpdateFunc) error {
	current, err := kv.Get(ctx, key)
	found := true
	if errors.Is(err, ErrNotFound) {
		found, err = false, nil
	}
	if err != nil {
		return err
	}
	next, err := fn(current, found)
	if err != nil {
		return err
	}
	return kv.Put(ctx, key, next)
}

// atomically runs fn in a transaction when kv supports one, otherwise directly against kv.
func atomically(ctx context.Context, kv KV, fn func(tx KV) error) error {
	if a, ok := kv.(Atomic); ok {
		return a.Atomically(ctx, fn)
	}
	return fn(kv)
}

// prefixEnd returns the smallest key greater than every key starting with prefix, or "" when
// no such bound exists.
func prefixEnd(prefix string) string {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1])
		}
	}
	return ""
}
