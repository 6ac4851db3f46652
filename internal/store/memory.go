package store

import (
	"context"
	"sort"
	"strings"
	"sync"
)

type memoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns a process-local KV. Used in tests and as the development default.
func NewMemoryKV() KV {
	return &memoryKV{data: make(map[string][]byte)}
}

func (m *memoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *memoryKV) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

func (m *memoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.data, key)
	return nil
}

func (m *memoryKV) Scan(_ context.Context, prefix string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []Entry
	for k, v := range m.data {
		if strings.HasPrefix(k, prefix) {
			entries = append(entries, Entry{Key: k, Value: append([]byte(nil), v...)})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Key < entries[j].Key })
	return entries, nil
}

// Update holds the write lock across fn, so fn must not call back into the same KV.
func (m *memoryKV) Update(_ context.Context, key string, fn UpdateFunc) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, found := m.data[key]
	next, err := fn(append([]byte(nil), current...), found)
	if err != nil {
		return err
	}
	m.data[key] = append([]byte(nil), next...)
	return nil
}
