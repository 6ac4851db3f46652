package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"basegraph.app/insight/internal/model"
)

const (
	cognitiveSnapshotsKey = "cognitive/snapshots"
	convergencePrefix     = "cognitive/convergence/"
)

// CognitiveHistory holds the bounded cognitive snapshot history and per-algorithm convergence
// histories. When kv is non-nil it is the source of truth: mutations merge into the stored
// lists atomically and reads reload them, so several processes sharing kv see one history.
type CognitiveHistory struct {
	mu             sync.Mutex
	kv             KV
	snapshots      *Ring[model.CognitivePerformanceSnapshot]
	convergenceCap int
	convergence    map[string]*Ring[model.TrendPoint]
}

func NewCognitiveHistory(kv KV, capacity, convergenceCapacity int) *CognitiveHistory {
	return &CognitiveHistory{
		kv:             kv,
		snapshots:      NewRing[model.CognitivePerformanceSnapshot](capacity),
		convergenceCap: convergenceCapacity,
		convergence:    make(map[string]*Ring[model.TrendPoint]),
	}
}

func ringOf[T any](capacity int, items []T) *Ring[T] {
	r := NewRing[T](capacity)
	for _, v := range items {
		r.Push(v)
	}
	return r
}

// Restore reloads every persisted history. Items beyond capacity are dropped oldest first.
func (h *CognitiveHistory) Restore(ctx context.Context) error {
	if h.kv == nil {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadSnapshots(ctx); err != nil {
		return err
	}

	entries, err := h.kv.Scan(ctx, convergencePrefix)
	if err != nil {
		return fmt.Errorf("loading convergence histories: %w", err)
	}
	for _, e := range entries {
		var points []model.TrendPoint
		if err := json.Unmarshal(e.Value, &points); err != nil {
			return fmt.Errorf("decoding convergence history %s: %w", e.Key, err)
		}
		h.convergence[strings.TrimPrefix(e.Key, convergencePrefix)] = ringOf(h.convergenceCap, points)
	}
	return nil
}

// loadSnapshots replaces the in-memory ring with the stored list. Callers hold mu.
func (h *CognitiveHistory) loadSnapshots(ctx context.Context) error {
	if h.kv == nil {
		return nil
	}
	raw, err := h.kv.Get(ctx, cognitiveSnapshotsKey)
	switch {
	case errors.Is(err, ErrNotFound):
		h.snapshots = NewRing[model.CognitivePerformanceSnapshot](h.snapshots.Cap())
		return nil
	case err != nil:
		return fmt.Errorf("loading cognitive snapshots: %w", err)
	}
	var snaps []model.CognitivePerformanceSnapshot
	if err := json.Unmarshal(raw, &snaps); err != nil {
		return fmt.Errorf("decoding cognitive snapshots: %w", err)
	}
	h.snapshots = ringOf(h.snapshots.Cap(), snaps)
	return nil
}

// loadConvergence replaces one algorithm's ring with the stored list. Callers hold mu.
func (h *CognitiveHistory) loadConvergence(ctx context.Context, algorithmID string) error {
	if h.kv == nil {
		return nil
	}
	raw, err := h.kv.Get(ctx, convergencePrefix+algorithmID)
	switch {
	case errors.Is(err, ErrNotFound):
		delete(h.convergence, algorithmID)
		return nil
	case err != nil:
		return fmt.Errorf("loading convergence history: %w", err)
	}
	var points []model.TrendPoint
	if err := json.Unmarshal(raw, &points); err != nil {
		return fmt.Errorf("decoding convergence history: %w", err)
	}
	h.convergence[algorithmID] = ringOf(h.convergenceCap, points)
	return nil
}

func (h *CognitiveHistory) Append(ctx context.Context, snap model.CognitivePerformanceSnapshot) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.kv == nil {
		h.snapshots.Push(snap)
		return nil
	}
	capacity := h.snapshots.Cap()
	err := update(ctx, h.kv, cognitiveSnapshotsKey, func(current []byte, found bool) ([]byte, error) {
		var stored []model.CognitivePerformanceSnapshot
		if found {
			if err := json.Unmarshal(current, &stored); err != nil {
				return nil, fmt.Errorf("decoding cognitive snapshots: %w", err)
			}
		}
		ring := ringOf(capacity, stored)
		ring.Push(snap)
		h.snapshots = ring
		return json.Marshal(ring.Items())
	})
	if err != nil {
		return fmt.Errorf("appending cognitive snapshot: %w", err)
	}
	return nil
}

func (h *CognitiveHistory) RecordConvergence(ctx context.Context, algorithmID string, point model.TrendPoint) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.kv == nil {
		ring, ok := h.convergence[algorithmID]
		if !ok {
			ring = NewRing[model.TrendPoint](h.convergenceCap)
			h.convergence[algorithmID] = ring
		}
		ring.Push(point)
		return nil
	}
	err := update(ctx, h.kv, convergencePrefix+algorithmID, func(current []byte, found bool) ([]byte, error) {
		var stored []model.TrendPoint
		if found {
			if err := json.Unmarshal(current, &stored); err != nil {
				return nil, fmt.Errorf("decoding convergence history: %w", err)
			}
		}
		ring := ringOf(h.convergenceCap, stored)
		ring.Push(point)
		h.convergence[algorithmID] = ring
		return json.Marshal(ring.Items())
	})
	if err != nil {
		return fmt.Errorf("recording convergence: %w", err)
	}
	return nil
}

// Snapshots returns a copy of the history, oldest first.
func (h *CognitiveHistory) Snapshots(ctx context.Context) ([]model.CognitivePerformanceSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadSnapshots(ctx); err != nil {
		return nil, err
	}
	return h.snapshots.Items(), nil
}

// Recent returns up to n most recent snapshots, oldest first.
func (h *CognitiveHistory) Recent(ctx context.Context, n int) ([]model.CognitivePerformanceSnapshot, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadSnapshots(ctx); err != nil {
		return nil, err
	}
	return h.snapshots.Last(n), nil
}

func (h *CognitiveHistory) Len(ctx context.Context) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadSnapshots(ctx); err != nil {
		return 0, err
	}
	return h.snapshots.Len(), nil
}

// Convergence returns a copy of an algorithm's convergence history, oldest first.
func (h *CognitiveHistory) Convergence(ctx context.Context, algorithmID string) ([]model.TrendPoint, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.loadConvergence(ctx, algorithmID); err != nil {
		return nil, err
	}
	ring, ok := h.convergence[algorithmID]
	if !ok {
		return []model.TrendPoint{}, nil
	}
	return ring.Items(), nil
}
