package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"basegraph.app/insight/internal/model"
)

// EvolutionStore persists per-workspace code-evolution histories and debt baselines.
type EvolutionStore interface {
	// LoadHistory returns the stored history, or an empty slice when the workspace has none.
	LoadHistory(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error)
	SaveHistory(ctx context.Context, workspaceID string, history []model.CodeEvolutionSnapshot) error
	// AppendSnapshot adds snap to the stored history in one atomic read-modify-write, drops
	// snapshots older than cutoff and returns the resulting history ordered by timestamp.
	AppendSnapshot(ctx context.Context, workspaceID string, snap model.CodeEvolutionSnapshot, cutoff time.Time) ([]model.CodeEvolutionSnapshot, error)

	// LoadDebtBaseline returns the last complete debt total; ok is false when none was stored.
	LoadDebtBaseline(ctx context.Context, workspaceID string) (hours float64, ok bool, err error)
	SaveDebtBaseline(ctx context.Context, workspaceID string, hours float64) error
}

type evolutionStore struct {
	kv KV
}

func newEvolutionStore(kv KV) EvolutionStore {
	return &evolutionStore{kv: kv}
}

func evolutionKey(workspaceID string) string { return "evolution/" + workspaceID }

func debtBaselineKey(workspaceID string) string { return "debt-baseline/" + workspaceID }

func (s *evolutionStore) LoadHistory(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error) {
	raw, err := s.kv.Get(ctx, evolutionKey(workspaceID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return []model.CodeEvolutionSnapshot{}, nil
		}
		return nil, fmt.Errorf("loading evolution history: %w", err)
	}

	var history []model.CodeEvolutionSnapshot
	if err := json.Unmarshal(raw, &history); err != nil {
		return nil, fmt.Errorf("decoding evolution history: %w", err)
	}
	return history, nil
}

func (s *evolutionStore) SaveHistory(ctx context.Context, workspaceID string, history []model.CodeEvolutionSnapshot) error {
	raw, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("encoding evolution history: %w", err)
	}
	return s.kv.Put(ctx, evolutionKey(workspaceID), raw)
}

func (s *evolutionStore) AppendSnapshot(ctx context.Context, workspaceID string, snap model.CodeEvolutionSnapshot, cutoff time.Time) ([]model.CodeEvolutionSnapshot, error) {
	var history []model.CodeEvolutionSnapshot
	err := update(ctx, s.kv, evolutionKey(workspaceID), func(current []byte, found bool) ([]byte, error) {
		history = nil
		if found {
			if err := json.Unmarshal(current, &history); err != nil {
				return nil, fmt.Errorf("decoding evolution history: %w", err)
			}
		}
		history = append(history, snap)
		sort.SliceStable(history, func(i, j int) bool {
			return history[i].Timestamp.Before(history[j].Timestamp)
		})

		pruned := history[:0]
		for _, h := range history {
			if !h.Timestamp.Before(cutoff) {
				pruned = append(pruned, h)
			}
		}
		history = pruned
		return json.Marshal(history)
	})
	if err != nil {
		return nil, fmt.Errorf("appending evolution snapshot: %w", err)
	}
	return history, nil
}

func (s *evolutionStore) LoadDebtBaseline(ctx context.Context, workspaceID string) (float64, bool, error) {
	raw, err := s.kv.Get(ctx, debtBaselineKey(workspaceID))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("loading debt baseline: %w", err)
	}
	hours, err := strconv.ParseFloat(string(raw), 64)
	if err != nil {
		return 0, false, fmt.Errorf("decoding debt baseline: %w", err)
	}
	return hours, true, nil
}

func (s *evolutionStore) SaveDebtBaseline(ctx context.Context, workspaceID string, hours float64) error {
	return s.kv.Put(ctx, debtBaselineKey(workspaceID), []byte(strconv.FormatFloat(hours, 'f', -1, 64)))
}
