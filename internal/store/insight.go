package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"basegraph.app/insight/internal/model"
)

// InsightStore holds generated insights, the acknowledged set and feedback records.
type InsightStore interface {
	// Put inserts or replaces an insight by id.
	Put(ctx context.Context, insight model.GeneratedInsight) error
	Get(ctx context.Context, id string) (model.GeneratedInsight, error)
	// List returns every stored insight in generation order (ascending Sequence).
	List(ctx context.Context) ([]model.GeneratedInsight, error)

	// Acknowledge adds id to the acknowledged set. added is false when it was already there.
	Acknowledge(ctx context.Context, id string) (added bool, err error)
	IsAcknowledged(ctx context.Context, id string) (bool, error)
	AcknowledgedIDs(ctx context.Context) (map[string]struct{}, error)

	AddFeedback(ctx context.Context, record model.FeedbackRecord) error
	Feedback(ctx context.Context, insightID string) ([]model.FeedbackRecord, error)
	FeedbackTotals(ctx context.Context) (helpful, total int, err error)

	// PurgeBefore removes insights generated before cutoff together with their acknowledgments.
	// Feedback is kept.
	PurgeBefore(ctx context.Context, cutoff time.Time) (int, error)
}

const (
	insightPrefix  = "insight/"
	ackPrefix      = "ack/"
	feedbackPrefix = "feedback/"
)

type insightStore struct {
	kv KV
}

func newInsightStore(kv KV) InsightStore {
	return &insightStore{kv: kv}
}

func (s *insightStore) Put(ctx context.Context, insight model.GeneratedInsight) error {
	raw, err := json.Marshal(insight)
	if err != nil {
		return fmt.Errorf("encoding insight: %w", err)
	}
	return s.kv.Put(ctx, insightPrefix+insight.ID, raw)
}

func (s *insightStore) Get(ctx context.Context, id string) (model.GeneratedInsight, error) {
	raw, err := s.kv.Get(ctx, insightPrefix+id)
	if err != nil {
		return model.GeneratedInsight{}, err
	}
	var insight model.GeneratedInsight
	if err := json.Unmarshal(raw, &insight); err != nil {
		return model.GeneratedInsight{}, fmt.Errorf("decoding insight %s: %w", id, err)
	}
	return insight, nil
}

func (s *insightStore) List(ctx context.Context) ([]model.GeneratedInsight, error) {
	entries, err := s.kv.Scan(ctx, insightPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}

	insights := make([]model.GeneratedInsight, 0, len(entries))
	for _, e := range entries {
		var insight model.GeneratedInsight
		if err := json.Unmarshal(e.Value, &insight); err != nil {
			return nil, fmt.Errorf("decoding insight %s: %w", e.Key, err)
		}
		insights = append(insights, insight)
	}
	sort.SliceStable(insights, func(i, j int) bool { return insights[i].Sequence < insights[j].Sequence })
	return insights, nil
}

func (s *insightStore) Acknowledge(ctx context.Context, id string) (bool, error) {
	acked, err := s.IsAcknowledged(ctx, id)
	if err != nil {
		return false, err
	}
	if acked {
		return false, nil
	}
	if err := s.kv.Put(ctx, ackPrefix+id, []byte(time.Now().UTC().Format(time.RFC3339Nano))); err != nil {
		return false, fmt.Errorf("acknowledging insight: %w", err)
	}
	return true, nil
}

func (s *insightStore) IsAcknowledged(ctx context.Context, id string) (bool, error) {
	_, err := s.kv.Get(ctx, ackPrefix+id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking acknowledgment: %w", err)
	}
	return true, nil
}

func (s *insightStore) AcknowledgedIDs(ctx context.Context) (map[string]struct{}, error) {
	entries, err := s.kv.Scan(ctx, ackPrefix)
	if err != nil {
		return nil, fmt.Errorf("listing acknowledgments: %w", err)
	}
	ids := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		ids[strings.TrimPrefix(e.Key, ackPrefix)] = struct{}{}
	}
	return ids, nil
}

func (s *insightStore) AddFeedback(ctx context.Context, record model.FeedbackRecord) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding feedback: %w", err)
	}
	return s.kv.Put(ctx, feedbackPrefix+record.InsightID+"/"+record.ID, raw)
}

func (s *insightStore) Feedback(ctx context.Context, insightID string) ([]model.FeedbackRecord, error) {
	records, err := s.scanFeedback(ctx, feedbackPrefix+insightID+"/")
	if err != nil {
		return nil, err
	}
	sort.SliceStable(records, func(i, j int) bool { return records[i].RecordedAt.Before(records[j].RecordedAt) })
	return records, nil
}

func (s *insightStore) FeedbackTotals(ctx context.Context) (int, int, error) {
	records, err := s.scanFeedback(ctx, feedbackPrefix)
	if err != nil {
		return 0, 0, err
	}
	helpful := 0
	for _, r := range records {
		if r.Helpful {
			helpful++
		}
	}
	return helpful, len(records), nil
}

func (s *insightStore) scanFeedback(ctx context.Context, prefix string) ([]model.FeedbackRecord, error) {
	entries, err := s.kv.Scan(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("listing feedback: %w", err)
	}
	records := make([]model.FeedbackRecord, 0, len(entries))
	for _, e := range entries {
		var r model.FeedbackRecord
		if err := json.Unmarshal(e.Value, &r); err != nil {
			return nil, fmt.Errorf("decoding feedback %s: %w", e.Key, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (s *insightStore) PurgeBefore(ctx context.Context, cutoff time.Time) (int, error) {
	insights, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	purged := 0
	for _, insight := range insights {
		if !insight.Timestamp.Before(cutoff) {
			continue
		}
		err := atomically(ctx, s.kv, func(tx KV) error {
			if err := tx.Delete(ctx, insightPrefix+insight.ID); err != nil {
				return fmt.Errorf("purging insight %s: %w", insight.ID, err)
			}
			if err := tx.Delete(ctx, ackPrefix+insight.ID); err != nil {
				return fmt.Errorf("purging acknowledgment %s: %w", insight.ID, err)
			}
			return nil
		})
		if err != nil {
			return purged, err
		}
		purged++
	}
	return purged, nil
}
