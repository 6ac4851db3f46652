package insight

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/google/uuid"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

// GetPrioritizedInsights regenerates, then ranks every stored insight.
func (e *engine) GetPrioritizedInsights(ctx context.Context, limit int) ([]model.GeneratedInsight, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive, got %d", model.ErrInvalidInput, limit)
	}
	if _, err := e.GenerateInsights(ctx); err != nil {
		return nil, err
	}

	all, err := e.insights.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	Rank(all)
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// Rank sorts by score descending; ties go to the newer timestamp, then the higher sequence.
func Rank(insights []model.GeneratedInsight) {
	sort.SliceStable(insights, func(i, j int) bool {
		a, b := insights[i], insights[j]
		if sa, sb := a.Score(), b.Score(); sa != sb {
			return sa > sb
		}
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Sequence > b.Sequence
	})
}

// GetPersonalizedInsights returns the oldest unacknowledged insights. There is no per-user
// relevance model; userID only scopes logging.
func (e *engine) GetPersonalizedInsights(ctx context.Context, userID string) ([]model.GeneratedInsight, error) {
	if err := model.ValidateID("user", userID); err != nil {
		return nil, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{UserID: &userID})

	if _, err := e.GenerateInsights(ctx); err != nil {
		return nil, err
	}

	all, err := e.insights.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}
	acked, err := e.insights.AcknowledgedIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing acknowledgments: %w", err)
	}

	out := make([]model.GeneratedInsight, 0, e.cfg.PersonalizedLimit)
	for _, in := range all {
		if _, ok := acked[in.ID]; ok {
			continue
		}
		out = append(out, in)
		if len(out) == e.cfg.PersonalizedLimit {
			break
		}
	}
	return out, nil
}

func (e *engine) GetHistoricalInsights(ctx context.Context, r model.TimeRange) ([]model.GeneratedInsight, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	all, err := e.insights.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing insights: %w", err)
	}

	out := make([]model.GeneratedInsight, 0)
	for _, in := range all {
		if r.Contains(in.Timestamp) {
			out = append(out, in)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].Timestamp.After(out[j].Timestamp)
		}
		return out[i].Sequence > out[j].Sequence
	})
	return out, nil
}

func (e *engine) AcknowledgeInsight(ctx context.Context, insightID string) error {
	if err := e.requireInsight(ctx, insightID); err != nil {
		return err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{InsightID: &insightID})

	added, err := e.insights.Acknowledge(ctx, insightID)
	if err != nil {
		return fmt.Errorf("acknowledging insight: %w", err)
	}
	slog.InfoContext(ctx, "insight acknowledged", "already_acknowledged", !added)
	return nil
}

func (e *engine) ProvideInsightFeedback(ctx context.Context, insightID string, helpful bool, comment *string) (model.FeedbackRecord, error) {
	if err := e.requireInsight(ctx, insightID); err != nil {
		return model.FeedbackRecord{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{InsightID: &insightID})

	record := model.FeedbackRecord{
		ID:         uuid.NewString(),
		InsightID:  insightID,
		Helpful:    helpful,
		Comment:    comment,
		RecordedAt: e.cfg.Now().UTC(),
	}
	if err := e.insights.AddFeedback(ctx, record); err != nil {
		return model.FeedbackRecord{}, fmt.Errorf("recording feedback: %w", err)
	}
	slog.InfoContext(ctx, "insight feedback recorded", "helpful", helpful)
	return record, nil
}

// GetInsightAcceptanceRate is helpful/total over all feedback ever recorded, 0 without any.
func (e *engine) GetInsightAcceptanceRate(ctx context.Context) (float64, error) {
	helpful, total, err := e.insights.FeedbackTotals(ctx)
	if err != nil {
		return 0, fmt.Errorf("reading feedback totals: %w", err)
	}
	if total == 0 {
		return 0, nil
	}
	return float64(helpful) / float64(total), nil
}

func (e *engine) requireInsight(ctx context.Context, insightID string) error {
	if err := model.ValidateID("insight", insightID); err != nil {
		return err
	}
	if _, err := e.insights.Get(ctx, insightID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: insight %s", model.ErrNotFound, insightID)
		}
		return fmt.Errorf("loading insight %s: %w", insightID, err)
	}
	return nil
}
