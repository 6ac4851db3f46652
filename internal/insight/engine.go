// Package insight turns analytics outputs into ranked, actionable insights and tracks how
// useful they turned out to be.
package insight

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"basegraph.app/insight/common/id"
	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

const DefaultPersonalizedLimit = 5

// Engine is the InsightGenerationEngine.
type Engine interface {
	// GenerateInsights runs every category generator and stores what fired.
	GenerateInsights(ctx context.Context) ([]model.GeneratedInsight, error)
	GenerateInsightsByCategory(ctx context.Context, category model.InsightCategory) ([]model.GeneratedInsight, error)

	GetPrioritizedInsights(ctx context.Context, limit int) ([]model.GeneratedInsight, error)
	GetPersonalizedInsights(ctx context.Context, userID string) ([]model.GeneratedInsight, error)
	GetHistoricalInsights(ctx context.Context, r model.TimeRange) ([]model.GeneratedInsight, error)

	AcknowledgeInsight(ctx context.Context, insightID string) error
	ProvideInsightFeedback(ctx context.Context, insightID string, helpful bool, comment *string) (model.FeedbackRecord, error)
	GetInsightAcceptanceRate(ctx context.Context) (float64, error)

	// PurgeInsights drops insights generated before cutoff and their acknowledgments.
	PurgeInsights(ctx context.Context, cutoff time.Time) (int, error)
}

type Config struct {
	// Workspaces are analyzed by the workspace-scoped generators.
	Workspaces        []string
	PersonalizedLimit int
	Now               func() time.Time
}

type generator func(ctx context.Context) []model.GeneratedInsight

type engine struct {
	code      analytics.Engine
	cognitive cognitive.Engine
	insights  store.InsightStore
	cfg       Config

	// genMu serializes generation so ids and store writes of one cycle never interleave.
	genMu      sync.Mutex
	generators map[model.InsightCategory]generator
}

func New(code analytics.Engine, cog cognitive.Engine, insights store.InsightStore, cfg Config) Engine {
	if cfg.PersonalizedLimit <= 0 {
		cfg.PersonalizedLimit = DefaultPersonalizedLimit
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	e := &engine{
		code:      code,
		cognitive: cog,
		insights:  insights,
		cfg:       cfg,
	}
	e.generators = map[model.InsightCategory]generator{
		model.InsightCategoryPerformance:   e.performanceInsights,
		model.InsightCategoryQuality:       e.qualityInsights,
		model.InsightCategoryProductivity:  e.productivityInsights,
		model.InsightCategorySecurity:      e.securityInsights,
		model.InsightCategoryCollaboration: e.collaborationInsights,
	}
	return e
}

func (e *engine) GenerateInsights(ctx context.Context) ([]model.GeneratedInsight, error) {
	return e.generate(ctx, model.InsightCategories...)
}

func (e *engine) GenerateInsightsByCategory(ctx context.Context, category model.InsightCategory) ([]model.GeneratedInsight, error) {
	if _, ok := e.generators[category]; !ok {
		return nil, fmt.Errorf("%w: unknown insight category %q", model.ErrInvalidInput, category)
	}
	return e.generate(ctx, category)
}

func (e *engine) generate(ctx context.Context, categories ...model.InsightCategory) ([]model.GeneratedInsight, error) {
	sc := logger.StartSpan(ctx, "insight.generate")
	defer sc.End()
	if len(categories) == 1 {
		sc.SetAttributes(logger.AttrInsightCategory.String(string(categories[0])))
	}
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Component: "insight.generation"})

	e.genMu.Lock()
	defer e.genMu.Unlock()

	at := e.cfg.Now().UTC()
	generated := make([]model.GeneratedInsight, 0)
	for _, category := range categories {
		for _, in := range e.generators[category](ctx) {
			in = finalize(in, category, at)
			if err := e.insights.Put(ctx, in); err != nil {
				sc.Fail(err)
				return generated, fmt.Errorf("storing insight %s: %w", in.ID, err)
			}
			generated = append(generated, in)
		}
	}

	sc.SetAttributes(logger.AttrResultCount.Int(len(generated)))
	slog.InfoContext(ctx, "insights generated", "categories", len(categories), "count", len(generated))
	return generated, nil
}

// finalize assigns identity and clamps the ranking inputs. The snowflake sequence keeps ids
// unique within one millisecond.
func finalize(in model.GeneratedInsight, category model.InsightCategory, at time.Time) model.GeneratedInsight {
	seq := id.New()
	in.ID = fmt.Sprintf("%s-%d-%d", category, at.UnixMilli(), seq)
	in.Sequence = seq
	in.Category = category
	in.Timestamp = at
	in.Impact = model.Clamp(in.Impact, 0, 100)
	in.Confidence = model.Clamp(in.Confidence, 0, 1)
	if !in.Priority.Valid() {
		in.Priority = model.PriorityLow
	}
	if in.Recommendations == nil {
		in.Recommendations = []string{}
	}
	return in
}

func (e *engine) PurgeInsights(ctx context.Context, cutoff time.Time) (int, error) {
	n, err := e.insights.PurgeBefore(ctx, cutoff)
	if err != nil {
		return n, fmt.Errorf("purging insights: %w", err)
	}
	slog.InfoContext(ctx, "insights purged", "cutoff", cutoff, "count", n)
	return n, nil
}
