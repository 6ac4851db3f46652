package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/insight"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/queue"
)

const DefaultInsightRetention = 30 * 24 * time.Hour

type DispatcherConfig struct {
	InsightRetention time.Duration
	Now              func() time.Time
}

// Dispatcher routes queue tasks to the engine operation that owns them.
type Dispatcher struct {
	code     analytics.Engine
	cog      cognitive.Engine
	insights insight.Engine
	cfg      DispatcherConfig
}

func NewDispatcher(code analytics.Engine, cog cognitive.Engine, insights insight.Engine, cfg DispatcherConfig) *Dispatcher {
	if cfg.InsightRetention <= 0 {
		cfg.InsightRetention = DefaultInsightRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Dispatcher{code: code, cog: cog, insights: insights, cfg: cfg}
}

func (d *Dispatcher) Handle(ctx context.Context, msg queue.Message) error {
	switch msg.TaskType {
	case queue.TaskTypeCollectCodeEvolution:
		history, err := d.code.TrackCodeEvolution(ctx, msg.WorkspaceID)
		if err != nil {
			return fmt.Errorf("tracking code evolution: %w", err)
		}
		slog.InfoContext(ctx, "code evolution collected", "snapshots", len(history))
		return nil

	case queue.TaskTypeCollectCognitiveMetrics:
		snap, err := d.cog.GetCognitivePerformanceMetrics(ctx)
		if err != nil {
			return fmt.Errorf("collecting cognitive metrics: %w", err)
		}
		slog.InfoContext(ctx, "cognitive metrics collected",
			"reasoning_accuracy", snap.ReasoningAccuracy,
			"missing", len(snap.Missing))
		return nil

	case queue.TaskTypeGenerateInsights:
		var (
			generated []model.GeneratedInsight
			err       error
		)
		if msg.Category == "" {
			generated, err = d.insights.GenerateInsights(ctx)
		} else {
			category, parseErr := model.ParseInsightCategory(msg.Category)
			if parseErr != nil {
				return parseErr
			}
			generated, err = d.insights.GenerateInsightsByCategory(ctx, category)
		}
		if err != nil {
			return fmt.Errorf("generating insights: %w", err)
		}
		slog.InfoContext(ctx, "insights generated", "count", len(generated), "category", msg.Category)
		return nil

	case queue.TaskTypePurgeInsights:
		cutoff := d.cfg.Now().UTC().Add(-d.cfg.InsightRetention)
		purged, err := d.insights.PurgeInsights(ctx, cutoff)
		if err != nil {
			return fmt.Errorf("purging insights: %w", err)
		}
		slog.InfoContext(ctx, "insights purged", "count", purged, "cutoff", cutoff)
		return nil
	}

	return fmt.Errorf("%w: unknown task_type %q", model.ErrInvalidInput, msg.TaskType)
}
