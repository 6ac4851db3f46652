// Package cognitive aggregates reasoning-engine and learning-algorithm telemetry into system
// metrics, a bounded history, optimization recommendations and a health classification.
package cognitive

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/knowledge"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/store"
)

// NotFoundPolicy decides what per-id lookups return for unknown ids.
type NotFoundPolicy string

const (
	// NotFoundError returns model.ErrNotFound.
	NotFoundError NotFoundPolicy = "error"
	// NotFoundFallback returns a zeroed record with Fallback set.
	NotFoundFallback NotFoundPolicy = "fallback"
)

func ParseNotFoundPolicy(raw string) (NotFoundPolicy, error) {
	switch p := NotFoundPolicy(raw); p {
	case NotFoundError, NotFoundFallback:
		return p, nil
	case "":
		return NotFoundError, nil
	default:
		return "", fmt.Errorf("%w: unknown not-found policy %q", model.ErrInvalidInput, raw)
	}
}

// Engine is the CognitiveAnalyticsEngine.
type Engine interface {
	// GetCognitivePerformanceMetrics captures a snapshot and appends it to the history.
	GetCognitivePerformanceMetrics(ctx context.Context) (model.CognitivePerformanceSnapshot, error)

	GetReasoningEngineMetrics(ctx context.Context, engineID string) (model.ReasoningEngineMetrics, error)
	GetAllReasoningEngineMetrics(ctx context.Context) ([]model.ReasoningEngineMetrics, error)
	GetLearningAlgorithmMetrics(ctx context.Context, algorithmID string) (model.LearningAlgorithmMetrics, error)
	GetAllLearningAlgorithmMetrics(ctx context.Context) ([]model.LearningAlgorithmMetrics, error)
	GetUserAdaptationMetrics(ctx context.Context, userID string) (model.UserAdaptationMetrics, error)

	GetOptimizationRecommendations(ctx context.Context) ([]string, error)
	GetCognitiveSystemHealth(ctx context.Context) (model.CognitiveSystemHealth, error)

	TrackReasoningAccuracy(ctx context.Context, r model.TimeRange) ([]model.TrendPoint, error)
	TrackLearningConvergence(ctx context.Context, algorithmID string, r model.TimeRange) ([]model.TrendPoint, error)
}

type Config struct {
	NotFoundPolicy NotFoundPolicy
	Now            func() time.Time
}

type engine struct {
	src     knowledge.Source
	history *store.CognitiveHistory
	policy  NotFoundPolicy
	now     func() time.Time
}

func New(src knowledge.Source, history *store.CognitiveHistory, cfg Config) Engine {
	if cfg.NotFoundPolicy == "" {
		cfg.NotFoundPolicy = NotFoundError
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &engine{
		src:     src,
		history: history,
		policy:  cfg.NotFoundPolicy,
		now:     cfg.Now,
	}
}

func (e *engine) GetCognitivePerformanceMetrics(ctx context.Context) (model.CognitivePerformanceSnapshot, error) {
	sc := logger.StartSpan(ctx, "cognitive.collect_metrics")
	defer sc.End()
	ctx = logger.WithLogFields(sc.Context(), logger.LogFields{Component: "insight.cognitive.metrics"})

	snap, algorithms := e.capture(ctx)

	if err := e.history.Append(ctx, snap); err != nil {
		sc.RecordError(err)
		slog.WarnContext(ctx, "persisting cognitive snapshot failed", "error", err)
	}
	for _, a := range algorithms {
		point := model.TrendPoint{Timestamp: snap.Timestamp, Value: a.ConvergenceRate}
		if err := e.history.RecordConvergence(ctx, a.AlgorithmID, point); err != nil {
			slog.WarnContext(ctx, "persisting convergence point failed", "algorithm_id", a.AlgorithmID, "error", err)
		}
	}

	slog.InfoContext(ctx, "cognitive metrics collected",
		"reasoning_accuracy", snap.ReasoningAccuracy,
		"reasoning_latency_ms", snap.ReasoningLatencyMs,
		"learning_convergence", snap.LearningConvergence,
		"prediction_accuracy", snap.PredictionAccuracy,
		"knowledge_graph_size", snap.KnowledgeGraphSize,
		"missing", len(snap.Missing))

	return snap, nil
}

// capture computes a snapshot without recording it. Each failing query marks only its own
// metrics as missing.
func (e *engine) capture(ctx context.Context) (model.CognitivePerformanceSnapshot, []model.LearningAlgorithmMetrics) {
	snap := model.CognitivePerformanceSnapshot{Timestamp: e.now().UTC()}
	missing := func(metric, reason string) {
		if snap.Missing == nil {
			snap.Missing = make(map[string]string)
		}
		snap.Missing[metric] = reason
	}

	engines, err := e.src.QueryAllEngines(ctx)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "reasoning engine metrics unavailable", "error", err)
		missing(model.MetricReasoningAccuracy, err.Error())
		missing(model.MetricReasoningLatency, err.Error())
	case len(engines) == 0:
		missing(model.MetricReasoningAccuracy, "no reasoning engines registered")
		missing(model.MetricReasoningLatency, "no reasoning engines registered")
	default:
		for _, m := range engines {
			snap.ReasoningAccuracy += m.Accuracy
			snap.ReasoningLatencyMs += m.AverageLatencyMs
		}
		snap.ReasoningAccuracy /= float64(len(engines))
		snap.ReasoningLatencyMs /= float64(len(engines))
	}

	algorithms, err := e.src.QueryAllAlgorithms(ctx)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "learning algorithm metrics unavailable", "error", err)
		missing(model.MetricLearningConvergence, err.Error())
		missing(model.MetricPredictionAccuracy, err.Error())
		algorithms = nil
	case len(algorithms) == 0:
		missing(model.MetricLearningConvergence, "no learning algorithms registered")
		missing(model.MetricPredictionAccuracy, "no learning algorithms registered")
	default:
		for _, m := range algorithms {
			snap.LearningConvergence += m.ConvergenceRate
			snap.PredictionAccuracy += m.Accuracy
		}
		snap.LearningConvergence /= float64(len(algorithms))
		snap.PredictionAccuracy /= float64(len(algorithms))
	}

	if size, err := e.src.QueryKnowledgeGraphSize(ctx); err != nil {
		slog.WarnContext(ctx, "knowledge graph size unavailable", "error", err)
		missing(model.MetricKnowledgeGraphSize, err.Error())
	} else {
		snap.KnowledgeGraphSize = size
	}

	if patterns, err := e.src.QueryActivePatternCount(ctx); err != nil {
		slog.WarnContext(ctx, "active pattern count unavailable", "error", err)
		missing(model.MetricActivePatterns, err.Error())
	} else {
		snap.ActivePatterns = patterns
	}

	return snap, algorithms
}

func (e *engine) GetReasoningEngineMetrics(ctx context.Context, engineID string) (model.ReasoningEngineMetrics, error) {
	if err := model.ValidateID("engine", engineID); err != nil {
		return model.ReasoningEngineMetrics{}, err
	}
	m, err := e.src.QueryEngineMetrics(ctx, engineID)
	if err != nil {
		if e.fallback(err) {
			return model.ReasoningEngineMetrics{EngineID: engineID, Fallback: true}, nil
		}
		return model.ReasoningEngineMetrics{}, fmt.Errorf("querying reasoning engine %s: %w", engineID, err)
	}
	return m, nil
}

func (e *engine) GetAllReasoningEngineMetrics(ctx context.Context) ([]model.ReasoningEngineMetrics, error) {
	all, err := e.src.QueryAllEngines(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying reasoning engines: %w", err)
	}
	if all == nil {
		all = []model.ReasoningEngineMetrics{}
	}
	return all, nil
}

func (e *engine) GetLearningAlgorithmMetrics(ctx context.Context, algorithmID string) (model.LearningAlgorithmMetrics, error) {
	if err := model.ValidateID("algorithm", algorithmID); err != nil {
		return model.LearningAlgorithmMetrics{}, err
	}
	m, err := e.src.QueryAlgorithmMetrics(ctx, algorithmID)
	if err != nil {
		if e.fallback(err) {
			return model.LearningAlgorithmMetrics{AlgorithmID: algorithmID, Fallback: true}, nil
		}
		return model.LearningAlgorithmMetrics{}, fmt.Errorf("querying learning algorithm %s: %w", algorithmID, err)
	}
	return m, nil
}

func (e *engine) GetAllLearningAlgorithmMetrics(ctx context.Context) ([]model.LearningAlgorithmMetrics, error) {
	all, err := e.src.QueryAllAlgorithms(ctx)
	if err != nil {
		return nil, fmt.Errorf("querying learning algorithms: %w", err)
	}
	if all == nil {
		all = []model.LearningAlgorithmMetrics{}
	}
	return all, nil
}

func (e *engine) GetUserAdaptationMetrics(ctx context.Context, userID string) (model.UserAdaptationMetrics, error) {
	if err := model.ValidateID("user", userID); err != nil {
		return model.UserAdaptationMetrics{}, err
	}
	m, err := e.src.QueryUserAdaptation(ctx, userID)
	if err != nil {
		if e.fallback(err) {
			return model.UserAdaptationMetrics{UserID: userID, Fallback: true}, nil
		}
		return model.UserAdaptationMetrics{}, fmt.Errorf("querying user adaptation %s: %w", userID, err)
	}
	return m, nil
}

func (e *engine) fallback(err error) bool {
	return e.policy == NotFoundFallback && errors.Is(err, model.ErrNotFound)
}

func (e *engine) TrackReasoningAccuracy(ctx context.Context, r model.TimeRange) ([]model.TrendPoint, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	history, err := e.history.Snapshots(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading cognitive history: %w", err)
	}
	points := make([]model.TrendPoint, 0)
	for _, s := range history {
		if !r.Contains(s.Timestamp) || !s.Has(model.MetricReasoningAccuracy) {
			continue
		}
		points = append(points, model.TrendPoint{Timestamp: s.Timestamp, Value: s.ReasoningAccuracy})
	}
	return points, nil
}

// TrackLearningConvergence filters the algorithm's convergence history. An algorithm with no
// recorded points is looked up so unknown ids follow the not-found policy.
func (e *engine) TrackLearningConvergence(ctx context.Context, algorithmID string, r model.TimeRange) ([]model.TrendPoint, error) {
	if err := model.ValidateID("algorithm", algorithmID); err != nil {
		return nil, err
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	history, err := e.history.Convergence(ctx, algorithmID)
	if err != nil {
		return nil, fmt.Errorf("reading convergence history: %w", err)
	}
	if len(history) == 0 {
		if _, err := e.GetLearningAlgorithmMetrics(ctx, algorithmID); err != nil {
			return nil, err
		}
	}

	points := make([]model.TrendPoint, 0, len(history))
	for _, p := range history {
		if r.Contains(p.Timestamp) {
			points = append(points, p)
		}
	}
	return points, nil
}
