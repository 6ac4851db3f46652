package cognitive

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	accuracyCritical    = 0.7
	accuracyTarget      = 0.8
	latencyCriticalMs   = 500.0
	latencyTargetMs     = 200.0
	convergenceCritical = 0.6
	convergenceTarget   = 0.7
	predictionCritical  = 0.7
	predictionTarget    = 0.75
	graphGrowthTarget   = 0.05
	healthyScore        = 80.0
	degradedScore       = 50.0

	OptimalRecommendation = "Cognitive system is operating optimally; no optimization needed"
)

// GetOptimizationRecommendations evaluates independent rules against a freshly captured
// snapshot. Graph growth is measured against the latest recorded snapshot with a graph size.
func (e *engine) GetOptimizationRecommendations(ctx context.Context) ([]string, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.cognitive.recommendations"})

	snap, _ := e.capture(ctx)
	growth, hasGrowth := e.graphGrowth(ctx, snap)

	recs := Recommendations(snap, growth, hasGrowth)
	slog.DebugContext(ctx, "optimization recommendations evaluated", "count", len(recs))
	return recs, nil
}

// Recommendations applies the optimization rules to snap. Missing metrics are reported instead
// of evaluated. With nothing to report it returns exactly one "operating optimally" message.
func Recommendations(snap model.CognitivePerformanceSnapshot, graphGrowth float64, hasGrowth bool) []string {
	var recs []string

	if snap.Has(model.MetricReasoningAccuracy) && snap.ReasoningAccuracy < accuracyTarget {
		recs = append(recs, fmt.Sprintf("Reasoning accuracy is %.2f (target %.2f): retrain reasoning engines on recent feedback", snap.ReasoningAccuracy, accuracyTarget))
	}
	if snap.Has(model.MetricReasoningLatency) && snap.ReasoningLatencyMs > latencyTargetMs {
		recs = append(recs, fmt.Sprintf("Reasoning latency is %.0fms (target %.0fms): cache frequent inference paths", snap.ReasoningLatencyMs, latencyTargetMs))
	}
	if snap.Has(model.MetricLearningConvergence) && snap.LearningConvergence < convergenceTarget {
		recs = append(recs, fmt.Sprintf("Learning convergence is %.2f (target %.2f): review learning-rate and regularization hyperparameters", snap.LearningConvergence, convergenceTarget))
	}
	if snap.Has(model.MetricPredictionAccuracy) && snap.PredictionAccuracy < predictionTarget {
		recs = append(recs, fmt.Sprintf("Prediction accuracy is %.2f (target %.2f): revisit feature engineering", snap.PredictionAccuracy, predictionTarget))
	}
	if hasGrowth && graphGrowth < graphGrowthTarget {
		recs = append(recs, fmt.Sprintf("Knowledge graph grew %.1f%% (target %.0f%%): increase active learning", graphGrowth*100, graphGrowthTarget*100))
	}
	recs = append(recs, missingMessages(snap, "Restore %s collection: %s")...)

	if len(recs) == 0 {
		return []string{OptimalRecommendation}
	}
	return recs
}

func (e *engine) graphGrowth(ctx context.Context, current model.CognitivePerformanceSnapshot) (float64, bool) {
	if !current.Has(model.MetricKnowledgeGraphSize) {
		return 0, false
	}
	history, err := e.history.Snapshots(ctx)
	if err != nil {
		slog.WarnContext(ctx, "cognitive history unavailable for graph growth", "error", err)
		return 0, false
	}
	for i := len(history) - 1; i >= 0; i-- {
		prev := history[i]
		if !prev.Has(model.MetricKnowledgeGraphSize) {
			continue
		}
		if prev.KnowledgeGraphSize <= 0 {
			return 0, false
		}
		return float64(current.KnowledgeGraphSize-prev.KnowledgeGraphSize) / float64(prev.KnowledgeGraphSize), true
	}
	return 0, false
}

func (e *engine) GetCognitiveSystemHealth(ctx context.Context) (model.CognitiveSystemHealth, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.cognitive.health"})

	snap, _ := e.capture(ctx)
	h := Health(snap)

	slog.InfoContext(ctx, "cognitive health evaluated", "status", h.Status, "score", h.Score, "issues", len(h.Issues))
	return h, nil
}

// Health scores snap from 100 minus accumulated threshold penalties. Missing metrics carry no
// penalty but are listed as issues. The status has no memory of earlier evaluations.
func Health(snap model.CognitivePerformanceSnapshot) model.CognitiveSystemHealth {
	h := model.CognitiveSystemHealth{
		Score:           100,
		Issues:          []string{},
		Recommendations: []string{},
		Snapshot:        snap,
	}
	penalize := func(points float64, issue, rec string) {
		h.Score -= points
		h.Issues = append(h.Issues, issue)
		h.Recommendations = append(h.Recommendations, rec)
	}

	if snap.Has(model.MetricReasoningAccuracy) {
		switch acc := snap.ReasoningAccuracy; {
		case acc < accuracyCritical:
			penalize(30, fmt.Sprintf("Reasoning accuracy critically low: %.2f", acc), "Retrain reasoning engines immediately")
		case acc < accuracyTarget:
			penalize(15, fmt.Sprintf("Reasoning accuracy below target: %.2f", acc), "Schedule reasoning engine retraining")
		}
	}
	if snap.Has(model.MetricReasoningLatency) {
		switch lat := snap.ReasoningLatencyMs; {
		case lat > latencyCriticalMs:
			penalize(20, fmt.Sprintf("Reasoning latency critically high: %.0fms", lat), "Scale reasoning capacity and cache hot paths")
		case lat > latencyTargetMs:
			penalize(10, fmt.Sprintf("Reasoning latency elevated: %.0fms", lat), "Cache frequent inference paths")
		}
	}
	if snap.Has(model.MetricLearningConvergence) && snap.LearningConvergence < convergenceCritical {
		penalize(15, fmt.Sprintf("Learning convergence low: %.2f", snap.LearningConvergence), "Review learning hyperparameters")
	}
	if snap.Has(model.MetricPredictionAccuracy) && snap.PredictionAccuracy < predictionCritical {
		penalize(15, fmt.Sprintf("Prediction accuracy low: %.2f", snap.PredictionAccuracy), "Revisit feature engineering")
	}

	h.Issues = append(h.Issues, missingMessages(snap, "Metric %s unavailable: %s")...)
	h.Status = ClassifyHealth(h.Score)
	return h
}

func ClassifyHealth(score float64) model.HealthStatus {
	switch {
	case score >= healthyScore:
		return model.HealthStatusHealthy
	case score >= degradedScore:
		return model.HealthStatusDegraded
	default:
		return model.HealthStatusCritical
	}
}

func missingMessages(snap model.CognitivePerformanceSnapshot, format string) []string {
	metrics := make([]string, 0, len(snap.Missing))
	for metric := range snap.Missing {
		metrics = append(metrics, metric)
	}
	sort.Strings(metrics)

	out := make([]string, 0, len(metrics))
	for _, metric := range metrics {
		out = append(out, fmt.Sprintf(format, metric, snap.Missing[metric]))
	}
	return out
}
