package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	weightComplexity    = 0.25
	weightDuplication   = 0.20
	weightCoverage      = 0.25
	weightDocumentation = 0.15
	weightStyle         = 0.15
)

func (e *engine) GetCodeQualityScore(ctx context.Context, path string) (model.CodeQualityScore, error) {
	path, err := model.CleanPath(path)
	if err != nil {
		return model.CodeQualityScore{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.analytics.quality"})

	metrics, err := e.src.Metrics.FileMetrics(ctx, path)
	if err != nil {
		return model.CodeQualityScore{}, fmt.Errorf("reading metrics for %s: %w", path, err)
	}
	metrics.Path = path

	score := qualityFromMetrics(metrics)
	slog.DebugContext(ctx, "code quality scored", "path", path, "overall", score.Overall)
	return score, nil
}

func qualityFromMetrics(m model.FileMetrics) model.CodeQualityScore {
	s := model.CodeQualityScore{
		Path:          m.Path,
		Complexity:    complexityScore(m.AverageComplexity),
		Duplication:   model.Clamp((1-m.DuplicationRatio)*100, 0, 100),
		Coverage:      model.Clamp(m.CoverageRatio*100, 0, 100),
		Documentation: model.Clamp(m.DocumentationRatio*100, 0, 100),
		Style:         model.Clamp(100-10*m.LintViolationsKLOC, 0, 100),
	}
	s.Overall = CompositeQualityScore(s)
	return s
}

// CompositeQualityScore weights the five sub-scores of s; s.Overall is ignored.
func CompositeQualityScore(s model.CodeQualityScore) float64 {
	return weightComplexity*s.Complexity +
		weightDuplication*s.Duplication +
		weightCoverage*s.Coverage +
		weightDocumentation*s.Documentation +
		weightStyle*s.Style
}
