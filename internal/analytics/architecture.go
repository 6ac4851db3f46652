package analytics

import (
	"context"
	"fmt"
	"log/slog"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
)

const (
	weakThreshold     = 60.0
	strengthThreshold = 80.0
)

// ArchitectureScores carries the sub-scores; nil marks a sub-score that could not be computed.
type ArchitectureScores struct {
	Modularity      *float64
	Cohesion        *float64
	Coupling        *float64
	Maintainability *float64
	Testability     *float64
}

type subScore struct {
	name    string
	value   *float64
	invert  bool
	weakMsg string
	goodMsg string
}

func (e *engine) AssessArchitectureQuality(ctx context.Context, workspaceID string) (model.ArchitectureQualityMetrics, error) {
	if err := model.ValidateID("workspace", workspaceID); err != nil {
		return model.ArchitectureQualityMetrics{}, err
	}
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		WorkspaceID: &workspaceID,
		Component:   "insight.analytics.architecture",
	})

	var scores ArchitectureScores
	var missing []string

	structure, err := e.src.Structure.Structure(ctx, workspaceID)
	switch {
	case err != nil:
		slog.WarnContext(ctx, "structure signals unavailable", "error", err)
		missing = append(missing, "modularity", "cohesion", "coupling", "maintainability")
	case structure.ModuleCount == 0:
		missing = append(missing, "modularity", "cohesion", "coupling", "maintainability")
	default:
		scores.Modularity = ptr(modularityScore(structure))
		scores.Cohesion = ptr(cohesionScore(structure))
		scores.Coupling = ptr(couplingScore(structure))
		scores.Maintainability = ptr(complexityScore(structure.AverageComplexity))
	}

	metrics, err := e.src.Metrics.WorkspaceMetrics(ctx, workspaceID)
	if err != nil {
		slog.WarnContext(ctx, "coverage metrics unavailable", "error", err)
		missing = append(missing, "testability")
	} else {
		scores.Testability = ptr(model.Clamp(metrics.CoverageRatio*100, 0, 100))
	}

	result := ClassifyArchitecture(workspaceID, scores)
	result.Missing = missing

	slog.InfoContext(ctx, "architecture quality assessed",
		"overall", result.OverallScore,
		"weak_points", len(result.WeakPoints),
		"strengths", len(result.Strengths),
		"missing", missing)

	return result, nil
}

// ClassifyArchitecture averages the available sub-scores (coupling inverted) and sorts each into
// weak points (< 60) or strengths (> 80). Scores in [60,80] land in neither list.
func ClassifyArchitecture(workspaceID string, s ArchitectureScores) model.ArchitectureQualityMetrics {
	m := model.ArchitectureQualityMetrics{
		WorkspaceID: workspaceID,
		WeakPoints:  []string{},
		Strengths:   []string{},
	}

	subs := []subScore{
		{name: "modularity", value: s.Modularity, weakMsg: "Modularity is low (%.1f): split oversized modules and break dependency cycles", goodMsg: "Modularity is strong (%.1f)"},
		{name: "cohesion", value: s.Cohesion, weakMsg: "Cohesion is low (%.1f): keep related code in the same module", goodMsg: "Cohesion is strong (%.1f)"},
		{name: "coupling", value: s.Coupling, invert: true, weakMsg: "Coupling is high (%.1f): reduce cross-module dependencies", goodMsg: "Coupling is low (%.1f)"},
		{name: "maintainability", value: s.Maintainability, weakMsg: "Maintainability is low (%.1f): reduce function complexity", goodMsg: "Maintainability is strong (%.1f)"},
		{name: "testability", value: s.Testability, weakMsg: "Testability is low (%.1f): raise test coverage", goodMsg: "Testability is strong (%.1f)"},
	}

	sum, n := 0.0, 0
	for _, sub := range subs {
		if sub.value == nil {
			continue
		}
		raw := *sub.value
		effective := raw
		if sub.invert {
			effective = 100 - raw
		}
		sum += effective
		n++

		switch {
		case effective < weakThreshold:
			m.WeakPoints = append(m.WeakPoints, fmt.Sprintf(sub.weakMsg, raw))
		case effective > strengthThreshold:
			m.Strengths = append(m.Strengths, fmt.Sprintf(sub.goodMsg, raw))
		}
	}

	m.Modularity = deref(s.Modularity)
	m.Cohesion = deref(s.Cohesion)
	m.Coupling = deref(s.Coupling)
	m.Maintainability = deref(s.Maintainability)
	m.Testability = deref(s.Testability)
	if n > 0 {
		m.OverallScore = sum / float64(n)
	}
	return m
}

func modularityScore(s model.StructureSignals) float64 {
	return model.Clamp(100-15*float64(s.CyclicDependencies)-10*float64(s.OversizedModules), 0, 100)
}

func cohesionScore(s model.StructureSignals) float64 {
	total := s.IntraModuleEdges + s.InterModuleEdges
	if total == 0 {
		return 100
	}
	return 100 * float64(s.IntraModuleEdges) / float64(total)
}

// couplingScore is the average fan-out as a share of the other modules; higher is worse.
func couplingScore(s model.StructureSignals) float64 {
	others := max(1, s.ModuleCount-1)
	return model.Clamp(100*s.AverageFanOut/float64(others), 0, 100)
}

// complexityScore maps average cyclomatic complexity to [0,100]; 5 or less scores 100.
func complexityScore(avg float64) float64 {
	return model.Clamp(100-(avg-5)*5, 0, 100)
}

func ptr(v float64) *float64 { return &v }

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
