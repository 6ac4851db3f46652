// Package knowledge is the typed capability surface over the reasoning/learning subsystem and
// its knowledge graph.
package knowledge

import (
	"context"
	"fmt"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/telemetry"
)

// Source answers metric queries about engines, algorithms, users and the knowledge graph.
// Unknown ids yield model.ErrNotFound; an unreachable backend yields
// model.ErrCollaboratorUnavailable.
type Source interface {
	QueryEngineMetrics(ctx context.Context, engineID string) (model.ReasoningEngineMetrics, error)
	QueryAllEngines(ctx context.Context) ([]model.ReasoningEngineMetrics, error)
	QueryAlgorithmMetrics(ctx context.Context, algorithmID string) (model.LearningAlgorithmMetrics, error)
	QueryAllAlgorithms(ctx context.Context) ([]model.LearningAlgorithmMetrics, error)
	QueryUserAdaptation(ctx context.Context, userID string) (model.UserAdaptationMetrics, error)
	QueryKnowledgeGraphSize(ctx context.Context) (int64, error)
	QueryActivePatternCount(ctx context.Context) (int64, error)
}

// GraphStats reports knowledge-graph level counts.
type GraphStats interface {
	GraphSize(ctx context.Context) (int64, error)
	ActivePatterns(ctx context.Context) (int64, error)
}

type instrumented struct {
	registry *telemetry.Registry
	graph    GraphStats
}

// New serves per-entity metrics from the telemetry registry and graph counts from graph.
// graph may be nil when no knowledge graph is configured; graph queries then report the
// collaborator as unavailable.
func New(registry *telemetry.Registry, graph GraphStats) Source {
	return &instrumented{registry: registry, graph: graph}
}

func (s *instrumented) QueryEngineMetrics(_ context.Context, engineID string) (model.ReasoningEngineMetrics, error) {
	m, ok := s.registry.Engine(engineID)
	if !ok {
		return model.ReasoningEngineMetrics{}, fmt.Errorf("%w: reasoning engine %s", model.ErrNotFound, engineID)
	}
	return m, nil
}

func (s *instrumented) QueryAllEngines(context.Context) ([]model.ReasoningEngineMetrics, error) {
	return s.registry.Engines(), nil
}

func (s *instrumented) QueryAlgorithmMetrics(_ context.Context, algorithmID string) (model.LearningAlgorithmMetrics, error) {
	m, ok := s.registry.Algorithm(algorithmID)
	if !ok {
		return model.LearningAlgorithmMetrics{}, fmt.Errorf("%w: learning algorithm %s", model.ErrNotFound, algorithmID)
	}
	return m, nil
}

func (s *instrumented) QueryAllAlgorithms(context.Context) ([]model.LearningAlgorithmMetrics, error) {
	return s.registry.Algorithms(), nil
}

func (s *instrumented) QueryUserAdaptation(_ context.Context, userID string) (model.UserAdaptationMetrics, error) {
	m, ok := s.registry.User(userID)
	if !ok {
		return model.UserAdaptationMetrics{}, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
	}
	return m, nil
}

func (s *instrumented) QueryKnowledgeGraphSize(ctx context.Context) (int64, error) {
	if s.graph == nil {
		return 0, fmt.Errorf("%w: no knowledge graph configured", model.ErrCollaboratorUnavailable)
	}
	n, err := s.graph.GraphSize(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: knowledge graph size: %v", model.ErrCollaboratorUnavailable, err)
	}
	return n, nil
}

func (s *instrumented) QueryActivePatternCount(ctx context.Context) (int64, error) {
	if s.graph == nil {
		return 0, fmt.Errorf("%w: no knowledge graph configured", model.ErrCollaboratorUnavailable)
	}
	n, err := s.graph.ActivePatterns(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: active patterns: %v", model.ErrCollaboratorUnavailable, err)
	}
	return n, nil
}
