package cognitive_test

import (
	"context"
	"fmt"

	"basegraph.app/insight/internal/model"
)

type mockKnowledge struct {
	engines      []model.ReasoningEngineMetrics
	algorithms   []model.LearningAlgorithmMetrics
	users        map[string]model.UserAdaptationMetrics
	graphSize    int64
	patterns     int64
	enginesErr   error
	algorithmErr error
	graphErr     error
}

func (m *mockKnowledge) QueryEngineMetrics(_ context.Context, engineID string) (model.ReasoningEngineMetrics, error) {
	for _, e := range m.engines {
		if e.EngineID == engineID {
			return e, nil
		}
	}
	return model.ReasoningEngineMetrics{}, fmt.Errorf("%w: reasoning engine %s", model.ErrNotFound, engineID)
}

func (m *mockKnowledge) QueryAllEngines(context.Context) ([]model.ReasoningEngineMetrics, error) {
	if m.enginesErr != nil {
		return nil, m.enginesErr
	}
	return m.engines, nil
}

func (m *mockKnowledge) QueryAlgorithmMetrics(_ context.Context, algorithmID string) (model.LearningAlgorithmMetrics, error) {
	for _, a := range m.algorithms {
		if a.AlgorithmID == algorithmID {
			return a, nil
		}
	}
	return model.LearningAlgorithmMetrics{}, fmt.Errorf("%w: learning algorithm %s", model.ErrNotFound, algorithmID)
}

func (m *mockKnowledge) QueryAllAlgorithms(context.Context) ([]model.LearningAlgorithmMetrics, error) {
	if m.algorithmErr != nil {
		return nil, m.algorithmErr
	}
	return m.algorithms, nil
}

func (m *mockKnowledge) QueryUserAdaptation(_ context.Context, userID string) (model.UserAdaptationMetrics, error) {
	if u, ok := m.users[userID]; ok {
		return u, nil
	}
	return model.UserAdaptationMetrics{}, fmt.Errorf("%w: user %s", model.ErrNotFound, userID)
}

func (m *mockKnowledge) QueryKnowledgeGraphSize(context.Context) (int64, error) {
	if m.graphErr != nil {
		return 0, m.graphErr
	}
	return m.graphSize, nil
}

func (m *mockKnowledge) QueryActivePatternCount(context.Context) (int64, error) {
	if m.graphErr != nil {
		return 0, m.graphErr
	}
	return m.patterns, nil
}
