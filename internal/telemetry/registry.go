package telemetry

import (
	"fmt"
	"sort"
	"sync"

	"basegraph.app/insight/internal/model"
)

type engineStats struct {
	total         int64
	failed        int64
	correct       int64
	confidenceSum float64
	latencySum    float64
}

type algorithmStats struct {
	rounds          int64
	convergence     float64
	accuracy        float64
	validation      float64
	trainingTimeSum float64
	samples         int64
}

type userStats struct {
	shown            int64
	accepted         int64
	preferenceChecks int64
	preferenceHits   int64
	workflowCount    int64
	workflowSum      float64
	ratingCount      int64
	ratingSum        float64
}

// Registry aggregates instrumentation events. All accessors return copies.
type Registry struct {
	mu         sync.RWMutex
	engines    map[string]*engineStats
	algorithms map[string]*algorithmStats
	users      map[string]*userStats
}

func NewRegistry() *Registry {
	return &Registry{
		engines:    make(map[string]*engineStats),
		algorithms: make(map[string]*algorithmStats),
		users:      make(map[string]*userStats),
	}
}

func (r *Registry) RecordInference(e InferenceEvent) error {
	if err := model.ValidateID("engine", e.EngineID); err != nil {
		return err
	}
	if e.LatencyMs < 0 {
		return fmt.Errorf("%w: latency must not be negative", model.ErrInvalidInput)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.engines[e.EngineID]
	if !ok {
		s = &engineStats{}
		r.engines[e.EngineID] = s
	}
	s.total++
	s.latencySum += e.LatencyMs
	if !e.Succeeded {
		s.failed++
		return nil
	}
	s.confidenceSum += model.Clamp(e.Confidence, 0, 1)
	if e.Correct {
		s.correct++
	}
	return nil
}

func (r *Registry) RecordTraining(e TrainingEvent) error {
	if err := model.ValidateID("algorithm", e.AlgorithmID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.algorithms[e.AlgorithmID]
	if !ok {
		s = &algorithmStats{}
		r.algorithms[e.AlgorithmID] = s
	}
	s.rounds++
	s.convergence = model.Clamp(e.ConvergenceRate, 0, 1)
	s.accuracy = model.Clamp(e.TrainingAccuracy, 0, 1)
	s.validation = model.Clamp(e.ValidationAccuracy, 0, 1)
	s.trainingTimeSum += e.TrainingTimeMs
	s.samples += e.SampleSize
	return nil
}

func (r *Registry) RecordInteraction(e InteractionEvent) error {
	if err := model.ValidateID("user", e.UserID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.users[e.UserID]
	if !ok {
		s = &userStats{}
		r.users[e.UserID] = s
	}
	if e.SuggestionShown {
		s.shown++
		if e.SuggestionAccepted {
			s.accepted++
		}
	}
	if e.PreferenceMatched != nil {
		s.preferenceChecks++
		if *e.PreferenceMatched {
			s.preferenceHits++
		}
	}
	if e.WorkflowDelta != nil {
		s.workflowCount++
		s.workflowSum += *e.WorkflowDelta
	}
	if e.Satisfaction != nil {
		s.ratingCount++
		s.ratingSum += model.Clamp(*e.Satisfaction, 0, 1)
	}
	return nil
}

// Engine returns metrics for one engine; ok is false when it never reported.
func (r *Registry) Engine(id string) (model.ReasoningEngineMetrics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.engines[id]
	if !ok {
		return model.ReasoningEngineMetrics{}, false
	}
	return s.metrics(id), true
}

// Engines returns metrics for every registered engine ordered by id.
func (r *Registry) Engines() []model.ReasoningEngineMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.ReasoningEngineMetrics, 0, len(r.engines))
	for _, id := range sortedKeys(r.engines) {
		out = append(out, r.engines[id].metrics(id))
	}
	return out
}

func (r *Registry) Algorithm(id string) (model.LearningAlgorithmMetrics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.algorithms[id]
	if !ok {
		return model.LearningAlgorithmMetrics{}, false
	}
	return s.metrics(id), true
}

func (r *Registry) Algorithms() []model.LearningAlgorithmMetrics {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.LearningAlgorithmMetrics, 0, len(r.algorithms))
	for _, id := range sortedKeys(r.algorithms) {
		out = append(out, r.algorithms[id].metrics(id))
	}
	return out
}

func (r *Registry) User(id string) (model.UserAdaptationMetrics, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.users[id]
	if !ok {
		return model.UserAdaptationMetrics{}, false
	}
	return s.metrics(id), true
}

func (s *engineStats) metrics(id string) model.ReasoningEngineMetrics {
	m := model.ReasoningEngineMetrics{
		EngineID:         id,
		TotalInferences:  s.total,
		FailedInferences: s.failed,
	}
	if s.total == 0 {
		return m
	}
	succeeded := s.total - s.failed
	m.SuccessRate = float64(succeeded) / float64(s.total)
	m.AverageLatencyMs = s.latencySum / float64(s.total)
	if succeeded > 0 {
		m.Accuracy = float64(s.correct) / float64(succeeded)
		m.AverageConfidence = s.confidenceSum / float64(succeeded)
	}
	return m
}

func (s *algorithmStats) metrics(id string) model.LearningAlgorithmMetrics {
	m := model.LearningAlgorithmMetrics{
		AlgorithmID:     id,
		ConvergenceRate: s.convergence,
		Accuracy:        s.validation,
		SampleSize:      s.samples,
		OverfittingRisk: model.Clamp(s.accuracy-s.validation, 0, 1),
	}
	if s.rounds > 0 {
		m.TrainingTimeMs = s.trainingTimeSum / float64(s.rounds)
	}
	return m
}

func (s *userStats) metrics(id string) model.UserAdaptationMetrics {
	m := model.UserAdaptationMetrics{UserID: id}

	var parts []float64
	if s.shown > 0 {
		m.SuggestionAcceptanceRate = float64(s.accepted) / float64(s.shown)
		parts = append(parts, m.SuggestionAcceptanceRate)
	}
	if s.preferenceChecks > 0 {
		m.PreferenceAccuracy = float64(s.preferenceHits) / float64(s.preferenceChecks)
		parts = append(parts, m.PreferenceAccuracy)
	}
	if s.ratingCount > 0 {
		m.Satisfaction = s.ratingSum / float64(s.ratingCount)
		parts = append(parts, m.Satisfaction)
	}
	if s.workflowCount > 0 {
		m.WorkflowOptimization = s.workflowSum / float64(s.workflowCount)
	}

	if len(parts) > 0 {
		sum := 0.0
		for _, p := range parts {
			sum += p
		}
		m.AdaptationScore = sum / float64(len(parts))
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
