package model

import "time"

type CognitivePerformanceSnapshot struct {
	Timestamp           time.Time `json:"timestamp"`
	ReasoningAccuracy   float64   `json:"reasoning_accuracy"`
	ReasoningLatencyMs  float64   `json:"reasoning_latency_ms"`
	LearningConvergence float64   `json:"learning_convergence"`
	PredictionAccuracy  float64   `json:"prediction_accuracy"`
	KnowledgeGraphSize  int64     `json:"knowledge_graph_size"`
	ActivePatterns      int64     `json:"active_patterns"`
	// Missing names metrics that could not be computed for this snapshot, with the reason.
	Missing map[string]string `json:"missing,omitempty"`
}

// Has reports whether metric was computed for this snapshot.
func (s CognitivePerformanceSnapshot) Has(metric string) bool {
	_, missing := s.Missing[metric]
	return !missing
}

const (
	MetricReasoningAccuracy   = "reasoning_accuracy"
	MetricReasoningLatency    = "reasoning_latency"
	MetricLearningConvergence = "learning_convergence"
	MetricPredictionAccuracy  = "prediction_accuracy"
	MetricKnowledgeGraphSize  = "knowledge_graph_size"
	MetricActivePatterns      = "active_patterns"
)

type ReasoningEngineMetrics struct {
	EngineID          string  `json:"engine_id"`
	Accuracy          float64 `json:"accuracy"`
	AverageConfidence float64 `json:"average_confidence"`
	AverageLatencyMs  float64 `json:"average_latency_ms"`
	SuccessRate       float64 `json:"success_rate"`
	TotalInferences   int64   `json:"total_inferences"`
	FailedInferences  int64   `json:"failed_inferences"`
	Fallback          bool    `json:"fallback,omitempty"`
}

type LearningAlgorithmMetrics struct {
	AlgorithmID     string  `json:"algorithm_id"`
	ConvergenceRate float64 `json:"convergence_rate"`
	Accuracy        float64 `json:"accuracy"`
	TrainingTimeMs  float64 `json:"training_time_ms"`
	SampleSize      int64   `json:"sample_size"`
	OverfittingRisk float64 `json:"overfitting_risk"`
	Fallback        bool    `json:"fallback,omitempty"`
}

type UserAdaptationMetrics struct {
	UserID                   string  `json:"user_id"`
	AdaptationScore          float64 `json:"adaptation_score"`
	PreferenceAccuracy       float64 `json:"preference_accuracy"`
	WorkflowOptimization     float64 `json:"workflow_optimization"`
	SuggestionAcceptanceRate float64 `json:"suggestion_acceptance_rate"`
	Satisfaction             float64 `json:"satisfaction"`
	Fallback                 bool    `json:"fallback,omitempty"`
}

type HealthStatus string

const (
	HealthStatusHealthy  HealthStatus = "healthy"
	HealthStatusDegraded HealthStatus = "degraded"
	HealthStatusCritical HealthStatus = "critical"
)

type CognitiveSystemHealth struct {
	Status          HealthStatus                 `json:"status"`
	Score           float64                      `json:"score"`
	Issues          []string                     `json:"issues"`
	Recommendations []string                     `json:"recommendations"`
	Snapshot        CognitivePerformanceSnapshot `json:"snapshot"`
}
