// Package telemetry collects reasoning, learning and interaction events from instrumented
// components and aggregates them into per-entity metrics.
package telemetry

import "time"

// InferenceEvent is emitted by a reasoning engine once per inference.
type InferenceEvent struct {
	EngineID   string    `json:"engine_id"`
	Succeeded  bool      `json:"succeeded"`
	Correct    bool      `json:"correct"`
	Confidence float64   `json:"confidence"`
	LatencyMs  float64   `json:"latency_ms"`
	At         time.Time `json:"at"`
}

// TrainingEvent is emitted by a learning algorithm at the end of a training round.
type TrainingEvent struct {
	AlgorithmID        string    `json:"algorithm_id"`
	ConvergenceRate    float64   `json:"convergence_rate"`
	TrainingAccuracy   float64   `json:"training_accuracy"`
	ValidationAccuracy float64   `json:"validation_accuracy"`
	TrainingTimeMs     float64   `json:"training_time_ms"`
	SampleSize         int64     `json:"sample_size"`
	At                 time.Time `json:"at"`
}

// InteractionEvent records one user reaction to an adaptive suggestion.
type InteractionEvent struct {
	UserID             string `json:"user_id"`
	SuggestionShown    bool   `json:"suggestion_shown"`
	SuggestionAccepted bool   `json:"suggestion_accepted"`
	PreferenceMatched  *bool  `json:"preference_matched,omitempty"`
	// WorkflowDelta is the relative time saved on the workflow, e.g. 0.12 for 12% faster.
	WorkflowDelta *float64 `json:"workflow_delta,omitempty"`
	// Satisfaction is an explicit rating normalized to [0,1].
	Satisfaction *float64  `json:"satisfaction,omitempty"`
	At           time.Time `json:"at"`
}
