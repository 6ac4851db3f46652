// Package analytics computes code-side analytics: evolution history, technical debt,
// architecture quality, ranked predictions, productivity and quality scores.
package analytics

import (
	"context"
	"sync"
	"time"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/source"
	"basegraph.app/insight/internal/store"
)

const (
	DefaultRetention   = 90 * 24 * time.Hour
	DefaultTrendPoints = 10
)

// Engine is the CodeAnalyticsEngine.
type Engine interface {
	TrackCodeEvolution(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error)
	AnalyzeTechnicalDebt(ctx context.Context, workspaceID string) (model.TechnicalDebtAnalysis, error)
	AssessArchitectureQuality(ctx context.Context, workspaceID string) (model.ArchitectureQualityMetrics, error)
	AnalyzeDeveloperProductivity(ctx context.Context, userID string, period model.TimeRange) (model.DeveloperProductivity, error)

	PredictBugs(ctx context.Context, workspaceID string) ([]model.BugPrediction, error)
	IdentifyRefactoringOpportunities(ctx context.Context, workspaceID string) (model.RefactoringAnalysis, error)
	PredictPerformanceBottlenecks(ctx context.Context, workspaceID string) ([]model.PerformanceBottleneckPrediction, error)
	AssessSecurityRisks(ctx context.Context, workspaceID string) (model.SecurityRiskAssessment, error)

	GetCodeQualityScore(ctx context.Context, path string) (model.CodeQualityScore, error)
	GetMetricTrend(ctx context.Context, workspaceID, metric string, r model.TimeRange) (model.MetricTrend, error)
}

type Config struct {
	Retention   time.Duration
	TrendPoints int
	// Now overrides the clock in tests.
	Now func() time.Time
}

type engine struct {
	src       source.Composite
	evolution store.EvolutionStore
	cfg       Config

	mu         sync.Mutex
	workspaces map[string]*sync.Mutex
}

func New(src source.Composite, evolution store.EvolutionStore, cfg Config) Engine {
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultRetention
	}
	if cfg.TrendPoints < 2 {
		cfg.TrendPoints = DefaultTrendPoints
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &engine{
		src:        src,
		evolution:  evolution,
		cfg:        cfg,
		workspaces: make(map[string]*sync.Mutex),
	}
}

func (e *engine) now() time.Time {
	return e.cfg.Now().UTC()
}

// lockWorkspace serializes writers of one workspace's evolution history.
func (e *engine) lockWorkspace(workspaceID string) func() {
	e.mu.Lock()
	m, ok := e.workspaces[workspaceID]
	if !ok {
		m = &sync.Mutex{}
		e.workspaces[workspaceID] = m
	}
	e.mu.Unlock()

	m.Lock()
	return m.Unlock
}
