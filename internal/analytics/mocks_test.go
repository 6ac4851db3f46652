package analytics_test

import (
	"context"
	"time"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/source"
)

type mockHistory struct {
	changesSinceFn func(ctx context.Context, workspaceID string, since time.Time) ([]model.ChangeRecord, error)
	calls          int
	lastSince      time.Time
}

func (m *mockHistory) ChangesSince(ctx context.Context, workspaceID string, since time.Time) ([]model.ChangeRecord, error) {
	m.calls++
	m.lastSince = since
	if m.changesSinceFn != nil {
		return m.changesSinceFn(ctx, workspaceID, since)
	}
	return nil, nil
}

type mockFindings struct {
	findingsFn func(ctx context.Context, workspaceID string, category model.Category) ([]model.Finding, error)
}

func (m *mockFindings) Findings(ctx context.Context, workspaceID string, category model.Category) ([]model.Finding, error) {
	if m.findingsFn != nil {
		return m.findingsFn(ctx, workspaceID, category)
	}
	return nil, nil
}

type mockStructure struct {
	structureFn func(ctx context.Context, workspaceID string) (model.StructureSignals, error)
}

func (m *mockStructure) Structure(ctx context.Context, workspaceID string) (model.StructureSignals, error) {
	if m.structureFn != nil {
		return m.structureFn(ctx, workspaceID)
	}
	return model.StructureSignals{}, nil
}

type mockMetrics struct {
	fileMetricsFn      func(ctx context.Context, path string) (model.FileMetrics, error)
	workspaceMetricsFn func(ctx context.Context, workspaceID string) (model.FileMetrics, error)
}

func (m *mockMetrics) FileMetrics(ctx context.Context, path string) (model.FileMetrics, error) {
	if m.fileMetricsFn != nil {
		return m.fileMetricsFn(ctx, path)
	}
	return model.FileMetrics{Path: path}, nil
}

func (m *mockMetrics) WorkspaceMetrics(ctx context.Context, workspaceID string) (model.FileMetrics, error) {
	if m.workspaceMetricsFn != nil {
		return m.workspaceMetricsFn(ctx, workspaceID)
	}
	return model.FileMetrics{}, nil
}

type mockActivity struct {
	activityFn func(ctx context.Context, userID string, period model.TimeRange) (model.ActivityCounts, error)
}

func (m *mockActivity) Activity(ctx context.Context, userID string, period model.TimeRange) (model.ActivityCounts, error) {
	if m.activityFn != nil {
		return m.activityFn(ctx, userID, period)
	}
	return model.ActivityCounts{}, nil
}

type mockSources struct {
	history   *mockHistory
	findings  *mockFindings
	structure *mockStructure
	metrics   *mockMetrics
	activity  *mockActivity
}

func newMockSources() *mockSources {
	return &mockSources{
		history:   &mockHistory{},
		findings:  &mockFindings{},
		structure: &mockStructure{},
		metrics:   &mockMetrics{},
		activity:  &mockActivity{},
	}
}

func (m *mockSources) composite() source.Composite {
	return source.Composite{
		History:   m.history,
		Findings:  m.findings,
		Structure: m.structure,
		Metrics:   m.metrics,
		Activity:  m.activity,
	}
}

// fakeClock advances only when told to.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }
