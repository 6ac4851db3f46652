package worker_test

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/insight/internal/analytics"
	"basegraph.app/insight/internal/cognitive"
	"basegraph.app/insight/internal/insight"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/queue"
)

type mockConsumer struct {
	mu       sync.Mutex
	readFn   func(ctx context.Context) ([]queue.Message, error)
	ackErr   error
	acked    []queue.Message
	requeued []queue.Message
	dlq      []queue.Message
}

func (m *mockConsumer) Read(ctx context.Context) ([]queue.Message, error) {
	if m.readFn != nil {
		return m.readFn(ctx)
	}
	return nil, nil
}

func (m *mockConsumer) Ack(_ context.Context, msg queue.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.acked = append(m.acked, msg)
	return m.ackErr
}

func (m *mockConsumer) Requeue(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requeued = append(m.requeued, msg)
	return nil
}

func (m *mockConsumer) SendDLQ(_ context.Context, msg queue.Message, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dlq = append(m.dlq, msg)
	return nil
}

type mockHandler struct {
	handleFn func(ctx context.Context, msg queue.Message) error
}

func (m *mockHandler) Handle(ctx context.Context, msg queue.Message) error {
	if m.handleFn != nil {
		return m.handleFn(ctx, msg)
	}
	return nil
}

type mockProducer struct {
	enqueueFn func(ctx context.Context, task queue.Task) error
	tasks     []queue.Task
}

func (m *mockProducer) Enqueue(ctx context.Context, task queue.Task) error {
	m.tasks = append(m.tasks, task)
	if m.enqueueFn != nil {
		return m.enqueueFn(ctx, task)
	}
	return nil
}

func (m *mockProducer) Close() error { return nil }

type mockCodeEngine struct {
	analytics.Engine
	trackFn func(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error)
}

func (m *mockCodeEngine) TrackCodeEvolution(ctx context.Context, workspaceID string) ([]model.CodeEvolutionSnapshot, error) {
	if m.trackFn != nil {
		return m.trackFn(ctx, workspaceID)
	}
	return nil, nil
}

type mockCognitiveEngine struct {
	cognitive.Engine
	metricsFn func(ctx context.Context) (model.CognitivePerformanceSnapshot, error)
}

func (m *mockCognitiveEngine) GetCognitivePerformanceMetrics(ctx context.Context) (model.CognitivePerformanceSnapshot, error) {
	if m.metricsFn != nil {
		return m.metricsFn(ctx)
	}
	return model.CognitivePerformanceSnapshot{}, nil
}

type mockInsightEngine struct {
	insight.Engine
	generateFn           func(ctx context.Context) ([]model.GeneratedInsight, error)
	generateByCategoryFn func(ctx context.Context, category model.InsightCategory) ([]model.GeneratedInsight, error)
	purgeFn              func(ctx context.Context, cutoff time.Time) (int, error)
}

func (m *mockInsightEngine) GenerateInsights(ctx context.Context) ([]model.GeneratedInsight, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx)
	}
	return nil, nil
}

func (m *mockInsightEngine) GenerateInsightsByCategory(ctx context.Context, category model.InsightCategory) ([]model.GeneratedInsight, error) {
	if m.generateByCategoryFn != nil {
		return m.generateByCategoryFn(ctx, category)
	}
	return nil, nil
}

func (m *mockInsightEngine) PurgeInsights(ctx context.Context, cutoff time.Time) (int, error) {
	if m.purgeFn != nil {
		return m.purgeFn(ctx, cutoff)
	}
	return 0, nil
}

type mockStatus struct {
	mu       sync.Mutex
	statuses []queue.TaskStatus
}

func (m *mockStatus) Publish(_ context.Context, status queue.TaskStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses = append(m.statuses, status)
	return nil
}

type mockClaimer struct {
	staleFn func(ctx context.Context) ([]redis.XPendingExt, error)
	claimFn func(ctx context.Context, id string) (*redis.XMessage, error)
}

func (m *mockClaimer) Stale(ctx context.Context) ([]redis.XPendingExt, error) {
	if m.staleFn != nil {
		return m.staleFn(ctx)
	}
	return nil, nil
}

func (m *mockClaimer) Claim(ctx context.Context, id string) (*redis.XMessage, error) {
	if m.claimFn != nil {
		return m.claimFn(ctx, id)
	}
	return nil, nil
}
