package worker_test

import (
	"context"
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/queue"
	"basegraph.app/insight/internal/worker"
)

var _ = Describe("Dispatcher", func() {
	var (
		ctx      context.Context
		code     *mockCodeEngine
		cog      *mockCognitiveEngine
		insights *mockInsightEngine
		now      time.Time
		d        *worker.Dispatcher
	)

	BeforeEach(func() {
		ctx = context.Background()
		code = &mockCodeEngine{}
		cog = &mockCognitiveEngine{}
		insights = &mockInsightEngine{}
		now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		d = worker.NewDispatcher(code, cog, insights, worker.DispatcherConfig{
			InsightRetention: 48 * time.Hour,
			Now:              func() time.Time { return now },
		})
	})

	It("tracks code evolution for the task's workspace", func() {
		var got string
		code.trackFn = func(_ context.Context, ws string) ([]model.CodeEvolutionSnapshot, error) {
			got = ws
			return []model.CodeEvolutionSnapshot{{}}, nil
		}

		Expect(d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeCollectCodeEvolution, WorkspaceID: "acme/api"})).To(Succeed())
		Expect(got).To(Equal("acme/api"))
	})

	It("wraps evolution failures", func() {
		code.trackFn = func(context.Context, string) ([]model.CodeEvolutionSnapshot, error) {
			return nil, model.ErrCollaboratorUnavailable
		}

		err := d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeCollectCodeEvolution, WorkspaceID: "acme/api"})
		Expect(err).To(MatchError(model.ErrCollaboratorUnavailable))
	})

	It("captures a cognitive snapshot", func() {
		called := false
		cog.metricsFn = func(context.Context) (model.CognitivePerformanceSnapshot, error) {
			called = true
			return model.CognitivePerformanceSnapshot{ReasoningAccuracy: 0.9}, nil
		}

		Expect(d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeCollectCognitiveMetrics})).To(Succeed())
		Expect(called).To(BeTrue())
	})

	It("generates every category when none is given", func() {
		all, byCategory := false, false
		insights.generateFn = func(context.Context) ([]model.GeneratedInsight, error) {
			all = true
			return nil, nil
		}
		insights.generateByCategoryFn = func(context.Context, model.InsightCategory) ([]model.GeneratedInsight, error) {
			byCategory = true
			return nil, nil
		}

		Expect(d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeGenerateInsights})).To(Succeed())
		Expect(all).To(BeTrue())
		Expect(byCategory).To(BeFalse())
	})

	It("generates a single category when one is given", func() {
		var got model.InsightCategory
		insights.generateByCategoryFn = func(_ context.Context, c model.InsightCategory) ([]model.GeneratedInsight, error) {
			got = c
			return nil, nil
		}

		Expect(d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeGenerateInsights, Category: "security"})).To(Succeed())
		Expect(got).To(Equal(model.InsightCategorySecurity))
	})

	It("rejects an unknown category as invalid input", func() {
		err := d.Handle(ctx, queue.Message{TaskType: queue.TaskTypeGenerateInsights, Category: "vibes"})
		Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
	})

	It("purges insights older than the retention window", func() {
		var cutoff time.Time
		insights.purgeFn = func(_ context.Context, c time.Time) (int, error) {
			cutoff = c
			return 4, nil
		}

		Expect(d.Handle(ctx, queue.Message{TaskType: queue.TaskTypePurgeInsights})).To(Succeed())
		Expect(cutoff).To(BeTemporally("==", now.Add(-48*time.Hour)))
	})

	It("rejects an unknown task type as invalid input", func() {
		err := d.Handle(ctx, queue.Message{TaskType: "issue_event"})
		Expect(errors.Is(err, model.ErrInvalidInput)).To(BeTrue())
	})
})
