package worker_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/queue"
	"basegraph.app/insight/internal/worker"
)

var _ = Describe("Scheduler", func() {
	It("enqueues collection before generation and purge", func() {
		producer := &mockProducer{}
		s := worker.NewScheduler(producer, worker.SchedulerConfig{Workspaces: []string{"acme/api", "acme/web"}})

		Expect(s.Tick(context.Background())).To(Succeed())

		var types []queue.TaskType
		for _, t := range producer.tasks {
			types = append(types, t.TaskType)
		}
		Expect(types).To(Equal([]queue.TaskType{
			queue.TaskTypeCollectCodeEvolution,
			queue.TaskTypeCollectCodeEvolution,
			queue.TaskTypeCollectCognitiveMetrics,
			queue.TaskTypeGenerateInsights,
			queue.TaskTypePurgeInsights,
		}))
		Expect(producer.tasks[0].WorkspaceID).To(Equal("acme/api"))
		Expect(producer.tasks[1].WorkspaceID).To(Equal("acme/web"))
	})

	It("shares one hex trace id across the round", func() {
		producer := &mockProducer{}
		s := worker.NewScheduler(producer, worker.SchedulerConfig{Workspaces: []string{"acme/api"}})

		Expect(s.Tick(context.Background())).To(Succeed())

		first := *producer.tasks[0].TraceID
		Expect(first).To(MatchRegexp("^[0-9a-f]{32}$"))
		for _, t := range producer.tasks {
			Expect(*t.TraceID).To(Equal(first))
		}
	})

	It("enqueues the rest of the round when one task fails", func() {
		producer := &mockProducer{
			enqueueFn: func(_ context.Context, t queue.Task) error {
				if t.TaskType == queue.TaskTypeCollectCognitiveMetrics {
					return errors.New("redis down")
				}
				return nil
			},
		}
		s := worker.NewScheduler(producer, worker.SchedulerConfig{})

		err := s.Tick(context.Background())
		Expect(err).To(MatchError(ContainSubstring("redis down")))
		Expect(producer.tasks).To(HaveLen(3))
	})
})
