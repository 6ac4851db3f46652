package worker_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/queue"
	"basegraph.app/insight/internal/worker"
)

// runOnce feeds msgs to the worker on the first read and cancels on the second.
func runOnce(w *worker.Worker, consumer *mockConsumer, msgs ...queue.Message) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reads := 0
	consumer.readFn = func(context.Context) ([]queue.Message, error) {
		reads++
		if reads == 1 {
			return msgs, nil
		}
		cancel()
		return nil, nil
	}
	return w.Run(ctx)
}

var _ = Describe("Worker", func() {
	var (
		consumer *mockConsumer
		handler  *mockHandler
		w        *worker.Worker
	)

	BeforeEach(func() {
		consumer = &mockConsumer{}
		handler = &mockHandler{}
		w = worker.New(consumer, handler, worker.Config{MaxAttempts: 3})
	})

	Describe("ProcessMessage", func() {
		It("acks after the handler succeeds", func() {
			msg := queue.Message{ID: "1-0", TaskType: queue.TaskTypeGenerateInsights, Attempt: 1}

			Expect(w.ProcessMessage(context.Background(), msg)).To(Succeed())
			Expect(consumer.acked).To(HaveLen(1))
			Expect(consumer.acked[0].ID).To(Equal("1-0"))
		})

		It("does not ack when the handler fails", func() {
			handler.handleFn = func(context.Context, queue.Message) error { return errors.New("boom") }

			err := w.ProcessMessage(context.Background(), queue.Message{ID: "1-0", TaskType: queue.TaskTypePurgeInsights})
			Expect(err).To(MatchError("boom"))
			Expect(consumer.acked).To(BeEmpty())
		})

		It("still succeeds when the ack fails", func() {
			consumer.ackErr = errors.New("redis down")

			Expect(w.ProcessMessage(context.Background(), queue.Message{ID: "1-0", TaskType: queue.TaskTypePurgeInsights})).To(Succeed())
		})

		It("passes the parsed message to the handler", func() {
			var seen queue.Message
			handler.handleFn = func(_ context.Context, msg queue.Message) error {
				seen = msg
				return nil
			}
			msg := queue.Message{ID: "1-0", TaskType: queue.TaskTypeCollectCodeEvolution, WorkspaceID: "acme/api", TraceID: "4bf92f3577b34da6a3ce929d0e0e4736"}

			Expect(w.ProcessMessage(context.Background(), msg)).To(Succeed())
			Expect(seen.WorkspaceID).To(Equal("acme/api"))
		})
	})

	Describe("Run", func() {
		It("returns the context error once cancelled", func() {
			err := runOnce(w, consumer)
			Expect(err).To(MatchError(context.Canceled))
		})

		It("requeues a failed task below the attempt limit", func() {
			handler.handleFn = func(context.Context, queue.Message) error { return errors.New("source unavailable") }

			_ = runOnce(w, consumer, queue.Message{ID: "1-0", TaskType: queue.TaskTypeCollectCognitiveMetrics, Attempt: 1})

			Expect(consumer.requeued).To(HaveLen(1))
			Expect(consumer.dlq).To(BeEmpty())
		})

		It("sends a task to the DLQ at the attempt limit", func() {
			handler.handleFn = func(context.Context, queue.Message) error { return errors.New("source unavailable") }

			_ = runOnce(w, consumer, queue.Message{ID: "1-0", TaskType: queue.TaskTypeCollectCognitiveMetrics, Attempt: 3})

			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(HaveLen(1))
		})

		It("sends invalid tasks straight to the DLQ", func() {
			handler.handleFn = func(context.Context, queue.Message) error {
				return fmt.Errorf("%w: unknown insight category", model.ErrInvalidInput)
			}

			_ = runOnce(w, consumer, queue.Message{ID: "1-0", TaskType: queue.TaskTypeGenerateInsights, Category: "vibes", Attempt: 1})

			Expect(consumer.requeued).To(BeEmpty())
			Expect(consumer.dlq).To(HaveLen(1))
		})

		It("recovers from a panicking handler", func() {
			handler.handleFn = func(context.Context, queue.Message) error { panic("nil map") }

			_ = runOnce(w, consumer, queue.Message{ID: "1-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 1})

			Expect(consumer.requeued).To(HaveLen(1))
		})

		It("keeps processing the batch after a failure", func() {
			handler.handleFn = func(_ context.Context, msg queue.Message) error {
				if msg.ID == "1-0" {
					return errors.New("boom")
				}
				return nil
			}

			_ = runOnce(w, consumer,
				queue.Message{ID: "1-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 1},
				queue.Message{ID: "2-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 1},
			)

			Expect(consumer.requeued).To(HaveLen(1))
			Expect(consumer.acked).To(HaveLen(1))
			Expect(consumer.acked[0].ID).To(Equal("2-0"))
		})

		It("publishes one status per attempt", func() {
			status := &mockStatus{}
			w = worker.New(consumer, handler, worker.Config{MaxAttempts: 2, Status: status})
			handler.handleFn = func(_ context.Context, msg queue.Message) error {
				if msg.ID == "1-0" {
					return nil
				}
				return errors.New("boom")
			}

			_ = runOnce(w, consumer,
				queue.Message{ID: "1-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 1},
				queue.Message{ID: "2-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 1},
				queue.Message{ID: "3-0", TaskType: queue.TaskTypePurgeInsights, Attempt: 2},
			)

			Expect(status.statuses).To(HaveLen(3))
			Expect(status.statuses[0].State).To(Equal(queue.TaskStateSucceeded))
			Expect(status.statuses[1].State).To(Equal(queue.TaskStateRetrying))
			Expect(status.statuses[2].State).To(Equal(queue.TaskStateFailed))
			Expect(status.statuses[2].Error).To(Equal("boom"))
		})
	})
})
