package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/model"
	"basegraph.app/insight/internal/queue"
)

type Config struct {
	MaxAttempts int
	// Status receives one entry per processing attempt. Optional.
	Status queue.StatusPublisher
}

type Worker struct {
	consumer Consumer
	handler  TaskHandler
	cfg      Config

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func New(consumer Consumer, handler TaskHandler, cfg Config) *Worker {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	return &Worker{
		consumer:  consumer,
		handler:   handler,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func (w *Worker) Run(ctx context.Context) error {
	defer close(w.stoppedCh)

	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.worker"})
	slog.InfoContext(ctx, "worker started")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.stopCh:
			slog.InfoContext(ctx, "worker stopping")
			return nil
		default:
			if err := w.processOneBatch(ctx); err != nil {
				slog.ErrorContext(ctx, "batch processing error", "error", err)
				// Brief backoff on error
				time.Sleep(time.Second)
			}
		}
	}
}

func (w *Worker) Stop() {
	close(w.stopCh)
	<-w.stoppedCh
}

func (w *Worker) processOneBatch(ctx context.Context) error {
	messages, err := w.consumer.Read(ctx)
	if err != nil {
		return fmt.Errorf("reading from stream: %w", err)
	}

	for _, msg := range messages {
		if err := w.processMessageSafe(ctx, msg); err != nil {
			slog.ErrorContext(ctx, "message processing failed",
				"error", err,
				"message_id", msg.ID,
				"task_type", msg.TaskType)
			w.handleFailedMessage(ctx, msg, err)
		}
	}

	return nil
}

func (w *Worker) processMessageSafe(ctx context.Context, msg queue.Message) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "panic recovered in message processing",
				"panic", r,
				"message_id", msg.ID,
				"task_type", msg.TaskType)
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return w.ProcessMessage(ctx, msg)
}

// ProcessMessage runs the task and acks it on success. Exported so the reclaimer can reuse it.
func (w *Worker) ProcessMessage(ctx context.Context, msg queue.Message) error {
	sc := logger.StartSpanFromTraceID(ctx, msg.TraceID, "worker.process_task",
		logger.AttrTaskType.String(string(msg.TaskType)),
		logger.AttrAttempt.Int(msg.Attempt),
		logger.AttrWorkspaceID.String(msg.WorkspaceID),
	)
	defer sc.End()

	fields := logger.LogFields{
		MessageID: &msg.ID,
		TaskType:  logger.Ptr(string(msg.TaskType)),
	}
	if msg.WorkspaceID != "" {
		fields.WorkspaceID = &msg.WorkspaceID
	}
	ctx = logger.WithLogFields(sc.Context(), fields)

	slog.InfoContext(ctx, "processing task", "attempt", msg.Attempt)

	start := time.Now()
	if err := w.handler.Handle(ctx, msg); err != nil {
		sc.Fail(err)
		return err
	}

	if err := w.consumer.Ack(ctx, msg); err != nil {
		// the reclaimer will pick it up again; every task is safe to repeat
		slog.WarnContext(ctx, "failed to ACK message", "error", err)
	}

	elapsed := time.Since(start)
	w.publish(ctx, msg, queue.TaskStateSucceeded, elapsed, "")
	slog.InfoContext(ctx, "task completed", "duration_ms", elapsed.Milliseconds())
	return nil
}

func (w *Worker) handleFailedMessage(ctx context.Context, msg queue.Message, err error) {
	if msg.Attempt >= w.cfg.MaxAttempts || errors.Is(err, model.ErrInvalidInput) {
		slog.ErrorContext(ctx, "task cannot succeed, sending to DLQ",
			"message_id", msg.ID,
			"task_type", msg.TaskType,
			"attempts", msg.Attempt)
		if dlqErr := w.consumer.SendDLQ(ctx, msg, err.Error()); dlqErr != nil {
			slog.ErrorContext(ctx, "failed to send to DLQ", "error", dlqErr)
		}
		w.publish(ctx, msg, queue.TaskStateFailed, 0, err.Error())
		return
	}

	slog.WarnContext(ctx, "requeuing failed message",
		"message_id", msg.ID,
		"task_type", msg.TaskType,
		"attempt", msg.Attempt)
	if requeueErr := w.consumer.Requeue(ctx, msg, err.Error()); requeueErr != nil {
		slog.ErrorContext(ctx, "failed to requeue message", "error", requeueErr)
	}
	w.publish(ctx, msg, queue.TaskStateRetrying, 0, err.Error())
}

func (w *Worker) publish(ctx context.Context, msg queue.Message, state queue.TaskState, elapsed time.Duration, errMsg string) {
	if w.cfg.Status == nil {
		return
	}
	status := queue.TaskStatus{
		MessageID:   msg.ID,
		TaskType:    msg.TaskType,
		WorkspaceID: msg.WorkspaceID,
		State:       state,
		Attempt:     msg.Attempt,
		Error:       errMsg,
		Duration:    elapsed,
	}
	if err := w.cfg.Status.Publish(ctx, status); err != nil {
		slog.WarnContext(ctx, "failed to publish task status", "error", err)
	}
}
