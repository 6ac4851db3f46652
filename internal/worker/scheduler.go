package worker

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/queue"
)

type SchedulerConfig struct {
	Workspaces []string
	Interval   time.Duration
}

// Scheduler enqueues one collection round per interval: evolution for every workspace,
// a cognitive snapshot, insight generation and the insight purge.
type Scheduler struct {
	producer queue.Producer
	cfg      SchedulerConfig

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewScheduler(producer queue.Producer, cfg SchedulerConfig) *Scheduler {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	return &Scheduler{
		producer:  producer,
		cfg:       cfg,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Run enqueues a round immediately and then on every tick. Blocks until Stop() is called.
func (s *Scheduler) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "insight.worker.scheduler"})
	defer close(s.stoppedCh)

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "scheduler started",
		"interval", s.cfg.Interval,
		"workspaces", len(s.cfg.Workspaces))

	for {
		if err := s.Tick(ctx); err != nil {
			slog.ErrorContext(ctx, "scheduling round incomplete", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			slog.InfoContext(ctx, "scheduler stopping")
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) Stop() {
	close(s.stopCh)
	<-s.stoppedCh
}

// Tick enqueues one round. Collection tasks go first so generation sees fresh history.
// Every task of the round carries the same trace id so the worker spans share one trace.
func (s *Scheduler) Tick(ctx context.Context) error {
	traceID := strings.ReplaceAll(uuid.NewString(), "-", "")

	tasks := make([]queue.Task, 0, len(s.cfg.Workspaces)+3)
	for _, ws := range s.cfg.Workspaces {
		tasks = append(tasks, queue.Task{TaskType: queue.TaskTypeCollectCodeEvolution, WorkspaceID: ws, TraceID: &traceID})
	}
	tasks = append(tasks,
		queue.Task{TaskType: queue.TaskTypeCollectCognitiveMetrics, TraceID: &traceID},
		queue.Task{TaskType: queue.TaskTypeGenerateInsights, TraceID: &traceID},
		queue.Task{TaskType: queue.TaskTypePurgeInsights, TraceID: &traceID},
	)

	var errs []error
	for _, task := range tasks {
		if err := s.producer.Enqueue(ctx, task); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
