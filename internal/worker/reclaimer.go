package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"basegraph.app/insight/common/logger"
	"basegraph.app/insight/internal/queue"
)

const (
	DefaultReclaimInterval = 30 * time.Second
	DefaultReclaimMinIdle  = 5 * time.Minute
	DefaultReclaimBatch    = 50
)

type RedisReclaimerConfig struct {
	Stream    string
	Group     string
	Consumer  string
	MinIdle   time.Duration
	Interval  time.Duration
	BatchSize int64

	// MaxDeliveries sends a message to the DLQ once it has been delivered more often than this.
	// Zero disables the check.
	MaxDeliveries int
}

// PendingClaimer lists and takes over stale entries of a consumer group.
type PendingClaimer interface {
	Stale(ctx context.Context) ([]redis.XPendingExt, error)
	// Claim returns no message when another consumer claimed it first.
	Claim(ctx context.Context, messageID string) (*redis.XMessage, error)
}

type redisClaimer struct {
	client *redis.Client
	cfg    RedisReclaimerConfig
}

func (c *redisClaimer) Stale(ctx context.Context) ([]redis.XPendingExt, error) {
	pending, err := c.client.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: c.cfg.Stream,
		Group:  c.cfg.Group,
		Idle:   c.cfg.MinIdle,
		Start:  "-",
		End:    "+",
		Count:  c.cfg.BatchSize,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xpending: %w", err)
	}
	return pending, nil
}

func (c *redisClaimer) Claim(ctx context.Context, messageID string) (*redis.XMessage, error) {
	messages, err := c.client.XClaim(ctx, &redis.XClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Consumer,
		MinIdle:  c.cfg.MinIdle,
		Messages: []string{messageID},
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("xclaim: %w", err)
	}
	if len(messages) == 0 {
		return nil, nil
	}
	return &messages[0], nil
}

// RedisReclaimer re-runs tasks left pending by a worker that died between XREADGROUP and XACK.
type RedisReclaimer struct {
	claimer   PendingClaimer
	cfg       RedisReclaimerConfig
	consumer  Consumer
	processor queue.MessageProcessor

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewRedisReclaimer(client *redis.Client, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	cfg = withReclaimDefaults(cfg)
	return NewReclaimer(&redisClaimer{client: client, cfg: cfg}, cfg, consumer, processor)
}

// NewReclaimer builds a reclaimer over any PendingClaimer. Only the timing and delivery
// fields of cfg are used.
func NewReclaimer(claimer PendingClaimer, cfg RedisReclaimerConfig, consumer Consumer, processor queue.MessageProcessor) *RedisReclaimer {
	return &RedisReclaimer{
		claimer:   claimer,
		cfg:       withReclaimDefaults(cfg),
		consumer:  consumer,
		processor: processor,
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

func withReclaimDefaults(cfg RedisReclaimerConfig) RedisReclaimerConfig {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReclaimInterval
	}
	if cfg.MinIdle <= 0 {
		cfg.MinIdle = DefaultReclaimMinIdle
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReclaimBatch
	}
	return cfg
}

// Run blocks until Stop is called or ctx is done.
func (r *RedisReclaimer) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		Component: "insight.worker.reclaimer",
	})

	defer close(r.stoppedCh)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	slog.InfoContext(ctx, "reclaimer started",
		"interval", r.cfg.Interval,
		"min_idle", r.cfg.MinIdle,
		"max_deliveries", r.cfg.MaxDeliveries)

	for {
		select {
		case <-ctx.Done():
			return
		case <-r.stopCh:
			slog.InfoContext(ctx, "reclaimer stopping")
			return
		case <-ticker.C:
			if n, err := r.ReclaimOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "reclaim cycle error", "error", err)
			} else if n > 0 {
				slog.InfoContext(ctx, "reclaim cycle finished", "handled", n)
			}
		}
	}
}

func (r *RedisReclaimer) Stop() {
	close(r.stopCh)
	<-r.stoppedCh
}

// ReclaimOnce claims every stale entry and either re-runs it, dead-letters it, or drops it
// when it cannot be parsed. Returns how many entries were handled.
func (r *RedisReclaimer) ReclaimOnce(ctx context.Context) (int, error) {
	pending, err := r.claimer.Stale(ctx)
	if err != nil {
		return 0, err
	}

	handled := 0
	for _, p := range pending {
		ok, err := r.reclaim(ctx, p)
		if err != nil {
			slog.ErrorContext(ctx, "failed to reclaim message",
				"error", err,
				"message_id", p.ID,
				"original_consumer", p.Consumer,
				"idle_time", p.Idle)
			continue
		}
		if ok {
			handled++
		}
	}
	return handled, nil
}

func (r *RedisReclaimer) reclaim(ctx context.Context, pending redis.XPendingExt) (bool, error) {
	msgID := pending.ID
	ctx = logger.WithLogFields(ctx, logger.LogFields{MessageID: &msgID})

	raw, err := r.claimer.Claim(ctx, pending.ID)
	if err != nil {
		return false, err
	}
	if raw == nil {
		slog.DebugContext(ctx, "message already reclaimed by another worker")
		return false, nil
	}

	msg, err := queue.ParseMessage(*raw)
	if err != nil {
		slog.ErrorContext(ctx, "unparseable reclaimed message, acknowledging to prevent loop", "error", err)
		_ = r.consumer.Ack(ctx, queue.Message{ID: raw.ID, Raw: *raw})
		return true, nil
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{TaskType: logger.Ptr(string(msg.TaskType))})
	if msg.WorkspaceID != "" {
		ctx = logger.WithLogFields(ctx, logger.LogFields{WorkspaceID: &msg.WorkspaceID})
	}

	if r.cfg.MaxDeliveries > 0 && pending.RetryCount > int64(r.cfg.MaxDeliveries) {
		slog.ErrorContext(ctx, "reclaimed task exceeded deliveries, sending to DLQ",
			"retry_count", pending.RetryCount)
		if err := r.consumer.SendDLQ(ctx, msg, fmt.Sprintf("exceeded %d deliveries", r.cfg.MaxDeliveries)); err != nil {
			return false, fmt.Errorf("dead-lettering reclaimed task: %w", err)
		}
		return true, nil
	}

	slog.InfoContext(ctx, "re-running stale task",
		"original_consumer", pending.Consumer,
		"idle_time", pending.Idle,
		"retry_count", pending.RetryCount)

	start := time.Now()
	if err := r.processor(ctx, msg); err != nil {
		return false, fmt.Errorf("processing reclaimed task: %w", err)
	}
	slog.InfoContext(ctx, "reclaimed task processed", "duration_ms", time.Since(start).Milliseconds())
	return true, nil
}
