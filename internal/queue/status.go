package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const statusStreamMaxLen = 2000

type TaskState string

const (
	TaskStateSucceeded TaskState = "succeeded"
	TaskStateRetrying  TaskState = "retrying"
	TaskStateFailed    TaskState = "failed"
)

// TaskStatus is published after every processing attempt.
type TaskStatus struct {
	MessageID   string
	TaskType    TaskType
	WorkspaceID string
	State       TaskState
	Attempt     int
	Error       string
	Duration    time.Duration
}

type StatusPublisher interface {
	Publish(ctx context.Context, status TaskStatus) error
}

type redisStatusPublisher struct {
	client *redis.Client
	stream string
}

// NewRedisStatusPublisher appends statuses to a capped stream that the API relays over SSE.
func NewRedisStatusPublisher(client *redis.Client, stream string) StatusPublisher {
	return &redisStatusPublisher{client: client, stream: stream}
}

func (p *redisStatusPublisher) Publish(ctx context.Context, status TaskStatus) error {
	values := map[string]any{
		"message_id":  status.MessageID,
		"task_type":   string(status.TaskType),
		"state":       string(status.State),
		"attempt":     status.Attempt,
		"duration_ms": status.Duration.Milliseconds(),
		"at":          time.Now().UTC().Format(time.RFC3339Nano),
	}
	if status.WorkspaceID != "" {
		values["workspace_id"] = status.WorkspaceID
	}
	if status.Error != "" {
		values["error"] = status.Error
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		MaxLen: statusStreamMaxLen,
		Approx: true,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("publishing task status: %w", err)
	}
	return nil
}
