package worker

import (
	"context"

	"basegraph.app/insight/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// TaskHandler runs a single parsed task against the engines.
type TaskHandler interface {
	Handle(ctx context.Context, msg queue.Message) error
}
