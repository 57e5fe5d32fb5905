package worker

import (
	"context"

	"readiq.app/api/internal/queue"
)

// Consumer abstracts the message queue for testability.
type Consumer interface {
	Read(ctx context.Context) ([]queue.Message, error)
	Ack(ctx context.Context, msg queue.Message) error
	Requeue(ctx context.Context, msg queue.Message, errMsg string) error
	SendDLQ(ctx context.Context, msg queue.Message, errMsg string) error
}

// TaskHandler applies one reconcile task. Returning an error leaves the
// message for retry.
type TaskHandler interface {
	Handle(ctx context.Context, task queue.ProfileLinkTask) error
}
