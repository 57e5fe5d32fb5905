package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

type Producer interface {
	EnqueueProfileLink(ctx context.Context, task ProfileLinkTask) error
	Close() error
}

type redisProducer struct {
	client *redis.Client
	stream string
	logger *slog.Logger
}

func NewRedisProducer(client *redis.Client, stream string, logger *slog.Logger) Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &redisProducer{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (p *redisProducer) EnqueueProfileLink(ctx context.Context, task ProfileLinkTask) error {
	attempt := task.Attempt
	if attempt <= 0 {
		attempt = 1
	}

	fields := map[string]any{
		"task_type":       string(TaskTypeProfileLink),
		"invitation_id":   task.InvitationID,
		"organization_id": task.OrganizationID,
		"user_id":         task.UserID,
		"email":           task.Email,
		"name":            task.Name,
		"role":            task.Role,
		"attempt":         attempt,
	}
	if task.TraceID != nil && *task.TraceID != "" {
		fields["trace_id"] = *task.TraceID
	}

	if err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: fields,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue profile link: %w", err)
	}

	p.logger.InfoContext(ctx, "enqueued profile link",
		"invitation_id", task.InvitationID,
		"user_id", task.UserID,
		"attempt", attempt)
	return nil
}

func (p *redisProducer) Close() error {
	return p.client.Close()
}
