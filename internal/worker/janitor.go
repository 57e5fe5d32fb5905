package worker

import (
	"context"
	"log/slog"
	"time"

	"readiq.app/api/common/logger"
)

// ExpiringInvitations and ExpiringSessions are the store methods the janitor needs.
type ExpiringInvitations interface {
	ExpireOld(ctx context.Context) error
}

type ExpiringSessions interface {
	DeleteExpired(ctx context.Context) error
}

// Janitor periodically flips pending invitations past their expiry to
// expired and drops expired sessions.
type Janitor struct {
	invitations ExpiringInvitations
	sessions    ExpiringSessions
	interval    time.Duration

	stopCh    chan struct{}
	stoppedCh chan struct{}
}

func NewJanitor(invitations ExpiringInvitations, sessions ExpiringSessions, interval time.Duration) *Janitor {
	return &Janitor{
		invitations: invitations,
		sessions:    sessions,
		interval:    interval,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
	}
}

func (j *Janitor) Run(ctx context.Context) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{Component: "readiq.worker.janitor"})
	defer close(j.stoppedCh)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-j.stopCh:
			return
		case <-ticker.C:
			j.RunOnce(ctx)
		}
	}
}

func (j *Janitor) Stop() {
	close(j.stopCh)
	<-j.stoppedCh
}

// RunOnce performs a single cleanup pass. Failures are logged and retried on the next tick.
func (j *Janitor) RunOnce(ctx context.Context) {
	if err := j.invitations.ExpireOld(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to expire invitations", "error", err)
	}
	if err := j.sessions.DeleteExpired(ctx); err != nil {
		slog.ErrorContext(ctx, "failed to delete expired sessions", "error", err)
	}
}
