package service

import (
	"context"
	"fmt"
	"log/slog"

	"readiq.app/api/internal/billing"
	"readiq.app/api/internal/model"
)

type SeatSummary struct {
	Allowed        bool  `json:"allowed"`
	RemainingSeats int64 `json:"remainingSeats"`
	TotalSeats     int64 `json:"totalSeats"`
	Usage          int64 `json:"usage"`
	Unlimited      bool  `json:"unlimited"`
}

type SeatChecker interface {
	// Check fails closed: any error or a missing answer counts as no seat.
	Check(ctx context.Context, organizationID string) error
	Summary(ctx context.Context, organizationID string) (*SeatSummary, error)
}

type seatChecker struct {
	billing   billing.Client
	featureID string
}

func NewSeatChecker(client billing.Client, featureID string) SeatChecker {
	return &seatChecker{billing: client, featureID: featureID}
}

func (c *seatChecker) Check(ctx context.Context, organizationID string) error {
	usage, err := c.billing.CheckFeatureUsage(ctx, organizationID, c.featureID)
	if err != nil {
		slog.WarnContext(ctx, "seat check failed, refusing invitation",
			"organization_id", organizationID,
			"error", err)
		return &SeatLimitExceededError{Cause: err}
	}
	if usage == nil || !usage.Allowed {
		summary := summarize(usage)
		slog.InfoContext(ctx, "seat limit reached",
			"organization_id", organizationID,
			"usage", summary.Usage,
			"total_seats", summary.TotalSeats)
		return &SeatLimitExceededError{
			RemainingSeats: summary.RemainingSeats,
			TotalSeats:     summary.TotalSeats,
			Usage:          summary.Usage,
			Unlimited:      summary.Unlimited,
		}
	}
	return nil
}

func (c *seatChecker) Summary(ctx context.Context, organizationID string) (*SeatSummary, error) {
	usage, err := c.billing.CheckFeatureUsage(ctx, organizationID, c.featureID)
	if err != nil {
		return nil, fmt.Errorf("checking seat usage: %w", err)
	}
	return summarize(usage), nil
}

func summarize(usage *model.FeatureUsage) *SeatSummary {
	if usage == nil {
		return &SeatSummary{}
	}

	remaining := usage.IncludedUsage - usage.Usage
	if usage.IncludedUsage == 0 && usage.Balance != nil {
		remaining = *usage.Balance
	}

	return &SeatSummary{
		Allowed:        usage.Allowed,
		RemainingSeats: max(remaining, 0),
		TotalSeats:     usage.IncludedUsage,
		Usage:          usage.Usage,
		Unlimited:      usage.Unlimited,
	}
}
