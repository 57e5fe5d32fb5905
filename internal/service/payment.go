package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"readiq.app/api/internal/billing"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/store"
)

var (
	ErrPaymentSessionExpired = errors.New("payment session expired or unknown")
	ErrCheckoutFailed        = errors.New("failed to start checkout")
	ErrProductRequired       = errors.New("product id is required")
)

type CheckoutInput struct {
	OrganizationID string
	ProductID      string
	UserID         int64
}

type PaymentService interface {
	StartCheckout(ctx context.Context, in CheckoutInput) (*model.PaymentSession, error)
	// CompleteCheckout consumes the session; a second call reports it expired.
	CompleteCheckout(ctx context.Context, sessionID string) (*model.PaymentSession, error)
}

type paymentService struct {
	billing  billing.Client
	sessions store.PaymentSessionStore
	apiURL   string
	ttl      time.Duration
}

func NewPaymentService(client billing.Client, sessions store.PaymentSessionStore, apiURL string, ttl time.Duration) PaymentService {
	return &paymentService{
		billing:  client,
		sessions: sessions,
		apiURL:   strings.TrimRight(apiURL, "/"),
		ttl:      ttl,
	}
}

func (s *paymentService) StartCheckout(ctx context.Context, in CheckoutInput) (*model.PaymentSession, error) {
	if in.OrganizationID == "" {
		return nil, ErrOrganizationIDMissing
	}
	if in.ProductID == "" {
		return nil, ErrProductRequired
	}

	session := &model.PaymentSession{
		ID:             uuid.NewString(),
		OrganizationID: in.OrganizationID,
		UserID:         in.UserID,
		ProductID:      in.ProductID,
		CreatedAt:      time.Now(),
	}

	attached, err := s.billing.Attach(ctx, billing.AttachInput{
		CustomerID: in.OrganizationID,
		ProductID:  in.ProductID,
		SuccessURL: s.apiURL + "/api/billing/checkout/" + session.ID + "/complete",
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}
	session.CheckoutURL = attached.CheckoutURL

	if err := s.sessions.Save(ctx, session, s.ttl); err != nil {
		return nil, fmt.Errorf("saving payment session: %w", err)
	}

	slog.InfoContext(ctx, "checkout started",
		"payment_session_id", session.ID,
		"organization_id", in.OrganizationID,
		"product_id", in.ProductID)
	return session, nil
}

func (s *paymentService) CompleteCheckout(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	session, err := s.sessions.Take(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPaymentSessionExpired
		}
		return nil, fmt.Errorf("loading payment session: %w", err)
	}

	slog.InfoContext(ctx, "checkout completed",
		"payment_session_id", sessionID,
		"organization_id", session.OrganizationID)
	return session, nil
}
