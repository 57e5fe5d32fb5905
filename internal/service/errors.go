package service

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRole              = errors.New("unknown role")
	ErrInvalidEmail             = errors.New("email is required")
	ErrInvitationNotFound       = errors.New("invitation not found")
	ErrInvitationNotPending     = errors.New("invitation is not pending")
	ErrEmailMismatch            = errors.New("authenticated email does not match invitation")
	ErrInvitationCreateFailed   = errors.New("failed to create invitation")
	ErrInvitationDeliveryFailed = errors.New("failed to deliver invitation")
	ErrInviteCodeStorageFailed  = errors.New("failed to store invite code")
	ErrEmailDeliveryFailed      = errors.New("failed to send invitation email")
	ErrInvitationAcceptFailed   = errors.New("failed to accept invitation")
	ErrInvalidInviteCode        = errors.New("invalid or expired invite code")
	ErrProfileNotFound          = errors.New("profile not found")
	ErrInvalidOnboardingStep    = errors.New("invalid onboarding step")
)

// SeatLimitExceededError is returned when the billing provider does not allow
// another seat. The counts are what the client shows next to the upgrade prompt.
type SeatLimitExceededError struct {
	RemainingSeats int64
	TotalSeats     int64
	Usage          int64
	Unlimited      bool
	Cause          error
}

func (e *SeatLimitExceededError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("seat limit exceeded: %v", e.Cause)
	}
	return fmt.Sprintf("seat limit exceeded: %d of %d seats used", e.Usage, e.TotalSeats)
}

func (e *SeatLimitExceededError) Unwrap() error {
	return e.Cause
}

// EmailMismatchError carries both addresses so the caller can offer to switch accounts.
type EmailMismatchError struct {
	InvitationID string
	InvitedEmail string
	CurrentEmail string
}

func (e *EmailMismatchError) Error() string {
	return ErrEmailMismatch.Error()
}

func (e *EmailMismatchError) Is(target error) bool {
	return target == ErrEmailMismatch
}
