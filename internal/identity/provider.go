package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrInvitationNotFound is returned when the provider has no invitation with the given id.
	ErrInvitationNotFound = errors.New("invitation not found at provider")
	// ErrInvitationNotPending means the provider already accepted, revoked or expired it.
	ErrInvitationNotPending = errors.New("invitation is not pending at provider")
)

type InvitationState string

const (
	InvitationStatePending  InvitationState = "pending"
	InvitationStateAccepted InvitationState = "accepted"
	InvitationStateExpired  InvitationState = "expired"
	InvitationStateRevoked  InvitationState = "revoked"
)

// Invitation is the provider-side view of an invitation.
type Invitation struct {
	ID             string
	Email          string
	State          InvitationState
	OrganizationID string
	ExpiresAt      time.Time
}

type SendInvitationInput struct {
	Email          string
	OrganizationID string
	Role           string
	// InviterProviderID is the inviter's id at the provider, when known.
	InviterProviderID string
}

type AcceptInvitationInput struct {
	InvitationID string
	Email        string
	Name         string
	Role         string
	// UserProviderID is the accepting user's id at the provider, when already linked.
	UserProviderID string
}

// Membership is the organization membership an accepted invitation grants.
type Membership struct {
	ID             string
	UserProviderID string
	OrganizationID string
}

// Provider is the slice of the auth provider's API that invitations need.
type Provider interface {
	SendInvitation(ctx context.Context, in SendInvitationInput) (*Invitation, error)
	// AcceptInvitation makes the user a member of the invitation's organization,
	// provisioning the user at the provider first when needed.
	AcceptInvitation(ctx context.Context, in AcceptInvitationInput) (*Membership, error)
	RevokeInvitation(ctx context.Context, invitationID string) (*Invitation, error)
	GetOrganizationName(ctx context.Context, organizationID string) (string, error)
}
