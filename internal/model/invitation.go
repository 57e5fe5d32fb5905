package model

import "time"

type InvitationStatus string

const (
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusAccepted InvitationStatus = "accepted"
	InvitationStatusExpired  InvitationStatus = "expired"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// InvitationChannel selects how an invitation is delivered.
type InvitationChannel string

const (
	InvitationChannelWeb    InvitationChannel = "web"
	InvitationChannelMobile InvitationChannel = "mobile"
)

// Invitation mirrors the auth provider's invitation record. ID is the
// provider's id; Role and InviterID only exist on our side.
type Invitation struct {
	ID             string           `json:"id"`
	Email          string           `json:"email"`
	Role           Role             `json:"role"`
	OrganizationID string           `json:"organization_id"`
	Status         InvitationStatus `json:"status"`
	InviterID      *int64           `json:"inviter_id,omitempty"`
	AcceptedBy     *int64           `json:"accepted_by,omitempty"`
	ExpiresAt      time.Time        `json:"expires_at"`
	CreatedAt      time.Time        `json:"created_at"`
	AcceptedAt     *time.Time       `json:"accepted_at,omitempty"`
}

// IsPending is true only for a pending invitation that has not run past its expiry.
func (i *Invitation) IsPending() bool {
	return i.Status == InvitationStatusPending && time.Now().Before(i.ExpiresAt)
}
