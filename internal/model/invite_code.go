package model

import "time"

// InviteCode backs the mobile flow. Only the hash of the human code is kept.
type InviteCode struct {
	InvitationID string    `json:"invitation_id"`
	OrgID        string    `json:"org_id"`
	Email        string    `json:"email"`
	CodeHash     string    `json:"-"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
