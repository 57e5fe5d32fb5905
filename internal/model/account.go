package model

import "time"

// AccountProviderCredential marks an email+password account.
const AccountProviderCredential = "credential"

type Account struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	ProviderID   string    `json:"provider_id"`
	PasswordHash *string   `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
