package queries

import "github.com/jackc/pgx/v5/pgtype"

type User struct {
	ID        int64
	Name      string
	Email     string
	AvatarUrl *string
	WorkosID  *string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

type Session struct {
	ID                   int64
	UserID               int64
	ActiveOrganizationID *string
	ExpiresAt            pgtype.Timestamptz
	CreatedAt            pgtype.Timestamptz
}

type Account struct {
	ID           int64
	UserID       int64
	ProviderID   string
	PasswordHash *string
	CreatedAt    pgtype.Timestamptz
	UpdatedAt    pgtype.Timestamptz
}

type Invitation struct {
	ID             string
	Email          string
	Role           string
	OrganizationID string
	InviterID      *int64
	Status         string
	ExpiresAt      pgtype.Timestamptz
	CreatedAt      pgtype.Timestamptz
	AcceptedAt     pgtype.Timestamptz
	AcceptedBy     *int64
}

type InviteCode struct {
	InvitationID string
	OrgID        string
	Email        string
	CodeHash     string
	ExpiresAt    pgtype.Timestamptz
	CreatedAt    pgtype.Timestamptz
}

type MagicLink struct {
	ID          int64
	Email       string
	Name        string
	TokenHash   string
	CallbackUrl string
	ExpiresAt   pgtype.Timestamptz
	UsedAt      pgtype.Timestamptz
	CreatedAt   pgtype.Timestamptz
}

type Profile struct {
	ID              int64
	Email           string
	Name            string
	UserRole        string
	IsOnboarding    bool
	OnboardingStep  int32
	OnboardingOrgID *string
	CreatedAt       pgtype.Timestamptz
	UpdatedAt       pgtype.Timestamptz
}

type UserAccountLink struct {
	UserID    int64
	ProfileID int64
	Role      string
	UpdatedAt pgtype.Timestamptz
}
