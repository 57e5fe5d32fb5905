package queries

import (
	"context"
)

const profileColumns = `id, email, name, user_role, is_onboarding, onboarding_step, onboarding_org_id, created_at, updated_at`

func scanProfile(row interface{ Scan(...any) error }) (Profile, error) {
	var i Profile
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.UserRole,
		&i.IsOnboarding,
		&i.OnboardingStep,
		&i.OnboardingOrgID,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

// Exact match on purpose; invitation email checks are the case-insensitive ones.
const getProfileByEmail = `SELECT ` + profileColumns + ` FROM profiles WHERE email = $1`

func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfileByEmail, email))
}

const getProfileByUserID = `
SELECT p.id, p.email, p.name, p.user_role, p.is_onboarding, p.onboarding_step, p.onboarding_org_id, p.created_at, p.updated_at
FROM profiles p
JOIN user_account_links l ON l.profile_id = p.id
WHERE l.user_id = $1`

func (q *Queries) GetProfileByUserID(ctx context.Context, userID int64) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfileByUserID, userID))
}

const createProfile = `
INSERT INTO profiles (id, email, name, user_role, is_onboarding, onboarding_step, onboarding_org_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + profileColumns

type CreateProfileParams struct {
	ID              int64
	Email           string
	Name            string
	UserRole        string
	IsOnboarding    bool
	OnboardingStep  int32
	OnboardingOrgID *string
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, createProfile,
		arg.ID,
		arg.Email,
		arg.Name,
		arg.UserRole,
		arg.IsOnboarding,
		arg.OnboardingStep,
		arg.OnboardingOrgID,
	))
}

const updateProfileOnboarding = `
UPDATE profiles
SET is_onboarding = $2, onboarding_step = $3, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns

type UpdateProfileOnboardingParams struct {
	ID             int64
	IsOnboarding   bool
	OnboardingStep int32
}

func (q *Queries) UpdateProfileOnboarding(ctx context.Context, arg UpdateProfileOnboardingParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateProfileOnboarding, arg.ID, arg.IsOnboarding, arg.OnboardingStep))
}

const upsertUserAccountLink = `
INSERT INTO user_account_links (user_id, profile_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE
SET profile_id = EXCLUDED.profile_id,
    role = EXCLUDED.role,
    updated_at = now()
RETURNING user_id, profile_id, role, updated_at`

type UpsertUserAccountLinkParams struct {
	UserID    int64
	ProfileID int64
	Role      string
}

func (q *Queries) UpsertUserAccountLink(ctx context.Context, arg UpsertUserAccountLinkParams) (UserAccountLink, error) {
	var i UserAccountLink
	err := q.db.QueryRow(ctx, upsertUserAccountLink, arg.UserID, arg.ProfileID, arg.Role).Scan(
		&i.UserID,
		&i.ProfileID,
		&i.Role,
		&i.UpdatedAt,
	)
	return i, err
}
