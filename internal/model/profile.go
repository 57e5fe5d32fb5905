package model

import "time"

// OnboardingStepDone is stored for profiles that never enter, or have left, the wizard.
const OnboardingStepDone = -1

// Profile is the application's own user record, linked to auth users through
// user_account_links.
type Profile struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	UserRole        Role      `json:"user_role"`
	IsOnboarding    bool      `json:"is_onboarding"`
	OnboardingStep  int       `json:"onboarding_step"`
	OnboardingOrgID *string   `json:"onboarding_org_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type UserAccountLink struct {
	UserID    int64     `json:"user_id"`
	ProfileID int64     `json:"profile_id"`
	Role      Role      `json:"role"`
	UpdatedAt time.Time `json:"updated_at"`
}
