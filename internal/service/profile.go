package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"readiq.app/api/common/id"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/store"
)

// First step of the onboarding wizard.
const onboardingFirstStep = 1

type LinkProfileInput struct {
	UserID         int64
	Email          string
	Name           string
	Role           model.Role
	OrganizationID string
}

type LinkProfileResult struct {
	ProfileID    int64
	IsNewProfile bool
}

type ProfileService interface {
	// CreateOrUpdateProfile finds the profile for an email, creating it when
	// missing, and points the auth user's link row at it.
	CreateOrUpdateProfile(ctx context.Context, in LinkProfileInput) (*LinkProfileResult, error)
	GetForUser(ctx context.Context, userID int64) (*model.Profile, error)
	SetOnboardingStep(ctx context.Context, userID int64, step int) (*model.Profile, error)
	CompleteOnboarding(ctx context.Context, userID int64) (*model.Profile, error)
}

type profileService struct {
	txRunner TxRunner
	profiles store.ProfileStore
}

func NewProfileService(txRunner TxRunner, profiles store.ProfileStore) ProfileService {
	return &profileService{txRunner: txRunner, profiles: profiles}
}

func (s *profileService) CreateOrUpdateProfile(ctx context.Context, in LinkProfileInput) (*LinkProfileResult, error) {
	role := in.Role.OrDefault()
	result := &LinkProfileResult{}

	err := s.txRunner.WithTx(ctx, func(sp StoreProvider) error {
		profiles := sp.Profiles()

		// Exact match: the lookup does not fold case.
		existing, err := profiles.GetByEmail(ctx, in.Email)
		switch {
		case err == nil:
			result.ProfileID = existing.ID
		case errors.Is(err, store.ErrNotFound):
			profile := newProfile(in, role)
			if err := profiles.Create(ctx, profile); err != nil {
				return fmt.Errorf("creating profile: %w", err)
			}
			result.ProfileID = profile.ID
			result.IsNewProfile = true
		default:
			return fmt.Errorf("looking up profile: %w", err)
		}

		if err := profiles.LinkUser(ctx, &model.UserAccountLink{
			UserID:    in.UserID,
			ProfileID: result.ProfileID,
			Role:      role,
		}); err != nil {
			return fmt.Errorf("linking user to profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "profile linked",
		"user_id", in.UserID,
		"profile_id", result.ProfileID,
		"new_profile", result.IsNewProfile,
		"role", role)

	return result, nil
}

func newProfile(in LinkProfileInput, role model.Role) *model.Profile {
	profile := &model.Profile{
		ID:             id.New(),
		Email:          in.Email,
		Name:           in.Name,
		UserRole:       role,
		IsOnboarding:   role.RequiresOnboarding(),
		OnboardingStep: model.OnboardingStepDone,
	}
	if profile.IsOnboarding {
		profile.OnboardingStep = onboardingFirstStep
	}
	if in.OrganizationID != "" {
		orgID := in.OrganizationID
		profile.OnboardingOrgID = &orgID
	}
	return profile
}

func (s *profileService) GetForUser(ctx context.Context, userID int64) (*model.Profile, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("getting profile: %w", err)
	}
	return profile, nil
}

func (s *profileService) SetOnboardingStep(ctx context.Context, userID int64, step int) (*model.Profile, error) {
	if step < onboardingFirstStep {
		return nil, ErrInvalidOnboardingStep
	}

	profile, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.profiles.UpdateOnboarding(ctx, profile.ID, true, step)
	if err != nil {
		return nil, fmt.Errorf("updating onboarding step: %w", err)
	}
	return updated, nil
}

func (s *profileService) CompleteOnboarding(ctx context.Context, userID int64) (*model.Profile, error) {
	profile, err := s.GetForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	updated, err := s.profiles.UpdateOnboarding(ctx, profile.ID, false, model.OnboardingStepDone)
	if err != nil {
		return nil, fmt.Errorf("completing onboarding: %w", err)
	}

	slog.InfoContext(ctx, "onboarding completed", "user_id", userID, "profile_id", profile.ID)
	return updated, nil
}
