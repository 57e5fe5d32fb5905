package store

import (
	"context"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type profileStore struct {
	queries *queries.Queries
}

func newProfileStore(q *queries.Queries) ProfileStore {
	return &profileStore{queries: q}
}

func (s *profileStore) GetByEmail(ctx context.Context, email string) (*model.Profile, error) {
	row, err := s.queries.GetProfileByEmail(ctx, email)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toProfileModel(row), nil
}

func (s *profileStore) GetByUserID(ctx context.Context, userID int64) (*model.Profile, error) {
	row, err := s.queries.GetProfileByUserID(ctx, userID)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toProfileModel(row), nil
}

func (s *profileStore) Create(ctx context.Context, profile *model.Profile) error {
	row, err := s.queries.CreateProfile(ctx, queries.CreateProfileParams{
		ID:              profile.ID,
		Email:           profile.Email,
		Name:            profile.Name,
		UserRole:        string(profile.UserRole),
		IsOnboarding:    profile.IsOnboarding,
		OnboardingStep:  int32(profile.OnboardingStep),
		OnboardingOrgID: profile.OnboardingOrgID,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*profile = *toProfileModel(row)
	return nil
}

func (s *profileStore) UpdateOnboarding(ctx context.Context, id int64, isOnboarding bool, step int) (*model.Profile, error) {
	row, err := s.queries.UpdateProfileOnboarding(ctx, queries.UpdateProfileOnboardingParams{
		ID:             id,
		IsOnboarding:   isOnboarding,
		OnboardingStep: int32(step),
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toProfileModel(row), nil
}

func (s *profileStore) LinkUser(ctx context.Context, link *model.UserAccountLink) error {
	row, err := s.queries.UpsertUserAccountLink(ctx, queries.UpsertUserAccountLinkParams{
		UserID:    link.UserID,
		ProfileID: link.ProfileID,
		Role:      string(link.Role),
	})
	if err != nil {
		return err
	}
	link.UpdatedAt = row.UpdatedAt.Time
	return nil
}

func toProfileModel(row queries.Profile) *model.Profile {
	return &model.Profile{
		ID:              row.ID,
		Email:           row.Email,
		Name:            row.Name,
		UserRole:        model.Role(row.UserRole),
		IsOnboarding:    row.IsOnboarding,
		OnboardingStep:  int(row.OnboardingStep),
		OnboardingOrgID: row.OnboardingOrgID,
		CreatedAt:       row.CreatedAt.Time,
		UpdatedAt:       row.UpdatedAt.Time,
	}
}
