package store

import (
	"context"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type userStore struct {
	queries *queries.Queries
}

func newUserStore(q *queries.Queries) UserStore {
	return &userStore{queries: q}
}

func (s *userStore) GetByID(ctx context.Context, id int64) (*model.User, error) {
	row, err := s.queries.GetUser(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row, err := s.queries.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toUserModel(row), nil
}

func (s *userStore) UpsertByEmail(ctx context.Context, user *model.User) error {
	row, err := s.queries.UpsertUserByEmail(ctx, queries.UpsertUserByEmailParams{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarUrl: user.AvatarURL,
	})
	if err != nil {
		return err
	}
	*user = *toUserModel(row)
	return nil
}

func (s *userStore) UpsertByWorkOSID(ctx context.Context, user *model.User) error {
	row, err := s.queries.UpsertUserByWorkOSID(ctx, queries.UpsertUserByWorkOSIDParams{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		AvatarUrl: user.AvatarURL,
		WorkosID:  user.WorkOSID,
	})
	if err != nil {
		return err
	}
	*user = *toUserModel(row)
	return nil
}

func (s *userStore) SetWorkOSID(ctx context.Context, id int64, workOSID string) error {
	n, err := s.queries.SetUserWorkOSID(ctx, queries.SetUserWorkOSIDParams{
		ID:       id,
		WorkosID: &workOSID,
	})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func toUserModel(row queries.User) *model.User {
	return &model.User{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		AvatarURL: row.AvatarUrl,
		WorkOSID:  row.WorkosID,
		CreatedAt: row.CreatedAt.Time,
		UpdatedAt: row.UpdatedAt.Time,
	}
}
