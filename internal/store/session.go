package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type sessionStore struct {
	queries *queries.Queries
}

func newSessionStore(q *queries.Queries) SessionStore {
	return &sessionStore{queries: q}
}

func (s *sessionStore) Create(ctx context.Context, session *model.Session) error {
	row, err := s.queries.CreateSession(ctx, queries.CreateSessionParams{
		ID:                   session.ID,
		UserID:               session.UserID,
		ExpiresAt:            pgtype.Timestamptz{Time: session.ExpiresAt, Valid: true},
		ActiveOrganizationID: session.ActiveOrganizationID,
	})
	if err != nil {
		return err
	}
	*session = *toSessionModel(row)
	return nil
}

func (s *sessionStore) GetValid(ctx context.Context, id int64) (*model.Session, error) {
	row, err := s.queries.GetValidSession(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toSessionModel(row), nil
}

func (s *sessionStore) SetActiveOrganization(ctx context.Context, id int64, organizationID string) (*model.Session, error) {
	row, err := s.queries.SetSessionActiveOrganization(ctx, queries.SetSessionActiveOrganizationParams{
		ID:                   id,
		ActiveOrganizationID: &organizationID,
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toSessionModel(row), nil
}

func (s *sessionStore) Delete(ctx context.Context, id int64) error {
	return s.queries.DeleteSession(ctx, id)
}

func (s *sessionStore) DeleteExpired(ctx context.Context) error {
	return s.queries.DeleteExpiredSessions(ctx)
}

func toSessionModel(row queries.Session) *model.Session {
	return &model.Session{
		ID:                   row.ID,
		UserID:               row.UserID,
		ActiveOrganizationID: row.ActiveOrganizationID,
		ExpiresAt:            row.ExpiresAt.Time,
		CreatedAt:            row.CreatedAt.Time,
	}
}
