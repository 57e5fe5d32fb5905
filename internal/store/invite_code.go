package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type inviteCodeStore struct {
	queries *queries.Queries
}

func newInviteCodeStore(q *queries.Queries) InviteCodeStore {
	return &inviteCodeStore{queries: q}
}

func (s *inviteCodeStore) Create(ctx context.Context, code *model.InviteCode) error {
	row, err := s.queries.CreateInviteCode(ctx, queries.CreateInviteCodeParams{
		InvitationID: code.InvitationID,
		OrgID:        code.OrgID,
		Email:        code.Email,
		CodeHash:     code.CodeHash,
		ExpiresAt:    pgtype.Timestamptz{Time: code.ExpiresAt, Valid: true},
	})
	if err != nil {
		return err
	}
	*code = toInviteCodeModel(row)
	return nil
}

func (s *inviteCodeStore) ListActiveByEmail(ctx context.Context, email string) ([]model.InviteCode, error) {
	rows, err := s.queries.ListActiveInviteCodesByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	result := make([]model.InviteCode, len(rows))
	for i, row := range rows {
		result[i] = toInviteCodeModel(row)
	}
	return result, nil
}

func (s *inviteCodeStore) Delete(ctx context.Context, invitationID string) error {
	return s.queries.DeleteInviteCode(ctx, invitationID)
}

func toInviteCodeModel(row queries.InviteCode) model.InviteCode {
	return model.InviteCode{
		InvitationID: row.InvitationID,
		OrgID:        row.OrgID,
		Email:        row.Email,
		CodeHash:     row.CodeHash,
		ExpiresAt:    row.ExpiresAt.Time,
		CreatedAt:    row.CreatedAt.Time,
	}
}
