package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgtype"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type invitationStore struct {
	queries *queries.Queries
}

func newInvitationStore(q *queries.Queries) InvitationStore {
	return &invitationStore{queries: q}
}

func (s *invitationStore) Create(ctx context.Context, inv *model.Invitation) error {
	row, err := s.queries.CreateInvitation(ctx, queries.CreateInvitationParams{
		ID:             inv.ID,
		Email:          inv.Email,
		Role:           string(inv.Role),
		OrganizationID: inv.OrganizationID,
		InviterID:      inv.InviterID,
		Status:         string(inv.Status),
		ExpiresAt:      pgtype.Timestamptz{Time: inv.ExpiresAt, Valid: true},
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*inv = *toInvitationModel(row)
	return nil
}

func (s *invitationStore) GetByID(ctx context.Context, id string) (*model.Invitation, error) {
	row, err := s.queries.GetInvitation(ctx, id)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) GetPendingByOrgAndEmail(ctx context.Context, organizationID, email string) (*model.Invitation, error) {
	row, err := s.queries.GetPendingInvitationByOrgAndEmail(ctx, queries.GetPendingInvitationByOrgAndEmailParams{
		OrganizationID: organizationID,
		Email:          email,
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) Claim(ctx context.Context, id string, userID int64) (*model.Invitation, error) {
	row, err := s.queries.ClaimInvitation(ctx, queries.ClaimInvitationParams{
		ID:         id,
		AcceptedBy: &userID,
	})
	if err != nil {
		if errors.Is(mapNoRows(err), ErrNotFound) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) ReleaseClaim(ctx context.Context, id string) error {
	return s.queries.ReleaseInvitationClaim(ctx, id)
}

func (s *invitationStore) Revoke(ctx context.Context, id string) (*model.Invitation, error) {
	row, err := s.queries.SetInvitationStatus(ctx, queries.SetInvitationStatusParams{
		ID:     id,
		Status: string(model.InvitationStatusRevoked),
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toInvitationModel(row), nil
}

func (s *invitationStore) MarkExpired(ctx context.Context, id string) error {
	_, err := s.queries.SetInvitationStatus(ctx, queries.SetInvitationStatusParams{
		ID:     id,
		Status: string(model.InvitationStatusExpired),
	})
	if err != nil && !errors.Is(mapNoRows(err), ErrNotFound) {
		return err
	}
	return nil
}

func (s *invitationStore) ListByOrganization(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error) {
	rows, err := s.queries.ListInvitationsByOrganization(ctx, queries.ListInvitationsByOrganizationParams{
		OrganizationID: organizationID,
		Limit:          limit,
		Offset:         offset,
	})
	if err != nil {
		return nil, err
	}
	result := make([]model.Invitation, len(rows))
	for i, row := range rows {
		result[i] = *toInvitationModel(row)
	}
	return result, nil
}

func (s *invitationStore) ExpireOld(ctx context.Context) error {
	return s.queries.ExpireOldInvitations(ctx)
}

func toInvitationModel(row queries.Invitation) *model.Invitation {
	return &model.Invitation{
		ID:             row.ID,
		Email:          row.Email,
		Role:           model.Role(row.Role),
		OrganizationID: row.OrganizationID,
		Status:         model.InvitationStatus(row.Status),
		InviterID:      row.InviterID,
		AcceptedBy:     row.AcceptedBy,
		ExpiresAt:      row.ExpiresAt.Time,
		CreatedAt:      row.CreatedAt.Time,
		AcceptedAt:     timestamptz(row.AcceptedAt),
	}
}
