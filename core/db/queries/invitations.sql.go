package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const invitationColumns = `id, email, role, organization_id, inviter_id, status, expires_at, created_at, accepted_at, accepted_by`

func scanInvitation(row interface{ Scan(...any) error }) (Invitation, error) {
	var i Invitation
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Role,
		&i.OrganizationID,
		&i.InviterID,
		&i.Status,
		&i.ExpiresAt,
		&i.CreatedAt,
		&i.AcceptedAt,
		&i.AcceptedBy,
	)
	return i, err
}

const createInvitation = `
INSERT INTO invitations (id, email, role, organization_id, inviter_id, status, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + invitationColumns

type CreateInvitationParams struct {
	ID             string
	Email          string
	Role           string
	OrganizationID string
	InviterID      *int64
	Status         string
	ExpiresAt      pgtype.Timestamptz
}

func (q *Queries) CreateInvitation(ctx context.Context, arg CreateInvitationParams) (Invitation, error) {
	return scanInvitation(q.db.QueryRow(ctx, createInvitation,
		arg.ID,
		arg.Email,
		arg.Role,
		arg.OrganizationID,
		arg.InviterID,
		arg.Status,
		arg.ExpiresAt,
	))
}

const getInvitation = `SELECT ` + invitationColumns + ` FROM invitations WHERE id = $1`

func (q *Queries) GetInvitation(ctx context.Context, id string) (Invitation, error) {
	return scanInvitation(q.db.QueryRow(ctx, getInvitation, id))
}

const getPendingInvitationByOrgAndEmail = `
SELECT ` + invitationColumns + ` FROM invitations
WHERE organization_id = $1 AND lower(email) = lower($2) AND status = 'pending'
ORDER BY created_at DESC
LIMIT 1`

type GetPendingInvitationByOrgAndEmailParams struct {
	OrganizationID string
	Email          string
}

func (q *Queries) GetPendingInvitationByOrgAndEmail(ctx context.Context, arg GetPendingInvitationByOrgAndEmailParams) (Invitation, error) {
	return scanInvitation(q.db.QueryRow(ctx, getPendingInvitationByOrgAndEmail, arg.OrganizationID, arg.Email))
}

// Compare-and-swap: only a pending, unexpired row transitions. No row means the
// caller lost the race or the invitation is no longer redeemable.
const claimInvitation = `
UPDATE invitations
SET status = 'accepted', accepted_at = now(), accepted_by = $2
WHERE id = $1 AND status = 'pending' AND expires_at > now()
RETURNING ` + invitationColumns

type ClaimInvitationParams struct {
	ID         string
	AcceptedBy *int64
}

func (q *Queries) ClaimInvitation(ctx context.Context, arg ClaimInvitationParams) (Invitation, error) {
	return scanInvitation(q.db.QueryRow(ctx, claimInvitation, arg.ID, arg.AcceptedBy))
}

const releaseInvitationClaim = `
UPDATE invitations
SET status = 'pending', accepted_at = NULL, accepted_by = NULL
WHERE id = $1 AND status = 'accepted'`

func (q *Queries) ReleaseInvitationClaim(ctx context.Context, id string) error {
	_, err := q.db.Exec(ctx, releaseInvitationClaim, id)
	return err
}

const setInvitationStatus = `
UPDATE invitations SET status = $2
WHERE id = $1 AND status = 'pending'
RETURNING ` + invitationColumns

type SetInvitationStatusParams struct {
	ID     string
	Status string
}

func (q *Queries) SetInvitationStatus(ctx context.Context, arg SetInvitationStatusParams) (Invitation, error) {
	return scanInvitation(q.db.QueryRow(ctx, setInvitationStatus, arg.ID, arg.Status))
}

const listInvitationsByOrganization = `
SELECT ` + invitationColumns + ` FROM invitations
WHERE organization_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3`

type ListInvitationsByOrganizationParams struct {
	OrganizationID string
	Limit          int32
	Offset         int32
}

func (q *Queries) ListInvitationsByOrganization(ctx context.Context, arg ListInvitationsByOrganizationParams) ([]Invitation, error) {
	rows, err := q.db.Query(ctx, listInvitationsByOrganization, arg.OrganizationID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Invitation
	for rows.Next() {
		i, err := scanInvitation(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const expireOldInvitations = `
UPDATE invitations SET status = 'expired'
WHERE status = 'pending' AND expires_at <= now()`

func (q *Queries) ExpireOldInvitations(ctx context.Context) error {
	_, err := q.db.Exec(ctx, expireOldInvitations)
	return err
}
