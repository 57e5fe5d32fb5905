package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const inviteCodeColumns = `invitation_id, org_id, email, code_hash, expires_at, created_at`

func scanInviteCode(row interface{ Scan(...any) error }) (InviteCode, error) {
	var i InviteCode
	err := row.Scan(
		&i.InvitationID,
		&i.OrgID,
		&i.Email,
		&i.CodeHash,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
	return i, err
}

const createInviteCode = `
INSERT INTO invite_codes (invitation_id, org_id, email, code_hash, expires_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + inviteCodeColumns

type CreateInviteCodeParams struct {
	InvitationID string
	OrgID        string
	Email        string
	CodeHash     string
	ExpiresAt    pgtype.Timestamptz
}

func (q *Queries) CreateInviteCode(ctx context.Context, arg CreateInviteCodeParams) (InviteCode, error) {
	return scanInviteCode(q.db.QueryRow(ctx, createInviteCode,
		arg.InvitationID,
		arg.OrgID,
		arg.Email,
		arg.CodeHash,
		arg.ExpiresAt,
	))
}

const listActiveInviteCodesByEmail = `
SELECT ` + inviteCodeColumns + ` FROM invite_codes
WHERE lower(email) = lower($1) AND expires_at > now()
ORDER BY created_at DESC`

func (q *Queries) ListActiveInviteCodesByEmail(ctx context.Context, email string) ([]InviteCode, error) {
	rows, err := q.db.Query(ctx, listActiveInviteCodesByEmail, email)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []InviteCode
	for rows.Next() {
		i, err := scanInviteCode(rows)
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

const deleteInviteCode = `DELETE FROM invite_codes WHERE invitation_id = $1`

func (q *Queries) DeleteInviteCode(ctx context.Context, invitationID string) error {
	_, err := q.db.Exec(ctx, deleteInviteCode, invitationID)
	return err
}
