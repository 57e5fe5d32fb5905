package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sessionColumns = `id, user_id, active_organization_id, expires_at, created_at`

func scanSession(row interface{ Scan(...any) error }) (Session, error) {
	var i Session
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ActiveOrganizationID,
		&i.ExpiresAt,
		&i.CreatedAt,
	)
	return i, err
}

const createSession = `
INSERT INTO sessions (id, user_id, expires_at, active_organization_id)
VALUES ($1, $2, $3, $4)
RETURNING ` + sessionColumns

type CreateSessionParams struct {
	ID                   int64
	UserID               int64
	ExpiresAt            pgtype.Timestamptz
	ActiveOrganizationID *string
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, createSession, arg.ID, arg.UserID, arg.ExpiresAt, arg.ActiveOrganizationID))
}

const getValidSession = `SELECT ` + sessionColumns + ` FROM sessions WHERE id = $1 AND expires_at > now()`

func (q *Queries) GetValidSession(ctx context.Context, id int64) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, getValidSession, id))
}

const setSessionActiveOrganization = `
UPDATE sessions SET active_organization_id = $2
WHERE id = $1
RETURNING ` + sessionColumns

type SetSessionActiveOrganizationParams struct {
	ID                   int64
	ActiveOrganizationID *string
}

func (q *Queries) SetSessionActiveOrganization(ctx context.Context, arg SetSessionActiveOrganizationParams) (Session, error) {
	return scanSession(q.db.QueryRow(ctx, setSessionActiveOrganization, arg.ID, arg.ActiveOrganizationID))
}

const deleteSession = `DELETE FROM sessions WHERE id = $1`

func (q *Queries) DeleteSession(ctx context.Context, id int64) error {
	_, err := q.db.Exec(ctx, deleteSession, id)
	return err
}

const deleteExpiredSessions = `DELETE FROM sessions WHERE expires_at <= now()`

func (q *Queries) DeleteExpiredSessions(ctx context.Context) error {
	_, err := q.db.Exec(ctx, deleteExpiredSessions)
	return err
}
