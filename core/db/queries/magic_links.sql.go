package queries

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const magicLinkColumns = `id, email, name, token_hash, callback_url, expires_at, used_at, created_at`

func scanMagicLink(row interface{ Scan(...any) error }) (MagicLink, error) {
	var i MagicLink
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.TokenHash,
		&i.CallbackUrl,
		&i.ExpiresAt,
		&i.UsedAt,
		&i.CreatedAt,
	)
	return i, err
}

const createMagicLink = `
INSERT INTO magic_links (id, email, name, token_hash, callback_url, expires_at)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING ` + magicLinkColumns

type CreateMagicLinkParams struct {
	ID          int64
	Email       string
	Name        string
	TokenHash   string
	CallbackUrl string
	ExpiresAt   pgtype.Timestamptz
}

func (q *Queries) CreateMagicLink(ctx context.Context, arg CreateMagicLinkParams) (MagicLink, error) {
	return scanMagicLink(q.db.QueryRow(ctx, createMagicLink,
		arg.ID,
		arg.Email,
		arg.Name,
		arg.TokenHash,
		arg.CallbackUrl,
		arg.ExpiresAt,
	))
}

// Single use: the row is returned only the first time it is consumed.
const consumeMagicLink = `
UPDATE magic_links SET used_at = now()
WHERE token_hash = $1 AND used_at IS NULL AND expires_at > now()
RETURNING ` + magicLinkColumns

func (q *Queries) ConsumeMagicLink(ctx context.Context, tokenHash string) (MagicLink, error) {
	return scanMagicLink(q.db.QueryRow(ctx, consumeMagicLink, tokenHash))
}
