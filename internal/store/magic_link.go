package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type magicLinkStore struct {
	queries *queries.Queries
}

func newMagicLinkStore(q *queries.Queries) MagicLinkStore {
	return &magicLinkStore{queries: q}
}

func (s *magicLinkStore) Create(ctx context.Context, link *model.MagicLink) error {
	row, err := s.queries.CreateMagicLink(ctx, queries.CreateMagicLinkParams{
		ID:          link.ID,
		Email:       link.Email,
		Name:        link.Name,
		TokenHash:   link.TokenHash,
		CallbackUrl: link.CallbackURL,
		ExpiresAt:   pgtype.Timestamptz{Time: link.ExpiresAt, Valid: true},
	})
	if err != nil {
		return err
	}
	*link = *toMagicLinkModel(row)
	return nil
}

func (s *magicLinkStore) Consume(ctx context.Context, tokenHash string) (*model.MagicLink, error) {
	row, err := s.queries.ConsumeMagicLink(ctx, tokenHash)
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toMagicLinkModel(row), nil
}

func toMagicLinkModel(row queries.MagicLink) *model.MagicLink {
	return &model.MagicLink{
		ID:          row.ID,
		Email:       row.Email,
		Name:        row.Name,
		TokenHash:   row.TokenHash,
		CallbackURL: row.CallbackUrl,
		ExpiresAt:   row.ExpiresAt.Time,
		UsedAt:      timestamptz(row.UsedAt),
		CreatedAt:   row.CreatedAt.Time,
	}
}
