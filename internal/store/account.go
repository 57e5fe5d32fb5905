package store

import (
	"context"

	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/model"
)

type accountStore struct {
	queries *queries.Queries
}

func newAccountStore(q *queries.Queries) AccountStore {
	return &accountStore{queries: q}
}

func (s *accountStore) GetCredential(ctx context.Context, userID int64) (*model.Account, error) {
	row, err := s.queries.GetAccountByProvider(ctx, queries.GetAccountByProviderParams{
		UserID:     userID,
		ProviderID: model.AccountProviderCredential,
	})
	if err != nil {
		return nil, mapNoRows(err)
	}
	return toAccountModel(row), nil
}

func (s *accountStore) CreateCredential(ctx context.Context, account *model.Account) error {
	row, err := s.queries.CreateAccount(ctx, queries.CreateAccountParams{
		ID:           account.ID,
		UserID:       account.UserID,
		ProviderID:   model.AccountProviderCredential,
		PasswordHash: account.PasswordHash,
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrConflict
		}
		return err
	}
	*account = *toAccountModel(row)
	return nil
}

func toAccountModel(row queries.Account) *model.Account {
	return &model.Account{
		ID:           row.ID,
		UserID:       row.UserID,
		ProviderID:   row.ProviderID,
		PasswordHash: row.PasswordHash,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}
}
