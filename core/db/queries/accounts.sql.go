package queries

import "context"

const accountColumns = `id, user_id, provider_id, password_hash, created_at, updated_at`

func scanAccount(row interface{ Scan(...any) error }) (Account, error) {
	var i Account
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.ProviderID,
		&i.PasswordHash,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getAccountByProvider = `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1 AND provider_id = $2`

type GetAccountByProviderParams struct {
	UserID     int64
	ProviderID string
}

func (q *Queries) GetAccountByProvider(ctx context.Context, arg GetAccountByProviderParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, getAccountByProvider, arg.UserID, arg.ProviderID))
}

// CreateAccount fails with a unique violation when the provider account exists.
const createAccount = `
INSERT INTO accounts (id, user_id, provider_id, password_hash)
VALUES ($1, $2, $3, $4)
RETURNING ` + accountColumns

type CreateAccountParams struct {
	ID           int64
	UserID       int64
	ProviderID   string
	PasswordHash *string
}

func (q *Queries) CreateAccount(ctx context.Context, arg CreateAccountParams) (Account, error) {
	return scanAccount(q.db.QueryRow(ctx, createAccount, arg.ID, arg.UserID, arg.ProviderID, arg.PasswordHash))
}
