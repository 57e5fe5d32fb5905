package service

import (
	"context"

	"readiq.app/api/core/db"
	"readiq.app/api/core/db/queries"
	"readiq.app/api/internal/store"
)

// StoreProvider exposes only the stores needed by a transactional operation.
type StoreProvider interface {
	Profiles() store.ProfileStore
	Invitations() store.InvitationStore
	InviteCodes() store.InviteCodeStore
}

// TxRunner runs functions within a transaction and provides stores bound to that transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

func NewTxRunner(db *db.DB) TxRunner {
	return &dbTxRunner{db: db}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q *queries.Queries) error {
		return fn(store.NewStores(q))
	})
}
