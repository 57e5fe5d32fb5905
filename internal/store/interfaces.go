package store

import (
	"context"
	"errors"
	"time"

	"readiq.app/api/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write loses to an existing row or to a
// concurrent state transition.
var ErrConflict = errors.New("conflict")

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error) // case-insensitive
	UpsertByEmail(ctx context.Context, user *model.User) error
	UpsertByWorkOSID(ctx context.Context, user *model.User) error
	SetWorkOSID(ctx context.Context, id int64, workOSID string) error
}

type SessionStore interface {
	Create(ctx context.Context, session *model.Session) error
	GetValid(ctx context.Context, id int64) (*model.Session, error) // checks expiry
	SetActiveOrganization(ctx context.Context, id int64, organizationID string) (*model.Session, error)
	Delete(ctx context.Context, id int64) error
	DeleteExpired(ctx context.Context) error
}

type AccountStore interface {
	GetCredential(ctx context.Context, userID int64) (*model.Account, error)
	CreateCredential(ctx context.Context, account *model.Account) error // ErrConflict if one exists
}

type InvitationStore interface {
	Create(ctx context.Context, inv *model.Invitation) error
	GetByID(ctx context.Context, id string) (*model.Invitation, error)
	GetPendingByOrgAndEmail(ctx context.Context, organizationID, email string) (*model.Invitation, error)
	// Claim moves a pending invitation to accepted. ErrConflict when it was not pending.
	Claim(ctx context.Context, id string, userID int64) (*model.Invitation, error)
	ReleaseClaim(ctx context.Context, id string) error
	Revoke(ctx context.Context, id string) (*model.Invitation, error)
	MarkExpired(ctx context.Context, id string) error
	ListByOrganization(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error)
	ExpireOld(ctx context.Context) error
}

type InviteCodeStore interface {
	Create(ctx context.Context, code *model.InviteCode) error
	ListActiveByEmail(ctx context.Context, email string) ([]model.InviteCode, error)
	Delete(ctx context.Context, invitationID string) error
}

type MagicLinkStore interface {
	Create(ctx context.Context, link *model.MagicLink) error
	// Consume marks an unexpired, unused link as used. ErrNotFound otherwise.
	Consume(ctx context.Context, tokenHash string) (*model.MagicLink, error)
}

type ProfileStore interface {
	GetByEmail(ctx context.Context, email string) (*model.Profile, error) // exact match
	GetByUserID(ctx context.Context, userID int64) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	UpdateOnboarding(ctx context.Context, id int64, isOnboarding bool, step int) (*model.Profile, error)
	LinkUser(ctx context.Context, link *model.UserAccountLink) error
}

// PaymentSessionStore is short-lived keyed storage with expiry. Backends are
// redis in deployed environments and an in-process map otherwise.
type PaymentSessionStore interface {
	Save(ctx context.Context, session *model.PaymentSession, ttl time.Duration) error
	// Take returns the session and removes it in one step. Only one caller
	// ever receives a given session.
	Take(ctx context.Context, id string) (*model.PaymentSession, error)
}
