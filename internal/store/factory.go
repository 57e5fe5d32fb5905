package store

import (
	"readiq.app/api/core/db/queries"
)

type Stores struct {
	queries *queries.Queries
}

func NewStores(q *queries.Queries) *Stores {
	return &Stores{queries: q}
}

func (s *Stores) Users() UserStore {
	return newUserStore(s.queries)
}

func (s *Stores) Sessions() SessionStore {
	return newSessionStore(s.queries)
}

func (s *Stores) Accounts() AccountStore {
	return newAccountStore(s.queries)
}

func (s *Stores) Invitations() InvitationStore {
	return newInvitationStore(s.queries)
}

func (s *Stores) InviteCodes() InviteCodeStore {
	return newInviteCodeStore(s.queries)
}

func (s *Stores) MagicLinks() MagicLinkStore {
	return newMagicLinkStore(s.queries)
}

func (s *Stores) Profiles() ProfileStore {
	return newProfileStore(s.queries)
}
