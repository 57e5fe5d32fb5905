package service

import (
	"readiq.app/api/core/config"
	"readiq.app/api/internal/billing"
	"readiq.app/api/internal/identity"
	"readiq.app/api/internal/mailer"
	"readiq.app/api/internal/queue"
	"readiq.app/api/internal/store"
)

type Services struct {
	stores       *store.Stores
	txRunner     TxRunner
	provider     identity.Provider
	billing      billing.Client
	sender       mailer.Sender
	producer     queue.Producer
	paymentStore store.PaymentSessionStore
	cfg          config.Config
}

type Deps struct {
	Stores       *store.Stores
	TxRunner     TxRunner
	Provider     identity.Provider
	Billing      billing.Client
	Sender       mailer.Sender
	Producer     queue.Producer
	PaymentStore store.PaymentSessionStore
	Config       config.Config
}

func NewServices(deps Deps) *Services {
	return &Services{
		stores:       deps.Stores,
		txRunner:     deps.TxRunner,
		provider:     deps.Provider,
		billing:      deps.Billing,
		sender:       deps.Sender,
		producer:     deps.Producer,
		paymentStore: deps.PaymentStore,
		cfg:          deps.Config,
	}
}

func (s *Services) Auth() AuthService {
	return NewAuthService(
		s.stores.Users(),
		s.stores.Sessions(),
		s.stores.Accounts(),
		s.stores.MagicLinks(),
		s.sender,
		AuthConfig{
			WorkOS:       s.cfg.WorkOS,
			AppURL:       s.cfg.AppURL,
			APIURL:       s.cfg.APIURL,
			MagicLinkTTL: s.cfg.MagicLinkTTL,
		},
	)
}

func (s *Services) Seats() SeatChecker {
	return NewSeatChecker(s.billing, s.cfg.Billing.SeatFeatureID)
}

func (s *Services) Profiles() ProfileService {
	return NewProfileService(s.txRunner, s.stores.Profiles())
}

func (s *Services) Invitations() InvitationService {
	return NewInvitationService(InvitationDeps{
		Seats:       s.Seats(),
		Provider:    s.provider,
		Auth:        s.Auth(),
		Profiles:    s.Profiles(),
		Users:       s.stores.Users(),
		Invitations: s.stores.Invitations(),
		InviteCodes: s.stores.InviteCodes(),
		Sender:      s.sender,
		Producer:    s.producer,
		APIURL:      s.cfg.APIURL,
	})
}

func (s *Services) Payments() PaymentService {
	return NewPaymentService(s.billing, s.paymentStore, s.cfg.APIURL, s.cfg.PaymentSessionTTL)
}
