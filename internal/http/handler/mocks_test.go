package handler_test

import (
	"context"
	"net/http"

	"readiq.app/api/common/id"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

const testSessionID int64 = 42

func sessionCookie() *http.Cookie {
	return &http.Cookie{Name: middleware.SessionCookieName, Value: id.String(testSessionID)}
}

type mockAuthService struct {
	validateSessionFn func(ctx context.Context, sessionID int64) (*model.User, *model.Session, error)
	verifyMagicLinkFn func(ctx context.Context, token string) (*model.User, *model.Session, string, error)
	setPasswordFn     func(ctx context.Context, userID int64, password string) error
	signInFn          func(ctx context.Context, email, password string) (*model.User, *model.Session, error)
	loggedOut         []int64
}

// signedInAs makes every session cookie resolve to user, with org_1 active.
func (m *mockAuthService) signedInAs(user *model.User) {
	m.signedInTo(user, "org_1")
}

// signedInTo is signedInAs with a chosen active organization; "" leaves none.
func (m *mockAuthService) signedInTo(user *model.User, organizationID string) {
	m.validateSessionFn = func(_ context.Context, sessionID int64) (*model.User, *model.Session, error) {
		session := &model.Session{ID: sessionID, UserID: user.ID}
		if organizationID != "" {
			session.ActiveOrganizationID = &organizationID
		}
		return user, session, nil
	}
}

func (m *mockAuthService) GetAuthorizationURL(state string) (string, error) {
	return "https://auth.example.com/authorize?state=" + state, nil
}

func (m *mockAuthService) HandleCallback(context.Context, string) (*model.User, *model.Session, error) {
	return nil, nil, service.ErrInvalidCode
}

func (m *mockAuthService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, *model.Session, error) {
	if m.validateSessionFn != nil {
		return m.validateSessionFn(ctx, sessionID)
	}
	return nil, nil, service.ErrSessionExpired
}

func (m *mockAuthService) Logout(_ context.Context, sessionID int64) error {
	m.loggedOut = append(m.loggedOut, sessionID)
	return nil
}

func (m *mockAuthService) SendMagicLink(context.Context, service.MagicLinkInput) error {
	return nil
}

func (m *mockAuthService) VerifyMagicLink(ctx context.Context, token string) (*model.User, *model.Session, string, error) {
	if m.verifyMagicLinkFn != nil {
		return m.verifyMagicLinkFn(ctx, token)
	}
	return nil, nil, "", service.ErrMagicLinkInvalid
}

func (m *mockAuthService) SetActiveOrganization(context.Context, int64, string) error {
	return nil
}

func (m *mockAuthService) HasPasswordAccount(context.Context, int64) (bool, error) {
	return false, nil
}

func (m *mockAuthService) SetPassword(ctx context.Context, userID int64, password string) error {
	if m.setPasswordFn != nil {
		return m.setPasswordFn(ctx, userID, password)
	}
	return nil
}

func (m *mockAuthService) SignInWithPassword(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	if m.signInFn != nil {
		return m.signInFn(ctx, email, password)
	}
	return nil, nil, service.ErrInvalidCredentials
}

type mockInvitationService struct {
	inviteFn         func(ctx context.Context, in service.InviteInput) (*model.Invitation, error)
	acceptFn         func(ctx context.Context, in service.AcceptInput) (*service.AcceptResult, error)
	acceptWithCodeFn func(ctx context.Context, in service.AcceptCodeInput) (*service.AcceptResult, error)
	resendFn         func(ctx context.Context, in service.ResendInput) error
	listFn           func(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error)
	revokeFn         func(ctx context.Context, organizationID, invitationID string) (*model.Invitation, error)
	acceptCalls      int
}

func (m *mockInvitationService) Invite(ctx context.Context, in service.InviteInput) (*model.Invitation, error) {
	if m.inviteFn != nil {
		return m.inviteFn(ctx, in)
	}
	return &model.Invitation{ID: "inv_1", Email: in.Email, OrganizationID: in.OrganizationID}, nil
}

func (m *mockInvitationService) Accept(ctx context.Context, in service.AcceptInput) (*service.AcceptResult, error) {
	m.acceptCalls++
	if m.acceptFn != nil {
		return m.acceptFn(ctx, in)
	}
	return &service.AcceptResult{}, nil
}

func (m *mockInvitationService) AcceptWithCode(ctx context.Context, in service.AcceptCodeInput) (*service.AcceptResult, error) {
	if m.acceptWithCodeFn != nil {
		return m.acceptWithCodeFn(ctx, in)
	}
	return &service.AcceptResult{}, nil
}

func (m *mockInvitationService) ResendMagicLink(ctx context.Context, in service.ResendInput) error {
	if m.resendFn != nil {
		return m.resendFn(ctx, in)
	}
	return nil
}

func (m *mockInvitationService) List(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error) {
	if m.listFn != nil {
		return m.listFn(ctx, organizationID, limit, offset)
	}
	return nil, nil
}

func (m *mockInvitationService) Revoke(ctx context.Context, organizationID, invitationID string) (*model.Invitation, error) {
	if m.revokeFn != nil {
		return m.revokeFn(ctx, organizationID, invitationID)
	}
	return &model.Invitation{ID: invitationID}, nil
}

type mockSeatChecker struct {
	summaryFn func(ctx context.Context, organizationID string) (*service.SeatSummary, error)
}

func (m *mockSeatChecker) Check(context.Context, string) error {
	return nil
}

func (m *mockSeatChecker) Summary(ctx context.Context, organizationID string) (*service.SeatSummary, error) {
	if m.summaryFn != nil {
		return m.summaryFn(ctx, organizationID)
	}
	return &service.SeatSummary{Allowed: true}, nil
}

type mockProfileService struct {
	getFn      func(ctx context.Context, userID int64) (*model.Profile, error)
	setStepFn  func(ctx context.Context, userID int64, step int) (*model.Profile, error)
	completeFn func(ctx context.Context, userID int64) (*model.Profile, error)
}

func (m *mockProfileService) CreateOrUpdateProfile(context.Context, service.LinkProfileInput) (*service.LinkProfileResult, error) {
	return &service.LinkProfileResult{}, nil
}

func (m *mockProfileService) GetForUser(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID)
	}
	return nil, service.ErrProfileNotFound
}

func (m *mockProfileService) SetOnboardingStep(ctx context.Context, userID int64, step int) (*model.Profile, error) {
	if m.setStepFn != nil {
		return m.setStepFn(ctx, userID, step)
	}
	return nil, service.ErrProfileNotFound
}

func (m *mockProfileService) CompleteOnboarding(ctx context.Context, userID int64) (*model.Profile, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, userID)
	}
	return nil, service.ErrProfileNotFound
}

type mockPaymentService struct {
	startFn    func(ctx context.Context, in service.CheckoutInput) (*model.PaymentSession, error)
	completeFn func(ctx context.Context, sessionID string) (*model.PaymentSession, error)
}

func (m *mockPaymentService) StartCheckout(ctx context.Context, in service.CheckoutInput) (*model.PaymentSession, error) {
	if m.startFn != nil {
		return m.startFn(ctx, in)
	}
	return nil, service.ErrCheckoutFailed
}

func (m *mockPaymentService) CompleteCheckout(ctx context.Context, sessionID string) (*model.PaymentSession, error) {
	if m.completeFn != nil {
		return m.completeFn(ctx, sessionID)
	}
	return nil, service.ErrPaymentSessionExpired
}
