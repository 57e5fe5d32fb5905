package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"golang.org/x/crypto/bcrypt"

	"readiq.app/api/common/id"
	"readiq.app/api/common/logger"
	"readiq.app/api/core/config"
	"readiq.app/api/internal/mailer"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/store"
)

const (
	SessionDuration   = 7 * 24 * time.Hour
	MinPasswordLength = 8
	magicLinkTokenLen = 32
)

var (
	ErrInvalidCode           = errors.New("invalid authorization code")
	ErrUserNotFound          = errors.New("user not found")
	ErrSessionExpired        = errors.New("session expired")
	ErrMagicLinkInvalid      = errors.New("magic link is invalid or expired")
	ErrMagicLinkSendFailed   = errors.New("failed to send magic link")
	ErrPasswordTooShort      = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordAlreadySet    = errors.New("password already set")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrOrganizationIDMissing = errors.New("organization id is required")
)

type MagicLinkInput struct {
	Email       string
	Name        string
	CallbackURL string
}

type AuthService interface {
	GetAuthorizationURL(state string) (string, error)
	HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error)
	ValidateSession(ctx context.Context, sessionID int64) (*model.User, *model.Session, error)
	Logout(ctx context.Context, sessionID int64) error

	SendMagicLink(ctx context.Context, in MagicLinkInput) error
	// VerifyMagicLink signs the link's owner in and returns where to send them.
	VerifyMagicLink(ctx context.Context, token string) (*model.User, *model.Session, string, error)

	SetActiveOrganization(ctx context.Context, sessionID int64, organizationID string) error
	HasPasswordAccount(ctx context.Context, userID int64) (bool, error)
	SetPassword(ctx context.Context, userID int64, password string) error
	SignInWithPassword(ctx context.Context, email, password string) (*model.User, *model.Session, error)
}

type authService struct {
	users      store.UserStore
	sessions   store.SessionStore
	accounts   store.AccountStore
	magicLinks store.MagicLinkStore
	sender     mailer.Sender
	workOS     config.WorkOSConfig
	appURL     string
	apiURL     string
	linkTTL    time.Duration
}

type AuthConfig struct {
	WorkOS       config.WorkOSConfig
	AppURL       string
	APIURL       string
	MagicLinkTTL time.Duration
}

func NewAuthService(
	users store.UserStore,
	sessions store.SessionStore,
	accounts store.AccountStore,
	magicLinks store.MagicLinkStore,
	sender mailer.Sender,
	cfg AuthConfig,
) AuthService {
	usermanagement.SetAPIKey(cfg.WorkOS.APIKey)
	return &authService{
		users:      users,
		sessions:   sessions,
		accounts:   accounts,
		magicLinks: magicLinks,
		sender:     sender,
		workOS:     cfg.WorkOS,
		appURL:     strings.TrimRight(cfg.AppURL, "/"),
		apiURL:     strings.TrimRight(cfg.APIURL, "/"),
		linkTTL:    cfg.MagicLinkTTL,
	}
}

func (s *authService) GetAuthorizationURL(state string) (string, error) {
	u, err := usermanagement.GetAuthorizationURL(usermanagement.GetAuthorizationURLOpts{
		ClientID:    s.workOS.ClientID,
		RedirectURI: s.workOS.RedirectURI,
		State:       state,
		Provider:    "authkit",
	})
	if err != nil {
		return "", fmt.Errorf("generating authorization URL: %w", err)
	}
	return u.String(), nil
}

func (s *authService) HandleCallback(ctx context.Context, code string) (*model.User, *model.Session, error) {
	authResponse, err := usermanagement.AuthenticateWithCode(ctx, usermanagement.AuthenticateWithCodeOpts{
		ClientID: s.workOS.ClientID,
		Code:     code,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to authenticate with code", "error", err)
		return nil, nil, ErrInvalidCode
	}

	workosUser := authResponse.User

	var avatarURL *string
	if workosUser.ProfilePictureURL != "" {
		avatarURL = &workosUser.ProfilePictureURL
	}

	user := &model.User{
		ID:        id.New(),
		Name:      displayName(workosUser.FirstName, workosUser.LastName, workosUser.Email),
		Email:     normalizeEmail(workosUser.Email),
		AvatarURL: avatarURL,
		WorkOSID:  &workosUser.ID,
	}

	if err := s.users.UpsertByWorkOSID(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("upserting user: %w", err)
	}

	// AuthKit reports the organization the user signed in to, if any.
	session, err := s.createSession(ctx, user, authResponse.OrganizationID)
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *authService) ValidateSession(ctx context.Context, sessionID int64) (*model.User, *model.Session, error) {
	session, err := s.sessions.GetValid(ctx, sessionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrSessionExpired
		}
		return nil, nil, fmt.Errorf("getting session: %w", err)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrUserNotFound
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	return user, session, nil
}

func (s *authService) Logout(ctx context.Context, sessionID int64) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

func (s *authService) SendMagicLink(ctx context.Context, in MagicLinkInput) error {
	token, err := randomToken(magicLinkTokenLen)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMagicLinkSendFailed, err)
	}

	link := &model.MagicLink{
		ID:          id.New(),
		Email:       in.Email,
		Name:        in.Name,
		TokenHash:   hashToken(token),
		CallbackURL: in.CallbackURL,
		ExpiresAt:   time.Now().Add(s.linkTTL),
	}
	if err := s.magicLinks.Create(ctx, link); err != nil {
		return fmt.Errorf("%w: storing link: %v", ErrMagicLinkSendFailed, err)
	}

	verifyURL := s.apiURL + "/api/auth/magic-link/verify?token=" + url.QueryEscape(token)
	msg, err := mailer.MagicLinkEmail(in.Email, mailer.MagicLinkData{
		Name:             in.Name,
		URL:              verifyURL,
		ExpiresInMinutes: int(s.linkTTL.Minutes()),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMagicLinkSendFailed, err)
	}
	if err := s.sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrMagicLinkSendFailed, err)
	}

	slog.InfoContext(ctx, "magic link sent",
		"email", logger.MaskEmail(in.Email),
		"expires_at", link.ExpiresAt)
	return nil
}

func (s *authService) VerifyMagicLink(ctx context.Context, token string) (*model.User, *model.Session, string, error) {
	if token == "" {
		return nil, nil, "", ErrMagicLinkInvalid
	}

	link, err := s.magicLinks.Consume(ctx, hashToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, "", ErrMagicLinkInvalid
		}
		return nil, nil, "", fmt.Errorf("consuming magic link: %w", err)
	}

	name := link.Name
	if name == "" {
		name = link.Email
	}
	user := &model.User{
		ID:    id.New(),
		Name:  name,
		Email: normalizeEmail(link.Email),
	}
	if err := s.users.UpsertByEmail(ctx, user); err != nil {
		return nil, nil, "", fmt.Errorf("upserting user: %w", err)
	}

	session, err := s.createSession(ctx, user, "")
	if err != nil {
		return nil, nil, "", err
	}

	return user, session, s.safeRedirect(link.CallbackURL), nil
}

// safeRedirect only lets links send users back to this API or the app.
func (s *authService) safeRedirect(target string) string {
	if target != "" && (hasOrigin(target, s.apiURL) || hasOrigin(target, s.appURL)) {
		return target
	}
	return s.appURL + "/dashboard"
}

func hasOrigin(target, origin string) bool {
	return origin != "" && (target == origin || strings.HasPrefix(target, origin+"/") || strings.HasPrefix(target, origin+"?"))
}

func (s *authService) SetActiveOrganization(ctx context.Context, sessionID int64, organizationID string) error {
	if organizationID == "" {
		return ErrOrganizationIDMissing
	}
	if _, err := s.sessions.SetActiveOrganization(ctx, sessionID, organizationID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrSessionExpired
		}
		return fmt.Errorf("setting active organization: %w", err)
	}
	return nil
}

func (s *authService) HasPasswordAccount(ctx context.Context, userID int64) (bool, error) {
	account, err := s.accounts.GetCredential(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("getting credential account: %w", err)
	}
	return account.PasswordHash != nil && *account.PasswordHash != "", nil
}

func (s *authService) SetPassword(ctx context.Context, userID int64, password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	hashStr := string(hash)

	err = s.accounts.CreateCredential(ctx, &model.Account{
		ID:           id.New(),
		UserID:       userID,
		ProviderID:   model.AccountProviderCredential,
		PasswordHash: &hashStr,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrPasswordAlreadySet
		}
		return fmt.Errorf("creating credential account: %w", err)
	}

	slog.InfoContext(ctx, "password set", "user_id", userID)
	return nil
}

func (s *authService) SignInWithPassword(ctx context.Context, email, password string) (*model.User, *model.Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("getting user: %w", err)
	}

	account, err := s.accounts.GetCredential(ctx, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, fmt.Errorf("getting credential account: %w", err)
	}
	if account.PasswordHash == nil || bcrypt.CompareHashAndPassword([]byte(*account.PasswordHash), []byte(password)) != nil {
		return nil, nil, ErrInvalidCredentials
	}

	session, err := s.createSession(ctx, user, "")
	if err != nil {
		return nil, nil, err
	}
	return user, session, nil
}

func (s *authService) createSession(ctx context.Context, user *model.User, organizationID string) (*model.Session, error) {
	session := &model.Session{
		ID:        id.New(),
		UserID:    user.ID,
		ExpiresAt: time.Now().Add(SessionDuration),
	}
	if organizationID != "" {
		session.ActiveOrganizationID = &organizationID
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	slog.InfoContext(ctx, "user authenticated",
		"user_id", user.ID,
		"email", logger.MaskEmail(user.Email),
		"session_id", session.ID)
	return session, nil
}

// normalizeEmail gives every sign-in path the same key for one mailbox.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func displayName(first, last, email string) string {
	switch {
	case first != "" && last != "":
		return first + " " + last
	case first != "":
		return first
	case last != "":
		return last
	}
	return email
}

func randomToken(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
