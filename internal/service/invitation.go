package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"readiq.app/api/common/logger"
	"readiq.app/api/internal/identity"
	"readiq.app/api/internal/mailer"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/queue"
	"readiq.app/api/internal/store"
)

const InviteCodeTTL = 24 * time.Hour

type InviteInput struct {
	Email          string
	Role           model.Role
	OrganizationID string
	Name           string
	Inviter        *model.User
	Channel        model.InvitationChannel
}

type AcceptInput struct {
	InvitationID string
	User         *model.User
	SessionID    int64
}

type AcceptCodeInput struct {
	Code      string
	User      *model.User
	SessionID int64
}

// AcceptResult describes where the user goes after a successful acceptance.
type AcceptResult struct {
	Invitation       *model.Invitation
	ProfileID        *int64
	NeedsPassword    bool
	OrganizationName string
}

type ResendInput struct {
	Email        string
	InvitationID string
	Name         string
}

type InvitationService interface {
	Invite(ctx context.Context, in InviteInput) (*model.Invitation, error)
	Accept(ctx context.Context, in AcceptInput) (*AcceptResult, error)
	AcceptWithCode(ctx context.Context, in AcceptCodeInput) (*AcceptResult, error)
	ResendMagicLink(ctx context.Context, in ResendInput) error
	List(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error)
	Revoke(ctx context.Context, organizationID, invitationID string) (*model.Invitation, error)
}

type InvitationDeps struct {
	Seats       SeatChecker
	Provider    identity.Provider
	Auth        AuthService
	Profiles    ProfileService
	Users       store.UserStore
	Invitations store.InvitationStore
	InviteCodes store.InviteCodeStore
	Sender      mailer.Sender
	// Producer is optional; without it link failures are only logged.
	Producer queue.Producer
	APIURL   string
}

type invitationService struct {
	InvitationDeps
	now func() time.Time
}

func NewInvitationService(deps InvitationDeps) InvitationService {
	deps.APIURL = strings.TrimRight(deps.APIURL, "/")
	return &invitationService{InvitationDeps: deps, now: time.Now}
}

func (s *invitationService) Invite(ctx context.Context, in InviteInput) (*model.Invitation, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, ErrInvalidEmail
	}
	role := in.Role.OrDefault()
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{
		OrganizationID: &in.OrganizationID,
		Component:      "readiq.service.invitation",
	})
	sc := logger.StartSpan(ctx, "invitation.issue")
	defer sc.End()
	ctx = sc.Context()
	sc.SetAttributes(attribute.String("channel", string(in.Channel)))

	if err := s.Seats.Check(ctx, in.OrganizationID); err != nil {
		return nil, err
	}

	if err := s.replacePending(ctx, in.OrganizationID, email); err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvitationCreateFailed, err)
	}

	sendIn := identity.SendInvitationInput{
		Email:          email,
		OrganizationID: in.OrganizationID,
		Role:           string(role),
	}
	var inviterID *int64
	if in.Inviter != nil {
		inviterID = &in.Inviter.ID
		if in.Inviter.WorkOSID != nil {
			sendIn.InviterProviderID = *in.Inviter.WorkOSID
		}
	}

	created, err := s.Provider.SendInvitation(ctx, sendIn)
	if err != nil {
		sc.RecordError(err)
		return nil, fmt.Errorf("%w: %v", ErrInvitationCreateFailed, err)
	}

	inv := &model.Invitation{
		ID:             created.ID,
		Email:          email,
		Role:           role,
		OrganizationID: in.OrganizationID,
		Status:         model.InvitationStatusPending,
		InviterID:      inviterID,
		ExpiresAt:      created.ExpiresAt,
	}
	if err := s.Invitations.Create(ctx, inv); err != nil {
		if _, revokeErr := s.Provider.RevokeInvitation(ctx, created.ID); revokeErr != nil {
			slog.ErrorContext(ctx, "failed to revoke orphaned provider invitation",
				"invitation_id", created.ID,
				"error", revokeErr)
		}
		sc.RecordError(err)
		return nil, fmt.Errorf("%w: recording invitation: %v", ErrInvitationCreateFailed, err)
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{InvitationID: &inv.ID})

	switch in.Channel {
	case model.InvitationChannelMobile:
		err = s.deliverCode(ctx, inv, in.Name)
	default:
		err = s.deliverMagicLink(ctx, inv, in.Name)
	}
	if err != nil {
		// The invitation stays pending so it can be resent.
		sc.RecordError(err)
		slog.ErrorContext(ctx, "invitation delivery failed", "error", err, "channel", in.Channel)
		return nil, err
	}

	slog.InfoContext(ctx, "invitation issued",
		"email", logger.MaskEmail(email),
		"role", role,
		"channel", in.Channel,
		"expires_at", inv.ExpiresAt)

	return inv, nil
}

// replacePending revokes an earlier pending invitation for the same address so
// re-inviting refreshes instead of duplicating.
func (s *invitationService) replacePending(ctx context.Context, organizationID, email string) error {
	existing, err := s.Invitations.GetPendingByOrgAndEmail(ctx, organizationID, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("looking up pending invitation: %w", err)
	}

	if _, err := s.Provider.RevokeInvitation(ctx, existing.ID); err != nil && !errors.Is(err, identity.ErrInvitationNotFound) {
		return fmt.Errorf("revoking previous invitation: %w", err)
	}
	if _, err := s.Invitations.Revoke(ctx, existing.ID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("revoking previous invitation locally: %w", err)
	}
	if err := s.InviteCodes.Delete(ctx, existing.ID); err != nil {
		slog.WarnContext(ctx, "failed to delete previous invite code", "invitation_id", existing.ID, "error", err)
	}

	slog.InfoContext(ctx, "previous invitation replaced", "previous_invitation_id", existing.ID)
	return nil
}

func (s *invitationService) acceptURL(invitationID string) string {
	return s.APIURL + "/api/organization/accept-invite/" + invitationID
}

func (s *invitationService) deliverMagicLink(ctx context.Context, inv *model.Invitation, name string) error {
	err := s.Auth.SendMagicLink(ctx, MagicLinkInput{
		Email:       inv.Email,
		Name:        name,
		CallbackURL: s.acceptURL(inv.ID),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvitationDeliveryFailed, err)
	}
	return nil
}

func (s *invitationService) deliverCode(ctx context.Context, inv *model.Invitation, name string) error {
	code, err := GenerateInviteCode()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInviteCodeStorageFailed, err)
	}
	hash, err := HashInviteCode(code)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInviteCodeStorageFailed, err)
	}

	if err := s.InviteCodes.Create(ctx, &model.InviteCode{
		InvitationID: inv.ID,
		OrgID:        inv.OrganizationID,
		Email:        inv.Email,
		CodeHash:     hash,
		ExpiresAt:    s.now().Add(InviteCodeTTL),
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrInviteCodeStorageFailed, err)
	}

	orgName := s.organizationName(ctx, inv.OrganizationID)
	if orgName == "" {
		orgName = "your organization"
	}

	msg, err := mailer.InviteCodeEmail(inv.Email, mailer.InviteCodeData{
		Name:             name,
		OrganizationName: orgName,
		Code:             code,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	if err := s.Sender.Send(ctx, msg); err != nil {
		return fmt.Errorf("%w: %v", ErrEmailDeliveryFailed, err)
	}
	return nil
}

func (s *invitationService) Accept(ctx context.Context, in AcceptInput) (*AcceptResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InvitationID: &in.InvitationID,
		UserID:       &in.User.ID,
		Component:    "readiq.service.invitation",
	})

	inv, err := s.Invitations.GetByID(ctx, in.InvitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}

	return s.accept(ctx, inv, in.User, in.SessionID)
}

func (s *invitationService) AcceptWithCode(ctx context.Context, in AcceptCodeInput) (*AcceptResult, error) {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		UserID:    &in.User.ID,
		Component: "readiq.service.invitation",
	})

	code := NormalizeInviteCode(in.Code)
	if len(code) != InviteCodeLength {
		return nil, ErrInvalidInviteCode
	}

	candidates, err := s.InviteCodes.ListActiveByEmail(ctx, in.User.Email)
	if err != nil {
		return nil, fmt.Errorf("listing invite codes: %w", err)
	}

	var match *model.InviteCode
	for i := range candidates {
		if InviteCodeMatches(candidates[i].CodeHash, code) {
			match = &candidates[i]
			break
		}
	}
	if match == nil {
		slog.InfoContext(ctx, "invite code did not match", "candidates", len(candidates))
		return nil, ErrInvalidInviteCode
	}

	ctx = logger.WithLogFields(ctx, logger.LogFields{InvitationID: &match.InvitationID})

	inv, err := s.Invitations.GetByID(ctx, match.InvitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}

	result, err := s.accept(ctx, inv, in.User, in.SessionID)
	if err != nil {
		return nil, err
	}

	if err := s.InviteCodes.Delete(ctx, match.InvitationID); err != nil {
		slog.WarnContext(ctx, "failed to delete redeemed invite code", "error", err)
	}
	return result, nil
}

func (s *invitationService) accept(ctx context.Context, inv *model.Invitation, user *model.User, sessionID int64) (*AcceptResult, error) {
	sc := logger.StartSpan(ctx, "invitation.accept")
	defer sc.End()
	ctx = sc.Context()

	if !inv.IsPending() {
		if inv.Status == model.InvitationStatusPending {
			if err := s.Invitations.MarkExpired(ctx, inv.ID); err != nil {
				slog.WarnContext(ctx, "failed to mark invitation expired", "error", err)
			}
		}
		slog.InfoContext(ctx, "invitation not pending", "status", inv.Status)
		return nil, ErrInvitationNotPending
	}

	if !strings.EqualFold(inv.Email, user.Email) {
		slog.WarnContext(ctx, "email mismatch on invitation acceptance",
			"invited", logger.MaskEmail(inv.Email),
			"current", logger.MaskEmail(user.Email))
		return nil, &EmailMismatchError{
			InvitationID: inv.ID,
			InvitedEmail: inv.Email,
			CurrentEmail: user.Email,
		}
	}

	claimed, err := s.Invitations.Claim(ctx, inv.ID, user.ID)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			slog.InfoContext(ctx, "invitation claimed concurrently")
			return nil, ErrInvitationNotPending
		}
		sc.RecordError(err)
		return nil, fmt.Errorf("%w: claiming invitation: %v", ErrInvitationAcceptFailed, err)
	}

	role := inv.Role.OrDefault()
	acceptIn := identity.AcceptInvitationInput{
		InvitationID: inv.ID,
		Email:        user.Email,
		Name:         user.Name,
		Role:         string(role),
	}
	if user.WorkOSID != nil {
		acceptIn.UserProviderID = *user.WorkOSID
	}
	membership, err := s.Provider.AcceptInvitation(ctx, acceptIn)
	if err != nil {
		sc.RecordError(err)
		slog.ErrorContext(ctx, "provider rejected invitation acceptance", "error", err)
		if releaseErr := s.Invitations.ReleaseClaim(ctx, inv.ID); releaseErr != nil {
			slog.ErrorContext(ctx, "failed to release invitation claim", "error", releaseErr)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvitationAcceptFailed, err)
	}
	s.linkProviderUser(ctx, user, membership.UserProviderID)

	result := &AcceptResult{Invitation: claimed}

	linked, err := s.Profiles.CreateOrUpdateProfile(ctx, LinkProfileInput{
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           role,
		OrganizationID: inv.OrganizationID,
	})
	if err != nil {
		slog.ErrorContext(ctx, "profile link failed after acceptance", "error", err)
		s.enqueueProfileLink(ctx, inv, user, role)
	} else {
		result.ProfileID = &linked.ProfileID
	}

	if inv.OrganizationID != "" {
		if err := s.Auth.SetActiveOrganization(ctx, sessionID, inv.OrganizationID); err != nil {
			slog.WarnContext(ctx, "failed to set active organization", "error", err)
		}
	}

	hasPassword, err := s.Auth.HasPasswordAccount(ctx, user.ID)
	if err != nil {
		slog.WarnContext(ctx, "failed to check password account", "error", err)
		hasPassword = true
	}
	if !hasPassword {
		result.NeedsPassword = true
		result.OrganizationName = s.organizationName(ctx, inv.OrganizationID)
	}

	slog.InfoContext(ctx, "invitation accepted",
		"role", role,
		"needs_password", result.NeedsPassword)

	return result, nil
}

// linkProviderUser records the provider id for accounts created outside the
// provider. Failure only costs a lookup on the next acceptance.
func (s *invitationService) linkProviderUser(ctx context.Context, user *model.User, providerUserID string) {
	if providerUserID == "" || user.WorkOSID != nil || s.Users == nil {
		return
	}
	if err := s.Users.SetWorkOSID(ctx, user.ID, providerUserID); err != nil {
		slog.WarnContext(ctx, "failed to store provider user id", "error", err)
		return
	}
	user.WorkOSID = &providerUserID
}

func (s *invitationService) enqueueProfileLink(ctx context.Context, inv *model.Invitation, user *model.User, role model.Role) {
	if s.Producer == nil {
		slog.WarnContext(ctx, "no reconcile queue configured, profile link left for manual repair")
		return
	}

	task := queue.ProfileLinkTask{
		InvitationID:   inv.ID,
		OrganizationID: inv.OrganizationID,
		UserID:         user.ID,
		Email:          user.Email,
		Name:           user.Name,
		Role:           string(role),
	}
	if traceID := logger.TraceIDFromContext(ctx); traceID != "" {
		task.TraceID = &traceID
	}
	if err := s.Producer.EnqueueProfileLink(ctx, task); err != nil {
		slog.ErrorContext(ctx, "failed to enqueue profile link", "error", err)
	}
}

func (s *invitationService) organizationName(ctx context.Context, organizationID string) string {
	if organizationID == "" {
		return ""
	}
	name, err := s.Provider.GetOrganizationName(ctx, organizationID)
	if err != nil {
		slog.WarnContext(ctx, "failed to look up organization name", "organization_id", organizationID, "error", err)
		return ""
	}
	return name
}

func (s *invitationService) ResendMagicLink(ctx context.Context, in ResendInput) error {
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		InvitationID: &in.InvitationID,
		Component:    "readiq.service.invitation",
	})

	inv, err := s.Invitations.GetByID(ctx, in.InvitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvitationNotFound
		}
		return fmt.Errorf("getting invitation: %w", err)
	}
	if !inv.IsPending() {
		return ErrInvitationNotPending
	}
	if !strings.EqualFold(inv.Email, strings.TrimSpace(in.Email)) {
		return ErrEmailMismatch
	}

	if err := s.deliverMagicLink(ctx, inv, in.Name); err != nil {
		slog.ErrorContext(ctx, "magic link resend failed", "error", err)
		return err
	}

	slog.InfoContext(ctx, "magic link resent", "email", logger.MaskEmail(inv.Email))
	return nil
}

func (s *invitationService) List(ctx context.Context, organizationID string, limit, offset int32) ([]model.Invitation, error) {
	invitations, err := s.Invitations.ListByOrganization(ctx, organizationID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing invitations: %w", err)
	}
	return invitations, nil
}

func (s *invitationService) Revoke(ctx context.Context, organizationID, invitationID string) (*model.Invitation, error) {
	inv, err := s.Invitations.GetByID(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	if inv.OrganizationID != organizationID {
		return nil, ErrInvitationNotFound
	}
	if inv.Status != model.InvitationStatusPending {
		return nil, ErrInvitationNotPending
	}

	if _, err := s.Provider.RevokeInvitation(ctx, invitationID); err != nil && !errors.Is(err, identity.ErrInvitationNotFound) {
		return nil, fmt.Errorf("revoking invitation: %w", err)
	}

	revoked, err := s.Invitations.Revoke(ctx, invitationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvitationNotPending
		}
		return nil, fmt.Errorf("revoking invitation locally: %w", err)
	}
	if err := s.InviteCodes.Delete(ctx, invitationID); err != nil {
		slog.WarnContext(ctx, "failed to delete invite code", "invitation_id", invitationID, "error", err)
	}

	slog.InfoContext(ctx, "invitation revoked",
		"invitation_id", invitationID,
		"organization_id", organizationID)
	return revoked, nil
}
