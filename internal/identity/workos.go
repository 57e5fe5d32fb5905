package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/workos/workos-go/v6/pkg/organizations"
	"github.com/workos/workos-go/v6/pkg/usermanagement"
	"github.com/workos/workos-go/v6/pkg/workos_errors"

	"readiq.app/api/core/config"
)

// Provider invitations live for a week unless the provider says otherwise.
const defaultInvitationLifetime = 7 * 24 * time.Hour

type workOSProvider struct{}

// NewWorkOSProvider configures the WorkOS SDK packages and returns a Provider
// backed by them.
func NewWorkOSProvider(cfg config.WorkOSConfig) Provider {
	usermanagement.SetAPIKey(cfg.APIKey)
	organizations.SetAPIKey(cfg.APIKey)
	return &workOSProvider{}
}

func (p *workOSProvider) SendInvitation(ctx context.Context, in SendInvitationInput) (*Invitation, error) {
	inv, err := usermanagement.SendInvitation(ctx, usermanagement.SendInvitationOpts{
		Email:          in.Email,
		OrganizationID: in.OrganizationID,
		InviterUserID:  in.InviterProviderID,
		RoleSlug:       in.Role,
	})
	if err != nil {
		return nil, fmt.Errorf("sending invitation: %w", err)
	}
	return fromWorkOSInvitation(ctx, inv), nil
}

func (p *workOSProvider) AcceptInvitation(ctx context.Context, in AcceptInvitationInput) (*Membership, error) {
	inv, err := usermanagement.GetInvitation(ctx, usermanagement.GetInvitationOpts{
		Invitation: in.InvitationID,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("getting invitation: %w", err)
	}
	if inv.State != usermanagement.Pending {
		return nil, fmt.Errorf("%w: %s", ErrInvitationNotPending, inv.State)
	}

	userID, err := p.resolveUser(ctx, in)
	if err != nil {
		return nil, err
	}

	m, err := usermanagement.CreateOrganizationMembership(ctx, usermanagement.CreateOrganizationMembershipOpts{
		UserID:         userID,
		OrganizationID: inv.OrganizationID,
		RoleSlug:       in.Role,
	})
	if err != nil {
		if statusCode(err) == http.StatusConflict {
			slog.InfoContext(ctx, "user already a member at provider", "organization_id", inv.OrganizationID)
			return &Membership{UserProviderID: userID, OrganizationID: inv.OrganizationID}, nil
		}
		return nil, fmt.Errorf("creating organization membership: %w", err)
	}

	return &Membership{
		ID:             m.ID,
		UserProviderID: m.UserID,
		OrganizationID: m.OrganizationID,
	}, nil
}

// resolveUser finds the provider user for the accepting account by email and
// creates one when the account signed up outside the provider (magic link,
// password).
func (p *workOSProvider) resolveUser(ctx context.Context, in AcceptInvitationInput) (string, error) {
	if in.UserProviderID != "" {
		return in.UserProviderID, nil
	}

	list, err := usermanagement.ListUsers(ctx, usermanagement.ListUsersOpts{
		Email: in.Email,
		Limit: 1,
	})
	if err != nil {
		return "", fmt.Errorf("looking up provider user: %w", err)
	}
	if len(list.Data) > 0 {
		return list.Data[0].ID, nil
	}

	first, last := splitName(in.Name, in.Email)
	user, err := usermanagement.CreateUser(ctx, usermanagement.CreateUserOpts{
		Email:         in.Email,
		FirstName:     first,
		LastName:      last,
		EmailVerified: true,
	})
	if err != nil {
		return "", fmt.Errorf("creating provider user: %w", err)
	}
	slog.InfoContext(ctx, "provisioned provider user for invitation")
	return user.ID, nil
}

func (p *workOSProvider) RevokeInvitation(ctx context.Context, invitationID string) (*Invitation, error) {
	inv, err := usermanagement.RevokeInvitation(ctx, usermanagement.RevokeInvitationOpts{
		Invitation: invitationID,
	})
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("revoking invitation: %w", err)
	}
	return fromWorkOSInvitation(ctx, inv), nil
}

func (p *workOSProvider) GetOrganizationName(ctx context.Context, organizationID string) (string, error) {
	org, err := organizations.GetOrganization(ctx, organizations.GetOrganizationOpts{
		Organization: organizationID,
	})
	if err != nil {
		return "", fmt.Errorf("getting organization: %w", err)
	}
	return org.Name, nil
}

func fromWorkOSInvitation(ctx context.Context, inv usermanagement.Invitation) *Invitation {
	return &Invitation{
		ID:             inv.ID,
		Email:          inv.Email,
		State:          InvitationState(inv.State),
		OrganizationID: inv.OrganizationID,
		ExpiresAt:      parseExpiry(ctx, inv.ExpiresAt),
	}
}

func parseExpiry(ctx context.Context, raw string) time.Time {
	if raw == "" {
		return time.Now().Add(defaultInvitationLifetime)
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		slog.WarnContext(ctx, "unparseable invitation expiry from provider", "expires_at", raw, "error", err)
		return time.Now().Add(defaultInvitationLifetime)
	}
	return t
}

func splitName(name, email string) (string, string) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, email) {
		return "", ""
	}
	first, last, _ := strings.Cut(name, " ")
	return first, strings.TrimSpace(last)
}

func statusCode(err error) int {
	var httpErr workos_errors.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}
	return 0
}

func isNotFound(err error) bool {
	return statusCode(err) == http.StatusNotFound
}
