package handler

import (
	"net/url"
	"strings"
)

// Redirects sends users back to pages of the web app.
type Redirects struct {
	appURL string
}

func NewRedirects(appURL string) Redirects {
	return Redirects{appURL: strings.TrimRight(appURL, "/")}
}

func (r Redirects) Home() string {
	return r.appURL + "/dashboard"
}

func (r Redirects) InviteMismatch(invitedEmail, currentEmail, invitationID string) string {
	q := url.Values{}
	q.Set("invited", invitedEmail)
	q.Set("current", currentEmail)
	q.Set("invitationId", invitationID)
	return r.appURL + "/invite-mismatch?" + q.Encode()
}

func (r Redirects) CreatePassword(email, organizationName string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("organization", organizationName)
	return r.appURL + "/create-password?" + q.Encode()
}

func (r Redirects) CheckoutComplete() string {
	return r.appURL + "/dashboard?upgraded=1"
}

func (r Redirects) CheckoutExpired() string {
	return r.appURL + "/dashboard?checkout=expired"
}

func (r Redirects) AuthError(reason string) string {
	return r.appURL + "/dashboard?auth_error=" + url.QueryEscape(reason)
}
