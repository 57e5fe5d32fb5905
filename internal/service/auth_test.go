package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/workos/workos-go/v6/pkg/usermanagement"

	"readiq.app/api/core/config"
	"readiq.app/api/internal/mailer"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

var verifyLinkPattern = regexp.MustCompile(`href="([^"]+)"`)

func magicLinkToken(msg mailer.Message) string {
	m := verifyLinkPattern.FindStringSubmatch(msg.HTML)
	Expect(m).NotTo(BeNil())
	u, err := url.Parse(m[1])
	Expect(err).NotTo(HaveOccurred())
	return u.Query().Get("token")
}

var _ = Describe("AuthService", func() {
	var (
		ctx        context.Context
		users      *memoryUserStore
		sessions   *memorySessionStore
		accounts   *memoryAccountStore
		magicLinks *memoryMagicLinkStore
		sender     *mockSender
		svc        service.AuthService
	)

	BeforeEach(func() {
		ctx = context.Background()
		users = newMemoryUserStore()
		sessions = newMemorySessionStore()
		accounts = newMemoryAccountStore()
		magicLinks = newMemoryMagicLinkStore()
		sender = &mockSender{}
		svc = service.NewAuthService(users, sessions, accounts, magicLinks, sender, service.AuthConfig{
			WorkOS:       config.WorkOSConfig{APIKey: "sk_test", ClientID: "client_test"},
			AppURL:       "https://app.readiq.app",
			APIURL:       "https://api.readiq.app",
			MagicLinkTTL: 15 * time.Minute,
		})
	})

	Describe("magic links", func() {
		callback := "https://api.readiq.app/api/organization/accept-invite/inv_1"

		It("stores only a hash of the emailed token", func() {
			Expect(svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "alice@co.com", Name: "Alice", CallbackURL: callback})).To(Succeed())

			Expect(sender.sent).To(HaveLen(1))
			token := magicLinkToken(sender.sent[0])
			Expect(token).NotTo(BeEmpty())

			Expect(magicLinks.links).To(HaveLen(1))
			for hash, link := range magicLinks.links {
				Expect(hash).NotTo(Equal(token))
				Expect(link.CallbackURL).To(Equal(callback))
				Expect(link.ExpiresAt).To(BeTemporally("~", time.Now().Add(15*time.Minute), 5*time.Second))
			}
		})

		It("signs the user in once and returns the callback", func() {
			Expect(svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "alice@co.com", Name: "Alice", CallbackURL: callback})).To(Succeed())
			token := magicLinkToken(sender.sent[0])

			user, session, redirect, err := svc.VerifyMagicLink(ctx, token)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("alice@co.com"))
			Expect(user.Name).To(Equal("Alice"))
			Expect(session.UserID).To(Equal(user.ID))
			Expect(redirect).To(Equal(callback))

			_, _, _, err = svc.VerifyMagicLink(ctx, token)
			Expect(err).To(MatchError(service.ErrMagicLinkInvalid))
		})

		It("reuses an existing user with the same email", func() {
			existing := model.User{ID: 500, Email: "alice@co.com", Name: "Alice A."}
			users.users[existing.ID] = existing

			Expect(svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "alice@co.com", CallbackURL: callback})).To(Succeed())
			user, _, _, err := svc.VerifyMagicLink(ctx, magicLinkToken(sender.sent[0]))
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(500)))
		})

		It("reuses an existing user when the link email differs only in case", func() {
			existing := model.User{ID: 500, Email: "alice@co.com", Name: "Alice A."}
			users.users[existing.ID] = existing

			Expect(svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "Alice@Co.com", CallbackURL: callback})).To(Succeed())
			user, _, _, err := svc.VerifyMagicLink(ctx, magicLinkToken(sender.sent[0]))
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(500)))
			Expect(users.users).To(HaveLen(1))
		})

		It("never redirects off-site", func() {
			Expect(svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "alice@co.com", CallbackURL: "https://api.readiq.app.evil.com/x"})).To(Succeed())

			_, _, redirect, err := svc.VerifyMagicLink(ctx, magicLinkToken(sender.sent[0]))
			Expect(err).NotTo(HaveOccurred())
			Expect(redirect).To(Equal("https://app.readiq.app/dashboard"))
		})

		It("rejects unknown tokens", func() {
			_, _, _, err := svc.VerifyMagicLink(ctx, "bogus")
			Expect(err).To(MatchError(service.ErrMagicLinkInvalid))
		})

		It("reports delivery failures", func() {
			sender.sendFn = func(context.Context, mailer.Message) error { return errors.New("smtp down") }
			err := svc.SendMagicLink(ctx, service.MagicLinkInput{Email: "alice@co.com", CallbackURL: callback})
			Expect(err).To(MatchError(service.ErrMagicLinkSendFailed))
		})
	})

	Describe("passwords", func() {
		var user model.User

		BeforeEach(func() {
			user = model.User{ID: 42, Email: "alice@co.com", Name: "Alice"}
			users.users[user.ID] = user
		})

		It("reports no password account before one is set", func() {
			has, err := svc.HasPasswordAccount(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeFalse())
		})

		It("sets a password once", func() {
			Expect(svc.SetPassword(ctx, user.ID, "correct horse")).To(Succeed())

			has, err := svc.HasPasswordAccount(ctx, user.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(has).To(BeTrue())
			Expect(*accounts.accounts[user.ID].PasswordHash).NotTo(Equal("correct horse"))

			Expect(svc.SetPassword(ctx, user.ID, "another one")).To(MatchError(service.ErrPasswordAlreadySet))
		})

		It("rejects short passwords", func() {
			Expect(svc.SetPassword(ctx, user.ID, "short")).To(MatchError(service.ErrPasswordTooShort))
		})

		It("signs in with the right password only", func() {
			Expect(svc.SetPassword(ctx, user.ID, "correct horse")).To(Succeed())

			signedIn, session, err := svc.SignInWithPassword(ctx, "Alice@co.com", "correct horse")
			Expect(err).NotTo(HaveOccurred())
			Expect(signedIn.ID).To(Equal(user.ID))
			Expect(session.UserID).To(Equal(user.ID))

			_, _, err = svc.SignInWithPassword(ctx, "alice@co.com", "wrong horse")
			Expect(err).To(MatchError(service.ErrInvalidCredentials))
		})

		It("does not reveal unknown emails", func() {
			_, _, err := svc.SignInWithPassword(ctx, "nobody@co.com", "whatever1")
			Expect(err).To(MatchError(service.ErrInvalidCredentials))
		})

		It("surfaces credential lookup failures", func() {
			accounts.getErr = errors.New("db down")
			_, err := svc.HasPasswordAccount(ctx, user.ID)
			Expect(err).To(MatchError(ContainSubstring("db down")))
		})
	})

	Describe("AuthKit callback", func() {
		var (
			server   *httptest.Server
			body     string
			endpoint string
		)

		BeforeEach(func() {
			server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/user_management/authenticate"))
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(body))
			}))
			endpoint = usermanagement.DefaultClient.Endpoint
			usermanagement.DefaultClient.Endpoint = server.URL
		})

		AfterEach(func() {
			usermanagement.DefaultClient.Endpoint = endpoint
			server.Close()
		})

		It("activates the organization the user signed in to", func() {
			body = `{"user":{"id":"user_workos_1","email":"Boss@Co.com","first_name":"Bo"},"organization_id":"org_1"}`

			user, session, err := svc.HandleCallback(ctx, "code_1")
			Expect(err).NotTo(HaveOccurred())
			Expect(user.Email).To(Equal("boss@co.com"))
			Expect(*user.WorkOSID).To(Equal("user_workos_1"))
			Expect(session.ActiveOrganizationID).NotTo(BeNil())
			Expect(*session.ActiveOrganizationID).To(Equal("org_1"))
		})

		It("leaves the organization unset when the user has none", func() {
			body = `{"user":{"id":"user_workos_2","email":"solo@co.com"}}`

			_, session, err := svc.HandleCallback(ctx, "code_2")
			Expect(err).NotTo(HaveOccurred())
			Expect(session.ActiveOrganizationID).To(BeNil())
		})
	})

	Describe("sessions", func() {
		It("sets the active organization", func() {
			sessions.sessions[7] = model.Session{ID: 7, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}

			Expect(svc.SetActiveOrganization(ctx, 7, "org_1")).To(Succeed())
			Expect(sessions.sessions[7].ActiveOrganizationID).To(HaveValue(Equal("org_1")))
		})

		It("requires an organization id", func() {
			Expect(svc.SetActiveOrganization(ctx, 7, "")).To(MatchError(service.ErrOrganizationIDMissing))
		})

		It("validates sessions", func() {
			users.users[1] = model.User{ID: 1, Email: "a@b.c"}
			sessions.sessions[7] = model.Session{ID: 7, UserID: 1, ExpiresAt: time.Now().Add(time.Hour)}
			sessions.sessions[8] = model.Session{ID: 8, UserID: 1, ExpiresAt: time.Now().Add(-time.Hour)}

			user, session, err := svc.ValidateSession(ctx, 7)
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(Equal(int64(1)))
			Expect(session.ID).To(Equal(int64(7)))

			_, _, err = svc.ValidateSession(ctx, 8)
			Expect(err).To(MatchError(service.ErrSessionExpired))
		})
	})
})
