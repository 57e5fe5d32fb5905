package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"time"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"readiq.app/api/internal/http/handler"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

const appURL = "https://app.readiq.app"

func jsonRequest(method, path string, body any) *http.Request {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(method, path, bytes.NewBuffer(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

var _ = Describe("InvitationHandler", func() {
	var (
		router  *gin.Engine
		svc     *mockInvitationService
		seats   *mockSeatChecker
		authSvc *mockAuthService
		alice   *model.User
	)

	BeforeEach(func() {
		router = gin.New()
		svc = &mockInvitationService{}
		seats = &mockSeatChecker{}
		authSvc = &mockAuthService{}
		alice = &model.User{ID: 7, Name: "Alice", Email: "alice@co.com"}

		h := handler.NewInvitationHandler(svc, seats, handler.NewRedirects(appURL))
		requireAuth := middleware.RequireAuth(authSvc)

		router.GET("/api/organization/accept-invite/:invitationId", middleware.OptionalAuth(authSvc), h.Accept)
		router.POST("/api/organization/accept-invite/resend-magic-link", h.ResendMagicLink)
		router.POST("/api/organization/:orgId", requireAuth, h.Create)
		activeOrg := middleware.RequireActiveOrganization()
		router.GET("/api/organization/:orgId/seats", requireAuth, activeOrg, h.Seats)
		router.GET("/api/organization/:orgId/invitations", requireAuth, activeOrg, h.List)
		router.DELETE("/api/organization/:orgId/invitations/:invitationId", requireAuth, activeOrg, h.Revoke)
		router.POST("/api/mobile/organization/accept-invite", requireAuth, h.AcceptCode)
		router.POST("/api/mobile/organization/:orgId", requireAuth, h.CreateMobile)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	Describe("Create", func() {
		It("returns 401 without a session", func() {
			w := serve(jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{"email": "bob@co.com"}))
			Expect(w.Code).To(Equal(http.StatusUnauthorized))
		})

		It("returns the invitation id and forwards the web channel", func() {
			authSvc.signedInAs(alice)
			var got service.InviteInput
			svc.inviteFn = func(_ context.Context, in service.InviteInput) (*model.Invitation, error) {
				got = in
				return &model.Invitation{ID: "inv_123"}, nil
			}

			req := jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{
				"email": "bob@co.com",
				"role":  "admin-manager",
				"name":  "Bob",
			})
			req.AddCookie(sessionCookie())
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("ok", true))
			Expect(resp).To(HaveKeyWithValue("invitationId", "inv_123"))

			Expect(got.OrganizationID).To(Equal("org_1"))
			Expect(got.Role).To(Equal(model.RoleAdminManager))
			Expect(got.Channel).To(Equal(model.InvitationChannelWeb))
			Expect(got.Inviter).To(Equal(alice))
		})

		It("uses the mobile channel on the mobile route", func() {
			authSvc.signedInAs(alice)
			var channel model.InvitationChannel
			svc.inviteFn = func(_ context.Context, in service.InviteInput) (*model.Invitation, error) {
				channel = in.Channel
				return &model.Invitation{ID: "inv_m"}, nil
			}

			req := jsonRequest(http.MethodPost, "/api/mobile/organization/org_1", map[string]string{"email": "bob@co.com"})
			req.AddCookie(sessionCookie())
			Expect(serve(req).Code).To(Equal(http.StatusOK))
			Expect(channel).To(Equal(model.InvitationChannelMobile))
		})

		It("returns 403 with the seat detail payload", func() {
			authSvc.signedInAs(alice)
			svc.inviteFn = func(context.Context, service.InviteInput) (*model.Invitation, error) {
				return nil, &service.SeatLimitExceededError{RemainingSeats: 0, TotalSeats: 10, Usage: 10}
			}

			req := jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{"email": "bob@co.com"})
			req.AddCookie(sessionCookie())
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusForbidden))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKey("error"))
			Expect(resp).To(HaveKeyWithValue("remainingSeats", BeNumerically("==", 0)))
			Expect(resp).To(HaveKeyWithValue("totalSeats", BeNumerically("==", 10)))
			Expect(resp).To(HaveKeyWithValue("usage", BeNumerically("==", 10)))
			Expect(resp).To(HaveKeyWithValue("unlimited", false))
		})

		It("returns 400 for an unknown role", func() {
			authSvc.signedInAs(alice)
			svc.inviteFn = func(context.Context, service.InviteInput) (*model.Invitation, error) {
				return nil, service.ErrInvalidRole
			}

			req := jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{"email": "bob@co.com", "role": "owner"})
			req.AddCookie(sessionCookie())
			Expect(serve(req).Code).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a missing email", func() {
			authSvc.signedInAs(alice)
			req := jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{"name": "Bob"})
			req.AddCookie(sessionCookie())
			Expect(serve(req).Code).To(Equal(http.StatusBadRequest))
		})

		DescribeTable("returns 500 for delivery and storage failures",
			func(err error) {
				authSvc.signedInAs(alice)
				svc.inviteFn = func(context.Context, service.InviteInput) (*model.Invitation, error) {
					return nil, err
				}

				req := jsonRequest(http.MethodPost, "/api/organization/org_1", map[string]string{"email": "bob@co.com"})
				req.AddCookie(sessionCookie())
				w := serve(req)
				Expect(w.Code).To(Equal(http.StatusInternalServerError))
				Expect(w.Body.String()).To(ContainSubstring("failed to create invitation"))
			},
			Entry("magic link", service.ErrInvitationDeliveryFailed),
			Entry("code storage", service.ErrInviteCodeStorageFailed),
			Entry("code email", service.ErrEmailDeliveryFailed),
			Entry("provider", service.ErrInvitationCreateFailed),
		)
	})

	Describe("Accept", func() {
		acceptRequest := func() *http.Request {
			req := httptest.NewRequest(http.MethodGet, "/api/organization/accept-invite/inv_1", nil)
			req.AddCookie(sessionCookie())
			return req
		}

		It("redirects home without a session and never accepts", func() {
			w := serve(httptest.NewRequest(http.MethodGet, "/api/organization/accept-invite/inv_1", nil))

			Expect(w.Code).To(Equal(http.StatusFound))
			Expect(w.Header().Get("Location")).To(Equal(appURL + "/dashboard"))
			Expect(svc.acceptCalls).To(BeZero())
		})

		DescribeTable("redirects home on soft failures",
			func(err error) {
				authSvc.signedInAs(alice)
				svc.acceptFn = func(context.Context, service.AcceptInput) (*service.AcceptResult, error) {
					return nil, err
				}

				w := serve(acceptRequest())
				Expect(w.Code).To(Equal(http.StatusFound))
				Expect(w.Header().Get("Location")).To(Equal(appURL + "/dashboard"))
			},
			Entry("not found", service.ErrInvitationNotFound),
			Entry("not pending", service.ErrInvitationNotPending),
			Entry("provider failure", errors.New("provider down")),
		)

		It("redirects to the mismatch page with both emails", func() {
			authSvc.signedInAs(alice)
			svc.acceptFn = func(context.Context, service.AcceptInput) (*service.AcceptResult, error) {
				return nil, &service.EmailMismatchError{
					InvitationID: "inv_1",
					InvitedEmail: "bob@co.com",
					CurrentEmail: "alice@co.com",
				}
			}

			w := serve(acceptRequest())
			Expect(w.Code).To(Equal(http.StatusFound))

			loc, err := url.Parse(w.Header().Get("Location"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loc.Path).To(Equal("/invite-mismatch"))
			Expect(loc.Query().Get("invited")).To(Equal("bob@co.com"))
			Expect(loc.Query().Get("current")).To(Equal("alice@co.com"))
			Expect(loc.Query().Get("invitationId")).To(Equal("inv_1"))
		})

		It("redirects to create-password when the user has no password", func() {
			authSvc.signedInAs(alice)
			var got service.AcceptInput
			svc.acceptFn = func(_ context.Context, in service.AcceptInput) (*service.AcceptResult, error) {
				got = in
				return &service.AcceptResult{NeedsPassword: true, OrganizationName: "Co & Partners"}, nil
			}

			w := serve(acceptRequest())
			Expect(w.Code).To(Equal(http.StatusFound))

			loc, err := url.Parse(w.Header().Get("Location"))
			Expect(err).NotTo(HaveOccurred())
			Expect(loc.Path).To(Equal("/create-password"))
			Expect(loc.Query().Get("email")).To(Equal("alice@co.com"))
			Expect(loc.Query().Get("organization")).To(Equal("Co & Partners"))

			Expect(got.InvitationID).To(Equal("inv_1"))
			Expect(got.User).To(Equal(alice))
			Expect(got.SessionID).To(Equal(testSessionID))
		})

		It("redirects home when the user already has a password", func() {
			authSvc.signedInAs(alice)
			svc.acceptFn = func(context.Context, service.AcceptInput) (*service.AcceptResult, error) {
				return &service.AcceptResult{NeedsPassword: false}, nil
			}

			w := serve(acceptRequest())
			Expect(w.Header().Get("Location")).To(Equal(appURL + "/dashboard"))
		})
	})

	Describe("ResendMagicLink", func() {
		body := map[string]string{"email": "bob@co.com", "invitationId": "inv_1", "name": "Bob"}

		It("returns 200 ok", func() {
			var got service.ResendInput
			svc.resendFn = func(_ context.Context, in service.ResendInput) error {
				got = in
				return nil
			}

			w := serve(jsonRequest(http.MethodPost, "/api/organization/accept-invite/resend-magic-link", body))
			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"ok":true}`))
			Expect(got).To(Equal(service.ResendInput{Email: "bob@co.com", InvitationID: "inv_1", Name: "Bob"}))
		})

		DescribeTable("maps errors to status codes",
			func(err error, status int) {
				svc.resendFn = func(context.Context, service.ResendInput) error { return err }
				w := serve(jsonRequest(http.MethodPost, "/api/organization/accept-invite/resend-magic-link", body))
				Expect(w.Code).To(Equal(status))
			},
			Entry("missing invitation", service.ErrInvitationNotFound, http.StatusNotFound),
			Entry("not pending", service.ErrInvitationNotPending, http.StatusBadRequest),
			Entry("email mismatch", service.ErrEmailMismatch, http.StatusBadRequest),
			Entry("delivery failure", service.ErrInvitationDeliveryFailed, http.StatusInternalServerError),
		)

		It("returns 400 when the body is incomplete", func() {
			w := serve(jsonRequest(http.MethodPost, "/api/organization/accept-invite/resend-magic-link", map[string]string{"email": "bob@co.com"}))
			Expect(w.Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("AcceptCode", func() {
		It("returns the organization and password state", func() {
			authSvc.signedInAs(alice)
			svc.acceptWithCodeFn = func(_ context.Context, in service.AcceptCodeInput) (*service.AcceptResult, error) {
				Expect(in.Code).To(Equal("abc234"))
				Expect(in.User).To(Equal(alice))
				return &service.AcceptResult{
					Invitation:       &model.Invitation{ID: "inv_1", OrganizationID: "org_1"},
					NeedsPassword:    true,
					OrganizationName: "Co",
				}, nil
			}

			req := jsonRequest(http.MethodPost, "/api/mobile/organization/accept-invite", map[string]string{"code": "abc234"})
			req.AddCookie(sessionCookie())
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(w.Body.String()).To(MatchJSON(`{"ok":true,"organizationId":"org_1","needsPassword":true,"organizationName":"Co"}`))
		})

		It("returns 400 for a wrong code", func() {
			authSvc.signedInAs(alice)
			svc.acceptWithCodeFn = func(context.Context, service.AcceptCodeInput) (*service.AcceptResult, error) {
				return nil, service.ErrInvalidInviteCode
			}

			req := jsonRequest(http.MethodPost, "/api/mobile/organization/accept-invite", map[string]string{"code": "ZZZZZZ"})
			req.AddCookie(sessionCookie())
			Expect(serve(req).Code).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("List and Revoke", func() {
		BeforeEach(func() {
			authSvc.signedInAs(alice)
		})

		It("lists with default paging", func() {
			var gotLimit, gotOffset int32
			svc.listFn = func(_ context.Context, orgID string, limit, offset int32) ([]model.Invitation, error) {
				gotLimit, gotOffset = limit, offset
				return []model.Invitation{{
					ID:        "inv_1",
					Email:     "bob@co.com",
					Role:      model.RoleMember,
					Status:    model.InvitationStatusPending,
					ExpiresAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
				}}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/organization/org_1/invitations?limit=1000", nil)
			req.AddCookie(sessionCookie())
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			Expect(gotLimit).To(Equal(int32(50)))
			Expect(gotOffset).To(BeZero())
			Expect(w.Body.String()).To(ContainSubstring(`"expiresAt":"2026-01-02T00:00:00Z"`))
		})

		It("returns 409 when revoking a settled invitation", func() {
			svc.revokeFn = func(context.Context, string, string) (*model.Invitation, error) {
				return nil, service.ErrInvitationNotPending
			}

			req := httptest.NewRequest(http.MethodDelete, "/api/organization/org_1/invitations/inv_1", nil)
			req.AddCookie(sessionCookie())
			Expect(serve(req).Code).To(Equal(http.StatusConflict))
		})
	})

	Describe("organization scoping", func() {
		BeforeEach(func() {
			svc.listFn = func(context.Context, string, int32, int32) ([]model.Invitation, error) {
				Fail("listed invitations outside the active organization")
				return nil, nil
			}
			svc.revokeFn = func(context.Context, string, string) (*model.Invitation, error) {
				Fail("revoked an invitation outside the active organization")
				return nil, nil
			}
			seats.summaryFn = func(context.Context, string) (*service.SeatSummary, error) {
				Fail("read seats outside the active organization")
				return nil, nil
			}
		})

		DescribeTable("returns 403 when the path organization is not the session's active one",
			func(activeOrg, method, path string) {
				authSvc.signedInTo(alice, activeOrg)

				req := httptest.NewRequest(method, path, nil)
				req.AddCookie(sessionCookie())
				w := serve(req)

				Expect(w.Code).To(Equal(http.StatusForbidden))
				Expect(w.Body.String()).To(ContainSubstring(`"error"`))
			},
			Entry("list for another org", "org_2", http.MethodGet, "/api/organization/org_1/invitations"),
			Entry("revoke for another org", "org_2", http.MethodDelete, "/api/organization/org_1/invitations/inv_1"),
			Entry("seats for another org", "org_2", http.MethodGet, "/api/organization/org_1/seats"),
			Entry("list with no active org", "", http.MethodGet, "/api/organization/org_1/invitations"),
		)
	})

	Describe("Seats", func() {
		It("returns the seat summary", func() {
			authSvc.signedInAs(alice)
			seats.summaryFn = func(_ context.Context, orgID string) (*service.SeatSummary, error) {
				Expect(orgID).To(Equal("org_1"))
				return &service.SeatSummary{Allowed: true, RemainingSeats: 5, TotalSeats: 10, Usage: 5}, nil
			}

			req := httptest.NewRequest(http.MethodGet, "/api/organization/org_1/seats", nil)
			req.AddCookie(sessionCookie())
			w := serve(req)

			Expect(w.Code).To(Equal(http.StatusOK))
			var resp map[string]any
			Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
			Expect(resp).To(HaveKeyWithValue("remainingSeats", BeNumerically("==", 5)))
		})
	})
})
