package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"

	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"readiq.app/api/internal/http/handler"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

var _ = Describe("ProfileHandler", func() {
	var (
		router   *gin.Engine
		profiles *mockProfileService
		authSvc  *mockAuthService
	)

	BeforeEach(func() {
		router = gin.New()
		profiles = &mockProfileService{}
		authSvc = &mockAuthService{}
		authSvc.signedInAs(&model.User{ID: 7, Email: "alice@co.com"})

		h := handler.NewProfileHandler(profiles)
		rg := router.Group("/api/profile", middleware.RequireAuth(authSvc))
		rg.GET("", h.Get)
		rg.PATCH("/onboarding", h.UpdateOnboarding)
		rg.POST("/onboarding/complete", h.CompleteOnboarding)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		req.AddCookie(sessionCookie())
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("returns 404 when the caller has no linked profile", func() {
		Expect(serve(httptest.NewRequest(http.MethodGet, "/api/profile", nil)).Code).To(Equal(http.StatusNotFound))
	})

	It("returns the linked profile", func() {
		orgID := "org_1"
		profiles.getFn = func(_ context.Context, userID int64) (*model.Profile, error) {
			Expect(userID).To(Equal(int64(7)))
			return &model.Profile{
				ID:              3,
				Email:           "alice@co.com",
				UserRole:        model.RoleAdminManager,
				IsOnboarding:    true,
				OnboardingStep:  1,
				OnboardingOrgID: &orgID,
			}, nil
		}

		w := serve(httptest.NewRequest(http.MethodGet, "/api/profile", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{
			"id": "3",
			"email": "alice@co.com",
			"name": "",
			"userRole": "admin-manager",
			"isOnboarding": true,
			"onboardingStep": 1,
			"onboardingOrgId": "org_1"
		}`))
	})

	It("requires a step", func() {
		w := serve(jsonRequest(http.MethodPatch, "/api/profile/onboarding", map[string]any{}))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects an invalid step", func() {
		profiles.setStepFn = func(context.Context, int64, int) (*model.Profile, error) {
			return nil, service.ErrInvalidOnboardingStep
		}
		w := serve(jsonRequest(http.MethodPatch, "/api/profile/onboarding", map[string]any{"step": 0}))
		Expect(w.Code).To(Equal(http.StatusBadRequest))
	})

	It("completes onboarding", func() {
		profiles.completeFn = func(context.Context, int64) (*model.Profile, error) {
			return &model.Profile{ID: 3, OnboardingStep: model.OnboardingStepDone}, nil
		}
		w := serve(httptest.NewRequest(http.MethodPost, "/api/profile/onboarding/complete", nil))
		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(ContainSubstring(`"isOnboarding":false`))
		Expect(w.Body.String()).To(ContainSubstring(`"onboardingStep":-1`))
	})
})
