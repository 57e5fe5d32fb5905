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

var _ = Describe("BillingHandler", func() {
	var (
		router   *gin.Engine
		payments *mockPaymentService
		authSvc  *mockAuthService
	)

	BeforeEach(func() {
		router = gin.New()
		payments = &mockPaymentService{}
		authSvc = &mockAuthService{}
		authSvc.signedInAs(&model.User{ID: 7, Email: "alice@co.com"})

		h := handler.NewBillingHandler(payments, handler.NewRedirects(appURL))
		router.POST("/api/billing/checkout", middleware.RequireAuth(authSvc), h.StartCheckout)
		router.GET("/api/billing/checkout/:sessionId/complete", h.CompleteCheckout)
	})

	serve := func(req *http.Request) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	It("starts a checkout for the caller", func() {
		payments.startFn = func(_ context.Context, in service.CheckoutInput) (*model.PaymentSession, error) {
			Expect(in).To(Equal(service.CheckoutInput{OrganizationID: "org_1", ProductID: "pro", UserID: 7}))
			return &model.PaymentSession{ID: "ps_1", CheckoutURL: "https://checkout.example.com/x"}, nil
		}

		req := jsonRequest(http.MethodPost, "/api/billing/checkout", map[string]string{"organizationId": "org_1", "productId": "pro"})
		req.AddCookie(sessionCookie())
		w := serve(req)

		Expect(w.Code).To(Equal(http.StatusOK))
		Expect(w.Body.String()).To(MatchJSON(`{"ok":true,"sessionId":"ps_1","url":"https://checkout.example.com/x"}`))
	})

	It("returns 502 when the billing provider fails", func() {
		req := jsonRequest(http.MethodPost, "/api/billing/checkout", map[string]string{"organizationId": "org_1", "productId": "pro"})
		req.AddCookie(sessionCookie())
		Expect(serve(req).Code).To(Equal(http.StatusBadGateway))
	})

	It("redirects to the upgraded dashboard once", func() {
		payments.completeFn = func(_ context.Context, sessionID string) (*model.PaymentSession, error) {
			Expect(sessionID).To(Equal("ps_1"))
			return &model.PaymentSession{ID: sessionID}, nil
		}

		w := serve(httptest.NewRequest(http.MethodGet, "/api/billing/checkout/ps_1/complete", nil))
		Expect(w.Code).To(Equal(http.StatusFound))
		Expect(w.Header().Get("Location")).To(Equal(appURL + "/dashboard?upgraded=1"))
	})

	It("redirects to the expired notice for unknown sessions", func() {
		w := serve(httptest.NewRequest(http.MethodGet, "/api/billing/checkout/ps_gone/complete", nil))
		Expect(w.Header().Get("Location")).To(Equal(appURL + "/dashboard?checkout=expired"))
	})
})
