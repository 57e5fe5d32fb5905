package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/service"
)

type BillingHandler struct {
	payments  service.PaymentService
	redirects Redirects
}

func NewBillingHandler(payments service.PaymentService, redirects Redirects) *BillingHandler {
	return &BillingHandler{payments: payments, redirects: redirects}
}

type checkoutRequest struct {
	OrganizationID string `json:"organizationId" binding:"required"`
	ProductID      string `json:"productId" binding:"required"`
}

type checkoutResponse struct {
	OK          bool   `json:"ok"`
	SessionID   string `json:"sessionId"`
	CheckoutURL string `json:"url"`
}

func (h *BillingHandler) StartCheckout(c *gin.Context) {
	ctx := c.Request.Context()

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "organizationId and productId are required"})
		return
	}

	session, err := h.payments.StartCheckout(ctx, service.CheckoutInput{
		OrganizationID: req.OrganizationID,
		ProductID:      req.ProductID,
		UserID:         middleware.GetUser(ctx).ID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductRequired), errors.Is(err, service.ErrOrganizationIDMissing):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrCheckoutFailed):
			slog.ErrorContext(ctx, "billing provider rejected checkout", "error", err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "failed to start checkout"})
		default:
			slog.ErrorContext(ctx, "failed to start checkout", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to start checkout"})
		}
		return
	}

	c.JSON(http.StatusOK, checkoutResponse{OK: true, SessionID: session.ID, CheckoutURL: session.CheckoutURL})
}

// CompleteCheckout is the billing provider's success URL. It always redirects.
func (h *BillingHandler) CompleteCheckout(c *gin.Context) {
	ctx := c.Request.Context()

	if _, err := h.payments.CompleteCheckout(ctx, c.Param("sessionId")); err != nil {
		if !errors.Is(err, service.ErrPaymentSessionExpired) {
			slog.ErrorContext(ctx, "failed to complete checkout", "error", err)
		}
		c.Redirect(http.StatusFound, h.redirects.CheckoutExpired())
		return
	}

	c.Redirect(http.StatusFound, h.redirects.CheckoutComplete())
}
