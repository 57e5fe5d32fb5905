package router

import (
	"github.com/gin-gonic/gin"

	"readiq.app/api/internal/http/handler"
)

func BillingRouter(rg *gin.RouterGroup, h *handler.BillingHandler, requireAuth gin.HandlerFunc) {
	rg.POST("/checkout", requireAuth, h.StartCheckout)
	rg.GET("/checkout/:sessionId/complete", h.CompleteCheckout)
}
