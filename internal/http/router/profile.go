package router

import (
	"github.com/gin-gonic/gin"

	"readiq.app/api/internal/http/handler"
)

func ProfileRouter(rg *gin.RouterGroup, h *handler.ProfileHandler) {
	rg.GET("", h.Get)
	rg.PATCH("/onboarding", h.UpdateOnboarding)
	rg.POST("/onboarding/complete", h.CompleteOnboarding)
}
