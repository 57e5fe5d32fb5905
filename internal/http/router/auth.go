package router

import (
	"github.com/gin-gonic/gin"

	"readiq.app/api/internal/http/handler"
)

func AuthRouter(rg *gin.RouterGroup, h *handler.AuthHandler, requireAuth gin.HandlerFunc) {
	rg.GET("/login", h.Login)
	rg.GET("/callback", h.Callback)
	rg.POST("/logout", h.Logout)
	rg.GET("/me", requireAuth, h.Me)
}

// PasswordRouter serves magic-link and password sign-in under /api/auth.
func PasswordRouter(rg *gin.RouterGroup, h *handler.AuthHandler, requireAuth gin.HandlerFunc) {
	rg.GET("/magic-link/verify", h.VerifyMagicLink)
	rg.POST("/password", requireAuth, h.SetPassword)
	rg.POST("/sign-in/password", h.SignInWithPassword)
}
