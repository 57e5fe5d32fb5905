package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"readiq.app/api/core/config"
	"readiq.app/api/internal/http/handler"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/service"
)

type RouterConfig struct {
	AppURL       string
	IsProduction bool
	RateLimit    config.RateLimitConfig
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) error {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	codeLimiter, err := middleware.NewIPRateLimiter(cfg.RateLimit.CodeRedemption)
	if err != nil {
		return fmt.Errorf("code redemption rate limit: %w", err)
	}
	magicLinkLimiter, err := middleware.NewIPRateLimiter(cfg.RateLimit.MagicLinkSend)
	if err != nil {
		return fmt.Errorf("magic link rate limit: %w", err)
	}

	redirects := handler.NewRedirects(cfg.AppURL)
	authService := services.Auth()
	requireAuth := middleware.RequireAuth(authService)
	optionalAuth := middleware.OptionalAuth(authService)

	authHandler := handler.NewAuthHandler(authService, redirects, cfg.IsProduction)
	AuthRouter(router.Group("/auth"), authHandler, requireAuth)

	api := router.Group("/api")
	{
		PasswordRouter(api.Group("/auth"), authHandler, requireAuth)

		invitationHandler := handler.NewInvitationHandler(services.Invitations(), services.Seats(), redirects)
		InvitationRouter(api, invitationHandler, InvitationMiddleware{
			RequireAuth:        requireAuth,
			OptionalAuth:       optionalAuth,
			ActiveOrganization: middleware.RequireActiveOrganization(),
			CodeLimiter:        codeLimiter,
			MagicLinkLimiter:   magicLinkLimiter,
		})

		profileHandler := handler.NewProfileHandler(services.Profiles())
		ProfileRouter(api.Group("/profile", requireAuth), profileHandler)

		billingHandler := handler.NewBillingHandler(services.Payments(), redirects)
		BillingRouter(api.Group("/billing"), billingHandler, requireAuth)
	}

	return nil
}
