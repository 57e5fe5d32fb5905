package router

import (
	"github.com/gin-gonic/gin"

	"readiq.app/api/internal/http/handler"
)

type InvitationMiddleware struct {
	RequireAuth  gin.HandlerFunc
	OptionalAuth gin.HandlerFunc
	// ActiveOrganization scopes org reads and revocation to the session's organization.
	ActiveOrganization gin.HandlerFunc
	CodeLimiter        gin.HandlerFunc
	MagicLinkLimiter   gin.HandlerFunc
}

// InvitationRouter mounts invitation routes on /api.
//   - accept-invite and resend-magic-link are reachable without a session
//   - issuing, listing and revoking need one
//   - listing, revoking and seats also need :orgId to be the active organization
func InvitationRouter(api *gin.RouterGroup, h *handler.InvitationHandler, mw InvitationMiddleware) {
	accept := api.Group("/organization/accept-invite")
	{
		accept.GET("/:invitationId", mw.OptionalAuth, h.Accept)
		accept.POST("/resend-magic-link", mw.MagicLinkLimiter, h.ResendMagicLink)
	}

	org := api.Group("/organization/:orgId", mw.RequireAuth)
	{
		org.POST("", h.Create)
		org.GET("/seats", mw.ActiveOrganization, h.Seats)
		org.GET("/invitations", mw.ActiveOrganization, h.List)
		org.DELETE("/invitations/:invitationId", mw.ActiveOrganization, h.Revoke)
	}

	mobile := api.Group("/mobile/organization")
	{
		mobile.POST("/accept-invite", mw.RequireAuth, mw.CodeLimiter, h.AcceptCode)
		mobile.POST("/:orgId", mw.RequireAuth, h.CreateMobile)
	}
}
