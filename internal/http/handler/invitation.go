package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"readiq.app/api/common/logger"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type InvitationHandler struct {
	invitations service.InvitationService
	seats       service.SeatChecker
	redirects   Redirects
}

func NewInvitationHandler(invitations service.InvitationService, seats service.SeatChecker, redirects Redirects) *InvitationHandler {
	return &InvitationHandler{
		invitations: invitations,
		seats:       seats,
		redirects:   redirects,
	}
}

type createInvitationRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role"`
	Name  string `json:"name"`
}

type createInvitationResponse struct {
	OK           bool   `json:"ok"`
	InvitationID string `json:"invitationId"`
}

type seatLimitResponse struct {
	Error          string `json:"error"`
	RemainingSeats int64  `json:"remainingSeats"`
	TotalSeats     int64  `json:"totalSeats"`
	Usage          int64  `json:"usage"`
	Unlimited      bool   `json:"unlimited"`
}

// Create issues an invitation delivered as a magic link.
func (h *InvitationHandler) Create(c *gin.Context) {
	h.create(c, model.InvitationChannelWeb)
}

// CreateMobile issues an invitation delivered as a one-time code.
func (h *InvitationHandler) CreateMobile(c *gin.Context) {
	h.create(c, model.InvitationChannelMobile)
}

func (h *InvitationHandler) create(c *gin.Context, channel model.InvitationChannel) {
	orgID := c.Param("orgId")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{OrganizationID: &orgID})

	var req createInvitationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		return
	}

	inv, err := h.invitations.Invite(ctx, service.InviteInput{
		Email:          req.Email,
		Role:           model.Role(req.Role),
		OrganizationID: orgID,
		Name:           req.Name,
		Inviter:        middleware.GetUser(ctx),
		Channel:        channel,
	})
	if err != nil {
		var seatErr *service.SeatLimitExceededError
		switch {
		case errors.As(err, &seatErr):
			slog.InfoContext(ctx, "invitation blocked by seat limit",
				"remaining_seats", seatErr.RemainingSeats,
				"total_seats", seatErr.TotalSeats)
			c.JSON(http.StatusForbidden, seatLimitResponse{
				Error:          "seat limit reached, upgrade your plan to invite more members",
				RemainingSeats: seatErr.RemainingSeats,
				TotalSeats:     seatErr.TotalSeats,
				Usage:          seatErr.Usage,
				Unlimited:      seatErr.Unlimited,
			})
		case errors.Is(err, service.ErrInvalidRole):
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown role"})
		case errors.Is(err, service.ErrInvalidEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "a valid email is required"})
		default:
			slog.ErrorContext(ctx, "failed to create invitation",
				"error", err,
				"email", logger.MaskEmail(req.Email),
				"channel", channel)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create invitation"})
		}
		return
	}

	c.JSON(http.StatusOK, createInvitationResponse{OK: true, InvitationID: inv.ID})
}

// Accept redeems an emailed invitation link. It always answers with a redirect.
func (h *InvitationHandler) Accept(c *gin.Context) {
	invitationID := c.Param("invitationId")
	ctx := logger.WithLogFields(c.Request.Context(), logger.LogFields{InvitationID: &invitationID})

	user := middleware.GetUser(ctx)
	if user == nil {
		slog.InfoContext(ctx, "invitation redeemed without a session")
		c.Redirect(http.StatusFound, h.redirects.Home())
		return
	}

	result, err := h.invitations.Accept(ctx, service.AcceptInput{
		InvitationID: invitationID,
		User:         user,
		SessionID:    middleware.GetSessionID(ctx),
	})
	if err != nil {
		var mismatch *service.EmailMismatchError
		switch {
		case errors.As(err, &mismatch):
			c.Redirect(http.StatusFound, h.redirects.InviteMismatch(mismatch.InvitedEmail, mismatch.CurrentEmail, mismatch.InvitationID))
		case errors.Is(err, service.ErrInvitationNotFound), errors.Is(err, service.ErrInvitationNotPending):
			slog.InfoContext(ctx, "invitation not redeemable", "reason", err.Error())
			c.Redirect(http.StatusFound, h.redirects.Home())
		default:
			slog.ErrorContext(ctx, "failed to accept invitation", "error", err)
			c.Redirect(http.StatusFound, h.redirects.Home())
		}
		return
	}

	if result.NeedsPassword {
		c.Redirect(http.StatusFound, h.redirects.CreatePassword(user.Email, result.OrganizationName))
		return
	}
	c.Redirect(http.StatusFound, h.redirects.Home())
}

type resendMagicLinkRequest struct {
	Email        string `json:"email" binding:"required"`
	InvitationID string `json:"invitationId" binding:"required"`
	Name         string `json:"name"`
}

func (h *InvitationHandler) ResendMagicLink(c *gin.Context) {
	ctx := c.Request.Context()

	var req resendMagicLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and invitationId are required"})
		return
	}

	err := h.invitations.ResendMagicLink(ctx, service.ResendInput{
		Email:        req.Email,
		InvitationID: req.InvitationID,
		Name:         req.Name,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		case errors.Is(err, service.ErrInvitationNotPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invitation is no longer pending"})
		case errors.Is(err, service.ErrEmailMismatch):
			c.JSON(http.StatusBadRequest, gin.H{"error": "email does not match the invitation"})
		default:
			slog.ErrorContext(ctx, "failed to resend magic link", "error", err, "invitation_id", req.InvitationID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to send magic link"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type acceptCodeRequest struct {
	Code string `json:"code" binding:"required"`
}

type acceptCodeResponse struct {
	OK               bool   `json:"ok"`
	OrganizationID   string `json:"organizationId"`
	NeedsPassword    bool   `json:"needsPassword"`
	OrganizationName string `json:"organizationName"`
}

// AcceptCode redeems a mobile invite code for the signed-in user.
func (h *InvitationHandler) AcceptCode(c *gin.Context) {
	ctx := c.Request.Context()

	var req acceptCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "code is required"})
		return
	}

	result, err := h.invitations.AcceptWithCode(ctx, service.AcceptCodeInput{
		Code:      req.Code,
		User:      middleware.GetUser(ctx),
		SessionID: middleware.GetSessionID(ctx),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidInviteCode):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired invite code"})
		case errors.Is(err, service.ErrInvitationNotFound), errors.Is(err, service.ErrInvitationNotPending):
			c.JSON(http.StatusBadRequest, gin.H{"error": "invitation is no longer valid"})
		case errors.Is(err, service.ErrEmailMismatch):
			c.JSON(http.StatusForbidden, gin.H{"error": "this code was issued to a different email"})
		default:
			slog.ErrorContext(ctx, "failed to accept invite code", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to accept invitation"})
		}
		return
	}

	c.JSON(http.StatusOK, acceptCodeResponse{
		OK:               true,
		OrganizationID:   result.Invitation.OrganizationID,
		NeedsPassword:    result.NeedsPassword,
		OrganizationName: result.OrganizationName,
	})
}

type invitationResponse struct {
	ID         string  `json:"id"`
	Email      string  `json:"email"`
	Role       string  `json:"role"`
	Status     string  `json:"status"`
	ExpiresAt  string  `json:"expiresAt"`
	CreatedAt  string  `json:"createdAt"`
	AcceptedAt *string `json:"acceptedAt,omitempty"`
}

func (h *InvitationHandler) List(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := c.Param("orgId")

	limit := queryInt32(c, "limit", defaultListLimit)
	if limit <= 0 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt32(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	invitations, err := h.invitations.List(ctx, orgID, limit, offset)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list invitations", "error", err, "organization_id", orgID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list invitations"})
		return
	}

	resp := make([]invitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		item := invitationResponse{
			ID:        inv.ID,
			Email:     inv.Email,
			Role:      string(inv.Role),
			Status:    string(inv.Status),
			ExpiresAt: inv.ExpiresAt.Format(time.RFC3339),
			CreatedAt: inv.CreatedAt.Format(time.RFC3339),
		}
		if inv.AcceptedAt != nil {
			acceptedAt := inv.AcceptedAt.Format(time.RFC3339)
			item.AcceptedAt = &acceptedAt
		}
		resp = append(resp, item)
	}

	c.JSON(http.StatusOK, gin.H{"invitations": resp})
}

func (h *InvitationHandler) Revoke(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := c.Param("orgId")
	invitationID := c.Param("invitationId")

	if _, err := h.invitations.Revoke(ctx, orgID, invitationID); err != nil {
		switch {
		case errors.Is(err, service.ErrInvitationNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "invitation not found"})
		case errors.Is(err, service.ErrInvitationNotPending):
			c.JSON(http.StatusConflict, gin.H{"error": "invitation is no longer pending"})
		default:
			slog.ErrorContext(ctx, "failed to revoke invitation", "error", err, "invitation_id", invitationID)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to revoke invitation"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (h *InvitationHandler) Seats(c *gin.Context) {
	ctx := c.Request.Context()
	orgID := c.Param("orgId")

	summary, err := h.seats.Summary(ctx, orgID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch seat usage", "error", err, "organization_id", orgID)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to fetch seat usage"})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func queryInt32(c *gin.Context, key string, fallback int32) int32 {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		return fallback
	}
	return int32(v)
}
