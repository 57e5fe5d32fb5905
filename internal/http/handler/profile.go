package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"readiq.app/api/common/id"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

type ProfileHandler struct {
	profiles service.ProfileService
}

func NewProfileHandler(profiles service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profiles: profiles}
}

type profileResponse struct {
	ID              string  `json:"id"`
	Email           string  `json:"email"`
	Name            string  `json:"name"`
	UserRole        string  `json:"userRole"`
	IsOnboarding    bool    `json:"isOnboarding"`
	OnboardingStep  int     `json:"onboardingStep"`
	OnboardingOrgID *string `json:"onboardingOrgId,omitempty"`
}

func newProfileResponse(p *model.Profile) profileResponse {
	return profileResponse{
		ID:              id.String(p.ID),
		Email:           p.Email,
		Name:            p.Name,
		UserRole:        string(p.UserRole),
		IsOnboarding:    p.IsOnboarding,
		OnboardingStep:  p.OnboardingStep,
		OnboardingOrgID: p.OnboardingOrgID,
	}
}

func (h *ProfileHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	user := middleware.GetUser(ctx)

	profile, err := h.profiles.GetForUser(ctx, user.ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

type onboardingStepRequest struct {
	Step *int `json:"step" binding:"required"`
}

func (h *ProfileHandler) UpdateOnboarding(c *gin.Context) {
	ctx := c.Request.Context()

	var req onboardingStepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step is required"})
		return
	}

	profile, err := h.profiles.SetOnboardingStep(ctx, middleware.GetUser(ctx).ID, *req.Step)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.profiles.CompleteOnboarding(ctx, middleware.GetUser(ctx).ID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newProfileResponse(profile))
}

func (h *ProfileHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
	case errors.Is(err, service.ErrInvalidOnboardingStep):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid onboarding step"})
	default:
		slog.ErrorContext(c.Request.Context(), "profile request failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update profile"})
	}
}
