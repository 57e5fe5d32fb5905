package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"readiq.app/api/common/id"
	"readiq.app/api/common/logger"
	"readiq.app/api/internal/http/middleware"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

const (
	stateCookieName = "readiq_oauth_state"
	stateMaxAge     = 600
)

var sessionMaxAge = int(service.SessionDuration.Seconds())

type AuthHandler struct {
	authService  service.AuthService
	redirects    Redirects
	isProduction bool
}

func NewAuthHandler(authService service.AuthService, redirects Redirects, isProduction bool) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		redirects:    redirects,
		isProduction: isProduction,
	}
}

func (h *AuthHandler) Login(c *gin.Context) {
	state, err := generateState()
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to generate state", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	authURL, err := h.authService.GetAuthorizationURL(state)
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "failed to get authorization URL", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to initiate login"})
		return
	}

	c.SetCookie(stateCookieName, state, stateMaxAge, "/", "", h.isProduction, true)
	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

func (h *AuthHandler) Callback(c *gin.Context) {
	ctx := c.Request.Context()

	if errorParam := c.Query("error"); errorParam != "" {
		slog.WarnContext(ctx, "OAuth error", "error", errorParam, "description", c.Query("error_description"))
		c.Redirect(http.StatusTemporaryRedirect, h.redirects.AuthError(errorParam))
		return
	}

	storedState, err := c.Cookie(stateCookieName)
	if err != nil || storedState == "" || c.Query("state") != storedState {
		slog.WarnContext(ctx, "state mismatch")
		c.Redirect(http.StatusTemporaryRedirect, h.redirects.AuthError("invalid_state"))
		return
	}
	c.SetCookie(stateCookieName, "", -1, "/", "", h.isProduction, true)

	code := c.Query("code")
	if code == "" {
		c.Redirect(http.StatusTemporaryRedirect, h.redirects.AuthError("no_code"))
		return
	}

	user, session, err := h.authService.HandleCallback(ctx, code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to handle callback", "error", err)
		if errors.Is(err, service.ErrInvalidCode) {
			c.Redirect(http.StatusTemporaryRedirect, h.redirects.AuthError("invalid_code"))
			return
		}
		c.Redirect(http.StatusTemporaryRedirect, h.redirects.AuthError("callback_failed"))
		return
	}

	middleware.SetSessionCookie(c, session.ID, sessionMaxAge, h.isProduction)
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID, "email", logger.MaskEmail(user.Email))

	c.Redirect(http.StatusTemporaryRedirect, h.redirects.Home())
}

func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	if cookie, err := c.Cookie(middleware.SessionCookieName); err == nil {
		if sessionID, err := id.Parse(cookie); err == nil {
			if err := h.authService.Logout(ctx, sessionID); err != nil {
				slog.WarnContext(ctx, "failed to delete session", "error", err, "session_id", sessionID)
			}
		}
	}

	middleware.ClearSessionCookie(c, h.isProduction)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

type userResponse struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

func newUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:        id.String(user.ID),
		Name:      user.Name,
		Email:     user.Email,
		AvatarURL: user.AvatarURL,
	}
}

// Me runs behind RequireAuth.
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, newUserResponse(middleware.GetUser(c.Request.Context())))
}

// VerifyMagicLink signs the link's owner in and forwards them to the link's callback.
func (h *AuthHandler) VerifyMagicLink(c *gin.Context) {
	ctx := c.Request.Context()

	_, session, redirectTo, err := h.authService.VerifyMagicLink(ctx, c.Query("token"))
	if err != nil {
		if errors.Is(err, service.ErrMagicLinkInvalid) {
			c.Redirect(http.StatusFound, h.redirects.AuthError("magic_link_invalid"))
			return
		}
		slog.ErrorContext(ctx, "failed to verify magic link", "error", err)
		c.Redirect(http.StatusFound, h.redirects.AuthError("magic_link_failed"))
		return
	}

	middleware.SetSessionCookie(c, session.ID, sessionMaxAge, h.isProduction)
	c.Redirect(http.StatusFound, redirectTo)
}

type setPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

// SetPassword creates the caller's password account. Runs behind RequireAuth.
func (h *AuthHandler) SetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req setPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}

	user := middleware.GetUser(ctx)
	if err := h.authService.SetPassword(ctx, user.ID, req.Password); err != nil {
		switch {
		case errors.Is(err, service.ErrPasswordTooShort):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPasswordAlreadySet):
			c.JSON(http.StatusConflict, gin.H{"error": "password already set"})
		default:
			slog.ErrorContext(ctx, "failed to set password", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set password"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"ok": true})
}

type passwordSignInRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) SignInWithPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req passwordSignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	user, session, err := h.authService.SignInWithPassword(ctx, strings.TrimSpace(req.Email), req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid email or password"})
			return
		}
		slog.ErrorContext(ctx, "password sign-in failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign in"})
		return
	}

	middleware.SetSessionCookie(c, session.ID, sessionMaxAge, h.isProduction)
	c.JSON(http.StatusOK, gin.H{"user": newUserResponse(user)})
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
