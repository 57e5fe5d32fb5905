package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"readiq.app/api/common/id"
	"readiq.app/api/common/logger"
	"readiq.app/api/internal/model"
	"readiq.app/api/internal/service"
)

type contextKey string

const (
	SessionCookieName              = "readiq_session"
	userContextKey      contextKey = "user"
	sessionIDContextKey contextKey = "session_id"
	sessionContextKey   contextKey = "session"
)

// RequireAuth rejects requests without a valid session cookie.
func RequireAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionIDFromCookie(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		user, session, err := authService.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			if errors.Is(err, service.ErrSessionExpired) || errors.Is(err, service.ErrUserNotFound) {
				ClearSessionCookie(c, false)
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "session expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to validate session"})
			return
		}

		c.Request = c.Request.WithContext(withUser(c.Request.Context(), user, session))
		c.Next()
	}
}

// OptionalAuth attaches the user when a valid session exists but never aborts.
func OptionalAuth(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sessionID, err := sessionIDFromCookie(c)
		if err != nil {
			c.Next()
			return
		}

		user, session, err := authService.ValidateSession(c.Request.Context(), sessionID)
		if err != nil {
			c.Next()
			return
		}

		c.Request = c.Request.WithContext(withUser(c.Request.Context(), user, session))
		c.Next()
	}
}

// RequireActiveOrganization lets a request through only when the session's
// active organization is the one named by the orgId path parameter. It must
// run after RequireAuth.
func RequireActiveOrganization() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSession(c.Request.Context())
		if session == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}

		orgID := c.Param("orgId")
		if session.ActiveOrganizationID == nil || *session.ActiveOrganizationID != orgID {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "organization is not active for this session"})
			return
		}
		c.Next()
	}
}

func withUser(ctx context.Context, user *model.User, session *model.Session) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	ctx = context.WithValue(ctx, sessionIDContextKey, session.ID)
	ctx = context.WithValue(ctx, sessionContextKey, session)
	return logger.WithLogFields(ctx, logger.LogFields{UserID: &user.ID})
}

func GetUser(ctx context.Context) *model.User {
	user, _ := ctx.Value(userContextKey).(*model.User)
	return user
}

func GetSessionID(ctx context.Context) int64 {
	sessionID, _ := ctx.Value(sessionIDContextKey).(int64)
	return sessionID
}

func GetSession(ctx context.Context) *model.Session {
	session, _ := ctx.Value(sessionContextKey).(*model.Session)
	return session
}

// SetSessionCookie writes the session id the same way RequireAuth reads it.
func SetSessionCookie(c *gin.Context, sessionID int64, maxAge int, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, id.String(sessionID), maxAge, "/", "", secure, true)
}

func ClearSessionCookie(c *gin.Context, secure bool) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(SessionCookieName, "", -1, "/", "", secure, true)
}

func sessionIDFromCookie(c *gin.Context) (int64, error) {
	cookie, err := c.Cookie(SessionCookieName)
	if err != nil {
		return 0, err
	}
	return id.Parse(cookie)
}
