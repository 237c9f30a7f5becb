// File: internal/handler/http/middleware/auth_middleware.go
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/service"
)

const (
	ContextUserKey    = "auth.user"
	ContextSessionKey = "auth.session"
)

// ExtractAccessToken pulls the access token from the Authorization header or
// the named cookie; the header wins when both are present.
func ExtractAccessToken(c *gin.Context, accessCookieName string) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := c.Cookie(accessCookieName); err == nil {
		return cookie
	}
	return ""
}

// RequireAuth authenticates the request against the session service and
// aborts with the taxonomy's 401 triple on failure. On success the resolved
// user and session are stored on the gin context.
func RequireAuth(sessions *service.SessionService, accessCookieName string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractAccessToken(c, accessCookieName)
		if token == "" {
			abortWith(c, apperrors.ErrMissingToken)
			return
		}

		user, session, err := sessions.AuthenticateAccessToken(c.Request.Context(), token)
		if err != nil {
			abortWith(c, err)
			return
		}

		c.Set(ContextUserKey, user)
		c.Set(ContextSessionKey, session)
		c.Next()
	}
}

// CurrentUser returns the authenticated user placed by RequireAuth.
func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(ContextUserKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*models.User)
	return user, ok
}

// CurrentSession returns the authenticated session placed by RequireAuth.
func CurrentSession(c *gin.Context) (*models.AuthSession, bool) {
	v, ok := c.Get(ContextSessionKey)
	if !ok {
		return nil, false
	}
	session, ok := v.(*models.AuthSession)
	return session, ok
}

func abortWith(c *gin.Context, err error) {
	appErr := apperrors.From(err)
	status := appErr.StatusCode
	if status < http.StatusBadRequest {
		status = http.StatusUnauthorized
	}
	c.AbortWithStatusJSON(status, gin.H{
		"ok": false,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}
