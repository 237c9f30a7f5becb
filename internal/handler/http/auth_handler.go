// File: internal/handler/http/auth_handler.go
package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/handler/http/middleware"
	"github.com/harmsephillip7/skillsflow-auth/internal/service"
	"github.com/harmsephillip7/skillsflow-auth/internal/utils/metrics"
)

// AuthHandler serves the login, refresh, logout, me and session-management
// endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *service.SessionService
	cookies  *CookieManager
	logger   *zap.Logger
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionService, cookies *CookieManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		sessions: sessions,
		cookies:  cookies,
		logger:   logger.Named("auth_handler"),
	}
}

// loginRequest is the union body of both login steps: credentials, or a
// pending challenge completion.
type loginRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	RememberMe bool   `json:"remember_me"`

	TempToken string `json:"temp_token"`
	Code      string `json:"code"`
	UseBackup bool   `json:"use_backup"`
}

// Login handles POST /login. With a temp_token in the body this is the 2FA
// completion step, otherwise the password step.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Fail(c, h.logger, apperrors.ErrInvalidRequest)
		return
	}

	client := clientInfo(c)

	var (
		result *service.LoginResult
		err    error
	)
	if req.TempToken != "" {
		result, err = h.auth.CompleteTwoFactorLogin(c.Request.Context(), req.TempToken, req.Code, req.UseBackup, client)
	} else {
		result, err = h.auth.Login(c.Request.Context(), req.Email, req.Password, req.RememberMe, client)
	}
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues("failure").Inc()
		Fail(c, h.logger, err)
		return
	}
	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()

	if result.Requires2FA {
		OK(c, http.StatusOK, gin.H{
			"requires_2fa":          true,
			"temp_token":            result.ChallengeToken,
			"user_id":               result.User.ID.String(),
			"message":               "Two-factor authentication required",
			"backup_code_available": result.BackupCodeAvailable,
		})
		return
	}

	h.cookies.SetAuthCookies(c, result.Tokens, result.Session)
	OK(c, http.StatusOK, gin.H{
		"access":     result.Tokens.Access,
		"refresh":    result.Tokens.Refresh,
		"expires_in": result.Tokens.ExpiresIn,
		"user":       result.User.ToResponse(),
	})
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// Refresh handles POST /refresh. The refresh secret is taken from the JSON
// body, then the X-Refresh-Token header, then the refresh cookie.
func (h *AuthHandler) Refresh(c *gin.Context) {
	secret := h.extractRefreshSecret(c)
	if secret == "" {
		Fail(c, h.logger, apperrors.ErrMissingRefreshToken)
		return
	}

	user, session, pair, err := h.sessions.RotateOrReuse(c.Request.Context(), secret, clientInfo(c))
	if err != nil {
		metrics.TokenRefreshTotal.WithLabelValues("failure").Inc()
		h.cookies.ClearAuthCookies(c)
		Fail(c, h.logger, err)
		return
	}
	metrics.TokenRefreshTotal.WithLabelValues("success").Inc()

	h.cookies.SetAuthCookies(c, pair, session)
	OK(c, http.StatusOK, gin.H{
		"access":     pair.Access,
		"refresh":    pair.Refresh,
		"expires_in": pair.ExpiresIn,
		"user":       user.ToResponse(),
	})
}

// Logout handles POST and DELETE /logout. Always clears cookies; revoking an
// unknown or already-dead refresh secret still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	secret := h.extractRefreshSecret(c)
	if secret != "" {
		if err := h.sessions.RevokeByRefreshToken(c.Request.Context(), secret); err != nil {
			h.logger.Warn("logout revocation failed", zap.Error(err))
		}
	}

	h.cookies.ClearAuthCookies(c)
	OK(c, http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	session, ok2 := middleware.CurrentSession(c)
	if !ok || !ok2 {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"user": user.ToResponse(),
		"session": gin.H{
			"id":           session.ID.String(),
			"last_used_at": session.LastUsedAt,
			"expires_at":   session.ExpiresAt,
		},
	})
}

// ListSessions handles GET /sessions.
func (h *AuthHandler) ListSessions(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	sessions, err := h.sessions.ListUserSessions(c.Request.Context(), user.ID)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}

	out := make([]models.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, s.ToResponse())
	}
	OK(c, http.StatusOK, gin.H{"sessions": out})
}

// RevokeSession handles POST and DELETE /sessions/:id/revoke.
func (h *AuthHandler) RevokeSession(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		Fail(c, h.logger, apperrors.ErrNotFound)
		return
	}

	if err := h.sessions.RevokeSessionByID(c.Request.Context(), user.ID, sessionID); err != nil {
		Fail(c, h.logger, err)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"message":    "Session revoked",
		"session_id": sessionID.String(),
	})
}

func (h *AuthHandler) extractRefreshSecret(c *gin.Context) string {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.Refresh != "" {
		return req.Refresh
	}
	if header := strings.TrimSpace(c.GetHeader("X-Refresh-Token")); header != "" {
		return header
	}
	if cookie, err := c.Cookie(h.cookies.RefreshCookieName()); err == nil {
		return cookie
	}
	return ""
}

func clientInfo(c *gin.Context) models.ClientInfo {
	info := models.ClientInfo{}
	if ip := c.ClientIP(); ip != "" {
		info.IPAddress = &ip
	}
	if ua := c.Request.UserAgent(); ua != "" {
		info.UserAgent = &ua
	}
	return info
}
