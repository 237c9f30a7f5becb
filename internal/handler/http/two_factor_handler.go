// File: internal/handler/http/two_factor_handler.go
package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/handler/http/middleware"
	"github.com/harmsephillip7/skillsflow-auth/internal/service"
	"github.com/harmsephillip7/skillsflow-auth/internal/utils/metrics"
)

// TwoFactorHandler serves the 2FA management endpoints.
type TwoFactorHandler struct {
	twoFactor *service.TwoFactorService
	users     repository.UserRepository
	logger    *zap.Logger
}

func NewTwoFactorHandler(twoFactor *service.TwoFactorService, users repository.UserRepository, logger *zap.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{
		twoFactor: twoFactor,
		users:     users,
		logger:    logger.Named("two_factor_handler"),
	}
}

// Setup handles GET /2fa/setup: generates a secret, QR code and backup codes
// without persisting anything.
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	setup, err := h.twoFactor.SetupInitiate(c.Request.Context(), user)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"secret":           setup.Secret,
		"provisioning_uri": setup.ProvisioningURI,
		"qr_code":          setup.QRCode,
		"backup_codes":     setup.BackupCodes,
	})
}

type setupConfirmRequest struct {
	Secret      string   `json:"secret"`
	Token       string   `json:"token"`
	BackupCodes []string `json:"backup_codes"`
}

// SetupConfirm handles POST /2fa/setup/confirm: the client returns the
// secret with a live code, proving the authenticator was provisioned.
func (h *TwoFactorHandler) SetupConfirm(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	var req setupConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Secret == "" || req.Token == "" {
		Fail(c, h.logger, apperrors.ErrInvalidRequest)
		return
	}

	created, _, err := h.twoFactor.SetupConfirm(c.Request.Context(), user, req.Secret, req.Token, req.BackupCodes)
	if err != nil {
		h.failVerification(c, err)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"message": "Two-factor authentication enabled",
		"created": created,
	})
}

type verifyRequest struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Token     string `json:"token"`
	UseBackup bool   `json:"use_backup"`
}

// Verify handles POST /2fa/verify: a standalone code check identifying the
// user by id or email. Backup codes presented here are consumed.
func (h *TwoFactorHandler) Verify(c *gin.Context) {
	var req verifyRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		Fail(c, h.logger, apperrors.ErrInvalidRequest)
		return
	}

	userID, err := h.resolveUserID(c, &req)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}

	method := "totp"
	if req.UseBackup {
		method = "backup"
	}
	if err := h.twoFactor.VerifyCode(c.Request.Context(), userID, req.Token, req.UseBackup); err != nil {
		metrics.TwoFactorVerificationsTotal.WithLabelValues(method, "failure").Inc()
		h.failVerification(c, err)
		return
	}
	metrics.TwoFactorVerificationsTotal.WithLabelValues(method, "success").Inc()

	OK(c, http.StatusOK, gin.H{"verified": true})
}

type codeRequest struct {
	Token string `json:"token"`
}

// Disable handles POST /2fa/disable.
func (h *TwoFactorHandler) Disable(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		Fail(c, h.logger, apperrors.ErrInvalidRequest)
		return
	}

	if err := h.twoFactor.Disable(c.Request.Context(), user.ID, req.Token); err != nil {
		h.failVerification(c, err)
		return
	}

	OK(c, http.StatusOK, gin.H{"message": "Two-factor authentication disabled"})
}

// Status handles GET /2fa/status.
func (h *TwoFactorHandler) Status(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	status, err := h.twoFactor.Status(c.Request.Context(), user.ID)
	if err != nil {
		Fail(c, h.logger, err)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"is_enabled":             status.IsEnabled,
		"backup_codes_remaining": status.BackupCodesRemaining,
		"total_backup_codes":     status.TotalBackupCodes,
		"backup_codes":           status.BackupCodes,
		"last_used":              status.LastUsed,
		"confirmed_at":           status.ConfirmedAt,
		"created_at":             status.CreatedAt,
	})
}

// RegenerateBackupCodes handles POST /2fa/backup-codes/regenerate.
func (h *TwoFactorHandler) RegenerateBackupCodes(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		Fail(c, h.logger, apperrors.ErrUnauthorized)
		return
	}

	var req codeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Token == "" {
		Fail(c, h.logger, apperrors.ErrInvalidRequest)
		return
	}

	codes, err := h.twoFactor.RegenerateBackupCodes(c.Request.Context(), user.ID, req.Token)
	if err != nil {
		h.failVerification(c, err)
		return
	}

	OK(c, http.StatusOK, gin.H{
		"backup_codes":           codes,
		"backup_codes_remaining": len(codes),
	})
}

// failVerification maps errors for the 2FA management endpoints, where a bad
// TOTP value is reported under the code "invalid_token" (the login flow uses
// "invalid_code" for the same condition).
func (h *TwoFactorHandler) failVerification(c *gin.Context, err error) {
	if errors.Is(err, apperrors.ErrInvalid2FACode) {
		FailWith(c, http.StatusBadRequest, "invalid_token", "Invalid verification code")
		return
	}
	Fail(c, h.logger, err)
}

func (h *TwoFactorHandler) resolveUserID(c *gin.Context, req *verifyRequest) (uuid.UUID, error) {
	if req.UserID != "" {
		id, err := uuid.Parse(req.UserID)
		if err != nil {
			return uuid.Nil, apperrors.ErrInvalidRequest
		}
		return id, nil
	}
	if strings.Contains(req.Email, "@") {
		user, err := h.users.FindByEmail(c.Request.Context(), req.Email)
		if err != nil {
			return uuid.Nil, err
		}
		return user.ID, nil
	}
	return uuid.Nil, apperrors.ErrInvalidRequest
}
