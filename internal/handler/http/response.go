// File: internal/handler/http/response.go
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
)

// OK writes a success envelope: {"ok": true, ...payload}.
func OK(c *gin.Context, status int, payload gin.H) {
	body := gin.H{"ok": true}
	for k, v := range payload {
		body[k] = v
	}
	c.JSON(status, body)
}

// Fail maps err through the error taxonomy and writes the failure envelope:
// {"ok": false, "error": {"code", "message"}}. Internal errors are logged
// with their cause but surface only a generic message.
func Fail(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.From(err)
	if appErr.StatusCode >= http.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.JSON(appErr.StatusCode, gin.H{
		"ok": false,
		"error": gin.H{
			"code":    appErr.Code,
			"message": appErr.Message,
		},
	})
}

// FailWith writes a failure envelope with an explicit triple, for endpoints
// whose wire code differs from the taxonomy default.
func FailWith(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"ok": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}
