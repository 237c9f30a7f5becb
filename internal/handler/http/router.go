// File: internal/handler/http/router.go
package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/handler/http/middleware"
	"github.com/harmsephillip7/skillsflow-auth/internal/service"
	"github.com/harmsephillip7/skillsflow-auth/internal/utils/telemetry"
)

// NewRouter assembles the HTTP surface under /api/v1/auth.
func NewRouter(
	cfg *config.Config,
	auth *service.AuthService,
	sessions *service.SessionService,
	twoFactor *service.TwoFactorService,
	users repository.UserRepository,
	logger *zap.Logger,
) *gin.Engine {
	if !cfg.Server.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.TracingMiddleware())

	cookies := NewCookieManager(cfg.Cookie, cfg.Server.IsDevelopment(), cfg.JWT.AccessTokenTTL)
	authHandler := NewAuthHandler(auth, sessions, cookies, logger)
	twoFactorHandler := NewTwoFactorHandler(twoFactor, users, logger)
	requireAuth := middleware.RequireAuth(sessions, cookies.AccessCookieName(), logger)

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "status": "up"})
	})
	router.GET("/metrics", gin.WrapF(telemetry.PrometheusHandler()))

	api := router.Group("/api/v1/auth")
	{
		api.POST("/login", authHandler.Login)
		api.POST("/refresh", authHandler.Refresh)
		api.POST("/logout", authHandler.Logout)
		api.DELETE("/logout", authHandler.Logout)

		api.POST("/2fa/verify", twoFactorHandler.Verify)

		authed := api.Group("")
		authed.Use(requireAuth)
		{
			authed.GET("/me", authHandler.Me)
			authed.GET("/sessions", authHandler.ListSessions)
			authed.POST("/sessions/:id/revoke", authHandler.RevokeSession)
			authed.DELETE("/sessions/:id/revoke", authHandler.RevokeSession)

			authed.GET("/2fa/setup", twoFactorHandler.Setup)
			authed.POST("/2fa/setup/confirm", twoFactorHandler.SetupConfirm)
			authed.POST("/2fa/disable", twoFactorHandler.Disable)
			authed.GET("/2fa/status", twoFactorHandler.Status)
			authed.POST("/2fa/backup-codes/regenerate", twoFactorHandler.RegenerateBackupCodes)
		}
	}

	return router
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Error("request error",
				zap.String("method", c.Request.Method),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", c.Writer.Status()))
		}
	}
}
