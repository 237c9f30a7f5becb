// File: internal/handler/http/cookies.go
package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
)

// CookieManager writes and clears the httponly auth cookies. Cookie delivery
// is additive: tokens are always in the JSON body too, cookies exist for
// browser clients.
type CookieManager struct {
	cfg       config.CookieConfig
	secure    bool
	sameSite  http.SameSite
	accessTTL time.Duration
}

func NewCookieManager(cfg config.CookieConfig, isDevelopment bool, accessTTL time.Duration) *CookieManager {
	secure := cfg.Secure && !isDevelopment

	sameSite := http.SameSiteLaxMode
	switch cfg.SameSite {
	case "strict":
		sameSite = http.SameSiteStrictMode
	case "none":
		sameSite = http.SameSiteNoneMode
	}

	return &CookieManager{
		cfg:       cfg,
		secure:    secure,
		sameSite:  sameSite,
		accessTTL: accessTTL,
	}
}

// SetAuthCookies writes both cookies. The refresh cookie lives exactly as
// long as the session has left; the access cookie as long as the token.
func (m *CookieManager) SetAuthCookies(c *gin.Context, pair *models.TokenPair, session *models.AuthSession) {
	refreshMaxAge := int(time.Until(session.ExpiresAt).Seconds())
	if refreshMaxAge < 0 {
		refreshMaxAge = 0
	}

	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cfg.AccessName, pair.Access, int(m.accessTTL.Seconds()), m.cfg.Path, m.cfg.Domain, m.secure, true)
	c.SetCookie(m.cfg.RefreshName, pair.Refresh, refreshMaxAge, m.cfg.Path, m.cfg.Domain, m.secure, true)
}

// ClearAuthCookies expires both cookies.
func (m *CookieManager) ClearAuthCookies(c *gin.Context) {
	c.SetSameSite(m.sameSite)
	c.SetCookie(m.cfg.AccessName, "", -1, m.cfg.Path, m.cfg.Domain, m.secure, true)
	c.SetCookie(m.cfg.RefreshName, "", -1, m.cfg.Path, m.cfg.Domain, m.secure, true)
}

// AccessCookieName exposes the configured access cookie name for extraction.
func (m *CookieManager) AccessCookieName() string { return m.cfg.AccessName }

// RefreshCookieName exposes the configured refresh cookie name for extraction.
func (m *CookieManager) RefreshCookieName() string { return m.cfg.RefreshName }
