// File: internal/domain/models/token.go
package models

import "github.com/google/uuid"

// TokenPair is the (access, refresh) credential pair handed to a client.
// Refresh is the raw opaque secret; it is never stored server-side.
type TokenPair struct {
	Access    string `json:"access"`
	Refresh   string `json:"refresh"`
	ExpiresIn int    `json:"expires_in"`
	TokenType string `json:"token_type"`
}

// TwoFactorChallenge is the ephemeral state between the password step and
// the 2FA step of login. It lives only in the TTL challenge store, keyed by
// a random opaque token, and is single-use.
type TwoFactorChallenge struct {
	UserID     uuid.UUID `json:"user_id"`
	Email      string    `json:"email"`
	RememberMe bool      `json:"remember_me"`
}
