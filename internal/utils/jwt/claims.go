// File: internal/utils/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// AccessTokenClaims is the payload carried by access tokens. RegisteredClaims
// supplies sub, iat, exp and jti; the sid claim binds the token to the
// session it was minted for so that revoking the session kills the token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
	Email     string `json:"email,omitempty"`
	SessionID string `json:"sid"`
}
