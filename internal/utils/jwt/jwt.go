// File: internal/utils/jwt/jwt.go
package jwt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
)

const tokenTypeAccess = "access"

// TokenCodec issues and verifies HS256 access tokens.
type TokenCodec struct {
	signingKey []byte
	accessTTL  time.Duration
}

func NewTokenCodec(signingKey string, accessTTL time.Duration) *TokenCodec {
	return &TokenCodec{
		signingKey: []byte(signingKey),
		accessTTL:  accessTTL,
	}
}

// SigningKey exposes the raw key so the refresh-token hasher can derive its
// HMAC from the same secret.
func (c *TokenCodec) SigningKey() []byte {
	return c.signingKey
}

// AccessTokenTTL is the configured access token lifetime.
func (c *TokenCodec) AccessTokenTTL() time.Duration {
	return c.accessTTL
}

// IssueAccessToken mints a signed access token bound to the given session.
func (c *TokenCodec) IssueAccessToken(userID uuid.UUID, email string, sessionID uuid.UUID) (string, error) {
	now := time.Now()

	jti, err := randomJTI()
	if err != nil {
		return "", fmt.Errorf("generate jti: %w", err)
	}

	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessTTL)),
			ID:        jti,
		},
		TokenType: tokenTypeAccess,
		Email:     email,
		SessionID: sessionID.String(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// DecodeAccessToken verifies signature, expiry and token type, and requires
// the sub and sid claims to be well-formed UUIDs.
func (c *TokenCodec) DecodeAccessToken(tokenString string) (*AccessTokenClaims, error) {
	claims := &AccessTokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Header["alg"])
		}
		return c.signingKey, nil
	}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, apperrors.ErrInvalidToken
	}
	if !token.Valid {
		return nil, apperrors.ErrInvalidToken
	}

	if claims.TokenType != tokenTypeAccess {
		return nil, apperrors.ErrInvalidTokenType
	}
	if claims.IssuedAt == nil {
		return nil, apperrors.ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, apperrors.ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, apperrors.ErrInvalidToken
	}

	return claims, nil
}

// randomJTI returns 128 bits of randomness as lowercase hex.
func randomJTI() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
