// File: internal/infrastructure/security/token_hasher.go
package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

const refreshSecretBytes = 48

// RefreshTokenHasher derives the storable fingerprint of a refresh token.
// Tokens are stored only as keyed HMAC-SHA256 digests, so a database dump
// alone cannot be replayed against the refresh endpoint.
type RefreshTokenHasher struct {
	key []byte
}

func NewRefreshTokenHasher(key []byte) *RefreshTokenHasher {
	return &RefreshTokenHasher{key: key}
}

// Hash returns the lowercase hex HMAC-SHA256 of the token.
func (h *RefreshTokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.key)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}

// Matches compares token against a stored hash in constant time.
func (h *RefreshTokenHasher) Matches(token, storedHash string) bool {
	computed := h.Hash(token)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(storedHash)) == 1
}

// GenerateRefreshSecret returns a fresh 384-bit opaque refresh token encoded
// as unpadded URL-safe base64.
func GenerateRefreshSecret() (string, error) {
	buf := make([]byte, refreshSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate refresh secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
