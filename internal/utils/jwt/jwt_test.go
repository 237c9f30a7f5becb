// File: internal/utils/jwt/jwt_test.go
package jwt

import (
	"testing"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
)

const testSigningKey = "test-signing-key-0123456789abcdef"

func newTestCodec(ttl time.Duration) *TokenCodec {
	return NewTokenCodec(testSigningKey, ttl)
}

func TestIssueAndDecodeAccessToken(t *testing.T) {
	codec := newTestCodec(time.Hour)
	userID := uuid.New()
	sessionID := uuid.New()

	token, err := codec.IssueAccessToken(userID, "alice@example.com", sessionID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := codec.DecodeAccessToken(token)
	require.NoError(t, err)

	assert.Equal(t, "access", claims.TokenType)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, sessionID.String(), claims.SessionID)
	assert.Equal(t, "alice@example.com", claims.Email)
	assert.Len(t, claims.ID, 32, "jti should be 128 bits of hex")
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestDecodeAccessToken_Expired(t *testing.T) {
	codec := newTestCodec(-time.Minute)
	token, err := codec.IssueAccessToken(uuid.New(), "", uuid.New())
	require.NoError(t, err)

	_, err = codec.DecodeAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ErrExpiredToken)
}

func TestDecodeAccessToken_WrongKey(t *testing.T) {
	codec := newTestCodec(time.Hour)
	token, err := codec.IssueAccessToken(uuid.New(), "", uuid.New())
	require.NoError(t, err)

	other := NewTokenCodec("a-completely-different-key", time.Hour)
	_, err = other.DecodeAccessToken(token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestDecodeAccessToken_Garbage(t *testing.T) {
	codec := newTestCodec(time.Hour)
	_, err := codec.DecodeAccessToken("not.a.jwt")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestDecodeAccessToken_WrongType(t *testing.T) {
	codec := newTestCodec(time.Hour)
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
		},
		TokenType: "refresh",
		SessionID: uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = codec.DecodeAccessToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTokenType)
}

func TestDecodeAccessToken_RejectsNone(t *testing.T) {
	codec := newTestCodec(time.Hour)
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   uuid.NewString(),
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
		},
		TokenType: "access",
		SessionID: uuid.NewString(),
	}
	unsigned, err := jwtlib.NewWithClaims(jwtlib.SigningMethodNone, claims).SignedString(jwtlib.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = codec.DecodeAccessToken(unsigned)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

func TestDecodeAccessToken_BadSubject(t *testing.T) {
	codec := newTestCodec(time.Hour)
	now := time.Now()
	claims := AccessTokenClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   "42", // not a uuid
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(time.Hour)),
		},
		TokenType: "access",
		SessionID: uuid.NewString(),
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString([]byte(testSigningKey))
	require.NoError(t, err)

	_, err = codec.DecodeAccessToken(signed)
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}
