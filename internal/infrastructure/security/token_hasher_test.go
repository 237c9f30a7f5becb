// File: internal/infrastructure/security/token_hasher_test.go
package security

import (
	"encoding/base64"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshTokenHasher_Deterministic(t *testing.T) {
	hasher := NewRefreshTokenHasher([]byte("signing-key"))

	h1 := hasher.Hash("some-refresh-token")
	h2 := hasher.Hash("some-refresh-token")
	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64, "hex sha256 digest")
	assert.Equal(t, strings.ToLower(h1), h1)

	_, err := hex.DecodeString(h1)
	assert.NoError(t, err)
}

func TestRefreshTokenHasher_KeyedAndDistinct(t *testing.T) {
	a := NewRefreshTokenHasher([]byte("key-a"))
	b := NewRefreshTokenHasher([]byte("key-b"))

	assert.NotEqual(t, a.Hash("token"), b.Hash("token"), "hash is keyed")
	assert.NotEqual(t, a.Hash("token-1"), a.Hash("token-2"))
}

func TestRefreshTokenHasher_Matches(t *testing.T) {
	hasher := NewRefreshTokenHasher([]byte("signing-key"))
	stored := hasher.Hash("token")

	assert.True(t, hasher.Matches("token", stored))
	assert.False(t, hasher.Matches("other", stored))
	assert.False(t, hasher.Matches("token", "not-a-hash"))
}

func TestGenerateRefreshSecret(t *testing.T) {
	secret, err := GenerateRefreshSecret()
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(secret)
	require.NoError(t, err)
	assert.Len(t, raw, 48)

	other, err := GenerateRefreshSecret()
	require.NoError(t, err)
	assert.NotEqual(t, secret, other)
}

func TestArgon2idVerifier_RoundTrip(t *testing.T) {
	verifier, err := NewArgon2idVerifier(DefaultArgon2idParams())
	require.NoError(t, err)

	hash, err := verifier.HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"))

	ok, err := verifier.CheckPasswordHash("correct horse battery staple", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = verifier.CheckPasswordHash("wrong password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArgon2idVerifier_RejectsGarbageHash(t *testing.T) {
	verifier, err := NewArgon2idVerifier(DefaultArgon2idParams())
	require.NoError(t, err)

	_, err = verifier.CheckPasswordHash("pw", "$bcrypt$nope")
	assert.Error(t, err)
}

func TestNewArgon2idVerifier_RequiresParams(t *testing.T) {
	_, err := NewArgon2idVerifier(Argon2idParams{})
	assert.Error(t, err)
}
