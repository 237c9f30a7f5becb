// File: internal/service/auth_service_test.go
package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/events"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/cache"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/security"
)

const testPassword = "correct horse battery staple"

type authFixture struct {
	svc        *AuthService
	users      *fakeUserRepo
	sessions   *fakeSessionRepo
	devices    *fakeTOTPRepo
	twoFactor  *TwoFactorService
	challenges *cache.MemoryChallengeStore
	user       *models.User
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	verifier, err := NewTestVerifier()
	require.NoError(t, err)

	hash, err := verifier.HashPassword(testPassword)
	require.NoError(t, err)

	user := activeUser()
	user.PasswordHash = hash

	users := newFakeUserRepo(user)
	sessions := newFakeSessionRepo()
	devices := newFakeTOTPRepo()
	challenges := cache.NewMemoryChallengeStore()
	t.Cleanup(challenges.Close)

	sessionSvc := newTestSessionService(sessions, users, testSessionConfig())
	twoFactor := newTestTwoFactorService(devices)
	svc := NewAuthService(users, challenges, verifier, sessionSvc, twoFactor,
		testMFAConfig(), events.NopPublisher{}, zap.NewNop())

	return &authFixture{
		svc:        svc,
		users:      users,
		sessions:   sessions,
		devices:    devices,
		twoFactor:  twoFactor,
		challenges: challenges,
		user:       user,
	}
}

// NewTestVerifier builds an argon2id verifier with cheap test parameters.
func NewTestVerifier() (security.CredentialVerifier, error) {
	return security.NewArgon2idVerifier(security.Argon2idParams{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	})
}

func TestLogin_Success(t *testing.T) {
	f := newAuthFixture(t)

	result, err := f.svc.Login(context.Background(), f.user.Email, testPassword, false, models.ClientInfo{})
	require.NoError(t, err)

	assert.False(t, result.Requires2FA)
	require.NotNil(t, result.Tokens)
	assert.NotEmpty(t, result.Tokens.Access)
	assert.NotEmpty(t, result.Tokens.Refresh)
	require.NotNil(t, result.Session)
	assert.Equal(t, f.user.ID, result.Session.UserID)
}

func TestLogin_UniformCredentialFailure(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	// unknown email and wrong password are indistinguishable
	_, err := f.svc.Login(ctx, "nobody@example.com", testPassword, false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, f.user.Email, "wrong password", false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLogin_MissingCredentials(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.Login(context.Background(), "", "", false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrMissingCredentials)
}

func TestLogin_InactiveUser(t *testing.T) {
	f := newAuthFixture(t)
	f.user.IsActive = false
	f.users.put(f.user)

	_, err := f.svc.Login(context.Background(), f.user.Email, testPassword, false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrUserInactive)
}

func TestLogin_TwoFactorGate(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	secret, _ := enrollDevice(t, f.twoFactor, f.user)

	result, err := f.svc.Login(ctx, f.user.Email, testPassword, true, models.ClientInfo{})
	require.NoError(t, err)
	assert.True(t, result.Requires2FA)
	assert.NotEmpty(t, result.ChallengeToken)
	assert.True(t, result.BackupCodeAvailable)
	assert.Nil(t, result.Tokens, "no tokens before the second factor")

	// wrong code keeps the challenge alive
	_, err = f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, "000000", false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalid2FACode)

	completed, err := f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, liveCode(t, secret), false, models.ClientInfo{})
	require.NoError(t, err)
	require.NotNil(t, completed.Tokens)

	// remember_me carried through the challenge
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), completed.Session.ExpiresAt, 5*time.Second)

	// the challenge is single-use
	_, err = f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, liveCode(t, secret), false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidChallengeToken)
}

func TestCompleteTwoFactorLogin_BackupCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, codes := enrollDevice(t, f.twoFactor, f.user)

	result, err := f.svc.Login(ctx, f.user.Email, testPassword, false, models.ClientInfo{})
	require.NoError(t, err)
	require.True(t, result.Requires2FA)

	completed, err := f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, codes[0], true, models.ClientInfo{})
	require.NoError(t, err)
	assert.NotNil(t, completed.Tokens)

	status, err := f.twoFactor.Status(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, 9, status.BackupCodesRemaining)
}

func TestCompleteTwoFactorLogin_EmptyCode(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	secret, _ := enrollDevice(t, f.twoFactor, f.user)

	result, err := f.svc.Login(ctx, f.user.Email, testPassword, false, models.ClientInfo{})
	require.NoError(t, err)
	require.True(t, result.Requires2FA)

	// a blank code is a verification failure, not a missing-credentials one
	_, err = f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, "", false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalid2FACode)

	_, err = f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, "", true, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidBackupCode)

	// the failed attempts left the challenge alive
	completed, err := f.svc.CompleteTwoFactorLogin(ctx, result.ChallengeToken, liveCode(t, secret), false, models.ClientInfo{})
	require.NoError(t, err)
	assert.NotNil(t, completed.Tokens)
}

func TestCompleteTwoFactorLogin_BadChallenge(t *testing.T) {
	f := newAuthFixture(t)
	_, err := f.svc.CompleteTwoFactorLogin(context.Background(), "never-issued", "123456", false, models.ClientInfo{})
	assert.ErrorIs(t, err, apperrors.ErrInvalidChallengeToken)
}

func TestLoginThenRefreshRoundTrip(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	result, err := f.svc.Login(ctx, f.user.Email, testPassword, false, models.ClientInfo{})
	require.NoError(t, err)

	sessionSvc := f.svc.sessions
	user, _, pair, err := sessionSvc.RotateOrReuse(ctx, result.Tokens.Refresh, models.ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, user.ID)

	gotUser, _, err := sessionSvc.AuthenticateAccessToken(ctx, pair.Access)
	require.NoError(t, err)
	assert.Equal(t, f.user.ID, gotUser.ID)
}
