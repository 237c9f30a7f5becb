// File: internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/events"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/security"
)

// LoginResult is the outcome of either login step. Requires2FA carries the
// challenge branch; otherwise User/Session/Tokens are populated.
type LoginResult struct {
	Requires2FA         bool
	ChallengeToken      string
	BackupCodeAvailable bool
	User                *models.User
	Session             *models.AuthSession
	Tokens              *models.TokenPair
}

// AuthService orchestrates the login state machine: credential check, the
// optional 2FA challenge hop, and session creation.
type AuthService struct {
	users      repository.UserRepository
	challenges repository.ChallengeStore
	verifier   security.CredentialVerifier
	sessions   *SessionService
	twoFactor  *TwoFactorService
	cfg        config.MFAConfig
	publisher  events.Publisher
	logger     *zap.Logger
}

func NewAuthService(
	users repository.UserRepository,
	challenges repository.ChallengeStore,
	verifier security.CredentialVerifier,
	sessions *SessionService,
	twoFactor *TwoFactorService,
	cfg config.MFAConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		users:      users,
		challenges: challenges,
		verifier:   verifier,
		sessions:   sessions,
		twoFactor:  twoFactor,
		cfg:        cfg,
		publisher:  publisher,
		logger:     logger,
	}
}

// Login runs the password step. Unknown email, wrong password and inactive
// account all surface the same credential failure so account existence is
// never leaked. Users with a confirmed active TOTP device get a short-lived
// challenge instead of tokens.
func (s *AuthService) Login(ctx context.Context, email, password string, rememberMe bool, client models.ClientInfo) (*LoginResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperrors.ErrMissingCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	match, err := s.verifier.CheckPasswordHash(password, user.PasswordHash)
	if err != nil || !match {
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	enabled, device, err := s.twoFactor.IsEnabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if enabled {
		return s.issueChallenge(ctx, user, device, rememberMe)
	}

	return s.establishSession(ctx, user, rememberMe, client)
}

// CompleteTwoFactorLogin runs the challenge step: the caller re-submits the
// challenge token with a TOTP code or a backup code. The challenge is
// deleted only on success; a failed attempt leaves it usable until its TTL.
func (s *AuthService) CompleteTwoFactorLogin(ctx context.Context, challengeToken, code string, useBackup bool, client models.ClientInfo) (*LoginResult, error) {
	if challengeToken == "" {
		return nil, apperrors.ErrInvalidChallengeToken
	}

	challenge, err := s.challenges.Get(ctx, challengeToken)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, challenge.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperrors.ErrUserInactive
	}

	if err := s.twoFactor.VerifyCode(ctx, user.ID, code, useBackup); err != nil {
		return nil, err
	}

	if err := s.challenges.Delete(ctx, challengeToken); err != nil {
		s.logger.Warn("failed to delete consumed 2fa challenge", zap.Error(err))
	}

	return s.establishSession(ctx, user, challenge.RememberMe, client)
}

func (s *AuthService) issueChallenge(ctx context.Context, user *models.User, device *models.TOTPDevice, rememberMe bool) (*LoginResult, error) {
	token := uuid.NewString()
	challenge := &models.TwoFactorChallenge{
		UserID:     user.ID,
		Email:      user.Email,
		RememberMe: rememberMe,
	}
	if err := s.challenges.Put(ctx, token, challenge, s.cfg.ChallengeTokenTTL); err != nil {
		return nil, err
	}

	backupAvailable := device != nil && device.BackupCodes != ""
	return &LoginResult{
		Requires2FA:         true,
		ChallengeToken:      token,
		BackupCodeAvailable: backupAvailable,
		User:                user,
	}, nil
}

func (s *AuthService) establishSession(ctx context.Context, user *models.User, rememberMe bool, client models.ClientInfo) (*LoginResult, error) {
	session, tokens, err := s.sessions.CreateLoginSession(ctx, user, rememberMe, client)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeUserLoggedIn, user.ID, map[string]string{
		"session_id": session.ID.String(),
	}))

	return &LoginResult{
		User:    user,
		Session: session,
		Tokens:  tokens,
	}, nil
}
