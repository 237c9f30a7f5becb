// File: internal/service/session_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/events"
	"github.com/harmsephillip7/skillsflow-auth/internal/infrastructure/security"
	jwtutil "github.com/harmsephillip7/skillsflow-auth/internal/utils/jwt"
)

const touchTimeout = 3 * time.Second

// SessionService owns the lifecycle of refresh-token sessions: creation,
// rotation, revocation and per-request authentication of access tokens.
type SessionService struct {
	sessions  repository.SessionRepository
	users     repository.UserRepository
	codec     *jwtutil.TokenCodec
	hasher    *security.RefreshTokenHasher
	cfg       config.SessionConfig
	publisher events.Publisher
	logger    *zap.Logger
}

func NewSessionService(
	sessions repository.SessionRepository,
	users repository.UserRepository,
	codec *jwtutil.TokenCodec,
	hasher *security.RefreshTokenHasher,
	cfg config.SessionConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessions:  sessions,
		users:     users,
		codec:     codec,
		hasher:    hasher,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
	}
}

// RefreshLifetime resolves the session lifetime for a login request.
func (s *SessionService) RefreshLifetime(rememberMe bool) time.Duration {
	if rememberMe {
		return s.cfg.RememberMeTTL
	}
	return s.cfg.RefreshTokenTTL
}

// CreateLoginSession mints a new session for an authenticated user and
// returns it with a fresh access/refresh pair. This is the only way a
// session is born outside rotation.
func (s *SessionService) CreateLoginSession(ctx context.Context, user *models.User, rememberMe bool, client models.ClientInfo) (*models.AuthSession, *models.TokenPair, error) {
	refreshSecret, err := security.GenerateRefreshSecret()
	if err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}

	now := time.Now().UTC()
	session := &models.AuthSession{
		ID:               uuid.New(),
		UserID:           user.ID,
		RefreshTokenHash: s.hasher.Hash(refreshSecret),
		CreatedAt:        now,
		LastUsedAt:       &now,
		ExpiresAt:        now.Add(s.RefreshLifetime(rememberMe)),
		IPAddress:        client.IPAddress,
		UserAgent:        client.UserAgent,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, nil, err
	}

	pair, err := s.issuePair(user, session, refreshSecret)
	if err != nil {
		return nil, nil, err
	}
	return session, pair, nil
}

// RotateOrReuse exchanges a presented refresh secret for a fresh token pair.
// With rotation enabled the session is replaced by a child linked through
// rotated_from and the parent is revoked with reason "rotated"; with
// rotation disabled the same session and refresh secret are reused and only
// a new access token is minted. Validation failures observed on a live
// parent (expiry, idle timeout, deactivated user) persist a revocation as a
// side effect even though the call fails.
func (s *SessionService) RotateOrReuse(ctx context.Context, refreshSecret string, client models.ClientInfo) (*models.User, *models.AuthSession, *models.TokenPair, error) {
	tokenHash := s.hasher.Hash(refreshSecret)
	now := time.Now().UTC()

	var (
		user        *models.User
		childSecret string
	)

	parent, child, err := s.sessions.Rotate(ctx, tokenHash, func(parent *models.AuthSession) (models.RotationDecision, error) {
		if parent.RevokedAt != nil {
			return models.RotationDecision{}, apperrors.ErrRefreshTokenRevoked
		}
		if !now.Before(parent.ExpiresAt) {
			return models.RotationDecision{RevokeParentReason: models.RevokeReasonExpired}, apperrors.ErrRefreshTokenExpired
		}
		if parent.IdleExceeded(now, s.cfg.IdleTimeout) {
			return models.RotationDecision{RevokeParentReason: models.RevokeReasonIdleTimeout}, apperrors.ErrSessionIdle
		}

		var lookupErr error
		user, lookupErr = s.users.FindByID(ctx, parent.UserID)
		if lookupErr != nil {
			return models.RotationDecision{}, lookupErr
		}
		if !user.IsActive {
			return models.RotationDecision{RevokeParentReason: models.RevokeReasonRevokedByUser}, apperrors.ErrUserInactive
		}

		telemetry := &models.SessionTelemetry{
			LastUsedAt: now,
			IPAddress:  client.IPAddress,
			UserAgent:  client.UserAgent,
		}

		if !s.cfg.RotateRefreshTokens {
			return models.RotationDecision{Telemetry: telemetry}, nil
		}

		secret, secretErr := security.GenerateRefreshSecret()
		if secretErr != nil {
			return models.RotationDecision{}, fmt.Errorf("rotate session: %w", secretErr)
		}
		childSecret = secret

		parentID := parent.ID
		decision := models.RotationDecision{
			Telemetry: telemetry,
			Child: &models.AuthSession{
				ID:               uuid.New(),
				UserID:           parent.UserID,
				RefreshTokenHash: s.hasher.Hash(secret),
				CreatedAt:        now,
				LastUsedAt:       &now,
				ExpiresAt:        now.Add(parent.ExpiresAt.Sub(parent.CreatedAt)),
				IPAddress:        client.IPAddress,
				UserAgent:        client.UserAgent,
				RotatedFrom:      &parentID,
			},
		}
		if s.cfg.BlacklistAfterRotation {
			decision.RevokeParentReason = models.RevokeReasonRotated
		}
		return decision, nil
	})
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil, nil, nil, apperrors.ErrInvalidRefreshToken
		}
		return nil, nil, nil, err
	}

	active := parent
	secret := refreshSecret
	if child != nil {
		active = child
		secret = childSecret
		s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeSessionRotated, parent.UserID, map[string]string{
			"parent_session_id": parent.ID.String(),
			"child_session_id":  child.ID.String(),
		}))
	}

	pair, err := s.issuePair(user, active, secret)
	if err != nil {
		return nil, nil, nil, err
	}
	return user, active, pair, nil
}

// RevokeByRefreshToken ends the session behind a presented refresh secret
// with reason "logout". Idempotent: unknown secrets and already-revoked
// sessions are a no-op.
func (s *SessionService) RevokeByRefreshToken(ctx context.Context, refreshSecret string) error {
	session, err := s.sessions.FindByTokenHash(ctx, s.hasher.Hash(refreshSecret))
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	// Re-verify the returned row against the presented secret in constant
	// time; the lookup index is not trusted as the final authority.
	if !s.hasher.Matches(refreshSecret, session.RefreshTokenHash) {
		return nil
	}
	if session.RevokedAt != nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, session.ID, time.Now().UTC(), models.RevokeReasonLogout); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			// Lost the race with another revoker; logout is still done.
			return nil
		}
		return err
	}

	s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeUserLoggedOut, session.UserID, map[string]string{
		"session_id": session.ID.String(),
	}))
	return nil
}

// AuthenticateAccessToken validates a bearer token and resolves the live
// user and session behind it. Sessions found expired or idle are revoked
// lazily as a side effect. On success the session's last_used_at is touched
// without blocking the request path.
func (s *SessionService) AuthenticateAccessToken(ctx context.Context, token string) (*models.User, *models.AuthSession, error) {
	claims, err := s.codec.DecodeAccessToken(token)
	if err != nil {
		return nil, nil, err
	}

	sessionID, err := uuid.Parse(claims.SessionID)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, nil, apperrors.ErrInvalidToken
	}

	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().UTC()
	if session.RevokedAt != nil {
		return nil, nil, apperrors.ErrSessionRevoked
	}
	if !now.Before(session.ExpiresAt) {
		s.revokeLazily(ctx, session.ID, models.RevokeReasonExpired)
		return nil, nil, apperrors.ErrSessionExpired
	}
	if session.IdleExceeded(now, s.cfg.IdleTimeout) {
		s.revokeLazily(ctx, session.ID, models.RevokeReasonIdleTimeout)
		return nil, nil, apperrors.ErrSessionIdle
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, apperrors.ErrUserInactive
	}

	s.touchAsync(session.ID, now)
	return user, session, nil
}

// ListUserSessions returns the user's unrevoked sessions, most recently
// used first.
func (s *SessionService) ListUserSessions(ctx context.Context, userID uuid.UUID) ([]*models.AuthSession, error) {
	return s.sessions.FindActiveByUserID(ctx, userID)
}

// RevokeSessionByID revokes one of the caller's own sessions. A session that
// does not exist or belongs to someone else yields ErrNotFound; revealing
// which is a session-id oracle.
func (s *SessionService) RevokeSessionByID(ctx context.Context, userID, sessionID uuid.UUID) error {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return apperrors.ErrNotFound
		}
		return err
	}
	if session.UserID != userID {
		return apperrors.ErrNotFound
	}
	if session.RevokedAt != nil {
		return nil
	}

	if err := s.sessions.Revoke(ctx, session.ID, time.Now().UTC(), models.RevokeReasonRevokedByUser); err != nil {
		if errors.Is(err, apperrors.ErrSessionNotFound) {
			return nil
		}
		return err
	}

	s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeSessionRevoked, userID, map[string]string{
		"session_id": session.ID.String(),
		"reason":     models.RevokeReasonRevokedByUser,
	}))
	return nil
}

// RevokeAllForUser ends every live session of a user.
func (s *SessionService) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	count, err := s.sessions.RevokeAllForUser(ctx, userID, reason)
	if err != nil {
		return 0, err
	}
	if count > 0 {
		s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeSessionRevoked, userID, map[string]string{
			"reason":   reason,
			"sessions": fmt.Sprintf("%d", count),
		}))
	}
	return count, nil
}

func (s *SessionService) issuePair(user *models.User, session *models.AuthSession, refreshSecret string) (*models.TokenPair, error) {
	access, err := s.codec.IssueAccessToken(user.ID, user.Email, session.ID)
	if err != nil {
		return nil, err
	}
	return &models.TokenPair{
		Access:    access,
		Refresh:   refreshSecret,
		ExpiresIn: int(s.codec.AccessTokenTTL().Seconds()),
		TokenType: "Bearer",
	}, nil
}

func (s *SessionService) revokeLazily(ctx context.Context, sessionID uuid.UUID, reason string) {
	if err := s.sessions.Revoke(ctx, sessionID, time.Now().UTC(), reason); err != nil &&
		!errors.Is(err, apperrors.ErrSessionNotFound) {
		s.logger.Warn("lazy session revocation failed",
			zap.String("session_id", sessionID.String()),
			zap.String("reason", reason),
			zap.Error(err))
	}
}

func (s *SessionService) touchAsync(sessionID uuid.UUID, usedAt time.Time) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), touchTimeout)
		defer cancel()
		if err := s.sessions.Touch(ctx, sessionID, usedAt); err != nil {
			s.logger.Debug("session touch failed",
				zap.String("session_id", sessionID.String()),
				zap.Error(err))
		}
	}()
}
