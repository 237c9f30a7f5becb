// File: internal/domain/repository/session_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
)

// SessionRepository persists AuthSession rows. Sessions are soft-revoked,
// never deleted; revocation is monotonic (revoke statements only match rows
// with revoked_at IS NULL).
type SessionRepository interface {
	Create(ctx context.Context, session *models.AuthSession) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.AuthSession, error)
	FindByTokenHash(ctx context.Context, tokenHash string) (*models.AuthSession, error)
	// FindActiveByUserID returns the user's unrevoked sessions ordered by
	// last_used_at descending.
	FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.AuthSession, error)
	// Touch updates last_used_at only. Callers on the hot request path may
	// invoke it fire-and-forget.
	Touch(ctx context.Context, id uuid.UUID, lastUsedAt time.Time) error
	Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time, reason string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error)

	// Rotate locks the session identified by tokenHash, calls decide with the
	// row as read under the lock, and applies the returned decision in the
	// same transaction: telemetry update, child insert, parent revocation.
	// When decide returns an error alongside a RevokeParentReason, the
	// revocation is still committed before the error is returned (lazy
	// cleanup of expired and idle sessions). A missing row yields
	// ErrSessionNotFound without invoking decide.
	Rotate(ctx context.Context, tokenHash string,
		decide func(parent *models.AuthSession) (models.RotationDecision, error),
	) (parent *models.AuthSession, child *models.AuthSession, err error)
}
