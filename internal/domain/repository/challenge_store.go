// File: internal/domain/repository/challenge_store.go
package repository

import (
	"context"
	"time"

	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
)

// ChallengeStore holds pending two-factor login challenges keyed by an opaque
// token, with a TTL. Get on a missing or expired token returns
// ErrInvalidChallengeToken.
type ChallengeStore interface {
	Put(ctx context.Context, token string, challenge *models.TwoFactorChallenge, ttl time.Duration) error
	Get(ctx context.Context, token string) (*models.TwoFactorChallenge, error)
	Delete(ctx context.Context, token string) error
}
