// File: internal/infrastructure/cache/redis_challenge_store.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
)

const challengeKeyPrefix = "2fa_temp_"

// RedisChallengeStore keeps pending two-factor challenges in Redis with a
// per-key TTL, so a multi-instance deployment shares one challenge space.
type RedisChallengeStore struct {
	client *redis.Client
}

func NewRedisChallengeStore(client *redis.Client) *RedisChallengeStore {
	return &RedisChallengeStore{client: client}
}

func (s *RedisChallengeStore) Put(ctx context.Context, token string, challenge *models.TwoFactorChallenge, ttl time.Duration) error {
	payload, err := json.Marshal(challenge)
	if err != nil {
		return fmt.Errorf("marshal challenge: %w", err)
	}
	if err := s.client.Set(ctx, challengeKeyPrefix+token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("store challenge: %w", err)
	}
	return nil
}

func (s *RedisChallengeStore) Get(ctx context.Context, token string) (*models.TwoFactorChallenge, error) {
	payload, err := s.client.Get(ctx, challengeKeyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.ErrInvalidChallengeToken
		}
		return nil, fmt.Errorf("load challenge: %w", err)
	}

	var challenge models.TwoFactorChallenge
	if err := json.Unmarshal(payload, &challenge); err != nil {
		return nil, fmt.Errorf("unmarshal challenge: %w", err)
	}
	return &challenge, nil
}

func (s *RedisChallengeStore) Delete(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, challengeKeyPrefix+token).Err(); err != nil {
		return fmt.Errorf("delete challenge: %w", err)
	}
	return nil
}

var _ repository.ChallengeStore = (*RedisChallengeStore)(nil)
