// File: internal/infrastructure/cache/memory_challenge_store.go
package cache

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
)

type memoryChallengeEntry struct {
	challenge models.TwoFactorChallenge
	expiresAt time.Time
}

// MemoryChallengeStore is a process-local ChallengeStore for single-instance
// deployments and tests. Expired entries are rejected on read and swept by a
// background janitor.
type MemoryChallengeStore struct {
	mu      sync.Mutex
	entries map[string]memoryChallengeEntry
	done    chan struct{}
	once    sync.Once
}

func NewMemoryChallengeStore() *MemoryChallengeStore {
	s := &MemoryChallengeStore{
		entries: make(map[string]memoryChallengeEntry),
		done:    make(chan struct{}),
	}
	go s.janitor(time.Minute)
	return s
}

func (s *MemoryChallengeStore) Put(_ context.Context, token string, challenge *models.TwoFactorChallenge, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memoryChallengeEntry{
		challenge: *challenge,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryChallengeStore) Get(_ context.Context, token string) (*models.TwoFactorChallenge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[token]
	if !ok {
		return nil, apperrors.ErrInvalidChallengeToken
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, token)
		return nil, apperrors.ErrInvalidChallengeToken
	}

	challenge := entry.challenge
	return &challenge, nil
}

func (s *MemoryChallengeStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// Close stops the janitor goroutine.
func (s *MemoryChallengeStore) Close() {
	s.once.Do(func() { close(s.done) })
}

func (s *MemoryChallengeStore) janitor(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for token, entry := range s.entries {
				if now.After(entry.expiresAt) {
					delete(s.entries, token)
				}
			}
			s.mu.Unlock()
		}
	}
}

var _ repository.ChallengeStore = (*MemoryChallengeStore)(nil)
