// File: internal/service/fakes_test.go
package service

import (
	"context"
	"sync"
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

const testSigningKey = "service-test-signing-key"

// fakeSessionRepo mirrors the Postgres repository's semantics in memory,
// including the commit-revocation-on-error contract of Rotate.
type fakeSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.AuthSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: make(map[uuid.UUID]*models.AuthSession)}
}

func (r *fakeSessionRepo) Create(_ context.Context, session *models.AuthSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *fakeSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session := r.byHashLocked(tokenHash)
	if session == nil {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *fakeSessionRepo) FindActiveByUserID(_ context.Context, userID uuid.UUID) ([]*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.AuthSession
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			cp := *session
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeSessionRepo) Touch(_ context.Context, id uuid.UUID, lastUsedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok && session.RevokedAt == nil {
		t := lastUsedAt
		session.LastUsedAt = &t
	}
	return nil
}

func (r *fakeSessionRepo) Revoke(_ context.Context, id uuid.UUID, revokedAt time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return apperrors.ErrSessionNotFound
	}
	r.revokeLocked(session, revokedAt, reason)
	return nil
}

func (r *fakeSessionRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now().UTC()
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			r.revokeLocked(session, now, reason)
			count++
		}
	}
	return count, nil
}

func (r *fakeSessionRepo) Rotate(_ context.Context, tokenHash string,
	decide func(parent *models.AuthSession) (models.RotationDecision, error),
) (*models.AuthSession, *models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.byHashLocked(tokenHash)
	if stored == nil {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	parent := *stored

	decision, decideErr := decide(&parent)

	if decision.Telemetry != nil {
		t := decision.Telemetry.LastUsedAt
		stored.LastUsedAt = &t
		if decision.Telemetry.IPAddress != nil {
			stored.IPAddress = decision.Telemetry.IPAddress
		}
		if decision.Telemetry.UserAgent != nil {
			stored.UserAgent = decision.Telemetry.UserAgent
		}
	}
	var child *models.AuthSession
	if decision.Child != nil {
		cp := *decision.Child
		r.sessions[cp.ID] = &cp
		childCopy := cp
		child = &childCopy
	}
	if decision.RevokeParentReason != "" && stored.RevokedAt == nil {
		r.revokeLocked(stored, time.Now().UTC(), decision.RevokeParentReason)
	}

	if decideErr != nil {
		return &parent, nil, decideErr
	}
	return &parent, child, nil
}

func (r *fakeSessionRepo) byHashLocked(tokenHash string) *models.AuthSession {
	for _, session := range r.sessions {
		if session.RefreshTokenHash == tokenHash {
			return session
		}
	}
	return nil
}

func (r *fakeSessionRepo) revokeLocked(session *models.AuthSession, at time.Time, reason string) {
	t := at
	rs := reason
	session.RevokedAt = &t
	session.RevokedReason = &rs
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *fakeUserRepo) put(user *models.User) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *user
	r.users[user.ID] = &cp
}

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Email == email {
			cp := *user
			return &cp, nil
		}
	}
	return nil, apperrors.ErrUserNotFound
}

// fakeTOTPRepo enforces the same version compare-and-set as the Postgres
// repository.
type fakeTOTPRepo struct {
	mu      sync.Mutex
	devices map[uuid.UUID]*models.TOTPDevice // keyed by user id
}

func newFakeTOTPRepo() *fakeTOTPRepo {
	return &fakeTOTPRepo{devices: make(map[uuid.UUID]*models.TOTPDevice)}
}

func (r *fakeTOTPRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.TOTPDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *device
	return &cp, nil
}

func (r *fakeTOTPRepo) Upsert(_ context.Context, device *models.TOTPDevice) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.devices[device.UserID]
	cp := *device
	if ok {
		cp.ID = existing.ID
		cp.Version = existing.Version + 1
	}
	r.devices[device.UserID] = &cp
	device.ID = cp.ID
	device.Version = cp.Version
	return !ok, nil
}

func (r *fakeTOTPRepo) UpdateGuarded(_ context.Context, device *models.TOTPDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.devices[device.UserID]
	if !ok || stored.ID != device.ID || stored.Version != device.Version {
		return apperrors.ErrVersionConflict
	}
	cp := *device
	cp.Version = stored.Version + 1
	r.devices[device.UserID] = &cp
	device.Version = cp.Version
	return nil
}

func (r *fakeTOTPRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, device := range r.devices {
		if device.ID == id {
			t := usedAt
			device.LastUsedAt = &t
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (r *fakeTOTPRepo) Deactivate(_ context.Context, userID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[userID]
	if !ok {
		return apperrors.ErrNotFound
	}
	device.IsActive = false
	device.IsConfirmed = false
	device.Version++
	return nil
}

var (
	_ repository.SessionRepository    = (*fakeSessionRepo)(nil)
	_ repository.UserRepository       = (*fakeUserRepo)(nil)
	_ repository.TOTPDeviceRepository = (*fakeTOTPRepo)(nil)
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		RefreshTokenTTL:        7 * 24 * time.Hour,
		RememberMeTTL:          30 * 24 * time.Hour,
		RotateRefreshTokens:    true,
		BlacklistAfterRotation: true,
	}
}

func newTestSessionService(sessions repository.SessionRepository, users *fakeUserRepo, cfg config.SessionConfig) *SessionService {
	codec := jwtutil.NewTokenCodec(testSigningKey, time.Hour)
	hasher := security.NewRefreshTokenHasher(codec.SigningKey())
	return NewSessionService(sessions, users, codec, hasher, cfg, events.NopPublisher{}, zap.NewNop())
}
