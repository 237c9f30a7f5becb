// File: internal/handler/http/handler_fakes_test.go
package http

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
)

// In-memory repositories mirroring the Postgres semantics, shared by the
// handler tests.

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.AuthSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*models.AuthSession)}
}

func (r *memSessionRepo) Create(_ context.Context, session *models.AuthSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, apperrors.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

func (r *memSessionRepo) FindByTokenHash(_ context.Context, tokenHash string) (*models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, session := range r.sessions {
		if session.RefreshTokenHash == tokenHash {
			cp := *session
			return &cp, nil
		}
	}
	return nil, apperrors.ErrSessionNotFound
}

func (r *memSessionRepo) FindActiveByUserID(_ context.Context, userID uuid.UUID) ([]*models.AuthSession, error) {
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

func (r *memSessionRepo) Touch(_ context.Context, id uuid.UUID, lastUsedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session, ok := r.sessions[id]; ok && session.RevokedAt == nil {
		t := lastUsedAt
		session.LastUsedAt = &t
	}
	return nil
}

func (r *memSessionRepo) Revoke(_ context.Context, id uuid.UUID, revokedAt time.Time, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok || session.RevokedAt != nil {
		return apperrors.ErrSessionNotFound
	}
	t := revokedAt
	rs := reason
	session.RevokedAt = &t
	session.RevokedReason = &rs
	return nil
}

func (r *memSessionRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID, reason string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	now := time.Now().UTC()
	for _, session := range r.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			t := now
			rs := reason
			session.RevokedAt = &t
			session.RevokedReason = &rs
			count++
		}
	}
	return count, nil
}

func (r *memSessionRepo) Rotate(_ context.Context, tokenHash string,
	decide func(parent *models.AuthSession) (models.RotationDecision, error),
) (*models.AuthSession, *models.AuthSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stored *models.AuthSession
	for _, session := range r.sessions {
		if session.RefreshTokenHash == tokenHash {
			stored = session
			break
		}
	}
	if stored == nil {
		return nil, nil, apperrors.ErrSessionNotFound
	}
	parent := *stored

	decision, decideErr := decide(&parent)

	if decision.Telemetry != nil {
		t := decision.Telemetry.LastUsedAt
		stored.LastUsedAt = &t
	}
	var child *models.AuthSession
	if decision.Child != nil {
		cp := *decision.Child
		r.sessions[cp.ID] = &cp
		childCopy := cp
		child = &childCopy
	}
	if decision.RevokeParentReason != "" && stored.RevokedAt == nil {
		now := time.Now().UTC()
		rs := decision.RevokeParentReason
		stored.RevokedAt = &now
		stored.RevokedReason = &rs
	}

	if decideErr != nil {
		return &parent, nil, decideErr
	}
	return &parent, child, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*models.User
}

func newMemUserRepo(users ...*models.User) *memUserRepo {
	r := &memUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		cp := *u
		r.users[u.ID] = &cp
	}
	return r
}

func (r *memUserRepo) FindByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, apperrors.ErrUserNotFound
	}
	cp := *user
	return &cp, nil
}

func (r *memUserRepo) FindByEmail(_ context.Context, email string) (*models.User, error) {
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

type memTOTPRepo struct {
	mu      sync.Mutex
	devices map[uuid.UUID]*models.TOTPDevice
}

func newMemTOTPRepo() *memTOTPRepo {
	return &memTOTPRepo{devices: make(map[uuid.UUID]*models.TOTPDevice)}
}

func (r *memTOTPRepo) FindByUserID(_ context.Context, userID uuid.UUID) (*models.TOTPDevice, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	device, ok := r.devices[userID]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *device
	return &cp, nil
}

func (r *memTOTPRepo) Upsert(_ context.Context, device *models.TOTPDevice) (bool, error) {
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

func (r *memTOTPRepo) UpdateGuarded(_ context.Context, device *models.TOTPDevice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.devices[device.UserID]
	if !ok || stored.Version != device.Version {
		return apperrors.ErrVersionConflict
	}
	cp := *device
	cp.Version = stored.Version + 1
	r.devices[device.UserID] = &cp
	device.Version = cp.Version
	return nil
}

func (r *memTOTPRepo) UpdateLastUsed(_ context.Context, id uuid.UUID, usedAt time.Time) error {
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

func (r *memTOTPRepo) Deactivate(_ context.Context, userID uuid.UUID) error {
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
	_ repository.SessionRepository    = (*memSessionRepo)(nil)
	_ repository.UserRepository       = (*memUserRepo)(nil)
	_ repository.TOTPDeviceRepository = (*memTOTPRepo)(nil)
)
