// File: internal/domain/models/session.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// Revocation reasons recorded on AuthSession rows. Rotation lineage and
// revocation are audit data; rows are never physically deleted.
const (
	RevokeReasonLogout        = "logout"
	RevokeReasonRotated       = "rotated"
	RevokeReasonExpired       = "expired"
	RevokeReasonIdleTimeout   = "idle_timeout"
	RevokeReasonRevokedByUser = "revoked_by_user"
)

// AuthSession is the server-side backing for a refresh token. Access tokens
// are short-lived JWTs referencing this row via the `sid` claim; the refresh
// token itself is opaque and stored only as RefreshTokenHash.
type AuthSession struct {
	ID               uuid.UUID  `json:"id" db:"id"`
	UserID           uuid.UUID  `json:"user_id" db:"user_id"`
	RefreshTokenHash string     `json:"-" db:"refresh_token_hash"`
	CreatedAt        time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt       *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ExpiresAt        time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt        *time.Time `json:"revoked_at,omitempty" db:"revoked_at"`
	RevokedReason    *string    `json:"revoked_reason,omitempty" db:"revoked_reason"`
	IPAddress        *string    `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent        *string    `json:"user_agent,omitempty" db:"user_agent"`
	RotatedFrom      *uuid.UUID `json:"rotated_from,omitempty" db:"rotated_from"`
}

// IsActive reports whether the session can still be used: not revoked and
// not past its absolute expiry.
func (s *AuthSession) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

// IdleExceeded reports whether the gap since the last use is larger than
// idleTimeout. A zero timeout disables idle logout.
func (s *AuthSession) IdleExceeded(now time.Time, idleTimeout time.Duration) bool {
	if idleTimeout <= 0 || s.LastUsedAt == nil {
		return false
	}
	return now.Sub(*s.LastUsedAt) > idleTimeout
}

// ClientInfo is best-effort request telemetry recorded on sessions. It is
// never security-authoritative.
type ClientInfo struct {
	IPAddress *string
	UserAgent *string
}

// SessionTelemetry is the activity update applied to a session on use.
type SessionTelemetry struct {
	LastUsedAt time.Time
	IPAddress  *string
	UserAgent  *string
}

// RotationDecision is returned by the refresh rotator's validation step and
// applied atomically by the session repository while the parent row is
// locked. A non-empty RevokeParentReason persists even when the decision also
// carries an error (lazy cleanup of expired/idle sessions).
type RotationDecision struct {
	RevokeParentReason string
	Telemetry          *SessionTelemetry
	Child              *AuthSession
}

// SessionResponse is the API shape of a session.
type SessionResponse struct {
	ID         uuid.UUID  `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	LastUsedAt *time.Time `json:"last_used_at"`
	ExpiresAt  time.Time  `json:"expires_at"`
	IPAddress  *string    `json:"ip_address,omitempty"`
	UserAgent  *string    `json:"user_agent,omitempty"`
}

// ToResponse converts a session to its API shape.
func (s *AuthSession) ToResponse() SessionResponse {
	return SessionResponse{
		ID:         s.ID,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
		ExpiresAt:  s.ExpiresAt,
		IPAddress:  s.IPAddress,
		UserAgent:  s.UserAgent,
	}
}
