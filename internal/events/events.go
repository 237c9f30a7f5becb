// File: internal/events/events.go
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the auth service.
const (
	TypeUserLoggedIn      = "auth.user.logged_in"
	TypeUserLoggedOut     = "auth.user.logged_out"
	TypeSessionRotated    = "auth.session.rotated"
	TypeSessionRevoked    = "auth.session.revoked"
	TypeTwoFactorEnabled  = "auth.2fa.enabled"
	TypeTwoFactorDisabled = "auth.2fa.disabled"
)

// AuthEvent is the envelope published to the audit stream. Payload carries
// event-specific fields (session id, revoke reason, client info).
type AuthEvent struct {
	ID         uuid.UUID         `json:"id"`
	Type       string            `json:"type"`
	UserID     uuid.UUID         `json:"user_id"`
	OccurredAt time.Time         `json:"occurred_at"`
	Payload    map[string]string `json:"payload,omitempty"`
}

// NewAuthEvent stamps a fresh event envelope.
func NewAuthEvent(eventType string, userID uuid.UUID, payload map[string]string) AuthEvent {
	return AuthEvent{
		ID:         uuid.New(),
		Type:       eventType,
		UserID:     userID,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

// Publisher emits auth events. Publishing is best-effort: implementations
// log failures but callers never fail an auth operation over a lost event.
type Publisher interface {
	Publish(ctx context.Context, event AuthEvent)
	Close() error
}

// NopPublisher discards all events. Used when Kafka is disabled and in tests.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, AuthEvent) {}
func (NopPublisher) Close() error                       { return nil }

var _ Publisher = NopPublisher{}
