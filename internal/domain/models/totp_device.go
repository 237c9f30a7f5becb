// File: internal/domain/models/totp_device.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// TOTPDevice stores the TOTP configuration for a user (one device per user).
// BackupCodes holds the remaining unused recovery codes, comma-joined;
// consuming a code removes it from the string. Version guards every update
// with optimistic concurrency so two callers cannot both consume the same
// backup code.
type TOTPDevice struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	UserID      uuid.UUID  `json:"user_id" db:"user_id"`
	Secret      string     `json:"-" db:"secret"`
	IsConfirmed bool       `json:"is_confirmed" db:"is_confirmed"`
	IsActive    bool       `json:"is_active" db:"is_active"`
	BackupCodes string     `json:"-" db:"backup_codes"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty" db:"confirmed_at"`
	LastUsedAt  *time.Time `json:"last_used,omitempty" db:"last_used_at"`
	Version     int64      `json:"-" db:"version"`
}

// Enabled reports whether 2FA gates login for this user: the device must be
// both confirmed (possession proven once) and active (not soft-disabled).
func (d *TOTPDevice) Enabled() bool {
	return d.IsActive && d.IsConfirmed
}

// TwoFactorSetup is the payload returned when 2FA setup is initiated.
// Nothing is persisted until the user confirms with a valid code.
type TwoFactorSetup struct {
	Secret          string   `json:"secret"`
	ProvisioningURI string   `json:"provisioning_uri"`
	QRCode          string   `json:"qr_code"`
	BackupCodes     []string `json:"backup_codes"`
}

// TwoFactorStatus is the API shape of a user's 2FA state.
type TwoFactorStatus struct {
	IsEnabled            bool       `json:"is_enabled"`
	BackupCodesRemaining int        `json:"backup_codes_remaining"`
	TotalBackupCodes     int        `json:"total_backup_codes"`
	BackupCodes          []string   `json:"backup_codes"`
	LastUsed             *time.Time `json:"last_used"`
	ConfirmedAt          *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt            *time.Time `json:"created_at,omitempty"`
}
