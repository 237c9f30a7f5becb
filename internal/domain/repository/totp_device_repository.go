// File: internal/domain/repository/totp_device_repository.go
package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
)

// TOTPDeviceRepository persists a single TOTP device per user.
type TOTPDeviceRepository interface {
	FindByUserID(ctx context.Context, userID uuid.UUID) (*models.TOTPDevice, error)
	// Upsert inserts the device or, when the user already has one, replaces
	// its secret and backup codes and resets the confirmed state. Returns
	// true when a new row was created.
	Upsert(ctx context.Context, device *models.TOTPDevice) (created bool, err error)
	// UpdateGuarded writes the mutable fields of device with a compare-and-set
	// on its version column; ErrVersionConflict is returned when the stored
	// version no longer matches device.Version. On success device.Version is
	// advanced to the stored value.
	UpdateGuarded(ctx context.Context, device *models.TOTPDevice) error
	UpdateLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error
	Deactivate(ctx context.Context, userID uuid.UUID) error
}
