// File: internal/infrastructure/database/totp_device_postgres_repository.go
package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
)

const totpDeviceColumns = `id, user_id, secret, is_confirmed, is_active, backup_codes,
		created_at, confirmed_at, last_used_at, version`

type pgxTOTPDeviceRepository struct {
	db *pgxpool.Pool
}

// NewPgxTOTPDeviceRepository creates a TOTPDeviceRepository backed by PostgreSQL.
func NewPgxTOTPDeviceRepository(db *pgxpool.Pool) repository.TOTPDeviceRepository {
	return &pgxTOTPDeviceRepository{db: db}
}

func (r *pgxTOTPDeviceRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*models.TOTPDevice, error) {
	query := `SELECT ` + totpDeviceColumns + ` FROM totp_devices WHERE user_id = $1`

	device := &models.TOTPDevice{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&device.ID, &device.UserID, &device.Secret, &device.IsConfirmed, &device.IsActive,
		&device.BackupCodes, &device.CreatedAt, &device.ConfirmedAt, &device.LastUsedAt, &device.Version,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find totp device: %w", err)
	}
	return device, nil
}

func (r *pgxTOTPDeviceRepository) Upsert(ctx context.Context, device *models.TOTPDevice) (bool, error) {
	// Re-running setup replaces the secret and resets confirmation; the
	// version bump invalidates any in-flight guarded update.
	query := `
		INSERT INTO totp_devices (` + totpDeviceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (user_id) DO UPDATE SET
			secret = EXCLUDED.secret,
			is_confirmed = EXCLUDED.is_confirmed,
			is_active = EXCLUDED.is_active,
			backup_codes = EXCLUDED.backup_codes,
			confirmed_at = EXCLUDED.confirmed_at,
			last_used_at = EXCLUDED.last_used_at,
			version = totp_devices.version + 1
		RETURNING (xmax = 0), id, version`

	var created bool
	err := r.db.QueryRow(ctx, query,
		device.ID, device.UserID, device.Secret, device.IsConfirmed, device.IsActive,
		device.BackupCodes, device.CreatedAt, device.ConfirmedAt, device.LastUsedAt, device.Version,
	).Scan(&created, &device.ID, &device.Version)
	if err != nil {
		return false, fmt.Errorf("failed to upsert totp device: %w", err)
	}
	return created, nil
}

// UpdateGuarded writes the device's mutable state with a compare-and-set on
// the version column. Zero rows affected means another writer got there
// first; the caller re-reads and retries.
func (r *pgxTOTPDeviceRepository) UpdateGuarded(ctx context.Context, device *models.TOTPDevice) error {
	query := `
		UPDATE totp_devices
		SET secret = $3,
		    is_confirmed = $4,
		    is_active = $5,
		    backup_codes = $6,
		    confirmed_at = $7,
		    last_used_at = $8,
		    version = version + 1
		WHERE id = $1 AND version = $2`

	tag, err := r.db.Exec(ctx, query,
		device.ID, device.Version, device.Secret, device.IsConfirmed, device.IsActive,
		device.BackupCodes, device.ConfirmedAt, device.LastUsedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update totp device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrVersionConflict
	}
	device.Version++
	return nil
}

func (r *pgxTOTPDeviceRepository) UpdateLastUsed(ctx context.Context, id uuid.UUID, usedAt time.Time) error {
	query := `UPDATE totp_devices SET last_used_at = $2 WHERE id = $1`
	if _, err := r.db.Exec(ctx, query, id, usedAt); err != nil {
		return fmt.Errorf("failed to update totp device last use: %w", err)
	}
	return nil
}

func (r *pgxTOTPDeviceRepository) Deactivate(ctx context.Context, userID uuid.UUID) error {
	query := `
		UPDATE totp_devices
		SET is_active = FALSE, is_confirmed = FALSE, version = version + 1
		WHERE user_id = $1`
	tag, err := r.db.Exec(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate totp device: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

var _ repository.TOTPDeviceRepository = (*pgxTOTPDeviceRepository)(nil)
