// File: internal/service/two_factor_service.go
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/harmsephillip7/skillsflow-auth/internal/config"
	apperrors "github.com/harmsephillip7/skillsflow-auth/internal/domain/errors"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
	"github.com/harmsephillip7/skillsflow-auth/internal/domain/repository"
	"github.com/harmsephillip7/skillsflow-auth/internal/events"
	totputil "github.com/harmsephillip7/skillsflow-auth/internal/utils/totp"
)

var backupCodePattern = regexp.MustCompile(`^[0-9A-Fa-f]{8}$`)

// TwoFactorService manages TOTP devices: setup, login verification, backup
// code consumption, disable, status.
type TwoFactorService struct {
	devices   repository.TOTPDeviceRepository
	cfg       config.MFAConfig
	publisher events.Publisher
	logger    *zap.Logger
}

func NewTwoFactorService(
	devices repository.TOTPDeviceRepository,
	cfg config.MFAConfig,
	publisher events.Publisher,
	logger *zap.Logger,
) *TwoFactorService {
	return &TwoFactorService{
		devices:   devices,
		cfg:       cfg,
		publisher: publisher,
		logger:    logger,
	}
}

// IsEnabled reports whether 2FA currently gates the user's login.
func (s *TwoFactorService) IsEnabled(ctx context.Context, userID uuid.UUID) (bool, *models.TOTPDevice, error) {
	device, err := s.devices.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil, nil
		}
		return false, nil, err
	}
	return device.Enabled(), device, nil
}

// SetupInitiate generates a fresh secret, provisioning URI, QR code and
// backup codes. Nothing is persisted; the client must prove possession via
// SetupConfirm before the device exists server-side.
func (s *TwoFactorService) SetupInitiate(ctx context.Context, user *models.User) (*models.TwoFactorSetup, error) {
	enabled, _, err := s.IsEnabled(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if enabled {
		return nil, apperrors.Err2FAAlreadyEnabled
	}

	secret, err := totputil.GenerateSecret()
	if err != nil {
		return nil, err
	}
	codes, err := totputil.GenerateBackupCodes(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	uri := totputil.ProvisioningURI(secret, user.Email, s.cfg.TOTPIssuerName)
	qr, err := totputil.RenderQRCode(uri)
	if err != nil {
		return nil, err
	}

	return &models.TwoFactorSetup{
		Secret:          secret,
		ProvisioningURI: uri,
		QRCode:          qr,
		BackupCodes:     codes,
	}, nil
}

// SetupConfirm persists the device once the user proves possession of the
// secret with a live code. Backup codes from the initiate step are accepted
// back; when absent or malformed a fresh set is generated. Returns whether a
// new device row was created (false means an unconfirmed leftover was
// replaced).
func (s *TwoFactorService) SetupConfirm(ctx context.Context, user *models.User, secret, code string, backupCodes []string) (bool, []string, error) {
	enabled, _, err := s.IsEnabled(ctx, user.ID)
	if err != nil {
		return false, nil, err
	}
	if enabled {
		return false, nil, apperrors.Err2FAAlreadyEnabled
	}

	if !totputil.VerifyCode(secret, code) {
		return false, nil, apperrors.ErrInvalid2FACode
	}

	codes := normalizeBackupCodes(backupCodes, s.cfg.BackupCodeCount)
	if codes == nil {
		if codes, err = totputil.GenerateBackupCodes(s.cfg.BackupCodeCount); err != nil {
			return false, nil, err
		}
	}

	now := time.Now().UTC()
	device := &models.TOTPDevice{
		ID:          uuid.New(),
		UserID:      user.ID,
		Secret:      secret,
		IsConfirmed: true,
		IsActive:    true,
		BackupCodes: totputil.FormatBackupCodes(codes),
		CreatedAt:   now,
		ConfirmedAt: &now,
	}
	created, err := s.devices.Upsert(ctx, device)
	if err != nil {
		return false, nil, err
	}

	s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeTwoFactorEnabled, user.ID, nil))
	return created, codes, nil
}

// VerifyCode checks a login code for the user: a live TOTP value, or with
// useBackup a single-use recovery code. Backup consumption is guarded by the
// device version so two concurrent presentations of the same code succeed
// exactly once; the loser retries once against fresh state and then fails.
func (s *TwoFactorService) VerifyCode(ctx context.Context, userID uuid.UUID, code string, useBackup bool) error {
	device, err := s.devices.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Err2FANotConfigured
		}
		return err
	}
	if !device.Enabled() {
		return apperrors.Err2FANotEnabled
	}

	if useBackup {
		return s.consumeBackupCode(ctx, device, code)
	}

	if !totputil.VerifyCode(device.Secret, code) {
		return apperrors.ErrInvalid2FACode
	}
	if err := s.devices.UpdateLastUsed(ctx, device.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to record totp use",
			zap.String("user_id", userID.String()), zap.Error(err))
	}
	return nil
}

func (s *TwoFactorService) consumeBackupCode(ctx context.Context, device *models.TOTPDevice, code string) error {
	for attempt := 0; attempt < 2; attempt++ {
		remaining, ok := totputil.ConsumeBackupCode(totputil.ParseBackupCodes(device.BackupCodes), code)
		if !ok {
			return apperrors.ErrInvalidBackupCode
		}

		now := time.Now().UTC()
		device.BackupCodes = totputil.FormatBackupCodes(remaining)
		device.LastUsedAt = &now

		err := s.devices.UpdateGuarded(ctx, device)
		if err == nil {
			return nil
		}
		if !errors.Is(err, apperrors.ErrVersionConflict) {
			return err
		}

		// Another writer touched the device; re-read and re-consume so a
		// code already spent by the winner no longer matches.
		device, err = s.devices.FindByUserID(ctx, device.UserID)
		if err != nil {
			return err
		}
	}
	return apperrors.ErrInvalidBackupCode
}

// Disable turns 2FA off after the user proves control with a live code.
func (s *TwoFactorService) Disable(ctx context.Context, userID uuid.UUID, code string) error {
	device, err := s.devices.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Err2FANotEnabled
		}
		return err
	}
	if !device.Enabled() {
		return apperrors.Err2FANotEnabled
	}
	if !totputil.VerifyCode(device.Secret, code) {
		return apperrors.ErrInvalid2FACode
	}

	if err := s.devices.Deactivate(ctx, userID); err != nil {
		return err
	}
	s.publisher.Publish(ctx, events.NewAuthEvent(events.TypeTwoFactorDisabled, userID, nil))
	return nil
}

// Status reports the user's 2FA state. A user with no device gets a disabled
// status, not an error.
func (s *TwoFactorService) Status(ctx context.Context, userID uuid.UUID) (*models.TwoFactorStatus, error) {
	device, err := s.devices.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return &models.TwoFactorStatus{
				TotalBackupCodes: s.cfg.BackupCodeCount,
				BackupCodes:      []string{},
			}, nil
		}
		return nil, err
	}

	codes := totputil.ParseBackupCodes(device.BackupCodes)
	if codes == nil {
		codes = []string{}
	}
	createdAt := device.CreatedAt
	return &models.TwoFactorStatus{
		IsEnabled:            device.Enabled(),
		BackupCodesRemaining: len(codes),
		TotalBackupCodes:     s.cfg.BackupCodeCount,
		BackupCodes:          codes,
		LastUsed:             device.LastUsedAt,
		ConfirmedAt:          device.ConfirmedAt,
		CreatedAt:            &createdAt,
	}, nil
}

// RegenerateBackupCodes replaces the remaining recovery codes with a fresh
// full set after verifying a live TOTP code.
func (s *TwoFactorService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, code string) ([]string, error) {
	device, err := s.devices.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Err2FANotEnabled
		}
		return nil, err
	}
	if !device.Enabled() {
		return nil, apperrors.Err2FANotEnabled
	}
	if !totputil.VerifyCode(device.Secret, code) {
		return nil, apperrors.ErrInvalid2FACode
	}

	codes, err := totputil.GenerateBackupCodes(s.cfg.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < 2; attempt++ {
		device.BackupCodes = totputil.FormatBackupCodes(codes)
		if err := s.devices.UpdateGuarded(ctx, device); err == nil {
			return codes, nil
		} else if !errors.Is(err, apperrors.ErrVersionConflict) {
			return nil, err
		}
		if device, err = s.devices.FindByUserID(ctx, userID); err != nil {
			return nil, err
		}
	}
	return nil, apperrors.ErrVersionConflict
}

// normalizeBackupCodes validates a client-echoed code set; any deviation
// from the expected shape discards the whole set.
func normalizeBackupCodes(codes []string, expected int) []string {
	if len(codes) == 0 || len(codes) > expected {
		return nil
	}
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if !backupCodePattern.MatchString(c) {
			return nil
		}
		out = append(out, c)
	}
	return out
}
