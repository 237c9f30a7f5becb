// File: internal/infrastructure/database/session_postgres_repository.go
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

const sessionColumns = `id, user_id, refresh_token_hash, created_at, last_used_at, expires_at,
		revoked_at, revoked_reason, ip_address, user_agent, rotated_from`

type pgxSessionRepository struct {
	db *pgxpool.Pool
}

// NewPgxSessionRepository creates a SessionRepository backed by PostgreSQL.
func NewPgxSessionRepository(db *pgxpool.Pool) repository.SessionRepository {
	return &pgxSessionRepository{db: db}
}

func (r *pgxSessionRepository) Create(ctx context.Context, session *models.AuthSession) error {
	query := `
		INSERT INTO auth_sessions (` + sessionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.db.Exec(ctx, query,
		session.ID, session.UserID, session.RefreshTokenHash, session.CreatedAt, session.LastUsedAt,
		session.ExpiresAt, session.RevokedAt, session.RevokedReason, session.IPAddress, session.UserAgent,
		session.RotatedFrom,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *pgxSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.AuthSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE id = $1`
	session, err := scanSession(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session by id: %w", err)
	}
	return session, nil
}

func (r *pgxSessionRepository) FindByTokenHash(ctx context.Context, tokenHash string) (*models.AuthSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE refresh_token_hash = $1`
	session, err := scanSession(r.db.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to find session by token hash: %w", err)
	}
	return session, nil
}

func (r *pgxSessionRepository) FindActiveByUserID(ctx context.Context, userID uuid.UUID) ([]*models.AuthSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM auth_sessions
		WHERE user_id = $1 AND revoked_at IS NULL
		ORDER BY COALESCE(last_used_at, created_at) DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find sessions by user id: %w", err)
	}
	defer rows.Close()

	var sessions []*models.AuthSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sessions: %w", err)
	}
	return sessions, nil
}

func (r *pgxSessionRepository) Touch(ctx context.Context, id uuid.UUID, lastUsedAt time.Time) error {
	query := `UPDATE auth_sessions SET last_used_at = $2 WHERE id = $1 AND revoked_at IS NULL`
	if _, err := r.db.Exec(ctx, query, id, lastUsedAt); err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}
	return nil
}

func (r *pgxSessionRepository) Revoke(ctx context.Context, id uuid.UUID, revokedAt time.Time, reason string) error {
	// revoked_at IS NULL keeps revocation monotonic: the first reason wins.
	query := `
		UPDATE auth_sessions
		SET revoked_at = $2, revoked_reason = $3
		WHERE id = $1 AND revoked_at IS NULL`
	tag, err := r.db.Exec(ctx, query, id, revokedAt, reason)
	if err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrSessionNotFound
	}
	return nil
}

func (r *pgxSessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID, reason string) (int64, error) {
	query := `
		UPDATE auth_sessions
		SET revoked_at = NOW(), revoked_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL`
	tag, err := r.db.Exec(ctx, query, userID, reason)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions for user: %w", err)
	}
	return tag.RowsAffected(), nil
}

// Rotate runs the refresh exchange inside one transaction. The parent row is
// read under FOR UPDATE so concurrent refreshes with the same token serialize
// here: the loser re-reads a row the winner already revoked. When decide
// returns an error together with a RevokeParentReason, the revocation is
// committed before the error is surfaced, so expired and idle sessions get
// cleaned up lazily on first touch.
func (r *pgxSessionRepository) Rotate(ctx context.Context, tokenHash string,
	decide func(parent *models.AuthSession) (models.RotationDecision, error),
) (*models.AuthSession, *models.AuthSession, error) {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin rotation: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + sessionColumns + ` FROM auth_sessions WHERE refresh_token_hash = $1 FOR UPDATE`
	parent, err := scanSession(tx.QueryRow(ctx, query, tokenHash))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, apperrors.ErrSessionNotFound
		}
		return nil, nil, fmt.Errorf("failed to lock session for rotation: %w", err)
	}

	decision, decideErr := decide(parent)

	if decision.Telemetry != nil {
		telemetryQuery := `
			UPDATE auth_sessions
			SET last_used_at = $2,
			    ip_address = COALESCE($3, ip_address),
			    user_agent = COALESCE($4, user_agent)
			WHERE id = $1`
		if _, err := tx.Exec(ctx, telemetryQuery, parent.ID,
			decision.Telemetry.LastUsedAt, decision.Telemetry.IPAddress, decision.Telemetry.UserAgent,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to update session telemetry: %w", err)
		}
	}

	if decision.Child != nil {
		insertQuery := `
			INSERT INTO auth_sessions (` + sessionColumns + `)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
		if _, err := tx.Exec(ctx, insertQuery,
			decision.Child.ID, decision.Child.UserID, decision.Child.RefreshTokenHash,
			decision.Child.CreatedAt, decision.Child.LastUsedAt, decision.Child.ExpiresAt,
			decision.Child.RevokedAt, decision.Child.RevokedReason, decision.Child.IPAddress,
			decision.Child.UserAgent, decision.Child.RotatedFrom,
		); err != nil {
			return nil, nil, fmt.Errorf("failed to insert rotated session: %w", err)
		}
	}

	if decision.RevokeParentReason != "" && parent.RevokedAt == nil {
		revokeQuery := `
			UPDATE auth_sessions
			SET revoked_at = NOW(), revoked_reason = $2
			WHERE id = $1 AND revoked_at IS NULL`
		if _, err := tx.Exec(ctx, revokeQuery, parent.ID, decision.RevokeParentReason); err != nil {
			return nil, nil, fmt.Errorf("failed to revoke rotated session: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit rotation: %w", err)
	}

	if decideErr != nil {
		return parent, nil, decideErr
	}
	return parent, decision.Child, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*models.AuthSession, error) {
	session := &models.AuthSession{}
	err := row.Scan(
		&session.ID, &session.UserID, &session.RefreshTokenHash, &session.CreatedAt, &session.LastUsedAt,
		&session.ExpiresAt, &session.RevokedAt, &session.RevokedReason, &session.IPAddress, &session.UserAgent,
		&session.RotatedFrom,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

var _ repository.SessionRepository = (*pgxSessionRepository)(nil)
