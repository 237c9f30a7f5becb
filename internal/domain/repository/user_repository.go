// File: internal/domain/repository/user_repository.go
package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/harmsephillip7/skillsflow-auth/internal/domain/models"
)

// UserRepository reads user accounts. The auth service never writes users;
// account management lives elsewhere.
type UserRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}
