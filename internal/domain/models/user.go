// File: internal/domain/models/user.go
package models

import "github.com/google/uuid"

// User is the externally-owned identity this core authenticates. The auth
// core reads users, it never creates or mutates them.
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	FullName     string    `json:"name" db:"full_name"`
	PasswordHash string    `json:"-" db:"password_hash"`
	IsActive     bool      `json:"is_active" db:"is_active"`
	IsStaff      bool      `json:"is_staff" db:"is_staff"`
	IsSuperuser  bool      `json:"is_superuser" db:"is_superuser"`
}

// UserResponse is the API shape of a user.
type UserResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Name        string `json:"name"`
	IsStaff     bool   `json:"is_staff"`
	IsSuperuser bool   `json:"is_superuser"`
}

// ToResponse converts a user to its API shape.
func (u *User) ToResponse() UserResponse {
	return UserResponse{
		ID:          u.ID.String(),
		Email:       u.Email,
		Name:        u.FullName,
		IsStaff:     u.IsStaff,
		IsSuperuser: u.IsSuperuser,
	}
}
