// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// UserFilter narrows user lists. Nil fields match everything.
type UserFilter struct {
	Role   *entity.Role
	Status *entity.UserStatus
}

// UserRepository defines the standard operations for user persistence.
type UserRepository interface {
	// FindByID returns ErrUserNotFound when no user has the id.
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	FindByUsername(ctx context.Context, username string) (*entity.User, error)

	FindByEmail(ctx context.Context, email string) (*entity.User, error)

	// List returns one page of users ordered by creation time and the total match count.
	List(ctx context.Context, filter UserFilter, page Pagination) ([]*entity.User, int64, error)

	// Create persists a new user. Username or email collisions return ErrUserAlreadyExists.
	Create(ctx context.Context, user *entity.User) error

	UpdateStatus(ctx context.Context, id uuid.UUID, status entity.UserStatus) error

	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error

	// UpdateEmail changes the login email. An email held by another user returns ErrUserAlreadyExists.
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error

	Count(ctx context.Context, filter UserFilter) (int64, error)
}
