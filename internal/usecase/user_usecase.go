// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register an account.
// Merchant registrations also carry the merchant profile fields.
type RegisterInput struct {
	Username      string
	Email         string
	Password      string
	Role          entity.Role
	BusinessName  string
	ContactPerson string
	Phone         string
}

// LoginInput defines the data required for a user to log in. Identifier is a username or an email.
type LoginInput struct {
	Identifier string
	Password   string
}

// ListUsersInput filters the admin user list.
type ListUsersInput struct {
	Role     *entity.Role
	Status   *entity.UserStatus
	Page     int
	PageSize int
}

// ChangePasswordInput proves the caller knows the current password.
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// UpdateProfileInput is a partial update of the caller's own account.
type UpdateProfileInput struct {
	Email *string
}

// --- Output DTOs ---

// RegisterOutput returns the newly created account.
type RegisterOutput struct {
	User     *entity.User
	Merchant *entity.Merchant
}

// LoginOutput returns the access token after a successful login.
type LoginOutput struct {
	AccessToken string
	ExpiresAt   time.Time
	User        *entity.User
}

// ProfileOutput is the caller's own account with its merchant profile, if any.
type ProfileOutput struct {
	User     *entity.User
	Merchant *entity.Merchant
}

// UserList is one page of users.
type UserList struct {
	Users []*entity.User
	Total int64
}

// UserUsecase defines the interface for user-related business operations.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type UserUsecase interface {
	Register(ctx context.Context, input *RegisterInput) (*RegisterOutput, error)
	Login(ctx context.Context, input *LoginInput) (*LoginOutput, error)
	GetProfile(ctx context.Context, principal entity.Principal) (*ProfileOutput, error)
	ListUsers(ctx context.Context, principal entity.Principal, input *ListUsersInput) (*UserList, error)
	SetUserStatus(ctx context.Context, principal entity.Principal, userID uuid.UUID, status entity.UserStatus) (*entity.User, error)

	UpdateProfile(ctx context.Context, principal entity.Principal, input *UpdateProfileInput) (*ProfileOutput, error)
	ChangePassword(ctx context.Context, principal entity.Principal, input *ChangePasswordInput) error

	// ResetPassword sets another account's password without knowing the old one. Admin only.
	ResetPassword(ctx context.Context, principal entity.Principal, userID uuid.UUID, newPassword string) error
}
