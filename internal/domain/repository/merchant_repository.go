package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// MerchantRepository defines persistence operations for merchant profiles.
type MerchantRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Merchant, error)

	// FindByUserID returns the merchant profile owned by the user.
	FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Merchant, error)

	List(ctx context.Context, page Pagination) ([]*entity.Merchant, int64, error)

	// Create persists a new merchant. A second profile for the same user returns ErrMerchantAlreadyExists.
	Create(ctx context.Context, merchant *entity.Merchant) error

	Update(ctx context.Context, merchant *entity.Merchant) error

	Count(ctx context.Context) (int64, error)

	// DeleteCascade removes the merchant and everything it owns, in dependency order:
	// check-ins at its stores and campaigns, QR codes, settings, campaigns, stores, then the merchant row.
	DeleteCascade(ctx context.Context, id uuid.UUID) error
}
