package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// StoreFilter narrows store lists. Nil fields match everything.
type StoreFilter struct {
	MerchantID *uuid.UUID
	Status     *entity.StoreStatus
}

// StoreRepository defines persistence operations for stores.
type StoreRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error)

	List(ctx context.Context, filter StoreFilter, page Pagination) ([]*entity.Store, int64, error)

	Create(ctx context.Context, store *entity.Store) error

	Update(ctx context.Context, store *entity.Store) error

	Count(ctx context.Context, filter StoreFilter) (int64, error)
}
