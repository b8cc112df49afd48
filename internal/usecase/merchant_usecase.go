package usecase

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// CreateStoreInput defines a new store. MerchantID is required for admins.
type CreateStoreInput struct {
	MerchantID *uuid.UUID
	Name       string
	Address    string
	Phone      string
}

// UpdateStoreInput is a partial store update.
type UpdateStoreInput struct {
	Name    *string
	Address *string
	Phone   *string
	Status  *entity.StoreStatus
}

// UpdateMerchantInput is a partial merchant profile update. Only admins may change Status.
type UpdateMerchantInput struct {
	BusinessName  *string
	ContactPerson *string
	Phone         *string
	Status        *entity.MerchantStatus
}

// ListStoresInput filters store lists.
type ListStoresInput struct {
	MerchantID *uuid.UUID
	Status     *entity.StoreStatus
	Page       int
	PageSize   int
}

type StoreList struct {
	Stores []*entity.Store
	Total  int64
}

type MerchantList struct {
	Merchants []*entity.Merchant
	Total     int64
}

// MerchantUsecase manages merchants and their stores.
type MerchantUsecase interface {
	GetMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.Merchant, error)
	ListMerchants(ctx context.Context, principal entity.Principal, page, pageSize int) (*MerchantList, error)
	UpdateMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID, input *UpdateMerchantInput) (*entity.Merchant, error)

	// DeleteMerchant removes the merchant with its stores, campaigns, QR codes, settings and check-ins.
	DeleteMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID) error

	CreateStore(ctx context.Context, principal entity.Principal, input *CreateStoreInput) (*entity.Store, error)
	UpdateStore(ctx context.Context, principal entity.Principal, id uuid.UUID, input *UpdateStoreInput) (*entity.Store, error)
	ListStores(ctx context.Context, principal entity.Principal, input *ListStoresInput) (*StoreList, error)
}
