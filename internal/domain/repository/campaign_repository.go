package repository

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// CampaignFilter narrows campaign lists. Nil fields match everything.
type CampaignFilter struct {
	MerchantID *uuid.UUID
	StoreID    *uuid.UUID
	Status     *entity.CampaignStatus
	Type       *entity.CampaignType
}

// CampaignRepository defines persistence operations for campaigns.
type CampaignRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)

	// FindByIDForUpdate locks the row until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Campaign, error)

	// List returns one page ordered by creation time, newest first, and the total match count.
	List(ctx context.Context, filter CampaignFilter, page Pagination) ([]*entity.Campaign, int64, error)

	Create(ctx context.Context, campaign *entity.Campaign) error

	// Update saves every mutable column of the campaign.
	Update(ctx context.Context, campaign *entity.Campaign) error

	Delete(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context, filter CampaignFilter) (int64, error)
}
