package service

import (
	"context"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

// CampaignListCache is a read-through cache of each merchant's campaign list.
// Entries expire after a fixed TTL and are dropped on every campaign write of the merchant.
type CampaignListCache interface {
	// GetMerchantCampaigns returns the cached list and whether it was present.
	GetMerchantCampaigns(ctx context.Context, merchantID uuid.UUID) ([]*entity.Campaign, bool, error)

	SetMerchantCampaigns(ctx context.Context, merchantID uuid.UUID, campaigns []*entity.Campaign) error

	InvalidateMerchant(ctx context.Context, merchantID uuid.UUID) error
}
