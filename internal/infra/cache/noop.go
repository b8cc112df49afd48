package cache

import (
	"context"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/service"

	"github.com/google/uuid"
)

// noopCache always misses.
type noopCache struct{}

func NewNoopCache() service.CampaignListCache {
	return noopCache{}
}

func (noopCache) GetMerchantCampaigns(context.Context, uuid.UUID) ([]*entity.Campaign, bool, error) {
	return nil, false, nil
}

func (noopCache) SetMerchantCampaigns(context.Context, uuid.UUID, []*entity.Campaign) error {
	return nil
}

func (noopCache) InvalidateMerchant(context.Context, uuid.UUID) error {
	return nil
}
