package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "loyalty:campaigns:merchant:"

type redisCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache stores each merchant's campaign list as one JSON value.
func NewRedisCache(client *redis.Client, ttl time.Duration, logger *slog.Logger) service.CampaignListCache {
	return &redisCache{client: client, ttl: ttl, logger: logger}
}

func merchantKey(merchantID uuid.UUID) string {
	return keyPrefix + merchantID.String()
}

func (c *redisCache) GetMerchantCampaigns(ctx context.Context, merchantID uuid.UUID) ([]*entity.Campaign, bool, error) {
	val, err := c.client.Get(ctx, merchantKey(merchantID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "failed to read campaign cache")
	}

	var campaigns []*entity.Campaign
	if err := json.Unmarshal(val, &campaigns); err != nil {
		// A value written by an older schema is dropped and treated as a miss.
		c.logger.Warn("Discarding undecodable campaign cache entry", slog.Any("merchant_id", merchantID), slog.Any("error", err))
		_ = c.client.Del(ctx, merchantKey(merchantID)).Err()

		return nil, false, nil
	}

	return campaigns, true, nil
}

func (c *redisCache) SetMerchantCampaigns(ctx context.Context, merchantID uuid.UUID, campaigns []*entity.Campaign) error {
	data, err := json.Marshal(campaigns)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.Wrap(c.client.Set(ctx, merchantKey(merchantID), data, c.ttl).Err(), "failed to write campaign cache")
}

func (c *redisCache) InvalidateMerchant(ctx context.Context, merchantID uuid.UUID) error {
	return errors.Wrap(c.client.Del(ctx, merchantKey(merchantID)).Err(), "failed to invalidate campaign cache")
}
