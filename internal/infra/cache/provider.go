// Package cache provides implementations of the campaign list read-through cache.
package cache

import (
	"context"
	"log/slog"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/constants"
	"loyalty/internal/domain/service"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"
)

const defaultTTL = 5 * time.Minute

// Params holds dependencies for the campaign list cache, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// NewCampaignListCache selects the cache backend from cache.driver.
func NewCampaignListCache(params Params) (service.CampaignListCache, error) {
	cfg := params.Config.Cache
	logger := params.Logger

	if cfg == nil || cfg.Driver == "" || cfg.Driver == constants.CacheDriverNone {
		logger.Info("Campaign list cache disabled")

		return NewNoopCache(), nil
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = defaultTTL
	}

	switch cfg.Driver {
	case constants.CacheDriverMemory:
		logger.Info("Using in-process campaign list cache", slog.Duration("ttl", ttl))

		return NewMemoryCache(ttl, time.Now), nil

	case constants.CacheDriverRedis:
		if cfg.Redis.Addr == "" {
			return nil, errors.New("redis address is required for redis cache driver")
		}

		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})

		params.Lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				if err := client.Ping(ctx).Err(); err != nil {
					return errors.Wrap(err, "redis connection failed")
				}
				logger.Info("Using redis campaign list cache", slog.String("addr", cfg.Redis.Addr), slog.Duration("ttl", ttl))

				return nil
			},
			OnStop: func(ctx context.Context) error {
				logger.Info("Closing redis client")

				return client.Close()
			},
		})

		return NewRedisCache(client, ttl, logger), nil

	default:
		return nil, errors.Errorf("unknown cache driver: %s", cfg.Driver)
	}
}

// Module provides the cache FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewCampaignListCache),
)
