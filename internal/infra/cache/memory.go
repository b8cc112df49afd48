package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/service"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

type memoryEntry struct {
	payload   []byte
	expiresAt time.Time
}

// memoryCache keeps JSON snapshots so cached campaigns never alias caller state.
type memoryCache struct {
	mu      sync.Mutex
	entries map[uuid.UUID]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache returns a process-local cache with an injectable clock.
func NewMemoryCache(ttl time.Duration, now func() time.Time) service.CampaignListCache {
	return &memoryCache{
		entries: make(map[uuid.UUID]memoryEntry),
		ttl:     ttl,
		now:     now,
	}
}

func (c *memoryCache) GetMerchantCampaigns(_ context.Context, merchantID uuid.UUID) ([]*entity.Campaign, bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[merchantID]
	if ok && !c.now().Before(entry.expiresAt) {
		delete(c.entries, merchantID)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return nil, false, nil
	}

	var campaigns []*entity.Campaign
	if err := json.Unmarshal(entry.payload, &campaigns); err != nil {
		return nil, false, errors.WithStack(err)
	}

	return campaigns, true, nil
}

func (c *memoryCache) SetMerchantCampaigns(_ context.Context, merchantID uuid.UUID, campaigns []*entity.Campaign) error {
	payload, err := json.Marshal(campaigns)
	if err != nil {
		return errors.WithStack(err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[merchantID] = memoryEntry{payload: payload, expiresAt: c.now().Add(c.ttl)}

	return nil
}

func (c *memoryCache) InvalidateMerchant(_ context.Context, merchantID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, merchantID)

	return nil
}
