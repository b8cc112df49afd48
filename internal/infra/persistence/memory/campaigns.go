package memory

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

type campaignRepository struct {
	sess *session
}

// cloneCampaign deep-copies every reference field so callers never alias stored state.
func cloneCampaign(c *entity.Campaign) *entity.Campaign {
	out := *c
	if c.StoreID != nil {
		storeID := *c.StoreID
		out.StoreID = &storeID
	}
	if c.Rules.PointsPerCheckin != nil {
		points := *c.Rules.PointsPerCheckin
		out.Rules.PointsPerCheckin = &points
	}
	out.Rewards.Items = slices.Clone(c.Rewards.Items)
	if c.TargetAudience != nil {
		audience := *c.TargetAudience
		audience.Tags = slices.Clone(c.TargetAudience.Tags)
		out.TargetAudience = &audience
	}
	if c.Budget != nil {
		budget := *c.Budget
		out.Budget = &budget
	}
	if c.Metrics != nil {
		metrics := *c.Metrics
		metrics.CheckinsByDate = maps.Clone(c.Metrics.CheckinsByDate)
		out.Metrics = &metrics
	}

	return &out
}

func matchCampaign(campaign *entity.Campaign, filter repository.CampaignFilter) bool {
	if filter.MerchantID != nil && campaign.MerchantID != *filter.MerchantID {
		return false
	}
	if filter.StoreID != nil && (campaign.StoreID == nil || *campaign.StoreID != *filter.StoreID) {
		return false
	}
	if filter.Status != nil && campaign.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && campaign.Type != *filter.Type {
		return false
	}

	return true
}

func (repo *campaignRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Campaign, error) {
	var found *entity.Campaign
	err := repo.sess.do(func(ds *dataset) error {
		campaign, ok := ds.campaigns[id]
		if !ok {
			return domainerrors.ErrCampaignNotFound
		}
		found = cloneCampaign(campaign)

		return nil
	})

	return found, err
}

// FindByIDForUpdate needs no extra locking here: transactions already hold the store lock.
func (repo *campaignRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	return repo.FindByID(ctx, id)
}

func (repo *campaignRepository) List(_ context.Context, filter repository.CampaignFilter, page repository.Pagination) ([]*entity.Campaign, int64, error) {
	var (
		campaigns []*entity.Campaign
		total     int64
	)
	err := repo.sess.do(func(ds *dataset) error {
		for _, campaign := range ds.campaigns {
			if matchCampaign(campaign, filter) {
				campaigns = append(campaigns, cloneCampaign(campaign))
			}
		}
		total = int64(len(campaigns))
		slices.SortFunc(campaigns, func(a, b *entity.Campaign) int {
			return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID.String(), a.ID.String()))
		})
		campaigns = paginate(campaigns, page)

		return nil
	})

	return campaigns, total, err
}

func (repo *campaignRepository) Create(_ context.Context, campaign *entity.Campaign) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.merchants[campaign.MerchantID]; !ok {
			return domainerrors.ErrMerchantNotFound
		}
		if campaign.StoreID != nil {
			if _, ok := ds.stores[*campaign.StoreID]; !ok {
				return domainerrors.ErrStoreNotFound
			}
		}

		if campaign.ID == uuid.Nil {
			campaign.ID = newID()
		}
		now := repo.sess.now()
		campaign.CreatedAt, campaign.UpdatedAt = now, now
		ds.campaigns[campaign.ID] = cloneCampaign(campaign)

		return nil
	})
}

func (repo *campaignRepository) Update(_ context.Context, campaign *entity.Campaign) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.campaigns[campaign.ID]; !ok {
			return domainerrors.ErrCampaignNotFound
		}
		campaign.UpdatedAt = repo.sess.now()
		ds.campaigns[campaign.ID] = cloneCampaign(campaign)

		return nil
	})
}

func (repo *campaignRepository) Delete(_ context.Context, id uuid.UUID) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.campaigns[id]; !ok {
			return domainerrors.ErrCampaignNotFound
		}
		delete(ds.campaigns, id)

		return nil
	})
}

func (repo *campaignRepository) Count(_ context.Context, filter repository.CampaignFilter) (int64, error) {
	var count int64
	err := repo.sess.do(func(ds *dataset) error {
		for _, campaign := range ds.campaigns {
			if matchCampaign(campaign, filter) {
				count++
			}
		}

		return nil
	})

	return count, err
}
