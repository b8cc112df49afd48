package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

type merchantRepository struct {
	sess *session
}

func copyMerchant(m *entity.Merchant) *entity.Merchant {
	c := *m

	return &c
}

func (repo *merchantRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Merchant, error) {
	var found *entity.Merchant
	err := repo.sess.do(func(ds *dataset) error {
		merchant, ok := ds.merchants[id]
		if !ok {
			return domainerrors.ErrMerchantNotFound
		}
		found = copyMerchant(merchant)

		return nil
	})

	return found, err
}

func (repo *merchantRepository) FindByUserID(_ context.Context, userID uuid.UUID) (*entity.Merchant, error) {
	var found *entity.Merchant
	err := repo.sess.do(func(ds *dataset) error {
		for _, merchant := range ds.merchants {
			if merchant.UserID == userID {
				found = copyMerchant(merchant)

				return nil
			}
		}

		return domainerrors.ErrMerchantNotFound
	})

	return found, err
}

func (repo *merchantRepository) List(_ context.Context, page repository.Pagination) ([]*entity.Merchant, int64, error) {
	var (
		merchants []*entity.Merchant
		total     int64
	)
	err := repo.sess.do(func(ds *dataset) error {
		for _, merchant := range ds.merchants {
			merchants = append(merchants, copyMerchant(merchant))
		}
		total = int64(len(merchants))
		slices.SortFunc(merchants, func(a, b *entity.Merchant) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		merchants = paginate(merchants, page)

		return nil
	})

	return merchants, total, err
}

func (repo *merchantRepository) Create(_ context.Context, merchant *entity.Merchant) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.users[merchant.UserID]; !ok {
			return domainerrors.ErrUserNotFound
		}
		for _, existing := range ds.merchants {
			if existing.UserID == merchant.UserID {
				return domainerrors.ErrMerchantAlreadyExists
			}
		}

		if merchant.ID == uuid.Nil {
			merchant.ID = newID()
		}
		now := repo.sess.now()
		merchant.CreatedAt, merchant.UpdatedAt = now, now
		ds.merchants[merchant.ID] = copyMerchant(merchant)

		return nil
	})
}

func (repo *merchantRepository) Update(_ context.Context, merchant *entity.Merchant) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.merchants[merchant.ID]; !ok {
			return domainerrors.ErrMerchantNotFound
		}
		merchant.UpdatedAt = repo.sess.now()
		ds.merchants[merchant.ID] = copyMerchant(merchant)

		return nil
	})
}

func (repo *merchantRepository) Count(_ context.Context) (int64, error) {
	var count int64
	err := repo.sess.do(func(ds *dataset) error {
		count = int64(len(ds.merchants))

		return nil
	})

	return count, err
}

func (repo *merchantRepository) DeleteCascade(_ context.Context, id uuid.UUID) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.merchants[id]; !ok {
			return domainerrors.ErrMerchantNotFound
		}

		storeIDs := make(map[uuid.UUID]struct{})
		for storeID, store := range ds.stores {
			if store.MerchantID == id {
				storeIDs[storeID] = struct{}{}
			}
		}
		campaignIDs := make(map[uuid.UUID]struct{})
		for campaignID, campaign := range ds.campaigns {
			if campaign.MerchantID == id {
				campaignIDs[campaignID] = struct{}{}
			}
		}

		for checkinID, checkin := range ds.checkins {
			_, atStore := storeIDs[checkin.StoreID]
			inCampaign := false
			if checkin.CampaignID != nil {
				_, inCampaign = campaignIDs[*checkin.CampaignID]
			}
			if atStore || inCampaign {
				delete(ds.checkins, checkinID)
			}
		}
		for qrID, qr := range ds.qrCodes {
			if _, ok := storeIDs[qr.StoreID]; ok {
				delete(ds.qrCodes, qrID)
			}
		}
		for settingID, setting := range ds.settings {
			if setting.MerchantID != nil && *setting.MerchantID == id {
				delete(ds.settings, settingID)

				continue
			}
			if setting.StoreID != nil {
				if _, ok := storeIDs[*setting.StoreID]; ok {
					delete(ds.settings, settingID)
				}
			}
		}
		for campaignID := range campaignIDs {
			delete(ds.campaigns, campaignID)
		}
		for storeID := range storeIDs {
			delete(ds.stores, storeID)
		}
		delete(ds.merchants, id)

		return nil
	})
}
