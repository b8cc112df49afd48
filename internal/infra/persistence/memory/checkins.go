package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

type checkinRepository struct {
	sess *session
}

func cloneCheckin(c *entity.Checkin) *entity.Checkin {
	out := *c
	if c.CampaignID != nil {
		campaignID := *c.CampaignID
		out.CampaignID = &campaignID
	}
	if c.QRCodeID != nil {
		qrCodeID := *c.QRCodeID
		out.QRCodeID = &qrCodeID
	}
	if c.Location != nil {
		point := *c.Location
		out.Location = &point
	}

	return &out
}

func matchCheckin(checkin *entity.Checkin, filter repository.CheckinFilter) bool {
	switch {
	case filter.UserID != nil && checkin.UserID != *filter.UserID:
		return false
	case filter.StoreID != nil && checkin.StoreID != *filter.StoreID:
		return false
	case filter.CampaignID != nil && (checkin.CampaignID == nil || *checkin.CampaignID != *filter.CampaignID):
		return false
	case filter.Status != nil && checkin.Status != *filter.Status:
		return false
	case filter.From != nil && checkin.CheckinTime.Before(*filter.From):
		return false
	case filter.To != nil && !checkin.CheckinTime.Before(*filter.To):
		return false
	}

	return true
}

func newestFirst(a, b *entity.Checkin) int {
	return cmp.Or(b.CheckinTime.Compare(a.CheckinTime), strings.Compare(b.ID.String(), a.ID.String()))
}

func (repo *checkinRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Checkin, error) {
	var found *entity.Checkin
	err := repo.sess.do(func(ds *dataset) error {
		checkin, ok := ds.checkins[id]
		if !ok {
			return domainerrors.ErrCheckinNotFound
		}
		found = cloneCheckin(checkin)

		return nil
	})

	return found, err
}

func (repo *checkinRepository) ExistsValidInWindow(_ context.Context, userID, storeID uuid.UUID, from, to time.Time) (bool, error) {
	var exists bool
	err := repo.sess.do(func(ds *dataset) error {
		for _, checkin := range ds.checkins {
			if checkin.UserID != userID || checkin.StoreID != storeID || checkin.Status != entity.CheckinStatusValid {
				continue
			}
			if !checkin.CheckinTime.Before(from) && checkin.CheckinTime.Before(to) {
				exists = true

				return nil
			}
		}

		return nil
	})

	return exists, err
}

func (repo *checkinRepository) ListHistory(_ context.Context, userID, storeID uuid.UUID) ([]*entity.Checkin, error) {
	var history []*entity.Checkin
	err := repo.sess.do(func(ds *dataset) error {
		for _, checkin := range ds.checkins {
			if checkin.UserID == userID && checkin.StoreID == storeID {
				history = append(history, cloneCheckin(checkin))
			}
		}
		slices.SortFunc(history, func(a, b *entity.Checkin) int { return newestFirst(b, a) })

		return nil
	})

	return history, err
}

func (repo *checkinRepository) List(_ context.Context, filter repository.CheckinFilter, page repository.Pagination) ([]*entity.Checkin, int64, error) {
	var (
		checkins []*entity.Checkin
		total    int64
	)
	err := repo.sess.do(func(ds *dataset) error {
		for _, checkin := range ds.checkins {
			if matchCheckin(checkin, filter) {
				checkins = append(checkins, cloneCheckin(checkin))
			}
		}
		total = int64(len(checkins))
		slices.SortFunc(checkins, newestFirst)
		checkins = paginate(checkins, page)

		return nil
	})

	return checkins, total, err
}

// Create mirrors the partial unique index on (user_id, store_id, checkin_date) for valid rows.
func (repo *checkinRepository) Create(_ context.Context, checkin *entity.Checkin) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.users[checkin.UserID]; !ok {
			return domainerrors.ErrUserNotFound
		}
		if _, ok := ds.stores[checkin.StoreID]; !ok {
			return domainerrors.ErrStoreNotFound
		}
		if checkin.Status == entity.CheckinStatusValid && hasValidCheckin(ds, checkin.UserID, checkin.StoreID, checkin.CheckinDate, uuid.Nil) {
			return domainerrors.ErrDuplicateCheckin
		}

		if checkin.ID == uuid.Nil {
			checkin.ID = newID()
		}
		now := repo.sess.now()
		checkin.CreatedAt, checkin.UpdatedAt = now, now
		ds.checkins[checkin.ID] = cloneCheckin(checkin)

		return nil
	})
}

func (repo *checkinRepository) UpdateCorrection(_ context.Context, checkin *entity.Checkin) error {
	return repo.sess.do(func(ds *dataset) error {
		stored, ok := ds.checkins[checkin.ID]
		if !ok {
			return domainerrors.ErrCheckinNotFound
		}
		if checkin.Status == entity.CheckinStatusValid && hasValidCheckin(ds, stored.UserID, stored.StoreID, stored.CheckinDate, stored.ID) {
			return domainerrors.ErrDuplicateCheckin
		}

		updated := cloneCheckin(stored)
		updated.Status = checkin.Status
		updated.PointsEarned = checkin.PointsEarned
		updated.UpdatedAt = repo.sess.now()
		ds.checkins[checkin.ID] = updated
		checkin.UpdatedAt = updated.UpdatedAt

		return nil
	})
}

func (repo *checkinRepository) Count(_ context.Context, filter repository.CheckinFilter) (int64, error) {
	var count int64
	err := repo.sess.do(func(ds *dataset) error {
		for _, checkin := range ds.checkins {
			if matchCheckin(checkin, filter) {
				count++
			}
		}

		return nil
	})

	return count, err
}

func hasValidCheckin(ds *dataset, userID, storeID uuid.UUID, day string, except uuid.UUID) bool {
	for id, existing := range ds.checkins {
		if id == except || existing.Status != entity.CheckinStatusValid {
			continue
		}
		if existing.UserID == userID && existing.StoreID == storeID && existing.CheckinDate == day {
			return true
		}
	}

	return false
}
