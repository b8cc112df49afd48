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

type settingRepository struct {
	sess *session
}

func cloneSetting(s *entity.Setting) *entity.Setting {
	out := *s
	if s.StoreID != nil {
		storeID := *s.StoreID
		out.StoreID = &storeID
	}
	if s.MerchantID != nil {
		merchantID := *s.MerchantID
		out.MerchantID = &merchantID
	}

	return &out
}

func sameScope(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	return *a == *b
}

func (repo *settingRepository) List(_ context.Context, filter repository.SettingFilter) ([]*entity.Setting, error) {
	var settings []*entity.Setting
	err := repo.sess.do(func(ds *dataset) error {
		for _, setting := range ds.settings {
			if filter.Key != nil && setting.Key != *filter.Key {
				continue
			}
			if filter.MerchantID != nil && !sameScope(setting.MerchantID, filter.MerchantID) {
				continue
			}
			if filter.StoreID != nil && !sameScope(setting.StoreID, filter.StoreID) {
				continue
			}
			settings = append(settings, cloneSetting(setting))
		}
		slices.SortFunc(settings, func(a, b *entity.Setting) int {
			return cmp.Or(strings.Compare(a.Key, b.Key), strings.Compare(a.ID.String(), b.ID.String()))
		})

		return nil
	})

	return settings, err
}

func (repo *settingRepository) Upsert(_ context.Context, setting *entity.Setting) error {
	return repo.sess.do(func(ds *dataset) error {
		now := repo.sess.now()
		for id, existing := range ds.settings {
			if existing.Key != setting.Key || !sameScope(existing.MerchantID, setting.MerchantID) || !sameScope(existing.StoreID, setting.StoreID) {
				continue
			}
			setting.ID = id
			setting.CreatedAt = existing.CreatedAt
			setting.UpdatedAt = now
			ds.settings[id] = cloneSetting(setting)

			return nil
		}

		if setting.ID == uuid.Nil {
			setting.ID = newID()
		}
		setting.CreatedAt, setting.UpdatedAt = now, now
		ds.settings[setting.ID] = cloneSetting(setting)

		return nil
	})
}

func (repo *settingRepository) Delete(_ context.Context, id uuid.UUID) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.settings[id]; !ok {
			return domainerrors.ErrSettingNotFound
		}
		delete(ds.settings, id)

		return nil
	})
}
