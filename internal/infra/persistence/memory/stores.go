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

type storeRepository struct {
	sess *session
}

func copyStore(s *entity.Store) *entity.Store {
	c := *s

	return &c
}

func matchStore(store *entity.Store, filter repository.StoreFilter) bool {
	if filter.MerchantID != nil && store.MerchantID != *filter.MerchantID {
		return false
	}
	if filter.Status != nil && store.Status != *filter.Status {
		return false
	}

	return true
}

func (repo *storeRepository) FindByID(_ context.Context, id uuid.UUID) (*entity.Store, error) {
	var found *entity.Store
	err := repo.sess.do(func(ds *dataset) error {
		store, ok := ds.stores[id]
		if !ok {
			return domainerrors.ErrStoreNotFound
		}
		found = copyStore(store)

		return nil
	})

	return found, err
}

func (repo *storeRepository) List(_ context.Context, filter repository.StoreFilter, page repository.Pagination) ([]*entity.Store, int64, error) {
	var (
		stores []*entity.Store
		total  int64
	)
	err := repo.sess.do(func(ds *dataset) error {
		for _, store := range ds.stores {
			if matchStore(store, filter) {
				stores = append(stores, copyStore(store))
			}
		}
		total = int64(len(stores))
		slices.SortFunc(stores, func(a, b *entity.Store) int {
			return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID.String(), b.ID.String()))
		})
		stores = paginate(stores, page)

		return nil
	})

	return stores, total, err
}

func (repo *storeRepository) Create(_ context.Context, store *entity.Store) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.merchants[store.MerchantID]; !ok {
			return domainerrors.ErrMerchantNotFound
		}

		if store.ID == uuid.Nil {
			store.ID = newID()
		}
		now := repo.sess.now()
		store.CreatedAt, store.UpdatedAt = now, now
		ds.stores[store.ID] = copyStore(store)

		return nil
	})
}

func (repo *storeRepository) Update(_ context.Context, store *entity.Store) error {
	return repo.sess.do(func(ds *dataset) error {
		if _, ok := ds.stores[store.ID]; !ok {
			return domainerrors.ErrStoreNotFound
		}
		store.UpdatedAt = repo.sess.now()
		ds.stores[store.ID] = copyStore(store)

		return nil
	})
}

func (repo *storeRepository) Count(_ context.Context, filter repository.StoreFilter) (int64, error) {
	var count int64
	err := repo.sess.do(func(ds *dataset) error {
		for _, store := range ds.stores {
			if matchStore(store, filter) {
				count++
			}
		}

		return nil
	})

	return count, err
}
