package postgres

import (
	"context"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// storeRepository implements the repository.StoreRepository interface.
type storeRepository struct {
	db *gorm.DB
}

// NewStoreRepository is the constructor for storeRepository.
func NewStoreRepository(db *gorm.DB) repository.StoreRepository {
	return &storeRepository{
		db: db,
	}
}

func (repo *storeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Store, error) {
	var storeM model.StoreModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&storeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrStoreNotFound
		}

		return nil, translateError(err, "failed to find store by id")
	}

	return toStoreDomain(&storeM), nil
}

func (repo *storeRepository) List(ctx context.Context, filter repository.StoreFilter, page repository.Pagination) ([]*entity.Store, int64, error) {
	var (
		storeModels []*model.StoreModel
		total       int64
	)

	query := repo.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count stores")
	}
	if err := paginate(query, page).Order("created_at ASC, id ASC").Find(&storeModels).Error; err != nil {
		return nil, 0, translateError(err, "failed to list stores")
	}

	stores := make([]*entity.Store, 0, len(storeModels))
	for _, storeM := range storeModels {
		stores = append(stores, toStoreDomain(storeM))
	}

	return stores, total, nil
}

func (repo *storeRepository) Create(ctx context.Context, store *entity.Store) error {
	ensureID(&store.ID)
	storeM := fromStoreDomain(store)

	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(storeM).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domainerrors.ErrMerchantNotFound
		}

		return translateError(err, "failed to create store")
	}

	store.CreatedAt = storeM.CreatedAt
	store.UpdatedAt = storeM.UpdatedAt

	return nil
}

// Update saves the editable columns. The owning merchant never changes.
func (repo *storeRepository) Update(ctx context.Context, store *entity.Store) error {
	result := repo.db.WithContext(ctx).Model(&model.StoreModel{}).
		Where("id = ?", store.ID).
		Updates(map[string]any{
			"name":    store.Name,
			"address": store.Address,
			"phone":   store.Phone,
			"status":  string(store.Status),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update store")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStoreNotFound
	}

	return nil
}

func (repo *storeRepository) Count(ctx context.Context, filter repository.StoreFilter) (int64, error) {
	var count int64
	if err := repo.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count stores")
	}

	return count, nil
}

func (repo *storeRepository) filtered(ctx context.Context, filter repository.StoreFilter) *gorm.DB {
	query := repo.db.WithContext(ctx).Model(&model.StoreModel{})
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	return query.Session(&gorm.Session{})
}

func toStoreDomain(data *model.StoreModel) *entity.Store {
	if data == nil {
		return nil
	}

	return &entity.Store{
		ID:         data.ID,
		MerchantID: data.MerchantID,
		Name:       data.Name,
		Address:    data.Address,
		Phone:      data.Phone,
		Status:     entity.StoreStatus(data.Status),
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}

func fromStoreDomain(data *entity.Store) *model.StoreModel {
	if data == nil {
		return nil
	}

	status := data.Status
	if status == "" {
		status = entity.StoreStatusActive
	}

	return &model.StoreModel{
		ID:         data.ID,
		MerchantID: data.MerchantID,
		Name:       data.Name,
		Address:    data.Address,
		Phone:      data.Phone,
		Status:     string(status),
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
}
