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
)

// settingRepository implements the repository.SettingRepository interface.
type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository is the constructor for settingRepository.
func NewSettingRepository(db *gorm.DB) repository.SettingRepository {
	return &settingRepository{
		db: db,
	}
}

func (repo *settingRepository) List(ctx context.Context, filter repository.SettingFilter) ([]*entity.Setting, error) {
	query := repo.db.WithContext(ctx).Model(&model.SettingModel{})
	if filter.Key != nil {
		query = query.Where("key = ?", *filter.Key)
	}
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}

	var settingModels []*model.SettingModel
	if err := query.Order("key ASC, id ASC").Find(&settingModels).Error; err != nil {
		return nil, translateError(err, "failed to list settings")
	}

	settings := make([]*entity.Setting, 0, len(settingModels))
	for _, settingM := range settingModels {
		settings = append(settings, toSettingDomain(settingM))
	}

	return settings, nil
}

// Upsert replaces the entry with the same key and scope, or inserts a new one.
// A concurrent insert of the same entry trips the scope index and is reported as transient,
// so the transaction manager re-runs the unit and takes the update path.
func (repo *settingRepository) Upsert(ctx context.Context, setting *entity.Setting) error {
	db := repo.db.WithContext(ctx)

	var existing model.SettingModel
	lookup := scoped(db.Where("key = ?", setting.Key), "merchant_id", setting.MerchantID)
	err := scoped(lookup, "store_id", setting.StoreID).First(&existing).Error
	switch {
	case err == nil:
		result := db.Model(&model.SettingModel{}).Where("id = ?", existing.ID).Updates(map[string]any{
			"value":       setting.Value,
			"type":        string(setting.Type),
			"description": setting.Description,
			"updated_by":  setting.UpdatedBy,
		})
		if result.Error != nil {
			return translateError(result.Error, "failed to update setting")
		}
		setting.ID = existing.ID
		setting.CreatedAt = existing.CreatedAt

		return nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return translateError(err, "failed to find setting")
	}

	ensureID(&setting.ID)
	settingM := fromSettingDomain(setting)
	if err := db.Create(settingM).Error; err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == uniqueSettingScopeIndex {
			return domainerrors.NewTransientDatabaseError(err, "setting created concurrently")
		}

		return translateError(err, "failed to create setting")
	}
	setting.CreatedAt = settingM.CreatedAt
	setting.UpdatedAt = settingM.UpdatedAt

	return nil
}

func (repo *settingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.SettingModel{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete setting")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrSettingNotFound
	}

	return nil
}

// scoped matches a nullable scope column exactly: a nil id means the column IS NULL.
func scoped(query *gorm.DB, column string, id *uuid.UUID) *gorm.DB {
	if id == nil {
		return query.Where(column + " IS NULL")
	}

	return query.Where(column+" = ?", *id)
}

func toSettingDomain(data *model.SettingModel) *entity.Setting {
	return &entity.Setting{
		ID:          data.ID,
		Key:         data.Key,
		Value:       data.Value,
		Type:        entity.SettingType(data.Type),
		Description: data.Description,
		StoreID:     data.StoreID,
		MerchantID:  data.MerchantID,
		UpdatedBy:   data.UpdatedBy,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromSettingDomain(data *entity.Setting) *model.SettingModel {
	return &model.SettingModel{
		ID:          data.ID,
		Key:         data.Key,
		Value:       data.Value,
		Type:        string(data.Type),
		Description: data.Description,
		StoreID:     data.StoreID,
		MerchantID:  data.MerchantID,
		UpdatedBy:   data.UpdatedBy,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}
