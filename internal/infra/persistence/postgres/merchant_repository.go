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

// merchantRepository implements the repository.MerchantRepository interface.
type merchantRepository struct {
	db *gorm.DB
}

// NewMerchantRepository is the constructor for merchantRepository.
func NewMerchantRepository(db *gorm.DB) repository.MerchantRepository {
	return &merchantRepository{
		db: db,
	}
}

func (repo *merchantRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Merchant, error) {
	return repo.findOne(ctx, "failed to find merchant by id", "id = ?", id)
}

// FindByUserID retrieves the merchant profile owned by a user account.
func (repo *merchantRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entity.Merchant, error) {
	return repo.findOne(ctx, "failed to find merchant by user", "user_id = ?", userID)
}

func (repo *merchantRepository) findOne(ctx context.Context, details string, query string, args ...any) (*entity.Merchant, error) {
	var merchantM model.MerchantModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&merchantM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrMerchantNotFound
		}

		return nil, translateError(err, details)
	}

	return toMerchantDomain(&merchantM), nil
}

func (repo *merchantRepository) List(ctx context.Context, page repository.Pagination) ([]*entity.Merchant, int64, error) {
	var (
		merchantModels []*model.MerchantModel
		total          int64
	)

	if err := repo.db.WithContext(ctx).Model(&model.MerchantModel{}).Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count merchants")
	}
	if err := paginate(repo.db.WithContext(ctx), page).
		Order("created_at ASC, id ASC").
		Find(&merchantModels).Error; err != nil {
		return nil, 0, translateError(err, "failed to list merchants")
	}

	merchants := make([]*entity.Merchant, 0, len(merchantModels))
	for _, merchantM := range merchantModels {
		merchants = append(merchants, toMerchantDomain(merchantM))
	}

	return merchants, total, nil
}

func (repo *merchantRepository) Create(ctx context.Context, merchant *entity.Merchant) error {
	ensureID(&merchant.ID)
	merchantM := fromMerchantDomain(merchant)

	if err := repo.db.WithContext(ctx).Omit(clause.Associations).Create(merchantM).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrMerchantAlreadyExists
		}
		if isForeignKeyViolation(err) {
			return domainerrors.ErrUserNotFound
		}

		return translateError(err, "failed to create merchant")
	}

	merchant.CreatedAt = merchantM.CreatedAt
	merchant.UpdatedAt = merchantM.UpdatedAt

	return nil
}

func (repo *merchantRepository) Update(ctx context.Context, merchant *entity.Merchant) error {
	result := repo.db.WithContext(ctx).Model(&model.MerchantModel{}).
		Where("id = ?", merchant.ID).
		Updates(map[string]any{
			"business_name":  merchant.BusinessName,
			"contact_person": merchant.ContactPerson,
			"phone":          merchant.Phone,
			"status":         string(merchant.Status),
		})
	if result.Error != nil {
		return translateError(result.Error, "failed to update merchant")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMerchantNotFound
	}

	return nil
}

func (repo *merchantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := repo.db.WithContext(ctx).Model(&model.MerchantModel{}).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count merchants")
	}

	return count, nil
}

// DeleteCascade removes the merchant and what it owns, children first so foreign keys hold at every step.
// It must run inside a transaction to be atomic.
func (repo *merchantRepository) DeleteCascade(ctx context.Context, id uuid.UUID) error {
	db := repo.db.WithContext(ctx)

	var exists int64
	if err := db.Model(&model.MerchantModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return translateError(err, "failed to find merchant")
	}
	if exists == 0 {
		return domainerrors.ErrMerchantNotFound
	}

	stores := db.Model(&model.StoreModel{}).Select("id").Where("merchant_id = ?", id)
	campaigns := db.Model(&model.CampaignModel{}).Select("id").Where("merchant_id = ?", id)

	steps := []struct {
		details string
		run     func() *gorm.DB
	}{
		{"failed to delete merchant check-ins", func() *gorm.DB {
			return db.Where("store_id IN (?) OR campaign_id IN (?)", stores, campaigns).Delete(&model.CheckinModel{})
		}},
		{"failed to delete merchant qr codes", func() *gorm.DB {
			return db.Where("store_id IN (?) OR campaign_id IN (?)", stores, campaigns).Delete(&model.QRCodeModel{})
		}},
		{"failed to delete merchant settings", func() *gorm.DB {
			return db.Where("merchant_id = ? OR store_id IN (?)", id, stores).Delete(&model.SettingModel{})
		}},
		{"failed to delete merchant campaigns", func() *gorm.DB {
			return db.Where("merchant_id = ?", id).Delete(&model.CampaignModel{})
		}},
		{"failed to delete merchant stores", func() *gorm.DB {
			return db.Where("merchant_id = ?", id).Delete(&model.StoreModel{})
		}},
		{"failed to delete merchant", func() *gorm.DB {
			return db.Where("id = ?", id).Delete(&model.MerchantModel{})
		}},
	}
	for _, step := range steps {
		if err := step.run().Error; err != nil {
			return translateError(err, step.details)
		}
	}

	return nil
}

// toMerchantDomain converts a GORM MerchantModel to a domain Merchant entity.
func toMerchantDomain(data *model.MerchantModel) *entity.Merchant {
	if data == nil {
		return nil
	}

	return &entity.Merchant{
		ID:            data.ID,
		UserID:        data.UserID,
		BusinessName:  data.BusinessName,
		ContactPerson: data.ContactPerson,
		Phone:         data.Phone,
		Status:        entity.MerchantStatus(data.Status),
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}

// fromMerchantDomain converts a domain Merchant entity to a GORM MerchantModel.
func fromMerchantDomain(data *entity.Merchant) *model.MerchantModel {
	if data == nil {
		return nil
	}

	status := data.Status
	if status == "" {
		status = entity.MerchantStatusActive
	}

	return &model.MerchantModel{
		ID:            data.ID,
		UserID:        data.UserID,
		BusinessName:  data.BusinessName,
		ContactPerson: data.ContactPerson,
		Phone:         data.Phone,
		Status:        string(status),
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}
}
