package postgres

import (
	"context"
	"encoding/json"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// campaignMutableColumns are rewritten by Update. Ownership and creation data stay fixed.
var campaignMutableColumns = []string{
	"name", "description", "type", "start_date", "end_date", "timezone", "status",
	"rules", "rewards", "target_audience", "budget", "spent", "metrics", "updated_at",
}

// campaignRepository implements the repository.CampaignRepository interface.
type campaignRepository struct {
	db *gorm.DB
}

// NewCampaignRepository is the constructor for campaignRepository.
func NewCampaignRepository(db *gorm.DB) repository.CampaignRepository {
	return &campaignRepository{
		db: db,
	}
}

func (repo *campaignRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	return repo.find(repo.db.WithContext(ctx), id)
}

// FindByIDForUpdate takes a row lock (SELECT ... FOR UPDATE) so concurrent check-ins serialize on the campaign.
func (repo *campaignRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Campaign, error) {
	return repo.find(repo.db.WithContext(ctx).Clauses(clause.Locking{Strength: clause.LockingStrengthUpdate}), id)
}

func (repo *campaignRepository) find(db *gorm.DB, id uuid.UUID) (*entity.Campaign, error) {
	var campaignM model.CampaignModel
	if err := db.Where("id = ?", id).First(&campaignM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrCampaignNotFound
		}

		return nil, translateError(err, "failed to find campaign by id")
	}

	return toCampaignDomain(&campaignM)
}

func (repo *campaignRepository) List(ctx context.Context, filter repository.CampaignFilter, page repository.Pagination) ([]*entity.Campaign, int64, error) {
	var (
		campaignModels []*model.CampaignModel
		total          int64
	)

	query := repo.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count campaigns")
	}
	if err := paginate(query, page).Order("created_at DESC, id DESC").Find(&campaignModels).Error; err != nil {
		return nil, 0, translateError(err, "failed to list campaigns")
	}

	campaigns := make([]*entity.Campaign, 0, len(campaignModels))
	for _, campaignM := range campaignModels {
		campaign, err := toCampaignDomain(campaignM)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, campaign)
	}

	return campaigns, total, nil
}

func (repo *campaignRepository) Create(ctx context.Context, campaign *entity.Campaign) error {
	ensureID(&campaign.ID)
	campaignM, err := fromCampaignDomain(campaign)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(campaignM).Error; err != nil {
		if isForeignKeyViolation(err) {
			return domainerrors.ErrMerchantNotFound
		}

		return translateError(err, "failed to create campaign")
	}

	campaign.CreatedAt = campaignM.CreatedAt
	campaign.UpdatedAt = campaignM.UpdatedAt

	return nil
}

func (repo *campaignRepository) Update(ctx context.Context, campaign *entity.Campaign) error {
	campaignM, err := fromCampaignDomain(campaign)
	if err != nil {
		return err
	}

	result := repo.db.WithContext(ctx).Model(&model.CampaignModel{}).
		Where("id = ?", campaign.ID).
		Select(campaignMutableColumns).
		Updates(campaignM)
	if result.Error != nil {
		return translateError(result.Error, "failed to update campaign")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}
	campaign.UpdatedAt = campaignM.UpdatedAt

	return nil
}

func (repo *campaignRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CampaignModel{})
	if result.Error != nil {
		return translateError(result.Error, "failed to delete campaign")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCampaignNotFound
	}

	return nil
}

func (repo *campaignRepository) Count(ctx context.Context, filter repository.CampaignFilter) (int64, error) {
	var count int64
	if err := repo.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count campaigns")
	}

	return count, nil
}

func (repo *campaignRepository) filtered(ctx context.Context, filter repository.CampaignFilter) *gorm.DB {
	query := repo.db.WithContext(ctx).Model(&model.CampaignModel{})
	if filter.MerchantID != nil {
		query = query.Where("merchant_id = ?", *filter.MerchantID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.Type != nil {
		query = query.Where("type = ?", string(*filter.Type))
	}

	return query.Session(&gorm.Session{})
}

func toCampaignDomain(data *model.CampaignModel) (*entity.Campaign, error) {
	campaign := &entity.Campaign{
		ID:          data.ID,
		MerchantID:  data.MerchantID,
		StoreID:     data.StoreID,
		CreatedBy:   data.CreatedBy,
		Name:        data.Name,
		Description: data.Description,
		Type:        entity.CampaignType(data.Type),
		StartDate:   data.StartDate,
		EndDate:     data.EndDate,
		Timezone:    data.Timezone,
		Status:      entity.CampaignStatus(data.Status),
		Rules:       data.Rules.Data(),
		Rewards:     data.Rewards.Data(),
		Spent:       data.Spent,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
	if data.Budget.Valid {
		budget := data.Budget.Decimal
		campaign.Budget = &budget
	}
	if len(data.TargetAudience) > 0 {
		campaign.TargetAudience = &entity.TargetAudience{}
		if err := json.Unmarshal(data.TargetAudience, campaign.TargetAudience); err != nil {
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode campaign target audience")
		}
	}
	if len(data.Metrics) > 0 {
		campaign.Metrics = &entity.CampaignMetrics{}
		if err := json.Unmarshal(data.Metrics, campaign.Metrics); err != nil {
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode campaign metrics")
		}
	}

	return campaign, nil
}

func fromCampaignDomain(data *entity.Campaign) (*model.CampaignModel, error) {
	campaignM := &model.CampaignModel{
		ID:          data.ID,
		MerchantID:  data.MerchantID,
		StoreID:     data.StoreID,
		CreatedBy:   data.CreatedBy,
		Name:        data.Name,
		Description: data.Description,
		Type:        string(data.Type),
		StartDate:   data.StartDate,
		EndDate:     data.EndDate,
		Timezone:    data.Timezone,
		Status:      string(data.Status),
		Rules:       datatypes.NewJSONType(data.Rules),
		Rewards:     datatypes.NewJSONType(data.Rewards),
		Spent:       data.Spent,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
	if data.Budget != nil {
		campaignM.Budget = decimal.NewNullDecimal(*data.Budget)
	}

	var err error
	if campaignM.TargetAudience, err = marshalJSON(data.TargetAudience); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to encode campaign target audience")
	}
	if campaignM.Metrics, err = marshalJSON(data.Metrics); err != nil {
		return nil, domainerrors.NewDatabaseExecuteError(err, "failed to encode campaign metrics")
	}

	return campaignM, nil
}

// marshalJSON encodes v for a nullable JSONB column. A nil pointer stays NULL.
func marshalJSON[T any](v *T) (datatypes.JSON, error) {
	if v == nil {
		return nil, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}

	return datatypes.JSON(raw), nil
}
