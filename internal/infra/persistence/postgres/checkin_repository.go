package postgres

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/model"

	"github.com/google/uuid"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// checkinRepository implements the repository.CheckinRepository interface.
type checkinRepository struct {
	db *gorm.DB
}

// NewCheckinRepository is the constructor for checkinRepository.
func NewCheckinRepository(db *gorm.DB) repository.CheckinRepository {
	return &checkinRepository{
		db: db,
	}
}

func (repo *checkinRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Checkin, error) {
	var checkinM model.CheckinModel
	if err := repo.db.WithContext(ctx).Where("id = ?", id).First(&checkinM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrCheckinNotFound
		}

		return nil, translateError(err, "failed to find check-in by id")
	}

	return toCheckinDomain(&checkinM)
}

func (repo *checkinRepository) ExistsValidInWindow(ctx context.Context, userID, storeID uuid.UUID, from, to time.Time) (bool, error) {
	var found []uuid.UUID
	err := repo.db.WithContext(ctx).Model(&model.CheckinModel{}).
		Where("user_id = ? AND store_id = ? AND status = ?", userID, storeID, string(entity.CheckinStatusValid)).
		Where("checkin_time >= ? AND checkin_time < ?", from, to).
		Limit(1).
		Pluck("id", &found).Error
	if err != nil {
		return false, translateError(err, "failed to look up check-ins in window")
	}

	return len(found) > 0, nil
}

// ListHistory feeds the streak computation, so it returns every status, oldest first.
func (repo *checkinRepository) ListHistory(ctx context.Context, userID, storeID uuid.UUID) ([]*entity.Checkin, error) {
	var checkinModels []*model.CheckinModel
	if err := repo.db.WithContext(ctx).
		Where("user_id = ? AND store_id = ?", userID, storeID).
		Order("checkin_time ASC, id ASC").
		Find(&checkinModels).Error; err != nil {
		return nil, translateError(err, "failed to list check-in history")
	}

	return toCheckinDomains(checkinModels)
}

func (repo *checkinRepository) List(ctx context.Context, filter repository.CheckinFilter, page repository.Pagination) ([]*entity.Checkin, int64, error) {
	var (
		checkinModels []*model.CheckinModel
		total         int64
	)

	query := repo.filtered(ctx, filter)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, translateError(err, "failed to count check-ins")
	}
	if err := paginate(query, page).Order("checkin_time DESC, id DESC").Find(&checkinModels).Error; err != nil {
		return nil, 0, translateError(err, "failed to list check-ins")
	}

	checkins, err := toCheckinDomains(checkinModels)
	if err != nil {
		return nil, 0, err
	}

	return checkins, total, nil
}

// Create relies on the partial unique index over valid rows; losing that race is a duplicate check-in.
func (repo *checkinRepository) Create(ctx context.Context, checkin *entity.Checkin) error {
	ensureID(&checkin.ID)
	checkinM, err := fromCheckinDomain(checkin)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(checkinM).Error; err != nil {
		if isUniqueViolation(err) && violatedConstraint(err) == uniqueValidCheckinIndex {
			return domainerrors.ErrDuplicateCheckin
		}

		return translateError(err, "failed to create check-in")
	}

	checkin.CreatedAt = checkinM.CreatedAt
	checkin.UpdatedAt = checkinM.UpdatedAt

	return nil
}

func (repo *checkinRepository) UpdateCorrection(ctx context.Context, checkin *entity.Checkin) error {
	result := repo.db.WithContext(ctx).Model(&model.CheckinModel{}).
		Where("id = ?", checkin.ID).
		Updates(map[string]any{
			"status":        string(checkin.Status),
			"points_earned": checkin.PointsEarned,
		})
	if result.Error != nil {
		if isUniqueViolation(result.Error) && violatedConstraint(result.Error) == uniqueValidCheckinIndex {
			return domainerrors.ErrDuplicateCheckin
		}

		return translateError(result.Error, "failed to correct check-in")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrCheckinNotFound
	}

	return nil
}

func (repo *checkinRepository) Count(ctx context.Context, filter repository.CheckinFilter) (int64, error) {
	var count int64
	if err := repo.filtered(ctx, filter).Count(&count).Error; err != nil {
		return 0, translateError(err, "failed to count check-ins")
	}

	return count, nil
}

func (repo *checkinRepository) filtered(ctx context.Context, filter repository.CheckinFilter) *gorm.DB {
	query := repo.db.WithContext(ctx).Model(&model.CheckinModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}
	if filter.From != nil {
		query = query.Where("checkin_time >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("checkin_time < ?", *filter.To)
	}

	return query.Session(&gorm.Session{})
}

func toCheckinDomains(checkinModels []*model.CheckinModel) ([]*entity.Checkin, error) {
	checkins := make([]*entity.Checkin, 0, len(checkinModels))
	for _, checkinM := range checkinModels {
		checkin, err := toCheckinDomain(checkinM)
		if err != nil {
			return nil, err
		}
		checkins = append(checkins, checkin)
	}

	return checkins, nil
}

func toCheckinDomain(data *model.CheckinModel) (*entity.Checkin, error) {
	checkin := &entity.Checkin{
		ID:           data.ID,
		UserID:       data.UserID,
		StoreID:      data.StoreID,
		CampaignID:   data.CampaignID,
		QRCodeID:     data.QRCodeID,
		CheckinTime:  data.CheckinTime,
		CheckinDate:  data.CheckinDate.Format(time.DateOnly),
		PointsEarned: data.PointsEarned,
		Status:       entity.CheckinStatus(data.Status),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.Location != nil && *data.Location != "" {
		point, err := wkt.UnmarshalPoint(*data.Location)
		if err != nil {
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode check-in location")
		}
		checkin.Location = &point
	}

	return checkin, nil
}

func fromCheckinDomain(data *entity.Checkin) (*model.CheckinModel, error) {
	day, err := time.Parse(time.DateOnly, data.CheckinDate)
	if err != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("checkin date must be YYYY-MM-DD")
	}

	status := data.Status
	if status == "" {
		status = entity.CheckinStatusValid
	}

	checkinM := &model.CheckinModel{
		ID:           data.ID,
		UserID:       data.UserID,
		StoreID:      data.StoreID,
		CampaignID:   data.CampaignID,
		QRCodeID:     data.QRCodeID,
		CheckinTime:  data.CheckinTime,
		CheckinDate:  day,
		PointsEarned: data.PointsEarned,
		Status:       string(status),
		CreatedAt:    data.CreatedAt,
		UpdatedAt:    data.UpdatedAt,
	}
	if data.Location != nil {
		location := wkt.MarshalString(*data.Location)
		checkinM.Location = &location
	}

	return checkinM, nil
}
