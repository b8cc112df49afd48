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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// qrCodeRepository implements the repository.QRCodeRepository interface.
type qrCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository is the constructor for qrCodeRepository.
func NewQRCodeRepository(db *gorm.DB) repository.QRCodeRepository {
	return &qrCodeRepository{
		db: db,
	}
}

func (repo *qrCodeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.QRCode, error) {
	return repo.findOne(ctx, "failed to find qr code by id", "id = ?", id)
}

func (repo *qrCodeRepository) FindByContent(ctx context.Context, content string) (*entity.QRCode, error) {
	return repo.findOne(ctx, "failed to find qr code by content", "content = ?", content)
}

func (repo *qrCodeRepository) findOne(ctx context.Context, details string, query string, args ...any) (*entity.QRCode, error) {
	var qrCodeM model.QRCodeModel
	if err := repo.db.WithContext(ctx).Where(query, args...).First(&qrCodeM).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainerrors.ErrQRCodeNotFound
		}

		return nil, translateError(err, details)
	}

	return toQRCodeDomain(&qrCodeM)
}

func (repo *qrCodeRepository) List(ctx context.Context, filter repository.QRCodeFilter) ([]*entity.QRCode, error) {
	query := repo.db.WithContext(ctx).Model(&model.QRCodeModel{})
	if filter.StoreID != nil {
		query = query.Where("store_id = ?", *filter.StoreID)
	}
	if filter.CampaignID != nil {
		query = query.Where("campaign_id = ?", *filter.CampaignID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var qrCodeModels []*model.QRCodeModel
	if err := query.Order("created_at ASC, id ASC").Find(&qrCodeModels).Error; err != nil {
		return nil, translateError(err, "failed to list qr codes")
	}

	qrCodes := make([]*entity.QRCode, 0, len(qrCodeModels))
	for _, qrCodeM := range qrCodeModels {
		qrCode, err := toQRCodeDomain(qrCodeM)
		if err != nil {
			return nil, err
		}
		qrCodes = append(qrCodes, qrCode)
	}

	return qrCodes, nil
}

func (repo *qrCodeRepository) Create(ctx context.Context, qrCode *entity.QRCode) error {
	ensureID(&qrCode.ID)
	qrCodeM, err := fromQRCodeDomain(qrCode)
	if err != nil {
		return err
	}

	if err := repo.db.WithContext(ctx).Create(qrCodeM).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrValidationFailed.WithDetails("qr code content already exists")
		}
		if isForeignKeyViolation(err) {
			return domainerrors.ErrStoreNotFound
		}

		return translateError(err, "failed to create qr code")
	}

	qrCode.CreatedAt = qrCodeM.CreatedAt
	qrCode.UpdatedAt = qrCodeM.UpdatedAt

	return nil
}

func (repo *qrCodeRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status entity.QRCodeStatus) error {
	result := repo.db.WithContext(ctx).Model(&model.QRCodeModel{}).
		Where("id = ?", id).
		Update("status", string(status))
	if result.Error != nil {
		return translateError(result.Error, "failed to update qr code status")
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrQRCodeNotFound
	}

	return nil
}

// IncrementScanCount is a single conditional UPDATE, so two scans can never both take the last slot.
// When no row matches, a follow-up read tells a missing code from an exhausted one.
func (repo *qrCodeRepository) IncrementScanCount(ctx context.Context, id uuid.UUID) error {
	result := repo.db.WithContext(ctx).Model(&model.QRCodeModel{}).
		Where("id = ?", id).
		Where("scan_limit IS NULL OR scan_count < scan_limit").
		Update("scan_count", gorm.Expr("scan_count + 1"))
	if result.Error != nil {
		return translateError(result.Error, "failed to increment qr code scan count")
	}
	if result.RowsAffected > 0 {
		return nil
	}

	var exists int64
	if err := repo.db.WithContext(ctx).Model(&model.QRCodeModel{}).Where("id = ?", id).Count(&exists).Error; err != nil {
		return translateError(err, "failed to find qr code")
	}
	if exists == 0 {
		return domainerrors.ErrQRCodeNotFound
	}

	return domainerrors.ErrQRCodeScanLimitReached
}

func toQRCodeDomain(data *model.QRCodeModel) (*entity.QRCode, error) {
	qrCode := &entity.QRCode{
		ID:         data.ID,
		StoreID:    data.StoreID,
		CreatedBy:  data.CreatedBy,
		Type:       entity.QRCodeType(data.Type),
		Content:    data.Content,
		Status:     entity.QRCodeStatus(data.Status),
		ExpiresAt:  data.ExpiresAt,
		ScanLimit:  data.ScanLimit,
		ScanCount:  data.ScanCount,
		CampaignID: data.CampaignID,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
	if len(data.Metadata) > 0 {
		if err := json.Unmarshal(data.Metadata, &qrCode.Metadata); err != nil {
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to decode qr code metadata")
		}
	}

	return qrCode, nil
}

func fromQRCodeDomain(data *entity.QRCode) (*model.QRCodeModel, error) {
	status := data.Status
	if status == "" {
		status = entity.QRCodeStatusActive
	}

	qrCodeM := &model.QRCodeModel{
		ID:         data.ID,
		StoreID:    data.StoreID,
		CreatedBy:  data.CreatedBy,
		Type:       string(data.Type),
		Content:    data.Content,
		Status:     string(status),
		ExpiresAt:  data.ExpiresAt,
		ScanLimit:  data.ScanLimit,
		ScanCount:  data.ScanCount,
		CampaignID: data.CampaignID,
		CreatedAt:  data.CreatedAt,
		UpdatedAt:  data.UpdatedAt,
	}
	if len(data.Metadata) > 0 {
		raw, err := json.Marshal(data.Metadata)
		if err != nil {
			return nil, domainerrors.NewDatabaseExecuteError(err, "failed to encode qr code metadata")
		}
		qrCodeM.Metadata = datatypes.JSON(raw)
	}

	return qrCodeM, nil
}
