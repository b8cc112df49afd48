package impl

import (
	"context"
	"log/slog"
	"time"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// qrCodeService implements the QRCodeUsecase interface.
type qrCodeService struct {
	txManager  repository.TransactionManager
	qrCodeRepo repository.QRCodeRepository
	storeRepo  repository.StoreRepository
	codes      service.QRCodeService
	logger     *slog.Logger
	now        func() time.Time
}

// QRCodeServiceParams holds dependencies for QRCodeService, injected by Fx.
type QRCodeServiceParams struct {
	fx.In

	TxManager  repository.TransactionManager
	QRCodeRepo repository.QRCodeRepository
	StoreRepo  repository.StoreRepository
	Codes      service.QRCodeService
	Logger     *slog.Logger
}

// NewQRCodeService is the constructor for qrCodeService.
func NewQRCodeService(params QRCodeServiceParams) usecase.QRCodeUsecase {
	return &qrCodeService{
		txManager:  params.TxManager,
		qrCodeRepo: params.QRCodeRepo,
		storeRepo:  params.StoreRepo,
		codes:      params.Codes,
		logger:     params.Logger,
		now:        time.Now,
	}
}

func (srv *qrCodeService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateQRCode issues a new code for a store the caller manages. A campaign code must belong to the store's merchant.
func (srv *qrCodeService) CreateQRCode(ctx context.Context, principal entity.Principal, input *usecase.CreateQRCodeInput) (*entity.QRCode, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}
	if input.Type == "" {
		input.Type = entity.QRCodeTypeStore
	}
	if !input.Type.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown qr code type " + string(input.Type))
	}
	if input.ScanLimit != nil && *input.ScanLimit < 1 {
		return nil, domainerrors.ErrValidationFailed.WithDetails("scan_limit must be at least 1")
	}
	if input.ExpiresAt != nil && !input.ExpiresAt.After(srv.now()) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("expires_at must be in the future")
	}
	if input.Type == entity.QRCodeTypeCampaign && input.CampaignID == nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("campaign_id is required for campaign codes")
	}

	qrCode := &entity.QRCode{
		StoreID:    input.StoreID,
		CreatedBy:  principal.UserID,
		Type:       input.Type,
		Content:    srv.codes.NewContent(),
		Status:     entity.QRCodeStatusActive,
		ExpiresAt:  input.ExpiresAt,
		ScanLimit:  input.ScanLimit,
		CampaignID: input.CampaignID,
		Metadata:   input.Metadata,
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		store, err := repoFactory.StoreRepo().FindByID(ctx, input.StoreID)
		if err != nil {
			return errors.Wrap(err, "failed to find store")
		}
		if err := requireMerchantAccess(principal, store.MerchantID); err != nil {
			return err
		}

		if input.CampaignID != nil {
			campaign, err := repoFactory.CampaignRepo().FindByID(ctx, *input.CampaignID)
			if err != nil {
				return errors.Wrap(err, "failed to find campaign")
			}
			if campaign.MerchantID != store.MerchantID {
				return domainerrors.ErrValidationFailed.WithDetails("campaign belongs to another merchant")
			}
		}

		return errors.Wrap(repoFactory.QRCodeRepo().Create(ctx, qrCode), "failed to create qr code")
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("QR code created", slog.Any("qr_code_id", qrCode.ID), slog.Any("store_id", qrCode.StoreID), slog.Any("type", qrCode.Type))

	return qrCode, nil
}

func (srv *qrCodeService) ListQRCodes(ctx context.Context, principal entity.Principal, storeID uuid.UUID) ([]*entity.QRCode, error) {
	if _, err := managedStore(ctx, srv.storeRepo, principal, storeID); err != nil {
		return nil, err
	}

	qrCodes, err := srv.qrCodeRepo.List(ctx, repository.QRCodeFilter{StoreID: &storeID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list qr codes")
	}

	return qrCodes, nil
}

func (srv *qrCodeService) GetQRCodeImage(ctx context.Context, principal entity.Principal, id uuid.UUID) ([]byte, error) {
	qrCode, err := srv.qrCodeRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find qr code")
	}
	if _, err := managedStore(ctx, srv.storeRepo, principal, qrCode.StoreID); err != nil {
		return nil, err
	}

	png, err := srv.codes.RenderPNG(qrCode.Content)
	if err != nil {
		srv.log(ctx).Error("Failed to render qr code", slog.Any("qr_code_id", id), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to render qr code")
	}

	return png, nil
}

// ResolveQRCode looks up a scanned code. Anyone may resolve a code, so no principal is needed.
func (srv *qrCodeService) ResolveQRCode(ctx context.Context, content string) (*entity.QRCode, error) {
	if content == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("code is required")
	}

	qrCode, err := srv.qrCodeRepo.FindByContent(ctx, content)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve qr code")
	}

	return qrCode, nil
}

func (srv *qrCodeService) DeactivateQRCode(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.QRCode, error) {
	var deactivated *entity.QRCode
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		qrCodeRepo := repoFactory.QRCodeRepo()
		qrCode, err := qrCodeRepo.FindByID(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find qr code")
		}
		if _, err := managedStore(ctx, repoFactory.StoreRepo(), principal, qrCode.StoreID); err != nil {
			return err
		}

		if err := qrCodeRepo.UpdateStatus(ctx, id, entity.QRCodeStatusInactive); err != nil {
			return errors.Wrap(err, "failed to deactivate qr code")
		}
		qrCode.Status = entity.QRCodeStatusInactive
		deactivated = qrCode

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("QR code deactivated", slog.Any("qr_code_id", id))

	return deactivated, nil
}
