package impl

import (
	"context"
	"log/slog"
	"strings"

	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// settingService implements the SettingUsecase interface.
type settingService struct {
	txManager   repository.TransactionManager
	settingRepo repository.SettingRepository
	storeRepo   repository.StoreRepository
	logger      *slog.Logger
}

// SettingServiceParams holds dependencies for SettingService, injected by Fx.
type SettingServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	SettingRepo repository.SettingRepository
	StoreRepo   repository.StoreRepository
	Logger      *slog.Logger
}

// NewSettingService is the constructor for settingService.
func NewSettingService(params SettingServiceParams) usecase.SettingUsecase {
	return &settingService{
		txManager:   params.TxManager,
		settingRepo: params.SettingRepo,
		storeRepo:   params.StoreRepo,
		logger:      params.Logger,
	}
}

func (srv *settingService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// UpsertSetting writes a setting in one scope. Global settings are admin only;
// merchants may write settings of their own merchant and stores.
func (srv *settingService) UpsertSetting(ctx context.Context, principal entity.Principal, input *usecase.UpsertSettingInput) (*entity.Setting, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}
	if input.MerchantID != nil && input.StoreID != nil {
		return nil, domainerrors.ErrValidationFailed.WithDetails("merchant_id and store_id are mutually exclusive")
	}

	setting := &entity.Setting{
		Key:         strings.TrimSpace(input.Key),
		Value:       input.Value,
		Type:        input.Type,
		Description: input.Description,
		MerchantID:  input.MerchantID,
		StoreID:     input.StoreID,
		UpdatedBy:   principal.UserID,
	}
	if err := setting.Validate(); err != nil {
		return nil, err
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		switch {
		case setting.StoreID != nil:
			if _, err := managedStore(ctx, repoFactory.StoreRepo(), principal, *setting.StoreID); err != nil {
				return err
			}
		case setting.MerchantID != nil:
			if err := requireMerchantAccess(principal, *setting.MerchantID); err != nil {
				return err
			}
			if _, err := repoFactory.MerchantRepo().FindByID(ctx, *setting.MerchantID); err != nil {
				return errors.Wrap(err, "failed to find merchant")
			}
		default:
			if err := requireRole(principal, entity.RoleAdmin); err != nil {
				return err
			}
		}

		return errors.Wrap(repoFactory.SettingRepo().Upsert(ctx, setting), "failed to upsert setting")
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Setting saved", slog.String("key", setting.Key), slog.Any("setting_id", setting.ID))

	return setting, nil
}

// ListSettings lists settings. Merchants are limited to settings of their own merchant.
func (srv *settingService) ListSettings(ctx context.Context, principal entity.Principal, input *usecase.ListSettingsInput) ([]*entity.Setting, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}

	filter := repository.SettingFilter{Key: input.Key, MerchantID: input.MerchantID, StoreID: input.StoreID}
	if principal.Role == entity.RoleMerchant {
		if filter.StoreID != nil {
			if _, err := managedStore(ctx, srv.storeRepo, principal, *filter.StoreID); err != nil {
				return nil, err
			}
		} else {
			merchantID, err := targetMerchantID(principal, filter.MerchantID)
			if err != nil {
				return nil, err
			}
			filter.MerchantID = &merchantID
		}
	}

	settings, err := srv.settingRepo.List(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list settings")
	}

	return settings, nil
}

// GetEffectiveSetting resolves key for a store and merchant. When only a store is given its merchant is used.
func (srv *settingService) GetEffectiveSetting(ctx context.Context, principal entity.Principal, key string, storeID, merchantID *uuid.UUID) (*entity.Setting, error) {
	if key == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("key is required")
	}
	if storeID != nil && merchantID == nil {
		store, err := srv.storeRepo.FindByID(ctx, *storeID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find store")
		}
		merchantID = &store.MerchantID
	}
	if merchantID != nil && principal.Role == entity.RoleMerchant {
		if err := requireMerchantAccess(principal, *merchantID); err != nil {
			return nil, err
		}
	}

	settings, err := srv.settingRepo.List(ctx, repository.SettingFilter{Key: &key})
	if err != nil {
		return nil, errors.Wrap(err, "failed to load settings")
	}

	setting := entity.EffectiveSetting(settings, key, storeID, merchantID)
	if setting == nil {
		return nil, domainerrors.ErrSettingNotFound
	}

	return setting, nil
}

func (srv *settingService) DeleteSetting(ctx context.Context, principal entity.Principal, id uuid.UUID) error {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return err
	}

	if err := srv.settingRepo.Delete(ctx, id); err != nil {
		return errors.Wrap(err, "failed to delete setting")
	}
	srv.log(ctx).Info("Setting deleted", slog.Any("setting_id", id))

	return nil
}
