package impl

import (
	"context"
	"log/slog"
	"strings"

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

// merchantService implements the MerchantUsecase interface.
type merchantService struct {
	txManager    repository.TransactionManager
	merchantRepo repository.MerchantRepository
	storeRepo    repository.StoreRepository
	cache        service.CampaignListCache
	logger       *slog.Logger
}

// MerchantServiceParams holds dependencies for MerchantService, injected by Fx.
type MerchantServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	MerchantRepo repository.MerchantRepository
	StoreRepo    repository.StoreRepository
	Cache        service.CampaignListCache
	Logger       *slog.Logger
}

// NewMerchantService is the constructor for merchantService.
func NewMerchantService(params MerchantServiceParams) usecase.MerchantUsecase {
	return &merchantService{
		txManager:    params.TxManager,
		merchantRepo: params.MerchantRepo,
		storeRepo:    params.StoreRepo,
		cache:        params.Cache,
		logger:       params.Logger,
	}
}

func (srv *merchantService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *merchantService) GetMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.Merchant, error) {
	if err := requireMerchantAccess(principal, id); err != nil {
		return nil, err
	}

	merchant, err := srv.merchantRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find merchant")
	}

	return merchant, nil
}

func (srv *merchantService) ListMerchants(ctx context.Context, principal entity.Principal, page, pageSize int) (*usecase.MerchantList, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	merchants, total, err := srv.merchantRepo.List(ctx, repository.NewPagination(page, pageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list merchants")
	}

	return &usecase.MerchantList{Merchants: merchants, Total: total}, nil
}

// UpdateMerchant edits a merchant profile. Owners edit their own contact details; status belongs to admins.
func (srv *merchantService) UpdateMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID, input *usecase.UpdateMerchantInput) (*entity.Merchant, error) {
	if err := requireMerchantAccess(principal, id); err != nil {
		return nil, err
	}
	if input.Status != nil {
		if err := requireRole(principal, entity.RoleAdmin); err != nil {
			return nil, err
		}
		if !input.Status.IsValid() {
			return nil, domainerrors.ErrValidationFailed.WithDetails("unknown merchant status " + string(*input.Status))
		}
	}

	var updated *entity.Merchant
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		merchantRepo := repoFactory.MerchantRepo()
		merchant, err := merchantRepo.FindByID(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find merchant")
		}

		if input.BusinessName != nil {
			name := strings.TrimSpace(*input.BusinessName)
			if name == "" {
				return domainerrors.ErrValidationFailed.WithDetails("business_name is required")
			}
			merchant.BusinessName = name
		}
		if input.ContactPerson != nil {
			merchant.ContactPerson = *input.ContactPerson
		}
		if input.Phone != nil {
			merchant.Phone = *input.Phone
		}
		if input.Status != nil {
			merchant.Status = *input.Status
		}
		if err := merchantRepo.Update(ctx, merchant); err != nil {
			return errors.Wrap(err, "failed to update merchant")
		}
		updated = merchant

		return nil
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Merchant updated", slog.Any("merchant_id", id), slog.Any("by", principal.UserID))

	return updated, nil
}

// DeleteMerchant removes the merchant and everything it owns in one transaction.
func (srv *merchantService) DeleteMerchant(ctx context.Context, principal entity.Principal, id uuid.UUID) error {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return err
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		merchantRepo := repoFactory.MerchantRepo()
		if _, err := merchantRepo.FindByID(ctx, id); err != nil {
			return errors.Wrap(err, "failed to find merchant")
		}

		return errors.Wrap(merchantRepo.DeleteCascade(ctx, id), "failed to delete merchant")
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to delete merchant", slog.Any("merchant_id", id), slog.Any("error", err))

		return err
	}

	if err := srv.cache.InvalidateMerchant(ctx, id); err != nil {
		srv.log(ctx).Warn("Campaign cache invalidation failed", slog.Any("merchant_id", id), slog.Any("error", err))
	}
	srv.log(ctx).Info("Merchant deleted", slog.Any("merchant_id", id), slog.Any("admin_id", principal.UserID))

	return nil
}

func (srv *merchantService) CreateStore(ctx context.Context, principal entity.Principal, input *usecase.CreateStoreInput) (*entity.Store, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}
	merchantID, err := targetMerchantID(principal, input.MerchantID)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domainerrors.ErrValidationFailed.WithDetails("store name is required")
	}

	store := &entity.Store{
		MerchantID: merchantID,
		Name:       name,
		Address:    input.Address,
		Phone:      input.Phone,
		Status:     entity.StoreStatusActive,
	}
	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.MerchantRepo().FindByID(ctx, merchantID); err != nil {
			return errors.Wrap(err, "failed to find merchant")
		}

		return errors.Wrap(repoFactory.StoreRepo().Create(ctx, store), "failed to create store")
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Info("Store created", slog.Any("store_id", store.ID), slog.Any("merchant_id", merchantID))

	return store, nil
}

func (srv *merchantService) UpdateStore(ctx context.Context, principal entity.Principal, id uuid.UUID, input *usecase.UpdateStoreInput) (*entity.Store, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown store status " + string(*input.Status))
	}

	var updated *entity.Store
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		storeRepo := repoFactory.StoreRepo()
		store, err := storeRepo.FindByID(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find store")
		}
		if err := requireMerchantAccess(principal, store.MerchantID); err != nil {
			return err
		}

		if input.Name != nil {
			name := strings.TrimSpace(*input.Name)
			if name == "" {
				return domainerrors.ErrValidationFailed.WithDetails("store name is required")
			}
			store.Name = name
		}
		if input.Address != nil {
			store.Address = *input.Address
		}
		if input.Phone != nil {
			store.Phone = *input.Phone
		}
		if input.Status != nil {
			store.Status = *input.Status
		}
		if err := storeRepo.Update(ctx, store); err != nil {
			return errors.Wrap(err, "failed to update store")
		}
		updated = store

		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// ListStores lists stores. Merchants see their own stores, customers only active ones.
func (srv *merchantService) ListStores(ctx context.Context, principal entity.Principal, input *usecase.ListStoresInput) (*usecase.StoreList, error) {
	filter := repository.StoreFilter{MerchantID: input.MerchantID, Status: input.Status}
	switch principal.Role {
	case entity.RoleAdmin:
	case entity.RoleMerchant:
		merchantID, err := targetMerchantID(principal, input.MerchantID)
		if err != nil {
			return nil, err
		}
		filter.MerchantID = &merchantID
	default:
		active := entity.StoreStatusActive
		filter.Status = &active
	}

	stores, total, err := srv.storeRepo.List(ctx, filter, repository.NewPagination(input.Page, input.PageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list stores")
	}

	return &usecase.StoreList{Stores: stores, Total: total}, nil
}
