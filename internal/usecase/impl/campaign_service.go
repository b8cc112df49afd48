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

// campaignService implements the CampaignUsecase interface.
type campaignService struct {
	txManager    repository.TransactionManager
	campaignRepo repository.CampaignRepository
	qrCodeRepo   repository.QRCodeRepository
	cache        service.CampaignListCache
	logger       *slog.Logger
	now          func() time.Time
}

// CampaignServiceParams holds dependencies for CampaignService, injected by Fx.
type CampaignServiceParams struct {
	fx.In

	TxManager    repository.TransactionManager
	CampaignRepo repository.CampaignRepository
	QRCodeRepo   repository.QRCodeRepository
	Cache        service.CampaignListCache
	Logger       *slog.Logger
}

// NewCampaignService is the constructor for campaignService.
func NewCampaignService(params CampaignServiceParams) usecase.CampaignUsecase {
	return &campaignService{
		txManager:    params.TxManager,
		campaignRepo: params.CampaignRepo,
		qrCodeRepo:   params.QRCodeRepo,
		cache:        params.Cache,
		logger:       params.Logger,
		now:          time.Now,
	}
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *campaignService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// CreateCampaign validates the input and stores a new draft campaign.
func (srv *campaignService) CreateCampaign(ctx context.Context, principal entity.Principal, input *usecase.CreateCampaignInput) (*entity.Campaign, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}
	merchantID, err := targetMerchantID(principal, input.MerchantID)
	if err != nil {
		return nil, err
	}

	campaign, err := entity.NewCampaign(entity.NewCampaignInput{
		MerchantID:     merchantID,
		StoreID:        input.StoreID,
		CreatedBy:      principal.UserID,
		Name:           input.Name,
		Description:    input.Description,
		Type:           input.Type,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		Timezone:       input.Timezone,
		Rules:          input.Rules,
		Rewards:        input.Rewards,
		TargetAudience: input.TargetAudience,
		Budget:         input.Budget,
	})
	if err != nil {
		srv.log(ctx).Warn("Campaign input rejected", slog.Any("merchant_id", merchantID), slog.Any("error", err))

		return nil, err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		if _, err := repoFactory.MerchantRepo().FindByID(ctx, merchantID); err != nil {
			return errors.Wrap(err, "failed to find merchant")
		}

		if campaign.StoreID != nil {
			store, err := repoFactory.StoreRepo().FindByID(ctx, *campaign.StoreID)
			if err != nil {
				return errors.Wrap(err, "failed to find store")
			}
			if store.MerchantID != merchantID {
				return domainerrors.ErrValidationFailed.WithDetails("store belongs to another merchant")
			}
		}

		return errors.Wrap(repoFactory.CampaignRepo().Create(ctx, campaign), "failed to create campaign")
	})
	if err != nil {
		srv.log(ctx).Error("Failed to create campaign", slog.Any("merchant_id", merchantID), slog.Any("error", err))

		return nil, err
	}

	srv.invalidate(ctx, merchantID)
	srv.log(ctx).Info("Campaign created", slog.Any("campaign_id", campaign.ID), slog.Any("merchant_id", merchantID))

	return campaign, nil
}

// GetCampaign returns a campaign with its QR codes. Customers only see active campaigns.
func (srv *campaignService) GetCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID) (*usecase.CampaignDetail, error) {
	campaign, err := srv.campaignRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find campaign")
	}
	if err := canReadCampaign(principal, campaign); err != nil {
		return nil, err
	}

	qrCodes, err := srv.qrCodeRepo.List(ctx, repository.QRCodeFilter{CampaignID: &campaign.ID})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list campaign qr codes")
	}

	return &usecase.CampaignDetail{Campaign: campaign, QRCodes: qrCodes}, nil
}

func canReadCampaign(principal entity.Principal, campaign *entity.Campaign) error {
	switch principal.Role {
	case entity.RoleAdmin:
		return nil
	case entity.RoleMerchant:
		return requireMerchantAccess(principal, campaign.MerchantID)
	default:
		if campaign.Status != entity.CampaignStatusActive {
			return domainerrors.ErrCampaignNotFound
		}

		return nil
	}
}

// ListCampaigns lists campaigns visible to the caller. Lists of one merchant go through the read-through cache.
func (srv *campaignService) ListCampaigns(ctx context.Context, principal entity.Principal, input *usecase.ListCampaignsInput) (*usecase.CampaignList, error) {
	page := repository.NewPagination(input.Page, input.PageSize)
	filter := repository.CampaignFilter{
		MerchantID: input.MerchantID,
		StoreID:    input.StoreID,
		Status:     input.Status,
		Type:       input.Type,
	}

	switch principal.Role {
	case entity.RoleMerchant:
		merchantID, err := targetMerchantID(principal, input.MerchantID)
		if err != nil {
			return nil, err
		}
		filter.MerchantID = &merchantID
	case entity.RoleAdmin:
	default:
		active := entity.CampaignStatusActive
		filter.Status = &active
	}

	if filter.MerchantID == nil || principal.Role == entity.RoleUser {
		campaigns, total, err := srv.campaignRepo.List(ctx, filter, page)
		if err != nil {
			return nil, errors.Wrap(err, "failed to list campaigns")
		}

		return &usecase.CampaignList{Campaigns: campaigns, Total: total}, nil
	}

	all, err := srv.merchantCampaigns(ctx, *filter.MerchantID)
	if err != nil {
		return nil, err
	}

	matched := make([]*entity.Campaign, 0, len(all))
	for _, campaign := range all {
		if matchesCampaignFilter(campaign, filter) {
			matched = append(matched, campaign)
		}
	}

	return &usecase.CampaignList{Campaigns: pageOf(matched, page), Total: int64(len(matched))}, nil
}

// WarmMerchantCampaigns drops the cached list and loads it again.
func (srv *campaignService) WarmMerchantCampaigns(ctx context.Context, merchantID uuid.UUID) error {
	srv.invalidate(ctx, merchantID)

	campaigns, err := srv.merchantCampaigns(ctx, merchantID)
	if err != nil {
		return err
	}

	srv.log(ctx).Debug("Campaign cache warmed", slog.Any("merchant_id", merchantID), slog.Int("campaigns", len(campaigns)))

	return nil
}

// merchantCampaigns returns every campaign of the merchant, newest first, from the cache when present.
func (srv *campaignService) merchantCampaigns(ctx context.Context, merchantID uuid.UUID) ([]*entity.Campaign, error) {
	cached, ok, err := srv.cache.GetMerchantCampaigns(ctx, merchantID)
	if err != nil {
		srv.log(ctx).Warn("Campaign cache read failed", slog.Any("merchant_id", merchantID), slog.Any("error", err))
	}
	if ok {
		return cached, nil
	}

	campaigns, _, err := srv.campaignRepo.List(ctx, repository.CampaignFilter{MerchantID: &merchantID}, repository.Pagination{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list merchant campaigns")
	}

	if err := srv.cache.SetMerchantCampaigns(ctx, merchantID, campaigns); err != nil {
		srv.log(ctx).Warn("Campaign cache write failed", slog.Any("merchant_id", merchantID), slog.Any("error", err))
	}

	return campaigns, nil
}

func matchesCampaignFilter(campaign *entity.Campaign, filter repository.CampaignFilter) bool {
	if filter.StoreID != nil && (campaign.StoreID == nil || *campaign.StoreID != *filter.StoreID) {
		return false
	}
	if filter.Status != nil && campaign.Status != *filter.Status {
		return false
	}
	if filter.Type != nil && campaign.Type != *filter.Type {
		return false
	}

	return true
}

// UpdateCampaign applies a partial update. Active campaigns refuse changes to type and dates.
func (srv *campaignService) UpdateCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID, patch entity.CampaignPatch) (*entity.Campaign, error) {
	return srv.mutate(ctx, principal, id, "update", func(_ repository.RepositoryFactory, campaign *entity.Campaign) error {
		return campaign.ApplyPatch(patch)
	})
}

// TransitionCampaignStatus moves the campaign along the lifecycle graph.
func (srv *campaignService) TransitionCampaignStatus(ctx context.Context, principal entity.Principal, id uuid.UUID, target entity.CampaignStatus) (*entity.Campaign, error) {
	if !target.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown campaign status " + string(target))
	}

	return srv.mutate(ctx, principal, id, "transition", func(_ repository.RepositoryFactory, campaign *entity.Campaign) error {
		from := campaign.Status
		if err := campaign.Transition(target, srv.now()); err != nil {
			return err
		}
		srv.log(ctx).Info("Campaign status changed", slog.Any("campaign_id", id), slog.String("from", string(from)), slog.String("to", string(target)))

		return nil
	})
}

// GetCampaignAnalytics recomputes metrics from the campaign's check-ins and QR codes and stores them.
func (srv *campaignService) GetCampaignAnalytics(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.CampaignMetrics, error) {
	campaign, err := srv.mutate(ctx, principal, id, "analytics", func(repoFactory repository.RepositoryFactory, campaign *entity.Campaign) error {
		checkins, _, err := repoFactory.CheckinRepo().List(ctx, repository.CheckinFilter{CampaignID: &campaign.ID}, repository.Pagination{})
		if err != nil {
			return errors.Wrap(err, "failed to list campaign checkins")
		}
		qrCodes, err := repoFactory.QRCodeRepo().List(ctx, repository.QRCodeFilter{CampaignID: &campaign.ID})
		if err != nil {
			return errors.Wrap(err, "failed to list campaign qr codes")
		}

		campaign.Metrics = entity.ComputeCampaignMetrics(checkins, qrCodes, campaign.Location(), srv.now())

		return nil
	})
	if err != nil {
		return nil, err
	}

	return campaign.Metrics, nil
}

// DeleteCampaign removes a draft campaign.
func (srv *campaignService) DeleteCampaign(ctx context.Context, principal entity.Principal, id uuid.UUID) error {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return err
	}

	var merchantID uuid.UUID
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		campaignRepo := repoFactory.CampaignRepo()

		campaign, err := campaignRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find campaign")
		}
		if err := requireMerchantAccess(principal, campaign.MerchantID); err != nil {
			return err
		}
		if err := campaign.CanDelete(); err != nil {
			return err
		}
		merchantID = campaign.MerchantID

		return errors.Wrap(campaignRepo.Delete(ctx, id), "failed to delete campaign")
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to delete campaign", slog.Any("campaign_id", id), slog.Any("error", err))

		return err
	}

	srv.invalidate(ctx, merchantID)
	srv.log(ctx).Info("Campaign deleted", slog.Any("campaign_id", id))

	return nil
}

// mutate loads the campaign under lock, checks ownership, applies change and saves the result.
func (srv *campaignService) mutate(
	ctx context.Context,
	principal entity.Principal,
	id uuid.UUID,
	action string,
	change func(repository.RepositoryFactory, *entity.Campaign) error,
) (*entity.Campaign, error) {
	if err := requireRole(principal, entity.RoleAdmin, entity.RoleMerchant); err != nil {
		return nil, err
	}

	var updated *entity.Campaign
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		campaignRepo := repoFactory.CampaignRepo()

		campaign, err := campaignRepo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find campaign")
		}
		if err := requireMerchantAccess(principal, campaign.MerchantID); err != nil {
			return err
		}
		if err := change(repoFactory, campaign); err != nil {
			return err
		}
		if err := campaignRepo.Update(ctx, campaign); err != nil {
			return errors.Wrap(err, "failed to update campaign")
		}
		updated = campaign

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Campaign "+action+" failed", slog.Any("campaign_id", id), slog.Any("error", err))

		return nil, err
	}

	srv.invalidate(ctx, updated.MerchantID)

	return updated, nil
}

// invalidate drops the merchant's cached campaign list. Errors are logged, not returned.
func (srv *campaignService) invalidate(ctx context.Context, merchantID uuid.UUID) {
	if err := srv.cache.InvalidateMerchant(ctx, merchantID); err != nil {
		srv.log(ctx).Warn("Campaign cache invalidation failed", slog.Any("merchant_id", merchantID), slog.Any("error", err))
	}
}
