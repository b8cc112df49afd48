package impl

import (
	"context"
	"log/slog"
	"time"

	"loyalty/config"
	deliverycontext "loyalty/internal/delivery/context"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
)

const (
	defaultPointsPerCheckin = 10
	defaultMaxPoints        = 1000
	publishTimeout          = 5 * time.Second
)

// checkinService implements the CheckinUsecase interface.
type checkinService struct {
	txManager     repository.TransactionManager
	checkinRepo   repository.CheckinRepository
	publisher     service.EventPublisher
	cache         service.CampaignListCache
	location      *time.Location
	defaultPoints int
	maxPoints     int
	logger        *slog.Logger
	now           func() time.Time
}

// CheckinServiceParams holds dependencies for CheckinService, injected by Fx.
type CheckinServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	CheckinRepo repository.CheckinRepository
	Publisher   service.EventPublisher
	Cache       service.CampaignListCache
	Config      *config.Config
	Logger      *slog.Logger
}

// NewCheckinService is the constructor for checkinService.
func NewCheckinService(params CheckinServiceParams) (usecase.CheckinUsecase, error) {
	srv := &checkinService{
		txManager:     params.TxManager,
		checkinRepo:   params.CheckinRepo,
		publisher:     params.Publisher,
		cache:         params.Cache,
		location:      time.UTC,
		defaultPoints: defaultPointsPerCheckin,
		maxPoints:     defaultMaxPoints,
		logger:        params.Logger,
		now:           time.Now,
	}

	if cfg := params.Config.Checkin; cfg != nil {
		if cfg.Timezone != "" {
			loc, err := time.LoadLocation(cfg.Timezone)
			if err != nil {
				return nil, errors.Wrapf(err, "invalid checkin timezone %q", cfg.Timezone)
			}
			srv.location = loc
		}
		if cfg.DefaultPointsPerCheckin > 0 {
			srv.defaultPoints = cfg.DefaultPointsPerCheckin
		}
		if cfg.MaxPointsPerCheckin > 0 {
			srv.maxPoints = cfg.MaxPointsPerCheckin
		}
	}

	return srv, nil
}

// log returns a request-scoped logger if available, otherwise falls back to the service's logger.
func (srv *checkinService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

// PerformCheckin runs the whole attempt in one transaction: validation first, then the
// check-in insert, QR scan count and campaign bookkeeping. The event is published after commit.
func (srv *checkinService) PerformCheckin(ctx context.Context, principal entity.Principal, input *usecase.PerformCheckinInput) (*entity.Checkin, error) {
	if err := requireRole(principal, entity.RoleUser); err != nil {
		return nil, err
	}

	now := srv.now()
	from, to := entity.DayWindow(now, srv.location)
	day := entity.DayKey(now, srv.location)

	srv.log(ctx).Debug("Starting checkin", slog.Any("user_id", principal.UserID), slog.Any("store_id", input.StoreID), slog.String("day", day))

	var (
		created    *entity.Checkin
		merchantID uuid.UUID
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		checkinRepo := repoFactory.CheckinRepo()

		// Deactivation takes effect before the token expires
		if err := ensureActiveUser(ctx, repoFactory.UserRepo(), principal.UserID); err != nil {
			return err
		}

		// 1. Store must exist and be active
		store, err := repoFactory.StoreRepo().FindByID(ctx, input.StoreID)
		if err != nil {
			return errors.Wrap(err, "failed to find store")
		}
		if !store.IsActive() {
			return domainerrors.ErrStoreNotFound.WithDetails("store is not active")
		}
		merchantID = store.MerchantID

		// 2. QR code, when given, must be scannable at this store
		qrCode, err := srv.resolveQRCode(ctx, repoFactory.QRCodeRepo(), input)
		if err != nil {
			return err
		}
		campaignID := input.CampaignID
		if qrCode != nil {
			if err := qrCode.ValidateScan(store.ID, now); err != nil {
				return err
			}
			if campaignID, err = qrCode.ResolveCampaign(input.CampaignID); err != nil {
				return err
			}
		}

		// 3. Campaign, when given, must be running and apply to this store
		var campaign *entity.Campaign
		if campaignID != nil {
			if campaign, err = srv.loadRunningCampaign(ctx, repoFactory.CampaignRepo(), *campaignID, store, now); err != nil {
				return err
			}
		}

		// 4. At most one valid check-in per user, store and day
		exists, err := checkinRepo.ExistsValidInWindow(ctx, principal.UserID, store.ID, from, to)
		if err != nil {
			return errors.Wrap(err, "failed to check existing checkins")
		}
		if exists {
			return domainerrors.ErrDuplicateCheckin
		}

		// 5. Points
		points, err := srv.computePoints(ctx, repoFactory, principal.UserID, store, campaign, day)
		if err != nil {
			return err
		}

		// 6. Commit unit
		checkin := &entity.Checkin{
			UserID:       principal.UserID,
			StoreID:      store.ID,
			CampaignID:   campaignID,
			CheckinTime:  now,
			CheckinDate:  day,
			PointsEarned: points,
			Status:       entity.CheckinStatusValid,
			Location:     input.Location,
		}
		if qrCode != nil {
			checkin.QRCodeID = &qrCode.ID
		}
		if err := checkinRepo.Create(ctx, checkin); err != nil {
			return errors.Wrap(err, "failed to create checkin")
		}

		if qrCode != nil {
			if err := repoFactory.QRCodeRepo().IncrementScanCount(ctx, qrCode.ID); err != nil {
				return errors.Wrap(err, "failed to increment qr code scan count")
			}
		}

		if campaign != nil {
			campaign.Spent = campaign.Spent.Add(decimal.NewFromInt(int64(points)))
			if campaign.Metrics == nil {
				campaign.Metrics = &entity.CampaignMetrics{}
			}
			scanned := qrCode != nil && qrCode.CampaignID != nil && *qrCode.CampaignID == campaign.ID
			// The new row is already counted
			userCheckins, err := checkinRepo.Count(ctx, repository.CheckinFilter{UserID: &principal.UserID, CampaignID: &campaign.ID})
			if err != nil {
				return errors.Wrap(err, "failed to count campaign checkins of user")
			}
			campaign.Metrics.RecordCheckin(entity.DayKey(now, campaign.Location()), scanned, userCheckins == 1)
			if err := repoFactory.CampaignRepo().Update(ctx, campaign); err != nil {
				return errors.Wrap(err, "failed to update campaign spent")
			}
		}

		created = checkin

		return nil
	})
	if domainerrors.IsWriteConflict(err) {
		err = domainerrors.ErrCheckinConflict.WithDetails("concurrent checkins kept conflicting")
	}
	if err != nil {
		srv.log(ctx).Warn("Checkin rejected",
			slog.Any("user_id", principal.UserID),
			slog.Any("store_id", input.StoreID),
			slog.Bool("conflict", domainerrors.IsCheckinConflict(err)),
			slog.Any("error", err),
		)

		return nil, err
	}

	srv.log(ctx).Info("Checkin recorded",
		slog.Any("checkin_id", created.ID),
		slog.Any("user_id", created.UserID),
		slog.Any("store_id", created.StoreID),
		slog.Int("points", created.PointsEarned),
	)

	if created.CampaignID != nil {
		if err := srv.cache.InvalidateMerchant(ctx, merchantID); err != nil {
			srv.log(ctx).Warn("Campaign cache invalidation failed", slog.Any("merchant_id", merchantID), slog.Any("error", err))
		}
	}
	srv.publish(ctx, created, merchantID)

	return created, nil
}

func (srv *checkinService) resolveQRCode(ctx context.Context, qrCodeRepo repository.QRCodeRepository, input *usecase.PerformCheckinInput) (*entity.QRCode, error) {
	switch {
	case input.QRCodeID != nil:
		qrCode, err := qrCodeRepo.FindByID(ctx, *input.QRCodeID)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find qr code")
		}

		return qrCode, nil
	case input.QRContent != "":
		qrCode, err := qrCodeRepo.FindByContent(ctx, input.QRContent)
		if err != nil {
			return nil, errors.Wrap(err, "failed to find qr code")
		}

		return qrCode, nil
	default:
		return nil, nil
	}
}

func (srv *checkinService) loadRunningCampaign(
	ctx context.Context,
	campaignRepo repository.CampaignRepository,
	id uuid.UUID,
	store *entity.Store,
	now time.Time,
) (*entity.Campaign, error) {
	campaign, err := campaignRepo.FindByIDForUpdate(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find campaign")
	}
	if !campaign.IsRunningAt(now) {
		return nil, domainerrors.ErrCampaignNotActive
	}
	if campaign.MerchantID != store.MerchantID || (campaign.StoreID != nil && *campaign.StoreID != store.ID) {
		return nil, domainerrors.ErrCampaignNotActive.WithDetails("campaign does not apply to this store")
	}

	return campaign, nil
}

// computePoints awards points only for points campaigns: the base amount, a first visit bonus
// and a streak bonus when the streak including today is a multiple of StreakDays, capped at maxPoints.
func (srv *checkinService) computePoints(
	ctx context.Context,
	repoFactory repository.RepositoryFactory,
	userID uuid.UUID,
	store *entity.Store,
	campaign *entity.Campaign,
	day string,
) (int, error) {
	if campaign == nil || campaign.Type != entity.CampaignTypePoints {
		return 0, nil
	}

	points, err := srv.basePoints(ctx, repoFactory.SettingRepo(), store, campaign)
	if err != nil {
		return 0, err
	}

	rules := campaign.Rules
	if rules.FirstCheckinBonus > 0 || (rules.StreakDays > 0 && rules.StreakBonus > 0) {
		history, err := repoFactory.CheckinRepo().ListHistory(ctx, userID, store.ID)
		if err != nil {
			return 0, errors.Wrap(err, "failed to load checkin history")
		}

		if rules.FirstCheckinBonus > 0 && !hasValidCheckin(history) {
			points += rules.FirstCheckinBonus
		}
		if rules.StreakDays > 0 && rules.StreakBonus > 0 && entity.CurrentStreak(history, day)%rules.StreakDays == 0 {
			points += rules.StreakBonus
		}
	}

	return min(points, srv.maxPoints), nil
}

// basePoints prefers the campaign rule, then the effective points_per_checkin setting, then the configured default.
func (srv *checkinService) basePoints(ctx context.Context, settingRepo repository.SettingRepository, store *entity.Store, campaign *entity.Campaign) (int, error) {
	if campaign.Rules.PointsPerCheckin != nil {
		return *campaign.Rules.PointsPerCheckin, nil
	}

	key := entity.SettingKeyPointsPerCheckin
	settings, err := settingRepo.List(ctx, repository.SettingFilter{Key: &key})
	if err != nil {
		return 0, errors.Wrap(err, "failed to load points setting")
	}
	if value, ok := entity.EffectiveSetting(settings, key, &store.ID, &store.MerchantID).IntValue(); ok && value >= 0 {
		return value, nil
	}

	return srv.defaultPoints, nil
}

func hasValidCheckin(history []*entity.Checkin) bool {
	for _, checkin := range history {
		if checkin.Status == entity.CheckinStatusValid {
			return true
		}
	}

	return false
}

// publish sends the event after commit. Failures are logged and never returned.
func (srv *checkinService) publish(ctx context.Context, checkin *entity.Checkin, merchantID uuid.UUID) {
	event := &service.CheckinEvent{
		RequestID:    deliverycontext.RequestIDFromContext(ctx),
		CheckinID:    checkin.ID.String(),
		UserID:       checkin.UserID.String(),
		StoreID:      checkin.StoreID.String(),
		MerchantID:   merchantID.String(),
		PointsEarned: checkin.PointsEarned,
		CheckinTime:  checkin.CheckinTime,
	}
	if checkin.CampaignID != nil {
		event.CampaignID = checkin.CampaignID.String()
	}

	publishCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := srv.publisher.PublishCheckinEvent(publishCtx, event); err != nil {
		srv.log(ctx).Error("Failed to publish checkin event", slog.Any("checkin_id", checkin.ID), slog.Any("error", err))
	}
}

// GetCheckin returns one check-in. Customers may only read their own.
func (srv *checkinService) GetCheckin(ctx context.Context, principal entity.Principal, id uuid.UUID) (*entity.Checkin, error) {
	checkin, err := srv.checkinRepo.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "failed to find checkin")
	}
	if !principal.IsAdmin() && checkin.UserID != principal.UserID {
		return nil, domainerrors.ErrCheckinNotFound
	}

	return checkin, nil
}

// ListCheckins lists check-ins newest first. Admins may filter freely; everyone else sees only their own history.
func (srv *checkinService) ListCheckins(ctx context.Context, principal entity.Principal, input *usecase.ListCheckinsInput) (*usecase.CheckinList, error) {
	if input.From != nil && input.To != nil && !input.From.Before(*input.To) {
		return nil, domainerrors.ErrInvalidDateRange
	}

	filter := repository.CheckinFilter{
		UserID:     input.UserID,
		StoreID:    input.StoreID,
		CampaignID: input.CampaignID,
		Status:     input.Status,
		From:       input.From,
		To:         input.To,
	}
	if !principal.IsAdmin() {
		userID := principal.UserID
		filter.UserID = &userID
	}

	checkins, total, err := srv.checkinRepo.List(ctx, filter, repository.NewPagination(input.Page, input.PageSize))
	if err != nil {
		return nil, errors.Wrap(err, "failed to list checkins")
	}

	return &usecase.CheckinList{Checkins: checkins, Total: total}, nil
}

// CorrectCheckin lets an admin change the status or points of a check-in.
func (srv *checkinService) CorrectCheckin(ctx context.Context, principal entity.Principal, id uuid.UUID, input *usecase.CorrectCheckinInput) (*entity.Checkin, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown checkin status " + string(*input.Status))
	}
	if input.PointsEarned != nil && (*input.PointsEarned < 0 || *input.PointsEarned > srv.maxPoints) {
		return nil, domainerrors.ErrValidationFailed.WithDetails("points_earned is out of range")
	}

	var (
		corrected  *entity.Checkin
		merchantID uuid.UUID
	)
	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		checkinRepo := repoFactory.CheckinRepo()

		checkin, err := checkinRepo.FindByID(ctx, id)
		if err != nil {
			return errors.Wrap(err, "failed to find checkin")
		}
		before := checkin.SpentContribution()
		if input.Status != nil {
			checkin.Status = *input.Status
		}
		if input.PointsEarned != nil {
			checkin.PointsEarned = *input.PointsEarned
		}
		if err := checkinRepo.UpdateCorrection(ctx, checkin); err != nil {
			return errors.Wrap(err, "failed to correct checkin")
		}

		// Keep campaign spent equal to the points of its valid check-ins
		if delta := checkin.SpentContribution() - before; delta != 0 && checkin.CampaignID != nil {
			campaignRepo := repoFactory.CampaignRepo()
			campaign, err := campaignRepo.FindByIDForUpdate(ctx, *checkin.CampaignID)
			if err != nil {
				return errors.Wrap(err, "failed to lock campaign")
			}
			campaign.Spent = campaign.Spent.Add(decimal.NewFromInt(int64(delta)))
			if err := campaignRepo.Update(ctx, campaign); err != nil {
				return errors.Wrap(err, "failed to adjust campaign spent")
			}
			merchantID = campaign.MerchantID
		}
		corrected = checkin

		return nil
	})
	if err != nil {
		srv.log(ctx).Warn("Failed to correct checkin", slog.Any("checkin_id", id), slog.Any("error", err))

		return nil, err
	}

	srv.log(ctx).Info("Checkin corrected", slog.Any("checkin_id", id), slog.Any("admin_id", principal.UserID))

	if merchantID != uuid.Nil {
		if err := srv.cache.InvalidateMerchant(ctx, merchantID); err != nil {
			srv.log(ctx).Warn("Campaign cache invalidation failed", slog.Any("merchant_id", merchantID), slog.Any("error", err))
		}
	}

	return corrected, nil
}
