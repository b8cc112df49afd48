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
	"loyalty/internal/usecase"

	"github.com/pkg/errors"
	"go.uber.org/fx"
)

// analyticsService implements the AnalyticsUsecase interface.
type analyticsService struct {
	analyticsRepo repository.AnalyticsRepository
	location      *time.Location
	logger        *slog.Logger
	now           func() time.Time
}

// AnalyticsServiceParams holds dependencies for AnalyticsService, injected by Fx.
type AnalyticsServiceParams struct {
	fx.In

	AnalyticsRepo repository.AnalyticsRepository
	Config        *config.Config
	Logger        *slog.Logger
}

// NewAnalyticsService is the constructor for analyticsService.
func NewAnalyticsService(params AnalyticsServiceParams) (usecase.AnalyticsUsecase, error) {
	srv := &analyticsService{
		analyticsRepo: params.AnalyticsRepo,
		location:      time.UTC,
		logger:        params.Logger,
		now:           time.Now,
	}
	if cfg := params.Config.Checkin; cfg != nil && cfg.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Timezone)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid checkin timezone %q", cfg.Timezone)
		}
		srv.location = loc
	}

	return srv, nil
}

func (srv *analyticsService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *analyticsService) GetDashboard(ctx context.Context, principal entity.Principal) (*entity.DashboardStats, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	stats, err := srv.analyticsRepo.Totals(ctx, entity.DayKey(srv.now(), srv.location))
	if err != nil {
		srv.log(ctx).Error("Failed to load dashboard totals", slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to load dashboard totals")
	}

	return stats, nil
}

// GetTrend fills every day of the window, so days without check-ins are reported with a zero count.
func (srv *analyticsService) GetTrend(ctx context.Context, principal entity.Principal, timeRange entity.TimeRange) ([]entity.TrendPoint, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if timeRange == "" {
		timeRange = entity.TimeRangeWeek
	}
	if !timeRange.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown time range " + string(timeRange))
	}

	from, to := timeRange.Window(srv.now(), srv.location)
	lastDay := to.AddDate(0, 0, -1)

	counts, err := srv.analyticsRepo.CheckinCountsByDay(ctx, entity.DayKey(from, srv.location), entity.DayKey(lastDay, srv.location))
	if err != nil {
		srv.log(ctx).Error("Failed to load checkin trend", slog.String("range", string(timeRange)), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to load checkin trend")
	}

	return srv.fillDays(from, to, counts), nil
}

func (srv *analyticsService) GetUserGrowth(ctx context.Context, principal entity.Principal, timeRange entity.TimeRange) ([]entity.TrendPoint, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}
	if timeRange == "" {
		timeRange = entity.TimeRangeMonth
	}
	if !timeRange.IsValid() {
		return nil, domainerrors.ErrValidationFailed.WithDetails("unknown time range " + string(timeRange))
	}

	from, to := timeRange.Window(srv.now(), srv.location)
	counts, err := srv.analyticsRepo.UserCountsByDay(ctx, from, to, srv.location)
	if err != nil {
		srv.log(ctx).Error("Failed to load user growth", slog.String("range", string(timeRange)), slog.Any("error", err))

		return nil, errors.Wrap(err, "failed to load user growth")
	}

	return srv.fillDays(from, to, counts), nil
}

// fillDays returns one point per day in [from, to), zero where counts has no entry.
func (srv *analyticsService) fillDays(from, to time.Time, counts []entity.TrendPoint) []entity.TrendPoint {
	byDay := make(map[string]int64, len(counts))
	for _, point := range counts {
		byDay[point.Date] = point.Count
	}

	var points []entity.TrendPoint
	for day := from; day.Before(to); day = day.AddDate(0, 0, 1) {
		key := entity.DayKey(day, srv.location)
		points = append(points, entity.TrendPoint{Date: key, Count: byDay[key]})
	}

	return points
}

func (srv *analyticsService) GetStoreRanking(ctx context.Context, principal entity.Principal, limit int) ([]entity.StoreRank, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	ranking, err := srv.analyticsRepo.StoreRanking(ctx, clampLimit(limit, usecase.DefaultRankingLimit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store ranking")
	}

	return ranking, nil
}

func (srv *analyticsService) GetDistribution(ctx context.Context, principal entity.Principal) (*entity.Distribution, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	byStore, err := srv.analyticsRepo.CheckinsByStore(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load store distribution")
	}
	byMerchant, err := srv.analyticsRepo.CheckinsByMerchant(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load merchant distribution")
	}

	return &entity.Distribution{ByStore: byStore, ByMerchant: byMerchant}, nil
}

func (srv *analyticsService) GetRecentActivities(ctx context.Context, principal entity.Principal, limit int) ([]entity.RecentActivity, error) {
	if err := requireRole(principal, entity.RoleAdmin); err != nil {
		return nil, err
	}

	activities, err := srv.analyticsRepo.RecentActivities(ctx, clampLimit(limit, usecase.DefaultRecentLimit))
	if err != nil {
		return nil, errors.Wrap(err, "failed to load recent activities")
	}

	return activities, nil
}

// clampLimit applies def to non-positive limits and caps at MaxAnalyticsLimit.
func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}

	return min(limit, usecase.MaxAnalyticsLimit)
}
