package handler

import (
	"log/slog"

	"loyalty/internal/delivery/api/response"
	"loyalty/internal/domain/entity"
	"loyalty/internal/usecase"

	"github.com/labstack/echo/v4"
	"go.uber.org/fx"
)

// AnalyticsHandlerParams holds dependencies for AnalyticsHandler, injected by Fx.
type AnalyticsHandlerParams struct {
	fx.In

	AnalyticsUC usecase.AnalyticsUsecase
	Logger      *slog.Logger
}

// AnalyticsHandler serves the admin dashboard.
type AnalyticsHandler struct {
	analyticsUC usecase.AnalyticsUsecase
	logger      *slog.Logger
}

// NewAnalyticsHandler is the constructor for AnalyticsHandler
func NewAnalyticsHandler(params AnalyticsHandlerParams) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsUC: params.AnalyticsUC,
		logger:      params.Logger,
	}
}

type trendQuery struct {
	Range string `query:"range" validate:"omitempty,oneof=day week month year"`
}

type limitQuery struct {
	Limit int `query:"limit" validate:"omitempty,min=1,max=100"`
}

// Dashboard returns the platform totals.
func (h *AnalyticsHandler) Dashboard(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	stats, err := h.analyticsUC.GetDashboard(c.Request().Context(), principal)
	if err != nil {
		return err
	}

	return response.OK(c, stats)
}

// Trend returns daily check-in counts. The range defaults to a week.
func (h *AnalyticsHandler) Trend(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query trendQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}
	timeRange := entity.TimeRangeWeek
	if query.Range != "" {
		timeRange = entity.TimeRange(query.Range)
	}

	points, err := h.analyticsUC.GetTrend(c.Request().Context(), principal, timeRange)
	if err != nil {
		return err
	}

	return response.OK(c, points)
}

// Rankings returns the stores with the most check-ins.
func (h *AnalyticsHandler) Rankings(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query limitQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	ranking, err := h.analyticsUC.GetStoreRanking(c.Request().Context(), principal, query.Limit)
	if err != nil {
		return err
	}

	return response.OK(c, ranking)
}

// Distribution returns check-in shares per store and merchant.
func (h *AnalyticsHandler) Distribution(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	distribution, err := h.analyticsUC.GetDistribution(c.Request().Context(), principal)
	if err != nil {
		return err
	}

	return response.OK(c, distribution)
}

// Recent returns the latest check-ins.
func (h *AnalyticsHandler) Recent(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query limitQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	activities, err := h.analyticsUC.GetRecentActivities(c.Request().Context(), principal, query.Limit)
	if err != nil {
		return err
	}

	return response.OK(c, activities)
}

// UserGrowth returns new accounts per day. The range defaults to a month.
func (h *AnalyticsHandler) UserGrowth(c echo.Context) error {
	principal, err := principalFrom(c)
	if err != nil {
		return err
	}

	var query trendQuery
	if err := bindQuery(c, &query); err != nil {
		return err
	}

	points, err := h.analyticsUC.GetUserGrowth(c.Request().Context(), principal, entity.TimeRange(query.Range))
	if err != nil {
		return err
	}

	return response.OK(c, points)
}
