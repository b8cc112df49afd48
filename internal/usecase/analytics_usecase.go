package usecase

import (
	"context"

	"loyalty/internal/domain/entity"
)

const (
	DefaultRankingLimit = 10
	DefaultRecentLimit  = 20
	MaxAnalyticsLimit   = 100
)

// AnalyticsUsecase serves the admin reporting queries. Results may lag recent writes slightly.
type AnalyticsUsecase interface {
	GetDashboard(ctx context.Context, principal entity.Principal) (*entity.DashboardStats, error)

	// GetTrend returns one point per calendar day of the range, oldest first, days without check-ins included.
	GetTrend(ctx context.Context, principal entity.Principal, timeRange entity.TimeRange) ([]entity.TrendPoint, error)

	// GetUserGrowth counts new accounts per calendar day of the range, oldest first, empty days included.
	GetUserGrowth(ctx context.Context, principal entity.Principal, timeRange entity.TimeRange) ([]entity.TrendPoint, error)

	GetStoreRanking(ctx context.Context, principal entity.Principal, limit int) ([]entity.StoreRank, error)
	GetDistribution(ctx context.Context, principal entity.Principal) (*entity.Distribution, error)
	GetRecentActivities(ctx context.Context, principal entity.Principal, limit int) ([]entity.RecentActivity, error)
}
