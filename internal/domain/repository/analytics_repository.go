package repository

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"
)

// AnalyticsRepository serves read-only reporting queries. Results may come from a replica
// and lag the primary slightly.
type AnalyticsRepository interface {
	// Totals counts users, merchants, stores, check-ins and active campaigns.
	// TodayCheckins counts check-ins with checkin date equal to today.
	Totals(ctx context.Context, today string) (*entity.DashboardStats, error)

	// CheckinCountsByDay groups check-ins by checkin date in [fromDay, toDay], ascending; days without rows are omitted.
	CheckinCountsByDay(ctx context.Context, fromDay, toDay string) ([]entity.TrendPoint, error)

	// UserCountsByDay groups accounts created in [from, to) by their creation day in loc, ascending;
	// days without rows are omitted.
	UserCountsByDay(ctx context.Context, from, to time.Time, loc *time.Location) ([]entity.TrendPoint, error)

	// StoreRanking returns up to limit stores by check-in count, ties broken by store id ascending.
	StoreRanking(ctx context.Context, limit int) ([]entity.StoreRank, error)

	// CheckinsByStore counts check-ins of every store, zero included.
	CheckinsByStore(ctx context.Context) ([]entity.DistributionEntry, error)

	// CheckinsByMerchant counts check-ins of every merchant, zero included.
	CheckinsByMerchant(ctx context.Context) ([]entity.DistributionEntry, error)

	// RecentActivities returns the latest check-ins, newest first.
	RecentActivities(ctx context.Context, limit int) ([]entity.RecentActivity, error)
}
