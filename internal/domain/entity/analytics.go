package entity

import (
	"time"

	"github.com/google/uuid"
)

// TimeRange is the window of a check-in trend query.
type TimeRange string

const (
	TimeRangeDay   TimeRange = "day"
	TimeRangeWeek  TimeRange = "week"
	TimeRangeMonth TimeRange = "month"
	TimeRangeYear  TimeRange = "year"
)

// IsValid checks if the range is a known value.
func (r TimeRange) IsValid() bool {
	switch r {
	case TimeRangeDay, TimeRangeWeek, TimeRangeMonth, TimeRangeYear:
		return true
	default:
		return false
	}
}

// Window returns the [from, to) span of r ending with the day of now in loc.
func (r TimeRange) Window(now time.Time, loc *time.Location) (from, to time.Time) {
	_, to = DayWindow(now, loc)

	switch r {
	case TimeRangeDay:
		from = to.AddDate(0, 0, -1)
	case TimeRangeMonth:
		from = to.AddDate(0, -1, 0)
	case TimeRangeYear:
		from = to.AddDate(-1, 0, 0)
	default:
		from = to.AddDate(0, 0, -7)
	}

	return from, to
}

// DashboardStats holds platform-wide totals.
type DashboardStats struct {
	TotalUsers      int64 `json:"total_users"`
	TotalMerchants  int64 `json:"total_merchants"`
	TotalStores     int64 `json:"total_stores"`
	TotalCheckins   int64 `json:"total_checkins"`
	ActiveCampaigns int64 `json:"active_campaigns"`
	TodayCheckins   int64 `json:"today_checkins"`
}

// TrendPoint is the number of check-ins on one day.
type TrendPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// StoreRank is a store's position by check-in count.
type StoreRank struct {
	StoreID    uuid.UUID `json:"store_id"`
	StoreName  string    `json:"store_name"`
	MerchantID uuid.UUID `json:"merchant_id"`
	Count      int64     `json:"count"`
}

// DistributionEntry is the check-in count of one store or merchant.
type DistributionEntry struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Count int64     `json:"count"`
}

// Distribution splits check-ins by store and by merchant.
type Distribution struct {
	ByStore    []DistributionEntry `json:"by_store"`
	ByMerchant []DistributionEntry `json:"by_merchant"`
}

// RecentActivity is a check-in joined with the names shown on the dashboard feed.
type RecentActivity struct {
	CheckinID    uuid.UUID     `json:"checkin_id"`
	UserID       uuid.UUID     `json:"user_id"`
	Username     string        `json:"username"`
	StoreID      uuid.UUID     `json:"store_id"`
	StoreName    string        `json:"store_name"`
	PointsEarned int           `json:"points_earned"`
	Status       CheckinStatus `json:"status"`
	CheckinTime  time.Time     `json:"checkin_time"`
}
