package postgres

import (
	"context"
	"time"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/model"

	"gorm.io/gorm"
	"gorm.io/plugin/dbresolver"
)

// analyticsRepository implements the repository.AnalyticsRepository interface.
// Every query is routed to a read replica when one is configured.
type analyticsRepository struct {
	db *gorm.DB
}

// NewAnalyticsRepository is the constructor for analyticsRepository.
func NewAnalyticsRepository(db *gorm.DB) repository.AnalyticsRepository {
	return &analyticsRepository{
		db: db,
	}
}

func (repo *analyticsRepository) read(ctx context.Context) *gorm.DB {
	return repo.db.WithContext(ctx).Clauses(dbresolver.Read)
}

func (repo *analyticsRepository) Totals(ctx context.Context, today string) (*entity.DashboardStats, error) {
	stats := &entity.DashboardStats{}

	counts := []struct {
		details string
		query   *gorm.DB
		dest    *int64
	}{
		{"failed to count users", repo.read(ctx).Model(&model.UserModel{}), &stats.TotalUsers},
		{"failed to count merchants", repo.read(ctx).Model(&model.MerchantModel{}), &stats.TotalMerchants},
		{"failed to count stores", repo.read(ctx).Model(&model.StoreModel{}), &stats.TotalStores},
		{"failed to count check-ins", repo.read(ctx).Model(&model.CheckinModel{}), &stats.TotalCheckins},
		{
			"failed to count active campaigns",
			repo.read(ctx).Model(&model.CampaignModel{}).Where("status = ?", string(entity.CampaignStatusActive)),
			&stats.ActiveCampaigns,
		},
		{
			"failed to count today's check-ins",
			repo.read(ctx).Model(&model.CheckinModel{}).Where("checkin_date = ?", today),
			&stats.TodayCheckins,
		},
	}
	for _, count := range counts {
		if err := count.query.Count(count.dest).Error; err != nil {
			return nil, translateError(err, count.details)
		}
	}

	return stats, nil
}

func (repo *analyticsRepository) CheckinCountsByDay(ctx context.Context, fromDay, toDay string) ([]entity.TrendPoint, error) {
	var points []entity.TrendPoint
	err := repo.read(ctx).Model(&model.CheckinModel{}).
		Select("to_char(checkin_date, 'YYYY-MM-DD') AS date, COUNT(*) AS count").
		Where("checkin_date BETWEEN ? AND ?", fromDay, toDay).
		Group("checkin_date").
		Order("checkin_date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, translateError(err, "failed to count check-ins by day")
	}

	return points, nil
}

func (repo *analyticsRepository) UserCountsByDay(ctx context.Context, from, to time.Time, loc *time.Location) ([]entity.TrendPoint, error) {
	day := "to_char(created_at AT TIME ZONE ?, 'YYYY-MM-DD')"

	var points []entity.TrendPoint
	err := repo.read(ctx).Model(&model.UserModel{}).
		Select(day+" AS date, COUNT(*) AS count", loc.String()).
		Where("created_at >= ? AND created_at < ?", from, to).
		Group("date").
		Order("date ASC").
		Scan(&points).Error
	if err != nil {
		return nil, translateError(err, "failed to count new users by day")
	}

	return points, nil
}

func (repo *analyticsRepository) StoreRanking(ctx context.Context, limit int) ([]entity.StoreRank, error) {
	query := repo.read(ctx).Table("checkins AS c").
		Select("s.id AS store_id, s.name AS store_name, s.merchant_id AS merchant_id, COUNT(c.id) AS count").
		Joins("JOIN stores AS s ON s.id = c.store_id").
		Group("s.id, s.name, s.merchant_id").
		Order("count DESC, s.id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var ranking []entity.StoreRank
	if err := query.Scan(&ranking).Error; err != nil {
		return nil, translateError(err, "failed to rank stores")
	}

	return ranking, nil
}

func (repo *analyticsRepository) CheckinsByStore(ctx context.Context) ([]entity.DistributionEntry, error) {
	var entries []entity.DistributionEntry
	err := repo.read(ctx).Table("stores AS s").
		Select("s.id AS id, s.name AS name, COUNT(c.id) AS count").
		Joins("LEFT JOIN checkins AS c ON c.store_id = s.id").
		Group("s.id, s.name").
		Order("count DESC, s.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, translateError(err, "failed to count check-ins by store")
	}

	return entries, nil
}

func (repo *analyticsRepository) CheckinsByMerchant(ctx context.Context) ([]entity.DistributionEntry, error) {
	var entries []entity.DistributionEntry
	err := repo.read(ctx).Table("merchants AS m").
		Select("m.id AS id, m.business_name AS name, COUNT(c.id) AS count").
		Joins("LEFT JOIN stores AS s ON s.merchant_id = m.id").
		Joins("LEFT JOIN checkins AS c ON c.store_id = s.id").
		Group("m.id, m.business_name").
		Order("count DESC, m.id ASC").
		Scan(&entries).Error
	if err != nil {
		return nil, translateError(err, "failed to count check-ins by merchant")
	}

	return entries, nil
}

func (repo *analyticsRepository) RecentActivities(ctx context.Context, limit int) ([]entity.RecentActivity, error) {
	query := repo.read(ctx).Table("checkins AS c").
		Select(`c.id AS checkin_id, c.user_id AS user_id, COALESCE(u.username, '') AS username,
			c.store_id AS store_id, COALESCE(s.name, '') AS store_name,
			c.points_earned AS points_earned, c.status AS status, c.checkin_time AS checkin_time`).
		Joins("LEFT JOIN users AS u ON u.id = c.user_id").
		Joins("LEFT JOIN stores AS s ON s.id = c.store_id").
		Order("c.checkin_time DESC, c.id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var activities []entity.RecentActivity
	if err := query.Scan(&activities).Error; err != nil {
		return nil, translateError(err, "failed to list recent activities")
	}

	return activities, nil
}
