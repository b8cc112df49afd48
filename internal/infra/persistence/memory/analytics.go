package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"loyalty/internal/domain/entity"

	"github.com/google/uuid"
)

type analyticsRepository struct {
	sess *session
}

func (repo *analyticsRepository) Totals(_ context.Context, today string) (*entity.DashboardStats, error) {
	stats := &entity.DashboardStats{}
	err := repo.sess.do(func(ds *dataset) error {
		stats.TotalUsers = int64(len(ds.users))
		stats.TotalMerchants = int64(len(ds.merchants))
		stats.TotalStores = int64(len(ds.stores))
		stats.TotalCheckins = int64(len(ds.checkins))
		for _, campaign := range ds.campaigns {
			if campaign.Status == entity.CampaignStatusActive {
				stats.ActiveCampaigns++
			}
		}
		for _, checkin := range ds.checkins {
			if checkin.CheckinDate == today {
				stats.TodayCheckins++
			}
		}

		return nil
	})

	return stats, err
}

func (repo *analyticsRepository) CheckinCountsByDay(_ context.Context, fromDay, toDay string) ([]entity.TrendPoint, error) {
	var points []entity.TrendPoint
	err := repo.sess.do(func(ds *dataset) error {
		counts := make(map[string]int64)
		for _, checkin := range ds.checkins {
			if checkin.CheckinDate >= fromDay && checkin.CheckinDate <= toDay {
				counts[checkin.CheckinDate]++
			}
		}
		for day, count := range counts {
			points = append(points, entity.TrendPoint{Date: day, Count: count})
		}
		slices.SortFunc(points, func(a, b entity.TrendPoint) int { return strings.Compare(a.Date, b.Date) })

		return nil
	})

	return points, err
}

func (repo *analyticsRepository) UserCountsByDay(_ context.Context, from, to time.Time, loc *time.Location) ([]entity.TrendPoint, error) {
	var points []entity.TrendPoint
	err := repo.sess.do(func(ds *dataset) error {
		counts := make(map[string]int64)
		for _, user := range ds.users {
			if !user.CreatedAt.Before(from) && user.CreatedAt.Before(to) {
				counts[entity.DayKey(user.CreatedAt, loc)]++
			}
		}
		for day, count := range counts {
			points = append(points, entity.TrendPoint{Date: day, Count: count})
		}
		slices.SortFunc(points, func(a, b entity.TrendPoint) int { return strings.Compare(a.Date, b.Date) })

		return nil
	})

	return points, err
}

func (repo *analyticsRepository) StoreRanking(_ context.Context, limit int) ([]entity.StoreRank, error) {
	var ranking []entity.StoreRank
	err := repo.sess.do(func(ds *dataset) error {
		counts := countByStore(ds)
		for id, store := range ds.stores {
			if counts[id] == 0 {
				continue
			}
			ranking = append(ranking, entity.StoreRank{
				StoreID:    id,
				StoreName:  store.Name,
				MerchantID: store.MerchantID,
				Count:      counts[id],
			})
		}
		slices.SortFunc(ranking, func(a, b entity.StoreRank) int {
			return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.StoreID.String(), b.StoreID.String()))
		})
		if limit > 0 && len(ranking) > limit {
			ranking = ranking[:limit]
		}

		return nil
	})

	return ranking, err
}

func (repo *analyticsRepository) CheckinsByStore(_ context.Context) ([]entity.DistributionEntry, error) {
	var entries []entity.DistributionEntry
	err := repo.sess.do(func(ds *dataset) error {
		counts := countByStore(ds)
		for id, store := range ds.stores {
			entries = append(entries, entity.DistributionEntry{ID: id, Name: store.Name, Count: counts[id]})
		}
		sortDistribution(entries)

		return nil
	})

	return entries, err
}

func (repo *analyticsRepository) CheckinsByMerchant(_ context.Context) ([]entity.DistributionEntry, error) {
	var entries []entity.DistributionEntry
	err := repo.sess.do(func(ds *dataset) error {
		counts := make(map[uuid.UUID]int64)
		for storeID, count := range countByStore(ds) {
			if store, ok := ds.stores[storeID]; ok {
				counts[store.MerchantID] += count
			}
		}
		for id, merchant := range ds.merchants {
			entries = append(entries, entity.DistributionEntry{ID: id, Name: merchant.BusinessName, Count: counts[id]})
		}
		sortDistribution(entries)

		return nil
	})

	return entries, err
}

func (repo *analyticsRepository) RecentActivities(_ context.Context, limit int) ([]entity.RecentActivity, error) {
	var activities []entity.RecentActivity
	err := repo.sess.do(func(ds *dataset) error {
		checkins := make([]*entity.Checkin, 0, len(ds.checkins))
		for _, checkin := range ds.checkins {
			checkins = append(checkins, checkin)
		}
		slices.SortFunc(checkins, newestFirst)
		if limit > 0 && len(checkins) > limit {
			checkins = checkins[:limit]
		}

		for _, checkin := range checkins {
			activity := entity.RecentActivity{
				CheckinID:    checkin.ID,
				UserID:       checkin.UserID,
				StoreID:      checkin.StoreID,
				PointsEarned: checkin.PointsEarned,
				Status:       checkin.Status,
				CheckinTime:  checkin.CheckinTime,
			}
			if user, ok := ds.users[checkin.UserID]; ok {
				activity.Username = user.Username
			}
			if store, ok := ds.stores[checkin.StoreID]; ok {
				activity.StoreName = store.Name
			}
			activities = append(activities, activity)
		}

		return nil
	})

	return activities, err
}

func countByStore(ds *dataset) map[uuid.UUID]int64 {
	counts := make(map[uuid.UUID]int64)
	for _, checkin := range ds.checkins {
		counts[checkin.StoreID]++
	}

	return counts
}

// sortDistribution orders by count descending, then by id.
func sortDistribution(entries []entity.DistributionEntry) {
	slices.SortFunc(entries, func(a, b entity.DistributionEntry) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), strings.Compare(a.ID.String(), b.ID.String()))
	})
}
