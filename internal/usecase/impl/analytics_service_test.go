package impl

import (
	"context"
	"testing"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAnalyticsService_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	srv := env.analyticsService(t)
	merchant, _ := env.seedMerchant(t)
	ctx := context.Background()

	_, err := srv.GetDashboard(ctx, merchant)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = srv.GetTrend(ctx, merchant, entity.TimeRangeWeek)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = srv.GetStoreRanking(ctx, env.seedCustomer(t), 5)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = srv.GetDistribution(ctx, merchant)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = srv.GetRecentActivities(ctx, merchant, 5)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
	_, err = srv.GetUserGrowth(ctx, env.seedCustomer(t), entity.TimeRangeWeek)
	require.ErrorIs(t, err, domainerrors.ErrForbidden)
}

func TestAnalyticsService_Reports(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	busy := env.seedStore(t, merchant.ID)
	quiet := env.seedStore(t, merchant.ID)
	idle := env.seedStore(t, merchant.ID)
	env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	checkins := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)
	ctx := context.Background()

	alice, bob := env.seedCustomer(t), env.seedCustomer(t)
	env.now = fixedNow.AddDate(0, 0, -2)
	_, err := checkins.PerformCheckin(ctx, alice, &usecase.PerformCheckinInput{StoreID: busy.ID})
	require.NoError(t, err)
	env.now = fixedNow
	_, err = checkins.PerformCheckin(ctx, alice, &usecase.PerformCheckinInput{StoreID: busy.ID})
	require.NoError(t, err)
	_, err = checkins.PerformCheckin(ctx, bob, &usecase.PerformCheckinInput{StoreID: busy.ID})
	require.NoError(t, err)
	_, err = checkins.PerformCheckin(ctx, bob, &usecase.PerformCheckinInput{StoreID: quiet.ID})
	require.NoError(t, err)

	srv := env.analyticsService(t)
	admin := adminPrincipal()

	dashboard, err := srv.GetDashboard(ctx, admin)
	require.NoError(t, err)
	assert.Equal(t, int64(4), dashboard.TotalCheckins)
	assert.Equal(t, int64(3), dashboard.TodayCheckins)
	assert.Equal(t, int64(3), dashboard.TotalStores)
	assert.Equal(t, int64(1), dashboard.TotalMerchants)
	assert.Equal(t, int64(3), dashboard.TotalUsers)
	assert.Equal(t, int64(1), dashboard.ActiveCampaigns)

	trend, err := srv.GetTrend(ctx, admin, "")
	require.NoError(t, err)
	require.Len(t, trend, 7)
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-04", Count: 0}, trend[0])
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-08", Count: 1}, trend[4])
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-09", Count: 0}, trend[5])
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-10", Count: 3}, trend[6])

	_, err = srv.GetTrend(ctx, admin, "decade")
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	ranking, err := srv.GetStoreRanking(ctx, admin, 0)
	require.NoError(t, err)
	require.Len(t, ranking, 2)
	assert.Equal(t, busy.ID, ranking[0].StoreID)
	assert.Equal(t, int64(3), ranking[0].Count)
	assert.Equal(t, quiet.ID, ranking[1].StoreID)

	distribution, err := srv.GetDistribution(ctx, admin)
	require.NoError(t, err)
	counts := make(map[string]int64)
	for _, entry := range distribution.ByStore {
		counts[entry.ID.String()] = entry.Count
	}
	assert.Equal(t, map[string]int64{busy.ID.String(): 3, quiet.ID.String(): 1, idle.ID.String(): 0}, counts)
	require.Len(t, distribution.ByMerchant, 1)
	assert.Equal(t, int64(4), distribution.ByMerchant[0].Count)

	recent, err := srv.GetRecentActivities(ctx, admin, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)
}

func TestClampLimit(t *testing.T) {
	assert.Equal(t, usecase.DefaultRankingLimit, clampLimit(0, usecase.DefaultRankingLimit))
	assert.Equal(t, 5, clampLimit(5, usecase.DefaultRankingLimit))
	assert.Equal(t, usecase.MaxAnalyticsLimit, clampLimit(1000, usecase.DefaultRankingLimit))
}

func TestAnalyticsService_GetUserGrowth(t *testing.T) {
	env := newTestEnv(t)
	srv := env.analyticsService(t)
	ctx := context.Background()

	env.now = fixedNow.AddDate(0, 0, -30)
	env.seedCustomer(t)
	env.now = fixedNow.AddDate(0, 0, -3)
	env.seedCustomer(t)
	env.seedMerchant(t)
	env.now = fixedNow
	env.seedCustomer(t)

	growth, err := srv.GetUserGrowth(ctx, adminPrincipal(), entity.TimeRangeWeek)
	require.NoError(t, err)
	require.Len(t, growth, 7)
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-04", Count: 0}, growth[0])
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-07", Count: 2}, growth[3])
	assert.Equal(t, entity.TrendPoint{Date: "2024-03-10", Count: 1}, growth[6])

	var total int64
	for _, point := range growth {
		total += point.Count
	}
	assert.Equal(t, int64(3), total, "accounts older than the window are not counted")

	_, err = srv.GetUserGrowth(ctx, adminPrincipal(), "decade")
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}
