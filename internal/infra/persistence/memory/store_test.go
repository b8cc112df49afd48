package memory

import (
	"context"
	"testing"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFixture struct {
	store    *Store
	user     *entity.User
	merchant *entity.Merchant
	shop     *entity.Store
}

func newStoreFixture(t *testing.T) *storeFixture {
	t.Helper()

	ctx := context.Background()
	store := New().WithClock(func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) })

	user := &entity.User{Username: "alice", Email: "alice@example.com", Role: entity.RoleMerchant, Status: entity.UserStatusActive}
	require.NoError(t, NewUserRepository(store).Create(ctx, user))

	merchant := &entity.Merchant{UserID: user.ID, BusinessName: "Alice Coffee", Status: entity.MerchantStatusActive}
	require.NoError(t, NewMerchantRepository(store).Create(ctx, merchant))

	shop := &entity.Store{MerchantID: merchant.ID, Name: "Main St", Status: entity.StoreStatusActive}
	require.NoError(t, NewStoreRepository(store).Create(ctx, shop))

	return &storeFixture{store: store, user: user, merchant: merchant, shop: shop}
}

func (f *storeFixture) checkin(day string) *entity.Checkin {
	checkinTime, _ := time.Parse(time.DateOnly, day)

	return &entity.Checkin{
		UserID:      f.user.ID,
		StoreID:     f.shop.ID,
		CheckinTime: checkinTime.Add(10 * time.Hour),
		CheckinDate: day,
		Status:      entity.CheckinStatusValid,
	}
}

func TestCheckinRepository_CreateRejectsSecondValidCheckinOnSameDay(t *testing.T) {
	f := newStoreFixture(t)
	repo := NewCheckinRepository(f.store)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, f.checkin("2026-03-01")))

	err := repo.Create(ctx, f.checkin("2026-03-01"))
	assert.True(t, errors.Is(err, domainerrors.ErrDuplicateCheckin))

	invalid := f.checkin("2026-03-01")
	invalid.Status = entity.CheckinStatusInvalid
	require.NoError(t, repo.Create(ctx, invalid), "invalid rows are outside the unique rule")

	require.NoError(t, repo.Create(ctx, f.checkin("2026-03-02")))

	count, err := repo.Count(ctx, repository.CheckinFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := NewTransactionManager(f.store).Execute(ctx, func(factory repository.RepositoryFactory) error {
		if err := factory.CheckinRepo().Create(ctx, f.checkin("2026-03-01")); err != nil {
			return err
		}
		if err := factory.StoreRepo().Update(ctx, &entity.Store{ID: f.shop.ID, MerchantID: f.merchant.ID, Name: "Renamed"}); err != nil {
			return err
		}

		return boom
	})
	require.ErrorIs(t, err, boom)

	count, err := NewCheckinRepository(f.store).Count(ctx, repository.CheckinFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)

	shop, err := NewStoreRepository(f.store).FindByID(ctx, f.shop.ID)
	require.NoError(t, err)
	assert.Equal(t, "Main St", shop.Name)
}

func TestTransactionManager_CommitsOnSuccess(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	err := NewTransactionManager(f.store).Execute(ctx, func(factory repository.RepositoryFactory) error {
		return factory.CheckinRepo().Create(ctx, f.checkin("2026-03-01"))
	})
	require.NoError(t, err)

	exists, err := NewCheckinRepository(f.store).ExistsValidInWindow(ctx, f.user.ID, f.shop.ID,
		time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestQRCodeRepository_IncrementScanCountStopsAtLimit(t *testing.T) {
	f := newStoreFixture(t)
	repo := NewQRCodeRepository(f.store)
	ctx := context.Background()

	limit := 2
	qr := &entity.QRCode{StoreID: f.shop.ID, Type: entity.QRCodeTypeStore, Content: "abc", Status: entity.QRCodeStatusActive, ScanLimit: &limit}
	require.NoError(t, repo.Create(ctx, qr))

	require.NoError(t, repo.IncrementScanCount(ctx, qr.ID))
	require.NoError(t, repo.IncrementScanCount(ctx, qr.ID))
	assert.ErrorIs(t, repo.IncrementScanCount(ctx, qr.ID), domainerrors.ErrQRCodeScanLimitReached)

	stored, err := repo.FindByID(ctx, qr.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ScanCount)
}

func TestCampaignRepository_ReturnsIsolatedCopies(t *testing.T) {
	f := newStoreFixture(t)
	repo := NewCampaignRepository(f.store)
	ctx := context.Background()

	campaign := &entity.Campaign{
		MerchantID: f.merchant.ID,
		Name:       "Welcome",
		Type:       entity.CampaignTypePoints,
		Status:     entity.CampaignStatusDraft,
		Metrics:    &entity.CampaignMetrics{CheckinsByDate: map[string]int64{"2026-03-01": 1}},
	}
	require.NoError(t, repo.Create(ctx, campaign))

	loaded, err := repo.FindByID(ctx, campaign.ID)
	require.NoError(t, err)
	loaded.Name = "Changed"
	loaded.Metrics.CheckinsByDate["2026-03-01"] = 99

	again, err := repo.FindByID(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, "Welcome", again.Name)
	assert.Equal(t, int64(1), again.Metrics.CheckinsByDate["2026-03-01"])
}

func TestMerchantRepository_DeleteCascade(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	campaign := &entity.Campaign{MerchantID: f.merchant.ID, Name: "Welcome", Type: entity.CampaignTypePoints, Status: entity.CampaignStatusDraft}
	require.NoError(t, NewCampaignRepository(f.store).Create(ctx, campaign))

	qr := &entity.QRCode{StoreID: f.shop.ID, Type: entity.QRCodeTypeStore, Content: "abc", Status: entity.QRCodeStatusActive}
	require.NoError(t, NewQRCodeRepository(f.store).Create(ctx, qr))
	require.NoError(t, NewCheckinRepository(f.store).Create(ctx, f.checkin("2026-03-01")))

	merchantID := f.merchant.ID
	storeID := f.shop.ID
	settings := NewSettingRepository(f.store)
	require.NoError(t, settings.Upsert(ctx, &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "5", Type: entity.SettingTypeNumber, MerchantID: &merchantID}))
	require.NoError(t, settings.Upsert(ctx, &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "7", Type: entity.SettingTypeNumber, StoreID: &storeID}))
	require.NoError(t, settings.Upsert(ctx, &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "10", Type: entity.SettingTypeNumber}))

	require.NoError(t, NewMerchantRepository(f.store).DeleteCascade(ctx, f.merchant.ID))

	_, err := NewMerchantRepository(f.store).FindByID(ctx, f.merchant.ID)
	assert.ErrorIs(t, err, domainerrors.ErrMerchantNotFound)
	_, err = NewStoreRepository(f.store).FindByID(ctx, f.shop.ID)
	assert.ErrorIs(t, err, domainerrors.ErrStoreNotFound)
	_, err = NewCampaignRepository(f.store).FindByID(ctx, campaign.ID)
	assert.ErrorIs(t, err, domainerrors.ErrCampaignNotFound)
	_, err = NewQRCodeRepository(f.store).FindByID(ctx, qr.ID)
	assert.ErrorIs(t, err, domainerrors.ErrQRCodeNotFound)

	checkins, err := NewCheckinRepository(f.store).Count(ctx, repository.CheckinFilter{})
	require.NoError(t, err)
	assert.Zero(t, checkins)

	remaining, err := settings.List(ctx, repository.SettingFilter{})
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Nil(t, remaining[0].MerchantID)
	assert.Nil(t, remaining[0].StoreID)

	user, err := NewUserRepository(f.store).FindByID(ctx, f.user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
}

func TestSettingRepository_UpsertReplacesSameKeyAndScope(t *testing.T) {
	f := newStoreFixture(t)
	repo := NewSettingRepository(f.store)
	ctx := context.Background()

	merchantID := f.merchant.ID
	first := &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "5", Type: entity.SettingTypeNumber, MerchantID: &merchantID}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "8", Type: entity.SettingTypeNumber, MerchantID: &merchantID}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	global := &entity.Setting{Key: entity.SettingKeyPointsPerCheckin, Value: "10", Type: entity.SettingTypeNumber}
	require.NoError(t, repo.Upsert(ctx, global))
	assert.NotEqual(t, first.ID, global.ID)

	all, err := repo.List(ctx, repository.SettingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	scoped, err := repo.List(ctx, repository.SettingFilter{MerchantID: &merchantID})
	require.NoError(t, err)
	require.Len(t, scoped, 1)
	assert.Equal(t, "8", scoped[0].Value)

	require.NoError(t, repo.Delete(ctx, global.ID))
	assert.ErrorIs(t, repo.Delete(ctx, uuid.New()), domainerrors.ErrSettingNotFound)
}

func TestAnalyticsRepository_RankingAndDistribution(t *testing.T) {
	f := newStoreFixture(t)
	ctx := context.Background()

	second := &entity.Store{MerchantID: f.merchant.ID, Name: "Harbour", Status: entity.StoreStatusActive}
	require.NoError(t, NewStoreRepository(f.store).Create(ctx, second))

	checkins := NewCheckinRepository(f.store)
	require.NoError(t, checkins.Create(ctx, f.checkin("2026-03-01")))
	require.NoError(t, checkins.Create(ctx, f.checkin("2026-03-02")))

	analytics := NewAnalyticsRepository(f.store)

	ranking, err := analytics.StoreRanking(ctx, 10)
	require.NoError(t, err)
	require.Len(t, ranking, 1)
	assert.Equal(t, f.shop.ID, ranking[0].StoreID)
	assert.Equal(t, int64(2), ranking[0].Count)

	byStore, err := analytics.CheckinsByStore(ctx)
	require.NoError(t, err)
	require.Len(t, byStore, 2)
	assert.Equal(t, int64(2), byStore[0].Count)
	assert.Equal(t, second.ID, byStore[1].ID)
	assert.Zero(t, byStore[1].Count)

	trend, err := analytics.CheckinCountsByDay(ctx, "2026-03-02", "2026-03-05")
	require.NoError(t, err)
	assert.Equal(t, []entity.TrendPoint{{Date: "2026-03-02", Count: 1}}, trend)

	totals, err := analytics.Totals(ctx, "2026-03-01")
	require.NoError(t, err)
	assert.Equal(t, int64(2), totals.TotalStores)
	assert.Equal(t, int64(1), totals.TodayCheckins)
	assert.Equal(t, int64(2), totals.TotalCheckins)
}
