package impl

import (
	"context"
	"sync"
	"testing"
	"time"

	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/persistence/memory"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCheckinService_PerformCheckin_CampaignPoints(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)

	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.MatchedBy(func(event *service.CheckinEvent) bool {
		return event.UserID == customer.UserID.String() &&
			event.MerchantID == merchant.ID.String() &&
			event.CampaignID == campaign.ID.String() &&
			event.PointsEarned == 20
	})).Return(nil).Once()

	checkin, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 20, checkin.PointsEarned)
	assert.Equal(t, entity.CheckinStatusValid, checkin.Status)
	assert.Equal(t, "2024-03-10", checkin.CheckinDate)
	env.publisher.AssertExpectations(t)

	stored, err := memory.NewCampaignRepository(env.store).FindByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.Spent.Equal(decimal.NewFromInt(20)), "spent is %s", stored.Spent)
	require.NotNil(t, stored.Metrics)
	assert.Equal(t, int64(1), stored.Metrics.TotalCheckins)
}

func TestCheckinService_PerformCheckin_DuplicateSameDay(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	_, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)

	env.now = fixedNow.Add(10 * time.Minute)
	_, err = srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.ErrorIs(t, err, domainerrors.ErrDuplicateCheckin)

	env.now = fixedNow.AddDate(0, 0, 1)
	_, err = srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)

	list, err := srv.ListCheckins(context.Background(), customer, &usecase.ListCheckinsInput{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), list.Total)
}

func TestCheckinService_PerformCheckin_DefaultPoints(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 10, checkin.PointsEarned)
}

func TestCheckinService_PerformCheckin_StoreSettingOverridesDefault(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	settings := memory.NewSettingRepository(env.store)
	require.NoError(t, settings.Upsert(context.Background(), &entity.Setting{
		Key: entity.SettingKeyPointsPerCheckin, Value: "12", Type: entity.SettingTypeNumber,
	}))
	require.NoError(t, settings.Upsert(context.Background(), &entity.Setting{
		Key: entity.SettingKeyPointsPerCheckin, Value: "15", Type: entity.SettingTypeNumber, StoreID: &store.ID,
	}))

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 15, checkin.PointsEarned)
}

func TestCheckinService_PerformCheckin_NonPointsCampaignEarnsNothing(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	campaign.Type = entity.CampaignTypeGift
	require.NoError(t, memory.NewCampaignRepository(env.store).Update(context.Background(), campaign))
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})

	require.NoError(t, err)
	assert.Zero(t, checkin.PointsEarned)
}

func TestCheckinService_PerformCheckin_FirstAndStreakBonus(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{
		PointsPerCheckin:  intPtr(10),
		FirstCheckinBonus: 5,
		StreakDays:        2,
		StreakBonus:       7,
	})
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	input := &usecase.PerformCheckinInput{StoreID: store.ID, CampaignID: &campaign.ID}

	first, err := srv.PerformCheckin(context.Background(), customer, input)
	require.NoError(t, err)
	assert.Equal(t, 15, first.PointsEarned)

	env.now = fixedNow.AddDate(0, 0, 1)
	second, err := srv.PerformCheckin(context.Background(), customer, input)
	require.NoError(t, err)
	assert.Equal(t, 17, second.PointsEarned)

	env.now = fixedNow.AddDate(0, 0, 3)
	afterGap, err := srv.PerformCheckin(context.Background(), customer, input)
	require.NoError(t, err)
	assert.Equal(t, 10, afterGap.PointsEarned)
}

func TestCheckinService_PerformCheckin_CappedAtMaxPoints(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Checkin.MaxPointsPerCheckin = 50
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{
		PointsPerCheckin:  intPtr(45),
		FirstCheckinBonus: 20,
	})
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})

	require.NoError(t, err)
	assert.Equal(t, 50, checkin.PointsEarned)
}

func TestCheckinService_PerformCheckin_QRCodeSuppliesCampaign(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	qrCode := env.seedQRCode(t, store.ID, &campaign.ID, nil)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:   store.ID,
		QRContent: qrCode.Content,
	})

	require.NoError(t, err)
	require.NotNil(t, checkin.CampaignID)
	assert.Equal(t, campaign.ID, *checkin.CampaignID)
	assert.Equal(t, 20, checkin.PointsEarned)

	stored, err := memory.NewQRCodeRepository(env.store).FindByID(context.Background(), qrCode.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.ScanCount)
}

func TestCheckinService_PerformCheckin_ScanLimitReached(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	qrCode := env.seedQRCode(t, store.ID, nil, intPtr(5))
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	for range 5 {
		_, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
			StoreID:  store.ID,
			QRCodeID: &qrCode.ID,
		})
		require.NoError(t, err)
	}

	_, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:  store.ID,
		QRCodeID: &qrCode.ID,
	})
	require.ErrorIs(t, err, domainerrors.ErrQRCodeScanLimitReached)

	stored, err := memory.NewQRCodeRepository(env.store).FindByID(context.Background(), qrCode.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, stored.ScanCount)
}

func TestCheckinService_PerformCheckin_Rejections(t *testing.T) {
	env := newTestEnv(t)
	merchantPrincipal, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	otherStore := env.seedStore(t, merchant.ID)
	closedStore := env.seedStore(t, merchant.ID)
	closedStore.Status = entity.StoreStatusInactive
	require.NoError(t, memory.NewStoreRepository(env.store).Update(context.Background(), closedStore))

	paused := env.seedCampaign(t, merchant.ID, entity.CampaignStatusPaused, entity.CampaignRules{})
	_, otherMerchant := env.seedMerchant(t)
	foreign := env.seedCampaign(t, otherMerchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	mismatchedQR := env.seedQRCode(t, otherStore.ID, nil, nil)
	running := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	otherRunning := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{})
	boundQR := env.seedQRCode(t, store.ID, &running.ID, nil)
	srv := env.checkinService(t)
	customer := env.seedCustomer(t)

	tests := []struct {
		name      string
		principal entity.Principal
		input     *usecase.PerformCheckinInput
		wantErr   error
	}{
		{
			name:      "merchant cannot check in",
			principal: merchantPrincipal,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID},
			wantErr:   domainerrors.ErrForbidden,
		},
		{
			name:      "unknown store",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: uuid.New()},
			wantErr:   domainerrors.ErrStoreNotFound,
		},
		{
			name:      "inactive store",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: closedStore.ID},
			wantErr:   domainerrors.ErrStoreNotFound,
		},
		{
			name:      "paused campaign",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, CampaignID: &paused.ID},
			wantErr:   domainerrors.ErrCampaignNotActive,
		},
		{
			name:      "campaign of another merchant",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, CampaignID: &foreign.ID},
			wantErr:   domainerrors.ErrCampaignNotActive,
		},
		{
			name:      "unknown campaign",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, CampaignID: new(uuid.UUID)},
			wantErr:   domainerrors.ErrCampaignNotFound,
		},
		{
			name:      "qr code of another store",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, QRCodeID: &mismatchedQR.ID},
			wantErr:   domainerrors.ErrQRCodeStoreMismatch,
		},
		{
			name:      "qr code bound to another campaign",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, QRCodeID: &boundQR.ID, CampaignID: &otherRunning.ID},
			wantErr:   domainerrors.ErrQRCodeCampaignMismatch,
		},
		{
			name:      "unknown account",
			principal: entity.Principal{UserID: uuid.New(), Role: entity.RoleUser},
			input:     &usecase.PerformCheckinInput{StoreID: store.ID},
			wantErr:   domainerrors.ErrUnauthenticated,
		},
		{
			name:      "unknown qr content",
			principal: customer,
			input:     &usecase.PerformCheckinInput{StoreID: store.ID, QRContent: "missing"},
			wantErr:   domainerrors.ErrQRCodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := srv.PerformCheckin(context.Background(), tt.principal, tt.input)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	env.publisher.AssertNotCalled(t, "PublishCheckinEvent", mock.Anything, mock.Anything)
}

func TestCheckinService_PerformCheckin_ConcurrentAttemptsRecordOnce(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	const attempts = 16
	var (
		wg         sync.WaitGroup
		mu         sync.Mutex
		successes  int
		duplicates int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{
				StoreID:    store.ID,
				CampaignID: &campaign.ID,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case domainerrors.IsCheckinConflict(err):
				duplicates++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	assert.Equal(t, attempts-1, duplicates)

	stored, err := memory.NewCampaignRepository(env.store).FindByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.Spent.Equal(decimal.NewFromInt(20)), "spent is %s", stored.Spent)
}

func TestCheckinService_PerformCheckin_PublishFailureIsNotSurfaced(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(errors.New("broker down"))

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{StoreID: store.ID})

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, checkin.ID)
	env.publisher.AssertNumberOfCalls(t, "PublishCheckinEvent", 1)
}

func TestCheckinService_CorrectCheckin(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)

	invalid := entity.CheckinStatusInvalid
	_, err = srv.CorrectCheckin(context.Background(), customer, checkin.ID, &usecase.CorrectCheckinInput{Status: &invalid})
	require.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = srv.CorrectCheckin(context.Background(), adminPrincipal(), checkin.ID, &usecase.CorrectCheckinInput{PointsEarned: intPtr(-1)})
	require.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	corrected, err := srv.CorrectCheckin(context.Background(), adminPrincipal(), checkin.ID, &usecase.CorrectCheckinInput{
		Status:       &invalid,
		PointsEarned: intPtr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, entity.CheckinStatusInvalid, corrected.Status)
	assert.Zero(t, corrected.PointsEarned)

	// An invalidated check-in no longer blocks the day.
	_, err = srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)
}

func TestCheckinService_ListAndGet_ScopedToOwner(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	alice := env.seedCustomer(t)
	bob := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	aliceCheckin, err := srv.PerformCheckin(context.Background(), alice, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)
	_, err = srv.PerformCheckin(context.Background(), bob, &usecase.PerformCheckinInput{StoreID: store.ID})
	require.NoError(t, err)

	list, err := srv.ListCheckins(context.Background(), bob, &usecase.ListCheckinsInput{UserID: &alice.UserID})
	require.NoError(t, err)
	require.Len(t, list.Checkins, 1)
	assert.Equal(t, bob.UserID, list.Checkins[0].UserID)

	_, err = srv.GetCheckin(context.Background(), bob, aliceCheckin.ID)
	require.ErrorIs(t, err, domainerrors.ErrCheckinNotFound)

	all, err := srv.ListCheckins(context.Background(), adminPrincipal(), &usecase.ListCheckinsInput{StoreID: &store.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), all.Total)
}

func TestCheckinService_PerformCheckin_DeactivatedUser(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	customer := env.seedCustomer(t)
	srv := env.checkinService(t)

	require.NoError(t, memory.NewUserRepository(env.store).UpdateStatus(context.Background(), customer.UserID, entity.UserStatusInactive))

	_, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})
	require.ErrorIs(t, err, domainerrors.ErrUserInactive)

	count, err := memory.NewCheckinRepository(env.store).Count(context.Background(), repository.CheckinFilter{UserID: &customer.UserID})
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, err := memory.NewCampaignRepository(env.store).FindByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	assert.True(t, stored.Spent.IsZero())
	env.publisher.AssertNotCalled(t, "PublishCheckinEvent", mock.Anything, mock.Anything)
}

func TestCheckinService_PerformCheckin_LiveMetricsMatchRecomputation(t *testing.T) {
	env := newTestEnv(t)
	merchantPrincipal, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	secondStore := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(10)})
	qrCode := env.seedQRCode(t, store.ID, &campaign.ID, nil)
	alice := env.seedCustomer(t)
	bob := env.seedCustomer(t)
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	attempts := []struct {
		principal entity.Principal
		input     *usecase.PerformCheckinInput
	}{
		{alice, &usecase.PerformCheckinInput{StoreID: store.ID, QRCodeID: &qrCode.ID}},
		{alice, &usecase.PerformCheckinInput{StoreID: secondStore.ID, CampaignID: &campaign.ID}},
		{bob, &usecase.PerformCheckinInput{StoreID: store.ID, QRContent: qrCode.Content}},
	}
	for _, attempt := range attempts {
		_, err := srv.PerformCheckin(context.Background(), attempt.principal, attempt.input)
		require.NoError(t, err)
	}

	stored, err := memory.NewCampaignRepository(env.store).FindByID(context.Background(), campaign.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Metrics)
	assert.Equal(t, int64(3), stored.Metrics.TotalCheckins)
	assert.Equal(t, int64(2), stored.Metrics.TotalScans)
	assert.Equal(t, int64(2), stored.Metrics.UniqueUsers)

	recomputed, err := env.campaignService().GetCampaignAnalytics(context.Background(), merchantPrincipal, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, stored.Metrics.TotalCheckins, recomputed.TotalCheckins)
	assert.Equal(t, stored.Metrics.TotalScans, recomputed.TotalScans)
	assert.Equal(t, stored.Metrics.UniqueUsers, recomputed.UniqueUsers)
}

func TestCheckinService_CorrectCheckin_AdjustsCampaignSpent(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	campaign := env.seedCampaign(t, merchant.ID, entity.CampaignStatusActive, entity.CampaignRules{PointsPerCheckin: intPtr(20)})
	srv := env.checkinService(t)
	env.publisher.On("PublishCheckinEvent", mock.Anything, mock.Anything).Return(nil)

	checkin, err := srv.PerformCheckin(context.Background(), env.seedCustomer(t), &usecase.PerformCheckinInput{
		StoreID:    store.ID,
		CampaignID: &campaign.ID,
	})
	require.NoError(t, err)

	invalid, valid := entity.CheckinStatusInvalid, entity.CheckinStatusValid
	steps := []struct {
		name      string
		input     *usecase.CorrectCheckinInput
		wantSpent int64
	}{
		{name: "points lowered", input: &usecase.CorrectCheckinInput{PointsEarned: intPtr(5)}, wantSpent: 5},
		{name: "invalidated", input: &usecase.CorrectCheckinInput{Status: &invalid}, wantSpent: 0},
		{name: "points changed while invalid", input: &usecase.CorrectCheckinInput{PointsEarned: intPtr(8)}, wantSpent: 0},
		{name: "revalidated", input: &usecase.CorrectCheckinInput{Status: &valid}, wantSpent: 8},
	}
	for _, step := range steps {
		_, err := srv.CorrectCheckin(context.Background(), adminPrincipal(), checkin.ID, step.input)
		require.NoError(t, err, step.name)

		stored, err := memory.NewCampaignRepository(env.store).FindByID(context.Background(), campaign.ID)
		require.NoError(t, err)
		assert.True(t, stored.Spent.Equal(decimal.NewFromInt(step.wantSpent)), "%s: spent is %s", step.name, stored.Spent)
	}
}

// conflictingTxManager fails every transaction the way an exhausted serializable retry does.
type conflictingTxManager struct{}

func (conflictingTxManager) Execute(context.Context, func(repository.RepositoryFactory) error) error {
	return domainerrors.ErrWriteConflict.WithDetails("failed to commit transaction")
}

func TestCheckinService_PerformCheckin_ExhaustedWriteConflict(t *testing.T) {
	env := newTestEnv(t)
	_, merchant := env.seedMerchant(t)
	store := env.seedStore(t, merchant.ID)
	customer := env.seedCustomer(t)
	env.txManager = conflictingTxManager{}
	srv := env.checkinService(t)

	_, err := srv.PerformCheckin(context.Background(), customer, &usecase.PerformCheckinInput{StoreID: store.ID})

	require.ErrorIs(t, err, domainerrors.ErrCheckinConflict)
	assert.True(t, domainerrors.IsCheckinConflict(err))
	env.publisher.AssertNotCalled(t, "PublishCheckinEvent", mock.Anything, mock.Anything)
}
