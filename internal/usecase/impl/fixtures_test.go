package impl

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/repository"
	"loyalty/internal/domain/service"
	"loyalty/internal/infra/cache"
	"loyalty/internal/infra/persistence/memory"
	"loyalty/internal/usecase"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// fixedNow is 2024-03-10 12:00 UTC.
var fixedNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC) //nolint:gochecknoglobals

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestConfig() *config.Config {
	return &config.Config{
		Auth: &config.AuthConfig{BcryptCost: 4},
		Checkin: &config.CheckinConfig{
			Timezone:                "UTC",
			DefaultPointsPerCheckin: 10,
			MaxPointsPerCheckin:     1000,
		},
	}
}

// mockEventPublisher records published check-in events.
type mockEventPublisher struct {
	mock.Mock
}

func (m *mockEventPublisher) PublishCheckinEvent(ctx context.Context, event *service.CheckinEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockEventPublisher) Close() error {
	return nil
}

// testEnv wires the services against one memory store.
type testEnv struct {
	store     *memory.Store
	txManager repository.TransactionManager
	cache     service.CampaignListCache
	publisher *mockEventPublisher
	cfg       *config.Config
	logger    *slog.Logger
	now       time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		publisher: &mockEventPublisher{},
		cfg:       newTestConfig(),
		logger:    newDiscardLogger(),
		now:       fixedNow,
	}
	env.store = memory.New().WithClock(env.clock)
	env.txManager = memory.NewTransactionManager(env.store)
	env.cache = cache.NewMemoryCache(time.Minute, env.clock)

	return env
}

func (env *testEnv) clock() time.Time {
	return env.now
}

func (env *testEnv) campaignService() *campaignService {
	srv := NewCampaignService(CampaignServiceParams{
		TxManager:    env.txManager,
		CampaignRepo: memory.NewCampaignRepository(env.store),
		QRCodeRepo:   memory.NewQRCodeRepository(env.store),
		Cache:        env.cache,
		Logger:       env.logger,
	}).(*campaignService)
	srv.now = env.clock

	return srv
}

func (env *testEnv) checkinService(t *testing.T) *checkinService {
	t.Helper()

	uc, err := NewCheckinService(CheckinServiceParams{
		TxManager:   env.txManager,
		CheckinRepo: memory.NewCheckinRepository(env.store),
		Publisher:   env.publisher,
		Cache:       env.cache,
		Config:      env.cfg,
		Logger:      env.logger,
	})
	require.NoError(t, err)
	srv := uc.(*checkinService)
	srv.now = env.clock

	return srv
}

func (env *testEnv) analyticsService(t *testing.T) *analyticsService {
	t.Helper()

	uc, err := NewAnalyticsService(AnalyticsServiceParams{
		AnalyticsRepo: memory.NewAnalyticsRepository(env.store),
		Config:        env.cfg,
		Logger:        env.logger,
	})
	require.NoError(t, err)
	srv := uc.(*analyticsService)
	srv.now = env.clock

	return srv
}

func (env *testEnv) merchantService() usecase.MerchantUsecase {
	return NewMerchantService(MerchantServiceParams{
		TxManager:    env.txManager,
		MerchantRepo: memory.NewMerchantRepository(env.store),
		StoreRepo:    memory.NewStoreRepository(env.store),
		Cache:        env.cache,
		Logger:       env.logger,
	})
}

func (env *testEnv) settingService() usecase.SettingUsecase {
	return NewSettingService(SettingServiceParams{
		TxManager:   env.txManager,
		SettingRepo: memory.NewSettingRepository(env.store),
		StoreRepo:   memory.NewStoreRepository(env.store),
		Logger:      env.logger,
	})
}

func (env *testEnv) seedUser(t *testing.T, role entity.Role) *entity.User {
	t.Helper()

	user := &entity.User{
		Username:     "user-" + uuid.NewString()[:8],
		Email:        uuid.NewString()[:8] + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		Status:       entity.UserStatusActive,
	}
	require.NoError(t, memory.NewUserRepository(env.store).Create(context.Background(), user))

	return user
}

func (env *testEnv) seedCustomer(t *testing.T) entity.Principal {
	t.Helper()

	user := env.seedUser(t, entity.RoleUser)

	return entity.Principal{UserID: user.ID, Role: entity.RoleUser}
}

func adminPrincipal() entity.Principal {
	return entity.Principal{UserID: uuid.New(), Role: entity.RoleAdmin}
}

// seedMerchant creates a merchant account and returns its principal.
func (env *testEnv) seedMerchant(t *testing.T) (entity.Principal, *entity.Merchant) {
	t.Helper()

	user := env.seedUser(t, entity.RoleMerchant)
	merchant := &entity.Merchant{
		UserID:       user.ID,
		BusinessName: "Coffee Co",
		Status:       entity.MerchantStatusActive,
	}
	require.NoError(t, memory.NewMerchantRepository(env.store).Create(context.Background(), merchant))

	return entity.Principal{UserID: user.ID, Role: entity.RoleMerchant, MerchantID: &merchant.ID}, merchant
}

func (env *testEnv) seedStore(t *testing.T, merchantID uuid.UUID) *entity.Store {
	t.Helper()

	store := &entity.Store{
		MerchantID: merchantID,
		Name:       "Main Street",
		Status:     entity.StoreStatusActive,
	}
	require.NoError(t, memory.NewStoreRepository(env.store).Create(context.Background(), store))

	return store
}

// seedCampaign stores a campaign running from a week before to a week after fixedNow.
func (env *testEnv) seedCampaign(t *testing.T, merchantID uuid.UUID, status entity.CampaignStatus, rules entity.CampaignRules) *entity.Campaign {
	t.Helper()

	campaign := &entity.Campaign{
		MerchantID: merchantID,
		CreatedBy:  uuid.New(),
		Name:       "Welcome",
		Type:       entity.CampaignTypePoints,
		StartDate:  fixedNow.AddDate(0, 0, -7),
		EndDate:    fixedNow.AddDate(0, 0, 7),
		Status:     status,
		Rules:      rules,
		Spent:      decimal.Zero,
	}
	require.NoError(t, memory.NewCampaignRepository(env.store).Create(context.Background(), campaign))

	return campaign
}

func (env *testEnv) seedQRCode(t *testing.T, storeID uuid.UUID, campaignID *uuid.UUID, scanLimit *int) *entity.QRCode {
	t.Helper()

	qrCode := &entity.QRCode{
		StoreID:    storeID,
		CreatedBy:  uuid.New(),
		Type:       entity.QRCodeTypeStore,
		Content:    uuid.NewString(),
		Status:     entity.QRCodeStatusActive,
		ScanLimit:  scanLimit,
		CampaignID: campaignID,
	}
	require.NoError(t, memory.NewQRCodeRepository(env.store).Create(context.Background(), qrCode))

	return qrCode
}

func intPtr(v int) *int {
	return &v
}
