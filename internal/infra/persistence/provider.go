// Package persistence selects the storage backend: PostgreSQL when configured, the in-process store otherwise.
package persistence

import (
	"log/slog"

	"loyalty/config"
	"loyalty/internal/domain/repository"
	"loyalty/internal/infra/persistence/memory"
	"loyalty/internal/infra/persistence/postgres"

	"go.uber.org/fx"
)

// Params holds dependencies for the repositories, injected by Fx
type Params struct {
	fx.In

	Lc     fx.Lifecycle
	Config *config.Config
	Logger *slog.Logger
}

// Repositories is every repository the use cases depend on, bound to one backend.
type Repositories struct {
	fx.Out

	TxManager     repository.TransactionManager
	UserRepo      repository.UserRepository
	MerchantRepo  repository.MerchantRepository
	StoreRepo     repository.StoreRepository
	CampaignRepo  repository.CampaignRepository
	QRCodeRepo    repository.QRCodeRepository
	CheckinRepo   repository.CheckinRepository
	SettingRepo   repository.SettingRepository
	AnalyticsRepo repository.AnalyticsRepository
}

// NewRepositories builds the repositories for the configured backend.
func NewRepositories(params Params) (Repositories, error) {
	if params.Config.Postgres == nil {
		params.Logger.Warn("PostgreSQL not configured, using in-process store; data is lost on restart")

		return newMemoryRepositories(memory.New()), nil
	}

	db, err := postgres.New(postgres.Params{
		Lifecycle: params.Lc,
		Config:    params.Config,
		Logger:    params.Logger,
	})
	if err != nil {
		return Repositories{}, err
	}

	return Repositories{
		TxManager:     postgres.NewTransactionManager(db, params.Config, params.Logger),
		UserRepo:      postgres.NewUserRepository(db),
		MerchantRepo:  postgres.NewMerchantRepository(db),
		StoreRepo:     postgres.NewStoreRepository(db),
		CampaignRepo:  postgres.NewCampaignRepository(db),
		QRCodeRepo:    postgres.NewQRCodeRepository(db),
		CheckinRepo:   postgres.NewCheckinRepository(db),
		SettingRepo:   postgres.NewSettingRepository(db),
		AnalyticsRepo: postgres.NewAnalyticsRepository(db),
	}, nil
}

func newMemoryRepositories(store *memory.Store) Repositories {
	return Repositories{
		TxManager:     memory.NewTransactionManager(store),
		UserRepo:      memory.NewUserRepository(store),
		MerchantRepo:  memory.NewMerchantRepository(store),
		StoreRepo:     memory.NewStoreRepository(store),
		CampaignRepo:  memory.NewCampaignRepository(store),
		QRCodeRepo:    memory.NewQRCodeRepository(store),
		CheckinRepo:   memory.NewCheckinRepository(store),
		SettingRepo:   memory.NewSettingRepository(store),
		AnalyticsRepo: memory.NewAnalyticsRepository(store),
	}
}

// Module provides the persistence FX module
//
//nolint:gochecknoglobals
var Module = fx.Options(
	fx.Provide(NewRepositories),
)
