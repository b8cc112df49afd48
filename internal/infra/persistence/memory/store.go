// Package memory is an in-process implementation of the persistence layer.
// It enforces the same uniqueness rules as the PostgreSQL schema and is used for tests and local runs.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"loyalty/internal/domain/entity"
	"loyalty/internal/domain/repository"

	"github.com/google/uuid"
)

// Store holds every aggregate in maps guarded by a single mutex.
// Transactions hold the mutex for their whole duration, which makes them serializable.
type Store struct {
	mu   sync.Mutex
	data *dataset
	now  func() time.Time
}

type dataset struct {
	users     map[uuid.UUID]*entity.User
	merchants map[uuid.UUID]*entity.Merchant
	stores    map[uuid.UUID]*entity.Store
	campaigns map[uuid.UUID]*entity.Campaign
	qrCodes   map[uuid.UUID]*entity.QRCode
	checkins  map[uuid.UUID]*entity.Checkin
	settings  map[uuid.UUID]*entity.Setting
}

func newDataset() *dataset {
	return &dataset{
		users:     make(map[uuid.UUID]*entity.User),
		merchants: make(map[uuid.UUID]*entity.Merchant),
		stores:    make(map[uuid.UUID]*entity.Store),
		campaigns: make(map[uuid.UUID]*entity.Campaign),
		qrCodes:   make(map[uuid.UUID]*entity.QRCode),
		checkins:  make(map[uuid.UUID]*entity.Checkin),
		settings:  make(map[uuid.UUID]*entity.Setting),
	}
}

// clone copies the maps only. Stored values are never mutated in place, so sharing them is safe.
func (d *dataset) clone() *dataset {
	return &dataset{
		users:     maps.Clone(d.users),
		merchants: maps.Clone(d.merchants),
		stores:    maps.Clone(d.stores),
		campaigns: maps.Clone(d.campaigns),
		qrCodes:   maps.Clone(d.qrCodes),
		checkins:  maps.Clone(d.checkins),
		settings:  maps.Clone(d.settings),
	}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		data: newDataset(),
		now:  time.Now,
	}
}

// WithClock replaces the timestamp source used for CreatedAt and UpdatedAt.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now

	return s
}

// session binds repositories either to a transaction snapshot or to the live dataset.
type session struct {
	store *Store
	tx    *dataset
}

// do runs fn on the bound dataset. Outside a transaction each call is atomic under the store lock.
func (s *session) do(fn func(ds *dataset) error) error {
	if s.tx != nil {
		return fn(s.tx)
	}

	s.store.mu.Lock()
	defer s.store.mu.Unlock()

	return fn(s.store.data)
}

func (s *session) now() time.Time {
	return s.store.now()
}

func (s *Store) live() *session {
	return &session{store: s}
}

// transactionManager implements repository.TransactionManager over the memory store.
type transactionManager struct {
	store *Store
}

// NewTransactionManager returns a transaction manager that commits by swapping in the modified snapshot.
func NewTransactionManager(store *Store) repository.TransactionManager {
	return &transactionManager{store: store}
}

// Execute runs fn against a private snapshot and publishes it only when fn succeeds.
func (tm *transactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tm.store.mu.Lock()
	defer tm.store.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	snapshot := tm.store.data.clone()
	if err := fn(&repositoryFactory{sess: &session{store: tm.store, tx: snapshot}}); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	tm.store.data = snapshot

	return nil
}

// repositoryFactory implements repository.RepositoryFactory for one transaction.
type repositoryFactory struct {
	sess *session
}

func (f *repositoryFactory) UserRepo() repository.UserRepository {
	return &userRepository{sess: f.sess}
}

func (f *repositoryFactory) MerchantRepo() repository.MerchantRepository {
	return &merchantRepository{sess: f.sess}
}

func (f *repositoryFactory) StoreRepo() repository.StoreRepository {
	return &storeRepository{sess: f.sess}
}

func (f *repositoryFactory) CampaignRepo() repository.CampaignRepository {
	return &campaignRepository{sess: f.sess}
}

func (f *repositoryFactory) QRCodeRepo() repository.QRCodeRepository {
	return &qrCodeRepository{sess: f.sess}
}

func (f *repositoryFactory) CheckinRepo() repository.CheckinRepository {
	return &checkinRepository{sess: f.sess}
}

func (f *repositoryFactory) SettingRepo() repository.SettingRepository {
	return &settingRepository{sess: f.sess}
}

// NewUserRepository returns a user repository outside any transaction.
func NewUserRepository(store *Store) repository.UserRepository {
	return &userRepository{sess: store.live()}
}

// NewMerchantRepository returns a merchant repository outside any transaction.
func NewMerchantRepository(store *Store) repository.MerchantRepository {
	return &merchantRepository{sess: store.live()}
}

// NewStoreRepository returns a store repository outside any transaction.
func NewStoreRepository(store *Store) repository.StoreRepository {
	return &storeRepository{sess: store.live()}
}

// NewCampaignRepository returns a campaign repository outside any transaction.
func NewCampaignRepository(store *Store) repository.CampaignRepository {
	return &campaignRepository{sess: store.live()}
}

// NewQRCodeRepository returns a QR code repository outside any transaction.
func NewQRCodeRepository(store *Store) repository.QRCodeRepository {
	return &qrCodeRepository{sess: store.live()}
}

// NewCheckinRepository returns a check-in repository outside any transaction.
func NewCheckinRepository(store *Store) repository.CheckinRepository {
	return &checkinRepository{sess: store.live()}
}

// NewSettingRepository returns a setting repository outside any transaction.
func NewSettingRepository(store *Store) repository.SettingRepository {
	return &settingRepository{sess: store.live()}
}

// NewAnalyticsRepository returns the reporting repository.
func NewAnalyticsRepository(store *Store) repository.AnalyticsRepository {
	return &analyticsRepository{sess: store.live()}
}

func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}

	return id
}

// paginate slices items after sorting. A zero limit returns everything from the offset.
func paginate[T any](items []T, page repository.Pagination) []T {
	if page.Offset >= len(items) {
		return []T{}
	}
	items = items[page.Offset:]
	if page.Limit > 0 && page.Limit < len(items) {
		items = items[:page.Limit]
	}

	return items
}
