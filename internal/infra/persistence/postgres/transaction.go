// Package postgres contains the concrete implementation of the persistence layer using GORM and PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"loyalty/config"
	deliverycontext "loyalty/internal/delivery/context"
	domainerrors "loyalty/internal/domain/errors"
	"loyalty/internal/domain/repository"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// gormTransactionManager implements the domain's TransactionManager interface using GORM.
type gormTransactionManager struct {
	db          *gorm.DB
	isolation   sql.IsolationLevel
	maxAttempts int
	backoff     time.Duration
	logger      *slog.Logger
}

// gormRepositoryFactory implements the domain's RepositoryFactory interface.
// Every repository it hands out shares the one transaction handle.
type gormRepositoryFactory struct {
	tx *gorm.DB
}

func (f *gormRepositoryFactory) UserRepo() repository.UserRepository {
	return NewUserRepository(f.tx)
}

func (f *gormRepositoryFactory) MerchantRepo() repository.MerchantRepository {
	return NewMerchantRepository(f.tx)
}

func (f *gormRepositoryFactory) StoreRepo() repository.StoreRepository {
	return NewStoreRepository(f.tx)
}

func (f *gormRepositoryFactory) CampaignRepo() repository.CampaignRepository {
	return NewCampaignRepository(f.tx)
}

func (f *gormRepositoryFactory) QRCodeRepo() repository.QRCodeRepository {
	return NewQRCodeRepository(f.tx)
}

func (f *gormRepositoryFactory) CheckinRepo() repository.CheckinRepository {
	return NewCheckinRepository(f.tx)
}

func (f *gormRepositoryFactory) SettingRepo() repository.SettingRepository {
	return NewSettingRepository(f.tx)
}

// NewTransactionManager is the constructor for gormTransactionManager.
// This function will be used as an Fx provider.
func NewTransactionManager(db *gorm.DB, cfg *config.Config, logger *slog.Logger) repository.TransactionManager {
	tm := &gormTransactionManager{
		db:          db,
		isolation:   sql.LevelSerializable,
		maxAttempts: defaultRetryAttempts,
		backoff:     defaultRetryBackoff,
		logger:      logger,
	}
	if cfg.Checkin != nil && cfg.Checkin.Isolation == "read_committed" {
		tm.isolation = sql.LevelReadCommitted
	}
	if cfg.StoreRetry != nil {
		if cfg.StoreRetry.MaxAttempts > 0 {
			tm.maxAttempts = cfg.StoreRetry.MaxAttempts
		}
		if cfg.StoreRetry.InitialBackoff > 0 {
			tm.backoff = cfg.StoreRetry.InitialBackoff
		}
	}

	return tm
}

// Execute runs fn in a transaction. Write conflicts and transient failures re-run fn
// from the start with doubling backoff; every other error is returned after the first attempt.
func (tm *gormTransactionManager) Execute(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	return tm.retry(ctx, func() error {
		return tm.executeOnce(ctx, fn)
	})
}

// retryable reports whether a failed transaction may succeed when run again.
func retryable(err error) bool {
	return domainerrors.IsWriteConflict(err) || domainerrors.IsTransientStoreFailure(err)
}

// retry calls attempt until it succeeds, fails for good, or maxAttempts is spent.
// The last error is returned unchanged so callers can still classify it.
func (tm *gormTransactionManager) retry(ctx context.Context, attempt func() error) error {
	backoff := tm.backoff

	for n := 1; ; n++ {
		err := attempt()
		if err == nil || !retryable(err) || n >= tm.maxAttempts {
			return err
		}

		deliverycontext.GetLoggerOrDefault(ctx, tm.logger).WarnContext(ctx, "Retrying transaction",
			slog.Int("attempt", n),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()

			return errors.Wrap(ctx.Err(), "transaction retry aborted")
		case <-timer.C:
		}
		backoff = min(backoff*2, maxRetryBackoffCeiling)
	}
}

func (tm *gormTransactionManager) executeOnce(ctx context.Context, fn func(repoFactory repository.RepositoryFactory) error) error {
	tx := tm.db.WithContext(ctx).Begin(&sql.TxOptions{Isolation: tm.isolation})
	if tx.Error != nil {
		return translateError(tx.Error, "failed to begin transaction")
	}

	// A panic in fn must not leave the transaction open.
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(&gormRepositoryFactory{tx: tx}); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil {
			deliverycontext.GetLoggerOrDefault(ctx, tm.logger).ErrorContext(ctx, "Transaction rollback failed",
				slog.Any("error", rbErr),
			)
		}

		return err
	}

	if err := tx.Commit().Error; err != nil {
		return translateError(err, "failed to commit transaction")
	}

	return nil
}
