package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"log/slog"
	"testing"
	"time"

	"loyalty/config"
	"loyalty/internal/domain/entity"
	domainerrors "loyalty/internal/domain/errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestTranslateError(t *testing.T) {
	tests := []struct {
		name          string
		err           error
		wantIs        error
		wantTransient bool
	}{
		{
			name:   "serialization failure is a write conflict",
			err:    &pgconn.PgError{Code: pgSerializationFailure},
			wantIs: domainerrors.ErrWriteConflict,
		},
		{
			name:   "deadlock is a write conflict",
			err:    errors.Wrap(&pgconn.PgError{Code: pgDeadlockDetected}, "commit"),
			wantIs: domainerrors.ErrWriteConflict,
		},
		{
			name:   "not null violation is a validation failure",
			err:    &pgconn.PgError{Code: pgNotNullViolation, ColumnName: "name"},
			wantIs: domainerrors.ErrValidationFailed,
		},
		{
			name:          "connection failure is transient",
			err:           &pgconn.PgError{Code: "08006"},
			wantTransient: true,
		},
		{
			name:          "bad connection is transient",
			err:           driver.ErrBadConn,
			wantTransient: true,
		},
		{
			name: "other driver errors are permanent",
			err:  &pgconn.PgError{Code: "42P01"},
		},
		{
			name: "plain errors are permanent",
			err:  errors.New("boom"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.err, "testing")

			require.Error(t, got)
			if tt.wantIs != nil {
				assert.ErrorIs(t, got, tt.wantIs)
			}
			assert.Equal(t, tt.wantTransient, domainerrors.IsTransientStoreFailure(got))
		})
	}
}

func TestTranslateError_KeepsDomainErrors(t *testing.T) {
	assert.NoError(t, translateError(nil, "testing"))
	assert.Same(t, domainerrors.ErrStoreNotFound, translateError(domainerrors.ErrStoreNotFound, "testing"))
}

func TestConstraintHelpers(t *testing.T) {
	duplicate := errors.Wrap(&pgconn.PgError{Code: pgUniqueViolation, ConstraintName: uniqueValidCheckinIndex}, "insert")

	assert.True(t, isUniqueViolation(duplicate))
	assert.False(t, isForeignKeyViolation(duplicate))
	assert.Equal(t, uniqueValidCheckinIndex, violatedConstraint(duplicate))
	assert.Empty(t, violatedConstraint(errors.New("boom")))
	assert.True(t, isForeignKeyViolation(&pgconn.PgError{Code: pgForeignKeyViolation}))
}

func TestClassifyQueryError(t *testing.T) {
	level, _ := classifyQueryError(gorm.ErrRecordNotFound)
	assert.Equal(t, slog.LevelDebug, level)

	level, _ = classifyQueryError(&pgconn.PgError{Code: pgUniqueViolation})
	assert.Equal(t, slog.LevelDebug, level)

	level, _ = classifyQueryError(&pgconn.PgError{Code: pgSerializationFailure})
	assert.Equal(t, slog.LevelWarn, level)

	level, _ = classifyQueryError(errors.New("syntax error"))
	assert.Equal(t, slog.LevelError, level)
}

func TestCheckinMapping(t *testing.T) {
	campaignID := uuid.New()
	location := orb.Point{121.5654, 25.033}
	checkin := &entity.Checkin{
		ID:           uuid.New(),
		UserID:       uuid.New(),
		StoreID:      uuid.New(),
		CampaignID:   &campaignID,
		CheckinTime:  time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC),
		CheckinDate:  "2024-03-11",
		PointsEarned: 15,
		Status:       entity.CheckinStatusValid,
		Location:     &location,
	}

	checkinM, err := fromCheckinDomain(checkin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), checkinM.CheckinDate)
	require.NotNil(t, checkinM.Location)
	assert.Equal(t, "POINT(121.5654 25.033)", *checkinM.Location)

	back, err := toCheckinDomain(checkinM)
	require.NoError(t, err)
	assert.Equal(t, checkin, back)
}

func TestCheckinMapping_RejectsMalformedDate(t *testing.T) {
	_, err := fromCheckinDomain(&entity.Checkin{CheckinDate: "11/03/2024"})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
}

func TestEnsureID(t *testing.T) {
	var id uuid.UUID
	ensureID(&id)
	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, uuid.Version(7), id.Version())

	fixed := uuid.New()
	kept := fixed
	ensureID(&kept)
	assert.Equal(t, fixed, kept)
}

func TestNewTransactionManager_ReadsConfig(t *testing.T) {
	cfg := &config.Config{
		Checkin:    &config.CheckinConfig{Isolation: "read_committed"},
		StoreRetry: &config.StoreRetryConfig{MaxAttempts: 5, InitialBackoff: 10 * time.Millisecond},
	}

	tm, ok := NewTransactionManager(nil, cfg, slog.New(slog.DiscardHandler)).(*gormTransactionManager)
	require.True(t, ok)
	assert.Equal(t, sql.LevelReadCommitted, tm.isolation)
	assert.Equal(t, 5, tm.maxAttempts)
	assert.Equal(t, 10*time.Millisecond, tm.backoff)

	tm, ok = NewTransactionManager(nil, &config.Config{}, slog.New(slog.DiscardHandler)).(*gormTransactionManager)
	require.True(t, ok)
	assert.Equal(t, sql.LevelSerializable, tm.isolation)
	assert.Equal(t, defaultRetryAttempts, tm.maxAttempts)
	assert.Equal(t, defaultRetryBackoff, tm.backoff)
}

func TestTransactionRetry(t *testing.T) {
	conflict := translateError(&pgconn.PgError{Code: pgSerializationFailure}, "commit")
	transient := translateError(driver.ErrBadConn, "commit")
	permanent := translateError(&pgconn.PgError{Code: "42P01"}, "select")

	tests := []struct {
		name      string
		failures  []error
		wantCalls int
		wantIs    error
	}{
		{
			name:      "first attempt succeeds",
			wantCalls: 1,
		},
		{
			name:      "conflicts are re-run until one commits",
			failures:  []error{conflict, conflict},
			wantCalls: 3,
		},
		{
			name:      "lost connection is re-run",
			failures:  []error{transient},
			wantCalls: 2,
		},
		{
			name:      "persistent conflict gives up after the last attempt",
			failures:  []error{conflict, conflict, conflict, conflict},
			wantCalls: 3,
			wantIs:    domainerrors.ErrWriteConflict,
		},
		{
			name:      "duplicate check-in is not re-run",
			failures:  []error{domainerrors.ErrDuplicateCheckin},
			wantCalls: 1,
			wantIs:    domainerrors.ErrDuplicateCheckin,
		},
		{
			name:      "permanent failure is not re-run",
			failures:  []error{permanent},
			wantCalls: 1,
			wantIs:    permanent,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := &gormTransactionManager{maxAttempts: 3, backoff: time.Millisecond, logger: slog.New(slog.DiscardHandler)}

			calls := 0
			err := tm.retry(t.Context(), func() error {
				calls++
				if calls <= len(tt.failures) {
					return tt.failures[calls-1]
				}

				return nil
			})

			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantIs == nil {
				require.NoError(t, err)

				return
			}
			require.ErrorIs(t, err, tt.wantIs)
		})
	}
}

func TestTransactionRetry_StopsWhenContextEnds(t *testing.T) {
	tm := &gormTransactionManager{maxAttempts: 5, backoff: time.Hour, logger: slog.New(slog.DiscardHandler)}
	ctx, cancel := context.WithCancel(t.Context())

	calls := 0
	err := tm.retry(ctx, func() error {
		calls++
		cancel()

		return domainerrors.ErrWriteConflict
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
