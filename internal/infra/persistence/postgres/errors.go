package postgres

import (
	"database/sql/driver"
	"strings"

	domainerrors "loyalty/internal/domain/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// PostgreSQL SQLSTATE codes the repositories react to.
const (
	pgUniqueViolation      = "23505"
	pgForeignKeyViolation  = "23503"
	pgNotNullViolation     = "23502"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgConnectionClass      = "08"
	pgAdminShutdownClass   = "57P"
)

// Unique indexes created by the migration.
const (
	uniqueValidCheckinIndex = "uq_checkins_valid_daily"
	uniqueUserEmailIndex    = "uq_users_email_lower"
	uniqueSettingScopeIndex = "uq_settings_scope"
)

func pgError(err error) (*pgconn.PgError, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr, true
	}

	return nil, false
}

func isUniqueViolation(err error) bool {
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgUniqueViolation
}

func isForeignKeyViolation(err error) bool {
	pgErr, ok := pgError(err)

	return ok && pgErr.Code == pgForeignKeyViolation
}

func violatedConstraint(err error) string {
	if pgErr, ok := pgError(err); ok {
		return pgErr.ConstraintName
	}

	return ""
}

// translateError maps driver failures that no repository handles itself.
// Serialization failures and deadlocks mean a concurrent writer won and the transaction may be re-run;
// lost connections are retryable too.
func translateError(err error, details string) error {
	if err == nil {
		return nil
	}

	var appErr domainerrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	if pgErr, ok := pgError(err); ok {
		switch {
		case pgErr.Code == pgSerializationFailure, pgErr.Code == pgDeadlockDetected:
			return domainerrors.ErrWriteConflict.WithDetails(details)
		case pgErr.Code == pgNotNullViolation:
			return domainerrors.ErrValidationFailed.WithDetails(pgErr.ColumnName + " is required")
		case strings.HasPrefix(pgErr.Code, pgConnectionClass), strings.HasPrefix(pgErr.Code, pgAdminShutdownClass):
			return domainerrors.NewTransientDatabaseError(err, details)
		}

		return domainerrors.NewDatabaseExecuteError(err, details)
	}

	if isTransient(err) {
		return domainerrors.NewTransientDatabaseError(err, details)
	}

	return domainerrors.NewDatabaseExecuteError(err, details)
}

func isTransient(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, gorm.ErrInvalidDB) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}

	var connectErr *pgconn.ConnectError

	return errors.As(err, &connectErr)
}
