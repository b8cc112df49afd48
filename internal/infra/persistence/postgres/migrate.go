package postgres

import (
	"context"
	"log/slog"

	"loyalty/internal/infra/persistence/model"

	"github.com/pkg/errors"
	"gorm.io/gorm"
)

// schemaIndexes are the constraints GORM tags cannot express: partial and expression indexes.
var schemaIndexes = []struct {
	name string
	ddl  string
}{
	{
		// One valid check-in per user, store and calendar day.
		name: uniqueValidCheckinIndex,
		ddl: `CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueValidCheckinIndex + `
			ON checkins (user_id, store_id, checkin_date) WHERE status = 'valid'`,
	},
	{
		name: uniqueUserEmailIndex,
		ddl:  `CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueUserEmailIndex + ` ON users (lower(email))`,
	},
	{
		// NULL scopes compare equal through COALESCE so global entries stay unique too.
		name: uniqueSettingScopeIndex,
		ddl: `CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueSettingScopeIndex + ` ON settings (
			key,
			COALESCE(merchant_id, '00000000-0000-0000-0000-000000000000'::uuid),
			COALESCE(store_id, '00000000-0000-0000-0000-000000000000'::uuid)
		)`,
	},
	{
		name: "idx_checkins_checkin_date",
		ddl:  `CREATE INDEX IF NOT EXISTS idx_checkins_checkin_date ON checkins (checkin_date)`,
	},
}

// Migrate creates or updates every table, then the indexes above. It is idempotent.
func Migrate(ctx context.Context, db *gorm.DB, logger *slog.Logger) error {
	db = db.WithContext(ctx)

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
		return errors.Wrap(err, "failed to enable pgcrypto")
	}

	if err := db.AutoMigrate(model.All()...); err != nil {
		return errors.Wrap(err, "failed to migrate tables")
	}

	for _, index := range schemaIndexes {
		if err := db.Exec(index.ddl).Error; err != nil {
			return errors.Wrapf(err, "failed to create index %s", index.name)
		}
		logger.DebugContext(ctx, "Index ensured", slog.String("index", index.name))
	}
	logger.InfoContext(ctx, "Database schema is up to date", slog.Int("tables", len(model.All())))

	return nil
}
