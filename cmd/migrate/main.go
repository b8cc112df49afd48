// Command migrate creates or updates the PostgreSQL schema and exits.
package main

import (
	"context"
	"log/slog"

	"loyalty/config"
	logs "loyalty/internal/infra/log"
	"loyalty/internal/infra/persistence/postgres"

	"go.uber.org/fx"
	"gorm.io/gorm"
)

type migrateParams struct {
	fx.In
	fx.Lifecycle

	Shutdowner fx.Shutdowner
	DB         *gorm.DB
	Logger     *slog.Logger
}

func main() {
	fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			postgres.New,
		),
		fx.Invoke(runMigration),
	).Run()
}

// runMigration migrates once the connection check hook has passed, then stops the app.
func runMigration(params migrateParams) {
	params.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := postgres.Migrate(ctx, params.DB, params.Logger); err != nil {
				return err
			}

			return params.Shutdowner.Shutdown()
		},
	})
}
