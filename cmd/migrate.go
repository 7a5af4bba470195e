package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/timeclock/db/migrations"
	"github.com/frahmantamala/timeclock/internal"
	"github.com/frahmantamala/timeclock/internal/database"
	"github.com/frahmantamala/timeclock/pkg/logger"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run the embedded db migrations",
	}
	migrateRollback bool
	migrateAuto     bool
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.Flags().BoolVar(&migrateAuto, "auto", false, "create the schema from the models instead of the sql files (sqlite development)")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	lg := logger.LoggerWrapper()

	db, err := database.Open(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	// the sql files are written for postgres
	if migrateAuto || cfg.Database.Driver == internal.DriverSQLite {
		if migrateRollback {
			return fmt.Errorf("rollback is not supported with auto migration")
		}
		if err := database.AutoMigrate(db.Gorm); err != nil {
			return err
		}
		lg.Info("schema created from models", "driver", cfg.Database.Driver)
		return nil
	}

	goose.SetBaseFS(migrations.FS)
	goose.SetTableName("schema_migrations")
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose: %w", err)
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	if err := goose.RunContext(ctx, command, db.SQL.DB, "."); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}

	version, err := goose.GetDBVersionContext(ctx, db.SQL.DB)
	if err != nil {
		return fmt.Errorf("goose version: %w", err)
	}
	lg.Info("migrations applied", "command", command, "version", version)
	return nil
}
