// Package commands provides CLI commands for the admin tool
package commands

import (
	"database/sql"
	"fmt"
	"io"

	"learnapp/internal/config"
	"learnapp/internal/database"
	"learnapp/internal/observability"
	contextutils "learnapp/internal/utils"

	"github.com/spf13/cobra"
)

// DatabaseCommands returns the database management commands
func DatabaseCommands(dbManager *database.Manager, db *sql.DB, cfg config.DatabaseConfig, logger *observability.Logger, out io.Writer) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database management commands",
		Long: `Database management commands for the learning platform.

Available commands:
  migrate - Apply pending schema migrations
  status  - Show connection and schema version`,
	}

	dbCmd.AddCommand(migrateCmd(dbManager, db, cfg, logger, out))
	dbCmd.AddCommand(statusCmd(dbManager, db, cfg, out))

	return dbCmd
}

func migrateCmd(dbManager *database.Manager, db *sql.DB, cfg config.DatabaseConfig, logger *observability.Logger, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := commandContext(cmd)

			if err := dbManager.RunMigrations(db, cfg.MigrationsPath); err != nil {
				logger.Error(ctx, "Migration failed", err, map[string]interface{}{"database": MaskDatabaseURL(cfg.URL)})
				return contextutils.WrapError(err, "failed to apply migrations")
			}

			version, dirty, err := dbManager.MigrationVersion(db, cfg.MigrationsPath)
			if err != nil {
				return contextutils.WrapError(err, "failed to read schema version")
			}
			fmt.Fprintf(out, "Schema at version %d (dirty: %t)\n", version, dirty)
			return nil
		},
	}
}

func statusCmd(dbManager *database.Manager, db *sql.DB, cfg config.DatabaseConfig, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connection and schema version",
		RunE: func(_ *cobra.Command, _ []string) error {
			fmt.Fprintf(out, "Database: %s\n", MaskDatabaseURL(cfg.URL))
			fmt.Fprintf(out, "Connection: %s\n", getDatabaseInfo(db))

			version, dirty, err := dbManager.MigrationVersion(db, cfg.MigrationsPath)
			if err != nil {
				return contextutils.WrapError(err, "failed to read schema version")
			}
			if version == 0 {
				fmt.Fprintln(out, "Schema: no migrations applied")
				return nil
			}
			fmt.Fprintf(out, "Schema: version %d", version)
			if dirty {
				fmt.Fprint(out, " (dirty, manual intervention required)")
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}
