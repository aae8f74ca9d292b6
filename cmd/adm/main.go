// Package main provides the main entry point for the learning platform admin CLI tool.
package main

import (
	"context"
	"fmt"
	"os"

	"learnapp/cmd/adm/commands"
	"learnapp/internal/config"
	"learnapp/internal/database"
	"learnapp/internal/observability"
	"learnapp/internal/services"

	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Admin runs are short-lived; keep them quiet and off the collector
	cfg.Server.LogLevel = "error"
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	_, _, logger, err := observability.SetupObservabilityWithLevel(&cfg.OpenTelemetry, "learnapp-admin", cfg.Server.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	// Migrations are an explicit `db migrate` step here, never implicit
	dbManager := database.NewManager(logger)
	sqlDB, err := dbManager.InitDBWithoutMigrations(cfg.Database)
	if err != nil {
		logger.Error(ctx, "Failed to connect to database", err, map[string]interface{}{"db_url": commands.MaskDatabaseURL(cfg.Database.URL)})
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := sqlDB.Close(); err != nil {
			logger.Warn(ctx, "Failed to close database connection", map[string]interface{}{"error": err.Error()})
		}
	}()

	gormDB, err := database.OpenGorm(sqlDB, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to open database: %v\n", err)
		os.Exit(1)
	}

	userService := services.NewUserServiceWithLogger(gormDB, cfg, logger)

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Learning Platform Administration Tool",
		Long: `Learning Platform Administration Tool

Provides commands for user management and database maintenance.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.UserCommands(userService, logger, os.Stdout))
	rootCmd.AddCommand(commands.DatabaseCommands(dbManager, sqlDB, cfg.Database, logger, os.Stdout))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
