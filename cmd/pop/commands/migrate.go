package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"proof-of-portfolio/internal/config"
	"proof-of-portfolio/internal/logger"
	"proof-of-portfolio/internal/storage/migrations"
	pgstore "proof-of-portfolio/internal/storage/postgres"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the embedded database migrations",
	Long: `Applies the PostgreSQL migrations (evaluations, signal_commitments) and,
when CLICKHOUSE_DSN is set, the ClickHouse migrations (daily_returns).

Example:
  POSTGRES_DSN=postgres://... CLICKHOUSE_DSN=clickhouse://... pop migrate`,
	RunE: runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	rt, err := config.LoadRuntime()
	if err != nil {
		return err
	}
	log := logger.New(logger.Options{Level: rt.LogLevel, Format: rt.LogFormat, Component: "migrate"})

	if rt.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	pool, err := pgstore.NewPool(ctx, rt.PostgresDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	applied, err := migrations.RunPostgresMigrations(ctx, pool)
	if err != nil {
		return err
	}
	log.Infof("postgres migrations applied: %d new", applied)

	if rt.ClickHouseDSN == "" {
		log.Info("CLICKHOUSE_DSN not set, skipping clickhouse migrations")
		return nil
	}
	conn, err := migrations.RunClickhouseMigrations(ctx, rt.ClickHouseDSN)
	if err != nil {
		return err
	}
	defer conn.Close()
	log.Info("clickhouse migrations applied")
	return nil
}
