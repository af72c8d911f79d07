package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"careerflow/internal/common/database"
	"careerflow/internal/common/logger"
	"careerflow/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}
	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)

	pg, err := connectPostgres(cmd.Context(), cfg.Database.Postgres, log)
	if err != nil {
		return err
	}
	defer pg.Close()

	if err := database.Migrate(cmd.Context(), pg.DB, store.Schema); err != nil {
		return err
	}
	log.Info("Migrations applied", map[string]interface{}{"statements": len(store.Schema)})
	return nil
}
