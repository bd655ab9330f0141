package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pdf-saas/orchestrator/internal/config"
	"github.com/pdf-saas/orchestrator/internal/store"
	"github.com/pdf-saas/orchestrator/pkg/log"
	"github.com/pdf-saas/orchestrator/pkg/migrations"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the db",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.New()
		if err != nil {
			return err
		}

		undo := log.Setup(cfg.Service.LogLevel)
		defer undo()

		zap.S().Info("Initializing data store")
		db, err := store.InitDB(cfg)
		if err != nil {
			zap.S().Fatalw("initializing data store", "error", err)
		}

		s := store.NewStore(db)
		defer s.Close()

		if err := migrations.MigrateStore(db, cfg.Database.Type); err != nil {
			zap.S().Fatalw("running migrations", "error", err)
		}
		zap.S().Info("Db migrated")

		return nil
	},
}
