package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/easeaico/tryangel/internal/config"
	"github.com/easeaico/tryangel/internal/storage"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply PostgreSQL schema migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.StorageBackend != config.BackendPostgres {
			return errors.New("migrate requires STORAGE_BACKEND=postgres")
		}

		store, err := storage.NewStore(cmd.Context(), cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Migrate(cmd.Context()); err != nil {
			return err
		}
		slog.Info("migrations applied")
		return nil
	},
}
