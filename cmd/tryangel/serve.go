package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/easeaico/tryangel/internal/config"
	"github.com/easeaico/tryangel/internal/scheduler"
	"github.com/easeaico/tryangel/internal/server"
	"github.com/easeaico/tryangel/internal/storage"
)

var (
	serveMigrate bool
	serveNoSweep bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP companion service",
	Long: `Run the HTTP companion service and the scheduled dropout risk sweep.

Examples:
  # Serve with file storage
  tryangel serve

  # Serve from PostgreSQL, applying migrations first
  STORAGE_BACKEND=postgres DATABASE_URL=postgres://... tryangel serve --migrate`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply database migrations before serving (postgres backend)")
	serveCmd.Flags().BoolVar(&serveNoSweep, "no-sweep", false, "disable the scheduled dropout risk sweep")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, closeRepo, err := openRepository(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	if store, ok := repo.(*storage.Store); ok && serveMigrate {
		if err := store.Migrate(ctx); err != nil {
			return err
		}
	}

	svc, voices, err := newCompanion(ctx, cfg, repo)
	if err != nil {
		return err
	}

	srv, err := server.NewServer(svc, voices, server.Config{
		Addr:       cfg.HTTPAddr,
		SpeakRate:  cfg.SpeakRatePerSecond,
		SpeakBurst: cfg.SpeakBurst,
	})
	if err != nil {
		return err
	}

	if !serveNoSweep {
		sched := scheduler.New(scheduler.NewRiskSweeper(svc.Learner(), cfg.RiskAlertThreshold), cfg.RiskSweepSpec)
		if err := sched.Start(); err != nil {
			return err
		}
		defer sched.Stop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to shut down http server: %w", err)
	}
	slog.Info("server stopped")
	return nil
}
