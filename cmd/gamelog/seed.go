package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"gamelog/config"
	"gamelog/db"
	"gamelog/seeder"
	"gamelog/utils"

	"github.com/spf13/cobra"
)

var seedOpts struct {
	page     int
	pageSize int
	workers  int
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import games from RAWG into the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		return seed()
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.page, "page", 1, "RAWG page to import")
	seedCmd.Flags().IntVar(&seedOpts.pageSize, "page-size", 20, "records per page")
	seedCmd.Flags().IntVar(&seedOpts.workers, "workers", seeder.DefaultWorkers, "concurrent upserts")
	rootCmd.AddCommand(seedCmd)
}

func seed() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := utils.InitLogger(cfg.LogLevel, cfg.IsRelease())

	// fail before touching the network or the database
	client, err := seeder.NewClient(cfg.RawgBaseURL, cfg.RawgAPIKey, nil)
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(cfg.DatabaseURL, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	summary, err := seeder.New(gdb, client, log, seedOpts.workers).Run(ctx, seedOpts.page, seedOpts.pageSize)
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	log.WithField("fetched", summary.Fetched).
		WithField("upserted", summary.Upserted).
		WithField("failed", summary.Failed).
		Info("Seeding complete")
	return nil
}
