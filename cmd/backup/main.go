package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SeedLab/internal/auth"
	"SeedLab/internal/config"
	"SeedLab/internal/export"
	"SeedLab/internal/logging"
	"SeedLab/internal/repo"
)

func main() {
	every := flag.Duration("every", 0, "repeat the backup at this interval; 0 runs once")
	flag.Parse()

	if err := run(*every); err != nil {
		slog.Error("backup failed", "error", err)
		os.Exit(1)
	}
}

func run(every time.Duration) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := auth.InitDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	store := repo.NewPostgresLabDB(db)

	backup := func() error {
		path, err := export.WriteBackup(ctx, store, cfg.BackupDir, time.Now())
		if err != nil {
			return err
		}
		slog.Info("backup written", "path", path)
		return nil
	}

	if err := backup(); err != nil {
		return err
	}
	if every <= 0 {
		return nil
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("backup loop stopped")
			return nil
		case <-ticker.C:
			if err := backup(); err != nil {
				slog.Error("backup failed", "error", err)
			}
		}
	}
}
