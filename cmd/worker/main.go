// Command worker consumes the work queue, one task at a time per worker.
// Tasks left unacknowledged by a stopped worker are redelivered once their
// visibility window ends.
//
// Usage:
//
//	worker
//	worker -config gridsnap.yaml -workers 2
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/hazyhaar/gridsnap/internal/config"
	"github.com/hazyhaar/gridsnap/internal/dbopen"
	"github.com/hazyhaar/gridsnap/internal/queue"
	"github.com/hazyhaar/gridsnap/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to gridsnap.yaml config file")
	workers := flag.Int("workers", 0, "concurrent workers (overrides queue.workers)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()

	var level slog.Level
	switch *logLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, *workers); err != nil {
		logger.Error("worker: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, workers int) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}
	if workers <= 0 {
		workers = cfg.Queue.Workers
	}

	db, err := dbopen.Open(cfg.Queue.DB, dbopen.WithMkdirAll())
	if err != nil {
		return err
	}
	defer db.Close()

	q := queue.New(db, queue.Options{
		Name:         cfg.Queue.Name,
		Visibility:   cfg.Queue.Visibility,
		PollInterval: cfg.Queue.PollInterval,
		Logger:       logger,
	})
	if err := q.EnsureTable(ctx); err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	for i := range workers {
		w := tasks.NewWorker(q, tasks.WorkerConfig{
			Unit:      cfg.Queue.WorkUnit,
			Heartbeat: cfg.Queue.Heartbeat,
			Logger:    logger.With("worker", i),
		})
		g.Go(func() error {
			if err := w.Run(ctx); err != nil {
				return fmt.Errorf("worker %d: %w", i, err)
			}
			return nil
		})
	}
	logger.Info("worker: started", "workers", workers, "queue", cfg.Queue.Name, "db", cfg.Queue.DB)
	return g.Wait()
}
