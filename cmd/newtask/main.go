// Command newtask sends one task to the work queue. Each '.' in the body is
// one unit of simulated work for the worker.
//
// Usage:
//
//	newtask First message.
//	newtask -config gridsnap.yaml Third message...
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hazyhaar/gridsnap/internal/config"
	"github.com/hazyhaar/gridsnap/internal/dbopen"
	"github.com/hazyhaar/gridsnap/internal/queue"
	"github.com/hazyhaar/gridsnap/tasks"
)

func main() {
	configPath := flag.String("config", "", "path to gridsnap.yaml config file")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *configPath, flag.Args()); err != nil {
		logger.Error("newtask: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, configPath string, args []string) error {
	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.LoadFile(configPath); err != nil {
			return err
		}
	}

	db, err := dbopen.Open(cfg.Queue.DB, dbopen.WithMkdirAll())
	if err != nil {
		return err
	}
	defer db.Close()

	q := queue.New(db, queue.Options{Name: cfg.Queue.Name, Logger: logger})
	if err := q.EnsureTable(ctx); err != nil {
		return err
	}
	_, err = tasks.NewProducer(q, logger).Send(ctx, tasks.BodyFromArgs(args))
	return err
}
