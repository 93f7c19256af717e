package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hazyhaar/gridsnap/internal/config"
	"github.com/hazyhaar/gridsnap/internal/dbopen"
	"github.com/hazyhaar/gridsnap/reporter"
)

// buildSinks turns the reporter section into one router. Queue sinks share
// the queue database.
func buildSinks(ctx context.Context, logger *slog.Logger, cfg *config.Config) (*reporter.Router, error) {
	var sinks []reporter.Sink
	for _, sc := range cfg.Reporter.Sinks {
		switch sc.Type {
		case "stdout":
			sinks = append(sinks, reporter.NewStdout(os.Stdout))
		case "webhook":
			sinks = append(sinks, reporter.NewWebhook(sc.URL, reporter.WebhookConfig{Logger: logger}))
		case "queue":
			db, err := dbopen.Open(cfg.Queue.DB, dbopen.WithMkdirAll())
			if err != nil {
				return nil, fmt.Errorf("queue sink: %w", err)
			}
			s, err := reporter.NewQueueSink(ctx, db, sc.Queues, logger)
			if err != nil {
				db.Close()
				return nil, err
			}
			sinks = append(sinks, dbCloser{s, db})
		default:
			logger.Warn("gridsnap: unknown sink type", "type", sc.Type)
		}
	}
	if len(sinks) == 0 {
		sinks = append(sinks, reporter.NewStdout(os.Stdout))
	}
	return reporter.NewRouter(logger, sinks...), nil
}

// dbCloser closes the sink's database with the sink.
type dbCloser struct {
	reporter.Sink
	db interface{ Close() error }
}

func (d dbCloser) Close() error {
	err := d.Sink.Close()
	if cerr := d.db.Close(); err == nil {
		err = cerr
	}
	return err
}
