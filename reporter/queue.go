package reporter

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hazyhaar/gridsnap/internal/queue"
)

// QueueSink copies every message into each bound queue, so every consumer
// queue receives its own copy.
type QueueSink struct {
	queues []*queue.Q
}

// NewQueueSink binds the sink to the named queues on db, creating the
// queue table if needed.
func NewQueueSink(ctx context.Context, db *sql.DB, names []string, logger *slog.Logger) (*QueueSink, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("reporter: queue sink: no queues bound")
	}
	s := &QueueSink{}
	for _, name := range names {
		q := queue.New(db, queue.Options{Name: name, Logger: logger})
		if err := q.EnsureTable(ctx); err != nil {
			return nil, fmt.Errorf("reporter: queue sink: %w", err)
		}
		s.queues = append(s.queues, q)
	}
	return s, nil
}

func (s *QueueSink) Publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("reporter: queue sink: marshal: %w", err)
	}
	for _, q := range s.queues {
		if _, err := q.Publish(ctx, body); err != nil {
			return fmt.Errorf("reporter: queue sink: %w", err)
		}
	}
	return nil
}

func (s *QueueSink) Close() error { return nil }
