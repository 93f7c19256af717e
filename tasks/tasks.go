// Package tasks is a work queue demo on the durable queue: producers send
// task bodies, workers take one task at a time, simulate work for one
// time unit per '.' in the body and acknowledge when done. A worker that
// dies mid-task lets the task reappear once its visibility window ends.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hazyhaar/gridsnap/internal/queue"
)

// DefaultBody is sent when the producer is given no body.
const DefaultBody = "Hello World!"

// WorkFor is the simulated duration of a task: one unit per '.'.
func WorkFor(body string, unit time.Duration) time.Duration {
	return time.Duration(strings.Count(body, ".")) * unit
}

// BodyFromArgs joins command-line words into a task body.
func BodyFromArgs(args []string) string {
	if b := strings.Join(args, " "); b != "" {
		return b
	}
	return DefaultBody
}

// Producer sends tasks.
type Producer struct {
	q      *queue.Q
	logger *slog.Logger
}

// NewProducer returns a Producer publishing to q.
func NewProducer(q *queue.Q, logger *slog.Logger) *Producer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Producer{q: q, logger: logger}
}

// Send stores a durable task and returns its ID. An empty body sends
// DefaultBody.
func (p *Producer) Send(ctx context.Context, body string) (string, error) {
	if body == "" {
		body = DefaultBody
	}
	id, err := p.q.Publish(ctx, []byte(body))
	if err != nil {
		return "", fmt.Errorf("tasks: send: %w", err)
	}
	p.logger.Info("tasks: sent", "id", id, "queue", p.q.Name(), "body", body)
	return id, nil
}

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	// Unit is the simulated work per '.'. Default: 1s.
	Unit time.Duration
	// Heartbeat extends the task's visibility at this interval while it is
	// being worked on. Zero disables it.
	Heartbeat time.Duration
	// OnDone is called after a task was processed, before the ack.
	OnDone func(id, body string)
	Logger *slog.Logger
}

// Worker consumes tasks one at a time.
type Worker struct {
	q   *queue.Q
	cfg WorkerConfig
}

// NewWorker returns a Worker consuming q.
func NewWorker(q *queue.Q, cfg WorkerConfig) *Worker {
	if cfg.Unit <= 0 {
		cfg.Unit = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Worker{q: q, cfg: cfg}
}

// Run processes tasks until ctx is done. The next task is claimed only
// after the previous one was acknowledged.
func (w *Worker) Run(ctx context.Context) error {
	w.cfg.Logger.Info("tasks: waiting for messages", "queue", w.q.Name())
	return w.q.Run(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, m *queue.Message) error {
	log := w.cfg.Logger
	body := string(m.Body)
	log.Info("tasks: received", "id", m.ID, "body", body, "delivery", m.Deliveries)

	if err := w.work(ctx, m.ID, WorkFor(body, w.cfg.Unit)); err != nil {
		return fmt.Errorf("tasks: work %s: %w", m.ID, err)
	}
	log.Info("tasks: done", "id", m.ID)
	if w.cfg.OnDone != nil {
		w.cfg.OnDone(m.ID, body)
	}
	return nil
}

// work waits d, keeping the task hidden with heartbeats meanwhile.
func (w *Worker) work(ctx context.Context, id string, d time.Duration) error {
	done := time.NewTimer(d)
	defer done.Stop()

	var beat <-chan time.Time
	if w.cfg.Heartbeat > 0 {
		t := time.NewTicker(w.cfg.Heartbeat)
		defer t.Stop()
		beat = t.C
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done.C:
			return nil
		case <-beat:
			if err := w.q.Extend(ctx, id, w.q.Visibility()); err != nil {
				w.cfg.Logger.Warn("tasks: heartbeat failed", "id", id, "error", err)
			}
		}
	}
}
