package reporter

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"sync"
)

// Sink delivers messages to one backend.
type Sink interface {
	Publish(ctx context.Context, m Message) error
	Close() error
}

// Router fans a message out to every sink. One sink error does not block
// the others; errors are logged and the first one is returned.
type Router struct {
	sinks  []Sink
	logger *slog.Logger
}

// NewRouter creates a fan-out router.
func NewRouter(logger *slog.Logger, sinks ...Sink) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{sinks: sinks, logger: logger}
}

func (r *Router) Publish(ctx context.Context, m Message) error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Publish(ctx, m); err != nil {
			r.logger.Warn("reporter: publish failed", "event", m.Event, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (r *Router) Close() error {
	var firstErr error
	for _, s := range r.sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Stdout writes JSON lines to an io.Writer (default os.Stdout).
type Stdout struct {
	mu  sync.Mutex
	enc *json.Encoder
}

// NewStdout creates a Stdout sink. If w is nil, os.Stdout is used.
func NewStdout(w io.Writer) *Stdout {
	if w == nil {
		w = os.Stdout
	}
	return &Stdout{enc: json.NewEncoder(w)}
}

func (s *Stdout) Publish(_ context.Context, m Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enc.Encode(m)
}

func (s *Stdout) Close() error { return nil }

// Callback delivers messages to a Go function in the same process.
type Callback struct {
	fn func(context.Context, Message) error
}

// NewCallback creates a Callback sink. A nil fn drops every message.
func NewCallback(fn func(context.Context, Message) error) *Callback {
	return &Callback{fn: fn}
}

func (c *Callback) Publish(ctx context.Context, m Message) error {
	if c.fn == nil {
		return nil
	}
	return c.fn(ctx, m)
}

func (c *Callback) Close() error { return nil }
