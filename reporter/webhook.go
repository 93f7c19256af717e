package reporter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// WebhookConfig configures a Webhook sink.
type WebhookConfig struct {
	// Attempts is the number of deliveries tried per message. Default: 4.
	Attempts int
	// Backoff is the wait before the second attempt; it doubles after
	// each further failure. Default: 1s.
	Backoff time.Duration
	// Client defaults to an http.Client with a 10s timeout.
	Client *http.Client
	Logger *slog.Logger
}

// StatusError is a non-2xx webhook response.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook: status %d %s", e.Code, http.StatusText(e.Code))
}

// Temporary reports whether another attempt may succeed: server errors
// and 429.
func (e *StatusError) Temporary() bool {
	return e.Code >= 500 || e.Code == http.StatusTooManyRequests
}

// Webhook POSTs every message as JSON to one URL.
type Webhook struct {
	url string
	cfg WebhookConfig
}

// NewWebhook returns a Webhook sink targeting url.
func NewWebhook(url string, cfg WebhookConfig) *Webhook {
	if cfg.Attempts <= 0 {
		cfg.Attempts = 4
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Client == nil {
		cfg.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Webhook{url: url, cfg: cfg}
}

// Publish delivers m, retrying transport failures and temporary statuses.
func (w *Webhook) Publish(ctx context.Context, m Message) error {
	body, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("webhook: marshal: %w", err)
	}

	wait := w.cfg.Backoff
	for attempt := 1; ; attempt++ {
		err = w.send(ctx, body)
		if err == nil {
			return nil
		}
		var se *StatusError
		if errors.As(err, &se) && !se.Temporary() {
			return err
		}
		if attempt == w.cfg.Attempts {
			return fmt.Errorf("webhook: %d attempts failed: %w", attempt, err)
		}
		w.cfg.Logger.Warn("webhook: delivery failed",
			"event", m.Event, "attempt", attempt, "retry_in", wait, "error", err)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
		wait *= 2
	}
}

// send makes one delivery attempt.
func (w *Webhook) send(ctx context.Context, body []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.cfg.Client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: post: %w", err)
	}
	resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

func (w *Webhook) Close() error { return nil }

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
