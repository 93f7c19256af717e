// Package queue is a durable visibility-timeout queue stored in SQLite.
//
// A claimed message stays invisible for Options.Visibility. Acking deletes
// it; a consumer that fails or dies without acking lets it reappear once
// the visibility window ends, so delivery is at-least-once. Several named
// queues share one table.
//
// Schema (EnsureTable):
//
//	CREATE TABLE IF NOT EXISTS queue_messages (
//	    id          TEXT PRIMARY KEY,
//	    queue       TEXT NOT NULL,
//	    body        BLOB,
//	    visible_at  INTEGER NOT NULL,  -- unix ms
//	    created_at  INTEGER NOT NULL,  -- unix ms
//	    deliveries  INTEGER NOT NULL DEFAULT 0
//	);
package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hazyhaar/gridsnap/internal/dbopen"
	"github.com/hazyhaar/gridsnap/internal/idgen"
)

// Message is one queued body.
type Message struct {
	ID         string
	Queue      string
	Body       []byte
	VisibleAt  time.Time
	CreatedAt  time.Time
	Deliveries int
}

// Options configures a queue handle.
type Options struct {
	// Name is the logical queue.
	Name string
	// Visibility is how long a claimed message stays hidden. Default: 30s.
	Visibility time.Duration
	// PollInterval is the idle delay of Run between empty claims.
	// Default: 1s.
	PollInterval time.Duration
	// MaxDeliveries discards a message claimed more often than this.
	// 0 means unlimited.
	MaxDeliveries int
	// NewID generates message IDs. Default: "msg_" + UUIDv7.
	NewID  idgen.Generator
	Logger *slog.Logger
}

func (o *Options) defaults() {
	if o.Visibility <= 0 {
		o.Visibility = 30 * time.Second
	}
	if o.PollInterval <= 0 {
		o.PollInterval = time.Second
	}
	if o.NewID == nil {
		o.NewID = idgen.Prefixed("msg_", idgen.UUIDv7())
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
}

// Q is a handle on one named queue.
type Q struct {
	db   *sql.DB
	opts Options
}

// New returns a handle. Call EnsureTable once before use.
func New(db *sql.DB, opts Options) *Q {
	opts.defaults()
	return &Q{db: db, opts: opts}
}

// Name returns the queue name.
func (q *Q) Name() string { return q.opts.Name }

// Visibility returns how long a claimed message stays hidden.
func (q *Q) Visibility() time.Duration { return q.opts.Visibility }

// EnsureTable creates the message table and its index.
func (q *Q) EnsureTable(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS queue_messages (
			id          TEXT PRIMARY KEY,
			queue       TEXT NOT NULL,
			body        BLOB,
			visible_at  INTEGER NOT NULL,
			created_at  INTEGER NOT NULL,
			deliveries  INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_queue_visible ON queue_messages (queue, visible_at);
	`)
	if err != nil {
		return fmt.Errorf("queue: ensure table: %w", err)
	}
	return nil
}

// Publish stores body as an immediately visible message and returns its ID.
func (q *Q) Publish(ctx context.Context, body []byte) (string, error) {
	id := q.opts.NewID()
	now := time.Now().UnixMilli()
	_, err := dbopen.Exec(ctx, q.db,
		`INSERT INTO queue_messages (id, queue, body, visible_at, created_at) VALUES (?,?,?,?,?)`,
		id, q.opts.Name, body, now, now,
	)
	if err != nil {
		return "", fmt.Errorf("queue: publish %s: %w", q.opts.Name, err)
	}
	return id, nil
}

// Claim hides the oldest visible message for the visibility window and
// returns it. It returns nil, nil when nothing is visible.
func (q *Q) Claim(ctx context.Context) (*Message, error) {
	now := time.Now()
	row := q.db.QueryRowContext(ctx, `
		UPDATE queue_messages
		SET visible_at = ?, deliveries = deliveries + 1
		WHERE id = (
			SELECT id FROM queue_messages
			WHERE queue = ? AND visible_at <= ?
			ORDER BY visible_at ASC, created_at ASC, rowid ASC
			LIMIT 1
		)
		RETURNING id, queue, body, visible_at, created_at, deliveries`,
		now.Add(q.opts.Visibility).UnixMilli(), q.opts.Name, now.UnixMilli(),
	)

	var m Message
	var visAt, creAt int64
	err := row.Scan(&m.ID, &m.Queue, &m.Body, &visAt, &creAt, &m.Deliveries)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("queue: claim %s: %w", q.opts.Name, err)
	}
	m.VisibleAt = time.UnixMilli(visAt)
	m.CreatedAt = time.UnixMilli(creAt)
	return &m, nil
}

// Ack deletes a processed message.
func (q *Q) Ack(ctx context.Context, id string) error {
	if _, err := dbopen.Exec(ctx, q.db,
		`DELETE FROM queue_messages WHERE id = ? AND queue = ?`, id, q.opts.Name,
	); err != nil {
		return fmt.Errorf("queue: ack %s: %w", id, err)
	}
	return nil
}

// Nack makes a claimed message visible again immediately.
func (q *Q) Nack(ctx context.Context, id string) error {
	if _, err := dbopen.Exec(ctx, q.db,
		`UPDATE queue_messages SET visible_at = 0 WHERE id = ? AND queue = ?`, id, q.opts.Name,
	); err != nil {
		return fmt.Errorf("queue: nack %s: %w", id, err)
	}
	return nil
}

// Extend keeps a claimed message hidden for another d.
func (q *Q) Extend(ctx context.Context, id string, d time.Duration) error {
	if _, err := dbopen.Exec(ctx, q.db,
		`UPDATE queue_messages SET visible_at = ? WHERE id = ? AND queue = ?`,
		time.Now().Add(d).UnixMilli(), id, q.opts.Name,
	); err != nil {
		return fmt.Errorf("queue: extend %s: %w", id, err)
	}
	return nil
}

// Len counts visible and hidden messages.
func (q *Q) Len(ctx context.Context) (int, error) {
	var n int
	if err := q.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM queue_messages WHERE queue = ?`, q.opts.Name,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("queue: len %s: %w", q.opts.Name, err)
	}
	return n, nil
}

// Purge deletes every message of the queue.
func (q *Q) Purge(ctx context.Context) error {
	if _, err := q.db.ExecContext(ctx,
		`DELETE FROM queue_messages WHERE queue = ?`, q.opts.Name,
	); err != nil {
		return fmt.Errorf("queue: purge %s: %w", q.opts.Name, err)
	}
	return nil
}

// Handler processes one message. A nil return acks it. On error the
// message stays hidden until its visibility window ends.
type Handler func(ctx context.Context, m *Message) error

// Run delivers messages to handler one at a time until ctx is done. The
// next message is claimed only after the previous one was handled.
func (q *Q) Run(ctx context.Context, handler Handler) error {
	log := q.opts.Logger
	log.Info("queue: consumer started", "queue", q.opts.Name, "visibility", q.opts.Visibility)
	defer log.Info("queue: consumer stopped", "queue", q.opts.Name)

	for {
		handled, err := q.next(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			log.Warn("queue: delivery failed", "queue", q.opts.Name, "error", err)
		}
		if handled {
			continue
		}
		t := time.NewTimer(q.opts.PollInterval)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
	}
}

// next claims and handles at most one message.
func (q *Q) next(ctx context.Context, handler Handler) (bool, error) {
	log := q.opts.Logger
	m, err := q.Claim(ctx)
	if err != nil || m == nil {
		return false, err
	}

	if q.opts.MaxDeliveries > 0 && m.Deliveries > q.opts.MaxDeliveries {
		log.Warn("queue: max deliveries exceeded, discarding",
			"id", m.ID, "deliveries", m.Deliveries, "queue", q.opts.Name)
		return true, q.Ack(ctx, m.ID)
	}

	if err := handler(ctx, m); err != nil {
		log.Warn("queue: handler failed, message will be redelivered",
			"id", m.ID, "error", err, "queue", q.opts.Name, "after", q.opts.Visibility)
		return true, nil
	}
	if err := q.Ack(context.WithoutCancel(ctx), m.ID); err != nil {
		log.Warn("queue: ack failed", "id", m.ID, "error", err)
	}
	return true, nil
}
