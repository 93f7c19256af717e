package reporter

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/hazyhaar/gridsnap/internal/idgen"
)

// Config configures a Reporter.
type Config struct {
	// NewID generates run, suite and case IDs. Default: UUIDv7.
	NewID idgen.Generator
	// Now stamps start and end times. Default: time.Now.
	Now    func() time.Time
	Logger *slog.Logger
}

// Reporter publishes the events of one test run.
type Reporter struct {
	sink  Sink
	runID string
	cfg   Config
}

// New starts a run that publishes to sink.
func New(sink Sink, cfg Config) *Reporter {
	if cfg.NewID == nil {
		cfg.NewID = idgen.UUIDv7()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Reporter{sink: sink, runID: cfg.NewID(), cfg: cfg}
}

// RunID identifies the run in every event.
func (r *Reporter) RunID() string { return r.runID }

// Close closes the sink.
func (r *Reporter) Close() error { return r.sink.Close() }

func (r *Reporter) publish(ctx context.Context, event string, d Data) error {
	d.TestRunID = r.runID
	return r.sink.Publish(ctx, Message{Event: event, Data: d})
}

func (r *Reporter) now() *time.Time {
	t := r.cfg.Now()
	return &t
}

// Suite groups test cases. It is safe for concurrent use by parallel
// tests.
type Suite struct {
	r     *Reporter
	id    string
	title string

	mu     sync.Mutex
	failed int
	ended  bool
}

// Suite publishes a suite start event.
func (r *Reporter) Suite(ctx context.Context, title string) (*Suite, error) {
	s := &Suite{r: r, id: r.cfg.NewID(), title: title}
	err := r.publish(ctx, EventSuite, Data{
		StartTime:   r.now(),
		TestSuiteID: s.id,
		Title:       title,
		Status:      StatusRunning,
	})
	return s, err
}

// ID identifies the suite.
func (s *Suite) ID() string { return s.id }

// End publishes the suite end event: failed when any case failed, passed
// otherwise. Only the first call publishes.
func (s *Suite) End(ctx context.Context) error {
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil
	}
	s.ended = true
	status := StatusPassed
	if s.failed > 0 {
		status = StatusFailed
	}
	s.mu.Unlock()

	return s.r.publish(ctx, EventSuiteEnd, Data{
		EndTime:     s.r.now(),
		TestSuiteID: s.id,
		Title:       s.title,
		Status:      status,
	})
}

// Case is one test case of a suite.
type Case struct {
	s     *Suite
	id    string
	title string

	mu    sync.Mutex
	state string
}

// Test publishes a test start event.
func (s *Suite) Test(ctx context.Context, title string) (*Case, error) {
	c := &Case{s: s, id: s.r.cfg.NewID(), title: title, state: StatusPending}
	err := s.r.publish(ctx, EventTest, Data{
		StartTime:   s.r.now(),
		TestSuiteID: s.id,
		TestCaseID:  c.id,
		Title:       title,
		Status:      StatusRunning,
	})
	return c, err
}

// ID identifies the case.
func (c *Case) ID() string { return c.id }

// Pass publishes a pass event.
func (c *Case) Pass(ctx context.Context) error {
	c.mu.Lock()
	c.state = StatusPassed
	c.mu.Unlock()
	return c.s.r.publish(ctx, EventPass, Data{
		TestSuiteID: c.s.id,
		TestCaseID:  c.id,
		Title:       c.title,
		Status:      StatusPassed,
	})
}

// Fail publishes a fail event carrying err and marks the suite failed.
func (c *Case) Fail(ctx context.Context, err error) error {
	c.mu.Lock()
	c.state = StatusFailed
	c.mu.Unlock()
	c.s.mu.Lock()
	c.s.failed++
	c.s.mu.Unlock()

	d := Data{
		TestSuiteID: c.s.id,
		TestCaseID:  c.id,
		Title:       c.title,
		Status:      StatusFailed,
	}
	if err != nil {
		d.Error = err.Error()
	}
	return c.s.r.publish(ctx, EventFail, d)
}

// End publishes a test end event with the case's final state: passed,
// failed, or pending when neither Pass nor Fail was called.
func (c *Case) End(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	return c.s.r.publish(ctx, EventTestEnd, Data{
		EndTime:     c.s.r.now(),
		TestSuiteID: c.s.id,
		TestCaseID:  c.id,
		Title:       c.title,
		Status:      state,
	})
}

// Track reports t as a case of the suite: a test start now, then pass or
// fail and test end when t finishes. Publish errors are logged, never
// reported as test failures.
func (s *Suite) Track(t testing.TB) *Case {
	t.Helper()
	log := s.r.cfg.Logger
	ctx := context.Background()

	c, err := s.Test(ctx, t.Name())
	if err != nil {
		log.Warn("reporter: test start not published", "test", t.Name(), "error", err)
	}
	t.Cleanup(func() {
		switch {
		case t.Failed():
			err = c.Fail(ctx, errTestFailed)
		case t.Skipped():
			// Skipped tests stay pending.
			err = nil
		default:
			err = c.Pass(ctx)
		}
		if err != nil {
			log.Warn("reporter: result not published", "test", t.Name(), "error", err)
		}
		if err := c.End(ctx); err != nil {
			log.Warn("reporter: test end not published", "test", t.Name(), "error", err)
		}
	})
	return c
}

var errTestFailed = errors.New("test failed")
