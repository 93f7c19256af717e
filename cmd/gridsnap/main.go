// Command gridsnap reads ag-Grid tables out of live pages.
//
// Usage:
//
//	gridsnap -url http://127.0.0.1:8080/grid             # print the grid as JSON
//	gridsnap -url ... -format markdown -only Make,Price   # selected columns as a table
//	gridsnap -url ... -check expected.json                # validate every page, report events
//	gridsnap -serve                                       # serve the fixture pages
//	gridsnap -mcp -url ...                                # grid tools over MCP stdio
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/hazyhaar/gridsnap/fixture"
	"github.com/hazyhaar/gridsnap/grid"
	"github.com/hazyhaar/gridsnap/internal/browser"
	"github.com/hazyhaar/gridsnap/internal/config"
	"github.com/hazyhaar/gridsnap/render"
	"github.com/hazyhaar/gridsnap/reporter"
	"github.com/hazyhaar/gridsnap/snapshot"
)

const version = "0.1.0"

type options struct {
	configPath string
	url        string
	format     string
	only       []string
	check      string
	serve      bool
	mcp        bool
}

func main() {
	var o options
	flag.StringVar(&o.configPath, "config", "", "path to gridsnap.yaml config file")
	flag.StringVar(&o.url, "url", "", "page holding the grid (overrides grid.url)")
	flag.StringVar(&o.format, "format", "json", "output format: json, markdown, html")
	only := flag.String("only", "", "comma-separated column labels to keep")
	flag.StringVar(&o.check, "check", "", "validate the paginated grid against a JSON file of expected pages")
	flag.BoolVar(&o.serve, "serve", false, "serve the fixture pages")
	flag.BoolVar(&o.mcp, "mcp", false, "serve the grid tools over MCP stdio")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	flag.Parse()
	o.only = splitList(*only)

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

	if err := run(ctx, logger, o); err != nil {
		logger.Error("gridsnap: fatal", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, o options) error {
	cfg := config.Default()
	if o.configPath != "" {
		var err error
		if cfg, err = config.LoadFile(o.configPath); err != nil {
			return err
		}
	}
	if o.url != "" {
		cfg.Grid.URL = o.url
	}

	if o.serve {
		return runServe(ctx, logger, cfg.Server.Addr)
	}
	if cfg.Grid.URL == "" {
		fmt.Fprintln(os.Stderr, "usage: gridsnap -url <page> [-format json|markdown|html] [-only cols] [-check file] | -serve | -mcp -url <page>")
		os.Exit(2)
	}

	cfg.Browser.Logger = logger
	m := browser.NewManager(cfg.Browser)
	if _, err := m.Start(ctx); err != nil {
		return err
	}
	defer m.Close()
	page, err := m.OpenPage(ctx, cfg.Grid.URL)
	if err != nil {
		return err
	}
	defer page.Close()
	g := grid.New(page, cfg.Grid.Selector, cfg.Grid.Options(logger))

	switch {
	case o.mcp:
		return runMCP(ctx, logger, g)
	case o.check != "":
		return runCheck(ctx, logger, cfg, g, o)
	default:
		return runRead(ctx, os.Stdout, g, o)
	}
}

func runRead(ctx context.Context, w io.Writer, g *grid.Grid, o options) error {
	snap, err := g.Snapshot(ctx, snapshot.Options{OnlyColumns: o.only})
	if err != nil {
		return err
	}
	return writeSnapshot(w, snap, o.format)
}

func writeSnapshot(w io.Writer, snap *snapshot.Snapshot, format string) error {
	switch format {
	case "json", "":
		return render.JSON(w, snap)
	case "markdown", "md":
		md, err := render.Markdown(snap)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, md)
		return err
	case "html":
		_, err := fmt.Fprintln(w, render.HTML(snap))
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

func runCheck(ctx context.Context, logger *slog.Logger, cfg *config.Config, g *grid.Grid, o options) error {
	expected, err := loadExpected(o.check)
	if err != nil {
		return err
	}
	sink, err := buildSinks(ctx, logger, cfg)
	if err != nil {
		return err
	}
	rep := reporter.New(sink, reporter.Config{Logger: logger})
	defer rep.Close()

	suite, err := rep.Suite(ctx, cfg.Grid.URL)
	if err != nil {
		logger.Warn("gridsnap: suite start not published", "error", err)
	}
	c, err := suite.Test(ctx, fmt.Sprintf("%d pages match %s", len(expected), o.check))
	if err != nil {
		logger.Warn("gridsnap: test start not published", "error", err)
	}

	checkErr := g.ValidatePaginatedTable(ctx, expected, o.only...)
	if checkErr != nil {
		err = c.Fail(ctx, checkErr)
	} else {
		err = c.Pass(ctx)
	}
	err = errors.Join(err, c.End(ctx), suite.End(ctx))
	if err != nil {
		logger.Warn("gridsnap: events not published", "error", err)
	}
	return checkErr
}

// loadExpected reads a JSON array of pages, each an array of records.
func loadExpected(path string) ([][]snapshot.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("expected pages: %w", err)
	}
	var pages [][]snapshot.Record
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("expected pages %s: %w", path, err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("expected pages %s: no pages", path)
	}
	return pages, nil
}

func runMCP(ctx context.Context, logger *slog.Logger, g *grid.Grid) error {
	srv := mcp.NewServer(&mcp.Implementation{Name: "gridsnap", Version: version}, nil)
	grid.RegisterMCP(srv, g, logger)
	logger.Info("gridsnap: mcp serving on stdio", "grid", g.Selector())
	return srv.Run(ctx, &mcp.StdioTransport{})
}

func runServe(ctx context.Context, logger *slog.Logger, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           fixture.Router(logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("gridsnap: fixture server listening", "addr", addr)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
