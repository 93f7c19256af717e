// Package config loads the gridsnap YAML configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/gridsnap/grid"
	"github.com/hazyhaar/gridsnap/internal/browser"
	"github.com/hazyhaar/gridsnap/snapshot"
)

// Config is the top-level configuration.
type Config struct {
	Browser  browser.Config `yaml:"browser"`
	Grid     GridConfig     `yaml:"grid"`
	Reporter ReporterConfig `yaml:"reporter"`
	Queue    QueueConfig    `yaml:"queue"`
	Server   ServerConfig   `yaml:"server"`
}

// GridConfig locates the grid and tunes the interaction helpers.
type GridConfig struct {
	URL            string          `yaml:"url"`
	Selector       string          `yaml:"selector"`
	SettleTimeout  time.Duration   `yaml:"settle_timeout"`
	ClickDelay     time.Duration   `yaml:"click_delay"`
	FilterDelay    time.Duration   `yaml:"filter_delay"`
	ActionTimeout  time.Duration   `yaml:"action_timeout"`
	SelectAllText  string          `yaml:"select_all_text"`
	HasApplyButton bool            `yaml:"has_apply_button"`
	NoMenuTabs     bool            `yaml:"no_menu_tabs"`
	Layout         snapshot.Layout `yaml:"layout"`
}

// Options converts the grid section into interaction options.
func (g GridConfig) Options(logger *slog.Logger) grid.Config {
	return grid.Config{
		Layout:         g.Layout,
		SettleTimeout:  g.SettleTimeout,
		ClickDelay:     g.ClickDelay,
		FilterDelay:    g.FilterDelay,
		ActionTimeout:  g.ActionTimeout,
		SelectAllText:  g.SelectAllText,
		HasApplyButton: g.HasApplyButton,
		NoMenuTabs:     g.NoMenuTabs,
		Logger:         logger,
	}
}

// ReporterConfig lists where test lifecycle events go.
type ReporterConfig struct {
	Sinks []SinkConfig `yaml:"sinks"`
}

// SinkConfig defines one event sink.
type SinkConfig struct {
	Type string `yaml:"type"` // stdout | webhook | queue
	URL  string `yaml:"url"`  // webhook
	// Queues are the queue names a queue sink copies every event into.
	Queues []string `yaml:"queues"`
}

// QueueConfig configures the SQLite-backed queues.
type QueueConfig struct {
	DB           string        `yaml:"db"`
	Name         string        `yaml:"name"`
	Visibility   time.Duration `yaml:"visibility"`
	PollInterval time.Duration `yaml:"poll_interval"`
	// WorkUnit is the simulated work per '.' in a task body.
	WorkUnit time.Duration `yaml:"work_unit"`
	// Heartbeat extends a task's visibility while a worker holds it.
	Heartbeat time.Duration `yaml:"heartbeat"`
	Workers   int           `yaml:"workers"`
}

// ServerConfig configures the fixture HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	var c Config
	c.applyDefaults()
	return &c
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML and applies defaults.
func Parse(data []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	c.applyDefaults()
	return &c, nil
}

func (c *Config) validate() error {
	for i, s := range c.Reporter.Sinks {
		switch s.Type {
		case "stdout":
		case "webhook":
			if s.URL == "" {
				return fmt.Errorf("config: reporter sink %d: webhook needs url", i)
			}
		case "queue":
			if len(s.Queues) == 0 {
				return fmt.Errorf("config: reporter sink %d: queue sink needs queues", i)
			}
		default:
			return fmt.Errorf("config: reporter sink %d: unknown type %q", i, s.Type)
		}
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Browser.NavigateTimeout <= 0 {
		c.Browser.NavigateTimeout = 30 * time.Second
	}
	if c.Grid.Selector == "" {
		c.Grid.Selector = "#myGrid"
	}
	if c.Grid.SettleTimeout <= 0 {
		c.Grid.SettleTimeout = 10 * time.Second
	}
	if c.Grid.ClickDelay <= 0 {
		c.Grid.ClickDelay = 250 * time.Millisecond
	}
	if c.Grid.FilterDelay <= 0 {
		c.Grid.FilterDelay = 500 * time.Millisecond
	}
	if c.Grid.ActionTimeout <= 0 {
		c.Grid.ActionTimeout = 10 * time.Second
	}
	if c.Grid.SelectAllText == "" {
		c.Grid.SelectAllText = "Select All"
	}
	if len(c.Reporter.Sinks) == 0 {
		c.Reporter.Sinks = []SinkConfig{{Type: "stdout"}}
	}
	if c.Queue.DB == "" {
		c.Queue.DB = "gridsnap.db"
	}
	if c.Queue.Name == "" {
		c.Queue.Name = "task_queue"
	}
	if c.Queue.Visibility <= 0 {
		c.Queue.Visibility = 30 * time.Second
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = time.Second
	}
	if c.Queue.WorkUnit <= 0 {
		c.Queue.WorkUnit = time.Second
	}
	if c.Queue.Heartbeat <= 0 {
		c.Queue.Heartbeat = c.Queue.Visibility / 3
	}
	if c.Queue.Workers <= 0 {
		c.Queue.Workers = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = "127.0.0.1:8080"
	}
}
