package snapshot

import (
	"log/slog"
	"time"
)

// Layout names the DOM conventions of the grid widget: which selectors
// find headers, regions, rows and cells, and which attributes carry the
// row and column positions.
type Layout struct {
	Root        string   `yaml:"root"`
	HeaderCell  string   `yaml:"header_cell"`
	HeaderLabel string   `yaml:"header_label"`
	// Regions are the horizontally pinned row containers, left to right.
	Regions        []string `yaml:"regions"`
	HiddenClass    string   `yaml:"hidden_class"`
	Row            string   `yaml:"row"`
	SkipRowClasses []string `yaml:"skip_row_classes"`
	RowIndexAttr   string   `yaml:"row_index_attr"`
	Cell           string   `yaml:"cell"`
	ColIndexAttr   string   `yaml:"col_index_attr"`
}

// DefaultLayout returns the ag-Grid conventions.
func DefaultLayout() Layout {
	return Layout{
		Root:        ".ag-root",
		HeaderCell:  ".ag-header-row-column [aria-colindex]",
		HeaderLabel: ".ag-header-cell-text",
		Regions: []string{
			".ag-pinned-left-cols-container",
			".ag-center-cols-container",
			".ag-pinned-right-cols-container",
		},
		HiddenClass:    "ag-hidden",
		Row:            ".ag-row",
		SkipRowClasses: []string{"ag-hidden", "ag-opacity-zero"},
		RowIndexAttr:   "row-index",
		Cell:           ".ag-cell",
		ColIndexAttr:   "aria-colindex",
	}
}

// withDefaults fills every empty field from DefaultLayout.
func (l Layout) withDefaults() Layout {
	d := DefaultLayout()
	if l.Root == "" {
		l.Root = d.Root
	}
	if l.HeaderCell == "" {
		l.HeaderCell = d.HeaderCell
	}
	if l.HeaderLabel == "" {
		l.HeaderLabel = d.HeaderLabel
	}
	if len(l.Regions) == 0 {
		l.Regions = d.Regions
	}
	if l.HiddenClass == "" {
		l.HiddenClass = d.HiddenClass
	}
	if l.Row == "" {
		l.Row = d.Row
	}
	if l.SkipRowClasses == nil {
		l.SkipRowClasses = d.SkipRowClasses
	}
	if l.RowIndexAttr == "" {
		l.RowIndexAttr = d.RowIndexAttr
	}
	if l.Cell == "" {
		l.Cell = d.Cell
	}
	if l.ColIndexAttr == "" {
		l.ColIndexAttr = d.ColIndexAttr
	}
	return l
}

// Config configures a Reader.
type Config struct {
	Layout Layout

	// SettleTimeout caps the wait for in-flight animations before a read.
	// Default: 10s.
	SettleTimeout time.Duration

	Logger *slog.Logger
}

func (c *Config) defaults() {
	c.Layout = c.Layout.withDefaults()
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 10 * time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Options control a single read.
type Options struct {
	// OnlyColumns keeps only these labels. Empty keeps every column.
	OnlyColumns []string `json:"only_columns,omitempty"`
	// ReturnElements skips text extraction; cells carry only their nodes.
	ReturnElements bool `json:"-"`
}
