// Package grid drives a rendered ag-Grid from Go tests: it reads the
// grid through the snapshot reader and clicks through the grid's own
// sort, filter, column and paging controls.
//
// A Grid is a page object bound to one page and one container selector.
// It is not safe for concurrent use; the grid UI it drives is a single
// shared state.
package grid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/input"
	"github.com/go-rod/rod/lib/proto"

	"github.com/hazyhaar/gridsnap/dom"
	"github.com/hazyhaar/gridsnap/snapshot"
	"github.com/hazyhaar/gridsnap/validate"
)

const pollInterval = 100 * time.Millisecond

// Config tunes a Grid.
type Config struct {
	Layout snapshot.Layout

	// SettleTimeout caps the animation wait before reads. Default: 10s.
	SettleTimeout time.Duration

	// ClickDelay is the pause after sort clicks and side bar typing.
	// Default: 250ms.
	ClickDelay time.Duration

	// FilterDelay is the pause after typing a filter value. Default: 500ms.
	FilterDelay time.Duration

	// ActionTimeout bounds every element lookup of one command.
	// Default: 10s.
	ActionTimeout time.Duration

	// SelectAllText is the label of the set filter's select-all entry.
	// Default: "Select All".
	SelectAllText string

	// HasApplyButton and NoMenuTabs are the filter defaults used when
	// FilterOptions leaves them unset.
	HasApplyButton bool
	NoMenuTabs     bool

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = 10 * time.Second
	}
	if c.ClickDelay <= 0 {
		c.ClickDelay = 250 * time.Millisecond
	}
	if c.FilterDelay <= 0 {
		c.FilterDelay = 500 * time.Millisecond
	}
	if c.ActionTimeout <= 0 {
		c.ActionTimeout = 10 * time.Second
	}
	if c.SelectAllText == "" {
		c.SelectAllText = "Select All"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Grid is a page object over one grid container.
type Grid struct {
	page     *rod.Page
	selector string
	cfg      Config
	reader   *snapshot.Reader
	layout   snapshot.Layout
}

// New binds a Grid to the element matching selector on page.
func New(page *rod.Page, selector string, cfg Config) *Grid {
	cfg.defaults()
	r := snapshot.NewReader(snapshot.Config{
		Layout:        cfg.Layout,
		SettleTimeout: cfg.SettleTimeout,
		Logger:        cfg.Logger,
	})
	return &Grid{
		page:     page,
		selector: selector,
		cfg:      cfg,
		reader:   r,
		layout:   r.Layout(),
	}
}

// Selector returns the container selector.
func (g *Grid) Selector() string { return g.selector }

// Container returns the single element matching the selector. It waits
// up to ActionTimeout for the grid to appear; zero or several matches
// give a *SelectorCardinalityError.
func (g *Grid) Container(ctx context.Context) (*rod.Element, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	var els rod.Elements
	err := poll(ctx, func() (bool, error) {
		var err error
		els, err = g.page.Context(ctx).Elements(g.selector)
		if err != nil {
			return false, err
		}
		return len(els) > 0, nil
	})
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("grid: container %q: %w", g.selector, err)
	}
	if len(els) != 1 {
		return nil, &SelectorCardinalityError{Selector: g.selector, Count: len(els)}
	}
	return els[0], nil
}

// Snapshot reads the grid.
func (g *Grid) Snapshot(ctx context.Context, opts snapshot.Options) (*snapshot.Snapshot, error) {
	el, err := g.Container(ctx)
	if err != nil {
		return nil, err
	}
	snap, err := g.reader.Read(ctx, dom.FromRod(el), opts)
	if err != nil {
		return nil, fmt.Errorf("grid: read: %w", err)
	}
	return snap, nil
}

// ReadData reads the grid as one record per row.
func (g *Grid) ReadData(ctx context.Context, opts snapshot.Options) ([]snapshot.Record, error) {
	snap, err := g.Snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	return snap.Records(), nil
}

// ReadValues reads the grid as headers plus positional value rows.
func (g *Grid) ReadValues(ctx context.Context, opts snapshot.Options) (snapshot.Values, error) {
	snap, err := g.Snapshot(ctx, opts)
	if err != nil {
		return snapshot.Values{}, err
	}
	return snap.Values(), nil
}

// ReadElements returns the cell elements of every row keyed by column
// label, without extracting text.
func (g *Grid) ReadElements(ctx context.Context, opts snapshot.Options) ([]map[string]*rod.Element, error) {
	opts.ReturnElements = true
	snap, err := g.Snapshot(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := make([]map[string]*rod.Element, 0, len(snap.Rows))
	for _, row := range snap.Rows {
		m := make(map[string]*rod.Element, len(row))
		for _, c := range row {
			if el, ok := dom.RodElement(c.Node); ok {
				m[c.Label] = el
			}
		}
		out = append(out, m)
	}
	return out, nil
}

// WaitForAnimation waits until no animation runs inside the grid, at most
// SettleTimeout.
func (g *Grid) WaitForAnimation(ctx context.Context) error {
	el, err := g.Container(ctx)
	if err != nil {
		return err
	}
	sctx, cancel := context.WithTimeout(ctx, g.cfg.SettleTimeout)
	defer cancel()
	if err := dom.FromRod(el).(dom.Settler).Settle(sctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return snapshot.ErrSettleTimeout
		}
		return fmt.Errorf("grid: wait for animation: %w", err)
	}
	return nil
}

// NextPage clicks the paging panel's next button.
func (g *Grid) NextPage(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	root, err := g.Container(ctx)
	if err != nil {
		return err
	}
	next, err := g.find(ctx, root, lookup{selector: ".ag-icon-next"})
	if err != nil {
		return err
	}
	if err := click(ctx, next); err != nil {
		return fmt.Errorf("grid: next page: %w", err)
	}
	return g.afterClick(ctx)
}

// ValidatePaginatedTable checks every page against expectedPages,
// advancing with NextPage after each one.
func (g *Grid) ValidatePaginatedTable(ctx context.Context, expectedPages [][]snapshot.Record, onlyColumns ...string) error {
	return validate.PaginatedTable(ctx, g, expectedPages, snapshot.Options{OnlyColumns: onlyColumns})
}

// lookup selects elements under a root.
type lookup struct {
	selector string
	// text filters on the trimmed element text: a substring match, or an
	// exact match when exact is set.
	text    string
	exact   bool
	visible bool
}

func (l lookup) match(el *rod.Element) (bool, error) {
	if l.visible {
		ok, err := el.Visible()
		if err != nil || !ok {
			return false, err
		}
	}
	if l.text == "" {
		return true, nil
	}
	txt, err := el.Text()
	if err != nil {
		return false, err
	}
	txt = strings.TrimSpace(txt)
	if l.exact {
		return txt == l.text, nil
	}
	return strings.Contains(txt, l.text), nil
}

// findAll waits until at least one element under root satisfies l.
func (g *Grid) findAll(ctx context.Context, root *rod.Element, l lookup) (rod.Elements, error) {
	var found rod.Elements
	err := poll(ctx, func() (bool, error) {
		els, err := root.Context(ctx).Elements(l.selector)
		if err != nil {
			return false, err
		}
		found = found[:0]
		for _, el := range els {
			ok, err := l.match(el.Context(ctx))
			if err != nil {
				return false, err
			}
			if ok {
				found = append(found, el)
			}
		}
		return len(found) > 0, nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, &ElementNotFoundError{Selector: l.selector, Text: l.text}
	}
	if err != nil {
		return nil, fmt.Errorf("grid: find %q: %w", l.selector, err)
	}
	return found, nil
}

func (g *Grid) find(ctx context.Context, root *rod.Element, l lookup) (*rod.Element, error) {
	els, err := g.findAll(ctx, root, l)
	if err != nil {
		return nil, err
	}
	return els[0], nil
}

// headerCell finds the header cell labelled column and its label element.
func (g *Grid) headerCell(ctx context.Context, root *rod.Element, column string) (cell, label *rod.Element, err error) {
	err = poll(ctx, func() (bool, error) {
		cells, err := root.Context(ctx).Elements(g.layout.HeaderCell)
		if err != nil {
			return false, err
		}
		for _, c := range cells {
			lbl := c
			if inner, err := c.Context(ctx).Elements(g.layout.HeaderLabel); err != nil {
				return false, err
			} else if len(inner) > 0 {
				lbl = inner[0]
			}
			txt, err := lbl.Context(ctx).Text()
			if err != nil {
				return false, err
			}
			if strings.TrimSpace(txt) == column {
				cell, label = c, lbl
				return true, nil
			}
		}
		return false, nil
	})
	if errors.Is(err, context.DeadlineExceeded) {
		return nil, nil, &ElementNotFoundError{Selector: g.layout.HeaderLabel, Text: column}
	}
	if err != nil {
		return nil, nil, fmt.Errorf("grid: header %q: %w", column, err)
	}
	return cell, label, nil
}

// setChecked clicks a checkbox input when its state differs from want.
func setChecked(ctx context.Context, box *rod.Element, want bool) error {
	v, err := box.Context(ctx).Property("checked")
	if err != nil {
		return fmt.Errorf("grid: checkbox state: %w", err)
	}
	if v.Bool() == want {
		return nil
	}
	return click(ctx, box)
}

// typeInto replaces the content of a text input with value.
func (g *Grid) typeInto(ctx context.Context, el *rod.Element, value string) error {
	el = el.Context(ctx)
	if err := el.SelectAllText(); err != nil {
		return fmt.Errorf("grid: select input text: %w", err)
	}
	if value == "" {
		if err := g.page.Keyboard.Press(input.Backspace); err != nil {
			return fmt.Errorf("grid: clear input: %w", err)
		}
		return nil
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("grid: type %q: %w", value, err)
	}
	return nil
}

// afterClick pauses ClickDelay, then waits for the document to load in
// case the click navigated.
func (g *Grid) afterClick(ctx context.Context) error {
	if err := sleep(ctx, g.cfg.ClickDelay); err != nil {
		return err
	}
	if err := g.page.Context(ctx).WaitLoad(); err != nil {
		return fmt.Errorf("grid: wait load: %w", err)
	}
	return nil
}

func click(ctx context.Context, el *rod.Element) error {
	return el.Context(ctx).Click(proto.InputMouseButtonLeft, 1)
}

// poll calls fn until it reports done, fails, or ctx ends.
func poll(ctx context.Context, fn func() (bool, error)) error {
	t := time.NewTicker(pollInterval)
	defer t.Stop()
	for {
		done, err := fn()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil || done {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
