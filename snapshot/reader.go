package snapshot

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/hazyhaar/gridsnap/dom"
)

// ErrSettleTimeout is returned when the grid's animations are still
// running after Config.SettleTimeout.
var ErrSettleTimeout = errors.New("snapshot: grid did not settle")

// Reader extracts snapshots from a rendered grid. It holds no per-read
// state and is safe for concurrent use.
type Reader struct {
	cfg    Config
	logger *slog.Logger
}

// NewReader returns a Reader. Zero fields of cfg take their defaults.
func NewReader(cfg Config) *Reader {
	cfg.defaults()
	return &Reader{cfg: cfg, logger: cfg.Logger}
}

// Layout returns the effective layout.
func (r *Reader) Layout() Layout { return r.cfg.Layout }

// slot collects the cells of one logical row across the pinned regions.
type slot struct {
	index int
	cells []dom.Node
}

// Read takes a snapshot of the rows rendered inside container.
//
// Rows of the pinned-left, center and pinned-right regions are joined on
// their row index rather than their position, so a row that is rendered
// in one region but not yet in another never shifts its neighbours.
// Within a row, cells are placed under the header with the same column
// index, so the missing region leaves a gap rather than relabelling the
// cells after it.
// A container without a grid root yields an empty snapshot.
func (r *Reader) Read(ctx context.Context, container dom.Node, opts Options) (*Snapshot, error) {
	if err := r.settle(ctx, container); err != nil {
		return nil, err
	}
	l := r.cfg.Layout

	root, err := dom.Query(ctx, container, l.Root)
	if err != nil {
		return nil, fmt.Errorf("snapshot: read: %w", err)
	}
	if root == nil {
		r.logger.Debug("snapshot: no grid root", "selector", l.Root)
		return &Snapshot{Headers: []string{}, Rows: []Row{}}, nil
	}
	snap := &Snapshot{columns: []string{}}

	headers, err := r.headers(ctx, root)
	if err != nil {
		return nil, err
	}
	byCol := columnPositions(headers)

	slots, err := r.collect(ctx, root)
	if err != nil {
		return nil, err
	}

	keep := make([]bool, len(headers))
	labels := make([]string, len(headers))
	for j, h := range headers {
		labels[j] = h.label
		keep[j] = len(opts.OnlyColumns) == 0 || slices.Contains(opts.OnlyColumns, h.label)
		if keep[j] {
			snap.columns = append(snap.columns, h.label)
		}
	}
	snap.Headers = visibleHeaders(labels, opts.OnlyColumns)
	snap.Rows = make([]Row, 0, len(slots))
	snap.lines = make([][]string, 0, len(slots))

	for _, s := range slots {
		cells, err := r.align(ctx, headers, byCol, s, opts)
		if err != nil {
			return nil, err
		}
		row := make(Row, 0, len(cells))
		line := make([]string, 0, len(snap.columns))
		for j, c := range cells {
			if !keep[j] {
				continue
			}
			line = append(line, c.Text)
			if c.Node != nil {
				row = row.set(c)
			}
		}
		snap.Rows = append(snap.Rows, row)
		snap.lines = append(snap.lines, line)
	}

	r.logger.Debug("snapshot: read",
		"headers", len(snap.Headers), "rows", len(snap.Rows))
	return snap, nil
}

func (r *Reader) settle(ctx context.Context, container dom.Node) error {
	s, ok := container.(dom.Settler)
	if !ok {
		return nil
	}
	sctx, cancel := context.WithTimeout(ctx, r.cfg.SettleTimeout)
	defer cancel()
	if err := s.Settle(sctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			r.logger.Warn("snapshot: settle timeout", "timeout", r.cfg.SettleTimeout)
			return ErrSettleTimeout
		}
		return fmt.Errorf("snapshot: settle: %w", err)
	}
	return nil
}

// column is one header label and the column index of its header cell.
type column struct {
	label  string
	col    int
	hasCol bool
}

// headers returns the column labels ordered by column index. A header cell
// containing several label elements contributes one label per element.
func (r *Reader) headers(ctx context.Context, root dom.Node) ([]column, error) {
	l := r.cfg.Layout
	cells, err := root.QueryAll(ctx, l.HeaderCell)
	if err != nil {
		return nil, fmt.Errorf("snapshot: headers: %w", err)
	}
	cells, err = orderByAttr(ctx, cells, l.ColIndexAttr)
	if err != nil {
		return nil, err
	}

	out := make([]column, 0, len(cells))
	for _, c := range cells {
		col, hasCol, err := dom.IntAttr(ctx, c, l.ColIndexAttr)
		if err != nil {
			return nil, fmt.Errorf("snapshot: header index: %w", err)
		}
		labels, err := c.QueryAll(ctx, l.HeaderLabel)
		if err != nil {
			return nil, fmt.Errorf("snapshot: headers: %w", err)
		}
		if len(labels) == 0 {
			labels = []dom.Node{c}
		}
		for _, lab := range labels {
			text, err := dom.TrimmedText(ctx, lab)
			if err != nil {
				return nil, fmt.Errorf("snapshot: header text: %w", err)
			}
			out = append(out, column{label: text, col: col, hasCol: hasCol})
		}
	}
	return out, nil
}

// columnPositions maps column index to header position. It returns nil
// unless every header carries a distinct column index.
func columnPositions(headers []column) map[int]int {
	pos := make(map[int]int, len(headers))
	for j, h := range headers {
		if !h.hasCol {
			return nil
		}
		if _, dup := pos[h.col]; dup {
			return nil
		}
		pos[h.col] = j
	}
	return pos
}

// collect walks the regions left to right and groups cells by row index.
// The returned slots are non-empty and sorted by row index.
func (r *Reader) collect(ctx context.Context, root dom.Node) ([]*slot, error) {
	l := r.cfg.Layout
	byIndex := make(map[int]*slot)

	for _, sel := range l.Regions {
		regions, err := root.QueryAll(ctx, sel)
		if err != nil {
			return nil, fmt.Errorf("snapshot: region %s: %w", sel, err)
		}
		for _, region := range regions {
			hidden, err := dom.HasClass(ctx, region, l.HiddenClass)
			if err != nil {
				return nil, fmt.Errorf("snapshot: region %s: %w", sel, err)
			}
			if hidden {
				continue
			}
			if err := r.collectRegion(ctx, region, byIndex); err != nil {
				return nil, err
			}
		}
	}

	slots := make([]*slot, 0, len(byIndex))
	for _, s := range byIndex {
		if len(s.cells) > 0 {
			slots = append(slots, s)
		}
	}
	slices.SortFunc(slots, func(a, b *slot) int { return cmp.Compare(a.index, b.index) })
	return slots, nil
}

func (r *Reader) collectRegion(ctx context.Context, region dom.Node, byIndex map[int]*slot) error {
	l := r.cfg.Layout
	rows, err := region.QueryAll(ctx, l.Row)
	if err != nil {
		return fmt.Errorf("snapshot: rows: %w", err)
	}
	for _, row := range rows {
		skip, err := dom.HasAnyClass(ctx, row, l.SkipRowClasses)
		if err != nil {
			return fmt.Errorf("snapshot: rows: %w", err)
		}
		if skip {
			continue
		}
		idx, ok, err := dom.IntAttr(ctx, row, l.RowIndexAttr)
		if err != nil {
			return fmt.Errorf("snapshot: row index: %w", err)
		}
		if !ok {
			r.logger.Debug("snapshot: row without index skipped", "attr", l.RowIndexAttr)
			continue
		}

		cells, err := row.QueryAll(ctx, l.Cell)
		if err != nil {
			return fmt.Errorf("snapshot: cells: %w", err)
		}
		s := byIndex[idx]
		if s == nil {
			s = &slot{index: idx}
			byIndex[idx] = s
		}
		s.cells = append(s.cells, cells...)
	}
	return nil
}

// align places the slot's cells under their headers. A cell whose column
// index matches a header's goes to that header, wherever it sits in the
// slot, so a region missing from the row leaves a gap instead of shifting
// later cells. Cells without a column index, or headers without distinct
// ones, fall back to position. The result has one entry per header; gaps
// have a nil Node.
func (r *Reader) align(ctx context.Context, headers []column, byCol map[int]int, s *slot, opts Options) ([]Cell, error) {
	l := r.cfg.Layout
	cells, err := orderByAttr(ctx, s.cells, l.ColIndexAttr)
	if err != nil {
		return nil, err
	}

	out := make([]Cell, len(headers))
	for i, n := range cells {
		col, hasCol, err := dom.IntAttr(ctx, n, l.ColIndexAttr)
		if err != nil {
			return nil, fmt.Errorf("snapshot: cell index: %w", err)
		}
		j := i
		if byCol != nil && hasCol {
			p, ok := byCol[col]
			if !ok {
				continue
			}
			j = p
		}
		if j >= len(headers) {
			continue
		}
		c := Cell{Label: headers[j].label, Node: n, Col: col}
		if !opts.ReturnElements {
			if c.Text, err = dom.TrimmedText(ctx, n); err != nil {
				return nil, fmt.Errorf("snapshot: cell text: %w", err)
			}
		}
		out[j] = c
	}
	return out, nil
}

// orderByAttr sorts nodes by a numeric attribute, keeping DOM order when
// any node lacks it.
func orderByAttr(ctx context.Context, nodes []dom.Node, attr string) ([]dom.Node, error) {
	type keyed struct {
		n   dom.Node
		k   int
		has bool
	}
	items := make([]keyed, len(nodes))
	for i, n := range nodes {
		k, ok, err := dom.IntAttr(ctx, n, attr)
		if err != nil {
			return nil, fmt.Errorf("snapshot: %s: %w", attr, err)
		}
		items[i] = keyed{n: n, k: k, has: ok}
	}
	sorted, _ := dom.OrderBy(items, func(it keyed) (int, bool) { return it.k, it.has })
	out := make([]dom.Node, len(sorted))
	for i, it := range sorted {
		out[i] = it.n
	}
	return out, nil
}

// visibleHeaders filters headers to only (when set) and removes repeated
// labels, keeping first-seen order.
func visibleHeaders(headers, only []string) []string {
	out := make([]string, 0, len(headers))
	for _, h := range headers {
		if len(only) > 0 && !slices.Contains(only, h) {
			continue
		}
		if slices.Contains(out, h) {
			continue
		}
		out = append(out, h)
	}
	return out
}
