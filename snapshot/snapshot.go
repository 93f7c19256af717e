// Package snapshot reads the rows a data grid currently renders into an
// ordered, column-labeled snapshot.
//
// A snapshot is built fresh on every read and never mutated afterwards.
// Rows come out in the order the grid displays them (top to bottom), which
// only matches the dataset order when no sort is active.
package snapshot

import (
	"github.com/hazyhaar/gridsnap/dom"
)

// Cell is one rendered cell, labeled with its column header.
type Cell struct {
	Label string
	// Text is the trimmed textContent. Empty when the read was made with
	// ReturnElements.
	Text string
	// Node is the cell element itself.
	Node dom.Node
	// Col is the cell's column index attribute, 0 when absent.
	Col int
}

// Row is an ordered set of cells with unique labels. Cell order follows
// the columns from left to right.
type Row []Cell

// Record is a row reduced to label -> text.
type Record map[string]string

// Snapshot is a point-in-time extraction of the visible grid rows.
type Snapshot struct {
	// Headers lists the visible column labels left to right, restricted to
	// OnlyColumns when that option was set.
	Headers []string
	Rows    []Row

	// columns and lines keep every header, repeated labels included, and
	// each row's texts by header position for Values.
	columns []string
	lines   [][]string
}

// Values is the parallel-array form of a snapshot: Rows[i][j] is the text
// of Headers[j] in row i.
type Values struct {
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// set adds c, or overwrites the value of an existing cell with the same
// label in place. Duplicate header labels therefore keep only the last
// column's value.
func (r Row) set(c Cell) Row {
	for i := range r {
		if r[i].Label == c.Label {
			r[i] = c
			return r
		}
	}
	return append(r, c)
}

// Get returns the cell labeled label.
func (r Row) Get(label string) (Cell, bool) {
	for _, c := range r {
		if c.Label == label {
			return c, true
		}
	}
	return Cell{}, false
}

// Labels returns the row's labels in column order.
func (r Row) Labels() []string {
	out := make([]string, len(r))
	for i, c := range r {
		out[i] = c.Label
	}
	return out
}

// Record returns label -> text for the row.
func (r Row) Record() Record {
	rec := make(Record, len(r))
	for _, c := range r {
		rec[c.Label] = c.Text
	}
	return rec
}

// Len returns the number of rows.
func (s *Snapshot) Len() int { return len(s.Rows) }

// Records returns every row as a Record. An empty snapshot gives an empty,
// non-nil slice.
func (s *Snapshot) Records() []Record {
	out := make([]Record, 0, len(s.Rows))
	for _, r := range s.Rows {
		out = append(out, r.Record())
	}
	return out
}

// Values returns headers and rows as parallel arrays. Columns sharing a
// label each keep their own entry. A cell missing from a row yields "".
func (s *Snapshot) Values() Values {
	if s.columns != nil {
		v := Values{
			Headers: append([]string{}, s.columns...),
			Rows:    make([][]string, 0, len(s.lines)),
		}
		for _, line := range s.lines {
			v.Rows = append(v.Rows, append([]string{}, line...))
		}
		return v
	}
	// Snapshot built by hand: only the label mapping is known.
	v := Values{
		Headers: append([]string(nil), s.Headers...),
		Rows:    make([][]string, 0, len(s.Rows)),
	}
	for _, r := range s.Rows {
		line := make([]string, len(s.Headers))
		for j, h := range s.Headers {
			if c, ok := r.Get(h); ok {
				line[j] = c.Text
			}
		}
		v.Rows = append(v.Rows, line)
	}
	return v
}
