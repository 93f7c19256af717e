package grid

import (
	"context"
	"fmt"
)

// Direction is a column sort state as the header's aria-sort reports it.
type Direction string

const (
	Ascending  Direction = "ascending"
	Descending Direction = "descending"
)

// maxSortClicks covers a full none, ascending, descending cycle.
const maxSortClicks = 3

// ParseDirection validates a direction name.
func ParseDirection(s string) (Direction, error) {
	d := Direction(s)
	if d != Ascending && d != Descending {
		return "", &InvalidDirectionError{Direction: s}
	}
	return d, nil
}

// SortColumn clicks the header labelled column until its aria-sort equals
// dir. An invalid direction is rejected before touching the page.
func (g *Grid) SortColumn(ctx context.Context, column string, dir Direction) error {
	if _, err := ParseDirection(string(dir)); err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	log := g.cfg.Logger
	for clicks := 0; ; clicks++ {
		// Re-resolved every round: a sort may re-render the header.
		root, err := g.Container(ctx)
		if err != nil {
			return err
		}
		cell, label, err := g.headerCell(ctx, root, column)
		if err != nil {
			return err
		}
		v, err := cell.Context(ctx).Attribute("aria-sort")
		if err != nil {
			return fmt.Errorf("grid: sort %q: %w", column, err)
		}
		state := ""
		if v != nil {
			state = *v
		}
		if state == string(dir) {
			log.Debug("grid: column sorted", "column", column, "direction", dir, "clicks", clicks)
			return nil
		}
		if clicks == maxSortClicks {
			return &SortStateError{Column: column, Want: dir, Got: state, Clicks: clicks}
		}
		if err := click(ctx, label); err != nil {
			return fmt.Errorf("grid: sort %q: %w", column, err)
		}
		if err := g.afterClick(ctx); err != nil {
			return err
		}
	}
}
