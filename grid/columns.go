package grid

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

// Side is where PinColumn moves a column.
type Side string

const (
	PinLeft  Side = "left"
	PinRight Side = "right"
	PinNone  Side = "none"
)

// menuLabel is the column menu entry for the side.
func (s Side) menuLabel() (string, bool) {
	switch s {
	case PinLeft:
		return "Pin Left", true
	case PinRight:
		return "Pin Right", true
	case PinNone:
		return "No Pin", true
	}
	return "", false
}

// ParseSide validates a pin side name.
func ParseSide(s string) (Side, error) {
	if _, ok := Side(s).menuLabel(); !ok {
		return "", &InvalidSideError{Side: s}
	}
	return Side(s), nil
}

const columnSearch = ".ag-column-select-header-filter-wrapper input"

// columnSearchShown reports whether the Columns panel search field is on
// screen. The panel is built on first open, so the field may not exist.
func (g *Grid) columnSearchShown(ctx context.Context, root *rod.Element) (bool, error) {
	els, err := root.Context(ctx).Elements(columnSearch)
	if err != nil {
		return false, fmt.Errorf("grid: column search: %w", err)
	}
	if len(els) == 0 {
		return false, nil
	}
	shown, err := els[0].Context(ctx).Visible()
	if err != nil {
		return false, fmt.Errorf("grid: column search: %w", err)
	}
	return shown, nil
}

// ToggleColumnVisibility shows or hides a column through the Columns side
// bar, opening the side bar when its search field is hidden.
func (g *Grid) ToggleColumnVisibility(ctx context.Context, column string, remove bool) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	root, err := g.Container(ctx)
	if err != nil {
		return err
	}
	shown, err := g.columnSearchShown(ctx, root)
	if err != nil {
		return err
	}
	if !shown {
		tab, err := g.find(ctx, root, lookup{selector: ".ag-side-buttons span", text: "Columns"})
		if err != nil {
			return err
		}
		if err := click(ctx, tab); err != nil {
			return fmt.Errorf("grid: open columns side bar: %w", err)
		}
	}
	search, err := g.find(ctx, root, lookup{selector: columnSearch, visible: true})
	if err != nil {
		return err
	}

	if err := g.typeInto(ctx, search, ""); err != nil {
		return err
	}
	if err := sleep(ctx, g.cfg.ClickDelay); err != nil {
		return err
	}
	if err := g.typeInto(ctx, search, column); err != nil {
		return err
	}

	label, err := g.find(ctx, root, lookup{selector: ".ag-column-select-column-label", text: column, visible: true})
	if err != nil {
		return err
	}
	item, err := label.Context(ctx).Parent()
	if err != nil {
		return fmt.Errorf("grid: column %q: %w", column, err)
	}
	box, err := g.find(ctx, item, lookup{selector: "input"})
	if err != nil {
		return err
	}
	if err := setChecked(ctx, box, !remove); err != nil {
		return fmt.Errorf("grid: toggle column %q: %w", column, err)
	}
	g.cfg.Logger.Debug("grid: column toggled", "column", column, "visible", !remove)
	return nil
}

// PinColumn pins a column left or right, or unpins it, through the
// general tab of its column menu.
func (g *Grid) PinColumn(ctx context.Context, column string, side Side) error {
	entry, ok := side.menuLabel()
	if !ok {
		return &InvalidSideError{Side: string(side)}
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	root, err := g.Container(ctx)
	if err != nil {
		return err
	}
	if err := g.openColumnMenu(ctx, root, column); err != nil {
		return fmt.Errorf("grid: pin %q: %w", column, err)
	}
	if !g.cfg.NoMenuTabs {
		if err := g.selectMenuTab(ctx, root, tabMenu); err != nil {
			return fmt.Errorf("grid: pin %q: %w", column, err)
		}
	}

	pin, err := g.find(ctx, root, lookup{selector: ".ag-menu-option", text: "Pin Column", visible: true})
	if err != nil {
		return err
	}
	// The submenu opens on hover.
	if err := pin.Context(ctx).Hover(); err != nil {
		return fmt.Errorf("grid: pin %q: %w", column, err)
	}
	option, err := g.find(ctx, root, lookup{selector: ".ag-menu-option", text: entry, exact: true, visible: true})
	if err != nil {
		return err
	}
	if err := click(ctx, option); err != nil {
		return fmt.Errorf("grid: pin %q %s: %w", column, side, err)
	}
	g.cfg.Logger.Debug("grid: column pinned", "column", column, "side", side)
	return g.afterClick(ctx)
}
