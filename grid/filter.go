package grid

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod"
)

// Operator is a filter condition as the grid's operator picker labels it.
type Operator string

const (
	Contains           Operator = "Contains"
	NotContains        Operator = "Does not contain"
	Equals             Operator = "Equals"
	NotEquals          Operator = "Does not equal"
	StartsWith         Operator = "Begins with"
	EndsWith           Operator = "Ends with"
	LessThan           Operator = "Less than"
	LessThanOrEqual    Operator = "Less than or equal to"
	GreaterThan        Operator = "Greater than"
	GreaterThanOrEqual Operator = "Greater than or equal to"
	InRange            Operator = "Between"
	Blank              Operator = "Blank"
	NotBlank           Operator = "Not blank"
)

// Operators lists every operator in picker order.
var Operators = []Operator{
	Contains, NotContains, Equals, NotEquals, StartsWith, EndsWith,
	LessThan, LessThanOrEqual, GreaterThan, GreaterThanOrEqual,
	InRange, Blank, NotBlank,
}

// Criterion is one column filter.
type Criterion struct {
	Column string `json:"column"`
	Value  string `json:"value"`
	// Operator picks a condition first. Empty keeps the filter's default.
	Operator Operator `json:"operator,omitempty"`
	// InputIndex selects among several visible inputs, e.g. the second
	// condition of a text filter.
	InputIndex int `json:"input_index,omitempty"`
	// MultiFilter marks a column whose filter combines a text input with
	// a value list.
	MultiFilter bool `json:"multi_filter,omitempty"`
}

// FilterOptions lists the criteria applied in order. Zero fields fall back
// to the Grid's Config.
type FilterOptions struct {
	Criteria       []Criterion `json:"criteria"`
	HasApplyButton bool        `json:"has_apply_button,omitempty"`
	NoMenuTabs     bool        `json:"no_menu_tabs,omitempty"`
	SelectAllText  string      `json:"select_all_text,omitempty"`
}

func (g *Grid) withDefaults(o FilterOptions) FilterOptions {
	o.HasApplyButton = o.HasApplyButton || g.cfg.HasApplyButton
	o.NoMenuTabs = o.NoMenuTabs || g.cfg.NoMenuTabs
	if o.SelectAllText == "" {
		o.SelectAllText = g.cfg.SelectAllText
	}
	return o
}

const (
	tabFilter = "filter"
	tabMenu   = "menu"
)

// FilterByMenuText filters each column by typing into the filter of its
// column menu.
func (g *Grid) FilterByMenuText(ctx context.Context, opts FilterOptions) error {
	opts = g.withDefaults(opts)
	for _, c := range opts.Criteria {
		err := g.withCriterion(ctx, c, func(ctx context.Context, root *rod.Element) error {
			if err := g.openColumnMenu(ctx, root, c.Column); err != nil {
				return err
			}
			if err := g.searchTerm(ctx, root, c, opts); err != nil {
				return err
			}
			return g.applyFilter(ctx, root, opts)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FilterByFloatingText filters each column through the button of its
// floating filter.
func (g *Grid) FilterByFloatingText(ctx context.Context, opts FilterOptions) error {
	opts = g.withDefaults(opts)
	for _, c := range opts.Criteria {
		err := g.withCriterion(ctx, c, func(ctx context.Context, root *rod.Element) error {
			if err := g.openFloatingFilter(ctx, root, c.Column); err != nil {
				return err
			}
			if err := g.searchTerm(ctx, root, c, opts); err != nil {
				return err
			}
			return g.applyFilter(ctx, root, opts)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// FilterByCheckbox filters each column's value list down to the criterion
// value.
func (g *Grid) FilterByCheckbox(ctx context.Context, opts FilterOptions) error {
	opts = g.withDefaults(opts)
	for _, c := range opts.Criteria {
		err := g.withCriterion(ctx, c, func(ctx context.Context, root *rod.Element) error {
			if err := g.openColumnMenu(ctx, root, c.Column); err != nil {
				return err
			}
			if err := g.toggleFilterCheckbox(ctx, root, opts.SelectAllText, false, opts.NoMenuTabs); err != nil {
				return err
			}
			if err := g.toggleFilterCheckbox(ctx, root, c.Value, true, opts.NoMenuTabs); err != nil {
				return err
			}
			return g.applyFilter(ctx, root, opts)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// withCriterion runs one criterion under its own ActionTimeout.
func (g *Grid) withCriterion(ctx context.Context, c Criterion, fn func(context.Context, *rod.Element) error) error {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.ActionTimeout)
	defer cancel()

	root, err := g.Container(ctx)
	if err != nil {
		return err
	}
	if err := fn(ctx, root); err != nil {
		return fmt.Errorf("grid: filter %q: %w", c.Column, err)
	}
	g.cfg.Logger.Debug("grid: filter applied", "column", c.Column, "value", c.Value, "operator", c.Operator)
	return nil
}

func (g *Grid) openColumnMenu(ctx context.Context, root *rod.Element, column string) error {
	cell, _, err := g.headerCell(ctx, root, column)
	if err != nil {
		return err
	}
	// The menu button only shows while the header is hovered.
	if err := cell.Context(ctx).Hover(); err != nil {
		return fmt.Errorf("hover header: %w", err)
	}
	btn, err := g.find(ctx, cell, lookup{selector: ".ag-header-cell-menu-button"})
	if err != nil {
		return err
	}
	return click(ctx, btn)
}

func (g *Grid) openFloatingFilter(ctx context.Context, root *rod.Element, column string) error {
	cell, _, err := g.headerCell(ctx, root, column)
	if err != nil {
		return err
	}
	idx, err := cell.Context(ctx).Attribute(g.layout.ColIndexAttr)
	if err != nil {
		return fmt.Errorf("column index: %w", err)
	}
	if idx == nil {
		return &ElementNotFoundError{Selector: g.layout.HeaderCell, Text: column}
	}
	sel := fmt.Sprintf(".ag-header-row-column-filter .ag-header-cell[%s=%s] .ag-floating-filter-button",
		g.layout.ColIndexAttr, strconv.Quote(*idx))
	btn, err := g.find(ctx, root, lookup{selector: sel})
	if err != nil {
		return err
	}
	return click(ctx, btn)
}

// selectMenuTab clicks a column menu tab unless it is already selected.
func (g *Grid) selectMenuTab(ctx context.Context, root *rod.Element, tab string) error {
	icon, err := g.find(ctx, root, lookup{selector: ".ag-tab .ag-icon-" + tab, visible: true})
	if err != nil {
		return err
	}
	parent, err := icon.Context(ctx).Parent()
	if err != nil {
		return fmt.Errorf("menu tab %s: %w", tab, err)
	}
	class, err := parent.Attribute("class")
	if err != nil {
		return fmt.Errorf("menu tab %s: %w", tab, err)
	}
	if class != nil && strings.Contains(*class, "selected") {
		return nil
	}
	return click(ctx, icon)
}

// searchTerm picks the operator and types the criterion value into the
// open filter.
func (g *Grid) searchTerm(ctx context.Context, root *rod.Element, c Criterion, opts FilterOptions) error {
	if !opts.NoMenuTabs {
		if err := g.selectMenuTab(ctx, root, tabFilter); err != nil {
			return err
		}
	}
	if c.Operator != "" {
		if err := g.pickOperator(ctx, root, c.Operator); err != nil {
			return err
		}
	}

	inputs, err := g.findAll(ctx, root, lookup{selector: ".ag-popup-child input", visible: true})
	if err != nil {
		return err
	}
	if c.InputIndex < 0 || c.InputIndex >= len(inputs) {
		return fmt.Errorf("input index %d out of range, %d visible inputs", c.InputIndex, len(inputs))
	}
	field := inputs[c.InputIndex]

	if c.MultiFilter {
		if err := g.toggleFilterCheckbox(ctx, root, opts.SelectAllText, false, true); err != nil {
			return err
		}
	}
	if err := g.typeInto(ctx, field, c.Value); err != nil {
		return err
	}
	if err := sleep(ctx, g.cfg.FilterDelay); err != nil {
		return err
	}
	if c.MultiFilter {
		return g.toggleFilterCheckbox(ctx, root, c.Value, true, true)
	}
	return nil
}

func (g *Grid) pickOperator(ctx context.Context, root *rod.Element, op Operator) error {
	picker, err := g.find(ctx, root, lookup{selector: ".ag-picker-field-wrapper", visible: true})
	if err != nil {
		return err
	}
	if err := click(ctx, picker); err != nil {
		return fmt.Errorf("open operator picker: %w", err)
	}
	option, err := g.find(ctx, root, lookup{selector: ".ag-popup span", text: string(op), exact: true})
	if err != nil {
		return err
	}
	if err := click(ctx, option); err != nil {
		return fmt.Errorf("pick operator %q: %w", op, err)
	}
	return nil
}

// toggleFilterCheckbox sets the value-list checkbox labelled value.
func (g *Grid) toggleFilterCheckbox(ctx context.Context, root *rod.Element, value string, checked, noMenuTabs bool) error {
	if !noMenuTabs {
		if err := g.selectMenuTab(ctx, root, tabFilter); err != nil {
			return err
		}
	}
	label, err := g.find(ctx, root, lookup{selector: ".ag-input-field-label", text: value})
	if err != nil {
		return err
	}
	wrapper, err := label.Context(ctx).Next()
	if err != nil {
		return fmt.Errorf("checkbox %q: %w", value, err)
	}
	box, err := g.find(ctx, wrapper, lookup{selector: "input"})
	if err != nil {
		return err
	}
	return setChecked(ctx, box, checked)
}

// applyFilter presses Apply when the filter has one, then closes the menu
// through its filter tab.
func (g *Grid) applyFilter(ctx context.Context, root *rod.Element, opts FilterOptions) error {
	if opts.HasApplyButton {
		btn, err := g.find(ctx, root, lookup{selector: ".ag-filter-apply-panel-button", text: "Apply"})
		if err != nil {
			return err
		}
		if err := click(ctx, btn); err != nil {
			return fmt.Errorf("apply: %w", err)
		}
	}
	if !opts.NoMenuTabs {
		icon, err := g.find(ctx, root, lookup{selector: ".ag-tab .ag-icon-" + tabFilter, visible: true})
		if err != nil {
			return err
		}
		return click(ctx, icon)
	}
	return nil
}
