package grid

import "fmt"

// SelectorCardinalityError reports a container selector that did not
// match exactly one element.
type SelectorCardinalityError struct {
	Selector string
	Count    int
}

func (e *SelectorCardinalityError) Error() string {
	return fmt.Sprintf("grid: selector %q matched %d elements, want exactly 1", e.Selector, e.Count)
}

// InvalidDirectionError reports a sort direction other than ascending or
// descending.
type InvalidDirectionError struct {
	Direction string
}

func (e *InvalidDirectionError) Error() string {
	return fmt.Sprintf("grid: sort direction must be %q or %q, got %q", Ascending, Descending, e.Direction)
}

// InvalidSideError reports a pin side other than left, right or none.
type InvalidSideError struct {
	Side string
}

func (e *InvalidSideError) Error() string {
	return fmt.Sprintf("grid: pin side must be %q, %q or %q, got %q", PinLeft, PinRight, PinNone, e.Side)
}

// ElementNotFoundError reports a lookup that found nothing before its
// deadline.
type ElementNotFoundError struct {
	Selector string
	Text     string
}

func (e *ElementNotFoundError) Error() string {
	if e.Text == "" {
		return fmt.Sprintf("grid: no element matches %q", e.Selector)
	}
	return fmt.Sprintf("grid: no element matches %q with text %q", e.Selector, e.Text)
}

// SortStateError reports a column whose sort state did not reach the
// requested direction.
type SortStateError struct {
	Column string
	Want   Direction
	Got    string
	Clicks int
}

func (e *SortStateError) Error() string {
	return fmt.Sprintf("grid: sort %q: aria-sort is %q after %d clicks, want %q", e.Column, e.Got, e.Clicks, e.Want)
}
