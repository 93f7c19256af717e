// Package dom is a read-only view over rendered markup. The same grid
// reading code runs against a live browser element (go-rod) or a static
// document parsed with golang.org/x/net/html.
package dom

import (
	"context"
	"slices"
	"strconv"
	"strings"
)

// Node is one element of a rendered document.
type Node interface {
	// QueryAll returns the descendants matching selector in document order.
	QueryAll(ctx context.Context, selector string) ([]Node, error)
	// Attr returns the attribute value and whether it is present.
	Attr(ctx context.Context, name string) (string, bool, error)
	// Text returns the element's textContent, untrimmed.
	Text(ctx context.Context) (string, error)
}

// Settler is implemented by nodes that can wait for the CSS/JS animations
// running in their subtree to finish.
type Settler interface {
	Settle(ctx context.Context) error
}

// HasClass reports whether n carries class in its class attribute.
func HasClass(ctx context.Context, n Node, class string) (bool, error) {
	v, ok, err := n.Attr(ctx, "class")
	if err != nil || !ok {
		return false, err
	}
	return slices.Contains(strings.Fields(v), class), nil
}

// HasAnyClass reports whether n carries at least one of classes.
func HasAnyClass(ctx context.Context, n Node, classes []string) (bool, error) {
	if len(classes) == 0 {
		return false, nil
	}
	v, ok, err := n.Attr(ctx, "class")
	if err != nil || !ok {
		return false, err
	}
	for _, c := range strings.Fields(v) {
		if slices.Contains(classes, c) {
			return true, nil
		}
	}
	return false, nil
}

// IntAttr reads a base-10 integer attribute. ok is false when the
// attribute is missing or not a number.
func IntAttr(ctx context.Context, n Node, name string) (v int, ok bool, err error) {
	s, present, err := n.Attr(ctx, name)
	if err != nil || !present {
		return 0, false, err
	}
	v, convErr := strconv.Atoi(strings.TrimSpace(s))
	if convErr != nil {
		return 0, false, nil
	}
	return v, true, nil
}

// TrimmedText returns the node's textContent with surrounding
// whitespace removed.
func TrimmedText(ctx context.Context, n Node) (string, error) {
	s, err := n.Text(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(s), nil
}
