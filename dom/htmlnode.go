package dom

import (
	"context"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

type htmlNode struct {
	n *html.Node
}

// ParseHTML parses a document and returns its root node.
func ParseHTML(r io.Reader) (Node, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	return htmlNode{n: doc}, nil
}

// ParseHTMLString is ParseHTML over a string.
func ParseHTMLString(s string) (Node, error) {
	return ParseHTML(strings.NewReader(s))
}

// FromHTML wraps an already parsed node.
func FromHTML(n *html.Node) Node {
	return htmlNode{n: n}
}

// Query returns the first descendant matching selector, or nil.
func Query(ctx context.Context, n Node, selector string) (Node, error) {
	all, err := n.QueryAll(ctx, selector)
	if err != nil || len(all) == 0 {
		return nil, err
	}
	return all[0], nil
}

func (h htmlNode) QueryAll(_ context.Context, selector string) ([]Node, error) {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil, err
	}
	found := queryAll(h.n, sel)
	out := make([]Node, len(found))
	for i, f := range found {
		out[i] = htmlNode{n: f}
	}
	return out, nil
}

func (h htmlNode) Attr(_ context.Context, name string) (string, bool, error) {
	v, ok := lookupAttr(h.n, name)
	return v, ok, nil
}

func (h htmlNode) Text(_ context.Context) (string, error) {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(h.n)
	return b.String(), nil
}
