package dom

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/net/html"
)

// compound is one simple selector sequence: tag, #id, .classes and
// attribute conditions, e.g. "div.ag-row[row-index=3]".
type compound struct {
	tag     string
	id      string
	classes []string
	attrs   []attrCond
}

type attrCond struct {
	key    string
	val    string
	hasVal bool
}

// parseSelector splits a selector on whitespace (descendant combinator)
// and parses each compound. Supported: *, tag, #id, .class (repeatable),
// [attr], [attr=value], [attr="value"].
func parseSelector(sel string) ([]compound, error) {
	parts := splitDescendants(sel)
	if len(parts) == 0 {
		return nil, fmt.Errorf("dom: empty selector")
	}
	out := make([]compound, 0, len(parts))
	for _, p := range parts {
		c, err := parseCompound(p)
		if err != nil {
			return nil, fmt.Errorf("dom: selector %q: %w", sel, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// splitDescendants splits on whitespace outside of [...] brackets so that
// quoted attribute values may contain spaces.
func splitDescendants(sel string) []string {
	var parts []string
	var b strings.Builder
	depth := 0
	for _, r := range sel {
		switch {
		case r == '[':
			depth++
			b.WriteRune(r)
		case r == ']':
			depth--
			b.WriteRune(r)
		case depth == 0 && (r == ' ' || r == '\t' || r == '\n'):
			if b.Len() > 0 {
				parts = append(parts, b.String())
				b.Reset()
			}
		default:
			b.WriteRune(r)
		}
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

func parseCompound(s string) (compound, error) {
	var c compound
	i := 0
	readName := func() string {
		start := i
		for i < len(s) && !strings.ContainsRune(".#[:>+~,()", rune(s[i])) {
			i++
		}
		return s[start:i]
	}

	if i < len(s) && s[i] == '*' {
		i++
	} else {
		c.tag = strings.ToLower(readName())
	}

	for i < len(s) {
		switch s[i] {
		case '.':
			i++
			name := readName()
			if name == "" {
				return c, fmt.Errorf("empty class")
			}
			c.classes = append(c.classes, name)
		case '#':
			i++
			c.id = readName()
		case '[':
			end := strings.IndexByte(s[i:], ']')
			if end < 0 {
				return c, fmt.Errorf("unterminated attribute")
			}
			body := s[i+1 : i+end]
			i += end + 1
			if eq := strings.IndexByte(body, '='); eq >= 0 {
				c.attrs = append(c.attrs, attrCond{
					key:    strings.TrimSpace(body[:eq]),
					val:    strings.Trim(strings.TrimSpace(body[eq+1:]), `"'`),
					hasVal: true,
				})
			} else {
				c.attrs = append(c.attrs, attrCond{key: strings.TrimSpace(body)})
			}
		default:
			return c, fmt.Errorf("unexpected %q", s[i])
		}
	}
	return c, nil
}

func (c compound) matches(n *html.Node) bool {
	if n.Type != html.ElementNode {
		return false
	}
	if c.tag != "" && n.Data != c.tag {
		return false
	}
	if c.id != "" && attrOf(n, "id") != c.id {
		return false
	}
	if len(c.classes) > 0 {
		have := strings.Fields(attrOf(n, "class"))
		for _, want := range c.classes {
			if !slices.Contains(have, want) {
				return false
			}
		}
	}
	for _, a := range c.attrs {
		v, ok := lookupAttr(n, a.key)
		if !ok || (a.hasVal && v != a.val) {
			return false
		}
	}
	return true
}

// queryAll walks root's descendants and returns those matching the last
// compound whose ancestors (below root) satisfy the preceding compounds.
func queryAll(root *html.Node, sel []compound) []*html.Node {
	var out []*html.Node
	var walk func(n *html.Node, ancestors []*html.Node)
	walk = func(n *html.Node, ancestors []*html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			if sel[len(sel)-1].matches(c) && ancestorsMatch(ancestors, sel[:len(sel)-1]) {
				out = append(out, c)
			}
			walk(c, append(ancestors, c))
		}
	}
	walk(root, nil)
	return out
}

// ancestorsMatch checks the remaining compounds right to left against the
// ancestor chain, nearest ancestor first.
func ancestorsMatch(ancestors []*html.Node, sel []compound) bool {
	j := len(sel) - 1
	for i := len(ancestors) - 1; i >= 0 && j >= 0; i-- {
		if sel[j].matches(ancestors[i]) {
			j--
		}
	}
	return j < 0
}

func attrOf(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}
