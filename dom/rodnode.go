package dom

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
)

// settleJS resolves once every animation under the element has finished.
// Cancelled animations reject their finished promise; they count as done.
const settleJS = `() => Promise.all(
	this.getAnimations({ subtree: true }).map((a) => a.finished.catch(() => null))
).then(() => true)`

type rodNode struct {
	el *rod.Element
}

// FromRod wraps a live browser element.
func FromRod(el *rod.Element) Node {
	return rodNode{el: el}
}

// RodElement unwraps a node created by FromRod.
func RodElement(n Node) (*rod.Element, bool) {
	r, ok := n.(rodNode)
	if !ok {
		return nil, false
	}
	return r.el, true
}

func (r rodNode) QueryAll(ctx context.Context, selector string) ([]Node, error) {
	els, err := r.el.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("dom: query %q: %w", selector, err)
	}
	out := make([]Node, len(els))
	for i, el := range els {
		out[i] = rodNode{el: el}
	}
	return out, nil
}

func (r rodNode) Attr(ctx context.Context, name string) (string, bool, error) {
	v, err := r.el.Context(ctx).Attribute(name)
	if err != nil {
		return "", false, fmt.Errorf("dom: attribute %s: %w", name, err)
	}
	if v == nil {
		return "", false, nil
	}
	return *v, true, nil
}

func (r rodNode) Text(ctx context.Context) (string, error) {
	res, err := r.el.Context(ctx).Eval(`() => this.textContent`)
	if err != nil {
		return "", fmt.Errorf("dom: text: %w", err)
	}
	return res.Value.Str(), nil
}

// Settle waits for the subtree's running animations. It returns when they
// finish or ctx is done.
func (r rodNode) Settle(ctx context.Context) error {
	if _, err := r.el.Context(ctx).Eval(settleJS); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("dom: settle: %w", err)
	}
	return nil
}
