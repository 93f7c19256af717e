package dom

import (
	"cmp"
	"slices"
)

// OrderBy sorts items ascending by the integer key extracted from each one.
// The sort is stable. When any item has no key the input order is kept and
// complete is false; callers use that to fall back to document order.
func OrderBy[T any](items []T, key func(T) (int, bool)) (sorted []T, complete bool) {
	keys := make([]int, len(items))
	for i, it := range items {
		k, ok := key(it)
		if !ok {
			return items, false
		}
		keys[i] = k
	}

	idx := make([]int, len(items))
	for i := range idx {
		idx[i] = i
	}
	slices.SortStableFunc(idx, func(a, b int) int {
		return cmp.Compare(keys[a], keys[b])
	})

	sorted = make([]T, len(items))
	for i, j := range idx {
		sorted[i] = items[j]
	}
	return sorted, true
}
