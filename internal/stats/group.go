package stats

// Groups is an insertion-ordered mapping from key to the items that produced it.
type Groups[K comparable, T any] struct {
	keys  []K
	items map[K][]T
}

// GroupBy partitions items by key. Keys are reported in first-seen order and
// each group keeps the relative order of its items.
func GroupBy[T any, K comparable](items []T, key func(T) K) *Groups[K, T] {
	g := &Groups[K, T]{items: make(map[K][]T)}
	for _, it := range items {
		k := key(it)
		if _, ok := g.items[k]; !ok {
			g.keys = append(g.keys, k)
		}
		g.items[k] = append(g.items[k], it)
	}
	return g
}

// Keys returns the group keys in first-seen order.
func (g *Groups[K, T]) Keys() []K {
	return g.keys
}

// Get returns the items for k, or nil.
func (g *Groups[K, T]) Get(k K) []T {
	return g.items[k]
}

// Len returns the number of groups.
func (g *Groups[K, T]) Len() int {
	return len(g.keys)
}
