package rbtree

import "iter"

// InOrder yields every (key, color) pair in ascending key order. Each range
// over the returned sequence restarts from the minimum. The tree must not be
// mutated while a range is in progress.
func (t *Tree[K]) InOrder() iter.Seq2[K, Color] {
	return func(yield func(K, Color) bool) {
		for n := t.minNode(t.root); n != Nil; n = t.next(n) {
			if !yield(t.nodes[n].key, t.nodes[n].color) {
				return
			}
		}
	}
}

// Keys returns the stored keys in ascending order.
func (t *Tree[K]) Keys() []K {
	keys := make([]K, 0, t.size)
	for k := range t.InOrder() {
		keys = append(keys, k)
	}
	return keys
}
