package rbtree

import "math"

// alloc returns a fresh red node linked under parent, reusing a freed slot
// when one is available. Appending may move the arena, so callers must not
// hold *node pointers across alloc.
func (t *Tree[K]) alloc(key K, parent Handle) Handle {
	n := node[K]{key: key, color: Red, left: Nil, right: Nil, parent: parent}
	if l := len(t.free); l > 0 {
		h := t.free[l-1]
		t.free = t.free[:l-1]
		t.nodes[h] = n
		return h
	}
	if len(t.nodes) >= math.MaxUint32 {
		panic("rbtree: arena exhausted")
	}
	t.nodes = append(t.nodes, n)
	return Handle(len(t.nodes) - 1)
}

func (t *Tree[K]) release(h Handle) {
	if h == Nil {
		panic("rbtree: sentinel cannot be released")
	}
	t.nodes[h] = node[K]{}
	t.free = append(t.free, h)
}
