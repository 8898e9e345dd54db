package rbtree

import (
	"cmp"

	"github.com/pkg/errors"
)

type Color uint8

const (
	Red   Color = 0
	Black Color = 1
)

func (c Color) String() string {
	if c == Red {
		return "R"
	}
	return "B"
}

// Handle addresses a node in the arena of the tree that returned it.
// Delete and Clear invalidate handles.
type Handle uint32

// Nil is the sentinel. Search returns it for absent keys.
const Nil Handle = 0

type node[K cmp.Ordered] struct {
	key    K
	color  Color
	left   Handle
	right  Handle
	parent Handle
}

type Tree[K cmp.Ordered] struct {
	nodes  []node[K] // nodes[Nil] is the sentinel
	free   []Handle
	root   Handle
	size   int
	unique bool
}

type options struct {
	unique   bool
	capacity int
}

type Option func(*options)

// WithUniqueKeys makes Insert reject exact duplicates with ErrAlreadyExists.
// Without it the tree behaves as a multiset and duplicates are stored to the
// right of their equals.
func WithUniqueKeys() Option {
	return func(o *options) { o.unique = true }
}

// WithCapacity preallocates room for n nodes.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// New constructs an empty tree with a black sentinel.
func New[K cmp.Ordered](opts ...Option) *Tree[K] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	t := &Tree[K]{
		nodes:  make([]node[K], 1, o.capacity+1),
		root:   Nil,
		unique: o.unique,
	}
	t.nodes[Nil] = sentinel[K]()
	return t
}

func sentinel[K cmp.Ordered]() node[K] {
	return node[K]{color: Black, left: Nil, right: Nil, parent: Nil}
}

func (t *Tree[K]) Len() int { return t.size }

// Unique reports whether the tree was built WithUniqueKeys.
func (t *Tree[K]) Unique() bool { return t.unique }

// Root returns the root handle, Nil when the tree is empty.
func (t *Tree[K]) Root() Handle { return t.root }

// Key returns the key stored at h. The zero key is returned for Nil.
func (t *Tree[K]) Key(h Handle) K { return t.nodes[h].key }

// Color returns the color of h. Nil is always Black.
func (t *Tree[K]) Color(h Handle) Color { return t.nodes[h].color }

// Search descends from the root and returns the first node holding key, or
// Nil when descent reaches the sentinel.
func (t *Tree[K]) Search(key K) Handle {
	n := t.root
	for n != Nil {
		switch c := cmp.Compare(key, t.nodes[n].key); {
		case c < 0:
			n = t.nodes[n].left
		case c > 0:
			n = t.nodes[n].right
		default:
			return n
		}
	}
	return Nil
}

func (t *Tree[K]) Contains(key K) bool {
	return t.Search(key) != Nil
}

// Min returns the smallest key. ok is false on an empty tree.
func (t *Tree[K]) Min() (key K, ok bool) {
	n := t.minNode(t.root)
	if n == Nil {
		return key, false
	}
	return t.nodes[n].key, true
}

// Max returns the largest key. ok is false on an empty tree.
func (t *Tree[K]) Max() (key K, ok bool) {
	n := t.maxNode(t.root)
	if n == Nil {
		return key, false
	}
	return t.nodes[n].key, true
}

// Insert stores key and rebalances. It fails only on a unique-key tree that
// already holds key, in which case the tree is left untouched.
func (t *Tree[K]) Insert(key K) error {
	y := Nil
	x := t.root
	for x != Nil {
		y = x
		c := cmp.Compare(key, t.nodes[x].key)
		if c == 0 && t.unique {
			return errors.Wrapf(ErrAlreadyExists, "insert %v", key)
		}
		if c < 0 {
			x = t.nodes[x].left
		} else {
			x = t.nodes[x].right
		}
	}

	z := t.alloc(key, y)
	switch {
	case y == Nil:
		t.root = z
	case cmp.Less(key, t.nodes[y].key):
		t.nodes[y].left = z
	default:
		t.nodes[y].right = z
	}
	t.size++
	t.insertFixup(z)
	return nil
}

// Delete removes one node holding key. An absent key yields ErrNotFound and
// leaves the tree unchanged.
func (t *Tree[K]) Delete(key K) error {
	z := t.Search(key)
	if z == Nil {
		return errors.Wrapf(ErrNotFound, "delete %v", key)
	}
	t.deleteNode(z)
	t.release(z)
	t.size--
	return nil
}

// Clear drops every node. The arena keeps its capacity.
func (t *Tree[K]) Clear() {
	t.nodes = t.nodes[:1]
	t.free = t.free[:0]
	t.root = Nil
	t.size = 0
}

func (t *Tree[K]) minNode(n Handle) Handle {
	if n == Nil {
		return Nil
	}
	for t.nodes[n].left != Nil {
		n = t.nodes[n].left
	}
	return n
}

func (t *Tree[K]) maxNode(n Handle) Handle {
	if n == Nil {
		return Nil
	}
	for t.nodes[n].right != Nil {
		n = t.nodes[n].right
	}
	return n
}

func (t *Tree[K]) next(n Handle) Handle {
	if n == Nil {
		return Nil
	}
	if r := t.nodes[n].right; r != Nil {
		return t.minNode(r)
	}
	p := t.nodes[n].parent
	for p != Nil && n == t.nodes[p].right {
		n = p
		p = t.nodes[p].parent
	}
	return p
}
