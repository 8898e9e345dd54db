package rbtree

import (
	"cmp"

	"github.com/pkg/errors"
)

// Check walks the whole tree and verifies the red-black rules, parent links,
// key order and the node count. Every failure wraps ErrInvariant.
func (t *Tree[K]) Check() error {
	if t.nodes[Nil] != sentinel[K]() {
		return errors.Wrapf(ErrInvariant, "sentinel modified: %+v", t.nodes[Nil])
	}
	if t.nodes[t.root].color != Black {
		return errors.Wrap(ErrInvariant, "root is red")
	}
	if t.root != Nil && t.nodes[t.root].parent != Nil {
		return errors.Wrapf(ErrInvariant, "root %v has a parent", t.nodes[t.root].key)
	}

	count := 0
	if _, err := t.checkNode(t.root, &count); err != nil {
		return err
	}
	if count != t.size {
		return errors.Wrapf(ErrInvariant, "counted %d nodes, size is %d", count, t.size)
	}

	var prev K
	first := true
	for k := range t.InOrder() {
		if !first {
			c := cmp.Compare(prev, k)
			if c > 0 || (c == 0 && t.unique) {
				return errors.Wrapf(ErrInvariant, "keys out of order: %v before %v", prev, k)
			}
		}
		prev, first = k, false
	}
	return nil
}

// checkNode returns the black-height of the subtree at n.
func (t *Tree[K]) checkNode(n Handle, count *int) (int, error) {
	if n == Nil {
		return 0, nil
	}
	*count++
	nd := t.nodes[n]
	if nd.color != Red && nd.color != Black {
		return 0, errors.Wrapf(ErrInvariant, "node %v has color %d", nd.key, nd.color)
	}
	for _, c := range [...]Handle{nd.left, nd.right} {
		if c == Nil {
			continue
		}
		if t.nodes[c].parent != n {
			return 0, errors.Wrapf(ErrInvariant, "node %v: child %v points to parent %d", nd.key, t.nodes[c].key, t.nodes[c].parent)
		}
		if nd.color == Red && t.nodes[c].color == Red {
			return 0, errors.Wrapf(ErrInvariant, "red node %v has red child %v", nd.key, t.nodes[c].key)
		}
	}
	if nd.left != Nil && cmp.Less(nd.key, t.nodes[nd.left].key) {
		return 0, errors.Wrapf(ErrInvariant, "left child %v greater than %v", t.nodes[nd.left].key, nd.key)
	}
	if nd.right != Nil && cmp.Less(t.nodes[nd.right].key, nd.key) {
		return 0, errors.Wrapf(ErrInvariant, "right child %v less than %v", t.nodes[nd.right].key, nd.key)
	}

	lh, err := t.checkNode(nd.left, count)
	if err != nil {
		return 0, err
	}
	rh, err := t.checkNode(nd.right, count)
	if err != nil {
		return 0, err
	}
	if lh != rh {
		return 0, errors.Wrapf(ErrInvariant, "node %v: black-height %d on the left, %d on the right", nd.key, lh, rh)
	}
	if nd.color == Black {
		lh++
	}
	return lh, nil
}

// Height is the number of nodes on the longest root-to-leaf path.
func (t *Tree[K]) Height() int {
	return t.height(t.root)
}

func (t *Tree[K]) height(n Handle) int {
	if n == Nil {
		return 0
	}
	return 1 + max(t.height(t.nodes[n].left), t.height(t.nodes[n].right))
}

// BlackHeight counts the black nodes from the root down to the sentinel along
// the leftmost path, root included. It is only meaningful on a valid tree.
func (t *Tree[K]) BlackHeight() int {
	bh := 0
	for n := t.root; n != Nil; n = t.nodes[n].left {
		if t.nodes[n].color == Black {
			bh++
		}
	}
	return bh
}
