package rbtree

// rotateLeft swaps x with its right child y: y takes x's place and x
// becomes y's left child. y's old left subtree moves under x.
func (t *Tree[K]) rotateLeft(x Handle) {
	xn := &t.nodes[x]
	y := xn.right
	yn := &t.nodes[y]

	xn.right = yn.left
	if yn.left != Nil {
		t.nodes[yn.left].parent = x
	}
	yn.parent = xn.parent
	t.replaceChild(xn.parent, x, y)
	yn.left = x
	xn.parent = y
}

// rotateRight is the mirror of rotateLeft.
func (t *Tree[K]) rotateRight(y Handle) {
	yn := &t.nodes[y]
	x := yn.left
	xn := &t.nodes[x]

	yn.left = xn.right
	if xn.right != Nil {
		t.nodes[xn.right].parent = y
	}
	xn.parent = yn.parent
	t.replaceChild(yn.parent, y, x)
	xn.right = y
	yn.parent = x
}

// replaceChild points parent's slot that held old at repl, or the root when
// old had no parent.
func (t *Tree[K]) replaceChild(parent, old, repl Handle) {
	switch {
	case parent == Nil:
		t.root = repl
	case old == t.nodes[parent].left:
		t.nodes[parent].left = repl
	default:
		t.nodes[parent].right = repl
	}
}
