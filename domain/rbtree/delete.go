package rbtree

// transplant puts v where u was. The sentinel is never written, so when v is
// Nil its parent is left alone and callers track it themselves.
func (t *Tree[K]) transplant(u, v Handle) {
	up := t.nodes[u].parent
	t.replaceChild(up, u, v)
	if v != Nil {
		t.nodes[v].parent = up
	}
}

// deleteNode unlinks z. y is the node actually spliced out of its position
// (z itself, or z's in-order successor when z has two children) and x the
// node that moves into y's old slot; xParent is x's parent after the splice.
func (t *Tree[K]) deleteNode(z Handle) {
	zn := t.nodes[z]
	y := z
	yColor := zn.color
	var x, xParent Handle

	switch {
	case zn.left == Nil:
		x = zn.right
		xParent = zn.parent
		t.transplant(z, x)
	case zn.right == Nil:
		x = zn.left
		xParent = zn.parent
		t.transplant(z, x)
	default:
		y = t.minNode(zn.right)
		yColor = t.nodes[y].color
		x = t.nodes[y].right
		if t.nodes[y].parent == z {
			xParent = y
		} else {
			xParent = t.nodes[y].parent
			t.transplant(y, x)
			t.nodes[y].right = zn.right
			t.nodes[zn.right].parent = y
		}
		t.transplant(z, y)
		t.nodes[y].left = zn.left
		t.nodes[zn.left].parent = y
		t.nodes[y].color = zn.color
	}

	if yColor == Black {
		t.deleteFixup(x, xParent)
	}
}

// deleteFixup resolves the extra black left at x after a black node was
// removed above it. parent is x's parent; it is carried explicitly because x
// may be the sentinel.
func (t *Tree[K]) deleteFixup(x, parent Handle) {
	for x != t.root && t.nodes[x].color == Black {
		if x == t.nodes[parent].left {
			w := t.nodes[parent].right
			if t.nodes[w].color == Red {
				t.nodes[w].color = Black
				t.nodes[parent].color = Red
				t.rotateLeft(parent)
				w = t.nodes[parent].right
			}
			if t.nodes[t.nodes[w].left].color == Black && t.nodes[t.nodes[w].right].color == Black {
				t.nodes[w].color = Red
				x = parent
				parent = t.nodes[x].parent
				continue
			}
			if t.nodes[t.nodes[w].right].color == Black {
				t.nodes[t.nodes[w].left].color = Black
				t.nodes[w].color = Red
				t.rotateRight(w)
				w = t.nodes[parent].right
			}
			t.nodes[w].color = t.nodes[parent].color
			t.nodes[parent].color = Black
			t.nodes[t.nodes[w].right].color = Black
			t.rotateLeft(parent)
			x = t.root
		} else {
			w := t.nodes[parent].left
			if t.nodes[w].color == Red {
				t.nodes[w].color = Black
				t.nodes[parent].color = Red
				t.rotateRight(parent)
				w = t.nodes[parent].left
			}
			if t.nodes[t.nodes[w].right].color == Black && t.nodes[t.nodes[w].left].color == Black {
				t.nodes[w].color = Red
				x = parent
				parent = t.nodes[x].parent
				continue
			}
			if t.nodes[t.nodes[w].left].color == Black {
				t.nodes[t.nodes[w].right].color = Black
				t.nodes[w].color = Red
				t.rotateLeft(w)
				w = t.nodes[parent].left
			}
			t.nodes[w].color = t.nodes[parent].color
			t.nodes[parent].color = Black
			t.nodes[t.nodes[w].left].color = Black
			t.rotateRight(parent)
			x = t.root
		}
	}
	if x != Nil {
		t.nodes[x].color = Black
	}
}
