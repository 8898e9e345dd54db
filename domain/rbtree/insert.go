package rbtree

// insertFixup restores the no-red-red rule after z was linked in red. The
// loop runs while z's parent is red; a black parent never violates anything.
func (t *Tree[K]) insertFixup(z Handle) {
	for t.nodes[t.nodes[z].parent].color == Red {
		p := t.nodes[z].parent
		g := t.nodes[p].parent

		if p == t.nodes[g].left {
			u := t.nodes[g].right
			if t.nodes[u].color == Red {
				// uncle red: push the violation up to the grandparent
				t.nodes[p].color = Black
				t.nodes[u].color = Black
				t.nodes[g].color = Red
				z = g
				continue
			}
			if z == t.nodes[p].right {
				// inner grandchild: rotate into the outer shape
				z = p
				t.rotateLeft(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].color = Black
			t.nodes[g].color = Red
			t.rotateRight(g)
		} else {
			u := t.nodes[g].left
			if t.nodes[u].color == Red {
				t.nodes[p].color = Black
				t.nodes[u].color = Black
				t.nodes[g].color = Red
				z = g
				continue
			}
			if z == t.nodes[p].left {
				z = p
				t.rotateRight(z)
				p = t.nodes[z].parent
			}
			t.nodes[p].color = Black
			t.nodes[g].color = Red
			t.rotateLeft(g)
		}
	}
	t.nodes[t.root].color = Black
}
