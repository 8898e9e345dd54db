package rbtree

import (
	"fmt"
	"io"
	"strings"
)

// String renders the in-order walk as "k(C) k(C) ...", C being R or B.
func (t *Tree[K]) String() string {
	var b strings.Builder
	for k, c := range t.InOrder() {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%v(%s)", k, c)
	}
	return b.String()
}

type branch int

const (
	rootBranch branch = iota
	leftBranch
	rightBranch
)

// Fprint draws the tree sideways, right subtree on top, and returns its
// height.
func (t *Tree[K]) Fprint(w io.Writer) int {
	return t.fprint(w, t.root, "", rootBranch)
}

func (t *Tree[K]) fprint(w io.Writer, n Handle, prefix string, br branch) int {
	if n == Nil {
		return 0
	}
	nd := t.nodes[n]

	rd := 0
	if nd.right != Nil {
		pad := "       "
		if br == leftBranch {
			pad = "|      "
		}
		rd = t.fprint(w, nd.right, prefix+pad, rightBranch)
	}

	switch br {
	case rootBranch:
		fmt.Fprintf(w, "%s|------+ ", prefix)
	case leftBranch:
		fmt.Fprintf(w, "%s\\------+ ", prefix)
	case rightBranch:
		fmt.Fprintf(w, "%s/------+ ", prefix)
	}
	fmt.Fprintf(w, "%v(%s)\n", nd.key, nd.color)

	ld := 0
	if nd.left != Nil {
		pad := "       "
		if br == rightBranch {
			pad = "|      "
		}
		ld = t.fprint(w, nd.left, prefix+pad, leftBranch)
	}
	return 1 + max(rd, ld)
}
