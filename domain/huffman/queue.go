package huffman

type node struct {
	symbol rune
	freq   int
	seq    int // queue insertion order, breaks frequency ties
	left   *node
	right  *node
}

func (n *node) leaf() bool {
	return n.left == nil && n.right == nil
}

// queue is a min-heap on (freq, seq) driven by container/heap.
type queue []*node

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].freq != q[j].freq {
		return q[i].freq < q[j].freq
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(*node)) }

func (q *queue) Pop() any {
	old := *q
	n := old[len(old)-1]
	old[len(old)-1] = nil
	*q = old[:len(old)-1]
	return n
}
