package huffman

import (
	"container/heap"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
)

var (
	ErrEmptyTable        = errors.New("huffman: empty frequency table")
	ErrNegativeFrequency = errors.New("huffman: negative frequency")
	ErrUnknownSymbol     = errors.New("huffman: symbol not in code table")
	ErrInvalidBit        = errors.New("huffman: invalid bit")
	ErrInvalidCode       = errors.New("huffman: bits leave the code tree")
	ErrTruncated         = errors.New("huffman: trailing bits do not reach a symbol")
)

// Code is an immutable prefix code built by Build.
type Code struct {
	root  *node
	table map[rune]string
	freq  map[rune]int
}

// Entry is one row of a code table.
type Entry struct {
	Symbol rune
	Freq   int
	Bits   string
}

// Build merges the two least frequent nodes until a single tree remains and
// derives each symbol's code from its path. A one-symbol table gets the code
// "0".
func Build(freq map[rune]int) (*Code, error) {
	if len(freq) == 0 {
		return nil, ErrEmptyTable
	}

	symbols := make([]rune, 0, len(freq))
	for s, f := range freq {
		if f < 0 {
			return nil, errors.Wrapf(ErrNegativeFrequency, "symbol %q: %d", s, f)
		}
		symbols = append(symbols, s)
	}
	slices.Sort(symbols)

	q := make(queue, 0, len(symbols))
	seq := 0
	for _, s := range symbols {
		q = append(q, &node{symbol: s, freq: freq[s], seq: seq})
		seq++
	}
	heap.Init(&q)

	for q.Len() > 1 {
		left := heap.Pop(&q).(*node)
		right := heap.Pop(&q).(*node)
		heap.Push(&q, &node{freq: left.freq + right.freq, seq: seq, left: left, right: right})
		seq++
	}

	root := heap.Pop(&q).(*node)
	if root.leaf() {
		root = &node{freq: root.freq, left: root}
	}

	c := &Code{
		root:  root,
		table: make(map[rune]string, len(symbols)),
		freq:  make(map[rune]int, len(symbols)),
	}
	for s, f := range freq {
		c.freq[s] = f
	}
	c.assign(root, nil)
	return c, nil
}

func (c *Code) assign(n *node, path []byte) {
	if n == nil {
		return
	}
	if n.leaf() {
		c.table[n.symbol] = string(path)
		return
	}
	c.assign(n.left, append(path, '0'))
	c.assign(n.right, append(path, '1'))
}

// Lookup returns the bit string for s.
func (c *Code) Lookup(s rune) (string, bool) {
	bits, ok := c.table[s]
	return bits, ok
}

// Codes returns the table sorted by symbol.
func (c *Code) Codes() []Entry {
	out := make([]Entry, 0, len(c.table))
	for s, bits := range c.table {
		out = append(out, Entry{Symbol: s, Freq: c.freq[s], Bits: bits})
	}
	slices.SortFunc(out, func(a, b Entry) int { return int(a.Symbol) - int(b.Symbol) })
	return out
}

func (c *Code) Encode(text string) (string, error) {
	var b strings.Builder
	for i, s := range text {
		bits, ok := c.table[s]
		if !ok {
			return "", errors.Wrapf(ErrUnknownSymbol, "%q at offset %d", s, i)
		}
		b.WriteString(bits)
	}
	return b.String(), nil
}

// Decode walks the tree from the root for every bit and emits a symbol at
// each leaf. Input that stops between leaves fails with ErrTruncated.
func (c *Code) Decode(bits string) (string, error) {
	var b strings.Builder
	cur := c.root
	for i := 0; i < len(bits); i++ {
		switch bits[i] {
		case '0':
			cur = cur.left
		case '1':
			cur = cur.right
		default:
			return "", errors.Wrapf(ErrInvalidBit, "%q at offset %d", bits[i], i)
		}
		if cur == nil {
			return "", errors.Wrapf(ErrInvalidCode, "offset %d", i)
		}
		if cur.leaf() {
			b.WriteRune(cur.symbol)
			cur = c.root
		}
	}
	if cur != c.root {
		return "", ErrTruncated
	}
	return b.String(), nil
}

// FrequencyOf counts every rune of text.
func FrequencyOf(text string) map[rune]int {
	freq := make(map[rune]int)
	for _, s := range text {
		freq[s]++
	}
	return freq
}

// CompressionRatio is the percentage saved by bits against eight bits per
// symbol of text.
func CompressionRatio(text, bits string) float64 {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	return (1 - float64(len(bits))/float64(n*8)) * 100
}
