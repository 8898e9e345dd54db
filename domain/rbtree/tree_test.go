package rbtree

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertAll[K int | string](t *testing.T, tree *Tree[K], keys ...K) {
	t.Helper()
	for _, k := range keys {
		require.NoError(t, tree.Insert(k))
		require.NoError(t, tree.Check(), "after insert %v", k)
	}
}

// structure captures everything Delete could touch.
type structure struct {
	nodes []node[int]
	free  []Handle
	root  Handle
	size  int
}

func snapshotOf(tree *Tree[int]) structure {
	return structure{
		nodes: append([]node[int](nil), tree.nodes...),
		free:  append([]Handle(nil), tree.free...),
		root:  tree.root,
		size:  tree.size,
	}
}

func TestInsertScenario(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)

	assert.Equal(t, Black, tree.Color(tree.Root()))
	assert.Equal(t, 20, tree.Key(tree.Root()))
	assert.Equal(t, []int{5, 10, 15, 20, 25, 30, 35}, tree.Keys())
	assert.Equal(t, "5(R) 10(B) 15(R) 20(B) 25(R) 30(B) 35(R)", tree.String())
	assert.Equal(t, 7, tree.Len())
}

func TestDeleteScenario(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)

	require.NoError(t, tree.Delete(20))
	require.NoError(t, tree.Check())
	assert.Equal(t, "5(R) 10(B) 15(R) 25(B) 30(B) 35(R)", tree.String())

	require.NoError(t, tree.Delete(10))
	require.NoError(t, tree.Check())
	assert.Equal(t, []int{5, 15, 25, 30, 35}, tree.Keys())
	assert.Equal(t, "5(R) 15(B) 25(B) 30(B) 35(R)", tree.String())
	assert.Equal(t, 5, tree.Len())
}

func TestSearch(t *testing.T) {
	tree := New[int]()
	assert.Equal(t, Nil, tree.Search(1))

	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
	h := tree.Search(20)
	require.NotEqual(t, Nil, h)
	assert.Equal(t, 20, tree.Key(h))
	assert.Equal(t, Black, tree.Color(h))

	h = tree.Search(25)
	require.NotEqual(t, Nil, h)
	assert.Equal(t, Red, tree.Color(h))

	assert.Equal(t, Nil, tree.Search(11))
	assert.True(t, tree.Contains(35))
	assert.False(t, tree.Contains(36))
	assert.Equal(t, Black, tree.Color(Nil))
}

func TestDeleteMissingLeavesTreeUnchanged(t *testing.T) {
	tree := New[int]()
	before := snapshotOf(tree)
	err := tree.Delete(42)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, before, snapshotOf(tree))

	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
	require.NoError(t, tree.Delete(15))
	before = snapshotOf(tree)

	for _, k := range []int{0, 15, 17, 40} {
		err := tree.Delete(k)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNotFound), "key %d", k)
		assert.Contains(t, err.Error(), "delete")
	}
	assert.Equal(t, before, snapshotOf(tree))
	require.NoError(t, tree.Check())
}

func TestInsertThenDeleteIsAbsent(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 8, 3, 12, 1)

	require.NoError(t, tree.Insert(7))
	require.NoError(t, tree.Delete(7))
	require.NoError(t, tree.Check())
	assert.Equal(t, Nil, tree.Search(7))
	assert.Equal(t, []int{1, 3, 8, 12}, tree.Keys())
}

func TestDuplicatesAreKept(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 5, 5, 5, 3, 5, 7)

	assert.Equal(t, []int{3, 5, 5, 5, 5, 7}, tree.Keys())
	assert.Equal(t, 6, tree.Len())

	for i := 4; i > 0; i-- {
		require.NoError(t, tree.Delete(5))
		require.NoError(t, tree.Check())
		if i > 1 {
			assert.True(t, tree.Contains(5))
		}
	}
	assert.False(t, tree.Contains(5))
	assert.True(t, errors.Is(tree.Delete(5), ErrNotFound))
	assert.Equal(t, []int{3, 7}, tree.Keys())
}

func TestUniqueKeys(t *testing.T) {
	tree := New[int](WithUniqueKeys())
	assert.True(t, tree.Unique())
	insertAll(t, tree, 2, 1, 3)

	before := snapshotOf(tree)
	err := tree.Insert(2)
	assert.True(t, errors.Is(err, ErrAlreadyExists))
	assert.Equal(t, before, snapshotOf(tree))
	assert.Equal(t, []int{1, 2, 3}, tree.Keys())
}

func TestMinMax(t *testing.T) {
	tree := New[int]()
	_, ok := tree.Min()
	assert.False(t, ok)
	_, ok = tree.Max()
	assert.False(t, ok)

	insertAll(t, tree, 50, 10, 90, 30)
	min, ok := tree.Min()
	require.True(t, ok)
	assert.Equal(t, 10, min)
	max, ok := tree.Max()
	require.True(t, ok)
	assert.Equal(t, 90, max)
}

func TestStringKeys(t *testing.T) {
	tree := New[string]()
	insertAll(t, tree, "pear", "apple", "fig", "kiwi", "banana")
	assert.Equal(t, []string{"apple", "banana", "fig", "kiwi", "pear"}, tree.Keys())
	require.NoError(t, tree.Delete("fig"))
	require.NoError(t, tree.Check())
	assert.Equal(t, Nil, tree.Search("fig"))
}

func TestInOrderIsRestartable(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 4, 2, 6, 1, 3)

	seq := tree.InOrder()
	var first, second []int
	for k := range seq {
		first = append(first, k)
	}
	for k := range seq {
		second = append(second, k)
	}
	assert.Equal(t, first, second)

	var stopped []int
	for k := range seq {
		if k > 2 {
			break
		}
		stopped = append(stopped, k)
	}
	assert.Equal(t, []int{1, 2}, stopped)
}

func TestReleasedSlotsAreReused(t *testing.T) {
	tree := New[int](WithCapacity(8))
	insertAll(t, tree, 1, 2, 3)
	slots := len(tree.nodes)

	require.NoError(t, tree.Delete(2))
	require.Len(t, tree.free, 1)
	require.NoError(t, tree.Insert(9))
	assert.Empty(t, tree.free)
	assert.Equal(t, slots, len(tree.nodes))
	require.NoError(t, tree.Check())
}

func TestClear(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 3, 1, 2)
	tree.Clear()
	assert.Equal(t, 0, tree.Len())
	assert.Equal(t, Nil, tree.Root())
	assert.Empty(t, tree.Keys())
	require.NoError(t, tree.Check())

	insertAll(t, tree, 7)
	assert.Equal(t, []int{7}, tree.Keys())
}

func TestRotationsPreserveOrder(t *testing.T) {
	tree := New[int]()
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
	keys := tree.Keys()
	root := tree.Root()

	tree.rotateLeft(root)
	assert.Equal(t, keys, tree.Keys())
	newRoot := tree.Root()
	assert.Equal(t, 30, tree.Key(newRoot))
	assert.Equal(t, root, tree.nodes[newRoot].left)
	assert.Equal(t, newRoot, tree.nodes[root].parent)
	assert.Equal(t, Nil, tree.nodes[newRoot].parent)

	tree.rotateRight(newRoot)
	assert.Equal(t, keys, tree.Keys())
	assert.Equal(t, root, tree.Root())
	require.NoError(t, tree.Check())
	assert.Equal(t, sentinel[int](), tree.nodes[Nil])
}

func TestCheckDetectsViolations(t *testing.T) {
	build := func() *Tree[int] {
		tree := New[int]()
		insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
		return tree
	}

	cases := map[string]func(*Tree[int]){
		"red root": func(tr *Tree[int]) { tr.nodes[tr.root].color = Red },
		"red red": func(tr *Tree[int]) {
			tr.nodes[tr.Search(10)].color = Red
		},
		"black height": func(tr *Tree[int]) { tr.nodes[tr.Search(5)].color = Black },
		"order":        func(tr *Tree[int]) { tr.nodes[tr.Search(5)].key = 12 },
		"parent link":  func(tr *Tree[int]) { tr.nodes[tr.Search(5)].parent = tr.Search(30) },
		"sentinel":     func(tr *Tree[int]) { tr.nodes[Nil].parent = tr.root },
		"size":         func(tr *Tree[int]) { tr.size++ },
	}
	for name, corrupt := range cases {
		t.Run(name, func(t *testing.T) {
			tree := build()
			corrupt(tree)
			err := tree.Check()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvariant), err.Error())
		})
	}
}

func TestFprint(t *testing.T) {
	tree := New[int]()
	var buf bytes.Buffer
	assert.Equal(t, 0, tree.Fprint(&buf))
	assert.Empty(t, buf.String())

	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
	depth := tree.Fprint(&buf)
	assert.Equal(t, tree.Height(), depth)
	assert.Equal(t, 3, depth)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "              /------+ 35(R)", lines[0])
	assert.Equal(t, "       |      \\------+ 25(R)", lines[2])
	assert.Equal(t, "|------+ 20(B)", lines[3])
	assert.Equal(t, "       \\------+ 10(B)", lines[5])
	assert.Equal(t, "              \\------+ 5(R)", lines[6])
}

func TestBlackHeight(t *testing.T) {
	tree := New[int]()
	assert.Equal(t, 0, tree.BlackHeight())
	insertAll(t, tree, 10, 20, 30, 15, 25, 5, 35)
	assert.Equal(t, 2, tree.BlackHeight())
}
