package rbtree

import (
	"math/rand/v2"
	"testing"
)

func BenchmarkInsert(b *testing.B) {
	rng := rand.New(rand.NewPCG(1, 2))
	tree := New[int64](WithCapacity(b.N))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = tree.Insert(rng.Int64())
	}
}

func BenchmarkSearch(b *testing.B) {
	const n = 1 << 16
	tree := New[int64](WithCapacity(n))
	for i := int64(0); i < n; i++ {
		_ = tree.Insert(i * 2)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tree.Search(int64(i % (2 * n)))
	}
}

func BenchmarkInsertDelete(b *testing.B) {
	const n = 1 << 12
	tree := New[int64](WithCapacity(n))
	for i := int64(0); i < n; i++ {
		_ = tree.Insert(i)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		k := int64(i % n)
		_ = tree.Delete(k)
		_ = tree.Insert(k)
	}
}
