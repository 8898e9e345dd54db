// Package rbtree is an ordered index backed by a red-black tree.
//
// Nodes live in a flat arena and are linked by Handle values. Handle 0 is
// the shared black sentinel, so every child and parent slot always names a
// valid node and the balancing code never checks for an absent link. The
// sentinel is read, never written.
//
// A Tree is not safe for concurrent use. Readers may share a tree while no
// mutation is in flight; anything else needs external locking (see
// service.IndexService, which guards one tree with a single RWMutex).
package rbtree
