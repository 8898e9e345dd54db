package rbtree

import "github.com/pkg/errors"

var (
	// ErrNotFound is returned by Delete when the key is not stored.
	ErrNotFound = errors.New("rbtree: key not found")

	// ErrAlreadyExists is returned by Insert on a tree built WithUniqueKeys
	// when the key is already stored.
	ErrAlreadyExists = errors.New("rbtree: key already exists")

	// ErrInvariant is wrapped by every failure reported from Check.
	ErrInvariant = errors.New("rbtree: invariant violated")
)
