// Package service is the single entry point into the ordered index. It owns
// the tree, serializes access to it with one RWMutex, numbers every
// successful mutation and records it in the change journal for the
// broadcaster. Transports such as gRPC sit on top of it.
package service
