// Package event defines the change notifications emitted for every
// successful mutation of the index.
package event

import "time"

// Op is the mutation that produced an event.
type Op uint8

const (
	OpInsert Op = iota + 1
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// ParseOp is the inverse of Op.String.
func ParseOp(s string) (Op, bool) {
	switch s {
	case "insert":
		return OpInsert, true
	case "delete":
		return OpDelete, true
	default:
		return 0, false
	}
}

// Change is immutable once created.
type Change struct {
	Seq  uint64
	Op   Op
	Key  int64
	Time int64 // unix nanoseconds
	Size int   // index size after the mutation
}

func NewChange(seq uint64, op Op, key int64, size int) *Change {
	return &Change{
		Seq:  seq,
		Op:   op,
		Key:  key,
		Time: time.Now().UnixNano(),
		Size: size,
	}
}
