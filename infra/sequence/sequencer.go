// Package sequence numbers change events.
package sequence

import (
	"sync/atomic"

	"github.com/pkg/errors"
)

// HighWater is a durable record of the highest sequence ever issued.
// *outbox.Outbox implements it; the mark survives deletion of delivered
// events.
type HighWater interface {
	LastSeq() (uint64, error)
}

// Sequencer hands out strictly increasing numbers. The first Next after
// New(start) returns start+1.
type Sequencer struct {
	last atomic.Uint64
}

func New(start uint64) *Sequencer {
	s := &Sequencer{}
	s.last.Store(start)
	return s
}

// Restore builds a sequencer that continues after the mark stored in hw, so
// numbers are never reused across restarts.
func Restore(hw HighWater) (*Sequencer, error) {
	mark, err := hw.LastSeq()
	if err != nil {
		return nil, errors.Wrap(err, "read sequence high-water mark")
	}
	return New(mark), nil
}

func (s *Sequencer) Next() uint64 {
	return s.last.Add(1)
}

// Last returns the most recently issued number.
func (s *Sequencer) Last() uint64 {
	return s.last.Load()
}

// Advance raises the counter to mark if it is behind and reports whether it
// moved. It never lowers the counter.
func (s *Sequencer) Advance(mark uint64) bool {
	for {
		cur := s.last.Load()
		if mark <= cur {
			return false
		}
		if s.last.CompareAndSwap(cur, mark) {
			return true
		}
	}
}
