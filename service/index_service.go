package service

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"rbindex/domain/event"
	"rbindex/domain/rbtree"
	"rbindex/infra/codec"
	"rbindex/infra/sequence"
)

// Journal receives encoded change events. *outbox.Outbox implements it.
type Journal interface {
	Put(seq uint64, payload []byte) error
}

type Entry struct {
	Key   int64
	Color rbtree.Color
}

// Stats describes the index. Min and Max are meaningful only when Bounded,
// which is false for an empty index.
type Stats struct {
	Size        int
	Height      int
	BlackHeight int
	Min         int64
	Max         int64
	Bounded     bool
	Unique      bool
}

// Deps are optional collaborators. A nil Journal disables change events and
// a nil Metrics disables instrumentation.
type Deps struct {
	Sequencer  *sequence.Sequencer
	Journal    Journal
	Serializer codec.Serializer
	Metrics    *Metrics
	Log        logrus.FieldLogger
}

type IndexService struct {
	mu     sync.RWMutex
	tree   *rbtree.Tree[int64]
	verify bool

	seq     *sequence.Sequencer
	journal Journal
	ser     codec.Serializer
	metrics *Metrics
	log     logrus.FieldLogger
}

// NewIndexService wires the tree and its collaborators. With verify set,
// every mutation is followed by a full invariant check and a violation
// panics.
func NewIndexService(tree *rbtree.Tree[int64], deps Deps, verify bool) *IndexService {
	if deps.Sequencer == nil {
		deps.Sequencer = sequence.New(0)
	}
	if deps.Serializer == nil {
		deps.Serializer = codec.JSONSerializer{}
	}
	if deps.Log == nil {
		deps.Log = logrus.StandardLogger()
	}
	s := &IndexService{
		tree:    tree,
		verify:  verify,
		seq:     deps.Sequencer,
		journal: deps.Journal,
		ser:     deps.Serializer,
		metrics: deps.Metrics,
		log:     deps.Log.WithField("component", "index"),
	}
	s.metrics.setSize(tree.Len())
	s.metrics.watch(s)
	return s
}

//
// ──────────────────────────────────────────────────────────
// Commands
// ──────────────────────────────────────────────────────────
//

// Insert stores key and returns the change sequence assigned to it.
func (s *IndexService) Insert(ctx context.Context, key int64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.Insert(key); err != nil {
		s.metrics.observe("insert", resultOf(err))
		return 0, err
	}
	return s.commit(event.OpInsert, key), nil
}

// Delete removes one occurrence of key. rbtree.ErrNotFound is returned,
// wrapped, for absent keys.
func (s *IndexService) Delete(ctx context.Context, key int64) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.tree.Delete(key); err != nil {
		s.metrics.observe("delete", resultOf(err))
		return 0, err
	}
	return s.commit(event.OpDelete, key), nil
}

// commit runs after a successful mutation with the write lock held, so
// sequence numbers follow mutation order. A journal failure does not undo
// the mutation; it is logged and counted.
func (s *IndexService) commit(op event.Op, key int64) uint64 {
	if s.verify {
		if err := s.tree.Check(); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{"op": op, "key": key}).Error("tree invariant violated")
			panic(err)
		}
	}

	seq := s.seq.Next()
	size := s.tree.Len()
	s.metrics.observe(op.String(), "ok")
	s.metrics.setSize(size)

	entry := s.log.WithFields(logrus.Fields{"op": op, "key": key, "seq": seq, "size": size})
	if s.journal != nil {
		payload, err := s.ser.Encode(event.NewChange(seq, op, key, size))
		if err == nil {
			err = s.journal.Put(seq, payload)
		}
		if err != nil {
			s.metrics.journalError()
			entry.WithError(err).Error("change event not recorded")
			return seq
		}
	}
	entry.Debug("applied")
	return seq
}

//
// ──────────────────────────────────────────────────────────
// Queries
// ──────────────────────────────────────────────────────────
//

func (s *IndexService) Search(ctx context.Context, key int64) (Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	h := s.tree.Search(key)
	if h == rbtree.Nil {
		s.metrics.observe("search", "absent")
		return Entry{}, false, nil
	}
	s.metrics.observe("search", "ok")
	return Entry{Key: s.tree.Key(h), Color: s.tree.Color(h)}, true, nil
}

// InOrder copies the current contents in ascending order.
func (s *IndexService) InOrder(ctx context.Context) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, s.tree.Len())
	for k, c := range s.tree.InOrder() {
		out = append(out, Entry{Key: k, Color: c})
	}
	return out, nil
}

func (s *IndexService) Stats(ctx context.Context) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := s.shapeLocked()
	st.Size = s.tree.Len()
	st.Unique = s.tree.Unique()
	st.Min, st.Bounded = s.tree.Min()
	st.Max, _ = s.tree.Max()
	return st, nil
}

// shape walks the tree for its height. It is O(n) and stays off the
// mutation path.
func (s *IndexService) shape() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.shapeLocked()
}

func (s *IndexService) shapeLocked() Stats {
	return Stats{Height: s.tree.Height(), BlackHeight: s.tree.BlackHeight()}
}

// Check runs the tree's invariant verification under the read lock.
func (s *IndexService) Check() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Check()
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, rbtree.ErrNotFound):
		return "not_found"
	case errors.Is(err, rbtree.ErrAlreadyExists):
		return "exists"
	default:
		return "error"
	}
}
