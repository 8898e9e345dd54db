// Package outbox is a durable queue of encoded change events waiting to be
// delivered to the broker. Records are keyed by change sequence, so a scan
// returns them in the order the index produced them.
package outbox

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/cockroachdb/pebble/vfs"
	"github.com/pkg/errors"

	"rbindex/infra/codec"
)

// -------------------- State --------------------

type State uint8

const (
	StateNew State = iota
	StateSent
	StateAcked
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateNew:
		return "NEW"
	case StateSent:
		return "SENT"
	case StateAcked:
		return "ACKED"
	case StateFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

var ErrNotFound = errors.New("outbox: record not found")

// -------------------- Record --------------------

type Record struct {
	Seq         uint64
	State       State
	Retries     uint32
	LastAttempt int64
	Payload     []byte
}

const headerLen = 1 + 4 + 8

// encoding: frame([state:1][retries:4][lastAttempt:8][payload])
func encodeRecord(r Record) []byte {
	buf := make([]byte, headerLen+len(r.Payload))
	buf[0] = byte(r.State)
	binary.BigEndian.PutUint32(buf[1:5], r.Retries)
	binary.BigEndian.PutUint64(buf[5:13], uint64(r.LastAttempt))
	copy(buf[headerLen:], r.Payload)
	return codec.Frame(buf)
}

func decodeRecord(seq uint64, b []byte) (Record, error) {
	body, err := codec.Unframe(b)
	if err != nil {
		return Record{}, errors.Wrapf(err, "outbox record %d", seq)
	}
	if len(body) < headerLen {
		return Record{}, errors.Errorf("outbox record %d: invalid length %d", seq, len(body))
	}
	return Record{
		Seq:         seq,
		State:       State(body[0]),
		Retries:     binary.BigEndian.Uint32(body[1:5]),
		LastAttempt: int64(binary.BigEndian.Uint64(body[5:13])),
		Payload:     append([]byte(nil), body[headerLen:]...),
	}, nil
}

// -------------------- Outbox --------------------

type Options struct {
	Dir string
	// InMemory keeps everything in a pebble memory filesystem; Dir is ignored.
	InMemory bool
	// NoSync skips fsync on writes.
	NoSync bool
}

type Outbox struct {
	db    *pebble.DB
	write *pebble.WriteOptions

	mu   sync.Mutex // serializes Put so the mark only grows
	mark uint64
}

func Open(opts Options) (*Outbox, error) {
	dir := opts.Dir
	pebbleOpts := &pebble.Options{}
	if opts.InMemory {
		dir = ""
		pebbleOpts.FS = vfs.NewMem()
	}
	db, err := pebble.Open(dir, pebbleOpts)
	if err != nil {
		return nil, errors.Wrapf(err, "open outbox %q", dir)
	}
	write := pebble.Sync
	if opts.NoSync {
		write = pebble.NoSync
	}
	o := &Outbox{db: db, write: write}
	if o.mark, err = o.loadMark(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return o, nil
}

func (o *Outbox) Close() error {
	return o.db.Close()
}

// -------------------- API --------------------

// Put stores a NEW record for seq and raises the sequence high-water mark
// in the same batch.
func (o *Outbox) Put(seq uint64, payload []byte) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	batch := o.db.NewBatch()
	defer batch.Close()

	rec := Record{Seq: seq, State: StateNew, Payload: payload}
	if err := batch.Set(keyFor(seq), encodeRecord(rec), nil); err != nil {
		return err
	}
	if seq > o.mark {
		if err := batch.Set([]byte(markKey), encodeMark(seq), nil); err != nil {
			return err
		}
	}
	if err := batch.Commit(o.write); err != nil {
		return err
	}
	o.mark = max(o.mark, seq)
	return nil
}

func (o *Outbox) Get(seq uint64) (Record, error) {
	val, closer, err := o.db.Get(keyFor(seq))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return Record{}, errors.Wrapf(ErrNotFound, "seq %d", seq)
		}
		return Record{}, err
	}
	defer closer.Close()

	return decodeRecord(seq, val)
}

// MarkSent records a delivery attempt.
func (o *Outbox) MarkSent(seq uint64) error {
	return o.update(seq, func(r *Record) {
		r.State = StateSent
		r.Retries++
		r.LastAttempt = time.Now().UnixNano()
	})
}

func (o *Outbox) MarkAcked(seq uint64) error {
	return o.update(seq, func(r *Record) { r.State = StateAcked })
}

func (o *Outbox) MarkFailed(seq uint64) error {
	return o.update(seq, func(r *Record) { r.State = StateFailed })
}

func (o *Outbox) update(seq uint64, fn func(*Record)) error {
	rec, err := o.Get(seq)
	if err != nil {
		return err
	}
	fn(&rec)
	return o.db.Set(keyFor(seq), encodeRecord(rec), o.write)
}

// -------------------- Scan --------------------

// ScanByState calls fn for every record in one of states, lowest seq first.
// Returning an error from fn stops the scan.
func (o *Outbox) ScanByState(fn func(Record) error, states ...State) error {
	want := make(map[State]bool, len(states))
	for _, s := range states {
		want[s] = true
	}

	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyUpper),
	})
	if err != nil {
		return err
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq, err := parseKey(iter.Key())
		if err != nil {
			return err
		}
		rec, err := decodeRecord(seq, iter.Value())
		if err != nil {
			return err
		}
		if !want[rec.State] {
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}
	return iter.Error()
}

// ScanPending visits records that have not been acknowledged or given up on.
func (o *Outbox) ScanPending(fn func(Record) error) error {
	return o.ScanByState(fn, StateNew, StateSent)
}

// DeleteAcked removes every ACKED record and reports how many went.
func (o *Outbox) DeleteAcked() (int, error) {
	batch := o.db.NewBatch()
	defer batch.Close()

	n := 0
	err := o.ScanByState(func(r Record) error {
		n++
		return batch.Delete(keyFor(r.Seq), nil)
	}, StateAcked)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := batch.Commit(o.write); err != nil {
		return 0, err
	}
	return n, nil
}

// LastSeq returns the highest sequence ever Put, 0 for a new outbox. It is
// unaffected by DeleteAcked.
func (o *Outbox) LastSeq() (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mark, nil
}

// loadMark reads the stored mark. Outboxes written before the mark existed
// fall back to their highest event key.
func (o *Outbox) loadMark() (uint64, error) {
	val, closer, err := o.db.Get([]byte(markKey))
	switch {
	case err == nil:
		defer closer.Close()
		if len(val) != 8 {
			return 0, errors.Errorf("outbox: malformed sequence mark %x", val)
		}
		return binary.BigEndian.Uint64(val), nil
	case !errors.Is(err, pebble.ErrNotFound):
		return 0, errors.Wrap(err, "outbox: read sequence mark")
	}

	iter, err := o.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(keyPrefix),
		UpperBound: []byte(keyUpper),
	})
	if err != nil {
		return 0, err
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	return parseKey(iter.Key())
}

// -------------------- Helpers --------------------

const (
	keyPrefix = "event/"
	keyUpper  = "event/~"
	markKey   = "meta/last-seq"
)

func encodeMark(seq uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, seq)
	return b
}

func keyFor(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", keyPrefix, seq))
}

func parseKey(b []byte) (uint64, error) {
	if len(b) <= len(keyPrefix) {
		return 0, errors.Errorf("outbox: malformed key %q", b)
	}
	seq, err := strconv.ParseUint(string(b[len(keyPrefix):]), 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "outbox: malformed key %q", b)
	}
	return seq, nil
}
