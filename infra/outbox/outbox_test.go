package outbox

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rbindex/infra/sequence"
)

func openMem(t *testing.T) *Outbox {
	t.Helper()
	o, err := Open(Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = o.Close() })
	return o
}

func collect(t *testing.T, o *Outbox, states ...State) []Record {
	t.Helper()
	var out []Record
	require.NoError(t, o.ScanByState(func(r Record) error {
		out = append(out, r)
		return nil
	}, states...))
	return out
}

func TestPutGet(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Put(7, []byte("seven")))

	rec, err := o.Get(7)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), rec.Seq)
	assert.Equal(t, StateNew, rec.State)
	assert.Equal(t, []byte("seven"), rec.Payload)
	assert.Zero(t, rec.Retries)

	_, err = o.Get(8)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStateTransitions(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Put(1, []byte("a")))

	require.NoError(t, o.MarkSent(1))
	require.NoError(t, o.MarkSent(1))
	rec, err := o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateSent, rec.State)
	assert.Equal(t, uint32(2), rec.Retries)
	assert.NotZero(t, rec.LastAttempt)
	assert.Equal(t, []byte("a"), rec.Payload)

	require.NoError(t, o.MarkAcked(1))
	rec, err = o.Get(1)
	require.NoError(t, err)
	assert.Equal(t, StateAcked, rec.State)

	assert.True(t, errors.Is(o.MarkAcked(99), ErrNotFound))
}

func TestScanOrderAndFilter(t *testing.T) {
	o := openMem(t)
	for _, seq := range []uint64{12, 3, 100, 9} {
		require.NoError(t, o.Put(seq, []byte{byte(seq)}))
	}
	require.NoError(t, o.MarkAcked(9))
	require.NoError(t, o.MarkFailed(100))
	require.NoError(t, o.MarkSent(12))

	var seqs []uint64
	for _, r := range collect(t, o, StateNew, StateSent) {
		seqs = append(seqs, r.Seq)
	}
	assert.Equal(t, []uint64{3, 12}, seqs)

	var pending []uint64
	require.NoError(t, o.ScanPending(func(r Record) error {
		pending = append(pending, r.Seq)
		return nil
	}))
	assert.Equal(t, seqs, pending)

	failed := collect(t, o, StateFailed)
	require.Len(t, failed, 1)
	assert.Equal(t, uint64(100), failed[0].Seq)
}

func TestScanStopsOnError(t *testing.T) {
	o := openMem(t)
	require.NoError(t, o.Put(1, nil))
	require.NoError(t, o.Put(2, nil))

	stop := errors.New("stop")
	calls := 0
	err := o.ScanPending(func(Record) error {
		calls++
		return stop
	})
	assert.Equal(t, stop, err)
	assert.Equal(t, 1, calls)
}

func TestDeleteAcked(t *testing.T) {
	o := openMem(t)
	for seq := uint64(1); seq <= 5; seq++ {
		require.NoError(t, o.Put(seq, nil))
	}
	require.NoError(t, o.MarkAcked(2))
	require.NoError(t, o.MarkAcked(4))

	n, err := o.DeleteAcked()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, collect(t, o, StateNew, StateSent, StateAcked, StateFailed), 3)

	n, err = o.DeleteAcked()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLastSeq(t *testing.T) {
	o := openMem(t)
	last, err := o.LastSeq()
	require.NoError(t, err)
	assert.Zero(t, last)

	require.NoError(t, o.Put(41, nil))
	require.NoError(t, o.Put(1000, nil))
	require.NoError(t, o.Put(5, nil))
	last, err = o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), last)
}

func TestLastSeqSurvivesDeleteAndReopen(t *testing.T) {
	dir := t.TempDir()
	o, err := Open(Options{Dir: dir, NoSync: true})
	require.NoError(t, err)

	require.NoError(t, o.Put(1, []byte("a")))
	require.NoError(t, o.Put(2, []byte("b")))
	require.NoError(t, o.MarkAcked(1))
	require.NoError(t, o.MarkAcked(2))
	n, err := o.DeleteAcked()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Empty(t, collect(t, o, StateNew, StateSent, StateAcked, StateFailed))

	last, err := o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
	require.NoError(t, o.Close())

	o, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer o.Close()
	last, err = o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)

	seq, err := sequence.Restore(o)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), seq.Next())

	// a lower sequence never pulls the mark back
	require.NoError(t, o.Put(1, nil))
	last, err = o.LastSeq()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), last)
}

func TestReopenOnDisk(t *testing.T) {
	dir := t.TempDir()
	o, err := Open(Options{Dir: dir, NoSync: true})
	require.NoError(t, err)
	require.NoError(t, o.Put(3, []byte("x")))
	require.NoError(t, o.Close())

	o, err = Open(Options{Dir: dir})
	require.NoError(t, err)
	defer o.Close()
	rec, err := o.Get(3)
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), rec.Payload)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "NEW", StateNew.String())
	assert.Equal(t, "FAILED", StateFailed.String())
	assert.Equal(t, "UNKNOWN", State(9).String())
}
