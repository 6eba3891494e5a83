package center

import (
	"sync/atomic"
	"weak"

	"github.com/arjunv/actorlink/internal/transport"
)

// slot is the content of one bucket: a weak reference to the connection
// last installed for that bucket. Bucket identity lives in the table
// index the caller reads/writes, not here.
type slot struct {
	ref weak.Pointer[transport.Handle]
}

// bucketTable is BucketTable from SPEC_FULL.md §3: a fixed-size array
// of weak references to Connection, indexed by hash(targetActor) mod B.
// Each index holds an atomic.Pointer[slot] so installs are a single
// compare-and-swap with no table-wide lock (SPEC_FULL.md §5).
type bucketTable struct {
	slots []atomic.Pointer[slot]
}

func newBucketTable(size int) *bucketTable {
	if size < 1 {
		size = 1
	}
	return &bucketTable{slots: make([]atomic.Pointer[slot], size)}
}

func (t *bucketTable) size() int { return len(t.slots) }

// resolve returns the live connection at index i, if any, along with the
// slot pointer observed (for a subsequent compare-and-swap). A slot that
// has been garbage collected or whose connection has gone invalid is
// reported as a miss, per the staleness-detection invariant in
// SPEC_FULL.md §3.
func (t *bucketTable) resolve(i int) (transport.Connection, *slot) {
	observed := t.slots[i].Load()
	if observed == nil {
		return nil, nil
	}
	h := observed.ref.Value()
	if h == nil || !h.IsValid() {
		return nil, observed
	}
	return h, observed
}

// install attempts to write a fresh weak reference to handle at index i,
// contingent on the slot still holding observed. On success it returns
// (handle, true). On conflict it adopts whatever is now present: if that
// reference resolves to a live connection, it returns (that connection,
// true) so the caller uses the winner's connection instead of its own;
// otherwise it returns (nil, false) so the caller retries the install
// with the connection it already obtained (SPEC_FULL.md §4.2 rule 3).
func (t *bucketTable) install(i int, observed *slot, handle *transport.Handle) (transport.Connection, bool) {
	fresh := &slot{ref: weak.Make(handle)}
	if t.slots[i].CompareAndSwap(observed, fresh) {
		return handle, true
	}

	adopted := t.slots[i].Load()
	if adopted == nil {
		return nil, false
	}
	h := adopted.ref.Value()
	if h == nil || !h.IsValid() {
		return nil, false
	}
	return h, true
}
