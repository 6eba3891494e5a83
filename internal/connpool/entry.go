package connpool

import (
	"sync/atomic"
	"time"

	"github.com/arjunv/actorlink/internal/transport"
)

// entry is ConnectionEntry from SPEC_FULL.md §3: the per-endpoint set of
// live connections plus the cooldown timestamp of the last dial failure.
//
// The round-robin cursor lives here as a plain atomic counter rather than
// as goroutine-local state: Go has no first-class goroutine-local
// storage, so the teacher's [ThreadStatic] idiom has no direct
// equivalent. At MaxConnectionsPerEndpoint=1 (the client default) this is
// dead code either way, per the open question in spec.md §9 — we keep it
// for when that tunable grows past 1.
type entry struct {
	connections atomic.Pointer[[]transport.Connection]
	cursor      atomic.Uint64
	lastFailure atomic.Int64 // UnixNano; 0 means "never failed"
}

func newEntry() *entry {
	e := &entry{}
	empty := []transport.Connection{}
	e.connections.Store(&empty)
	return e
}

func (e *entry) snapshot() []transport.Connection {
	return *e.connections.Load()
}

func (e *entry) len() int {
	return len(e.snapshot())
}

// pick returns a round-robin connection if the entry is at capacity.
// The cursor increment need not be perfectly fair under contention, but
// must never index out of bounds (spec.md §4.1 "Algorithm — dial
// coordination").
func (e *entry) pick(capacity int) (transport.Connection, bool) {
	conns := e.snapshot()
	if len(conns) < capacity || len(conns) == 0 {
		return nil, false
	}
	idx := e.cursor.Add(1) % uint64(len(conns))
	return conns[idx], true
}

// prune drops invalid connections from the entry, compare-and-swapping
// the slice pointer. Returns the resulting length.
func (e *entry) prune() int {
	for {
		old := e.connections.Load()
		fresh := make([]transport.Connection, 0, len(*old))
		for _, c := range *old {
			if c.IsValid() {
				fresh = append(fresh, c)
			}
		}
		if len(fresh) == len(*old) {
			return len(*old)
		}
		if e.connections.CompareAndSwap(old, &fresh) {
			return len(fresh)
		}
		// Lost the race with a concurrent mutation; retry.
	}
}

// add appends conn, retrying the compare-and-swap on conflict (spec.md
// §4.1 step 6).
func (e *entry) add(conn transport.Connection) {
	for {
		old := e.connections.Load()
		fresh := make([]transport.Connection, len(*old), len(*old)+1)
		copy(fresh, *old)
		fresh = append(fresh, conn)
		if e.connections.CompareAndSwap(old, &fresh) {
			return
		}
	}
}

// remove drops conn from the entry if present. Returns the resulting
// length and whether conn was actually found (a second Remove call for
// the same connection is a no-op, per spec.md §4.1 tie-breaks).
func (e *entry) remove(conn transport.Connection) (int, bool) {
	for {
		old := e.connections.Load()
		idx := -1
		for i, c := range *old {
			if c == conn {
				idx = i
				break
			}
		}
		if idx < 0 {
			return len(*old), false
		}

		fresh := make([]transport.Connection, 0, len(*old)-1)
		fresh = append(fresh, (*old)[:idx]...)
		fresh = append(fresh, (*old)[idx+1:]...)

		if e.connections.CompareAndSwap(old, &fresh) {
			return len(fresh), true
		}
	}
}

func (e *entry) markFailure(now time.Time) {
	e.lastFailure.Store(now.UnixNano())
}

func (e *entry) clearFailure() {
	e.lastFailure.Store(0)
}

// inCooldown reports whether a dial attempted now would be inside the
// fast-fail window.
func (e *entry) inCooldown(now time.Time, delay time.Duration) bool {
	last := e.lastFailure.Load()
	if last == 0 {
		return false
	}
	return now.Sub(time.Unix(0, last)) < delay
}
