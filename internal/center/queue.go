package center

import (
	"sync"

	"github.com/arjunv/actorlink/internal/model"
)

// growableQueue is InboundQueue from SPEC_FULL.md §3: an unbounded FIFO
// with exactly one consumer and any number of producers, that doubles
// its backing array at 70% full instead of blocking a producer.
//
// Adapted from the teacher's router.GrowableBuffer (internal/router/buffer.go):
// same doubling threshold and ring-buffer mechanics, narrowed from a
// generic buffer to model.Message and given permanent one-shot close
// semantics matching "closes once on shutdown; post-close writes are
// dropped."
type growableQueue struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []model.Message
	head   int
	tail   int
	count  int
	cap    int
	closed bool
}

func newGrowableQueue(initialCapacity int) *growableQueue {
	if initialCapacity < 1 {
		initialCapacity = 1
	}
	q := &growableQueue{
		buf: make([]model.Message, initialCapacity),
		cap: initialCapacity,
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// tryWrite enqueues msg. Returns false if the queue has been closed.
func (q *growableQueue) tryWrite(msg model.Message) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	threshold := (q.cap * 70) / 100
	if threshold < 1 {
		threshold = 1
	}
	if q.count+1 >= threshold {
		q.grow()
	}

	q.buf[q.tail] = msg
	q.tail = (q.tail + 1) % q.cap
	q.count++

	q.cond.Signal()
	return true
}

// read blocks until a message is available or the queue closes with
// nothing left to drain.
func (q *growableQueue) read() (model.Message, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for q.count == 0 && !q.closed {
		q.cond.Wait()
	}

	if q.count == 0 && q.closed {
		return model.Message{}, false
	}

	item := q.buf[q.head]
	q.buf[q.head] = model.Message{}
	q.head = (q.head + 1) % q.cap
	q.count--

	return item, true
}

// close is idempotent; only the first call has effect.
func (q *growableQueue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.cond.Broadcast()
}

func (q *growableQueue) grow() {
	newCap := q.cap * 2
	newBuf := make([]model.Message, newCap)

	if q.count > 0 {
		if q.head < q.tail {
			copy(newBuf, q.buf[q.head:q.tail])
		} else {
			n := copy(newBuf, q.buf[q.head:])
			copy(newBuf[n:], q.buf[:q.tail])
		}
	}

	q.buf = newBuf
	q.head = 0
	q.tail = q.count
	q.cap = newCap
}

func (q *growableQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.count
}
