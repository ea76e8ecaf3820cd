package memory

import "sync/atomic"

type qslot struct {
	seq atomic.Uint64
	val any
}

// Queue is a lock-free, bounded, multi-producer/single-consumer ring
// buffer. It generalizes RetireRing to multiple concurrent producers with
// a per-slot sequence counter: a producer claims a slot by CAS on head,
// writes the value, then publishes it by bumping the slot's sequence, so
// the consumer never observes a claimed-but-unwritten slot. The consumer
// side stays single-threaded and CAS-free.
//
// Enqueue is wait-free in the uncontended case and lock-free under
// contention. Cache-line padding keeps the producers hammering head off
// the line the lone consumer's tail lives on.
type Queue struct {
	head  atomic.Uint64
	_pad1 [56]byte
	tail  atomic.Uint64
	_pad2 [56]byte

	slots []qslot
	mask  uint64
}

// NewQueue creates a queue of the given capacity, which must be a power
// of two.
func NewQueue(size uint64) *Queue {
	if size == 0 || size&(size-1) != 0 {
		panic("memory.Queue: size must be a power of two")
	}
	q := &Queue{
		slots: make([]qslot, size),
		mask:  size - 1,
	}
	for i := range q.slots {
		q.slots[i].seq.Store(uint64(i))
	}
	return q
}

// Enqueue appends v. It returns false if the queue is full.
func (q *Queue) Enqueue(v any) bool {
	for {
		h := q.head.Load()
		s := &q.slots[h&q.mask]
		seq := s.seq.Load()
		switch {
		case seq == h:
			if q.head.CompareAndSwap(h, h+1) {
				s.val = v
				s.seq.Store(h + 1)
				return true
			}
		case seq < h:
			// slot not yet reclaimed by the consumer: full
			return false
		}
	}
}

// Dequeue pops the oldest value, or returns nil if empty. Must be called
// from a single consumer goroutine only.
func (q *Queue) Dequeue() any {
	t := q.tail.Load()
	s := &q.slots[t&q.mask]
	if s.seq.Load() != t+1 {
		return nil
	}
	v := s.val
	s.val = nil
	s.seq.Store(t + uint64(len(q.slots)))
	q.tail.Store(t + 1)
	return v
}

// Len is an approximate depth, useful only for metrics.
func (q *Queue) Len() int {
	return int(q.head.Load() - q.tail.Load())
}
