package game

import (
	"sync/atomic"
)

const cacheLineSize = 64

type pad [cacheLineSize]byte

// cell is one ring slot. seq tells producers and the consumer whose turn the
// slot is: seq == pos means free for the producer claiming pos, seq == pos+1
// means filled and ready for the consumer.
type cell[T any] struct {
	seq  atomic.Uint64
	item T
}

// MPSCQueue is a bounded lock-free ring buffer for many producers and one
// consumer. HTTP handlers and websocket readers push session commands; only
// the tick goroutine pops.
//
// Layout keeps head and tail on separate cache lines:
// [pad][head][pad][tail][pad][mask][cells]
type MPSCQueue[T any] struct {
	_     pad
	head  atomic.Uint64 // Next position a producer claims
	_     pad
	tail  atomic.Uint64 // Next position the consumer reads
	_     pad
	mask  uint64
	cells []cell[T]
}

// NewMPSCQueue creates a queue. Capacity is rounded up to a power of two.
func NewMPSCQueue[T any](capacity int) *MPSCQueue[T] {
	n := 1
	for n < capacity {
		n <<= 1
	}
	q := &MPSCQueue[T]{
		mask:  uint64(n - 1),
		cells: make([]cell[T], n),
	}
	for i := range q.cells {
		q.cells[i].seq.Store(uint64(i))
	}
	return q
}

// TryPush enqueues item. It returns false when the queue is full.
// Safe for concurrent producers.
func (q *MPSCQueue[T]) TryPush(item T) bool {
	for {
		pos := q.head.Load()
		c := &q.cells[pos&q.mask]
		seq := c.seq.Load()
		switch {
		case seq == pos:
			if q.head.CompareAndSwap(pos, pos+1) {
				c.item = item
				c.seq.Store(pos + 1)
				return true
			}
		case seq < pos:
			return false // full
		}
		// Another producer claimed pos; reload.
	}
}

// TryPop dequeues one item. Consumer only.
func (q *MPSCQueue[T]) TryPop() (T, bool) {
	var zero T
	pos := q.tail.Load()
	c := &q.cells[pos&q.mask]
	if c.seq.Load() != pos+1 {
		return zero, false
	}
	item := c.item
	c.item = zero
	c.seq.Store(pos + q.mask + 1)
	q.tail.Store(pos + 1)
	return item, true
}

// DrainTo pops up to len(buf) items into buf and returns how many it wrote.
func (q *MPSCQueue[T]) DrainTo(buf []T) int {
	n := 0
	for n < len(buf) {
		item, ok := q.TryPop()
		if !ok {
			break
		}
		buf[n] = item
		n++
	}
	return n
}

// Len is approximate; it may be stale as soon as it returns.
func (q *MPSCQueue[T]) Len() int {
	h, t := q.head.Load(), q.tail.Load()
	if h < t {
		return 0
	}
	return int(h - t)
}

// Cap returns the ring size.
func (q *MPSCQueue[T]) Cap() int { return int(q.mask + 1) }
