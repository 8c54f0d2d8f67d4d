// Package buffer provides the bounded in-memory queue that connects
// producer units to consumer units. It implements the classic monitor
// pattern: one mutex guarding a FIFO ring, plus two condition variables
// so producers and consumers only wake peers of the opposite role.
package buffer

import (
	"errors"
	"sync"
)

// ErrInvalidCapacity is returned when constructing a buffer with a
// non-positive capacity.
var ErrInvalidCapacity = errors.New("buffer capacity must be greater than zero")

// Buffer is a fixed-capacity FIFO queue safe for use by any number of
// concurrent pushers and poppers.
//
// Push blocks while the buffer is full; Pop blocks while it is empty.
// Shutdown is one-way: after it is called, Push returns false and Pop
// keeps returning buffered items until the buffer is drained, then
// returns false. A false result is a control signal, not an error.
type Buffer[T any] struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond

	items    []T
	head     int
	size     int
	capacity int
	closed   bool
}

// New creates a buffer that holds at most capacity items.
func New[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}

	b := &Buffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
	b.notFull = sync.NewCond(&b.mu)
	b.notEmpty = sync.NewCond(&b.mu)

	return b, nil
}

// Push appends item at the tail and reports whether it was accepted.
//
// It blocks while the buffer is full and open. It returns false, without
// appending, if the buffer is closed or becomes closed while waiting.
// There is no per-call cancellation; a blocked Push is released only by
// a Pop freeing space or by Shutdown.
func (b *Buffer[T]) Push(item T) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.size == b.capacity && !b.closed {
		b.notFull.Wait()
	}

	if b.closed {
		return false
	}

	b.items[(b.head+b.size)%b.capacity] = item
	b.size++
	b.notEmpty.Signal()

	return true
}

// Pop removes and returns the head item.
//
// It blocks while the buffer is empty and open. It returns the zero
// value and false only once the buffer is closed AND empty, so callers
// always drain buffered items before observing closure.
func (b *Buffer[T]) Pop() (T, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for b.size == 0 && !b.closed {
		b.notEmpty.Wait()
	}

	if b.size == 0 && b.closed {
		var zero T
		return zero, false
	}

	item := b.items[b.head]
	var zero T
	b.items[b.head] = zero
	b.head = (b.head + 1) % b.capacity
	b.size--
	b.notFull.Signal()

	return item, true
}

// Shutdown marks the buffer closed and wakes every waiting pusher and
// popper. Buffered items are kept for draining. Calling Shutdown more
// than once has no further effect; the transition is irreversible.
func (b *Buffer[T]) Shutdown() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true

	// Every role may have multiple waiters parked; a single Signal
	// would leave some of them blocked forever.
	b.notFull.Broadcast()
	b.notEmpty.Broadcast()
}

// Len returns the current number of buffered items. The value is a
// snapshot and may be stale by the time the caller uses it.
func (b *Buffer[T]) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size
}

// Cap returns the fixed capacity of the buffer.
func (b *Buffer[T]) Cap() int {
	return b.capacity
}

// Full reports whether the buffer is at capacity. Advisory snapshot.
func (b *Buffer[T]) Full() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size == b.capacity
}

// Empty reports whether the buffer holds no items. Advisory snapshot.
func (b *Buffer[T]) Empty() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.size == 0
}

// Closed reports whether Shutdown has been called.
func (b *Buffer[T]) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}
