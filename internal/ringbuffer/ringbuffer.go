package ringbuffer

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// RingBuffer implements a thread-safe fixed capacity circular buffer. When the buffer
// is full, Push overwrites the oldest item, so a slow consumer only ever sees the most
// recent Cap() items.
type RingBuffer[T any] struct {
	mu    sync.RWMutex
	items []T
	head  int // next write position
	tail  int // oldest item position
	count int

	dropped atomic.Uint64
	notify  chan struct{}
}

// New creates a new ring buffer holding up to capacity items.
// Returns an error if capacity is not positive.
func New[T any](capacity int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("invalid buffer capacity: %d", capacity)
	}
	return &RingBuffer[T]{
		items:  make([]T, capacity),
		notify: make(chan struct{}, 1),
	}, nil
}

// Push appends an item at the head. If the buffer is full the tail is advanced
// and the oldest item is lost.
func (rb *RingBuffer[T]) Push(item T) {
	rb.mu.Lock()

	rb.items[rb.head] = item
	rb.head = (rb.head + 1) % len(rb.items)

	if rb.count == len(rb.items) {
		rb.tail = rb.head
		rb.dropped.Add(1)
	} else {
		rb.count++
	}

	rb.mu.Unlock()

	// Wake a waiting consumer, if any
	select {
	case rb.notify <- struct{}{}:
	default:
	}
}

// Pop removes and returns the oldest item.
// Returns false if the buffer is empty.
func (rb *RingBuffer[T]) Pop() (T, bool) {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	var zero T
	if rb.count == 0 {
		return zero, false
	}

	item := rb.items[rb.tail]
	rb.items[rb.tail] = zero // release reference
	rb.tail = (rb.tail + 1) % len(rb.items)
	rb.count--

	return item, true
}

// Peek returns the oldest item without removing it.
func (rb *RingBuffer[T]) Peek() (T, bool) {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	if rb.count == 0 {
		var zero T
		return zero, false
	}
	return rb.items[rb.tail], true
}

// ToSlice returns a copy of buffered items ordered from the oldest to the newest.
func (rb *RingBuffer[T]) ToSlice() []T {
	rb.mu.RLock()
	defer rb.mu.RUnlock()

	return rb.snapshot()
}

// Drain removes and returns all items, oldest first.
// Returns nil if the buffer is empty.
func (rb *RingBuffer[T]) Drain() []T {
	rb.mu.Lock()
	defer rb.mu.Unlock()

	if rb.count == 0 {
		return nil
	}

	results := rb.snapshot()
	rb.reset()
	return results
}

// Clear removes all items from the buffer.
func (rb *RingBuffer[T]) Clear() {
	rb.mu.Lock()
	defer rb.mu.Unlock()
	rb.reset()
}

// Len returns the current number of items in the buffer.
func (rb *RingBuffer[T]) Len() int {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count
}

// Cap returns the buffer capacity.
func (rb *RingBuffer[T]) Cap() int {
	return len(rb.items)
}

// IsFull returns true if the buffer has reached its capacity.
func (rb *RingBuffer[T]) IsFull() bool {
	rb.mu.RLock()
	defer rb.mu.RUnlock()
	return rb.count == len(rb.items)
}

// Dropped returns the number of items overwritten since the buffer was created.
func (rb *RingBuffer[T]) Dropped() uint64 {
	return rb.dropped.Load()
}

// Notify returns a channel which receives a signal after a push. The channel has a
// single slot, so several pushes may be coalesced into one signal; consumers must
// re-check the buffer after waking up.
func (rb *RingBuffer[T]) Notify() <-chan struct{} {
	return rb.notify
}

// snapshot must be called with the lock held.
func (rb *RingBuffer[T]) snapshot() []T {
	results := make([]T, 0, rb.count)
	for i := 0; i < rb.count; i++ {
		results = append(results, rb.items[(rb.tail+i)%len(rb.items)])
	}
	return results
}

func (rb *RingBuffer[T]) reset() {
	clear(rb.items)
	rb.head = 0
	rb.tail = 0
	rb.count = 0
}
