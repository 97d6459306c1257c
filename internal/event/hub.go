package event

import (
	"sync"
	"sync/atomic"
)

// Hub fans published values out to subscribers. Publish never blocks: a subscriber
// whose channel is full misses the value and the drop is counted. Values published
// before Start are discarded.
type Hub[T any] struct {
	mu          sync.RWMutex
	subscribers map[uint64]chan T
	nextID      uint64
	started     atomic.Bool
	closed      bool

	published atomic.Uint64
	dropped   atomic.Uint64
}

// NewHub creates a new stopped Hub
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{
		subscribers: make(map[uint64]chan T),
	}
}

// Start enables delivery of published values
func (h *Hub[T]) Start() {
	h.started.Store(true)
}

// Subscribe registers a new subscriber channel with the given buffer size.
// The returned function unsubscribes and closes the channel; it is safe to call it more than once.
func (h *Hub[T]) Subscribe(buffer int) (<-chan T, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan T, max(buffer, 0))
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subscribers[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() { h.unsubscribe(id) })
	}
}

// Publish delivers v to every subscriber without blocking
func (h *Hub[T]) Publish(v T) {
	if !h.started.Load() {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}

	h.published.Add(1)
	for _, ch := range h.subscribers {
		select {
		case ch <- v:
		default:
			h.dropped.Add(1)
		}
	}
}

// Dropped returns the number of values subscribers missed because their channel was full
func (h *Hub[T]) Dropped() uint64 {
	return h.dropped.Load()
}

// Published returns the number of values published after Start
func (h *Hub[T]) Published() uint64 {
	return h.published.Load()
}

// Close closes all subscriber channels. Publish after Close is a no-op.
func (h *Hub[T]) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true
	for id, ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, id)
	}
}

func (h *Hub[T]) unsubscribe(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subscribers[id]; ok {
		close(ch)
		delete(h.subscribers, id)
	}
}
