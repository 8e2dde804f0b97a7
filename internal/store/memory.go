package store

import (
	"fmt"
	"sort"
	"sync"
)

// MemoryStore is an in-memory implementation of [Store].
//
// Values are keyed by index. The store tracks the next index due for
// release; whenever a Put fills that index, the contiguous run of values
// starting there is published to subscribers in order. Values that arrive
// ahead of a gap stay buffered until the gap is filled or [MemoryStore.Flush]
// is called.
type MemoryStore[T any] struct {
	mu       sync.Mutex
	values   map[int]T
	next     int
	maxIndex int

	subscribers map[chan T]struct{}
	subMu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory [Store] whose first index is first.
//
// The store is immediately ready for use. No cleanup is required when done
// beyond unsubscribing any channels handed out by Subscribe.
func NewMemoryStore[T any](first int) *MemoryStore[T] {
	return &MemoryStore[T]{
		values:      make(map[int]T),
		next:        first,
		maxIndex:    first - 1,
		subscribers: make(map[chan T]struct{}),
	}
}

// Put stores v under index and publishes any values that became releasable.
func (m *MemoryStore[T]) Put(index int, v T) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.values[index]; exists {
		return fmt.Errorf("%w: %d", ErrDuplicateIndex, index)
	}
	m.values[index] = v
	if index > m.maxIndex {
		m.maxIndex = index
	}

	var ready []T
	for {
		next, ok := m.values[m.next]
		if !ok {
			break
		}
		ready = append(ready, next)
		m.next++
	}

	// published under mu so concurrent Puts cannot interleave releases
	m.notifySubscribers(ready)
	return nil
}

// Values returns a snapshot of all stored values.
//
// The returned slice is a copy; modifications do not affect the store.
// Order is not guaranteed.
func (m *MemoryStore[T]) Values() []T {
	m.mu.Lock()
	defer m.mu.Unlock()

	values := make([]T, 0, len(m.values))
	for _, v := range m.values {
		values = append(values, v)
	}
	return values
}

// Len returns the number of stored values.
func (m *MemoryStore[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.values)
}

// Flush publishes all values still waiting behind a gap, in index order,
// and moves the release cursor past the highest stored index.
func (m *MemoryStore[T]) Flush() {
	m.mu.Lock()
	defer m.mu.Unlock()

	indices := make([]int, 0, len(m.values))
	for idx := range m.values {
		if idx >= m.next {
			indices = append(indices, idx)
		}
	}
	sort.Ints(indices)

	ready := make([]T, 0, len(indices))
	for _, idx := range indices {
		ready = append(ready, m.values[idx])
	}
	if m.maxIndex >= m.next {
		m.next = m.maxIndex + 1
	}

	m.notifySubscribers(ready)
}

// Subscribe creates a new subscription and returns a channel for receiving
// released values in index order.
//
// If the buffer fills (slow consumer), further values are dropped for this
// subscriber. Caller must call [MemoryStore.Unsubscribe] when done.
func (m *MemoryStore[T]) Subscribe(buffer int) <-chan T {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
//
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore[T]) Unsubscribe(ch <-chan T) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends values to all active subscribers.
//
// This is non-blocking: if a subscriber's channel buffer is full, the value
// is dropped for that subscriber rather than blocking the producer.
func (m *MemoryStore[T]) notifySubscribers(values []T) {
	if len(values) == 0 {
		return
	}

	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		for _, v := range values {
			select {
			case ch <- v:
			default:
				// subscriber is slow, drop the value
			}
		}
	}
}
