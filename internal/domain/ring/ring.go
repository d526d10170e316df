// Package ring implements a bounded FIFO buffer that evicts its oldest
// element when full.
package ring

// Buffer holds at most Cap() elements in insertion order.
// It is not safe for concurrent use; owners guard it with their own lock.
type Buffer[T any] struct {
	items []T
	head  int // index of the oldest element
	size  int
}

// New returns an empty buffer. A non-positive capacity yields a buffer of one.
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{items: make([]T, capacity)}
}

// Push appends v. When the buffer is full the oldest element is evicted and
// returned with ok=true.
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	if b.size < len(b.items) {
		b.items[(b.head+b.size)%len(b.items)] = v
		b.size++
		return evicted, false
	}
	evicted = b.items[b.head]
	b.items[b.head] = v
	b.head = (b.head + 1) % len(b.items)
	return evicted, true
}

// Len returns the number of stored elements.
func (b *Buffer[T]) Len() int { return b.size }

// Cap returns the maximum number of elements.
func (b *Buffer[T]) Cap() int { return len(b.items) }

// Items returns the elements oldest first in a fresh slice.
func (b *Buffer[T]) Items() []T {
	out := make([]T, b.size)
	for i := 0; i < b.size; i++ {
		out[i] = b.items[(b.head+i)%len(b.items)]
	}
	return out
}

// Reset drops every element.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}
	b.head, b.size = 0, 0
}

// FromSlice builds a buffer of the given capacity holding the newest
// elements of items.
func FromSlice[T any](capacity int, items []T) *Buffer[T] {
	b := New[T](capacity)
	for _, v := range items {
		b.Push(v)
	}
	return b
}
