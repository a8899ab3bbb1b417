package bubbletea

// RingBuffer keeps the most recent items up to a fixed capacity.
type RingBuffer[T any] struct {
	items []T
	start int
	count int
}

// NewRingBuffer creates a buffer holding at most capacity items.
func NewRingBuffer[T any](capacity int) *RingBuffer[T] {
	return &RingBuffer[T]{items: make([]T, max(capacity, 1))}
}

// Add appends item, evicting the oldest when full.
func (r *RingBuffer[T]) Add(item T) {
	idx := (r.start + r.count) % len(r.items)
	r.items[idx] = item
	if r.count < len(r.items) {
		r.count++
		return
	}
	r.start = (r.start + 1) % len(r.items)
}

// Items returns the buffered items oldest first.
func (r *RingBuffer[T]) Items() []T {
	out := make([]T, r.count)
	for i := range out {
		out[i] = r.items[(r.start+i)%len(r.items)]
	}
	return out
}

// Len returns the number of buffered items.
func (r *RingBuffer[T]) Len() int {
	return r.count
}
