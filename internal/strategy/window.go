package strategy

// RollingWindow keeps the most recent values up to a fixed capacity.
// It is not safe for concurrent use; Context guards it.
type RollingWindow[T any] struct {
	buf   []T
	start int
	size  int
}

// NewRollingWindow creates a window holding at most capacity values.
// A non-positive capacity is treated as 1.
func NewRollingWindow[T any](capacity int) *RollingWindow[T] {
	if capacity <= 0 {
		capacity = 1
	}

	return &RollingWindow[T]{
		buf:   make([]T, capacity),
		start: 0,
		size:  0,
	}
}

// Append adds v, evicting the oldest value when full.
func (w *RollingWindow[T]) Append(v T) {
	capacity := len(w.buf)
	if w.size < capacity {
		w.buf[(w.start+w.size)%capacity] = v
		w.size++

		return
	}

	w.buf[w.start] = v
	w.start = (w.start + 1) % capacity
}

// Len returns the number of values held.
func (w *RollingWindow[T]) Len() int {
	return w.size
}

// Cap returns the window capacity.
func (w *RollingWindow[T]) Cap() int {
	return len(w.buf)
}

// All returns the values oldest first.
func (w *RollingWindow[T]) All() []T {
	return w.Last(w.size)
}

// Last returns up to n most recent values, oldest first.
func (w *RollingWindow[T]) Last(n int) []T {
	if n > w.size {
		n = w.size
	}

	if n <= 0 {
		return []T{}
	}

	out := make([]T, n)
	offset := w.size - n

	for i := 0; i < n; i++ {
		out[i] = w.buf[(w.start+offset+i)%len(w.buf)]
	}

	return out
}
