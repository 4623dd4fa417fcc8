package sequence

// Queue is a FIFO ring buffer. The zero value is ready to use.
type Queue[T any] struct {
	items []T
	head  int
	size  int
}

// NewQueue returns a queue with room for capacity items before growing.
func NewQueue[T any](capacity int) *Queue[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue[T]{items: make([]T, capacity)}
}

// PushBack appends value after the newest element.
func (q *Queue[T]) PushBack(value T) {
	if q.size == len(q.items) {
		q.grow()
	}
	q.items[(q.head+q.size)%len(q.items)] = value
	q.size++
}

// PopFront removes and returns the oldest element.
func (q *Queue[T]) PopFront() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	value := q.items[q.head]
	q.items[q.head] = zero
	q.head = (q.head + 1) % len(q.items)
	q.size--
	return value, true
}

// PopBack removes and returns the newest element.
func (q *Queue[T]) PopBack() (T, bool) {
	var zero T
	if q.size == 0 {
		return zero, false
	}
	idx := (q.head + q.size - 1) % len(q.items)
	value := q.items[idx]
	q.items[idx] = zero
	q.size--
	return value, true
}

// Front returns the oldest element without removing it.
func (q *Queue[T]) Front() (T, bool) {
	if q.size == 0 {
		var zero T
		return zero, false
	}
	return q.items[q.head], true
}

// At returns the i-th element counting from the oldest.
func (q *Queue[T]) At(i int) (T, bool) {
	if i < 0 || i >= q.size {
		var zero T
		return zero, false
	}
	return q.items[(q.head+i)%len(q.items)], true
}

func (q *Queue[T]) Len() int {
	return q.size
}

func (q *Queue[T]) IsEmpty() bool {
	return q.size == 0
}

// Slice copies the elements oldest first.
func (q *Queue[T]) Slice() []T {
	out := make([]T, q.size)
	for i := range out {
		out[i] = q.items[(q.head+i)%len(q.items)]
	}
	return out
}

func (q *Queue[T]) grow() {
	n := len(q.items) * 2
	if n == 0 {
		n = 8
	}
	items := make([]T, n)
	for i := 0; i < q.size; i++ {
		items[i] = q.items[(q.head+i)%len(q.items)]
	}
	q.items = items
	q.head = 0
}
