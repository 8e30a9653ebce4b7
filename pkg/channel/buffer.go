package channel

// Buffer is a bounded FIFO store. It is not safe for concurrent use; a Channel serialises access to
// its own buffer.
type Buffer[T any] struct {
	items []T
	head  int
	size  int
}

// NewBuffer creates a buffer holding at most capacity items.
func NewBuffer[T any](capacity int) (*Buffer[T], error) {
	if capacity <= 0 {
		return nil, ErrBufferSize
	}

	return &Buffer[T]{items: make([]T, capacity)}, nil
}

// Put appends item at the tail of the buffer.
func (b *Buffer[T]) Put(item T) error {
	if b.Full() {
		return ErrBufferFull
	}

	b.items[(b.head+b.size)%len(b.items)] = item
	b.size++

	return nil
}

// Get removes and returns the item at the head of the buffer.
func (b *Buffer[T]) Get() (T, error) {
	var zero T
	if b.size == 0 {
		return zero, ErrBufferEmpty
	}

	item := b.items[b.head]
	b.items[b.head] = zero
	b.head = (b.head + 1) % len(b.items)
	b.size--

	return item, nil
}

func (b *Buffer[T]) Len() int {
	return b.size
}

func (b *Buffer[T]) Cap() int {
	return len(b.items)
}

func (b *Buffer[T]) Full() bool {
	return b.size == len(b.items)
}

// Reset drops every stored item.
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.items {
		b.items[i] = zero
	}

	b.head = 0
	b.size = 0
}
