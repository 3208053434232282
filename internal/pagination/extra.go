package pagination

import "sync"

// ExtraData is a per-index side array kept alongside a Cache, for state the
// browsing surface attaches to items (for example a selection mark). Every
// slot starts at the default value.
type ExtraData[T any] struct {
	mu     sync.RWMutex
	def    T
	values []T
}

// NewExtraData creates an empty side array with the given default.
func NewExtraData[T any](def T) *ExtraData[T] {
	return &ExtraData[T]{def: def}
}

// Reset resizes the array to total slots, all set to the default. A
// non-positive total leaves the current contents alone.
func (e *ExtraData[T]) Reset(total int) {
	if total <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.values = make([]T, total)
	for i := range e.values {
		e.values[i] = e.def
	}
}

// Set stores v at index. It reports false if index is out of range.
func (e *ExtraData[T]) Set(index int, v T) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if index < 0 || index >= len(e.values) {
		return false
	}
	e.values[index] = v
	return true
}

// Get returns the value at index. It reports false if index is out of range.
func (e *ExtraData[T]) Get(index int) (T, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if index < 0 || index >= len(e.values) {
		var zero T
		return zero, false
	}
	return e.values[index], true
}

// Len returns the number of slots.
func (e *ExtraData[T]) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.values)
}
