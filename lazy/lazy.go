// Package lazy provides a field whose value is computed on first read and
// reused by its owner afterwards.
package lazy

import "sync"

// Field is a lazily initialized value owned by a single object. The
// initializer runs at most once per Field until Reset is called.
type Field[T any] struct {
	mu    sync.Mutex
	init  func() (T, error)
	value T
	done  bool
}

// New returns a Field backed by an initializer that cannot fail.
func New[T any](init func() T) *Field[T] {
	return &Field[T]{init: func() (T, error) { return init(), nil }}
}

// NewErr returns a Field backed by an initializer that may fail. A failed
// initialization leaves the field unset so the next read tries again.
func NewErr[T any](init func() (T, error)) *Field[T] {
	return &Field[T]{init: init}
}

// Get returns the value, computing it on the first call. It panics if the
// initializer fails; use GetErr for fallible initializers.
func (f *Field[T]) Get() T {
	v, err := f.GetErr()
	if err != nil {
		panic(err)
	}
	return v
}

// GetErr returns the value, computing it on the first call.
func (f *Field[T]) GetErr() (T, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.done {
		return f.value, nil
	}

	v, err := f.init()
	if err != nil {
		var zero T
		return zero, err
	}

	f.value, f.done = v, true
	return v, nil
}

// Peek returns the value without computing it.
func (f *Field[T]) Peek() (T, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value, f.done
}

// Computed reports whether the value has been computed.
func (f *Field[T]) Computed() bool {
	_, ok := f.Peek()
	return ok
}

// Reset discards the value so the next read runs the initializer again.
func (f *Field[T]) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()

	var zero T
	f.value, f.done = zero, false
}
