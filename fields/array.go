// Package fields provides the owned field storage used by block lattices:
// a bounds checked contiguous array, a zero copy cyclic array for streamed
// data, multi component fields generic over either layout, and the
// copy/interpolate/average routines that move field values between blocks.
package fields

import "fmt"

// Store is the minimal capability contract the communication routines need
// from a field component: indexable access by local linear id, resize and
// bulk fill. Both Array and CyclicArray satisfy it.
type Store[T any] interface {
	Get(i int) T
	Set(i int, v T)
	Size() int
	Resize(n int)
	Fill(v T)
}

// Array is an owned, bounds checked contiguous buffer. Out of range access
// is a programming defect and panics; it is never clamped, since clamping
// would silently corrupt boundary data.
type Array[T any] struct {
	data []T
}

func NewArray[T any](size int) *Array[T] {
	return &Array[T]{data: make([]T, size)}
}

func NewArrayInit[T any](size int, init T) *Array[T] {
	a := NewArray[T](size)
	a.Fill(init)
	return a
}

func (a *Array[T]) check(i int) {
	if i < 0 || i >= len(a.data) {
		panic(fmt.Sprintf("fields: index %d out of range [0,%d)", i, len(a.data)))
	}
}

func (a *Array[T]) Get(i int) T {
	a.check(i)
	return a.data[i]
}

func (a *Array[T]) Set(i int, v T) {
	a.check(i)
	a.data[i] = v
}

func (a *Array[T]) Size() int { return len(a.data) }

// Resize reallocates to n zero valued elements. The old contents are
// discarded, matching explicit reallocation semantics; the buffer is never
// aliased across owners.
func (a *Array[T]) Resize(n int) {
	if n == len(a.data) {
		return
	}
	a.data = make([]T, n)
}

func (a *Array[T]) Fill(v T) {
	for i := range a.data {
		a.data[i] = v
	}
}

// Data exposes the backing slice for tight interior loops
func (a *Array[T]) Data() []T { return a.data }
