package fields

import "fmt"

// CyclicArray realizes the periodic shift pattern of Kummerlaender et al.
// (Implicit propagation of directly addressed grids in lattice Boltzmann
// methods, 2023): the per step stream of a population array becomes an O(1)
// rotation of the index space instead of an O(N) copy. A logical index
// resolves through one comparison against the wrap point into one of two
// contiguous physical segments; the hot path has no division or modulo.
type CyclicArray[T any] struct {
	count int
	data  []T
	// shift accumulates rotations, always kept in (-count, count)
	shift     int
	remainder int
	// start offsets of the two physical segments: physical = i + off[s]
	off [2]int
	// offset of the last rotate, to resolve pre stream indices
	lastOffset int
}

func NewCyclicArray[T any](size int) *CyclicArray[T] {
	c := &CyclicArray[T]{count: size, data: make([]T, size)}
	c.refresh()
	return c
}

func NewCyclicArrayInit[T any](size int, init T) *CyclicArray[T] {
	c := NewCyclicArray[T](size)
	c.Fill(init)
	return c
}

func (c *CyclicArray[T]) check(i int) {
	if i < 0 || i >= c.count {
		panic(fmt.Sprintf("fields: cyclic index %d out of range [0,%d)", i, c.count))
	}
}

func (c *CyclicArray[T]) physical(i int) int {
	if i > c.remainder {
		return i + c.off[1]
	}
	return i + c.off[0]
}

func (c *CyclicArray[T]) Get(i int) T {
	c.check(i)
	return c.data[c.physical(i)]
}

func (c *CyclicArray[T]) Set(i int, v T) {
	c.check(i)
	c.data[c.physical(i)] = v
}

// GetPrevious resolves index i as it existed before the last Rotate, by
// undoing lastOffset. Boundary updates that must observe pre stream state
// use this.
func (c *CyclicArray[T]) GetPrevious(i int) T {
	c.check(i)
	prev := i + c.lastOffset
	if prev < 0 {
		prev += c.count
	} else if prev >= c.count {
		prev -= c.count
	}
	return c.data[c.physical(prev)]
}

func (c *CyclicArray[T]) Size() int { return c.count }

func (c *CyclicArray[T]) Fill(v T) {
	for i := range c.data {
		c.data[i] = v
	}
}

// Resize reallocates and resets the shift state
func (c *CyclicArray[T]) Resize(n int) {
	if n == c.count {
		return
	}
	c.data = make([]T, n)
	c.count = n
	c.shift = 0
	c.lastOffset = 0
	c.refresh()
}

// refresh recomputes the wrap point and the two segment offsets from shift
func (c *CyclicArray[T]) refresh() {
	n := c.count
	if c.shift >= 0 {
		c.remainder = n - c.shift - 1
		c.off[0] = c.shift
		c.off[1] = c.shift - n
	} else {
		c.remainder = -c.shift - 1
		c.off[0] = n + c.shift
		c.off[1] = c.shift
	}
}

// Rotate shifts the logical index space by offset: after Rotate(d), logical
// index i reads what index i-d read before (modulo the length). Composing
// Rotate(a) then Rotate(b) equals one Rotate(a+b mod N); Rotate of any
// multiple of N leaves the content untouched.
func (c *CyclicArray[T]) Rotate(offset int) {
	c.lastOffset = offset
	n := c.count
	c.shift -= offset
	for c.shift >= n {
		c.shift -= n
	}
	for c.shift <= -n {
		c.shift += n
	}
	c.refresh()
}
