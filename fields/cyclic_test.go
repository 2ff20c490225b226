package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCyclicArray(t *testing.T) {
	fill := func(c *CyclicArray[float64]) {
		for i := 0; i < c.Size(); i++ {
			c.Set(i, float64(i))
		}
	}
	// Rotate moves logical content forward
	{
		c := NewCyclicArray[float64](10)
		fill(c)
		c.Rotate(3)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64((i+7)%10), c.Get(i))
		}
	}
	// Rotate back restores the identity layout
	{
		c := NewCyclicArray[float64](10)
		fill(c)
		c.Rotate(3)
		c.Rotate(-3)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64(i), c.Get(i))
		}
	}
	// composition: Rotate(a) then Rotate(b) equals Rotate(a+b)
	{
		a := NewCyclicArray[float64](10)
		b := NewCyclicArray[float64](10)
		fill(a)
		fill(b)
		a.Rotate(4)
		a.Rotate(9)
		b.Rotate(13)
		for i := 0; i < 10; i++ {
			assert.Equal(t, b.Get(i), a.Get(i))
		}
	}
	// whole multiples of the length are a no-op
	{
		c := NewCyclicArray[float64](10)
		fill(c)
		c.Rotate(10)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64(i), c.Get(i))
		}
		c.Rotate(-20)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64(i), c.Get(i))
		}
	}
	// Set after a rotation round-trips through the shifted layout
	{
		c := NewCyclicArray[float64](10)
		c.Rotate(7)
		for i := 0; i < 10; i++ {
			c.Set(i, float64(100+i))
		}
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64(100+i), c.Get(i))
		}
	}
	// GetPrevious observes the pre-rotation state
	{
		c := NewCyclicArray[float64](10)
		fill(c)
		c.Rotate(3)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64(i), c.GetPrevious(i))
		}
		c.Rotate(-5)
		for i := 0; i < 10; i++ {
			assert.Equal(t, float64((i+7)%10), c.GetPrevious(i))
		}
	}
	// out of range access panics, shifted or not
	{
		c := NewCyclicArray[float64](10)
		c.Rotate(4)
		assert.Panics(t, func() { c.Get(-1) })
		assert.Panics(t, func() { c.Get(10) })
		assert.Panics(t, func() { c.Set(10, 0) })
	}
	// Resize resets the shift state
	{
		c := NewCyclicArray[float64](10)
		fill(c)
		c.Rotate(3)
		c.Resize(6)
		assert.Equal(t, 6, c.Size())
		for i := 0; i < 6; i++ {
			assert.Equal(t, 0., c.Get(i))
		}
	}
}

func TestArrayBounds(t *testing.T) {
	a := NewArrayInit(5, 2.5)
	assert.Equal(t, 2.5, a.Get(4))
	assert.Panics(t, func() { a.Get(5) })
	assert.Panics(t, func() { a.Set(-1, 0) })
	a.Resize(8)
	assert.Equal(t, 8, a.Size())
	assert.Equal(t, 0., a.Get(7))
}
