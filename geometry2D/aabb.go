package geometry2D

import "math"

// Vec is a 2D physical coordinate or extent
type Vec [2]float64

func (v Vec) Add(w Vec) Vec { return Vec{v[0] + w[0], v[1] + w[1]} }
func (v Vec) Sub(w Vec) Vec { return Vec{v[0] - w[0], v[1] - w[1]} }

func (v Vec) Scale(a float64) Vec { return Vec{v[0] * a, v[1] * a} }

// AABB is an axis aligned bounding box in physical coordinates
type AABB struct {
	Min, Max Vec
}

func NewAABB(min, max Vec) AABB {
	return AABB{Min: min, Max: max}
}

func (a AABB) Extension() Vec {
	return a.Max.Sub(a.Min)
}

func (a AABB) Center() Vec {
	return Vec{0.5 * (a.Min[0] + a.Max[0]), 0.5 * (a.Min[1] + a.Max[1])}
}

func (a AABB) Area() float64 {
	var (
		ext = a.Extension()
	)
	return ext[0] * ext[1]
}

// IsOverlapped reports whether a and b share any region, boundary contact
// included
func IsOverlapped(a, b AABB) bool {
	return a.Min[0] <= b.Max[0] && a.Max[0] >= b.Min[0] &&
		a.Min[1] <= b.Max[1] && a.Max[1] >= b.Min[1]
}

// GetIntersection returns the overlap region of a and b. The returned box is
// degenerate (zero or negative extension) when a and b do not overlap; callers
// that need a validity check should use IsOverlapped first.
func GetIntersection(a, b AABB) AABB {
	return AABB{
		Min: Vec{math.Max(a.Min[0], b.Min[0]), math.Max(a.Min[1], b.Min[1])},
		Max: Vec{math.Min(a.Max[0], b.Max[0]), math.Min(a.Max[1], b.Max[1])},
	}
}

func (a AABB) ContainsPoint(p Vec) bool {
	return p[0] >= a.Min[0] && p[0] <= a.Max[0] &&
		p[1] >= a.Min[1] && p[1] <= a.Max[1]
}

// Extend grows the box by d on every side
func (a AABB) Extend(d float64) AABB {
	return AABB{
		Min: Vec{a.Min[0] - d, a.Min[1] - d},
		Max: Vec{a.Max[0] + d, a.Max[1] + d},
	}
}
