// Package lattice hosts the per block field containers and the per step
// protocol that consumes the frozen block geometry: interior update, stream
// by cyclic rotation, barrier, ghost refresh through the precomputed
// communication records.
package lattice

// LatSet is a discrete velocity set: Q directions with integer offsets and
// the opposite direction index for each
type LatSet struct {
	Q   int
	C   [][2]int
	Opp []int
	W   []float64 // quadrature weights, summing to one
}

// D2Q9 is the standard nine direction 2D set. Direction 0 is the rest
// population and never streams.
func D2Q9() LatSet {
	return LatSet{
		Q: 9,
		C: [][2]int{
			{0, 0},
			{1, 0}, {0, 1}, {-1, 0}, {0, -1},
			{1, 1}, {-1, 1}, {-1, -1}, {1, -1},
		},
		Opp: []int{0, 3, 4, 1, 2, 7, 8, 5, 6},
		W: []float64{
			4. / 9.,
			1. / 9., 1. / 9., 1. / 9., 1. / 9.,
			1. / 36., 1. / 36., 1. / 36., 1. / 36.,
		},
	}
}

// StreamOffset is the linear index shift of direction k on a mesh of width
// Nx: the per step rotation amount of that direction's population array
func (s LatSet) StreamOffset(k, Nx int) int {
	return s.C[k][0] + s.C[k][1]*Nx
}
