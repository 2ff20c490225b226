package lattice

import (
	"github.com/zdxying/FreeLB/fields"
	"github.com/zdxying/FreeLB/geometry2D"
)

// BlockLattice couples one block with its streamed population field. The
// population is cyclic backed, one array per direction, sized for the ghost
// inclusive extent; Stream is an O(1) rotation per direction, the hottest
// operation of the whole step.
type BlockLattice struct {
	Block *geometry2D.Block
	// Ext is the ghost inclusive descriptor matching the allocated arrays
	Ext geometry2D.BasicBlock
	Set LatSet
	Pop *fields.Field[float64]
}

func NewBlockLattice(b *geometry2D.Block, set LatSet, init float64) *BlockLattice {
	var (
		ext = b.Ext()
	)
	lat := &BlockLattice{
		Block: b,
		Ext:   ext,
		Set:   set,
		Pop:   fields.NewCyclicField[float64](set.Q, ext.N),
	}
	lat.Pop.Init(init)
	return lat
}

// Stream advances every non rest population by one voxel along its
// direction via rotation; no cell data moves
func (lat *BlockLattice) Stream() {
	for k := 1; k < lat.Set.Q; k++ {
		lat.Pop.Cyclic(k).Rotate(lat.Set.StreamOffset(k, lat.Ext.Nx))
	}
}

// Relax applies a single relaxation collision on every interior cell: each
// population moves towards its share of the local density. Leaves any
// constant initial state exactly invariant.
func (lat *BlockLattice) Relax(omega float64) {
	lat.ForEachInterior(func(id int) {
		var rho float64
		for k := 0; k < lat.Set.Q; k++ {
			rho += lat.Pop.Get(id, k)
		}
		for k := 0; k < lat.Set.Q; k++ {
			f := lat.Pop.Get(id, k)
			lat.Pop.Set(id, k, f+omega*(lat.Set.W[k]*rho-f))
		}
	})
}

// Density sums the populations of one cell
func (lat *BlockLattice) Density(id int) (rho float64) {
	for k := 0; k < lat.Set.Q; k++ {
		rho += lat.Pop.Get(id, k)
	}
	return
}

// ForEachInterior visits the local linear ids of the block's interior,
// skipping the ghost ring
func (lat *BlockLattice) ForEachInterior(fn func(id int)) {
	var (
		g  = lat.Block.Overlap
		nx = lat.Ext.Nx
		ny = lat.Ext.Ny
	)
	for iy := g; iy < ny-g; iy++ {
		for ix := g; ix < nx-g; ix++ {
			fn(ix + iy*nx)
		}
	}
}
