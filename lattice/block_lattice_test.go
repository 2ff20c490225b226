package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zdxying/FreeLB/geometry2D"
)

func singleBlockGeometry(t *testing.T) *geometry2D.BlockGeometry2D {
	geo, err := geometry2D.NewUniformBlockGeometry2D(8, 8, 1,
		geometry2D.AABB{Min: geometry2D.Vec{0, 0}, Max: geometry2D.Vec{8, 8}}, 1.)
	require.NoError(t, err)
	require.Len(t, geo.Blocks, 1)
	return geo
}

func TestBlockLatticeStream(t *testing.T) {
	var (
		geo = singleBlockGeometry(t)
		set = D2Q9()
		lat = NewBlockLattice(geo.GetBlock(0), set, 0.)
		ext = lat.Ext
	)
	// a pulse moves exactly one voxel along each direction per stream
	{
		src := ext.Index(4, 4)
		for k := 0; k < set.Q; k++ {
			lat.Pop.Set(src, k, float64(10+k))
		}
		lat.Stream()
		for k := 0; k < set.Q; k++ {
			dst := ext.Index(4+set.C[k][0], 4+set.C[k][1])
			assert.Equal(t, float64(10+k), lat.Pop.Get(dst, k),
				"direction %d", k)
		}
	}
	// streaming is a rotation, so the opposite rotation undoes it
	{
		for k := 1; k < set.Q; k++ {
			lat.Pop.Cyclic(k).Rotate(-set.StreamOffset(k, ext.Nx))
		}
		src := ext.Index(4, 4)
		for k := 0; k < set.Q; k++ {
			assert.Equal(t, float64(10+k), lat.Pop.Get(src, k))
		}
	}
}

func TestBlockLatticeInterior(t *testing.T) {
	var (
		geo = singleBlockGeometry(t)
		lat = NewBlockLattice(geo.GetBlock(0), D2Q9(), 0.)
	)
	var n int
	lat.ForEachInterior(func(id int) { n++ })
	// the 8x8 interior of the ghost extended 10x10 mesh
	assert.Equal(t, 64, n)
}

func TestRelax(t *testing.T) {
	var (
		geo = singleBlockGeometry(t)
		set = D2Q9()
		lat = NewBlockLattice(geo.GetBlock(0), set, 0.)
		id  = lat.Ext.Index(3, 5)
	)
	for k := 0; k < set.Q; k++ {
		lat.Pop.Set(id, k, float64(k))
	}
	rho := lat.Density(id)
	require.Equal(t, 36., rho)

	// full relaxation lands every population on its weighted share
	lat.Relax(1.)
	for k := 0; k < set.Q; k++ {
		assert.InDelta(t, set.W[k]*rho, lat.Pop.Get(id, k), 1.e-12)
	}
	// density is conserved for any relaxation rate
	assert.InDelta(t, rho, lat.Density(id), 1.e-12)
	lat.Relax(0.3)
	assert.InDelta(t, rho, lat.Density(id), 1.e-12)
}
