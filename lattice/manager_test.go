package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zdxying/FreeLB/parallel"
)

func TestManagerUniformRun(t *testing.T) {
	var (
		geo = refinedGeometry(t, 3)
		mgr = NewBlockLatticeManager(geo, D2Q9(), 1.)
	)
	err := mgr.RunSteps(4, func(step int, lat *BlockLattice) {})
	require.NoError(t, err)

	// streaming plus ghost refresh of a uniform state is the identity:
	// every interior cell and every refreshed ghost cell still holds the
	// initial value exactly, across copy, interpolation, averaging and the
	// cross worker packet path
	for i := range geo.Blocks {
		var (
			b   = &geo.Blocks[i]
			lat = mgr.GetLat(b.ID)
		)
		lat.ForEachInterior(func(id int) {
			for k := 0; k < lat.Set.Q; k++ {
				assert.Equal(t, 1., lat.Pop.Get(id, k))
			}
		})
		ext := b.Ext()
		for _, rec := range b.Comms {
			for iy := 0; iy < ext.Ny; iy++ {
				for ix := 0; ix < ext.Nx; ix++ {
					if !rec.Overlap.ContainsPoint(ext.VoxelCenter(ix, iy)) {
						continue
					}
					for k := 0; k < lat.Set.Q; k++ {
						assert.Equal(t, 1., lat.Pop.Get(ext.Index(ix, iy), k))
					}
				}
			}
		}
	}
}

func TestManagerSingleWorker(t *testing.T) {
	var (
		geo = refinedGeometry(t, 1)
		mgr = NewBlockLatticeManager(geo, D2Q9(), 2.)
	)
	// one worker has no cross worker transfers; everything runs on the
	// direct path
	assert.Equal(t, 0, mgr.totalOutbound())
	require.NoError(t, mgr.RunSteps(2, func(step int, lat *BlockLattice) {
		lat.Relax(0.8)
	}))
}

func TestManagerProtocolError(t *testing.T) {
	var (
		geo = refinedGeometry(t, 2)
		mgr = NewBlockLatticeManager(geo, D2Q9(), 1.)
	)
	// claim an inbound transfer that no sender will ever produce; the first
	// barrier round must fail it as fatal
	owned := geo.OwnedBy(0)
	require.NotEmpty(t, owned)
	mgr.expected[0][[2]int{owned[0], 9999}] = 4

	err := mgr.RunSteps(2, func(step int, lat *BlockLattice) {})
	require.Error(t, err)
	var perr *parallel.ProtocolError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, owned[0], perr.Owner)
	assert.Equal(t, 9999, perr.Nbr)
	assert.Equal(t, 0, perr.Step)
}
