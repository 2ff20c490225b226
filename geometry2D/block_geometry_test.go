package geometry2D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// refinedGeometry freezes a 64x64 domain with a refined center over the
// given worker count
func refinedGeometry(t *testing.T, workers int) *BlockGeometry2D {
	h := refinedHelper(t, 1)
	require.NoError(t, h.CreateBlocks(2))
	_, err := h.LoadBalancing(workers)
	require.NoError(t, err)
	geo, err := NewBlockGeometry2D(h)
	require.NoError(t, err)
	return geo
}

func TestBlockGeometry(t *testing.T) {
	geo := refinedGeometry(t, 2)
	// every block carries at least one inbound record and the transfer kind
	// follows the level relation
	{
		for i := range geo.Blocks {
			b := &geo.Blocks[i]
			require.NotEmpty(t, b.Comms, "block %d has no neighbors", b.ID)
			for _, rec := range b.Comms {
				nbr := geo.GetBlock(rec.Nbr)
				switch rec.Transfer {
				case CommCopy:
					assert.Equal(t, b.Level, nbr.Level)
				case CommInterp:
					assert.Equal(t, b.Level, nbr.Level+1)
				case CommAverage:
					assert.Equal(t, b.Level+1, nbr.Level)
				default:
					t.Fatalf("record %d<-%d has transfer kind %v",
						rec.Owner, rec.Nbr, rec.Transfer)
				}
				if b.Worker != nbr.Worker {
					assert.Equal(t, CommCrossWorker, rec.Kind)
					assert.Equal(t, nbr.Worker, rec.NbrWorker)
				} else {
					assert.Equal(t, rec.Transfer, rec.Kind)
				}
			}
		}
	}
	// overlap rectangles have positive area, stay inside the owner's ghost
	// extent and inside the neighbor's interior
	{
		for i := range geo.Blocks {
			b := &geo.Blocks[i]
			ext := b.Ext()
			for _, rec := range b.Comms {
				assert.Greater(t, rec.Overlap.Area(), 0.)
				assert.Equal(t, rec.Overlap, GetIntersection(rec.Overlap, ext.AABB))
				nbr := geo.GetBlock(rec.Nbr)
				assert.Equal(t, rec.Overlap, GetIntersection(rec.Overlap, nbr.AABB))
			}
		}
	}
	// communication is reciprocal: leaves touch, so each direction has a
	// matching record on the other side
	{
		has := func(owner, nbr int) bool {
			for _, rec := range geo.GetBlock(owner).Comms {
				if rec.Nbr == nbr {
					return true
				}
			}
			return false
		}
		for i := range geo.Blocks {
			for _, rec := range geo.Blocks[i].Comms {
				assert.True(t, has(rec.Nbr, rec.Owner),
					"record %d<-%d has no counterpart", rec.Owner, rec.Nbr)
			}
		}
	}
	// directions are unit offsets towards the neighbor
	{
		for i := range geo.Blocks {
			for _, rec := range geo.Blocks[i].Comms {
				d := rec.Direction
				assert.True(t, d[0] >= -1 && d[0] <= 1)
				assert.True(t, d[1] >= -1 && d[1] <= 1)
				assert.False(t, d[0] == 0 && d[1] == 0,
					"record %d<-%d has no direction", rec.Owner, rec.Nbr)
			}
		}
	}
	// ownership query matches the stored assignment
	{
		seen := make(map[int]bool)
		for w := 0; w < geo.NumWorkers; w++ {
			for _, id := range geo.OwnedBy(w) {
				assert.Equal(t, w, geo.GetBlock(id).Worker)
				assert.False(t, seen[id])
				seen[id] = true
			}
		}
		assert.Len(t, seen, len(geo.Blocks))
	}
}

func TestUniformBlockGeometry(t *testing.T) {
	geo, err := NewUniformBlockGeometry2D(64, 64, 16,
		testDomain, 1.)
	require.NoError(t, err)
	assert.Equal(t, 1, geo.NumWorkers)
	assert.Equal(t, 64*64, geo.GetTotalCellNum())
	for i := range geo.Blocks {
		assert.Equal(t, uint8(0), geo.Blocks[i].Level)
	}
}
