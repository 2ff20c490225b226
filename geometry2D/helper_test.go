package geometry2D

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDomain = AABB{Min: Vec{0, 0}, Max: Vec{64, 64}}

// refinedHelper builds a 64x64 domain in 16 cell blocks with the central
// 16x16 region refined to the given depth and 2:1 balance restored
func refinedHelper(t *testing.T, depth uint8) *BlockGeometryHelper2D {
	h, err := NewBlockGeometryHelper2D(64, 64, testDomain, 1., 16)
	require.NoError(t, err)
	center := AABB{Min: Vec{24, 24}, Max: Vec{40, 40}}
	err = h.ForEachBlockCell(func(b BasicBlock) uint8 {
		if IsOverlapped(b.AABB, center) {
			return depth
		}
		return 0
	})
	require.NoError(t, err)
	require.NoError(t, h.CheckRefine())
	return h
}

func TestHelperConfiguration(t *testing.T) {
	// non positive mesh
	{
		_, err := NewBlockGeometryHelper2D(0, 64, testDomain, 1., 16)
		var cfg *ConfigurationError
		assert.ErrorAs(t, err, &cfg)
	}
	// domain extent not divisible into voxels
	{
		_, err := NewBlockGeometryHelper2D(60, 64, testDomain, 1., 16)
		assert.Error(t, err)
	}
	// odd ghost width on a refined forest
	{
		h := refinedHelper(t, 1)
		assert.Error(t, h.CreateBlocks(1))
		assert.NoError(t, h.CreateBlocks(2))
	}
	// optimization and balancing demand CreateBlocks first
	{
		h, err := NewBlockGeometryHelper2D(64, 64, testDomain, 1., 16)
		require.NoError(t, err)
		assert.Error(t, h.AdaptiveOptimization(10))
		_, err = h.LoadBalancing(2)
		assert.Error(t, err)
	}
}

func TestAdjacency(t *testing.T) {
	mk := func(x0, y0, x1, y1 int) BasicBlock {
		return NewBasicBlock(0, 1., 0,
			AABB{Min: Vec{float64(x0), float64(y0)}, Max: Vec{float64(x1 + 1), float64(y1 + 1)}},
			IntBox{Min: [2]int{x0, y0}, Max: [2]int{x1, y1}})
	}
	var (
		a    = mk(0, 0, 3, 3)
		face = mk(4, 0, 7, 3)
		diag = mk(4, 4, 7, 7)
		far  = mk(5, 0, 8, 3)
	)
	// sharing an edge is both face adjacent and adjacent
	assert.True(t, FaceAdjacent(a, face, 0))
	assert.True(t, Adjacent(a, face, 0))
	// corner contact counts only for the stronger notion
	assert.False(t, FaceAdjacent(a, diag, 0))
	assert.True(t, Adjacent(a, diag, 0))
	// a gap is neither
	assert.False(t, FaceAdjacent(a, far, 0))
	assert.False(t, Adjacent(a, far, 0))
}

func TestRefinementInvariants(t *testing.T) {
	h := refinedHelper(t, 2)
	require.NoError(t, h.CreateBlocks(2))
	var (
		blocks = h.Blocks()
		max    uint8
	)
	for _, b := range blocks {
		if b.Level > max {
			max = b.Level
		}
	}
	require.Equal(t, uint8(2), max)
	// partition of unity: leaves tile the domain exactly with no interior
	// overlap
	{
		var area float64
		for _, b := range blocks {
			area += b.AABB.Area()
		}
		assert.Equal(t, testDomain.Area(), area)
		for i := 0; i < len(blocks); i++ {
			for j := i + 1; j < len(blocks); j++ {
				ext := GetIntersection(blocks[i].AABB, blocks[j].AABB).Extension()
				assert.False(t, ext[0] > 0 && ext[1] > 0,
					"blocks %d and %d overlap", i, j)
			}
		}
	}
	// 2:1 balance: adjacent leaves, corner contact included, differ by at
	// most one level
	{
		for i := 0; i < len(blocks); i++ {
			for j := i + 1; j < len(blocks); j++ {
				if Adjacent(blocks[i], blocks[j], max) {
					assert.LessOrEqual(t,
						int(levelDiff(blocks[i].Level, blocks[j].Level)), 1,
						"blocks %d and %d break 2:1 balance", i, j)
				}
			}
		}
	}
	// ids are stable and dense
	{
		for id, b := range blocks {
			assert.Equal(t, id, b.ID)
		}
	}
}

func TestAdaptiveOptimization(t *testing.T) {
	// merging towards a smaller target count keeps the tiling and the
	// balance intact
	{
		h := refinedHelper(t, 1)
		require.NoError(t, h.CreateBlocks(2))
		before := len(h.Blocks())
		require.NoError(t, h.AdaptiveOptimization(before - 6))
		after := len(h.Blocks())
		assert.Less(t, after, before)
		var area float64
		for _, b := range h.Blocks() {
			area += b.AABB.Area()
		}
		assert.Equal(t, testDomain.Area(), area)
	}
	// splitting towards a larger target count
	{
		h := refinedHelper(t, 1)
		require.NoError(t, h.CreateBlocks(2))
		before := len(h.Blocks())
		require.NoError(t, h.AdaptiveOptimization(before+6))
		assert.Greater(t, len(h.Blocks()), before)
	}
	// the tie-break rule is deterministic: identical configurations produce
	// identical forests
	{
		build := func() []BasicBlock {
			h := refinedHelper(t, 1)
			require.NoError(t, h.CreateBlocks(2))
			require.NoError(t, h.AdaptiveOptimization(12))
			return h.Blocks()
		}
		assert.Equal(t, build(), build())
	}
}

func TestLoadBalancing(t *testing.T) {
	// sixteen equal level 0 blocks over four workers: perfectly even loads
	{
		h, err := NewBlockGeometryHelper2D(64, 64, testDomain, 1., 16)
		require.NoError(t, err)
		require.NoError(t, h.CreateBlocks(1))
		workerOf, err := h.LoadBalancing(4)
		require.NoError(t, err)
		counts := make([]int, 4)
		for _, w := range workerOf {
			counts[w]++
		}
		for w := 0; w < 4; w++ {
			assert.Equal(t, 4, counts[w])
		}
	}
	// more workers than blocks: at most one block each, no error
	{
		h, err := NewBlockGeometryHelper2D(64, 64, testDomain, 1., 16)
		require.NoError(t, err)
		require.NoError(t, h.CreateBlocks(1))
		workerOf, err := h.LoadBalancing(20)
		require.NoError(t, err)
		counts := make([]int, 20)
		for _, w := range workerOf {
			counts[w]++
		}
		for _, c := range counts {
			assert.LessOrEqual(t, c, 1)
		}
	}
	// a refined forest weights fine blocks by their cost factor
	{
		assert.Equal(t, 1., CostFactor(0))
		assert.Equal(t, 4., CostFactor(2))
		b := NewBasicBlock(2, 0.25, 0,
			AABB{Min: Vec{0, 0}, Max: Vec{4, 4}},
			IntBox{Min: [2]int{0, 0}, Max: [2]int{15, 15}})
		assert.Equal(t, 1024., BlockWeight(b))
	}
	// the LPT makespan stays within (4/3 - 1/(3W)) of the perfect split on
	// a refined forest with mixed block weights
	{
		h := refinedHelper(t, 1)
		require.NoError(t, h.CreateBlocks(2))
		workerOf, err := h.LoadBalancing(2)
		require.NoError(t, err)
		var loads [2]float64
		var total float64
		for id, b := range h.Blocks() {
			loads[workerOf[id]] += BlockWeight(b)
			total += BlockWeight(b)
		}
		makespan := loads[0]
		if loads[1] > makespan {
			makespan = loads[1]
		}
		assert.LessOrEqual(t, makespan, (4./3.-1./6.)*total/2.)
	}
	// non positive worker counts are balance errors
	{
		h, err := NewBlockGeometryHelper2D(64, 64, testDomain, 1., 16)
		require.NoError(t, err)
		require.NoError(t, h.CreateBlocks(1))
		_, err = h.LoadBalancing(0)
		var be *BalanceError
		assert.ErrorAs(t, err, &be)
	}
}
