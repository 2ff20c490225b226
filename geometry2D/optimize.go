package geometry2D

import (
	"github.com/sirupsen/logrus"
)

// mergeCand is a sibling group that can collapse back into its parent,
// splitCand a leaf that can subdivide once more. Either move changes the
// leaf count by 3 in 2D.
type mergeCand struct {
	parent   int
	aspect   float64
	lowestID int
}

type splitCand struct {
	leaf   int
	aspect float64
	id     int
}

// AdaptiveOptimization merges or splits same level leaves to bring the total
// leaf count near targetCount, trading fragmentation against block size
// uniformity. Candidate moves never violate the 2:1 balance. On equal
// resulting count the move with the most square resulting block wins; if
// still tied, the lowest block id. The rule is deterministic so repeated
// builds of the same configuration produce identical forests.
func (h *BlockGeometryHelper2D) AdaptiveOptimization(targetCount int) error {
	if targetCount < 1 {
		return configErrorf("target block count must be positive: %d", targetCount)
	}
	if len(h.blocks) == 0 {
		return configErrorf("AdaptiveOptimization before CreateBlocks")
	}
	var moves int
	for {
		var (
			count = len(h.leafIndices())
			diff  = count - targetCount
		)
		if diff > 0 && absInt(count-3-targetCount) < absInt(diff) {
			if !h.applyBestMerge() {
				break
			}
		} else if diff < 0 && absInt(count+3-targetCount) < absInt(diff) {
			if !h.applyBestSplit() {
				break
			}
		} else {
			break
		}
		moves++
	}
	h.flatten()
	logrus.Infof("adaptive optimization: %d moves, %d blocks (target %d)",
		moves, len(h.blocks), targetCount)
	return nil
}

// applyBestMerge collapses the best mergeable sibling group, returning false
// when no group can merge without breaking the 2:1 balance
func (h *BlockGeometryHelper2D) applyBestMerge() bool {
	var (
		best  *mergeCand
		max   = h.maxLevel()
		leafs = h.leafIndices()
	)
	for i := range h.nodes {
		n := &h.nodes[i]
		if n.isLeaf() || !h.childrenAreLeaves(i) {
			continue
		}
		if !h.mergeKeepsBalance(i, max, leafs) {
			continue
		}
		cand := mergeCand{
			parent:   i,
			aspect:   aspectOf(n.block),
			lowestID: h.lowestChildID(i),
		}
		if best == nil || cand.aspect < best.aspect ||
			(cand.aspect == best.aspect && cand.lowestID < best.lowestID) {
			c := cand
			best = &c
		}
	}
	if best == nil {
		return false
	}
	h.nodes[best.parent].children = nil
	return true
}

// applyBestSplit refines the best splittable leaf, returning false when no
// leaf can split without a degenerate mesh or a balance violation
func (h *BlockGeometryHelper2D) applyBestSplit() bool {
	var (
		best  *splitCand
		max   = h.maxLevel()
		leafs = h.leafIndices()
	)
	for _, idx := range leafs {
		b := h.nodes[idx].block
		if b.Nx < 2 || b.Ny < 2 {
			continue
		}
		if !h.splitKeepsBalance(idx, max, leafs) {
			continue
		}
		cand := splitCand{leaf: idx, aspect: aspectOf(b), id: b.ID}
		if best == nil || cand.aspect < best.aspect ||
			(cand.aspect == best.aspect && cand.id < best.id) {
			c := cand
			best = &c
		}
	}
	if best == nil {
		return false
	}
	return h.refineNode(best.leaf, 1) == nil
}

func (h *BlockGeometryHelper2D) childrenAreLeaves(idx int) bool {
	for _, c := range h.nodes[idx].children {
		if !h.nodes[c].isLeaf() {
			return false
		}
	}
	return len(h.nodes[idx].children) > 0
}

func (h *BlockGeometryHelper2D) lowestChildID(idx int) int {
	low := -1
	for _, c := range h.nodes[idx].children {
		if id := h.nodes[c].block.ID; low == -1 || id < low {
			low = id
		}
	}
	return low
}

// mergeKeepsBalance checks that the parent block, once a leaf again, still
// differs by at most one level from every adjacent leaf outside the
// merged group
func (h *BlockGeometryHelper2D) mergeKeepsBalance(idx int, max uint8,
	leaves []int) bool {
	var (
		parent = h.nodes[idx].block
		group  = make(map[int]bool, len(h.nodes[idx].children))
	)
	for _, c := range h.nodes[idx].children {
		group[c] = true
	}
	for _, l := range leaves {
		if group[l] {
			continue
		}
		b := h.nodes[l].block
		if Adjacent(parent, b, max) && levelDiff(parent.Level, b.Level) > 1 {
			return false
		}
	}
	return true
}

// splitKeepsBalance checks that refining the leaf by one level leaves no
// adjacent leaf more than one level coarser
func (h *BlockGeometryHelper2D) splitKeepsBalance(idx int, max uint8,
	leaves []int) bool {
	var (
		b = h.nodes[idx].block
	)
	for _, l := range leaves {
		if l == idx {
			continue
		}
		nb := h.nodes[l].block
		if Adjacent(b, nb, max) && b.Level >= nb.Level+1 {
			// children would be at b.Level+1, two jumps above nb
			if levelDiff(b.Level+1, nb.Level) > 1 {
				return false
			}
		}
	}
	return true
}

// aspectOf scores squareness: 1 is a perfect square, larger is worse
func aspectOf(b BasicBlock) float64 {
	var (
		ext = b.AABB.Extension()
	)
	if ext[0] > ext[1] {
		return ext[0] / ext[1]
	}
	return ext[1] / ext[0]
}

func absInt(a int) int {
	if a < 0 {
		return -a
	}
	return a
}
