package geometry2D

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
)

// node is one block descriptor record in the refinement forest arena.
// Parent/child linkage is stored as indices into the arena (never pointers)
// so the forest is acyclic by construction and trivially serializable.
type node struct {
	block    BasicBlock
	parent   int // -1 for roots
	children []int
}

func (n *node) isLeaf() bool { return len(n.children) == 0 }

// BlockGeometryHelper2D builds the refinement forest for a rectangular
// domain: initial uniform partition, predicate driven refinement, 2:1
// balance enforcement, flattening to leaf blocks, block count optimization
// and load balancing across workers. Once a BlockGeometry2D has been frozen
// from it, the helper is discarded; re-partitioning rebuilds a new helper
// from scratch.
type BlockGeometryHelper2D struct {
	BaseBlock BasicBlock // the whole domain as one level 0 block
	CellLen   float64    // level 0 voxel size

	nodes []node
	roots []int

	// populated by CreateBlocks / AdaptiveOptimization
	blocks []BasicBlock
	// populated by LoadBalancing: block id -> worker
	workerOf   []int
	numWorkers int

	Overlap int
}

// NewBlockGeometryHelper2D tiles an Ni x Nj cell domain into a roughly equal
// grid of level 0 blocks of about blockCellLen cells per axis.
func NewBlockGeometryHelper2D(Ni, Nj int, domain AABB, cellLen float64,
	blockCellLen int) (*BlockGeometryHelper2D, error) {
	if Ni < 1 || Nj < 1 {
		return nil, configErrorf("mesh dimensions must be positive: %dx%d", Ni, Nj)
	}
	if cellLen <= 0 {
		return nil, configErrorf("voxel size must be positive: %g", cellLen)
	}
	if blockCellLen < 1 {
		return nil, configErrorf("block cell length must be positive: %d", blockCellLen)
	}
	var (
		ext = domain.Extension()
	)
	if !divisible(ext[0], cellLen, Ni) || !divisible(ext[1], cellLen, Nj) {
		return nil, configErrorf(
			"domain %gx%g is not %dx%d voxels of size %g",
			ext[0], ext[1], Ni, Nj, cellLen)
	}
	h := &BlockGeometryHelper2D{
		BaseBlock: NewBasicBlock(0, cellLen, -1, domain,
			IntBox{Min: [2]int{0, 0}, Max: [2]int{Ni - 1, Nj - 1}}),
		CellLen: cellLen,
		Overlap: 1,
	}
	// roughly equal grid of level 0 blocks, remainder spread over the low
	// index rows and columns
	var (
		px    = (Ni + blockCellLen - 1) / blockCellLen
		py    = (Nj + blockCellLen - 1) / blockCellLen
		xCuts = splitCells(Ni, px)
		yCuts = splitCells(Nj, py)
	)
	for j := 0; j < py; j++ {
		for i := 0; i < px; i++ {
			var (
				box = IntBox{
					Min: [2]int{xCuts[i], yCuts[j]},
					Max: [2]int{xCuts[i+1] - 1, yCuts[j+1] - 1},
				}
				aabb = AABB{
					Min: Vec{
						domain.Min[0] + float64(xCuts[i])*cellLen,
						domain.Min[1] + float64(yCuts[j])*cellLen,
					},
					Max: Vec{
						domain.Min[0] + float64(xCuts[i+1])*cellLen,
						domain.Min[1] + float64(yCuts[j+1])*cellLen,
					},
				}
			)
			h.nodes = append(h.nodes, node{
				block:  NewBasicBlock(0, cellLen, -1, aabb, box),
				parent: -1,
			})
			h.roots = append(h.roots, len(h.nodes)-1)
		}
	}
	logrus.Infof("block geometry helper: %dx%d cells, %dx%d level 0 blocks",
		Ni, Nj, px, py)
	return h, nil
}

func divisible(ext, cellLen float64, n int) bool {
	return math.Abs(ext-float64(n)*cellLen) < 1e-9*cellLen
}

// ForEachBlockCell applies the refinement predicate to every level 0 block
// cell. The returned depth k refines the cell into 2^(2k) leaves at level k;
// zero leaves the cell untouched.
func (h *BlockGeometryHelper2D) ForEachBlockCell(pred func(BasicBlock) uint8) error {
	for _, r := range h.roots {
		k := pred(h.nodes[r].block)
		if k > 0 {
			if err := h.refineNode(r, k); err != nil {
				return err
			}
		}
	}
	return nil
}

// refineNode refines one leaf node by one level at a time so that every
// intermediate level exists in the forest; sibling groups stay mergeable
// during AdaptiveOptimization.
func (h *BlockGeometryHelper2D) refineNode(idx int, k uint8) error {
	if k == 0 {
		return nil
	}
	children, err := h.nodes[idx].block.Refine(1)
	if err != nil {
		return err
	}
	for _, c := range children {
		h.nodes = append(h.nodes, node{block: c, parent: idx})
		h.nodes[idx].children = append(h.nodes[idx].children, len(h.nodes)-1)
	}
	for _, ci := range h.nodes[idx].children {
		if err = h.refineNode(ci, k-1); err != nil {
			return err
		}
	}
	return nil
}

// leafIndices returns the arena indices of all leaves in deterministic
// depth first order
func (h *BlockGeometryHelper2D) leafIndices() (leaves []int) {
	var walk func(int)
	walk = func(idx int) {
		if h.nodes[idx].isLeaf() {
			leaves = append(leaves, idx)
			return
		}
		for _, c := range h.nodes[idx].children {
			walk(c)
		}
	}
	for _, r := range h.roots {
		walk(r)
	}
	return
}

func (h *BlockGeometryHelper2D) maxLevel() (max uint8) {
	for i := range h.nodes {
		if h.nodes[i].isLeaf() && h.nodes[i].block.Level > max {
			max = h.nodes[i].block.Level
		}
	}
	return
}

// fineBox expresses a block's index extent in the cell units of level max
func fineBox(b BasicBlock, max uint8) IntBox {
	var (
		s = 1 << (max - b.Level)
	)
	return IntBox{
		Min: [2]int{b.IndexBox.Min[0] * s, b.IndexBox.Min[1] * s},
		Max: [2]int{(b.IndexBox.Max[0]+1)*s - 1, (b.IndexBox.Max[1]+1)*s - 1},
	}
}

// FaceAdjacent reports whether a and b share an edge of positive length
func FaceAdjacent(a, b BasicBlock, max uint8) bool {
	var (
		fa = fineBox(a, max)
		fb = fineBox(b, max)
	)
	xTouch := fa.Max[0]+1 == fb.Min[0] || fb.Max[0]+1 == fa.Min[0]
	yTouch := fa.Max[1]+1 == fb.Min[1] || fb.Max[1]+1 == fa.Min[1]
	xOverlap := minInt(fa.Max[0], fb.Max[0]) >= maxInt(fa.Min[0], fb.Min[0])
	yOverlap := minInt(fa.Max[1], fb.Max[1]) >= maxInt(fa.Min[1], fb.Min[1])
	return (xTouch && yOverlap) || (yTouch && xOverlap)
}

// Adjacent reports whether a and b touch along an edge or at a corner. The
// balance walk uses this stronger notion so that every ghost exchange,
// diagonal directions included, crosses at most one level.
func Adjacent(a, b BasicBlock, max uint8) bool {
	var (
		fa = fineBox(a, max)
		fb = fineBox(b, max)
	)
	return minInt(fa.Max[0], fb.Max[0])+1 >= maxInt(fa.Min[0], fb.Min[0]) &&
		minInt(fa.Max[1], fb.Max[1])+1 >= maxInt(fa.Min[1], fb.Min[1])
}

// CheckRefine enforces the 2:1 balance invariant: any two adjacent leaves,
// corner contact included, differ in level by at most one. The coarser leaf
// of a violating pair is refined further; the walk repeats until stable,
// which bounds the interpolation stencil to a single level jump everywhere.
func (h *BlockGeometryHelper2D) CheckRefine() error {
	for pass := 0; ; pass++ {
		var (
			max      = h.maxLevel()
			leaves   = h.leafIndices()
			toRefine []int
		)
		for i := 0; i < len(leaves); i++ {
			for j := i + 1; j < len(leaves); j++ {
				var (
					a = h.nodes[leaves[i]].block
					b = h.nodes[leaves[j]].block
				)
				if !Adjacent(a, b, max) {
					continue
				}
				if levelDiff(a.Level, b.Level) <= 1 {
					continue
				}
				if a.Level < b.Level {
					toRefine = append(toRefine, leaves[i])
				} else {
					toRefine = append(toRefine, leaves[j])
				}
			}
		}
		if len(toRefine) == 0 {
			if pass > 0 {
				logrus.Infof("2:1 balance reached after %d passes", pass)
			}
			return nil
		}
		sort.Ints(toRefine)
		refined := make(map[int]bool)
		for _, idx := range toRefine {
			if refined[idx] {
				continue
			}
			refined[idx] = true
			if err := h.refineNode(idx, 1); err != nil {
				return err
			}
		}
	}
}

func levelDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// CreateBlocks flattens the forest leaves into a linear block list with
// stable integer ids and fixes the ghost layer width, uniform across levels.
func (h *BlockGeometryHelper2D) CreateBlocks(overlap int) error {
	if overlap < 1 {
		return configErrorf("ghost layer width must be positive: %d", overlap)
	}
	// a refined forest needs the ghost strip of a fine block to cover whole
	// coarse cells, otherwise the interpolation window is not well formed
	if h.maxLevel() > 0 && overlap%2 != 0 {
		return configErrorf("ghost layer width must be even on refined geometries: %d", overlap)
	}
	h.Overlap = overlap
	h.flatten()
	if len(h.blocks) == 0 {
		return configErrorf("refinement produced an empty forest")
	}
	logrus.Infof("created %d blocks, ghost width %d", len(h.blocks), overlap)
	return nil
}

func (h *BlockGeometryHelper2D) flatten() {
	leaves := h.leafIndices()
	h.blocks = make([]BasicBlock, len(leaves))
	for id, idx := range leaves {
		h.nodes[idx].block.ID = id
		h.blocks[id] = h.nodes[idx].block
	}
}

// Blocks returns the flattened leaf blocks. Valid after CreateBlocks.
func (h *BlockGeometryHelper2D) Blocks() []BasicBlock { return h.blocks }

// WorkerOf returns the block id to worker assignment. Valid after
// LoadBalancing.
func (h *BlockGeometryHelper2D) WorkerOf() []int { return h.workerOf }

func (h *BlockGeometryHelper2D) NumWorkers() int { return h.numWorkers }

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
