package geometry2D

import (
	"github.com/sirupsen/logrus"
)

// CommKind selects the transfer routine for a communication record
type CommKind uint8

const (
	CommCopy        CommKind = iota // same level, same worker
	CommInterp                      // neighbor coarser: interpolation inbound
	CommAverage                     // neighbor finer: averaging inbound
	CommCrossWorker                 // neighbor owned by another worker
)

func (k CommKind) String() string {
	switch k {
	case CommCopy:
		return "copy"
	case CommInterp:
		return "interpolate"
	case CommAverage:
		return "average"
	case CommCrossWorker:
		return "cross-worker"
	}
	return "unknown"
}

// CommRecord describes one inbound ghost transfer for a block. Records are
// built once after partitioning and reused every step until the geometry is
// rebuilt. For cross worker records Transfer carries the local kind the
// receiving side applies after unpacking.
type CommRecord struct {
	Owner     int // receiving block id
	Nbr       int // sending block id
	NbrWorker int
	Direction [2]int // unit offset from owner towards neighbor
	Overlap   AABB   // physical intersection, ghost inclusive on the owner side
	Kind      CommKind
	Transfer  CommKind
}

// Block is a finalized leaf: its geometric descriptor plus ghost width,
// owning worker and the ordered inbound communication records
type Block struct {
	BasicBlock
	Overlap int
	Worker  int
	Comms   []CommRecord
}

// Ext returns the ghost inclusive descriptor of the block
func (b *Block) Ext() BasicBlock {
	return b.ExtBlock(b.Overlap)
}

// BlockGeometry2D is the frozen, queryable collection of balanced leaf
// blocks with precomputed neighbor and communication records. The geometry
// is immutable once built; cell contents may still change without affecting
// block boundaries. Re-partitioning discards the whole structure and builds
// a new one.
type BlockGeometry2D struct {
	BaseBlock  BasicBlock
	Blocks     []Block
	NumWorkers int
}

// NewBlockGeometry2D freezes the helper's balanced forest. The helper must
// have run CreateBlocks; without LoadBalancing all blocks land on a single
// worker.
func NewBlockGeometry2D(h *BlockGeometryHelper2D) (*BlockGeometry2D, error) {
	var (
		blocks = h.Blocks()
	)
	if len(blocks) == 0 {
		return nil, configErrorf("helper has no blocks; run CreateBlocks first")
	}
	workerOf := h.WorkerOf()
	numWorkers := h.NumWorkers()
	if workerOf == nil {
		workerOf = make([]int, len(blocks))
		numWorkers = 1
	}
	geo := &BlockGeometry2D{
		BaseBlock:  h.BaseBlock,
		Blocks:     make([]Block, len(blocks)),
		NumWorkers: numWorkers,
	}
	for id, bb := range blocks {
		geo.Blocks[id] = Block{
			BasicBlock: bb,
			Overlap:    h.Overlap,
			Worker:     workerOf[id],
		}
	}
	geo.buildCommRecords()
	logrus.Infof("block geometry frozen: %d blocks, %d workers, %d comm records",
		len(geo.Blocks), geo.NumWorkers, geo.totalComms())
	return geo, nil
}

// NewUniformBlockGeometry2D partitions an Ni x Nj domain into roughly
// blockCount uniform level 0 blocks on a single worker, without refinement
func NewUniformBlockGeometry2D(Ni, Nj, blockCount int, domain AABB,
	cellLen float64) (*BlockGeometry2D, error) {
	if blockCount < 1 {
		return nil, configErrorf("block count must be positive: %d", blockCount)
	}
	// choose a block cell length giving about blockCount square patches
	per := maxInt(1, intSqrt(Ni*Nj/blockCount))
	h, err := NewBlockGeometryHelper2D(Ni, Nj, domain, cellLen, per)
	if err != nil {
		return nil, err
	}
	if err = h.CreateBlocks(1); err != nil {
		return nil, err
	}
	return NewBlockGeometry2D(h)
}

func intSqrt(n int) int {
	r := 0
	for (r+1)*(r+1) <= n {
		r++
	}
	return r
}

// buildCommRecords derives, for every block, the ordered inbound transfer
// list: the ghost inclusive extent of the owner intersected with each
// neighbor's interior extent
func (geo *BlockGeometry2D) buildCommRecords() {
	var (
		max = geo.maxLevel()
	)
	for i := range geo.Blocks {
		owner := &geo.Blocks[i]
		ext := owner.Ext()
		for j := range geo.Blocks {
			if i == j {
				continue
			}
			nbr := &geo.Blocks[j]
			if !IsOverlapped(ext.AABB, nbr.AABB) {
				continue
			}
			overlap := GetIntersection(ext.AABB, nbr.AABB)
			if overlapArea(overlap) <= 0 {
				continue
			}
			rec := CommRecord{
				Owner:     owner.ID,
				Nbr:       nbr.ID,
				NbrWorker: nbr.Worker,
				Direction: direction(owner.BasicBlock, nbr.BasicBlock, max),
				Overlap:   overlap,
			}
			rec.Transfer = transferKind(owner.Level, nbr.Level)
			if owner.Worker != nbr.Worker {
				rec.Kind = CommCrossWorker
			} else {
				rec.Kind = rec.Transfer
			}
			owner.Comms = append(owner.Comms, rec)
		}
	}
}

func transferKind(ownerLevel, nbrLevel uint8) CommKind {
	switch {
	case nbrLevel < ownerLevel:
		return CommInterp
	case nbrLevel > ownerLevel:
		return CommAverage
	}
	return CommCopy
}

// overlapArea is positive only for a genuine two dimensional intersection;
// edge and corner contact of the non extended boxes yields zero
func overlapArea(a AABB) float64 {
	var (
		ext = a.Extension()
	)
	if ext[0] <= 0 || ext[1] <= 0 {
		return 0
	}
	return ext[0] * ext[1]
}

func direction(owner, nbr BasicBlock, max uint8) (d [2]int) {
	var (
		fo = fineBox(owner, max)
		fn = fineBox(nbr, max)
	)
	for axis := 0; axis < 2; axis++ {
		if fn.Min[axis] > fo.Max[axis] {
			d[axis] = 1
		} else if fn.Max[axis] < fo.Min[axis] {
			d[axis] = -1
		}
	}
	return
}

func (geo *BlockGeometry2D) maxLevel() (max uint8) {
	for i := range geo.Blocks {
		if geo.Blocks[i].Level > max {
			max = geo.Blocks[i].Level
		}
	}
	return
}

func (geo *BlockGeometry2D) totalComms() (n int) {
	for i := range geo.Blocks {
		n += len(geo.Blocks[i].Comms)
	}
	return
}

// GetBlock returns the block with the given stable id
func (geo *BlockGeometry2D) GetBlock(id int) *Block {
	return &geo.Blocks[id]
}

// OwnedBy lists the block ids owned by one worker, in id order
func (geo *BlockGeometry2D) OwnedBy(worker int) (ids []int) {
	for i := range geo.Blocks {
		if geo.Blocks[i].Worker == worker {
			ids = append(ids, geo.Blocks[i].ID)
		}
	}
	return
}

// GetTotalCellNum sums the interior cell counts of all blocks
func (geo *BlockGeometry2D) GetTotalCellNum() (n int) {
	for i := range geo.Blocks {
		n += geo.Blocks[i].N
	}
	return
}
