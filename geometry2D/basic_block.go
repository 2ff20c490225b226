package geometry2D

// IntBox is a cell index extent, inclusive on both ends, expressed in the
// cell index space of one refinement level
type IntBox struct {
	Min, Max [2]int
}

func (b IntBox) Nx() int { return b.Max[0] - b.Min[0] + 1 }
func (b IntBox) Ny() int { return b.Max[1] - b.Min[1] + 1 }

// BasicBlock is the immutable geometric descriptor of one rectangular block:
// its physical AABB, voxel size, refinement level and integer mesh dimensions.
// Mesh dimensions are always the exact quotient of physical extension and
// voxel size; voxel size at level L is h0 / 2^L.
type BasicBlock struct {
	ID        int
	Level     uint8
	VoxelSize float64
	AABB      AABB
	// IndexBox is the global cell index extent of this block at its own level
	IndexBox IntBox
	Nx, Ny   int
	N        int
}

func NewBasicBlock(level uint8, voxelSize float64, id int, aabb AABB,
	indexBox IntBox) BasicBlock {
	var (
		nx = indexBox.Nx()
		ny = indexBox.Ny()
	)
	return BasicBlock{
		ID:        id,
		Level:     level,
		VoxelSize: voxelSize,
		AABB:      aabb,
		IndexBox:  indexBox,
		Nx:        nx,
		Ny:        ny,
		N:         nx * ny,
	}
}

// ExtBlock returns the ghost extended version of b, grown by g voxels on
// every side. The extended block keeps b's level and voxel size.
func (b BasicBlock) ExtBlock(g int) BasicBlock {
	var (
		d   = float64(g) * b.VoxelSize
		box = IntBox{
			Min: [2]int{b.IndexBox.Min[0] - g, b.IndexBox.Min[1] - g},
			Max: [2]int{b.IndexBox.Max[0] + g, b.IndexBox.Max[1] + g},
		}
	)
	return NewBasicBlock(b.Level, b.VoxelSize, b.ID, b.AABB.Extend(d), box)
}

// Index returns the local linear cell id for local cell coordinates (ix, iy)
func (b BasicBlock) Index(ix, iy int) int {
	return ix + iy*b.Nx
}

// Loc is the inverse of Index
func (b BasicBlock) Loc(id int) (ix, iy int) {
	ix = id % b.Nx
	iy = id / b.Nx
	return
}

// VoxelCenter returns the physical center of local cell (ix, iy)
func (b BasicBlock) VoxelCenter(ix, iy int) Vec {
	return Vec{
		b.AABB.Min[0] + (float64(ix)+0.5)*b.VoxelSize,
		b.AABB.Min[1] + (float64(iy)+0.5)*b.VoxelSize,
	}
}

// Refine replaces b with 2^k by 2^k children at level b.Level+k. Children
// exactly tile b's extent; when the mesh does not divide evenly the remainder
// is spread over the low-index children. Fails when any child mesh dimension
// would be degenerate.
func (b BasicBlock) Refine(k uint8) ([]BasicBlock, error) {
	var (
		parts  = 1 << k
		childH = b.VoxelSize / float64(parts)
	)
	if k == 0 {
		return []BasicBlock{b}, nil
	}
	if b.Nx < parts || b.Ny < parts {
		return nil, configErrorf(
			"refine(%d) of block %d degenerates mesh: %dx%d cells into %d parts",
			k, b.ID, b.Nx, b.Ny, parts)
	}
	xCuts := splitCells(b.Nx, parts)
	yCuts := splitCells(b.Ny, parts)
	children := make([]BasicBlock, 0, parts*parts)
	for j := 0; j < parts; j++ {
		for i := 0; i < parts; i++ {
			var (
				// coarse cell range covered by this child
				cx0, cx1 = xCuts[i], xCuts[i+1]
				cy0, cy1 = yCuts[j], yCuts[j+1]
				// fine level global index extent
				box = IntBox{
					Min: [2]int{
						(b.IndexBox.Min[0] + cx0) * parts,
						(b.IndexBox.Min[1] + cy0) * parts,
					},
					Max: [2]int{
						(b.IndexBox.Min[0]+cx1)*parts - 1,
						(b.IndexBox.Min[1]+cy1)*parts - 1,
					},
				}
				aabb = AABB{
					Min: Vec{
						b.AABB.Min[0] + float64(cx0)*b.VoxelSize,
						b.AABB.Min[1] + float64(cy0)*b.VoxelSize,
					},
					Max: Vec{
						b.AABB.Min[0] + float64(cx1)*b.VoxelSize,
						b.AABB.Min[1] + float64(cy1)*b.VoxelSize,
					},
				}
			)
			children = append(children,
				NewBasicBlock(b.Level+k, childH, -1, aabb, box))
		}
	}
	return children, nil
}

// splitCells divides n cells into parts contiguous chunks with a maximum
// imbalance of one cell, returning the parts+1 cut positions
func splitCells(n, parts int) (cuts []int) {
	var (
		base      = n / parts
		remainder = n % parts
	)
	cuts = make([]int, parts+1)
	for i := 1; i <= parts; i++ {
		cuts[i] = cuts[i-1] + base
		if i <= remainder {
			cuts[i]++
		}
	}
	return
}
