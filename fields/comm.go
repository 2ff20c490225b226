package fields

import (
	"math"

	"github.com/zdxying/FreeLB/geometry2D"
)

// Float constrains the interpolating routines to real valued fields
type Float interface {
	~float32 | ~float64
}

// The three transfer routines share one protocol: the physical intersection
// rectangle of the two blocks (precomputed in the communication record) is
// translated into each block's own local linear index window, and only that
// window is iterated. The block descriptors passed in are the ghost
// inclusive extents matching the allocated arrays; a window that escapes an
// array's bound panics in the bounds checked store rather than clamping.

// cellIndex converts a physical offset from a block origin into whole cells
func cellIndex(phys, h float64) int {
	return int(math.Round(phys / h))
}

// window translates the intersection into a block local start index and the
// intersection's mesh dimensions at that block's resolution
func window(intsec geometry2D.AABB, b geometry2D.BasicBlock) (sx, sy, nx, ny int) {
	var (
		ext = intsec.Extension()
	)
	sx = cellIndex(intsec.Min[0]-b.AABB.Min[0], b.VoxelSize)
	sy = cellIndex(intsec.Min[1]-b.AABB.Min[1], b.VoxelSize)
	nx = cellIndex(ext[0], b.VoxelSize)
	ny = cellIndex(ext[1], b.VoxelSize)
	return
}

// FieldCopy2D transfers the intersection element for element between two
// same level blocks, per component
func FieldCopy2D[T any](from, to *Field[T], intsec geometry2D.AABB,
	fromBlock, toBlock geometry2D.BasicBlock) {
	var (
		fsx, fsy, nx, ny = window(intsec, fromBlock)
		tsx, tsy, _, _   = window(intsec, toBlock)
	)
	for iArr := 0; iArr < from.Dim(); iArr++ {
		var (
			src = from.Comp(iArr)
			dst = to.Comp(iArr)
		)
		for iy := 0; iy < ny; iy++ {
			var (
				fromID = (iy+fsy)*fromBlock.Nx + fsx
				toID   = (iy+tsy)*toBlock.Nx + tsx
			)
			for ix := 0; ix < nx; ix++ {
				dst.Set(toID+ix, src.Get(fromID+ix))
			}
		}
	}
}

// Bilinear stencil weights for a fine cell sitting in one quadrant of a
// coarse cell. Every case is a permutation of the same four weights and each
// sums to exactly one, so spatial constants are preserved.
const (
	wFar  = 0.0625
	wSide = 0.1875
	wNear = 0.5625
)

// FieldInterpolation2D fills the fine block's side of the intersection from
// the coarse block: each coarse cell supplies its four logical children via
// the quadrant stencils. Second order accurate; mandatory at every
// coarse/fine interface.
func FieldInterpolation2D[T Float](coarse, fine *Field[T], intsec geometry2D.AABB,
	cBlock, fBlock geometry2D.BasicBlock) {
	var (
		csx, csy, cnx, cny = window(intsec, cBlock)
		fsx, fsy, _, _     = window(intsec, fBlock)
		// stencil origins: one coarse cell towards low, one fine cell
		// towards high
		csx0, csy0 = csx - 1, csy - 1
		fsx1, fsy1 = fsx + 1, fsy + 1
	)
	for iArr := 0; iArr < coarse.Dim(); iArr++ {
		var (
			cArr = coarse.Comp(iArr)
			fArr = fine.Comp(iArr)
		)
		// quadrant 0: fine child at the low-x, low-y corner of its coarse cell
		interpQuadrant(cArr, fArr, cBlock.Nx, fBlock.Nx, cnx, cny,
			csx0, csy0, fsx, fsy, [4]T{wFar, wSide, wSide, wNear})
		// quadrant 1: high-x, low-y
		interpQuadrant(cArr, fArr, cBlock.Nx, fBlock.Nx, cnx, cny,
			csx, csy0, fsx1, fsy, [4]T{wSide, wFar, wNear, wSide})
		// quadrant 2: low-x, high-y
		interpQuadrant(cArr, fArr, cBlock.Nx, fBlock.Nx, cnx, cny,
			csx0, csy, fsx, fsy1, [4]T{wSide, wNear, wFar, wSide})
		// quadrant 3: high-x, high-y
		interpQuadrant(cArr, fArr, cBlock.Nx, fBlock.Nx, cnx, cny,
			csx, csy, fsx1, fsy1, [4]T{wNear, wSide, wSide, wFar})
	}
}

// interpQuadrant writes one of the four fine children of every coarse cell
// in the intersection, using the 2x2 coarse stencil anchored at (cx, cy)
func interpQuadrant[T Float](cArr, fArr Store[T], cNx, fNx, nx, ny int,
	cx, cy, fx, fy int, w [4]T) {
	for iy := 0; iy < ny; iy++ {
		for ix := 0; ix < nx; ix++ {
			var (
				cid0 = (iy+cy)*cNx + ix + cx
				cid1 = cid0 + 1
				cid2 = cid0 + cNx
				cid3 = cid2 + 1
				fid  = (iy*2+fy)*fNx + ix*2 + fx
			)
			fArr.Set(fid, cArr.Get(cid0)*w[0]+cArr.Get(cid1)*w[1]+
				cArr.Get(cid2)*w[2]+cArr.Get(cid3)*w[3])
		}
	}
}

// FieldAverage2D fills the coarse block's side of the intersection from the
// fine block: every coarse cell becomes the unweighted mean of its four fine
// children. Exact, conservative downsampling.
func FieldAverage2D[T Float](fine, coarse *Field[T], intsec geometry2D.AABB,
	fBlock, cBlock geometry2D.BasicBlock) {
	var (
		csx, csy, cnx, cny = window(intsec, cBlock)
		fsx, fsy, _, _     = window(intsec, fBlock)
	)
	for iArr := 0; iArr < fine.Dim(); iArr++ {
		var (
			fArr = fine.Comp(iArr)
			cArr = coarse.Comp(iArr)
		)
		for iy := 0; iy < cny; iy++ {
			for ix := 0; ix < cnx; ix++ {
				var (
					cid  = (iy+csy)*cBlock.Nx + ix + csx
					fid0 = (iy*2+fsy)*fBlock.Nx + ix*2 + fsx
					fid1 = fid0 + 1
					fid2 = fid0 + fBlock.Nx
					fid3 = fid2 + 1
				)
				cArr.Set(cid, (fArr.Get(fid0)+fArr.Get(fid1)+
					fArr.Get(fid2)+fArr.Get(fid3))*T(0.25))
			}
		}
	}
}
