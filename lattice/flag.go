package lattice

import (
	"github.com/zdxying/FreeLB/fields"
	"github.com/zdxying/FreeLB/geometry2D"
)

// FlagFieldManager carries one uint8 bitmask array per block, used to mark
// cell roles (void, bulk, boundary kinds). Flags are geometric bookkeeping:
// they never participate in interpolating transfers.
type FlagFieldManager struct {
	Geo   *geometry2D.BlockGeometry2D
	Flags []*fields.Array[uint8]
}

func NewFlagFieldManager(geo *geometry2D.BlockGeometry2D, init uint8) *FlagFieldManager {
	m := &FlagFieldManager{
		Geo:   geo,
		Flags: make([]*fields.Array[uint8], len(geo.Blocks)),
	}
	for i := range geo.Blocks {
		m.Flags[i] = fields.NewArrayInit[uint8](geo.Blocks[i].Ext().N, init)
	}
	return m
}

// SetRegion overwrites the flag of every interior cell whose center lies
// inside region
func (m *FlagFieldManager) SetRegion(region geometry2D.AABB, flag uint8) {
	m.forRegion(region, func(arr *fields.Array[uint8], id int) {
		arr.Set(id, flag)
	})
}

// SetFlag rewrites cells inside region currently carrying required to flag
func (m *FlagFieldManager) SetFlag(region geometry2D.AABB, required, flag uint8) {
	m.forRegion(region, func(arr *fields.Array[uint8], id int) {
		if arr.Get(id)&required != 0 {
			arr.Set(id, flag)
		}
	})
}

func (m *FlagFieldManager) forRegion(region geometry2D.AABB,
	fn func(arr *fields.Array[uint8], id int)) {
	for i := range m.Geo.Blocks {
		var (
			b   = &m.Geo.Blocks[i]
			ext = b.Ext()
			g   = b.Overlap
		)
		if !geometry2D.IsOverlapped(b.AABB, region) {
			continue
		}
		for iy := g; iy < ext.Ny-g; iy++ {
			for ix := g; ix < ext.Nx-g; ix++ {
				if region.ContainsPoint(ext.VoxelCenter(ix, iy)) {
					fn(m.Flags[i], ext.Index(ix, iy))
				}
			}
		}
	}
}

// Communicate refreshes the flag ghost rings from neighbor interiors. Flags
// are categorical, so cross level transfers take the nearest covering cell
// instead of interpolating: a fine ghost copies its coarse parent cell, a
// coarse ghost the low corner child. Ghost cells not covered by any block
// keep their initial value.
func (m *FlagFieldManager) Communicate() {
	for i := range m.Geo.Blocks {
		owner := &m.Geo.Blocks[i]
		for _, rec := range owner.Comms {
			var (
				src                = m.Flags[rec.Nbr]
				dst                = m.Flags[rec.Owner]
				sExt               = m.Geo.Blocks[rec.Nbr].Ext()
				rExt               = m.Geo.Blocks[rec.Owner].Ext()
				ssx, ssy, _, _     = windowIn(rec.Overlap, sExt)
				rsx, rsy, rnx, rny = windowIn(rec.Overlap, rExt)
			)
			for iy := 0; iy < rny; iy++ {
				for ix := 0; ix < rnx; ix++ {
					var sid int
					switch rec.Transfer {
					case geometry2D.CommInterp: // owner finer: parent cell
						sid = sExt.Index(ssx+ix/2, ssy+iy/2)
					case geometry2D.CommAverage: // owner coarser: low corner child
						sid = sExt.Index(ssx+ix*2, ssy+iy*2)
					default:
						sid = sExt.Index(ssx+ix, ssy+iy)
					}
					dst.Set(rExt.Index(rsx+ix, rsy+iy), src.Get(sid))
				}
			}
		}
	}
}

// SetupBoundary marks every bulk flagged interior cell that has at least one
// void flagged neighbor in the velocity set's neighborhood as a boundary
// cell. The ghost rings are refreshed first so block interfaces carry the
// neighbor's flags; ghost cells outside the domain keep the initial void
// flag, so domain edges are detected without special casing.
func (m *FlagFieldManager) SetupBoundary(set LatSet, voidFlag, bulkFlag, bdFlag uint8) {
	m.Communicate()
	for i := range m.Geo.Blocks {
		var (
			b   = &m.Geo.Blocks[i]
			ext = b.Ext()
			g   = b.Overlap
			arr = m.Flags[i]
		)
		var bd []int
		for iy := g; iy < ext.Ny-g; iy++ {
			for ix := g; ix < ext.Nx-g; ix++ {
				id := ext.Index(ix, iy)
				if arr.Get(id)&bulkFlag == 0 {
					continue
				}
				for k := 1; k < set.Q; k++ {
					nbr := ext.Index(ix+set.C[k][0], iy+set.C[k][1])
					if arr.Get(nbr)&voidFlag != 0 {
						bd = append(bd, id)
						break
					}
				}
			}
		}
		for _, id := range bd {
			arr.Set(id, bdFlag)
		}
	}
}

// Count returns the number of interior cells carrying flag
func (m *FlagFieldManager) Count(flag uint8) (n int) {
	for i := range m.Geo.Blocks {
		var (
			b   = &m.Geo.Blocks[i]
			ext = b.Ext()
			g   = b.Overlap
		)
		for iy := g; iy < ext.Ny-g; iy++ {
			for ix := g; ix < ext.Nx-g; ix++ {
				if m.Flags[i].Get(ext.Index(ix, iy))&flag != 0 {
					n++
				}
			}
		}
	}
	return
}
