package lattice

import (
	"github.com/zdxying/FreeLB/fields"
	"github.com/zdxying/FreeLB/geometry2D"
)

// BlockFieldManager owns one field instance per block of a frozen geometry,
// each sized for the block's ghost inclusive extent
type BlockFieldManager[T fields.Float] struct {
	Geo    *geometry2D.BlockGeometry2D
	Fields []*fields.Field[T]
	Dim    int
}

func NewBlockFieldManager[T fields.Float](geo *geometry2D.BlockGeometry2D,
	dim int, init T) *BlockFieldManager[T] {
	m := &BlockFieldManager[T]{
		Geo:    geo,
		Fields: make([]*fields.Field[T], len(geo.Blocks)),
		Dim:    dim,
	}
	for i := range geo.Blocks {
		ext := geo.Blocks[i].Ext()
		m.Fields[i] = fields.NewFieldInit[T](dim, ext.N, init)
	}
	return m
}

func (m *BlockFieldManager[T]) GetField(blockID int) *fields.Field[T] {
	return m.Fields[blockID]
}

func (m *BlockFieldManager[T]) InitValue(v T) {
	for _, f := range m.Fields {
		f.Init(v)
	}
}

// ForEach visits every block with its field
func (m *BlockFieldManager[T]) ForEach(fn func(b *geometry2D.Block, f *fields.Field[T])) {
	for i := range m.Geo.Blocks {
		fn(&m.Geo.Blocks[i], m.Fields[i])
	}
}

// ForEachIn visits every interior cell whose center lies inside region,
// with its block local linear id
func (m *BlockFieldManager[T]) ForEachIn(region geometry2D.AABB,
	fn func(b *geometry2D.Block, f *fields.Field[T], id int)) {
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
					fn(b, m.Fields[i], ext.Index(ix, iy))
				}
			}
		}
	}
}

// Communicate refreshes every block's ghost layer by executing the full
// communication record list in a single address space, cross worker records
// included. The parallel lattice manager uses the mailbox path instead; this
// direct path serves macro fields that are exchanged outside the hot loop.
func (m *BlockFieldManager[T]) Communicate() {
	for i := range m.Geo.Blocks {
		owner := &m.Geo.Blocks[i]
		for _, rec := range owner.Comms {
			execRecord(rec, m.Fields[rec.Nbr], m.Fields[rec.Owner], m.Geo)
		}
	}
}

// execRecord applies one inbound transfer: the sender's field into the
// receiver's ghost cells over the record's overlap rectangle
func execRecord[T fields.Float](rec geometry2D.CommRecord,
	send, recv *fields.Field[T], geo *geometry2D.BlockGeometry2D) {
	var (
		sendExt = geo.Blocks[rec.Nbr].Ext()
		recvExt = geo.Blocks[rec.Owner].Ext()
	)
	switch rec.Transfer {
	case geometry2D.CommCopy:
		fields.FieldCopy2D(send, recv, rec.Overlap, sendExt, recvExt)
	case geometry2D.CommInterp:
		fields.FieldInterpolation2D(send, recv, rec.Overlap, sendExt, recvExt)
	case geometry2D.CommAverage:
		fields.FieldAverage2D(send, recv, rec.Overlap, sendExt, recvExt)
	}
}
