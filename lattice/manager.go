package lattice

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/zdxying/FreeLB/fields"
	"github.com/zdxying/FreeLB/geometry2D"
	"github.com/zdxying/FreeLB/parallel"
)

// GhostPacket is one cross worker ghost transfer: the overlap window of one
// communication record, already resampled to the receiver's resolution, all
// components concatenated. Pack happens on the sending worker after its
// interior update completed (strict synchrony), unpack on the receiving
// worker after the delivery barrier.
type GhostPacket struct {
	Step   int
	Owner  int
	Nbr    int
	Values []float64
}

// outRecord is a cross worker record from the sender's point of view, with
// a reusable receiver resolution scratch field for resampling
type outRecord struct {
	rec     geometry2D.CommRecord
	scratch *fields.Field[float64]
}

// BlockLatticeManager drives the strictly phased timestep over all workers
// of a frozen geometry: (1) every owned block updates its interior and
// streams; (2) barrier; (3) ghost refresh, same worker neighbors directly,
// cross worker neighbors via pack, transport, unpack. The smallest
// externally observable unit of progress is one whole step.
type BlockLatticeManager struct {
	Geo  *geometry2D.BlockGeometry2D
	Set  LatSet
	Lats []*BlockLattice

	owned    [][]int
	outbound [][]outRecord
	// per worker: expected inbound cross worker records, keyed {owner, nbr}
	expected []map[[2]int]int

	mb      *parallel.MailBox[*GhostPacket]
	barrier *parallel.Barrier
}

func NewBlockLatticeManager(geo *geometry2D.BlockGeometry2D, set LatSet,
	init float64) *BlockLatticeManager {
	var (
		W = geo.NumWorkers
	)
	m := &BlockLatticeManager{
		Geo:      geo,
		Set:      set,
		Lats:     make([]*BlockLattice, len(geo.Blocks)),
		owned:    make([][]int, W),
		outbound: make([][]outRecord, W),
		expected: make([]map[[2]int]int, W),
		mb:       parallel.NewMailBox[*GhostPacket](W),
		barrier:  parallel.NewBarrier(W),
	}
	for w := 0; w < W; w++ {
		m.owned[w] = geo.OwnedBy(w)
		m.expected[w] = make(map[[2]int]int)
	}
	for i := range geo.Blocks {
		b := &geo.Blocks[i]
		m.Lats[i] = NewBlockLattice(b, set, init)
		for _, rec := range b.Comms {
			if rec.Kind != geometry2D.CommCrossWorker {
				continue
			}
			sender := rec.NbrWorker
			m.outbound[sender] = append(m.outbound[sender], outRecord{
				rec:     rec,
				scratch: fields.NewField[float64](set.Q, b.Ext().N),
			})
			m.expected[b.Worker][[2]int{rec.Owner, rec.Nbr}] = m.windowLen(rec)
		}
	}
	logrus.Infof("lattice manager: %d blocks, %d workers, %d cross-worker transfers",
		len(geo.Blocks), W, m.totalOutbound())
	return m
}

func (m *BlockLatticeManager) totalOutbound() (n int) {
	for _, obs := range m.outbound {
		n += len(obs)
	}
	return
}

// windowLen is the per component cell count of a record's overlap rectangle
// at the receiver's resolution
func (m *BlockLatticeManager) windowLen(rec geometry2D.CommRecord) int {
	var (
		ext = rec.Overlap.Extension()
		h   = m.Geo.Blocks[rec.Owner].VoxelSize
	)
	return round(ext[0]/h) * round(ext[1]/h)
}

func round(v float64) int {
	if v < 0 {
		return int(v - 0.5)
	}
	return int(v + 0.5)
}

// GetLat returns the lattice of one block id
func (m *BlockLatticeManager) GetLat(blockID int) *BlockLattice {
	return m.Lats[blockID]
}

// RunSteps executes nSteps whole timesteps. update is the externally
// injected interior update, called once per owned block per step before
// streaming; it must touch only that block's own arrays. The first
// ProtocolError aborts the run after all workers drained the current step.
func (m *BlockLatticeManager) RunSteps(nSteps int,
	update func(step int, lat *BlockLattice)) error {
	var (
		W    = m.Geo.NumWorkers
		wg   sync.WaitGroup
		errs = make([]error, W)
	)
	wg.Add(W)
	for w := 0; w < W; w++ {
		go func(w int) {
			defer wg.Done()
			for step := 0; step < nSteps; step++ {
				if errs[w] != nil {
					// fatal: keep the barriers satisfied and the mailbox
					// drained so peers never block
					m.barrier.Await()
					m.barrier.Await()
					m.mb.ReceiveMyMessages(w)
					m.mb.ClearMyMessages(w)
					m.barrier.Await()
					continue
				}
				errs[w] = m.stepWorker(w, step, update)
			}
		}(w)
	}
	wg.Wait()
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// stepWorker runs one worker through one whole timestep; exactly three
// barrier waits, matching the drain path above
func (m *BlockLatticeManager) stepWorker(w, step int,
	update func(step int, lat *BlockLattice)) error {
	// phase 1: interior update against the ghost layer as it stood at the
	// start of the step, then stream
	for _, id := range m.owned[w] {
		update(step, m.Lats[id])
		m.Lats[id].Stream()
	}
	m.barrier.Await()

	// phase 2: same level copies; pack and post cross worker windows
	for _, id := range m.owned[w] {
		for _, rec := range m.Geo.Blocks[id].Comms {
			if rec.Kind == geometry2D.CommCopy {
				execRecord(rec, m.Lats[rec.Nbr].Pop, m.Lats[rec.Owner].Pop, m.Geo)
			}
		}
	}
	for i := range m.outbound[w] {
		ob := &m.outbound[w][i]
		m.mb.PostMessage(w, m.Geo.Blocks[ob.rec.Owner].Worker, m.pack(ob, step))
	}
	m.mb.DeliverMyMessages(w)
	m.barrier.Await()

	// phase 3: resolution changing local transfers, which read ghost rows
	// refreshed in phase 2, then unpack and validate the inbound packets
	for _, id := range m.owned[w] {
		for _, rec := range m.Geo.Blocks[id].Comms {
			if rec.Kind == geometry2D.CommInterp || rec.Kind == geometry2D.CommAverage {
				execRecord(rec, m.Lats[rec.Nbr].Pop, m.Lats[rec.Owner].Pop, m.Geo)
			}
		}
	}
	err := m.receive(w, step)
	m.barrier.Await()
	return err
}

// pack resamples one outbound record into a packet at the receiver's
// resolution: copy for same level, interpolate or average across levels,
// reusing the same routines the local path runs
func (m *BlockLatticeManager) pack(ob *outRecord, step int) *GhostPacket {
	var (
		rec     = ob.rec
		recvExt = m.Geo.Blocks[rec.Owner].Ext()
		send    = m.Lats[rec.Nbr].Pop
	)
	switch rec.Transfer {
	case geometry2D.CommCopy:
		fields.FieldCopy2D(send, ob.scratch, rec.Overlap,
			m.Geo.Blocks[rec.Nbr].Ext(), recvExt)
	case geometry2D.CommInterp:
		fields.FieldInterpolation2D(send, ob.scratch, rec.Overlap,
			m.Geo.Blocks[rec.Nbr].Ext(), recvExt)
	case geometry2D.CommAverage:
		fields.FieldAverage2D(send, ob.scratch, rec.Overlap,
			m.Geo.Blocks[rec.Nbr].Ext(), recvExt)
	}
	var (
		sx, sy, nx, ny = windowIn(rec.Overlap, recvExt)
		vals           = make([]float64, 0, nx*ny*m.Set.Q)
	)
	for k := 0; k < m.Set.Q; k++ {
		comp := ob.scratch.Comp(k)
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				vals = append(vals, comp.Get((iy+sy)*recvExt.Nx+ix+sx))
			}
		}
	}
	return &GhostPacket{Step: step, Owner: rec.Owner, Nbr: rec.Nbr, Values: vals}
}

// receive unpacks this worker's inbound packets and checks them against the
// static communication graph: every expected transfer must arrive exactly
// once with the exact window size
func (m *BlockLatticeManager) receive(w, step int) error {
	m.mb.ReceiveMyMessages(w)
	seen := make(map[[2]int]bool, len(m.expected[w]))
	for _, pkt := range m.mb.ReceiveMsgQs[w].Cells() {
		key := [2]int{pkt.Owner, pkt.Nbr}
		want, ok := m.expected[w][key]
		if !ok {
			return &parallel.ProtocolError{Step: step, Owner: pkt.Owner,
				Nbr: pkt.Nbr, Msg: "unexpected transfer"}
		}
		if pkt.Step != step {
			return &parallel.ProtocolError{Step: step, Owner: pkt.Owner,
				Nbr: pkt.Nbr, Msg: "transfer from a different step"}
		}
		if len(pkt.Values) != want*m.Set.Q {
			return &parallel.ProtocolError{Step: step, Owner: pkt.Owner,
				Nbr: pkt.Nbr, Msg: "mis-sized transfer"}
		}
		m.unpack(pkt)
		seen[key] = true
	}
	m.mb.ClearMyMessages(w)
	for key := range m.expected[w] {
		if !seen[key] {
			return &parallel.ProtocolError{Step: step, Owner: key[0],
				Nbr: key[1], Msg: "expected transfer missing"}
		}
	}
	return nil
}

func (m *BlockLatticeManager) unpack(pkt *GhostPacket) {
	var (
		recvExt        = m.Geo.Blocks[pkt.Owner].Ext()
		recv           = m.Lats[pkt.Owner].Pop
		rec            = m.findRecord(pkt.Owner, pkt.Nbr)
		sx, sy, nx, ny = windowIn(rec.Overlap, recvExt)
		i              int
	)
	for k := 0; k < m.Set.Q; k++ {
		comp := recv.Comp(k)
		for iy := 0; iy < ny; iy++ {
			for ix := 0; ix < nx; ix++ {
				comp.Set((iy+sy)*recvExt.Nx+ix+sx, pkt.Values[i])
				i++
			}
		}
	}
}

func (m *BlockLatticeManager) findRecord(owner, nbr int) geometry2D.CommRecord {
	for _, rec := range m.Geo.Blocks[owner].Comms {
		if rec.Nbr == nbr {
			return rec
		}
	}
	panic("lattice: no communication record for delivered packet")
}

// windowIn translates an overlap rectangle into a block local index window
func windowIn(intsec geometry2D.AABB, b geometry2D.BasicBlock) (sx, sy, nx, ny int) {
	var (
		ext = intsec.Extension()
	)
	sx = round((intsec.Min[0] - b.AABB.Min[0]) / b.VoxelSize)
	sy = round((intsec.Min[1] - b.AABB.Min[1]) / b.VoxelSize)
	nx = round(ext[0] / b.VoxelSize)
	ny = round(ext[1] / b.VoxelSize)
	return
}
