// Package parallel carries the intra process worker machinery: a growable
// message buffer, a per worker mailbox for point to point transfers and a
// cyclic barrier for the strictly phased timestep protocol.
package parallel

import (
	"fmt"
	"sync"
)

// DynBuffer is a growable message buffer reused across steps to avoid per
// step allocation
type DynBuffer[T any] struct {
	cells []T
}

func NewDynBuffer[T any](sizeEstimate int) *DynBuffer[T] {
	return &DynBuffer[T]{cells: make([]T, 0, sizeEstimate)}
}

func (db *DynBuffer[T]) Add(msg T) {
	db.cells = append(db.cells, msg)
}

func (db *DynBuffer[T]) Cells() []T { return db.cells }

func (db *DynBuffer[T]) Reset() { db.cells = db.cells[:0] }

// MailBox moves messages between NW workers. The pattern per phase is:
// senders Post, then Deliver; a barrier; receivers Receive. Channels are
// buffered for the all to all worst case so Deliver never blocks.
type MailBox[T any] struct {
	NW           int
	MessageChans []chan *DynBuffer[T]
	PostMsgQs    []map[int]*DynBuffer[T] // per worker, keyed by target worker
	ReceiveMsgQs []*DynBuffer[T]
	MailFlag     []bool
}

func NewMailBox[T any](NW int) *MailBox[T] {
	mb := &MailBox[T]{
		NW:           NW,
		MessageChans: make([]chan *DynBuffer[T], NW),
		PostMsgQs:    make([]map[int]*DynBuffer[T], NW),
		ReceiveMsgQs: make([]*DynBuffer[T], NW),
		MailFlag:     make([]bool, NW),
	}
	for n := 0; n < NW; n++ {
		mb.MessageChans[n] = make(chan *DynBuffer[T], NW)
		mb.PostMsgQs[n] = make(map[int]*DynBuffer[T])
		mb.ReceiveMsgQs[n] = NewDynBuffer[T](0)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myWorker, targetWorker int, msg T) {
	tgt, exists := mb.PostMsgQs[myWorker][targetWorker]
	if !exists {
		tgt = NewDynBuffer[T](0)
		mb.PostMsgQs[myWorker][targetWorker] = tgt
	}
	tgt.Add(msg)
	mb.MailFlag[myWorker] = true
}

func (mb *MailBox[T]) DeliverMyMessages(myWorker int) {
	if !mb.MailFlag[myWorker] {
		return
	}
	for targetWorker, msgBuffer := range mb.PostMsgQs[myWorker] {
		if targetWorker < 0 || targetWorker > mb.NW-1 {
			panic(fmt.Sprintf("parallel: target worker %d out of bounds", targetWorker))
		}
		mb.MessageChans[targetWorker] <- msgBuffer
	}
	mb.MailFlag[myWorker] = false
}

func (mb *MailBox[T]) ReceiveMyMessages(myWorker int) {
	for {
		select {
		case msgBuffer := <-mb.MessageChans[myWorker]:
			for _, msg := range msgBuffer.Cells() {
				mb.ReceiveMsgQs[myWorker].Add(msg)
			}
			msgBuffer.Reset()
		default:
			return
		}
	}
}

func (mb *MailBox[T]) ClearMyMessages(myWorker int) {
	mb.ReceiveMsgQs[myWorker].Reset()
}

// Barrier is a reusable synchronization point for a fixed set of workers.
// No worker proceeds past Await until all have arrived; the barrier then
// resets for the next phase.
type Barrier struct {
	mu      sync.Mutex
	cond    *sync.Cond
	n       int
	waiting int
	phase   int
}

func NewBarrier(n int) *Barrier {
	b := &Barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

func (b *Barrier) Await() {
	b.mu.Lock()
	defer b.mu.Unlock()
	phase := b.phase
	b.waiting++
	if b.waiting == b.n {
		b.waiting = 0
		b.phase++
		b.cond.Broadcast()
		return
	}
	for phase == b.phase {
		b.cond.Wait()
	}
}
