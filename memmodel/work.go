package memmodel

import (
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
)

// Work is a batch of operations with a single completion callback. A thread
// retires its Works in the order they were added.
type Work struct {
	Ops  []*MemOp
	Done unit.Callback

	pid    int
	hasPID bool

	seq        uint64
	nextOp     int
	numRetired int
	start      sim.VTime
	deferred   []unit.Callback
}

// NewWork creates a Work.
func NewWork(ops []*MemOp, done unit.Callback) *Work {
	return &Work{Ops: ops, Done: done}
}

// WithPID sets the process that the addresses of the Work belong to.
func (w *Work) WithPID(pid int) *Work {
	w.pid = pid
	w.hasPID = true

	return w
}

func (w *Work) allStarted() bool {
	return w.nextOp >= len(w.Ops)
}

func (w *Work) allRetired() bool {
	return w.numRetired >= len(w.Ops)
}

func (w *Work) request(addr, length uint64) *unit.Request {
	if w.hasPID {
		return unit.NewRequestWithPID(addr, length, w.pid)
	}

	return unit.NewRequest(addr, length)
}

func lessBySeq(a, b *Work) bool {
	return a.seq < b.seq
}
