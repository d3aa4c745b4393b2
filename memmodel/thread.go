package memmodel

import (
	"fmt"
	"log"

	"github.com/google/btree"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/stats"
)

type threadState int

const (
	threadIdle threadState = iota
	threadIssuing
	threadBlocked
	threadStalled
)

func (s threadState) String() string {
	switch s {
	case threadIdle:
		return "idle"
	case threadIssuing:
		return "issuing"
	case threadBlocked:
		return "blocked"
	default:
		return "stalled"
	}
}

// Stages are the units that a thread issues its sub-requests to.
type Stages struct {
	Load  unit.Unit
	Store unit.Unit

	// Write receives posted writes, which complete as soon as they are
	// issued.
	Write unit.Unit
}

// A Thread issues the operations of its Works one sub-request at a time.
// Operations of one kind may overlap, but the thread waits for all of them
// to retire before it starts an operation of another kind.
type Thread struct {
	name          string
	sched         unit.Scheduler
	stages        Stages
	maxAccessSize uint64

	works     []*Work
	current   *MemOp
	state     threadState
	scheduled bool

	kind        OpKind
	numInFlight int

	nextSeq     uint64
	lastRetired uint64
	finished    *btree.BTreeG[*Work]

	workLatency stats.Statistic
	numOps      stats.Statistic
}

func newThread(
	name string,
	sched unit.Scheduler,
	stages Stages,
	maxAccessSize uint64,
	registry stats.Registry,
) *Thread {
	if maxAccessSize == 0 {
		log.Panicf("%s: maximum access size must be > 0", name)
	}

	registry = stats.OrNop(registry)

	return &Thread{
		name:          name,
		sched:         sched,
		stages:        stages,
		maxAccessSize: maxAccessSize,
		finished:      btree.NewG[*Work](2, lessBySeq),
		workLatency:   registry.Register(name, "work_latency_ps"),
		numOps:        registry.Register(name, "ops"),
	}
}

// Name returns the name of the thread.
func (t *Thread) Name() string {
	return t.name
}

// AddWork appends a Work to the thread and starts issuing if the thread is
// idle.
func (t *Thread) AddWork(w *Work) {
	t.nextSeq++
	w.seq = t.nextSeq
	w.start = t.sched.CurrentTime()
	t.works = append(t.works, w)

	if t.state == threadIdle {
		t.state = threadIssuing
		t.scheduleProcess()
	}
}

// Resume is called by a stage that accepts requests again.
func (t *Thread) Resume(src unit.Requester) {
	if t.state != threadBlocked {
		log.Panicf("%s: resumed by %s while %s",
			t.name, src.Name(), t.state)
	}

	t.state = threadIssuing
	t.process()
}

// Status reports the state of the thread.
func (t *Thread) Status() string {
	return fmt.Sprintf("%s: %s, works %d, in flight %d %s, held %d",
		t.name, t.state, len(t.works), t.numInFlight, t.kind, t.finished.Len())
}

// Idle tells if the thread has nothing to issue.
func (t *Thread) Idle() bool {
	return t.state == threadIdle
}

func (t *Thread) scheduleProcess() {
	if t.scheduled {
		return
	}

	t.scheduled = true
	t.sched.SchedCallback(0, t.process)
}

func (t *Thread) process() {
	t.scheduled = false

	if t.state == threadBlocked || t.state == threadStalled {
		return
	}

	op := t.nextOp()
	if op == nil {
		t.state = threadIdle
		return
	}

	if op != t.current {
		if t.mustStall(op) {
			t.state = threadStalled
			return
		}

		t.begin(op)
	}

	t.state = threadIssuing
	blocked := t.issue(op)

	if op.Issued() {
		t.current = nil
	}

	if blocked {
		t.state = threadBlocked
		return
	}

	if next := t.nextOp(); next != nil && next != t.current && t.mustStall(next) {
		t.state = threadStalled
		return
	}

	t.scheduleProcess()
}

// nextOp returns the operation that is being issued or the first one that
// has not been started.
func (t *Thread) nextOp() *MemOp {
	if t.current != nil {
		return t.current
	}

	for len(t.works) > 0 {
		w := t.works[0]
		if !w.allStarted() {
			return w.Ops[w.nextOp]
		}

		t.works[0] = nil
		t.works = t.works[1:]

		if len(w.Ops) == 0 {
			t.workFinished(w)
		}
	}

	return nil
}

func (t *Thread) mustStall(op *MemOp) bool {
	return t.numInFlight > 0 && op.Kind != t.kind
}

func (t *Thread) begin(op *MemOp) {
	w := t.works[0]
	w.nextOp++
	op.work = w

	t.current = op
	t.kind = op.Kind
	t.numInFlight++
	t.numOps.AddData(1)
}

// issue sends the next sub-request of op and reports if the stage that
// received it is blocked.
func (t *Thread) issue(op *MemOp) bool {
	done := func() { t.subDone(op) }

	remaining := op.Length - op.Offset
	if remaining == 0 && !op.copyLoaded {
		return t.completeLocally(op, done)
	}

	size := min(remaining, t.maxAccessSize)
	w := op.work

	switch op.Kind.route() {
	case routeLoad:
		op.Pending++
		req := w.request(op.Addr+op.Offset, size)
		op.Offset += size

		return t.stage(t.stages.Load, "load").Load(t, req, done)
	case routeStore:
		op.Pending++
		req := w.request(op.Addr+op.Offset, size)
		op.Offset += size

		return t.stage(t.stages.Store, "store").StoreCB(t, req, done)
	case routeCopy:
		return t.issueCopy(op, size, done)
	case routePostedWrite:
		req := w.request(op.Addr+op.Offset, size)
		op.Offset += size
		op.Pending++
		t.sched.SchedCallback(0, done)

		return t.stage(t.stages.Write, "write").Store(t, req)
	default:
		return t.completeLocally(op, done)
	}
}

// issueCopy alternates between loading a chunk of the source and storing it
// to the destination.
func (t *Thread) issueCopy(op *MemOp, size uint64, done unit.Callback) bool {
	w := op.work
	op.Pending++

	if !op.copyLoaded {
		op.copyLoaded = true
		req := w.request(op.SrcAddr+op.Offset, size)

		return t.stage(t.stages.Load, "load").Load(t, req, done)
	}

	op.copyLoaded = false
	req := w.request(op.Addr+op.Offset, size)
	op.Offset += size

	return t.stage(t.stages.Store, "store").StoreCB(t, req, done)
}

func (t *Thread) completeLocally(op *MemOp, done unit.Callback) bool {
	op.Offset = op.Length
	op.Pending++
	t.sched.SchedCallback(0, done)

	return false
}

func (t *Thread) stage(u unit.Unit, kind string) unit.Unit {
	if u == nil {
		log.Panicf("%s: no %s stage is connected", t.name, kind)
	}

	return u
}

func (t *Thread) subDone(op *MemOp) {
	op.Pending--

	if op.Retireable() {
		t.retire(op)
	}
}

func (t *Thread) retire(op *MemOp) {
	t.numInFlight--

	w := op.work
	w.numRetired++

	if op.Callback != nil {
		w.deferred = append(w.deferred, op.Callback)
	}

	if w.allRetired() {
		t.workFinished(w)
	}

	if t.numInFlight == 0 && t.state == threadStalled {
		t.state = threadIssuing
		t.scheduleProcess()
	}
}

// workFinished retires w if every older Work has retired, or holds it until
// they have.
func (t *Thread) workFinished(w *Work) {
	if w.seq != t.lastRetired+1 {
		t.finished.ReplaceOrInsert(w)
		return
	}

	t.complete(w)

	for {
		next, ok := t.finished.Min()
		if !ok || next.seq != t.lastRetired+1 {
			return
		}

		t.finished.DeleteMin()
		t.complete(next)
	}
}

func (t *Thread) complete(w *Work) {
	t.lastRetired = w.seq
	t.workLatency.AddData(uint64(t.sched.CurrentTime() - w.start))

	for _, cb := range w.deferred {
		cb()
	}

	w.deferred = nil

	if w.Done != nil {
		w.Done()
	}
}
