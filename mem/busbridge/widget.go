package busbridge

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/unit"
)

type job struct {
	unit.Entry
	offset      uint64
	outstanding int
}

func (j *job) issuedAll() bool {
	return j.offset >= j.Req.Length
}

// Widget sits behind the bridge. It splits each request into line sized
// accesses and issues them downstream one at a time. It holds at most qSize
// whole requests until they complete.
type Widget struct {
	*unit.Base

	downstream unit.Unit
	lineSize   uint64
	qSize      int
	isStore    bool

	issueQ            []*job
	numAdmitted       int
	scheduled         bool
	downstreamBlocked bool
}

// Load admits a load.
func (w *Widget) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if w.isStore {
		log.Panicf("%s: store widget cannot load", w.Name())
	}

	return w.admit(src, req, cb)
}

// Store admits a store without a completion callback.
func (w *Widget) Store(src unit.Requester, req *unit.Request) bool {
	return w.StoreCB(src, req, nil)
}

// StoreCB admits a store.
func (w *Widget) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if !w.isStore {
		log.Panicf("%s: load widget cannot store", w.Name())
	}

	return w.admit(src, req, cb)
}

// Resume is called by the downstream unit when it accepts requests again.
func (w *Widget) Resume(src unit.Requester) {
	if !w.downstreamBlocked {
		log.Panicf("%s: resumed by %s while not blocked",
			w.Name(), src.Name())
	}

	w.downstreamBlocked = false
	w.scheduleIssue()
}

// Status reports the admission occupancy.
func (w *Widget) Status() string {
	return fmt.Sprintf("%s: admitted %d/%d, issuing %d, blocked %t",
		w.Name(), w.numAdmitted, w.qSize, len(w.issueQ), w.downstreamBlocked)
}

// NumAdmitted returns the number of requests that have not completed.
func (w *Widget) NumAdmitted() int {
	return w.numAdmitted
}

func (w *Widget) admit(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if w.numAdmitted >= w.qSize {
		log.Panicf("%s: %s sent a request to a full widget",
			w.Name(), src.Name())
	}

	w.numAdmitted++
	w.issueQ = append(w.issueQ, &job{
		Entry: unit.Entry{
			Src:      src,
			Req:      req,
			Callback: cb,
			Time:     w.Sched.CurrentTime(),
		},
	})
	w.scheduleIssue()

	if w.numAdmitted == w.qSize {
		w.MarkBlocked(src)
		return true
	}

	return false
}

func (w *Widget) scheduleIssue() {
	if w.scheduled || w.downstreamBlocked || len(w.issueQ) == 0 {
		return
	}

	w.scheduled = true
	w.Sched.SchedCallback(0, w.issue)
}

// issue sends the next line of the oldest request that still has lines to
// send.
func (w *Widget) issue() {
	w.scheduled = false

	if w.downstreamBlocked || len(w.issueQ) == 0 {
		return
	}

	j := w.issueQ[0]

	size := w.lineSize
	if rest := j.Req.Length - j.offset; rest < size {
		size = rest
	}

	sub := j.Req.Derive(j.Req.Address+j.offset, size)
	j.offset += size
	j.outstanding++

	if j.issuedAll() {
		w.issueQ[0] = nil
		w.issueQ = w.issueQ[1:]
	}

	done := func() { w.subDone(j) }

	var blocked bool
	if w.isStore {
		blocked = w.downstream.StoreCB(w, sub, done)
	} else {
		blocked = w.downstream.Load(w, sub, done)
	}

	if blocked {
		w.downstreamBlocked = true
		return
	}

	w.scheduleIssue()
}

func (w *Widget) subDone(j *job) {
	j.outstanding--

	if !j.issuedAll() || j.outstanding > 0 {
		return
	}

	w.numAdmitted--
	w.ReleaseBlocked(w)

	if j.Callback != nil {
		j.Callback()
	}
}
