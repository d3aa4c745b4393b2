// Package loadstore provides the bounded per-thread stages that sit between
// a thread and the shared memory system.
package loadstore

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/stats"
)

// Comp is a LoadUnit or a StoreUnit. It keeps at most qSize requests,
// counting both the queued ones and the ones sent downstream that have not
// completed. Requests are sent downstream one process step at a time, in
// arrival order.
type Comp struct {
	*unit.Base

	downstream unit.Unit
	qSize      int
	isStore    bool

	queue             unit.EntryQueue
	outstanding       int
	scheduled         bool
	downstreamBlocked bool

	depthStat stats.Statistic
	waitStat  stats.Statistic
}

// Load queues a load.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if c.isStore {
		log.Panicf("%s: store unit cannot load", c.Name())
	}

	return c.enqueue(src, req, cb)
}

// Store queues a store without a completion callback.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	return c.StoreCB(src, req, nil)
}

// StoreCB queues a store. The callback may be nil.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if !c.isStore {
		log.Panicf("%s: load unit cannot store", c.Name())
	}

	return c.enqueue(src, req, cb)
}

// Resume is called by the downstream unit when it accepts requests again.
func (c *Comp) Resume(src unit.Requester) {
	if !c.downstreamBlocked {
		log.Panicf("%s: resumed by %s while not blocked",
			c.Name(), src.Name())
	}

	c.downstreamBlocked = false
	c.scheduleProcess()
}

// Status reports the queue occupancy.
func (c *Comp) Status() string {
	return fmt.Sprintf("%s: depth %d/%d (queued %d), blocked %t",
		c.Name(), c.Depth(), c.qSize, c.queue.Len(), c.downstreamBlocked)
}

// Depth returns the number of queued and outstanding requests.
func (c *Comp) Depth() int {
	return c.queue.Len() + c.outstanding
}

func (c *Comp) enqueue(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if c.Depth() >= c.qSize {
		log.Panicf("%s: %s sent a request to a full queue",
			c.Name(), src.Name())
	}

	c.queue.Push(&unit.Entry{
		Src:      src,
		Req:      req,
		Callback: cb,
		Time:     c.Sched.CurrentTime(),
	})
	c.depthStat.AddData(uint64(c.Depth()))

	c.scheduleProcess()

	if c.Depth() == c.qSize {
		c.MarkBlocked(src)
		return true
	}

	return false
}

func (c *Comp) scheduleProcess() {
	if c.scheduled || c.downstreamBlocked || c.queue.Len() == 0 {
		return
	}

	c.scheduled = true
	c.Sched.SchedCallback(0, c.process)
}

func (c *Comp) process() {
	c.scheduled = false

	if c.downstreamBlocked {
		return
	}

	e := c.queue.Pop()
	if e == nil {
		return
	}

	c.outstanding++
	c.waitStat.AddData(uint64(c.Sched.CurrentTime() - e.Time))

	done := func() { c.complete(e) }

	var blocked bool
	if c.isStore {
		blocked = c.downstream.StoreCB(c, e.Req, done)
	} else {
		blocked = c.downstream.Load(c, e.Req, done)
	}

	if blocked {
		c.downstreamBlocked = true
		return
	}

	c.scheduleProcess()
}

func (c *Comp) complete(e *unit.Entry) {
	c.outstanding--
	c.ReleaseBlocked(c)

	if e.Callback != nil {
		e.Callback()
	}
}
