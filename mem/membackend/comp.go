// Package membackend provides a fixed latency backing memory with a limited
// number of slots.
package membackend

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

type op struct {
	unit.Entry
	write bool
}

// A Comp is a memory that serves up to numSlots operations at the same time.
// Loads take readLatency and stores take writeLatency. Operations that do
// not find a free slot wait in a FIFO and their requester is told to block.
// The requester is resumed when its operation takes a slot.
type Comp struct {
	*unit.Base

	readLatency  sim.VTime
	writeLatency sim.VTime
	numSlots     int

	inFlight int
	waiting  []*op

	readStat  stats.Statistic
	writeStat stats.Statistic
	depthStat stats.Statistic
	waitStat  stats.Statistic
}

// Load reads from the memory.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.accept(src, req, cb, false)
}

// Store writes into the memory.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	return c.accept(src, req, nil, true)
}

// StoreCB writes into the memory and calls cb when the write is done.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.accept(src, req, cb, true)
}

// Resume is not expected since the memory has nothing downstream.
func (c *Comp) Resume(src unit.Requester) {
	log.Panicf("%s: unexpected resume from %s", c.Name(), src.Name())
}

// Status reports slot and queue occupancy.
func (c *Comp) Status() string {
	return fmt.Sprintf("%s: slots %d/%d, waiting %d",
		c.Name(), c.inFlight, c.numSlots, len(c.waiting))
}

// InFlight returns the number of occupied slots.
func (c *Comp) InFlight() int {
	return c.inFlight
}

// NumWaiting returns the number of operations waiting for a slot.
func (c *Comp) NumWaiting() int {
	return len(c.waiting)
}

func (c *Comp) accept(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
	write bool,
) bool {
	o := &op{
		Entry: unit.Entry{
			Src:      src,
			Req:      req,
			Callback: cb,
			Time:     c.Sched.CurrentTime(),
		},
		write: write,
	}

	if write {
		c.writeStat.AddData(req.Length)
	} else {
		c.readStat.AddData(req.Length)
	}

	if c.inFlight < c.numSlots && len(c.waiting) == 0 {
		c.start(o)
		return false
	}

	c.waiting = append(c.waiting, o)
	c.depthStat.AddData(uint64(len(c.waiting)))

	return true
}

func (c *Comp) start(o *op) {
	if c.inFlight >= c.numSlots {
		log.Panicf("%s: more than %d operations in flight",
			c.Name(), c.numSlots)
	}

	c.inFlight++
	c.waitStat.AddData(uint64(c.Sched.CurrentTime() - o.Time))

	latency := c.readLatency
	if o.write {
		latency = c.writeLatency
	}

	c.Sched.SchedCallback(latency, func() { c.complete(o) })
}

// complete frees the slot of o and hands it to the oldest waiting operation
// before running the callback, since the callback may issue new operations.
func (c *Comp) complete(o *op) {
	c.inFlight--

	if len(c.waiting) > 0 {
		next := c.waiting[0]
		c.waiting[0] = nil
		c.waiting = c.waiting[1:]

		c.start(next)
		c.Sched.SchedResume(0, next.Src, c)
	}

	if o.Callback != nil {
		o.Callback()
	}
}
