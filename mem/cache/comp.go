// Package cache provides a fully associative LRU cache that coalesces
// misses to the same line.
package cache

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/cache/internal/mshr"
	"github.com/sarchlab/nicmem/mem/internal/lru"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Comp is a write-allocate cache in front of a backend unit.
//
// A request to a resident line hits. A request to a line that is being
// fetched waits on the MSHR entry of that line. Otherwise a fill is issued
// if an MSHR is free, the backend is not blocked and no request is waiting
// in the retry queue. Anything else enters the retry queue and the requester
// is told to block.
type Comp struct {
	*unit.Base

	backend    unit.Unit
	lineSize   uint64
	hitLatency sim.VTime
	numMSHR    int

	lines          *lru.List[uint64]
	mshr           *mshr.MSHR
	numPending     int
	retryQ         unit.EntryQueue
	backendBlocked bool

	hitStat      stats.Statistic
	missStat     stats.Statistic
	coalesceStat stats.Statistic
	evictStat    stats.Statistic
	retryStat    stats.Statistic
}

// Load reads a line.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.access(src, req, cb)
}

// Store writes a line without notifying the requester.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	return c.access(src, req, nil)
}

// StoreCB writes a line and calls cb when the line is resident.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.access(src, req, cb)
}

// Resume is called by the backend when it accepts requests again.
func (c *Comp) Resume(_ unit.Requester) {
	c.backendBlocked = false
	c.checkHitRetry()
}

// Status reports the miss and retry bookkeeping.
func (c *Comp) Status() string {
	return fmt.Sprintf(
		"%s: lines %d/%d, pending %d/%d, retry %d, backend blocked %t",
		c.Name(), c.lines.Len(), c.lines.Capacity(),
		c.numPending, c.numMSHR, c.retryQ.Len(), c.backendBlocked)
}

// NumPending returns the number of fills in flight.
func (c *Comp) NumPending() int {
	return c.numPending
}

// IsResident tells if the line that holds addr is in the cache.
func (c *Comp) IsResident(addr uint64) bool {
	return c.lines.Contains(c.align(addr))
}

// ResidentLines returns the resident line addresses from least to most
// recently used.
func (c *Comp) ResidentLines() []uint64 {
	return c.lines.Keys()
}

func (c *Comp) align(addr uint64) uint64 {
	return addr &^ (c.lineSize - 1)
}

func (c *Comp) access(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	e := &unit.Entry{
		Src:      src,
		Req:      req.Derive(c.align(req.Address), c.lineSize),
		Callback: cb,
		Time:     c.Sched.CurrentTime(),
	}

	if c.tryHitOrCoalesce(e) {
		return false
	}

	if c.retryQ.Len() == 0 && c.canIssue() {
		c.issue(e)
		return false
	}

	c.retryQ.Push(e)
	c.retryStat.AddData(uint64(c.retryQ.Len()))
	c.MarkBlocked(src)

	return true
}

func (c *Comp) tryHitOrCoalesce(e *unit.Entry) bool {
	line := e.Req.Address

	if c.lines.Touch(line) {
		c.hitStat.AddData(1)

		if e.Callback != nil {
			c.Sched.SchedCallback(c.hitLatency, e.Callback)
		}

		return true
	}

	if _, inFlight := c.mshr.Lookup(line); inFlight {
		c.coalesceStat.AddData(1)

		if err := c.mshr.AddWaiter(line, e); err != nil {
			log.Panicf("%s: %v", c.Name(), err)
		}

		return true
	}

	return false
}

func (c *Comp) canIssue() bool {
	return !c.backendBlocked && c.numPending < c.numMSHR
}

func (c *Comp) issue(e *unit.Entry) {
	line := e.Req.Address

	if _, err := c.mshr.AddEntry(line); err != nil {
		log.Panicf("%s: %v", c.Name(), err)
	}

	if err := c.mshr.AddWaiter(line, e); err != nil {
		log.Panicf("%s: %v", c.Name(), err)
	}

	c.numPending++
	if c.numPending > c.numMSHR {
		log.Panicf("%s: %d misses in flight, only %d MSHRs",
			c.Name(), c.numPending, c.numMSHR)
	}

	c.missStat.AddData(1)

	if c.backend.Load(c, e.Req.Derive(line, c.lineSize), func() {
		c.fill(line)
	}) {
		c.backendBlocked = true
	}
}

func (c *Comp) fill(line uint64) {
	entry, err := c.mshr.RemoveEntry(line)
	if err != nil {
		log.Panicf("%s: %v", c.Name(), err)
	}

	c.numPending--

	if !c.lines.Contains(line) {
		victim, dirty := c.lines.Insert(line)
		if dirty {
			c.writeBack(victim)
		}
	}

	for _, w := range entry.Waiters {
		if w.Callback != nil {
			c.Sched.SchedCallback(0, w.Callback)
		}
	}

	c.checkHitRetry()
}

func (c *Comp) writeBack(victim uint64) {
	c.evictStat.AddData(1)

	if c.backend.Store(c, unit.NewRequest(victim, c.lineSize)) {
		c.backendBlocked = true
	}
}

// checkHitRetry replays the retry queue in order until a request can neither
// hit, coalesce nor issue a fill.
func (c *Comp) checkHitRetry() {
	for c.retryQ.Len() > 0 {
		e := c.retryQ.Peek()

		if !c.tryHitOrCoalesce(e) {
			if !c.canIssue() {
				return
			}

			c.issue(e)
		}

		c.retryQ.Pop()
	}

	c.ReleaseBlocked(c)
}
