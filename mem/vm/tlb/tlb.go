// Package tlb provides a TLB shared by the threads of a NIC.
package tlb

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/internal/lru"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Page identifies a virtual page of a process. Requests without a process
// ID share the pages with HasPID false.
type Page struct {
	PID    int
	HasPID bool
	Number uint64
}

// A Translator translates the address of a request. When the translation
// is not immediately available, Lookup returns false and calls cb with the
// translated address later.
type Translator interface {
	Lookup(req *unit.Request, cb func(addr uint64)) (addr uint64, hit bool)
}

type lookup struct {
	req *unit.Request
	cb  func(addr uint64)
}

// Comp is a fully associative TLB with a limited number of page walkers.
// Lookups of a page that is being walked wait on that walk. Lookups that
// find no free walker wait in an overflow queue that is revisited whenever a
// walk completes. Translation is the identity since only timing is modeled.
type Comp struct {
	*unit.Base

	log2PageSize uint64
	numWalkers   int
	missLatency  sim.VTime

	pages      *lru.List[Page]
	pending    map[Page][]*lookup
	overflow   []*lookup
	numWalking int

	hitStat      stats.Statistic
	walkStat     stats.Statistic
	coalesceStat stats.Statistic
	overflowStat stats.Statistic
}

// Lookup translates the address of req.
func (c *Comp) Lookup(
	req *unit.Request,
	cb func(addr uint64),
) (addr uint64, hit bool) {
	l := &lookup{req: req, cb: cb}

	if handled, hit := c.hitOrCoalesce(l); handled {
		if hit {
			return req.Address, true
		}

		return 0, false
	}

	if c.numWalking < c.numWalkers {
		c.startWalk(l)
		return 0, false
	}

	c.overflow = append(c.overflow, l)
	c.overflowStat.AddData(uint64(len(c.overflow)))

	return 0, false
}

// NumWalking returns the number of walks in flight.
func (c *Comp) NumWalking() int {
	return c.numWalking
}

// NumOverflow returns the number of lookups waiting for a walker.
func (c *Comp) NumOverflow() int {
	return len(c.overflow)
}

// Status reports the walker and queue occupancy.
func (c *Comp) Status() string {
	return fmt.Sprintf("%s: pages %d/%d, walking %d/%d, overflow %d",
		c.Name(), c.pages.Len(), c.pages.Capacity(),
		c.numWalking, c.numWalkers, len(c.overflow))
}

// PageOf returns the page that the TLB stores for req. Requests of
// different processes never share a page.
func (c *Comp) PageOf(req *unit.Request) Page {
	p := Page{Number: req.Address >> c.log2PageSize}
	if req.HasPID {
		p.PID = req.PID
		p.HasPID = true
	}

	return p
}

// hitOrCoalesce handles lookups that do not need a new walk. A hit touches
// the page; a lookup of a page under walk joins the walk.
func (c *Comp) hitOrCoalesce(l *lookup) (handled, hit bool) {
	key := c.PageOf(l.req)

	if c.pages.Touch(key) {
		c.hitStat.AddData(1)
		return true, true
	}

	if waiters, walking := c.pending[key]; walking {
		c.pending[key] = append(waiters, l)
		c.coalesceStat.AddData(1)

		return true, false
	}

	return false, false
}

func (c *Comp) startWalk(l *lookup) {
	key := c.PageOf(l.req)

	c.numWalking++
	c.pending[key] = []*lookup{l}
	c.walkStat.AddData(1)

	c.Sched.SchedCallback(c.missLatency, func() { c.finishWalk(key) })
}

func (c *Comp) finishWalk(key Page) {
	c.numWalking--

	c.pages.Insert(key)

	waiters := c.pending[key]
	delete(c.pending, key)

	for _, w := range waiters {
		w.cb(w.req.Address)
	}

	c.drainOverflow()
}

// drainOverflow replays the overflow queue in order until a lookup needs a
// walker that is not available.
func (c *Comp) drainOverflow() {
	for len(c.overflow) > 0 {
		l := c.overflow[0]

		if handled, hit := c.hitOrCoalesce(l); handled {
			if hit {
				l.cb(l.req.Address)
			}
		} else if c.numWalking < c.numWalkers {
			c.startWalk(l)
		} else {
			return
		}

		c.overflow[0] = nil
		c.overflow = c.overflow[1:]
	}
}
