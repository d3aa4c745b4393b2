// Package detailedmem models an off-chip memory with banks and an open-row
// policy. It can replace the fixed latency backend.
package detailedmem

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Memory is a unit that takes part in the initialization phases of the
// model.
type Memory interface {
	unit.Unit
	Init(phase int)
}

const noRow = ^uint64(0)

type access struct {
	unit.Entry
	write bool
}

type bank struct {
	queue   []*access
	openRow uint64
	busy    bool
}

// Comp is a banked memory. Each bank serves one access at a time. An access
// to the open row of its bank takes rowHitLatency; any other access opens
// its row and takes rowMissLatency. When the bank of an access is full, the
// access waits and its requester is told to block.
type Comp struct {
	*unit.Base

	banks          []bank
	bankQueueSize  int
	log2RowSize    uint64
	rowHitLatency  sim.VTime
	rowMissLatency sim.VTime
	writeExtra     sim.VTime
	selector       bankSelector

	waiting    []*access
	initPhases []int

	rowHitStat  stats.Statistic
	rowMissStat stats.Statistic
	waitStat    stats.Statistic
}

// Init runs one initialization phase. Phase 0 closes every row.
func (c *Comp) Init(phase int) {
	if phase == 0 {
		c.precharge()
	}

	c.initPhases = append(c.initPhases, phase)
}

// InitPhases returns the phases that have been run.
func (c *Comp) InitPhases() []int {
	return c.initPhases
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

// StoreCB writes into the memory and calls cb when done.
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

// Status lists the occupancy of each bank.
func (c *Comp) Status() string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s: waiting %d", c.Name(), len(c.waiting))

	for i := range c.banks {
		fmt.Fprintf(&b, ", bank[%d] %d/%d", i,
			len(c.banks[i].queue), c.bankQueueSize)
	}

	return b.String()
}

func (c *Comp) precharge() {
	for i := range c.banks {
		c.banks[i].openRow = noRow
	}
}

func (c *Comp) bankOf(addr uint64) *bank {
	id := c.selector.Select(addr, len(c.banks))
	if id < 0 || id >= len(c.banks) {
		log.Panicf("%s: bank selector returned %d", c.Name(), id)
	}

	return &c.banks[id]
}

func (c *Comp) accept(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
	write bool,
) bool {
	a := &access{
		Entry: unit.Entry{
			Src:      src,
			Req:      req,
			Callback: cb,
			Time:     c.Sched.CurrentTime(),
		},
		write: write,
	}

	if len(c.waiting) > 0 || !c.enqueue(a) {
		c.waiting = append(c.waiting, a)
		return true
	}

	return false
}

func (c *Comp) enqueue(a *access) bool {
	b := c.bankOf(a.Req.Address)
	if len(b.queue) >= c.bankQueueSize {
		return false
	}

	b.queue = append(b.queue, a)
	c.serve(b)

	return true
}

func (c *Comp) serve(b *bank) {
	if b.busy || len(b.queue) == 0 {
		return
	}

	a := b.queue[0]
	row := a.Req.Address >> c.log2RowSize

	latency := c.rowMissLatency
	if row == b.openRow {
		latency = c.rowHitLatency
		c.rowHitStat.AddData(1)
	} else {
		c.rowMissStat.AddData(1)
	}

	if a.write {
		latency += c.writeExtra
	}

	b.openRow = row
	b.busy = true
	c.waitStat.AddData(uint64(c.Sched.CurrentTime() - a.Time))

	c.Sched.SchedCallback(latency, func() { c.finish(b) })
}

func (c *Comp) finish(b *bank) {
	a := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]
	b.busy = false

	c.admitWaiting()
	c.serve(b)

	if a.Callback != nil {
		a.Callback()
	}
}

func (c *Comp) admitWaiting() {
	for len(c.waiting) > 0 {
		a := c.waiting[0]
		if !c.enqueue(a) {
			return
		}

		c.waiting[0] = nil
		c.waiting = c.waiting[1:]
		c.Sched.SchedResume(0, a.Src, c)
	}
}
