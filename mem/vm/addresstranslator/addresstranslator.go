// Package addresstranslator provides a stage that translates the addresses
// of requests before forwarding them.
package addresstranslator

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/mem/vm/tlb"
	"github.com/sarchlab/nicmem/stats"
)

type kind int

const (
	kindLoad kind = iota
	kindStore
	kindStoreCB
)

type transaction struct {
	unit.Entry
	kind kind
}

// direction is one of the two independent halves of the translator.
type direction struct {
	name       string
	downstream unit.Unit
	capacity   int

	inFlight          int
	blockedSrc        unit.Requester
	ready             []*transaction
	downstreamBlocked bool
	scheduled         bool

	depthStat stats.Statistic
}

// Comp is an AddressTranslator that forwards the read/write requests with
// the address translated. Loads and stores are admitted, translated and
// forwarded independently. Each direction holds at most capacity requests
// between admission and forwarding; translated requests leave in the order
// their translations complete.
type Comp struct {
	*unit.Base

	translator tlb.Translator
	loads      *direction
	stores     *direction
}

// Load translates and forwards a load.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.admit(c.loads, src, req, cb, kindLoad)
}

// Store translates and forwards a store.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	return c.admit(c.stores, src, req, nil, kindStore)
}

// StoreCB translates and forwards a store with a completion callback.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.admit(c.stores, src, req, cb, kindStoreCB)
}

// Resume is called by a downstream unit that accepts requests again.
func (c *Comp) Resume(src unit.Requester) {
	matched := false

	for _, d := range []*direction{c.loads, c.stores} {
		if d.downstream != src {
			continue
		}

		matched = true

		if d.downstreamBlocked {
			d.downstreamBlocked = false
			c.scheduleForward(d)
		}
	}

	if !matched {
		log.Panicf("%s: resumed by unknown unit %s", c.Name(), src.Name())
	}
}

// Status reports the occupancy of both directions.
func (c *Comp) Status() string {
	return fmt.Sprintf("%s: %s, %s",
		c.Name(), c.loads.status(), c.stores.status())
}

func (d *direction) status() string {
	return fmt.Sprintf("%s %d/%d ready %d blocked %t",
		d.name, d.inFlight, d.capacity, len(d.ready), d.downstreamBlocked)
}

func (c *Comp) admit(
	d *direction,
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
	k kind,
) bool {
	if d.inFlight >= d.capacity {
		log.Panicf("%s: %s admitted beyond capacity %d by %s",
			c.Name(), d.name, d.capacity, src.Name())
	}

	t := &transaction{
		Entry: unit.Entry{
			Src:      src,
			Req:      req,
			Callback: cb,
			Time:     c.Sched.CurrentTime(),
		},
		kind: k,
	}

	d.inFlight++
	d.depthStat.AddData(uint64(d.inFlight))

	addr, hit := c.translator.Lookup(req, func(addr uint64) {
		c.translated(d, t, addr)
	})
	if hit {
		c.translated(d, t, addr)
	}

	if d.inFlight < d.capacity {
		return false
	}

	if d.blockedSrc != nil && d.blockedSrc != src {
		log.Panicf("%s: %s blocked while %s is blocked",
			c.Name(), src.Name(), d.blockedSrc.Name())
	}

	d.blockedSrc = src

	return true
}

func (c *Comp) translated(d *direction, t *transaction, addr uint64) {
	t.Req = t.Req.Derive(addr, t.Req.Length)
	d.ready = append(d.ready, t)
	c.scheduleForward(d)
}

func (c *Comp) scheduleForward(d *direction) {
	if d.scheduled || d.downstreamBlocked || len(d.ready) == 0 {
		return
	}

	d.scheduled = true
	c.Sched.SchedCallback(0, func() { c.forward(d) })
}

func (c *Comp) forward(d *direction) {
	d.scheduled = false

	for len(d.ready) > 0 && !d.downstreamBlocked {
		t := d.ready[0]
		d.ready[0] = nil
		d.ready = d.ready[1:]

		d.downstreamBlocked = c.send(d, t)
		d.inFlight--

		if d.blockedSrc != nil {
			c.Sched.SchedResume(0, d.blockedSrc, c)
			d.blockedSrc = nil
		}
	}
}

func (c *Comp) send(d *direction, t *transaction) bool {
	switch t.kind {
	case kindLoad:
		return d.downstream.Load(c, t.Req, t.Callback)
	case kindStore:
		return d.downstream.Store(c, t.Req)
	default:
		return d.downstream.StoreCB(c, t.Req, t.Callback)
	}
}
