package busbridge

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// maxPendingWrites is the number of un-acknowledged callback-less stores a
// single source may have before it is blocked.
const maxPendingWrites = 10

// slots bounds the requests in flight in one direction of the bridge.
type slots struct {
	capacity int
	inFlight int
	blocked  unit.Requester
}

func (s *slots) acquire(owner string, src unit.Requester) bool {
	if s.inFlight >= s.capacity {
		log.Panicf("%s: %s sent a request with no free slot",
			owner, src.Name())
	}

	s.inFlight++

	if s.inFlight < s.capacity {
		return false
	}

	if s.blocked != nil && s.blocked != src {
		log.Panicf("%s: %s is blocked while %s is already blocked",
			owner, src.Name(), s.blocked.Name())
	}

	s.blocked = src

	return true
}

func (s *slots) release() unit.Requester {
	s.inFlight--

	src := s.blocked
	s.blocked = nil

	return src
}

// widgetPort feeds requests that arrive on the request channel into a
// widget, holding them while the widget is blocked.
type widgetPort struct {
	widget  *Widget
	pending []unit.Entry
	blocked bool
}

// Comp models a framed serial link between the NIC and the host memory.
// Requests travel on the request channel, get served by the load or store
// widget on the host side and return on the response channel.
type Comp struct {
	*unit.Base

	request  *bus
	response *bus

	loads  *widgetPort
	stores *widgetPort

	loadSlots  slots
	storeSlots slots

	pendingWrites  map[unit.Requester]int
	writeBlocked   map[unit.Requester]bool
	writeBlockedQ  []unit.Requester
	pendingWriteSt stats.Statistic
	latencyStat    stats.Statistic
}

// Load sends a read request across the link.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	blocked := c.loadSlots.acquire(c.Name(), src)
	start := c.Sched.CurrentTime()

	c.request.send(&tlp{
		address: req.Address,
		deliver: func(*tlp) {
			c.toWidget(c.loads, unit.Entry{
				Src: src, Req: req, Time: start,
				Callback: func() { c.respond(req, req.Length, start, c.loadDone(cb)) },
			})
		},
	})

	return blocked
}

// StoreCB sends a write request carrying its payload across the link. The
// callback fires when the acknowledgement returns.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	if cb == nil {
		return c.Store(src, req)
	}

	blocked := c.storeSlots.acquire(c.Name(), src)
	start := c.Sched.CurrentTime()

	c.request.send(&tlp{
		address: req.Address,
		payload: req.Length,
		deliver: func(*tlp) {
			c.toWidget(c.stores, unit.Entry{
				Src: src, Req: req, Time: start,
				Callback: func() { c.respond(req, 0, start, c.storeDone(cb)) },
			})
		},
	})

	return blocked
}

// Store sends a write request without a completion callback. The source is
// blocked once it has maxPendingWrites writes that are not acknowledged.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	c.pendingWrites[src]++
	n := c.pendingWrites[src]
	c.pendingWriteSt.AddData(uint64(n))
	start := c.Sched.CurrentTime()

	c.request.send(&tlp{
		address: req.Address,
		payload: req.Length,
		deliver: func(*tlp) {
			c.toWidget(c.stores, unit.Entry{
				Src: src, Req: req, Time: start,
				Callback: func() {
					ack := req.Derive(AckAddress, 0)
					c.respond(ack, 0, start, func(*tlp) { c.writeAcked(src) })
				},
			})
		},
	})

	if n < maxPendingWrites {
		return false
	}

	if !c.writeBlocked[src] {
		c.writeBlocked[src] = true
		c.writeBlockedQ = append(c.writeBlockedQ, src)
	}

	return true
}

// Resume is called by a widget that accepts requests again.
func (c *Comp) Resume(src unit.Requester) {
	switch src {
	case unit.Requester(c.loads.widget):
		c.flush(c.loads)
	case unit.Requester(c.stores.widget):
		c.flush(c.stores)
	default:
		log.Panicf("%s: resumed by unknown source %s", c.Name(), src.Name())
	}
}

// Status reports the occupancy of both channels and both directions.
func (c *Comp) Status() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s: loads %d/%d, stores %d/%d, write-blocked %d\n",
		c.Name(),
		c.loadSlots.inFlight, c.loadSlots.capacity,
		c.storeSlots.inFlight, c.storeSlots.capacity,
		len(c.writeBlockedQ))
	fmt.Fprintf(&sb, "  %s\n  %s\n", c.request.status(), c.response.status())
	fmt.Fprintf(&sb, "  %s\n  %s", c.loads.widget.Status(), c.stores.widget.Status())

	return sb.String()
}

// PendingWrites returns the number of un-acknowledged callback-less stores
// of src.
func (c *Comp) PendingWrites(src unit.Requester) int {
	return c.pendingWrites[src]
}

// LoadWidget returns the widget that serves reads.
func (c *Comp) LoadWidget() *Widget {
	return c.loads.widget
}

// StoreWidget returns the widget that serves writes.
func (c *Comp) StoreWidget() *Widget {
	return c.stores.widget
}

// BytesTransferred returns the bytes moved on the request and the response
// channel, including framing.
func (c *Comp) BytesTransferred() (request, response uint64) {
	return c.request.numBytes, c.response.numBytes
}

// Link returns the per-link bandwidth in Gb/s and the number of links.
func (c *Comp) Link() (gbps float64, links int) {
	return c.request.cfg.bandwidthGbps, c.request.cfg.numLinks
}

func (c *Comp) toWidget(p *widgetPort, e unit.Entry) {
	if p.blocked || len(p.pending) > 0 {
		p.pending = append(p.pending, e)
		return
	}

	c.sendToWidget(p, e)
}

func (c *Comp) sendToWidget(p *widgetPort, e unit.Entry) {
	var blocked bool
	if p.widget.isStore {
		blocked = p.widget.StoreCB(c, e.Req, e.Callback)
	} else {
		blocked = p.widget.Load(c, e.Req, e.Callback)
	}

	p.blocked = blocked
}

func (c *Comp) flush(p *widgetPort) {
	if !p.blocked {
		log.Panicf("%s: resumed by %s while not blocked",
			c.Name(), p.widget.Name())
	}

	p.blocked = false

	for len(p.pending) > 0 && !p.blocked {
		e := p.pending[0]
		p.pending = p.pending[1:]
		c.sendToWidget(p, e)
	}
}

func (c *Comp) respond(
	req *unit.Request,
	payload uint64,
	start sim.VTime,
	done func(*tlp),
) {
	c.response.send(&tlp{
		address: req.Address,
		payload: payload,
		deliver: func(t *tlp) {
			c.latencyStat.AddData(uint64(c.Sched.CurrentTime() - start))
			done(t)
		},
	})
}

func (c *Comp) loadDone(cb unit.Callback) func(*tlp) {
	return func(*tlp) {
		if src := c.loadSlots.release(); src != nil {
			c.Sched.SchedResume(0, src, c)
		}

		if cb != nil {
			cb()
		}
	}
}

func (c *Comp) storeDone(cb unit.Callback) func(*tlp) {
	return func(*tlp) {
		if src := c.storeSlots.release(); src != nil {
			c.Sched.SchedResume(0, src, c)
		}

		cb()
	}
}

func (c *Comp) writeAcked(src unit.Requester) {
	c.pendingWrites[src]--
	if c.pendingWrites[src] == 0 {
		delete(c.pendingWrites, src)
	}

	if !c.writeBlocked[src] || c.pendingWrites[src] >= maxPendingWrites {
		return
	}

	delete(c.writeBlocked, src)

	for i, s := range c.writeBlockedQ {
		if s == src {
			c.writeBlockedQ = append(c.writeBlockedQ[:i], c.writeBlockedQ[i+1:]...)
			break
		}
	}

	c.Sched.SchedResume(0, src, c)
}
