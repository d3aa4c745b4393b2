// Package mux provides a stage that lets several requesters share one
// downstream unit.
package mux

import (
	"fmt"
	"log"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/stats"
)

type kind int

const (
	kindLoad kind = iota
	kindStore
	kindStoreCB
)

type pendingReq struct {
	unit.Entry
	kind kind
}

// Comp serializes the requests of many requesters into one downstream unit.
//
// When the downstream is free, a request is forwarded at once. If the
// downstream blocks, the requester that sent it becomes the blocked source.
// While a source is blocked or requests are queued, new requests are queued
// and their requesters are told to block; each of them is resumed when its
// own request has been forwarded.
type Comp struct {
	*unit.Base

	downstream unit.Unit
	queue      []*pendingReq
	scheduled  bool

	depthStat stats.Statistic
	waitStat  stats.Statistic
}

// Load forwards or queues a load.
func (c *Comp) Load(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.accept(src, req, cb, kindLoad)
}

// Store forwards or queues a store.
func (c *Comp) Store(src unit.Requester, req *unit.Request) bool {
	return c.accept(src, req, nil, kindStore)
}

// StoreCB forwards or queues a store with a completion callback.
func (c *Comp) StoreCB(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
) bool {
	return c.accept(src, req, cb, kindStoreCB)
}

// Resume is called by the downstream unit when it accepts requests again.
func (c *Comp) Resume(src unit.Requester) {
	if !c.ReleaseBlocked(c) {
		log.Panicf("%s: resumed by %s while not blocked",
			c.Name(), src.Name())
	}

	c.drain()
}

// Status reports the queue occupancy.
func (c *Comp) Status() string {
	blocked := "none"
	if src := c.BlockedSource(); src != nil {
		blocked = src.Name()
	}

	return fmt.Sprintf("%s: queued %d, blocked source %s",
		c.Name(), len(c.queue), blocked)
}

// NumQueued returns the number of requests waiting to be forwarded.
func (c *Comp) NumQueued() int {
	return len(c.queue)
}

func (c *Comp) isBusy() bool {
	return c.BlockedSource() != nil || len(c.queue) > 0
}

func (c *Comp) accept(
	src unit.Requester,
	req *unit.Request,
	cb unit.Callback,
	k kind,
) bool {
	p := &pendingReq{
		Entry: unit.Entry{
			Src:      src,
			Req:      req,
			Callback: cb,
			Time:     c.Sched.CurrentTime(),
		},
		kind: k,
	}

	if c.isBusy() {
		c.queue = append(c.queue, p)
		c.depthStat.AddData(uint64(len(c.queue)))

		return true
	}

	if c.send(p) {
		c.MarkBlocked(src)
		return true
	}

	return false
}

func (c *Comp) send(p *pendingReq) bool {
	switch p.kind {
	case kindLoad:
		return c.downstream.Load(c, p.Req, p.Callback)
	case kindStore:
		return c.downstream.Store(c, p.Req)
	default:
		return c.downstream.StoreCB(c, p.Req, p.Callback)
	}
}

// drain forwards queued requests until the downstream blocks. When more
// than one request is left after a forward, the rest is left to a later
// step.
func (c *Comp) drain() {
	for len(c.queue) > 0 && c.BlockedSource() == nil {
		p := c.queue[0]
		c.queue[0] = nil
		c.queue = c.queue[1:]

		c.waitStat.AddData(uint64(c.Sched.CurrentTime() - p.Time))

		if c.send(p) {
			c.MarkBlocked(p.Src)
			return
		}

		c.Sched.SchedResume(0, p.Src, c)

		if len(c.queue) > 1 {
			c.scheduleDrain()
			return
		}
	}
}

func (c *Comp) scheduleDrain() {
	if c.scheduled {
		return
	}

	c.scheduled = true
	c.Sched.SchedCallback(0, func() {
		c.scheduled = false
		c.drain()
	})
}
