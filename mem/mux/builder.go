package mux

import (
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/stats"
)

// Builder can build muxes.
type Builder struct {
	sched      unit.Scheduler
	registry   stats.Registry
	downstream unit.Unit
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{}
}

// WithScheduler sets the scheduler.
func (b Builder) WithScheduler(sched unit.Scheduler) Builder {
	b.sched = sched
	return b
}

// WithStats sets the statistics registry.
func (b Builder) WithStats(registry stats.Registry) Builder {
	b.registry = registry
	return b
}

// WithDownstream sets the shared unit behind the mux.
func (b Builder) WithDownstream(u unit.Unit) Builder {
	b.downstream = u
	return b
}

// Build creates a mux.
func (b Builder) Build(name string) *Comp {
	if b.downstream == nil {
		panic("mux.Builder: downstream is nil; call WithDownstream")
	}

	c := &Comp{
		Base:       unit.NewBase(name, b.sched, b.registry),
		downstream: b.downstream,
	}

	c.depthStat = c.Statistic("queue_depth")
	c.waitStat = c.Statistic("queue_wait_ps")

	return c
}
