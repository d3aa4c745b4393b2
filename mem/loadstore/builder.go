package loadstore

import (
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/stats"
)

// Builder can build load and store units.
type Builder struct {
	sched      unit.Scheduler
	registry   stats.Registry
	downstream unit.Unit
	qSize      int
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		qSize: 8,
	}
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

// WithDownstream sets the unit that the requests are forwarded to.
func (b Builder) WithDownstream(u unit.Unit) Builder {
	b.downstream = u
	return b
}

// WithQueueSize sets the number of requests that can be queued or
// outstanding at the same time.
func (b Builder) WithQueueSize(n int) Builder {
	b.qSize = n
	return b
}

// BuildLoadUnit creates a unit that forwards loads.
func (b Builder) BuildLoadUnit(name string) *Comp {
	return b.build(name, false)
}

// BuildStoreUnit creates a unit that forwards stores with a completion
// callback, so that it can count completed stores.
func (b Builder) BuildStoreUnit(name string) *Comp {
	return b.build(name, true)
}

func (b Builder) build(name string, isStore bool) *Comp {
	if b.downstream == nil {
		panic("loadstore.Builder: downstream is nil; call WithDownstream")
	}

	if b.qSize <= 0 {
		panic("loadstore.Builder: queue size must be > 0")
	}

	c := &Comp{
		Base:       unit.NewBase(name, b.sched, b.registry),
		downstream: b.downstream,
		qSize:      b.qSize,
		isStore:    isStore,
	}

	c.depthStat = c.Statistic("depth")
	c.waitStat = c.Statistic("queue_wait_ps")

	return c
}
