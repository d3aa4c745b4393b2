package membackend

import (
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Builder can build memory backends.
type Builder struct {
	sched        unit.Scheduler
	registry     stats.Registry
	readLatency  sim.VTime
	writeLatency sim.VTime
	numSlots     int
}

// MakeBuilder returns a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		readLatency:  100 * sim.Nanosecond,
		writeLatency: 100 * sim.Nanosecond,
		numSlots:     16,
	}
}

// WithScheduler sets the scheduler that the backend uses.
func (b Builder) WithScheduler(sched unit.Scheduler) Builder {
	b.sched = sched
	return b
}

// WithStats sets the statistics registry.
func (b Builder) WithStats(registry stats.Registry) Builder {
	b.registry = registry
	return b
}

// WithReadLatency sets the time a load occupies a slot.
func (b Builder) WithReadLatency(latency sim.VTime) Builder {
	b.readLatency = latency
	return b
}

// WithWriteLatency sets the time a store occupies a slot.
func (b Builder) WithWriteLatency(latency sim.VTime) Builder {
	b.writeLatency = latency
	return b
}

// WithNumSlots sets the number of operations that can be served
// concurrently.
func (b Builder) WithNumSlots(n int) Builder {
	b.numSlots = n
	return b
}

// Build creates a memory backend.
func (b Builder) Build(name string) *Comp {
	if b.numSlots <= 0 {
		panic("membackend.Builder: numSlots must be > 0")
	}

	c := &Comp{
		Base:         unit.NewBase(name, b.sched, b.registry),
		readLatency:  b.readLatency,
		writeLatency: b.writeLatency,
		numSlots:     b.numSlots,
	}

	c.readStat = c.Statistic("reads")
	c.writeStat = c.Statistic("writes")
	c.depthStat = c.Statistic("queue_depth")
	c.waitStat = c.Statistic("queue_wait_ps")

	return c
}
