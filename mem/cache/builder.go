package cache

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/cache/internal/mshr"
	"github.com/sarchlab/nicmem/mem/internal/lru"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Builder can build caches.
type Builder struct {
	sched    unit.Scheduler
	registry stats.Registry
	backend  unit.Unit

	lineSize   uint64
	byteSize   uint64
	numMSHR    int
	hitLatency sim.VTime
}

// MakeBuilder creates a new builder.
func MakeBuilder() Builder {
	return Builder{
		lineSize: 64,
		byteSize: 16 * 1024,
		numMSHR:  16,
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

// WithBackend sets the unit that serves the misses.
func (b Builder) WithBackend(backend unit.Unit) Builder {
	b.backend = backend
	return b
}

// WithLineSize sets the cache line size in bytes. It must be a power of two.
func (b Builder) WithLineSize(lineSize uint64) Builder {
	b.lineSize = lineSize
	return b
}

// WithByteSize sets the capacity of the cache in bytes.
func (b Builder) WithByteSize(byteSize uint64) Builder {
	b.byteSize = byteSize
	return b
}

// WithNumMSHR sets the maximum number of concurrent misses.
func (b Builder) WithNumMSHR(n int) Builder {
	b.numMSHR = n
	return b
}

// WithHitLatency sets the delay before a hit is reported.
func (b Builder) WithHitLatency(latency sim.VTime) Builder {
	b.hitLatency = latency
	return b
}

// Build creates a cache.
func (b Builder) Build(name string) *Comp {
	if b.backend == nil {
		panic("cache.Builder: backend is nil; call WithBackend")
	}

	if b.lineSize == 0 || b.lineSize&(b.lineSize-1) != 0 {
		panic(fmt.Sprintf(
			"cache.Builder: line size %d is not a power of two", b.lineSize))
	}

	numLines := int(b.byteSize / b.lineSize)
	if numLines <= 0 {
		panic("cache.Builder: cache must hold at least one line")
	}

	if b.numMSHR <= 0 {
		panic("cache.Builder: numMSHR must be > 0")
	}

	c := &Comp{
		Base:       unit.NewBase(name, b.sched, b.registry),
		backend:    b.backend,
		lineSize:   b.lineSize,
		hitLatency: b.hitLatency,
		numMSHR:    b.numMSHR,
		lines:      lru.New[uint64](numLines),
		mshr:       mshr.New(b.numMSHR),
	}

	c.hitStat = c.Statistic("hits")
	c.missStat = c.Statistic("misses")
	c.coalesceStat = c.Statistic("coalesced")
	c.evictStat = c.Statistic("write_backs")
	c.retryStat = c.Statistic("retry_depth")

	return c
}
