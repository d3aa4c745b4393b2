package tlb

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/nicmem/mem/internal/lru"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// A Builder can build TLBs
type Builder struct {
	sched       unit.Scheduler
	registry    stats.Registry
	numEntries  int
	pageSize    uint64
	numWalkers  int
	missLatency sim.VTime
}

// MakeBuilder returns a Builder
func MakeBuilder() Builder {
	return Builder{
		numEntries:  32,
		pageSize:    4096,
		numWalkers:  4,
		missLatency: 100 * sim.Nanosecond,
	}
}

// WithScheduler sets the scheduler that the TLB uses.
func (b Builder) WithScheduler(sched unit.Scheduler) Builder {
	b.sched = sched
	return b
}

// WithStats sets the statistics registry.
func (b Builder) WithStats(registry stats.Registry) Builder {
	b.registry = registry
	return b
}

// WithNumEntries sets the number of pages the TLB can hold.
func (b Builder) WithNumEntries(n int) Builder {
	b.numEntries = n
	return b
}

// WithPageSize sets the page size that the TLB works with. It must be a
// power of two.
func (b Builder) WithPageSize(n uint64) Builder {
	b.pageSize = n
	return b
}

// WithNumWalkers sets the number of page walks that can run at the same
// time.
func (b Builder) WithNumWalkers(n int) Builder {
	b.numWalkers = n
	return b
}

// WithMissLatency sets the duration of a page walk.
func (b Builder) WithMissLatency(latency sim.VTime) Builder {
	b.missLatency = latency
	return b
}

// Build creates a new TLB
func (b Builder) Build(name string) *Comp {
	if b.pageSize == 0 || b.pageSize&(b.pageSize-1) != 0 {
		panic(fmt.Sprintf("tlb.Builder: page size %d is not a power of 2",
			b.pageSize))
	}

	if b.numWalkers <= 0 {
		panic("tlb.Builder: numWalkers must be > 0")
	}

	c := &Comp{
		Base:         unit.NewBase(name, b.sched, b.registry),
		log2PageSize: uint64(bits.TrailingZeros64(b.pageSize)),
		numWalkers:   b.numWalkers,
		missLatency:  b.missLatency,
		pages:        lru.New[Page](b.numEntries),
		pending:      make(map[Page][]*lookup),
	}

	c.hitStat = c.Statistic("hits")
	c.walkStat = c.Statistic("walks")
	c.coalesceStat = c.Statistic("coalesced")
	c.overflowStat = c.Statistic("overflow_depth")

	return c
}
