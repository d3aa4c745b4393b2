package detailedmem

import (
	"fmt"
	"math/bits"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Builder constructs banked memories.
type Builder struct {
	sched    unit.Scheduler
	registry stats.Registry

	numBanks       int
	bankQueueSize  int
	rowSize        uint64
	rowHitLatency  sim.VTime
	rowMissLatency sim.VTime
	writeExtra     sim.VTime
}

// MakeBuilder creates a builder with reasonable defaults.
func MakeBuilder() Builder {
	return Builder{
		numBanks:       8,
		bankQueueSize:  8,
		rowSize:        2048,
		rowHitLatency:  15 * sim.Nanosecond,
		rowMissLatency: 45 * sim.Nanosecond,
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

// WithNumBanks sets the number of banks.
func (b Builder) WithNumBanks(numBanks int) Builder {
	b.numBanks = numBanks
	return b
}

// WithBankQueueSize sets the number of requests each bank can hold,
// including the one being served.
func (b Builder) WithBankQueueSize(size int) Builder {
	b.bankQueueSize = size
	return b
}

// WithRowSize sets the row size in bytes. It must be a power of two.
func (b Builder) WithRowSize(rowSize uint64) Builder {
	b.rowSize = rowSize
	return b
}

// WithRowHitLatency sets the latency of an access to the open row.
func (b Builder) WithRowHitLatency(latency sim.VTime) Builder {
	b.rowHitLatency = latency
	return b
}

// WithRowMissLatency sets the latency of an access that opens a new row.
func (b Builder) WithRowMissLatency(latency sim.VTime) Builder {
	b.rowMissLatency = latency
	return b
}

// WithWriteRecovery sets the extra time a write occupies its bank.
func (b Builder) WithWriteRecovery(latency sim.VTime) Builder {
	b.writeExtra = latency
	return b
}

// Build creates a banked memory.
func (b Builder) Build(name string) *Comp {
	if b.numBanks <= 0 {
		panic("detailedmem.Builder: numBanks must be > 0")
	}

	if b.bankQueueSize <= 0 {
		panic("detailedmem.Builder: bankQueueSize must be > 0")
	}

	if b.rowSize == 0 || b.rowSize&(b.rowSize-1) != 0 {
		panic(fmt.Sprintf(
			"detailedmem.Builder: rowSize %d is not a power of two", b.rowSize))
	}

	log2Row := uint64(bits.TrailingZeros64(b.rowSize))

	c := &Comp{
		Base:           unit.NewBase(name, b.sched, b.registry),
		banks:          make([]bank, b.numBanks),
		bankQueueSize:  b.bankQueueSize,
		log2RowSize:    log2Row,
		rowHitLatency:  b.rowHitLatency,
		rowMissLatency: b.rowMissLatency,
		writeExtra:     b.writeExtra,
		selector:       rowInterleaving{rowShift: log2Row},
	}

	c.precharge()

	c.rowHitStat = c.Statistic("row_hits")
	c.rowMissStat = c.Statistic("row_misses")
	c.waitStat = c.Statistic("queue_wait_ps")

	return c
}
