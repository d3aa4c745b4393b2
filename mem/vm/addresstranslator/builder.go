package addresstranslator

import (
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/mem/vm/tlb"
	"github.com/sarchlab/nicmem/stats"
)

// A Builder can create address translators
type Builder struct {
	sched      unit.Scheduler
	registry   stats.Registry
	translator tlb.Translator

	loadDownstream  unit.Unit
	storeDownstream unit.Unit
	maxLoads        int
	maxStores       int
}

// MakeBuilder creates a new builder
func MakeBuilder() Builder {
	return Builder{
		maxLoads:  16,
		maxStores: 16,
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

// WithTranslator sets the TLB that translates the addresses.
func (b Builder) WithTranslator(t tlb.Translator) Builder {
	b.translator = t
	return b
}

// WithLoadDownstream sets the unit that receives translated loads.
func (b Builder) WithLoadDownstream(u unit.Unit) Builder {
	b.loadDownstream = u
	return b
}

// WithStoreDownstream sets the unit that receives translated stores.
func (b Builder) WithStoreDownstream(u unit.Unit) Builder {
	b.storeDownstream = u
	return b
}

// WithMaxLoads sets how many loads can wait for translation or forwarding.
func (b Builder) WithMaxLoads(n int) Builder {
	b.maxLoads = n
	return b
}

// WithMaxStores sets how many stores can wait for translation or
// forwarding.
func (b Builder) WithMaxStores(n int) Builder {
	b.maxStores = n
	return b
}

// Build creates an address translator.
func (b Builder) Build(name string) *Comp {
	if b.translator == nil {
		panic("addresstranslator.Builder: translator is nil")
	}

	if b.loadDownstream == nil || b.storeDownstream == nil {
		panic("addresstranslator.Builder: downstream units are required")
	}

	if b.maxLoads <= 0 || b.maxStores <= 0 {
		panic("addresstranslator.Builder: capacities must be > 0")
	}

	c := &Comp{
		Base:       unit.NewBase(name, b.sched, b.registry),
		translator: b.translator,
	}

	c.loads = &direction{
		name:       "load",
		downstream: b.loadDownstream,
		capacity:   b.maxLoads,
		depthStat:  c.Statistic("load_depth"),
	}
	c.stores = &direction{
		name:       "store",
		downstream: b.storeDownstream,
		capacity:   b.maxStores,
		depthStat:  c.Statistic("store_depth"),
	}

	return c
}
