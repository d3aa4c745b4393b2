package memmodel

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/busbridge"
	"github.com/sarchlab/nicmem/mem/cache"
	"github.com/sarchlab/nicmem/mem/detailedmem"
	"github.com/sarchlab/nicmem/mem/loadstore"
	"github.com/sarchlab/nicmem/mem/membackend"
	"github.com/sarchlab/nicmem/mem/mux"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/mem/vm/addresstranslator"
	"github.com/sarchlab/nicmem/mem/vm/tlb"
	"github.com/sarchlab/nicmem/stats"
)

// Builder can build memory models.
type Builder struct {
	sched    unit.Scheduler
	registry stats.Registry
	cfg      Config
}

// MakeBuilder creates a builder with the default configuration.
func MakeBuilder() Builder {
	return Builder{
		cfg: DefaultConfig(),
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

// WithConfig sets the configuration.
func (b Builder) WithConfig(cfg Config) Builder {
	b.cfg = cfg
	return b
}

// Build creates a memory model.
func (b Builder) Build(name string) *MemoryModel {
	if b.sched == nil {
		panic("memmodel.Builder: scheduler is nil; call WithScheduler")
	}

	if err := b.cfg.Validate(); err != nil {
		panic(fmt.Sprintf("memmodel.Builder: %v", err))
	}

	m := &MemoryModel{name: name}

	hostMux := b.buildHostSide(m)
	b.buildHostCores(m, hostMux)
	b.buildNicUnits(m, hostMux)

	return m
}

func (b Builder) add(m *MemoryModel, c Component) {
	m.components = append(m.components, c)
}

// buildHostSide builds the memory, the optional cache, and the mux that all
// host side traffic goes through.
func (b Builder) buildHostSide(m *MemoryModel) *mux.Comp {
	var top unit.Unit

	if b.cfg.UseDetailedModel {
		d := detailedmem.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithNumBanks(b.cfg.DetailedBanks).
			WithRowSize(b.cfg.DetailedRowSize).
			WithRowHitLatency(ns(b.cfg.DetailedRowHitLatency)).
			WithRowMissLatency(ns(b.cfg.DetailedRowMissLatency)).
			Build(m.name + ".DetailedMemory")
		m.detailed = d
		top = d
		b.add(m, d)
	} else {
		mem := membackend.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithReadLatency(ns(b.cfg.MemReadLatency)).
			WithWriteLatency(ns(b.cfg.MemWriteLatency)).
			WithNumSlots(b.cfg.MemSlots).
			Build(m.name + ".Memory")
		top = mem
		b.add(m, mem)
	}

	if b.cfg.UseHostCache {
		c := cache.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithBackend(top).
			WithLineSize(b.cfg.LineSize).
			WithByteSize(b.cfg.CacheSize).
			WithNumMSHR(b.cfg.NumMSHR).
			WithHitLatency(ns(b.cfg.CacheHitLatency)).
			Build(m.name + ".HostCache")
		top = c
		b.add(m, c)
	}

	hostMux := mux.MakeBuilder().
		WithScheduler(b.sched).
		WithStats(b.registry).
		WithDownstream(top).
		Build(m.name + ".HostMux")
	b.add(m, hostMux)

	return hostMux
}

func (b Builder) buildHostCores(m *MemoryModel, hostMux *mux.Comp) {
	for i := 0; i < b.cfg.NumCores; i++ {
		prefix := fmt.Sprintf("%s.Core[%d]", m.name, i)

		ls := loadstore.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithDownstream(hostMux)
		load := ls.WithQueueSize(b.cfg.HostLoadQueue).
			BuildLoadUnit(prefix + ".LoadUnit")
		store := ls.WithQueueSize(b.cfg.HostStoreQueue).
			BuildStoreUnit(prefix + ".StoreUnit")

		t := newThread(prefix+".Thread", b.sched, Stages{
			Load:  load,
			Store: store,
			Write: hostMux,
		}, b.cfg.LineSize, b.registry)

		m.hostCores = append(m.hostCores, t)
		b.add(m, t)
		b.add(m, load)
		b.add(m, store)
	}
}

// buildNicUnits builds the NIC threads, which share a TLB and reach the host
// side through a bus bridge when it is enabled.
func (b Builder) buildNicUnits(m *MemoryModel, hostMux *mux.Comp) {
	if b.cfg.NumNicUnits == 0 {
		return
	}

	var toHost unit.Unit = hostMux

	if b.cfg.UseBusBridge {
		bb := busbridge.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithDownstream(hostMux).
			WithBandwidth(b.cfg.BusBandwidth).
			WithNumLinks(b.cfg.BusLinks)

		if b.cfg.BusVersion != 0 {
			width := b.cfg.BusWidth
			if width == 0 {
				width = b.cfg.BusLinks
			}

			bb = bb.WithVersion(b.cfg.BusVersion, width)
		}

		bridge := bb.
			WithLatency(ns(b.cfg.BusLatency)).
			WithTLPOverhead(b.cfg.TLPOverhead).
			WithDLLBytes(b.cfg.DLLBytes).
			WithDLLInterval(b.cfg.DLLInterval).
			WithWidgetSlots(b.cfg.WidgetSlots).
			WithWidgetQueueSize(b.cfg.WidgetQueue).
			WithLineSize(b.cfg.LineSize).
			Build(m.name + ".BusBridge")

		nicMux := mux.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithDownstream(bridge).
			Build(m.name + ".NicMux")

		b.add(m, bridge)
		b.add(m, nicMux)
		toHost = nicMux
	}

	sharedTLB := tlb.MakeBuilder().
		WithScheduler(b.sched).
		WithStats(b.registry).
		WithNumEntries(b.cfg.TLBEntries).
		WithPageSize(b.cfg.TLBPageSize).
		WithNumWalkers(b.cfg.TLBWalkers).
		WithMissLatency(ns(b.cfg.TLBMissLatency)).
		Build(m.name + ".SharedTLB")
	b.add(m, sharedTLB)

	for i := 0; i < b.cfg.NumNicUnits; i++ {
		prefix := fmt.Sprintf("%s.Nic[%d]", m.name, i)

		ls := loadstore.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithDownstream(toHost)
		load := ls.WithQueueSize(b.cfg.NicLoadQueue).
			BuildLoadUnit(prefix + ".LoadUnit")
		store := ls.WithQueueSize(b.cfg.NicStoreQueue).
			BuildStoreUnit(prefix + ".StoreUnit")

		translator := addresstranslator.MakeBuilder().
			WithScheduler(b.sched).
			WithStats(b.registry).
			WithTranslator(sharedTLB).
			WithLoadDownstream(load).
			WithStoreDownstream(store).
			WithMaxLoads(b.cfg.NicLoadQueue).
			WithMaxStores(b.cfg.NicStoreQueue).
			Build(prefix + ".Translator")

		t := newThread(prefix+".Thread", b.sched, Stages{
			Load:  translator,
			Store: translator,
			Write: toHost,
		}, b.cfg.NicToHostMTU, b.registry)

		m.nicUnits = append(m.nicUnits, t)
		b.add(m, t)
		b.add(m, translator)
		b.add(m, load)
		b.add(m, store)
	}
}
