package busbridge

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// Per-lane data rate in Gb/s of each link generation, after encoding.
var laneBandwidth = map[int]float64{
	1: 2.0,
	2: 4.0,
	3: 7.877,
	4: 15.754,
	5: 31.508,
	6: 63.015,
}

// LaneBandwidth returns the per-lane data rate in Gb/s of a link
// generation. It returns false for a generation it does not know.
func LaneBandwidth(version int) (float64, bool) {
	bw, ok := laneBandwidth[version]
	return bw, ok
}

// Builder can build bus bridges.
type Builder struct {
	sched      unit.Scheduler
	registry   stats.Registry
	downstream unit.Unit

	link        linkConfig
	widgetSlots int
	widgetQSize int
	lineSize    uint64
}

// MakeBuilder creates a builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		link: linkConfig{
			bandwidthGbps: laneBandwidth[3],
			numLinks:      16,
			latency:       200 * sim.Nanosecond,
			tlpOverhead:   24,
			dllBytes:      8,
			dllInterval:   4,
		},
		widgetSlots: 32,
		widgetQSize: 16,
		lineSize:    64,
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

// WithDownstream sets the host side unit that the widgets access.
func (b Builder) WithDownstream(u unit.Unit) Builder {
	b.downstream = u
	return b
}

// WithBandwidth sets the bandwidth of a single link in Gb/s.
func (b Builder) WithBandwidth(gbps float64) Builder {
	b.link.bandwidthGbps = gbps
	return b
}

// WithVersion sets the per-link bandwidth from a link generation and the
// number of links from the link width.
func (b Builder) WithVersion(version, width int) Builder {
	bw, ok := LaneBandwidth(version)
	if !ok {
		panic(fmt.Sprintf("busbridge.Builder: unsupported version %d", version))
	}

	b.link.bandwidthGbps = bw
	b.link.numLinks = width

	return b
}

// WithNumLinks sets the number of links that transfer in parallel.
func (b Builder) WithNumLinks(n int) Builder {
	b.link.numLinks = n
	return b
}

// WithLatency sets the time from the end of a transfer to the delivery.
func (b Builder) WithLatency(latency sim.VTime) Builder {
	b.link.latency = latency
	return b
}

// WithTLPOverhead sets the header bytes added to every packet.
func (b Builder) WithTLPOverhead(n uint64) Builder {
	b.link.tlpOverhead = n
	return b
}

// WithDLLBytes sets the size of a data link layer frame.
func (b Builder) WithDLLBytes(n uint64) Builder {
	b.link.dllBytes = n
	return b
}

// WithDLLInterval sets the number of packets between two data link layer
// frames. Zero disables them.
func (b Builder) WithDLLInterval(n int) Builder {
	b.link.dllInterval = n
	return b
}

// WithWidgetSlots sets the number of loads and the number of callback stores
// that can be in flight at the same time.
func (b Builder) WithWidgetSlots(n int) Builder {
	b.widgetSlots = n
	return b
}

// WithWidgetQueueSize sets the number of requests a widget admits.
func (b Builder) WithWidgetQueueSize(n int) Builder {
	b.widgetQSize = n
	return b
}

// WithLineSize sets the size of the accesses that the widgets issue.
func (b Builder) WithLineSize(n uint64) Builder {
	b.lineSize = n
	return b
}

// Build creates a bridge.
func (b Builder) Build(name string) *Comp {
	b.validate()

	c := &Comp{
		Base:          unit.NewBase(name, b.sched, b.registry),
		pendingWrites: make(map[unit.Requester]int),
		writeBlocked:  make(map[unit.Requester]bool),
		loadSlots:     slots{capacity: b.widgetSlots},
		storeSlots:    slots{capacity: b.widgetSlots},
	}

	registry := stats.OrNop(b.registry)
	c.request = newBus(name+".Request", b.sched, b.link, registry)
	c.response = newBus(name+".Response", b.sched, b.link, registry)
	c.loads = &widgetPort{widget: b.buildWidget(name+".LoadWidget", false)}
	c.stores = &widgetPort{widget: b.buildWidget(name+".StoreWidget", true)}
	c.pendingWriteSt = c.Statistic("pending_writes")
	c.latencyStat = c.Statistic("latency_ps")

	return c
}

func (b Builder) buildWidget(name string, isStore bool) *Widget {
	return &Widget{
		Base:       unit.NewBase(name, b.sched, b.registry),
		downstream: b.downstream,
		lineSize:   b.lineSize,
		qSize:      b.widgetQSize,
		isStore:    isStore,
	}
}

func (b Builder) validate() {
	if b.downstream == nil {
		panic("busbridge.Builder: downstream is nil; call WithDownstream")
	}

	if b.link.bandwidthGbps <= 0 || b.link.numLinks <= 0 {
		panic("busbridge.Builder: bandwidth and number of links must be > 0")
	}

	if b.widgetSlots <= 0 || b.widgetQSize <= 0 {
		panic("busbridge.Builder: widget slots and queue size must be > 0")
	}

	if b.lineSize == 0 {
		panic("busbridge.Builder: line size must be > 0")
	}
}
