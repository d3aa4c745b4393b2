package busbridge

import (
	"fmt"
	"math"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

// AckAddress marks a response that acknowledges a write sent without a
// completion callback.
const AckAddress = ^uint64(0)

// A tlp is one transaction layer packet travelling on a bus channel.
type tlp struct {
	address uint64
	payload uint64
	deliver func(t *tlp)
}

type linkConfig struct {
	bandwidthGbps float64
	numLinks      int
	latency       sim.VTime
	tlpOverhead   uint64
	dllBytes      uint64
	dllInterval   int
}

// bus is one direction of the framed link. It transfers one packet at a
// time; a packet is delivered latency after its transfer ends and the next
// packet starts transferring as soon as the previous transfer ends.
type bus struct {
	name  string
	sched unit.Scheduler
	cfg   linkConfig

	queue    []*tlp
	busy     bool
	numTLPs  uint64
	numBytes uint64

	bytesStat stats.Statistic
	dllStat   stats.Statistic
}

func newBus(
	name string,
	sched unit.Scheduler,
	cfg linkConfig,
	registry stats.Registry,
) *bus {
	return &bus{
		name:      name,
		sched:     sched,
		cfg:       cfg,
		bytesStat: registry.Register(name, "bytes"),
		dllStat:   registry.Register(name, "dll_frames"),
	}
}

// transferTime returns the time the link needs to move n bytes.
func (b *bus) transferTime(n uint64) sim.VTime {
	bitsPerNs := float64(b.cfg.numLinks) * b.cfg.bandwidthGbps
	ps := math.Ceil(float64(n) * 8 * 1000 / bitsPerNs)

	return sim.VTime(ps)
}

// frameBytes returns the bytes of the next frame carrying payload, including
// the periodic DLL frame.
func (b *bus) frameBytes(payload uint64) uint64 {
	n := payload + b.cfg.tlpOverhead
	b.numTLPs++

	if b.cfg.dllInterval > 0 && b.numTLPs%uint64(b.cfg.dllInterval) == 0 {
		n += b.cfg.dllBytes
		b.dllStat.AddData(b.cfg.dllBytes)
	}

	return n
}

func (b *bus) send(t *tlp) {
	b.queue = append(b.queue, t)

	if !b.busy {
		b.startNext()
	}
}

func (b *bus) startNext() {
	if len(b.queue) == 0 {
		b.busy = false
		return
	}

	t := b.queue[0]
	b.queue[0] = nil
	b.queue = b.queue[1:]

	n := b.frameBytes(t.payload)
	b.numBytes += n
	b.bytesStat.AddData(n)
	b.busy = true

	b.sched.SchedCallback(b.transferTime(n), func() {
		b.sched.SchedCallback(b.cfg.latency, func() { t.deliver(t) })
		b.startNext()
	})
}

func (b *bus) status() string {
	return fmt.Sprintf("%s queued %d busy %t", b.name, len(b.queue), b.busy)
}
