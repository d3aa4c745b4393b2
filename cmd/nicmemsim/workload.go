package main

import (
	"math/rand"

	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/memmodel"
	"github.com/sarchlab/nicmem/monitoring"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
)

var hostKinds = []memmodel.OpKind{
	memmodel.HostLoad,
	memmodel.HostStore,
	memmodel.HostCopy,
}

var nicKinds = []memmodel.OpKind{
	memmodel.BusDmaFromHost,
	memmodel.BusDmaToHost,
	memmodel.HostBusRead,
	memmodel.HostBusWrite,
	memmodel.LocalLoad,
}

// maxArrivalGap bounds the time between two Works of a thread.
const maxArrivalGap = 200 * sim.Nanosecond

type opPlan struct {
	kind    memmodel.OpKind
	addr    uint64
	srcAddr uint64
	length  uint64
}

type workPlan struct {
	nic     bool
	thread  int
	pid     int
	arrival sim.VTime
	ops     []opPlan
}

// A workload is a seeded random stream of Works for every host core and
// every NIC unit.
type workload struct {
	plans []workPlan

	retired     int
	hostLatency stats.Statistic
	nicLatency  stats.Statistic
}

type workloadParams struct {
	numCores       int
	numNicUnits    int
	worksPerThread int
	opsPerWork     int
	maxOpSize      uint64
	lineSize       uint64
	footprint      uint64
	seed           int64
}

func newWorkload(p workloadParams, registry stats.Registry) *workload {
	registry = stats.OrNop(registry)

	return &workload{
		plans:       planWorks(p),
		hostLatency: registry.Register("Workload", "host_work_latency_ps"),
		nicLatency:  registry.Register("Workload", "nic_work_latency_ps"),
	}
}

func planWorks(p workloadParams) []workPlan {
	rng := rand.New(rand.NewSource(p.seed))

	var plans []workPlan

	for core := 0; core < p.numCores; core++ {
		plans = append(plans, planThread(rng, p, false, core)...)
	}

	for nic := 0; nic < p.numNicUnits; nic++ {
		plans = append(plans, planThread(rng, p, true, nic)...)
	}

	return plans
}

func planThread(
	rng *rand.Rand,
	p workloadParams,
	nic bool,
	thread int,
) []workPlan {
	kinds := hostKinds
	if nic {
		kinds = nicKinds
	}

	plans := make([]workPlan, 0, p.worksPerThread)
	arrival := sim.VTime(0)

	for i := 0; i < p.worksPerThread; i++ {
		arrival += sim.VTime(rng.Int63n(int64(maxArrivalGap)))

		w := workPlan{
			nic:     nic,
			thread:  thread,
			pid:     thread + 1,
			arrival: arrival,
		}

		for j := 0; j < p.opsPerWork; j++ {
			w.ops = append(w.ops, opPlan{
				kind:    kinds[rng.Intn(len(kinds))],
				addr:    randomLine(rng, p),
				srcAddr: randomLine(rng, p),
				length:  randomLength(rng, p),
			})
		}

		plans = append(plans, w)
	}

	return plans
}

func randomLine(rng *rand.Rand, p workloadParams) uint64 {
	return uint64(rng.Int63n(int64(p.footprint))) &^ (p.lineSize - 1)
}

func randomLength(rng *rand.Rand, p workloadParams) uint64 {
	numLines := p.maxOpSize / p.lineSize
	if numLines == 0 {
		return p.maxOpSize
	}

	return uint64(rng.Int63n(int64(numLines))+1) * p.lineSize
}

func (wp workPlan) memOps() []*memmodel.MemOp {
	ops := make([]*memmodel.MemOp, 0, len(wp.ops))

	for _, o := range wp.ops {
		if o.kind == memmodel.HostCopy {
			ops = append(ops, memmodel.NewCopyOp(o.addr, o.srcAddr, o.length))
			continue
		}

		ops = append(ops, memmodel.NewOp(o.kind, o.addr, o.length))
	}

	return ops
}

// submit schedules every Work at its arrival time.
func (w *workload) submit(
	m *memmodel.MemoryModel,
	sched unit.Scheduler,
	bar *monitoring.ProgressBar,
) {
	for _, plan := range w.plans {
		sched.SchedCallback(plan.arrival, func() {
			start := sched.CurrentTime()

			if bar != nil {
				bar.IncrementInProgress(1)
			}

			latency := w.hostLatency
			if plan.nic {
				latency = w.nicLatency
			}

			done := func() {
				latency.AddData(uint64(sched.CurrentTime() - start))
				w.retired++

				if bar != nil {
					bar.MoveInProgressToFinished(1)
				}
			}

			if plan.nic {
				m.SchedNicCallback(plan.thread, plan.pid, plan.memOps(), done)
			} else {
				m.SchedHostCallback(plan.thread, plan.memOps(), done)
			}
		})
	}
}
