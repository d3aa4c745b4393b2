package cache

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nicmem/mem/membackend"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"github.com/sarchlab/nicmem/stats"
	"go.uber.org/mock/gomock"
)

type backendCall struct {
	req *unit.Request
	cb  unit.Callback
}

var _ = Describe("Cache", func() {
	var (
		mockCtrl  *gomock.Controller
		engine    *sim.SerialEngine
		sched     *unit.EngineScheduler
		requester *MockRequester
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		sched = unit.NewScheduler(engine)
		requester = NewMockRequester(mockCtrl)
		requester.EXPECT().Name().Return("Requester").AnyTimes()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("with a mocked backend", func() {
		var (
			backend   *MockUnit
			collector *stats.Collector
			c         *Comp
			loads     []backendCall
			stores    []*unit.Request
		)

		BeforeEach(func() {
			loads = nil
			stores = nil
			collector = stats.NewCollector()
			backend = NewMockUnit(mockCtrl)
			backend.EXPECT().Name().Return("Backend").AnyTimes()
			backend.EXPECT().
				Load(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(
					_ unit.Requester, req *unit.Request, cb unit.Callback,
				) bool {
					loads = append(loads, backendCall{req: req, cb: cb})
					return false
				}).
				AnyTimes()
			backend.EXPECT().
				Store(gomock.Any(), gomock.Any()).
				DoAndReturn(func(_ unit.Requester, req *unit.Request) bool {
					stores = append(stores, req)
					return false
				}).
				AnyTimes()

			c = MakeBuilder().
				WithScheduler(sched).
				WithStats(collector).
				WithBackend(backend).
				WithLineSize(64).
				WithByteSize(128).
				WithNumMSHR(2).
				Build("Cache")
		})

		It("should coalesce misses and block when MSHRs run out", func() {
			var done []uint64
			record := func(addr uint64) unit.Callback {
				return func() { done = append(done, addr) }
			}

			Expect(c.Load(requester, unit.NewRequest(0x100, 8), record(0x100))).
				To(BeFalse())
			Expect(c.Load(requester, unit.NewRequest(0x108, 8), record(0x108))).
				To(BeFalse())
			Expect(c.Load(requester, unit.NewRequest(0x200, 8), record(0x200))).
				To(BeFalse())
			Expect(c.Load(requester, unit.NewRequest(0x300, 8), record(0x300))).
				To(BeTrue())

			Expect(loads).To(HaveLen(2))
			Expect(loads[0].req.Address).To(Equal(uint64(0x100)))
			Expect(loads[1].req.Address).To(Equal(uint64(0x200)))
			Expect(c.NumPending()).To(Equal(2))

			requester.EXPECT().Resume(c)
			loads[0].cb()

			Expect(loads).To(HaveLen(3))
			Expect(loads[2].req.Address).To(Equal(uint64(0x300)))
			Expect(c.NumPending()).To(Equal(2))

			Expect(engine.Run()).To(Succeed())
			Expect(done).To(Equal([]uint64{0x100, 0x108}))

			loads[1].cb()
			loads[2].cb()
			Expect(engine.Run()).To(Succeed())

			Expect(done).To(Equal([]uint64{0x100, 0x108, 0x200, 0x300}))
			Expect(c.NumPending()).To(Equal(0))

			coalesced, _ := collector.Lookup("Cache", "coalesced")
			Expect(coalesced.Count).To(Equal(uint64(1)))
		})

		It("should write back the least recently used line", func() {
			c.Load(requester, unit.NewRequest(0x000, 8), func() {})
			loads[0].cb()
			c.Load(requester, unit.NewRequest(0x040, 8), func() {})
			loads[1].cb()
			Expect(stores).To(BeEmpty())

			Expect(c.Load(requester, unit.NewRequest(0x000, 8), func() {})).
				To(BeFalse())
			Expect(loads).To(HaveLen(2))

			c.Store(requester, unit.NewRequest(0x080, 8))
			loads[2].cb()

			Expect(stores).To(HaveLen(1))
			Expect(stores[0].Address).To(Equal(uint64(0x040)))
			Expect(c.ResidentLines()).To(Equal([]uint64{0x000, 0x080}))
			Expect(c.IsResident(0x44)).To(BeFalse())
			Expect(engine.Run()).To(Succeed())
		})

		It("should call back on hits after the hit latency", func() {
			c = MakeBuilder().
				WithScheduler(sched).
				WithBackend(backend).
				WithHitLatency(2 * sim.Nanosecond).
				Build("Cache")

			c.Load(requester, unit.NewRequest(0x0, 8), func() {})
			loads[0].cb()
			Expect(engine.Run()).To(Succeed())

			start := sched.CurrentTime()
			var hitAt sim.VTime
			c.StoreCB(requester, unit.NewRequest(0x8, 8), func() {
				hitAt = sched.CurrentTime()
			})

			Expect(engine.Run()).To(Succeed())
			Expect(hitAt - start).To(Equal(2 * sim.Nanosecond))
		})

		It("should report its bookkeeping", func() {
			c.Load(requester, unit.NewRequest(0x0, 8), func() {})
			Expect(c.Status()).To(Equal(
				"Cache: lines 0/2, pending 1/2, retry 0, backend blocked false"))
		})

		It("should panic when a second requester blocks", func() {
			other := NewMockRequester(mockCtrl)
			other.EXPECT().Name().Return("Other").AnyTimes()

			c.Load(requester, unit.NewRequest(0x000, 8), func() {})
			c.Load(requester, unit.NewRequest(0x100, 8), func() {})
			Expect(c.Load(requester, unit.NewRequest(0x200, 8), func() {})).
				To(BeTrue())

			Expect(func() {
				c.Load(other, unit.NewRequest(0x300, 8), func() {})
			}).To(Panic())
		})
	})

	Context("with a blocking backend", func() {
		It("should hold misses until the backend resumes it", func() {
			backend := NewMockUnit(mockCtrl)
			backend.EXPECT().Name().Return("Backend").AnyTimes()

			var calls []backendCall
			first := true
			backend.EXPECT().
				Load(gomock.Any(), gomock.Any(), gomock.Any()).
				DoAndReturn(func(
					_ unit.Requester, req *unit.Request, cb unit.Callback,
				) bool {
					calls = append(calls, backendCall{req: req, cb: cb})
					blocked := first
					first = false
					return blocked
				}).
				Times(2)

			c := MakeBuilder().
				WithScheduler(sched).
				WithBackend(backend).
				WithNumMSHR(4).
				Build("Cache")

			Expect(c.Load(requester, unit.NewRequest(0x000, 8), func() {})).
				To(BeFalse())
			Expect(c.Load(requester, unit.NewRequest(0x040, 8), func() {})).
				To(BeTrue())
			Expect(calls).To(HaveLen(1))

			requester.EXPECT().Resume(c)
			c.Resume(backend)

			Expect(calls).To(HaveLen(2))
			Expect(engine.Run()).To(Succeed())
		})
	})

	Context("with a real backend", func() {
		It("should serve a stream of loads with bounded misses", func() {
			backend := membackend.MakeBuilder().
				WithScheduler(sched).
				WithReadLatency(50 * sim.Nanosecond).
				WithNumSlots(4).
				Build("Mem")
			c := MakeBuilder().
				WithScheduler(sched).
				WithBackend(backend).
				WithByteSize(4 * 64).
				WithNumMSHR(2).
				Build("Cache")

			requester.EXPECT().Resume(c).AnyTimes()

			completed := 0
			for i := 0; i < 2; i++ {
				Expect(c.Load(requester,
					unit.NewRequest(uint64(i)*64, 64),
					func() { completed++ })).To(BeFalse())
			}

			Expect(c.NumPending()).To(BeNumerically("<=", 2))
			Expect(engine.Run()).To(Succeed())

			Expect(c.Load(requester, unit.NewRequest(0, 64),
				func() { completed++ })).To(BeFalse())
			Expect(engine.Run()).To(Succeed())

			Expect(completed).To(Equal(3))
			Expect(sched.CurrentTime()).To(Equal(50 * sim.Nanosecond))
		})
	})
})
