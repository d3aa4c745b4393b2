package mux

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/nicmem/mem/unit"
	"github.com/sarchlab/nicmem/sim"
	"go.uber.org/mock/gomock"
)

var _ = Describe("Mux", func() {
	var (
		mockCtrl   *gomock.Controller
		engine     *sim.SerialEngine
		sched      *unit.EngineScheduler
		a, b, d    *MockRequester
		downstream *MockUnit
		m          *Comp
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		engine = sim.NewSerialEngine()
		sched = unit.NewScheduler(engine)
		a = NewMockRequester(mockCtrl)
		a.EXPECT().Name().Return("A").AnyTimes()
		b = NewMockRequester(mockCtrl)
		b.EXPECT().Name().Return("B").AnyTimes()
		d = NewMockRequester(mockCtrl)
		d.EXPECT().Name().Return("D").AnyTimes()
		downstream = NewMockUnit(mockCtrl)
		downstream.EXPECT().Name().Return("Cache").AnyTimes()

		m = MakeBuilder().
			WithScheduler(sched).
			WithDownstream(downstream).
			Build("Mux")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should forward immediately when free", func() {
		downstream.EXPECT().
			Load(m, unit.NewRequest(0x40, 64), gomock.Any()).
			Return(false)
		downstream.EXPECT().
			Store(m, unit.NewRequest(0x80, 64)).
			Return(false)

		Expect(m.Load(a, unit.NewRequest(0x40, 64), func() {})).To(BeFalse())
		Expect(m.Store(b, unit.NewRequest(0x80, 64))).To(BeFalse())
	})

	It("should resume the blocked source and then drain the queue", func() {
		var events []string

		gomock.InOrder(
			downstream.EXPECT().
				Load(m, unit.NewRequest(0xA0, 8), gomock.Any()).
				Return(true),
			downstream.EXPECT().
				Load(m, unit.NewRequest(0xB0, 8), gomock.Any()).
				DoAndReturn(func(
					_ unit.Requester, _ *unit.Request, _ unit.Callback,
				) bool {
					events = append(events, "forward B")
					return false
				}),
		)

		Expect(m.Load(a, unit.NewRequest(0xA0, 8), func() {})).To(BeTrue())
		Expect(m.BlockedSource()).To(BeIdenticalTo(a))

		Expect(m.Load(b, unit.NewRequest(0xB0, 8), func() {})).To(BeTrue())
		Expect(m.NumQueued()).To(Equal(1))
		Expect(m.Status()).To(Equal("Mux: queued 1, blocked source A"))

		a.EXPECT().Resume(m).Do(func(unit.Requester) {
			events = append(events, "resume A")
		})
		b.EXPECT().Resume(m).Do(func(unit.Requester) {
			events = append(events, "resume B")
		})

		m.Resume(downstream)
		Expect(engine.Run()).To(Succeed())

		Expect(events).To(Equal([]string{"forward B", "resume A", "resume B"}))
		Expect(m.NumQueued()).To(Equal(0))
		Expect(m.BlockedSource()).To(BeNil())
	})

	It("should stop draining when the downstream blocks again", func() {
		calls := 0
		downstream.EXPECT().
			StoreCB(m, gomock.Any(), gomock.Any()).
			DoAndReturn(func(
				_ unit.Requester, _ *unit.Request, _ unit.Callback,
			) bool {
				calls++
				return calls <= 2
			}).
			Times(3)

		m.StoreCB(a, unit.NewRequest(0xA0, 8), func() {})
		m.StoreCB(b, unit.NewRequest(0xB0, 8), func() {})
		m.StoreCB(d, unit.NewRequest(0xD0, 8), func() {})

		a.EXPECT().Resume(m)
		m.Resume(downstream)
		Expect(engine.Run()).To(Succeed())

		Expect(calls).To(Equal(2))
		Expect(m.BlockedSource()).To(BeIdenticalTo(b))
		Expect(m.NumQueued()).To(Equal(1))

		b.EXPECT().Resume(m)
		d.EXPECT().Resume(m)
		m.Resume(downstream)
		Expect(engine.Run()).To(Succeed())

		Expect(calls).To(Equal(3))
		Expect(m.NumQueued()).To(Equal(0))
	})

	It("should spread a long drain over several steps", func() {
		first := true
		var forwardedAt []sim.VTime
		downstream.EXPECT().
			Load(m, gomock.Any(), gomock.Any()).
			DoAndReturn(func(
				_ unit.Requester, _ *unit.Request, _ unit.Callback,
			) bool {
				if first {
					first = false
					return true
				}

				forwardedAt = append(forwardedAt, sched.CurrentTime())
				return false
			}).
			Times(4)

		others := []*MockRequester{b, d, NewMockRequester(mockCtrl)}
		others[2].EXPECT().Name().Return("E").AnyTimes()

		m.Load(a, unit.NewRequest(0, 8), func() {})
		for i, r := range others {
			Expect(m.Load(r, unit.NewRequest(uint64(i+1)*64, 8), func() {})).
				To(BeTrue())
			r.EXPECT().Resume(m)
		}
		a.EXPECT().Resume(m)

		sched.SchedCallback(sim.Nanosecond, func() { m.Resume(downstream) })
		Expect(engine.Run()).To(Succeed())

		Expect(forwardedAt).To(HaveLen(3))
		Expect(m.NumQueued()).To(Equal(0))
	})

	It("should panic when resumed while not blocked", func() {
		Expect(func() { m.Resume(downstream) }).To(Panic())
	})
})
