package unit

import (
	"log"
	"reflect"

	"github.com/sarchlab/nicmem/sim"
)

// A Scheduler lets stages request future invocations. The stages never
// advance time themselves.
type Scheduler interface {
	CurrentTime() sim.VTime
	CurrentTimeNano() uint64

	// SchedCallback invokes cb after delay.
	SchedCallback(delay sim.VTime, cb Callback)

	// SchedResume calls target.Resume(src) after delay.
	SchedResume(delay sim.VTime, target, src Requester)
}

type callbackEvent struct {
	*sim.EventBase
	cb Callback
}

type resumeEvent struct {
	*sim.EventBase
	target Requester
	src    Requester
}

// Name describes the resume for event logs.
func (e *resumeEvent) Name() string {
	if e.src == nil {
		return "Resume " + e.target.Name()
	}

	return "Resume " + e.target.Name() + " by " + e.src.Name()
}

// EngineScheduler implements Scheduler on top of a sim.Engine. Invocations
// requested for the same time run in the order they were requested.
type EngineScheduler struct {
	engine sim.Engine
}

// NewScheduler creates an EngineScheduler that schedules on engine.
func NewScheduler(engine sim.Engine) *EngineScheduler {
	return &EngineScheduler{engine: engine}
}

// Name returns the name of the scheduler.
func (s *EngineScheduler) Name() string {
	return "Scheduler"
}

// CurrentTime returns the current simulated time.
func (s *EngineScheduler) CurrentTime() sim.VTime {
	return s.engine.CurrentTime()
}

// CurrentTimeNano returns the current simulated time in nanoseconds.
func (s *EngineScheduler) CurrentTimeNano() uint64 {
	return s.engine.CurrentTime().Nanoseconds()
}

// SchedCallback invokes cb after delay.
func (s *EngineScheduler) SchedCallback(delay sim.VTime, cb Callback) {
	if cb == nil {
		log.Panic("scheduling a nil callback")
	}

	evt := &callbackEvent{
		EventBase: sim.NewEventBase(s.engine.CurrentTime()+delay, s),
		cb:        cb,
	}
	s.engine.Schedule(evt)
}

// SchedResume calls target.Resume(src) after delay.
func (s *EngineScheduler) SchedResume(delay sim.VTime, target, src Requester) {
	evt := &resumeEvent{
		EventBase: sim.NewEventBase(s.engine.CurrentTime()+delay, s),
		target:    target,
		src:       src,
	}
	s.engine.Schedule(evt)
}

// Handle runs the scheduled invocation.
func (s *EngineScheduler) Handle(e sim.Event) error {
	switch e := e.(type) {
	case *callbackEvent:
		e.cb()
	case *resumeEvent:
		e.target.Resume(e.src)
	default:
		log.Panicf("cannot handle event of %s", reflect.TypeOf(e))
	}

	return nil
}
