package sim

import (
	"log"
	"reflect"
	"sync"
)

// SerialEngine handles events one at a time on the goroutine that calls Run.
//
// Events are ordered by time. At equal times, primary events run before
// secondary ones and otherwise in the order they were scheduled.
type SerialEngine struct {
	HookableBase

	mu      sync.Mutex
	resumed *sync.Cond
	paused  bool
	now     VTime
	queue   EventQueue

	runMu sync.Mutex

	endHandlers []SimulationEndHandler
}

// NewSerialEngine creates an engine at time 0 with an empty queue.
func NewSerialEngine() *SerialEngine {
	e := &SerialEngine{queue: NewEventQueue()}
	e.resumed = sync.NewCond(&e.mu)

	return e
}

// Schedule enqueues evt. Scheduling an event before the current time panics.
func (e *SerialEngine) Schedule(evt Event) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if evt.Time() < e.now {
		log.Panicf("cannot schedule %s at %d, now is %d",
			reflect.TypeOf(evt), evt.Time(), e.now)
	}

	e.queue.Push(evt)
}

// CurrentTime returns the time of the event being handled, or of the last
// handled event once Run returns.
func (e *SerialEngine) CurrentTime() VTime {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.now
}

// Run handles events until the queue is empty or a handler returns an error.
func (e *SerialEngine) Run() error {
	e.runMu.Lock()
	defer e.runMu.Unlock()

	for {
		evt := e.advance()
		if evt == nil {
			return nil
		}

		if err := e.dispatch(evt); err != nil {
			return err
		}
	}
}

// advance waits while paused, pops the next event and moves the clock to it.
func (e *SerialEngine) advance() Event {
	e.mu.Lock()
	defer e.mu.Unlock()

	for e.paused {
		e.resumed.Wait()
	}

	evt := e.queue.Pop()
	if evt == nil {
		return nil
	}

	if evt.Time() < e.now {
		log.Panicf("event %s at %d is behind the clock at %d",
			reflect.TypeOf(evt), evt.Time(), e.now)
	}

	e.now = evt.Time()

	return evt
}

func (e *SerialEngine) dispatch(evt Event) error {
	ctx := HookCtx{Domain: e, Pos: HookPosBeforeEvent, Item: evt}
	e.InvokeHook(ctx)

	err := evt.Handler().Handle(evt)

	ctx.Pos = HookPosAfterEvent
	e.InvokeHook(ctx)

	return err
}

// Pause stops Run before the next event. The event being handled, if any,
// completes.
func (e *SerialEngine) Pause() {
	e.mu.Lock()
	e.paused = true
	e.mu.Unlock()
}

// Continue lets a paused Run proceed.
func (e *SerialEngine) Continue() {
	e.mu.Lock()
	e.paused = false
	e.mu.Unlock()

	e.resumed.Broadcast()
}

// RegisterSimulationEndHandler adds a handler that Finished notifies.
func (e *SerialEngine) RegisterSimulationEndHandler(
	handler SimulationEndHandler,
) {
	e.endHandlers = append(e.endHandlers, handler)
}

// Finished notifies the end handlers with the current time.
func (e *SerialEngine) Finished() {
	now := e.CurrentTime()
	for _, h := range e.endHandlers {
		h.Handle(now)
	}
}
