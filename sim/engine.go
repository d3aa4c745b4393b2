package sim

// TimeTeller reports the current simulated time.
type TimeTeller interface {
	CurrentTime() VTime
}

// EventScheduler accepts events that fire at or after the current time.
type EventScheduler interface {
	TimeTeller
	Schedule(e Event)
}

// SimulationEndHandler is notified once the event queue has been drained and
// the driver declares the run finished.
type SimulationEndHandler interface {
	Handle(now VTime)
}

// Engine drives a discrete event simulation.
//
// Run processes events until none are left and may be called again after new
// events are scheduled. Pause and Continue are safe to call from goroutines
// other than the one executing Run.
type Engine interface {
	Hookable
	EventScheduler

	Run() error
	Pause()
	Continue()

	RegisterSimulationEndHandler(handler SimulationEndHandler)
	Finished()
}
