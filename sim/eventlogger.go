package sim

import (
	"log"
	"reflect"
)

// EventLogger is a hook that writes one line per handled event in the form
// "<time>, <event> -> <handler>".
type EventLogger struct {
	logger *log.Logger
}

// NewEventLogger creates an EventLogger that writes into logger.
func NewEventLogger(logger *log.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func logs the event before it is handled.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	evt, ok := ctx.Item.(Event)
	if !ok {
		return
	}

	target := "?"
	if named, ok := evt.Handler().(Named); ok {
		target = named.Name()
	}

	h.logger.Printf("%d, %s -> %s", evt.Time(), describe(evt), target)
}

func describe(evt Event) string {
	if n, ok := evt.(Named); ok {
		return n.Name()
	}

	return reflect.TypeOf(evt).String()
}
