package sim

import "strconv"

// VTime is a point in simulated time, measured in picoseconds.
type VTime uint64

// Common durations expressed in VTime.
const (
	Picosecond  VTime = 1
	Nanosecond        = 1000 * Picosecond
	Microsecond       = 1000 * Nanosecond
)

// Nanoseconds returns the time truncated to whole nanoseconds.
func (t VTime) Nanoseconds() uint64 {
	return uint64(t / Nanosecond)
}

// NanosecondsToVTime converts a duration in nanoseconds to VTime.
func NanosecondsToVTime(ns uint64) VTime {
	return VTime(ns) * Nanosecond
}

func (t VTime) String() string {
	return strconv.FormatUint(uint64(t), 10) + "ps"
}

// An Event fires at a point in simulated time and is handled by exactly one
// Handler.
type Event interface {
	Time() VTime
	Handler() Handler

	// IsSecondary reports whether the event runs after every primary event
	// of the same time.
	IsSecondary() bool
}

// EventBase implements the Event getters. Concrete events embed it.
type EventBase struct {
	ID        string
	time      VTime
	handler   Handler
	secondary bool
}

// NewEventBase creates a primary event base at t for handler.
func NewEventBase(t VTime, handler Handler) *EventBase {
	return &EventBase{
		ID:      GetIDGenerator().Generate(),
		time:    t,
		handler: handler,
	}
}

// NewSecondaryEventBase creates a secondary event base at t for handler.
func NewSecondaryEventBase(t VTime, handler Handler) *EventBase {
	e := NewEventBase(t, handler)
	e.secondary = true

	return e
}

// Time returns when the event fires.
func (e EventBase) Time() VTime { return e.time }

// Handler returns the handler of the event.
func (e EventBase) Handler() Handler { return e.handler }

// IsSecondary reports whether the event is secondary.
func (e EventBase) IsSecondary() bool { return e.secondary }

// Handler reacts to events. An event may only mutate the state of its own
// handler; effects on other handlers go through new events.
type Handler interface {
	Handle(e Event) error
}

// Named is implemented by anything with a printable name.
type Named interface {
	Name() string
}
