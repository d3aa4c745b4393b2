package unit

import (
	"log"

	"github.com/sarchlab/nicmem/stats"
)

// Base carries the state that every stage shares: its name, its scheduler,
// its statistics registry and the single requester it has told to block.
type Base struct {
	name    string
	Sched   Scheduler
	Stats   stats.Registry
	blocked Requester
}

// NewBase creates a Base. A nil registry discards statistics.
func NewBase(name string, sched Scheduler, registry stats.Registry) *Base {
	if sched == nil {
		log.Panicf("%s: scheduler is required", name)
	}

	return &Base{
		name:  name,
		Sched: sched,
		Stats: stats.OrNop(registry),
	}
}

// Name returns the name of the stage.
func (b *Base) Name() string {
	return b.name
}

// Statistic registers a statistic under the name of the stage.
func (b *Base) Statistic(name string) stats.Statistic {
	return b.Stats.Register(b.name, name)
}

// BlockedSource returns the requester that is waiting to be resumed, if any.
func (b *Base) BlockedSource() Requester {
	return b.blocked
}

// MarkBlocked records src as the requester that must be resumed. A stage
// holds at most one blocked requester at a time.
func (b *Base) MarkBlocked(src Requester) {
	if b.blocked != nil && b.blocked != src {
		log.Panicf("%s: %s is blocked while %s is already blocked",
			b.name, src.Name(), b.blocked.Name())
	}

	b.blocked = src
}

// ReleaseBlocked schedules a zero-delay Resume of the blocked requester on
// behalf of self. It returns false if no requester was blocked.
func (b *Base) ReleaseBlocked(self Requester) bool {
	if b.blocked == nil {
		return false
	}

	src := b.blocked
	b.blocked = nil
	b.Sched.SchedResume(0, src, self)

	return true
}
