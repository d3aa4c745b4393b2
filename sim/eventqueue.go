package sim

import (
	"container/heap"
	"sync"
)

// EventQueue orders pending events.
type EventQueue interface {
	Push(evt Event)
	Pop() Event
	Len() int
	Peek() Event
}

// EventQueueImpl is a goroutine-safe EventQueue backed by a binary heap.
//
// Events pop in time order. At equal times primary events pop before
// secondary events, and events of the same kind pop in push order, so a
// replayed schedule always yields the same sequence.
type EventQueueImpl struct {
	mu     sync.Mutex
	heap   eventHeap
	pushed uint64
}

// NewEventQueue creates an empty queue.
func NewEventQueue() *EventQueueImpl {
	return &EventQueueImpl{}
}

// Push adds evt to the queue.
func (q *EventQueueImpl) Push(evt Event) {
	q.mu.Lock()
	defer q.mu.Unlock()

	heap.Push(&q.heap, pending{evt: evt, seq: q.pushed})
	q.pushed++
}

// Pop removes and returns the earliest event, or nil when empty.
func (q *EventQueueImpl) Pop() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil
	}

	return heap.Pop(&q.heap).(pending).evt
}

// Peek returns the earliest event without removing it, or nil when empty.
func (q *EventQueueImpl) Peek() Event {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.heap) == 0 {
		return nil
	}

	return q.heap[0].evt
}

// Len returns the number of queued events.
func (q *EventQueueImpl) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()

	return len(q.heap)
}

type pending struct {
	evt Event
	seq uint64
}

func (p pending) before(o pending) bool {
	if t, ot := p.evt.Time(), o.evt.Time(); t != ot {
		return t < ot
	}

	if ps, qs := p.evt.IsSecondary(), o.evt.IsSecondary(); ps != qs {
		return qs
	}

	return p.seq < o.seq
}

type eventHeap []pending

func (h eventHeap) Len() int           { return len(h) }
func (h eventHeap) Less(i, j int) bool { return h[i].before(h[j]) }
func (h eventHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) {
	*h = append(*h, x.(pending))
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	last := old[n-1]
	old[n-1] = pending{}
	*h = old[:n-1]

	return last
}
