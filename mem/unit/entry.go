package unit

import "github.com/sarchlab/nicmem/sim"

// An Entry is a request waiting inside a stage.
type Entry struct {
	Src      Requester
	Req      *Request
	Callback Callback
	Time     sim.VTime
}

// EntryQueue is a FIFO of entries.
type EntryQueue struct {
	entries []*Entry
	head    int
}

// Push appends an entry to the tail.
func (q *EntryQueue) Push(e *Entry) {
	q.entries = append(q.entries, e)
}

// Peek returns the head entry, or nil if the queue is empty.
func (q *EntryQueue) Peek() *Entry {
	if q.Len() == 0 {
		return nil
	}

	return q.entries[q.head]
}

// Pop removes and returns the head entry, or nil if the queue is empty.
func (q *EntryQueue) Pop() *Entry {
	if q.Len() == 0 {
		return nil
	}

	e := q.entries[q.head]
	q.entries[q.head] = nil
	q.head++

	if q.head == len(q.entries) {
		q.entries = q.entries[:0]
		q.head = 0
	} else if q.head > 64 && q.head*2 > len(q.entries) {
		n := copy(q.entries, q.entries[q.head:])
		q.entries = q.entries[:n]
		q.head = 0
	}

	return e
}

// Len returns the number of entries in the queue.
func (q *EntryQueue) Len() int {
	return len(q.entries) - q.head
}
