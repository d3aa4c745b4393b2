// Package mshr tracks the cache lines that are being fetched from the
// backend and the requests waiting on them.
package mshr

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/unit"
)

// Entry is one in-flight line fill.
type Entry struct {
	Address uint64
	Waiters []*unit.Entry
}

// MSHR records the cache's outstanding fills, at most one per line.
type MSHR struct {
	Capacity int
	entries  map[uint64]*Entry
}

// New creates an MSHR that tracks up to capacity lines.
func New(capacity int) *MSHR {
	return &MSHR{
		Capacity: capacity,
		entries:  make(map[uint64]*Entry, capacity),
	}
}

// Lookup returns the entry of the line, if the line is being fetched.
func (m *MSHR) Lookup(addr uint64) (*Entry, bool) {
	e, ok := m.entries[addr]
	return e, ok
}

// AddEntry starts tracking a fill of the line at addr.
func (m *MSHR) AddEntry(addr uint64) (*Entry, error) {
	if _, ok := m.entries[addr]; ok {
		return nil, fmt.Errorf("trying to add an address that is already in MSHR")
	}

	if m.IsFull() {
		return nil, fmt.Errorf("trying to add to a full MSHR")
	}

	e := &Entry{Address: addr}
	m.entries[addr] = e

	return e, nil
}

// AddWaiter appends a request to the entry of the line at addr.
func (m *MSHR) AddWaiter(addr uint64, w *unit.Entry) error {
	e, ok := m.entries[addr]
	if !ok {
		return fmt.Errorf("trying to add a request to an non-exist entry")
	}

	e.Waiters = append(e.Waiters, w)

	return nil
}

// RemoveEntry stops tracking the line at addr and returns its entry.
func (m *MSHR) RemoveEntry(addr uint64) (*Entry, error) {
	e, ok := m.entries[addr]
	if !ok {
		return nil, fmt.Errorf("trying to remove an non-exist entry")
	}

	delete(m.entries, addr)

	return e, nil
}

// Len returns the number of lines being fetched.
func (m *MSHR) Len() int {
	return len(m.entries)
}

// IsFull tells if no more fill can be tracked.
func (m *MSHR) IsFull() bool {
	return len(m.entries) >= m.Capacity
}

// Reset drops every entry.
func (m *MSHR) Reset() {
	m.entries = make(map[uint64]*Entry, m.Capacity)
}
