package memmodel

import (
	"fmt"
	"log"
	"strings"

	"github.com/sarchlab/nicmem/mem/detailedmem"
	"github.com/sarchlab/nicmem/mem/unit"
)

// A Component is a named part of the model that can report its state.
type Component interface {
	Name() string
	Status() string
}

// MemoryModel connects host cores and NIC units to a shared memory.
type MemoryModel struct {
	name       string
	hostCores  []*Thread
	nicUnits   []*Thread
	detailed   detailedmem.Memory
	components []Component
}

// Name returns the name of the model.
func (m *MemoryModel) Name() string {
	return m.name
}

// SchedHostCallback issues ops on a host core. Done is called once every op
// has completed and every earlier Work of the core has retired.
func (m *MemoryModel) SchedHostCallback(
	core int,
	ops []*MemOp,
	done unit.Callback,
) {
	if core < 0 || core >= len(m.hostCores) {
		log.Panicf("%s: host core %d does not exist", m.name, core)
	}

	m.hostCores[core].AddWork(NewWork(ops, done))
}

// SchedNicCallback issues ops of process pid on a NIC unit.
func (m *MemoryModel) SchedNicCallback(
	unitID int,
	pid int,
	ops []*MemOp,
	done unit.Callback,
) {
	if unitID < 0 || unitID >= len(m.nicUnits) {
		log.Panicf("%s: NIC unit %d does not exist", m.name, unitID)
	}

	m.nicUnits[unitID].AddWork(NewWork(ops, done).WithPID(pid))
}

// Init runs an initialization phase of the detailed memory, if there is one.
func (m *MemoryModel) Init(phase int) {
	if m.detailed != nil {
		m.detailed.Init(phase)
	}
}

// Status lists the status of every component.
func (m *MemoryModel) Status() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "%s\n", m.name)

	for _, c := range m.components {
		fmt.Fprintf(&sb, "  %s\n", c.Status())
	}

	return sb.String()
}

// Components returns the components in the order they were built.
func (m *MemoryModel) Components() []Component {
	return m.components
}

// Component returns the component with the given name, or nil.
func (m *MemoryModel) Component(name string) Component {
	for _, c := range m.components {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// HostCore returns the thread of a host core.
func (m *MemoryModel) HostCore(core int) *Thread {
	return m.hostCores[core]
}

// NicUnit returns the thread of a NIC unit.
func (m *MemoryModel) NicUnit(unitID int) *Thread {
	return m.nicUnits[unitID]
}

// Idle tells if no thread has anything left to issue.
func (m *MemoryModel) Idle() bool {
	for _, t := range m.hostCores {
		if !t.Idle() {
			return false
		}
	}

	for _, t := range m.nicUnits {
		if !t.Idle() {
			return false
		}
	}

	return true
}
