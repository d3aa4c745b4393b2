package unit

import "fmt"

// A Request describes one memory access. Only the address and the length
// matter to the timing model.
type Request struct {
	Address uint64
	Length  uint64
	PID     int
	HasPID  bool
}

// NewRequest creates a request without a process ID.
func NewRequest(addr, length uint64) *Request {
	return &Request{Address: addr, Length: length}
}

// NewRequestWithPID creates a request that belongs to a process.
func NewRequestWithPID(addr, length uint64, pid int) *Request {
	return &Request{Address: addr, Length: length, PID: pid, HasPID: true}
}

// Derive returns a new request that keeps the process ID of r.
func (r *Request) Derive(addr, length uint64) *Request {
	return &Request{
		Address: addr,
		Length:  length,
		PID:     r.PID,
		HasPID:  r.HasPID,
	}
}

func (r *Request) String() string {
	if r.HasPID {
		return fmt.Sprintf("[pid %d 0x%x+%d]", r.PID, r.Address, r.Length)
	}

	return fmt.Sprintf("[0x%x+%d]", r.Address, r.Length)
}
