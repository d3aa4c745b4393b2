package memmodel

import (
	"fmt"

	"github.com/sarchlab/nicmem/mem/unit"
)

// OpKind is the type of a memory operation.
type OpKind int

// The kinds of memory operations.
const (
	NoOp OpKind = iota
	BusLoad
	BusStore
	LocalLoad
	LocalStore
	HostLoad
	HostStore
	HostCopy
	BusDmaToHost
	BusDmaFromHost
	HostBusWrite
	HostBusRead
)

var opKindNames = []string{
	"NoOp",
	"BusLoad",
	"BusStore",
	"LocalLoad",
	"LocalStore",
	"HostLoad",
	"HostStore",
	"HostCopy",
	"BusDmaToHost",
	"BusDmaFromHost",
	"HostBusWrite",
	"HostBusRead",
}

func (k OpKind) String() string {
	if k < 0 || int(k) >= len(opKindNames) {
		return fmt.Sprintf("OpKind(%d)", int(k))
	}

	return opKindNames[k]
}

// route is where a thread sends the sub-requests of an operation.
type route int

const (
	routeLocal route = iota
	routeLoad
	routeStore
	routeCopy
	routePostedWrite
)

func (k OpKind) route() route {
	switch k {
	case HostLoad, BusLoad, BusDmaFromHost, HostBusRead:
		return routeLoad
	case HostStore, BusStore, BusDmaToHost:
		return routeStore
	case HostCopy:
		return routeCopy
	case HostBusWrite:
		return routePostedWrite
	default:
		return routeLocal
	}
}

// MemOp is one memory operation of a Work. A thread issues it as a series of
// sub-requests of at most the thread's maximum access size.
type MemOp struct {
	Kind     OpKind
	Addr     uint64
	SrcAddr  uint64
	Length   uint64
	Offset   uint64
	Pending  int
	Callback unit.Callback

	work       *Work
	copyLoaded bool
}

// NewOp creates an operation on length bytes at addr.
func NewOp(kind OpKind, addr, length uint64) *MemOp {
	return &MemOp{Kind: kind, Addr: addr, Length: length}
}

// NewCopyOp creates an operation that copies length bytes from src to dst.
func NewCopyOp(dst, src, length uint64) *MemOp {
	return &MemOp{Kind: HostCopy, Addr: dst, SrcAddr: src, Length: length}
}

// WithCallback sets the function that is called when the Work that the
// operation belongs to retires.
func (op *MemOp) WithCallback(cb unit.Callback) *MemOp {
	op.Callback = cb
	return op
}

// Issued tells if every sub-request of the operation has been issued.
func (op *MemOp) Issued() bool {
	return op.Offset >= op.Length && !op.copyLoaded
}

// Retireable tells if the operation has been issued entirely and all its
// sub-requests have completed.
func (op *MemOp) Retireable() bool {
	return op.Issued() && op.Pending == 0
}

func (op *MemOp) String() string {
	return fmt.Sprintf("%s[0x%x+%d/%d]", op.Kind, op.Addr, op.Offset, op.Length)
}
