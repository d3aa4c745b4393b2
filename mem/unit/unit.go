// Package unit defines the contract shared by every stage of the memory
// pipeline.
//
// A Unit accepts requests from a Requester and answers whether the requester
// must block. A requester that was told to block must not send another
// request to the same unit until the unit calls its Resume method. Completion
// callbacks and Resume calls are always delivered through the Scheduler,
// never synchronously from inside Load, Store or StoreCB.
package unit

// A Callback is invoked once when a request completes.
type Callback func()

// A Requester is anything that can be told to block and later be resumed.
type Requester interface {
	Name() string

	// Resume is called by src when the requester may send again.
	Resume(src Requester)
}

// A Unit is a stage of the memory pipeline.
type Unit interface {
	Requester

	// Load reads req and calls cb when the data is available.
	Load(src Requester, req *Request, cb Callback) (blocked bool)

	// Store writes req without notifying the requester on completion.
	Store(src Requester, req *Request) (blocked bool)

	// StoreCB writes req and calls cb when the write completes.
	StoreCB(src Requester, req *Request, cb Callback) (blocked bool)

	// Status reports the occupancy of the unit in a human readable form.
	Status() string
}
