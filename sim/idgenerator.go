package sim

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator hands out identifiers for events and monitor handles.
type IDGenerator interface {
	Generate() string
}

var (
	idMu  sync.Mutex
	idGen IDGenerator
)

// UseRandomIDs makes every later ID a globally unique xid instead of the
// next counter value. Use it when the IDs of several runs are merged into
// one place.
func UseRandomIDs() {
	idMu.Lock()
	defer idMu.Unlock()

	idGen = randomIDs{}
}

// GetIDGenerator returns the process-wide generator. Unless UseRandomIDs was
// called first, IDs are consecutive decimal numbers starting at 1, so two
// runs with the same input produce the same IDs.
func GetIDGenerator() IDGenerator {
	idMu.Lock()
	defer idMu.Unlock()

	if idGen == nil {
		idGen = &counterIDs{}
	}

	return idGen
}

type counterIDs struct {
	last atomic.Uint64
}

func (g *counterIDs) Generate() string {
	return strconv.FormatUint(g.last.Add(1), 10)
}

type randomIDs struct{}

func (randomIDs) Generate() string {
	return xid.New().String()
}
