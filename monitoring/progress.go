package monitoring

import (
	"sync"
	"time"
)

// ProgressBar counts work items of a known total. Items move from pending to
// in progress to finished. Its methods may be called while the monitor is
// serving requests.
type ProgressBar struct {
	mu         sync.Mutex
	id         string
	name       string
	start      time.Time
	total      uint64
	inProgress uint64
	finished   uint64
}

// progressView is the JSON form of a ProgressBar.
type progressView struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Total      uint64    `json:"total"`
	Finished   uint64    `json:"finished"`
	InProgress uint64    `json:"in_progress"`
}

// IncrementInProgress marks amount more items as started.
func (b *ProgressBar) IncrementInProgress(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inProgress += amount
}

// MoveInProgressToFinished marks amount started items as finished.
func (b *ProgressBar) MoveInProgressToFinished(amount uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.inProgress -= amount
	b.finished += amount
}

// Done reports whether every item has finished.
func (b *ProgressBar) Done() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.finished >= b.total
}

func (b *ProgressBar) view() progressView {
	b.mu.Lock()
	defer b.mu.Unlock()

	return progressView{
		ID:         b.id,
		Name:       b.name,
		StartTime:  b.start,
		Total:      b.total,
		Finished:   b.finished,
		InProgress: b.inProgress,
	}
}
