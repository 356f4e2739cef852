package run

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var runsCollectedTotal = promauto.NewCounter(prometheus.CounterOpts{
	Name: "speedstats_runs_collected_total",
	Help: "Total number of runs normalized into a batch buffer",
})

// Buffer accumulates the runs of one batch. Appends are safe for concurrent
// use and unordered; nothing is deduplicated.
type Buffer struct {
	mu   sync.Mutex
	runs []Run
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Add appends runs to the buffer.
func (b *Buffer) Add(runs ...Run) {
	b.mu.Lock()
	b.runs = append(b.runs, runs...)
	b.mu.Unlock()

	runsCollectedTotal.Add(float64(len(runs)))
}

// Runs returns a copy of the buffered runs.
func (b *Buffer) Runs() []Run {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Run, len(b.runs))
	copy(out, b.runs)
	return out
}

// Len returns the number of buffered runs.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.runs)
}

// Reset empties the buffer for the next batch.
func (b *Buffer) Reset() {
	b.mu.Lock()
	b.runs = nil
	b.mu.Unlock()
}
