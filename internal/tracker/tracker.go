// Package tracker keeps count of spans that were started but not yet ended.
package tracker

import (
	"sync"
	"sync/atomic"
)

// Tracker counts open spans, globally and per trace.
// Safe for concurrent use.
type Tracker struct {
	open    atomic.Int64
	started atomic.Uint64

	mu      sync.Mutex
	byTrace map[string]int
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{byTrace: make(map[string]int)}
}

// Opened records a started span belonging to traceID.
func (t *Tracker) Opened(traceID string) {
	t.open.Add(1)
	t.started.Add(1)

	t.mu.Lock()
	t.byTrace[traceID]++
	t.mu.Unlock()
}

// Closed records an ended span belonging to traceID.
// Traces with no open spans left are forgotten.
func (t *Tracker) Closed(traceID string) {
	t.open.Add(-1)

	t.mu.Lock()
	defer t.mu.Unlock()

	n := t.byTrace[traceID] - 1
	if n <= 0 {
		delete(t.byTrace, traceID)
		return
	}
	t.byTrace[traceID] = n
}

// Open returns the number of spans currently open.
func (t *Tracker) Open() int64 {
	return t.open.Load()
}

// Started returns the number of spans started since creation.
func (t *Tracker) Started() uint64 {
	return t.started.Load()
}

// OpenFor returns the number of spans currently open in traceID.
func (t *Tracker) OpenFor(traceID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.byTrace[traceID]
}

// Traces returns the number of traces that still have open spans.
func (t *Tracker) Traces() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.byTrace)
}
