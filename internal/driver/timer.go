package driver

import (
	"fmt"
	"sort"
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// TimerResults aggregates named timing samples across every worker's
// own timer hierarchy (original_source's TimerResults/Timer pair in
// lib/timer.h), reported once at the end of a run. Each worker owns
// its own *Timer* instances; only the shared aggregate needs a mutex.
type TimerResults struct {
	mu      deadlock.Mutex
	samples map[string]timerData
}

type timerData struct {
	total time.Duration
	count int
}

// NewTimerResults returns an empty aggregate.
func NewTimerResults() *TimerResults {
	return &TimerResults{samples: make(map[string]timerData)}
}

// Add records one elapsed duration under `name`, mirroring
// TimerResults::addResults in the original.
func (r *TimerResults) Add(name string, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := r.samples[name]
	s.total += d
	s.count++
	r.samples[name] = s
}

// Report renders a sorted (by total descending) breakdown, in the
// style of the original's TimerResults::showResults.
func (r *TimerResults) Report() string {
	r.mu.Lock()
	type row struct {
		name  string
		total time.Duration
		count int
	}
	rows := make([]row, 0, len(r.samples))
	for name, s := range r.samples {
		rows = append(rows, row{name, s.total, s.count})
	}
	r.mu.Unlock()

	sort.Slice(rows, func(i, j int) bool { return rows[i].total > rows[j].total })

	out := ""
	for _, rw := range rows {
		out += fmt.Sprintf("%-40s %10s  (n=%d)\n", rw.name, rw.total, rw.count)
	}
	return out
}

// Timer is a single worker's own RAII-style sample: Stop records the
// elapsed time into the shared TimerResults (mirrors the original's
// Timer constructor/destructor pairing, expressed as an explicit Stop
// since Go has no destructors).
type Timer struct {
	name    string
	results *TimerResults
	start   time.Time
}

// Start begins timing `name` against the given aggregate.
func Start(results *TimerResults, name string) *Timer {
	return &Timer{name: name, results: results, start: time.Now()}
}

// Stop records the elapsed duration since Start. Safe to call at most
// once; a Timer is not reused.
func (t *Timer) Stop() {
	t.results.Add(t.name, time.Since(t.start))
}
