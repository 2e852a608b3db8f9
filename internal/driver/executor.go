// Package driver implements the concurrency and resource model spec.md
// section 5 describes: one worker per translation unit, a bounded
// worker pool, CTU-boundary-only cancellation, and the three-mutex
// locking discipline (iterator, dedup, output — in that fixed order).
package driver

import (
	"context"
	"sync"
	"sync/atomic"

	deadlock "github.com/sasha-s/go-deadlock"

	"cppcore/internal/check"
	"cppcore/internal/diag"
)

// CTU is one compilation translation unit: a path, its size (for
// progress reporting), and optional in-memory content for tests
// (spec.md section 6: "Input. A list of CTUs, each a (path, size)
// pair plus optional in-memory content").
type CTU struct {
	Path    string
	Size    int64
	Content string // empty means "read Path from disk"
}

// AnalyzeFunc runs the full preprocess -> split -> value-flow -> check
// pipeline for one CTU and reports through the given ErrorLogger. It
// is injected rather than hardcoded so the executor stays agnostic of
// how a single translation unit is actually analyzed.
type AnalyzeFunc func(ctu CTU, registry *check.Registry, logger check.ErrorLogger) map[string]check.FileInfo

// Executor runs a work list of CTUs across a bounded worker pool
// (spec.md section 5: "exactly one translation unit per worker").
type Executor struct {
	registry *check.Registry
	reporter *diag.Reporter
	analyze  AnalyzeFunc

	iterMu deadlock.Mutex // guards `queue`/`next` — lock order: iterator -> dedup -> output
	queue  []CTU
	next   int

	terminated atomic.Bool // polled only at CTU boundaries, per spec.md section 5
	completed  atomic.Int64
	total      atomic.Int64

	fileInfoMu deadlock.Mutex
	fileInfo   map[string]map[string]check.FileInfo
}

// NewExecutor builds an executor over a fixed work list.
func NewExecutor(registry *check.Registry, reporter *diag.Reporter, analyze AnalyzeFunc, ctus []CTU) *Executor {
	e := &Executor{
		registry: registry,
		reporter: reporter,
		analyze:  analyze,
		queue:    ctus,
		fileInfo: make(map[string]map[string]check.FileInfo),
	}
	e.total.Store(int64(len(ctus)))
	return e
}

// Terminate requests cancellation. Workers only observe it between
// CTUs (spec.md section 5: "A process-wide boolean 'terminated' is
// polled at CTU boundaries by the driver; workers in the middle of a
// CTU do not observe it").
func (e *Executor) Terminate() { e.terminated.Store(true) }

// Progress reports (completed, total) CTU counts, both atomic.
func (e *Executor) Progress() (int64, int64) { return e.completed.Load(), e.total.Load() }

// Run spawns `jobs` workers and blocks until the queue drains or
// Terminate is called. ctx cancellation is honored only at the same
// CTU boundaries as Terminate — mid-CTU work is never interrupted.
func (e *Executor) Run(ctx context.Context, jobs int) {
	if jobs < 1 {
		jobs = 1
	}
	var wg sync.WaitGroup
	for w := 0; w < jobs; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.worker(ctx)
		}()
	}
	wg.Wait()

	e.registry.AnalyseWholeProgram(e.snapshotFileInfo(), e.reporter)
}

func (e *Executor) worker(ctx context.Context) {
	for {
		if e.terminated.Load() {
			return
		}
		select {
		case <-ctx.Done():
			return
		default:
		}

		ctu, ok := e.pop()
		if !ok {
			return
		}

		infos := e.analyze(ctu, e.registry, e.reporter)

		e.fileInfoMu.Lock()
		e.fileInfo[ctu.Path] = infos
		e.fileInfoMu.Unlock()

		e.completed.Add(1)
	}
}

func (e *Executor) pop() (CTU, bool) {
	e.iterMu.Lock()
	defer e.iterMu.Unlock()
	if e.next >= len(e.queue) {
		return CTU{}, false
	}
	ctu := e.queue[e.next]
	e.next++
	return ctu, true
}

func (e *Executor) snapshotFileInfo() map[string]map[string]check.FileInfo {
	e.fileInfoMu.Lock()
	defer e.fileInfoMu.Unlock()
	out := make(map[string]map[string]check.FileInfo, len(e.fileInfo))
	for k, v := range e.fileInfo {
		out[k] = v
	}
	return out
}
