package valueflow

import "cppcore/internal/toklist"

// Pipeline runs an ordered list of passes to a fixed point, grounded
// on the teacher's OptimizationPipeline (internal/ir/optimizations.go):
// AddPass appends, Run applies every pass once in order and reports
// whether any of them changed the list.
type Pipeline struct {
	passes []Pass
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) AddPass(pass Pass) *Pipeline {
	p.passes = append(p.passes, pass)
	return p
}

// Run applies every pass once, in order, and reports whether any pass
// reported a change.
func (p *Pipeline) Run(st *EngineState) bool {
	changed := false
	for _, pass := range p.passes {
		if pass.Apply(st) {
			changed = true
		}
	}
	return changed
}

// maxOuterIterations bounds the fixed-point loop over the condition/
// assignment-propagating passes (the real engine's `n := 4` countdown).
const maxOuterIterations = 4

// Run is the top-level entry point (spec.md section 4.5, "Running the
// engine"): the prelude passes run once, then the loop passes run
// repeatedly until either maxOuterIterations is exhausted or a full
// pass over every loop pass adds no new per-token values, then the
// final passes run once. It returns the total number of outer
// iterations actually taken, for diagnostics.
func Run(l *toklist.List) int {
	st := &EngineState{List: l}

	BuildExpressionAST(l)

	prelude := NewPipeline()
	for _, p := range preludePasses() {
		prelude.AddPass(p)
	}
	prelude.Run(st)

	loop := NewPipeline()
	for _, p := range loopPasses() {
		loop.AddPass(p)
	}

	iterations := 0
	values := -1 // force at least one pass through the loop
	for n := maxOuterIterations; n > 0; n-- {
		total := countAllValues(l)
		if values >= 0 && total <= values {
			break
		}
		values = total
		loop.Run(st)
		iterations++
	}

	final := NewPipeline()
	for _, p := range finalPasses() {
		final.AddPass(p)
	}
	final.Run(st)

	return iterations
}
