package valueflow

import "cppcore/internal/toklist"

// RunForward steps `a` from `start` to `end` inclusive, the forward
// driver spec.md section 4.5.3 describes: consult Analyze, dispatch
// Update, and on entering `if`/`while` apply the recognized
// Condition's downgrade via Assume. It returns the number of tokens
// where the analyzer reported a non-None action, which callers use as
// a crude "did this do anything" signal.
func RunForward(l *toklist.List, a *Analyzer, start, end int32) int {
	hits := 0
	for i := start; i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Kind == toklist.KindKeyword && (t.Str == "if" || t.Str == "while") {
			if cond, ok := ParseCondition(l, i); ok {
				a.Assume(true, cond)
			}
		}

		action := a.Analyze(l, i)
		if ActionIdempotentSelfWrite(l, a, i, action) != ActionNone {
			action |= ActionIdempotent
		}
		if action != ActionNone {
			hits++
			a.Update(l, i, action)
			if action.Has(ActionInvalid) {
				return hits // analyzer bails: address taken, alias escaped
			}
		}

		if i == end {
			break
		}
	}
	return hits
}

// ActionIdempotentSelfWrite recognizes the "x = x" shape (spec.md
// section 4.5.3: "a Write with Idempotent ... is treated as a no-op
// so loops of idempotent writes converge") by checking whether the
// token immediately after a recognized `=` is the same tracked name.
func ActionIdempotentSelfWrite(l *toklist.List, a *Analyzer, tok int32, action Action) Action {
	if !action.Has(ActionWrite) {
		return ActionNone
	}
	next := l.At(l.Next(tok))
	if next == nil || next.Str != "=" {
		return ActionNone
	}
	rhs := l.At(l.Next(l.Next(tok)))
	if rhs != nil && rhs.Str == a.trackedName() {
		return action
	}
	return ActionNone
}

// RunReverse walks backward from `from` to `boundary`, applying the
// same Analyze/Update as RunForward at each token; no inverse action is
// computed. The before-condition pass uses it to push a value
// discovered at a condition back toward its declaration.
func RunReverse(l *toklist.List, a *Analyzer, from, boundary int32) int {
	hits := 0
	for i := from; i != 0; i = l.Prev(i) {
		action := a.Analyze(l, i)
		if action != ActionNone {
			hits++
			a.Update(l, i, action)
			if action.Has(ActionInvalid) {
				return hits
			}
		}
		if i == boundary {
			break
		}
	}
	return hits
}
