package valueflow

import "cppcore/internal/toklist"

// Action is the tagged-variant Analyzer's report of what one token
// does to the value(s) it tracks (spec.md section 4.5.3). It is a
// bitmask because a token can, e.g., both Read and Write (a compound
// assignment).
type Action uint8

const (
	ActionNone Action = 0
	ActionRead Action = 1 << iota
	ActionWrite
	ActionMatch
	ActionInvalid
	ActionInconclusive
	ActionIdempotent
)

func (a Action) Has(f Action) bool { return a&f != 0 }

// Kind selects which of the four concrete analyzer shapes spec.md
// section 4.5.3 names a given Analyzer instance is playing, per the
// Design Notes' tagged-variant-over-interface decision (§9).
type Kind uint8

const (
	VariableAnalyzer Kind = iota
	ExpressionAnalyzer
	MultiVariableAnalyzer
	ContainerVariableAnalyzer
)

// Analyzer is the single struct backing all four kinds. Fields unused
// by a given Kind are simply left zero; the shared driver in driver.go
// switches on Kind only at the handful of points behavior differs.
//
// Variable resolution here is name-based (no separate symbol table):
// VarName identifies "the variable this analyzer tracks" by its
// spelling, scoped to the token range [StartTok, EndTok]. This is a
// deliberate simplification — see DESIGN.md.
type Analyzer struct {
	Kind Kind

	VarName      string   // VariableAnalyzer
	AliasNames   []string // VariableAnalyzer: other names known to alias VarName
	ExprTokens   []int32  // ExpressionAnalyzer: the token sequence to match structurally
	Bindings     map[string]toklist.Value
	ContainerVar string // ContainerVariableAnalyzer

	StartTok int32
	EndTok   int32

	Value     toklist.Value
	Path      int64
	ErrorPath []toklist.ErrorStep
}

// NewVariableAnalyzer seeds an analyzer tracking `name` with `v` from
// `start` to `end`.
func NewVariableAnalyzer(name string, v toklist.Value, start, end int32) *Analyzer {
	return &Analyzer{Kind: VariableAnalyzer, VarName: name, Value: v, StartTok: start, EndTok: end, Path: v.Path}
}

// Analyze reports what token `tok` does to the tracked value(s),
// the first step of every driver iteration (spec.md section 4.5.3).
func (a *Analyzer) Analyze(l *toklist.List, tok int32) Action {
	t := l.At(tok)
	if t == nil {
		return ActionNone
	}

	switch a.Kind {
	case VariableAnalyzer, MultiVariableAnalyzer, ContainerVariableAnalyzer:
		name := a.trackedName()
		if t.Kind != toklist.KindName || (t.Str != name && !a.isAlias(t.Str)) {
			return ActionNone
		}
		return a.classifyUse(l, tok)

	case ExpressionAnalyzer:
		if matchesExprAt(l, tok, a.ExprTokens) {
			return ActionMatch | ActionRead
		}
		return ActionNone
	}
	return ActionNone
}

func (a *Analyzer) trackedName() string {
	if a.Kind == ContainerVariableAnalyzer {
		return a.ContainerVar
	}
	return a.VarName
}

func (a *Analyzer) isAlias(name string) bool {
	for _, n := range a.AliasNames {
		if n == name {
			return true
		}
	}
	return false
}

// classifyUse looks at the operator token immediately following a
// name occurrence to decide Read vs Write vs Invalid. Only a preceding
// address-of `&` yields Invalid; passing the name to a call by
// reference is not detected and counts as a Read.
func (a *Analyzer) classifyUse(l *toklist.List, tok int32) Action {
	prev := l.At(l.Prev(tok))
	next := l.At(l.Next(tok))

	if prev != nil && prev.Str == "&" && prev.Kind == toklist.KindOperator {
		return ActionInvalid // address taken: conservatively bail on this analyzer
	}
	if next == nil {
		return ActionRead
	}
	switch next.Str {
	case "=":
		return ActionWrite
	case "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return ActionRead | ActionWrite
	case "++", "--":
		return ActionRead | ActionWrite
	}
	if prev != nil && (prev.Str == "++" || prev.Str == "--") {
		return ActionRead | ActionWrite
	}
	return ActionRead
}

// Update mutates the analyzer's held value in response to `action`,
// and if the action includes Read, publishes the current value onto
// the token via SetTokenValue (spec.md section 4.5.3).
func (a *Analyzer) Update(l *toklist.List, tok int32, action Action) {
	if action.Has(ActionRead) {
		v := a.Value
		v.Path = a.Path
		SetTokenValue(l, tok, v)
	}
	if action.Has(ActionWrite) {
		// A write whose new value we can't observe here invalidates the
		// held value unless it's an idempotent self-write (handled by
		// the caller recognizing "x = x" and setting ActionIdempotent
		// instead of plain Write before calling Update).
		if !action.Has(ActionIdempotent) {
			if inConditionalScope(l, tok) {
				// The write executes along only one path out of the
				// enclosing branch, so the value held on entry might
				// still be live on the other: it demotes to Possible
				// rather than being discarded outright (spec.md
				// section 8 scenario 4).
				if a.Value.Kind == toklist.Known {
					a.Value.Kind = toklist.Possible
				}
			} else {
				a.Value = toklist.Value{Variant: a.Value.Variant, Kind: toklist.Inconclusive, Path: a.Path}
			}
		}
	}
}

// Assume applies a condition's implication to the analyzer's held
// value on entry to a conditional scope (spec.md section 4.5.3): a
// Known value may be downgraded to Possible when the branch is only
// reachable under an additional, unproven assumption.
func (a *Analyzer) Assume(trueBranch bool, cond Condition) {
	if cond.VarName != a.trackedName() {
		return
	}
	values := cond.TrueValues
	if !trueBranch {
		values = cond.FalseValues
	}
	if len(values) == 0 {
		return
	}
	if a.Value.Kind == toklist.Known {
		a.Value.Kind = toklist.Possible
	}
}

// UpdateScope decides whether the analyzer should cross from a closing
// block into its sibling (an `else`, or back to a `while` header for
// another iteration). Conservatively: only when the analyzer's value
// wasn't invalidated inside the block.
func (a *Analyzer) UpdateScope(l *toklist.List, endBlock int32) bool {
	return a.Value.Kind != toklist.Inconclusive
}

// Evaluate returns the analyzer's current value as a best-effort
// evaluation of `tok`, if `tok` is the tracked name/expression.
func (a *Analyzer) Evaluate(l *toklist.List, tok int32) (int64, bool) {
	if a.Analyze(l, tok) == ActionNone {
		return 0, false
	}
	if a.Value.Variant == toklist.VInt && a.Value.Kind == toklist.Known {
		return a.Value.IntVal, true
	}
	return 0, false
}

// Reanalyze spawns a follow-up analyzer sharing this one's tracked
// name/value but with an additional error-path entry, used when a
// value crosses a boundary worth recording (sub-function injection,
// a std::move, etc.).
func (a *Analyzer) Reanalyze(tok int32, message string) *Analyzer {
	next := *a
	next.ErrorPath = append(append([]toklist.ErrorStep(nil), a.ErrorPath...), toklist.ErrorStep{Tok: tok, Message: message})
	return &next
}

// matchesExprAt reports whether the AST rooted at `tok` structurally
// matches `pattern` (same token text in preorder), the Expression-
// analyzer's Match action (spec.md section 4.5.3).
func matchesExprAt(l *toklist.List, tok int32, pattern []int32) bool {
	if len(pattern) == 0 {
		return false
	}
	return matchSubtree(l, tok, pattern[0], pattern)
}

func matchSubtree(l *toklist.List, a, b int32, pattern []int32) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	if l.At(a).Str != l.At(b).Str {
		return false
	}
	aOp1, aOp2 := l.AstOperands(a)
	bOp1, bOp2 := l.AstOperands(b)
	return matchSubtree(l, aOp1, bOp1, pattern) && matchSubtree(l, aOp2, bOp2, pattern)
}
