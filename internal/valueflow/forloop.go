package valueflow

import "cppcore/internal/toklist"

// maxForLoopInterpretation bounds how many steps FinalValue takes
// before giving up on a loop that has not exited.
const maxForLoopInterpretation = 10000

// ForLoopHeader is a recognized `for (init; cond; step)` with a single
// induction variable and an initial, bound, and step all literal.
type ForLoopHeader struct {
	Var        string
	Init       int64
	BoundOp    string
	Bound      int64
	StepOp     string // "++", "--", "+=", "-="
	StepAmount int64
	BodyStart  int32
	BodyEnd    int32
}

// ParseForLoop recognizes the analytic shape at a `for` keyword token.
// It returns ok=false for anything beyond a single literal-bounded
// induction variable; passForLoop skips such loops, and no interpreter
// handles other loop shapes.
func ParseForLoop(l *toklist.List, forTok int32) (ForLoopHeader, bool) {
	open := l.Next(forTok)
	if open == 0 || l.At(open).Str != "(" {
		return ForLoopHeader{}, false
	}
	closeParen := l.Link(open)
	if closeParen == 0 {
		return ForLoopHeader{}, false
	}
	clauses := splitSemicolons(l, open, closeParen)
	if len(clauses) != 3 {
		return ForLoopHeader{}, false
	}

	varName, init, ok := parseInitClause(l, clauses[0])
	if !ok {
		return ForLoopHeader{}, false
	}
	condVar, op, bound, ok := parseCondClause(l, clauses[1])
	if !ok || condVar != varName {
		return ForLoopHeader{}, false
	}
	stepVar, stepOp, amount, ok := parseStepClause(l, clauses[2])
	if !ok || stepVar != varName {
		return ForLoopHeader{}, false
	}

	bodyStart, bodyEnd, _ := loopBodyBounds(l, closeParen)

	return ForLoopHeader{
		Var: varName, Init: init, BoundOp: op, Bound: bound,
		StepOp: stepOp, StepAmount: amount, BodyStart: bodyStart, BodyEnd: bodyEnd,
	}, true
}

// loopBodyBounds finds a for-loop's body, whether it's a braced
// compound statement or a single bare statement (spec.md section 8
// scenario 6: "for (...) use(i);" with no braces), plus the token
// immediately following the loop. It returns bodyStart == 0 if the
// body can't be bounded at all.
func loopBodyBounds(l *toklist.List, closeParen int32) (bodyStart, bodyEnd, after int32) {
	brace := l.Next(closeParen)
	if brace == 0 {
		return 0, 0, 0
	}
	if l.At(brace).Str == "{" {
		braceEnd := l.Link(brace)
		if braceEnd == 0 {
			return 0, 0, 0
		}
		return l.Next(brace), l.Prev(braceEnd), l.Next(braceEnd)
	}
	end := statementEnd(l, brace)
	if end == 0 {
		return 0, 0, l.Next(closeParen)
	}
	return brace, end, l.Next(end)
}

// statementEnd scans forward from start for the ';' terminating a
// single statement, honoring nested bracket depth so a call like
// use(f(x, y)); doesn't stop at an inner comma or paren.
func statementEnd(l *toklist.List, start int32) int32 {
	depth := 0
	for i := start; i != 0; i = l.Next(i) {
		switch l.At(i).Str {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case ";":
			if depth == 0 {
				return i
			}
		}
	}
	return 0
}

// FinalValue computes the induction variable's value immediately after
// the loop exits by stepping it from Init at most
// maxForLoopInterpretation times. ok=false means the step is zero or
// the loop did not exit within that bound; no other fallback exists.
func (h ForLoopHeader) FinalValue() (int64, bool) {
	step := h.StepAmount
	switch h.StepOp {
	case "--", "-=":
		step = -step
	}
	if step == 0 {
		return 0, false
	}

	cur := h.Init
	for n := 0; n < maxForLoopInterpretation; n++ {
		if !conditionHolds(cur, h.BoundOp, h.Bound) {
			return cur, true
		}
		cur += step
	}
	return 0, false // did not terminate within the bound: bail
}

func conditionHolds(v int64, op string, bound int64) bool {
	switch op {
	case "<":
		return v < bound
	case "<=":
		return v <= bound
	case ">":
		return v > bound
	case ">=":
		return v >= bound
	case "!=":
		return v != bound
	}
	return false
}

func splitSemicolons(l *toklist.List, open, closeParen int32) [][]int32 {
	var clauses [][]int32
	var cur []int32
	depth := 0
	for i := l.Next(open); i != 0 && i != closeParen; i = l.Next(i) {
		t := l.At(i)
		switch t.Str {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
		case ";":
			if depth == 0 {
				clauses = append(clauses, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, i)
	}
	clauses = append(clauses, cur)
	return clauses
}

func parseInitClause(l *toklist.List, toks []int32) (string, int64, bool) {
	// accepts "TYPE? name = NUM" by scanning for "name = NUM" at the tail
	if len(toks) < 3 {
		return "", 0, false
	}
	eq := -1
	for i, tk := range toks {
		if l.At(tk).Str == "=" {
			eq = i
		}
	}
	if eq < 1 || eq+1 >= len(toks) {
		return "", 0, false
	}
	name := l.At(toks[eq-1])
	num := l.At(toks[eq+1])
	if name.Kind != toklist.KindName || num.Kind != toklist.KindNumber {
		return "", 0, false
	}
	return name.Str, mustParseNum(num.Str), true
}

func parseCondClause(l *toklist.List, toks []int32) (string, string, int64, bool) {
	if len(toks) != 3 {
		return "", "", 0, false
	}
	a, op, b := l.At(toks[0]), l.At(toks[1]), l.At(toks[2])
	if a.Kind == toklist.KindName && b.Kind == toklist.KindNumber {
		return a.Str, op.Str, mustParseNum(b.Str), true
	}
	return "", "", 0, false
}

func parseStepClause(l *toklist.List, toks []int32) (string, string, int64, bool) {
	if len(toks) == 2 {
		a, b := l.At(toks[0]), l.At(toks[1])
		if a.Kind == toklist.KindName && (b.Str == "++" || b.Str == "--") {
			return a.Str, b.Str, 1, true
		}
		if b.Kind == toklist.KindName && (a.Str == "++" || a.Str == "--") {
			return b.Str, a.Str, 1, true
		}
	}
	if len(toks) == 3 {
		a, op, b := l.At(toks[0]), l.At(toks[1]), l.At(toks[2])
		if a.Kind == toklist.KindName && (op.Str == "+=" || op.Str == "-=") && b.Kind == toklist.KindNumber {
			return a.Str, op.Str, mustParseNum(b.Str), true
		}
	}
	return "", "", 0, false
}
