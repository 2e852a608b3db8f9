package valueflow

import "cppcore/internal/toklist"

// Condition is the shape-recognized result of parsing an `if`/`while`
// header (spec.md section 4.5.4): the single variable the condition
// pivots on, the values that variable is known to hold when the
// condition is true, and the values it holds when false.
type Condition struct {
	VarName    string
	TrueValues []toklist.Value
	FalseValues []toklist.Value
	Inverted   bool
}

// ParseCondition recognizes `if (<vartok> <op> <num>)`, `if (<vartok>)`,
// `if (! <vartok>)`, and a conjunction/disjunction of such terms over a
// single variable, starting at the `if`/`while` keyword token. It
// returns ok=false for any condition shape it doesn't recognize
// (function calls, multi-variable comparisons, etc.) — those are left
// to the forward/reverse analyzer's generic Read tracking instead.
func ParseCondition(l *toklist.List, keywordTok int32) (Condition, bool) {
	open := l.Next(keywordTok)
	if open == 0 || l.At(open).Str != "(" {
		return Condition{}, false
	}
	close := l.Link(open)
	if close == 0 {
		return Condition{}, false
	}

	toks := tokensBetween(l, open, close)
	if len(toks) == 0 {
		return Condition{}, false
	}

	// "! name" or bare "name"
	if len(toks) == 1 && l.At(toks[0]).Kind == toklist.KindName {
		name := l.At(toks[0]).Str
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: 0}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 0}},
		}, true
	}
	if len(toks) == 2 && l.At(toks[0]).Str == "!" && l.At(toks[1]).Kind == toklist.KindName {
		name := l.At(toks[1]).Str
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 0}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: 0}},
			Inverted:    true,
		}, true
	}

	// "name op num" / "num op name"
	if len(toks) == 3 {
		a, op, b := l.At(toks[0]), l.At(toks[1]), l.At(toks[2])
		if a.Kind == toklist.KindName && isNumericTok(b) {
			return conditionFromComparison(a.Str, op.Str, mustParseNum(b.Str)), true
		}
		if b.Kind == toklist.KindName && isNumericTok(a) {
			return conditionFromComparison(b.Str, flipOp(op.Str), mustParseNum(a.Str)), true
		}
	}

	// a conjunction/disjunction where every term names the same
	// variable: fold the per-term conditions together (&&: intersect
	// true-sets is approximated by keeping the last term's values,
	// since the per-token value model doesn't carry interval sets).
	return parseChainedCondition(l, toks)
}

func conditionFromComparison(name, op string, num int64) Condition {
	switch op {
	case "==":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: num}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: num}},
		}
	case "!=":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: num}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: num}},
		}
	case "<":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num - 1, Bound: toklist.BoundUpper}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num, Bound: toklist.BoundLower}},
		}
	case "<=":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num, Bound: toklist.BoundUpper}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num + 1, Bound: toklist.BoundLower}},
		}
	case ">":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num + 1, Bound: toklist.BoundLower}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num, Bound: toklist.BoundUpper}},
		}
	case ">=":
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num, Bound: toklist.BoundLower}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: num - 1, Bound: toklist.BoundUpper}},
		}
	}
	return Condition{VarName: name}
}

func flipOp(op string) string {
	switch op {
	case "<":
		return ">"
	case ">":
		return "<"
	case "<=":
		return ">="
	case ">=":
		return "<="
	}
	return op
}

func parseChainedCondition(l *toklist.List, toks []int32) (Condition, bool) {
	var name string
	var last Condition
	found := false
	start := 0
	for i := 0; i <= len(toks); i++ {
		if i == len(toks) || l.At(toks[i]).Str == "&&" || l.At(toks[i]).Str == "||" {
			term := toks[start:i]
			if len(term) > 0 {
				sub, ok := ParseConditionTerm(l, term)
				if !ok {
					return Condition{}, false
				}
				if name == "" {
					name = sub.VarName
				} else if name != sub.VarName {
					return Condition{}, false // multi-variable chain: not this condition handler's shape
				}
				last = sub
				found = true
			}
			start = i + 1
		}
	}
	return last, found
}

// ParseConditionTerm parses one already-isolated term (no top-level
// &&/||) using the same shapes ParseCondition recognizes inline.
func ParseConditionTerm(l *toklist.List, toks []int32) (Condition, bool) {
	if len(toks) == 1 && l.At(toks[0]).Kind == toklist.KindName {
		name := l.At(toks[0]).Str
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: 0}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 0}},
		}, true
	}
	if len(toks) == 2 && l.At(toks[0]).Str == "!" && l.At(toks[1]).Kind == toklist.KindName {
		name := l.At(toks[1]).Str
		return Condition{
			VarName:     name,
			TrueValues:  []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 0}},
			FalseValues: []toklist.Value{{Variant: toklist.VInt, Kind: toklist.Impossible, IntVal: 0}},
		}, true
	}
	if len(toks) == 3 {
		a, op, b := l.At(toks[0]), l.At(toks[1]), l.At(toks[2])
		if a.Kind == toklist.KindName && isNumericTok(b) {
			return conditionFromComparison(a.Str, op.Str, mustParseNum(b.Str)), true
		}
		if b.Kind == toklist.KindName && isNumericTok(a) {
			return conditionFromComparison(b.Str, flipOp(op.Str), mustParseNum(a.Str)), true
		}
	}
	return Condition{}, false
}

func tokensBetween(l *toklist.List, open, close int32) []int32 {
	var out []int32
	for i := l.Next(open); i != 0 && i != close; i = l.Next(i) {
		out = append(out, i)
	}
	return out
}

func isNumericTok(t *toklist.Token) bool {
	return t.Kind == toklist.KindNumber
}

func mustParseNum(s string) int64 {
	var n int64
	neg := false
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
	}
	if neg {
		n = -n
	}
	return n
}
