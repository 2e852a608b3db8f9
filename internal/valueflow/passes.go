package valueflow

import "cppcore/internal/toklist"

// Pass is one value-flow transformation over a token list, grounded on
// the teacher's own OptimizationPass shape (internal/ir/optimizations.go):
// a name, a description, and an Apply that reports whether it changed
// anything.
type Pass interface {
	Name() string
	Description() string
	Apply(st *EngineState) bool
}

// EngineState is the mutable context shared across one Run: the token
// list itself, the path-tag counter sub-function injection consumes,
// and the function-definition index (scanned once, reused by every
// pass that needs call-site information).
type EngineState struct {
	List     *toklist.List
	NextPath int64
	FuncDefs []FuncDef
}

type funcPass struct {
	name, desc string
	fn         func(*EngineState) bool
}

func (p funcPass) Name() string                { return p.name }
func (p funcPass) Description() string         { return p.desc }
func (p funcPass) Apply(st *EngineState) bool   { return p.fn(st) }

// preludePasses run once, before the fixed-point loop, in the fixed
// order the original engine runs them (lib/valueflow.cpp's
// setValues): values that later passes fold through need to exist
// first (literals, enumerators, globals) before condition/assignment
// propagation has anything to propagate.
func preludePasses() []Pass {
	return []Pass{
		funcPass{"EnumValue", "propagate enumerator literal values", passEnumValue},
		funcPass{"Number", "attach Known values to integer/float/char literals", passNumber},
		funcPass{"String", "attach Known token values to string literals", passString},
		funcPass{"GlobalConstVar", "propagate file-scope const variable initializers", passGlobalConstVar},
		funcPass{"PointerAlias", "record pointer-to-address-of aliasing", passPointerAlias},
		funcPass{"Lifetime", "track byRef (= &x) and byVal (= std::move(x)) borrow chains", passLifetime},
		funcPass{"BitAnd", "fold x&x, x|x same-operand identities", passBitAndSameExpr},
		funcPass{"FwdAnalysis", "seed forward analyzers at every simple assignment", passFwdAnalysis},
	}
}

// loopPasses run every outer iteration (spec.md section 4.5, "the
// value-flow outer loop"): each depends on values a prior loop pass
// (in this iteration or the last) may have produced.
func loopPasses() []Pass {
	return []Pass{
		funcPass{"OppositeCondition", "propagate a condition's negation across an else/elseif chain", passOppositeCondition},
		funcPass{"TerminatingCondition", "propagate the surviving branch's values past a dead-end if", passTerminatingCondition},
		funcPass{"BeforeCondition", "push a condition's implied value backward to the declaration", passBeforeCondition},
		funcPass{"AfterMove", "mark a moved-from variable Moved until reassigned", passAfterMove},
		funcPass{"AfterCondition", "forward a condition's true/false values into its branch bodies", passAfterCondition},
		funcPass{"InferCondition", "infer an unwritten condition's truth from existing Known values", passInferCondition},
		funcPass{"AfterAssign", "forward a simple assignment's RHS value to subsequent reads", passAfterAssign},
		funcPass{"SwitchVariable", "set the switch variable's Known value inside each case body", passSwitchVariable},
		funcPass{"ForLoop", "compute induction-variable values for recognized for-loop headers", passForLoop},
		funcPass{"SubFunction", "inject call-site argument values into the callee body", passSubFunction},
		funcPass{"FunctionReturn", "propagate a function's single-literal return value to call sites", passFunctionReturn},
		funcPass{"Uninit", "flag declarations with no initializer as Possible-uninitialized", passUninit},
		funcPass{"SmartPointerIterators", "attach IteratorStart/IteratorEnd values at begin()/end() calls", passSmartPointerIterators},
		funcPass{"ContainerSize", "track running container size across push_back/pop_back", passContainerSize},
		funcPass{"SafeFunctions", "tag call results from the safe-function allowlist", passSafeFunctions},
	}
}

// finalPasses run exactly once, after the fixed-point loop settles
// (lib/valueflow.cpp runs valueFlowDynamicBufferSize only at the very
// end, since it consumes Known buffer sizes the loop passes produce).
func finalPasses() []Pass {
	return []Pass{
		funcPass{"DynamicBufferSize", "attach Known buffer sizes from malloc to the owning pointer", passDynamicBufferSize},
	}
}

// ---- prelude passes ----

func passNumber(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		switch t.Kind {
		case toklist.KindNumber:
			if t.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: parseLiteralInt(t.Str)}) {
				changed = true
			}
		case toklist.KindChar:
			if len(t.Str) >= 3 {
				if t.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: int64(t.Str[1])}) {
					changed = true
				}
			}
		}
	}
	return changed
}

func passString(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Kind == toklist.KindString {
			if l.At(i).AddValue(toklist.Value{Variant: toklist.VTok, Kind: toklist.Known, TokVal: i}) {
				changed = true
			}
		}
	}
	return changed
}

func passEnumValue(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "enum" {
			continue
		}
		brace := i
		for brace != 0 && l.At(brace).Str != "{" {
			brace = l.Next(brace)
		}
		if brace == 0 {
			continue
		}
		end := l.Link(brace)
		if end == 0 {
			continue
		}
		var next int64
		for cur := l.Next(brace); cur != 0 && cur != end; cur = l.Next(cur) {
			t := l.At(cur)
			if t.Kind != toklist.KindName {
				continue
			}
			name := t.Str
			val := next
			nn := l.At(l.Next(cur))
			if nn != nil && nn.Str == "=" {
				numTok := l.At(l.Next(l.Next(cur)))
				if numTok != nil && numTok.Kind == toklist.KindNumber {
					val = parseLiteralInt(numTok.Str)
				}
			}
			next = val + 1
			if propagateNameValue(l, name, toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: val}) {
				changed = true
			}
		}
	}
	return changed
}

func passGlobalConstVar(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "const" {
			continue
		}
		// "const TYPE NAME = NUM ;" — scan forward for "name = num ;"
		name, num, ok := scanConstInit(l, i)
		if !ok {
			continue
		}
		if propagateNameValue(l, name, toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: num}) {
			changed = true
		}
	}
	return changed
}

func scanConstInit(l *toklist.List, constTok int32) (string, int64, bool) {
	var name string
	for i := l.Next(constTok); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Str == ";" {
			return "", 0, false
		}
		if t.Str == "=" {
			num := l.At(l.Next(i))
			if name == "" || num == nil || num.Kind != toklist.KindNumber {
				return "", 0, false
			}
			return name, parseLiteralInt(num.Str), true
		}
		if t.Kind == toklist.KindName {
			name = t.Str
		}
	}
	return "", 0, false
}

func passPointerAlias(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		// "ptr = & src ;" only; an array-decay "ptr = src ;" is not recorded
		if l.At(i).Str != "=" {
			continue
		}
		ptr := l.At(l.Prev(i))
		if ptr == nil || ptr.Kind != toklist.KindName {
			continue
		}
		rhs := l.Next(i)
		if rhs == 0 {
			continue
		}
		if l.At(rhs).Str == "&" {
			src := l.Next(rhs)
			if src != 0 && l.At(src).Kind == toklist.KindName {
				if l.At(l.Prev(i)).AddValue(toklist.Value{Variant: toklist.VTok, Kind: toklist.Known, TokVal: src}) {
					changed = true
				}
			}
		}
	}
	return changed
}

func passLifetime(st *EngineState) bool {
	changed := false
	l := st.List
	store := NewLifetimeStore(l)
	before := countAllValues(l)
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "=" {
			continue
		}
		dst := l.Prev(i)
		if dst == 0 {
			continue
		}
		rhs := l.Next(i)
		if rhs == 0 {
			continue
		}
		if l.At(rhs).Str == "&" {
			src := l.Next(rhs)
			if src != 0 {
				store.ByRef(dst, src)
			}
			continue
		}
		if l.At(rhs).Str == "std" && l.At(l.Next(rhs)) != nil && l.At(l.Next(rhs)).Str == "::" {
			rhs = l.Next(l.Next(rhs))
		}
		if rhs != 0 && l.At(rhs).Str == "move" && l.At(l.Prev(rhs)).Str == "::" {
			arg := l.Next(l.Next(rhs)) // skip '('
			if arg != 0 {
				store.ByVal(dst, arg)
			}
		}
	}
	if countAllValues(l) != before {
		changed = true
	}
	return changed
}

func passBitAndSameExpr(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Str != "&" && t.Str != "|" {
			continue
		}
		op1, op2 := l.AstOperands(i)
		if op1 == 0 || op2 == 0 {
			continue
		}
		if !sameSubtree(l, op1, op2) {
			continue
		}
		v, ok := l.At(op1).KnownValue(toklist.VInt)
		if !ok {
			continue
		}
		SetTokenValue(l, i, v)
		changed = true
	}
	return changed
}

func sameSubtree(l *toklist.List, a, b int32) bool {
	if a == 0 || b == 0 {
		return a == b
	}
	if l.At(a).Str != l.At(b).Str {
		return false
	}
	a1, a2 := l.AstOperands(a)
	b1, b2 := l.AstOperands(b)
	return sameSubtree(l, a1, b1) && sameSubtree(l, a2, b2)
}

func passFwdAnalysis(st *EngineState) bool {
	changed := false
	l := st.List
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "=" {
			continue
		}
		name := l.At(l.Prev(i))
		if name == nil || name.Kind != toklist.KindName {
			continue
		}
		rhs := l.At(l.Next(i))
		if rhs == nil || rhs.Kind != toklist.KindNumber {
			continue
		}
		kind := toklist.Known
		if inConditionalScope(l, i) {
			// An assignment reached only through a branch condition
			// doesn't definitely happen, so the value it seeds forward
			// is only Possible (spec.md section 8 scenario 4).
			kind = toklist.Possible
		}
		v := toklist.Value{Variant: toklist.VInt, Kind: kind, IntVal: parseLiteralInt(rhs.Str)}
		a := NewVariableAnalyzer(name.Str, v, l.Next(l.Next(i)), l.Back())
		if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
			changed = true
		}
	}
	return changed
}

// ---- loop passes ----

func passOppositeCondition(st *EngineState) bool {
	return forEachIfElse(st.List, func(l *toklist.List, ifTok, elseBody int32) bool {
		cond, ok := ParseCondition(l, ifTok)
		if !ok || elseBody == 0 {
			return false
		}
		changed := false
		for _, v := range cond.FalseValues {
			a := NewVariableAnalyzer(cond.VarName, v, elseBody, scopeEnd(l, elseBody))
			if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
				changed = true
			}
		}
		return changed
	})
}

func passTerminatingCondition(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "if" {
			continue
		}
		cond, ok := ParseCondition(l, i)
		if !ok {
			continue
		}
		brace := findBraceAfterCond(l, i)
		if brace == 0 {
			continue
		}
		end := l.Link(brace)
		if end == 0 || !branchTerminates(l, l.Next(brace), l.Prev(end)) {
			continue
		}
		// then-branch always exits the enclosing scope: the false values
		// hold from here on (spec.md section 4.5.4, "propagate the
		// opposite-branch values past the whole if-chain").
		after := l.Next(end)
		if after == 0 {
			continue
		}
		for _, v := range cond.FalseValues {
			a := NewVariableAnalyzer(cond.VarName, v, after, scopeEnd(l, after))
			if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
				changed = true
			}
		}
	}
	return changed
}

func branchTerminates(l *toklist.List, start, end int32) bool {
	for i := start; i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Kind == toklist.KindKeyword {
			switch t.Str {
			case "return", "break", "continue", "goto":
				return true
			}
		}
		if i == end {
			break
		}
	}
	return false
}

func passBeforeCondition(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "if" {
			continue
		}
		cond, ok := ParseCondition(l, i)
		if !ok || len(cond.TrueValues) == 0 {
			continue
		}
		v := cond.TrueValues[0]
		if v.Kind != toklist.Known {
			continue
		}
		a := NewVariableAnalyzer(cond.VarName, v, i, i)
		if RunReverse(l, a, l.Prev(i), l.Front()) > 0 {
			changed = true
		}
	}
	return changed
}

func passAfterMove(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "move" {
			continue
		}
		prev := l.At(l.Prev(i))
		if prev == nil || prev.Str != "::" {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		arg := l.Next(open)
		if arg == 0 || l.At(arg).Kind != toklist.KindName {
			continue
		}
		closeParen := l.Link(open)
		if closeParen == 0 {
			continue
		}
		v := toklist.Value{Variant: toklist.VMoved, Kind: toklist.Known, MoveState: toklist.MoveMoved}
		a := NewVariableAnalyzer(l.At(arg).Str, v, l.Next(closeParen), scopeEnd(l, closeParen))
		if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
			changed = true
		}
	}
	return changed
}

func passAfterCondition(st *EngineState) bool {
	return forEachIfElse(st.List, func(l *toklist.List, ifTok, elseBody int32) bool {
		cond, ok := ParseCondition(l, ifTok)
		if !ok {
			return false
		}
		brace := findBraceAfterCond(l, ifTok)
		if brace == 0 {
			return false
		}
		thenStart, thenEnd := l.Next(brace), l.Prev(l.Link(brace))
		changed := false
		for _, v := range cond.TrueValues {
			a := NewVariableAnalyzer(cond.VarName, v, thenStart, thenEnd)
			if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
				changed = true
			}
		}
		return changed
	})
}

func passInferCondition(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "if" {
			continue
		}
		cond, ok := ParseCondition(l, i)
		if !ok {
			continue
		}
		decl := findFirstOccurrence(l, cond.VarName, l.Front(), i)
		if decl == 0 {
			continue
		}
		known, ok := l.At(decl).KnownValue(toklist.VInt)
		if !ok {
			continue
		}
		truth := conditionSatisfiedBy(cond, known)
		if truth == nil {
			continue
		}
		if i != 0 {
			if l.At(i).AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: boolInt(*truth)}) {
				changed = true
			}
		}
	}
	return changed
}

func conditionSatisfiedBy(c Condition, known toklist.Value) *bool {
	for _, tv := range c.TrueValues {
		if tv.Kind == toklist.Known && tv.Variant == toklist.VInt && tv.IntVal == known.IntVal {
			t := true
			return &t
		}
		if tv.Kind == toklist.Impossible && tv.IntVal == known.IntVal {
			f := false
			return &f
		}
	}
	return nil
}

func passAfterAssign(st *EngineState) bool {
	return passFwdAnalysis(st) // same shape: seed-and-forward from a literal assignment
}

func passSwitchVariable(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "switch" {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		closeParen := l.Link(open)
		name := l.At(l.Next(open))
		if name == nil || name.Kind != toklist.KindName || closeParen == 0 {
			continue
		}
		brace := l.Next(closeParen)
		if brace == 0 || l.At(brace).Str != "{" {
			continue
		}
		end := l.Link(brace)
		if end == 0 {
			continue
		}
		for cur := l.Next(brace); cur != 0 && cur != end; cur = l.Next(cur) {
			if l.At(cur).Str != "case" {
				continue
			}
			num := l.At(l.Next(cur))
			colon := l.Next(l.Next(cur))
			if num == nil || num.Kind != toklist.KindNumber || colon == 0 {
				continue
			}
			v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: parseLiteralInt(num.Str)}
			a := NewVariableAnalyzer(name.Str, v, l.Next(colon), l.Prev(end))
			if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
				changed = true
			}
		}
	}
	return changed
}

func passForLoop(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "for" {
			continue
		}
		header, ok := ParseForLoop(l, i)
		if !ok {
			continue
		}
		if header.BodyStart != 0 {
			v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: header.Init}
			a := NewVariableAnalyzer(header.Var, v, header.BodyStart, header.BodyEnd)
			if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
				changed = true
			}
			if final, ok := header.FinalValue(); ok && final != header.Init {
				last := final - header.StepAmount
				if header.StepOp == "--" || header.StepOp == "-=" {
					last = final + header.StepAmount
				}
				v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: last}
				a := NewVariableAnalyzer(header.Var, v, header.BodyStart, header.BodyEnd)
				if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
					changed = true
				}
			}
		}
		if final, ok := header.FinalValue(); ok {
			after := afterLoopToken(l, i)
			if after != 0 {
				v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: final}
				a := NewVariableAnalyzer(header.Var, v, after, scopeEnd(l, after))
				if RunForward(l, a, a.StartTok, a.EndTok) > 0 {
					changed = true
				}
			}
		}
	}
	return changed
}

func afterLoopToken(l *toklist.List, forTok int32) int32 {
	open := l.Next(forTok)
	if open == 0 {
		return 0
	}
	closeParen := l.Link(open)
	if closeParen == 0 {
		return 0
	}
	_, _, after := loopBodyBounds(l, closeParen)
	return after
}

func passSubFunction(st *EngineState) bool {
	if st.FuncDefs == nil {
		st.FuncDefs = ScanFuncDefs(st.List)
	}
	return InjectSubFunctions(st.List, st.FuncDefs, &st.NextPath)
}

func passFunctionReturn(st *EngineState) bool {
	if st.FuncDefs == nil {
		st.FuncDefs = ScanFuncDefs(st.List)
	}
	l := st.List
	changed := false
	for _, def := range st.FuncDefs {
		val, ok := consistentReturnValue(l, def)
		if !ok {
			continue
		}
		for i := l.Front(); i != 0; i = l.Next(i) {
			if i >= def.BodyStart && i <= def.BodyEnd {
				continue
			}
			if l.At(i).Str != def.Name {
				continue
			}
			open := l.Next(i)
			if open == 0 || l.At(open).Str != "(" {
				continue
			}
			if l.At(i).AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: val}) {
				changed = true
			}
		}
	}
	return changed
}

func consistentReturnValue(l *toklist.List, def FuncDef) (int64, bool) {
	var val int64
	found := false
	for i := def.BodyStart; i != 0; i = l.Next(i) {
		if l.At(i).Str == "return" {
			num := l.At(l.Next(i))
			if num == nil || num.Kind != toklist.KindNumber {
				return 0, false
			}
			n := parseLiteralInt(num.Str)
			if found && n != val {
				return 0, false
			}
			val, found = n, true
		}
		if i == def.BodyEnd {
			break
		}
	}
	return val, found
}

func passUninit(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Kind != toklist.KindKeyword || !isTypeKeyword(t.Str) {
			continue
		}
		name := l.At(l.Next(i))
		if name == nil || name.Kind != toklist.KindName {
			continue
		}
		after := l.At(l.Next(l.Next(i)))
		if after == nil || after.Str != ";" {
			continue
		}
		if l.At(l.Next(i)).AddValue(toklist.Value{Variant: toklist.VUninit, Kind: toklist.Possible}) {
			changed = true
		}
	}
	return changed
}

func isTypeKeyword(s string) bool {
	switch s {
	case "int", "char", "short", "long", "float", "double", "unsigned", "signed":
		return true
	}
	return false
}

func passSmartPointerIterators(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "begin" && l.At(i).Str != "end" {
			continue
		}
		dot := l.At(l.Prev(i))
		if dot == nil || dot.Str != "." {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		variant := toklist.VIteratorStart
		if l.At(i).Str == "end" {
			variant = toklist.VIteratorEnd
		}
		if l.At(i).AddValue(toklist.Value{Variant: variant, Kind: toklist.Known}) {
			changed = true
		}
	}
	return changed
}

func passContainerSize(st *EngineState) bool {
	l := st.List
	changed := false
	counts := map[string]int64{}
	for i := l.Front(); i != 0; i = l.Next(i) {
		name := l.At(i)
		if name == nil || name.Kind != toklist.KindName {
			continue
		}
		dot := l.At(l.Next(i))
		if dot == nil || dot.Str != "." {
			continue
		}
		method := l.At(l.Next(l.Next(i)))
		if method == nil {
			continue
		}
		switch method.Str {
		case "push_back", "emplace_back", "insert":
			counts[name.Str]++
		case "pop_back", "erase":
			if counts[name.Str] > 0 {
				counts[name.Str]--
			}
		default:
			continue
		}
		if l.At(i).AddValue(toklist.Value{Variant: toklist.VContainerSize, Kind: toklist.Known, IntVal: counts[name.Str]}) {
			changed = true
		}
	}
	return changed
}

func passSafeFunctions(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if !safeFunctionAllowlist[l.At(i).Str] {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		allArgsKnown := true
		closeParen := l.Link(open)
		if closeParen == 0 {
			continue
		}
		for argTok := l.Next(open); argTok != 0 && argTok != closeParen; argTok = l.Next(argTok) {
			if arg := l.At(argTok); arg.Kind == toklist.KindName {
				if _, ok := arg.KnownValue(toklist.VInt); !ok {
					allArgsKnown = false
				}
			}
		}
		v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, Safe: allArgsKnown}
		if l.At(i).AddValue(v) {
			changed = true
		}
	}
	return changed
}

var safeFunctionAllowlist = map[string]bool{
	"strlen": true, "memcpy": true, "memset": true, "strncpy": true, "strncmp": true,
}

func passDynamicBufferSize(st *EngineState) bool {
	l := st.List
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "malloc" {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		sizeTok := l.At(l.Next(open))
		if sizeTok == nil || sizeTok.Kind != toklist.KindNumber {
			continue
		}
		// find the assigned pointer: "ptr = ( cast ) ? malloc (...)"
		walk := i
		for n := 0; n < 6 && walk != 0; n++ {
			walk = l.Prev(walk)
			if walk != 0 && l.At(walk).Str == "=" {
				ptr := l.At(l.Prev(walk))
				if ptr != nil && ptr.Kind == toklist.KindName {
					if l.At(l.Prev(walk)).AddValue(toklist.Value{
						Variant: toklist.VBufferSize, Kind: toklist.Known, IntVal: parseLiteralInt(sizeTok.Str),
					}) {
						changed = true
					}
				}
				break
			}
		}
	}
	return changed
}

// ---- shared helpers ----

func countAllValues(l *toklist.List) int {
	n := 0
	for i := l.Front(); i != 0; i = l.Next(i) {
		n += len(l.At(i).Values)
	}
	return n
}

func parseLiteralInt(s string) int64 { return mustParseNum(s) }

func propagateNameValue(l *toklist.List, name string, v toklist.Value) bool {
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Kind == toklist.KindName && t.Str == name {
			if t.AddValue(v) {
				changed = true
			}
		}
	}
	return changed
}

func findFirstOccurrence(l *toklist.List, name string, start, before int32) int32 {
	for i := start; i != 0 && i != before; i = l.Next(i) {
		if l.At(i).Str == name && l.At(i).Kind == toklist.KindName {
			return i
		}
	}
	return 0
}

func findBraceAfterCond(l *toklist.List, ifTok int32) int32 {
	open := l.Next(ifTok)
	if open == 0 || l.At(open).Str != "(" {
		return 0
	}
	closeParen := l.Link(open)
	if closeParen == 0 {
		return 0
	}
	brace := l.Next(closeParen)
	if brace != 0 && l.At(brace).Str == "{" {
		return brace
	}
	return 0
}

// inConditionalScope reports whether tok lies directly inside a
// braced if/while body, i.e. whether reaching it depends on a
// condition that might not hold (spec.md section 8 scenario 4: a
// write inside an `if` doesn't unconditionally replace a value
// carried in from outside the branch).
func inConditionalScope(l *toklist.List, tok int32) bool {
	depth := 0
	for i := l.Prev(tok); i != 0; i = l.Prev(i) {
		switch l.At(i).Str {
		case "}":
			depth++
		case "{":
			if depth == 0 {
				return precededByConditionalHeader(l, i)
			}
			depth--
		}
	}
	return false
}

func precededByConditionalHeader(l *toklist.List, brace int32) bool {
	closeParen := l.Prev(brace)
	if closeParen == 0 || l.At(closeParen).Str != ")" {
		return false
	}
	open := l.Link(closeParen)
	if open == 0 {
		return false
	}
	header := l.At(l.Prev(open))
	return header != nil && (header.Str == "if" || header.Str == "while")
}

// scopeEnd returns the end of the enclosing brace block containing
// `tok`, or the list's back token if `tok` isn't inside one (file scope).
func scopeEnd(l *toklist.List, tok int32) int32 {
	depth := 0
	for i := tok; i != 0; i = l.Next(i) {
		switch l.At(i).Str {
		case "{":
			depth++
		case "}":
			if depth == 0 {
				return l.Prev(i)
			}
			depth--
		}
	}
	return l.Back()
}

// forEachIfElse walks every `if` and, when present, its `else` body, invoking fn(l, ifTok, elseBodyStartOrZero).
func forEachIfElse(l *toklist.List, fn func(*toklist.List, int32, int32) bool) bool {
	changed := false
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str != "if" {
			continue
		}
		brace := findBraceAfterCond(l, i)
		elseBody := int32(0)
		if brace != 0 {
			end := l.Link(brace)
			if end != 0 {
				afterBrace := l.Next(end)
				if afterBrace != 0 && l.At(afterBrace).Str == "else" {
					elseBrace := l.Next(afterBrace)
					if elseBrace != 0 && l.At(elseBrace).Str == "{" {
						elseBody = l.Next(elseBrace)
					} else {
						elseBody = elseBrace
					}
				}
			}
		}
		if fn(l, i, elseBody) {
			changed = true
		}
	}
	return changed
}
