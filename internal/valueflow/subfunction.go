package valueflow

import "cppcore/internal/toklist"

// maxArgCombinations caps how many call sites, across all callees, get
// argument values bound in one InjectSubFunctions run. Each argument
// contributes only its single Known value, so no Cartesian product of
// argument values is formed, and reaching the cap emits no diagnostic.
const maxArgCombinations = 256

// FuncDef is one function definition discovered by ScanFuncDefs: a
// name, parameter names in order, and the token range of its body.
type FuncDef struct {
	Name       string
	Params     []string
	BodyStart  int32
	BodyEnd    int32
}

// ScanFuncDefs finds every "name ( params ) { ... }" shape in `l`.
// This is a coarse, declaration-free heuristic (there is no symbol
// table in this engine): it accepts any bracketed parameter list
// immediately followed by a brace block, which is good enough to
// locate real function bodies in preprocessed, configuration-split
// C/C++ without a full grammar.
func ScanFuncDefs(l *toklist.List) []FuncDef {
	var defs []FuncDef
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Kind != toklist.KindName {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		closeParen := l.Link(open)
		if closeParen == 0 {
			continue
		}
		brace := l.Next(closeParen)
		if brace == 0 || l.At(brace).Str != "{" {
			continue
		}
		braceEnd := l.Link(brace)
		if braceEnd == 0 {
			continue
		}
		defs = append(defs, FuncDef{
			Name:      t.Str,
			Params:    paramNames(l, open, closeParen),
			BodyStart: l.Next(brace),
			BodyEnd:   l.Prev(braceEnd),
		})
	}
	return defs
}

func paramNames(l *toklist.List, open, closeParen int32) []string {
	var names []string
	var lastName string
	for i := l.Next(open); i != 0 && i != closeParen; i = l.Next(i) {
		t := l.At(i)
		if t.Kind == toklist.KindName {
			lastName = t.Str
		}
		if t.Str == "," {
			if lastName != "" {
				names = append(names, lastName)
			}
			lastName = ""
		}
	}
	if lastName != "" {
		names = append(names, lastName)
	}
	return names
}

// InjectSubFunctions implements spec.md section 4.5.6: for every call
// site of a known function, bind the callee's parameters to the
// caller's argument values under a fresh path tag and forward-analyze
// the callee body, so a Known value at the call site propagates into
// the callee without needing a real interprocedural dataflow solve.
func InjectSubFunctions(l *toklist.List, defs []FuncDef, nextPath *int64) bool {
	changed := false
	byName := map[string]FuncDef{}
	for _, d := range defs {
		byName[d.Name] = d
	}

	combos := 0
	for i := l.Front(); i != 0 && combos < maxArgCombinations; i = l.Next(i) {
		t := l.At(i)
		if t.Kind != toklist.KindName {
			continue
		}
		def, ok := byName[t.Str]
		if !ok || len(def.Params) == 0 {
			continue
		}
		open := l.Next(i)
		if open == 0 || l.At(open).Str != "(" {
			continue
		}
		closeParen := l.Link(open)
		if closeParen == 0 {
			continue
		}
		if i >= def.BodyStart && i <= def.BodyEnd {
			continue // skip recursive self-calls: no new information to inject
		}

		args := splitArgs(l, open, closeParen)
		if len(args) != len(def.Params) {
			continue
		}

		*nextPath++
		path := *nextPath
		bound := false
		for idx, argTok := range args {
			v, ok := l.At(argTok).KnownValue(toklist.VInt)
			if !ok {
				continue
			}
			v.Path = path
			paramTok := findNameInRange(l, def.Params[idx], def.BodyStart, def.BodyEnd)
			if paramTok == 0 {
				continue
			}
			a := NewVariableAnalyzer(def.Params[idx], v, paramTok, def.BodyEnd)
			RunForward(l, a, a.StartTok, a.EndTok)
			bound = true
		}
		if bound {
			changed = true
			combos++
		}
	}
	return changed
}

func splitArgs(l *toklist.List, open, closeParen int32) []int32 {
	var args []int32
	depth := 0
	var cur int32
	for i := l.Next(open); i != 0 && i != closeParen; i = l.Next(i) {
		t := l.At(i)
		switch t.Str {
		case "(", "[", "{":
			depth++
		case ")", "]", "}":
			depth--
		case ",":
			if depth == 0 {
				if cur != 0 {
					args = append(args, cur)
				}
				cur = 0
				continue
			}
		}
		if cur == 0 {
			cur = i
		}
	}
	if cur != 0 {
		args = append(args, cur)
	}
	return args
}

func findNameInRange(l *toklist.List, name string, start, end int32) int32 {
	for i := start; i != 0; i = l.Next(i) {
		if l.At(i).Str == name && l.At(i).Kind == toklist.KindName {
			return i
		}
		if i == end {
			break
		}
	}
	return 0
}
