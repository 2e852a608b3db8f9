package preproc

import (
	"strconv"
	"strings"

	"cppcore/internal/macro"
	"cppcore/internal/srcnorm"
	"cppcore/internal/toklist"
)

// workItem is one configuration still queued for processing: a token
// list plus the macro assumptions that produced it (spec.md section
// 4.4, "the splitter's work queue").
type workItem struct {
	name string
	l    *toklist.List
	m    *macro.Table
}

// driver holds the state shared across every workItem processed by one
// GetConfigurations run: the accumulating result and the max-configs
// one-shot diagnostic latch.
type driver struct {
	opt     *Options
	res     *Result
	tooMany bool
}

// GetConfigurations is the top-level entry point spec.md section 4.3
// names: it walks `l` under `initial`'s assumptions, splitting into a
// new configuration whenever the #if reducer reports VerdictNew, and
// returns the completed token list for every configuration discovered,
// bounded by opt.MaxConfigs.
func GetConfigurations(l *toklist.List, initial *macro.Table, opt Options) *Result {
	if opt.MaxConfigs <= 0 {
		opt.MaxConfigs = 12
	}
	res := &Result{Configs: map[string]*toklist.List{}}
	d := &driver{opt: &opt, res: res}

	queue := []*workItem{{l: l, m: initial}}
	for len(queue) > 0 {
		item := queue[0]
		queue = queue[1:]

		pos := item.l.Front()
		for pos != 0 {
			next, spawned := d.stepAt(item, pos)
			for _, sp := range spawned {
				if len(res.Configs)+len(queue)+1 >= opt.MaxConfigs {
					if !d.tooMany {
						d.tooMany = true
						res.Diagnostics = append(res.Diagnostics, Diagnostic{
							Kind:    "toomanyconfigs",
							Message: "too many configurations, further splits suppressed",
						})
					}
					continue
				}
				queue = append(queue, sp)
			}
			pos = next
		}

		item.name = canonicalName(item.m)
		res.Configs[item.name] = item.l
	}
	return res
}

// stepAt advances the scan by exactly one directive or token,
// returning the resume position and any configurations the step split
// off (non-nil only for an #if chain that forked).
func (d *driver) stepAt(item *workItem, pos int32) (int32, []*workItem) {
	l := item.l
	t := l.At(pos)

	if t.Kind == toklist.KindHash {
		dirTok := l.Next(pos)
		if dirTok == 0 {
			return l.Next(pos), nil
		}
		switch l.At(dirTok).Str {
		case "if":
			return d.handleIfChain(item, pos)
		case "define":
			return d.handleDefine(item, pos), nil
		case "undef":
			return d.handleUndef(item, pos), nil
		case "include":
			return d.handleInclude(item, pos), nil
		case "pragma":
			return d.handlePragma(item, pos), nil
		default:
			// #error, #line, #warning, and anything else unrecognized:
			// the directive line carries no splitting information, drop it.
			end := lineEnd(l, pos)
			next := l.Next(end)
			l.RemoveRange(pos, end)
			return next, nil
		}
	}

	if t.Kind == toklist.KindName {
		active := map[string]bool{}
		last := macro.Expand(l, item.m, pos, active)
		return l.Next(last), nil
	}

	return l.Next(pos), nil
}

// handleIfChain resolves one whole #if/#elif/#else/#endif chain
// starting at `ifHash`, deciding each member's verdict in turn
// (spec.md section 4.4, "Verdict rules"): Known(true) keeps that
// branch and discards the rest of the chain, Known(false)/Conflict
// discards that branch and moves to the next sibling, and New forks
// the configuration in two and re-evaluates the fixed chain in each.
func (d *driver) handleIfChain(item *workItem, ifHash int32) (int32, []*workItem) {
	l := item.l

	if name, ok := detectHeaderGuard(l, ifHash); ok {
		_ = name
		return d.takeBranch(item, ifHash)
	}

	member := ifHash
	decided := false
	for member != 0 {
		dirWord := l.At(l.Next(member)).Str

		if dirWord == "endif" {
			end := lineEnd(l, member)
			next := l.Next(end)
			l.RemoveRange(member, end)
			return next, nil
		}

		if decided {
			member = d.dropSibling(l, member)
			continue
		}

		if dirWord == "else" {
			return d.takeBranch(item, member)
		}

		condTok := l.Next(member)
		condToks := extractCondition(l, condTok)
		node := newExprParser(l, condToks).parseExpr(0)
		r := evalNode(node, &Configuration{Tokens: l, Macros: item.m}, true)

		switch r.verdict {
		case VerdictNew:
			return d.split(item, ifHash, r.split)
		case VerdictKnown:
			if r.value != 0 {
				return d.takeBranch(item, member)
			}
			member = d.dropSibling(l, member)
			continue
		default: // VerdictUnhandled
			d.res.Diagnostics = append(d.res.Diagnostics, Diagnostic{
				Kind:    "debug",
				Message: "unhandled #if condition treated as live branch",
				File:    l.File(member),
				Line:    l.Linenr(member),
			})
			return d.takeBranch(item, member)
		}
	}
	return 0, nil
}

// dropSibling deletes a dead chain member's directive line and its
// whole (dead) body, and returns the next sibling.
func (d *driver) dropSibling(l *toklist.List, member int32) int32 {
	next := l.IfNext(member)
	var bodyEnd int32
	if next != 0 {
		bodyEnd = l.Prev(next)
	} else {
		bodyEnd = l.Back()
	}
	l.RemoveRange(member, bodyEnd)
	return next
}

// takeBranch keeps `member`'s body, strips its own directive line, and
// removes every remaining sibling (directive + body) through #endif.
func (d *driver) takeBranch(item *workItem, member int32) (int32, []*workItem) {
	l := item.l
	ownEnd := lineEnd(l, member)
	bodyStart := l.Next(ownEnd)

	cur := l.IfNext(member)
	for cur != 0 {
		dirWord := l.At(l.Next(cur)).Str
		next := l.IfNext(cur)
		if dirWord == "endif" {
			e := lineEnd(l, cur)
			l.RemoveRange(cur, e)
			break
		}
		var be int32
		if next != 0 {
			be = l.Prev(next)
		} else {
			be = l.Back()
		}
		l.RemoveRange(cur, be)
		cur = next
	}

	l.RemoveRange(member, ownEnd)
	return bodyStart, nil
}

// split forks the configuration spec.md section 4.4 step 1-2 describe:
// clone the whole list and macro table, commit the opposite hypothesis
// in the original, the positive one in the clone, then re-evaluate the
// same chain in both (now Known on the second pass).
func (d *driver) split(item *workItem, ifHash int32, key SplitKey) (int32, []*workItem) {
	clone := &workItem{l: item.l.Clone(), m: item.m.Clone()}

	if key.Op == "" {
		clone.m.AssumedDefs[key.Ident] = ""
		item.m.AssumedNdefs[key.Ident] = true
	} else {
		clone.m.AssumedDefs[key.Ident] = key.Op + strconv.FormatInt(key.Value, 10)
		opp := key.Opposite()
		item.m.AssumedDefs[key.Ident] = opp.Op + strconv.FormatInt(opp.Value, 10)
	}

	next, spawned := d.handleIfChain(item, ifHash)
	return next, append(spawned, clone)
}

func macroDefinedTruth(t *macro.Table, name string) bool {
	if _, ok := t.Defs[name]; ok {
		return true
	}
	if t.Undefs[name] {
		return false
	}
	if t.AssumedNdefs[name] {
		return false
	}
	if _, ok := t.AssumedDefs[name]; ok {
		return true
	}
	return false
}

// detectHeaderGuard recognizes the "#if ( defined ! X ) / #define X /
// ... / #endif" shape spec.md section 4.4 calls out as a special case
// worth not splitting on: a self-include guard should not fork the
// analysis into "X defined"/"X undefined" configurations.
func detectHeaderGuard(l *toklist.List, ifHash int32) (string, bool) {
	if ifHash != l.Front() {
		return "", false
	}
	condTok := l.Next(ifHash)
	toks := extractCondition(l, condTok)
	if len(toks) != 5 {
		return "", false
	}
	str := func(i int) string { return l.At(toks[i]).Str }
	if str(0) != "(" || str(1) != "defined" || str(2) != "!" || str(4) != ")" {
		return "", false
	}
	name := str(3)

	next := l.IfNext(ifHash)
	if next == 0 || l.At(l.Next(next)).Str != "endif" {
		return "", false // only a bare #if...#endif counts, no #elif/#else
	}

	bodyStart := l.Next(lineEnd(l, ifHash))
	if bodyStart == 0 || l.At(bodyStart).Kind != toklist.KindHash {
		return "", false
	}
	defDir := l.Next(bodyStart)
	if defDir == 0 || l.At(defDir).Str != "define" {
		return "", false
	}
	defName := l.Next(defDir)
	if defName == 0 || l.At(defName).Str != name {
		return "", false
	}
	return name, true
}

// handleDefine processes a "# define NAME ... " directive line,
// recording the macro and deleting the directive.
func (d *driver) handleDefine(item *workItem, hashPos int32) int32 {
	l := item.l
	dirTok := l.Next(hashPos)
	nameTok := l.Next(dirTok)
	end := lineEnd(l, hashPos)
	next := l.Next(end)
	if nameTok == 0 {
		l.RemoveRange(hashPos, end)
		return next
	}

	nameT := l.At(nameTok)
	name := nameT.Str
	bodyStart := l.Next(nameTok)

	fnLike := false
	if bodyStart != 0 && l.At(bodyStart).Str == "(" {
		bt := l.At(bodyStart)
		if nameT.Column+len(nameT.Str) == bt.Column {
			fnLike = true
		}
	}

	bodyText := ""
	if bodyStart != 0 {
		bodyText = reconstitute(l, bodyStart, end)
	}
	if fnLike {
		item.m.Define(name, bodyText)
	} else {
		item.m.Define(name, " "+bodyText)
	}

	l.RemoveRange(hashPos, end)
	return next
}

func (d *driver) handleUndef(item *workItem, hashPos int32) int32 {
	l := item.l
	dirTok := l.Next(hashPos)
	nameTok := l.Next(dirTok)
	end := lineEnd(l, hashPos)
	next := l.Next(end)
	if nameTok != 0 {
		item.m.Undefine(l.At(nameTok).Str)
	}
	l.RemoveRange(hashPos, end)
	return next
}

// handleInclude resolves an #include via opt.Includes, splices the
// normalized, tokenized included content in place of the directive,
// and re-links any directive chains the included text introduces.
// With no resolver configured (or on a miss), it records a
// missingInclude/missingIncludeSystem diagnostic and drops the line,
// matching spec.md section 7's "preprocessing continues" stance.
func (d *driver) handleInclude(item *workItem, hashPos int32) int32 {
	l := item.l
	dirTok := l.Next(hashPos)
	firstArg := l.Next(dirTok)
	end := lineEnd(l, hashPos)
	next := l.Next(end)
	file := l.File(hashPos)
	line := l.Linenr(hashPos)

	var path string
	var system bool
	if firstArg != 0 && l.At(firstArg).Kind == toklist.KindString {
		path = strings.Trim(l.At(firstArg).Str, `"`)
	} else if firstArg != 0 && l.At(firstArg).Str == "<" {
		system = true
		var b strings.Builder
		for i := l.Next(firstArg); i != 0 && i != end && l.At(i).Str != ">"; i = l.Next(i) {
			b.WriteString(l.At(i).Str)
		}
		path = b.String()
	}

	prevBefore := l.Prev(hashPos)
	l.RemoveRange(hashPos, end)

	if path == "" {
		return next
	}
	if item.m.IncludedOnce[path] {
		return next
	}
	if d.opt.Includes == nil {
		d.missingInclude(path, system, file, line)
		return next
	}
	content, resolved, ok := d.opt.Includes.Resolve(path, system, file)
	if !ok {
		d.missingInclude(path, system, file, line)
		return next
	}
	if item.m.IncludedOnce[resolved] {
		return next
	}

	norm := srcnorm.Simplify(content, resolved)
	l.Tokenize(norm.Source, resolved, prevBefore)
	l.UniformizeIfs()
	l.CreateLinkage()

	resume := l.Next(prevBefore)
	if resume == 0 {
		return next
	}
	return resume
}

func (d *driver) missingInclude(path string, system bool, file string, line int) {
	kind := "missingInclude"
	if system {
		kind = "missingIncludeSystem"
	}
	d.res.Diagnostics = append(d.res.Diagnostics, Diagnostic{
		Kind: kind, Message: "include file not found: " + path, File: file, Line: line,
	})
}

// handlePragma recognizes "#pragma once" (marks the current file so a
// later #include of it is a no-op) and "#pragma asm ... #pragma
// endasm" (rewrites the block to "asm ( ... ) ;" so later passes see
// one opaque statement, per spec.md section 4.4's pragma handling
// note); every other pragma is dropped since it carries no splitting
// information.
func (d *driver) handlePragma(item *workItem, hashPos int32) int32 {
	l := item.l
	dirTok := l.Next(hashPos)
	argTok := l.Next(dirTok)
	end := lineEnd(l, hashPos)
	next := l.Next(end)
	arg := ""
	if argTok != 0 {
		arg = l.At(argTok).Str
	}

	switch arg {
	case "once":
		item.m.IncludedOnce[l.File(hashPos)] = true
		l.RemoveRange(hashPos, end)
		return next

	case "asm":
		bodyStart := l.Next(argTok)
		cur := next
		for cur != 0 {
			if l.At(cur).Kind == toklist.KindHash {
				d2 := l.Next(cur)
				if d2 != 0 && l.At(d2).Str == "pragma" {
					a2 := l.Next(d2)
					if a2 != 0 && l.At(a2).Str == "endasm" {
						bodyEnd := l.Prev(cur)
						bodyText := ""
						if bodyStart != 0 && bodyEnd != 0 {
							bodyText = reconstitute(l, bodyStart, bodyEnd)
						}
						endasmEnd := lineEnd(l, cur)
						afterAsm := l.Next(endasmEnd)
						l.RemoveRange(hashPos, endasmEnd)
						last := l.CreateTokens("asm ( "+bodyText+" ) ;", item.l.Prev(hashPos), l.At(hashPos).FileIndex, l.Linenr(hashPos))
						if last == 0 {
							return afterAsm
						}
						return l.Next(last)
					}
				}
			}
			cur = l.Next(cur)
		}
		// no matching #pragma endasm found: drop just the opening line.
		l.RemoveRange(hashPos, end)
		return next

	default:
		l.RemoveRange(hashPos, end)
		return next
	}
}

// lineEnd returns the last token on the same physical line as `hashPos`.
func lineEnd(l *toklist.List, hashPos int32) int32 {
	line := l.At(hashPos).Line
	cur := hashPos
	for {
		next := l.Next(cur)
		if next == 0 || l.At(next).Line != line {
			return cur
		}
		cur = next
	}
}

// reconstitute joins the tokens from `from` to `to` inclusive with
// single spaces, good enough text for macro.Table.Define/substitution
// to re-parse (the replacement gets re-lexed once spliced in anyway).
func reconstitute(l *toklist.List, from, to int32) string {
	var b strings.Builder
	for i := from; i != 0; i = l.Next(i) {
		if i != from {
			b.WriteByte(' ')
		}
		b.WriteString(l.At(i).Str)
		if i == to {
			break
		}
	}
	return b.String()
}
