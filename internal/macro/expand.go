package macro

import (
	"strings"

	"cppcore/internal/toklist"
)

// Expand attempts macro expansion at token `i`, returning the index of
// the last token of the (possibly multi-token) replacement, or i
// unchanged if no expansion applied. `active` is the cycle-breaker:
// the set of macro names already on the expansion stack for the
// tokens currently being produced: a name in `active` is never
// re-expanded, which is what stops infinite recursion on
// self-referential object-like macros (spec.md section 4.3).
func Expand(l *toklist.List, t *Table, i int32, active map[string]bool) int32 {
	tok := l.At(i)
	if tok == nil || tok.Kind != toklist.KindName {
		return i
	}
	name := tok.Str
	if active[name] {
		return i
	}

	m, ok := t.Defs[name]
	if !ok {
		if pred, ok := t.AssumedDefs[name]; ok && pred == "" {
			// assumed defined with unknown body: leave as-is, nothing to
			// substitute (spec.md section 4.3: "if the assumed body is
			// empty, return tok unchanged").
		}
		return i
	}
	if m.Body == "" {
		return i
	}

	if m.FunctionLike {
		return expandFunctionLike(l, t, i, m, active)
	}
	return expandObjectLike(l, t, i, m, active)
}

func expandObjectLike(l *toklist.List, t *Table, i int32, m Macro, active map[string]bool) int32 {
	fileIdx := l.At(i).FileIndex
	line := l.At(i).Line
	after := l.Next(i)
	prevTok := l.Prev(i)
	l.Remove(i)

	body := strings.TrimPrefix(m.Body, " ")
	last := l.CreateTokens(body, prevTok, fileIdx, line)

	// Recursively try to expand every produced token, refusing to
	// re-expand `m.Name` while it's on the stack.
	active[m.Name] = true
	cur := l.Next(prevTok)
	for cur != 0 && cur != after {
		nextExpanded := Expand(l, t, cur, active)
		cur = l.Next(nextExpanded)
	}
	delete(active, m.Name)

	if last == prevTok {
		// Body expanded to nothing; report the token right before the
		// insertion point as the expansion's tail.
		return prevTok
	}
	return last
}

func expandFunctionLike(l *toklist.List, t *Table, i int32, m Macro, active map[string]bool) int32 {
	openParen := l.Next(i)
	if openParen == 0 || l.At(openParen).Str != "(" {
		// Fail soft: invocation is syntactically malformed, leave unchanged.
		return i
	}

	args, closeParen, ok := collectArgs(l, openParen)
	if !ok {
		return i
	}
	if len(m.Params) > 0 && !m.Variadic && len(args) != len(m.Params) {
		return i // malformed invocation: arity mismatch, fail soft
	}

	binding := map[string]string{}
	for idx, p := range m.Params {
		if p == "args..." {
			binding[p] = strings.Join(args[idx:], " , ")
			break
		}
		if idx < len(args) {
			binding[p] = args[idx]
		}
	}

	substituted := substituteBody(m.Body, binding)

	fileIdx := l.At(i).FileIndex
	line := l.At(i).Line
	prevTok := l.Prev(i)
	after := l.Next(closeParen)
	l.RemoveRange(i, closeParen)

	last := l.CreateTokens(substituted, prevTok, fileIdx, line)

	active[m.Name] = true
	cur := l.Next(prevTok)
	for cur != 0 && cur != after {
		nextExpanded := Expand(l, t, cur, active)
		cur = l.Next(nextExpanded)
	}
	delete(active, m.Name)

	if last == prevTok {
		return prevTok
	}
	return last
}

// collectArgs walks from `(` to its matching `)`, splitting
// comma-separated, paren-balanced argument text, and returns the
// trimmed argument strings plus the index of the closing paren.
func collectArgs(l *toklist.List, openParen int32) ([]string, int32, bool) {
	depth := 0
	var cur strings.Builder
	var args []string
	i := openParen
	for i != 0 {
		tok := l.At(i)
		switch tok.Str {
		case "(":
			depth++
			if depth > 1 {
				cur.WriteString(tok.Str)
				cur.WriteByte(' ')
			}
		case ")":
			depth--
			if depth == 0 {
				args = append(args, strings.TrimSpace(cur.String()))
				return args, i, true
			}
			cur.WriteString(tok.Str)
			cur.WriteByte(' ')
		case ",":
			if depth == 1 {
				args = append(args, strings.TrimSpace(cur.String()))
				cur.Reset()
			} else {
				cur.WriteString(tok.Str)
				cur.WriteByte(' ')
			}
		default:
			cur.WriteString(tok.Str)
			cur.WriteByte(' ')
		}
		i = l.Next(i)
	}
	return nil, 0, false
}

// substituteBody applies parameter substitution, stringification
// (`#param`), and token-paste concatenation (`a##b`) to a function-like
// macro's body text, per spec.md section 4.3.
func substituteBody(body string, binding map[string]string) string {
	words := tokenizeWords(body)
	var out []string
	for idx := 0; idx < len(words); idx++ {
		w := words[idx]
		switch {
		case w == "#" && idx+1 < len(words):
			idx++
			arg := words[idx]
			val := binding[arg]
			out = append(out, `"`+strings.ReplaceAll(val, `"`, `\"`)+`"`)
		case w == "##":
			if len(out) > 0 && idx+1 < len(words) {
				left := out[len(out)-1]
				right := words[idx+1]
				if v, ok := binding[right]; ok {
					right = v
				}
				out[len(out)-1] = left + right
				idx++
			}
		default:
			if v, ok := binding[w]; ok {
				out = append(out, v)
			} else {
				out = append(out, w)
			}
		}
	}
	return strings.Join(out, " ")
}

// tokenizeWords is a coarse whitespace/punctuation splitter over macro
// body text good enough to locate `#`, `##`, and bare identifiers for
// substitution; it does not need to be a full C lexer since the body
// gets re-lexed properly once spliced into the token list.
func tokenizeWords(s string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			flush()
			i++
		case c == '#' && i+1 < len(s) && s[i+1] == '#':
			flush()
			words = append(words, "##")
			i += 2
		case c == '#':
			flush()
			words = append(words, "#")
			i++
		case isIdentByte(c):
			cur.WriteByte(c)
			i++
		default:
			flush()
			cur.WriteByte(c)
			flush()
			i++
		}
	}
	flush()
	return words
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
