package toklist

// CreateLinkage performs the one linear pass spec.md section 4.2
// describes: pair #if/#elif/#else/#endif directives via a stack, and
// pair brackets ( ) { } [ ] via a second stack. Each #elif/#else/#endif
// is chained to the previous member of its #if chain through
// IfNext/IfPrev, so a chain can be walked in either direction; link()
// pairs brackets only.
func (l *List) CreateLinkage() {
	var bracketStack []int32
	var ifStack []int32

	for i := l.front; i != nilIdx; i = l.arena[i].next {
		tok := &l.arena[i]

		if tok.Kind == KindBracket {
			switch tok.Str {
			case "(", "{", "[":
				bracketStack = append(bracketStack, i)
			case ")", "}", "]":
				if n := len(bracketStack); n > 0 {
					top := bracketStack[n-1]
					bracketStack = bracketStack[:n-1]
					l.SetLink(top, i)
				}
			}
		}

		if tok.Kind == KindHash {
			directiveTok := l.arena[i].next
			if directiveTok == nilIdx {
				continue
			}
			d := l.arena[directiveTok].Str
			switch d {
			case "if", "ifdef", "ifndef":
				ifStack = append(ifStack, i)
			case "elif", "else":
				if n := len(ifStack); n > 0 {
					prev := ifStack[n-1]
					l.SetIfChain(prev, i)
					ifStack[n-1] = i
				}
			case "endif":
				if n := len(ifStack); n > 0 {
					top := ifStack[n-1]
					ifStack = ifStack[:n-1]
					l.SetIfChain(top, i)
				}
			}
		}
	}
}

// UniformizeIfs rewrites `#ifdef X` to `#if ( defined X )`, `#ifndef X`
// to `#if ( defined ! X )`, and `#else if COND` (on one directive line)
// to `#elif COND`. A bare `defined X` inside an `#if` is left without
// parentheses; the #if expression parser accepts both spellings.
func (l *List) UniformizeIfs() {
	for i := l.front; i != nilIdx; i = l.arena[i].next {
		tok := &l.arena[i]
		if tok.Kind != KindHash {
			continue
		}
		dirIdx := l.arena[i].next
		if dirIdx == nilIdx {
			continue
		}
		dir := &l.arena[dirIdx]

		switch dir.Str {
		case "ifdef", "ifndef":
			negate := dir.Str == "ifndef"
			dir.Str = "if"
			nameIdx := l.arena[dirIdx].next
			if nameIdx == nilIdx {
				continue
			}
			name := l.arena[nameIdx].Str
			fileIdx := l.arena[nameIdx].FileIndex
			line := l.arena[nameIdx].Line
			replacement := "( defined " + name + " )"
			if negate {
				replacement = "( defined ! " + name + " )"
			}
			after := l.arena[nameIdx].next
			l.RemoveRange(nameIdx, nameIdx)
			l.CreateTokens(replacement, dirIdx, fileIdx, line)
			_ = after
		case "else":
			nxt := l.arena[dirIdx].next
			if nxt != nilIdx && l.arena[nxt].Str == "if" && l.arena[nxt].Line == dir.Line {
				// merge "#else if COND" into "#elif COND": drop the "if"
				// and rename #else itself.
				dir.Str = "elif"
				l.RemoveRange(nxt, nxt)
			}
		}
	}
}
