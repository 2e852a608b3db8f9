package valueflow

import "cppcore/internal/toklist"

// BuildExpressionAST walks one configuration's token list and links
// every binary/unary operator to its operand tokens via
// SetAstParent/SetAstOperands (spec.md section 4.5.1: "a token's value
// folds upward through its AST parent"). It runs once, before any
// pass, since every later pass assumes the links already exist.
//
// This is a best-effort precedence-climbing parse over each
// statement-like segment (delimited by a top-level ';', '{', or '}');
// it never reports an error, it just leaves a malformed or
// unrecognized sub-expression unlinked, which SetTokenValue already
// treats as "nothing to fold through" (analyzer.go/fold.go operate
// only on links that exist).
func BuildExpressionAST(l *toklist.List) {
	for i := l.Front(); i != 0; {
		t := l.At(i)
		if t.Kind == toklist.KindHash || t.Str == "{" || t.Str == "}" || t.Str == ";" {
			i = l.Next(i)
			continue
		}

		segStart := i
		segEnd := i
		depth := 0
		j := i
		for j != 0 {
			tj := l.At(j)
			if tj.Kind == toklist.KindBracket {
				switch tj.Str {
				case "(", "[":
					depth++
				case ")", "]":
					depth--
				case "{", "}":
					if depth == 0 {
						goto doneSeg
					}
				}
			}
			if depth == 0 && tj.Str == ";" {
				goto doneSeg
			}
			segEnd = j
			j = l.Next(j)
		}
	doneSeg:
		parseExprRange(l, segStart, segEnd)
		if j == 0 {
			i = 0
		} else {
			i = j
		}
	}
}

type astCursor struct {
	l    *toklist.List
	pos  int32
	stop int32 // one-past-the-end boundary; pos == stop means exhausted
}

func (c *astCursor) peek() *toklist.Token {
	if c.pos == 0 || c.pos == c.stop {
		return nil
	}
	return c.l.At(c.pos)
}

func (c *astCursor) advance() int32 {
	cur := c.pos
	if c.pos != 0 && c.pos != c.stop {
		c.pos = c.l.Next(c.pos)
	}
	return cur
}

// parseExprRange scans [start, end] (inclusive) for every maximal
// sub-expression it can recognize, setting AST links on each. A
// statement segment usually isn't one expression on its own (it may
// be prefixed by "return"/"if"/a declaration's type-specifier, or
// contain several comma-separated declarators): rather than require
// the whole segment to parse cleanly, this restarts the
// precedence-climbing parse at the next token whenever a parse
// attempt consumes nothing, so leading keywords and unrecognized
// tokens are simply skipped over rather than aborting the scan.
func parseExprRange(l *toklist.List, start, end int32) {
	if start == 0 {
		return
	}
	stop := l.Next(end)
	pos := start
	for pos != 0 && pos != stop {
		c := &astCursor{l: l, pos: pos, stop: stop}
		root := parseBinary(c, 0)
		if root == 0 || c.pos == pos {
			pos = l.Next(pos)
			continue
		}
		pos = c.pos
	}
}

func precedence(op string) (int, bool) {
	switch op {
	case "||":
		return 1, true
	case "&&":
		return 2, true
	case "|":
		return 3, true
	case "^":
		return 4, true
	case "&":
		return 5, true
	case "==", "!=":
		return 6, true
	case "<", "<=", ">", ">=":
		return 7, true
	case "<<", ">>":
		return 8, true
	case "+", "-":
		return 9, true
	case "*", "/", "%":
		return 10, true
	}
	return 0, false
}

func parseBinary(c *astCursor, minPrec int) int32 {
	left := parseUnary(c)
	if left == 0 {
		return 0
	}
	for {
		t := c.peek()
		if t == nil || t.Kind != toklist.KindOperator {
			break
		}
		prec, ok := precedence(t.Str)
		if !ok || prec < minPrec {
			break
		}
		opTok := c.advance()
		right := parseBinary(c, prec+1)
		if right == 0 {
			return left // malformed tail; keep what parsed so far
		}
		c.l.SetAstParent(left, opTok)
		c.l.SetAstParent(right, opTok)
		c.l.SetAstOperands(opTok, left, right)
		left = opTok
	}
	return left
}

func parseUnary(c *astCursor) int32 {
	t := c.peek()
	if t == nil {
		return 0
	}
	switch t.Str {
	case "!", "~", "-", "+", "++", "--":
		opTok := c.advance()
		operand := parseUnary(c)
		if operand == 0 {
			return 0
		}
		c.l.SetAstParent(operand, opTok)
		c.l.SetAstOperands(opTok, operand, 0)
		return opTok
	}
	return parsePrimary(c)
}

func parsePrimary(c *astCursor) int32 {
	t := c.peek()
	if t == nil {
		return 0
	}
	if t.Kind == toklist.KindBracket && t.Str == "(" {
		openTok := c.pos
		closeTok := c.l.Link(openTok)
		c.advance()
		inner := parseBinary(c, 0)
		if closeTok != 0 {
			c.pos = c.l.Next(closeTok)
		}
		return inner
	}
	switch t.Kind {
	case toklist.KindNumber, toklist.KindChar, toklist.KindString, toklist.KindName:
		return c.advance()
	}
	return 0
}
