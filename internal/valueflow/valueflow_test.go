package valueflow_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/toklist"
	"cppcore/internal/valueflow"
)

func tokenize(t *testing.T, src string) *toklist.List {
	t.Helper()
	l := toklist.New()
	l.Tokenize(src, "t.c", 0)
	l.CreateLinkage()
	return l
}

func findByStr(t *testing.T, l *toklist.List, str string, occurrence int) int32 {
	t.Helper()
	n := 0
	for i := l.Front(); i != 0; i = l.Next(i) {
		if l.At(i).Str == str {
			if n == occurrence {
				return i
			}
			n++
		}
	}
	t.Fatalf("occurrence %d of %q not found", occurrence, str)
	return 0
}

func TestBuildExpressionASTLinksSimpleBinaryOperator(t *testing.T) {
	l := tokenize(t, "1 / 0 ;")
	valueflow.BuildExpressionAST(l)

	div := findByStr(t, l, "/", 0)
	op1, op2 := l.AstOperands(div)
	require.NotZero(t, op1)
	require.NotZero(t, op2)
	require.Equal(t, "1", l.At(op1).Str)
	require.Equal(t, "0", l.At(op2).Str)
}

func TestBuildExpressionASTRespectsPrecedence(t *testing.T) {
	l := tokenize(t, "1 + 2 * 3 ;")
	valueflow.BuildExpressionAST(l)

	plus := findByStr(t, l, "+", 0)
	star := findByStr(t, l, "*", 0)

	// "*" binds tighter: "+"'s right operand should be the "*" node.
	_, plusRight := l.AstOperands(plus)
	require.Equal(t, star, plusRight)
}

func TestBuildExpressionASTHandlesParentheses(t *testing.T) {
	l := tokenize(t, "( 1 + 2 ) * 3 ;")
	valueflow.BuildExpressionAST(l)

	star := findByStr(t, l, "*", 0)
	plus := findByStr(t, l, "+", 0)

	left, _ := l.AstOperands(star)
	require.Equal(t, plus, left)
}

func TestBuildExpressionASTSkipsLeadingKeyword(t *testing.T) {
	l := tokenize(t, "return 1 / x ;")
	valueflow.BuildExpressionAST(l)

	div := findByStr(t, l, "/", 0)
	op1, op2 := l.AstOperands(div)
	require.Equal(t, "1", l.At(op1).Str)
	require.Equal(t, "x", l.At(op2).Str)
}

func TestRunFoldsKnownZeroDivisorThroughAssignment(t *testing.T) {
	l := tokenize(t, "int x = 0 ; int y = 1 / x ;")
	valueflow.Run(l)

	div := findByStr(t, l, "/", 0)
	_, op2 := l.AstOperands(div)
	require.NotZero(t, op2)

	v, ok := l.At(op2).KnownValue(toklist.VInt)
	require.True(t, ok, "expected the divisor to carry a Known zero value after Run")
	require.Equal(t, int64(0), v.IntVal)
}

func TestRunCarriesBothBranchPossibilitiesPastConditionalWrite(t *testing.T) {
	l := tokenize(t, "int x = 3 ; if ( x > 0 ) { x = 5 ; } y = x ;")
	valueflow.Run(l)

	x := l.At(findByStr(t, l, "x", 3)) // the x in "y = x"

	_, known := x.KnownValue(toklist.VInt)
	require.False(t, known, "neither branch's value is certain, so x must carry no Known here")

	var sawThree, sawFive bool
	for _, v := range x.Values {
		if v.Variant != toklist.VInt || v.Kind != toklist.Possible {
			continue
		}
		switch v.IntVal {
		case 3:
			sawThree = true
		case 5:
			sawFive = true
		}
	}
	require.True(t, sawThree, "expected Possible(3) to survive from the branch not taken")
	require.True(t, sawFive, "expected Possible(5) from the branch's own write")
}

func TestRunInfersPossibleBoundsForUnbracedForLoopBody(t *testing.T) {
	l := tokenize(t, "for ( int i = 0 ; i < 10 ; ++ i ) use ( i ) ;")
	valueflow.Run(l)

	i := l.At(findByStr(t, l, "i", 3)) // the i inside use(i)

	_, known := i.KnownValue(toklist.VInt)
	require.False(t, known, "the induction variable inside a running loop must not be Known")

	var sawZero, sawNine bool
	for _, v := range i.Values {
		if v.Variant != toklist.VInt || v.Kind != toklist.Possible {
			continue
		}
		switch v.IntVal {
		case 0:
			sawZero = true
		case 9:
			sawNine = true
		}
	}
	require.True(t, sawZero && sawNine, "expected both bounds (0 and 9) of the loop's Possible range on the non-braced body's induction variable")
}

func TestFoldBinaryCombinesValuesSetThroughSetTokenValue(t *testing.T) {
	l := tokenize(t, "1 + 2 ;")
	valueflow.BuildExpressionAST(l)

	one := findByStr(t, l, "1", 0)
	two := findByStr(t, l, "2", 0)
	plus := findByStr(t, l, "+", 0)

	valueflow.SetTokenValue(l, one, toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 1})
	valueflow.SetTokenValue(l, two, toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 2})

	v, ok := l.At(plus).KnownValue(toklist.VInt)
	require.True(t, ok)
	require.Equal(t, int64(3), v.IntVal)
}
