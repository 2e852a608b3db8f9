package macro_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/macro"
	"cppcore/internal/toklist"
)

func tokenStrings(l *toklist.List) []string {
	var out []string
	for i := l.Front(); i != 0; i = l.Next(i) {
		out = append(out, l.At(i).Str)
	}
	return out
}

func TestObjectLikeMacroExpandsInPlace(t *testing.T) {
	l := toklist.New()
	l.Tokenize("VALUE + 1", "t.c", 0)

	tbl := macro.New()
	tbl.Define("VALUE", "42")

	macro.Expand(l, tbl, l.Front(), map[string]bool{})

	require.Equal(t, []string{"42", "+", "1"}, tokenStrings(l))
}

func TestFunctionLikeMacroSubstitutesArguments(t *testing.T) {
	l := toklist.New()
	l.Tokenize("ADD ( 1 , 2 )", "t.c", 0)

	tbl := macro.New()
	tbl.Define("ADD", "(a,b) a + b")

	macro.Expand(l, tbl, l.Front(), map[string]bool{})

	require.Equal(t, []string{"1", "+", "2"}, tokenStrings(l))
}

func TestSelfReferentialObjectMacroDoesNotRecurseForever(t *testing.T) {
	l := toklist.New()
	l.Tokenize("LOOP", "t.c", 0)

	tbl := macro.New()
	tbl.Define("LOOP", "LOOP + 1")

	macro.Expand(l, tbl, l.Front(), map[string]bool{})

	require.Equal(t, []string{"LOOP", "+", "1"}, tokenStrings(l))
}

func TestUndefineRemovesDefinition(t *testing.T) {
	tbl := macro.New()
	tbl.Define("X", "1")
	require.Equal(t, macro.Known, tbl.Query("X"))

	tbl.Undefine("X")
	require.Equal(t, macro.Known, tbl.Query("X"))
	_, ok := tbl.Defs["X"]
	require.False(t, ok)
}

func TestQueryReturnsNewForUnknownName(t *testing.T) {
	tbl := macro.New()
	require.Equal(t, macro.New, tbl.Query("UNSEEN"))
}

func TestQueryReturnsConflictWhenAssumedUndefButActuallyDefined(t *testing.T) {
	tbl := macro.New()
	tbl.Define("X", "1")
	tbl.AssumedNdefs["X"] = true
	require.Equal(t, macro.Conflict, tbl.Query("X"))
}

func TestCloneIsIndependentOfOriginal(t *testing.T) {
	tbl := macro.New()
	tbl.Define("X", "1")

	clone := tbl.Clone()
	clone.Define("Y", "2")

	_, onOriginal := tbl.Defs["Y"]
	require.False(t, onOriginal)
	_, onClone := clone.Defs["X"]
	require.True(t, onClone)
}
