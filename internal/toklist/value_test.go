package toklist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/toklist"
)

func TestAddValueDeduplicatesSamePayload(t *testing.T) {
	tok := &toklist.Token{}
	v := toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: 5}

	require.True(t, tok.AddValue(v))
	require.False(t, tok.AddValue(v))
	require.Len(t, tok.Values, 1)
}

func TestAddValueEnforcesCap(t *testing.T) {
	tok := &toklist.Token{}
	for i := int64(0); i < toklist.ValueCap; i++ {
		require.True(t, tok.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: i}))
	}
	require.False(t, tok.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: 999}))
	require.Len(t, tok.Values, toklist.ValueCap)
}

func TestKnownValueIsNeverDemoted(t *testing.T) {
	tok := &toklist.Token{}
	known := toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 3}
	require.True(t, tok.AddValue(known))

	possible := toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: 3}
	require.False(t, tok.AddValue(possible))

	v, ok := tok.KnownValue(toklist.VInt)
	require.True(t, ok)
	require.Equal(t, toklist.Known, v.Kind)
}

func TestKnownValueReturnsOnlyKnownOfVariant(t *testing.T) {
	tok := &toklist.Token{}
	tok.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Possible, IntVal: 1})

	_, ok := tok.KnownValue(toklist.VInt)
	require.False(t, ok)

	tok.AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 2})
	v, ok := tok.KnownValue(toklist.VInt)
	require.True(t, ok)
	require.Equal(t, int64(2), v.IntVal)
}
