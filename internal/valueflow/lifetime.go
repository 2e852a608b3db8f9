package valueflow

import "cppcore/internal/toklist"

// LifetimeStore tracks borrow relationships for a single CTU (spec.md
// section 4.5.5): the moment an address is taken or a reference is
// bound, the source token's lifetime is recorded on the token that now
// holds it, so later passes can read Lifetime values straight off a
// token without re-deriving the borrow chain.
type LifetimeStore struct {
	l *toklist.List
}

func NewLifetimeStore(l *toklist.List) *LifetimeStore { return &LifetimeStore{l: l} }

// ByRef records that `dst` now holds a reference to the object rooted
// at `src` (e.g. `&x`, a reference parameter bound to an argument).
func (s *LifetimeStore) ByRef(dst, src int32) {
	SetTokenValue(s.l, dst, toklist.Value{
		Variant:       toklist.VLifetime,
		Kind:          toklist.Known,
		TokVal:        src,
		LifetimeScope: ScopeOf(s.l, src),
		LifetimeKind:  toklist.LifetimeObject,
	})
}

// ByVal copies every Lifetime value already on `src` onto `dst`
// unchanged (value-semantics pass-through: `T y = x;` when x itself
// carries borrowed lifetimes, e.g. x is a pointer).
func (s *LifetimeStore) ByVal(dst, src int32) {
	srcTok := s.l.At(src)
	if srcTok == nil {
		return
	}
	for _, v := range srcTok.Values {
		if v.Variant != toklist.VLifetime {
			continue
		}
		SetTokenValue(s.l, dst, v)
	}
}

// ByDerefCopy follows one level of dereference on `src` before copying
// (e.g. binding a reference parameter to `*p`: the bound lifetime is
// whatever `p` itself points at, not `p`'s own storage).
func (s *LifetimeStore) ByDerefCopy(dst, src int32) {
	srcTok := s.l.At(src)
	if srcTok == nil {
		return
	}
	for _, v := range srcTok.Values {
		if v.Variant != toklist.VLifetime {
			continue
		}
		v.LifetimeKind = toklist.LifetimeSubObject
		SetTokenValue(s.l, dst, v)
	}
}

// ScopeOf classifies the storage scope of `tok`: ScopeSubFunction for
// a token expanded from a macro, ScopeLocal otherwise. It never
// returns ScopeArgument.
func ScopeOf(l *toklist.List, tok int32) toklist.LifetimeScope {
	t := l.At(tok)
	if t == nil {
		return toklist.ScopeLocal
	}
	if t.HasFlag(toklist.FlagExpandedFromMacro) {
		return toklist.ScopeSubFunction
	}
	return toklist.ScopeLocal
}
