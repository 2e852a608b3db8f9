// Package builtin holds one demonstration check wired against the
// check.Registry interface (spec.md section 4.6): the individual
// checker modules themselves are an out-of-scope collaborator per
// spec.md section 1, but a single concrete check earns its keep here
// by exercising the registry end to end against the value-flow
// engine's Known values.
package builtin

import (
	"fmt"

	"cppcore/internal/check"
	"cppcore/internal/diag"
	"cppcore/internal/toklist"
)

// DivisionByZero reports an operand to `/` or `%` that the value-flow
// engine proved is Known to be zero on some reachable path — the
// textbook cppcheck "zerodiv" check, grounded on how valueFlow-derived
// findings are reported in original_source/lib/checkother.cpp.
var DivisionByZero = &check.Check{
	Name:      "zerodiv",
	RunChecks: runDivisionByZero,
}

func runDivisionByZero(ctx check.Context) {
	l := ctx.Tokens
	for i := l.Front(); i != 0; i = l.Next(i) {
		t := l.At(i)
		if t.Str != "/" && t.Str != "%" {
			continue
		}
		_, op2 := l.AstOperands(i)
		if op2 == 0 {
			continue
		}
		rhs := l.At(op2)
		v, ok := rhs.KnownValue(toklist.VInt)
		if !ok || v.IntVal != 0 {
			continue
		}

		id := diag.StableID("zerodiv")
		if ctx.Settings.SuppressionsFile != "" {
			// suppression lookups are a collaborator concern (internal/settings);
			// the registry only guarantees ctx.Logger already wraps them.
		}
		ctx.Logger.Report(diag.Diagnostic{
			ID:        id,
			Severity:  diag.SeverityError,
			Certainty: certaintyFor(v.Kind),
			CWE:       369,
			Message:   fmt.Sprintf("Division by zero (the right operand of '%s' is known to be 0)", t.Str),
			Verbose:   "A division or modulo operation with a divisor the value-flow engine proved is zero on this path always invokes undefined behavior.",
			Primary:   diag.Location{File: ctx.File, Line: l.Linenr(i)},
		})
	}
}

func certaintyFor(kind toklist.ValueKind) diag.Certainty {
	if kind == toklist.Known {
		return diag.CertaintySafe
	}
	return diag.CertaintyInconclusive
}
