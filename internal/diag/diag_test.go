package diag_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/diag"
)

func TestReportDeduplicatesSameIDFileLine(t *testing.T) {
	r := diag.NewReporter()
	d := diag.Diagnostic{ID: "zerodiv", Primary: diag.Location{File: "a.c", Line: 5, Column: 1}}

	require.True(t, r.Report(d))
	require.False(t, r.Report(d))
	require.Len(t, r.Diagnostics(), 1)
}

func TestReportAllowsSameIDDifferentLine(t *testing.T) {
	r := diag.NewReporter()
	d1 := diag.Diagnostic{ID: "zerodiv", Primary: diag.Location{File: "a.c", Line: 5}}
	d2 := diag.Diagnostic{ID: "zerodiv", Primary: diag.Location{File: "a.c", Line: 6}}

	require.True(t, r.Report(d1))
	require.True(t, r.Report(d2))
	require.Len(t, r.Diagnostics(), 2)
}

func TestReportStampsRunID(t *testing.T) {
	r := diag.NewReporter()
	r.Report(diag.Diagnostic{ID: "x", Primary: diag.Location{File: "a.c", Line: 1}})

	ds := r.Diagnostics()
	require.Len(t, ds, 1)
	require.NotEmpty(t, ds[0].RunID)
}

func TestStableIDNormalizesToSnakeCase(t *testing.T) {
	require.Equal(t, "null_pointer_arith", diag.StableID("NullPointerArith"))
}

func TestFormatIncludesSeverityIDAndMessage(t *testing.T) {
	r := diag.NewReporter()
	r.SetSource("a.c", "int x = 1 / 0;\n")

	out := r.Format(diag.Diagnostic{
		ID:       "zerodiv",
		Severity: diag.SeverityError,
		Message:  "division by zero",
		Primary:  diag.Location{File: "a.c", Line: 1, Column: 9},
	})

	require.Contains(t, out, "zerodiv")
	require.Contains(t, out, "division by zero")
	require.Contains(t, out, "a.c:1:9")
}

func TestDiagnosticStringWithoutLocation(t *testing.T) {
	d := diag.Diagnostic{ID: "x", Severity: diag.SeverityWarning, Message: "m"}
	require.Equal(t, "warning: m (x)", d.String())
}
