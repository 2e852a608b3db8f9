package driver_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/check"
	"cppcore/internal/check/builtin"
	"cppcore/internal/diag"
	"cppcore/internal/driver"
	"cppcore/internal/settings"
)

func TestPipelineReportsDivisionByZeroFromInMemoryContent(t *testing.T) {
	st := settings.Default()
	st.CheckAllConfigurations = true

	reg := check.NewRegistry()
	reg.Register(builtin.DivisionByZero)

	reporter := diag.NewReporter()
	analyze := driver.NewPipeline(st, nil)

	ctu := driver.CTU{Path: "t.c", Content: "int f() { int x = 0; return 1 / x; }\n"}
	analyze(ctu, reg, reporter)

	found := false
	for _, d := range reporter.Diagnostics() {
		if d.ID == "zerodiv" {
			found = true
		}
	}
	require.True(t, found, "expected a zerodiv diagnostic from the in-memory pipeline run")
}

func TestPipelineSplitsConfigurationsAndRunsEachOnce(t *testing.T) {
	st := settings.Default()
	st.CheckAllConfigurations = true

	var configsSeen []string
	reg := check.NewRegistry()
	reg.Register(&check.Check{
		Name: "collect",
		RunChecks: func(ctx check.Context) {
			configsSeen = append(configsSeen, ctx.Configuration)
		},
	})

	reporter := diag.NewReporter()
	analyze := driver.NewPipeline(st, nil)

	src := "#ifdef FEATURE_X\nint on = 1;\n#else\nint on = 0;\n#endif\n"
	analyze(driver.CTU{Path: "t.c", Content: src}, reg, reporter)

	require.ElementsMatch(t, []string{"", "FEATURE_X"}, configsSeen)
}
