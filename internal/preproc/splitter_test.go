package preproc_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/macro"
	"cppcore/internal/preproc"
	"cppcore/internal/toklist"
)

func buildList(t *testing.T, src string) *toklist.List {
	t.Helper()
	l := toklist.New()
	l.Tokenize(src, "test.c", 0)
	l.UniformizeIfs()
	l.CreateLinkage()
	return l
}

func TestGetConfigurationsSplitsOnUnknownMacro(t *testing.T) {
	src := "#ifdef FEATURE_X\nint on = 1;\n#else\nint on = 0;\n#endif\n"
	l := buildList(t, src)

	res := preproc.GetConfigurations(l, macro.New(), preproc.Options{MaxConfigs: 12})

	require.Len(t, res.Configs, 2)
	require.Contains(t, res.Configs, "")
	require.Contains(t, res.Configs, "FEATURE_X")
}

func TestGetConfigurationsResolvesKnownDefine(t *testing.T) {
	src := "#define FEATURE_X 1\n#ifdef FEATURE_X\nint on = 1;\n#else\nint on = 0;\n#endif\n"
	l := buildList(t, src)

	res := preproc.GetConfigurations(l, macro.New(), preproc.Options{MaxConfigs: 12})

	require.Len(t, res.Configs, 1)
	require.Contains(t, res.Configs, "")
}

func TestGetConfigurationsHonorsPresetDefines(t *testing.T) {
	src := "#ifdef FEATURE_X\nint on = 1;\n#endif\n"
	l := buildList(t, src)

	initial := macro.New()
	initial.Define("FEATURE_X", "1")

	res := preproc.GetConfigurations(l, initial, preproc.Options{MaxConfigs: 12})

	require.Len(t, res.Configs, 1)
}

func TestDoubleIncludeGuardDoesNotSpuriouslySplit(t *testing.T) {
	src := "#ifndef GUARD_H\n#define GUARD_H\nint x;\n#endif\n" +
		"#ifndef GUARD_H\n#define GUARD_H\nint y;\n#endif\n"
	l := buildList(t, src)

	res := preproc.GetConfigurations(l, macro.New(), preproc.Options{MaxConfigs: 12})

	// The first guard is recognized and taken unconditionally; the
	// second occurrence resolves as a plain Known(false) once GUARD_H
	// is defined, so this never forks into a GUARD_H configuration.
	require.Len(t, res.Configs, 1)
	require.Contains(t, res.Configs, "")
}

func TestMaxConfigsBoundsSplitCount(t *testing.T) {
	src := "#ifdef A\nint a;\n#endif\n#ifdef B\nint b;\n#endif\n#ifdef C\nint c;\n#endif\n"
	l := buildList(t, src)

	res := preproc.GetConfigurations(l, macro.New(), preproc.Options{MaxConfigs: 2})

	require.LessOrEqual(t, len(res.Configs), 2)
	found := false
	for _, d := range res.Diagnostics {
		if d.Kind == "toomanyconfigs" {
			found = true
		}
	}
	require.True(t, found, "expected a toomanyconfigs diagnostic")
}
