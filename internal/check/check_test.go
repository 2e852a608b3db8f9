package check_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/check"
	"cppcore/internal/check/builtin"
	"cppcore/internal/diag"
	"cppcore/internal/settings"
	"cppcore/internal/toklist"
)

type fakeLogger struct {
	reported []diag.Diagnostic
}

func (f *fakeLogger) Report(d diag.Diagnostic) bool {
	f.reported = append(f.reported, d)
	return true
}

func TestRegistryRunSkipsDisabledChecks(t *testing.T) {
	reg := check.NewRegistry()
	ran := false
	reg.Register(&check.Check{
		Name:      "demo",
		RunChecks: func(ctx check.Context) { ran = true },
	})

	st := settings.Default()
	st.EnabledChecks = []string{"other"}
	reg.Run(check.Context{Settings: st, Logger: &fakeLogger{}})

	require.False(t, ran)
}

func TestRegistryRunExecutesEnabledChecks(t *testing.T) {
	reg := check.NewRegistry()
	ran := false
	reg.Register(&check.Check{
		Name:      "demo",
		RunChecks: func(ctx check.Context) { ran = true },
	})

	reg.Run(check.Context{Settings: settings.Default(), Logger: &fakeLogger{}})
	require.True(t, ran)
}

func TestRegistryCollectFileInfoSkipsNilResults(t *testing.T) {
	reg := check.NewRegistry()
	reg.Register(&check.Check{
		Name:        "a",
		GetFileInfo: func(ctx check.Context) check.FileInfo { return "summary-a" },
	})
	reg.Register(&check.Check{
		Name:        "b",
		GetFileInfo: func(ctx check.Context) check.FileInfo { return nil },
	})

	infos := reg.CollectFileInfo(check.Context{Settings: settings.Default()})
	require.Equal(t, map[string]check.FileInfo{"a": "summary-a"}, infos)
}

func TestRegistryAnalyseWholeProgramOnlySeesOwnFileInfo(t *testing.T) {
	reg := check.NewRegistry()
	var seen map[string]check.FileInfo
	reg.Register(&check.Check{
		Name: "a",
		AnalyseWholeProgram: func(fileInfos map[string]check.FileInfo, logger check.ErrorLogger) {
			seen = fileInfos
		},
	})

	perFile := map[string]map[string]check.FileInfo{
		"f1.c": {"a": "info1", "b": "ignored"},
		"f2.c": {"b": "ignored-too"},
	}
	reg.AnalyseWholeProgram(perFile, &fakeLogger{})

	require.Equal(t, map[string]check.FileInfo{"f1.c": "info1"}, seen)
}

func TestDivisionByZeroReportsKnownZeroDivisor(t *testing.T) {
	l := toklist.New()
	l.Tokenize("1 / 0", "a.c", 0)

	div := l.Front()
	for l.At(div).Str != "/" {
		div = l.Next(div)
	}
	rhs := l.Next(div)
	l.At(rhs).AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 0})
	l.SetAstOperands(div, l.Prev(div), rhs)

	logger := &fakeLogger{}
	ctx := check.Context{File: "a.c", Tokens: l, Settings: settings.Default(), Logger: logger}
	builtin.DivisionByZero.RunChecks(ctx)

	require.Len(t, logger.reported, 1)
	require.Equal(t, 369, logger.reported[0].CWE)
}

func TestDivisionByZeroIgnoresNonZeroDivisor(t *testing.T) {
	l := toklist.New()
	l.Tokenize("1 / 2", "a.c", 0)

	div := l.Front()
	for l.At(div).Str != "/" {
		div = l.Next(div)
	}
	rhs := l.Next(div)
	l.At(rhs).AddValue(toklist.Value{Variant: toklist.VInt, Kind: toklist.Known, IntVal: 2})
	l.SetAstOperands(div, l.Prev(div), rhs)

	logger := &fakeLogger{}
	ctx := check.Context{File: "a.c", Tokens: l, Settings: settings.Default(), Logger: logger}
	builtin.DivisionByZero.RunChecks(ctx)

	require.Empty(t, logger.reported)
}
