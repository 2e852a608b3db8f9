package driver_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/check"
	"cppcore/internal/diag"
	"cppcore/internal/driver"
)

func TestExecutorRunProcessesEveryCTUExactlyOnce(t *testing.T) {
	ctus := []driver.CTU{
		{Path: "a.c", Content: "a"},
		{Path: "b.c", Content: "b"},
		{Path: "c.c", Content: "c"},
	}

	var seen atomic.Int64
	analyze := func(ctu driver.CTU, reg *check.Registry, logger check.ErrorLogger) map[string]check.FileInfo {
		seen.Add(1)
		return map[string]check.FileInfo{"summary": ctu.Path}
	}

	reg := check.NewRegistry()
	reporter := diag.NewReporter()
	exec := driver.NewExecutor(reg, reporter, analyze, ctus)
	exec.Run(context.Background(), 2)

	require.Equal(t, int64(3), seen.Load())
	completed, total := exec.Progress()
	require.Equal(t, int64(3), completed)
	require.Equal(t, int64(3), total)
}

func TestExecutorTerminateStopsFurtherWork(t *testing.T) {
	ctus := make([]driver.CTU, 50)
	for i := range ctus {
		ctus[i] = driver.CTU{Path: "f.c"}
	}

	var processed atomic.Int64
	var exec *driver.Executor
	analyze := func(ctu driver.CTU, reg *check.Registry, logger check.ErrorLogger) map[string]check.FileInfo {
		processed.Add(1)
		if processed.Load() == 1 {
			exec.Terminate()
		}
		return nil
	}

	reg := check.NewRegistry()
	reporter := diag.NewReporter()
	exec = driver.NewExecutor(reg, reporter, analyze, ctus)
	exec.Run(context.Background(), 1)

	require.Less(t, processed.Load(), int64(len(ctus)))
}

func TestExecutorRunInvokesWholeProgramAnalysis(t *testing.T) {
	ctus := []driver.CTU{{Path: "a.c"}}
	analyze := func(ctu driver.CTU, reg *check.Registry, logger check.ErrorLogger) map[string]check.FileInfo {
		return map[string]check.FileInfo{"demo": "info"}
	}

	var gotFiles map[string]check.FileInfo
	reg := check.NewRegistry()
	reg.Register(&check.Check{
		Name: "demo",
		AnalyseWholeProgram: func(fileInfos map[string]check.FileInfo, logger check.ErrorLogger) {
			gotFiles = fileInfos
		},
	})

	reporter := diag.NewReporter()
	exec := driver.NewExecutor(reg, reporter, analyze, ctus)
	exec.Run(context.Background(), 1)

	require.Equal(t, map[string]check.FileInfo{"a.c": "info"}, gotFiles)
}
