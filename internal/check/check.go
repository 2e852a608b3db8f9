// Package check implements the collaborator interface spec.md section
// 4.6 describes: a Context every check runs against, an ErrorLogger
// checks report through, and a Registry that drives per-configuration
// and whole-program passes.
package check

import (
	"cppcore/internal/diag"
	"cppcore/internal/settings"
	"cppcore/internal/toklist"
)

// ErrorLogger is the sink every check reports diagnostics through
// (spec.md section 4.6: "All reporting funnels through an ErrorLogger
// injected in the Context"). Reporter (internal/diag) implements it.
type ErrorLogger interface {
	Report(d diag.Diagnostic) bool
}

// Context is what the registry hands each check once per configuration
// (spec.md section 4.6).
type Context struct {
	File          string
	Configuration string
	Tokens        *toklist.List
	Settings      settings.Settings
	Logger        ErrorLogger
}

// FileInfo is a check's own per-translation-unit summary, handed back
// to that same check's analyseWholeProgram once every CTU has run
// (spec.md section 4.6: "getFileInfo(Context) -> FileInfo?").
// Checks that have nothing to contribute to a whole-program pass
// return nil.
type FileInfo any

// Check is one named analysis: runChecks runs per configuration,
// getFileInfo optionally summarizes that run for a later whole-program
// pass, and analyseWholeProgram (optional — nil if the check has no
// cross-translation-unit pass) consumes every file's summary together.
type Check struct {
	Name string

	RunChecks func(ctx Context)

	GetFileInfo func(ctx Context) FileInfo

	AnalyseWholeProgram func(fileInfos map[string]FileInfo, logger ErrorLogger)
}
