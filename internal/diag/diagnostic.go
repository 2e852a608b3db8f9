// Package diag implements the structured diagnostic model (spec.md
// section 6: "Diagnostics are emitted as structured records") and the
// terminal reporter, adapted from the teacher's internal/errors
// package (Rust-style formatting via github.com/fatih/color).
package diag

import "fmt"

// Severity classifies how serious a finding is.
type Severity string

const (
	SeverityError       Severity = "error"
	SeverityWarning     Severity = "warning"
	SeverityStyle       Severity = "style"
	SeverityPerformance Severity = "performance"
	SeverityPortability Severity = "portability"
	SeverityInformation Severity = "information"
	SeverityDebug       Severity = "debug"
)

// Certainty is whether a finding holds unconditionally (Safe) or only
// along some assumed path (Inconclusive) — spec.md section 6.
type Certainty string

const (
	CertaintySafe          Certainty = "safe"
	CertaintyInconclusive  Certainty = "inconclusive"
)

// Location is a single (file, line, column) position.
type Location struct {
	File   string
	Line   int
	Column int
}

// PathStep is one (location, note) entry in a finding's error-path
// (spec.md section 6).
type PathStep struct {
	Location Location
	Note     string
}

// Diagnostic is the structured record spec.md section 6 requires:
// severity, certainty, a CWE number, a stable id, a short and a
// verbose message, and an ordered error-path.
type Diagnostic struct {
	ID        string
	Severity  Severity
	Certainty Certainty
	CWE       int
	Message   string
	Verbose   string
	Primary   Location
	ErrorPath []PathStep

	// RunID correlates every diagnostic emitted by one invocation of
	// the driver, for log aggregation across workers.
	RunID string
}

func (d Diagnostic) String() string {
	if d.Primary.File == "" {
		return fmt.Sprintf("%s: %s (%s)", d.Severity, d.Message, d.ID)
	}
	return fmt.Sprintf("%s:%d:%d: %s: %s (%s)",
		d.Primary.File, d.Primary.Line, d.Primary.Column, d.Severity, d.Message, d.ID)
}
