package diag

import (
	"fmt"
	"strings"
	"sync"

	"github.com/fatih/color"
	"github.com/iancoleman/strcase"
	"github.com/segmentio/ksuid"
)

// Reporter formats and collects diagnostics, adapted from the
// teacher's ErrorReporter (internal/errors/reporter.go): a colorized
// header line, a source-context window, and any error-path notes
// indented underneath.
type Reporter struct {
	runID string

	mu      sync.Mutex
	seen    map[string]bool
	sink    []Diagnostic
	sources map[string][]string
}

// NewReporter creates a reporter for one driver invocation. The run id
// (a ksuid, so it sorts roughly by creation time) is stamped onto
// every diagnostic this reporter emits, letting log aggregation group
// findings from one run even across workers.
func NewReporter() *Reporter {
	return &Reporter{
		runID:   ksuid.New().String(),
		seen:    make(map[string]bool),
		sources: make(map[string][]string),
	}
}

// SetSource registers a file's content for source-context rendering.
// Safe to call before any diagnostics reference that file.
func (r *Reporter) SetSource(file, content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sources[file] = strings.Split(content, "\n")
}

// Report records `d`, deduplicating identical (id, file, line)
// findings (spec.md section 5: "additionally deduplicates identical
// messages via a guarded list").
func (r *Reporter) Report(d Diagnostic) bool {
	d.RunID = r.runID
	key := fmt.Sprintf("%s|%s|%d", d.ID, d.Primary.File, d.Primary.Line)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.seen[key] {
		return false
	}
	r.seen[key] = true
	r.sink = append(r.sink, d)
	return true
}

// Diagnostics returns every diagnostic reported so far, in report order.
func (r *Reporter) Diagnostics() []Diagnostic {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Diagnostic, len(r.sink))
	copy(out, r.sink)
	return out
}

// StableID normalizes a check-local identifier into the snake_case
// form diagnostics are reported under (e.g. "NullPointerArith" ->
// "null_pointer_arith"), matching cppcheck's id convention.
func StableID(name string) string {
	return strcase.ToSnake(name)
}

// Format renders one diagnostic in the teacher's Rust-like style:
// a colorized "severity[id]: message" header, the "--> file:line:col"
// location line, a source-context window around the primary location,
// and the error-path notes underneath.
func (r *Reporter) Format(d Diagnostic) string {
	var out strings.Builder
	bold := color.New(color.Bold).SprintFunc()
	dim := color.New(color.Faint).SprintFunc()
	levelColor := severityColor(d.Severity)

	out.WriteString(fmt.Sprintf("%s[%s]: %s\n", levelColor(string(d.Severity)), d.ID, d.Message))

	width := lineNumberWidth(d.Primary.Line)
	indent := strings.Repeat(" ", width)
	out.WriteString(fmt.Sprintf("%s %s %s:%d:%d\n", indent, dim("-->"), d.Primary.File, d.Primary.Line, d.Primary.Column))
	out.WriteString(fmt.Sprintf("%s %s\n", indent, dim("│")))

	if lines, ok := r.sources[d.Primary.File]; ok && d.Primary.Line > 0 && d.Primary.Line <= len(lines) {
		content := lines[d.Primary.Line-1]
		out.WriteString(fmt.Sprintf("%s %s %s\n", bold(fmt.Sprintf("%*d", width, d.Primary.Line)), dim("│"), content))
		marker := strings.Repeat(" ", max0(d.Primary.Column-1)) + levelColor("^")
		out.WriteString(fmt.Sprintf("%s %s %s\n", indent, dim("│"), marker))
	}

	for _, step := range d.ErrorPath {
		noteColor := color.New(color.FgBlue).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s:%d: %s\n",
			indent, dim("│"), noteColor("note:"), step.Location.File, step.Location.Line, step.Note))
	}

	if d.Verbose != "" && d.Verbose != d.Message {
		helpColor := color.New(color.FgGreen).SprintFunc()
		out.WriteString(fmt.Sprintf("%s %s %s %s\n", indent, dim("│"), helpColor("help:"), d.Verbose))
	}

	out.WriteString("\n")
	return out.String()
}

func severityColor(s Severity) func(...interface{}) string {
	switch s {
	case SeverityError:
		return color.New(color.FgRed, color.Bold).SprintFunc()
	case SeverityWarning:
		return color.New(color.FgYellow, color.Bold).SprintFunc()
	case SeverityPerformance, SeverityPortability:
		return color.New(color.FgMagenta, color.Bold).SprintFunc()
	case SeverityStyle:
		return color.New(color.FgCyan, color.Bold).SprintFunc()
	default:
		return color.New(color.FgBlue, color.Bold).SprintFunc()
	}
}

func lineNumberWidth(line int) int {
	w := len(fmt.Sprintf("%d", line))
	if w < 3 {
		w = 3
	}
	return w
}

func max0(a int) int {
	if a < 0 {
		return 0
	}
	return a
}
