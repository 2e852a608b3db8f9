// Package preproc implements the configuration-splitting preprocessor:
// the #if reducer and its configuration splitter (spec.md section 4.4),
// include and pragma handling, and the GetConfigurations driver that
// ties them to macro expansion (spec.md section 4.3).
package preproc

import (
	"fmt"
	"sort"
	"strings"

	"cppcore/internal/macro"
	"cppcore/internal/toklist"
)

// Verdict is the outcome of analyzing one #if/#elif/#else condition.
type Verdict int

const (
	VerdictKnown Verdict = iota
	VerdictConflict
	VerdictNew
	VerdictUnhandled
)

// SplitKey names the symbol (and optional comparison) a New verdict
// needs split on, and formats to the stable configuration-name suffix
// described in spec.md section 6.
type SplitKey struct {
	Ident string
	Op    string // "", "=", "!=", "<", "<=", ">", ">="
	Value int64
}

func (k SplitKey) String() string {
	if k.Op == "" {
		return k.Ident
	}
	return fmt.Sprintf("%s%s%d", k.Ident, k.Op, k.Value)
}

// Opposite returns the semantically-opposite key used on the branch
// that does NOT take the assumed-defined hypothesis (spec.md section
// 4.4, Splitting step 2: "X>=3" opposite is "X<3").
func (k SplitKey) Opposite() SplitKey {
	o := k
	switch k.Op {
	case "":
		o.Op = "" // plain identifier: opposite is "not defined", tracked via assumedNdefs instead
	case "=", "==":
		o.Op = "!="
	case "!=":
		o.Op = "=="
	case "<":
		o.Op, o.Value = ">=", k.Value
	case "<=":
		o.Op, o.Value = ">", k.Value
	case ">":
		o.Op, o.Value = "<=", k.Value
	case ">=":
		o.Op, o.Value = "<", k.Value
	}
	return o
}

// Diagnostic is a recoverable condition raised while splitting
// configurations or resolving includes (spec.md section 7).
type Diagnostic struct {
	Kind    string // "syntaxError", "missingInclude", "missingIncludeSystem", "toomanyconfigs", "debug"
	Message string
	File    string
	Line    int
}

// IncludeResolver resolves an #include target to file content. It is
// the file-I/O collaborator spec.md section 1 marks out of scope for
// the core; GetConfigurations only needs the interface.
type IncludeResolver interface {
	Resolve(path string, systemHeader bool, fromFile string) (content string, resolvedPath string, ok bool)
}

// Options configures one GetConfigurations run.
type Options struct {
	MaxConfigs int // default 12, spec.md section 4.4 "Configuration-count bound"
	Includes   IncludeResolver
}

// Configuration is a macro table plus the token list being reduced
// under those assumptions (spec.md section 3).
type Configuration struct {
	Name   string
	Tokens *toklist.List
	Macros *macro.Table
}

// Result is the mapping from configuration name to fully processed
// token list spec.md section 2 step 3 names as the splitter's output,
// plus every diagnostic raised along the way.
type Result struct {
	Configs     map[string]*toklist.List
	Diagnostics []Diagnostic
}

// canonicalName builds the stable, sorted, ';'-joined name spec.md
// section 6 specifies: "Configuration name canonicity" (spec.md
// section 8) requires two configurations with identical assumed-
// defined sets to produce byte-identical names, which sorting gives us
// independent of split discovery order.
func canonicalName(m *macro.Table) string {
	names := make([]string, 0, len(m.AssumedDefs))
	for name, pred := range m.AssumedDefs {
		if pred == "" {
			names = append(names, name)
		} else {
			names = append(names, name+pred)
		}
	}
	sort.Strings(names)
	return strings.Join(names, ";")
}
