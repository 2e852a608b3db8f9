package preproc

import (
	"fmt"
	"strconv"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// configNameLexer tokenizes the small, closed grammar canonicalName
// produces: a ';'-joined list of bare identifiers or identifier+
// comparison+integer terms (spec.md section 6, "Configuration name
// canonicity"). Grounded on the teacher's own KansoLexer
// (grammar/lexer.go), restricted to this narrower alphabet.
var configNameLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Op", Pattern: `<=|>=|==|!=|<|>`},
	{Name: "Ident", Pattern: `[A-Za-z_][A-Za-z0-9_]*`},
	{Name: "Integer", Pattern: `[0-9]+`},
	{Name: "Semi", Pattern: `;`},
})

type configNameAST struct {
	Terms []*configTermAST `parser:"@@ (';' @@)*"`
}

type configTermAST struct {
	Ident string `parser:"@Ident"`
	Op    string `parser:"( @Op"`
	Value string `parser:"  @Integer )?"`
}

var configNameParser = participle.MustBuild[configNameAST](
	participle.Lexer(configNameLexer),
)

// ValidateConfigName parses a canonical configuration name and reports
// whether it is well-formed: a ';'-joined, duplicate-free list of
// "IDENT" or "IDENT<op><integer>" terms. Nothing in the driver or the
// splitter calls it; it is available to callers that persist names.
func ValidateConfigName(name string) error {
	if name == "" {
		return nil // the baseline configuration has no assumed-defined terms
	}
	ast, err := configNameParser.ParseString("", name)
	if err != nil {
		return fmt.Errorf("malformed configuration name %q: %w", name, err)
	}

	seen := map[string]bool{}
	for _, term := range ast.Terms {
		if term.Op != "" {
			if _, err := strconv.ParseInt(term.Value, 10, 64); err != nil {
				return fmt.Errorf("configuration name %q: bad integer in term %q%s", name, term.Ident, term.Op)
			}
		}
		if seen[term.Ident] {
			return fmt.Errorf("configuration name %q: duplicate term for %q", name, term.Ident)
		}
		seen[term.Ident] = true
	}
	return nil
}
