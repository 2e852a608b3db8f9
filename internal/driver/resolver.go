package driver

import (
	"os"
	"path/filepath"
)

// FSIncludeResolver resolves #include targets against the real
// filesystem: quoted includes are tried relative to the including
// file first, then every configured include path; angle-bracket
// (system) includes skip the including file's directory (spec.md
// section 4.4's IncludeResolver collaborator).
type FSIncludeResolver struct {
	IncludePaths []string
}

// Resolve implements preproc.IncludeResolver.
func (r *FSIncludeResolver) Resolve(path string, systemHeader bool, fromFile string) (string, string, bool) {
	if filepath.IsAbs(path) {
		if data, err := os.ReadFile(path); err == nil {
			return string(data), path, true
		}
		return "", "", false
	}

	if !systemHeader {
		candidate := filepath.Join(filepath.Dir(fromFile), path)
		if data, err := os.ReadFile(candidate); err == nil {
			return string(data), candidate, true
		}
	}

	for _, dir := range r.IncludePaths {
		candidate := filepath.Join(dir, path)
		if data, err := os.ReadFile(candidate); err == nil {
			return string(data), candidate, true
		}
	}
	return "", "", false
}
