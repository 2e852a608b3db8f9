// Package settings holds the collaborator-facing configuration the
// driver threads through to the core (spec.md section 6, "CLI surface
// of the collaborator driver"), grounded on original_source/lib/settings.h
// and loaded the way the teacher loads its own config: YAML via
// gopkg.in/yaml.v3.
package settings

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Language pins whether a translation unit is parsed as C or C++
// (original_source/lib/settings.h's Language enum).
type Language uint8

const (
	LanguageC Language = iota
	LanguageCPP
)

// Settings is the subset of original_source's Settings struct this
// core actually consumes: everything that shapes preprocessing,
// configuration splitting, and which checks run.
type Settings struct {
	Jobs int `yaml:"jobs"`

	MaxConfigs int `yaml:"max_configs"`

	IncludePaths []string `yaml:"include_paths"`
	UserDefines  []string `yaml:"user_defines"`
	UserUndefs   []string `yaml:"user_undefs"`

	CheckAllConfigurations bool `yaml:"check_all_configurations"`
	CheckConfiguration     bool `yaml:"check_configuration"`
	CheckHeaders           bool `yaml:"check_headers"`
	ConfigExcludePaths     []string `yaml:"config_exclude_paths"`

	EnabledSeverities []string `yaml:"enabled_severities"`
	EnabledChecks     []string `yaml:"enabled_checks"`
	Inconclusive      bool     `yaml:"inconclusive"`

	Language Language `yaml:"-"`
	Standard string   `yaml:"standard"`

	Verbose bool `yaml:"verbose"`

	SuppressionsFile string `yaml:"suppressions_file"`
}

// Default returns the settings a bare invocation runs with:
// hardware-concurrency workers (spec.md section 5: "N workers
// (default = hardware concurrency)"), the 12-configuration default
// cap, and every severity except information and debug.
func Default() Settings {
	return Settings{
		Jobs:              runtime.NumCPU(),
		MaxConfigs:         12,
		EnabledSeverities:  []string{"error", "warning", "style", "performance", "portability"},
		Language:           LanguageCPP,
		Standard:           "c++17",
	}
}

// Load reads a YAML settings file, starting from Default() so an
// on-disk file only needs to mention the fields it overrides.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("reading settings file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parsing settings file %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) configurationExcluded(file string) bool {
	for _, p := range s.ConfigExcludePaths {
		if len(file) >= len(p) && file[:len(p)] == p {
			return true
		}
	}
	return false
}

// ConfigurationExcluded reports whether `file` falls under one of the
// configured config-exclude paths (original_source's
// Settings::configurationExcluded): a plain path-prefix match. The
// driver pipeline does not consult it.
func (s Settings) ConfigurationExcluded(file string) bool { return s.configurationExcluded(file) }

// SeverityEnabled reports whether a severity string is in the enabled
// list, or true if the list is empty (meaning "all").
func (s Settings) SeverityEnabled(severity string) bool {
	if len(s.EnabledSeverities) == 0 {
		return true
	}
	for _, e := range s.EnabledSeverities {
		if e == severity {
			return true
		}
	}
	return false
}

// CheckEnabled reports whether a named check is in the enabled list,
// or true if the list is empty (meaning "all checks").
func (s Settings) CheckEnabled(name string) bool {
	if len(s.EnabledChecks) == 0 {
		return true
	}
	for _, e := range s.EnabledChecks {
		if e == name {
			return true
		}
	}
	return false
}
