package settings_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"cppcore/internal/settings"
)

func TestDefaultEnablesCommonSeverities(t *testing.T) {
	s := settings.Default()
	require.True(t, s.SeverityEnabled("warning"))
	require.False(t, s.SeverityEnabled("debug"))
}

func TestCheckEnabledDefaultsToAllWhenListEmpty(t *testing.T) {
	s := settings.Default()
	require.True(t, s.CheckEnabled("zerodiv"))
}

func TestCheckEnabledHonorsExplicitList(t *testing.T) {
	s := settings.Default()
	s.EnabledChecks = []string{"zerodiv"}
	require.True(t, s.CheckEnabled("zerodiv"))
	require.False(t, s.CheckEnabled("other"))
}

func TestConfigurationExcludedMatchesPrefix(t *testing.T) {
	s := settings.Default()
	s.ConfigExcludePaths = []string{"/vendor/"}
	require.True(t, s.ConfigurationExcluded("/vendor/lib.h"))
	require.False(t, s.ConfigurationExcluded("/src/lib.h"))
}

func TestLoadOverridesDefaultsFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs: 4\nmax_configs: 8\n"), 0o644))

	s, err := settings.Load(path)
	require.NoError(t, err)
	require.Equal(t, 4, s.Jobs)
	require.Equal(t, 8, s.MaxConfigs)
}

func TestParseSuppressionWithFileAndLine(t *testing.T) {
	s := settings.ParseSuppression("zerodiv:a.c:10")
	require.Equal(t, settings.Suppression{ID: "zerodiv", File: "a.c", Line: 10}, s)
}

func TestParseSuppressionIDOnly(t *testing.T) {
	s := settings.ParseSuppression("zerodiv")
	require.Equal(t, settings.Suppression{ID: "zerodiv", File: "*", Line: 0}, s)
}

func TestIsSuppressedMatchesWildcardFile(t *testing.T) {
	list := settings.NewSuppressionList()
	list.Add(settings.Suppression{ID: "zerodiv", File: "*"})

	require.True(t, list.IsSuppressed("zerodiv", "any.c", 5))
	require.False(t, list.IsSuppressed("other", "any.c", 5))
}

func TestIsSuppressedHonorsSpecificLine(t *testing.T) {
	list := settings.NewSuppressionList()
	list.Add(settings.Suppression{ID: "zerodiv", File: "a.c", Line: 10})

	require.False(t, list.IsSuppressed("zerodiv", "a.c", 11))
	require.True(t, list.IsSuppressed("zerodiv", "a.c", 10))
}

func TestUnusedSuppressionsReportsUnmatchedEntries(t *testing.T) {
	list := settings.NewSuppressionList()
	list.Add(settings.Suppression{ID: "zerodiv", File: "*"})
	list.Add(settings.Suppression{ID: "nullptr", File: "*"})

	list.IsSuppressed("zerodiv", "a.c", 1)

	unused := list.UnusedSuppressions()
	require.Len(t, unused, 1)
	require.Equal(t, "nullptr", unused[0].ID)
}
