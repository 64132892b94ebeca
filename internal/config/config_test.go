package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefaults verifies the settings used when nothing is configured.
func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	s, err := Load(Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, root, s.Root)
	assert.Empty(t, s.Plan)
	assert.Equal(t, DefaultTimeout, s.Timeout)
	assert.Equal(t, "info", s.LogLevel)
	assert.Empty(t, s.VersionConstraint)
	assert.False(t, s.Clean)
	assert.Equal(t, 4, s.Indent)
	assert.Empty(t, s.File)
}

// TestLoadFile verifies that release.yaml in the root is picked up.
func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	writeFile(t, FilePath(root), `
timeout: 5m
log_level: debug
version_constraint: ">= 0.1.0"
clean: true
indent: 2
plan: plans/release.yaml
`)

	s, err := Load(Options{Root: root})
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, s.Timeout)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, ">= 0.1.0", s.VersionConstraint)
	assert.True(t, s.Clean)
	assert.Equal(t, 2, s.Indent)
	assert.Equal(t, filepath.Join(root, "plans", "release.yaml"), s.Plan)
	assert.Equal(t, FilePath(root), s.File)
}

// TestLoadEnv verifies that PLUGIN_RELEASE_* variables override the file.
func TestLoadEnv(t *testing.T) {
	root := t.TempDir()
	writeFile(t, FilePath(root), "timeout: 5m\n")
	t.Setenv("PLUGIN_RELEASE_TIMEOUT", "90s")
	t.Setenv("PLUGIN_RELEASE_CLEAN", "true")

	s, err := Load(Options{Root: root})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, s.Timeout)
	assert.True(t, s.Clean)
}

// TestLoadEnvRoot verifies that the root can come from the environment.
func TestLoadEnvRoot(t *testing.T) {
	root := t.TempDir()
	t.Setenv("PLUGIN_RELEASE_ROOT", root)

	s, err := Load(Options{})
	require.NoError(t, err)
	assert.Equal(t, root, s.Root)
}

// TestLoadOverrides verifies that command-line overrides win.
func TestLoadOverrides(t *testing.T) {
	root := t.TempDir()
	t.Setenv("PLUGIN_RELEASE_TIMEOUT", "90s")

	s, err := Load(Options{Root: root, Overrides: map[string]any{KeyTimeout: time.Minute}})
	require.NoError(t, err)
	assert.Equal(t, time.Minute, s.Timeout)
}

// TestLoadExplicitFileMissing verifies that a named config file must exist.
func TestLoadExplicitFileMissing(t *testing.T) {
	_, err := Load(Options{Root: t.TempDir(), File: filepath.Join(t.TempDir(), "nope.yaml")})
	assert.Error(t, err)
}

// TestLoadInvalid verifies that unusable values are rejected.
func TestLoadInvalid(t *testing.T) {
	tests := map[string]map[string]any{
		"zero timeout":    {KeyTimeout: time.Duration(0)},
		"negative indent": {KeyIndent: -1},
		"bad constraint":  {KeyVersionConstraint: "not a constraint ~~"},
	}
	for name, overrides := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(Options{Root: t.TempDir(), Overrides: overrides})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidSettings)
		})
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
