package plan

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoadDefault verifies that the embedded plan parses successfully
// and describes both plugin targets.
func TestLoadDefault(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err)

	assert.Equal(t, "snowflake-plugins-core", p.Core.ID)
	assert.Equal(t, DefaultSourceDir, p.SourceDir)
	assert.Equal(t, []string{"maven", "gradle"}, p.TargetNames())
}

// TestEmbeddedTargets checks the embedded plan against the release layout.
func TestEmbeddedTargets(t *testing.T) {
	p, err := LoadDefault()
	require.NoError(t, err)

	mvn, ok := p.Target("maven")
	require.True(t, ok)
	assert.Equal(t, FormatPOM, mvn.Format)
	assert.Equal(t, []string{"mvn", "install"}, mvn.Command)
	assert.Equal(t, "snowflake-maven-plugin", mvn.ArtifactID)
	require.Len(t, mvn.AuxFiles, 1)
	assert.True(t, mvn.AuxFiles[0].Executable)
	assert.Equal(t, filepath.Join("snowflake-plugins-core", "pom.xml"), p.CoreManifest(mvn))

	gradle, ok := p.Target("gradle")
	require.True(t, ok)
	assert.Equal(t, FormatGradle, gradle.Format)
	assert.Equal(t, []string{"gradle", "publishToMavenLocal"}, gradle.Command)
	assert.Equal(t, filepath.Join("snowflake-plugins-core", "build.gradle"), p.CoreManifest(gradle))

	_, ok = p.Target("sbt")
	assert.False(t, ok)
}

// TestLoadLocalOverride verifies that a local YAML file is used when provided.
func TestLoadLocalOverride(t *testing.T) {
	path := writePlan(t, `
core: {path: core, id: core, manifest: pom.xml}
source_dir: src
targets:
  - {name: only, format: pom, module: plugin, release_dir: out, manifest: pom.xml, command: [mvn, verify]}
`)

	p, err := Load(LoadOptions{LocalOverride: path})
	require.NoError(t, err)
	assert.Equal(t, []string{"only"}, p.TargetNames())
	assert.Equal(t, "src", p.SourceDir)
}

// TestLoadMissingOverride verifies that a named plan file that does not
// exist is an error instead of a silent switch to the embedded plan.
func TestLoadMissingOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.yaml")

	p, err := Load(LoadOptions{LocalOverride: path})
	require.Error(t, err)
	assert.Nil(t, p)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.Contains(t, err.Error(), path)
}

// TestLoadInvalidYAML verifies that a corrupt override returns a parse error.
func TestLoadInvalidYAML(t *testing.T) {
	path := writePlan(t, "targets: [unclosed")

	_, err := Load(LoadOptions{LocalOverride: path})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Plan {
		return Plan{
			Core: Core{Path: "core", ID: "core", Manifest: "pom.xml", BuildFile: "build.gradle"},
			Targets: []Target{
				{Name: "maven", Format: FormatPOM, Module: "m", ReleaseDir: "r/m", Manifest: "pom.xml", Command: []string{"mvn"}},
				{Name: "gradle", Format: FormatGradle, Module: "g", ReleaseDir: "r/g", Manifest: "build.gradle", Command: []string{"gradle"}},
			},
		}
	}

	p := valid()
	require.NoError(t, p.Validate())

	tests := map[string]func(p *Plan){
		"no core id":         func(p *Plan) { p.Core.ID = "" },
		"no targets":         func(p *Plan) { p.Targets = nil },
		"duplicate target":   func(p *Plan) { p.Targets[1].Name = "maven" },
		"unknown format":     func(p *Plan) { p.Targets[0].Format = "sbt" },
		"missing command":    func(p *Plan) { p.Targets[1].Command = nil },
		"missing module":     func(p *Plan) { p.Targets[0].Module = "" },
		"missing build file": func(p *Plan) { p.Core.BuildFile = "" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			p := valid()
			mutate(&p)
			err := p.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidPlan)
		})
	}
}

func writePlan(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "release-plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
