package plan

import "path/filepath"

// Format names the manifest encoding of a target.
type Format string

const (
	// FormatPOM is a Maven project descriptor.
	FormatPOM Format = "pom"
	// FormatGradle is a Gradle build script.
	FormatGradle Format = "gradle"
)

// Core is the shared module merged into every target.
type Core struct {
	// Path of the core module, relative to the repository root.
	Path string `yaml:"path"`
	// ID is the identifier plugin manifests use to depend on the core module.
	ID string `yaml:"id"`
	// Manifest is the POM file name inside Path.
	Manifest string `yaml:"manifest"`
	// BuildFile is the Gradle build script inside Path.
	BuildFile string `yaml:"build_file"`
}

// AuxFile is copied next to the merged manifest.
type AuxFile struct {
	From       string `yaml:"from"`
	To         string `yaml:"to"`
	Executable bool   `yaml:"executable"`
}

// Target is one releasable plugin.
type Target struct {
	Name        string    `yaml:"name"`
	Description string    `yaml:"description"`
	Format      Format    `yaml:"format"`
	Module      string    `yaml:"module"`
	ReleaseDir  string    `yaml:"release_dir"`
	Manifest    string    `yaml:"manifest"`
	ArtifactID  string    `yaml:"artifact_id"`
	AuxFiles    []AuxFile `yaml:"aux_files"`
	Command     []string  `yaml:"command"`
	Default     bool      `yaml:"default"`
}

// Plan describes everything the release tool can produce.
type Plan struct {
	Version   int      `yaml:"version"`
	Core      Core     `yaml:"core"`
	SourceDir string   `yaml:"source_dir"`
	Targets   []Target `yaml:"targets"`
}

// TargetNames returns the name of every target, in plan order.
func (p *Plan) TargetNames() []string {
	names := make([]string, len(p.Targets))
	for i, t := range p.Targets {
		names[i] = t.Name
	}
	return names
}

// Target returns the named target.
func (p *Plan) Target(name string) (*Target, bool) {
	for i := range p.Targets {
		if p.Targets[i].Name == name {
			return &p.Targets[i], true
		}
	}
	return nil, false
}

// CoreManifest returns the core manifest path, relative to the repository
// root, that matches the target format.
func (p *Plan) CoreManifest(t *Target) string {
	if t.Format == FormatGradle {
		return filepath.Join(p.Core.Path, p.Core.BuildFile)
	}
	return filepath.Join(p.Core.Path, p.Core.Manifest)
}
