package release

import (
	"fmt"
	"path/filepath"

	"github.com/beevik/etree"
	"github.com/spf13/afero"

	"github.com/snowpark-plugins/release/internal/manifest"
	"github.com/snowpark-plugins/release/internal/manifest/gradle"
	"github.com/snowpark-plugins/release/internal/manifest/pom"
	"github.com/snowpark-plugins/release/internal/plan"
)

// Merged is a serialized release manifest.
type Merged struct {
	Data       []byte
	ArtifactID string
	Version    string
	// Dependencies counts the merged dependency list. Build scripts have no
	// structured list and report zero.
	Dependencies int
	// Removed is the core self-reference dropped from the plugin manifest.
	Removed string
	// Added lists the core dependencies that took its place.
	Added []string
}

// MergeTarget reads the plugin and core manifests of t from fs and returns
// the merged manifest. Nothing is written.
func MergeTarget(fs afero.Fs, root string, p *plan.Plan, t *plan.Target, indent int) (*Merged, error) {
	pluginPath := filepath.Join(root, t.Module, t.Manifest)
	corePath := filepath.Join(root, p.CoreManifest(t))

	pluginData, err := afero.ReadFile(fs, pluginPath)
	if err != nil {
		return nil, fmt.Errorf("read plugin manifest: %w", err)
	}
	coreData, err := afero.ReadFile(fs, corePath)
	if err != nil {
		return nil, fmt.Errorf("read core manifest: %w", err)
	}

	switch t.Format {
	case plan.FormatPOM:
		return mergePOM(pluginData, pluginPath, coreData, corePath, p.Core.ID, t.ArtifactID, indent)
	case plan.FormatGradle:
		return mergeGradle(pluginData, pluginPath, coreData, corePath, p.Core.ID)
	default:
		return nil, fmt.Errorf("target %s: unknown format %q", t.Name, t.Format)
	}
}

func mergePOM(pluginData []byte, pluginPath string, coreData []byte, corePath, coreID, artifactID string, indent int) (*Merged, error) {
	plugin, err := pom.Parse(pluginData, pluginPath)
	if err != nil {
		return nil, err
	}
	core, err := pom.Parse(coreData, corePath)
	if err != nil {
		return nil, err
	}
	plugin.Indent = indent

	merger := manifest.Merger[*etree.Element]{CoreID: coreID, ArtifactID: artifactID}
	removed := coreEntry(merger, plugin.Manifest.Dependencies)
	if err := pom.Merge(plugin, core, merger); err != nil {
		return nil, err
	}
	data, err := plugin.Bytes()
	if err != nil {
		return nil, fmt.Errorf("serialize %s: %w", pluginPath, err)
	}
	return &Merged{
		Data:         data,
		ArtifactID:   plugin.Manifest.ArtifactID,
		Version:      plugin.Manifest.Version,
		Dependencies: len(plugin.Manifest.Dependencies),
		Removed:      removed,
		Added:        core.Manifest.ArtifactIDs(),
	}, nil
}

func mergeGradle(pluginData []byte, pluginPath string, coreData []byte, corePath, coreID string) (*Merged, error) {
	core, err := gradle.ParseCore(coreData, corePath)
	if err != nil {
		return nil, err
	}
	plugin := gradle.Parse(pluginData, pluginPath)

	merger := gradle.Merger(coreID)
	removed := coreEntry(merger, plugin.Manifest.Dependencies)
	if err := gradle.Merge(plugin, core, merger); err != nil {
		return nil, err
	}
	return &Merged{
		Data:       plugin.Bytes(),
		ArtifactID: plugin.Manifest.ArtifactID,
		Version:    plugin.Manifest.Version,
		Removed:    removed,
		Added:      core.ArtifactIDs(),
	}, nil
}

// coreEntry names the dependency the merger will drop, if it can find exactly one.
func coreEntry[P any](m manifest.Merger[P], deps []manifest.Dependency[P]) string {
	if i, err := m.FindCore(deps); err == nil {
		return deps[i].ArtifactID
	}
	return ""
}
