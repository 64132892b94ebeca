// Package manifest holds the typed build-module descriptor shared by the POM
// and Gradle adapters, and the merge that turns a plugin module manifest into
// a standalone release manifest.
//
// The model is generic over the dependency payload: the POM adapter carries
// the XML subtree of each dependency, the Gradle adapter carries the raw
// source line. Payloads are never interpreted here.
package manifest

// Parent points at an ancestor manifest. Only its version is used.
type Parent struct {
	ArtifactID string
	Version    string
}

// Dependency is one entry of a manifest's dependency list.
type Dependency[P any] struct {
	// ArtifactID is matched against the core module identifier.
	ArtifactID string
	// Payload is preserved verbatim.
	Payload P
}

// Manifest describes a build module: identity, version, optional parent and
// ordered dependencies.
type Manifest[P any] struct {
	ArtifactID   string
	Version      string
	Parent       *Parent
	Dependencies []Dependency[P]
}

// ArtifactIDs returns the artifact identifier of every dependency, in order.
func (m *Manifest[P]) ArtifactIDs() []string {
	ids := make([]string, len(m.Dependencies))
	for i, d := range m.Dependencies {
		ids[i] = d.ArtifactID
	}
	return ids
}
