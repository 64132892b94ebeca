package manifest

import (
	"go.trai.ch/zerr"
)

// Placement decides where the core module's dependencies land in the merged
// dependency list.
type Placement int

const (
	// Append places core dependencies after the plugin's remaining dependencies.
	Append Placement = iota
	// Splice puts core dependencies where the core self-reference used to be.
	Splice
)

// Merger turns a plugin module manifest into a standalone release manifest by
// pinning the version, dropping the parent and replacing the dependency on the
// core module with the core module's own dependencies.
//
// The zero value plus a CoreID reproduces the POM release rules.
type Merger[P any] struct {
	// CoreID identifies the core module among the plugin dependencies.
	CoreID string

	// Match reports whether dep refers to the core module.
	// Nil compares dep.ArtifactID with coreID.
	Match func(dep Dependency[P], coreID string) bool

	// Placement of the core dependencies. Defaults to Append.
	Placement Placement

	// ParentOptional keeps the plugin's declared version when it has no parent
	// instead of failing with ErrMissingParentReference.
	ParentOptional bool

	// ArtifactID renames the merged artifact when set.
	ArtifactID string
}

// Merge applies the default release rules: version from the parent, parent
// dropped, the dependency whose artifact ID equals coreID replaced by core's
// dependencies appended at the end.
func Merge[P any](plugin, core Manifest[P], coreID string) (Manifest[P], error) {
	return Merger[P]{CoreID: coreID}.Merge(plugin, core)
}

// Merge returns the merged manifest. Neither input is modified. Core
// dependencies are not de-duplicated against the plugin's own.
func (m Merger[P]) Merge(plugin, core Manifest[P]) (Manifest[P], error) {
	version, err := m.resolveVersion(plugin)
	if err != nil {
		return Manifest[P]{}, err
	}

	idx, err := m.FindCore(plugin.Dependencies)
	if err != nil {
		return Manifest[P]{}, zerr.With(err, "artifact", plugin.ArtifactID)
	}

	rest := plugin.Dependencies
	deps := make([]Dependency[P], 0, len(rest)-1+len(core.Dependencies))
	deps = append(deps, rest[:idx]...)
	if m.Placement == Splice {
		deps = append(deps, core.Dependencies...)
		deps = append(deps, rest[idx+1:]...)
	} else {
		deps = append(deps, rest[idx+1:]...)
		deps = append(deps, core.Dependencies...)
	}

	artifactID := plugin.ArtifactID
	if m.ArtifactID != "" {
		artifactID = m.ArtifactID
	}

	return Manifest[P]{
		ArtifactID:   artifactID,
		Version:      version,
		Dependencies: deps,
	}, nil
}

// FindCore returns the index of the one dependency that refers to the core
// module. It fails when there is no such dependency or more than one.
func (m Merger[P]) FindCore(deps []Dependency[P]) (int, error) {
	if m.CoreID == "" {
		return -1, zerr.Wrap(ErrCoreDependencyNotFound, "core identifier is empty")
	}

	found := -1
	for i, d := range deps {
		if !m.matches(d) {
			continue
		}
		if found >= 0 {
			err := zerr.With(zerr.Wrap(ErrAmbiguousCoreDependency, m.CoreID), "core", m.CoreID)
			return -1, zerr.With(err, "positions", []int{found, i})
		}
		found = i
	}

	if found < 0 {
		return -1, zerr.With(zerr.Wrap(ErrCoreDependencyNotFound, m.CoreID), "core", m.CoreID)
	}
	return found, nil
}

func (m Merger[P]) matches(d Dependency[P]) bool {
	if m.Match != nil {
		return m.Match(d, m.CoreID)
	}
	return d.ArtifactID == m.CoreID
}

// resolveVersion reads the version the release is pinned to. It is resolved
// once here and never re-read from the parent.
func (m Merger[P]) resolveVersion(plugin Manifest[P]) (string, error) {
	if plugin.Parent == nil {
		if m.ParentOptional {
			return plugin.Version, nil
		}
		return "", zerr.With(zerr.Wrap(ErrMissingParentReference, plugin.ArtifactID), "artifact", plugin.ArtifactID)
	}
	if plugin.Parent.Version == "" {
		err := zerr.With(zerr.Wrap(ErrMissingVersion, plugin.ArtifactID), "artifact", plugin.ArtifactID)
		return "", zerr.With(err, "parent", plugin.Parent.ArtifactID)
	}
	return plugin.Parent.Version, nil
}
