package manifest

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const coreID = "snowflake-plugins-core"

func dep(id string) Dependency[string] {
	return Dependency[string]{ArtifactID: id, Payload: "<" + id + ">"}
}

func deps(ids ...string) []Dependency[string] {
	out := make([]Dependency[string], len(ids))
	for i, id := range ids {
		out[i] = dep(id)
	}
	return out
}

func plugin(ids ...string) Manifest[string] {
	return Manifest[string]{
		ArtifactID:   "snowflake-maven-plugin",
		Parent:       &Parent{ArtifactID: "snowflake-plugins", Version: "0.2.0"},
		Dependencies: deps(ids...),
	}
}

// TestMergeCoreFirst covers [core, libA] + [libB] -> [libA, libB].
func TestMergeCoreFirst(t *testing.T) {
	core := Manifest[string]{ArtifactID: coreID, Dependencies: deps("libB")}

	got, err := Merge(plugin(coreID, "libA"), core, coreID)
	require.NoError(t, err)

	assert.Equal(t, []string{"libA", "libB"}, got.ArtifactIDs())
	assert.Equal(t, "0.2.0", got.Version)
	assert.Nil(t, got.Parent)
	assert.Equal(t, "snowflake-maven-plugin", got.ArtifactID)
}

// TestMergeCoreLastEmptyCore covers [libA, core] + [] -> [libA].
func TestMergeCoreLastEmptyCore(t *testing.T) {
	got, err := Merge(plugin("libA", coreID), Manifest[string]{}, coreID)
	require.NoError(t, err)
	assert.Equal(t, []string{"libA"}, got.ArtifactIDs())
}

// TestMergeLengthAndVersion checks the size, parent and version properties
// over a range of plugin and core shapes.
func TestMergeLengthAndVersion(t *testing.T) {
	for pluginLen := 1; pluginLen <= 5; pluginLen++ {
		for corePos := 0; corePos < pluginLen; corePos++ {
			for coreLen := 0; coreLen <= 3; coreLen++ {
				name := fmt.Sprintf("plugin=%d/core@%d/core=%d", pluginLen, corePos, coreLen)
				t.Run(name, func(t *testing.T) {
					ids := make([]string, pluginLen)
					for i := range ids {
						ids[i] = fmt.Sprintf("p%d", i)
					}
					ids[corePos] = coreID
					coreIDs := make([]string, coreLen)
					for i := range coreIDs {
						coreIDs[i] = fmt.Sprintf("c%d", i)
					}

					p := plugin(ids...)
					p.Parent.Version = "v-" + name
					got, err := Merge(p, Manifest[string]{Dependencies: deps(coreIDs...)}, coreID)
					require.NoError(t, err)

					assert.Len(t, got.Dependencies, pluginLen-1+coreLen)
					assert.Nil(t, got.Parent)
					assert.Equal(t, "v-"+name, got.Version)
					assert.NotContains(t, got.ArtifactIDs(), coreID)
				})
			}
		}
	}
}

// TestMergeKeepsDuplicates verifies that a dependency shared by plugin and
// core appears twice in the result.
func TestMergeKeepsDuplicates(t *testing.T) {
	core := Manifest[string]{Dependencies: deps("shared", "libB")}

	got, err := Merge(plugin("shared", coreID), core, coreID)
	require.NoError(t, err)
	assert.Equal(t, []string{"shared", "shared", "libB"}, got.ArtifactIDs())
}

// TestMergeDoesNotModifyInputs verifies the inputs are left untouched.
func TestMergeDoesNotModifyInputs(t *testing.T) {
	p := plugin("libA", coreID, "libC")
	core := Manifest[string]{Dependencies: deps("libB")}

	_, err := Merge(p, core, coreID)
	require.NoError(t, err)

	assert.Equal(t, []string{"libA", coreID, "libC"}, p.ArtifactIDs())
	assert.NotNil(t, p.Parent)
	assert.Equal(t, []string{"libB"}, core.ArtifactIDs())
}

// TestMergeTwiceFails verifies that merged output no longer carries the core
// self-reference and cannot be merged again.
func TestMergeTwiceFails(t *testing.T) {
	core := Manifest[string]{Dependencies: deps("libB")}
	merged, err := Merge(plugin(coreID, "libA"), core, coreID)
	require.NoError(t, err)

	merged.Parent = &Parent{Version: "0.2.0"}
	_, err = Merge(merged, core, coreID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCoreDependencyNotFound))
}

func TestMergeErrors(t *testing.T) {
	tests := []struct {
		name    string
		plugin  Manifest[string]
		coreID  string
		wantErr error
	}{
		{
			name:    "no parent",
			plugin:  Manifest[string]{ArtifactID: "p", Dependencies: deps(coreID)},
			coreID:  coreID,
			wantErr: ErrMissingParentReference,
		},
		{
			name:    "parent without version",
			plugin:  Manifest[string]{ArtifactID: "p", Parent: &Parent{ArtifactID: "root"}, Dependencies: deps(coreID)},
			coreID:  coreID,
			wantErr: ErrMissingVersion,
		},
		{
			name:    "no core dependency",
			plugin:  plugin("libA"),
			coreID:  coreID,
			wantErr: ErrCoreDependencyNotFound,
		},
		{
			name:    "no dependencies at all",
			plugin:  plugin(),
			coreID:  coreID,
			wantErr: ErrCoreDependencyNotFound,
		},
		{
			name:    "core referenced twice",
			plugin:  plugin(coreID, "libA", coreID),
			coreID:  coreID,
			wantErr: ErrAmbiguousCoreDependency,
		},
		{
			name:    "empty core identifier",
			plugin:  plugin("libA"),
			coreID:  "",
			wantErr: ErrCoreDependencyNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Merge(tt.plugin, Manifest[string]{}, tt.coreID)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// TestMergerSplice verifies that Splice places core dependencies at the
// position of the removed self-reference.
func TestMergerSplice(t *testing.T) {
	m := Merger[string]{CoreID: coreID, Placement: Splice}
	core := Manifest[string]{Dependencies: deps("c1", "c2")}

	got, err := m.Merge(plugin("libA", coreID, "libZ"), core)
	require.NoError(t, err)
	assert.Equal(t, []string{"libA", "c1", "c2", "libZ"}, got.ArtifactIDs())
}

// TestMergerCustomMatch verifies substring matching on the payload.
func TestMergerCustomMatch(t *testing.T) {
	m := Merger[string]{
		CoreID: "plugins-core",
		Match: func(d Dependency[string], id string) bool {
			return strings.Contains(d.Payload, id)
		},
	}

	got, err := m.Merge(plugin("libA", "snowflake-plugins-core"), Manifest[string]{})
	require.NoError(t, err)
	assert.Equal(t, []string{"libA"}, got.ArtifactIDs())
}

// TestMergerParentOptional verifies the declared version survives when no
// parent exists and ParentOptional is set.
func TestMergerParentOptional(t *testing.T) {
	m := Merger[string]{CoreID: coreID, ParentOptional: true}
	p := Manifest[string]{Version: "1.4.0", Dependencies: deps(coreID)}

	got, err := m.Merge(p, Manifest[string]{})
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", got.Version)

	// A present parent still wins.
	p.Parent = &Parent{Version: "2.0.0"}
	got, err = m.Merge(p, Manifest[string]{})
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", got.Version)
}

// TestMergerRename verifies the artifact rename.
func TestMergerRename(t *testing.T) {
	m := Merger[string]{CoreID: coreID, ArtifactID: "snowflake-maven-plugin"}
	p := plugin(coreID)
	p.ArtifactID = "snowflake-maven-plugin-module"

	got, err := m.Merge(p, Manifest[string]{})
	require.NoError(t, err)
	assert.Equal(t, "snowflake-maven-plugin", got.ArtifactID)
}
