// Package gradle reads and rewrites Gradle build scripts.
//
// Scripts are not parsed as Groovy. The core module's dependencies are the
// lines of the first `dependencies {` block, up to the first closing brace, so
// nested braces in that block are not supported. A plugin script is handled
// line by line: every physical line is one opaque entry and only the line
// naming the core module is replaced.
package gradle

import (
	"regexp"
	"strings"

	"go.trai.ch/zerr"

	"github.com/snowpark-plugins/release/internal/manifest"
)

var (
	dependencyBlock = regexp.MustCompile(`(?s)dependencies \{(.+?)\}`)
	versionLine     = regexp.MustCompile(`(?m)^version\s*=\s*['"]([^'"\n]*)['"]`)
)

// Manifest is a build script manifest; each dependency carries its raw line,
// terminator included.
type Manifest = manifest.Manifest[string]

// Script is a plugin build script. Its dependencies are all lines of the
// file, so writing them back in order reproduces the source byte for byte.
type Script struct {
	// Path is used in error messages only.
	Path string
	// Manifest is the typed view of the script.
	Manifest Manifest

	src string
}

// Parse splits a plugin build script into lines.
func Parse(data []byte, path string) *Script {
	s := &Script{Path: path}
	s.load(string(data))
	return s
}

func (s *Script) load(src string) {
	m := Manifest{Version: declaredVersion(src)}
	for _, line := range strings.SplitAfter(src, "\n") {
		if line == "" {
			continue
		}
		m.Dependencies = append(m.Dependencies, manifest.Dependency[string]{
			ArtifactID: strings.TrimSpace(line),
			Payload:    line,
		})
	}
	s.src = src
	s.Manifest = m
}

// ParseCore returns the dependency lines of a core build script: every
// non-empty line of its first dependencies block, newline terminated.
func ParseCore(data []byte, path string) (Manifest, error) {
	src := string(data)
	match := dependencyBlock.FindStringSubmatch(src)
	if match == nil {
		return Manifest{}, zerr.With(zerr.Wrap(manifest.ErrDependencyBlockNotFound, path), "path", path)
	}

	m := Manifest{Version: declaredVersion(src)}
	for _, line := range strings.Split(match[1], "\n") {
		if line == "" {
			continue
		}
		m.Dependencies = append(m.Dependencies, manifest.Dependency[string]{
			ArtifactID: strings.TrimSpace(line),
			Payload:    line + "\n",
		})
	}
	return m, nil
}

func declaredVersion(src string) string {
	if v := versionLine.FindStringSubmatch(src); v != nil {
		return v[1]
	}
	return ""
}

// Apply writes the entries of m back as the script source and, when m pins
// a different version, rewrites the version assignment.
func (s *Script) Apply(m Manifest) error {
	var b strings.Builder
	for _, d := range m.Dependencies {
		b.WriteString(d.Payload)
	}
	out := b.String()

	if m.Version != "" && m.Version != s.Manifest.Version {
		loc := versionLine.FindStringSubmatchIndex(out)
		if loc == nil {
			err := zerr.Wrap(manifest.ErrMissingVersion, "no version assignment to pin "+m.Version)
			return zerr.With(err, "path", s.Path)
		}
		out = out[:loc[2]] + m.Version + out[loc[3]:]
	}

	s.load(out)
	s.Manifest.ArtifactID = m.ArtifactID
	return nil
}

// Bytes returns the script source.
func (s *Script) Bytes() []byte {
	return []byte(s.src)
}

// ContainsCoreID matches a line that mentions the core module anywhere in its
// text.
func ContainsCoreID(dep manifest.Dependency[string], coreID string) bool {
	return strings.Contains(dep.Payload, coreID)
}

// Merger returns the merge rules for build scripts: substring match on the
// raw line, core lines spliced in place, no parent required.
func Merger(coreID string) manifest.Merger[string] {
	return manifest.Merger[string]{
		CoreID:         coreID,
		Match:          ContainsCoreID,
		Placement:      manifest.Splice,
		ParentOptional: true,
	}
}

// Merge merges core into plugin with merger and applies the result to the
// plugin script.
func Merge(plugin *Script, core Manifest, merger manifest.Merger[string]) error {
	merged, err := merger.Merge(plugin.Manifest, core)
	if err != nil {
		return err
	}
	return plugin.Apply(merged)
}
