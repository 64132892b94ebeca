// Package pom reads and rewrites Maven project descriptors.
//
// Elements are located by local tag name whatever their namespace prefix, once,
// at parse time. Everything downstream works on the typed manifest. Namespace
// declarations live in the element attributes and are written back exactly as
// they were read.
package pom

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"

	"github.com/snowpark-plugins/release/internal/manifest"
)

// DefaultIndent is the number of spaces used to re-indent a rewritten POM.
const DefaultIndent = 4

// Manifest is a POM manifest; each dependency carries its <dependency> subtree.
type Manifest = manifest.Manifest[*etree.Element]

// Document is a parsed POM and its typed manifest.
type Document struct {
	// Path is used in error messages only.
	Path string
	// Manifest is the typed view resolved at parse time.
	Manifest Manifest
	// Indent is the indentation applied after Apply. Zero keeps the layout.
	Indent int

	doc     *etree.Document
	project *etree.Element
}

// Parse reads a POM document. path is only used to label errors.
func Parse(data []byte, path string) (*Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, manifest.ParseError(path, err)
	}

	project := doc.Root()
	if project == nil {
		return nil, manifest.ParseError(path, fmt.Errorf("document has no root element"))
	}
	if project.Tag != "project" {
		return nil, manifest.ParseError(path, fmt.Errorf("root element is <%s>, want <project>", project.FullTag()))
	}

	m := Manifest{
		ArtifactID: childText(project, "artifactId"),
		Version:    childText(project, "version"),
	}
	if parent := child(project, "parent"); parent != nil {
		m.Parent = &manifest.Parent{
			ArtifactID: childText(parent, "artifactId"),
			Version:    childText(parent, "version"),
		}
	}
	if deps := child(project, "dependencies"); deps != nil {
		for _, d := range deps.ChildElements() {
			if d.Tag != "dependency" {
				continue
			}
			m.Dependencies = append(m.Dependencies, manifest.Dependency[*etree.Element]{
				ArtifactID: childText(d, "artifactId"),
				Payload:    d,
			})
		}
	}

	return &Document{
		Path:     path,
		Manifest: m,
		Indent:   DefaultIndent,
		doc:      doc,
		project:  project,
	}, nil
}

// Apply rewrites the document tree to match m: artifact ID, parent, version
// and the dependency list. Dependency payloads are deep-copied into the tree,
// so they may come from another document.
func (d *Document) Apply(m Manifest) {
	p := d.project

	if m.ArtifactID != "" {
		setChildText(p, "artifactId", m.ArtifactID, -1)
	}

	parentPos := -1
	if m.Parent == nil {
		if parent := child(p, "parent"); parent != nil {
			parentPos = parent.Index()
			p.RemoveChild(parent)
		}
	}

	if m.Version != "" {
		setChildText(p, "version", m.Version, parentPos)
	}

	deps := child(p, "dependencies")
	if deps == nil && len(m.Dependencies) > 0 {
		deps = p.CreateElement(qualify(p, "dependencies"))
	}
	if deps != nil {
		for _, old := range deps.ChildElements() {
			if old.Tag == "dependency" {
				deps.RemoveChild(old)
			}
		}
		for _, dep := range m.Dependencies {
			deps.AddChild(adopt(dep.Payload, deps))
		}
	}

	if d.Indent > 0 {
		d.doc.Indent(d.Indent)
	}
	d.Manifest = m
}

// Bytes serializes the document.
func (d *Document) Bytes() ([]byte, error) {
	return d.doc.WriteToBytes()
}

// Merge merges core into plugin with merger and applies the result to the
// plugin document.
func Merge(plugin, core *Document, merger manifest.Merger[*etree.Element]) error {
	merged, err := merger.Merge(plugin.Manifest, core.Manifest)
	if err != nil {
		return err
	}
	plugin.Apply(merged)
	return nil
}

// child returns the first child element with the given local name.
func child(e *etree.Element, tag string) *etree.Element {
	for _, c := range e.ChildElements() {
		if c.Tag == tag {
			return c
		}
	}
	return nil
}

func childText(e *etree.Element, tag string) string {
	if c := child(e, tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

// setChildText sets the text of the named child, creating it at pos (or at
// the end when pos is negative) when missing.
func setChildText(e *etree.Element, tag, text string, pos int) {
	c := child(e, tag)
	if c == nil {
		c = etree.NewElement(qualify(e, tag))
		if pos >= 0 {
			e.InsertChildAt(pos, c)
		} else {
			e.AddChild(c)
		}
	}
	c.SetText(text)
}

// adopt copies src for insertion under dst. Copied elements in dst's
// namespace take dst's prefix, so a subtree read from a default-namespace POM
// stays in the POM namespace inside a prefixed one.
func adopt(src, dst *etree.Element) *etree.Element {
	out := src.Copy()
	requalify(src, out, dst.NamespaceURI(), dst.Space)
	return out
}

func requalify(src, out *etree.Element, uri, space string) {
	if src.NamespaceURI() == uri {
		out.Space = space
	}
	from, to := src.ChildElements(), out.ChildElements()
	for i := range from {
		requalify(from[i], to[i], uri, space)
	}
}

// qualify gives tag the namespace prefix of e so new elements land in the
// document's namespace.
func qualify(e *etree.Element, tag string) string {
	if e.Space == "" {
		return tag
	}
	return e.Space + ":" + tag
}
