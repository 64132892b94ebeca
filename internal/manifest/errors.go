package manifest

import (
	"errors"

	"go.trai.ch/zerr"
)

var (
	// ErrMissingParentReference is returned when the plugin manifest has no parent to take the version from.
	ErrMissingParentReference = zerr.New("plugin manifest has no parent reference")

	// ErrMissingVersion is returned when the parent reference carries no version.
	ErrMissingVersion = zerr.New("parent reference has no version")

	// ErrCoreDependencyNotFound is returned when no dependency matches the core module.
	ErrCoreDependencyNotFound = zerr.New("core dependency not found")

	// ErrAmbiguousCoreDependency is returned when more than one dependency matches the core module.
	ErrAmbiguousCoreDependency = zerr.New("core dependency is ambiguous")

	// ErrManifestParse is returned when a manifest document cannot be parsed.
	ErrManifestParse = zerr.New("failed to parse manifest")

	// ErrDependencyBlockNotFound is returned when a build script has no dependencies block.
	ErrDependencyBlockNotFound = zerr.New("dependencies block not found")
)

// ParseError builds an ErrManifestParse error for the document at path,
// keeping the parser diagnostic in the chain.
func ParseError(path string, cause error) error {
	if cause == nil {
		return zerr.With(zerr.Wrap(ErrManifestParse, path), "path", path)
	}
	return errors.Join(ErrManifestParse, zerr.With(zerr.Wrap(cause, path), "path", path))
}
