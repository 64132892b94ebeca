// Package plan loads the release plan: the core module and the plugin targets
// the release tool knows how to package.
package plan

import (
	_ "embed"
	"fmt"
	"os"

	"go.trai.ch/zerr"
	"go.yaml.in/yaml/v3"
)

//go:embed release-plan.yaml
var embeddedPlan []byte

var (
	// ErrInvalidPlan is returned when a plan fails validation.
	ErrInvalidPlan = zerr.New("invalid release plan")
	// ErrPlanNotFound is returned when the named plan file does not exist.
	ErrPlanNotFound = zerr.New("release plan not found")
)

// DefaultSourceDir is the module source tree copied into a release.
const DefaultSourceDir = "src/main/java"

// LoadOptions controls where the plan is loaded from.
// Zero value loads the embedded plan.
type LoadOptions struct {
	// LocalOverride, if set, replaces the embedded plan and must exist.
	LocalOverride string
}

// Load returns the local override plan when one is named, else the embedded
// plan. A named override that does not exist is an error.
func Load(opts LoadOptions) (*Plan, error) {
	if opts.LocalOverride == "" {
		return loadBytes(embeddedPlan, "embedded plan")
	}

	data, err := os.ReadFile(opts.LocalOverride)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(zerr.Wrap(ErrPlanNotFound, opts.LocalOverride), "path", opts.LocalOverride)
		}
		return nil, fmt.Errorf("read override %s: %w", opts.LocalOverride, err)
	}
	// Parse errors are always fatal.
	return loadBytes(data, opts.LocalOverride)
}

// LoadDefault loads the embedded plan.
func LoadDefault() (*Plan, error) {
	return Load(LoadOptions{})
}

func loadBytes(data []byte, source string) (*Plan, error) {
	var p Plan
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan %s: %w", source, err)
	}
	if p.SourceDir == "" {
		p.SourceDir = DefaultSourceDir
	}
	if err := p.Validate(); err != nil {
		return nil, zerr.With(err, "source", source)
	}
	return &p, nil
}

// Validate checks that every target can be released.
func (p *Plan) Validate() error {
	if p.Core.Path == "" || p.Core.ID == "" {
		return zerr.Wrap(ErrInvalidPlan, "core module needs a path and an id")
	}
	if len(p.Targets) == 0 {
		return zerr.Wrap(ErrInvalidPlan, "no targets")
	}

	seen := make(map[string]bool, len(p.Targets))
	for _, t := range p.Targets {
		invalid := func(reason string) error {
			return zerr.With(zerr.Wrap(ErrInvalidPlan, fmt.Sprintf("target %q: %s", t.Name, reason)), "target", t.Name)
		}
		switch {
		case t.Name == "":
			return invalid("missing name")
		case seen[t.Name]:
			return invalid("duplicate name")
		case t.Module == "":
			return invalid("missing module")
		case t.ReleaseDir == "":
			return invalid("missing release_dir")
		case t.Manifest == "":
			return invalid("missing manifest")
		case len(t.Command) == 0:
			return invalid("missing command")
		}
		switch t.Format {
		case FormatPOM:
			if p.Core.Manifest == "" {
				return invalid("core module has no manifest")
			}
		case FormatGradle:
			if p.Core.BuildFile == "" {
				return invalid("core module has no build_file")
			}
		default:
			return invalid(fmt.Sprintf("unknown format %q", t.Format))
		}
		seen[t.Name] = true
	}
	return nil
}
