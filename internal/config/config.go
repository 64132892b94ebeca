// Package config resolves release settings from defaults, the optional
// release.yaml file in the repository root, PLUGIN_RELEASE_* environment
// variables and command-line overrides, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/viper"
	"go.trai.ch/zerr"
)

const (
	fileName  = "release"
	fileType  = "yaml"
	envPrefix = "PLUGIN_RELEASE"
)

// Setting keys.
const (
	KeyRoot              = "root"
	KeyPlan              = "plan"
	KeyTimeout           = "timeout"
	KeyLogLevel          = "log_level"
	KeyVersionConstraint = "version_constraint"
	KeyClean             = "clean"
	KeyIndent            = "indent"
)

// DefaultTimeout bounds a single build tool run.
const DefaultTimeout = 30 * time.Minute

// ErrInvalidSettings is returned when a resolved setting cannot be used.
var ErrInvalidSettings = zerr.New("invalid settings")

// Settings is the resolved configuration of one invocation.
type Settings struct {
	// Root is the absolute repository root holding the core and plugin modules.
	Root string
	// Plan is an optional release plan file replacing the embedded one.
	Plan              string
	Timeout           time.Duration
	LogLevel          string
	VersionConstraint string
	Clean             bool
	// Indent is the number of spaces used when re-indenting merged POMs;
	// zero keeps the original layout.
	Indent int
	// File is the config file that was read, if any.
	File string
}

// Options controls how settings are resolved.
type Options struct {
	// Root overrides the repository root; empty uses PLUGIN_RELEASE_ROOT or the cwd.
	Root string
	// File is an explicit config file; it must exist when set.
	File string
	// Overrides are applied last, keyed by setting name.
	Overrides map[string]any
}

// FilePath returns the default config file path inside root.
func FilePath(root string) string {
	return filepath.Join(root, fileName+"."+fileType)
}

// Load resolves settings.
func Load(opts Options) (*Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolve working directory: %w", err)
	}
	v.SetDefault(KeyRoot, cwd)
	v.SetDefault(KeyPlan, "")
	v.SetDefault(KeyTimeout, DefaultTimeout)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyVersionConstraint, "")
	v.SetDefault(KeyClean, false)
	v.SetDefault(KeyIndent, 4)

	if opts.Root != "" {
		v.Set(KeyRoot, opts.Root)
	}
	root := v.GetString(KeyRoot)

	file := opts.File
	if file == "" {
		candidate := FilePath(root)
		if _, err := os.Stat(candidate); err == nil {
			file = candidate
		}
	}
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType(fileType)
		if err := v.ReadInConfig(); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "read config file"), "file", file)
		}
	}

	for key, value := range opts.Overrides {
		v.Set(key, value)
	}
	// An explicit root always wins over one named in the config file.
	if opts.Root != "" {
		v.Set(KeyRoot, opts.Root)
	}

	s := &Settings{
		Root:              v.GetString(KeyRoot),
		Plan:              v.GetString(KeyPlan),
		Timeout:           v.GetDuration(KeyTimeout),
		LogLevel:          v.GetString(KeyLogLevel),
		VersionConstraint: v.GetString(KeyVersionConstraint),
		Clean:             v.GetBool(KeyClean),
		Indent:            v.GetInt(KeyIndent),
		File:              file,
	}
	if err := s.normalize(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Settings) normalize() error {
	abs, err := filepath.Abs(s.Root)
	if err != nil {
		return errors.Join(ErrInvalidSettings, zerr.Wrap(err, "resolve root"))
	}
	s.Root = abs

	if s.Plan != "" && !filepath.IsAbs(s.Plan) {
		s.Plan = filepath.Join(s.Root, s.Plan)
	}

	if s.Timeout <= 0 {
		return zerr.With(zerr.Wrap(ErrInvalidSettings, "timeout must be positive"), KeyTimeout, s.Timeout.String())
	}
	if s.Indent < 0 {
		return zerr.With(zerr.Wrap(ErrInvalidSettings, "indent must not be negative"), KeyIndent, s.Indent)
	}
	if s.VersionConstraint != "" {
		if _, err := semver.NewConstraint(s.VersionConstraint); err != nil {
			return errors.Join(ErrInvalidSettings, zerr.With(zerr.Wrap(err, "parse version constraint"), KeyVersionConstraint, s.VersionConstraint))
		}
	}
	return nil
}
