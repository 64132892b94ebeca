// Package release orchestrates the packaging of one plugin target: it stages
// the plugin and core sources into the release directory, writes the merged
// manifest and hands the result to the build tool. Progress is persisted in
// the release record via the state package.
package release

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/spf13/afero"
	"go.trai.ch/zerr"

	"github.com/snowpark-plugins/release/internal/logger"
	"github.com/snowpark-plugins/release/internal/plan"
	"github.com/snowpark-plugins/release/internal/state"
	"github.com/snowpark-plugins/release/internal/tool"
)

var (
	// ErrVersionConstraint is returned when the merged version falls outside
	// the configured constraint.
	ErrVersionConstraint = zerr.New("release version does not satisfy constraint")
	// ErrUnsafeReleaseDir is returned when a release directory to be cleaned
	// lies outside the repository root.
	ErrUnsafeReleaseDir = zerr.New("release directory is not inside the repository root")
)

// Options tune a single release.
type Options struct {
	SkipBuild         bool          // stop after the merged manifest is written
	Clean             bool          // remove the release directory before staging
	Timeout           time.Duration // zero means no deadline beyond ctx
	VersionConstraint string
	Indent            int // POM re-indent width, zero keeps the layout
}

// Result is returned after a successful Release.
type Result struct {
	Target     string
	ReleaseDir string
	Manifest   string // path of the merged manifest
	Version    string
	Files      int // staged source and auxiliary files
	Tool       string
	Built      bool
	RecordPath string
	Duration   time.Duration
}

// Releaser orchestrates target releases.
type Releaser struct {
	Fs     afero.Fs
	Log    *logger.Logger
	Detect func(dir string, command []string) tool.Runner // defaults to tool.Detect
	OnStep func(step, total int, label string)            // called at each named stage
	OnLine func(line string)                              // called for each raw output line of the build tool
}

// Release packages target t of plan p below root.
// The release record is written as incomplete before anything is staged and
// only marked complete once the build tool succeeds.
func (r *Releaser) Release(ctx context.Context, root string, p *plan.Plan, t *plan.Target, opts Options) (res *Result, err error) {
	start := time.Now()
	releaseDir := filepath.Join(root, t.ReleaseDir)

	total := 3
	if opts.SkipBuild {
		total = 2
	}

	r.step(1, total, fmt.Sprintf("Staging %s into %s", t.Name, t.ReleaseDir))
	if opts.Clean {
		if err := r.clean(root, releaseDir); err != nil {
			return nil, err
		}
	}

	rec := state.NewRecord(t.Name, releaseDir, t.Command)
	if err := state.Write(r.Fs, releaseDir, rec); err != nil {
		return nil, fmt.Errorf("release record: %w", err)
	}
	defer func() {
		if err == nil {
			return
		}
		rec.MarkFailed(err)
		if werr := state.Write(r.Fs, releaseDir, rec); werr != nil {
			r.Log.Error("could not record failed release", "target", t.Name, "err", werr)
		}
	}()

	files, err := Stage(r.Fs, root, p, t)
	if err != nil {
		return nil, fmt.Errorf("stage: %w", err)
	}
	r.Log.Info("staged sources", "target", t.Name, "files", files)

	r.step(2, total, "Merging manifests")
	merged, err := MergeTarget(r.Fs, root, p, t, opts.Indent)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	rec.Artifact = merged.ArtifactID
	rec.Release = merged.Version
	if err := r.checkVersion(t, merged.Version, opts.VersionConstraint); err != nil {
		return nil, err
	}
	manifestPath := filepath.Join(releaseDir, t.Manifest)
	if err := afero.WriteFile(r.Fs, manifestPath, merged.Data, 0o644); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}
	r.Log.Info("wrote merged manifest", "path", manifestPath, "version", merged.Version, "dependencies", merged.Dependencies)

	res = &Result{
		Target:     t.Name,
		ReleaseDir: releaseDir,
		Manifest:   manifestPath,
		Version:    merged.Version,
		Files:      files,
		RecordPath: state.RecordPath(releaseDir),
	}

	if !opts.SkipBuild {
		runner := r.detect(releaseDir, t.Command)
		res.Tool = runner.Name()
		label := runner.Name()
		if len(t.Command) > 1 {
			label += " " + strings.Join(t.Command[1:], " ")
		}
		r.step(3, total, "Running "+label)
		if err := r.build(ctx, runner, releaseDir, opts.Timeout); err != nil {
			return nil, err
		}
		res.Built = true
	}

	rec.MarkComplete()
	if err := state.Write(r.Fs, releaseDir, rec); err != nil {
		return nil, fmt.Errorf("release record: %w", err)
	}

	res.Duration = time.Since(start)
	return res, nil
}

// ── helpers ──────────────────────────────────────────────────────────────────

func (r *Releaser) step(n, total int, label string) {
	r.Log.Infof("[%d/%d] %s", n, total, label)
	if r.OnStep != nil {
		r.OnStep(n, total, label)
	}
}

func (r *Releaser) detect(dir string, command []string) tool.Runner {
	if r.Detect != nil {
		return r.Detect(dir, command)
	}
	return tool.Detect(dir, command)
}

func (r *Releaser) clean(root, releaseDir string) error {
	rel, err := filepath.Rel(root, releaseDir)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return zerr.With(ErrUnsafeReleaseDir, "release_dir", releaseDir)
	}
	r.Log.Debug("removing previous release", "dir", releaseDir)
	if err := r.Fs.RemoveAll(releaseDir); err != nil {
		return fmt.Errorf("clean %s: %w", releaseDir, err)
	}
	return nil
}

// checkVersion enforces the configured semver constraint on the merged version.
func (r *Releaser) checkVersion(t *plan.Target, version, constraint string) error {
	if constraint == "" {
		return nil
	}
	if version == "" && t.Format == plan.FormatGradle {
		// Build scripts may leave the version to gradle.properties.
		r.Log.Warn("merged build script declares no version, constraint not checked", "target", t.Name)
		return nil
	}
	c, err := semver.NewConstraint(constraint)
	if err != nil {
		return errors.Join(ErrVersionConstraint, zerr.With(zerr.Wrap(err, "parse constraint"), "constraint", constraint))
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		return errors.Join(ErrVersionConstraint, zerr.With(zerr.Wrap(err, "parse version"), "version", version))
	}
	if !c.Check(v) {
		err := zerr.Wrap(ErrVersionConstraint, fmt.Sprintf("%s does not satisfy %s", version, constraint))
		err = zerr.With(err, "version", version)
		return zerr.With(err, "constraint", constraint)
	}
	return nil
}

// build runs the tool, draining progress lines to the log and forwarding
// each line to OnLine if set.
// It waits for the drain goroutine to finish before returning so no output
// is lost even when the channel is buffered.
func (r *Releaser) build(ctx context.Context, runner tool.Runner, dir string, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	ch := make(chan tool.Progress, 64)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range ch {
			if p.Line == "" {
				continue
			}
			r.Log.Printf("  %s", p.Line)
			if r.OnLine != nil {
				r.OnLine(p.Line)
			}
		}
	}()
	err := runner.Run(ctx, dir, ch)
	close(ch)
	<-done // wait for drain goroutine to flush all buffered lines
	return err
}
