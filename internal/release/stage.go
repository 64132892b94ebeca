package release

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"go.trai.ch/zerr"

	"github.com/snowpark-plugins/release/internal/plan"
)

// ErrSourceNotFound is returned when a directory or file to be staged is missing.
var ErrSourceNotFound = zerr.New("release source not found")

// executableMode is applied to auxiliary files flagged executable.
const executableMode os.FileMode = 0o700

// Stage copies the plugin sources, then the core sources, then the auxiliary
// files of t into its release directory and returns the number of files
// written. Core files overwrite plugin files with the same path.
func Stage(fs afero.Fs, root string, p *plan.Plan, t *plan.Target) (int, error) {
	releaseDir := filepath.Join(root, t.ReleaseDir)
	dst := filepath.Join(releaseDir, p.SourceDir)

	pluginFiles, err := copyTree(fs, filepath.Join(root, t.Module, p.SourceDir), dst)
	if err != nil {
		return 0, err
	}
	coreFiles, err := copyTree(fs, filepath.Join(root, p.Core.Path, p.SourceDir), dst)
	if err != nil {
		return 0, err
	}

	n := pluginFiles + coreFiles
	for _, aux := range t.AuxFiles {
		src := filepath.Join(root, aux.From)
		to := aux.To
		if to == "" {
			to = filepath.Base(aux.From)
		}
		target := filepath.Join(releaseDir, to)

		info, err := fs.Stat(src)
		if err != nil || info.IsDir() {
			return n, zerr.With(zerr.Wrap(ErrSourceNotFound, aux.From), "path", src)
		}
		if err := copyFile(fs, src, target, info.Mode().Perm()); err != nil {
			return n, err
		}
		if aux.Executable {
			if err := fs.Chmod(target, executableMode); err != nil {
				return n, fmt.Errorf("chmod %s: %w", target, err)
			}
		}
		n++
	}
	return n, nil
}

// copyTree mirrors src into dst and returns the number of files copied.
func copyTree(fs afero.Fs, src, dst string) (int, error) {
	info, err := fs.Stat(src)
	if err != nil || !info.IsDir() {
		return 0, zerr.With(zerr.Wrap(ErrSourceNotFound, src), "path", src)
	}

	n := 0
	err = afero.Walk(fs, src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return fs.MkdirAll(target, 0o755)
		}
		n++
		return copyFile(fs, path, target, info.Mode().Perm())
	})
	if err != nil {
		return n, fmt.Errorf("copy %s: %w", src, err)
	}
	return n, nil
}

func copyFile(fs afero.Fs, src, dst string, perm os.FileMode) error {
	in, err := fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	if perm == 0 {
		perm = 0o644
	}
	out, err := fs.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
