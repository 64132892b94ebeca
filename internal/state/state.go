// Package state manages the release record written to
// <releaseDir>/.release/state.json. A release directory whose record is not
// complete must not be treated as released. The schema is versioned to support
// forward-compatible migrations.
package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"
)

const (
	recordVersion = 1
	recordDir     = ".release"
	recordFile    = "state.json"
)

// Status of a release directory.
type Status string

const (
	// StatusIncomplete marks a release that is running or has failed.
	StatusIncomplete Status = "incomplete"
	// StatusComplete marks a release whose build tool run succeeded.
	StatusComplete Status = "complete"
)

// Record is the persistent state written to <releaseDir>/.release/state.json.
// Version field enables future migrations.
type Record struct {
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt,omitempty"`
	Target     string    `json:"target"`
	ReleaseDir string    `json:"releaseDir"`
	Artifact   string    `json:"artifact,omitempty"`
	Release    string    `json:"release,omitempty"` // merged manifest version
	Command    []string  `json:"command"`
	Status     Status    `json:"status"`
	Error      string    `json:"error,omitempty"`
	Version    int       `json:"version"`
}

// Complete reports whether the release finished successfully.
func (r *Record) Complete() bool {
	return r.Status == StatusComplete
}

// MarkComplete records a successful release.
func (r *Record) MarkComplete() {
	r.Status = StatusComplete
	r.Error = ""
	r.FinishedAt = time.Now().UTC()
}

// MarkFailed records a failed release. The directory stays incomplete.
func (r *Record) MarkFailed(err error) {
	r.Status = StatusIncomplete
	if err != nil {
		r.Error = err.Error()
	}
	r.FinishedAt = time.Now().UTC()
}

// RecordPath returns the path to the record file for the given release directory.
func RecordPath(releaseDir string) string {
	return filepath.Join(releaseDir, recordDir, recordFile)
}

// Write persists rec to <releaseDir>/.release/state.json.
func Write(fs afero.Fs, releaseDir string, rec *Record) error {
	dir := filepath.Join(releaseDir, recordDir)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}

	if err := afero.WriteFile(fs, RecordPath(releaseDir), data, 0o644); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Read loads and parses the record from <releaseDir>/.release/state.json.
func Read(fs afero.Fs, releaseDir string) (*Record, error) {
	path := RecordPath(releaseDir)
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no release record at %s: has this target been released?", path)
		}
		return nil, fmt.Errorf("read record: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record: %w", err)
	}

	// Future: handle rec.Version < recordVersion migrations here.

	return &rec, nil
}

// NewRecord creates a fresh incomplete record ready to be written.
func NewRecord(target, releaseDir string, command []string) *Record {
	abs, _ := filepath.Abs(releaseDir)
	return &Record{
		Version:    recordVersion,
		Target:     target,
		ReleaseDir: abs,
		Command:    append([]string(nil), command...),
		Status:     StatusIncomplete,
		StartedAt:  time.Now().UTC(),
	}
}
