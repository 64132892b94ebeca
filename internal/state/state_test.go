package state

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewRecord verifies that NewRecord populates all required fields.
func TestNewRecord(t *testing.T) {
	cmd := []string{"mvn", "install"}
	rec := NewRecord("maven", "/tmp/release/maven", cmd)

	assert.Equal(t, recordVersion, rec.Version)
	assert.Equal(t, "maven", rec.Target)
	assert.Equal(t, StatusIncomplete, rec.Status)
	assert.False(t, rec.Complete())
	assert.False(t, rec.StartedAt.IsZero())
	assert.True(t, rec.FinishedAt.IsZero())

	// The record keeps its own copy of the command.
	cmd[0] = "gradle"
	assert.Equal(t, []string{"mvn", "install"}, rec.Command)
}

// TestWriteThenRead verifies round-trip write → read produces an identical record.
func TestWriteThenRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := NewRecord("gradle", "/release/gradle", []string{"gradle", "publishToMavenLocal"})
	// Fix timestamp for deterministic comparison.
	want.StartedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	want.Release = "0.1.0"

	require.NoError(t, Write(fs, "/release/gradle", want))

	got, err := Read(fs, "/release/gradle")
	require.NoError(t, err)

	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, want.Target, got.Target)
	assert.Equal(t, want.Command, got.Command)
	assert.Equal(t, "0.1.0", got.Release)
	assert.True(t, got.StartedAt.Equal(want.StartedAt))
	assert.Equal(t, StatusIncomplete, got.Status)
}

// TestMarkComplete verifies the transition to a complete release.
func TestMarkComplete(t *testing.T) {
	rec := NewRecord("maven", "/r", []string{"mvn"})
	rec.MarkFailed(errors.New("boom"))
	rec.MarkComplete()

	assert.True(t, rec.Complete())
	assert.Empty(t, rec.Error)
	assert.False(t, rec.FinishedAt.IsZero())
}

// TestMarkFailed verifies that a failed release stays incomplete and keeps the error.
func TestMarkFailed(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec := NewRecord("maven", "/r", []string{"mvn"})
	rec.MarkFailed(errors.New("mvn exited with status 1"))
	require.NoError(t, Write(fs, "/r", rec))

	got, err := Read(fs, "/r")
	require.NoError(t, err)
	assert.False(t, got.Complete())
	assert.Equal(t, "mvn exited with status 1", got.Error)
}

// TestReadMissing verifies that reading a non-existent record returns an error.
func TestReadMissing(t *testing.T) {
	_, err := Read(afero.NewMemMapFs(), "/nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no release record")
}

// TestReadCorrupt verifies that an unparseable record is reported.
func TestReadCorrupt(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, RecordPath("/r"), []byte("{"), 0o644))

	_, err := Read(fs, "/r")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse record")
}

// TestRecordPath verifies the expected record file path.
func TestRecordPath(t *testing.T) {
	assert.Equal(t, filepath.Join("/release", recordDir, recordFile), RecordPath("/release"))
}

// TestWriteCreatesDirectory verifies that Write creates .release/ on disk.
func TestWriteCreatesDirectory(t *testing.T) {
	dir := t.TempDir()
	fs := afero.NewOsFs()

	require.NoError(t, Write(fs, dir, NewRecord("maven", dir, []string{"mvn"})))

	exists, err := afero.Exists(fs, RecordPath(dir))
	require.NoError(t, err)
	assert.True(t, exists)
}
