package cmd

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStepBar(t *testing.T) {
	tests := []struct {
		step, total int
		want        string
	}{
		{0, 0, ""},
		{0, 3, "○○○"},
		{2, 3, "●●○"},
		{3, 3, "●●●"},
		{5, 3, "●●●"},
		{-1, 2, "○○"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, stepBar(tt.step, tt.total), "step %d of %d", tt.step, tt.total)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abc…", truncate("abcdef", 4))
	assert.Equal(t, "ää…", truncate("äääää", 3))
}

// TestProgressRendersSteps verifies the status line carries the target, the
// step counter and the latest tool output.
func TestProgressRendersSteps(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "maven")
	p.setStep(2, 3, "Merging manifests")
	p.setDetail("[INFO] BUILD SUCCESS")

	p.start()
	time.Sleep(3 * p.spin.FPS)
	p.stop(nil)

	out := buf.String()
	assert.Contains(t, out, "●●○ 2/3 Merging manifests")
	assert.Contains(t, out, "[INFO] BUILD SUCCESS")
	assert.Contains(t, out, "✓")
	assert.Contains(t, out, "maven")
	assert.Contains(t, out, "●●●")
}

func TestProgressFailure(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(&buf, "gradle")
	p.start()
	p.setStep(3, 3, "Running gradle publishToMavenLocal")
	p.stop(errors.New("exit status 1"))

	out := buf.String()
	assert.Contains(t, out, "✗")
	assert.Contains(t, out, "gradle")
	assert.Contains(t, out, "3/3 Running gradle publishToMavenLocal")
	assert.Contains(t, out, "failed")
}

// TestSetStepClearsDetail verifies output of a finished step is not shown
// under the next one.
func TestSetStepClearsDetail(t *testing.T) {
	p := newProgress(&bytes.Buffer{}, "maven")
	p.setStep(3, 3, "Running mvn install")
	p.setDetail("[INFO] Scanning for projects...")
	p.setStep(1, 3, "Staging")
	assert.Empty(t, p.detail)
}
