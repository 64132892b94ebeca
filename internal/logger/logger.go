// Package logger provides a dual-output logger that writes to both stderr
// and a timestamped log file inside the release directory.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

const logPrefix = "release"

// Logger writes to both stderr and a log file simultaneously.
// The embedded charm logger provides leveled, structured output.
type Logger struct {
	*log.Logger
	w    io.Writer
	file *os.File
}

// LogsDir returns the directory release logs are written to under root.
func LogsDir(root string) string {
	return filepath.Join(root, "release", ".logs")
}

// New creates a logger that writes to stderr and to
// <root>/release/.logs/release-<ts>.log. An empty level means info.
func New(root, level string) (*Logger, error) {
	lvl, err := parseLevel(level)
	if err != nil {
		return nil, err
	}

	logsDir := LogsDir(root)
	if err := os.MkdirAll(logsDir, 0o755); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	ts := time.Now().Format("20060102-150405")
	logPath := filepath.Join(logsDir, fmt.Sprintf("release-%s.log", ts))

	f, err := os.Create(logPath)
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	w := io.MultiWriter(os.Stderr, f)
	return &Logger{
		Logger: newCharm(w, lvl),
		w:      w,
		file:   f,
	}, nil
}

// NewDiscard returns a logger that drops everything (used in tests and
// before the repository root is known).
func NewDiscard() *Logger {
	return NewWriter(io.Discard)
}

// NewWriter returns a logger that writes to w only.
func NewWriter(w io.Writer) *Logger {
	return &Logger{Logger: newCharm(w, log.DebugLevel), w: w}
}

func newCharm(w io.Writer, lvl log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Prefix:          logPrefix,
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
	})
}

func parseLevel(level string) (log.Level, error) {
	if strings.TrimSpace(level) == "" {
		return log.InfoLevel, nil
	}
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return 0, fmt.Errorf("log level %q: %w", level, err)
	}
	return lvl, nil
}

// LogPath returns the path of the current log file, or empty string if discarded.
func (l *Logger) LogPath() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// Write implements io.Writer and forwards raw bytes to the underlying outputs.
func (l *Logger) Write(p []byte) (n int, err error) {
	return l.w.Write(p)
}

// Close flushes and closes the log file.
func (l *Logger) Close() error {
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}

// LatestLogPath returns the path to the most recent release log under root.
// Returns "" if no logs exist.
func LatestLogPath(root string) string {
	logsDir := LogsDir(root)
	entries, err := os.ReadDir(logsDir)
	if err != nil || len(entries) == 0 {
		return ""
	}
	// ReadDir returns sorted by name; release-<ts> logs sort chronologically.
	latest := ""
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".log") {
			latest = filepath.Join(logsDir, e.Name())
		}
	}
	return latest
}
