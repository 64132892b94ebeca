// Package tool runs the external build tool that installs or publishes a
// release directory. Use Detect() to obtain the runner for a target.
package tool

import (
	"context"
	"os"
	"path/filepath"

	"go.trai.ch/zerr"
)

// ErrBuildToolInvocation is returned when the build tool cannot be launched,
// exits with a non-zero status or runs past its deadline.
var ErrBuildToolInvocation = zerr.New("build tool invocation failed")

// Progress reports a single output line of the build tool.
type Progress struct {
	Line   string // raw output line for logging
	Stderr bool
}

// Runner abstracts a build tool invocation.
// Run blocks until the tool exits and streams its output via the channel.
// The channel is not closed by Run; the caller owns it.
type Runner interface {
	// Name returns the executable name, e.g. "mvn" or "./gradlew".
	Name() string
	// Run executes the tool with dir as its working directory.
	Run(ctx context.Context, dir string, progress chan<- Progress) error
}

// wrappers maps a bare build tool to the wrapper script projects check in.
var wrappers = map[string]string{
	"mvn":    "mvnw",
	"gradle": "gradlew",
}

// Detect returns the runner for command in dir. A wrapper script shipped in
// dir (./mvnw, ./gradlew) is preferred over the tool found on PATH.
func Detect(dir string, command []string) Runner {
	if len(command) == 0 {
		return &Exec{}
	}
	name := command[0]
	if wrapper, ok := wrappers[name]; ok {
		if info, err := os.Stat(filepath.Join(dir, wrapper)); err == nil && !info.IsDir() && info.Mode()&0o111 != 0 {
			name = "./" + wrapper
		}
	}
	return &Exec{Path: name, Args: append([]string(nil), command[1:]...)}
}
