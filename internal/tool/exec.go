package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.trai.ch/zerr"
)

const (
	// tailLines is how much output is kept for the invocation error.
	tailLines = 20
	// waitDelay bounds how long output is drained after the tool is killed.
	waitDelay = 5 * time.Second
)

// Exec implements Runner with a subprocess.
type Exec struct {
	Path string
	Args []string
}

// Name returns the executable the runner launches.
func (e *Exec) Name() string { return e.Path }

// Run starts the tool in dir and waits for it. The process working directory
// of the caller is never changed.
func (e *Exec) Run(ctx context.Context, dir string, progress chan<- Progress) error {
	if e.Path == "" {
		return zerr.Wrap(ErrBuildToolInvocation, "no build command configured")
	}

	cmd := exec.CommandContext(ctx, e.Path, e.Args...)
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay

	// stream both stdout and stderr as progress lines
	t := &tail{max: tailLines}
	stdout := &lineWriter{tail: t, progress: progress}
	stderr := &lineWriter{tail: t, progress: progress, stderr: true}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	err := cmd.Run()
	stdout.flush()
	stderr.flush()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		err = errors.Join(ctxErr, err)
	}
	return e.fail(err, exitCode(err), t.lines())
}

func (e *Exec) fail(cause error, code int, output []string) error {
	invocation := strings.TrimSpace(e.Path + " " + strings.Join(e.Args, " "))
	err := zerr.Wrap(cause, fmt.Sprintf("run %s", invocation))
	err = zerr.With(err, "tool", e.Path)
	err = zerr.With(err, "args", e.Args)
	err = zerr.With(err, "exit_code", code)
	if len(output) > 0 {
		err = zerr.With(err, "output", strings.Join(output, "\n"))
	}
	return errors.Join(ErrBuildToolInvocation, err)
}

// ExitCode returns the exit status recorded on a build tool error, or -1.
func ExitCode(err error) int {
	if code, ok := lookup(err, "exit_code").(int); ok {
		return code
	}
	return -1
}

// Output returns the captured output tail recorded on a build tool error.
func Output(err error) string {
	out, _ := lookup(err, "output").(string)
	return out
}

// lookup finds the first metadata value stored under key anywhere in the
// error tree.
func lookup(err error, key string) any {
	switch e := err.(type) {
	case nil:
		return nil
	case *zerr.Error:
		if v, ok := e.Metadata()[key]; ok {
			return v
		}
		return lookup(e.Unwrap(), key)
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if v := lookup(inner, key); v != nil {
				return v
			}
		}
		return nil
	case interface{ Unwrap() error }:
		return lookup(e.Unwrap(), key)
	}
	return nil
}

func exitCode(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// lineWriter splits a stream into lines. os/exec calls Write from its own
// copying goroutine, one per stream.
type lineWriter struct {
	tail     *tail
	progress chan<- Progress
	stderr   bool
	buf      bytes.Buffer
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.buf.Write(p)
	for {
		i := bytes.IndexByte(w.buf.Bytes(), '\n')
		if i < 0 {
			break
		}
		line := string(w.buf.Next(i + 1))
		w.emit(strings.TrimRight(line, "\r\n"))
	}
	return len(p), nil
}

func (w *lineWriter) flush() {
	if w.buf.Len() > 0 {
		w.emit(w.buf.String())
		w.buf.Reset()
	}
}

func (w *lineWriter) emit(line string) {
	if strings.TrimSpace(line) == "" {
		return
	}
	w.tail.add(line)
	if w.progress != nil {
		w.progress <- Progress{Line: line, Stderr: w.stderr}
	}
}

type tail struct {
	mu  sync.Mutex
	buf []string
	max int
}

func (t *tail) add(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
}

func (t *tail) lines() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.buf...)
}
