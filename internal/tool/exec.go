// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool runs the external binaries (ffmpeg, ffprobe, pdftoppm,
// whisper-cli) behind a small executor seam so callers can be tested
// without them installed.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// stderrTail caps how much of a failing command's stderr ends up in the
// returned error.
const stderrTail = 2 << 10

// waitDelay bounds how long a cancelled command may hold its output pipes.
const waitDelay = 2 * time.Second

// Executor abstracts command execution.
type Executor interface {
	LookPath(file string) (string, error)

	// Run executes name with args and returns its stdout. A non-zero exit
	// returns a *RunError carrying the tail of stderr.
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// RunError reports a command that could not start or exited non-zero.
type RunError struct {
	Name   string
	Stderr string
	Err    error
}

func (e *RunError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("running %s: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("running %s: %v: %s", e.Name, e.Err, e.Stderr)
}

func (e *RunError) Unwrap() error { return e.Err }

// osExecutor is the production executor backed by os/exec.
type osExecutor struct {
	log zerolog.Logger
}

// NewExecutor returns an executor that runs real processes and logs each
// invocation at debug level.
func NewExecutor(log zerolog.Logger) Executor {
	return &osExecutor{log: log}
}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	var out, errb bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errb
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	ev := o.log.Debug()
	if err != nil {
		ev = o.log.Warn().Err(err)
	}
	ev.Str("cmd", name).
		Str("args", strings.Join(args, " ")).
		Dur("elapsed", time.Since(start)).
		Int("stdout_bytes", out.Len()).
		Msg("exec")

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = fmt.Errorf("%w: %w", ctxErr, err)
		}
		return out.Bytes(), &RunError{Name: name, Stderr: tail(errb.String(), stderrTail), Err: err}
	}
	return out.Bytes(), nil
}

func tail(s string, max int) string {
	s = strings.TrimSpace(s)
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
