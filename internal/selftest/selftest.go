// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package selftest runs the whole pipeline against the smallest sample of
// each input kind in a directory, re-running a kind until it succeeds or
// the run budget is spent.
package selftest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/internal/convert"
	"github.com/pdiddy/docpipe/internal/report"
	"github.com/pdiddy/docpipe/pkg/types"
)

// DefaultWait is the pause between runs of the same kind.
const DefaultWait = 2 * time.Second

// ErrNoSamples is returned when the directory holds no supported file.
var ErrNoSamples = errors.New("no sample files found")

// Kind groups formats the way the self-test reports them.
type Kind string

const (
	KindPDF   Kind = "pdf"
	KindMedia Kind = "audio_video"
	KindImage Kind = "image"
)

// Kinds is the order kinds are tested in.
var Kinds = []Kind{KindPDF, KindMedia, KindImage}

func kindOf(f types.Format) (Kind, bool) {
	switch f {
	case types.FormatPDF:
		return KindPDF, true
	case types.FormatAudio, types.FormatVideo:
		return KindMedia, true
	case types.FormatImage:
		return KindImage, true
	}
	return "", false
}

// FileConverter converts one file. *convert.Converter implements it.
type FileConverter interface {
	ConvertFile(ctx context.Context, path string, w io.Writer) report.FileResult
}

// Result is the verdict for one kind.
type Result struct {
	Kind     Kind   `json:"kind" yaml:"kind"`
	File     string `json:"file,omitempty" yaml:"file,omitempty"`
	Size     int64  `json:"size,omitempty" yaml:"size,omitempty"`
	Attempts int    `json:"attempts" yaml:"attempts"`
	Passed   bool   `json:"passed" yaml:"passed"`
	Skipped  bool   `json:"skipped" yaml:"skipped"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Driver runs the self-test.
type Driver struct {
	conv    FileConverter
	maxRuns int
	wait    time.Duration
	log     zerolog.Logger
}

// New creates a driver making at most maxRuns attempts per kind and pausing
// wait between them. A non-positive maxRuns uses the pipeline default and a
// negative wait uses DefaultWait.
func New(conv FileConverter, maxRuns int, wait time.Duration, log zerolog.Logger) *Driver {
	if maxRuns <= 0 {
		maxRuns = types.DefaultMaxTotalRetries
	}
	if wait < 0 {
		wait = DefaultWait
	}
	return &Driver{conv: conv, maxRuns: maxRuns, wait: wait, log: log}
}

// Pick returns the smallest supported file of each kind in dir.
func Pick(dir string) (map[Kind]convert.Candidate, error) {
	found, err := convert.Scan(dir)
	if err != nil {
		return nil, err
	}
	picked := make(map[Kind]convert.Candidate)
	for _, c := range found {
		k, ok := kindOf(c.Format)
		if !ok {
			continue
		}
		if cur, seen := picked[k]; !seen || c.Size < cur.Size {
			picked[k] = c
		}
	}
	return picked, nil
}

// Run tests every kind present in dir and prints progress to w. Kinds with
// no sample are reported as skipped and count as passing.
func (d *Driver) Run(ctx context.Context, dir string, w io.Writer) ([]Result, error) {
	picked, err := Pick(dir)
	if err != nil {
		return nil, err
	}
	if len(picked) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoSamples, dir)
	}

	results := make([]Result, 0, len(Kinds))
	for _, k := range Kinds {
		c, ok := picked[k]
		if !ok {
			fmt.Fprintf(w, "skipped: %s (no sample)\n", k)
			results = append(results, Result{Kind: k, Skipped: true, Passed: true})
			continue
		}
		res := d.runKind(ctx, k, c, w)
		results = append(results, res)
		if ctx.Err() != nil {
			return results, ctx.Err()
		}
	}

	fmt.Fprintln(w, "\nSelf-test results:")
	for _, r := range results {
		verdict := "PASS"
		switch {
		case r.Skipped:
			verdict = "SKIP"
		case !r.Passed:
			verdict = "FAIL"
		}
		fmt.Fprintf(w, "  %-12s [%s]\n", r.Kind, verdict)
	}
	return results, nil
}

func (d *Driver) runKind(ctx context.Context, k Kind, c convert.Candidate, w io.Writer) Result {
	res := Result{Kind: k, File: filepath.Base(c.Path), Size: c.Size}
	log := d.log.With().Str("kind", string(k)).Str("file", res.File).Logger()

	for attempt := 1; attempt <= d.maxRuns; attempt++ {
		res.Attempts = attempt
		fmt.Fprintf(w, ">>> %s: %s (run %d/%d)\n", k, res.File, attempt, d.maxRuns)
		fr := d.conv.ConvertFile(ctx, c.Path, w)
		if fr.Status == report.StatusConverted {
			res.Passed = true
			res.Error = ""
			log.Info().Int("runs", attempt).Msg("self-test passed")
			return res
		}
		res.Error = fr.Error
		log.Warn().Int("run", attempt).Str("error", fr.Error).Msg("self-test run failed")

		if attempt == d.maxRuns {
			break
		}
		if err := sleep(ctx, d.wait); err != nil {
			res.Error = err.Error()
			return res
		}
	}
	log.Error().Int("runs", res.Attempts).Msg("self-test exhausted its runs")
	return res
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
