// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert drives the router over single files and directories,
// writing Markdown with YAML frontmatter, recording each run in the ledger
// and building the batch report.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/docpipe/internal/ledger"
	"github.com/pdiddy/docpipe/internal/report"
	"github.com/pdiddy/docpipe/pkg/types"
)

// Processor converts one file. *pipeline.Router implements it.
type Processor interface {
	Process(ctx context.Context, path string) (*types.Outcome, error)
}

// Ledger is the subset of *ledger.Store the converter uses.
type Ledger interface {
	Succeeded(ctx context.Context, hash string) (bool, error)
	Record(ctx context.Context, e ledger.Entry) error
}

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Skipped   int
	Failed    int
	Report    *report.Batch
}

// Total returns the total number of files seen.
func (r BatchResult) Total() int {
	return r.Converted + r.Skipped + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// Converter writes router output to an output directory.
type Converter struct {
	p      Processor
	ledger Ledger
	outDir string
	force  bool
	log    zerolog.Logger
	now    func() time.Time
}

// Option configures a Converter.
type Option func(*Converter)

// WithLedger records runs in l and lets batches skip content that already
// converted.
func WithLedger(l Ledger) Option {
	return func(c *Converter) { c.ledger = l }
}

// WithForce disables ledger-based skipping.
func WithForce(force bool) Option {
	return func(c *Converter) { c.force = force }
}

// WithLogger sets the structured logger.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Converter) { c.log = l }
}

// New creates a Converter writing into outDir.
func New(p Processor, outDir string, opts ...Option) *Converter {
	c := &Converter{p: p, outDir: outDir, log: zerolog.Nop(), now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// MarkdownPath returns where the Markdown for src is written.
func (c *Converter) MarkdownPath(src string) string {
	return filepath.Join(c.outDir, stem(src)+".md")
}

// ConvertFile processes one file and prints a status line to w. Single files
// are always processed; only batches consult the ledger for skips.
func (c *Converter) ConvertFile(ctx context.Context, path string, w io.Writer) report.FileResult {
	hash, err := ledger.FileHash(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", filepath.Base(path), err)
		return report.FileResult{File: filepath.Base(path), Type: types.FormatUnknown, Status: report.StatusFailed, Error: err.Error()}
	}
	return c.convert(ctx, path, hash, w)
}

func (c *Converter) convert(ctx context.Context, path, hash string, w io.Writer) report.FileResult {
	name := filepath.Base(path)
	res := report.FileResult{File: name, Type: types.FormatUnknown}

	failed := func(err error) report.FileResult {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		res.Status = report.StatusFailed
		res.Error = err.Error()
		return res
	}

	out, err := c.p.Process(ctx, path)
	if out != nil {
		res.Type = out.Format
		res.Strategy = out.Strategy
		res.RunID = out.RunID
		res.Duration = out.Duration.Seconds()
	}
	if err != nil {
		c.record(ctx, out, hash, "")
		return failed(err)
	}

	mdPath := c.MarkdownPath(path)
	if err := os.MkdirAll(c.outDir, 0o755); err != nil {
		return failed(err)
	}
	content, err := addFrontmatter(out, c.now())
	if err != nil {
		return failed(err)
	}
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return failed(err)
	}
	c.record(ctx, out, hash, mdPath)

	res.Status = report.StatusConverted
	res.Partial = out.Partial
	res.TextLength = len([]rune(out.Markdown))
	res.Output = mdPath
	if out.Partial {
		fmt.Fprintf(w, "converted: %s (partial, %d of %d units missing)\n", name, len(out.Failures), out.Units)
	} else {
		fmt.Fprintf(w, "converted: %s\n", name)
	}
	return res
}

func (c *Converter) record(ctx context.Context, out *types.Outcome, hash, mdPath string) {
	if c.ledger == nil || out == nil {
		return
	}
	if err := c.ledger.Record(ctx, ledger.EntryFromOutcome(out, hash, mdPath, c.now())); err != nil {
		c.log.Warn().Err(err).Str("run_id", out.RunID).Msg("ledger record failed")
	}
}

// ConvertBatch processes files in order, printing per-file status to w and
// returning a summary. Files whose content already converted successfully
// are skipped unless forced. A cancelled context stops the batch before the
// next file.
func (c *Converter) ConvertBatch(ctx context.Context, files []string, inputDir string, w io.Writer) BatchResult {
	result := BatchResult{Report: report.New(inputDir, c.outDir, c.now())}
	for _, path := range files {
		if ctx.Err() != nil {
			c.log.Warn().Err(ctx.Err()).Msg("batch interrupted")
			break
		}
		res := c.batchFile(ctx, path, w)
		result.Report.Add(res)
		switch res.Status {
		case report.StatusConverted:
			result.Converted++
		case report.StatusSkipped:
			result.Skipped++
		case report.StatusFailed:
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d skipped, %d failed (total: %d)\n",
		result.Converted, result.Skipped, result.Failed, result.Total())
	return result
}

func (c *Converter) batchFile(ctx context.Context, path string, w io.Writer) report.FileResult {
	name := filepath.Base(path)
	hash, err := ledger.FileHash(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return report.FileResult{File: name, Type: types.FormatUnknown, Status: report.StatusFailed, Error: err.Error()}
	}
	if c.ledger != nil && !c.force {
		done, err := c.ledger.Succeeded(ctx, hash)
		if err != nil {
			c.log.Warn().Err(err).Str("file", name).Msg("ledger lookup failed")
		}
		if done {
			fmt.Fprintf(w, "skipped: %s (already converted)\n", name)
			return report.FileResult{File: name, Type: formatOf(path), Status: report.StatusSkipped}
		}
	}
	return c.convert(ctx, path, hash, w)
}

type frontmatter struct {
	Source      string         `yaml:"source"`
	Format      types.Format   `yaml:"format"`
	Strategy    types.Strategy `yaml:"strategy"`
	RunID       string         `yaml:"run_id"`
	ConvertedAt string         `yaml:"converted_at"`
	Partial     bool           `yaml:"partial"`
}

// addFrontmatter prepends YAML frontmatter to the converted Markdown content.
func addFrontmatter(out *types.Outcome, at time.Time) (string, error) {
	fm, err := yaml.Marshal(frontmatter{
		Source:      out.Path,
		Format:      out.Format,
		Strategy:    out.Strategy,
		RunID:       out.RunID,
		ConvertedAt: at.UTC().Format(time.RFC3339),
		Partial:     out.Partial,
	})
	if err != nil {
		return "", fmt.Errorf("marshaling frontmatter: %w", err)
	}
	var b strings.Builder
	b.WriteString("---\n")
	b.Write(fm)
	b.WriteString("---\n\n")
	b.WriteString(out.Markdown)
	if !strings.HasSuffix(out.Markdown, "\n") {
		b.WriteByte('\n')
	}
	return b.String(), nil
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
