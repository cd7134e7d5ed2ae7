// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/docpipe/internal/retry"
	"github.com/pdiddy/docpipe/pkg/types"
)

// Plan is the execution shape selected for one file. The concrete variants
// are pdfPlan, directPlan, chunkedPlan and imagePlan; a plan is built once
// per file and never changes strategy.
type Plan interface {
	Strategy() types.Strategy

	// Units is the number of retryable units the plan executes.
	Units() int

	// execute runs every unit and returns results indexed by unit. A non-nil
	// error aborts the file.
	execute(ctx context.Context, x *execution) ([]types.ExtractionResult, error)

	// assemble renders results in index order.
	assemble(results []types.ExtractionResult) string
}

// execution is the per-file state shared by a plan's units.
type execution struct {
	path    string
	dir     string
	cfg     types.PipelineConfig
	b       Backends
	policy  retry.Policy
	workers int
}

// pdfPlan extracts every page, choosing text or OCR per page.
type pdfPlan struct {
	strategy types.Strategy
	doc      PDFDocument
	pages    []types.PageAssessment

	mu sync.Mutex // guards doc
}

func (p *pdfPlan) Strategy() types.Strategy { return p.strategy }
func (p *pdfPlan) Units() int               { return len(p.pages) }

func (p *pdfPlan) execute(ctx context.Context, x *execution) ([]types.ExtractionResult, error) {
	results := make([]types.ExtractionResult, len(p.pages))
	if len(p.pages) == 0 {
		return results, nil
	}

	// A failed page fails the file. Pages already running finish their own
	// retry budget; pages not yet started are skipped.
	var (
		g      errgroup.Group
		failed atomic.Bool
	)
	g.SetLimit(x.workers)
	for _, page := range p.pages {
		unit := types.Unit{Kind: types.UnitPage, Index: page.Index}
		g.Go(func() error {
			if failed.Load() {
				results[page.Index] = types.ExtractionResult{Unit: unit}
				return nil
			}
			res := retry.Execute(ctx, unit, x.policy, func(ctx context.Context, _ types.Unit, _ int) (string, error) {
				if page.Decision == types.DecisionText {
					return p.pageText(page.Index)
				}
				return ocrPage(ctx, x, page.Index)
			})
			results[page.Index] = res
			if !res.OK {
				failed.Store(true)
				return unitError(res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func (p *pdfPlan) pageText(page int) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc.PageText(page)
}

func ocrPage(ctx context.Context, x *execution, page int) (string, error) {
	if x.b.Renderer == nil || x.b.OCR == nil {
		return "", errors.New("page OCR needs a page renderer and an OCR backend")
	}
	img, err := x.b.Renderer.RenderPage(ctx, x.path, page, x.cfg.OCRDPI, x.dir)
	if err != nil {
		return "", fmt.Errorf("rendering page %d: %w", page, err)
	}
	defer os.Remove(img)
	return x.b.OCR.Recognize(ctx, img)
}

func (p *pdfPlan) assemble(results []types.ExtractionResult) string {
	parts := make([]string, 0, len(results))
	for _, r := range results {
		if t := strings.TrimSpace(r.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}

// directPlan transcribes a whole audio stream as one unit.
type directPlan struct {
	strategy types.Strategy
	audio    string
}

func (p *directPlan) Strategy() types.Strategy { return p.strategy }
func (p *directPlan) Units() int               { return 1 }

func (p *directPlan) execute(ctx context.Context, x *execution) ([]types.ExtractionResult, error) {
	if x.b.ASR == nil {
		return nil, errors.New("no speech recognition backend configured")
	}
	unit := types.Unit{Kind: types.UnitFile}
	res := retry.Execute(ctx, unit, x.policy, func(ctx context.Context, _ types.Unit, _ int) (string, error) {
		return x.b.ASR.Transcribe(ctx, p.audio)
	})
	results := []types.ExtractionResult{res}
	if !res.OK {
		return results, unitError(res)
	}
	return results, nil
}

func (p *directPlan) assemble(results []types.ExtractionResult) string {
	return strings.TrimSpace(results[0].Text)
}

// imagePlan OCRs a single image as one unit.
type imagePlan struct{}

func (imagePlan) Strategy() types.Strategy { return types.StrategyImageOCR }
func (imagePlan) Units() int               { return 1 }

func (imagePlan) execute(ctx context.Context, x *execution) ([]types.ExtractionResult, error) {
	if x.b.OCR == nil {
		return nil, errors.New("no OCR backend configured")
	}
	unit := types.Unit{Kind: types.UnitFile}
	res := retry.Execute(ctx, unit, x.policy, func(ctx context.Context, _ types.Unit, _ int) (string, error) {
		return x.b.OCR.Recognize(ctx, x.path)
	})
	results := []types.ExtractionResult{res}
	if !res.OK {
		return results, unitError(res)
	}
	return results, nil
}

func (imagePlan) assemble(results []types.ExtractionResult) string {
	return strings.TrimSpace(results[0].Text)
}

// chunkedPlan transcribes fixed-duration segments independently. Failed
// segments become gaps instead of failing the file.
type chunkedPlan struct {
	strategy types.Strategy
	audio    string
	total    time.Duration
	chunk    time.Duration
	segments []types.Segment
}

func (p *chunkedPlan) Strategy() types.Strategy { return p.strategy }
func (p *chunkedPlan) Units() int               { return len(p.segments) }

func (p *chunkedPlan) execute(ctx context.Context, x *execution) ([]types.ExtractionResult, error) {
	if x.b.ASR == nil {
		return nil, errors.New("no speech recognition backend configured")
	}
	chunker := &Chunker{Cutter: x.b.Cutter, Dir: filepath.Join(x.dir, "segments")}
	if err := os.MkdirAll(chunker.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating segment dir: %w", err)
	}

	results := make([]types.ExtractionResult, len(p.segments))

	// Units never return an error to the group, so one failed segment
	// leaves its siblings running.
	var g errgroup.Group
	g.SetLimit(x.workers)
	for seg := range Split(p.total, p.chunk) {
		g.Go(func() error {
			results[seg.Index] = p.transcribe(ctx, x, chunker, seg)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

// transcribe cuts seg on first use, retries recognition against the same
// file and releases it once the result is known.
func (p *chunkedPlan) transcribe(ctx context.Context, x *execution, ch *Chunker, seg types.Segment) types.ExtractionResult {
	var file *SegmentFile
	defer func() {
		if file == nil {
			return
		}
		if err := file.Release(); err != nil {
			x.policy.Logger.Warn().Err(err).Int("segment", seg.Index).Msg("segment cleanup failed")
		}
	}()

	unit := types.Unit{Kind: types.UnitSegment, Index: seg.Index}
	return retry.Execute(ctx, unit, x.policy, func(ctx context.Context, _ types.Unit, _ int) (string, error) {
		if file == nil {
			f, err := ch.Materialize(ctx, p.audio, seg)
			if err != nil {
				return "", err
			}
			file = &f
		}
		return x.b.ASR.Transcribe(ctx, file.Path)
	})
}

func (p *chunkedPlan) assemble(results []types.ExtractionResult) string {
	var b strings.Builder
	for i, r := range results {
		if i > 0 {
			b.WriteString("\n\n")
		}
		seg := p.segments[i]
		if !r.OK {
			b.WriteString(GapMarker(seg))
			continue
		}
		fmt.Fprintf(&b, "[%s] %s", Timestamp(seg.Start), strings.TrimSpace(r.Text))
	}
	return b.String()
}

// GapMarker renders the placeholder for a segment that produced no text.
func GapMarker(seg types.Segment) string {
	return fmt.Sprintf("> [gap: segment %d, %s-%s]", seg.Index, Timestamp(seg.Start), Timestamp(seg.End()))
}

// Timestamp formats d as HH:MM:SS, truncating fractions of a second.
func Timestamp(d time.Duration) string {
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", s/3600, s/60%60, s%60)
}
