// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline routes input files to an extraction strategy, splits
// oversized media into segments and reassembles per-unit results into
// Markdown. Extraction engines are supplied through the Backends contracts.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/internal/retry"
	"github.com/pdiddy/docpipe/pkg/types"
)

// Router processes one file at a time through the state machine
// classifying, strategy_selected, executing, assembling, then done or
// failed. A Router holds no per-file state and is safe for concurrent use.
type Router struct {
	cfg      types.PipelineConfig
	b        Backends
	log      zerolog.Logger
	tempRoot string
}

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the structured logger. The default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Router) { r.log = l }
}

// WithTempRoot sets the parent of per-file temporary directories. The
// default is the system temp dir.
func WithTempRoot(dir string) Option {
	return func(r *Router) { r.tempRoot = dir }
}

// NewRouter creates a router. Zero-valued config fields take their
// defaults, so types.PipelineConfig{} retries each unit three times; set
// MaxRetries to types.NoRetries for a single attempt.
func NewRouter(cfg types.PipelineConfig, b Backends, opts ...Option) *Router {
	r := &Router{cfg: cfg.WithDefaults(), b: b, log: zerolog.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config returns the effective pipeline configuration.
func (r *Router) Config() types.PipelineConfig { return r.cfg }

// Process converts the file at path. On success the returned Outcome holds
// the assembled Markdown, possibly with gap markers when Partial is set. On
// failure both the Outcome (state failed, no Markdown) and the error are
// returned; fatal causes match *UnsupportedFormatError or
// *DocumentOpenError with errors.As.
func (r *Router) Process(ctx context.Context, path string) (*types.Outcome, error) {
	start := time.Now()
	out := &types.Outcome{
		RunID:  uuid.NewString(),
		Path:   path,
		Format: types.FormatUnknown,
	}
	log := r.log.With().Str("run_id", out.RunID).Str("file", filepath.Base(path)).Logger()

	fail := func(err error) (*types.Outcome, error) {
		out.State = types.StateFailed
		out.Success = false
		out.Partial = false
		out.Markdown = ""
		out.Error = err.Error()
		out.Duration = time.Since(start)
		log.Error().Err(err).Str("state", string(out.State)).Bool("fatal", IsFatal(err)).Msg("processing failed")
		return out, err
	}

	r.transition(log, out, types.StateClassifying)

	dir, err := os.MkdirTemp(r.tempRoot, "docpipe-*")
	if err != nil {
		return fail(fmt.Errorf("creating temp dir: %w", err))
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("temp cleanup failed")
			return
		}
		log.Debug().Str("dir", dir).Msg("temp storage released")
	}()

	desc, plan, err := r.plan(ctx, path, dir, log)
	out.Format = desc.Format
	if closer, ok := plan.(interface{ close() }); ok {
		defer closer.close()
	}
	if err != nil {
		return fail(err)
	}

	out.Strategy = plan.Strategy()
	out.Units = plan.Units()
	r.transition(log, out, types.StateStrategySelected)
	log.Info().
		Str("format", string(desc.Format)).
		Str("strategy", string(out.Strategy)).
		Int("units", out.Units).
		Msg("strategy selected")

	r.transition(log, out, types.StateExecuting)
	x := &execution{
		path:    path,
		dir:     dir,
		cfg:     r.cfg,
		b:       r.b,
		workers: r.cfg.Workers,
		policy: retry.Policy{
			MaxRetries: r.cfg.Retries(),
			Delay:      r.cfg.RetryDelay,
			Logger:     log,
		},
	}
	results, err := plan.execute(ctx, x)
	for _, res := range results {
		out.Attempts += res.Attempts
		if !res.OK && res.Attempts > 0 {
			out.Failures = append(out.Failures, types.UnitFailure{
				Unit:     res.Unit,
				Attempts: res.Attempts,
				Error:    errString(res.Err),
			})
		}
	}
	if err != nil {
		return fail(err)
	}
	if out.Strategy.Chunked() && len(out.Failures) == len(results) && len(results) > 0 {
		return fail(fmt.Errorf("all %d segments failed: %w", len(results), unitError(results[0])))
	}

	r.transition(log, out, types.StateAssembling)
	body := plan.assemble(results)
	out.Markdown = "# " + filepath.Base(path) + "\n\n" + body
	out.Partial = len(out.Failures) > 0
	out.Success = true
	out.Duration = time.Since(start)
	r.transition(log, out, types.StateDone)
	log.Info().
		Bool("partial", out.Partial).
		Int("failures", len(out.Failures)).
		Int("attempts", out.Attempts).
		Dur("elapsed", out.Duration).
		Msg("processing finished")
	return out, nil
}

func (r *Router) transition(log zerolog.Logger, out *types.Outcome, s types.State) {
	prev := out.State
	out.State = s
	log.Debug().Str("from", string(prev)).Str("to", string(s)).Msg("state")
}

// plan classifies path and builds its execution plan. The descriptor is
// returned even on error so the caller can report the format.
func (r *Router) plan(ctx context.Context, path, dir string, log zerolog.Logger) (types.InputDescriptor, Plan, error) {
	desc := types.InputDescriptor{Path: path, Format: types.FormatUnknown}

	info, err := os.Stat(path)
	if err != nil {
		return desc, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return desc, nil, fmt.Errorf("%s is a directory", path)
	}
	desc.Size = info.Size()

	format, err := Classify(path)
	if err != nil {
		return desc, nil, err
	}
	desc.Format = format

	switch format {
	case types.FormatPDF:
		return r.planPDF(path, desc)
	case types.FormatImage:
		img, err := InspectImage(path)
		if err != nil {
			return desc, nil, err
		}
		log.Debug().Str("codec", img.Codec).Int("width", img.Width).Int("height", img.Height).Msg("image header")
		return desc, imagePlan{}, nil
	case types.FormatAudio, types.FormatVideo:
		return r.planMedia(ctx, path, dir, desc, log)
	}
	return desc, nil, &UnsupportedFormatError{Path: path, Extension: filepath.Ext(path)}
}

func (r *Router) planPDF(path string, desc types.InputDescriptor) (types.InputDescriptor, Plan, error) {
	if r.b.PDF == nil {
		return desc, nil, errors.New("no PDF backend configured")
	}
	doc, err := r.b.PDF.Open(path)
	if err != nil {
		var do *DocumentOpenError
		if !errors.As(err, &do) {
			err = &DocumentOpenError{Path: path, Err: err}
		}
		return desc, nil, err
	}
	desc.Pages = AssessPages(doc, r.cfg.PDFTextMinChars)
	return desc, &pdfPlan{strategy: PDFStrategy(desc.Pages), doc: doc, pages: desc.Pages}, nil
}

func (p *pdfPlan) close() { _ = p.doc.Close() }

func (r *Router) planMedia(ctx context.Context, path, dir string, desc types.InputDescriptor, log zerolog.Logger) (types.InputDescriptor, Plan, error) {
	est := &Estimator{
		Threshold: r.cfg.AudioSizeThresholdBytes(),
		Audio:     r.b.Audio,
		Logger:    log,
	}
	e, err := est.Estimate(ctx, path, desc.Format, dir)
	if err != nil {
		return desc, nil, err
	}
	media := e.Media
	desc.Media = &media

	if !e.Strategy.Chunked() {
		return desc, &directPlan{strategy: e.Strategy, audio: media.AudioPath}, nil
	}

	if r.b.Prober == nil {
		return desc, nil, errors.New("chunked processing needs a media prober")
	}
	total, err := r.b.Prober.Duration(ctx, media.AudioPath)
	if err != nil {
		return desc, nil, fmt.Errorf("probing duration of %s: %w", media.AudioPath, err)
	}
	if total <= 0 {
		return desc, nil, fmt.Errorf("audio %s reports no playable duration", media.AudioPath)
	}
	desc.Media.Duration = total

	chunk := r.cfg.AudioChunkDuration
	return desc, &chunkedPlan{
		strategy: e.Strategy,
		audio:    media.AudioPath,
		total:    total,
		chunk:    chunk,
		segments: slices.Collect(Split(total, chunk)),
	}, nil
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
