// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/internal/asr"
	"github.com/pdiddy/docpipe/internal/convert"
	"github.com/pdiddy/docpipe/internal/ffmpeg"
	"github.com/pdiddy/docpipe/internal/ledger"
	"github.com/pdiddy/docpipe/internal/ocr"
	"github.com/pdiddy/docpipe/internal/pdf"
	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/internal/poppler"
	"github.com/pdiddy/docpipe/internal/tool"
	"github.com/pdiddy/docpipe/pkg/types"
)

// newBackends assembles the production backends. A missing ASR setup is not
// an error here: PDF and image conversion still work, and media files fail
// with a clear message.
func newBackends(cfg types.Config, log zerolog.Logger) pipeline.Backends {
	exec := tool.NewExecutor(log)
	media := ffmpeg.New(exec, cfg.Tools)

	b := pipeline.Backends{
		PDF:      pdf.NewReader(),
		Renderer: poppler.NewRenderer(exec, cfg.Tools.Pdftoppm),
		OCR:      ocr.NewEngine(cfg.OCR, cfg.Pipeline.OCRDPI, log),
		Audio:    media,
		Prober:   media,
		Cutter:   media,
	}
	speech, err := asr.New(cfg.ASR, exec, log)
	if err != nil {
		log.Warn().Err(err).Msg("speech recognition unavailable; audio and video will fail")
	} else {
		b.ASR = speech
	}
	return b
}

// newConverter wires router, ledger and converter. The caller closes the
// returned store.
func newConverter(cfg types.Config, force bool, log zerolog.Logger) (*convert.Converter, *ledger.Store, error) {
	router := pipeline.NewRouter(cfg.Pipeline, newBackends(cfg, log), pipeline.WithLogger(log))
	store, err := ledger.Open(cfg.LedgerPath)
	if err != nil {
		return nil, nil, err
	}
	conv := convert.New(router, cfg.OutputDir,
		convert.WithLedger(store),
		convert.WithForce(force),
		convert.WithLogger(log),
	)
	return conv, store, nil
}
