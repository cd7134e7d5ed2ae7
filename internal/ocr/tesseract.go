// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ocr implements the OCR backend with tesseract through gosseract.
package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/internal/ocr/hocr"
	"github.com/pdiddy/docpipe/pkg/types"
)

// Engine implements pipeline.OCR. Each call gets its own tesseract client,
// so an Engine is safe for concurrent use.
type Engine struct {
	clientFactory func() *gosseract.Client
	languages     []string
	layout        types.OCRLayout
	dpi           int
	log           zerolog.Logger
}

// NewEngine returns a tesseract engine configured from cfg. dpi is passed
// to tesseract as a resolution hint for rendered PDF pages.
func NewEngine(cfg types.OCRConfig, dpi int, log zerolog.Logger) *Engine {
	langs := cfg.Languages
	if len(langs) == 0 {
		langs = []string{"eng"}
	}
	layout := cfg.Layout
	if layout == "" {
		layout = types.OCRLayoutPlain
	}
	return &Engine{
		clientFactory: gosseract.NewClient,
		languages:     langs,
		layout:        layout,
		dpi:           dpi,
		log:           log,
	}
}

// Version reports the linked tesseract version.
func Version() string {
	return gosseract.Version()
}

// Recognize OCRs the image at imagePath. In hocr layout mode the result is
// Markdown with one paragraph per detected text block.
func (e *Engine) Recognize(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	c := e.clientFactory()
	defer c.Close()

	if err := c.SetImage(imagePath); err != nil {
		return "", fmt.Errorf("loading image %s: %w", imagePath, err)
	}
	if err := c.SetLanguage(e.languages...); err != nil {
		return "", fmt.Errorf("setting languages %v: %w", e.languages, err)
	}
	if e.dpi > 0 {
		if err := c.SetVariable(gosseract.SettableVariable("user_defined_dpi"), fmt.Sprint(e.dpi)); err != nil {
			return "", fmt.Errorf("setting dpi: %w", err)
		}
	}

	if e.layout == types.OCRLayoutHOCR {
		out, err := c.HOCRText()
		if err != nil {
			return "", fmt.Errorf("recognizing %s: %w", imagePath, err)
		}
		return hocr.ToMarkdown(out)
	}

	text, err := c.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing %s: %w", imagePath, err)
	}
	text = strings.TrimSpace(text)
	e.log.Debug().Str("image", imagePath).Int("chars", len(text)).Msg("ocr done")
	return text, nil
}
