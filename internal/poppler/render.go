// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package poppler rasterises PDF pages with pdftoppm so they can be OCR'd.
package poppler

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/pdiddy/docpipe/internal/tool"
)

const defaultPdftoppm = "pdftoppm"

// Renderer implements pipeline.PageRenderer.
type Renderer struct {
	exec tool.Executor
	bin  string
}

// NewRenderer returns a renderer that runs bin, or pdftoppm when bin is
// empty.
func NewRenderer(e tool.Executor, bin string) *Renderer {
	if bin == "" {
		bin = defaultPdftoppm
	}
	return &Renderer{exec: e, bin: bin}
}

// Requirement names the binary the renderer needs.
func (r *Renderer) Requirement() tool.Requirement {
	return tool.Requirement{Name: r.bin, Required: true}
}

// RenderPage writes the zero-based page of pdfPath as a PNG at dpi into dir.
func (r *Renderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, dir string) (string, error) {
	if page < 0 {
		return "", fmt.Errorf("invalid page index %d", page)
	}
	n := strconv.Itoa(page + 1)
	prefix := filepath.Join(dir, fmt.Sprintf("page-%04d", page+1))
	args := []string{
		"-f", n, "-l", n,
		"-r", strconv.Itoa(dpi),
		"-png", "-singlefile",
		pdfPath, prefix,
	}
	if _, err := r.exec.Run(ctx, r.bin, args...); err != nil {
		return "", fmt.Errorf("rendering page %s of %s: %w", n, pdfPath, err)
	}
	return prefix + ".png", nil
}
