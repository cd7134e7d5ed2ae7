// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdf opens PDF files with pdfcpu and extracts the native text
// layer page by page, decoding composite fonts through their ToUnicode maps.
package pdf

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/pdiddy/docpipe/internal/pipeline"
)

// Reader implements pipeline.PDFOpener.
type Reader struct{}

// NewReader returns a pdfcpu-backed reader.
func NewReader() *Reader { return &Reader{} }

// Open reads and validates the whole document. Any parse failure,
// including encryption without a password, is a *pipeline.DocumentOpenError.
func (r *Reader) Open(path string) (pipeline.PDFDocument, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &pipeline.DocumentOpenError{Path: path, Err: err}
	}
	defer f.Close()

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, &pipeline.DocumentOpenError{Path: path, Err: fmt.Errorf("pdfcpu read: %w", err)}
	}
	return &Document{ctx: ctx}, nil
}

// Document is an opened PDF held in memory.
type Document struct {
	ctx *model.Context
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int { return d.ctx.PageCount }

// PageText returns the native text of the zero-based page. A page without
// a content stream has no text.
func (d *Document) PageText(page int) (string, error) {
	if page < 0 || page >= d.ctx.PageCount {
		return "", fmt.Errorf("page %d out of range (document has %d)", page, d.ctx.PageCount)
	}
	r, err := pdfcpu.ExtractPageContent(d.ctx, page+1)
	if err != nil {
		return "", fmt.Errorf("reading content of page %d: %w", page, err)
	}
	if r == nil {
		return "", nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading content of page %d: %w", page, err)
	}
	return ExtractText(data, d.fonts(page+1)), nil
}

// fonts resolves the font resources of pageNr. Fonts whose dictionaries
// cannot be read are left out and decode as WinAnsi.
func (d *Document) fonts(pageNr int) map[string]*Font {
	_, _, attrs, err := d.ctx.PageDict(pageNr, false)
	if err != nil || attrs == nil || attrs.Resources == nil {
		return nil
	}
	obj, ok := attrs.Resources.Find("Font")
	if !ok {
		return nil
	}
	dict, err := d.ctx.DereferenceDict(obj)
	if err != nil || dict == nil {
		return nil
	}

	fonts := make(map[string]*Font, len(dict))
	for name, ref := range dict {
		fd, err := d.ctx.DereferenceDict(ref)
		if err != nil || fd == nil {
			continue
		}
		f := &Font{}
		if st := fd.Subtype(); st != nil && *st == "Type0" {
			f.Composite = true
		}
		if tu, ok := fd.Find("ToUnicode"); ok {
			f.ToUnicode = d.cmap(tu)
		}
		fonts[name] = f
	}
	return fonts
}

func (d *Document) cmap(obj types.Object) *CMap {
	sd, _, err := d.ctx.DereferenceStreamDict(obj)
	if err != nil || sd == nil {
		return nil
	}
	if err := sd.Decode(); err != nil {
		return nil
	}
	c := ParseCMap(sd.Content)
	if c.Len() == 0 {
		return nil
	}
	return c
}

// Close releases the document. pdfcpu holds everything in memory, so
// there is nothing to free beyond the reference.
func (d *Document) Close() error {
	d.ctx = nil
	return nil
}
