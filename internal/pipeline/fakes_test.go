// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// fakeDoc is an in-memory PDFDocument.
type fakeDoc struct {
	pages   []string
	textErr map[int]error
	closed  bool
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) PageText(page int) (string, error) {
	if err := d.textErr[page]; err != nil {
		return "", err
	}
	return d.pages[page], nil
}

func (d *fakeDoc) Close() error {
	d.closed = true
	return nil
}

type fakeOpener struct {
	doc *fakeDoc
	err error
}

func (o *fakeOpener) Open(path string) (PDFDocument, error) {
	if o.err != nil {
		return nil, o.err
	}
	return o.doc, nil
}

// fakeRenderer writes the page index into a stand-in PNG.
type fakeRenderer struct{}

func (fakeRenderer) RenderPage(ctx context.Context, pdfPath string, page, dpi int, dir string) (string, error) {
	out := filepath.Join(dir, fmt.Sprintf("page-%d.png", page))
	if err := os.WriteFile(out, []byte(strconv.Itoa(page)), 0o644); err != nil {
		return "", err
	}
	return out, nil
}

// fakeOCR reads whatever the renderer wrote and hands it to fn.
type fakeOCR struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(content string, call int) (string, error)
}

func (o *fakeOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", err
	}
	content := string(data)
	o.mu.Lock()
	if o.calls == nil {
		o.calls = map[string]int{}
	}
	o.calls[content]++
	n := o.calls[content]
	o.mu.Unlock()
	return o.fn(content, n)
}

func (o *fakeOCR) total() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	var n int
	for _, c := range o.calls {
		n += c
	}
	return n
}

// fakeCutter writes the segment start in whole seconds into dst.
type fakeCutter struct {
	mu   sync.Mutex
	cuts int
}

func (c *fakeCutter) Cut(ctx context.Context, src string, start, dur time.Duration, dst string) error {
	c.mu.Lock()
	c.cuts++
	c.mu.Unlock()
	return os.WriteFile(dst, []byte(strconv.Itoa(int(start/time.Second))), 0o644)
}

// fakeASR hands the audio file's content to fn and counts calls per
// content.
type fakeASR struct {
	mu    sync.Mutex
	calls map[string]int
	fn    func(content string, call int) (string, error)
}

func (a *fakeASR) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", err
	}
	content := strings.TrimSpace(string(data))
	if len(content) > 16 {
		content = content[:16]
	}
	a.mu.Lock()
	if a.calls == nil {
		a.calls = map[string]int{}
	}
	a.calls[content]++
	n := a.calls[content]
	a.mu.Unlock()
	return a.fn(content, n)
}

func (a *fakeASR) count(content string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls[content]
}

type fakeProber struct {
	d   time.Duration
	err error
}

func (p fakeProber) Duration(ctx context.Context, path string) (time.Duration, error) {
	return p.d, p.err
}

// fakeExtractor writes a derived track of the given size.
type fakeExtractor struct {
	size  int
	calls int
}

func (e *fakeExtractor) ExtractAudio(ctx context.Context, videoPath, dir string) (string, error) {
	e.calls++
	out := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(out, make([]byte, e.size), 0o644); err != nil {
		return "", err
	}
	return out, nil
}
