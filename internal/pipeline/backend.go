// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"time"
)

// PDFOpener parses PDF files for page-level text access.
type PDFOpener interface {
	// Open parses the document. Corrupt or encrypted files return an error
	// that the router reports as a DocumentOpenError.
	Open(path string) (PDFDocument, error)
}

// PDFDocument is an opened PDF. PageText is the text extraction backend
// used for pages whose native text layer is usable.
type PDFDocument interface {
	PageCount() int

	// PageText returns the native text of the zero-based page index.
	PageText(page int) (string, error)

	Close() error
}

// PageRenderer rasterises one PDF page so it can be OCR'd.
type PageRenderer interface {
	// RenderPage writes the zero-based page as a PNG under dir and returns
	// its path. The caller removes the file.
	RenderPage(ctx context.Context, pdfPath string, page, dpi int, dir string) (string, error)
}

// OCR recognises text in an image file.
type OCR interface {
	Recognize(ctx context.Context, imagePath string) (string, error)
}

// ASR transcribes an audio file.
type ASR interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// AudioExtractor derives an audio track from a video file.
type AudioExtractor interface {
	// ExtractAudio writes the audio track of videoPath under dir and returns
	// its path. The caller removes the file.
	ExtractAudio(ctx context.Context, videoPath, dir string) (string, error)
}

// MediaProber reports the playable duration of a media file.
type MediaProber interface {
	Duration(ctx context.Context, path string) (time.Duration, error)
}

// SegmentCutter materialises [start, start+dur) of src as a standalone
// audio file at dst.
type SegmentCutter interface {
	Cut(ctx context.Context, src string, start, dur time.Duration, dst string) error
}

// Backends groups the collaborators the router drives. A nil field disables
// the strategies that need it; routing to a disabled strategy fails the file.
type Backends struct {
	PDF      PDFOpener
	Renderer PageRenderer
	OCR      OCR
	ASR      ASR
	Audio    AudioExtractor
	Prober   MediaProber
	Cutter   SegmentCutter
}
