// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ImageInfo is the header of an image accepted for OCR.
type ImageInfo struct {
	Codec  string
	Width  int
	Height int
}

// InspectImage parses the image header at path without decoding pixels.
// Files no registered codec accepts, or with an empty canvas, return a
// *DocumentOpenError.
func InspectImage(path string) (ImageInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return ImageInfo{}, &DocumentOpenError{Path: path, Err: err}
	}
	defer f.Close()

	cfg, codec, err := image.DecodeConfig(f)
	if err != nil {
		return ImageInfo{}, &DocumentOpenError{Path: path, Err: fmt.Errorf("reading image header: %w", err)}
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return ImageInfo{}, &DocumentOpenError{Path: path, Err: fmt.Errorf("%s image has no pixels (%dx%d)", codec, cfg.Width, cfg.Height)}
	}
	return ImageInfo{Codec: codec, Width: cfg.Width, Height: cfg.Height}, nil
}
