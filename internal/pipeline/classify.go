// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/docpipe/pkg/types"
)

// sniffLen is the header sample read for content sniffing.
const sniffLen = 512

var extFormats = map[string]types.Format{
	".pdf": types.FormatPDF,

	".png": types.FormatImage, ".jpg": types.FormatImage, ".jpeg": types.FormatImage,
	".tif": types.FormatImage, ".tiff": types.FormatImage, ".bmp": types.FormatImage,
	".gif": types.FormatImage, ".webp": types.FormatImage,

	".mp3": types.FormatAudio, ".wav": types.FormatAudio, ".m4a": types.FormatAudio,
	".flac": types.FormatAudio, ".ogg": types.FormatAudio, ".aac": types.FormatAudio,
	".opus": types.FormatAudio,

	".mp4": types.FormatVideo, ".avi": types.FormatVideo, ".mkv": types.FormatVideo,
	".mov": types.FormatVideo, ".webm": types.FormatVideo,
}

// SupportedExtensions returns the recognised extensions in sorted order.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extFormats))
	for ext := range extFormats {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// FormatForExtension maps a file extension (with dot, any case) to a format.
func FormatForExtension(ext string) types.Format {
	if f, ok := extFormats[strings.ToLower(ext)]; ok {
		return f
	}
	return types.FormatUnknown
}

// Classify assigns a format to path. The extension decides when it is known;
// otherwise the first 512 bytes are sniffed. Files that neither identifies
// return an *UnsupportedFormatError.
func Classify(path string) (types.Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if f := FormatForExtension(ext); f != types.FormatUnknown {
		return f, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return types.FormatUnknown, fmt.Errorf("opening %s for sniffing: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, sniffLen)
	n, err := io.ReadFull(f, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return types.FormatUnknown, fmt.Errorf("reading %s: %w", path, err)
	}
	header = header[:n]

	format, mime := sniff(header)
	if format == types.FormatUnknown {
		return format, &UnsupportedFormatError{Path: path, Extension: ext, MIME: mime}
	}
	return format, nil
}

// sniff identifies a format from a header sample. It returns the detected
// MIME type alongside for error reporting.
func sniff(header []byte) (types.Format, string) {
	if f := magic(header); f != types.FormatUnknown {
		return f, string(f)
	}

	mime := http.DetectContentType(header)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	switch {
	case mime == "application/pdf":
		return types.FormatPDF, mime
	case mime == "application/ogg":
		return types.FormatAudio, mime
	case strings.HasPrefix(mime, "audio/"):
		return types.FormatAudio, mime
	case strings.HasPrefix(mime, "video/"):
		return types.FormatVideo, mime
	case strings.HasPrefix(mime, "image/"):
		return types.FormatImage, mime
	}
	return types.FormatUnknown, mime
}

// magic covers containers that http.DetectContentType does not resolve.
func magic(h []byte) types.Format {
	switch {
	case bytes.HasPrefix(h, []byte("fLaC")):
		return types.FormatAudio
	case bytes.HasPrefix(h, []byte("II*\x00")), bytes.HasPrefix(h, []byte("MM\x00*")):
		return types.FormatImage
	case bytes.HasPrefix(h, []byte{0x1a, 0x45, 0xdf, 0xa3}):
		// Matroska and WebM share the EBML header.
		return types.FormatVideo
	case len(h) >= 12 && string(h[4:8]) == "ftyp":
		switch string(h[8:11]) {
		case "M4A", "M4B":
			return types.FormatAudio
		}
		return types.FormatVideo
	}
	return types.FormatUnknown
}
