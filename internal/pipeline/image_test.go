// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"bytes"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// writeImage encodes a small 4x3 grey image with enc into dir/name.
func writeImage(t *testing.T, dir, name string, enc func(io.Writer, image.Image) error) string {
	t.Helper()
	m := image.NewGray(image.Rect(0, 0, 4, 3))
	for i := range m.Pix {
		m.Pix[i] = uint8(i * 20)
	}
	var buf bytes.Buffer
	require.NoError(t, enc(&buf, m))
	return writeFile(t, dir, name, buf.Bytes())
}

func TestInspectImage(t *testing.T) {
	tests := []struct {
		name  string
		codec string
		enc   func(io.Writer, image.Image) error
	}{
		{"scan.png", "png", png.Encode},
		{"scan.gif", "gif", func(w io.Writer, m image.Image) error { return gif.Encode(w, m, nil) }},
		{"scan.bmp", "bmp", bmp.Encode},
		{"scan.tiff", "tiff", func(w io.Writer, m image.Image) error { return tiff.Encode(w, m, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.codec, func(t *testing.T) {
			path := writeImage(t, t.TempDir(), tt.name, tt.enc)
			info, err := InspectImage(path)
			require.NoError(t, err)
			assert.Equal(t, ImageInfo{Codec: tt.codec, Width: 4, Height: 3}, info)
		})
	}
}

func TestInspectImage_Corrupt(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"garbage.png", "truncated.jpg", "empty.webp"} {
		var data []byte
		switch name {
		case "garbage.png":
			data = []byte("this is not a png")
		case "truncated.jpg":
			data = []byte{0xFF, 0xD8, 0xFF}
		}
		path := writeFile(t, dir, name, data)

		_, err := InspectImage(path)
		var de *DocumentOpenError
		require.True(t, errors.As(err, &de), name)
		assert.Equal(t, path, de.Path)
		assert.True(t, IsFatal(err), name)
	}
}

func TestInspectImage_Missing(t *testing.T) {
	_, err := InspectImage("/nonexistent/scan.png")
	var de *DocumentOpenError
	assert.True(t, errors.As(err, &de))
}
