// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docpipe/pkg/types"
)

func TestSizeStrategy_Boundary(t *testing.T) {
	const threshold = 10 << 20
	tests := []struct {
		name   string
		format types.Format
		size   int64
		want   types.Strategy
	}{
		{"audio below", types.FormatAudio, threshold - 1, types.StrategyAudioDirect},
		{"audio exactly at", types.FormatAudio, threshold, types.StrategyAudioDirect},
		{"audio one byte over", types.FormatAudio, threshold + 1, types.StrategyAudioChunked},
		{"video exactly at", types.FormatVideo, threshold, types.StrategyVideoDirect},
		{"video over", types.FormatVideo, 3 * threshold, types.StrategyVideoChunked},
		{"empty audio", types.FormatAudio, 0, types.StrategyAudioDirect},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SizeStrategy(tt.format, tt.size, threshold))
		})
	}
}

func TestEstimator_Audio(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "talk.mp3", make([]byte, 2048))

	e := &Estimator{Threshold: 1024}
	got, err := e.Estimate(context.Background(), path, types.FormatAudio, dir)
	require.NoError(t, err)
	assert.Equal(t, types.StrategyAudioChunked, got.Strategy)
	assert.Equal(t, path, got.Media.AudioPath)
	assert.Equal(t, int64(2048), got.Media.AudioSize)
	assert.InDelta(t, 2048.0/(1<<20)*0.45, got.RAMGB, 1e-9)
}

func TestEstimator_VideoUsesDerivedTrack(t *testing.T) {
	dir := t.TempDir()
	// The container is large but its audio track is small.
	path := writeFile(t, dir, "lecture.mp4", make([]byte, 8192))
	ex := &fakeExtractor{size: 100}

	e := &Estimator{Threshold: 1024, Audio: ex}
	got, err := e.Estimate(context.Background(), path, types.FormatVideo, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, ex.calls)
	assert.Equal(t, types.StrategyVideoDirect, got.Strategy)
	assert.Equal(t, filepath.Join(dir, "audio.wav"), got.Media.AudioPath)
	assert.Equal(t, int64(100), got.Media.AudioSize)
}

func TestEstimator_Errors(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	_, err := (&Estimator{Threshold: 1}).Estimate(ctx, "clip.mkv", types.FormatVideo, dir)
	assert.ErrorContains(t, err, "no audio extraction backend")

	_, err = (&Estimator{Threshold: 1}).Estimate(ctx, "doc.pdf", types.FormatPDF, dir)
	assert.ErrorContains(t, err, "does not apply")

	_, err = (&Estimator{Threshold: 1}).Estimate(ctx, filepath.Join(dir, "missing.wav"), types.FormatAudio, dir)
	assert.ErrorContains(t, err, "sizing audio")
}
