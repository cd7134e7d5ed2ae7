// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/pkg/types"
)

// ramGBPerAudioMB is the observed peak memory of local speech recognition
// per megabyte of audio. It is logged, never enforced.
const ramGBPerAudioMB = 0.45

// Estimate is the routing decision for one audio or video file.
type Estimate struct {
	Strategy types.Strategy
	Media    types.MediaInfo

	// RAMGB is the expected peak memory if the audio were transcribed in
	// one piece.
	RAMGB float64
}

// SizeStrategy applies the size rule to an audio stream of size bytes. A
// stream strictly larger than threshold is chunked; one exactly at the
// threshold is not.
func SizeStrategy(format types.Format, size, threshold int64) types.Strategy {
	chunked := size > threshold
	switch {
	case format == types.FormatVideo && chunked:
		return types.StrategyVideoChunked
	case format == types.FormatVideo:
		return types.StrategyVideoDirect
	case chunked:
		return types.StrategyAudioChunked
	default:
		return types.StrategyAudioDirect
	}
}

// Estimator sizes audio and video inputs against the chunking threshold.
type Estimator struct {
	// Threshold is the audio size in bytes above which files are chunked.
	Threshold int64

	// Audio derives the audio track of video inputs.
	Audio AudioExtractor

	Logger zerolog.Logger
}

// Estimate decides between direct and chunked processing. For video the
// audio track is extracted once into dir and the rule applies to the
// derived track; the track is returned in Media.AudioPath for reuse.
func (e *Estimator) Estimate(ctx context.Context, path string, format types.Format, dir string) (Estimate, error) {
	audioPath := path
	switch format {
	case types.FormatAudio:
	case types.FormatVideo:
		if e.Audio == nil {
			return Estimate{}, errors.New("no audio extraction backend configured for video input")
		}
		derived, err := e.Audio.ExtractAudio(ctx, path, dir)
		if err != nil {
			return Estimate{}, fmt.Errorf("extracting audio from %s: %w", path, err)
		}
		audioPath = derived
	default:
		return Estimate{}, fmt.Errorf("size estimation does not apply to %s input", format)
	}

	info, err := os.Stat(audioPath)
	if err != nil {
		return Estimate{}, fmt.Errorf("sizing audio %s: %w", audioPath, err)
	}

	est := Estimate{
		Strategy: SizeStrategy(format, info.Size(), e.Threshold),
		Media:    types.MediaInfo{AudioPath: audioPath, AudioSize: info.Size()},
		RAMGB:    float64(info.Size()) / (1 << 20) * ramGBPerAudioMB,
	}
	e.Logger.Debug().
		Str("path", path).
		Int64("audio_bytes", est.Media.AudioSize).
		Int64("threshold_bytes", e.Threshold).
		Float64("ram_estimate_gb", est.RAMGB).
		Str("strategy", string(est.Strategy)).
		Msg("media size estimated")
	return est, nil
}
