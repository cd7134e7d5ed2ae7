// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ffmpeg implements the audio extraction, duration probing and
// segment cutting backends on top of the ffmpeg and ffprobe binaries.
package ffmpeg

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/docpipe/internal/tool"
	"github.com/pdiddy/docpipe/pkg/types"
)

const (
	defaultFFmpeg  = "ffmpeg"
	defaultFFprobe = "ffprobe"

	// sampleRate and channels match what speech models expect.
	sampleRate = "16000"
	channels   = "1"
)

// FFmpeg drives the ffmpeg/ffprobe pair. It satisfies
// pipeline.AudioExtractor, pipeline.MediaProber and pipeline.SegmentCutter.
type FFmpeg struct {
	exec    tool.Executor
	ffmpeg  string
	ffprobe string
}

// New returns an FFmpeg using the binaries named in cfg, falling back to
// ffmpeg and ffprobe on PATH.
func New(e tool.Executor, cfg types.ToolsConfig) *FFmpeg {
	f := &FFmpeg{exec: e, ffmpeg: cfg.FFmpeg, ffprobe: cfg.FFprobe}
	if f.ffmpeg == "" {
		f.ffmpeg = defaultFFmpeg
	}
	if f.ffprobe == "" {
		f.ffprobe = defaultFFprobe
	}
	return f
}

// Requirements lists the binaries this backend needs.
func (f *FFmpeg) Requirements() []tool.Requirement {
	return []tool.Requirement{{Name: f.ffmpeg, Required: true}, {Name: f.ffprobe, Required: true}}
}

// ExtractAudio writes the first audio stream of videoPath to a mono 16 kHz
// WAV under dir.
func (f *FFmpeg) ExtractAudio(ctx context.Context, videoPath, dir string) (string, error) {
	stem := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	out := filepath.Join(dir, stem+".wav")
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-i", videoPath,
		"-vn", "-ac", channels, "-ar", sampleRate, "-c:a", "pcm_s16le",
		out,
	}
	if _, err := f.exec.Run(ctx, f.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("extracting audio track of %s: %w", videoPath, err)
	}
	return out, nil
}

// Duration reads the container duration with ffprobe.
func (f *FFmpeg) Duration(ctx context.Context, path string) (time.Duration, error) {
	out, err := f.exec.Run(ctx, f.ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("probing %s: %w", path, err)
	}
	return ParseDuration(string(out))
}

// Cut writes [start, start+dur) of src to dst as a mono 16 kHz WAV.
func (f *FFmpeg) Cut(ctx context.Context, src string, start, dur time.Duration, dst string) error {
	args := []string{
		"-nostdin", "-hide_banner", "-loglevel", "error", "-y",
		"-ss", seconds(start),
		"-t", seconds(dur),
		"-i", src,
		"-vn", "-ac", channels, "-ar", sampleRate, "-c:a", "pcm_s16le",
		dst,
	}
	if _, err := f.exec.Run(ctx, f.ffmpeg, args...); err != nil {
		return fmt.Errorf("cutting %s at %s: %w", src, start, err)
	}
	return nil
}

// ParseDuration converts ffprobe's seconds output ("95.024000") to a
// duration.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return 0, fmt.Errorf("ffprobe reported no duration")
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", s, err)
	}
	if secs < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return time.Duration(secs * float64(time.Second)).Round(time.Millisecond), nil
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
