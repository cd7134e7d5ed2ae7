// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package asr

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/internal/tool"
	"github.com/pdiddy/docpipe/pkg/types"
)

const defaultWhisperBinary = "whisper-cli"

// WhisperCPP runs the whisper.cpp command line tool on each file.
type WhisperCPP struct {
	exec     tool.Executor
	bin      string
	model    string
	language string
}

// NewWhisperCPP requires cfg.Model to name a ggml model file.
func NewWhisperCPP(cfg types.ASRConfig, e tool.Executor) (*WhisperCPP, error) {
	if cfg.Model == "" {
		return nil, errors.New("whispercpp backend needs asr.model set to a ggml model path")
	}
	bin := cfg.Binary
	if bin == "" {
		bin = defaultWhisperBinary
	}
	return &WhisperCPP{exec: e, bin: bin, model: cfg.Model, language: cfg.Language}, nil
}

// Requirement names the binary the backend needs.
func (w *WhisperCPP) Requirement() tool.Requirement {
	return tool.Requirement{Name: w.bin, Required: true}
}

// Transcribe runs whisper.cpp without timestamps and returns its stdout
// with each line trimmed.
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath string) (string, error) {
	args := []string{"-m", w.model, "-f", audioPath, "-nt", "-np"}
	if w.language != "" {
		args = append(args, "-l", w.language)
	}
	out, err := w.exec.Run(ctx, w.bin, args...)
	if err != nil {
		var re *tool.RunError
		if errors.As(err, &re) && isOOM(re.Stderr) {
			err = fmt.Errorf("%w: %w", pipeline.ErrResource, err)
		}
		return "", fmt.Errorf("transcribing %s: %w", audioPath, err)
	}

	var lines []string
	for _, l := range strings.Split(string(out), "\n") {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func isOOM(stderr string) bool {
	s := strings.ToLower(stderr)
	return strings.Contains(s, "failed to allocate") || strings.Contains(s, "out of memory")
}
