// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package asr implements the speech recognition backends: an
// OpenAI-compatible transcription API and a local whisper.cpp binary.
package asr

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/internal/tool"
	"github.com/pdiddy/docpipe/pkg/types"
)

// ErrNoAPIKey is returned when the OpenAI backend is selected without a key.
var ErrNoAPIKey = errors.New("openai backend selected but no API key configured (set OPENAI_API_KEY or .secrets/openai-api-key)")

// permanentError marks backend failures that retrying cannot fix, such as
// rejected credentials.
type permanentError struct{ err error }

func (e *permanentError) Error() string   { return e.err.Error() }
func (e *permanentError) Unwrap() error   { return e.err }
func (e *permanentError) Permanent() bool { return true }

// New builds the backend selected in cfg. The default backend is openai.
func New(cfg types.ASRConfig, e tool.Executor, log zerolog.Logger) (pipeline.ASR, error) {
	switch cfg.Backend {
	case types.ASROpenAI, "":
		if cfg.APIKey == "" {
			return nil, ErrNoAPIKey
		}
		return NewOpenAI(cfg, log), nil
	case types.ASRWhisperCPP:
		w, err := NewWhisperCPP(cfg, e)
		if err != nil {
			return nil, err
		}
		return w, nil
	}
	return nil, fmt.Errorf("unknown asr backend %q (want %s or %s)", cfg.Backend, types.ASROpenAI, types.ASRWhisperCPP)
}
