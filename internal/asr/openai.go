// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package asr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/pdiddy/docpipe/internal/pipeline"
	"github.com/pdiddy/docpipe/pkg/types"
)

// OpenAI transcribes audio through an OpenAI-compatible
// /audio/transcriptions endpoint.
type OpenAI struct {
	client   *openai.Client
	model    string
	language string
	log      zerolog.Logger
}

// NewOpenAI builds a client from cfg. BaseURL points it at any compatible
// server (for example a local whisper server).
func NewOpenAI(cfg types.ASRConfig, log zerolog.Logger) *OpenAI {
	transportCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		transportCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.Whisper1
	}
	return &OpenAI{
		client:   openai.NewClientWithConfig(transportCfg),
		model:    model,
		language: cfg.Language,
		log:      log,
	}
}

// Transcribe uploads the file and returns the recognised text.
func (o *OpenAI) Transcribe(ctx context.Context, audioPath string) (string, error) {
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: audioPath,
		Language: o.language,
		Format:   openai.AudioResponseFormatJSON,
	})
	if err != nil {
		return "", classify(fmt.Errorf("transcribing %s: %w", audioPath, err))
	}
	text := strings.TrimSpace(resp.Text)
	o.log.Debug().Str("audio", audioPath).Int("chars", len(text)).Msg("transcribed")
	return text, nil
}

// classify marks client errors as permanent and memory pressure on the
// server as a resource error. Everything else stays retryable.
func classify(err error) error {
	status := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	switch {
	case status == http.StatusRequestEntityTooLarge || status == http.StatusInsufficientStorage:
		return fmt.Errorf("%w: %w", pipeline.ErrResource, err)
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return err
	case status >= 400 && status < 500:
		return &permanentError{err: err}
	}
	return err
}
